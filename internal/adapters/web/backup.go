package web

import (
	"io"
	"net/http"
	"strconv"
)

// exportBackup handles GET /api/backup as a file download.
func (h *Handler) exportBackup(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.ExportBackup(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="`+res.FileName+`"`)
	writeJSON(w, res.Backup)
}

// importBackup handles POST /api/backup?confirm=true. The body is a backup
// file. Without confirm the request is refused with 409 and nothing changes.
func (h *Handler) importBackup(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		if isTooLarge(err) {
			writeError(w, r, "backup too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return
		}
		writeError(w, r, "failed to read backup: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	res, err := h.svc.ImportBackup(r.Context(), data, func() bool { return confirmed })
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	type response struct {
		Documents     int  `json:"documents"`
		LedgerEntries int  `json:"ledgerEntries"`
		Persisted     bool `json:"persisted"`
		Reloaded      bool `json:"reloaded"`
	}
	writeJSON(w, response{
		Documents:     res.Documents,
		LedgerEntries: res.LedgerEntries,
		Persisted:     res.Persisted,
		Reloaded:      res.Reloaded,
	})
}

// backupSchema handles GET /api/backup/schema.
func (h *Handler) backupSchema(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.svc.BackupSchema())
}
