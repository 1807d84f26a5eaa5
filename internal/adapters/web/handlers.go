package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"bet-books/internal/app"
)

const (
	maxFormBody   = 1 << 20  // 1 MB
	maxBackupBody = 32 << 20 // 32 MB
)

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc    app.ApplicationService
	router chi.Router
	log    zerolog.Logger
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, allowedOrigins string, log zerolog.Logger) http.Handler {
	h := &Handler{svc: svc, log: log}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(log))
	r.Use(Recoverer(log))
	r.Use(CORS(allowedOrigins))

	r.Get("/api/health", h.health)

	// ── Readers ───────────────────────────────────────────────────────────────
	r.Get("/api/documents", h.listDocuments)
	r.Get("/api/collections/{name}", h.getCollection)
	r.Get("/api/ledger", h.getLedger)
	r.Get("/api/counters", h.getCounters)
	r.Get("/api/query", h.query)
	r.Get("/api/storage", h.inspectStorage)

	// ── Form submission ──────────────────────────────────────────────────────
	r.With(RequestBodyLimit(maxFormBody)).Post("/api/documents/{kind}", h.createDocument)

	// ── Backup ────────────────────────────────────────────────────────────────
	r.Get("/api/backup", h.exportBackup)
	r.Get("/api/backup/schema", h.backupSchema)
	r.With(RequestBodyLimit(maxBackupBody)).Post("/api/backup", h.importBackup)

	h.router = r
	return r
}

// health returns service status and the number of indexed documents.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Status    string `json:"status"`
		Documents int    `json:"documents"`
	}

	res, err := h.svc.ListDocuments(r.Context(), "")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, response{Status: "ok", Documents: len(res.Entries)})
}

// decodeJSON decodes the request body into v, keeping numbers as json.Number,
// and returns false + writes an appropriate error response on failure.
// Returns HTTP 413 when the body exceeds the size limit set by
// RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		if isTooLarge(err) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}

func isTooLarge(err error) bool {
	var maxBytesErr *http.MaxBytesError
	return errors.As(err, &maxBytesErr)
}
