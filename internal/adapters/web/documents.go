package web

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bet-books/internal/app"
	"bet-books/internal/core"
)

// createDocument handles POST /api/documents/{kind}. The body is the
// document as a JSON object; number, date and amount are optional.
func (h *Handler) createDocument(w http.ResponseWriter, r *http.Request) {
	var fields map[string]any
	if !decodeJSON(w, r, &fields) {
		return
	}

	res, err := h.svc.AddDocument(r.Context(), app.AddDocumentRequest{
		Kind:   chi.URLParam(r, "kind"),
		Fields: fields,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	type response struct {
		Kind     core.Kind     `json:"kind"`
		Document core.Document `json:"document"`
	}
	writeJSONStatus(w, http.StatusCreated, response{Kind: res.Kind, Document: res.Document})
}

// listDocuments handles GET /api/documents?where=<expr>.
func (h *Handler) listDocuments(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.ListDocuments(r.Context(), r.URL.Query().Get("where"))
	if err != nil {
		writeError(w, r, err.Error(), "INVALID_EXPRESSION", http.StatusBadRequest)
		return
	}

	type response struct {
		Where     string            `json:"where,omitempty"`
		Count     int               `json:"count"`
		Documents []core.IndexEntry `json:"documents"`
	}
	writeJSON(w, response{Where: res.Where, Count: len(res.Entries), Documents: res.Entries})
}

// getCollection handles GET /api/collections/{name}.
func (h *Handler) getCollection(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.GetCollection(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	type response struct {
		Key   string `json:"key"`
		Count int    `json:"count"`
		Items any    `json:"items"`
	}
	writeJSON(w, response{Key: res.Key, Count: res.Count, Items: res.Items})
}

// getLedger handles GET /api/ledger?kind=<kind>.
func (h *Handler) getLedger(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.GetLedger(r.Context(), r.URL.Query().Get("kind"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	type response struct {
		Kind           core.Kind          `json:"kind,omitempty"`
		Currency       string             `json:"currency"`
		Total          json.Number        `json:"total"`
		FormattedTotal string             `json:"formattedTotal"`
		Entries        []core.LedgerEntry `json:"entries"`
	}
	writeJSON(w, response{
		Kind:           res.Kind,
		Currency:       res.Currency,
		Total:          json.Number(res.Total.String()),
		FormattedTotal: res.FormattedTotal,
		Entries:        res.Entries,
	})
}

// getCounters handles GET /api/counters, keyed by storage key.
func (h *Handler) getCounters(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.GetCounters(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := make(map[string]int, len(res.Counters))
	for _, c := range res.Counters {
		out[c.Key] = c.Value
	}
	writeJSON(w, out)
}

// query handles GET /api/query?path=<jsonpath>.
func (h *Handler) query(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeError(w, r, "path is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	res, err := h.svc.Query(r.Context(), path)
	if err != nil {
		writeError(w, r, err.Error(), "INVALID_QUERY", http.StatusBadRequest)
		return
	}

	type response struct {
		Path   string `json:"path"`
		Result any    `json:"result"`
	}
	writeJSON(w, response{Path: res.Path, Result: res.Result})
}

// inspectStorage handles GET /api/storage.
func (h *Handler) inspectStorage(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Inspect(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	type key struct {
		Key     string `json:"key"`
		Present bool   `json:"present"`
		Valid   bool   `json:"valid"`
		Items   int    `json:"items"`
		Detail  string `json:"detail,omitempty"`
	}
	type response struct {
		Healthy bool  `json:"healthy"`
		Keys    []key `json:"keys"`
	}
	out := response{Healthy: res.Healthy, Keys: make([]key, 0, len(res.Keys))}
	for _, k := range res.Keys {
		out.Keys = append(out.Keys, key(k))
	}
	writeJSON(w, out)
}
