package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"bet-books/internal/core"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeServiceError maps a service error onto an HTTP status.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrUnknownKind):
		writeError(w, r, err.Error(), "UNKNOWN_KIND", http.StatusNotFound)
	case errors.Is(err, core.ErrInvalidDocument):
		writeError(w, r, err.Error(), "INVALID_DOCUMENT", http.StatusBadRequest)
	case errors.Is(err, core.ErrImportParse):
		writeError(w, r, err.Error(), "INVALID_BACKUP", http.StatusBadRequest)
	case errors.Is(err, core.ErrImportCancelled):
		writeError(w, r, "import replaces all data; repeat with confirm=true", "CONFIRMATION_REQUIRED", http.StatusConflict)
	default:
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
	}
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
