package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/alfredjeanlab/recordd/internal/model"
	"github.com/alfredjeanlab/recordd/internal/store"
)

// NewHTTPHandler returns an http.Handler with all routes registered.
// When authToken is non-empty, requests (except GET /v1/health) must include
// a valid Authorization: Bearer <token> header.
func (s *RecordsServer) NewHTTPHandler(authToken string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/records", s.handleCreateRecord)
	mux.HandleFunc("GET /v1/records", s.handleListRecords)
	mux.HandleFunc("GET /v1/records/{id}", s.handleGetRecord)
	mux.HandleFunc("PUT /v1/records/{id}", s.handleUpdateRecord)
	mux.HandleFunc("DELETE /v1/records/{id}", s.handleDeleteRecord)
	mux.HandleFunc("GET /v1/records/{id}/events", s.handleGetRecordEvents)
	mux.HandleFunc("POST /v1/records/seed", s.handleSeedRecords)
	mux.HandleFunc("POST /v1/records/batch-get", s.handleBatchGetRecords)
	mux.HandleFunc("POST /v1/records/batch-write", s.handleBatchWriteRecords)
	mux.HandleFunc("GET /v1/health", s.handleHealth)
	return RecoveryMiddleware(LoggingMiddleware(AuthMiddleware(authToken, mux)))
}

// handleHealth handles GET /v1/health.
func (s *RecordsServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeStoreError maps a store error to an HTTP error response. Unrecognized
// errors collapse to a generic 500 so internals never leak to clients.
func writeStoreError(w http.ResponseWriter, op string, err error) {
	var ve *model.ValidationError
	if errors.As(err, &ve) {
		writeErrorDetail(w, http.StatusBadRequest, "Validation Error", ve.Error())
		return
	}
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Not Found")
		return
	}
	var ue *store.UnavailableError
	if errors.As(err, &ue) {
		slog.Error("store unavailable", "op", op, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	slog.Error("unexpected error", "op", op, "error", err)
	writeError(w, http.StatusInternalServerError, "Internal Server Error")
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeErrorDetail writes a JSON error response with an extra message field.
func writeErrorDetail(w http.ResponseWriter, status int, errMsg, message string) {
	writeJSON(w, status, map[string]string{"error": errMsg, "message": message})
}
