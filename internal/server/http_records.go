package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/alfredjeanlab/recordd/internal/idgen"
	"github.com/alfredjeanlab/recordd/internal/model"
)

// createRecordInput is the request body for POST /v1/records.
type createRecordInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

// handleCreateRecord handles POST /v1/records.
func (s *RecordsServer) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	var in createRecordInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	record := &model.Record{
		Title:       in.Title,
		Description: in.Description,
		Completed:   in.Completed,
		CreatedAt:   time.Now().UTC(),
	}
	if err := model.ValidateRecord(record); err != nil {
		writeStoreError(w, "create record", err)
		return
	}

	id, err := idgen.Generate()
	if err != nil {
		writeStoreError(w, "create record", err)
		return
	}
	record.ID = id

	if err := s.store.CreateRecord(r.Context(), record); err != nil {
		writeStoreError(w, "create record", err)
		return
	}

	s.publishEvent(r.Context(), model.EventCreated, record)

	writeJSON(w, http.StatusCreated, record)
}

// handleGetRecord handles GET /v1/records/{id}.
func (s *RecordsServer) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	record, err := s.store.GetRecord(r.Context(), id)
	if err != nil {
		writeStoreError(w, "get record", err)
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// handleUpdateRecord handles PUT /v1/records/{id}.
// Only fields present in the body are applied; an empty update is rejected.
func (s *RecordsServer) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	var in model.RecordUpdate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if in.IsEmpty() {
		writeErrorDetail(w, http.StatusBadRequest, "No fields to update",
			"Please provide at least one field to update")
		return
	}
	if err := model.ValidateUpdate(in); err != nil {
		writeStoreError(w, "update record", err)
		return
	}

	record, err := s.store.UpdateRecord(r.Context(), id, in)
	if err != nil {
		writeStoreError(w, "update record", err)
		return
	}

	s.publishEvent(r.Context(), model.EventUpdated, record)

	writeJSON(w, http.StatusOK, record)
}

// handleDeleteRecord handles DELETE /v1/records/{id}.
// The record is fetched first so the deletion event carries its last state.
func (s *RecordsServer) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	record, err := s.store.GetRecord(r.Context(), id)
	if err != nil {
		writeStoreError(w, "delete record", err)
		return
	}

	if err := s.store.DeleteRecord(r.Context(), id); err != nil {
		writeStoreError(w, "delete record", err)
		return
	}

	s.publishEvent(r.Context(), model.EventDeleted, record)

	w.WriteHeader(http.StatusNoContent)
}

// handleListRecords handles GET /v1/records.
func (s *RecordsServer) handleListRecords(w http.ResponseWriter, r *http.Request) {
	records, count, err := s.store.ListRecords(r.Context())
	if err != nil {
		writeStoreError(w, "list records", err)
		return
	}

	// Ensure items is never null in JSON output.
	if records == nil {
		records = []*model.Record{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items": records,
		"count": count,
	})
}

// handleGetRecordEvents handles GET /v1/records/{id}/events. It returns the
// processed events the relay has written for the record, oldest first.
func (s *RecordsServer) handleGetRecordEvents(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	evts, err := s.store.GetProcessedEvents(r.Context(), id)
	if err != nil {
		writeStoreError(w, "get record events", err)
		return
	}

	if evts == nil {
		evts = []*model.ProcessedEvent{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"events": evts,
		"count":  len(evts),
	})
}
