package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/alfredjeanlab/recordd/internal/model"
	"github.com/alfredjeanlab/recordd/internal/seed"
)

// handleSeedRecords handles POST /v1/records/seed. It writes the built-in
// fixture set through the normal create path. A mid-seed failure aborts the
// remainder and reports how many records were written first.
func (s *RecordsServer) handleSeedRecords(w http.ResponseWriter, r *http.Request) {
	fixtures := seed.Defaults()

	written := make([]*model.Record, 0, len(fixtures))
	for _, fx := range fixtures {
		record, err := seed.Materialize(fx)
		if err == nil {
			err = s.store.CreateRecord(r.Context(), record)
		}
		if err != nil {
			writeErrorDetail(w, http.StatusInternalServerError, "Failed to seed items",
				fmt.Sprintf("seeded %d of %d items before failure", len(written), len(fixtures)))
			return
		}
		written = append(written, record)
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message":     "Seed completed successfully",
		"itemsSeeded": len(written),
		"items":       written,
	})
}

// batchGetInput is the request body for POST /v1/records/batch-get.
type batchGetInput struct {
	IDs []string `json:"ids"`
}

// handleBatchGetRecords handles POST /v1/records/batch-get. IDs the store
// could not serve in this call come back as unprocessedKeys for caller retry.
func (s *RecordsServer) handleBatchGetRecords(w http.ResponseWriter, r *http.Request) {
	var in batchGetInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if len(in.IDs) == 0 {
		writeErrorDetail(w, http.StatusBadRequest, "No IDs provided",
			"Please provide an array of IDs in the request body")
		return
	}

	records, unprocessed, err := s.store.BatchGetRecords(r.Context(), in.IDs)
	if err != nil {
		writeStoreError(w, "batch get records", err)
		return
	}

	if records == nil {
		records = []*model.Record{}
	}
	if unprocessed == nil {
		unprocessed = []string{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items":           records,
		"unprocessedKeys": unprocessed,
	})
}

// batchWriteCount is how many records the batch-write endpoint synthesizes.
const batchWriteCount = 5

// handleBatchWriteRecords handles POST /v1/records/batch-write. It
// synthesizes a fixed set of records and writes them in one batch call;
// records the store could not commit come back as unprocessedItems.
func (s *RecordsServer) handleBatchWriteRecords(w http.ResponseWriter, r *http.Request) {
	records := make([]*model.Record, 0, batchWriteCount)
	for i := 1; i <= batchWriteCount; i++ {
		record, err := seed.Materialize(seed.Fixture{
			Title:       fmt.Sprintf("Batch item %d", i),
			Description: fmt.Sprintf("Created by batch write (%d of %d)", i, batchWriteCount),
		})
		if err != nil {
			writeStoreError(w, "batch write records", err)
			return
		}
		records = append(records, record)
	}

	unprocessed, err := s.store.BatchWriteRecords(r.Context(), records)
	if err != nil {
		writeStoreError(w, "batch write records", err)
		return
	}

	if unprocessed == nil {
		unprocessed = []*model.Record{}
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message":          "Batch write completed",
		"itemsWritten":     len(records) - len(unprocessed),
		"unprocessedItems": unprocessed,
		"items":            records,
	})
}
