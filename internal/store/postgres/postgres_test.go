package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"github.com/alfredjeanlab/recordd/internal/model"
	"github.com/alfredjeanlab/recordd/internal/store"
)

// newMockDB creates a sqlmock database with automatic cleanup and expectation checking.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
		db.Close()
	})
	return db, mock
}

// recordRowColumns is the column list for scanRecord results.
var recordRowColumns = []string{"id", "title", "description", "completed", "created_at"}

// processedRowColumns is the column list for scanProcessedEvent results.
var processedRowColumns = []string{"id", "original_id", "event_type", "event_timestamp", "processed_at", "data", "message_id"}

func TestQueryCreateRecord(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()

	mock.ExpectExec(`INSERT INTO records`).
		WithArgs("rec-1", "Buy milk", "2%", false, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := queryCreateRecord(context.Background(), db, &model.Record{
		ID:          "rec-1",
		Title:       "Buy milk",
		Description: "2%",
		CreatedAt:   now,
	})
	if err != nil {
		t.Fatalf("queryCreateRecord: %v", err)
	}
}

func TestQueryCreateRecord_Unavailable(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec(`INSERT INTO records`).
		WillReturnError(fmt.Errorf("connection refused"))

	err := queryCreateRecord(context.Background(), db, &model.Record{ID: "rec-1", Title: "x"})
	var ue *store.UnavailableError
	if !errors.As(err, &ue) {
		t.Fatalf("expected *store.UnavailableError, got %v", err)
	}
}

func TestQueryGetRecord(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT .+ FROM records WHERE id = \$1`).
		WithArgs("rec-1").
		WillReturnRows(sqlmock.NewRows(recordRowColumns).
			AddRow("rec-1", "Buy milk", nil, false, now))

	r, err := queryGetRecord(context.Background(), db, "rec-1")
	if err != nil {
		t.Fatalf("queryGetRecord: %v", err)
	}
	if r.ID != "rec-1" || r.Title != "Buy milk" || r.Description != "" || r.Completed {
		t.Errorf("unexpected record: %+v", r)
	}
}

func TestQueryGetRecord_NotFound(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(`SELECT .+ FROM records WHERE id = \$1`).
		WithArgs("rec-missing").
		WillReturnRows(sqlmock.NewRows(recordRowColumns))

	_, err := queryGetRecord(context.Background(), db, "rec-missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestQueryUpdateRecord_PartialSet(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	title := "New title"

	// Only title is present, so only title appears in the SET clause.
	mock.ExpectQuery(`UPDATE records SET title = \$1 WHERE id = \$2 RETURNING`).
		WithArgs(title, "rec-1").
		WillReturnRows(sqlmock.NewRows(recordRowColumns).
			AddRow("rec-1", title, "old description", false, now))

	r, err := queryUpdateRecord(context.Background(), db, "rec-1", model.RecordUpdate{Title: &title})
	if err != nil {
		t.Fatalf("queryUpdateRecord: %v", err)
	}
	if r.Title != title {
		t.Errorf("title = %q, want %q", r.Title, title)
	}
	if r.Description != "old description" {
		t.Errorf("description changed: %q", r.Description)
	}
}

func TestQueryUpdateRecord_AllFields(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	title := "T"
	desc := "D"
	done := true

	mock.ExpectQuery(`UPDATE records SET title = \$1, description = \$2, completed = \$3 WHERE id = \$4 RETURNING`).
		WithArgs(title, desc, done, "rec-1").
		WillReturnRows(sqlmock.NewRows(recordRowColumns).
			AddRow("rec-1", title, desc, done, now))

	r, err := queryUpdateRecord(context.Background(), db, "rec-1", model.RecordUpdate{
		Title:       &title,
		Description: &desc,
		Completed:   &done,
	})
	if err != nil {
		t.Fatalf("queryUpdateRecord: %v", err)
	}
	if !r.Completed {
		t.Error("completed should be true")
	}
}

func TestQueryUpdateRecord_Empty(t *testing.T) {
	db, _ := newMockDB(t)

	_, err := queryUpdateRecord(context.Background(), db, "rec-1", model.RecordUpdate{})
	var ve *model.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *model.ValidationError, got %v", err)
	}
}

func TestQueryUpdateRecord_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	title := "x"

	mock.ExpectQuery(`UPDATE records SET title = \$1 WHERE id = \$2 RETURNING`).
		WithArgs(title, "rec-missing").
		WillReturnRows(sqlmock.NewRows(recordRowColumns))

	_, err := queryUpdateRecord(context.Background(), db, "rec-missing", model.RecordUpdate{Title: &title})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestQueryDeleteRecord(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec(`DELETE FROM records WHERE id = \$1`).
		WithArgs("rec-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := queryDeleteRecord(context.Background(), db, "rec-1"); err != nil {
		t.Fatalf("queryDeleteRecord: %v", err)
	}
}

func TestQueryDeleteRecord_NotFound(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec(`DELETE FROM records WHERE id = \$1`).
		WithArgs("rec-missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := queryDeleteRecord(context.Background(), db, "rec-missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestQueryListRecords(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT .+ FROM records`).
		WillReturnRows(sqlmock.NewRows(recordRowColumns).
			AddRow("rec-1", "A", nil, false, now).
			AddRow("rec-2", "B", "desc", true, now))

	records, count, err := queryListRecords(context.Background(), db)
	if err != nil {
		t.Fatalf("queryListRecords: %v", err)
	}
	if count != 2 || len(records) != 2 {
		t.Errorf("count = %d, len = %d, want 2", count, len(records))
	}
}

func TestQueryBatchGetRecords(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	ids := []string{"rec-1", "rec-2", "rec-3"}

	// rec-3 has no row; it is absent from the result, not unprocessed.
	mock.ExpectQuery(`SELECT .+ FROM records WHERE id = ANY\(\$1\)`).
		WithArgs(pq.Array(ids)).
		WillReturnRows(sqlmock.NewRows(recordRowColumns).
			AddRow("rec-1", "A", nil, false, now).
			AddRow("rec-2", "B", nil, true, now))

	records, unprocessed, err := queryBatchGetRecords(context.Background(), db, ids)
	if err != nil {
		t.Fatalf("queryBatchGetRecords: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("got %d records, want 2", len(records))
	}
	if len(unprocessed) != 0 {
		t.Errorf("unprocessed = %v, want empty", unprocessed)
	}
}

func TestQueryBatchGetRecords_OverCap(t *testing.T) {
	db, mock := newMockDB(t)

	ids := make([]string, store.MaxBatchGet+5)
	for i := range ids {
		ids[i] = fmt.Sprintf("rec-%d", i)
	}

	mock.ExpectQuery(`SELECT .+ FROM records WHERE id = ANY\(\$1\)`).
		WillReturnRows(sqlmock.NewRows(recordRowColumns))

	_, unprocessed, err := queryBatchGetRecords(context.Background(), db, ids)
	if err != nil {
		t.Fatalf("queryBatchGetRecords: %v", err)
	}
	if len(unprocessed) != 5 {
		t.Errorf("unprocessed = %d ids, want 5", len(unprocessed))
	}
	if unprocessed[0] != fmt.Sprintf("rec-%d", store.MaxBatchGet) {
		t.Errorf("first unprocessed id = %q", unprocessed[0])
	}
}

func TestQueryBatchWriteRecords(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()

	records := []*model.Record{
		{ID: "rec-1", Title: "A", CreatedAt: now},
		{ID: "rec-2", Title: "B", CreatedAt: now},
	}

	mock.ExpectExec(`INSERT INTO records .+ ON CONFLICT`).
		WithArgs("rec-1", "A", nil, false, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO records .+ ON CONFLICT`).
		WithArgs("rec-2", "B", nil, false, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	unprocessed, err := queryBatchWriteRecords(context.Background(), db, records)
	if err != nil {
		t.Fatalf("queryBatchWriteRecords: %v", err)
	}
	if len(unprocessed) != 0 {
		t.Errorf("unprocessed = %d records, want 0", len(unprocessed))
	}
}

func TestQueryBatchWriteRecords_PartialFailure(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()

	records := []*model.Record{
		{ID: "rec-1", Title: "A", CreatedAt: now},
		{ID: "rec-2", Title: "B", CreatedAt: now},
	}

	mock.ExpectExec(`INSERT INTO records .+ ON CONFLICT`).
		WithArgs("rec-1", "A", nil, false, now).
		WillReturnError(fmt.Errorf("disk full"))
	mock.ExpectExec(`INSERT INTO records .+ ON CONFLICT`).
		WithArgs("rec-2", "B", nil, false, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	unprocessed, err := queryBatchWriteRecords(context.Background(), db, records)
	if err != nil {
		t.Fatalf("queryBatchWriteRecords: %v", err)
	}
	if len(unprocessed) != 1 || unprocessed[0].ID != "rec-1" {
		t.Errorf("unprocessed = %+v, want [rec-1]", unprocessed)
	}
}

func TestQueryBatchWriteRecords_OverCap(t *testing.T) {
	db, _ := newMockDB(t)

	records := make([]*model.Record, store.MaxBatchWrite+1)
	for i := range records {
		records[i] = &model.Record{ID: fmt.Sprintf("rec-%d", i), Title: "x"}
	}

	_, err := queryBatchWriteRecords(context.Background(), db, records)
	var ve *model.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *model.ValidationError, got %v", err)
	}
}

func TestQueryCreateProcessedEvent(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()

	mock.ExpectExec(`INSERT INTO processed_events`).
		WithArgs("rec-1-123", "rec-1", "Created", now, now, []byte(`{"id":"rec-1"}`), "msg-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := queryCreateProcessedEvent(context.Background(), db, &model.ProcessedEvent{
		ID:             "rec-1-123",
		OriginalID:     "rec-1",
		EventType:      model.EventCreated,
		EventTimestamp: now,
		ProcessedAt:    now,
		Data:           []byte(`{"id":"rec-1"}`),
		MessageID:      "msg-1",
	})
	if err != nil {
		t.Fatalf("queryCreateProcessedEvent: %v", err)
	}
}

func TestQueryGetProcessedEvents(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT .+ FROM processed_events WHERE original_id = \$1`).
		WithArgs("rec-1").
		WillReturnRows(sqlmock.NewRows(processedRowColumns).
			AddRow("rec-1-123", "rec-1", "Created", now, now, []byte(`{}`), nil).
			AddRow("rec-1-456", "rec-1", "Updated", now, now, nil, "msg-2"))

	events, err := queryGetProcessedEvents(context.Background(), db, "rec-1")
	if err != nil {
		t.Fatalf("queryGetProcessedEvents: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].EventType != model.EventCreated || events[1].MessageID != "msg-2" {
		t.Errorf("unexpected events: %+v, %+v", events[0], events[1])
	}
}
