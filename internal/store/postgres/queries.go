package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/alfredjeanlab/recordd/internal/model"
	"github.com/alfredjeanlab/recordd/internal/store"
)

// recordColumns is the column list used for SELECT statements on the records table.
const recordColumns = `id, title, description, completed, created_at`

// processedEventColumns is the column list for the processed_events table.
const processedEventColumns = `id, original_id, event_type, event_timestamp, processed_at, data, message_id`

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func queryCreateRecord(ctx context.Context, db executor, r *model.Record) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO records (id, title, description, completed, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		r.ID,
		r.Title,
		nullString(r.Description),
		r.Completed,
		r.CreatedAt,
	)
	if err != nil {
		return store.Unavailable("create record", err)
	}
	return nil
}

func queryGetRecord(ctx context.Context, db executor, id string) (*model.Record, error) {
	row := db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM records WHERE id = $1`, id)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, store.Unavailable("get record", err)
	}
	return r, nil
}

// queryUpdateRecord builds a SET clause from the fields present in upd and
// returns the post-update record. Absent fields are left untouched.
func queryUpdateRecord(ctx context.Context, db executor, id string, upd model.RecordUpdate) (*model.Record, error) {
	if upd.IsEmpty() {
		return nil, &model.ValidationError{Errors: []model.FieldError{
			{Field: "update", Message: "no fields to update"},
		}}
	}

	var (
		setClauses []string
		args       []any
		argIdx     int
	)

	nextArg := func() string {
		argIdx++
		return fmt.Sprintf("$%d", argIdx)
	}

	if upd.Title != nil {
		setClauses = append(setClauses, "title = "+nextArg())
		args = append(args, *upd.Title)
	}
	if upd.Description != nil {
		setClauses = append(setClauses, "description = "+nextArg())
		args = append(args, nullString(*upd.Description))
	}
	if upd.Completed != nil {
		setClauses = append(setClauses, "completed = "+nextArg())
		args = append(args, *upd.Completed)
	}

	query := "UPDATE records SET " + strings.Join(setClauses, ", ") +
		" WHERE id = " + nextArg() + " RETURNING " + recordColumns
	args = append(args, id)

	row := db.QueryRowContext(ctx, query, args...)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, store.Unavailable("update record", err)
	}
	return r, nil
}

func queryDeleteRecord(ctx context.Context, db executor, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM records WHERE id = $1`, id)
	if err != nil {
		return store.Unavailable("delete record", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return store.Unavailable("delete record", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func queryListRecords(ctx context.Context, db executor) ([]*model.Record, int, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+recordColumns+` FROM records`)
	if err != nil {
		return nil, 0, store.Unavailable("list records", err)
	}
	defer rows.Close()

	var records []*model.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, 0, store.Unavailable("scan records", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, store.Unavailable("scan records", err)
	}

	return records, len(records), nil
}

// queryBatchGetRecords fetches up to store.MaxBatchGet records in one call.
// Ids beyond the cap are returned unprocessed for the caller to retry; ids
// with no matching record are simply absent from the result.
func queryBatchGetRecords(ctx context.Context, db executor, ids []string) ([]*model.Record, []string, error) {
	var unprocessed []string
	if len(ids) > store.MaxBatchGet {
		unprocessed = append(unprocessed, ids[store.MaxBatchGet:]...)
		ids = ids[:store.MaxBatchGet]
	}
	if len(ids) == 0 {
		return []*model.Record{}, unprocessed, nil
	}

	rows, err := db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM records WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, nil, store.Unavailable("batch get records", err)
	}
	defer rows.Close()

	records := make([]*model.Record, 0, len(ids))
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, nil, store.Unavailable("scan records", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, store.Unavailable("scan records", err)
	}

	return records, unprocessed, nil
}

// queryBatchWriteRecords upserts up to store.MaxBatchWrite records. The batch
// is not transactional: each row is written independently and rows the
// database rejects are returned unprocessed.
func queryBatchWriteRecords(ctx context.Context, db executor, records []*model.Record) ([]*model.Record, error) {
	if len(records) > store.MaxBatchWrite {
		return nil, &model.ValidationError{Errors: []model.FieldError{
			{Field: "records", Message: fmt.Sprintf("batch size %d exceeds cap of %d", len(records), store.MaxBatchWrite)},
		}}
	}

	var unprocessed []*model.Record
	for _, r := range records {
		_, err := db.ExecContext(ctx, `
			INSERT INTO records (id, title, description, completed, created_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE SET
				title = EXCLUDED.title,
				description = EXCLUDED.description,
				completed = EXCLUDED.completed`,
			r.ID,
			r.Title,
			nullString(r.Description),
			r.Completed,
			r.CreatedAt,
		)
		if err != nil {
			unprocessed = append(unprocessed, r)
		}
	}

	return unprocessed, nil
}

func queryCreateProcessedEvent(ctx context.Context, db executor, e *model.ProcessedEvent) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO processed_events (id, original_id, event_type, event_timestamp, processed_at, data, message_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID,
		e.OriginalID,
		string(e.EventType),
		e.EventTimestamp,
		e.ProcessedAt,
		jsonbBytes(e.Data),
		nullString(e.MessageID),
	)
	if err != nil {
		return store.Unavailable("create processed event", err)
	}
	return nil
}

func queryGetProcessedEvents(ctx context.Context, db executor, originalID string) ([]*model.ProcessedEvent, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+processedEventColumns+` FROM processed_events WHERE original_id = $1 ORDER BY processed_at`,
		originalID)
	if err != nil {
		return nil, store.Unavailable("get processed events", err)
	}
	defer rows.Close()

	return scanProcessedEvents(rows)
}

func queryListProcessedEvents(ctx context.Context, db executor) ([]*model.ProcessedEvent, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+processedEventColumns+` FROM processed_events ORDER BY processed_at`)
	if err != nil {
		return nil, store.Unavailable("list processed events", err)
	}
	defer rows.Close()

	return scanProcessedEvents(rows)
}
