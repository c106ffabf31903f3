package postgres

import (
	"database/sql"
	"encoding/json"

	"github.com/alfredjeanlab/recordd/internal/model"
	"github.com/alfredjeanlab/recordd/internal/store"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanRecord scans a single row into a model.Record.
// The row must contain columns in the order defined by recordColumns.
func scanRecord(row scannable) (*model.Record, error) {
	var r model.Record
	var description sql.NullString

	err := row.Scan(
		&r.ID,
		&r.Title,
		&description,
		&r.Completed,
		&r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.Description = description.String
	return &r, nil
}

// scanProcessedEvent scans a single row into a model.ProcessedEvent.
// The row must contain columns in the order defined by processedEventColumns.
func scanProcessedEvent(row scannable) (*model.ProcessedEvent, error) {
	var e model.ProcessedEvent
	var (
		eventType string
		data      []byte
		messageID sql.NullString
	)

	err := row.Scan(
		&e.ID,
		&e.OriginalID,
		&eventType,
		&e.EventTimestamp,
		&e.ProcessedAt,
		&data,
		&messageID,
	)
	if err != nil {
		return nil, err
	}

	e.EventType = model.EventType(eventType)
	e.MessageID = messageID.String
	if len(data) > 0 {
		e.Data = json.RawMessage(data)
	}
	return &e, nil
}

// scanProcessedEvents drains rows into a slice of processed events.
func scanProcessedEvents(rows *sql.Rows) ([]*model.ProcessedEvent, error) {
	var events []*model.ProcessedEvent
	for rows.Next() {
		e, err := scanProcessedEvent(rows)
		if err != nil {
			return nil, store.Unavailable("scan processed events", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, store.Unavailable("scan processed events", err)
	}
	return events, nil
}

// nullString converts an empty string to a SQL NULL.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// jsonbBytes converts raw JSON to a value suitable for a JSONB column,
// mapping empty input to NULL.
func jsonbBytes(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
