// Package export snapshots the record store as JSONL and ships it to a
// destination (S3-compatible object storage) on a fixed interval.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/alfredjeanlab/recordd/internal/store"
)

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version     string    `json:"version"`
	Type        string    `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	RecordCount int       `json:"record_count"`
	EventCount  int       `json:"event_count"`
}

// line wraps a single JSONL line with a type discriminator.
type line struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// ExportJSONL writes all records and processed events from the store as JSONL
// to w. Records are sorted by ID, processed events by their own id, so equal
// store states produce byte-identical exports.
func ExportJSONL(ctx context.Context, s store.Store, w io.Writer) error {
	records, _, err := s.ListRecords(ctx)
	if err != nil {
		return fmt.Errorf("list records: %w", err)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].ID < records[j].ID
	})

	events, err := s.ListProcessedEvents(ctx)
	if err != nil {
		return fmt.Errorf("list processed events: %w", err)
	}
	sort.Slice(events, func(i, j int) bool {
		return events[i].ID < events[j].ID
	})

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(header{
		Version:     "1",
		Type:        "header",
		Timestamp:   time.Now().UTC(),
		RecordCount: len(records),
		EventCount:  len(events),
	}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	for _, r := range records {
		if err := enc.Encode(line{Type: "record", Data: r}); err != nil {
			return fmt.Errorf("encode record %s: %w", r.ID, err)
		}
	}

	for _, e := range events {
		if err := enc.Encode(line{Type: "processed_event", Data: e}); err != nil {
			return fmt.Errorf("encode processed event %s: %w", e.ID, err)
		}
	}

	return nil
}
