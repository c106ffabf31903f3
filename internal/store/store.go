package store

import (
	"context"

	"github.com/alfredjeanlab/recordd/internal/model"
)

// Batch caps mirror the underlying provider limits: a single batch write
// accepts at most 25 records, a single batch get at most 100 ids. Callers
// must chunk larger inputs.
const (
	MaxBatchWrite = 25
	MaxBatchGet   = 100
)

// Store defines the persistence interface for records and processed events.
//
// Implementations report an unknown id as ErrNotFound from GetRecord,
// UpdateRecord, and DeleteRecord (a second delete of the same id is NotFound,
// not a silent no-op). Provider or transport faults are wrapped in
// *UnavailableError so callers can distinguish retryable failures from
// terminal ones.
type Store interface {
	// Record CRUD
	CreateRecord(ctx context.Context, record *model.Record) error
	GetRecord(ctx context.Context, id string) (*model.Record, error)
	UpdateRecord(ctx context.Context, id string, upd model.RecordUpdate) (*model.Record, error)
	DeleteRecord(ctx context.Context, id string) error
	ListRecords(ctx context.Context) ([]*model.Record, int, error) // returns records, count, error

	// Batch operations. Both are non-transactional: partial success is a
	// normal outcome, surfaced through the unprocessed return value.
	BatchGetRecords(ctx context.Context, ids []string) ([]*model.Record, []string, error)   // returns found, unprocessed ids, error
	BatchWriteRecords(ctx context.Context, records []*model.Record) ([]*model.Record, error) // returns unprocessed records, error

	// Processed events (append-only, written by the relay consumer)
	CreateProcessedEvent(ctx context.Context, event *model.ProcessedEvent) error
	GetProcessedEvents(ctx context.Context, originalID string) ([]*model.ProcessedEvent, error)
	ListProcessedEvents(ctx context.Context) ([]*model.ProcessedEvent, error)

	// Lifecycle
	Close() error
}
