package server

import (
	"context"
	"log/slog"

	"github.com/alfredjeanlab/recordd/internal/events"
	"github.com/alfredjeanlab/recordd/internal/model"
	"github.com/alfredjeanlab/recordd/internal/store"
)

// RecordsServer serves the record CRUD API over HTTP.
type RecordsServer struct {
	store     store.Store
	publisher events.Publisher
}

// NewRecordsServer returns a new RecordsServer backed by the given store and publisher.
func NewRecordsServer(s store.Store, p events.Publisher) *RecordsServer {
	return &RecordsServer{
		store:     s,
		publisher: p,
	}
}

// publishEvent emits a mutation envelope for the record. Publishing is
// best-effort; failures are logged but do not block the caller.
func (s *RecordsServer) publishEvent(ctx context.Context, t model.EventType, record *model.Record) {
	topic := events.TopicFor(t)
	if topic == "" {
		slog.Warn("no topic for event type", "event_type", t)
		return
	}
	if err := s.publisher.Publish(ctx, topic, events.NewEnvelope(t, record)); err != nil {
		slog.Warn("failed to publish event", "topic", topic, "record_id", record.ID, "error", err)
	}
}
