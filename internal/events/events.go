package events

import (
	"context"
	"time"

	"github.com/alfredjeanlab/recordd/internal/model"
)

// Event topic constants
const (
	TopicRecordCreated = "records.record.created"
	TopicRecordUpdated = "records.record.updated"
	TopicRecordDeleted = "records.record.deleted"

	// TopicRecordAll matches every record mutation topic; the relay consumer
	// subscribes here.
	TopicRecordAll = "records.record.>"
)

// TopicFor returns the publish topic for a given event type.
func TopicFor(t model.EventType) string {
	switch t {
	case model.EventCreated:
		return TopicRecordCreated
	case model.EventUpdated:
		return TopicRecordUpdated
	case model.EventDeleted:
		return TopicRecordDeleted
	}
	return ""
}

// Envelope is the transient message describing one record mutation. Data
// carries the record payload as of the event, not a live reference.
type Envelope struct {
	EventType model.EventType `json:"eventType"`
	Timestamp time.Time       `json:"timestamp"`
	Data      *model.Record   `json:"data"`
}

// NewEnvelope builds an envelope for a mutation of the given record,
// stamped with the current UTC time.
func NewEnvelope(t model.EventType, record *model.Record) Envelope {
	return Envelope{
		EventType: t,
		Timestamp: time.Now().UTC(),
		Data:      record,
	}
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
