package model

import (
	"encoding/json"
	"time"
)

// EventType classifies a record mutation.
type EventType string

const (
	EventCreated EventType = "Created"
	EventUpdated EventType = "Updated"
	EventDeleted EventType = "Deleted"
)

// String returns the string representation of the event type.
func (t EventType) String() string {
	return string(t)
}

// IsValid checks whether the event type is a known value.
func (t EventType) IsValid() bool {
	switch t {
	case EventCreated, EventUpdated, EventDeleted:
		return true
	}
	return false
}

// Record is the core business entity. The ID is assigned once at creation and
// never reassigned.
type Record struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"createdAt"`
}

// RecordUpdate describes a partial update. Nil fields are left unchanged;
// they are never nulled out.
type RecordUpdate struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
}

// IsEmpty reports whether the update touches no fields.
func (u RecordUpdate) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.Completed == nil
}

// ProcessedEvent is the derived record written by the relay consumer, one per
// consumed envelope. It is append-only: never updated after creation.
type ProcessedEvent struct {
	ID             string          `json:"id"`
	OriginalID     string          `json:"originalId"`
	EventType      EventType       `json:"eventType"`
	EventTimestamp time.Time       `json:"eventTimestamp"`
	ProcessedAt    time.Time       `json:"processedAt"`
	Data           json.RawMessage `json:"data"`
	MessageID      string          `json:"messageId,omitempty"`
}
