// Package relay consumes record mutation envelopes and materializes them as
// processed events. Per-message faults are isolated: one bad envelope never
// blocks its batch siblings, and the ids of failed messages are reported so a
// transport that supports it can redeliver only the failed subset.
package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/alfredjeanlab/recordd/internal/events"
	"github.com/alfredjeanlab/recordd/internal/idgen"
	"github.com/alfredjeanlab/recordd/internal/model"
	"github.com/alfredjeanlab/recordd/internal/store"
)

// MaxBatch is the largest number of envelopes processed in one Consume call.
const MaxBatch = 10

// Message is one envelope as delivered by the transport. ID identifies the
// message for failure reporting, not the record it describes.
type Message struct {
	ID   string
	Body []byte
}

// Consumer derives processed events from mutation envelopes.
type Consumer struct {
	store  store.Store
	logger *slog.Logger
}

// NewConsumer returns a Consumer writing derived records through the given store.
func NewConsumer(s store.Store, logger *slog.Logger) *Consumer {
	return &Consumer{store: s, logger: logger}
}

// Consume processes each message in the batch independently and returns the
// ids of messages that failed (parse error or store write failure). It never
// returns an error: partial failure is the structured result, and
// reprocessing a redelivered message yields a new processed event rather
// than a conflict.
func (c *Consumer) Consume(ctx context.Context, batch []Message) []string {
	var failed []string
	for _, msg := range batch {
		if err := c.processMessage(ctx, msg); err != nil {
			c.logger.Error("relay: failed to process message", "message_id", msg.ID, "err", err)
			failed = append(failed, msg.ID)
		}
	}
	return failed
}

func (c *Consumer) processMessage(ctx context.Context, msg Message) error {
	var env events.Envelope
	if err := json.Unmarshal(msg.Body, &env); err != nil {
		return fmt.Errorf("parse envelope: %w", err)
	}
	if env.Data == nil || env.Data.ID == "" {
		return fmt.Errorf("envelope has no record payload")
	}
	if !env.EventType.IsValid() {
		return fmt.Errorf("unknown event type %q", env.EventType)
	}

	data, err := json.Marshal(env.Data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	now := time.Now().UTC()
	processed := &model.ProcessedEvent{
		ID:             idgen.ProcessedEventID(env.Data.ID, now),
		OriginalID:     env.Data.ID,
		EventType:      env.EventType,
		EventTimestamp: env.Timestamp,
		ProcessedAt:    now,
		Data:           data,
		MessageID:      msg.ID,
	}

	if err := c.store.CreateProcessedEvent(ctx, processed); err != nil {
		return fmt.Errorf("write processed event: %w", err)
	}

	c.logger.Info("relay: processed event",
		"processed_id", processed.ID, "event_type", env.EventType, "record_id", env.Data.ID)
	return nil
}
