package relay

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alfredjeanlab/recordd/internal/events"
	"github.com/alfredjeanlab/recordd/internal/idgen"
)

// defaultFlushInterval bounds how long a partial batch waits before being
// consumed.
const defaultFlushInterval = 250 * time.Millisecond

// Runner subscribes to record mutation topics and feeds batches of up to
// MaxBatch envelopes to a Consumer. Failed message ids are logged; core NATS
// cannot selectively redeliver, so redelivery stays the transport's concern.
type Runner struct {
	sub      events.Subscriber
	consumer *Consumer
	logger   *slog.Logger

	flushInterval time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRunner returns a Runner draining the given subscriber into the consumer.
func NewRunner(sub events.Subscriber, consumer *Consumer, logger *slog.Logger) *Runner {
	return &Runner{
		sub:           sub,
		consumer:      consumer,
		logger:        logger,
		flushInterval: defaultFlushInterval,
	}
}

// Start subscribes to all record mutation topics and begins consuming.
func (r *Runner) Start() error {
	ch, cancelSub, err := r.sub.Subscribe(events.TopicRecordAll)
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = func() {
		cancelSub()
		cancel()
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.run(ctx, ch)
	}()
	return nil
}

// Stop unsubscribes and waits for the in-flight batch (if any) to finish.
func (r *Runner) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
}

func (r *Runner) run(ctx context.Context, ch <-chan []byte) {
	batch := make([]Message, 0, MaxBatch)

	timer := time.NewTimer(r.flushInterval)
	defer timer.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		failed := r.consumer.Consume(ctx, batch)
		if len(failed) > 0 {
			r.logger.Warn("relay: batch had failures", "batch_size", len(batch), "failed_ids", failed)
		}
		batch = batch[:0]
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return
		case payload, ok := <-ch:
			if !ok {
				flush()
				return
			}
			batch = append(batch, Message{ID: newMessageID(), Body: payload})
			if len(batch) >= MaxBatch {
				flush()
			}
		case <-timer.C:
			flush()
			timer.Reset(r.flushInterval)
		}
	}
}

// newMessageID assigns a transport-level id to an incoming payload; plain
// NATS messages carry none of their own.
func newMessageID() string {
	id, err := idgen.GenerateWithPrefix("msg-")
	if err != nil {
		return fmt.Sprintf("msg-%d", time.Now().UnixNano())
	}
	return id
}
