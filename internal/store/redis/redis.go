// Package redis implements the store.Store interface backed by Redis.
//
// Records are stored as JSON documents under record:<id> with a membership
// set tracking live ids; processed events use the same layout plus a
// per-record index set. Concurrent updates to the same id are last-write-wins.
package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/alfredjeanlab/recordd/internal/model"
	"github.com/alfredjeanlab/recordd/internal/store"
)

const (
	recordKeyPrefix    = "record:"
	recordSetKey       = "records"
	processedKeyPrefix = "processed:"
	processedSetKey    = "processed"
	// processedByRecordPrefix indexes processed events by originating record.
	processedByRecordPrefix = "processed:record:"
)

// RedisStore implements store.Store backed by a Redis server.
type RedisStore struct {
	client *redis.Client
}

// Compile-time check that RedisStore implements store.Store.
var _ store.Store = (*RedisStore)(nil)

// New connects to the Redis server at the given URL (redis://...) and
// verifies the connection.
func New(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisStore{client: client}, nil
}

// NewWithClient wraps an existing client; used by tests.
func NewWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func recordKey(id string) string {
	return recordKeyPrefix + id
}

func processedKey(id string) string {
	return processedKeyPrefix + id
}

func processedByRecordKey(originalID string) string {
	return processedByRecordPrefix + originalID
}

func (s *RedisStore) CreateRecord(ctx context.Context, record *model.Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return store.Unavailable("create record", err)
	}
	pipe := s.client.Pipeline()
	pipe.Set(ctx, recordKey(record.ID), data, 0)
	pipe.SAdd(ctx, recordSetKey, record.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return store.Unavailable("create record", err)
	}
	return nil
}

func (s *RedisStore) GetRecord(ctx context.Context, id string) (*model.Record, error) {
	data, err := s.client.Get(ctx, recordKey(id)).Result()
	if err == redis.Nil {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, store.Unavailable("get record", err)
	}
	var r model.Record
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		return nil, store.Unavailable("get record", err)
	}
	return &r, nil
}

// UpdateRecord reads the current document, applies the fields present in upd,
// and writes it back. There is no optimistic locking: concurrent updates to
// the same id are last-write-wins.
func (s *RedisStore) UpdateRecord(ctx context.Context, id string, upd model.RecordUpdate) (*model.Record, error) {
	if upd.IsEmpty() {
		return nil, &model.ValidationError{Errors: []model.FieldError{
			{Field: "update", Message: "no fields to update"},
		}}
	}

	r, err := s.GetRecord(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Title != nil {
		r.Title = *upd.Title
	}
	if upd.Description != nil {
		r.Description = *upd.Description
	}
	if upd.Completed != nil {
		r.Completed = *upd.Completed
	}

	data, err := json.Marshal(r)
	if err != nil {
		return nil, store.Unavailable("update record", err)
	}
	if err := s.client.Set(ctx, recordKey(id), data, 0).Err(); err != nil {
		return nil, store.Unavailable("update record", err)
	}
	return r, nil
}

func (s *RedisStore) DeleteRecord(ctx context.Context, id string) error {
	// Read first so an unknown id reports NotFound, matching the Postgres
	// backend's rows-affected check.
	if _, err := s.GetRecord(ctx, id); err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Del(ctx, recordKey(id))
	pipe.SRem(ctx, recordSetKey, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return store.Unavailable("delete record", err)
	}
	return nil
}

func (s *RedisStore) ListRecords(ctx context.Context) ([]*model.Record, int, error) {
	ids, err := s.client.SMembers(ctx, recordSetKey).Result()
	if err != nil {
		return nil, 0, store.Unavailable("list records", err)
	}
	records, err := s.getRecords(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	return records, len(records), nil
}

// getRecords fetches the given ids with a pipelined multi-get, skipping ids
// whose keys have vanished since the membership set was read.
func (s *RedisStore) getRecords(ctx context.Context, ids []string) ([]*model.Record, error) {
	records := make([]*model.Record, 0, len(ids))
	if len(ids) == 0 {
		return records, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.Get(ctx, recordKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, store.Unavailable("list records", err)
	}

	for _, cmd := range cmds {
		data, err := cmd.Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, store.Unavailable("list records", err)
		}
		var r model.Record
		if err := json.Unmarshal([]byte(data), &r); err != nil {
			return nil, store.Unavailable("list records", err)
		}
		records = append(records, &r)
	}
	return records, nil
}

// BatchGetRecords fetches up to store.MaxBatchGet records. Ids beyond the cap
// or whose individual reads fail are returned unprocessed for retry; ids with
// no stored record are simply absent from the result.
func (s *RedisStore) BatchGetRecords(ctx context.Context, ids []string) ([]*model.Record, []string, error) {
	var unprocessed []string
	if len(ids) > store.MaxBatchGet {
		unprocessed = append(unprocessed, ids[store.MaxBatchGet:]...)
		ids = ids[:store.MaxBatchGet]
	}
	records := make([]*model.Record, 0, len(ids))
	if len(ids) == 0 {
		return records, unprocessed, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.Get(ctx, recordKey(id))
	}
	_, _ = pipe.Exec(ctx) // per-command errors are inspected below

	for i, cmd := range cmds {
		data, err := cmd.Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			unprocessed = append(unprocessed, ids[i])
			continue
		}
		var r model.Record
		if err := json.Unmarshal([]byte(data), &r); err != nil {
			unprocessed = append(unprocessed, ids[i])
			continue
		}
		records = append(records, &r)
	}
	return records, unprocessed, nil
}

// BatchWriteRecords writes up to store.MaxBatchWrite records. The batch is
// not transactional: each record's write is inspected independently and
// failed records are returned unprocessed.
func (s *RedisStore) BatchWriteRecords(ctx context.Context, records []*model.Record) ([]*model.Record, error) {
	if len(records) > store.MaxBatchWrite {
		return nil, &model.ValidationError{Errors: []model.FieldError{
			{Field: "records", Message: fmt.Sprintf("batch size %d exceeds cap of %d", len(records), store.MaxBatchWrite)},
		}}
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.StatusCmd, len(records))
	for i, r := range records {
		data, err := json.Marshal(r)
		if err != nil {
			return nil, store.Unavailable("batch write records", err)
		}
		cmds[i] = pipe.Set(ctx, recordKey(r.ID), data, 0)
		pipe.SAdd(ctx, recordSetKey, r.ID)
	}
	_, _ = pipe.Exec(ctx) // per-command errors are inspected below

	var unprocessed []*model.Record
	for i, cmd := range cmds {
		if err := cmd.Err(); err != nil {
			unprocessed = append(unprocessed, records[i])
		}
	}
	return unprocessed, nil
}

func (s *RedisStore) CreateProcessedEvent(ctx context.Context, event *model.ProcessedEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return store.Unavailable("create processed event", err)
	}
	pipe := s.client.Pipeline()
	pipe.Set(ctx, processedKey(event.ID), data, 0)
	pipe.SAdd(ctx, processedSetKey, event.ID)
	pipe.SAdd(ctx, processedByRecordKey(event.OriginalID), event.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return store.Unavailable("create processed event", err)
	}
	return nil
}

func (s *RedisStore) GetProcessedEvents(ctx context.Context, originalID string) ([]*model.ProcessedEvent, error) {
	ids, err := s.client.SMembers(ctx, processedByRecordKey(originalID)).Result()
	if err != nil {
		return nil, store.Unavailable("get processed events", err)
	}
	return s.getProcessedEvents(ctx, ids)
}

func (s *RedisStore) ListProcessedEvents(ctx context.Context) ([]*model.ProcessedEvent, error) {
	ids, err := s.client.SMembers(ctx, processedSetKey).Result()
	if err != nil {
		return nil, store.Unavailable("list processed events", err)
	}
	return s.getProcessedEvents(ctx, ids)
}

func (s *RedisStore) getProcessedEvents(ctx context.Context, ids []string) ([]*model.ProcessedEvent, error) {
	events := make([]*model.ProcessedEvent, 0, len(ids))
	if len(ids) == 0 {
		return events, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.Get(ctx, processedKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, store.Unavailable("get processed events", err)
	}

	for _, cmd := range cmds {
		data, err := cmd.Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, store.Unavailable("get processed events", err)
		}
		var e model.ProcessedEvent
		if err := json.Unmarshal([]byte(data), &e); err != nil {
			return nil, store.Unavailable("get processed events", err)
		}
		events = append(events, &e)
	}
	return events, nil
}
