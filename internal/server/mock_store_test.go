package server

import (
	"context"
	"sort"
	"sync"

	"github.com/alfredjeanlab/recordd/internal/model"
	"github.com/alfredjeanlab/recordd/internal/store"
)

// mockStore is an in-memory store.Store with per-operation error injection.
type mockStore struct {
	mu      sync.Mutex
	records map[string]*model.Record
	events  []*model.ProcessedEvent

	createErr     error
	getErr        error
	updateErr     error
	deleteErr     error
	listErr       error
	batchGetErr   error
	batchWriteErr error
	processedErr  error

	// unprocessedWrite, when non-nil, is returned by BatchWriteRecords to
	// simulate partial batch success.
	unprocessedWrite []*model.Record

	// failAfter, when > 0, makes CreateRecord fail once that many records exist.
	failAfter int
}

var _ store.Store = (*mockStore)(nil)

func newMockStore() *mockStore {
	return &mockStore{records: make(map[string]*model.Record)}
}

func (m *mockStore) CreateRecord(_ context.Context, record *model.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if m.failAfter > 0 && len(m.records) >= m.failAfter {
		return store.Unavailable("create record", context.DeadlineExceeded)
	}
	clone := *record
	m.records[record.ID] = &clone
	return nil
}

func (m *mockStore) GetRecord(_ context.Context, id string) (*model.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	r, ok := m.records[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	clone := *r
	return &clone, nil
}

func (m *mockStore) UpdateRecord(_ context.Context, id string, upd model.RecordUpdate) (*model.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	r, ok := m.records[id]
	if !ok {
		return nil, store.ErrNotFound
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
	clone := *r
	return &clone, nil
}

func (m *mockStore) DeleteRecord(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.records[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.records, id)
	return nil
}

func (m *mockStore) ListRecords(_ context.Context) ([]*model.Record, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	out := make([]*model.Record, 0, len(m.records))
	for _, r := range m.records {
		clone := *r
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (m *mockStore) BatchGetRecords(_ context.Context, ids []string) ([]*model.Record, []string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.batchGetErr != nil {
		return nil, nil, m.batchGetErr
	}
	var found []*model.Record
	var unprocessed []string
	for i, id := range ids {
		if i >= store.MaxBatchGet {
			unprocessed = append(unprocessed, id)
			continue
		}
		if r, ok := m.records[id]; ok {
			clone := *r
			found = append(found, &clone)
		}
	}
	return found, unprocessed, nil
}

func (m *mockStore) BatchWriteRecords(_ context.Context, records []*model.Record) ([]*model.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.batchWriteErr != nil {
		return nil, m.batchWriteErr
	}
	skip := make(map[string]bool, len(m.unprocessedWrite))
	for _, r := range m.unprocessedWrite {
		skip[r.ID] = true
	}
	for _, r := range records {
		if skip[r.ID] {
			continue
		}
		clone := *r
		m.records[r.ID] = &clone
	}
	return m.unprocessedWrite, nil
}

func (m *mockStore) CreateProcessedEvent(_ context.Context, event *model.ProcessedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processedErr != nil {
		return m.processedErr
	}
	clone := *event
	m.events = append(m.events, &clone)
	return nil
}

func (m *mockStore) GetProcessedEvents(_ context.Context, originalID string) ([]*model.ProcessedEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processedErr != nil {
		return nil, m.processedErr
	}
	var out []*model.ProcessedEvent
	for _, e := range m.events {
		if e.OriginalID == originalID {
			clone := *e
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (m *mockStore) ListProcessedEvents(_ context.Context) ([]*model.ProcessedEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.ProcessedEvent, 0, len(m.events))
	for _, e := range m.events {
		clone := *e
		out = append(out, &clone)
	}
	return out, nil
}

func (m *mockStore) Close() error { return nil }

// capturePublisher records every published topic and event.
type capturePublisher struct {
	mu     sync.Mutex
	topics []string
	events []any
}

func (p *capturePublisher) Publish(_ context.Context, topic string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.events = append(p.events, event)
	return nil
}

func (p *capturePublisher) Close() error { return nil }

func (p *capturePublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.topics...)
}
