package relay

import (
	"context"
	"fmt"
	"sync"

	"github.com/alfredjeanlab/recordd/internal/model"
	"github.com/alfredjeanlab/recordd/internal/store"
)

// mockStore is a minimal in-memory store for relay tests.
type mockStore struct {
	mu        sync.Mutex
	records   map[string]*model.Record
	processed map[string]*model.ProcessedEvent

	// failProcessedWrites makes CreateProcessedEvent fail when set.
	failProcessedWrites bool
}

func newMockStore() *mockStore {
	return &mockStore{
		records:   make(map[string]*model.Record),
		processed: make(map[string]*model.ProcessedEvent),
	}
}

func (m *mockStore) CreateRecord(_ context.Context, r *model.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[r.ID] = r
	return nil
}

func (m *mockStore) GetRecord(_ context.Context, id string) (*model.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return r, nil
}

func (m *mockStore) UpdateRecord(_ context.Context, id string, upd model.RecordUpdate) (*model.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
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
	return r, nil
}

func (m *mockStore) DeleteRecord(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.records, id)
	return nil
}

func (m *mockStore) ListRecords(_ context.Context) ([]*model.Record, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*model.Record
	for _, r := range m.records {
		result = append(result, r)
	}
	return result, len(result), nil
}

func (m *mockStore) BatchGetRecords(_ context.Context, ids []string) ([]*model.Record, []string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var found []*model.Record
	for _, id := range ids {
		if r, ok := m.records[id]; ok {
			found = append(found, r)
		}
	}
	return found, nil, nil
}

func (m *mockStore) BatchWriteRecords(_ context.Context, records []*model.Record) ([]*model.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range records {
		m.records[r.ID] = r
	}
	return nil, nil
}

func (m *mockStore) CreateProcessedEvent(_ context.Context, e *model.ProcessedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failProcessedWrites {
		return store.Unavailable("create processed event", fmt.Errorf("injected failure"))
	}
	m.processed[e.ID] = e
	return nil
}

func (m *mockStore) GetProcessedEvents(_ context.Context, originalID string) ([]*model.ProcessedEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*model.ProcessedEvent
	for _, e := range m.processed {
		if e.OriginalID == originalID {
			result = append(result, e)
		}
	}
	return result, nil
}

func (m *mockStore) ListProcessedEvents(_ context.Context) ([]*model.ProcessedEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*model.ProcessedEvent
	for _, e := range m.processed {
		result = append(result, e)
	}
	return result, nil
}

func (m *mockStore) Close() error { return nil }

// Compile-time check that mockStore implements store.Store.
var _ store.Store = (*mockStore)(nil)

func (m *mockStore) processedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.processed)
}
