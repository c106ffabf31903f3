// Package seed provides record fixtures for the seed endpoint and for
// preloading a fresh deployment from a TOML file.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/alfredjeanlab/recordd/internal/idgen"
	"github.com/alfredjeanlab/recordd/internal/model"
	"github.com/alfredjeanlab/recordd/internal/store"
)

// Fixture is one seed record before an ID and timestamp are assigned.
type Fixture struct {
	Title       string `toml:"title"`
	Description string `toml:"description"`
	Completed   bool   `toml:"completed"`
}

// Defaults returns the built-in fixture set written by the seed endpoint.
func Defaults() []Fixture {
	return []Fixture{
		{Title: "Set up the project board", Description: "Create the shared board and invite the team", Completed: false},
		{Title: "Draft the onboarding checklist", Description: "Collect the steps every new teammate walks through", Completed: false},
		{Title: "Review open incident reports", Description: "Close out anything resolved more than a week ago", Completed: true},
		{Title: "Schedule the quarterly planning call", Description: "Find a slot that works across time zones", Completed: true},
		{Title: "Clean up stale feature flags", Description: "Remove flags that have been fully rolled out", Completed: false},
	}
}

// fixtureFile is the on-disk TOML layout: a list of [[records]] tables.
type fixtureFile struct {
	Records []Fixture `toml:"records"`
}

// LoadFile reads fixtures from a TOML file. Every entry must carry a title.
func LoadFile(path string) ([]Fixture, error) {
	var f fixtureFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("decode seed file %s: %w", path, err)
	}
	for i, fx := range f.Records {
		if fx.Title == "" {
			return nil, fmt.Errorf("seed file %s: record %d has no title", path, i)
		}
	}
	return f.Records, nil
}

// Materialize converts a fixture into a full record with a fresh ID and
// creation timestamp.
func Materialize(fx Fixture) (*model.Record, error) {
	id, err := idgen.Generate()
	if err != nil {
		return nil, err
	}
	return &model.Record{
		ID:          id,
		Title:       fx.Title,
		Description: fx.Description,
		Completed:   fx.Completed,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// Apply writes fixtures through the store's batch path, chunked to the batch
// cap. It returns the number of records written; a chunk whose records come
// back unprocessed counts only the committed ones.
func Apply(ctx context.Context, s store.Store, fixtures []Fixture) (int, error) {
	written := 0
	for start := 0; start < len(fixtures); start += store.MaxBatchWrite {
		end := start + store.MaxBatchWrite
		if end > len(fixtures) {
			end = len(fixtures)
		}

		chunk := make([]*model.Record, 0, end-start)
		for _, fx := range fixtures[start:end] {
			r, err := Materialize(fx)
			if err != nil {
				return written, err
			}
			chunk = append(chunk, r)
		}

		unprocessed, err := s.BatchWriteRecords(ctx, chunk)
		if err != nil {
			return written, err
		}
		written += len(chunk) - len(unprocessed)
	}
	return written, nil
}
