// Package postgres implements the store.Store interface backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/alfredjeanlab/recordd/internal/model"
	"github.com/alfredjeanlab/recordd/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresStore implements store.Store backed by a PostgreSQL database.
type PostgresStore struct {
	db *sql.DB
}

// Compile-time check that PostgresStore implements store.Store.
var _ store.Store = (*PostgresStore)(nil)

// New opens a connection to the PostgreSQL database at the given URL,
// configures the connection pool, and runs any pending migrations.
func New(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// Close closes the underlying database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) CreateRecord(ctx context.Context, record *model.Record) error {
	return queryCreateRecord(ctx, s.db, record)
}

func (s *PostgresStore) GetRecord(ctx context.Context, id string) (*model.Record, error) {
	return queryGetRecord(ctx, s.db, id)
}

func (s *PostgresStore) UpdateRecord(ctx context.Context, id string, upd model.RecordUpdate) (*model.Record, error) {
	return queryUpdateRecord(ctx, s.db, id, upd)
}

func (s *PostgresStore) DeleteRecord(ctx context.Context, id string) error {
	return queryDeleteRecord(ctx, s.db, id)
}

func (s *PostgresStore) ListRecords(ctx context.Context) ([]*model.Record, int, error) {
	return queryListRecords(ctx, s.db)
}

func (s *PostgresStore) BatchGetRecords(ctx context.Context, ids []string) ([]*model.Record, []string, error) {
	return queryBatchGetRecords(ctx, s.db, ids)
}

func (s *PostgresStore) BatchWriteRecords(ctx context.Context, records []*model.Record) ([]*model.Record, error) {
	return queryBatchWriteRecords(ctx, s.db, records)
}

func (s *PostgresStore) CreateProcessedEvent(ctx context.Context, event *model.ProcessedEvent) error {
	return queryCreateProcessedEvent(ctx, s.db, event)
}

func (s *PostgresStore) GetProcessedEvents(ctx context.Context, originalID string) ([]*model.ProcessedEvent, error) {
	return queryGetProcessedEvents(ctx, s.db, originalID)
}

func (s *PostgresStore) ListProcessedEvents(ctx context.Context) ([]*model.ProcessedEvent, error) {
	return queryListProcessedEvents(ctx, s.db)
}
