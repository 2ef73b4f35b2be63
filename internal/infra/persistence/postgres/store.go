// Package postgres provides a Postgres-backed sample store that mirrors the
// in-memory semantics and writes each mutated document to the leafsamples
// table.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"greenleaf/internal/infra/persistence/memory"
	"greenleaf/pkg/domain"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.SampleStore = (*Store)(nil)

const (
	defaultDriver = "pgx"
	// DefaultDSN is used when no DSN is configured.
	DefaultDSN = "postgres://localhost/greenleaf?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Store persists samples to Postgres while serving reads from memory.
type Store struct {
	mem *memory.Store
	db  *sql.DB
	mu  sync.RWMutex
}

// NewStore opens a Postgres-backed store using dsn (falls back to DefaultDSN),
// ensures the leafsamples table exists and hydrates the working set.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = DefaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := ensureTable(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	records, err := loadRecords(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	mem := memory.NewStore()
	mem.ImportState(records)
	return &Store{mem: mem, db: db}, nil
}

func ensureTable(ctx context.Context, db *sql.DB) error {
	ddl := `CREATE TABLE IF NOT EXISTS leafsamples (
		id TEXT PRIMARY KEY,
		seq BIGINT NOT NULL,
		payload JSONB NOT NULL
	)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure leafsamples table: %w", err)
	}
	return nil
}

func loadRecords(ctx context.Context, db *sql.DB) ([]memory.Record, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, seq, payload FROM leafsamples ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("select leafsamples: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []memory.Record
	for rows.Next() {
		var (
			id      string
			seq     int64
			payload []byte
		)
		if err := rows.Scan(&id, &seq, &payload); err != nil {
			return nil, fmt.Errorf("scan leafsamples: %w", err)
		}
		var sample domain.Sample
		if err := json.Unmarshal(payload, &sample); err != nil {
			return nil, fmt.Errorf("decode sample %s: %w", id, err)
		}
		sample.ID = id
		records = append(records, memory.Record{Seq: seq, Sample: sample})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leafsamples: %w", err)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Seq < records[j].Seq })
	return records, nil
}

// List returns the working set. Reads wait for an in-flight write so a
// rolled-back mutation is never observed.
func (s *Store) List(ctx context.Context) ([]domain.Sample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mem.List(ctx)
}

// Get returns one sample from the working set.
func (s *Store) Get(ctx context.Context, id string) (domain.Sample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mem.Get(ctx, id)
}

// Create stores the sample and writes it to Postgres.
func (s *Store) Create(ctx context.Context, sample domain.Sample) (domain.Sample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.mem.CreateRecord(ctx, sample)
	if err != nil {
		return domain.Sample{}, err
	}
	if err := s.upsert(ctx, rec); err != nil {
		s.mem.Forget(rec.Sample.ID)
		return domain.Sample{}, err
	}
	return rec.Sample, nil
}

// Replace overwrites the document and writes it to Postgres.
func (s *Store) Replace(ctx context.Context, id string, sample domain.Sample) (*domain.Sample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, prev, err := s.mem.ReplaceRecord(ctx, id, sample)
	if err != nil || next == nil {
		return nil, err
	}
	if err := s.upsert(ctx, *next); err != nil {
		s.mem.Restore(*prev)
		return nil, err
	}
	return &next.Sample, nil
}

// Delete removes the document from memory and Postgres.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, err := s.mem.DeleteRecord(ctx, id)
	if err != nil || prev == nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM leafsamples WHERE id = $1`, id); err != nil {
		s.mem.Restore(*prev)
		return fmt.Errorf("delete %s: %w", id, err)
	}
	return nil
}

func (s *Store) upsert(ctx context.Context, rec memory.Record) error {
	data, err := json.Marshal(rec.Sample)
	if err != nil {
		return fmt.Errorf("encode sample %s: %w", rec.Sample.ID, err)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO leafsamples(id,seq,payload) VALUES($1,$2,$3) ON CONFLICT(id) DO UPDATE SET payload=EXCLUDED.payload`,
		rec.Sample.ID, rec.Seq, data); err != nil {
		return fmt.Errorf("upsert %s: %w", rec.Sample.ID, err)
	}
	return nil
}

// Close closes the database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
