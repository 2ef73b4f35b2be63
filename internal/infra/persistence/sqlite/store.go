// Package sqlite persists samples to an embedded SQLite file. The in-memory
// store holds the working set; every successful mutation writes the touched
// document back to the leafsamples table.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"greenleaf/internal/infra/persistence/memory"
	"greenleaf/pkg/domain"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

var _ domain.SampleStore = (*Store)(nil)

// DefaultPath is used when no database path is configured.
const DefaultPath = "greenleaf.db"

// Store mirrors memory.Store semantics and snapshots each mutated document.
type Store struct {
	mem  *memory.Store
	db   *sql.DB
	mu   sync.RWMutex
	path string
}

// NewStore opens (or creates) the database at path and hydrates the working
// set from any existing rows.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS leafsamples (
		id TEXT PRIMARY KEY,
		seq INTEGER NOT NULL,
		payload BLOB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create leafsamples table: %w", err)
	}
	s := &Store{mem: memory.NewStore(), db: db, path: path}
	if err := s.load(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) load(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `SELECT id, seq, payload FROM leafsamples ORDER BY seq`)
	if err != nil {
		return fmt.Errorf("select leafsamples: %w", err)
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
			return fmt.Errorf("scan: %w", err)
		}
		var sample domain.Sample
		if err := json.Unmarshal(payload, &sample); err != nil {
			return fmt.Errorf("decode sample %s: %w", id, err)
		}
		sample.ID = id
		records = append(records, memory.Record{Seq: seq, Sample: sample})
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate leafsamples: %w", err)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Seq < records[j].Seq })
	s.mem.ImportState(records)
	return nil
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

// Create stores the sample and writes it to disk. The in-memory insert is
// rolled back if the write fails.
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

// Replace overwrites the document and writes it to disk.
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

// Delete removes the document from memory and disk.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, err := s.mem.DeleteRecord(ctx, id)
	if err != nil || prev == nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM leafsamples WHERE id = ?`, id); err != nil {
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
		`INSERT INTO leafsamples(id,seq,payload) VALUES(?,?,?) ON CONFLICT(id) DO UPDATE SET payload=excluded.payload`,
		rec.Sample.ID, rec.Seq, data); err != nil {
		return fmt.Errorf("upsert %s: %w", rec.Sample.ID, err)
	}
	return nil
}

// Close closes the database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }
