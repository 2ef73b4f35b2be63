// Package memory provides an in-memory implementation of the sample store
// used for tests and ephemeral environments. The SQL backends embed it as
// their working set and snapshot each mutated record.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"greenleaf/pkg/domain"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interface.
var _ domain.SampleStore = (*Store)(nil)

// Record is a stored sample together with its insertion sequence. The
// sequence defines List order and is carried into persisted snapshots so a
// reloaded store keeps the same order.
type Record struct {
	Seq    int64
	Sample domain.Sample
}

// Store keeps samples in a map guarded by a RWMutex. Every value crossing the
// boundary is cloned so callers never alias stored state.
type Store struct {
	mu      sync.RWMutex
	records map[string]Record
	nextSeq int64
	newID   func() string
}

// NewStore constructs an empty in-memory store.
func NewStore() *Store {
	return &Store{
		records: make(map[string]Record),
		newID:   domain.NewID,
	}
}

// List returns all samples in insertion order.
func (s *Store) List(_ context.Context) ([]domain.Sample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := s.sortedLocked()
	out := make([]domain.Sample, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.Sample.Clone())
	}
	return out, nil
}

// Get returns the sample stored under id.
func (s *Store) Get(_ context.Context, id string) (domain.Sample, error) {
	if err := domain.CheckID(id); err != nil {
		return domain.Sample{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return domain.Sample{}, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	return rec.Sample.Clone(), nil
}

// Create stores sample under a freshly generated id.
func (s *Store) Create(ctx context.Context, sample domain.Sample) (domain.Sample, error) {
	rec, err := s.CreateRecord(ctx, sample)
	if err != nil {
		return domain.Sample{}, err
	}
	return rec.Sample, nil
}

// CreateRecord behaves like Create and also reports the assigned sequence.
func (s *Store) CreateRecord(_ context.Context, sample domain.Sample) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.newID()
	for {
		if _, exists := s.records[id]; !exists {
			break
		}
		id = s.newID()
	}
	sample = sample.Clone()
	sample.ID = id
	s.nextSeq++
	rec := Record{Seq: s.nextSeq, Sample: sample}
	s.records[id] = rec
	return Record{Seq: rec.Seq, Sample: sample.Clone()}, nil
}

// Replace overwrites the stored document. Absent ids yield (nil, nil).
func (s *Store) Replace(ctx context.Context, id string, sample domain.Sample) (*domain.Sample, error) {
	rec, _, err := s.ReplaceRecord(ctx, id, sample)
	if err != nil || rec == nil {
		return nil, err
	}
	return &rec.Sample, nil
}

// ReplaceRecord behaves like Replace and also returns the record that was
// overwritten so callers can restore it.
func (s *Store) ReplaceRecord(_ context.Context, id string, sample domain.Sample) (*Record, *Record, error) {
	if err := domain.CheckID(id); err != nil {
		return nil, nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.records[id]
	if !ok {
		return nil, nil, nil
	}
	sample = sample.Clone()
	sample.ID = id
	next := Record{Seq: prev.Seq, Sample: sample}
	s.records[id] = next
	out := Record{Seq: next.Seq, Sample: sample.Clone()}
	return &out, &prev, nil
}

// Delete removes the document stored under id if present.
func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.DeleteRecord(ctx, id)
	return err
}

// DeleteRecord behaves like Delete and returns the removed record, if any.
func (s *Store) DeleteRecord(_ context.Context, id string) (*Record, error) {
	if err := domain.CheckID(id); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.records[id]
	if !ok {
		return nil, nil
	}
	delete(s.records, id)
	return &prev, nil
}

// Restore puts rec back exactly as given. It is used to undo a mutation whose
// snapshot could not be written.
func (s *Store) Restore(rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.Sample.ID] = Record{Seq: rec.Seq, Sample: rec.Sample.Clone()}
	if rec.Seq > s.nextSeq {
		s.nextSeq = rec.Seq
	}
}

// Forget drops id without validation. It undoes a failed create.
func (s *Store) Forget(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
}

// ExportState returns a copy of every record in insertion order.
func (s *Store) ExportState() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := s.sortedLocked()
	for i := range records {
		records[i].Sample = records[i].Sample.Clone()
	}
	return records
}

// ImportState replaces the store contents with records.
func (s *Store) ImportState(records []Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]Record, len(records))
	s.nextSeq = 0
	for _, rec := range records {
		s.records[rec.Sample.ID] = Record{Seq: rec.Seq, Sample: rec.Sample.Clone()}
		if rec.Seq > s.nextSeq {
			s.nextSeq = rec.Seq
		}
	}
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error { return nil }

func (s *Store) sortedLocked() []Record {
	out := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}
