package domain

import "context"

// SampleStore is the document store contract implemented by every backend.
// Each call touches a single document; concurrent writers to the same id
// resolve as last writer wins.
type SampleStore interface {
	// List returns every stored sample in the backend's natural order.
	List(ctx context.Context) ([]Sample, error)
	// Get returns ErrInvalidID for malformed ids and ErrNotFound when absent.
	Get(ctx context.Context, id string) (Sample, error)
	// Create assigns a fresh id and persists the sample.
	Create(ctx context.Context, sample Sample) (Sample, error)
	// Replace overwrites the whole document. A well-formed but unknown id
	// yields (nil, nil).
	Replace(ctx context.Context, id string, sample Sample) (*Sample, error)
	// Delete removes the document. Deleting an absent id is not an error.
	Delete(ctx context.Context, id string) error
	// Close releases backend resources.
	Close() error
}
