package blob

import (
	"context"
	"fmt"

	"greenleaf/internal/config"
	"greenleaf/internal/infra/blob/fs"
	memorystore "greenleaf/internal/infra/blob/memory"
	infraS3 "greenleaf/internal/infra/blob/s3"
)

// Open constructs the blob store selected by cfg.Driver (default fs).
func Open(ctx context.Context, cfg config.BlobConfig) (Store, error) {
	driver := Driver(cfg.Driver)
	if driver == "" {
		driver = DriverFilesystem
	}
	switch driver {
	case DriverFilesystem:
		return fs.New(cfg.Root, cfg.PublicBaseURL)
	case DriverMemory:
		return memorystore.New(cfg.PublicBaseURL), nil
	case DriverS3:
		return infraS3.New(ctx, infraS3.Config{
			Bucket:        cfg.S3.Bucket,
			Region:        cfg.S3.Region,
			Endpoint:      cfg.S3.Endpoint,
			PathStyle:     cfg.S3.UsePathStyle,
			PublicBaseURL: cfg.PublicBaseURL,
		})
	default:
		return nil, fmt.Errorf("unknown blob driver %s", cfg.Driver)
	}
}

// NewMemory returns an in-memory Store serving URLs under the default prefix.
func NewMemory() Store { return memorystore.New("") }

// NewMockS3ForTests returns an S3 store backed by an in-process fake transport.
func NewMockS3ForTests() Store { return infraS3.NewMockForTests() }
