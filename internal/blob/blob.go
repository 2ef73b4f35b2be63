// Package blob re-exports the blob abstractions, selects a backend from
// configuration and names the keys used for sample images and exports.
package blob

import (
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"

	"greenleaf/internal/blob/core"
)

type (
	// Driver identifies a blob backend driver.
	Driver = core.Driver
	// PutOptions configures a blob write.
	PutOptions = core.PutOptions
	// SignedURLOptions configures URL pre-signing.
	SignedURLOptions = core.SignedURLOptions
	// Info describes stored blob metadata.
	Info = core.Info
	// Store is the interface for blob storage backends.
	Store = core.Store
)

const (
	// DriverFilesystem is the local filesystem driver.
	DriverFilesystem = core.DriverFilesystem
	// DriverS3 is the S3-compatible driver.
	DriverS3 = core.DriverS3
	// DriverMemory is the in-memory driver.
	DriverMemory = core.DriverMemory
)

var (
	// ErrUnsupported indicates an operation isn't supported by a driver.
	ErrUnsupported = core.ErrUnsupported
	// ErrNotFound indicates a missing blob.
	ErrNotFound = core.ErrNotFound
	// ErrExists indicates a Put onto an existing key.
	ErrExists = core.ErrExists
	// ErrInvalidKey indicates a rejected key.
	ErrInvalidKey = core.ErrInvalidKey
)

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// ImageKey returns a fresh key for an original image of sampleID. The
// extension comes from filename, else from contentType.
func ImageKey(sampleID, filename, contentType string) string {
	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		ext = imageExtensions[contentType]
	}
	return fmt.Sprintf("images/%s/%s%s", sampleID, uuid.NewString(), ext)
}

// ExportKey returns the key of an export artifact.
func ExportKey(exportID, filename string) string {
	return fmt.Sprintf("exports/%s/%s", exportID, filename)
}
