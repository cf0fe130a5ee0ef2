// Package storage puts pipeline artifacts somewhere the storefront can
// fetch them. The "local" driver writes under a directory on disk, such as
// the storefront's public/ folder; the "s3" driver writes to S3-compatible
// object storage (AWS S3, MinIO, R2, Spaces).
//
//	disk, err := storage.Open(ctx, config.StorageDefault())
//	err = disk.PutStream(ctx, "models/shoe1-draco.gltf", f)
//	url := disk.URL("models/shoe1-draco.gltf")
package storage

import (
	"context"
	"io"
)

// Disk is the driver interface.
type Disk interface {
	// Put writes content to path, creating parents as needed.
	Put(ctx context.Context, path string, content []byte) error

	// PutStream writes from r to path.
	PutStream(ctx context.Context, path string, r io.Reader) error

	// Get returns the full content of path.
	Get(ctx context.Context, path string) ([]byte, error)

	// Exists reports whether path exists.
	Exists(ctx context.Context, path string) (bool, error)

	// Size returns the byte size of path.
	Size(ctx context.Context, path string) (int64, error)

	// Delete removes path. A missing file is not an error.
	Delete(ctx context.Context, path string) error

	// Files lists the files directly inside directory.
	Files(ctx context.Context, directory string) ([]string, error)

	// URL returns the public URL for path.
	URL(path string) string
}
