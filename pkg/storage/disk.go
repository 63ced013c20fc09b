// Package storage archives raw extraction payloads on a pluggable disk.
//
// Two drivers are available:
//   - "local"  local filesystem (default)
//   - "s3"     S3-compatible object storage (AWS S3, MinIO, R2, Spaces)
//
//	disk, err := storage.Open(ctx, storage.Config{Driver: "local", LocalRoot: "storage"})
//	err = disk.Put(ctx, "extractions/job-1.json", raw)
package storage

import (
	"context"
	"fmt"
	"strings"
)

// Disk is the filesystem driver interface. Paths are slash-separated and
// relative to the disk root.
type Disk interface {
	// Put writes content to path, creating parent directories as needed.
	Put(ctx context.Context, path string, content []byte) error

	// Get returns the full content of the file at path.
	Get(ctx context.Context, path string) ([]byte, error)

	// Exists reports whether a file exists at path.
	Exists(ctx context.Context, path string) bool

	// Delete removes a file. Returns nil if the file did not exist.
	Delete(ctx context.Context, path string) error

	// Files lists the files directly inside directory.
	Files(ctx context.Context, directory string) ([]string, error)
}

// Config selects and configures a driver.
type Config struct {
	Driver    string // "local" or "s3"
	LocalRoot string
	S3        S3Config
}

// Open boots the configured driver.
func Open(ctx context.Context, cfg Config) (Disk, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "local":
		return NewLocal(cfg.LocalRoot)
	case "s3":
		return NewS3(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", cfg.Driver)
	}
}
