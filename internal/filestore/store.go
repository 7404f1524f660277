// Package filestore defines the interface for object storage backends that
// run reports are published to.
//
// All providers implement the Store interface. Callers depend only on this
// package, never on a specific provider package.
//
// Usage:
//
//	cfg := filestore.DefaultConfig("localhost:9000", "minioadmin", "minioadmin")
//	store, err := minio.New(ctx, cfg)
//	if err != nil { ... }
//	defer store.Close()
//
//	info, err := store.PutObject(ctx, "reports", "runs/01H...json", r, size, filestore.PutOptions{})
package filestore

import (
	"context"
	"io"
	"time"
)

// Store is the single interface all object storage providers implement.
type Store interface {
	// Ping verifies the storage backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any held resources.
	Close() error

	// EnsureBucket creates bucket when it does not exist yet.
	EnsureBucket(ctx context.Context, bucket string) error

	// PutObject uploads size bytes from r to key inside bucket, replacing any
	// existing object.
	PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64, opts PutOptions) (*ObjectInfo, error)

	// PresignGetURL returns a time-limited URL that allows anyone to download
	// the object at key inside bucket without credentials.
	PresignGetURL(ctx context.Context, bucket, key string, ttl time.Duration) (string, error)
}

// ObjectInfo describes a single stored object.
type ObjectInfo struct {
	Bucket string
	Key    string
	Size   int64
	ETag   string
}

// PutOptions carries optional upload metadata.
type PutOptions struct {
	// ContentType is the MIME type; empty means application/octet-stream.
	ContentType string

	// Metadata is stored as user metadata alongside the object.
	Metadata map[string]string
}
