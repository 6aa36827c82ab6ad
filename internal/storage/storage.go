// Package storage defines the blob store abstraction used to persist
// analysis artifacts, keeping the pipeline independent of where results
// land (local filesystem, memory, or a future object store).
package storage

import "context"

// BlobStore persists one artifact under a path and returns a URI for it.
type BlobStore interface {
	PutObject(ctx context.Context, path, contentType string, data []byte) (string, error)
}

// NoOpStore discards everything. Useful for dry runs.
type NoOpStore struct{}

// PutObject does nothing and reports a null URI.
func (NoOpStore) PutObject(_ context.Context, path, _ string, _ []byte) (string, error) {
	return "noop://" + path, nil
}
