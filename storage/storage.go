// Package storage defines the object-storage capability the gateway depends
// on: put/get/delete of opaque blobs by key. The backend has no listing or
// ownership semantics of its own.
package storage

import (
	"context"
	"io"
)

type BlobStore interface {
	// Put writes the blob under key. The write is aborted if ctx is
	// cancelled; a partial write must never become readable under key.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}
