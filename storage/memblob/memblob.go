// Package memblob is an in-memory blob store, used when no object store is
// configured and as the fake in tests.
package memblob

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/pkg/errors"

	"github.com/jrsteele09/go-vault-server/internal/apperr"
	"github.com/jrsteele09/go-vault-server/storage"
)

var _ storage.BlobStore = (*Store)(nil)

type Store struct {
	lock  sync.RWMutex
	blobs map[string][]byte
}

func New() *Store {
	return &Store{blobs: make(map[string][]byte)}
}

func (s *Store) Put(ctx context.Context, key string, r io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return errors.Wrapf(apperr.ErrStorageFailure, "[Store Put] %q: %v", key, err)
	}
	// A cancelled upload must not become readable.
	if err := ctx.Err(); err != nil {
		return errors.Wrapf(apperr.ErrStorageFailure, "[Store Put] %q: %v", key, err)
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	s.blobs[key] = data
	return nil
}

func (s *Store) Get(_ context.Context, key string) (io.ReadCloser, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	data, ok := s.blobs[key]
	if !ok {
		return nil, errors.Wrapf(apperr.ErrNotFound, "blob %q", key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	delete(s.blobs, key)
	return nil
}
