// Package memstore is an in-memory file-metadata store, used when no database
// is configured and as the fake in tests.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/jrsteele09/go-vault-server/files"
	"github.com/jrsteele09/go-vault-server/internal/apperr"
)

var _ files.Store = (*Store)(nil)

type Store struct {
	lock    sync.RWMutex
	records map[string]*files.FileRecord
	nowFunc func() time.Time
}

func New() *Store {
	return &Store{
		records: make(map[string]*files.FileRecord),
		nowFunc: time.Now,
	}
}

func (s *Store) Create(_ context.Context, ownerID, storageKey string, meta files.Metadata) (*files.FileRecord, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	rec := &files.FileRecord{
		ID:          uuid.New().String(),
		OwnerID:     ownerID,
		StorageKey:  storageKey,
		Filename:    meta.Filename,
		Size:        meta.Size,
		ContentType: meta.ContentType,
		UploadTime:  s.nowFunc().UTC(),
	}
	s.records[rec.ID] = rec
	return copyRecord(rec), nil
}

func (s *Store) ListByOwner(_ context.Context, ownerID string) ([]*files.FileRecord, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	records := []*files.FileRecord{}
	for _, rec := range s.records {
		if rec.OwnerID == ownerID {
			records = append(records, copyRecord(rec))
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].UploadTime.After(records[j].UploadTime)
	})
	return records, nil
}

func (s *Store) GetByID(_ context.Context, id string) (*files.FileRecord, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, errors.Wrapf(apperr.ErrNotFound, "file %q", id)
	}
	return copyRecord(rec), nil
}

func (s *Store) DeleteByID(_ context.Context, id string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.records[id]; !ok {
		return errors.Wrapf(apperr.ErrNotFound, "file %q", id)
	}
	delete(s.records, id)
	return nil
}

func copyRecord(rec *files.FileRecord) *files.FileRecord {
	cp := *rec
	return &cp
}
