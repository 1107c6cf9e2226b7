// Package pgstore is the PostgreSQL implementation of the file-metadata store.
package pgstore

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/jrsteele09/go-vault-server/files"
	"github.com/jrsteele09/go-vault-server/internal/apperr"
)

var _ files.Store = (*Store)(nil)

type Store struct {
	db *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{db: pool}
}

func (s *Store) Create(ctx context.Context, ownerID, storageKey string, meta files.Metadata) (*files.FileRecord, error) {
	const sql = `
		INSERT INTO files (id, owner_id, storage_key, filename, size, content_type, upload_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, owner_id, storage_key, filename, size, content_type, upload_time`

	rec := &files.FileRecord{}
	err := s.db.QueryRow(ctx, sql,
		uuid.New().String(),
		ownerID,
		storageKey,
		meta.Filename,
		meta.Size,
		meta.ContentType,
		time.Now().UTC(),
	).Scan(&rec.ID, &rec.OwnerID, &rec.StorageKey, &rec.Filename, &rec.Size, &rec.ContentType, &rec.UploadTime)
	if err != nil {
		return nil, errors.Wrapf(apperr.ErrStoreUnavailable, "[Store Create] %v", err)
	}
	return rec, nil
}

func (s *Store) ListByOwner(ctx context.Context, ownerID string) ([]*files.FileRecord, error) {
	const sql = `
		SELECT id, owner_id, storage_key, filename, size, content_type, upload_time
		FROM files
		WHERE owner_id = $1
		ORDER BY upload_time DESC`

	rows, err := s.db.Query(ctx, sql, ownerID)
	if err != nil {
		return nil, errors.Wrapf(apperr.ErrStoreUnavailable, "[Store ListByOwner] %v", err)
	}
	defer rows.Close()

	// Empty slice rather than nil so the JSON list is always an array.
	records := []*files.FileRecord{}
	for rows.Next() {
		rec := &files.FileRecord{}
		if err := rows.Scan(&rec.ID, &rec.OwnerID, &rec.StorageKey, &rec.Filename, &rec.Size, &rec.ContentType, &rec.UploadTime); err != nil {
			return nil, errors.Wrapf(apperr.ErrStoreUnavailable, "[Store ListByOwner] scan: %v", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(apperr.ErrStoreUnavailable, "[Store ListByOwner] rows: %v", err)
	}
	return records, nil
}

func (s *Store) GetByID(ctx context.Context, id string) (*files.FileRecord, error) {
	const sql = `
		SELECT id, owner_id, storage_key, filename, size, content_type, upload_time
		FROM files
		WHERE id = $1`

	rec := &files.FileRecord{}
	err := s.db.QueryRow(ctx, sql, id).Scan(&rec.ID, &rec.OwnerID, &rec.StorageKey, &rec.Filename, &rec.Size, &rec.ContentType, &rec.UploadTime)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.Wrapf(apperr.ErrNotFound, "file %q", id)
		}
		return nil, errors.Wrapf(apperr.ErrStoreUnavailable, "[Store GetByID] %v", err)
	}
	return rec, nil
}

func (s *Store) DeleteByID(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM files WHERE id = $1`, id)
	if err != nil {
		return errors.Wrapf(apperr.ErrStoreUnavailable, "[Store DeleteByID] %v", err)
	}
	if tag.RowsAffected() == 0 {
		return errors.Wrapf(apperr.ErrNotFound, "file %q", id)
	}
	return nil
}
