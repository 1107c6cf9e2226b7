// Package pgdir is the PostgreSQL implementation of the user directory.
package pgdir

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/jrsteele09/go-vault-server/internal/apperr"
	"github.com/jrsteele09/go-vault-server/users"
)

var _ users.Directory = (*Directory)(nil)

type Directory struct {
	db *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Directory {
	return &Directory{db: pool}
}

// FindOrCreate inserts a user row for the subject, or returns the existing one.
// The unique constraint on third_party_id is the arbiter under concurrent
// first logins: ON CONFLICT turns the duplicate insert into an update of the
// refreshable fields and RETURNING hands every caller the same row.
func (d *Directory) FindOrCreate(ctx context.Context, subject, name, email string) (*users.User, error) {
	const sql = `
		INSERT INTO users (id, name, email, third_party_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (third_party_id)
		DO UPDATE SET name = EXCLUDED.name, email = EXCLUDED.email
		RETURNING id, name, email, third_party_id, created_at`

	user := &users.User{}
	err := d.db.QueryRow(ctx, sql,
		uuid.New().String(),
		name,
		users.NormalizeEmail(email),
		subject,
		time.Now().UTC(),
	).Scan(&user.ID, &user.Name, &user.Email, &user.ThirdPartyID, &user.CreatedAt)
	if err != nil {
		return nil, errors.Wrapf(apperr.ErrStoreUnavailable, "[Directory FindOrCreate] %v", err)
	}
	return user, nil
}

func (d *Directory) GetByID(ctx context.Context, id string) (*users.User, error) {
	const sql = `
		SELECT id, name, email, third_party_id, created_at
		FROM users
		WHERE id = $1`

	user := &users.User{}
	err := d.db.QueryRow(ctx, sql, id).Scan(&user.ID, &user.Name, &user.Email, &user.ThirdPartyID, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.Wrapf(apperr.ErrNotFound, "user %q", id)
		}
		return nil, errors.Wrapf(apperr.ErrStoreUnavailable, "[Directory GetByID] %v", err)
	}
	return user, nil
}
