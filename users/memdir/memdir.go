// Package memdir is an in-memory user directory, used when no database is
// configured and as the fake in tests.
package memdir

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/jrsteele09/go-vault-server/internal/apperr"
	"github.com/jrsteele09/go-vault-server/users"
)

var _ users.Directory = (*Directory)(nil)

type Directory struct {
	lock      sync.RWMutex
	byID      map[string]*users.User
	bySubject map[string]string // third-party subject to user id
	nowFunc   func() time.Time
}

func New() *Directory {
	return &Directory{
		byID:      make(map[string]*users.User),
		bySubject: make(map[string]string),
		nowFunc:   time.Now,
	}
}

// FindOrCreate serializes on the directory lock, so concurrent first logins
// with the same subject all resolve to the single created record.
func (d *Directory) FindOrCreate(_ context.Context, subject, name, email string) (*users.User, error) {
	d.lock.Lock()
	defer d.lock.Unlock()

	if id, ok := d.bySubject[subject]; ok {
		existing := d.byID[id]
		existing.Name = name
		existing.Email = users.NormalizeEmail(email)
		return copyUser(existing), nil
	}

	user := &users.User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        users.NormalizeEmail(email),
		ThirdPartyID: subject,
		CreatedAt:    d.nowFunc().UTC(),
	}
	d.byID[user.ID] = user
	d.bySubject[subject] = user.ID
	return copyUser(user), nil
}

func (d *Directory) GetByID(_ context.Context, id string) (*users.User, error) {
	d.lock.RLock()
	defer d.lock.RUnlock()

	user, ok := d.byID[id]
	if !ok {
		return nil, errors.Wrapf(apperr.ErrNotFound, "user %q", id)
	}
	return copyUser(user), nil
}

func copyUser(u *users.User) *users.User {
	cp := *u
	return &cp
}
