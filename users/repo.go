package users

import "context"

// Directory is the durable mapping from third-party subject identifiers to
// local user records.
//
// FindOrCreate must be safe under concurrent invocation with the same subject:
// exactly one User is created and every caller observes the same resulting ID.
// A duplicate is never surfaced to the caller; it is absorbed internally.
type Directory interface {
	FindOrCreate(ctx context.Context, subject, name, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
}
