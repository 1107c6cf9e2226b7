package files

import "context"

// Store is the durable file-metadata store.
//
// ListByOwner is a hard filter: it only ever returns records owned by the
// given user. GetByID returns a record regardless of owner; ownership
// enforcement is the gateway's job, not the store's.
type Store interface {
	Create(ctx context.Context, ownerID, storageKey string, meta Metadata) (*FileRecord, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*FileRecord, error)
	GetByID(ctx context.Context, id string) (*FileRecord, error)
	DeleteByID(ctx context.Context, id string) error
}
