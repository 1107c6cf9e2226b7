package memstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-vault-server/files"
	"github.com/jrsteele09/go-vault-server/files/memstore"
	"github.com/jrsteele09/go-vault-server/internal/apperr"
)

func TestListByOwnerFiltersByOwner(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()

	recA, err := store.Create(ctx, "user-a", files.NewStorageKey("report.pdf"), files.Metadata{
		Filename: "report.pdf", Size: 2048, ContentType: "application/pdf",
	})
	require.NoError(t, err)

	_, err = store.Create(ctx, "user-b", files.NewStorageKey("notes.txt"), files.Metadata{
		Filename: "notes.txt", Size: 10, ContentType: "text/plain",
	})
	require.NoError(t, err)

	listed, err := store.ListByOwner(ctx, "user-a")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, recA.ID, listed[0].ID)
	require.Equal(t, "user-a", listed[0].OwnerID)

	empty, err := store.ListByOwner(ctx, "user-c")
	require.NoError(t, err)
	require.NotNil(t, empty)
	require.Empty(t, empty)
}

func TestGetByIDIgnoresOwner(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()

	rec, err := store.Create(ctx, "user-a", files.NewStorageKey("report.pdf"), files.Metadata{
		Filename: "report.pdf", Size: 2048, ContentType: "application/pdf",
	})
	require.NoError(t, err)

	// The store returns the record regardless of who asks; ownership policy
	// lives in the gateway.
	fetched, err := store.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	require.Equal(t, "user-a", fetched.OwnerID)

	_, err = store.GetByID(ctx, "missing")
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDeleteByID(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()

	rec, err := store.Create(ctx, "user-a", files.NewStorageKey("report.pdf"), files.Metadata{
		Filename: "report.pdf", Size: 2048, ContentType: "application/pdf",
	})
	require.NoError(t, err)

	require.NoError(t, store.DeleteByID(ctx, rec.ID))
	require.ErrorIs(t, store.DeleteByID(ctx, rec.ID), apperr.ErrNotFound)

	_, err = store.GetByID(ctx, rec.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}
