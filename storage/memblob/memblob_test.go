package memblob_test

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-vault-server/internal/apperr"
	"github.com/jrsteele09/go-vault-server/storage/memblob"
)

func TestPutGetRoundTrip(t *testing.T) {
	store := memblob.New()
	content := []byte("blob payload")

	err := store.Put(context.Background(), "key-1", bytes.NewReader(content), int64(len(content)), "text/plain")
	require.NoError(t, err)

	rc, err := store.Get(context.Background(), "key-1")
	require.NoError(t, err)
	defer rc.Close()

	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, content, got)
}

func TestGetMissingKey(t *testing.T) {
	store := memblob.New()

	_, err := store.Get(context.Background(), "missing")
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDeleteRemovesBlob(t *testing.T) {
	store := memblob.New()
	require.NoError(t, store.Put(context.Background(), "key-1", bytes.NewReader([]byte("x")), 1, ""))

	require.NoError(t, store.Delete(context.Background(), "key-1"))

	_, err := store.Get(context.Background(), "key-1")
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCancelledPutIsNotReadable(t *testing.T) {
	store := memblob.New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.Put(ctx, "key-1", bytes.NewReader([]byte("x")), 1, "")
	require.Error(t, err)

	_, err = store.Get(context.Background(), "key-1")
	require.ErrorIs(t, err, apperr.ErrNotFound)
}
