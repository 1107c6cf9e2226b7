package memdir_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-vault-server/internal/apperr"
	"github.com/jrsteele09/go-vault-server/users/memdir"
)

func TestFindOrCreateIsIdempotent(t *testing.T) {
	dir := memdir.New()
	ctx := context.Background()

	first, err := dir.FindOrCreate(ctx, "g-123", "John Doe", "John.Doe@Example.com")
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)
	require.Equal(t, "g-123", first.ThirdPartyID)
	require.Equal(t, "john.doe@example.com", first.Email)

	second, err := dir.FindOrCreate(ctx, "g-123", "John D.", "john.doe@example.com")
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, "John D.", second.Name)
}

func TestConcurrentFirstLoginsCreateOneUser(t *testing.T) {
	dir := memdir.New()
	ctx := context.Background()

	const callers = 50
	ids := make([]string, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			user, err := dir.FindOrCreate(ctx, "g-123", "John Doe", "john.doe@example.com")
			require.NoError(t, err)
			ids[n] = user.ID
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		require.Equal(t, ids[0], id, "all concurrent callers must observe the same user id")
	}
}

func TestGetByID(t *testing.T) {
	dir := memdir.New()
	ctx := context.Background()

	created, err := dir.FindOrCreate(ctx, "g-456", "Jane Doe", "jane@example.com")
	require.NoError(t, err)

	fetched, err := dir.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, fetched.ID)
	require.Equal(t, "jane@example.com", fetched.Email)

	_, err = dir.GetByID(ctx, "no-such-user")
	require.ErrorIs(t, err, apperr.ErrNotFound)
}
