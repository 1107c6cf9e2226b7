package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRevocationExpiresAtReadTime(t *testing.T) {
	issued := time.Now()
	now := issued

	cache := NewInMemoryRevokedTokenCache()
	cache.nowFunc = func() time.Time { return now }

	require.NoError(t, cache.Add("jti-1", issued.Add(time.Hour)))
	require.True(t, cache.IsRevoked("jti-1"))

	// Once the credential's own exp has passed, revocation no longer
	// applies, with or without a Cleanup in between.
	now = issued.Add(2 * time.Hour)
	require.False(t, cache.IsRevoked("jti-1"))

	cache.Cleanup()
	require.False(t, cache.IsRevoked("jti-1"))
}

func TestCleanupReclaimsExpiredEntries(t *testing.T) {
	issued := time.Now()
	now := issued

	cache := NewInMemoryRevokedTokenCache()
	cache.nowFunc = func() time.Time { return now }

	require.NoError(t, cache.Add("jti-1", issued.Add(time.Minute)))
	require.NoError(t, cache.Add("jti-2", issued.Add(time.Hour)))

	now = issued.Add(30 * time.Minute)
	cache.Cleanup()

	require.Len(t, cache.expires, 1)
	require.True(t, cache.IsRevoked("jti-2"))
}
