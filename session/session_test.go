package session_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-vault-server/internal/apperr"
	"github.com/jrsteele09/go-vault-server/session"
)

const testSecret = "test-signing-secret"

func TestNewRequiresSecret(t *testing.T) {
	_, err := session.New("")
	require.Error(t, err)
}

func TestIssueValidateRoundTrip(t *testing.T) {
	svc, err := session.New(testSecret)
	require.NoError(t, err)

	token, err := svc.Issue("user-1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	subject, err := svc.Validate(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", subject)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	issued := time.Now()
	now := issued

	svc, err := session.New(testSecret,
		session.WithTTL(time.Hour),
		session.WithNowFunc(func() time.Time { return now }),
	)
	require.NoError(t, err)

	token, err := svc.Issue("user-1")
	require.NoError(t, err)

	// Still valid just before expiry.
	now = issued.Add(59 * time.Minute)

	_, err = svc.Validate(token)
	require.NoError(t, err)

	// Expired once the clock passes exp.
	now = issued.Add(2 * time.Hour)

	_, err = svc.Validate(token)
	require.ErrorIs(t, err, apperr.ErrExpiredToken)
	require.NotErrorIs(t, err, apperr.ErrInvalidToken, "expiry and forgery are distinct error kinds")
}

func TestValidateRejectsTamperedToken(t *testing.T) {
	svc, err := session.New(testSecret)
	require.NoError(t, err)

	token, err := svc.Issue("user-1")
	require.NoError(t, err)

	// Flip a byte in the payload; the signature no longer matches.
	tampered := []byte(token)
	mid := len(tampered) / 2
	if tampered[mid] == 'A' {
		tampered[mid] = 'B'
	} else {
		tampered[mid] = 'A'
	}

	_, err = svc.Validate(string(tampered))
	require.ErrorIs(t, err, apperr.ErrInvalidToken)
}

func TestValidateRejectsTokenSignedWithOtherKey(t *testing.T) {
	svc, err := session.New(testSecret)
	require.NoError(t, err)

	other, err := session.New("some-other-secret")
	require.NoError(t, err)

	token, err := other.Issue("user-1")
	require.NoError(t, err)

	_, err = svc.Validate(token)
	require.ErrorIs(t, err, apperr.ErrInvalidToken)
}

func TestValidateRejectsGarbage(t *testing.T) {
	svc, err := session.New(testSecret)
	require.NoError(t, err)

	_, err = svc.Validate("not-a-token")
	require.ErrorIs(t, err, apperr.ErrInvalidToken)
}

func TestRevokedTokenIsRejected(t *testing.T) {
	cache := session.NewInMemoryRevokedTokenCache()
	svc, err := session.New(testSecret, session.WithRevocationCache(cache))
	require.NoError(t, err)

	token, err := svc.Issue("user-1")
	require.NoError(t, err)

	_, err = svc.Validate(token)
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(token))

	_, err = svc.Validate(token)
	require.ErrorIs(t, err, apperr.ErrInvalidToken)

	// A second credential for the same user is unaffected.
	fresh, err := svc.Issue("user-1")
	require.NoError(t, err)
	_, err = svc.Validate(fresh)
	require.NoError(t, err)
}

func TestRevokeMalformedTokenIsNoOp(t *testing.T) {
	cache := session.NewInMemoryRevokedTokenCache()
	svc, err := session.New(testSecret, session.WithRevocationCache(cache))
	require.NoError(t, err)

	require.NoError(t, svc.Revoke("garbage"))
}

func TestRevokedCacheIgnoresExpiredEntries(t *testing.T) {
	cache := session.NewInMemoryRevokedTokenCache()

	// An exp already in the past is never revoked: the credential cannot
	// validate anyway.
	require.NoError(t, cache.Add("gone", time.Now().Add(-time.Minute)))
	require.NoError(t, cache.Add("live", time.Now().Add(time.Hour)))

	require.False(t, cache.IsRevoked("gone"))
	require.True(t, cache.IsRevoked("live"))

	cache.Cleanup()
	require.True(t, cache.IsRevoked("live"))
}
