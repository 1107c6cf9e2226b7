package identity_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-vault-server/identity"
	"github.com/jrsteele09/go-vault-server/internal/apperr"
)

const (
	testClientID = "vault-client"
	testKeyID    = "test-key-1"
)

// fakeProvider is an httptest-backed OIDC provider: discovery document plus a
// JWKS endpoint publishing the test signing key.
type fakeProvider struct {
	server *httptest.Server
	key    *rsa.PrivateKey
	issuer string
}

func newFakeProvider(t *testing.T) *fakeProvider {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	p := &fakeProvider{key: key}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"issuer":                                p.issuer,
			"authorization_endpoint":                p.issuer + "/auth",
			"token_endpoint":                        p.issuer + "/token",
			"jwks_uri":                              p.issuer + "/keys",
			"id_token_signing_alg_values_supported": []string{"RS256"},
		})
	})
	mux.HandleFunc("GET /keys", func(w http.ResponseWriter, r *http.Request) {
		pub := &p.key.PublicKey
		_ = json.NewEncoder(w).Encode(map[string]any{
			"keys": []map[string]string{{
				"kty": "RSA",
				"use": "sig",
				"alg": "RS256",
				"kid": testKeyID,
				"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
			}},
		})
	})

	p.server = httptest.NewServer(mux)
	p.issuer = p.server.URL
	t.Cleanup(p.server.Close)
	return p
}

// assertion signs an ID token with the provider's key.
func (p *fakeProvider) assertion(t *testing.T, claims jwtlib.MapClaims) string {
	t.Helper()

	token := jwtlib.NewWithClaims(jwtlib.SigningMethodRS256, claims)
	token.Header["kid"] = testKeyID
	signed, err := token.SignedString(p.key)
	require.NoError(t, err)
	return signed
}

func (p *fakeProvider) validClaims() jwtlib.MapClaims {
	now := time.Now()
	return jwtlib.MapClaims{
		"iss":   p.issuer,
		"aud":   testClientID,
		"sub":   "g-123",
		"email": "john.doe@example.com",
		"name":  "John Doe",
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}
}

func newVerifier(t *testing.T, p *fakeProvider) *identity.Verifier {
	t.Helper()

	v, err := identity.NewVerifier(context.Background(), identity.Config{
		Issuer:   p.issuer,
		ClientID: testClientID,
	})
	require.NoError(t, err)
	return v
}

func TestVerifyValidAssertion(t *testing.T) {
	p := newFakeProvider(t)
	v := newVerifier(t, p)

	id, err := v.Verify(context.Background(), p.assertion(t, p.validClaims()))
	require.NoError(t, err)
	require.Equal(t, "g-123", id.Subject)
	require.Equal(t, "John Doe", id.Name)
	require.Equal(t, "john.doe@example.com", id.Email)
}

func TestVerifyRejectsWrongAudience(t *testing.T) {
	p := newFakeProvider(t)
	v := newVerifier(t, p)

	claims := p.validClaims()
	claims["aud"] = "some-other-deployment"

	_, err := v.Verify(context.Background(), p.assertion(t, claims))
	require.ErrorIs(t, err, apperr.ErrInvalidAssertion)
}

func TestVerifyRejectsExpiredAssertion(t *testing.T) {
	p := newFakeProvider(t)
	v := newVerifier(t, p)

	claims := p.validClaims()
	claims["iat"] = time.Now().Add(-2 * time.Hour).Unix()
	claims["exp"] = time.Now().Add(-time.Hour).Unix()

	_, err := v.Verify(context.Background(), p.assertion(t, claims))
	require.ErrorIs(t, err, apperr.ErrInvalidAssertion)
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	p := newFakeProvider(t)
	v := newVerifier(t, p)

	otherKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	token := jwtlib.NewWithClaims(jwtlib.SigningMethodRS256, p.validClaims())
	token.Header["kid"] = testKeyID
	forged, err := token.SignedString(otherKey)
	require.NoError(t, err)

	_, err = v.Verify(context.Background(), forged)
	require.ErrorIs(t, err, apperr.ErrInvalidAssertion)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	p := newFakeProvider(t)
	v := newVerifier(t, p)

	_, err := v.Verify(context.Background(), "not-an-assertion")
	require.ErrorIs(t, err, apperr.ErrInvalidAssertion)
}

func TestNewVerifierDiscoveryFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down for maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := identity.NewVerifier(context.Background(), identity.Config{
		Issuer:   srv.URL,
		ClientID: testClientID,
	})
	require.ErrorIs(t, err, apperr.ErrProviderUnavailable)
}

func TestAuthCodeURLCarriesStateAndNonce(t *testing.T) {
	p := newFakeProvider(t)
	v := newVerifier(t, p)

	u := v.AuthCodeURL("state-123", "nonce-456")
	require.Contains(t, u, "state=state-123")
	require.Contains(t, u, "nonce=nonce-456")
	require.Contains(t, u, "client_id="+testClientID)
}
