// Package identity validates third-party identity assertions (OIDC ID tokens)
// against the provider's published signing keys.
package identity

import (
	"context"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"

	"github.com/jrsteele09/go-vault-server/internal/apperr"
)

// Identity is the canonical result of a verified assertion.
type Identity struct {
	Subject string // Stable subject identifier assigned by the provider
	Name    string
	Email   string
	Nonce   string // Echoed from the authorization request, empty outside the code flow
}

// Verifier checks assertion signatures, audience, and expiry using the
// provider's JWKS, which go-oidc fetches and caches with a bounded refresh.
type Verifier struct {
	provider    *oidc.Provider
	idVerifier  *oidc.IDTokenVerifier
	oauthConfig *oauth2.Config
}

type Config struct {
	Issuer       string // e.g. "https://accounts.google.com"
	ClientID     string // The audience every assertion must carry
	ClientSecret string // Only needed for the authorization-code flow
	RedirectURL  string // Only needed for the authorization-code flow
}

// NewVerifier runs provider discovery and prepares the key-backed verifier.
// Discovery failure is transient and retryable by the caller.
func NewVerifier(ctx context.Context, cfg Config) (*Verifier, error) {
	if cfg.ClientID == "" {
		return nil, errors.New("[NewVerifier] client id is required")
	}

	provider, err := oidc.NewProvider(ctx, cfg.Issuer)
	if err != nil {
		return nil, errors.Wrapf(apperr.ErrProviderUnavailable, "[NewVerifier] discovery: %v", err)
	}

	return &Verifier{
		provider:   provider,
		idVerifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
	}, nil
}

// Verify checks the raw assertion's signature, audience, and expiry, and
// extracts the canonical subject, display name, and email. Verification has
// no side effects beyond the provider key cache.
func (v *Verifier) Verify(ctx context.Context, rawAssertion string) (*Identity, error) {
	idToken, err := v.idVerifier.Verify(ctx, rawAssertion)
	if err != nil {
		return nil, classifyVerifyError(err)
	}

	var claims struct {
		Sub   string `json:"sub"`
		Email string `json:"email"`
		Name  string `json:"name"`
		Nonce string `json:"nonce"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, errors.Wrapf(apperr.ErrInvalidAssertion, "claims: %v", err)
	}
	if claims.Sub == "" {
		return nil, errors.Wrap(apperr.ErrInvalidAssertion, "assertion has no subject")
	}

	return &Identity{
		Subject: claims.Sub,
		Name:    claims.Name,
		Email:   claims.Email,
		Nonce:   claims.Nonce,
	}, nil
}

// AuthCodeURL builds the provider's consent URL for the browser login flow.
func (v *Verifier) AuthCodeURL(state, nonce string) string {
	return v.oauthConfig.AuthCodeURL(state, oidc.Nonce(nonce))
}

// Exchange swaps an authorization code for the provider's raw ID token, which
// callers then pass through Verify.
func (v *Verifier) Exchange(ctx context.Context, code string) (string, error) {
	token, err := v.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return "", errors.Wrapf(apperr.ErrInvalidAssertion, "code exchange: %v", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return "", errors.Wrap(apperr.ErrInvalidAssertion, "no id_token in provider response")
	}
	return rawIDToken, nil
}

// classifyVerifyError separates a transient key-fetch failure (retryable)
// from a defective assertion (never retried).
func classifyVerifyError(err error) error {
	var expired *oidc.TokenExpiredError
	if errors.As(err, &expired) {
		return errors.Wrapf(apperr.ErrInvalidAssertion, "%v", err)
	}
	if strings.Contains(err.Error(), "fetching keys") {
		return errors.Wrapf(apperr.ErrProviderUnavailable, "%v", err)
	}
	return errors.Wrapf(apperr.ErrInvalidAssertion, "%v", err)
}
