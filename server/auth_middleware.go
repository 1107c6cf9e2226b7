package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"github.com/jrsteele09/go-vault-server/internal/apperr"
	"github.com/jrsteele09/go-vault-server/users"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyUser stores the authenticated *users.User
	ContextKeyUser ContextKey = "user"
	// ContextKeyToken stores the raw bearer credential the request carried
	ContextKeyToken ContextKey = "token"
)

// RequireAuth validates the Bearer credential on every request and resolves
// it to a user. No server-side session state is consulted; each request
// re-derives its authorization from the submitted credential.
func (s *Server) RequireAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r)
			if err != nil {
				s.writeError(w, err)
				return
			}

			user, err := s.gw.Authenticate(r.Context(), token)
			if err != nil {
				s.writeError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUser, user)
			ctx = context.WithValue(ctx, ContextKeyToken, token)
			next(w, r.WithContext(ctx))
		}
	}
}

func bearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errors.Wrap(apperr.ErrUnauthorized, "missing Authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", errors.Wrap(apperr.ErrUnauthorized, "invalid Authorization header format")
	}
	if parts[1] == "" {
		return "", errors.Wrap(apperr.ErrUnauthorized, "empty token")
	}
	return parts[1], nil
}

// UserFromContext returns the authenticated user injected by RequireAuth.
func UserFromContext(ctx context.Context) (*users.User, bool) {
	user, ok := ctx.Value(ContextKeyUser).(*users.User)
	return user, ok
}

// TokenFromContext returns the raw credential injected by RequireAuth.
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(ContextKeyToken).(string)
	return token, ok
}
