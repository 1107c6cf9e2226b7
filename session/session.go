// Package session issues and validates the signed, time-bounded credentials
// that authenticate every request after login.
package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/jrsteele09/go-vault-server/internal/apperr"
)

// DefaultTTL is the credential lifetime when no WithTTL option is given.
const DefaultTTL = 24 * time.Hour

// Service signs session credentials with an HMAC key held only by this
// service. Credentials are not persisted; a credential is valid iff its
// signature checks out, it has not expired, and its jti has not been revoked.
type Service struct {
	secret  []byte
	ttl     time.Duration
	nowFunc func() time.Time
	revoked RevokedTokenCache
}

type Option func(*Service)

// WithTTL sets the credential lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.ttl = ttl
	}
}

// WithNowFunc sets the now time function (primarily for testing).
func WithNowFunc(now func() time.Time) Option {
	return func(s *Service) {
		s.nowFunc = now
	}
}

// WithRevocationCache enables server-side revocation of issued credentials.
func WithRevocationCache(cache RevokedTokenCache) Option {
	return func(s *Service) {
		s.revoked = cache
	}
}

func New(secret string, options ...Option) (*Service, error) {
	if secret == "" {
		return nil, errors.New("[session New] signing secret is required")
	}

	s := &Service{
		secret:  []byte(secret),
		ttl:     DefaultTTL,
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Issue creates a signed credential bound to userID, expiring after the
// configured TTL.
func (s *Service) Issue(userID string) (string, error) {
	now := s.nowFunc()
	claims := jwt.MapClaims{
		"sub": userID,
		"iat": now.Unix(),
		"exp": now.Add(s.ttl).Unix(),
		"jti": uuid.New().String(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", errors.Wrap(err, "[Service Issue] failed to sign credential")
	}
	return signed, nil
}

// Validate checks the credential's signature, expiry, and revocation status,
// and returns the subject user id. Expiry is reported as ErrExpiredToken,
// every other defect as ErrInvalidToken; the two are distinct because callers
// show different messages for a forged token and an ended session.
func (s *Service) Validate(tokenString string) (string, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", errors.Wrapf(apperr.ErrExpiredToken, "%v", err)
		}
		return "", errors.Wrapf(apperr.ErrInvalidToken, "%v", err)
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return "", errors.Wrap(apperr.ErrInvalidToken, "missing subject")
	}

	if s.revoked != nil {
		if jti, _ := claims["jti"].(string); jti != "" && s.revoked.IsRevoked(jti) {
			return "", errors.Wrap(apperr.ErrInvalidToken, "credential revoked")
		}
	}
	return subject, nil
}

// Revoke marks the credential's jti as revoked until its natural expiry.
// Revoking an already-expired or malformed credential is a no-op.
func (s *Service) Revoke(tokenString string) error {
	if s.revoked == nil {
		return nil
	}

	claims, err := s.parse(tokenString)
	if err != nil {
		return nil
	}

	jti, _ := claims["jti"].(string)
	if jti == "" {
		return nil
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}
	return s.revoked.Add(jti, exp.Time)
}

func (s *Service) parse(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.nowFunc))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid claims")
	}
	return claims, nil
}
