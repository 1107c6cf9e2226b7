// Package gateway is the single choke point for every file operation: it
// binds inbound requests to a verified user identity and enforces ownership
// before touching the metadata store or the blob store.
package gateway

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/jrsteele09/go-vault-server/files"
	"github.com/jrsteele09/go-vault-server/identity"
	"github.com/jrsteele09/go-vault-server/internal/apperr"
	"github.com/jrsteele09/go-vault-server/session"
	"github.com/jrsteele09/go-vault-server/storage"
	"github.com/jrsteele09/go-vault-server/users"
)

// IdentityVerifier validates a third-party identity assertion.
type IdentityVerifier interface {
	Verify(ctx context.Context, rawAssertion string) (*identity.Identity, error)
}

// Repos holds the persistence dependencies of the gateway. The gateway itself
// owns no state; it orchestrates and enforces policy over these stores.
type Repos struct {
	Users users.Directory
	Files files.Store
	Blobs storage.BlobStore
}

type Service struct {
	verifier IdentityVerifier
	sessions *session.Service
	repos    Repos
	log      zerolog.Logger
}

func New(verifier IdentityVerifier, sessions *session.Service, repos Repos, log zerolog.Logger) (*Service, error) {
	if verifier == nil {
		return nil, errors.New("[gateway New] identity verifier is required")
	}
	if sessions == nil {
		return nil, errors.New("[gateway New] session service is required")
	}
	if repos.Users == nil {
		return nil, errors.New("[gateway New] users directory is required")
	}
	if repos.Files == nil {
		return nil, errors.New("[gateway New] files store is required")
	}
	if repos.Blobs == nil {
		return nil, errors.New("[gateway New] blob store is required")
	}

	return &Service{
		verifier: verifier,
		sessions: sessions,
		repos:    repos,
		log:      log,
	}, nil
}

// LoginResult pairs the issued credential with the resolved user.
type LoginResult struct {
	Token string      `json:"token"`
	User  *users.User `json:"user"`
}

// Login verifies the assertion, maps it onto the local user record (creating
// it exactly once on first login), and issues a session credential. The first
// failing sub-step's error propagates unchanged.
func (s *Service) Login(ctx context.Context, assertion string) (*LoginResult, error) {
	return s.login(ctx, assertion, "")
}

// LoginWithNonce additionally requires the assertion to echo the nonce bound
// to the initiating browser flow, rejecting replayed assertions.
func (s *Service) LoginWithNonce(ctx context.Context, assertion, nonce string) (*LoginResult, error) {
	return s.login(ctx, assertion, nonce)
}

func (s *Service) login(ctx context.Context, assertion, nonce string) (*LoginResult, error) {
	id, err := s.verifier.Verify(ctx, assertion)
	if err != nil {
		return nil, err
	}
	if nonce != "" && id.Nonce != nonce {
		return nil, errors.Wrap(apperr.ErrInvalidAssertion, "nonce mismatch")
	}

	user, err := s.repos.Users.FindOrCreate(ctx, id.Subject, id.Name, id.Email)
	if err != nil {
		return nil, err
	}

	token, err := s.sessions.Issue(user.ID)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", user.ID).Str("subject", id.Subject).Msg("user logged in")
	return &LoginResult{Token: token, User: user}, nil
}

// Authenticate validates a bearer credential and resolves it to a user. A
// subject that no longer resolves is an authorization failure, not a server
// error.
func (s *Service) Authenticate(ctx context.Context, token string) (*users.User, error) {
	userID, err := s.sessions.Validate(token)
	if err != nil {
		return nil, err
	}

	user, err := s.repos.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, errors.Wrapf(apperr.ErrUnauthorized, "unknown user %q", userID)
		}
		return nil, err
	}
	return user, nil
}

// Logout revokes the credential server-side. Safe to call with an expired or
// malformed credential.
func (s *Service) Logout(token string) error {
	return s.sessions.Revoke(token)
}

// Upload writes the blob under a freshly generated unique storage key and
// only then records the metadata, so a partial upload is never referenced by
// a record. If recording fails the
// orphaned blob is deleted best-effort; a surviving orphan is logged for
// offline reconciliation.
func (s *Service) Upload(ctx context.Context, owner *users.User, meta files.Metadata, content io.Reader) (*files.FileRecord, error) {
	key := files.NewStorageKey(meta.Filename)

	if err := s.repos.Blobs.Put(ctx, key, content, meta.Size, meta.ContentType); err != nil {
		return nil, err
	}

	rec, err := s.repos.Files.Create(ctx, owner.ID, key, meta)
	if err != nil {
		if delErr := s.repos.Blobs.Delete(ctx, key); delErr != nil {
			s.log.Error().Err(delErr).Str("storage_key", key).Msg("orphaned blob: compensating delete failed")
		}
		return nil, err
	}

	s.log.Info().Str("user_id", owner.ID).Str("file_id", rec.ID).Int64("size", rec.Size).Msg("file uploaded")
	return rec, nil
}

// List returns the owner's file records and nobody else's.
func (s *Service) List(ctx context.Context, owner *users.User) ([]*files.FileRecord, error) {
	return s.repos.Files.ListByOwner(ctx, owner.ID)
}

// Download resolves the record, enforces ownership, and streams the blob.
// A record owned by someone else yields ErrForbidden; a missing id yields
// ErrNotFound. The caller must close the returned reader.
func (s *Service) Download(ctx context.Context, owner *users.User, fileID string) (*files.FileRecord, io.ReadCloser, error) {
	rec, err := s.repos.Files.GetByID(ctx, fileID)
	if err != nil {
		return nil, nil, err
	}
	if rec.OwnerID != owner.ID {
		return nil, nil, errors.Wrapf(apperr.ErrForbidden, "file %q", fileID)
	}

	blob, err := s.repos.Blobs.Get(ctx, rec.StorageKey)
	if err != nil {
		return nil, nil, err
	}
	return rec, blob, nil
}

// Delete removes the record first, then the blob. A blob-delete failure after
// the record is gone leaks a blob rather than leaving a record pointing at
// nothing; the key is logged for reconciliation.
func (s *Service) Delete(ctx context.Context, owner *users.User, fileID string) error {
	rec, err := s.repos.Files.GetByID(ctx, fileID)
	if err != nil {
		return err
	}
	if rec.OwnerID != owner.ID {
		return errors.Wrapf(apperr.ErrForbidden, "file %q", fileID)
	}

	if err := s.repos.Files.DeleteByID(ctx, fileID); err != nil {
		return err
	}
	if err := s.repos.Blobs.Delete(ctx, rec.StorageKey); err != nil {
		s.log.Error().Err(err).Str("storage_key", rec.StorageKey).Msg("orphaned blob: delete after record removal failed")
	}

	s.log.Info().Str("user_id", owner.ID).Str("file_id", fileID).Msg("file deleted")
	return nil
}
