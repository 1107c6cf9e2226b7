package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/pkg/errors"

	"github.com/jrsteele09/go-vault-server/files"
	"github.com/jrsteele09/go-vault-server/internal/apperr"
)

type loginRequest struct {
	IdentityAssertion string `json:"identity_assertion"`
}

type userResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type filesResponse struct {
	Files []*files.FileRecord `json:"files"`
}

// LoginHandler accepts a raw identity assertion, bridges it to a local user,
// and returns the session credential.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.IdentityAssertion == "" {
			s.writeError(w, errors.Wrap(apperr.ErrInvalidAssertion, "missing identity_assertion"))
			s.metrics.RecordLogin(false)
			return
		}

		result, err := s.gw.Login(r.Context(), req.IdentityAssertion)
		if err != nil {
			s.writeError(w, err)
			s.metrics.RecordLogin(false)
			return
		}

		s.metrics.RecordLogin(true)
		s.writeJSON(w, http.StatusOK, result)
	}
}

// LoginURLHandler starts the browser login flow: it hands the client the
// provider consent URL bound to a fresh state/nonce pair.
func (s *Server) LoginURLHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, nonce := s.loginStates.Begin()
		s.writeJSON(w, http.StatusOK, map[string]string{
			"url":   s.oauthFlow.AuthCodeURL(state, nonce),
			"state": state,
		})
	}
}

// LoginCallbackHandler finishes the browser login flow: code for assertion,
// assertion for credential.
func (s *Server) LoginCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.FormValue("code")
		state := r.FormValue("state")
		if code == "" || state == "" {
			s.writeError(w, errors.Wrap(apperr.ErrInvalidAssertion, "missing code or state parameter"))
			s.metrics.RecordLogin(false)
			return
		}

		nonce, ok := s.loginStates.Consume(state)
		if !ok {
			s.writeError(w, errors.Wrap(apperr.ErrInvalidAssertion, "unknown or expired state"))
			s.metrics.RecordLogin(false)
			return
		}

		assertion, err := s.oauthFlow.Exchange(r.Context(), code)
		if err != nil {
			s.writeError(w, err)
			s.metrics.RecordLogin(false)
			return
		}

		result, err := s.gw.LoginWithNonce(r.Context(), assertion, nonce)
		if err != nil {
			s.writeError(w, err)
			s.metrics.RecordLogin(false)
			return
		}

		s.metrics.RecordLogin(true)
		s.writeJSON(w, http.StatusOK, result)
	}
}

// LogoutHandler revokes the credential the request carried.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := TokenFromContext(r.Context())
		if !ok {
			s.writeError(w, apperr.ErrUnauthorized)
			return
		}
		if err := s.gw.Logout(token); err != nil {
			s.writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			s.writeError(w, apperr.ErrUnauthorized)
			return
		}
		s.writeJSON(w, http.StatusOK, userResponse{ID: user.ID, Name: user.Name, Email: user.Email})
	}
}

// UploadHandler accepts a multipart upload and stores it for the
// authenticated user. The blob write uses the request context, so a client
// disconnect aborts the in-flight write before any record exists.
func (s *Server) UploadHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			s.writeError(w, apperr.ErrUnauthorized)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)

		file, header, err := r.FormFile("file")
		if err != nil {
			s.writeJSON(w, http.StatusBadRequest, errorResponse{
				Error:            "bad_request",
				ErrorDescription: "No file found in request",
			})
			return
		}
		defer file.Close()

		contentType := header.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		rec, err := s.gw.Upload(r.Context(), user, files.Metadata{
			Filename:    header.Filename,
			Size:        header.Size,
			ContentType: contentType,
		}, file)
		if err != nil {
			s.writeError(w, err)
			return
		}

		s.metrics.RecordUploadBytes(rec.Size)
		s.writeJSON(w, http.StatusCreated, rec)
	}
}

func (s *Server) ListFilesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			s.writeError(w, apperr.ErrUnauthorized)
			return
		}

		records, err := s.gw.List(r.Context(), user)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, filesResponse{Files: records})
	}
}

func (s *Server) DownloadHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			s.writeError(w, apperr.ErrUnauthorized)
			return
		}

		rec, blob, err := s.gw.Download(r.Context(), user, r.PathValue("id"))
		if err != nil {
			s.writeError(w, err)
			return
		}
		defer blob.Close()

		w.Header().Set("Content-Type", rec.ContentType)
		w.Header().Set("Content-Length", fmt.Sprintf("%d", rec.Size))
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rec.Filename))

		n, err := io.Copy(w, blob)
		if err != nil {
			// Headers are gone; all we can do is log the broken stream.
			s.log.Err(err).Str("file_id", rec.ID).Msg("download stream interrupted")
		}
		s.metrics.RecordDownloadBytes(n)
	}
}

func (s *Server) DeleteFileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			s.writeError(w, apperr.ErrUnauthorized)
			return
		}

		if err := s.gw.Delete(r.Context(), user, r.PathValue("id")); err != nil {
			s.writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
