// Package server exposes the authorization gateway over HTTP.
package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jrsteele09/go-vault-server/gateway"
	"github.com/jrsteele09/go-vault-server/internal/metrics"
)

// Options carries the HTTP-surface knobs; everything with behaviour lives in
// the gateway.
type Options struct {
	Env                string
	AllowedOrigins     []string
	MaxUploadBytes     int64
	LoginRatePerMinute float64
	LoginRateBurst     int
}

type Server struct {
	env            string
	mux            *http.ServeMux
	routes         []string
	gw             *gateway.Service
	oauthFlow      OAuthFlow
	metrics        *metrics.Collector
	loginLimiter   *loginLimiter
	loginStates    *loginStateStore
	allowedOrigins []string
	maxUploadBytes int64
	log            zerolog.Logger
}

// OAuthFlow is the optional browser login flow: build the provider consent
// URL, then trade the returned code for a raw identity assertion.
type OAuthFlow interface {
	AuthCodeURL(state, nonce string) string
	Exchange(ctx context.Context, code string) (string, error)
}

func New(opts Options, gw *gateway.Service, flow OAuthFlow, collector *metrics.Collector, log zerolog.Logger) *Server {
	s := &Server{
		env:            opts.Env,
		mux:            http.NewServeMux(),
		gw:             gw,
		oauthFlow:      flow,
		metrics:        collector,
		loginLimiter:   newLoginLimiter(opts.LoginRatePerMinute, opts.LoginRateBurst),
		loginStates:    newLoginStateStore(),
		allowedOrigins: opts.AllowedOrigins,
		maxUploadBytes: opts.MaxUploadBytes,
		log:            log,
	}

	s.initRoutes()
	s.logRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Preflight requests never match the method-prefixed mux patterns, so
	// they are answered before dispatch.
	if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
		s.handlePreflight(w, r)
		return
	}
	s.mux.ServeHTTP(w, r)
}

// Close stops the background goroutines the server owns.
func (s *Server) Close() {
	s.loginLimiter.Stop()
	s.loginStates.Stop()
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)
		if len(parts) > 1 {
			s.log.Debug().Str("method", parts[0]).Str("path", parts[1]).Msg("route")
		} else {
			s.log.Debug().Str("path", parts[0]).Msg("route")
		}
	}
}
