package server

import "net/http"

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	RouteLogin         = "/login"
	RouteLoginURL      = "/login/url"
	RouteLoginCallback = "/login/callback"
	RouteLogout        = "/logout"

	RouteMe       = "/me"
	RouteUpload   = "/upload"
	RouteFiles    = "/files"
	RouteFileByID = "/files/{id}"
	RouteDownload = "/download/{id}"

	RouteHealthz = "/healthz"
	RouteMetrics = "/metrics"
)

func (s *Server) initRoutes() {
	// Login routes: no credential required, rate limited per remote address.
	s.RegisterRouteFunc("POST "+RouteLogin, ChainMiddleware(s.LoginHandler(), s.loginMiddleware()...))
	if s.oauthFlow != nil {
		s.RegisterRouteFunc("GET "+RouteLoginURL, ChainMiddleware(s.LoginURLHandler(), s.loginMiddleware()...))
		s.RegisterRouteFunc("GET "+RouteLoginCallback, ChainMiddleware(s.LoginCallbackHandler(), s.loginMiddleware()...))
	}

	// File and profile routes: bearer credential required.
	s.RegisterRouteFunc("POST "+RouteLogout, ChainMiddleware(s.LogoutHandler(), s.apiMiddleware(s.RequireAuth())...))
	s.RegisterRouteFunc("GET "+RouteMe, ChainMiddleware(s.MeHandler(), s.apiMiddleware(s.RequireAuth())...))
	s.RegisterRouteFunc("POST "+RouteUpload, ChainMiddleware(s.UploadHandler(), s.apiMiddleware(s.RequireAuth())...))
	s.RegisterRouteFunc("GET "+RouteFiles, ChainMiddleware(s.ListFilesHandler(), s.apiMiddleware(s.RequireAuth())...))
	s.RegisterRouteFunc("DELETE "+RouteFileByID, ChainMiddleware(s.DeleteFileHandler(), s.apiMiddleware(s.RequireAuth())...))
	s.RegisterRouteFunc("GET "+RouteDownload, ChainMiddleware(s.DownloadHandler(), s.apiMiddleware(s.RequireAuth())...))

	// Operational routes
	s.RegisterRouteFunc("GET "+RouteHealthz, s.HealthzHandler())
	s.RegisterRouteHandler("GET "+RouteMetrics, s.metrics.Handler())
}

func (s *Server) apiMiddleware(mw ...func(http.HandlerFunc) http.HandlerFunc) []func(http.HandlerFunc) http.HandlerFunc {
	chained := []func(http.HandlerFunc) http.HandlerFunc{
		s.LoggingMiddleware,
		s.RecoverMiddleware,
		s.MetricsMiddleware,
		s.CorsMiddleware,
	}
	chained = append(chained, mw...)
	return chained
}

func (s *Server) loginMiddleware() []func(http.HandlerFunc) http.HandlerFunc {
	return append(s.apiMiddleware(), s.RateLimitMiddleware)
}
