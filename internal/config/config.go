// Package config loads the server configuration from environment variables.
package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	ServerPort int    `envconfig:"SERVER_PORT" default:"8080"`
	Env        string `envconfig:"ENV" default:"DEV"`

	// Session credentials
	JWTSecret  string        `envconfig:"JWT_SECRET" required:"true"`
	SessionTTL time.Duration `envconfig:"SESSION_TTL" default:"24h"`

	// Identity provider
	OIDCIssuer       string `envconfig:"OIDC_ISSUER" default:"https://accounts.google.com"`
	OIDCClientID     string `envconfig:"OIDC_CLIENT_ID" required:"true"`
	OIDCClientSecret string `envconfig:"OIDC_CLIENT_SECRET"`
	OAuthRedirectURL string `envconfig:"OAUTH_REDIRECT_URL"`

	// Persistence. Empty DATABASE_URL runs with in-memory stores.
	DatabaseURL string `envconfig:"DATABASE_URL"`

	// Object storage. Empty MINIO_ENDPOINT runs with the in-memory blob store.
	MinioEndpoint  string `envconfig:"MINIO_ENDPOINT"`
	MinioAccessKey string `envconfig:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `envconfig:"MINIO_SECRET_KEY"`
	MinioBucket    string `envconfig:"MINIO_BUCKET" default:"vault"`
	MinioUseSSL    bool   `envconfig:"MINIO_USE_SSL" default:"false"`

	// Revocation cache. Empty REDIS_URL uses the in-process cache.
	RedisURL string `envconfig:"REDIS_URL"`

	// HTTP surface
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"*"`
	MaxUploadBytes int64    `envconfig:"MAX_UPLOAD_BYTES" default:"104857600"`

	// Login rate limiting, per remote address
	LoginRatePerMinute float64 `envconfig:"LOGIN_RATE_PER_MINUTE" default:"10"`
	LoginRateBurst     int     `envconfig:"LOGIN_RATE_BURST" default:"10"`
}

// Load populates cfg from the environment.
func Load(cfg *Config) error {
	return envconfig.Process("", cfg)
}
