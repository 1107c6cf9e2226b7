package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-vault-server/files"
	"github.com/jrsteele09/go-vault-server/files/memstore"
	"github.com/jrsteele09/go-vault-server/files/pgstore"
	"github.com/jrsteele09/go-vault-server/gateway"
	"github.com/jrsteele09/go-vault-server/identity"
	"github.com/jrsteele09/go-vault-server/internal/config"
	"github.com/jrsteele09/go-vault-server/internal/metrics"
	"github.com/jrsteele09/go-vault-server/server"
	"github.com/jrsteele09/go-vault-server/session"
	"github.com/jrsteele09/go-vault-server/storage"
	"github.com/jrsteele09/go-vault-server/storage/memblob"
	"github.com/jrsteele09/go-vault-server/storage/miniostore"
	"github.com/jrsteele09/go-vault-server/users"
	"github.com/jrsteele09/go-vault-server/users/memdir"
	"github.com/jrsteele09/go-vault-server/users/pgdir"
)

const appName = "vault"

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	_ = godotenv.Load()

	var cfg config.Config
	if err := config.Load(&cfg); err != nil {
		return fmt.Errorf("config.Load: %w", err)
	}

	setupLogger(cfg.Env)
	displayAppname(appName)

	ctx := context.Background()

	verifier, err := identity.NewVerifier(ctx, identity.Config{
		Issuer:       cfg.OIDCIssuer,
		ClientID:     cfg.OIDCClientID,
		ClientSecret: cfg.OIDCClientSecret,
		RedirectURL:  cfg.OAuthRedirectURL,
	})
	if err != nil {
		return fmt.Errorf("identity.NewVerifier: %w", err)
	}

	revoked, closeCache, err := newRevocationCache(ctx, cfg)
	if err != nil {
		return fmt.Errorf("newRevocationCache: %w", err)
	}
	defer closeCache()

	sessions, err := session.New(cfg.JWTSecret,
		session.WithTTL(cfg.SessionTTL),
		session.WithRevocationCache(revoked),
	)
	if err != nil {
		return fmt.Errorf("session.New: %w", err)
	}

	repos, closeRepos, err := newRepos(ctx, cfg)
	if err != nil {
		return fmt.Errorf("newRepos: %w", err)
	}
	defer closeRepos()

	gw, err := gateway.New(verifier, sessions, repos, log.Logger)
	if err != nil {
		return fmt.Errorf("gateway.New: %w", err)
	}

	// The browser flow needs a registered redirect URL; without one only the
	// direct POST /login route is served.
	var flow server.OAuthFlow
	if cfg.OAuthRedirectURL != "" {
		flow = verifier
	}

	srv := server.New(server.Options{
		Env:                cfg.Env,
		AllowedOrigins:     cfg.AllowedOrigins,
		MaxUploadBytes:     cfg.MaxUploadBytes,
		LoginRatePerMinute: cfg.LoginRatePerMinute,
		LoginRateBurst:     cfg.LoginRateBurst,
	}, gw, flow, metrics.NewCollector(), log.Logger)
	defer srv.Close()

	stopCleanup := startRevocationCleanup(revoked)
	defer stopCleanup()

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go listenAndServe(httpServer)
	waitForStopSignal()
	return shutdown(httpServer)
}

func listenAndServe(httpServer *http.Server) {
	log.Info().Str("addr", httpServer.Addr).Msg("server listening")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("server.ListenAndServe")
	}
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(httpServer *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func setupLogger(env string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if env == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// newRepos wires Postgres and MinIO when configured, falling back to the
// in-memory implementations for local development.
func newRepos(ctx context.Context, cfg config.Config) (gateway.Repos, func(), error) {
	var (
		userDir   users.Directory
		fileStore files.Store
		closeFns  []func()
	)

	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return gateway.Repos{}, nil, fmt.Errorf("pgxpool.New: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return gateway.Repos{}, nil, fmt.Errorf("pool.Ping: %w", err)
		}
		if err := runMigrations(ctx, pool); err != nil {
			pool.Close()
			return gateway.Repos{}, nil, fmt.Errorf("runMigrations: %w", err)
		}
		userDir = pgdir.New(pool)
		fileStore = pgstore.New(pool)
		closeFns = append(closeFns, pool.Close)
		log.Info().Msg("using postgres stores")
	} else {
		userDir = memdir.New()
		fileStore = memstore.New()
		log.Warn().Msg("DATABASE_URL not set, using in-memory stores")
	}

	var blobs storage.BlobStore
	if cfg.MinioEndpoint != "" {
		store, err := miniostore.New(ctx, miniostore.Config{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			for _, fn := range closeFns {
				fn()
			}
			return gateway.Repos{}, nil, fmt.Errorf("miniostore.New: %w", err)
		}
		blobs = store
		log.Info().Str("endpoint", cfg.MinioEndpoint).Str("bucket", cfg.MinioBucket).Msg("using minio blob store")
	} else {
		blobs = memblob.New()
		log.Warn().Msg("MINIO_ENDPOINT not set, using in-memory blob store")
	}

	closeAll := func() {
		for _, fn := range closeFns {
			fn()
		}
	}
	return gateway.Repos{Users: userDir, Files: fileStore, Blobs: blobs}, closeAll, nil
}

func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrationSQL, err := os.ReadFile("./migrations/001_init.sql")
	if err != nil {
		return fmt.Errorf("os.ReadFile: %w", err)
	}
	if _, err := pool.Exec(ctx, string(migrationSQL)); err != nil {
		return fmt.Errorf("pool.Exec: %w", err)
	}
	log.Info().Msg("migrations applied")
	return nil
}

func newRevocationCache(ctx context.Context, cfg config.Config) (session.RevokedTokenCache, func(), error) {
	if cfg.RedisURL == "" {
		return session.NewInMemoryRevokedTokenCache(), func() {}, nil
	}
	cache, err := session.NewRedisRevokedTokenCache(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("session.NewRedisRevokedTokenCache: %w", err)
	}
	log.Info().Msg("using redis revocation cache")
	return cache, func() {
		if err := cache.Close(); err != nil {
			log.Error().Err(err).Msg("closing redis revocation cache")
		}
	}, nil
}

func startRevocationCleanup(cache session.RevokedTokenCache) func() {
	ticker := time.NewTicker(time.Hour)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				cache.Cleanup()
			case <-done:
				return
			}
		}
	}()
	return func() {
		ticker.Stop()
		close(done)
	}
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(strings.ToUpper(appname), "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
