// Package server holds the start-up steps shared by the storefront API and
// the small service binaries.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uptrace/bun"

	"ms-storefront/internal/auth"
	"ms-storefront/internal/blob"
	"ms-storefront/internal/clock"
	"ms-storefront/internal/config"
	"ms-storefront/internal/database"
	"ms-storefront/internal/database/migrations"
	"ms-storefront/internal/kafka"
	"ms-storefront/internal/logger"
	"ms-storefront/internal/metrics"
	"ms-storefront/internal/tickets/db"
	"ms-storefront/internal/tickets/qr"
	tickets "ms-storefront/internal/tickets/service"
	"ms-storefront/internal/utils"
)

const shutdownTimeout = 10 * time.Second

// LoadConfig reads .env when present and then the environment.
func LoadConfig(log *logger.Logger) *config.Config {
	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}
	return config.Load()
}

// OpenDatabase connects to Postgres and applies pending migrations when
// auto-migrate is on. The migrator gets its own connection because closing it
// closes the pool underneath.
func OpenDatabase(cfg config.DatabaseConfig, log *logger.Logger) (*bun.DB, error) {
	sqldb, err := database.OpenPostgres(cfg, log)
	if err != nil {
		return nil, err
	}

	if cfg.AutoMigrate {
		if err := Migrate(cfg, log, func(r *migrations.Runner) error { return r.RunMigrations() }); err != nil {
			sqldb.Close()
			return nil, err
		}
	}
	return database.NewBun(sqldb), nil
}

// Migrate opens a dedicated connection, runs fn against a migration runner
// and closes both.
func Migrate(cfg config.DatabaseConfig, log *logger.Logger, fn func(r *migrations.Runner) error) error {
	migrationDB, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	runner := migrations.NewRunner(migrationDB, migrations.DefaultOptions(), log)
	defer func() {
		if err := runner.Close(); err != nil {
			log.Warn("MIGRATE", err.Error())
		}
		migrationDB.Close()
	}()
	return fn(runner)
}

// ConnectRedis returns nil when Redis cannot be reached; callers run without
// caching or idempotency in that case.
func ConnectRedis(cfg config.RedisConfig, log *logger.Logger) *redis.Client {
	client, err := database.ConnectRedis(cfg, log)
	if err != nil {
		log.Warn("REDIS", "Continuing without Redis: settings are read uncached and Idempotency-Key is ignored")
		return nil
	}
	return client
}

// Authenticator picks HMAC session tokens when a secret is configured and the
// OIDC issuer otherwise. Verified claims are cached in Redis when available.
func Authenticator(ctx context.Context, cfg config.AuthConfig, bunDB *bun.DB, rdb *redis.Client, log *logger.Logger) (*auth.Authenticator, error) {
	var verifier auth.TokenVerifier
	switch {
	case cfg.JWTSecret != "":
		verifier = &auth.HMACVerifier{Secret: []byte(cfg.JWTSecret)}
		log.Info("AUTH", "Using HMAC session tokens")
	case cfg.OIDCIssuer != "":
		v, err := auth.NewOIDCVerifier(ctx, cfg.OIDCIssuer)
		if err != nil {
			return nil, err
		}
		verifier = v
		log.Info("AUTH", fmt.Sprintf("Using OIDC issuer %s", cfg.OIDCIssuer))
	default:
		return nil, errors.New("either JWT_SECRET or OIDC_ISSUER must be set")
	}

	if rdb != nil {
		verifier = auth.NewCachingVerifier(verifier, rdb, log)
	}
	return auth.NewAuthenticator(verifier, &auth.UserDB{Bun: bunDB}, cfg.OwnerOpenID, log), nil
}

// Publisher returns a Kafka producer, or a logging stand-in when Kafka is
// disabled.
func Publisher(cfg config.KafkaConfig, log *logger.Logger) kafka.Publisher {
	if !cfg.Enabled {
		log.Warn("KAFKA", "Kafka disabled, events will only be logged")
		return &kafka.LogPublisher{Logger: log}
	}
	if err := kafka.EnsureTopicsExist(cfg.Brokers, cfg.Topics.All(), log); err != nil {
		log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
	}
	log.Info("KAFKA", fmt.Sprintf("Kafka producer using brokers %v", cfg.Brokers))
	return kafka.NewProducer(cfg.Brokers, log)
}

// TicketService builds the ticket service over the local QR code store.
func TicketService(cfg config.StorageConfig, bunDB *bun.DB, log *logger.Logger) (*tickets.TicketService, error) {
	store, err := blob.NewLocalStore(cfg.Dir, cfg.PublicBaseURL)
	if err != nil {
		return nil, fmt.Errorf("open QR code store: %w", err)
	}
	return tickets.NewTicketService(&db.DB{Bun: bunDB}, qr.NewGenerator(), store, clock.NewSystem(), log), nil
}

// NewRouter returns a router with CORS, request logging, metrics and optional
// authentication, plus the health and metrics endpoints.
func NewRouter(cfg config.ServerConfig, authn *auth.Authenticator, ready func(ctx context.Context) error, log *logger.Logger) *chi.Mux {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(log.Middleware)
	r.Use(metrics.Middleware)
	if authn != nil {
		r.Use(authn.Optional)
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.WriteSuccess(w, http.StatusOK, "ok", nil)
	})
	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if ready != nil {
			if err := ready(ctx); err != nil {
				log.Warn("HTTP", fmt.Sprintf("Readiness check failed: %v", err))
				utils.WriteJSON(w, http.StatusServiceUnavailable, utils.ErrorResponse("not ready", "unavailable"))
				return
			}
		}
		utils.WriteSuccess(w, http.StatusOK, "ready", nil)
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}

type filesOnly struct {
	fs http.FileSystem
}

// Open refuses directories so the file server never renders an index of
// issued QR codes.
func (f filesOnly) Open(name string) (http.File, error) {
	file, err := f.fs.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if info.IsDir() {
		file.Close()
		return nil, os.ErrNotExist
	}
	return file, nil
}

// FileHandler serves stored blobs below /files. Mount it on "/files/*".
func FileHandler(dir string) http.Handler {
	return http.StripPrefix("/files", http.FileServer(filesOnly{fs: http.Dir(dir)}))
}

// Run serves handler on addr until SIGINT or SIGTERM, then shuts down
// gracefully.
func Run(cfg config.ServerConfig, addr string, handler http.Handler, name string, log *logger.Logger) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP", fmt.Sprintf("%s running on %s", name, addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-stop:
	}

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.Info("HTTP", fmt.Sprintf("%s shutdown complete", name))
	return nil
}

// WaitForSignal returns a context cancelled on SIGINT or SIGTERM.
func WaitForSignal(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}
