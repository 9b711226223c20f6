package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	healthhandler "github.com/wrale/oidc-consent-proxy/cmd/oidc-consent-proxy/handlers/health"
	"github.com/wrale/oidc-consent-proxy/internal/audit"
	"github.com/wrale/oidc-consent-proxy/internal/consent"
	"github.com/wrale/oidc-consent-proxy/internal/csrf"
	"github.com/wrale/oidc-consent-proxy/internal/directory"
	"github.com/wrale/oidc-consent-proxy/internal/grants"
	"github.com/wrale/oidc-consent-proxy/internal/interaction"
	"github.com/wrale/oidc-consent-proxy/internal/session"
)

// Version is set by the build process.
var Version = "dev"

func main() {
	// A .env file is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "error loading configuration: %v\n", err)
		os.Exit(1)
	}

	log := newLogger(cfg)
	defer func() { _ = log.Sync() }()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatal("parsing redis url", zap.Error(err))
	}
	redisClient := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("connecting to redis", zap.Error(err))
	}

	engine := interaction.NewRedisEngine(redisClient,
		interaction.WithDecisionTTL(cfg.DecisionTTL),
		interaction.WithGrantTTL(cfg.GrantTTL),
	)

	clients, resources, dirHealth, closeDirectory, err := newDirectory(ctx, cfg, log)
	if err != nil {
		log.Fatal("connecting to directory", zap.Error(err))
	}
	defer closeDirectory()

	opts := consent.DefaultOptions()
	opts.EnableOfflineAccess = cfg.EnableOfflineAccess

	events := audit.NewZapSink(log)
	processor := consent.NewProcessor(engine, events, opts)
	grantService := grants.NewService(engine, clients, resources, events, log)

	csrfManager := csrf.NewManager(csrf.NewRedisStore(redisClient), []byte(cfg.CSRFSecret), cfg.CSRFTokenExpiry)
	sessions := session.NewManager([]byte(cfg.SessionSecret), cfg.SessionCookie, "/auth/login")

	srv, err := newServer(cfg, serverDeps{
		processor: processor,
		grants:    grantService,
		csrf:      csrfManager,
		sessions:  sessions,
		health: map[string]healthhandler.Checker{
			"interaction": engine,
			"csrf":        csrfManager,
			"directory":   dirHealth,
		},
		log: log,
	})
	if err != nil {
		log.Fatal("creating server", zap.Error(err))
	}

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           srv.router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.Int("port", cfg.Port), zap.String("version", Version))
		serverErrors <- httpServer.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		log.Fatal("server error", zap.Error(err))

	case <-shutdown:
		log.Info("starting shutdown")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(ctx); err != nil {
			log.Warn("shutting down server", zap.Error(err))
			if err := httpServer.Close(); err != nil {
				log.Warn("closing server", zap.Error(err))
			}
		}

		if err := redisClient.Close(); err != nil {
			log.Warn("closing redis connection", zap.Error(err))
		}
	}
}

// newDirectory selects the Postgres-backed directory when a DSN is
// configured, with a read-through cache in front; otherwise the seeded
// in-memory directory for development.
func newDirectory(ctx context.Context, cfg Config, log *zap.Logger) (directory.ClientStore, directory.ResourceStore, healthhandler.Checker, func(), error) {
	if cfg.PostgresDSN == "" {
		log.Warn("no POSTGRES_DSN configured, using the seeded in-memory directory")
		store := directory.NewSeeded()
		return store, store, store, func() {}, nil
	}

	store, err := directory.NewPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	cached := directory.NewCached(store, store, cfg.DirectoryCacheTTL)
	return cached, cached, store, store.Close, nil
}

func newLogger(cfg Config) *zap.Logger {
	var zcfg zap.Config
	if cfg.Env == "prod" {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}
	if level, err := zap.ParseAtomicLevel(cfg.LogLevel); err == nil {
		zcfg.Level = level
	}

	log, err := zcfg.Build()
	if err != nil {
		log, _ = zap.NewProduction()
	}
	return log
}
