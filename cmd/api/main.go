package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/pharmacy-inventory/api/controllers"
	"github.com/angelmondragon/pharmacy-inventory/api/routes"
	"github.com/angelmondragon/pharmacy-inventory/api/views"
	"github.com/angelmondragon/pharmacy-inventory/internal/accounts"
	"github.com/angelmondragon/pharmacy-inventory/internal/auth"
	"github.com/angelmondragon/pharmacy-inventory/internal/categories"
	"github.com/angelmondragon/pharmacy-inventory/internal/products"
	"github.com/angelmondragon/pharmacy-inventory/pkg/auth/session"
	"github.com/angelmondragon/pharmacy-inventory/pkg/config"
	"github.com/angelmondragon/pharmacy-inventory/pkg/db"
	"github.com/angelmondragon/pharmacy-inventory/pkg/logger"
	"github.com/angelmondragon/pharmacy-inventory/pkg/metrics"
	"github.com/angelmondragon/pharmacy-inventory/pkg/migrate"
	"github.com/angelmondragon/pharmacy-inventory/pkg/redis"
	"github.com/angelmondragon/pharmacy-inventory/pkg/security"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.Open(ctx, cfg, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, dbClient.Close())
	}()

	if err := migrate.MaybeRun(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	readiness := []controllers.ReadinessCheck{{Name: "database", Check: dbClient.Ping}}

	var (
		sessionStore session.Store
		idempotency  redis.IdempotencyStore
	)
	if redis.Configured(cfg.Redis) {
		var redisClient *redis.Client
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return err
		}
		defer func() {
			err = multierr.Append(err, redisClient.Close())
		}()
		sessionStore = redisClient
		idempotency = redisClient
		readiness = append(readiness, controllers.ReadinessCheck{Name: "redis", Check: redisClient.Ping})
	} else {
		logg.Warn(ctx, "redis not configured, sessions are kept in process memory")
		sessionStore = session.NewMemoryStore()
	}

	sessions, err := session.NewManager(sessionStore, cfg.Session)
	if err != nil {
		return err
	}

	hasher, err := security.NewHasher(cfg.Password)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	domainMetrics := metrics.NewDomainMetrics(registry)

	accountService, err := accounts.NewService(accounts.ServiceParams{
		DB:      dbClient,
		Hasher:  hasher,
		Metrics: domainMetrics,
	})
	if err != nil {
		return err
	}

	authService, err := auth.NewService(auth.ServiceParams{
		Accounts:  accountService,
		Passwords: hasher,
		Sessions:  sessions,
		JWTConfig: cfg.JWT,
		Metrics:   domainMetrics,
	})
	if err != nil {
		return err
	}

	productService, err := products.NewService(dbClient)
	if err != nil {
		return err
	}
	categoryService, err := categories.NewService(dbClient)
	if err != nil {
		return err
	}

	view, err := views.New(logg)
	if err != nil {
		return err
	}

	handler := routes.NewRouter(routes.Dependencies{
		Config:      cfg,
		Logger:      logg,
		Views:       view,
		Auth:        authService,
		Accounts:    accountService,
		Products:    productService,
		Categories:  categoryService,
		Idempotency: idempotency,
		HTTPMetrics: metrics.NewHTTPMetrics(registry),
		Gatherer:    registry,
		Readiness:   readiness,
		Version:     version,
	})

	addr := ":" + cfg.App.Port
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logCtx := logg.WithFields(ctx, map[string]any{
		"env":     cfg.App.Env,
		"addr":    addr,
		"version": version,
	})

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logg.Info(logCtx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logg.Info(logCtx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return group.Wait()
}
