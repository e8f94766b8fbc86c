package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sony/gobreaker"

	"github.com/josh-kwaku/overdraft-ledger/internal/config"
	"github.com/josh-kwaku/overdraft-ledger/internal/handler"
	"github.com/josh-kwaku/overdraft-ledger/internal/logging"
	"github.com/josh-kwaku/overdraft-ledger/internal/metrics"
	"github.com/josh-kwaku/overdraft-ledger/internal/middleware"
	"github.com/josh-kwaku/overdraft-ledger/internal/repository"
	"github.com/josh-kwaku/overdraft-ledger/internal/seed"
	"github.com/josh-kwaku/overdraft-ledger/internal/service"
	"github.com/josh-kwaku/overdraft-ledger/internal/store"
	"github.com/josh-kwaku/overdraft-ledger/migrations"
)

const (
	serviceName   = "overdraft-ledger"
	version       = "1.0.0"
	purgeInterval = 10 * time.Minute
)

type idempotencyCache interface {
	Get(ctx context.Context, key, scope string) (*repository.IdempotencyCacheEntry, error)
	Set(ctx context.Context, entry *repository.IdempotencyCacheEntry) error
	PurgeExpired(ctx context.Context) (int64, error)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init(serviceName, cfg.LogLevel, cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New("ledger")
	if err := m.Register(reg); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	st, cache, closeStore, err := buildStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	if cfg.BreakerEnabled {
		st = store.NewBreaker(st, store.BreakerConfig{
			Name:        cfg.StoreBackend,
			MaxFailures: cfg.BreakerMaxFailures,
			OpenTimeout: time.Duration(cfg.BreakerOpenTimeoutS) * time.Second,
			OnStateChange: func(name string, from, to gobreaker.State) {
				slog.Warn("store breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
				m.RecordBreakerState(name, breakerStateValue(to))
			},
		})
	}

	if err := seedAccounts(ctx, cfg, st); err != nil {
		return err
	}

	svc := service.NewAccountService(st, m, cfg.StatementSize)
	router := newRouter(routerDeps{
		accounts:    handler.NewAccountHandler(svc),
		health:      handler.NewHealthHandler(svc, version),
		idempotency: middleware.Idempotency(cache, time.Duration(cfg.IdempotencyTTLS)*time.Second),
		metrics:     m,
		gatherer:    reg,
	})

	go purgeIdempotencyCache(ctx, cache)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server started", "addr", addr, "store", cfg.StoreBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

func buildStore(ctx context.Context, cfg *config.Config) (store.Store, idempotencyCache, func(), error) {
	if cfg.StoreBackend == config.BackendMemory {
		return store.NewMemoryStore(), repository.NewMemoryIdempotencyCache(), func() {}, nil
	}

	db, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
		PingAttempts:     30,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	closeDB := func() {
		if err := db.Close(); err != nil {
			slog.Error("failed to close database", "error", err)
		}
	}

	if cfg.MigrateOnStart {
		if err := repository.Migrate(ctx, db, migrations.FS); err != nil {
			closeDB()
			return nil, nil, nil, fmt.Errorf("migrate database: %w", err)
		}
	}

	st := store.NewPostgresStore(db,
		repository.NewAccountRepository(db),
		repository.NewTransactionRepository(db),
	)
	return st, repository.NewIdempotencyRepository(db), closeDB, nil
}

func seedAccounts(ctx context.Context, cfg *config.Config, p seed.Provisioner) error {
	seeds := seed.Defaults()
	if cfg.SeedFile != "" {
		loaded, err := seed.Load(cfg.SeedFile)
		if err != nil {
			return fmt.Errorf("load seed file: %w", err)
		}
		seeds = loaded
	}

	created, err := seed.Apply(ctx, p, seeds)
	if err != nil {
		return fmt.Errorf("seed accounts: %w", err)
	}
	slog.Info("accounts seeded", "configured", len(seeds), "created", created)
	return nil
}

func purgeIdempotencyCache(ctx context.Context, cache idempotencyCache) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := cache.PurgeExpired(ctx)
			if err != nil {
				slog.Warn("idempotency cache purge failed", "error", err)
				continue
			}
			if n > 0 {
				slog.Debug("idempotency cache purged", "removed", n)
			}
		}
	}
}

func breakerStateValue(s gobreaker.State) int {
	switch s {
	case gobreaker.StateOpen:
		return metrics.BreakerOpen
	case gobreaker.StateHalfOpen:
		return metrics.BreakerHalfOpen
	default:
		return metrics.BreakerClosed
	}
}

