// Package app wires the deal request services for the server and the CLI.
package app

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dealhub/dealhub/internal/application/allowance"
	"github.com/dealhub/dealhub/internal/application/completion"
	"github.com/dealhub/dealhub/internal/application/handlers"
	"github.com/dealhub/dealhub/internal/application/propagation"
	"github.com/dealhub/dealhub/internal/application/reconcile"
	"github.com/dealhub/dealhub/internal/application/stats"
	"github.com/dealhub/dealhub/internal/application/transition"
	"github.com/dealhub/dealhub/internal/config"
	"github.com/dealhub/dealhub/internal/domain/dealrequest"
	"github.com/dealhub/dealhub/internal/infrastructure/memory"
	"github.com/dealhub/dealhub/internal/infrastructure/opsalert"
	"github.com/dealhub/dealhub/internal/infrastructure/postgres"
	"github.com/dealhub/dealhub/internal/infrastructure/queue"
	"github.com/dealhub/dealhub/internal/infrastructure/rediscache"
	"github.com/dealhub/dealhub/internal/infrastructure/sse"
	"github.com/dealhub/dealhub/internal/migrations"
)

// cache is the set of collaborators served by one cache backend.
type cache interface {
	dealrequest.GroupRegistry
	dealrequest.PendingCache
	dealrequest.Invalidator
	dealrequest.StatsRecorder
}

// App holds the wired services.
type App struct {
	Config     *config.Config
	Logger     zerolog.Logger
	Store      dealrequest.Store
	Deals      dealrequest.DealRepository
	Dispatcher *queue.Pool
	Engine     *transition.Engine
	Watchdog   *allowance.Watchdog
	Completion *completion.Service
	Hub        *sse.Hub

	closers []func()
}

// NewLogger builds the process logger.
func NewLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stdout).Level(lvl).With().Timestamp().Logger()
}

// New connects the configured backends and wires every service. The
// dispatcher is not started.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	var (
		media       dealrequest.MediaResolver
		ledger      dealrequest.UsageLedger
		search      dealrequest.SearchIndex
		connections dealrequest.ConnectionAuthorizer
	)
	switch cfg.StoreBackend {
	case config.BackendMemory:
		logger.Warn().Msg("using in-memory store; data is lost on exit")
		a.Store = memory.NewStore()
		a.Deals = memory.NewDeals()
		media = memory.Media{}
		ledger = memory.NewLedger(nil)
		search = memory.NewSearch()
		connections = memory.NewConnections()
	default:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		a.closers = append(a.closers, pool.Close)
		if err := postgres.RunMigrations(ctx, pool, migrationsFS(cfg)); err != nil {
			a.close()
			return nil, fmt.Errorf("migration error: %w", err)
		}
		a.Store = postgres.NewRequestStore(pool)
		a.Deals = postgres.NewDealRepository(pool)
		media = postgres.NewMediaResolver(pool)
		ledger = postgres.NewUsageLedger(pool)
		search = postgres.NewSearchIndex(pool)
		connections = postgres.NewConnections(pool)
	}

	var caches cache
	if cfg.RedisAddr != "" {
		client, err := rediscache.NewClient(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			a.close()
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		caches = rediscache.NewCache(client, cfg.RedisPrefix)
	} else {
		caches = struct {
			*memory.Groups
			*memory.Cache
		}{memory.NewGroups(), memory.NewCache()}
	}

	alerts, err := opsalert.New(cfg.OpsAlertFilter, logger)
	if err != nil {
		a.close()
		return nil, err
	}

	a.Hub = sse.NewHub()
	a.Dispatcher = queue.NewPool(queue.Options{
		Shards:      cfg.QueueShards,
		Workers:     cfg.QueueWorkers,
		MaxAttempts: cfg.QueueMaxAttempts,
		MaxBackoff:  cfg.QueueMaxBackoff,
	}, logger)

	a.Engine = transition.NewEngine(a.Store, a.Deals, a.Dispatcher, caches, logger, transition.WithMaxChain(cfg.TransitionMaxChain))
	a.Watchdog = allowance.NewWatchdog(a.Store, a.Engine, logger, allowance.WithConcurrency(cfg.AllowanceSweepConcurrency))
	a.Completion = completion.NewService(a.Store, media, ledger, a.Dispatcher, logger)

	propagator := propagation.NewPropagator(a.Store, a.Deals, a.Dispatcher, a.Hub, alerts, connections, logger)
	reconciler := reconcile.NewReconciler(a.Deals, a.Engine, propagator, caches, caches, search, a.Dispatcher, logger)
	statsSvc := stats.NewService(a.Store, caches, logger)
	handlers.NewConsumers(a.Engine, reconciler, statsSvc, caches, logger).Register(a.Dispatcher)

	return a, nil
}

// Start runs the dispatcher until ctx is cancelled or Shutdown is called.
func (a *App) Start(ctx context.Context) {
	a.Dispatcher.Start(ctx)
}

// Shutdown waits for queued work until ctx expires, then stops the
// dispatcher and releases the backends.
func (a *App) Shutdown(ctx context.Context) error {
	err := a.Dispatcher.WaitIdle(ctx)
	a.Dispatcher.Stop()
	a.Hub.Stop()
	a.close()
	if err != nil {
		return fmt.Errorf("dispatcher did not drain: %w", err)
	}
	return nil
}

func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func migrationsFS(cfg *config.Config) fs.FS {
	if cfg.MigrationsDir != "" {
		return os.DirFS(cfg.MigrationsDir)
	}
	return migrations.FS
}
