package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"fundwatch-hq/fundwatch/pkg/api"
	"fundwatch-hq/fundwatch/pkg/api/middleware"
	"fundwatch-hq/fundwatch/pkg/cache"
	"fundwatch-hq/fundwatch/pkg/config"
	"fundwatch-hq/fundwatch/pkg/gate"
	"fundwatch-hq/fundwatch/pkg/holdings"
	"fundwatch-hq/fundwatch/pkg/limits/ratelimit"
	"fundwatch-hq/fundwatch/pkg/snapshot"
	"fundwatch-hq/fundwatch/pkg/telemetry/health"
	"fundwatch-hq/fundwatch/pkg/telemetry/metrics"
	"fundwatch-hq/fundwatch/pkg/telemetry/tracing"
)

// BuildInfo identifies the running binary on /version and in traces.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// App is a fully wired fundwatch process.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	tracer  *tracing.Tracer
	metrics *metrics.Collector

	repo      *holdings.Repository
	limiter   *ratelimit.Limiter
	backend   *ratelimit.Limiter
	memory    *cache.Memory[holdings.Payload]
	redis     *redis.Client
	remote    *cache.RedisTier
	snapshots *Snapshots
	watcher   *snapshot.Watcher
	scheduler *snapshot.Scheduler
	gate      *gate.Gate[holdings.Payload]
	checker   *health.Checker

	handler http.Handler
	server  *Server

	closers []func() error
}

// New builds every component described by cfg. The returned App owns the
// database, snapshot store and Redis connections; call Close when done.
func New(ctx context.Context, cfg *config.Config, info BuildInfo, logger *slog.Logger) (_ *App, err error) {
	if logger == nil {
		logger = slog.Default()
	}

	a := &App{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	a.tracer, err = tracing.New(ctx, &cfg.Telemetry.Tracing, info.Version)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.closers = append(a.closers, func() error {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.tracer.Shutdown(shutdownCtx)
	})
	if a.tracer.Enabled() {
		logger.Info("tracing enabled",
			"exporter", cfg.Telemetry.Tracing.Exporter,
			"sampler", cfg.Telemetry.Tracing.Sampler,
		)
	}

	a.metrics = metrics.NewCollector(&cfg.Telemetry.Metrics, nil)

	a.repo, err = OpenHoldings(&cfg.Database)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, a.repo.Close)

	if err := a.buildLimiters(); err != nil {
		return nil, err
	}

	responses, err := a.buildCache(ctx)
	if err != nil {
		return nil, err
	}

	if err := a.buildSnapshots(); err != nil {
		return nil, err
	}

	gateCfg := gate.Config[holdings.Payload]{
		DefaultTTL:  cfg.Cache.DefaultTTL,
		DegradedTTL: cfg.Cache.DegradedTTL,
		Static: snapshot.NewTyped[holdings.Payload](a.snapshots.Store, logger).
			WithValidator(holdings.Payload.Valid),
		MaxInFlight: cfg.Limits.Backend.MaxInFlight,
		Degrade: func(p holdings.Payload, level gate.ServiceLevel) holdings.Payload {
			return p.Truncate(level.ItemCap())
		},
		Logger:   logger,
		Observer: a.metrics.Gate(),
	}
	if a.backend != nil {
		gateCfg.Backend = a.backend
	}
	if cfg.Cache.SingleFlight {
		gateCfg.Loader = &cache.Loader[holdings.Payload]{}
	}

	var clientLimiter gate.Limiter
	if a.limiter != nil {
		clientLimiter = a.limiter
	}
	a.gate = gate.New[holdings.Payload](clientLimiter, responses, gateCfg)

	apiCfg := api.Config{
		Gate:       a.gate,
		Source:     a.repo,
		Limiter:    clientLimiter,
		Snapshots:  a.snapshots.Store,
		StaticPath: cfg.Server.StaticPath,
		CacheStats: a.cacheStats,
		Clients:    middleware.NewClientResolver(&cfg.Server),
		Logger:     logger,
	}
	if a.backend != nil {
		apiCfg.Backend = a.backend
	}
	routes, err := api.New(apiCfg)
	if err != nil {
		return nil, err
	}

	a.checker = health.New(cfg.Telemetry.Health.CheckTimeout)
	a.checker.RegisterCheck("snapshots", health.SnapshotCheck(a.snapshots.Count))
	a.checker.RegisterOptionalCheck("database", health.PingCheck(a.repo))
	if a.remote != nil {
		a.checker.RegisterOptionalCheck("redis", health.PingCheck(a.remote))
	}
	if cfg.Snapshot.Schedule != "" {
		a.checker.RegisterOptionalCheck("generation", health.GenerationCheck(a.scheduler.LastRun, 0))
	}
	logger.Info("health checks registered", "checks", a.checker.ListChecks())

	a.handler = a.routes(routes, info)
	a.server = NewServer(&cfg.Server, a.handler, logger)

	return a, nil
}

func (a *App) buildLimiters() error {
	cfg := &a.cfg.Limits

	if cfg.Enabled {
		tiers := make([]ratelimit.Tier, 0, len(cfg.Tiers))
		for _, t := range cfg.Tiers {
			tiers = append(tiers, ratelimit.Tier{Name: t.Name, Window: t.Window, Max: t.Max})
		}
		l, err := ratelimit.NewLimiter(ratelimit.Config{
			Tiers:           tiers,
			Buckets:         cfg.Buckets,
			Shards:          cfg.Shards,
			CleanupInterval: cfg.CleanupInterval,
		},
			ratelimit.WithLogger(a.logger),
			ratelimit.WithObserver(a.metrics.Limiter("client")),
		)
		if err != nil {
			return fmt.Errorf("invalid rate limit tiers: %w", err)
		}
		a.limiter = l
	}

	if cfg.Backend.DailyQueries > 0 {
		l, err := ratelimit.NewLimiter(ratelimit.Config{
			Tiers: []ratelimit.Tier{
				{Name: "day", Window: 24 * time.Hour, Max: cfg.Backend.DailyQueries},
			},
			Buckets: 24 * 60,
			Shards:  1,
		},
			ratelimit.WithLogger(a.logger),
			ratelimit.WithObserver(a.metrics.Limiter("backend")),
		)
		if err != nil {
			return fmt.Errorf("invalid backend budget: %w", err)
		}
		a.backend = l
	}

	return nil
}

func (a *App) buildCache(ctx context.Context) (cache.Cache[holdings.Payload], error) {
	cfg := &a.cfg.Cache

	a.memory = cache.NewMemory[holdings.Payload](cache.MemoryConfig{
		Name:          "responses",
		MaxEntries:    cfg.MaxEntries,
		Shards:        cfg.Shards,
		SweepInterval: cfg.SweepInterval,
		Observer:      a.metrics.Cache(),
	})

	if !cfg.Redis.Enabled {
		return a.memory, nil
	}

	a.redis = redis.NewClient(&redis.Options{
		Addr:        cfg.Redis.Address,
		Password:    cfg.Redis.Password,
		DB:          cfg.Redis.DB,
		DialTimeout: cfg.Redis.DialTimeout,
	})
	a.closers = append(a.closers, a.redis.Close)

	remote, err := cache.NewRedisTier(a.redis, cache.RedisConfig{
		Prefix:       cfg.Redis.Prefix,
		DailyBudget:  cfg.Redis.DailyBudget,
		OpsPerSecond: cfg.Redis.OpsPerSecond,
	})
	if err != nil {
		return nil, err
	}
	a.remote = remote

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Redis.DialTimeout)
	defer cancel()
	if err := remote.Ping(pingCtx); err != nil {
		a.logger.Warn("redis unreachable, continuing with the in-memory cache",
			"address", cfg.Redis.Address,
			"error", err,
		)
	}

	if err := a.metrics.RegisterBudgetUsage("redis", remote.Usage); err != nil {
		return nil, fmt.Errorf("failed to register redis budget metric: %w", err)
	}

	return cache.NewTiered[holdings.Payload](a.memory, remote, cache.TieredConfig{
		RefillTTL: cfg.Redis.RefillTTL,
		Logger:    a.logger,
		Observer:  a.metrics.Cache(),
	}), nil
}

func (a *App) buildSnapshots() error {
	cfg := &a.cfg.Snapshot

	snaps, err := OpenSnapshots(cfg, a.logger)
	if err != nil {
		return err
	}
	a.snapshots = snaps
	a.closers = append(a.closers, snaps.Close)

	if snaps.Files != nil && cfg.Watch {
		a.watcher, err = snapshot.NewWatcher(snapshot.WatcherConfig{
			Dir:              snaps.Files.Dir(),
			DebounceInterval: cfg.DebounceInterval,
		}, a.logger)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, a.watcher.Stop)
	}

	a.scheduler = snapshot.NewScheduler(NewGenerator(a.repo, cfg, a.logger), snaps.Writer, cfg.Schedule)
	a.scheduler.OnRun(a.metrics.RecordSnapshotRun)
	return nil
}

// routes builds the full handler: API, health and metrics endpoints behind
// the middleware chain.
func (a *App) routes(routes *api.API, info BuildInfo) http.Handler {
	cfg := a.cfg
	mux := http.NewServeMux()

	routes.Register(mux, func(route string, h http.Handler) http.Handler {
		return a.metrics.Middleware(route, tracing.HTTPMiddleware(route, h))
	})
	health.Register(mux, a.checker, &cfg.Telemetry.Health, info.Version, info.Commit, info.BuildTime)
	if cfg.Telemetry.Metrics.Enabled {
		mux.Handle(cfg.Telemetry.Metrics.Path, a.metrics.Handler())
	}

	// Applied innermost first; Recovery ends up outermost.
	var handler http.Handler = mux
	handler = middleware.TimeoutMiddleware(cfg.Server.RequestTimeout)(handler)
	handler = middleware.CORSMiddleware(&cfg.Server.CORS)(handler)
	handler = middleware.LoggingMiddleware(a.logger)(handler)
	handler = middleware.ClientIDMiddleware(middleware.NewClientResolver(&cfg.Server))(handler)
	handler = middleware.RequestIDMiddleware(handler)
	handler = middleware.RecoveryMiddleware(a.logger)(handler)

	return handler
}

func (a *App) cacheStats() api.CacheStats {
	stats := api.CacheStats{
		Entries:    a.memory.Len(),
		MaxEntries: a.cfg.Cache.MaxEntries,
	}
	if a.remote != nil {
		used, limit := a.remote.Usage()
		stats.Remote = &api.RemoteStats{Used: used, Limit: limit}
	}
	return stats
}

// Handler returns the fully wrapped HTTP handler.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Server returns the HTTP server of the app.
func (a *App) Server() *Server {
	return a.server
}

// GenerateSnapshots regenerates the snapshot set once.
func (a *App) GenerateSnapshots(ctx context.Context) (int, error) {
	return a.scheduler.RunOnce(ctx)
}

// Run starts the background workers and serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.limiter != nil {
		a.limiter.Start(ctx)
	}
	if a.backend != nil {
		a.backend.Start(ctx)
	}
	a.memory.Start(ctx)

	if a.cfg.Snapshot.GenerateOnStart {
		if _, err := a.scheduler.RunOnce(ctx); err != nil {
			a.logger.Warn("startup snapshot generation failed, serving existing snapshots", "error", err)
		}
	}
	if err := a.scheduler.Start(ctx); err != nil {
		return err
	}

	if a.watcher != nil {
		files := a.snapshots.Files
		go func() {
			if err := a.watcher.Watch(ctx, files.Reload); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Error("snapshot watcher stopped", "error", err)
			}
		}()
	}

	return a.server.Start(ctx)
}

// Close stops the background workers and releases every resource, in
// reverse order of acquisition.
func (a *App) Close() error {
	if a.scheduler != nil {
		a.scheduler.Stop()
	}

	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
