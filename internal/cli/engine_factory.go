package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/switchboard"
	"github.com/aretw0/switchboard/internal/adapters/file"
	"github.com/aretw0/switchboard/internal/config"
	"github.com/aretw0/switchboard/internal/logging"
	"github.com/aretw0/switchboard/internal/travel"
	"github.com/aretw0/switchboard/pkg/adapters/memory"
	"github.com/aretw0/switchboard/pkg/adapters/openai"
	"github.com/aretw0/switchboard/pkg/adapters/redis"
	"github.com/aretw0/switchboard/pkg/catalog"
	"github.com/aretw0/switchboard/pkg/observability"
	"github.com/aretw0/switchboard/pkg/persistence/middleware"
	"github.com/aretw0/switchboard/pkg/ports"
	"github.com/aretw0/switchboard/pkg/registry"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// App bundles everything a command needs: the engine and the resources it holds.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Engine  *switchboard.Engine
	Metrics *prometheus.Registry

	closers []func() error
}

// BuildOption customizes Build, mostly for tests.
type BuildOption func(*buildOptions)

type buildOptions struct {
	reasoner  ports.Reasoner
	logOutput io.Writer
}

// WithReasoner replaces the OpenAI reasoner.
func WithReasoner(r ports.Reasoner) BuildOption {
	return func(o *buildOptions) {
		o.reasoner = r
	}
}

// WithLogOutput redirects logs (Stderr by default).
func WithLogOutput(w io.Writer) BuildOption {
	return func(o *buildOptions) {
		o.logOutput = w
	}
}

// Build wires the engine described by cfg.
func Build(ctx context.Context, cfg *config.Config, opts ...BuildOption) (_ *App, err error) {
	var bo buildOptions
	for _, opt := range opts {
		opt(&bo)
	}

	logger, err := createLogger(cfg.Log, bo.logOutput)
	if err != nil {
		return nil, err
	}

	app := &App{Config: cfg, Logger: logger, Metrics: prometheus.NewRegistry()}
	defer func() {
		if err != nil {
			_ = app.Close()
		}
	}()

	db, err := openTravelDB(ctx, cfg.DB.Path, logger)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, db.Close)

	reg := registry.New(
		registry.WithConcurrency(cfg.ToolConcurrency),
		registry.WithLogger(logger.With("component", "registry")),
	)
	if err := travel.NewService(db, travel.WithLogger(logger)).Register(reg); err != nil {
		return nil, err
	}

	reasoner := bo.reasoner
	if reasoner == nil {
		reasoner, err = openai.New(cfg.LLM, openai.WithLogger(logger.With("component", "llm")))
		if err != nil {
			return nil, fmt.Errorf("%w (set OPENAI_API_KEY or llm.base_url)", err)
		}
	}

	store, locker, closeStore, err := createStore(cfg)
	if err != nil {
		return nil, err
	}
	if closeStore != nil {
		app.closers = append(app.closers, closeStore)
	}

	app.Metrics.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := observability.NewMetrics(app.Metrics)
	if err != nil {
		return nil, err
	}

	engineOpts := []switchboard.Option{
		switchboard.WithLogger(logger),
		switchboard.WithReasoner(reasoner),
		switchboard.WithRegistry(reg),
		switchboard.WithStore(store),
		switchboard.WithLifecycleHooks(observability.Combine(metrics.Hooks(), observability.LogHooks(logger))),
		switchboard.WithMaxSteps(cfg.MaxSteps),
		switchboard.WithMaxAttempts(cfg.MaxAttempts),
		switchboard.WithFallbackReply(cfg.FallbackReply),
		switchboard.WithTurnTimeout(cfg.TurnTimeout),
		switchboard.WithDefaultUserID(cfg.UserID),
	}
	if locker != nil {
		engineOpts = append(engineOpts, switchboard.WithLocker(locker), switchboard.WithLockTTL(cfg.Redis.LockTTL))
	}
	if cfg.ControllersDir == "" {
		engineOpts = append(engineOpts, switchboard.WithDescriptorSource(catalog.Source()))
	}

	app.Engine, err = switchboard.New(ctx, cfg.ControllersDir, engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	logger.Debug("engine ready", "primary", app.Engine.Primary(), "store", cfg.Store.Driver, "tools", len(reg.Names()))
	return app, nil
}

// Close releases the database and store connections.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Logger builds the Stderr logger described by cfg.Log.
func Logger(cfg *config.Config) (*slog.Logger, error) {
	return createLogger(cfg.Log, nil)
}

func createLogger(cfg config.LogConfig, w io.Writer) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	return logging.New(w, level, logging.Format(cfg.Format)), nil
}

// createStore picks the session backend and wraps it with the PII and
// encryption middleware. Only the redis driver comes with a distributed locker.
func createStore(cfg *config.Config) (ports.StateStore, ports.DistributedLocker, func() error, error) {
	var (
		base      ports.StateStore
		locker    ports.DistributedLocker
		closeFunc func() error
	)
	switch cfg.Store.Driver {
	case config.DriverFile:
		base = file.New(cfg.Store.Dir)
	case config.DriverRedis:
		rs := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, redis.WithTTL(cfg.Store.TTL))
		base = rs
		locker = redis.NewLocker(rs.Client(), redis.DefaultPrefix)
		closeFunc = rs.Close
	default:
		base = memory.NewStore()
	}

	var mws []middleware.Middleware
	if len(cfg.PII.Patterns) > 0 {
		pii, err := middleware.NewPIIMiddleware(cfg.PII.Patterns)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("pii.patterns: %w", err)
		}
		mws = append(mws, pii)
	}
	active, fallbacks, err := cfg.Encryption.Keys()
	if err != nil {
		return nil, nil, nil, err
	}
	if active != nil {
		enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: active, FallbackKeys: fallbacks})
		if err != nil {
			return nil, nil, nil, err
		}
		mws = append(mws, enc)
	}
	return middleware.Chain(base, mws...), locker, closeFunc, nil
}

// openTravelDB opens the travel database and seeds it when it has no flights yet.
func openTravelDB(ctx context.Context, path string, logger *slog.Logger) (*sqlx.DB, error) {
	db, err := travel.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	var flights int
	if err := db.GetContext(ctx, &flights, "SELECT COUNT(*) FROM flights"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("inspect travel database: %w", err)
	}
	if flights == 0 {
		logger.Info("seeding travel database", "path", path)
		if err := travel.Seed(ctx, db, time.Now()); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return db, nil
}
