// Package cli holds the command implementations behind cmd/parsetrail.
package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/parsetrail"
	"github.com/aretw0/parsetrail/internal/adapters/file"
	"github.com/aretw0/parsetrail/internal/config"
	"github.com/aretw0/parsetrail/internal/logging"
	"github.com/aretw0/parsetrail/internal/presentation/layout"
	"github.com/aretw0/parsetrail/pkg/adapters/memory"
	"github.com/aretw0/parsetrail/pkg/adapters/parseapi"
	"github.com/aretw0/parsetrail/pkg/adapters/redis"
	"github.com/aretw0/parsetrail/pkg/observability"
	"github.com/aretw0/parsetrail/pkg/persistence/middleware"
	"github.com/aretw0/parsetrail/pkg/ports"
)

// App is the fully wired runtime shared by the commands.
type App struct {
	Config   config.Config
	Logger   *slog.Logger
	Replayer *parsetrail.Replayer
	Metrics  *observability.Metrics

	closers []func() error
}

type appOptions struct {
	service ports.TraceService
}

// AppOption customizes NewApp.
type AppOption func(*appOptions)

// WithService replaces the HTTP parsing service client.
func WithService(svc ports.TraceService) AppOption {
	return func(o *appOptions) {
		o.service = svc
	}
}

// NewLogger builds the logger described by the log section of the config.
func NewLogger(cfg config.LogConfig) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	return logging.NewWithOptions(os.Stderr, level, logging.Format(cfg.Format)), nil
}

// NewApp opens the configured store and wires the replayer around it.
func NewApp(cfg config.Config, logger *slog.Logger, opts ...AppOption) (*App, error) {
	o := &appOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	store, locker, closer, err := OpenStore(cfg)
	if err != nil {
		return nil, err
	}

	if o.service == nil {
		o.service = parseapi.New(cfg.Service.Endpoint,
			parseapi.WithTimeout(cfg.Service.Timeout),
			parseapi.WithLogger(logger),
		)
	}

	app := &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NewMetrics(),
	}
	if closer != nil {
		app.closers = append(app.closers, closer)
	}

	replayerOpts := []parsetrail.Option{
		parsetrail.WithStore(store),
		parsetrail.WithLogger(logger),
		parsetrail.WithStartSymbol(cfg.Replay.StartSymbol),
		parsetrail.WithTimeout(cfg.Service.Timeout),
		parsetrail.WithLifecycleHooks(app.Metrics.Hooks()),
	}
	if locker != nil {
		replayerOpts = append(replayerOpts, parsetrail.WithLocker(locker))
	}
	app.Replayer = parsetrail.New(o.service, replayerOpts...)

	logger.Debug("App ready",
		"store", cfg.Store.Backend,
		"encrypted", cfg.Store.EncryptionKey != "",
		"endpoint", cfg.Service.Endpoint,
	)
	return app, nil
}

// Layout is the SVG canvas described by the replay section of the config.
func (a *App) Layout() layout.Options {
	opts := layout.DefaultOptions()
	opts.Width = float64(a.Config.Replay.Width)
	opts.Height = float64(a.Config.Replay.Height)
	return opts
}

// Close releases the store connections.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// OpenStore builds the session store for cfg, wrapped in encryption when a key is set.
// The locker is only returned for Redis with locking enabled.
func OpenStore(cfg config.Config) (ports.SessionStore, ports.DistributedLocker, func() error, error) {
	var (
		store  ports.SessionStore
		locker ports.DistributedLocker
		closer func() error
	)

	switch cfg.Store.Backend {
	case config.BackendMemory, "":
		store = memory.NewStore(memory.WithCapacity(cfg.Store.MaxSessions))
	case config.BackendFile:
		store = file.New(cfg.Store.Dir)
	case config.BackendRedis:
		redisOpts := []redis.Option{redis.WithTTL(cfg.Redis.TTL)}
		if cfg.Redis.Prefix != "" {
			redisOpts = append(redisOpts, redis.WithPrefix(cfg.Redis.Prefix))
		}
		rs := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, redisOpts...)
		store = rs
		closer = rs.Close
		if cfg.Redis.Lock {
			locker = redis.NewLocker(rs.Client(), rs.Prefix())
		}
	default:
		return nil, nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}

	key, err := cfg.Store.Key()
	if err != nil {
		if closer != nil {
			_ = closer()
		}
		return nil, nil, nil, err
	}
	if key != nil {
		enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
		if err != nil {
			if closer != nil {
				_ = closer()
			}
			return nil, nil, nil, fmt.Errorf("encryption: %w", err)
		}
		store = middleware.Chain(store, enc)
	}

	return store, locker, closer, nil
}
