// Package app assembles the gate, its store and the REST client from
// process configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/lborres/assessgate"
	fiberadapter "github.com/lborres/assessgate/adapters/fiber"
	"github.com/lborres/assessgate/adapters/file"
	"github.com/lborres/assessgate/adapters/memory"
	pgxadapter "github.com/lborres/assessgate/adapters/pgx"
	redisadapter "github.com/lborres/assessgate/adapters/redis"
	"github.com/lborres/assessgate/adapters/rest"
	"github.com/lborres/assessgate/adapters/sqlite"
	"github.com/lborres/assessgate/core"
	"github.com/lborres/assessgate/internal/config"
)

// App owns everything built from a Config. Close releases the store.
type App struct {
	Config   *config.Config
	Logger   logrus.FieldLogger
	Client   *rest.Client
	Gate     *assessgate.Gate
	Registry *prometheus.Registry

	closers []func() error
}

// New builds the app without hydrating the session; call Gate.Start for that.
func New(ctx context.Context, cfg *config.Config, logger logrus.FieldLogger) (*App, error) {
	entries, closeEntries, err := OpenEntries(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:   cfg,
		Logger:   logger,
		Registry: prometheus.NewRegistry(),
	}
	if closeEntries != nil {
		a.closers = append(a.closers, closeEntries)
	}

	client, err := rest.New(cfg.API.BaseURL, rest.Options{
		Timeout: cfg.API.Timeout,
		Logger:  logger,
	})
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Client = client

	gate, err := assessgate.New(assessgate.Config{
		Entries:       entries,
		Secret:        cfg.Store.Secret,
		Authenticator: client,
		Authorizer:    client.Authorizer(),
		Logger:        logger,
		Registerer:    a.Registry,
	})
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Gate = gate

	logger.WithFields(logrus.Fields{
		"store":  cfg.Store.Driver,
		"api":    client.BaseURL(),
		"sealed": cfg.Store.Secret != "",
	}).Debug("gate assembled")

	return a, nil
}

// OpenEntries connects the configured entry store. The returned close
// function may be nil.
func OpenEntries(ctx context.Context, cfg config.StoreConfig) (core.EntryStore, func() error, error) {
	switch cfg.Driver {
	case config.DriverFile:
		s, err := file.New(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, nil, nil

	case config.DriverSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o700); err != nil {
			return nil, nil, fmt.Errorf("mkdir sqlite dir: %w", err)
		}
		s, err := sqlite.Open(ctx, cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil

	case config.DriverPostgres:
		pool, err := pgxpool.New(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("pgxpool.New: %w", err)
		}
		s := pgxadapter.New(pool)
		if cfg.Table != "" {
			if s, err = s.WithTable(cfg.Table); err != nil {
				pool.Close()
				return nil, nil, err
			}
		}
		if err := s.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return s, func() error { pool.Close(); return nil }, nil

	case config.DriverRedis:
		opts, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("parse redis url: %w", err)
		}
		client := redis.NewClient(opts)
		s := redisadapter.New(client, redisadapter.Options{Prefix: cfg.Prefix, TTL: cfg.TTL})
		if err := s.Ping(ctx); err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		return s, client.Close, nil

	case config.DriverMemory:
		return memory.New(), nil, nil

	default:
		return nil, nil, fmt.Errorf("%w: %s", core.ErrUnknownStoreDriver, cfg.Driver)
	}
}

// Console mounts the operator console on app, backed by the REST client.
func (a *App) Console(app *fiber.App) (*fiberadapter.Adapter, error) {
	var gatherer prometheus.Gatherer
	if a.Config.Console.Metrics {
		gatherer = a.Registry
	}

	console, err := fiberadapter.New(app, fiberadapter.Config{
		Session:        a.Gate.Session,
		Guard:          a.Gate.Guard,
		Navigator:      a.Gate.Navigator,
		Routes:         a.Gate.Routes.Routes(),
		Backend:        a.Client,
		Gatherer:       gatherer,
		LoginTimeout:   a.Config.Console.LoginTimeout,
		RequestTimeout: a.Config.Console.RequestTimeout,
		Logger:         a.Logger,
	})
	if err != nil {
		return nil, err
	}
	if err := console.RegisterRoutes(); err != nil {
		return nil, err
	}
	return console, nil
}

func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
