package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/uwcourse/course-watch/config"
	"github.com/uwcourse/course-watch/internal/application/term"
	"github.com/uwcourse/course-watch/internal/infrastructure/external/uwaterloo"
	"github.com/uwcourse/course-watch/internal/infrastructure/persistence/coursestore"
	"github.com/uwcourse/course-watch/internal/infrastructure/persistence/postgres"
	"github.com/uwcourse/course-watch/internal/infrastructure/persistence/redis"
)

// ══════════════════════════════════════════════════════════════════════════════
// SHARED WIRING
// The pieces every subcommand needs: the course store, the UW client and the
// term resolver, plus the optional Postgres and Redis connections behind them.
// ══════════════════════════════════════════════════════════════════════════════

type app struct {
	cfg    *config.Config
	logger *slog.Logger

	db    *postgres.Connection
	cache *redis.Cache

	store *coursestore.Store
	uw    *uwaterloo.Client
	terms *term.Resolver
}

func newApp(ctx context.Context, cfg *config.Config, log *slog.Logger) (_ *app, err error) {
	a := &app{cfg: cfg, logger: log}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// Course store
	// ─────────────────────────────────────────────────────────────────────────
	var backend coursestore.Backend
	switch cfg.Store.Backend {
	case config.BackendPostgres:
		a.db, err = openPostgres(ctx, cfg)
		if err != nil {
			return nil, err
		}
		applied, err := postgres.NewMigrator(a.db).Migrate(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("database ready", "migrations_applied", applied)
		backend = postgres.NewDocumentRepository(a.db)
	case config.BackendMemory:
		log.Warn("using the in-memory course store, tracked courses are lost on exit")
		backend = coursestore.NewMemoryBackend()
	default:
		backend = coursestore.NewFileBackend(cfg.Store.DataPath)
	}

	a.store = coursestore.New(backend, coursestore.Config{Logger: log})
	if err := a.store.Init(ctx); err != nil {
		return nil, fmt.Errorf("failed to open course store: %w", err)
	}
	log.Info("course store ready", "backend", backend.Name())

	// ─────────────────────────────────────────────────────────────────────────
	// Redis (optional term cache backing)
	// ─────────────────────────────────────────────────────────────────────────
	var backing term.Backing
	if cfg.Redis.Enabled {
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB

		a.cache, err = redis.NewCache(ctx, redisCfg)
		if err != nil {
			log.Warn("failed to connect to Redis, term caching stays in memory", "error", err)
			a.cache, err = nil, nil
		} else {
			backing = redis.NewTermBacking(a.cache)
			log.Info("redis connection established", "addr", redisCfg.Addr())
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// UW OpenAPI and term resolver
	// ─────────────────────────────────────────────────────────────────────────
	uwCfg := uwaterloo.DefaultClientConfig(cfg.UWaterloo.APIKey)
	uwCfg.BaseURL = cfg.UWaterloo.BaseURL
	uwCfg.Timeout = cfg.UWaterloo.Timeout
	uwCfg.RequestsPerSecond = cfg.UWaterloo.RequestsPerSecond
	uwCfg.Logger = log
	a.uw = uwaterloo.NewClient(uwCfg)

	a.terms = term.NewResolver(a.uw, term.Config{
		TermsTTL:      cfg.Terms.TTL,
		CurrentTTL:    cfg.Terms.CurrentTTL,
		RolloverAfter: cfg.Terms.Rollover,
		Backing:       backing,
		Logger:        log,
	})

	return a, nil
}

func openPostgres(ctx context.Context, cfg *config.Config) (*postgres.Connection, error) {
	pgCfg := postgres.DefaultConfig()
	pgCfg.URL = cfg.Database.URL
	pgCfg.MaxConns = int32(cfg.Database.MaxConns)

	conn, err := postgres.NewConnection(ctx, pgCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return conn, nil
}

// Close releases the optional connections.
func (a *app) Close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Warn("failed to close redis", "error", err)
		}
	}
	if a.db != nil {
		a.db.Close()
	}
}
