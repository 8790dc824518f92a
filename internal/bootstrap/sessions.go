package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/target/hr-dashboard/config"
	"github.com/target/hr-dashboard/internal/adapters/memory"
	"github.com/target/hr-dashboard/internal/adapters/postgres"
	redisstore "github.com/target/hr-dashboard/internal/adapters/redis"
	"github.com/target/hr-dashboard/internal/ports"
)

// Infrastructure holds the connections backing session storage. Only the
// connection for the configured backend is opened.
type Infrastructure struct {
	DB    *sql.DB
	Redis redis.UniversalClient

	Sessions ports.SessionStore
	// Purger is set only for stores without native expiry.
	Purger ports.SessionPurger
}

// Close releases whichever connections were opened.
func (i *Infrastructure) Close() error {
	if i == nil {
		return nil
	}
	var errs []error
	if i.Redis != nil {
		if err := i.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if i.DB != nil {
		if err := i.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	return errors.Join(errs...)
}

// ConnectSessions opens the configured session backend and runs migrations
// for Postgres when enabled.
func ConnectSessions(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (*Infrastructure, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	infra := &Infrastructure{}

	switch cfg.Session.Backend {
	case config.SessionBackendPostgres:
		db, err := ConnectDB(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, fmt.Errorf("connect db: %w", err)
		}
		infra.DB = db
		if cfg.Postgres.RunMigrationsOnStart {
			if err := RunMigrations(ctx, db, logger); err != nil {
				return nil, errors.Join(err, infra.Close())
			}
		} else if logger != nil {
			logger.InfoContext(ctx, "skipping database migrations on startup", "reason", "disabled via config")
		}
		store := postgres.NewSessionStore(db, cfg.Session.TTL)
		infra.Sessions = store
		infra.Purger = store

	case config.SessionBackendMemory:
		if logger != nil {
			logger.WarnContext(ctx, "using in-memory sessions; sessions are lost on restart and not shared between replicas")
		}
		infra.Sessions = memory.NewSessionStore(cfg.Session.TTL)

	default:
		client, err := ConnectRedis(ctx, cfg.Redis, logger)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		infra.Redis = client
		infra.Sessions = redisstore.NewSessionStoreWithPrefix(client, cfg.Session.KeyPrefix, cfg.Session.TTL)
	}

	if logger != nil {
		logger.InfoContext(ctx, "session store ready", "backend", cfg.Session.Backend)
	}
	return infra, nil
}
