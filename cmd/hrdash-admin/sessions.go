package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/target/hr-dashboard/config"
	"github.com/target/hr-dashboard/internal/adapters/postgres"
	redisstore "github.com/target/hr-dashboard/internal/adapters/redis"
	"github.com/target/hr-dashboard/internal/bootstrap"
)

const defaultSessionTimeout = 30 * time.Second

type sessionOptions struct {
	Timeout time.Duration
	ID      string
}

func parseSessionFlags(name string, args []string, wantID bool) (sessionOptions, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := sessionOptions{}
	fs.DurationVar(&opts.Timeout, "timeout", defaultSessionTimeout, "Maximum duration to wait for the backend")
	if wantID {
		fs.StringVar(&opts.ID, "id", "", "Session id (the value of the session cookie)")
	}

	if err := fs.Parse(args); err != nil {
		return sessionOptions{}, err
	}
	if opts.Timeout <= 0 {
		return sessionOptions{}, errors.New("--timeout must be greater than zero")
	}
	if wantID {
		if opts.ID == "" && fs.NArg() > 0 {
			opts.ID = fs.Arg(0)
		}
		opts.ID = strings.TrimSpace(opts.ID)
		if opts.ID == "" {
			return sessionOptions{}, errors.New("a session id is required (--id or first argument)")
		}
	}
	return opts, nil
}

func runSessionsCount(cmdCtx *commandContext, args []string) error {
	opts, err := parseSessionFlags("sessions-count", args, false)
	if err != nil {
		return err
	}
	cfg := cmdCtx.Config

	switch cfg.Session.Backend {
	case config.SessionBackendPostgres:
		return withDatabase(cmdCtx, opts.Timeout, func(ctx context.Context, db *sql.DB) error {
			active, expired, err := postgres.NewSessionStore(db, cfg.Session.TTL).Count(ctx)
			if err != nil {
				return err
			}
			return writef(cmdCtx.Out, "backend: postgres\nactive:  %d\nexpired: %d (removed by sessions-purge or the reaper)\n", active, expired)
		})
	case config.SessionBackendRedis:
		ctx, cancel := commandDeadline(cmdCtx, opts.Timeout)
		defer cancel()
		client, err := bootstrap.ConnectRedis(ctx, cfg.Redis, cmdCtx.Logger)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer func() {
			if cerr := client.Close(); cerr != nil {
				cmdCtx.Logger.Warn("redis close failed", "error", cerr)
			}
		}()
		n, err := redisstore.NewSessionStoreWithPrefix(client, cfg.Session.KeyPrefix, cfg.Session.TTL).Count(ctx)
		if err != nil {
			return err
		}
		return writef(cmdCtx.Out, "backend: redis\nactive:  %d\n", n)
	default:
		return fmt.Errorf("%s sessions live inside the server process and cannot be inspected", cfg.Session.Backend)
	}
}

func runSessionsPurge(cmdCtx *commandContext, args []string) error {
	opts, err := parseSessionFlags("sessions-purge", args, false)
	if err != nil {
		return err
	}
	if err := requirePostgres(cmdCtx.Config, "sessions-purge"); err != nil {
		return err
	}
	return withDatabase(cmdCtx, opts.Timeout, func(ctx context.Context, db *sql.DB) error {
		n, err := postgres.NewSessionStore(db, cmdCtx.Config.Session.TTL).PurgeExpired(ctx)
		if err != nil {
			return err
		}
		return writef(cmdCtx.Out, "purged %d expired session(s)\n", n)
	})
}

func runSessionsRevoke(cmdCtx *commandContext, args []string) error {
	opts, err := parseSessionFlags("sessions-revoke", args, true)
	if err != nil {
		return err
	}
	cfg := cmdCtx.Config
	if cfg.Session.Backend == config.SessionBackendMemory {
		return errors.New("memory sessions live inside the server process; restart it to sign everyone out")
	}
	cfg.Postgres.RunMigrationsOnStart = false

	ctx, cancel := commandDeadline(cmdCtx, opts.Timeout)
	defer cancel()

	infra, err := bootstrap.ConnectSessions(ctx, &cfg, cmdCtx.Logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := infra.Close(); cerr != nil {
			cmdCtx.Logger.Warn("close session backend failed", "error", cerr)
		}
	}()

	if err := infra.Sessions.Clear(ctx, opts.ID); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return writef(cmdCtx.Out, "revoked session %s\n", opts.ID)
}

func commandDeadline(cmdCtx *commandContext, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(cmdCtx.Ctx, os.Interrupt, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}
