package main

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/target/hr-dashboard/config"
	"github.com/target/hr-dashboard/internal/bootstrap"
	"github.com/target/hr-dashboard/internal/migrate"
)

const defaultMigrationTimeout = 5 * time.Minute

type migrateOptions struct {
	Timeout time.Duration
}

type dbResetOptions struct {
	Timeout     time.Duration
	AllowRemote bool
}

func runMigrations(cmdCtx *commandContext, args []string) error {
	opts, err := parseMigrateFlags("migrate", args)
	if err != nil {
		return err
	}
	return withDatabase(cmdCtx, opts.Timeout, func(ctx context.Context, db *sql.DB) error {
		cmdCtx.Logger.InfoContext(ctx, "running database migrations")
		return bootstrap.RunMigrations(ctx, db, cmdCtx.Logger)
	})
}

func runMigrateStatus(cmdCtx *commandContext, args []string) error {
	opts, err := parseMigrateFlags("migrate-status", args)
	if err != nil {
		return err
	}
	return withDatabase(cmdCtx, opts.Timeout, func(ctx context.Context, db *sql.DB) error {
		applied, err := appliedMigrations(ctx, db)
		if err != nil {
			return err
		}
		versions, err := migrate.Versions()
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmdCtx.Out, 0, 4, 2, ' ', 0)
		if err := writef(tw, "VERSION\tAPPLIED AT\n"); err != nil {
			return err
		}
		for _, v := range versions {
			at := "pending"
			if ts, ok := applied[v]; ok {
				at = ts.UTC().Format(time.RFC3339)
			}
			if err := writef(tw, "%s\t%s\n", v, at); err != nil {
				return err
			}
		}
		return tw.Flush()
	})
}

func appliedMigrations(ctx context.Context, db *sql.DB) (map[string]time.Time, error) {
	out := map[string]time.Time{}
	var exists bool
	if err := db.QueryRowContext(ctx,
		`SELECT to_regclass('hrdash_schema_migrations') IS NOT NULL`).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check migrations table: %w", err)
	}
	if !exists {
		return out, nil
	}
	rows, err := db.QueryContext(ctx, `SELECT version, applied_at FROM hrdash_schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("list applied migrations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			v  string
			at time.Time
		)
		if err := rows.Scan(&v, &at); err != nil {
			return nil, fmt.Errorf("scan migration row: %w", err)
		}
		out[v] = at
	}
	return out, rows.Err()
}

func runDBReset(cmdCtx *commandContext, args []string) error {
	opts, err := parseDBResetFlags(args)
	if err != nil {
		return err
	}
	if _, err := guardRemoteHost(cmdCtx, opts.AllowRemote, "delete every dashboard session"); err != nil {
		return err
	}
	return withDatabase(cmdCtx, opts.Timeout, func(ctx context.Context, db *sql.DB) error {
		for _, stmt := range []string{
			"DROP TABLE IF EXISTS dashboard_sessions",
			"DROP TABLE IF EXISTS hrdash_schema_migrations",
		} {
			cmdCtx.Logger.DebugContext(ctx, "executing reset statement", "sql", stmt)
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("exec %q: %w", stmt, err)
			}
		}
		return bootstrap.RunMigrations(ctx, db, cmdCtx.Logger)
	})
}

func parseMigrateFlags(name string, args []string) (migrateOptions, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := migrateOptions{}
	fs.DurationVar(&opts.Timeout, "timeout", defaultMigrationTimeout,
		"Maximum duration to wait for the command to complete")

	if err := fs.Parse(args); err != nil {
		return migrateOptions{}, err
	}
	if opts.Timeout <= 0 {
		return migrateOptions{}, errors.New("--timeout must be greater than zero")
	}
	return opts, nil
}

func parseDBResetFlags(args []string) (dbResetOptions, error) {
	fs := flag.NewFlagSet("db-reset", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := dbResetOptions{}
	fs.DurationVar(&opts.Timeout, "timeout", defaultMigrationTimeout,
		"Maximum duration to wait for the reset to complete")
	fs.BoolVar(&opts.AllowRemote, "allow-remote", false,
		"Allow resetting a database that does not look local (prompts for confirmation)")

	if err := fs.Parse(args); err != nil {
		return dbResetOptions{}, err
	}
	if opts.Timeout <= 0 {
		return dbResetOptions{}, errors.New("--timeout must be greater than zero")
	}
	return opts, nil
}

func withDatabase(
	cmdCtx *commandContext,
	timeout time.Duration,
	f func(context.Context, *sql.DB) error,
) error {
	ctx, stop := signal.NotifyContext(cmdCtx.Ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	db, err := bootstrap.ConnectDB(ctx, cmdCtx.Config.Postgres, cmdCtx.Logger)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			cmdCtx.Logger.Warn("db close failed", "error", cerr)
		}
	}()

	return f(ctx, db)
}

func guardRemoteHost(cmdCtx *commandContext, allow bool, action string) (bool, error) {
	host := cmdCtx.Config.Postgres.Host
	if !isLikelyRemoteHost(host) {
		return false, nil
	}
	if !allow {
		return true, fmt.Errorf(
			"refusing to run against potentially remote database host %q; re-run with --allow-remote if this is intentional",
			host,
		)
	}
	return true, requireRemoteHostConfirmation(action, host)
}

func isLikelyRemoteHost(host string) bool {
	h := strings.ToLower(strings.TrimSpace(host))
	if h == "" || h == "localhost" || strings.HasSuffix(h, ".local") {
		return false
	}
	if ip := net.ParseIP(h); ip != nil {
		return !ip.IsLoopback()
	}
	return true
}

func requireRemoteHostConfirmation(action, host string) error {
	if err := writef(os.Stderr,
		"\nWARNING: database host %q does not look like a local address.\nThis operation will %s.\n",
		host, action,
	); err != nil {
		return fmt.Errorf("print remote host warning: %w", err)
	}
	if err := writef(os.Stderr, "Type %q to continue or press enter to abort: ", host); err != nil {
		return fmt.Errorf("print remote host prompt: %w", err)
	}
	resp, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil || strings.TrimSpace(resp) != host {
		if writeErr := writeln(os.Stderr, "\nRemote safeguard check failed; aborting."); writeErr != nil {
			return fmt.Errorf("print remote safeguard failure: %w", writeErr)
		}
		return errors.New("aborted by user")
	}
	return nil
}

func requirePostgres(cfg config.AppConfig, name string) error {
	if cfg.Session.Backend != config.SessionBackendPostgres {
		return fmt.Errorf("%s needs SESSION_BACKEND=postgres (configured: %s)", name, cfg.Session.Backend)
	}
	return nil
}
