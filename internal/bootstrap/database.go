package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	// Register the pgx driver with database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"github.com/target/hr-dashboard/config"
	"github.com/target/hr-dashboard/internal/migrate"
)

const connectTimeout = 5 * time.Second

// PostgresDSN builds a pgx connection string. url.URL escapes special
// characters in credentials.
func PostgresDSN(cfg config.DBConfig) string {
	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:   "/" + cfg.Name,
	}
	q := u.Query()
	q.Set("sslmode", cfg.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// ConnectDB opens and pings the session database.
func ConnectDB(ctx context.Context, cfg config.DBConfig, logger *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("pgx", PostgresDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	if pingErr := db.PingContext(pingCtx); pingErr != nil {
		if closeErr := db.Close(); closeErr != nil {
			pingErr = errors.Join(pingErr, fmt.Errorf("close database connection: %w", closeErr))
		}
		return nil, fmt.Errorf("ping database: %w", pingErr)
	}

	if logger != nil {
		logger.InfoContext(ctx, "database connected",
			"host", cfg.Host,
			"port", cfg.Port,
			"database", cfg.Name,
		)
	}
	return db, nil
}

// ConnectRedis connects to a single node, a sentinel-managed primary, or a
// cluster depending on cfg.
//
//nolint:ireturn // returning redis.UniversalClient lets us pick single, sentinel, or cluster clients at runtime.
func ConnectRedis(ctx context.Context, cfg config.RedisConfig, logger *slog.Logger) (redis.UniversalClient, error) {
	client, addrDesc, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	if pingErr := client.Ping(pingCtx).Err(); pingErr != nil {
		if closeErr := client.Close(); closeErr != nil {
			pingErr = errors.Join(pingErr, fmt.Errorf("close redis client: %w", closeErr))
		}
		return nil, fmt.Errorf("ping redis: %w", pingErr)
	}

	if logger != nil {
		logger.InfoContext(ctx, "redis connected", "addr", redactRedisAddr(addrDesc))
	}
	return client, nil
}

//nolint:ireturn // see ConnectRedis.
func newRedisClient(cfg config.RedisConfig) (redis.UniversalClient, string, error) {
	switch {
	case cfg.UseCluster:
		addrs := normalizeAddrs(cfg.ClusterNodes)
		var opts *redis.Options
		if len(addrs) == 0 {
			// Fall back to the single URI as the cluster seed.
			seed := strings.TrimSpace(cfg.URI)
			if isRedisURL(seed) {
				parsed, err := redis.ParseURL(seed)
				if err != nil {
					return nil, "", fmt.Errorf("parse redis cluster url: %w", err)
				}
				opts = parsed
				seed = parsed.Addr
			}
			if seed != "" {
				addrs = []string{seed}
			}
		}
		if len(addrs) == 0 {
			return nil, "", errors.New("redis cluster configuration requires at least one address")
		}
		clusterOpts := &redis.ClusterOptions{Addrs: addrs, Password: cfg.Password}
		if opts != nil {
			clusterOpts.Username = opts.Username
			if opts.Password != "" {
				clusterOpts.Password = opts.Password
			}
			clusterOpts.TLSConfig = opts.TLSConfig
		}
		return redis.NewClusterClient(clusterOpts), "cluster:" + strings.Join(addrs, ","), nil

	case cfg.UseSentinel:
		nodes := normalizeAddrs(cfg.SentinelNodes)
		if len(nodes) == 0 {
			return nil, "", errors.New("redis sentinel configuration requires at least one sentinel node")
		}
		client := redis.NewFailoverClient(&redis.FailoverOptions{
			MasterName:       cfg.SentinelMasterName,
			SentinelAddrs:    nodes,
			Password:         cfg.Password,
			SentinelPassword: cfg.SentinelPassword,
		})
		return client, "sentinel:" + cfg.SentinelMasterName, nil

	default:
		uri := strings.TrimSpace(cfg.URI)
		if uri == "" {
			return nil, "", errors.New("redis direct configuration requires a URI")
		}
		if isRedisURL(uri) {
			opt, err := redis.ParseURL(uri)
			if err != nil {
				return nil, "", fmt.Errorf("parse redis url: %w", err)
			}
			return redis.NewClient(opt), uri, nil
		}
		return redis.NewClient(&redis.Options{Addr: uri, Password: cfg.Password}), uri, nil
	}
}

// redactRedisAddr strips credentials before an address reaches the logs.
func redactRedisAddr(addr string) string {
	if u, err := url.Parse(addr); err == nil && u.User != nil {
		u.User = url.User("*")
		return u.Redacted()
	}
	if i := strings.LastIndex(addr, "@"); i > -1 {
		return addr[i+1:]
	}
	return addr
}

func normalizeAddrs(raw []string) []string {
	result := make([]string, 0, len(raw))
	for _, addr := range raw {
		if trimmed := strings.TrimSpace(addr); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func isRedisURL(value string) bool {
	return strings.HasPrefix(value, "redis://") || strings.HasPrefix(value, "rediss://")
}

// RunMigrations creates or upgrades the session schema.
func RunMigrations(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	if err := migrate.Run(ctx, db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	if logger != nil {
		logger.InfoContext(ctx, "database migrations completed")
	}
	return nil
}
