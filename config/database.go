package config

import (
	"strings"
	"time"
)

// SessionBackend selects where sessions are persisted.
type SessionBackend string

const (
	SessionBackendRedis    SessionBackend = "redis"
	SessionBackendPostgres SessionBackend = "postgres"
	SessionBackendMemory   SessionBackend = "memory"
)

// SessionConfig controls session persistence and the browser cookie.
type SessionConfig struct {
	Backend SessionBackend `env:"SESSION_BACKEND" envDefault:"redis"`

	// TTL applies when the backend token carries no exp claim.
	TTL time.Duration `env:"SESSION_TTL" envDefault:"8h"`

	// KeyPrefix namespaces Redis keys.
	KeyPrefix string `env:"SESSION_KEY_PREFIX" envDefault:"hrdash:session:"`

	CookieName string `env:"SESSION_COOKIE_NAME" envDefault:"hrdash_session"`

	// WorkspaceIdleTTL evicts in-memory workspaces nobody has touched.
	WorkspaceIdleTTL time.Duration `env:"WORKSPACE_IDLE_TTL" envDefault:"30m"`
}

// Sanitize normalises the backend name and restores safe defaults.
func (s *SessionConfig) Sanitize() {
	s.Backend = SessionBackend(strings.ToLower(strings.TrimSpace(string(s.Backend))))
	switch s.Backend {
	case SessionBackendRedis, SessionBackendPostgres, SessionBackendMemory:
	default:
		s.Backend = SessionBackendRedis
	}
	if s.TTL <= 0 {
		s.TTL = 8 * time.Hour
	}
	if strings.TrimSpace(s.CookieName) == "" {
		s.CookieName = "hrdash_session"
	}
	if s.WorkspaceIdleTTL <= 0 {
		s.WorkspaceIdleTTL = 30 * time.Minute
	}
}

// DBConfig contains PostgreSQL database configuration.
type DBConfig struct {
	Host     string `env:"HOST"                    envDefault:"localhost"`
	Port     int    `env:"PORT"                    envDefault:"5432"`
	User     string `env:"USER"                    envDefault:"hrdash"`
	Password string `env:"PASSWORD"                envDefault:"hrdash"`
	Name     string `env:"NAME"                    envDefault:"hrdash"`
	SSLMode  string `env:"SSL_MODE"                envDefault:"disable"` // Use 'disable' for local dev, 'require' for production
	// RunMigrationsOnStart controls whether the session table is created during startup.
	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`
}

// RedisConfig contains Redis configuration.
type RedisConfig struct {
	URI                string   `env:"URI"                  envDefault:"localhost:6379"`
	Password           string   `env:"PASSWORD"             envDefault:""`
	SentinelNodes      []string `env:"SENTINEL_NODES"       envDefault:"localhost:26379"`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"    envDefault:""`
	UseSentinel        bool     `env:"USE_SENTINEL"         envDefault:"false"`
	ClusterNodes       []string `env:"CLUSTER_NODES"        envDefault:""`
	UseCluster         bool     `env:"USE_CLUSTER"          envDefault:"false"`
}
