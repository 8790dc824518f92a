package ports

import (
	"context"
	"time"
)

// SessionPurger deletes sessions whose expiry has passed. Stores with native
// key expiry (Redis) do not need one.
type SessionPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// WorkspaceSweeper drops in-memory workspaces idle for longer than maxIdle and
// returns how many were removed.
type WorkspaceSweeper interface {
	Sweep(maxIdle time.Duration) int
}
