package service

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"time"

	obserrors "github.com/target/hr-dashboard/internal/observability/errors"
	"github.com/target/hr-dashboard/internal/observability/metrics"
	"github.com/target/hr-dashboard/internal/ports"
)

// Reaped entry kinds used as metric labels.
const (
	ReapedSessions   = "sessions"
	ReapedWorkspaces = "workspaces"
)

// ReaperServiceOptions groups dependencies for ReaperService. At least one of
// Purger or Sweeper is required.
type ReaperServiceOptions struct {
	Purger  ports.SessionPurger    // Optional: expired session cleanup (Postgres)
	Sweeper ports.WorkspaceSweeper // Optional: idle workspace cleanup
	// IdleTTL is how long a workspace may go unused before it is swept.
	IdleTTL  time.Duration
	Interval time.Duration
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
}

// ReaperService periodically removes expired sessions from stores without
// native expiry and drops workspaces of browsers that went away.
type ReaperService struct {
	purger   ports.SessionPurger
	sweeper  ports.WorkspaceSweeper
	idleTTL  time.Duration
	interval time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewReaperService constructs a new ReaperService.
func NewReaperService(opts ReaperServiceOptions) (*ReaperService, error) {
	if opts.Purger == nil && opts.Sweeper == nil {
		return nil, errors.New("reaper needs a session purger or a workspace sweeper")
	}
	if opts.Interval <= 0 {
		return nil, errors.New("reaper interval must be positive")
	}
	if opts.Sweeper != nil && opts.IdleTTL <= 0 {
		return nil, errors.New("workspace idle TTL must be positive")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &ReaperService{
		purger:   opts.Purger,
		sweeper:  opts.Sweeper,
		idleTTL:  opts.IdleTTL,
		interval: opts.Interval,
		logger:   logger.With("component", "reaper_service"),
		metrics:  opts.Metrics,
	}, nil
}

// Run performs a cleanup pass right away and then every interval until ctx
// is cancelled. Failed passes are logged and retried on the next tick.
// Returns nil on graceful shutdown.
func (s *ReaperService) Run(ctx context.Context) error {
	s.logger.InfoContext(ctx, "starting reaper service",
		"interval", s.interval,
		"purge_sessions", s.purger != nil,
		"sweep_workspaces", s.sweeper != nil,
	)

	s.waitWithJitter(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	if err := s.RunOnce(ctx); err != nil {
		s.logCleanupError(ctx, err, "initial cleanup")
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "reaper service stopping", "reason", ctx.Err())
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				s.logCleanupError(ctx, err, "cleanup")
			}
		}
	}
}

// RunOnce performs one cleanup pass.
func (s *ReaperService) RunOnce(ctx context.Context) error {
	start := time.Now()
	var purged int64
	var swept int

	if s.sweeper != nil {
		swept = s.sweeper.Sweep(s.idleTTL)
		s.metrics.Reaped(ReapedWorkspaces, int64(swept))
	}

	var err error
	if s.purger != nil {
		purged, err = s.purger.PurgeExpired(ctx)
		s.metrics.Reaped(ReapedSessions, purged)
		if err != nil {
			err = fmt.Errorf("purge expired sessions: %w", err)
		}
	}

	if purged > 0 || swept > 0 {
		s.logger.InfoContext(ctx, "reaper pass completed",
			"sessions_purged", purged,
			"workspaces_swept", swept,
			"duration", time.Since(start),
		)
	}
	return err
}

// waitWithJitter delays the first pass by up to 10% of the interval so
// replicas started together do not purge in lockstep.
func (s *ReaperService) waitWithJitter(ctx context.Context) {
	maxJitter := int64(s.interval / 10)
	if maxJitter <= 0 {
		return
	}

	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		s.logger.WarnContext(ctx, "failed to generate jitter, skipping", "error", err)
		return
	}
	jitter := time.Duration(int64(binary.BigEndian.Uint64(buf[:]) % uint64(maxJitter))) // #nosec G115 - bounded by maxJitter

	select {
	case <-time.After(jitter):
	case <-ctx.Done():
	}
}

func (s *ReaperService) logCleanupError(ctx context.Context, err error, label string) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		s.logger.DebugContext(ctx, "reaper "+label+" interrupted", "error", err)
		return
	}
	s.logger.ErrorContext(ctx, "reaper "+label+" failed",
		"error_class", obserrors.Classify(err),
		"error", err,
	)
}
