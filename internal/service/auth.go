package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	domainauth "github.com/target/hr-dashboard/internal/domain/auth"
	apperrors "github.com/target/hr-dashboard/internal/errors"
	"github.com/target/hr-dashboard/internal/ports"
)

// ErrUnknownRole is returned when the backend profile carries a role the
// dashboard has no surface for.
var ErrUnknownRole = errors.New("account has no dashboard role")

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Identity ports.IdentityProvider
	Sessions ports.SessionStore
	// SessionTTL bounds sessions whose token carries no expiry.
	SessionTTL time.Duration
	Now        func() time.Time
	Logger     *slog.Logger
}

// AuthService orchestrates login, session lookup and logout by coordinating
// the identity provider with session persistence.
type AuthService struct {
	identity ports.IdentityProvider
	sessions ports.SessionStore
	ttl      time.Duration
	now      func() time.Time
	logger   *slog.Logger
	group    singleflight.Group
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		identity: opts.Identity,
		sessions: opts.Sessions,
		ttl:      opts.SessionTTL,
		now:      now,
		logger:   logger,
	}
}

// Login exchanges username and password for a token, loads the profile and
// persists a new session. Token and profile are saved together.
func (s *AuthService) Login(ctx context.Context, username, password string) (domainauth.Session, error) {
	if username == "" || password == "" {
		return domainauth.Session{}, apperrors.Validation("username", "Please enter your username and password.")
	}

	creds, err := s.identity.Authenticate(ctx, username, password)
	if err != nil {
		return domainauth.Session{}, fmt.Errorf("authenticate: %w", err)
	}

	profile, err := s.identity.Profile(ctx, creds.Token)
	if err != nil {
		return domainauth.Session{}, fmt.Errorf("load profile: %w", err)
	}
	if !profile.Role.Valid() {
		return domainauth.Session{}, ErrUnknownRole
	}

	expires := creds.ExpiresAt
	if expires.IsZero() && s.ttl > 0 {
		expires = s.now().Add(s.ttl)
	}

	sess := domainauth.Session{
		ID:        uuid.NewString(),
		Token:     creds.Token,
		User:      profile,
		ExpiresAt: expires,
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return domainauth.Session{}, fmt.Errorf("save session: %w", err)
	}

	s.logger.InfoContext(ctx, "user signed in", "username", profile.Username, "role", profile.Role)
	return sess, nil
}

// Session loads the stored session. An empty id yields an empty session.
func (s *AuthService) Session(ctx context.Context, sessionID string) (domainauth.Session, error) {
	if sessionID == "" {
		return domainauth.Session{}, nil
	}
	sess, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return domainauth.Session{}, fmt.Errorf("load session: %w", err)
	}
	return sess, nil
}

// Revalidate re-checks a stored session against GET /auth/me. A changed
// profile is written back so the guard sees it. Any failure clears the
// session and yields an empty one. Concurrent calls for the same
// session share one backend round trip.
func (s *AuthService) Revalidate(ctx context.Context, sessionID string) (domainauth.Session, error) {
	v, err, _ := s.group.Do(sessionID, func() (any, error) {
		sess, err := s.Session(ctx, sessionID)
		if err != nil || sess.Empty() {
			return sess, err
		}
		profile, err := s.identity.Profile(ctx, sess.Token)
		if err == nil && profile.Role.Valid() {
			if profile.Same(sess.User) {
				return sess, nil
			}
			sess.User = profile
			if err := s.sessions.Save(ctx, sess); err != nil {
				return domainauth.Session{}, fmt.Errorf("save refreshed session: %w", err)
			}
			return sess, nil
		}
		s.logger.InfoContext(ctx, "stored session no longer valid", "error", err)
		return domainauth.Session{}, s.Invalidate(ctx, sessionID)
	})
	if err != nil {
		return domainauth.Session{}, err
	}
	return v.(domainauth.Session), nil
}

// Invalidate clears a session whose token the backend rejected.
func (s *AuthService) Invalidate(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessions.Clear(ctx, sessionID); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Logout removes a session.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil // Nothing to logout
	}
	if err := s.sessions.Clear(ctx, sessionID); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
