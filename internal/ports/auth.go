package ports

// Package ports defines interfaces (hexagonal ports) for session behavior.
// Implementations live in internal/adapters and internal/hrapi; orchestration
// in internal/service.

import (
	"context"

	domainauth "github.com/target/hr-dashboard/internal/domain/auth"
)

// SessionStore persists the bearer token and user profile of a browser session.
//
// Load never fails because of a malformed stored profile: the profile is
// returned empty instead. Clear is idempotent.
type SessionStore interface {
	Load(ctx context.Context, id string) (domainauth.Session, error)
	Save(ctx context.Context, sess domainauth.Session) error
	Clear(ctx context.Context, id string) error
}

// IdentityProvider exchanges credentials for a token and resolves the profile
// a token belongs to.
type IdentityProvider interface {
	Authenticate(ctx context.Context, username, password string) (domainauth.Credentials, error)
	Profile(ctx context.Context, token string) (domainauth.UserProfile, error)
}
