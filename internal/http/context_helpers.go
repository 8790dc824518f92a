package httpx

import (
	"context"

	domainauth "github.com/target/hr-dashboard/internal/domain/auth"
)

// sessionKey is an unexported context key type to avoid collisions across packages.
type sessionKey struct{}

// SetSessionInContext returns a child context that carries the given session.
func SetSessionInContext(ctx context.Context, session domainauth.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, session)
}

// GetSessionFromContext returns the session the guard admitted and whether one is present.
func GetSessionFromContext(ctx context.Context) (domainauth.Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(domainauth.Session)
	return s, ok && s.Authenticated()
}
