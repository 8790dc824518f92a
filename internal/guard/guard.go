// Package guard decides whether a session may open a role-scoped page.
//
// The decision is advisory: it keeps users away from pages they cannot use,
// while the backend remains the authority on every call.
package guard

import (
	"errors"

	domainauth "github.com/target/hr-dashboard/internal/domain/auth"
)

// State is the outcome of a guard evaluation.
type State int

const (
	Unauthenticated State = iota
	WrongRole
	Authorized
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case WrongRole:
		return "wrong_role"
	case Authorized:
		return "authorized"
	default:
		return "unknown"
	}
}

var (
	// ErrAuthMissing means the session holds no usable credentials.
	ErrAuthMissing = errors.New("guard: no session")
	// ErrRoleMismatch means the session's role differs from the page's.
	ErrRoleMismatch = errors.New("guard: role mismatch")
)

// EntryPoints are the redirect targets used by the guard.
type EntryPoints struct {
	Login    string
	Admin    string
	Employee string
}

// Home returns the entry point for role, or the login page for unknown roles.
func (e EntryPoints) Home(role domainauth.Role) string {
	switch role {
	case domainauth.RoleAdmin:
		return e.Admin
	case domainauth.RoleEmployee:
		return e.Employee
	default:
		return e.Login
	}
}

// Decision is the result of Evaluate. Redirect is empty when Authorized.
type Decision struct {
	State    State
	Redirect string
	Err      error
}

// Allowed reports whether page initialization may proceed.
func (d Decision) Allowed() bool { return d.State == Authorized }

// Guard evaluates sessions against a required role.
type Guard struct {
	entry EntryPoints
}

// New returns a Guard using the given entry points.
func New(entry EntryPoints) *Guard {
	return &Guard{entry: entry}
}

// EntryPoints returns the configured redirect targets.
func (g *Guard) EntryPoints() EntryPoints { return g.entry }

// Evaluate applies the transition rules in order: no token, or a token without
// a recognizable profile, is Unauthenticated; a role other than required is
// WrongRole and redirects to that role's own home; anything else is Authorized.
func (g *Guard) Evaluate(sess domainauth.Session, required domainauth.Role) Decision {
	if !sess.Authenticated() {
		return Decision{State: Unauthenticated, Redirect: g.entry.Login, Err: ErrAuthMissing}
	}
	if sess.User.Role != required {
		return Decision{State: WrongRole, Redirect: g.entry.Home(sess.User.Role), Err: ErrRoleMismatch}
	}
	return Decision{State: Authorized}
}
