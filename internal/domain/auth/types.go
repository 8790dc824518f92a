// Package auth contains domain-level types for dashboard sessions.
// It is pure and free of framework/adapter concerns.
package auth

import (
	"strings"
	"time"
)

// Role is the dashboard role reported by the HR backend for a user.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
)

// ParseRole normalizes a backend role string. Unknown values yield "" and false.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleEmployee:
		return RoleEmployee, true
	default:
		return "", false
	}
}

// Valid reports whether r is exactly one of the known roles. Stored roles are
// compared verbatim; use ParseRole to normalize backend input.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleEmployee
}

// UserProfile is the identity returned by GET /auth/me.
// It is immutable after load until the next login.
type UserProfile struct {
	Username   string `json:"username"`
	Role       Role   `json:"role"`
	EmployeeID *int   `json:"employee_id,omitempty"`
}

// Same reports whether p and o describe the same account, comparing the
// employee link by value.
func (p UserProfile) Same(o UserProfile) bool {
	if p.Username != o.Username || p.Role != o.Role {
		return false
	}
	if p.EmployeeID == nil || o.EmployeeID == nil {
		return p.EmployeeID == nil && o.EmployeeID == nil
	}
	return *p.EmployeeID == *o.EmployeeID
}

// HasEmployee reports whether the account is linked to an employee record.
func (p UserProfile) HasEmployee() bool { return p.EmployeeID != nil && *p.EmployeeID > 0 }

// Session is the credential pair persisted for one browser session.
// Token and User are written and cleared together.
type Session struct {
	ID    string
	Token string
	User  UserProfile
	// ExpiresAt is when the stored credentials lapse. Zero means unknown.
	ExpiresAt time.Time
}

// Empty reports whether the session carries no bearer token.
func (s Session) Empty() bool { return s.Token == "" }

// Authenticated reports whether the session has both a token and a usable profile.
func (s Session) Authenticated() bool { return s.Token != "" && s.User.Role.Valid() }

// Credentials is a bearer token issued by the backend at login.
type Credentials struct {
	Token string
	// ExpiresAt is zero when the token carries no expiry.
	ExpiresAt time.Time
}
