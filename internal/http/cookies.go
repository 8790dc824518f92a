package httpx

import (
	"net/http"
	"time"

	domainauth "github.com/target/hr-dashboard/internal/domain/auth"
)

// SessionCookie describes the browser cookie that carries the session id.
// The cookie holds nothing but the id; the token stays server-side.
type SessionCookie struct {
	Name   string
	Domain string
	Secure bool
}

func (c SessionCookie) name() string {
	if c.Name == "" {
		return "hrdash_session"
	}
	return c.Name
}

// Read returns the session id carried by r, or "".
func (c SessionCookie) Read(r *http.Request) string {
	ck, err := r.Cookie(c.name())
	if err != nil {
		return ""
	}
	return ck.Value
}

// Set writes the cookie for s. A session without an expiry gets a browser
// session cookie.
func (c SessionCookie) Set(w http.ResponseWriter, s domainauth.Session) {
	ck := &http.Cookie{
		Name:     c.name(),
		Value:    s.ID,
		Path:     "/",
		Domain:   c.Domain,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if !s.ExpiresAt.IsZero() {
		ck.Expires = s.ExpiresAt.UTC()
		ck.MaxAge = max(int(time.Until(s.ExpiresAt).Seconds()), 1)
	}
	http.SetCookie(w, ck)
}

// Clear expires the cookie, mirroring the attributes used by Set.
func (c SessionCookie) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name(),
		Value:    "",
		Path:     "/",
		Domain:   c.Domain,
		HttpOnly: true,
		Secure:   c.Secure,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	})
}
