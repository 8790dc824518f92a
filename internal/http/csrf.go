package httpx

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
)

const (
	// DefaultCSRFCookieName names the cookie holding the token.
	DefaultCSRFCookieName = "hrdash_csrf"
	// DefaultCSRFHeaderName is the header htmx requests send the token in.
	DefaultCSRFHeaderName = "X-Csrf-Token"
	// CSRFFormField is the hidden input plain form posts carry.
	CSRFFormField = "csrf_token"

	csrfTokenBytes = 32
	csrfCookieAge  = 12 * 60 * 60
)

// CSRFConfig configures CSRFProtection.
type CSRFConfig struct {
	CookieName   string
	HeaderName   string
	CookieDomain string
	// Secure forces the Secure attribute; TLS and X-Forwarded-Proto=https set it too.
	Secure bool
}

func (c CSRFConfig) withDefaults() CSRFConfig {
	if c.CookieName == "" {
		c.CookieName = DefaultCSRFCookieName
	}
	if c.HeaderName == "" {
		c.HeaderName = DefaultCSRFHeaderName
	}
	return c
}

// CSRFProtection guards state-changing requests with a double-submit token.
// Every request gets a token in its context (issuing a cookie on first
// visit) so pages can embed it; POST, PUT, PATCH and DELETE must echo the
// cookie value in the header or the csrf_token form field or get 403.
func CSRFProtection(cfg CSRFConfig) func(http.Handler) http.Handler {
	cfg = cfg.withDefaults()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := readCSRFCookie(r, cfg.CookieName)
			if token == "" {
				fresh, err := newCSRFToken()
				if err != nil {
					http.Error(w, "unable to generate CSRF token", http.StatusInternalServerError)
					return
				}
				token = fresh
				setCSRFCookie(w, r, cfg, token)
			}

			r = r.WithContext(context.WithValue(r.Context(), csrfTokenKey{}, token))
			if isUnsafeMethod(r.Method) && !csrfTokenMatches(r, token, cfg) {
				http.Error(w, "CSRF token validation failed", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isUnsafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return false
	default:
		return true
	}
}

func readCSRFCookie(r *http.Request, name string) string {
	ck, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return ck.Value
}

func newCSRFToken() (string, error) {
	b := make([]byte, csrfTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("csrf token generation failed: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func setCSRFCookie(w http.ResponseWriter, r *http.Request, cfg CSRFConfig, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.CookieName,
		Value:    token,
		Path:     "/",
		Domain:   cfg.CookieDomain,
		HttpOnly: true, // templates embed the token; no script reads the cookie
		Secure:   cfg.Secure || r.TLS != nil || forwardedHTTPS(r),
		SameSite: http.SameSiteStrictMode,
		MaxAge:   csrfCookieAge,
	})
}

// forwardedHTTPS accepts comma-separated X-Forwarded-Proto values.
func forwardedHTTPS(r *http.Request) bool {
	for _, proto := range strings.Split(r.Header.Get("X-Forwarded-Proto"), ",") {
		if strings.EqualFold(strings.TrimSpace(proto), "https") {
			return true
		}
	}
	return false
}

// csrfTokenMatches compares in constant time. The header wins over the form
// field; only urlencoded bodies are parsed.
func csrfTokenMatches(r *http.Request, want string, cfg CSRFConfig) bool {
	if want == "" {
		return false
	}
	got := r.Header.Get(cfg.HeaderName)
	if got == "" {
		if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
			return false
		}
		if err := r.ParseForm(); err != nil {
			return false
		}
		got = r.PostForm.Get(CSRFFormField)
	}
	return got != "" && subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

type csrfTokenKey struct{}

// GetCSRFToken returns the token CSRFProtection attached to r, or "".
func GetCSRFToken(r *http.Request) string {
	token, _ := r.Context().Value(csrfTokenKey{}).(string)
	return token
}
