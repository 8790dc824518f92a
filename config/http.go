package config

import (
	"strings"

	"golang.org/x/net/publicsuffix"
)

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`

	// CookieDomain is the domain for session cookies.
	// Leave empty to use the request domain.
	CookieDomain string `env:"APP_COOKIE_DOMAIN" envDefault:""`

	// CookieSecure marks the session cookie Secure.
	CookieSecure bool `env:"APP_COOKIE_SECURE" envDefault:"true"`

	// CompressionEnabled enables gzip compression for text-based responses.
	CompressionEnabled bool `env:"HTTP_COMPRESSION_ENABLED" envDefault:"false"`

	// CompressionLevel is the gzip compression level (1-9).
	// Default is 6 (standard gzip default).
	CompressionLevel int `env:"HTTP_COMPRESSION_LEVEL" envDefault:"6"`

	// HTMXScriptURL is where the layout loads htmx from.
	HTMXScriptURL string `env:"HTMX_SCRIPT_URL" envDefault:"https://unpkg.com/htmx.org@2.0.4"`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	// Clamp compression level to valid gzip range (1-9)
	if h.CompressionLevel < 1 {
		h.CompressionLevel = 1
	}
	if h.CompressionLevel > 9 {
		h.CompressionLevel = 9
	}
	h.CookieDomain = sanitizeCookieDomain(h.CookieDomain)
}

// sanitizeCookieDomain drops domains browsers would refuse: bare public
// suffixes such as "co.uk" and values with a scheme or port.
func sanitizeCookieDomain(raw string) string {
	domain := strings.ToLower(strings.TrimSpace(raw))
	domain = strings.TrimPrefix(domain, ".")
	if domain == "" || strings.ContainsAny(domain, ":/ ") {
		return ""
	}
	if domain == "localhost" {
		return domain
	}
	if _, err := publicsuffix.EffectiveTLDPlusOne(domain); err != nil {
		return ""
	}
	return domain
}
