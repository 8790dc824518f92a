package config

import (
	"strings"
	"time"
)

// APIConfig points the dashboard at the HR REST backend.
type APIConfig struct {
	// BaseURL is the backend root, e.g. "http://localhost:8000".
	BaseURL string `env:"HR_API_BASE_URL" envDefault:"http://localhost:8000"`

	// Timeout bounds each backend call. Zero leaves calls unbounded.
	Timeout time.Duration `env:"HR_API_TIMEOUT" envDefault:"0s"`
}

// Sanitize trims the base URL and rejects negative timeouts.
func (a *APIConfig) Sanitize() {
	a.BaseURL = strings.TrimRight(strings.TrimSpace(a.BaseURL), "/")
	if a.Timeout < 0 {
		a.Timeout = 0
	}
}

// EntryConfig names the pages the guard redirects to.
type EntryConfig struct {
	Login    string `env:"ENTRY_LOGIN"    envDefault:"/auth/login"`
	Admin    string `env:"ENTRY_ADMIN"    envDefault:"/admin"`
	Employee string `env:"ENTRY_EMPLOYEE" envDefault:"/employee"`
}

// Sanitize restores defaults for blank or relative-looking entries.
func (e *EntryConfig) Sanitize() {
	e.Login = entryOrDefault(e.Login, "/auth/login")
	e.Admin = entryOrDefault(e.Admin, "/admin")
	e.Employee = entryOrDefault(e.Employee, "/employee")
}

func entryOrDefault(v, def string) string {
	v = strings.TrimSpace(v)
	if !strings.HasPrefix(v, "/") {
		return def
	}
	return v
}
