package config

import "strings"

// ObservabilityConfig groups configuration that controls metrics.
type ObservabilityConfig struct {
	Metrics ObservabilityMetricsConfig
}

// Sanitize applies guardrails to observability sub-configs.
func (c *ObservabilityConfig) Sanitize() {
	c.Metrics.Sanitize()
}

// ObservabilityMetricsConfig controls the Prometheus scrape endpoint.
type ObservabilityMetricsConfig struct {
	Enabled bool   `env:"OBSERVABILITY_METRICS_ENABLED" envDefault:"true"`
	Path    string `env:"OBSERVABILITY_METRICS_PATH"    envDefault:"/metrics"`
}

// Sanitize normalises derived fields and enforces safe defaults.
func (c *ObservabilityMetricsConfig) Sanitize() {
	c.Path = strings.TrimSpace(c.Path)
	if c.Path == "" {
		c.Enabled = false
		return
	}
	if !strings.HasPrefix(c.Path, "/") {
		c.Path = "/" + c.Path
	}
}

// IsEnabled returns true when the metrics endpoint is served after sanitisation.
func (c *ObservabilityMetricsConfig) IsEnabled() bool {
	return c.Enabled && c.Path != ""
}
