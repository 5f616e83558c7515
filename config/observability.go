package config

import "strings"

// ObservabilityConfig groups metrics and notification configuration.
type ObservabilityConfig struct {
	Metrics       ObservabilityMetricsConfig       `envPrefix:"METRICS_"`
	Notifications ObservabilityNotificationsConfig `envPrefix:"NOTIFY_"`
}

// ObservabilityMetricsConfig contains StatsD metrics configuration.
type ObservabilityMetricsConfig struct {
	Enabled       bool   `env:"ENABLED"        envDefault:"false"`
	StatsdAddress string `env:"STATSD_ADDRESS" envDefault:"localhost:8125"`
}

// IsEnabled reports whether metrics emission is configured.
func (c ObservabilityMetricsConfig) IsEnabled() bool {
	return c.Enabled && strings.TrimSpace(c.StatsdAddress) != ""
}

// ObservabilityNotificationsConfig contains job failure notification configuration.
type ObservabilityNotificationsConfig struct {
	SlackWebhookURL string `env:"SLACK_WEBHOOK_URL" envDefault:""`
}

// Sanitize applies guardrails to observability configuration values.
func (c *ObservabilityConfig) Sanitize() {
	c.Notifications.SlackWebhookURL = strings.TrimSpace(c.Notifications.SlackWebhookURL)
}
