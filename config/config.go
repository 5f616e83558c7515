package config

import (
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - database.go: PostgreSQL and Redis configuration
//   - broker.go: message broker configuration
//   - worker.go: worker and engine configuration
//   - observability.go: metrics and notification configuration
type AppConfig struct {
	// IsDev controls development mode behavior (relaxed validation, text logs).
	IsDev bool `env:"DEV" envDefault:"false"`

	// Database configuration
	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`

	// Broker configuration
	Broker BrokerConfig `envPrefix:"BROKER_"`

	// Worker and engine configuration
	Worker     WorkerConfig     `envPrefix:"WORKER_"`
	Engine     EngineConfig     `envPrefix:"ENGINE_"`
	MarketData MarketDataConfig `envPrefix:"MARKET_DATA_"`

	// Observability configuration
	Observability ObservabilityConfig

	// Service mode configuration
	Services string `env:"SERVICES" envDefault:"worker"`
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.Broker.Sanitize()
	c.Worker.Sanitize()
	c.Engine.Sanitize()
	c.MarketData.Sanitize()
	c.Observability.Sanitize()

	c.detectDevMode()
}

// detectDevMode checks both DEV and APP_ENV environment variables.
// This is called by Sanitize() to ensure IsDev is set correctly.
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		appEnv := strings.ToLower(os.Getenv("APP_ENV"))
		c.IsDev = appEnv == "development" || appEnv == "dev"
	}
}

// GetEnabledServices returns the enabled services based on the Services field.
func (c *AppConfig) GetEnabledServices() (map[ServiceMode]bool, error) {
	return ParseServices(c.Services)
}

// IsWorkerEnabled returns true if the backtest worker service is enabled.
func (c *AppConfig) IsWorkerEnabled() bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[ServiceModeWorker]
}

// IsMigratorEnabled returns true if the standalone migrator service is enabled.
func (c *AppConfig) IsMigratorEnabled() bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[ServiceModeMigrate]
}
