package config

import "time"

// WorkerConfig contains configuration for the backtest worker service.
type WorkerConfig struct {
	// Concurrency is the number of dispatch loops. Each loop processes
	// exactly one job at a time, so this is also the per-process limit on
	// jobs in flight.
	Concurrency int `env:"CONCURRENCY" envDefault:"2"`

	// JobTimeout bounds the whole pipeline of a single job, including data
	// preparation and container execution.
	JobTimeout time.Duration `env:"JOB_TIMEOUT" envDefault:"2h"`

	// Prefetch is the broker prefetch count. It should stay close to
	// Concurrency so one worker does not hoard undelivered jobs.
	Prefetch int `env:"PREFETCH" envDefault:"0"`
}

// Sanitize applies guardrails to worker configuration values.
func (c *WorkerConfig) Sanitize() {
	if c.Concurrency < 1 {
		c.Concurrency = 1
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = 2 * time.Hour
	}
	if c.Prefetch <= 0 {
		c.Prefetch = c.Concurrency
	}
}

// EngineConfig contains configuration for the containerized trading engine.
type EngineConfig struct {
	// Binary is the container CLI used to run the engine.
	Binary string `env:"BINARY" envDefault:"docker"`

	// Service is the compose service name running the trading engine.
	Service string `env:"SERVICE" envDefault:"freqtrade"`

	// DataDir is the root directory containing per-user engine sandboxes.
	// Each sandbox holds a docker-compose.yml and a user_data directory.
	DataDir string `env:"DATA_DIR" envDefault:"ft_userdata"`

	// ExecTimeout bounds the wall-clock duration of one backtest run.
	ExecTimeout time.Duration `env:"EXEC_TIMEOUT" envDefault:"30m"`

	// DownloadTimeout bounds the wall-clock duration of one data download.
	DownloadTimeout time.Duration `env:"DOWNLOAD_TIMEOUT" envDefault:"30m"`
}

// Sanitize applies guardrails to engine configuration values.
func (c *EngineConfig) Sanitize() {
	if c.Binary == "" {
		c.Binary = "docker"
	}
	if c.Service == "" {
		c.Service = "freqtrade"
	}
	if c.DataDir == "" {
		c.DataDir = "ft_userdata"
	}
	if c.ExecTimeout <= 0 {
		c.ExecTimeout = 30 * time.Minute
	}
	if c.DownloadTimeout <= 0 {
		c.DownloadTimeout = 30 * time.Minute
	}
}

// MarketDataConfig contains defaults for market data preparation when a
// strategy does not pin its own pairs or timeframes.
type MarketDataConfig struct {
	Exchange    string   `env:"EXCHANGE"     envDefault:"binance"`
	TradingMode string   `env:"TRADING_MODE" envDefault:"futures"`
	Pairs       []string `env:"PAIRS"        envDefault:"BTC/USDT:USDT"`
	Timeframes  []string `env:"TIMEFRAMES"   envDefault:"5m,1h"`
}

// Sanitize applies guardrails to market data configuration values.
func (c *MarketDataConfig) Sanitize() {
	if c.Exchange == "" {
		c.Exchange = "binance"
	}
	if c.TradingMode != "spot" && c.TradingMode != "futures" {
		c.TradingMode = "futures"
	}
	if len(c.Pairs) == 0 {
		c.Pairs = []string{"BTC/USDT:USDT"}
	}
	if len(c.Timeframes) == 0 {
		c.Timeframes = []string{"5m", "1h"}
	}
}
