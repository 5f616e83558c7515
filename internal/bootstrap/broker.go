package bootstrap

import (
	"log/slog"

	"github.com/gentrade/gentrade-api/config"
	"github.com/gentrade/gentrade-api/internal/broker"
)

// NewSubmitPool builds the connection pool used for job submission.
func NewSubmitPool(cfg config.BrokerConfig, logger *slog.Logger) (*broker.Pool, error) {
	return broker.NewPool(broker.PoolOptions{
		URL:            cfg.URL,
		Queue:          cfg.Queue,
		MaxIdle:        cfg.MaxIdle,
		MaxOpen:        cfg.MaxOpen,
		ConfirmTimeout: cfg.ConfirmTimeout,
		Logger:         logger,
	})
}

// NewConsumer builds the broker consumer feeding the worker.
func NewConsumer(cfg config.BrokerConfig, prefetch int, logger *slog.Logger) (*broker.Consumer, error) {
	return broker.NewConsumer(broker.ConsumerOptions{
		URL:      cfg.URL,
		Queue:    cfg.Queue,
		Prefetch: prefetch,
		Logger:   logger,
	})
}
