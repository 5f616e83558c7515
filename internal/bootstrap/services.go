package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/gentrade/gentrade-api/config"
	"github.com/gentrade/gentrade-api/internal/adapters/engine"
	"github.com/gentrade/gentrade-api/internal/adapters/worker"
	"github.com/gentrade/gentrade-api/internal/broker"
	"github.com/gentrade/gentrade-api/internal/data"
	"github.com/gentrade/gentrade-api/internal/observability/notify/slack"
	"github.com/gentrade/gentrade-api/internal/observability/statsd"
	"github.com/gentrade/gentrade-api/internal/service"
	"github.com/gentrade/gentrade-api/internal/service/failurenotifier"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Store     *data.Store
	Backtests *service.BacktestService
	Pipeline  *service.BacktestPipeline
	Runner    *worker.Runner

	SubmitPool *broker.Pool
	Consumer   *broker.Consumer

	Observability ObservabilityContainer
}

// ObservabilityContainer groups shared observability dependencies.
type ObservabilityContainer struct {
	MetricsSink     *statsd.Client
	FailureNotifier *failurenotifier.Service
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// buildObservability configures metrics and notification adapters.
func buildObservability(logger *slog.Logger, cfg config.ObservabilityConfig) ObservabilityContainer {
	obsLogger := logger
	if obsLogger == nil {
		obsLogger = slog.Default()
	}

	var metricsSink *statsd.Client
	if cfg.Metrics.IsEnabled() {
		client, err := statsd.NewClient(statsd.Config{
			Enabled: true,
			Address: cfg.Metrics.StatsdAddress,
			Prefix:  "gentrade",
			Logger:  obsLogger,
		})
		if err != nil {
			obsLogger.Error("failed to initialise statsd client", "error", err)
		} else {
			metricsSink = client
		}
	}

	var sinks []failurenotifier.SinkRegistration
	if cfg.Notifications.SlackWebhookURL != "" {
		client, err := slack.NewClient(slack.Config{
			WebhookURL: cfg.Notifications.SlackWebhookURL,
		})
		if err != nil {
			obsLogger.Error("failed to initialise slack sink", "error", err)
		} else {
			sinks = append(sinks, failurenotifier.SinkRegistration{Name: "slack", Sink: client})
		}
	}

	return ObservabilityContainer{
		MetricsSink: metricsSink,
		FailureNotifier: failurenotifier.NewService(failurenotifier.Options{
			Logger: obsLogger,
			Sinks:  sinks,
		}),
	}
}

// NewServices wires repositories, adapters, and services for the enabled
// service modes.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service deps with config are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config

	observability := buildObservability(logger, cfg.Observability)

	store, err := data.NewStore(deps.DB, logger)
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build store: %w", err)
	}
	results := data.NewRedisResultStore(deps.RedisClient)

	submitPool, err := NewSubmitPool(cfg.Broker, logger)
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build submit pool: %w", err)
	}

	executor, err := engine.NewComposeRunner(engine.ComposeRunnerOptions{
		DataDir: cfg.Engine.DataDir,
		Binary:  cfg.Engine.Binary,
		Service: cfg.Engine.Service,
		Logger:  logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build engine runner: %w", err)
	}

	parser, err := service.NewResultParser()
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build result parser: %w", err)
	}

	auth := service.NewAuthService()
	backtests := service.NewBacktestService(service.BacktestServiceOptions{
		Store:     store,
		Auth:      auth,
		Submitter: submitPool,
		Results:   results,
		ResultTTL: cfg.Redis.ResultTTL,
		Logger:    logger,
	})

	marketData := service.NewMarketDataService(service.MarketDataServiceOptions{
		Executor:          executor,
		DataDir:           cfg.Engine.DataDir,
		Exchange:          cfg.MarketData.Exchange,
		TradingMode:       cfg.MarketData.TradingMode,
		DefaultPairs:      cfg.MarketData.Pairs,
		DefaultTimeframes: cfg.MarketData.Timeframes,
		Logger:            logger,
	})

	pipeline := service.NewBacktestPipeline(service.BacktestPipelineOptions{
		Store:           store,
		Executor:        executor,
		MarketData:      marketData,
		Parser:          parser,
		Results:         results,
		ResultTTL:       cfg.Redis.ResultTTL,
		DownloadTimeout: cfg.Engine.DownloadTimeout,
		ExecTimeout:     cfg.Engine.ExecTimeout,
		Metrics:         observability.MetricsSink,
		Logger:          logger,
	})

	consumer, err := NewConsumer(cfg.Broker, cfg.Worker.Prefetch, logger)
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build consumer: %w", err)
	}

	runner := worker.NewRunner(worker.RunnerOptions{
		Source:      consumer,
		Pipeline:    pipeline,
		Concurrency: cfg.Worker.Concurrency,
		JobTimeout:  cfg.Worker.JobTimeout,
		Notifier:    observability.FailureNotifier,
		Logger:      logger,
	})

	return ServiceContainer{
		Store:         store,
		Backtests:     backtests,
		Pipeline:      pipeline,
		Runner:        runner,
		SubmitPool:    submitPool,
		Consumer:      consumer,
		Observability: observability,
	}, nil
}

// ServiceOrchestrationConfig contains configuration for service orchestration.
type ServiceOrchestrationConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

// RunServicesWithShutdown starts all enabled services and manages their
// lifecycle. It blocks until a shutdown signal arrives or a service fails.
func RunServicesWithShutdown(ctx context.Context, cfg *ServiceOrchestrationConfig) error {
	if cfg == nil || cfg.Config == nil {
		return errors.New("service orchestration config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Config.IsWorkerEnabled() {
		g.Go(func() error {
			if err := cfg.Services.Runner.Run(gctx); err != nil {
				return fmt.Errorf("worker failed: %w", err)
			}
			return nil
		})
	}

	err := g.Wait()

	if cerr := cfg.Services.Consumer.Close(); cerr != nil {
		logger.Error("close consumer failed", "error", cerr)
	}
	if cerr := cfg.Services.SubmitPool.Close(); cerr != nil {
		logger.Error("close submit pool failed", "error", cerr)
	}
	if cfg.Services.Observability.MetricsSink != nil {
		if cerr := cfg.Services.Observability.MetricsSink.Close(); cerr != nil {
			logger.Error("close metrics sink failed", "error", cerr)
		}
	}

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
