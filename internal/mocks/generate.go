// Package mocks provides mock implementations for testing the gentrade backtest system.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for the
// core port interfaces. The mocks are generated using go:generate directives.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
package mocks

// Generate mock for BacktestRepository interface from internal/core package.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=backtest_repository_mock.go github.com/gentrade/gentrade-api/internal/core BacktestRepository

// Generate mock for StrategyRepository interface from internal/core package.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=strategy_repository_mock.go github.com/gentrade/gentrade-api/internal/core StrategyRepository

// Generate mock for UserRepository interface from internal/core package.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=user_repository_mock.go github.com/gentrade/gentrade-api/internal/core UserRepository

// Generate mock for JobSubmitter interface from internal/core package.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=job_submitter_mock.go github.com/gentrade/gentrade-api/internal/core JobSubmitter

// Generate mock for Executor interface from internal/core package.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=executor_mock.go github.com/gentrade/gentrade-api/internal/core Executor

// Generate mock for ResultStore interface from internal/core package.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=result_store_mock.go github.com/gentrade/gentrade-api/internal/core ResultStore
