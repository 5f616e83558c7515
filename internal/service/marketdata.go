package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gentrade/gentrade-api/internal/core"
	"github.com/gentrade/gentrade-api/internal/domain/model"
	apperrors "github.com/gentrade/gentrade-api/internal/errors"
)

// MarketDataServiceOptions groups dependencies for MarketDataService.
type MarketDataServiceOptions struct {
	Executor core.Executor
	// DataDir is the root directory holding the shared market data files.
	DataDir string
	// Exchange is the default exchange to download from.
	Exchange string
	// TradingMode is either futures or spot.
	TradingMode string
	// DefaultPairs and DefaultTimeframes apply when the strategy does not
	// pin its own.
	DefaultPairs      []string
	DefaultTimeframes []string

	Logger *slog.Logger
}

// MarketDataService makes sure the market data a backtest needs is present
// on disk before the engine runs. Downloads are skipped when every expected
// data file already exists; the shared data directory acts as the cache.
type MarketDataService struct {
	executor    core.Executor
	dataDir     string
	exchange    string
	tradingMode string
	pairs       []string
	timeframes  []string
	logger      *slog.Logger
}

// NewMarketDataService constructs a MarketDataService.
func NewMarketDataService(opts MarketDataServiceOptions) *MarketDataService {
	exchange := opts.Exchange
	if exchange == "" {
		exchange = "binance"
	}
	tradingMode := opts.TradingMode
	if tradingMode == "" {
		tradingMode = "futures"
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default().With("component", "market_data")
	}
	return &MarketDataService{
		executor:    opts.Executor,
		dataDir:     opts.DataDir,
		exchange:    exchange,
		tradingMode: tradingMode,
		pairs:       opts.DefaultPairs,
		timeframes:  opts.DefaultTimeframes,
		logger:      logger,
	}
}

// Ensure guarantees the data files for the strategy's pairs and timeframes
// exist for the given date range, downloading whatever is missing. Any
// failure surfaces as a data preparation error.
func (s *MarketDataService) Ensure(ctx context.Context, userRef string, strategy *model.Strategy, dateRange string) error {
	pairs := strategy.Pairs
	if len(pairs) == 0 {
		pairs = s.pairs
	}
	timeframes := strategy.Timeframes
	if len(timeframes) == 0 {
		timeframes = s.timeframes
	}
	if len(pairs) == 0 || len(timeframes) == 0 {
		return apperrors.DataPreparation("no pairs or timeframes configured for data download", nil)
	}

	expected := expectedDataFiles(pairs, timeframes, s.tradingMode)
	missing := s.missingFiles(expected)
	if len(missing) == 0 {
		s.logger.InfoContext(ctx, "market data already present, skipping download",
			"user", userRef, "files", len(expected))
		return nil
	}

	s.logger.InfoContext(ctx, "downloading market data",
		"user", userRef,
		"pairs", pairs,
		"timeframes", timeframes,
		"timerange", dateRange,
		"missing_files", len(missing),
	)

	err := s.executor.DownloadData(ctx, core.DownloadSpec{
		UserRef:     userRef,
		Exchange:    s.exchange,
		TradingMode: s.tradingMode,
		Pairs:       pairs,
		Timeframes:  timeframes,
		DateRange:   dateRange,
	})
	if err != nil {
		return apperrors.DataPreparation("market data download failed", err)
	}

	if missing := s.missingFiles(expected); len(missing) > 0 {
		return apperrors.DataPreparation(
			fmt.Sprintf("download finished but %d expected data files are missing (first: %s)",
				len(missing), missing[0]), nil)
	}
	return nil
}

func (s *MarketDataService) missingFiles(expected []string) []string {
	var missing []string
	for _, rel := range expected {
		if _, err := os.Stat(filepath.Join(s.dataDir, rel)); err != nil {
			missing = append(missing, rel)
		}
	}
	return missing
}

// expectedDataFiles lists the data files a download must produce, relative
// to the data directory. Futures mode additionally needs the 8h mark price
// and funding rate series per pair.
func expectedDataFiles(pairs, timeframes []string, tradingMode string) []string {
	dir := filepath.Join("_common_data", tradingMode)
	var files []string
	for _, pair := range pairs {
		formatted := formatPair(pair)
		for _, tf := range timeframes {
			files = append(files, filepath.Join(dir,
				fmt.Sprintf("%s-%s-%s.feather", formatted, tf, tradingMode)))
		}
		if tradingMode == "futures" {
			files = append(files,
				filepath.Join(dir, formatted+"-8h-mark.feather"),
				filepath.Join(dir, formatted+"-8h-funding_rate.feather"),
			)
		}
	}
	return files
}

// formatPair maps an exchange pair symbol like "BTC/USDT:USDT" to the file
// name stem the engine writes, "BTC_USDT_USDT".
func formatPair(pair string) string {
	return strings.NewReplacer("/", "_", ":", "_").Replace(pair)
}
