package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/gentrade/gentrade-api/internal/core"
	"github.com/gentrade/gentrade-api/internal/domain/model"
	apperrors "github.com/gentrade/gentrade-api/internal/errors"
	"github.com/gentrade/gentrade-api/internal/mocks"
)

func TestExpectedDataFiles(t *testing.T) {
	tests := []struct {
		name        string
		pairs       []string
		timeframes  []string
		tradingMode string
		want        []string
	}{
		{
			name:        "spot single pair",
			pairs:       []string{"BTC/USDT"},
			timeframes:  []string{"1h"},
			tradingMode: "spot",
			want: []string{
				filepath.Join("_common_data", "spot", "BTC_USDT-1h-spot.feather"),
			},
		},
		{
			name:        "futures adds mark and funding series",
			pairs:       []string{"ETH/USDT:USDT"},
			timeframes:  []string{"4h"},
			tradingMode: "futures",
			want: []string{
				filepath.Join("_common_data", "futures", "ETH_USDT_USDT-4h-futures.feather"),
				filepath.Join("_common_data", "futures", "ETH_USDT_USDT-8h-mark.feather"),
				filepath.Join("_common_data", "futures", "ETH_USDT_USDT-8h-funding_rate.feather"),
			},
		},
		{
			name:        "pair and timeframe cross product",
			pairs:       []string{"BTC/USDT", "SOL/USDT"},
			timeframes:  []string{"5m", "1h"},
			tradingMode: "spot",
			want: []string{
				filepath.Join("_common_data", "spot", "BTC_USDT-5m-spot.feather"),
				filepath.Join("_common_data", "spot", "BTC_USDT-1h-spot.feather"),
				filepath.Join("_common_data", "spot", "SOL_USDT-5m-spot.feather"),
				filepath.Join("_common_data", "spot", "SOL_USDT-1h-spot.feather"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, expectedDataFiles(tt.pairs, tt.timeframes, tt.tradingMode))
		})
	}
}

func TestFormatPair(t *testing.T) {
	assert.Equal(t, "BTC_USDT", formatPair("BTC/USDT"))
	assert.Equal(t, "BTC_USDT_USDT", formatPair("BTC/USDT:USDT"))
	assert.Equal(t, "DOGE", formatPair("DOGE"))
}

type marketDataFixture struct {
	executor *mocks.MockExecutor
	dataDir  string
	service  *MarketDataService
}

func newMarketDataFixture(t *testing.T, opts MarketDataServiceOptions) *marketDataFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	f := &marketDataFixture{
		executor: mocks.NewMockExecutor(ctrl),
		dataDir:  t.TempDir(),
	}
	opts.Executor = f.executor
	opts.DataDir = f.dataDir
	f.service = NewMarketDataService(opts)
	return f
}

func (f *marketDataFixture) touch(t *testing.T, rel string) {
	t.Helper()
	path := filepath.Join(f.dataDir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func spotStrategy() *model.Strategy {
	return &model.Strategy{
		ID:         9,
		Name:       "MomentumStrategy",
		File:       "MomentumStrategy.py",
		Pairs:      []string{"BTC/USDT"},
		Timeframes: []string{"1h"},
	}
}

func TestMarketDataEnsure(t *testing.T) {
	t.Run("downloads missing files", func(t *testing.T) {
		f := newMarketDataFixture(t, MarketDataServiceOptions{
			Exchange:    "binance",
			TradingMode: "spot",
		})
		f.executor.EXPECT().DownloadData(gomock.Any(), core.DownloadSpec{
			UserRef:     "clerk_abc",
			Exchange:    "binance",
			TradingMode: "spot",
			Pairs:       []string{"BTC/USDT"},
			Timeframes:  []string{"1h"},
			DateRange:   "20240101-20240131",
		}).DoAndReturn(func(context.Context, core.DownloadSpec) error {
			f.touch(t, filepath.Join("_common_data", "spot", "BTC_USDT-1h-spot.feather"))
			return nil
		})

		err := f.service.Ensure(context.Background(), "clerk_abc", spotStrategy(), "20240101-20240131")
		require.NoError(t, err)
	})

	t.Run("skips download when all files present", func(t *testing.T) {
		f := newMarketDataFixture(t, MarketDataServiceOptions{TradingMode: "spot"})
		f.touch(t, filepath.Join("_common_data", "spot", "BTC_USDT-1h-spot.feather"))

		// No DownloadData expectation: the cache hit must avoid the engine.
		err := f.service.Ensure(context.Background(), "clerk_abc", spotStrategy(), "20240101-20240131")
		require.NoError(t, err)
	})

	t.Run("falls back to configured defaults", func(t *testing.T) {
		f := newMarketDataFixture(t, MarketDataServiceOptions{
			TradingMode:       "spot",
			DefaultPairs:      []string{"ETH/USDT"},
			DefaultTimeframes: []string{"5m"},
		})
		bare := &model.Strategy{ID: 9, Name: "Bare", File: "Bare.py"}
		f.executor.EXPECT().DownloadData(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, spec core.DownloadSpec) error {
				assert.Equal(t, []string{"ETH/USDT"}, spec.Pairs)
				assert.Equal(t, []string{"5m"}, spec.Timeframes)
				f.touch(t, filepath.Join("_common_data", "spot", "ETH_USDT-5m-spot.feather"))
				return nil
			})

		require.NoError(t, f.service.Ensure(context.Background(), "clerk_abc", bare, "20240101-20240131"))
	})

	t.Run("no pairs anywhere is a data preparation error", func(t *testing.T) {
		f := newMarketDataFixture(t, MarketDataServiceOptions{TradingMode: "spot"})
		bare := &model.Strategy{ID: 9, Name: "Bare", File: "Bare.py"}

		err := f.service.Ensure(context.Background(), "clerk_abc", bare, "20240101-20240131")
		require.Error(t, err)
		assert.True(t, apperrors.IsDataPreparation(err))
	})

	t.Run("download failure is a data preparation error", func(t *testing.T) {
		f := newMarketDataFixture(t, MarketDataServiceOptions{TradingMode: "spot"})
		execErr := apperrors.Execution(apperrors.CauseNonZeroExit, "engine exited with code 2", nil)
		f.executor.EXPECT().DownloadData(gomock.Any(), gomock.Any()).Return(execErr)

		err := f.service.Ensure(context.Background(), "clerk_abc", spotStrategy(), "20240101-20240131")
		require.Error(t, err)
		assert.True(t, apperrors.IsDataPreparation(err))
		assert.ErrorIs(t, err, execErr)
	})

	t.Run("files still missing after download", func(t *testing.T) {
		f := newMarketDataFixture(t, MarketDataServiceOptions{TradingMode: "futures"})
		futures := &model.Strategy{
			ID: 9, Name: "Perp", File: "Perp.py",
			Pairs: []string{"BTC/USDT:USDT"}, Timeframes: []string{"1h"},
		}
		// The download "succeeds" but only produces the candle file, not the
		// futures mark and funding series.
		f.executor.EXPECT().DownloadData(gomock.Any(), gomock.Any()).
			DoAndReturn(func(context.Context, core.DownloadSpec) error {
				f.touch(t, filepath.Join("_common_data", "futures", "BTC_USDT_USDT-1h-futures.feather"))
				return nil
			})

		err := f.service.Ensure(context.Background(), "clerk_abc", futures, "20240101-20240131")
		require.Error(t, err)
		assert.True(t, apperrors.IsDataPreparation(err))
		assert.Contains(t, err.Error(), "BTC_USDT_USDT-8h-mark.feather")
	})
}
