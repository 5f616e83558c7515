package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/gentrade/gentrade-api/internal/core"
	"github.com/gentrade/gentrade-api/internal/domain/model"
	apperrors "github.com/gentrade/gentrade-api/internal/errors"
	"github.com/gentrade/gentrade-api/internal/mocks"
)

type pipelineFixture struct {
	store      *stubStore
	backtests  *mocks.MockBacktestRepository
	strategies *mocks.MockStrategyRepository
	executor   *mocks.MockExecutor
	results    *mocks.MockResultStore
	dataDir    string
	pipeline   *BacktestPipeline
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	f := &pipelineFixture{
		backtests:  mocks.NewMockBacktestRepository(ctrl),
		strategies: mocks.NewMockStrategyRepository(ctrl),
		executor:   mocks.NewMockExecutor(ctrl),
		results:    mocks.NewMockResultStore(ctrl),
		dataDir:    t.TempDir(),
	}
	f.store = &stubStore{scope: &stubScope{
		backtests:  f.backtests,
		strategies: f.strategies,
	}}

	// Status cache writes are best-effort; most tests don't pin them down.
	f.results.EXPECT().SetStatus(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil).AnyTimes()

	parser, err := NewResultParser()
	require.NoError(t, err)

	marketData := NewMarketDataService(MarketDataServiceOptions{
		Executor:    f.executor,
		DataDir:     f.dataDir,
		Exchange:    "binance",
		TradingMode: "spot",
	})

	f.pipeline = NewBacktestPipeline(BacktestPipelineOptions{
		Store:      f.store,
		Executor:   f.executor,
		MarketData: marketData,
		Parser:     parser,
		Results:    f.results,
		ResultTTL:  time.Hour,
	})
	return f
}

func pipelineTask() model.BacktestTask {
	return model.BacktestTask{
		BacktestID:  42,
		StrategyID:  9,
		PrincipalID: "clerk_abc",
		DateRange:   "20240101-20240131",
	}
}

func pipelineStrategy() *model.Strategy {
	return &model.Strategy{
		ID:         9,
		UserID:     3,
		Name:       "MomentumStrategy",
		File:       "MomentumStrategy.py",
		Pairs:      []string{"BTC/USDT"},
		Timeframes: []string{"1h"},
	}
}

func (f *pipelineFixture) expectJob(status model.BacktestStatus) {
	f.backtests.EXPECT().GetByID(gomock.Any(), int64(42)).
		Return(&model.Backtest{ID: 42, StrategyID: 9, Status: status, DateRange: "20240101-20240131"}, nil)
	f.strategies.EXPECT().GetByID(gomock.Any(), int64(9)).
		Return(pipelineStrategy(), nil)
}

// touchMarketData drops the data file the strategy's pair and timeframe
// expect, simulating a successful download.
func (f *pipelineFixture) touchMarketData(t *testing.T) {
	t.Helper()
	dir := filepath.Join(f.dataDir, "_common_data", "spot")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "BTC_USDT-1h-spot.feather"), []byte("x"), 0o644))
}

func (f *pipelineFixture) writeArtifact(t *testing.T) string {
	t.Helper()
	path := filepath.Join(f.dataDir, "backtest_result.json")
	doc := `{"strategy": {"MomentumStrategy": {"total_trades": 12, "profit_total": 0.034, "wins": 7, "losses": 5}}}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

func TestPipelineHappyPath(t *testing.T) {
	f := newPipelineFixture(t)
	f.expectJob(model.BacktestStatusCreated)

	f.backtests.EXPECT().
		UpdateStatus(gomock.Any(), int64(42), model.BacktestStatusCreated, model.BacktestStatusDownloadingData).
		Return(true, nil)
	f.executor.EXPECT().DownloadData(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, core.DownloadSpec) error {
			f.touchMarketData(t)
			return nil
		})
	f.backtests.EXPECT().
		UpdateStatus(gomock.Any(), int64(42), model.BacktestStatusDownloadingData, model.BacktestStatusRunning).
		Return(true, nil)

	artifact := f.writeArtifact(t)
	f.executor.EXPECT().Backtest(gomock.Any(), core.BacktestSpec{
		UserRef:     "clerk_abc",
		StrategyRef: "MomentumStrategy",
		DateRange:   "20240101-20240131",
	}).Return(artifact, nil)

	f.backtests.EXPECT().MarkFinished(gomock.Any(), int64(42), artifact).Return(true, nil)
	f.results.EXPECT().
		SetSummary(gomock.Any(), int64(42), &model.BacktestSummary{
			TotalTrades: 12, ProfitTotal: 0.034, Wins: 7, Losses: 5,
		}, time.Hour).
		Return(nil)

	require.NoError(t, f.pipeline.Run(context.Background(), pipelineTask()))
}

func TestPipelineSkipsDownloadWhenDataPresent(t *testing.T) {
	f := newPipelineFixture(t)
	f.expectJob(model.BacktestStatusCreated)
	f.touchMarketData(t)

	f.backtests.EXPECT().
		UpdateStatus(gomock.Any(), int64(42), model.BacktestStatusCreated, model.BacktestStatusDownloadingData).
		Return(true, nil)
	f.backtests.EXPECT().
		UpdateStatus(gomock.Any(), int64(42), model.BacktestStatusDownloadingData, model.BacktestStatusRunning).
		Return(true, nil)

	artifact := f.writeArtifact(t)
	f.executor.EXPECT().Backtest(gomock.Any(), gomock.Any()).Return(artifact, nil)
	f.backtests.EXPECT().MarkFinished(gomock.Any(), int64(42), artifact).Return(true, nil)
	f.results.EXPECT().SetSummary(gomock.Any(), int64(42), gomock.Any(), time.Hour).Return(nil)

	require.NoError(t, f.pipeline.Run(context.Background(), pipelineTask()))
}

func TestPipelineDataPreparationFailure(t *testing.T) {
	f := newPipelineFixture(t)
	f.expectJob(model.BacktestStatusCreated)

	f.backtests.EXPECT().
		UpdateStatus(gomock.Any(), int64(42), model.BacktestStatusCreated, model.BacktestStatusDownloadingData).
		Return(true, nil)
	f.executor.EXPECT().DownloadData(gomock.Any(), gomock.Any()).
		Return(apperrors.Execution(apperrors.CauseNonZeroExit, "engine exited with code 2", nil))
	f.backtests.EXPECT().MarkFailed(gomock.Any(), int64(42), gomock.Any()).Return(true, nil)

	err := f.pipeline.Run(context.Background(), pipelineTask())
	require.Error(t, err)
	assert.True(t, apperrors.IsDataPreparation(err))
	// No Backtest expectation: the engine must never run without data.
}

func TestPipelineExecutionFailure(t *testing.T) {
	f := newPipelineFixture(t)
	f.expectJob(model.BacktestStatusCreated)
	f.touchMarketData(t)

	f.backtests.EXPECT().
		UpdateStatus(gomock.Any(), int64(42), model.BacktestStatusCreated, model.BacktestStatusDownloadingData).
		Return(true, nil)
	f.backtests.EXPECT().
		UpdateStatus(gomock.Any(), int64(42), model.BacktestStatusDownloadingData, model.BacktestStatusRunning).
		Return(true, nil)
	f.executor.EXPECT().Backtest(gomock.Any(), gomock.Any()).
		Return("", apperrors.Execution(apperrors.CauseTimeout, "engine run exceeded its time limit", nil))
	f.backtests.EXPECT().MarkFailed(gomock.Any(), int64(42), gomock.Any()).Return(true, nil)

	err := f.pipeline.Run(context.Background(), pipelineTask())
	require.Error(t, err)
	assert.Equal(t, apperrors.CauseTimeout, apperrors.GetExecutionCause(err))
}

func TestPipelineTerminalRedeliveryIsNoop(t *testing.T) {
	for _, status := range []model.BacktestStatus{
		model.BacktestStatusFinished,
		model.BacktestStatusFailed,
	} {
		t.Run(string(status), func(t *testing.T) {
			f := newPipelineFixture(t)
			f.expectJob(status)

			require.NoError(t, f.pipeline.Run(context.Background(), pipelineTask()))
		})
	}
}

func TestPipelineInterruptedRunFails(t *testing.T) {
	f := newPipelineFixture(t)
	f.expectJob(model.BacktestStatusRunning)
	f.backtests.EXPECT().MarkFailed(gomock.Any(), int64(42), gomock.Any()).Return(true, nil)

	err := f.pipeline.Run(context.Background(), pipelineTask())
	require.Error(t, err)
	assert.True(t, apperrors.IsExecution(err))
}

func TestPipelineResumesDataPreparation(t *testing.T) {
	f := newPipelineFixture(t)
	f.expectJob(model.BacktestStatusDownloadingData)
	f.touchMarketData(t)

	// No created->downloading transition: the row is already there.
	f.backtests.EXPECT().
		UpdateStatus(gomock.Any(), int64(42), model.BacktestStatusDownloadingData, model.BacktestStatusRunning).
		Return(true, nil)

	artifact := f.writeArtifact(t)
	f.executor.EXPECT().Backtest(gomock.Any(), gomock.Any()).Return(artifact, nil)
	f.backtests.EXPECT().MarkFinished(gomock.Any(), int64(42), artifact).Return(true, nil)
	f.results.EXPECT().SetSummary(gomock.Any(), int64(42), gomock.Any(), time.Hour).Return(nil)

	require.NoError(t, f.pipeline.Run(context.Background(), pipelineTask()))
}

func TestPipelineDeletedRowDropsMessage(t *testing.T) {
	f := newPipelineFixture(t)
	f.backtests.EXPECT().GetByID(gomock.Any(), int64(42)).
		Return(nil, apperrors.NotFoundf("backtest %d not found", 42))

	require.NoError(t, f.pipeline.Run(context.Background(), pipelineTask()))
}

func TestPipelineDeletedStrategyDropsMessage(t *testing.T) {
	f := newPipelineFixture(t)
	f.backtests.EXPECT().GetByID(gomock.Any(), int64(42)).
		Return(&model.Backtest{ID: 42, StrategyID: 9, Status: model.BacktestStatusCreated}, nil)
	f.strategies.EXPECT().GetByID(gomock.Any(), int64(9)).
		Return(nil, apperrors.NotFoundf("strategy %d not found", 9))

	// No MarkFailed expectation: a deleted strategy means there is nothing
	// left to run against, and the row it belonged to is gone with it.
	require.NoError(t, f.pipeline.Run(context.Background(), pipelineTask()))
}

func TestPipelineLostTransitionRaceBacksOff(t *testing.T) {
	f := newPipelineFixture(t)
	f.expectJob(model.BacktestStatusCreated)
	f.backtests.EXPECT().
		UpdateStatus(gomock.Any(), int64(42), model.BacktestStatusCreated, model.BacktestStatusDownloadingData).
		Return(false, nil)

	// Another worker advanced the row first; this delivery settles quietly.
	require.NoError(t, f.pipeline.Run(context.Background(), pipelineTask()))
}
