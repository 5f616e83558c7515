package engine

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gentrade/gentrade-api/internal/core"
	apperrors "github.com/gentrade/gentrade-api/internal/errors"
)

type stubCommander struct {
	name   string
	args   []string
	stdout []byte
	stderr []byte
	err    error
	// onRun lets tests create artifacts or block until the context expires.
	onRun func(ctx context.Context, args []string)
}

func (s *stubCommander) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	s.name = name
	s.args = args
	if s.onRun != nil {
		s.onRun(ctx, args)
	}
	return s.stdout, s.stderr, s.err
}

func newTestRunner(t *testing.T, cmd *stubCommander) (*ComposeRunner, string) {
	t.Helper()
	dataDir := t.TempDir()
	runner, err := NewComposeRunner(ComposeRunnerOptions{
		DataDir:   dataDir,
		Commander: cmd,
	})
	require.NoError(t, err)
	return runner, dataDir
}

func backtestSpec() core.BacktestSpec {
	return core.BacktestSpec{
		UserRef:     "clerk_abc",
		StrategyRef: "MomentumStrategy",
		DateRange:   "20240101-20240131",
	}
}

// artifactFor extracts the export filename from the recorded args and
// creates it where the runner expects it.
func artifactFor(t *testing.T, dataDir, userRef string, args []string) {
	t.Helper()
	var name string
	for i, arg := range args {
		if arg == "--export-filename" && i+1 < len(args) {
			name = args[i+1]
		}
	}
	require.NotEmpty(t, name, "expected --export-filename in args")
	dir := filepath.Join(dataDir, userRef, "user_data")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0o644))
}

func TestBacktestBuildsComposeCommand(t *testing.T) {
	cmd := &stubCommander{}
	runner, dataDir := newTestRunner(t, cmd)
	cmd.onRun = func(_ context.Context, args []string) {
		artifactFor(t, dataDir, "clerk_abc", args)
	}

	artifact, err := runner.Backtest(context.Background(), backtestSpec())
	require.NoError(t, err)

	assert.Equal(t, "docker", cmd.name)
	joined := strings.Join(cmd.args, " ")
	assert.Contains(t, joined, "compose -f "+filepath.Join(dataDir, "clerk_abc", "docker-compose.yml"))
	assert.Contains(t, joined, "run --rm freqtrade backtesting")
	assert.Contains(t, joined, "--strategy MomentumStrategy")
	assert.Contains(t, joined, "--timerange 20240101-20240131")
	assert.Contains(t, joined, "--export json")

	assert.True(t, strings.HasPrefix(filepath.Base(artifact), "backtest_"))
	assert.True(t, strings.HasSuffix(artifact, ".json"))
	_, statErr := os.Stat(artifact)
	assert.NoError(t, statErr)
}

func TestBacktestMissingArtifact(t *testing.T) {
	cmd := &stubCommander{}
	runner, _ := newTestRunner(t, cmd)

	_, err := runner.Backtest(context.Background(), backtestSpec())
	require.Error(t, err)
	assert.True(t, apperrors.IsExecution(err))
	assert.Equal(t, apperrors.CauseMissingArtifact, apperrors.GetExecutionCause(err))
}

func TestBacktestTimeout(t *testing.T) {
	cmd := &stubCommander{err: context.DeadlineExceeded}
	runner, _ := newTestRunner(t, cmd)

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	_, err := runner.Backtest(ctx, backtestSpec())
	require.Error(t, err)
	assert.Equal(t, apperrors.CauseTimeout, apperrors.GetExecutionCause(err))
}

func TestBacktestRuntimeUnavailable(t *testing.T) {
	t.Run("binary missing", func(t *testing.T) {
		cmd := &stubCommander{err: exec.ErrNotFound}
		runner, _ := newTestRunner(t, cmd)

		_, err := runner.Backtest(context.Background(), backtestSpec())
		require.Error(t, err)
		assert.Equal(t, apperrors.CauseRuntimeUnavailable, apperrors.GetExecutionCause(err))
	})

	t.Run("daemon unreachable", func(t *testing.T) {
		cmd := &stubCommander{
			err:    errors.New("exit status 1"),
			stderr: []byte("Cannot connect to the Docker daemon at unix:///var/run/docker.sock"),
		}
		runner, _ := newTestRunner(t, cmd)

		_, err := runner.Backtest(context.Background(), backtestSpec())
		require.Error(t, err)
		assert.Equal(t, apperrors.CauseRuntimeUnavailable, apperrors.GetExecutionCause(err))
	})
}

func TestBacktestNonZeroExit(t *testing.T) {
	cmd := &stubCommander{
		err:    &exec.ExitError{},
		stderr: []byte("freqtrade.exceptions.OperationalException: No data found"),
	}
	runner, _ := newTestRunner(t, cmd)

	_, err := runner.Backtest(context.Background(), backtestSpec())
	require.Error(t, err)
	assert.Equal(t, apperrors.CauseNonZeroExit, apperrors.GetExecutionCause(err))
	assert.Contains(t, err.Error(), "No data found")
}

func TestBacktestValidatesSpec(t *testing.T) {
	runner, _ := newTestRunner(t, &stubCommander{})

	_, err := runner.Backtest(context.Background(), core.BacktestSpec{})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestDownloadDataBuildsComposeCommand(t *testing.T) {
	cmd := &stubCommander{}
	runner, _ := newTestRunner(t, cmd)

	err := runner.DownloadData(context.Background(), core.DownloadSpec{
		UserRef:     "clerk_abc",
		Exchange:    "binance",
		TradingMode: "futures",
		Pairs:       []string{"BTC/USDT:USDT", "ETH/USDT:USDT"},
		Timeframes:  []string{"5m", "1h"},
		DateRange:   "20240101-20240131",
	})
	require.NoError(t, err)

	joined := strings.Join(cmd.args, " ")
	assert.Contains(t, joined, "download-data")
	assert.Contains(t, joined, "--exchange binance")
	assert.Contains(t, joined, "--trading-mode futures")
	assert.Contains(t, joined, "--pairs BTC/USDT:USDT ETH/USDT:USDT")
	assert.Contains(t, joined, "--timeframes 5m 1h")
}

func TestDownloadDataValidatesSpec(t *testing.T) {
	runner, _ := newTestRunner(t, &stubCommander{})

	err := runner.DownloadData(context.Background(), core.DownloadSpec{
		UserRef:   "clerk_abc",
		DateRange: "20240101-",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}
