// Package engine invokes the containerized trading engine through the
// compose CLI of each user's execution sandbox.
package engine

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gentrade/gentrade-api/internal/core"
	"github.com/gentrade/gentrade-api/internal/errors"
)

// stderr is truncated to this many trailing bytes when recorded as a
// failure cause.
const maxStderrBytes = 2 * 1024

// commander runs one external command to completion. It exists so tests can
// intercept the container CLI.
type commander interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execCommander struct{}

func (execCommander) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	err := cmd.Run()
	return outBuf.Bytes(), errBuf.Bytes(), err
}

// ComposeRunnerOptions configures the engine adapter.
type ComposeRunnerOptions struct {
	// DataDir is the root directory holding per-user sandboxes.
	DataDir string
	// Binary is the container CLI; defaults to docker.
	Binary string
	// Service is the compose service running the engine; defaults to freqtrade.
	Service string

	Logger *slog.Logger
	// Commander overrides process execution (tests).
	Commander commander
}

// ComposeRunner executes the trading engine via `docker compose run` using
// the docker-compose.yml provisioned in each user's sandbox. It performs no
// retries; retry policy belongs to the caller.
type ComposeRunner struct {
	dataDir string
	binary  string
	service string
	logger  *slog.Logger
	cmd     commander
}

var _ core.Executor = (*ComposeRunner)(nil)

// NewComposeRunner constructs the adapter.
func NewComposeRunner(opts ComposeRunnerOptions) (*ComposeRunner, error) {
	if opts.DataDir == "" {
		return nil, stderrors.New("data dir is required")
	}
	binary := opts.Binary
	if binary == "" {
		binary = "docker"
	}
	service := opts.Service
	if service == "" {
		service = "freqtrade"
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cmd := opts.Commander
	if cmd == nil {
		cmd = execCommander{}
	}
	return &ComposeRunner{
		dataDir: opts.DataDir,
		binary:  binary,
		service: service,
		logger:  logger.With("component", "engine"),
		cmd:     cmd,
	}, nil
}

func (r *ComposeRunner) userDir(userRef string) string {
	return filepath.Join(r.dataDir, userRef)
}

func (r *ComposeRunner) composeArgs(userRef string, engineArgs ...string) []string {
	args := []string{
		"compose",
		"-f", filepath.Join(r.userDir(userRef), "docker-compose.yml"),
		"run", "--rm", r.service,
	}
	return append(args, engineArgs...)
}

// Backtest runs the engine's backtesting command and returns the path of the
// exported result artifact.
func (r *ComposeRunner) Backtest(ctx context.Context, spec core.BacktestSpec) (string, error) {
	if spec.UserRef == "" || spec.StrategyRef == "" || spec.DateRange == "" {
		return "", errors.Validation("user ref, strategy ref and date range are required")
	}

	artifactName := fmt.Sprintf("backtest_%s.json", uuid.NewString())
	args := r.composeArgs(spec.UserRef,
		"backtesting",
		"--userdir", "user_data",
		"--strategy", spec.StrategyRef,
		"--timerange", spec.DateRange,
		"--export", "json",
		"--export-filename", artifactName,
	)

	start := time.Now()
	r.logger.InfoContext(ctx, "starting engine backtest",
		"user", spec.UserRef, "strategy", spec.StrategyRef, "timerange", spec.DateRange)

	_, stderr, err := r.cmd.Run(ctx, r.binary, args...)
	if err != nil {
		return "", r.classify(ctx, err, stderr)
	}

	artifactPath := filepath.Join(r.userDir(spec.UserRef), "user_data", artifactName)
	if _, statErr := os.Stat(artifactPath); statErr != nil {
		return "", errors.Execution(errors.CauseMissingArtifact,
			fmt.Sprintf("engine exited cleanly but produced no artifact at %s", artifactPath), statErr)
	}

	r.logger.InfoContext(ctx, "engine backtest finished",
		"user", spec.UserRef, "artifact", artifactPath, "duration", time.Since(start))
	return artifactPath, nil
}

// DownloadData runs the engine's download-data command for the given pairs
// and timeframes.
func (r *ComposeRunner) DownloadData(ctx context.Context, spec core.DownloadSpec) error {
	if spec.UserRef == "" || spec.DateRange == "" {
		return errors.Validation("user ref and date range are required")
	}
	if len(spec.Pairs) == 0 || len(spec.Timeframes) == 0 {
		return errors.Validation("pairs and timeframes are required")
	}

	args := r.composeArgs(spec.UserRef,
		"download-data",
		"--userdir", "user_data",
		"--exchange", spec.Exchange,
		"--trading-mode", spec.TradingMode,
		"--timerange", spec.DateRange,
	)
	args = append(args, "--pairs")
	args = append(args, spec.Pairs...)
	args = append(args, "--timeframes")
	args = append(args, spec.Timeframes...)

	r.logger.InfoContext(ctx, "starting market data download",
		"user", spec.UserRef, "pairs", spec.Pairs, "timeframes", spec.Timeframes, "timerange", spec.DateRange)

	if _, stderr, err := r.cmd.Run(ctx, r.binary, args...); err != nil {
		return r.classify(ctx, err, stderr)
	}
	return nil
}

// classify maps a process failure to the execution error taxonomy.
func (r *ComposeRunner) classify(ctx context.Context, err error, stderr []byte) error {
	tail := stderrTail(stderr)

	if ctx.Err() != nil && stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errors.Execution(errors.CauseTimeout, "engine run exceeded its time limit", err)
	}
	if stderrors.Is(err, exec.ErrNotFound) {
		return errors.Execution(errors.CauseRuntimeUnavailable,
			fmt.Sprintf("container CLI %q not found", r.binary), err)
	}
	if daemonUnreachable(tail) {
		return errors.Execution(errors.CauseRuntimeUnavailable, "container runtime is unreachable", err)
	}

	var exitErr *exec.ExitError
	if stderrors.As(err, &exitErr) {
		msg := fmt.Sprintf("engine exited with code %d", exitErr.ExitCode())
		if tail != "" {
			msg += ": " + tail
		}
		return errors.Execution(errors.CauseNonZeroExit, msg, err)
	}
	return errors.Execution(errors.CauseRuntimeUnavailable, "engine invocation failed", err)
}

func stderrTail(stderr []byte) string {
	if len(stderr) > maxStderrBytes {
		stderr = stderr[len(stderr)-maxStderrBytes:]
	}
	return strings.TrimSpace(string(stderr))
}

func daemonUnreachable(stderr string) bool {
	lower := strings.ToLower(stderr)
	return strings.Contains(lower, "cannot connect to the docker daemon") ||
		strings.Contains(lower, "docker daemon is not running") ||
		strings.Contains(lower, "error during connect")
}
