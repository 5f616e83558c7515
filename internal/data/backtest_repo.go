package data

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"

	"github.com/gentrade/gentrade-api/internal/domain/model"
	"github.com/gentrade/gentrade-api/internal/errors"
)

const backtestColumns = `
  id,
  strategy_id,
  date_range,
  status,
  file,
  error,
  created_at,
  updated_at
`

// BacktestRepo provides database operations for backtest job rows.
type BacktestRepo struct {
	q querier
}

// NewBacktestRepo creates a BacktestRepo over the given querier. Most code
// obtains one through a transactional scope instead.
func NewBacktestRepo(db *sql.DB) *BacktestRepo {
	return &BacktestRepo{q: db}
}

func scanBacktest(row *sql.Row) (*model.Backtest, error) {
	var bt model.Backtest
	err := row.Scan(
		&bt.ID,
		&bt.StrategyID,
		&bt.DateRange,
		&bt.Status,
		&bt.File,
		&bt.Error,
		&bt.CreatedAt,
		&bt.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &bt, nil
}

// Insert creates a new backtest row with status created and server-assigned
// timestamps.
func (r *BacktestRepo) Insert(ctx context.Context, req *model.CreateBacktestRequest) (*model.Backtest, error) {
	if req == nil {
		return nil, stderrors.New("create backtest request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, errors.Validation(err.Error())
	}

	row := r.q.QueryRowContext(ctx, `
		INSERT INTO backtests (strategy_id, date_range, status)
		VALUES ($1, $2, $3)
		RETURNING `+backtestColumns,
		req.StrategyID, req.DateRange, model.BacktestStatusCreated,
	)
	bt, err := scanBacktest(row)
	if err != nil {
		return nil, errors.MapDBError(fmt.Errorf("insert backtest: %w", err))
	}
	return bt, nil
}

// GetByID returns a backtest by id.
func (r *BacktestRepo) GetByID(ctx context.Context, id int64) (*model.Backtest, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT `+backtestColumns+`
		FROM backtests
		WHERE id = $1`, id)
	bt, err := scanBacktest(row)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFoundf("backtest %d not found", id)
		}
		return nil, errors.MapDBError(fmt.Errorf("get backtest: %w", err))
	}
	return bt, nil
}

// UpdateStatus advances a row from one specific status to the next. The
// WHERE guard makes the update a no-op when a concurrent writer (or an
// earlier crash) already moved the row; callers decide what a false return
// means.
func (r *BacktestRepo) UpdateStatus(ctx context.Context, id int64, from, to model.BacktestStatus) (bool, error) {
	if !from.CanTransitionTo(to) {
		return false, errors.Validationf("illegal status transition %s -> %s", from, to)
	}

	res, err := r.q.ExecContext(ctx, `
		UPDATE backtests
		SET status = $3, updated_at = now()
		WHERE id = $1 AND status = $2`,
		id, from, to,
	)
	if err != nil {
		return false, errors.MapDBError(fmt.Errorf("update backtest status: %w", err))
	}
	return affected(res)
}

// MarkFinished stamps the artifact path and the finished status on a row
// still in running status.
func (r *BacktestRepo) MarkFinished(ctx context.Context, id int64, artifactPath string) (bool, error) {
	if artifactPath == "" {
		return false, errors.Validation("artifact path is required")
	}

	res, err := r.q.ExecContext(ctx, `
		UPDATE backtests
		SET status = $2, file = $3, error = NULL, updated_at = now()
		WHERE id = $1 AND status = $4`,
		id, model.BacktestStatusFinished, artifactPath, model.BacktestStatusRunning,
	)
	if err != nil {
		return false, errors.MapDBError(fmt.Errorf("mark backtest finished: %w", err))
	}
	return affected(res)
}

// MarkFailed records the failure cause on any non-terminal row. Terminal
// rows are left untouched so a redelivered job cannot clobber an earlier
// outcome.
func (r *BacktestRepo) MarkFailed(ctx context.Context, id int64, cause string) (bool, error) {
	res, err := r.q.ExecContext(ctx, `
		UPDATE backtests
		SET status = $2, error = $3, updated_at = now()
		WHERE id = $1 AND status NOT IN ($4, $5)`,
		id, model.BacktestStatusFailed, cause,
		model.BacktestStatusFinished, model.BacktestStatusFailed,
	)
	if err != nil {
		return false, errors.MapDBError(fmt.Errorf("mark backtest failed: %w", err))
	}
	return affected(res)
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
