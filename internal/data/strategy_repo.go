package data

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/gentrade/gentrade-api/internal/domain/model"
	"github.com/gentrade/gentrade-api/internal/errors"
)

// StrategyRepo provides read access to strategy rows. Strategy mutation
// lives in the out-of-scope CRUD service; the execution core only resolves
// ownership and execution references.
type StrategyRepo struct {
	q querier
}

// NewStrategyRepo creates a StrategyRepo over the given querier.
func NewStrategyRepo(db *sql.DB) *StrategyRepo {
	return &StrategyRepo{q: db}
}

// GetByID returns a strategy by id.
func (r *StrategyRepo) GetByID(ctx context.Context, id int64) (*model.Strategy, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT id, user_id, name, file, code, pairs, timeframes, created_at, updated_at
		FROM strategies
		WHERE id = $1`, id)

	var (
		strat      model.Strategy
		pairs      []byte
		timeframes []byte
	)
	err := row.Scan(
		&strat.ID,
		&strat.UserID,
		&strat.Name,
		&strat.File,
		&strat.Code,
		&pairs,
		&timeframes,
		&strat.CreatedAt,
		&strat.UpdatedAt,
	)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFoundf("strategy %d not found", id)
		}
		return nil, errors.MapDBError(fmt.Errorf("get strategy: %w", err))
	}

	if len(pairs) > 0 {
		if err := json.Unmarshal(pairs, &strat.Pairs); err != nil {
			return nil, fmt.Errorf("decode strategy pairs: %w", err)
		}
	}
	if len(timeframes) > 0 {
		if err := json.Unmarshal(timeframes, &strat.Timeframes); err != nil {
			return nil, fmt.Errorf("decode strategy timeframes: %w", err)
		}
	}
	return &strat, nil
}
