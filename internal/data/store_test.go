package data

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gentrade/gentrade-api/internal/core"
	"github.com/gentrade/gentrade-api/internal/domain/model"
	"github.com/gentrade/gentrade-api/internal/testutil"
)

func TestNewStoreRequiresDB(t *testing.T) {
	_, err := NewStore(nil, slog.Default())
	assert.Error(t, err)
}

func TestStoreWithScopeCommitsOnNil(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		ctx := context.Background()
		store, err := NewStore(db, slog.Default())
		require.NoError(t, err)

		strategyID := seedStrategy(t, db)

		var created *model.Backtest
		err = store.WithScope(ctx, func(scope core.Scope) error {
			created, err = scope.Backtests().Insert(ctx, &model.CreateBacktestRequest{
				StrategyID: strategyID,
				DateRange:  "20240101-20240131",
			})
			return err
		})
		require.NoError(t, err)
		require.NotNil(t, created)

		// Visible outside the scope after commit.
		got, err := NewBacktestRepo(db).GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
	})
}

func TestStoreWithScopeRollsBackOnError(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		ctx := context.Background()
		store, err := NewStore(db, slog.Default())
		require.NoError(t, err)

		strategyID := seedStrategy(t, db)
		boom := errors.New("boom")

		var created *model.Backtest
		err = store.WithScope(ctx, func(scope core.Scope) error {
			created, err = scope.Backtests().Insert(ctx, &model.CreateBacktestRequest{
				StrategyID: strategyID,
				DateRange:  "20240101-20240131",
			})
			require.NoError(t, err)
			return boom
		})
		require.ErrorIs(t, err, boom)

		// The insert must not survive the rollback.
		_, err = NewBacktestRepo(db).GetByID(ctx, created.ID)
		assert.Error(t, err)
	})
}
