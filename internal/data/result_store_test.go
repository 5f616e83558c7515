package data

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gentrade/gentrade-api/internal/domain/model"
	"github.com/gentrade/gentrade-api/internal/testutil"
)

func TestRedisResultStore_Status(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	store := NewRedisResultStore(client)
	ctx := context.Background()

	// Cache miss reads as empty, not as an error.
	status, err := store.GetStatus(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, model.BacktestStatus(""), status)

	require.NoError(t, store.SetStatus(ctx, 42, model.BacktestStatusRunning, time.Minute))

	status, err = store.GetStatus(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, model.BacktestStatusRunning, status)
}

func TestRedisResultStore_Summary(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	store := NewRedisResultStore(client)
	ctx := context.Background()

	summary, err := store.GetSummary(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, summary)

	want := &model.BacktestSummary{TotalTrades: 12, ProfitTotal: 0.034, Wins: 7, Losses: 5}
	require.NoError(t, store.SetSummary(ctx, 42, want, time.Minute))

	summary, err = store.GetSummary(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, want, summary)
}

func TestRedisResultStore_Validation(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	store := NewRedisResultStore(client)
	ctx := context.Background()

	assert.Error(t, store.SetStatus(ctx, 0, model.BacktestStatusRunning, time.Minute))
	assert.Error(t, store.SetSummary(ctx, 0, &model.BacktestSummary{}, time.Minute))
	assert.Error(t, store.SetSummary(ctx, 42, nil, time.Minute))
}
