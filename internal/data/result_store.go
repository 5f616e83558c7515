package data

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gentrade/gentrade-api/internal/core"
	"github.com/gentrade/gentrade-api/internal/domain/model"
)

// RedisResultStore caches backtest status transitions and result summaries
// in Redis. The backtests table stays authoritative; entries here only save
// pollers a database round trip and expire on their own.
type RedisResultStore struct {
	client redis.UniversalClient
}

// NewRedisResultStore creates a RedisResultStore with the given Redis client.
func NewRedisResultStore(client redis.UniversalClient) *RedisResultStore {
	return &RedisResultStore{client: client}
}

var _ core.ResultStore = (*RedisResultStore)(nil)

func statusKey(backtestID int64) string {
	return "backtest:status:" + strconv.FormatInt(backtestID, 10)
}

func summaryKey(backtestID int64) string {
	return "backtest:summary:" + strconv.FormatInt(backtestID, 10)
}

// SetStatus records the latest observed status for a backtest.
func (s *RedisResultStore) SetStatus(ctx context.Context, backtestID int64, status model.BacktestStatus, ttl time.Duration) error {
	if backtestID <= 0 {
		return stderrors.New("backtest id is required")
	}
	if err := s.client.Set(ctx, statusKey(backtestID), string(status), ttl).Err(); err != nil {
		return fmt.Errorf("redis set status: %w", err)
	}
	return nil
}

// GetStatus returns the cached status, or empty string if none is cached.
func (s *RedisResultStore) GetStatus(ctx context.Context, backtestID int64) (model.BacktestStatus, error) {
	raw, err := s.client.Get(ctx, statusKey(backtestID)).Result()
	if err != nil {
		if stderrors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("redis get status: %w", err)
	}
	return model.BacktestStatus(raw), nil
}

// SetSummary records the parsed result digest for a finished backtest.
func (s *RedisResultStore) SetSummary(ctx context.Context, backtestID int64, summary *model.BacktestSummary, ttl time.Duration) error {
	if backtestID <= 0 {
		return stderrors.New("backtest id is required")
	}
	if summary == nil {
		return stderrors.New("summary is required")
	}
	body, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	if err := s.client.Set(ctx, summaryKey(backtestID), body, ttl).Err(); err != nil {
		return fmt.Errorf("redis set summary: %w", err)
	}
	return nil
}

// GetSummary returns the cached summary, or nil if none is cached.
func (s *RedisResultStore) GetSummary(ctx context.Context, backtestID int64) (*model.BacktestSummary, error) {
	raw, err := s.client.Get(ctx, summaryKey(backtestID)).Bytes()
	if err != nil {
		if stderrors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get summary: %w", err)
	}
	var summary model.BacktestSummary
	if err := json.Unmarshal(raw, &summary); err != nil {
		return nil, fmt.Errorf("decode summary: %w", err)
	}
	return &summary, nil
}
