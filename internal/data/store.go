// Package data implements the PostgreSQL repositories and the transactional
// scope they run in.
package data

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/gentrade/gentrade-api/internal/core"
	"github.com/gentrade/gentrade-api/internal/data/pgxutil"
)

// querier is the subset of database/sql shared by *sql.DB and *sql.Tx.
// Repositories run against it so the same code serves both scoped and
// unscoped reads.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store owns the process-wide connection pool and hands out transactional
// scopes. It holds no other mutable state; concurrent scopes each run on
// their own pooled connection.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewStore creates a Store over an open connection pool.
func NewStore(db *sql.DB, logger *slog.Logger) (*Store, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger.With("component", "store")}, nil
}

var _ core.ScopedStore = (*Store)(nil)

// WithScope runs fn inside one transaction. The scope commits when fn
// returns nil and rolls back otherwise; the error is returned unchanged.
// Calling WithScope from inside another scope opens a second, independent
// transaction.
func (s *Store) WithScope(ctx context.Context, fn func(core.Scope) error) error {
	return pgxutil.WithSQLTx(ctx, s.db, pgxutil.SQLTxConfig{
		Fn: func(tx *sql.Tx) error {
			return fn(&txScope{tx: tx})
		},
	})
}

// txScope binds the repositories to a single open transaction.
type txScope struct {
	tx *sql.Tx
}

var _ core.Scope = (*txScope)(nil)

func (s *txScope) Backtests() core.BacktestRepository {
	return &BacktestRepo{q: s.tx}
}

func (s *txScope) Strategies() core.StrategyRepository {
	return &StrategyRepo{q: s.tx}
}

func (s *txScope) Users() core.UserRepository {
	return &UserRepo{q: s.tx}
}
