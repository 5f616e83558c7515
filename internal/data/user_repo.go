package data

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"

	"github.com/gentrade/gentrade-api/internal/domain/model"
	"github.com/gentrade/gentrade-api/internal/errors"
)

// UserRepo provides read access to user rows for principal resolution.
type UserRepo struct {
	q querier
}

// NewUserRepo creates a UserRepo over the given querier.
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{q: db}
}

func (r *UserRepo) scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.ClerkID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByID returns a user by internal id.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT id, clerk_id, created_at, updated_at
		FROM users
		WHERE id = $1`, id)
	u, err := r.scanUser(row)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFoundf("user %d not found", id)
		}
		return nil, errors.MapDBError(fmt.Errorf("get user: %w", err))
	}
	return u, nil
}

// GetByClerkID returns a user by the external identity provider's subject id.
func (r *UserRepo) GetByClerkID(ctx context.Context, clerkID string) (*model.User, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT id, clerk_id, created_at, updated_at
		FROM users
		WHERE clerk_id = $1`, clerkID)
	u, err := r.scanUser(row)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFoundf("user %s not found", clerkID)
		}
		return nil, errors.MapDBError(fmt.Errorf("get user by clerk id: %w", err))
	}
	return u, nil
}
