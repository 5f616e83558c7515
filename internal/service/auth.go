// Package service contains the application services orchestrating backtest
// submission, ownership checks, market data preparation, and the worker
// pipeline.
package service

import (
	"context"
	"strings"

	"github.com/gentrade/gentrade-api/internal/core"
	"github.com/gentrade/gentrade-api/internal/domain/model"
	apperrors "github.com/gentrade/gentrade-api/internal/errors"
)

// AuthService resolves calling principals and guards resource ownership.
// All lookups run on the repositories of an already open scope so the checks
// share the caller's transaction.
type AuthService struct{}

// NewAuthService constructs an AuthService.
func NewAuthService() *AuthService {
	return &AuthService{}
}

// ResolvePrincipal maps an external identity subject to the internal user
// record. A blank principal or an unknown subject yields an AuthRequired
// error; the two cases are indistinguishable to the caller.
func (s *AuthService) ResolvePrincipal(ctx context.Context, users core.UserRepository, principalID string) (*model.User, error) {
	if strings.TrimSpace(principalID) == "" {
		return nil, apperrors.AuthRequired("principal is required")
	}

	user, err := users.GetByClerkID(ctx, principalID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.AuthRequired("unknown principal")
		}
		return nil, err
	}
	return user, nil
}

// RequireStrategyOwner loads a strategy and verifies the user owns it. A
// missing strategy returns NotFound; a strategy owned by someone else
// returns Forbidden. The two outcomes are never conflated so callers can
// distinguish absent resources from denied ones.
func (s *AuthService) RequireStrategyOwner(ctx context.Context, strategies core.StrategyRepository, strategyID int64, user *model.User) (*model.Strategy, error) {
	if user == nil {
		return nil, apperrors.AuthRequired("principal is required")
	}

	strategy, err := strategies.GetByID(ctx, strategyID)
	if err != nil {
		return nil, err
	}
	if strategy.UserID != user.ID {
		return nil, apperrors.Forbiddenf("strategy %d does not belong to the caller", strategyID)
	}
	return strategy, nil
}
