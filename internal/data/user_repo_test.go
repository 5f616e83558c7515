package data

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gentrade/gentrade-api/internal/errors"
	"github.com/gentrade/gentrade-api/internal/testutil"
)

func TestUserRepo_GetByID(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewUserRepo(db)

		userID := testutil.CreateTestUser(t, db, "clerk_get_by_id")

		got, err := repo.GetByID(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, userID, got.ID)
		assert.Equal(t, "clerk_get_by_id", got.ClerkID)

		_, err = repo.GetByID(ctx, 999999)
		require.Error(t, err)
		assert.True(t, errors.IsNotFound(err))
	})
}

func TestUserRepo_GetByClerkID(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewUserRepo(db)

		userID := testutil.CreateTestUser(t, db, "clerk_lookup")

		got, err := repo.GetByClerkID(ctx, "clerk_lookup")
		require.NoError(t, err)
		assert.Equal(t, userID, got.ID)

		_, err = repo.GetByClerkID(ctx, "clerk_unknown")
		require.Error(t, err)
		assert.True(t, errors.IsNotFound(err))
	})
}
