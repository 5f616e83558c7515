package testutil

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// CreateTestUser inserts a user row and returns its id.
func CreateTestUser(t TestingTB, db *sql.DB, clerkID string) int64 {
	t.Helper()

	if clerkID == "" {
		clerkID = fmt.Sprintf("clerk_%d", time.Now().UnixNano())
	}

	var id int64
	err := db.QueryRowContext(context.Background(), `
		INSERT INTO users (clerk_id) VALUES ($1) RETURNING id`, clerkID).Scan(&id)
	if err != nil {
		t.Fatalf("Failed to insert test user: %v", err)
	}
	return id
}

// TestStrategy describes a strategy row to seed.
type TestStrategy struct {
	UserID     int64
	Name       string
	File       string
	Code       string
	Pairs      []string
	Timeframes []string
}

// CreateTestStrategy inserts a strategy row and returns its id. Zero-valued
// fields get usable defaults.
func CreateTestStrategy(t TestingTB, db *sql.DB, s TestStrategy) int64 {
	t.Helper()

	if s.Name == "" {
		s.Name = fmt.Sprintf("strategy-%d", time.Now().UnixNano())
	}
	if s.File == "" {
		s.File = s.Name + ".py"
	}
	if s.Pairs == nil {
		s.Pairs = []string{"BTC/USDT"}
	}
	if s.Timeframes == nil {
		s.Timeframes = []string{"1h"}
	}

	pairs, err := json.Marshal(s.Pairs)
	if err != nil {
		t.Fatalf("Failed to encode pairs: %v", err)
	}
	timeframes, err := json.Marshal(s.Timeframes)
	if err != nil {
		t.Fatalf("Failed to encode timeframes: %v", err)
	}

	var id int64
	err = db.QueryRowContext(context.Background(), `
		INSERT INTO strategies (user_id, name, file, code, pairs, timeframes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		s.UserID, s.Name, s.File, s.Code, pairs, timeframes).Scan(&id)
	if err != nil {
		t.Fatalf("Failed to insert test strategy: %v", err)
	}
	return id
}
