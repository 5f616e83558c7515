package model

import "time"

// Strategy is the executable trading strategy a backtest runs against.
// Strategies are owned by users; the worker only reads them to resolve
// ownership and to obtain the execution reference.
type Strategy struct {
	ID         int64     `json:"id"         db:"id"`
	UserID     int64     `json:"user_id"    db:"user_id"`
	Name       string    `json:"name"       db:"name"`
	File       string    `json:"file"       db:"file"`
	Code       string    `json:"code"       db:"code"`
	Pairs      []string  `json:"pairs"      db:"pairs"`
	Timeframes []string  `json:"timeframes" db:"timeframes"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}
