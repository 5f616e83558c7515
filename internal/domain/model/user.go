package model

import "time"

// User is an internal user record. The external identity provider's subject
// id (ClerkID) is the principal identifier carried by API callers and broker
// messages; it also names the user's engine sandbox directory.
type User struct {
	ID        int64     `json:"id"         db:"id"`
	ClerkID   string    `json:"clerk_id"   db:"clerk_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
