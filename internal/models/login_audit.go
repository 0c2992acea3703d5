package models

import "time"

// LoginAttempt is an append-only record of one login attempt
type LoginAttempt struct {
	ID int
	// Identifier is the raw username or email the caller typed
	Identifier string
	// UserID is nil when the identifier matched no account
	UserID    *int
	Success   bool
	IP        string
	UserAgent string
	CreatedAt time.Time
}
