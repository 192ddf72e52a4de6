package models

import "time"

// Account is a principal that can hold a session. RefreshToken is the single
// refresh token currently honoured for the account; empty until the first
// issuance.
type Account struct {
	ID           int64
	RefreshToken string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
