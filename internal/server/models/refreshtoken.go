package models

import "time"

// RefreshToken is a ledger row for an issued refresh token, keyed by the
// token's jti. A token is valid for rotation only while its row exists.
type RefreshToken struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}
