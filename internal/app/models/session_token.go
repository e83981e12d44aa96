package models

import "time"

// SessionToken is one live authentication token row. TokenID is the random
// identifier presented by clients (the refresh token value, or the jti of
// an access token). Eviction and revocation hard-delete rows.
type SessionToken struct {
	ID        int64     `json:"id" db:"id"`
	TokenID   string    `json:"tokenId" db:"token_id"`
	UserID    int64     `json:"userId" db:"user_id"`
	Type      TokenType `json:"type" db:"token_type"`
	ExpiresAt time.Time `json:"expiresAt" db:"expires_at"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
