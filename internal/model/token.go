package model

import "time"

// TokenData contains the data stored with a session token.
type TokenData struct {
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"` // buyer, seller, editor, admin
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
