package models

import "time"

// RevokedToken is a token id that must no longer be accepted before its natural expiry
type RevokedToken struct {
	JTI       string    `json:"jti"`
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
}
