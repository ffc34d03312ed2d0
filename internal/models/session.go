package models

import "time"

// RefreshToken is a stored refresh token. Only the SHA-256 hash of the
// token is persisted.
type RefreshToken struct {
	ID         int64      `db:"id" json:"id"`
	UserID     int64      `db:"user_id" json:"user_id"`
	TokenHash  string     `db:"token_hash" json:"-"`
	DeviceType *string    `db:"device_type" json:"device_type,omitempty"`
	IPAddress  *string    `db:"ip_address" json:"ip_address,omitempty"`
	UserAgent  *string    `db:"user_agent" json:"user_agent,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	ExpiresAt  time.Time  `db:"expires_at" json:"expires_at"`
	Revoked    bool       `db:"revoked" json:"revoked"`
	RevokedAt  *time.Time `db:"revoked_at" json:"revoked_at,omitempty"`
}

// ClientMeta describes the client a session was opened from
type ClientMeta struct {
	DeviceType string
	IPAddress  string
	UserAgent  string
}

// LogoutRequest revokes a refresh token
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}
