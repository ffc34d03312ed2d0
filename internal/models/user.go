package models

import "time"

// User types. Creator accounts stay locked until an operator activates
// their unlock code.
const (
	UserTypeCreator  = "creator"
	UserTypeEmployee = "employee"
)

// User represents an application account
type User struct {
	ID           int64     `db:"id" json:"id"`
	Login        string    `db:"login" json:"login"`
	PasswordHash string    `db:"password_hash" json:"-"`
	UserType     string    `db:"user_type" json:"user_type"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// IsCreator reports whether the user has the creator role
func (u *User) IsCreator() bool {
	return u.UserType == UserTypeCreator
}

// ValidUserType reports whether t is a known user type
func ValidUserType(t string) bool {
	return t == UserTypeCreator || t == UserTypeEmployee
}

// RegisterRequest is the payload for account registration
type RegisterRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
	UserType string `json:"user_type" binding:"required"`
}

// LoginRequest is the payload for account login
type LoginRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshTokenRequest is the payload for token refresh
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// CheckLoginRequest asks whether a login is still free
type CheckLoginRequest struct {
	Login string `json:"login" binding:"required"`
}

// AuthResponse is returned after register, login and refresh
type AuthResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	UserID       int64  `json:"user_id"`
	UserType     string `json:"user_type"`
	Locked       bool   `json:"locked"`
}
