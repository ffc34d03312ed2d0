package models

import "time"

// ErrorLog is an error reported by a client application
type ErrorLog struct {
	ID         int64     `db:"id" json:"id"`
	UserID     *int64    `db:"user_id" json:"user_id,omitempty"`
	Message    string    `db:"message" json:"message"`
	Exception  *string   `db:"exception" json:"exception,omitempty"`
	DeviceType string    `db:"device_type" json:"device_type"`
	Platform   string    `db:"platform" json:"platform"`
	AppVersion string    `db:"app_version" json:"app_version"`
	Timestamp  time.Time `db:"timestamp" json:"timestamp"`
}

// LogErrorRequest is the payload clients send when they crash
type LogErrorRequest struct {
	Message   string  `json:"message" binding:"required"`
	Exception *string `json:"exception"`
}
