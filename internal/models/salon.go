package models

import "time"

// Salon is a business location. Employees join it with its name and password.
type Salon struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Employee links a user account to a salon
type Employee struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	SalonID   int64     `db:"salon_id" json:"salon_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Procedure is a service offered by a salon
type Procedure struct {
	ID        int64     `db:"id" json:"id"`
	SalonID   int64     `db:"salon_id" json:"salon_id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// CreateSalonRequest is the payload for salon creation
type CreateSalonRequest struct {
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// JoinSalonRequest is the payload for joining an existing salon
type JoinSalonRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// JoinSalonResponse reports the joined salon and whether it is locked for the caller
type JoinSalonResponse struct {
	Salon  *Salon `json:"salon"`
	Locked bool   `json:"locked"`
}

// CreateProcedureRequest is the payload for procedure creation
type CreateProcedureRequest struct {
	SalonID int64  `json:"salon_id" binding:"required"`
	Name    string `json:"name" binding:"required"`
}
