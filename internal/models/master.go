package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Master status values. Masters are never deleted; terminated masters drop
// out of rosters but keep their balance, history and rates.
const (
	MasterStatusActive     = "active"
	MasterStatusTerminated = "terminated"
)

// Master is a staff member who performs procedures and earns commission
type Master struct {
	ID        int64     `db:"id" json:"id"`
	SalonID   int64     `db:"salon_id" json:"salon_id"`
	Name      string    `db:"name" json:"name"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// IsActive reports whether the master has not been terminated
func (m *Master) IsActive() bool {
	return m.Status == MasterStatusActive
}

// CommissionRate is the percentage of a procedure's total credited to a master
type CommissionRate struct {
	ID          int64           `db:"id" json:"id"`
	MasterID    int64           `db:"master_id" json:"master_id"`
	ProcedureID int64           `db:"procedure_id" json:"procedure_id"`
	Percentage  decimal.Decimal `db:"percentage" json:"percentage"`
}

// Rate is the result of resolving a commission rate. Configured is false
// when no row exists for the pair; Percentage is then zero.
type Rate struct {
	MasterID    int64           `json:"master_id"`
	ProcedureID int64           `json:"procedure_id"`
	Percentage  decimal.Decimal `json:"percentage"`
	Configured  bool            `json:"configured"`
}

// RateAssignment pairs a procedure with a commission percentage
type RateAssignment struct {
	ProcedureID int64           `json:"procedure_id" binding:"required"`
	Percentage  decimal.Decimal `json:"percentage"`
}

// ProcedureRate is a procedure with the master's percentage for it
type ProcedureRate struct {
	ProcedureID   int64           `db:"procedure_id" json:"procedure_id"`
	ProcedureName string          `db:"procedure_name" json:"procedure_name"`
	Percentage    decimal.Decimal `db:"percentage" json:"percentage"`
}

// MasterWithRates is a roster entry
type MasterWithRates struct {
	Master
	Rates []ProcedureRate `json:"rates"`
}

// CreateMasterRequest creates a master. Rates maps percentages to procedures
// explicitly; Procedures is the legacy form, matched by position against
// the salon's procedures ordered by creation.
type CreateMasterRequest struct {
	SalonID    int64             `json:"salon_id" binding:"required"`
	Name       string            `json:"name" binding:"required"`
	Rates      []RateAssignment  `json:"rates"`
	Procedures []decimal.Decimal `json:"procedures"`
}

// UpdateRatesRequest upserts commission rates for a master
type UpdateRatesRequest struct {
	Rates []RateAssignment `json:"rates" binding:"required,min=1"`
}
