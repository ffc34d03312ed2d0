package models

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Not-found errors. Handlers map every one of them to 404.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrSalonNotFound      = errors.New("salon not found")
	ErrMasterNotFound     = errors.New("master not found")
	ErrProcedureNotFound  = errors.New("procedure not found")
	ErrUnlockCodeNotFound = errors.New("unlock code not found")
)

var (
	// ErrInvalidInput is the target of errors.Is for every *ValidationError
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidAmount is returned for zero or negative money amounts
	ErrInvalidAmount = errors.New("amount must be greater than zero")

	// ErrRateNotFound is returned by settlement when no commission rate row
	// exists for the (master, procedure) pair
	ErrRateNotFound = errors.New("no commission rate configured for master and procedure")

	// ErrInsufficientFunds is the target of errors.Is for *InsufficientFundsError
	ErrInsufficientFunds = errors.New("insufficient funds")

	ErrLoginTaken         = errors.New("login already taken")
	ErrSalonNameTaken     = errors.New("salon name already taken")
	ErrInvalidCredentials = errors.New("invalid login or password")
	ErrInvalidToken       = errors.New("invalid or revoked refresh token")
	ErrAlreadyMember      = errors.New("user is already associated with this salon")
	ErrMasterTerminated   = errors.New("master is terminated")
)

// ValidationError describes a malformed request value
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is makes errors.Is(err, ErrInvalidInput) match any ValidationError
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError builds a ValidationError for a field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// InsufficientFundsError carries the state that caused a debit to be rejected
type InsufficientFundsError struct {
	MasterID  int64
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds for master %d: requested %s, available %s",
		e.MasterID, e.Requested.StringFixed(2), e.Available.StringFixed(2))
}

func (e *InsufficientFundsError) Unwrap() error {
	return ErrInsufficientFunds
}
