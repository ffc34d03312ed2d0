package models

// Unlock code block types
const (
	BlockTypeAuth  = "auth"
	BlockTypeSalon = "salon"
)

// UnlockCode locks an account or a salon membership while the row exists
type UnlockCode struct {
	ID        int64  `db:"id" json:"id"`
	UserID    int64  `db:"user_id" json:"user_id"`
	SalonID   *int64 `db:"salon_id" json:"salon_id,omitempty"`
	Code      string `db:"code" json:"code"`
	BlockType string `db:"block_type" json:"block_type"`
	QRCode    []byte `db:"qr_code" json:"-"`
}

// ActivationKey identifies the lock an activation check waits on
type ActivationKey struct {
	UserID    int64
	BlockType string
	SalonID   *int64
}

// ActivationOutcome is the result of waiting on an activation
type ActivationOutcome string

const (
	ActivationAlreadyUnlocked ActivationOutcome = "already_unlocked"
	ActivationActivated       ActivationOutcome = "activated"
	ActivationTimedOut        ActivationOutcome = "timed_out"
)

// UnlockCodeResponse is what a locked client shows to the operator
type UnlockCodeResponse struct {
	Code      string `json:"code"`
	BlockType string `json:"block_type"`
	SalonID   *int64 `json:"salon_id,omitempty"`
	QRCode    string `json:"qr_code_image,omitempty"`
}
