package domain

import (
	"errors"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// GenStatus represents the plan-generation state of an item.
type GenStatus string

// Possible generation status values
const (
	GenStatusNone    GenStatus = "none"
	GenStatusPending GenStatus = "pending"
	GenStatusReady   GenStatus = "ready"
	GenStatusFailed  GenStatus = "failed"
)

// MaxGenErrorLength bounds the stored generation error message so a failing
// provider cannot grow the items table without limit.
const MaxGenErrorLength = 500

// Common validation errors for Item
var (
	ErrEmptyItemID      = errors.New("item ID cannot be empty")
	ErrEmptyItemUserID  = errors.New("item user ID cannot be empty")
	ErrEmptyItemName    = errors.New("item name cannot be empty")
	ErrInvalidGenStatus = errors.New("invalid generation status")
	ErrGenErrorTooLong  = errors.New("generation error message exceeds maximum length")
)

// Item represents a user-owned physical asset for which a maintenance task
// plan is generated. GenStatus, GenUpdatedAt and GenError track the lifecycle
// of the asynchronous generation job; they are the single source of truth for
// "is generation done yet".
type Item struct {
	ID           uuid.UUID  `json:"id"`
	UserID       uuid.UUID  `json:"user_id"`
	Name         string     `json:"name"`
	Model        string     `json:"model"`
	GenStatus    GenStatus  `json:"gen_status"`
	GenUpdatedAt *time.Time `json:"gen_updated_at,omitempty"`
	GenError     *string    `json:"gen_error,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// NewItem creates a new Item in the pending generation state. Items created
// through the API always start pending; GenStatusNone exists only for rows
// that never requested generation.
// Returns an error if validation fails.
func NewItem(userID uuid.UUID, name, model string) (*Item, error) {
	now := time.Now().UTC()
	item := &Item{
		ID:           uuid.New(),
		UserID:       userID,
		Name:         name,
		Model:        model,
		GenStatus:    GenStatusPending,
		GenUpdatedAt: &now,
		GenError:     nil,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := item.Validate(); err != nil {
		return nil, err
	}

	return item, nil
}

// Validate checks if the Item has valid data.
// Returns an error if any field fails validation.
func (i *Item) Validate() error {
	if i.ID == uuid.Nil {
		return ErrEmptyItemID
	}

	if i.UserID == uuid.Nil {
		return ErrEmptyItemUserID
	}

	if i.Name == "" {
		return ErrEmptyItemName
	}

	if !isValidGenStatus(i.GenStatus) {
		return ErrInvalidGenStatus
	}

	if i.GenError != nil && len(*i.GenError) > MaxGenErrorLength {
		return ErrGenErrorTooLong
	}

	return nil
}

// isValidGenStatus checks if the given status is a valid GenStatus.
func isValidGenStatus(status GenStatus) bool {
	switch status {
	case GenStatusNone, GenStatusPending, GenStatusReady, GenStatusFailed:
		return true
	default:
		return false
	}
}

// TruncateGenError bounds an error message to MaxGenErrorLength bytes so it
// can be stored on the item without failing validation. The cut never splits
// a multi-byte rune; Postgres rejects invalid UTF-8 outright, which would
// leave the item stuck in pending.
func TruncateGenError(msg string) string {
	if len(msg) <= MaxGenErrorLength {
		return msg
	}
	cut := MaxGenErrorLength
	for cut > 0 && !utf8.RuneStart(msg[cut]) {
		cut--
	}
	return msg[:cut]
}
