package domain

import (
	"errors"
	"fmt"
	"time"
)

// Caller-correctable failures. Storage faults are never mapped onto these.
var (
	// ErrNotFound indicates the referenced task, session or review does not
	// exist or belongs to another user.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates the single-open-session invariant would be violated.
	ErrConflict = errors.New("conflict")
	// ErrInvalidState indicates a focus-session transition called out of sequence.
	ErrInvalidState = errors.New("invalid state")
	// ErrValidation indicates malformed input or a submission inside a cooldown window.
	ErrValidation = errors.New("validation failed")
)

// CooldownError rejects a review submitted before its cadence window elapsed.
type CooldownError struct {
	Type      ReviewType
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%s: %s review already submitted, next one allowed in %s",
		ErrValidation, e.Type, formatRemaining(e.Remaining))
}

// Unwrap lets errors.Is(err, ErrValidation) match.
func (e *CooldownError) Unwrap() error { return ErrValidation }

func formatRemaining(d time.Duration) string {
	if d < time.Minute {
		return "less than a minute"
	}
	d = d.Truncate(time.Minute)
	days := int(d / (24 * time.Hour))
	d -= time.Duration(days) * 24 * time.Hour
	hours := int(d / time.Hour)
	minutes := int((d - time.Duration(hours)*time.Hour) / time.Minute)
	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}
