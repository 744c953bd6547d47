package domain

import (
	"errors"
	"fmt"

	"flexsession/internal/data/entity"
)

var (
	// Input validation, caller's fault.
	ErrInvalidInput    = errors.New("invalid input")
	ErrInvalidInterval = errors.New("invalid interval: end must be after start")
	ErrInvalidRate     = errors.New("invalid rate")

	// Conflicts, safe to retry after re-reading availability.
	ErrSlotNotFound       = errors.New("slot not found")
	ErrSlotUnavailable    = errors.New("slot unavailable")
	ErrTransitionConflict = errors.New("session status changed concurrently")

	ErrSessionNotFound     = errors.New("session not found")
	ErrRateProfileNotFound = errors.New("rate profile not found")

	ErrIllegalTransition       = errors.New("illegal transition")
	ErrPaymentInitiationFailed = errors.New("payment initiation failed")
	ErrForbidden               = errors.New("forbidden")
)

// IllegalTransitionError names the current and requested status of a
// rejected transition. It matches ErrIllegalTransition with errors.Is.
type IllegalTransitionError struct {
	From   entity.SessionStatus
	To     entity.SessionStatus
	Reason string
}

func (e *IllegalTransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("illegal transition %s -> %s: %s", e.From, e.To, e.Reason)
	}
	return fmt.Sprintf("illegal transition %s -> %s", e.From, e.To)
}

func (e *IllegalTransitionError) Is(target error) bool {
	return target == ErrIllegalTransition
}

// Retryable reports whether the same request may succeed later.
func Retryable(err error) bool {
	return errors.Is(err, ErrSlotUnavailable) ||
		errors.Is(err, ErrTransitionConflict) ||
		errors.Is(err, ErrPaymentInitiationFailed)
}
