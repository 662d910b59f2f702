package model

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRequest    = errors.New("invalid request")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrSlotFull          = errors.New("slot is full")
	ErrDuplicateBooking  = errors.New("donor already has an active appointment for this slot")
	ErrCooldownActive    = errors.New("donation cooldown is active")
	ErrNotEligible       = errors.New("blood type is not eligible for the rare donor registry")
)

// CooldownError сообщает, сколько дней осталось до возможности записаться
type CooldownError struct {
	DaysRemaining int
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%s: %d days remaining", ErrCooldownActive, e.DaysRemaining)
}

func (e *CooldownError) Unwrap() error {
	return ErrCooldownActive
}
