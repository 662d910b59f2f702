package model

import (
	"time"

	"github.com/google/uuid"
)

// RecurringSchedule шаблон регулярных слотов банка крови в формате RRULE (RFC 5545)
type RecurringSchedule struct {
	ID          uuid.UUID `json:"id"`
	BloodBankID uuid.UUID `json:"blood_bank_id"`
	RRule       string    `json:"rrule"`      // например FREQ=WEEKLY;BYDAY=MO,WE
	StartTime   string    `json:"start_time"` // "HH:MM"
	EndTime     string    `json:"end_time"`   // "HH:MM"
	Capacity    int       `json:"capacity"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
