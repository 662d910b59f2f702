package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusBooked    AppointmentStatus = "booked"     // Забронировано донором
	AppointmentStatusCheckedIn AppointmentStatus = "checked_in" // Донор пришёл в банк
	AppointmentStatusCompleted AppointmentStatus = "completed"  // Донация завершена
	AppointmentStatusCancelled AppointmentStatus = "cancelled"  // Отменено
)

// SlotCancelledNote пишется в записи, отменённые удалением слота
const SlotCancelledNote = "Slot was cancelled by the blood bank."

// IsValid проверяет, что статус известен
func (s AppointmentStatus) IsValid() bool {
	switch s {
	case AppointmentStatusBooked, AppointmentStatusCheckedIn, AppointmentStatusCompleted, AppointmentStatusCancelled:
		return true
	}
	return false
}

// IsActive true для записей, которые занимают место в слоте и ещё не завершены
func (s AppointmentStatus) IsActive() bool {
	return s == AppointmentStatusBooked || s == AppointmentStatusCheckedIn
}

// CanTransitionTo описывает автомат состояний записи
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	switch s {
	case AppointmentStatusBooked:
		return next == AppointmentStatusCheckedIn || next == AppointmentStatusCancelled
	case AppointmentStatusCheckedIn:
		return next == AppointmentStatusCompleted
	}
	return false
}

type Appointment struct {
	ID           uuid.UUID         `json:"id"`
	DonorID      uuid.UUID         `json:"donor_id"`
	BloodBankID  uuid.UUID         `json:"blood_bank_id"`
	SlotID       uuid.UUID         `json:"slot_id"`
	CheckInToken string            `json:"check_in_token"`
	Status       AppointmentStatus `json:"status"`
	Notes        string            `json:"notes"`
	BookedAt     time.Time         `json:"booked_at"`
	CheckedInAt  *time.Time        `json:"checked_in_at,omitempty"`
	CompletedAt  *time.Time        `json:"completed_at,omitempty"`
	CancelledAt  *time.Time        `json:"cancelled_at,omitempty"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// AppointmentView проекция записи для чтения: сама запись плюс сводки донора и слота
type AppointmentView struct {
	Appointment *Appointment  `json:"appointment"`
	Donor       *DonorSummary `json:"donor,omitempty"`
	Slot        *SlotSummary  `json:"slot,omitempty"`
}

// ScanResult результат сканирования check-in токена
type ScanResult struct {
	Appointment *Appointment `json:"appointment"`
	Donor       DonorSummary `json:"donor"`
	Slot        SlotSummary  `json:"slot"`
}
