package model

import (
	"time"

	"github.com/google/uuid"
)

// DefaultSlotCapacity используется, когда банк не указал вместимость
const DefaultSlotCapacity = 5

// DonationSlot окно для сдачи крови в конкретном банке крови
type DonationSlot struct {
	ID          uuid.UUID  `json:"id"`
	BloodBankID uuid.UUID  `json:"blood_bank_id"`
	Date        time.Time  `json:"date"`       // полночь UTC
	StartTime   string     `json:"start_time"` // "HH:MM"
	EndTime     string     `json:"end_time"`   // "HH:MM"
	Capacity    int        `json:"capacity"`
	Booked      int        `json:"booked"`
	Active      bool       `json:"active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"` // архивный слот
}

// IsFull проверяет, что свободных мест нет
func (s *DonationSlot) IsFull() bool {
	return s.Booked >= s.Capacity
}

// IsBookable проверяет, что слот можно бронировать
func (s *DonationSlot) IsBookable() bool {
	return s.Active && s.DeletedAt == nil
}

// Remaining возвращает количество свободных мест
func (s *DonationSlot) Remaining() int {
	if s.Booked >= s.Capacity {
		return 0
	}
	return s.Capacity - s.Booked
}

// SlotSummary краткая проекция слота для сканирования и списков
type SlotSummary struct {
	ID        uuid.UUID `json:"id"`
	Date      time.Time `json:"date"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
}

// Summary строит проекцию слота
func (s *DonationSlot) Summary() SlotSummary {
	return SlotSummary{
		ID:        s.ID,
		Date:      s.Date,
		StartTime: s.StartTime,
		EndTime:   s.EndTime,
	}
}
