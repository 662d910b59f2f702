package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	// DonationCooldownDays минимальный интервал между донациями
	DonationCooldownDays = 90
	// TrustScoreIncrement прибавка к рейтингу за завершённую донацию
	TrustScoreIncrement = 2
	// MaxTrustScore верхняя граница рейтинга
	MaxTrustScore = 100
	// InitialTrustScore рейтинг нового донора
	InitialTrustScore = 50
)

type BloodType string

const (
	BloodTypeAPos  BloodType = "A+"
	BloodTypeANeg  BloodType = "A-"
	BloodTypeBPos  BloodType = "B+"
	BloodTypeBNeg  BloodType = "B-"
	BloodTypeABPos BloodType = "AB+"
	BloodTypeABNeg BloodType = "AB-"
	BloodTypeOPos  BloodType = "O+"
	BloodTypeONeg  BloodType = "O-"
)

// BloodTypes все группы крови
var BloodTypes = []BloodType{
	BloodTypeAPos, BloodTypeANeg,
	BloodTypeBPos, BloodTypeBNeg,
	BloodTypeABPos, BloodTypeABNeg,
	BloodTypeOPos, BloodTypeONeg,
}

// IsValid проверяет, что группа крови известна
func (b BloodType) IsValid() bool {
	for _, t := range BloodTypes {
		if t == b {
			return true
		}
	}
	return false
}

// DonorProfile данные донора, нужные для распределения
type DonorProfile struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	BloodType      BloodType  `json:"blood_type"`
	LastDonation   *time.Time `json:"last_donation,omitempty"`
	TotalDonations int        `json:"total_donations"`
	TrustScore     int        `json:"trust_score"`
	TelegramChatID *int64     `json:"telegram_chat_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// CooldownDaysRemaining возвращает сколько дней осталось до следующей донации (0 если можно)
func (d *DonorProfile) CooldownDaysRemaining(now time.Time) int {
	if d.LastDonation == nil {
		return 0
	}
	daysSince := int(now.Sub(*d.LastDonation).Hours() / 24)
	remaining := DonationCooldownDays - daysSince
	if remaining < 0 {
		return 0
	}
	return remaining
}

// RecordDonation применяет последствия завершённой донации
func (d *DonorProfile) RecordDonation(now time.Time) {
	d.TotalDonations++
	d.LastDonation = &now
	d.TrustScore += TrustScoreIncrement
	if d.TrustScore > MaxTrustScore {
		d.TrustScore = MaxTrustScore
	}
	d.UpdatedAt = now
}

// DonorSummary проекция донора без контактных данных
type DonorSummary struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	BloodType      BloodType `json:"blood_type"`
	TrustScore     int       `json:"trust_score"`
	TotalDonations int       `json:"total_donations"`
}

// Summary строит проекцию донора
func (d *DonorProfile) Summary() DonorSummary {
	return DonorSummary{
		ID:             d.ID,
		Name:           d.Name,
		BloodType:      d.BloodType,
		TrustScore:     d.TrustScore,
		TotalDonations: d.TotalDonations,
	}
}
