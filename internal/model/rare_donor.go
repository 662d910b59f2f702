package model

import (
	"time"

	"github.com/google/uuid"
)

// AlertCooldown минимальный интервал между оповещениями одного донора
const AlertCooldown = 24 * time.Hour

// RareBloodTypes группы крови, допустимые в реестре редких доноров
var RareBloodTypes = []BloodType{BloodTypeANeg, BloodTypeBNeg, BloodTypeABPos, BloodTypeABNeg}

// IsRare проверяет, что группа допускается в реестр
func (b BloodType) IsRare() bool {
	for _, t := range RareBloodTypes {
		if t == b {
			return true
		}
	}
	return false
}

type PrivacyLevel string

const (
	PrivacyAnonymized    PrivacyLevel = "ANONYMIZED"      // Оповещается всегда, данные скрыты
	PrivacyEmergencyOnly PrivacyLevel = "EMERGENCY_ONLY"  // Только критические запросы
	PrivacyFullAdminOnly PrivacyLevel = "FULL_ADMIN_ONLY" // Никогда не оповещается автоматически
)

// IsValid проверяет уровень приватности
func (p PrivacyLevel) IsValid() bool {
	switch p {
	case PrivacyAnonymized, PrivacyEmergencyOnly, PrivacyFullAdminOnly:
		return true
	}
	return false
}

// AllowsAlert решает, можно ли оповестить донора о запросе с данной срочностью
func (p PrivacyLevel) AllowsAlert(urgency Urgency) bool {
	switch p {
	case PrivacyFullAdminOnly:
		return false
	case PrivacyEmergencyOnly:
		return urgency == UrgencyCritical
	}
	return true
}

type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "PENDING"
	VerificationVerified VerificationStatus = "VERIFIED"
	VerificationRejected VerificationStatus = "REJECTED"
)

type RareDonorProfile struct {
	ID                     uuid.UUID          `json:"id"`
	DonorID                uuid.UUID          `json:"donor_id"`
	BloodType              BloodType          `json:"blood_type"`
	PrivacyLevel           PrivacyLevel       `json:"privacy_level"`
	IsActive               bool               `json:"is_active"`
	IsRareConfirmed        bool               `json:"is_rare_confirmed"`
	VerificationStatus     VerificationStatus `json:"verification_status"`
	VerifiedByAdminID      *uuid.UUID         `json:"verified_by_admin_id,omitempty"`
	LastAvailabilityUpdate time.Time          `json:"last_availability_update"`
	ProofRef               *string            `json:"proof_ref,omitempty"`
	CreatedAt              time.Time          `json:"created_at"`
	UpdatedAt              time.Time          `json:"updated_at"`
}

// InCooldown проверяет, что донор недавно оповещался или откликался
func (p *RareDonorProfile) InCooldown(now time.Time) bool {
	return now.Sub(p.LastAvailabilityUpdate) < AlertCooldown
}

type Urgency string

const (
	UrgencyNormal   Urgency = "normal"
	UrgencyUrgent   Urgency = "urgent"
	UrgencyCritical Urgency = "critical"
)

type RequesterType string

const (
	RequesterHospital  RequesterType = "HOSPITAL"
	RequesterBloodBank RequesterType = "BLOOD_BANK"
)

type RequestStatus string

const (
	RequestStatusOpen      RequestStatus = "OPEN"
	RequestStatusMatching  RequestStatus = "MATCHING"
	RequestStatusAlertSent RequestStatus = "ALERT_SENT"
	RequestStatusFulfilled RequestStatus = "FULFILLED"
	RequestStatusClosed    RequestStatus = "CLOSED"
)

// Location грубое местоположение запроса
type Location struct {
	City string  `json:"city"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

// IsZero true, если местоположение не указано
func (l Location) IsZero() bool {
	return l.City == "" && l.Lat == 0 && l.Lng == 0
}

type RareDonorRequest struct {
	ID                uuid.UUID     `json:"id"`
	RequesterID       uuid.UUID     `json:"requester_id"`
	RequesterType     RequesterType `json:"requester_type"`
	BloodType         BloodType     `json:"blood_type"`
	Urgency           Urgency       `json:"urgency"`
	Location          Location      `json:"location"`
	Notes             string        `json:"notes,omitempty"`
	Status            RequestStatus `json:"status"`
	MatchedDonorCount int           `json:"matched_donor_count"`
	CreatedAt         time.Time     `json:"created_at"`
}

type AlertStatus string

const (
	AlertStatusPending      AlertStatus = "PENDING"
	AlertStatusSent         AlertStatus = "SENT"
	AlertStatusAcknowledged AlertStatus = "ACKNOWLEDGED"
	AlertStatusDeclined     AlertStatus = "DECLINED"
)

// IsResolved true, если донор уже ответил
func (s AlertStatus) IsResolved() bool {
	return s == AlertStatusAcknowledged || s == AlertStatusDeclined
}

type AlertAction string

const (
	AlertActionAccept  AlertAction = "ACCEPT"
	AlertActionDecline AlertAction = "DECLINE"
)

type RareAlert struct {
	ID            uuid.UUID   `json:"id"`
	RequestID     uuid.UUID   `json:"request_id"`
	DonorID       uuid.UUID   `json:"donor_id"`
	Status        AlertStatus `json:"status"`
	PriorityScore float64     `json:"priority_score"`
	CreatedAt     time.Time   `json:"created_at"`
	RespondedAt   *time.Time  `json:"responded_at,omitempty"`

	// Неудачные попытки доставки и время следующей
	Attempts      int       `json:"-"`
	NextAttemptAt time.Time `json:"-"`

	// Заполняется диспетчером для текста уведомления (не из БД)
	Request *RareDonorRequest `json:"request,omitempty"`
}
