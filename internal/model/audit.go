package model

import (
	"time"

	"github.com/google/uuid"
)

type AuditAction string

const (
	AuditActionVerifyDonor AuditAction = "VERIFY_DONOR"
	AuditActionRejectDonor AuditAction = "REJECT_DONOR"
)

// AuditLogEntry запись журнала действий администратора, только добавление
type AuditLogEntry struct {
	ID        uuid.UUID   `json:"id"`
	AdminID   uuid.UUID   `json:"admin_id"`
	Action    AuditAction `json:"action"`
	TargetID  uuid.UUID   `json:"target_id"`
	Details   string      `json:"details"`
	CreatedAt time.Time   `json:"created_at"`
}
