package model

import (
	"time"

	"github.com/google/uuid"
)

type InventoryItem struct {
	BloodBankID uuid.UUID `json:"blood_bank_id"`
	BloodType   BloodType `json:"blood_type"`
	Units       int       `json:"units"`
	LastUpdated time.Time `json:"last_updated"`
}
