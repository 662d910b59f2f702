package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Tejasaibodepudi/Donor-saathi/internal/model"
	"github.com/Tejasaibodepudi/Donor-saathi/internal/repository/base"
	"github.com/google/uuid"
)

type InventoryRepository struct {
	*base.Repository
}

func NewInventoryRepository(db *base.Repository) *InventoryRepository {
	return &InventoryRepository{Repository: db}
}

// Credit атомарно прибавляет единицы крови
func (r *InventoryRepository) Credit(ctx context.Context, bankID uuid.UUID, bloodType model.BloodType, units int, at time.Time) (*model.InventoryItem, error) {
	query := `
		INSERT INTO inventory (blood_bank_id, blood_type, units, last_updated)
		VALUES ($1, $2, GREATEST($3, 0), $4)
		ON CONFLICT (blood_bank_id, blood_type) DO UPDATE
		SET units = GREATEST(inventory.units + $3, 0), last_updated = EXCLUDED.last_updated
		RETURNING blood_bank_id, blood_type, units, last_updated
	`
	return r.upsert(ctx, "credit inventory", query, bankID, bloodType, units, at)
}

// Set выставляет количество единиц, не ниже нуля
func (r *InventoryRepository) Set(ctx context.Context, bankID uuid.UUID, bloodType model.BloodType, units int, at time.Time) (*model.InventoryItem, error) {
	query := `
		INSERT INTO inventory (blood_bank_id, blood_type, units, last_updated)
		VALUES ($1, $2, GREATEST($3, 0), $4)
		ON CONFLICT (blood_bank_id, blood_type) DO UPDATE
		SET units = EXCLUDED.units, last_updated = EXCLUDED.last_updated
		RETURNING blood_bank_id, blood_type, units, last_updated
	`
	return r.upsert(ctx, "set inventory", query, bankID, bloodType, units, at)
}

func (r *InventoryRepository) upsert(ctx context.Context, op, query string, bankID uuid.UUID, bloodType model.BloodType, units int, at time.Time) (*model.InventoryItem, error) {
	var item model.InventoryItem
	err := r.QueryRow(ctx, query, bankID, bloodType, units, at).Scan(
		&item.BloodBankID,
		&item.BloodType,
		&item.Units,
		&item.LastUpdated,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &item, nil
}

// List получает остатки, опционально для одного банка
func (r *InventoryRepository) List(ctx context.Context, bankID *uuid.UUID) ([]*model.InventoryItem, error) {
	query := `
		SELECT blood_bank_id, blood_type, units, last_updated
		FROM inventory
		WHERE $1::uuid IS NULL OR blood_bank_id = $1
		ORDER BY blood_bank_id, blood_type
	`

	rows, err := r.Query(ctx, query, bankID)
	if err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}
	defer rows.Close()

	var items []*model.InventoryItem
	for rows.Next() {
		var item model.InventoryItem
		if err := rows.Scan(&item.BloodBankID, &item.BloodType, &item.Units, &item.LastUpdated); err != nil {
			return nil, fmt.Errorf("scan inventory item: %w", err)
		}
		items = append(items, &item)
	}

	return items, rows.Err()
}
