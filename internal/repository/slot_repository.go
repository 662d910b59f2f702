package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Tejasaibodepudi/Donor-saathi/internal/model"
	"github.com/Tejasaibodepudi/Donor-saathi/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const slotColumns = `id, blood_bank_id, slot_date, start_time, end_time, capacity, booked, active, created_at, updated_at, deleted_at`

type SlotRepository struct {
	*base.Repository
}

func NewSlotRepository(db *base.Repository) *SlotRepository {
	return &SlotRepository{Repository: db}
}

func scanSlot(row pgx.Row) (*model.DonationSlot, error) {
	var slot model.DonationSlot
	err := row.Scan(
		&slot.ID,
		&slot.BloodBankID,
		&slot.Date,
		&slot.StartTime,
		&slot.EndTime,
		&slot.Capacity,
		&slot.Booked,
		&slot.Active,
		&slot.CreatedAt,
		&slot.UpdatedAt,
		&slot.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

// Create создаёт новый слот
func (r *SlotRepository) Create(ctx context.Context, slot *model.DonationSlot) error {
	query := `
		INSERT INTO donation_slots (id, blood_bank_id, slot_date, start_time, end_time, capacity, booked, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
	`

	_, err := r.ExecAffected(
		ctx, query,
		slot.ID,
		slot.BloodBankID,
		slot.Date,
		slot.StartTime,
		slot.EndTime,
		slot.Capacity,
		slot.Booked,
		slot.Active,
		slot.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create slot: %w", err)
	}

	return nil
}

// GetByID получает слот по ID
func (r *SlotRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.DonationSlot, error) {
	return r.get(ctx, id, false)
}

// GetByIDForUpdate получает слот и блокирует строку до конца транзакции
func (r *SlotRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.DonationSlot, error) {
	return r.get(ctx, id, true)
}

func (r *SlotRepository) get(ctx context.Context, id uuid.UUID, forUpdate bool) (*model.DonationSlot, error) {
	query := `SELECT ` + slotColumns + ` FROM donation_slots WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	slot, err := scanSlot(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get slot by id: %w", err)
	}

	return slot, nil
}

// Update сохраняет изменяемые поля слота
func (r *SlotRepository) Update(ctx context.Context, slot *model.DonationSlot) error {
	query := `
		UPDATE donation_slots
		SET start_time = $2, end_time = $3, capacity = $4, booked = $5, active = $6, updated_at = $7, deleted_at = $8
		WHERE id = $1
	`

	affected, err := r.ExecAffected(
		ctx, query,
		slot.ID,
		slot.StartTime,
		slot.EndTime,
		slot.Capacity,
		slot.Booked,
		slot.Active,
		slot.UpdatedAt,
		slot.DeletedAt,
	)
	if err != nil {
		return fmt.Errorf("update slot: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update slot %s: %w", slot.ID, model.ErrNotFound)
	}

	return nil
}

// List получает неархивные слоты по фильтру, упорядоченные по дате и времени начала
func (r *SlotRepository) List(ctx context.Context, filter SlotFilter) ([]*model.DonationSlot, error) {
	conditions := []string{"deleted_at IS NULL"}
	var args []any

	if !filter.IncludeInactive {
		conditions = append(conditions, "active")
	}
	if filter.BloodBankID != nil {
		args = append(args, *filter.BloodBankID)
		conditions = append(conditions, fmt.Sprintf("blood_bank_id = $%d", len(args)))
	}
	if filter.Date != nil {
		args = append(args, *filter.Date)
		conditions = append(conditions, fmt.Sprintf("slot_date = $%d", len(args)))
	}

	query := `SELECT ` + slotColumns + ` FROM donation_slots WHERE ` +
		strings.Join(conditions, " AND ") +
		` ORDER BY slot_date, start_time`

	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	defer rows.Close()

	var slots []*model.DonationSlot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, slot)
	}

	return slots, rows.Err()
}

// Exists проверяет, есть ли у банка неархивный слот на эту дату и окно
func (r *SlotRepository) Exists(ctx context.Context, bankID uuid.UUID, date time.Time, startTime, endTime string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM donation_slots
			WHERE blood_bank_id = $1 AND slot_date = $2 AND start_time = $3 AND end_time = $4 AND deleted_at IS NULL
		)
	`

	var exists bool
	if err := r.QueryRow(ctx, query, bankID, date, startTime, endTime).Scan(&exists); err != nil {
		return false, fmt.Errorf("check slot exists: %w", err)
	}

	return exists, nil
}
