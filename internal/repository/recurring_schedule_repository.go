package repository

import (
	"context"
	"fmt"

	"github.com/Tejasaibodepudi/Donor-saathi/internal/model"
	"github.com/Tejasaibodepudi/Donor-saathi/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const recurringScheduleColumns = `id, blood_bank_id, rrule, start_time, end_time, capacity, is_active, created_at, updated_at`

type RecurringScheduleRepository struct {
	*base.Repository
}

func NewRecurringScheduleRepository(db *base.Repository) *RecurringScheduleRepository {
	return &RecurringScheduleRepository{Repository: db}
}

func scanRecurringSchedule(row pgx.Row) (*model.RecurringSchedule, error) {
	var schedule model.RecurringSchedule
	err := row.Scan(
		&schedule.ID,
		&schedule.BloodBankID,
		&schedule.RRule,
		&schedule.StartTime,
		&schedule.EndTime,
		&schedule.Capacity,
		&schedule.IsActive,
		&schedule.CreatedAt,
		&schedule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

// Create создаёт новый шаблон расписания
func (r *RecurringScheduleRepository) Create(ctx context.Context, schedule *model.RecurringSchedule) error {
	query := `
		INSERT INTO recurring_schedules (` + recurringScheduleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.ExecAffected(
		ctx, query,
		schedule.ID,
		schedule.BloodBankID,
		schedule.RRule,
		schedule.StartTime,
		schedule.EndTime,
		schedule.Capacity,
		schedule.IsActive,
		schedule.CreatedAt,
		schedule.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create recurring schedule: %w", err)
	}

	return nil
}

// GetByID получает шаблон по ID
func (r *RecurringScheduleRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.RecurringSchedule, error) {
	schedule, err := scanRecurringSchedule(r.QueryRow(ctx,
		`SELECT `+recurringScheduleColumns+` FROM recurring_schedules WHERE id = $1`, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get recurring schedule: %w", err)
	}
	return schedule, nil
}

// GetByBloodBankID получает все шаблоны банка
func (r *RecurringScheduleRepository) GetByBloodBankID(ctx context.Context, bankID uuid.UUID) ([]*model.RecurringSchedule, error) {
	return r.list(ctx, `WHERE blood_bank_id = $1 ORDER BY created_at`, bankID)
}

// GetAllActive получает все активные шаблоны
func (r *RecurringScheduleRepository) GetAllActive(ctx context.Context) ([]*model.RecurringSchedule, error) {
	return r.list(ctx, `WHERE is_active ORDER BY created_at`)
}

func (r *RecurringScheduleRepository) list(ctx context.Context, tail string, args ...any) ([]*model.RecurringSchedule, error) {
	rows, err := r.Query(ctx, `SELECT `+recurringScheduleColumns+` FROM recurring_schedules `+tail, args...)
	if err != nil {
		return nil, fmt.Errorf("list recurring schedules: %w", err)
	}
	defer rows.Close()

	var schedules []*model.RecurringSchedule
	for rows.Next() {
		schedule, err := scanRecurringSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recurring schedule: %w", err)
		}
		schedules = append(schedules, schedule)
	}

	return schedules, rows.Err()
}

// Deactivate деактивирует шаблон
func (r *RecurringScheduleRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	affected, err := r.ExecAffected(ctx,
		`UPDATE recurring_schedules SET is_active = false, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deactivate recurring schedule: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("deactivate recurring schedule %s: %w", id, model.ErrNotFound)
	}
	return nil
}
