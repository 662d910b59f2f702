package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/Tejasaibodepudi/Donor-saathi/internal/model"
	"github.com/Tejasaibodepudi/Donor-saathi/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const appointmentColumns = `id, donor_id, blood_bank_id, slot_id, check_in_token, status, notes,
	booked_at, checked_in_at, completed_at, cancelled_at, updated_at`

type AppointmentRepository struct {
	*base.Repository
}

func NewAppointmentRepository(db *base.Repository) *AppointmentRepository {
	return &AppointmentRepository{Repository: db}
}

func scanAppointment(row pgx.Row) (*model.Appointment, error) {
	var appt model.Appointment
	err := row.Scan(
		&appt.ID,
		&appt.DonorID,
		&appt.BloodBankID,
		&appt.SlotID,
		&appt.CheckInToken,
		&appt.Status,
		&appt.Notes,
		&appt.BookedAt,
		&appt.CheckedInAt,
		&appt.CompletedAt,
		&appt.CancelledAt,
		&appt.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &appt, nil
}

// Create создаёт запись на донацию
func (r *AppointmentRepository) Create(ctx context.Context, appt *model.Appointment) error {
	query := `
		INSERT INTO appointments (id, donor_id, blood_bank_id, slot_id, check_in_token, status, notes, booked_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
	`

	_, err := r.ExecAffected(
		ctx, query,
		appt.ID,
		appt.DonorID,
		appt.BloodBankID,
		appt.SlotID,
		appt.CheckInToken,
		appt.Status,
		appt.Notes,
		appt.BookedAt,
	)
	if err != nil {
		if base.IsUniqueViolation(err) {
			return fmt.Errorf("create appointment: %w", ErrDuplicate)
		}
		return fmt.Errorf("create appointment: %w", err)
	}

	return nil
}

// GetByID получает запись по ID
func (r *AppointmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	return r.getOne(ctx, "get appointment by id", `WHERE id = $1`, id)
}

// GetByIDForUpdate получает запись и блокирует её до конца транзакции
func (r *AppointmentRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	return r.getOne(ctx, "get appointment for update", `WHERE id = $1 FOR UPDATE`, id)
}

// GetByToken получает запись по check-in токену
func (r *AppointmentRepository) GetByToken(ctx context.Context, token string) (*model.Appointment, error) {
	return r.getOne(ctx, "get appointment by token", `WHERE check_in_token = $1`, token)
}

func (r *AppointmentRepository) getOne(ctx context.Context, op, where string, arg any) (*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments ` + where

	appt, err := scanAppointment(r.QueryRow(ctx, query, arg))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return appt, nil
}

// Update сохраняет статус, отметки времени и заметки
func (r *AppointmentRepository) Update(ctx context.Context, appt *model.Appointment) error {
	query := `
		UPDATE appointments
		SET status = $2, notes = $3, checked_in_at = $4, completed_at = $5, cancelled_at = $6, updated_at = $7
		WHERE id = $1
	`

	affected, err := r.ExecAffected(
		ctx, query,
		appt.ID,
		appt.Status,
		appt.Notes,
		appt.CheckedInAt,
		appt.CompletedAt,
		appt.CancelledAt,
		appt.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update appointment: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update appointment %s: %w", appt.ID, model.ErrNotFound)
	}

	return nil
}

// HasActiveForSlot проверяет, есть ли у донора booked/checked_in запись на слот
func (r *AppointmentRepository) HasActiveForSlot(ctx context.Context, donorID, slotID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE donor_id = $1 AND slot_id = $2 AND status IN ('booked', 'checked_in')
		)
	`

	var exists bool
	if err := r.QueryRow(ctx, query, donorID, slotID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check active appointment: %w", err)
	}

	return exists, nil
}

// ListBySlot получает все записи слота
func (r *AppointmentRepository) ListBySlot(ctx context.Context, slotID uuid.UUID) ([]*model.Appointment, error) {
	return r.list(ctx, `WHERE slot_id = $1 ORDER BY booked_at`, slotID)
}

// List получает записи по фильтру, новые первыми
func (r *AppointmentRepository) List(ctx context.Context, filter AppointmentFilter) ([]*model.Appointment, error) {
	var conditions []string
	var args []any

	if filter.DonorID != nil {
		args = append(args, *filter.DonorID)
		conditions = append(conditions, fmt.Sprintf("donor_id = $%d", len(args)))
	}
	if filter.BloodBankID != nil {
		args = append(args, *filter.BloodBankID)
		conditions = append(conditions, fmt.Sprintf("blood_bank_id = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	return r.list(ctx, where+` ORDER BY booked_at DESC`, args...)
}

func (r *AppointmentRepository) list(ctx context.Context, tail string, args ...any) ([]*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments ` + tail

	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	var appts []*model.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		appts = append(appts, appt)
	}

	return appts, rows.Err()
}
