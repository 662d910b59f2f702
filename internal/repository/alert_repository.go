package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Tejasaibodepudi/Donor-saathi/internal/model"
	"github.com/Tejasaibodepudi/Donor-saathi/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const alertColumns = `id, request_id, donor_id, status, priority_score, created_at, responded_at, attempts, next_attempt_at`

type AlertRepository struct {
	*base.Repository
}

func NewAlertRepository(db *base.Repository) *AlertRepository {
	return &AlertRepository{Repository: db}
}

func scanAlert(row pgx.Row) (*model.RareAlert, error) {
	var a model.RareAlert
	err := row.Scan(&a.ID, &a.RequestID, &a.DonorID, &a.Status, &a.PriorityScore, &a.CreatedAt, &a.RespondedAt, &a.Attempts, &a.NextAttemptAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create ставит оповещение в очередь
func (r *AlertRepository) Create(ctx context.Context, a *model.RareAlert) error {
	query := `
		INSERT INTO rare_alerts (` + alertColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	next := a.NextAttemptAt
	if next.IsZero() {
		next = a.CreatedAt
	}

	_, err := r.ExecAffected(ctx, query, a.ID, a.RequestID, a.DonorID, a.Status, a.PriorityScore, a.CreatedAt, a.RespondedAt, a.Attempts, next)
	if err != nil {
		if base.IsUniqueViolation(err) {
			return fmt.Errorf("create alert: %w", ErrDuplicate)
		}
		return fmt.Errorf("create alert: %w", err)
	}

	return nil
}

// Exists проверяет, есть ли оповещение для пары (запрос, донор)
func (r *AlertRepository) Exists(ctx context.Context, requestID, donorID uuid.UUID) (bool, error) {
	var exists bool
	err := r.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM rare_alerts WHERE request_id = $1 AND donor_id = $2)`,
		requestID, donorID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check alert exists: %w", err)
	}
	return exists, nil
}

// GetByID получает оповещение
func (r *AlertRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.RareAlert, error) {
	return r.getOne(ctx, `SELECT `+alertColumns+` FROM rare_alerts WHERE id = $1`, id)
}

// GetByIDForUpdate получает оповещение с блокировкой
func (r *AlertRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.RareAlert, error) {
	return r.getOne(ctx, `SELECT `+alertColumns+` FROM rare_alerts WHERE id = $1 FOR UPDATE`, id)
}

func (r *AlertRepository) getOne(ctx context.Context, query string, id uuid.UUID) (*model.RareAlert, error) {
	a, err := scanAlert(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get alert: %w", err)
	}
	return a, nil
}

// Update сохраняет ответ донора
func (r *AlertRepository) Update(ctx context.Context, a *model.RareAlert) error {
	affected, err := r.ExecAffected(ctx,
		`UPDATE rare_alerts SET status = $2, responded_at = $3 WHERE id = $1`,
		a.ID, a.Status, a.RespondedAt,
	)
	if err != nil {
		return fmt.Errorf("update alert: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update alert %s: %w", a.ID, model.ErrNotFound)
	}
	return nil
}

// ListByDonor получает оповещения донора, новые первыми
func (r *AlertRepository) ListByDonor(ctx context.Context, donorID uuid.UUID) ([]*model.RareAlert, error) {
	return r.list(ctx, `SELECT `+alertColumns+` FROM rare_alerts WHERE donor_id = $1 ORDER BY created_at DESC`, donorID)
}

// ListPending получает очередь на отправку. Отложенные после ошибки ждут своего времени.
func (r *AlertRepository) ListPending(ctx context.Context, now time.Time, limit int) ([]*model.RareAlert, error) {
	query := `
		SELECT ` + alertColumns + ` FROM rare_alerts
		WHERE status = 'PENDING' AND next_attempt_at <= $1
		ORDER BY next_attempt_at, created_at
		LIMIT $2
	`
	return r.list(ctx, query, now, limit)
}

func (r *AlertRepository) list(ctx context.Context, query string, args ...any) ([]*model.RareAlert, error) {
	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	defer rows.Close()

	var alerts []*model.RareAlert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		alerts = append(alerts, a)
	}

	return alerts, rows.Err()
}

// MarkSent отмечает доставку. Ответ донора, пришедший раньше, не перезаписывается.
func (r *AlertRepository) MarkSent(ctx context.Context, id uuid.UUID) (bool, error) {
	affected, err := r.ExecAffected(ctx, `UPDATE rare_alerts SET status = 'SENT' WHERE id = $1 AND status = 'PENDING'`, id)
	if err != nil {
		return false, fmt.Errorf("mark alert sent: %w", err)
	}
	return affected == 1, nil
}

// RecordFailure фиксирует неудачную попытку доставки
func (r *AlertRepository) RecordFailure(ctx context.Context, id uuid.UUID, nextAttemptAt time.Time) error {
	_, err := r.ExecAffected(ctx,
		`UPDATE rare_alerts SET attempts = attempts + 1, next_attempt_at = $2 WHERE id = $1 AND status = 'PENDING'`,
		id, nextAttemptAt,
	)
	if err != nil {
		return fmt.Errorf("record alert failure: %w", err)
	}
	return nil
}
