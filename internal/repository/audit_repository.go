package repository

import (
	"context"
	"fmt"

	"github.com/Tejasaibodepudi/Donor-saathi/internal/model"
	"github.com/Tejasaibodepudi/Donor-saathi/internal/repository/base"
)

type AuditLogRepository struct {
	*base.Repository
}

func NewAuditLogRepository(db *base.Repository) *AuditLogRepository {
	return &AuditLogRepository{Repository: db}
}

// Append добавляет запись в журнал
func (r *AuditLogRepository) Append(ctx context.Context, e *model.AuditLogEntry) error {
	_, err := r.ExecAffected(ctx,
		`INSERT INTO admin_audit_logs (id, admin_id, action, target_id, details, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, e.AdminID, e.Action, e.TargetID, e.Details, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append audit log: %w", err)
	}
	return nil
}

// List получает последние записи журнала
func (r *AuditLogRepository) List(ctx context.Context, limit int) ([]*model.AuditLogEntry, error) {
	rows, err := r.Query(ctx, `
		SELECT id, admin_id, action, target_id, details, created_at
		FROM admin_audit_logs
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	var entries []*model.AuditLogEntry
	for rows.Next() {
		var e model.AuditLogEntry
		if err := rows.Scan(&e.ID, &e.AdminID, &e.Action, &e.TargetID, &e.Details, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		entries = append(entries, &e)
	}

	return entries, rows.Err()
}
