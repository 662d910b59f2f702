package service

import (
	"context"
	"fmt"

	"github.com/Tejasaibodepudi/Donor-saathi/internal/model"
	"github.com/Tejasaibodepudi/Donor-saathi/internal/repository"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// DefaultAuditLogLimit сколько записей журнала отдаётся по умолчанию
const DefaultAuditLogLimit = 100

// VerificationService проверка профилей реестра администратором и журнал его действий
type VerificationService struct {
	store  repository.Store
	logger *zap.Logger
	opts   options
}

func NewVerificationService(store repository.Store, logger *zap.Logger, opts ...Option) *VerificationService {
	return &VerificationService{
		store:  store,
		logger: logger,
		opts:   buildOptions(opts),
	}
}

type VerifyInput struct {
	Status  model.VerificationStatus `json:"status" validate:"required,oneof=VERIFIED REJECTED"`
	Details string                   `json:"details,omitempty" validate:"max=1000"`
}

// Verify подтверждает или отклоняет профиль. Изменение профиля и запись в журнал атомарны.
func (s *VerificationService) Verify(ctx context.Context, admin model.Admin, profileID uuid.UUID, in VerifyInput) (profile *model.RareDonorProfile, err error) {
	ctx, span := tracer.Start(ctx, "verification.verify", trace.WithAttributes(
		attribute.String("profile_id", profileID.String()),
		attribute.String("status", string(in.Status)),
	))
	defer func() { endSpan(span, err) }()

	if err := validateInput(in); err != nil {
		return nil, err
	}

	now := s.opts.now()

	err = s.store.Tx.WithinTx(ctx, func(ctx context.Context) error {
		profile, err = s.store.RareProfiles.GetByIDForUpdate(ctx, profileID)
		if err != nil {
			return fmt.Errorf("get rare profile: %w", err)
		}
		if profile == nil {
			return fmt.Errorf("rare profile %s: %w", profileID, model.ErrNotFound)
		}
		if profile.VerificationStatus != model.VerificationPending {
			return fmt.Errorf("profile already %s: %w", profile.VerificationStatus, model.ErrInvalidTransition)
		}

		action := model.AuditActionRejectDonor
		profile.VerificationStatus = in.Status
		if in.Status == model.VerificationVerified {
			action = model.AuditActionVerifyDonor
			profile.IsActive = true
			profile.IsRareConfirmed = true
		}
		adminID := admin.ID
		profile.VerifiedByAdminID = &adminID
		profile.UpdatedAt = now

		if err := s.store.RareProfiles.Update(ctx, profile); err != nil {
			return fmt.Errorf("update rare profile: %w", err)
		}

		details := in.Details
		if details == "" {
			details = fmt.Sprintf("Changed status to %s", in.Status)
		}
		entry := &model.AuditLogEntry{
			ID:        uuid.New(),
			AdminID:   admin.ID,
			Action:    action,
			TargetID:  profile.DonorID,
			Details:   details,
			CreatedAt: now,
		}
		if err := s.store.AuditLog.Append(ctx, entry); err != nil {
			return fmt.Errorf("append audit log: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Rare donor profile reviewed",
		zap.String("profile_id", profileID.String()),
		zap.String("admin_id", admin.ID.String()),
		zap.String("status", string(in.Status)),
	)

	return profile, nil
}

// ListProfiles возвращает профили реестра, опционально по статусу
func (s *VerificationService) ListProfiles(ctx context.Context, _ model.Admin, status *model.VerificationStatus) ([]*model.RareDonorProfile, error) {
	if status != nil {
		switch *status {
		case model.VerificationPending, model.VerificationVerified, model.VerificationRejected:
		default:
			return nil, fmt.Errorf("%w: unknown verification status %q", model.ErrInvalidRequest, *status)
		}
	}
	return s.store.RareProfiles.List(ctx, status)
}

// ListAuditLogs возвращает последние записи журнала
func (s *VerificationService) ListAuditLogs(ctx context.Context, _ model.Admin, limit int) ([]*model.AuditLogEntry, error) {
	if limit <= 0 || limit > 1000 {
		limit = DefaultAuditLogLimit
	}
	return s.store.AuditLog.List(ctx, limit)
}
