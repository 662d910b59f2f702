package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Tejasaibodepudi/Donor-saathi/internal/model"
	"github.com/Tejasaibodepudi/Donor-saathi/internal/repository"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// RareDonorService реестр редких доноров и рассылка срочных запросов
type RareDonorService struct {
	store  repository.Store
	logger *zap.Logger
	opts   options
}

func NewRareDonorService(store repository.Store, logger *zap.Logger, opts ...Option) *RareDonorService {
	return &RareDonorService{
		store:  store,
		logger: logger,
		opts:   buildOptions(opts),
	}
}

type OptInInput struct {
	PrivacyLevel model.PrivacyLevel `json:"privacy_level" validate:"omitempty,oneof=ANONYMIZED EMERGENCY_ONLY FULL_ADMIN_ONLY"`
	ProofRef     *string            `json:"proof_ref,omitempty"`
}

// OptIn добавляет донора в реестр или обновляет его настройки.
// Новый профиль ждёт проверки администратора и не участвует в подборе.
func (s *RareDonorService) OptIn(ctx context.Context, donor model.Donor, in OptInInput) (profile *model.RareDonorProfile, err error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	now := s.opts.now()
	created := false

	save := func(ctx context.Context) error {
		donorProfile, err := s.store.Donors.GetByID(ctx, donor.ID)
		if err != nil {
			return fmt.Errorf("get donor: %w", err)
		}
		if donorProfile == nil {
			return fmt.Errorf("donor %s: %w", donor.ID, model.ErrNotFound)
		}
		if !donorProfile.BloodType.IsRare() {
			return fmt.Errorf("%w: %s", model.ErrNotEligible, donorProfile.BloodType)
		}

		profile, err = s.store.RareProfiles.GetByDonorIDForUpdate(ctx, donor.ID)
		if err != nil {
			return fmt.Errorf("get rare profile: %w", err)
		}

		if profile == nil {
			privacy := in.PrivacyLevel
			if privacy == "" {
				privacy = model.PrivacyAnonymized
			}
			profile = &model.RareDonorProfile{
				ID:                     uuid.New(),
				DonorID:                donor.ID,
				BloodType:              donorProfile.BloodType,
				PrivacyLevel:           privacy,
				IsActive:               false,
				VerificationStatus:     model.VerificationPending,
				LastAvailabilityUpdate: now,
				ProofRef:               in.ProofRef,
				CreatedAt:              now,
				UpdatedAt:              now,
			}
			created = true
			return s.store.RareProfiles.Create(ctx, profile)
		}

		// Статус проверки здесь не меняется: REJECTED окончательный
		if in.PrivacyLevel != "" {
			profile.PrivacyLevel = in.PrivacyLevel
		}
		if in.ProofRef != nil {
			profile.ProofRef = in.ProofRef
		}
		profile.UpdatedAt = now
		return s.store.RareProfiles.Update(ctx, profile)
	}

	err = s.store.Tx.WithinTx(ctx, save)
	if errors.Is(err, repository.ErrDuplicate) {
		// Профиль успел создать параллельный запрос, обновляем его
		created = false
		err = s.store.Tx.WithinTx(ctx, save)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("Rare donor profile saved",
		zap.String("donor_id", donor.ID.String()),
		zap.String("privacy_level", string(profile.PrivacyLevel)),
		zap.Bool("created", created),
	)

	return profile, nil
}

// GetProfile возвращает профиль донора в реестре
func (s *RareDonorService) GetProfile(ctx context.Context, donor model.Donor) (*model.RareDonorProfile, error) {
	profile, err := s.store.RareProfiles.GetByDonorID(ctx, donor.ID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, fmt.Errorf("rare profile for donor %s: %w", donor.ID, model.ErrNotFound)
	}
	return profile, nil
}

type SubmitRequestInput struct {
	BloodType model.BloodType `json:"blood_type" validate:"required,bloodtype"`
	Urgency   model.Urgency   `json:"urgency" validate:"required,oneof=normal urgent critical"`
	Location  model.Location  `json:"location"`
	Notes     string          `json:"notes,omitempty" validate:"max=1000"`
}

// SubmitResult созданный запрос и число поставленных в очередь оповещений
type SubmitResult struct {
	Request           *model.RareDonorRequest `json:"request"`
	MatchedDonorCount int                     `json:"matched_donor_count"`
}

// Submit создаёт срочный запрос и ставит оповещения подходящим донорам.
// Запрос и все оповещения сохраняются в одной транзакции.
func (s *RareDonorService) Submit(ctx context.Context, requester model.Requester, in SubmitRequestInput) (result *SubmitResult, err error) {
	ctx, span := tracer.Start(ctx, "rare.submit", trace.WithAttributes(
		attribute.String("blood_type", string(in.BloodType)),
		attribute.String("urgency", string(in.Urgency)),
	))
	defer func() { endSpan(span, err) }()

	if err := validateInput(in); err != nil {
		return nil, err
	}
	if in.Location.IsZero() {
		return nil, fmt.Errorf("%w: location is required", model.ErrInvalidRequest)
	}

	now := s.opts.now()

	err = s.store.Tx.WithinTx(ctx, func(ctx context.Context) error {
		req := &model.RareDonorRequest{
			ID:            uuid.New(),
			RequesterID:   requester.PrincipalID(),
			RequesterType: requester.RequesterType(),
			BloodType:     in.BloodType,
			Urgency:       in.Urgency,
			Location:      in.Location,
			Notes:         in.Notes,
			Status:        model.RequestStatusOpen,
			CreatedAt:     now,
		}

		alerts, err := s.match(ctx, req, now)
		if err != nil {
			return err
		}

		req.MatchedDonorCount = len(alerts)
		if err := s.store.RareRequests.Create(ctx, req); err != nil {
			return fmt.Errorf("create rare request: %w", err)
		}

		for _, alert := range alerts {
			if err := s.store.Alerts.Create(ctx, alert); err != nil {
				return fmt.Errorf("create alert: %w", err)
			}
		}

		result = &SubmitResult{Request: req, MatchedDonorCount: req.MatchedDonorCount}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.opts.metrics.AlertsEnqueued(result.MatchedDonorCount)
	s.logger.Info("Rare donor request submitted",
		zap.String("request_id", result.Request.ID.String()),
		zap.String("requester_type", string(result.Request.RequesterType)),
		zap.String("blood_type", string(in.BloodType)),
		zap.String("urgency", string(in.Urgency)),
		zap.Int("matched_donors", result.MatchedDonorCount),
	)

	return result, nil
}

// match отбирает кандидатов: пауза после последнего отклика, дедупликация, уровень приватности
func (s *RareDonorService) match(ctx context.Context, req *model.RareDonorRequest, now time.Time) ([]*model.RareAlert, error) {
	candidates, err := s.store.RareProfiles.ListCandidates(ctx, req.BloodType)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}

	seen := make(map[uuid.UUID]struct{}, len(candidates))
	alerts := make([]*model.RareAlert, 0, len(candidates))

	for _, profile := range candidates {
		if profile.InCooldown(now) {
			continue
		}

		if _, ok := seen[profile.DonorID]; ok {
			continue
		}
		exists, err := s.store.Alerts.Exists(ctx, req.ID, profile.DonorID)
		if err != nil {
			return nil, fmt.Errorf("check alert exists: %w", err)
		}
		if exists {
			continue
		}

		if !profile.PrivacyLevel.AllowsAlert(req.Urgency) {
			continue
		}

		seen[profile.DonorID] = struct{}{}
		alerts = append(alerts, &model.RareAlert{
			ID:            uuid.New(),
			RequestID:     req.ID,
			DonorID:       profile.DonorID,
			Status:        model.AlertStatusPending,
			PriorityScore: s.opts.scorer.Score(req, profile),
			CreatedAt:     now,
			NextAttemptAt: now,
		})
	}

	return alerts, nil
}

// RespondToAlert принимает ответ донора на оповещение. Повторный ответ запрещён.
func (s *RareDonorService) RespondToAlert(ctx context.Context, donor model.Donor, alertID uuid.UUID, action model.AlertAction) (alert *model.RareAlert, err error) {
	var next model.AlertStatus
	switch action {
	case model.AlertActionAccept:
		next = model.AlertStatusAcknowledged
	case model.AlertActionDecline:
		next = model.AlertStatusDeclined
	default:
		return nil, fmt.Errorf("%w: unknown action %q", model.ErrInvalidRequest, action)
	}

	now := s.opts.now()

	err = s.store.Tx.WithinTx(ctx, func(ctx context.Context) error {
		alert, err = s.store.Alerts.GetByIDForUpdate(ctx, alertID)
		if err != nil {
			return fmt.Errorf("get alert: %w", err)
		}
		if alert == nil {
			return fmt.Errorf("alert %s: %w", alertID, model.ErrNotFound)
		}
		if alert.DonorID != donor.ID {
			return fmt.Errorf("alert belongs to another donor: %w", model.ErrForbidden)
		}
		if alert.Status.IsResolved() {
			return fmt.Errorf("alert already %s: %w", alert.Status, model.ErrInvalidTransition)
		}

		alert.Status = next
		alert.RespondedAt = &now
		if err := s.store.Alerts.Update(ctx, alert); err != nil {
			return fmt.Errorf("update alert: %w", err)
		}

		if next != model.AlertStatusAcknowledged {
			return nil
		}

		profile, err := s.store.RareProfiles.GetByDonorIDForUpdate(ctx, donor.ID)
		if err != nil {
			return fmt.Errorf("get rare profile: %w", err)
		}
		if profile == nil {
			return nil
		}
		profile.LastAvailabilityUpdate = now
		profile.UpdatedAt = now
		return s.store.RareProfiles.Update(ctx, profile)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Rare alert answered",
		zap.String("alert_id", alertID.String()),
		zap.String("donor_id", donor.ID.String()),
		zap.String("status", string(alert.Status)),
	)

	return alert, nil
}

// ListAlerts возвращает оповещения донора, новые первыми
func (s *RareDonorService) ListAlerts(ctx context.Context, donor model.Donor) ([]*model.RareAlert, error) {
	return s.store.Alerts.ListByDonor(ctx, donor.ID)
}

// ListRequests возвращает запросы больницы или банка крови
func (s *RareDonorService) ListRequests(ctx context.Context, requester model.Requester) ([]*model.RareDonorRequest, error) {
	return s.store.RareRequests.ListByRequester(ctx, requester.PrincipalID())
}
