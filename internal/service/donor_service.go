package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Tejasaibodepudi/Donor-saathi/internal/model"
	"github.com/Tejasaibodepudi/Donor-saathi/internal/repository"
	"go.uber.org/zap"
)

// DonorService принимает анкетные данные донора от сервиса регистрации
type DonorService struct {
	store  repository.Store
	logger *zap.Logger
	opts   options
}

func NewDonorService(store repository.Store, logger *zap.Logger, opts ...Option) *DonorService {
	return &DonorService{
		store:  store,
		logger: logger,
		opts:   buildOptions(opts),
	}
}

type RegisterDonorInput struct {
	Name           string          `json:"name" validate:"required"`
	BloodType      model.BloodType `json:"blood_type" validate:"required,bloodtype"`
	TelegramChatID *int64          `json:"telegram_chat_id,omitempty"`
}

// RegisterDonor создаёт или обновляет профиль донора
func (s *DonorService) RegisterDonor(ctx context.Context, donor model.Donor, in RegisterDonorInput) (*model.DonorProfile, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	now := s.opts.now()
	profile := &model.DonorProfile{
		ID:             donor.ID,
		Name:           in.Name,
		BloodType:      in.BloodType,
		TelegramChatID: in.TelegramChatID,
		TrustScore:     model.InitialTrustScore,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.store.Donors.Upsert(ctx, profile); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: telegram chat is linked to another donor", model.ErrInvalidRequest)
		}
		return nil, fmt.Errorf("upsert donor: %w", err)
	}

	s.logger.Info("Donor registered",
		zap.String("donor_id", donor.ID.String()),
		zap.String("blood_type", string(in.BloodType)),
	)

	return profile, nil
}

// GetDonor возвращает профиль донора
func (s *DonorService) GetDonor(ctx context.Context, donor model.Donor) (*model.DonorProfile, error) {
	profile, err := s.store.Donors.GetByID(ctx, donor.ID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, fmt.Errorf("donor %s: %w", donor.ID, model.ErrNotFound)
	}
	return profile, nil
}

// GetByTelegramChatID находит донора по чату Telegram
func (s *DonorService) GetByTelegramChatID(ctx context.Context, chatID int64) (*model.DonorProfile, error) {
	profile, err := s.store.Donors.GetByTelegramChatID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, fmt.Errorf("donor for chat %d: %w", chatID, model.ErrNotFound)
	}
	return profile, nil
}
