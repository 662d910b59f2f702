package service

import (
	"context"
	"fmt"

	"github.com/Tejasaibodepudi/Donor-saathi/internal/model"
	"github.com/Tejasaibodepudi/Donor-saathi/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InventoryService учёт единиц крови по банкам. Пополнение при донации идёт через BookingService.Complete.
type InventoryService struct {
	store  repository.Store
	logger *zap.Logger
	opts   options
}

func NewInventoryService(store repository.Store, logger *zap.Logger, opts ...Option) *InventoryService {
	return &InventoryService{
		store:  store,
		logger: logger,
		opts:   buildOptions(opts),
	}
}

type AdjustInventoryInput struct {
	BloodType model.BloodType `json:"blood_type" validate:"required,bloodtype"`
	Units     int             `json:"units"`
}

// AdjustInventory выставляет остаток вручную, отрицательные значения обрезаются до нуля
func (s *InventoryService) AdjustInventory(ctx context.Context, bank model.BloodBank, in AdjustInventoryInput) (*model.InventoryItem, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	item, err := s.store.Inventory.Set(ctx, bank.ID, in.BloodType, max(in.Units, 0), s.opts.now())
	if err != nil {
		return nil, fmt.Errorf("set inventory: %w", err)
	}

	s.logger.Info("Inventory adjusted",
		zap.String("blood_bank_id", bank.ID.String()),
		zap.String("blood_type", string(in.BloodType)),
		zap.Int("units", item.Units),
	)

	return item, nil
}

// ListInventory возвращает остатки одного банка или всех, если bankID не задан
func (s *InventoryService) ListInventory(ctx context.Context, bankID *uuid.UUID) ([]*model.InventoryItem, error) {
	return s.store.Inventory.List(ctx, bankID)
}
