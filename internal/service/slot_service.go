package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Tejasaibodepudi/Donor-saathi/internal/model"
	"github.com/Tejasaibodepudi/Donor-saathi/internal/repository"
	"github.com/google/uuid"
	"github.com/teambition/rrule-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// maxRecurringOccurrences ограничивает один проход генерации (год ежедневных слотов)
const maxRecurringOccurrences = 366

// DefaultWeeksAhead на сколько недель вперёд генерируются слоты по шаблонам
const DefaultWeeksAhead = 4

// SlotService управляет слотами банков крови
type SlotService struct {
	store  repository.Store
	logger *zap.Logger
	opts   options
}

func NewSlotService(store repository.Store, logger *zap.Logger, opts ...Option) *SlotService {
	return &SlotService{
		store:  store,
		logger: logger,
		opts:   buildOptions(opts),
	}
}

type CreateSlotInput struct {
	Date      time.Time `json:"date" validate:"required"`
	StartTime string    `json:"start_time" validate:"required,hhmm"`
	EndTime   string    `json:"end_time" validate:"required,hhmm"`
	Capacity  int       `json:"capacity" validate:"gt=0"`
}

// CreateSlot создаёт слот банка крови
func (s *SlotService) CreateSlot(ctx context.Context, bank model.BloodBank, in CreateSlotInput) (*model.DonationSlot, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if err := checkWindow(in.StartTime, in.EndTime); err != nil {
		return nil, err
	}

	now := s.opts.now()
	slot := &model.DonationSlot{
		ID:          uuid.New(),
		BloodBankID: bank.ID,
		Date:        dateOnly(in.Date),
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
		Capacity:    in.Capacity,
		Booked:      0,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.Slots.Create(ctx, slot); err != nil {
		return nil, fmt.Errorf("create slot: %w", err)
	}

	s.logger.Info("Slot created",
		zap.String("slot_id", slot.ID.String()),
		zap.String("blood_bank_id", bank.ID.String()),
		zap.Time("date", slot.Date),
		zap.Int("capacity", slot.Capacity),
	)

	return slot, nil
}

type UpdateSlotInput struct {
	Capacity  *int    `json:"capacity,omitempty" validate:"omitempty,gt=0"`
	StartTime *string `json:"start_time,omitempty" validate:"omitempty,hhmm"`
	EndTime   *string `json:"end_time,omitempty" validate:"omitempty,hhmm"`
	Active    *bool   `json:"active,omitempty"`
}

// UpdateSlot меняет вместимость, окно или активность слота владельцем
func (s *SlotService) UpdateSlot(ctx context.Context, bank model.BloodBank, slotID uuid.UUID, in UpdateSlotInput) (slot *model.DonationSlot, err error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	err = s.store.Tx.WithinTx(ctx, func(ctx context.Context) error {
		slot, err = s.lockOwnedSlot(ctx, bank, slotID)
		if err != nil {
			return err
		}

		if in.Capacity != nil {
			if *in.Capacity < slot.Booked {
				return fmt.Errorf("%w: capacity %d is below %d booked places", model.ErrInvalidRequest, *in.Capacity, slot.Booked)
			}
			slot.Capacity = *in.Capacity
		}
		if in.StartTime != nil {
			slot.StartTime = *in.StartTime
		}
		if in.EndTime != nil {
			slot.EndTime = *in.EndTime
		}
		if err := checkWindow(slot.StartTime, slot.EndTime); err != nil {
			return err
		}
		if in.Active != nil {
			slot.Active = *in.Active
		}

		slot.UpdatedAt = s.opts.now()
		return s.store.Slots.Update(ctx, slot)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Slot updated", zap.String("slot_id", slotID.String()))
	return slot, nil
}

// DeleteSlot архивирует слот и отменяет все его booked записи
func (s *SlotService) DeleteSlot(ctx context.Context, bank model.BloodBank, slotID uuid.UUID) (cancelled int, err error) {
	ctx, span := tracer.Start(ctx, "slots.delete", trace.WithAttributes(
		attribute.String("slot_id", slotID.String()),
	))
	defer func() { endSpan(span, err) }()

	now := s.opts.now()

	err = s.store.Tx.WithinTx(ctx, func(ctx context.Context) error {
		cancelled = 0

		slot, err := s.lockOwnedSlot(ctx, bank, slotID)
		if err != nil {
			return err
		}

		appts, err := s.store.Appointments.ListBySlot(ctx, slotID)
		if err != nil {
			return fmt.Errorf("list slot appointments: %w", err)
		}

		remaining := 0
		for _, a := range appts {
			// Перечитываем с блокировкой: статус мог измениться после чтения списка
			appt, err := s.store.Appointments.GetByIDForUpdate(ctx, a.ID)
			if err != nil {
				return fmt.Errorf("get appointment: %w", err)
			}
			if appt == nil {
				continue
			}

			if appt.Status != model.AppointmentStatusBooked {
				if appt.Status != model.AppointmentStatusCancelled {
					remaining++
				}
				continue
			}

			appt.Status = model.AppointmentStatusCancelled
			appt.CancelledAt = &now
			appt.UpdatedAt = now
			appt.Notes = model.SlotCancelledNote
			if err := s.store.Appointments.Update(ctx, appt); err != nil {
				return fmt.Errorf("cancel appointment: %w", err)
			}
			cancelled++
		}

		slot.Booked = min(remaining, slot.Capacity)
		slot.Active = false
		slot.DeletedAt = &now
		slot.UpdatedAt = now
		return s.store.Slots.Update(ctx, slot)
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("Slot deleted",
		zap.String("slot_id", slotID.String()),
		zap.Int("cancelled_appointments", cancelled),
	)

	return cancelled, nil
}

// lockOwnedSlot блокирует неархивный слот банка
func (s *SlotService) lockOwnedSlot(ctx context.Context, bank model.BloodBank, slotID uuid.UUID) (*model.DonationSlot, error) {
	slot, err := s.store.Slots.GetByIDForUpdate(ctx, slotID)
	if err != nil {
		return nil, fmt.Errorf("get slot: %w", err)
	}
	if slot == nil || slot.DeletedAt != nil {
		return nil, fmt.Errorf("slot %s: %w", slotID, model.ErrNotFound)
	}
	if slot.BloodBankID != bank.ID {
		return nil, fmt.Errorf("slot belongs to another blood bank: %w", model.ErrForbidden)
	}
	return slot, nil
}

type SlotQuery struct {
	BloodBankID     *uuid.UUID
	Date            *time.Time
	IncludeInactive bool
}

// ListSlots возвращает слоты по фильтру
func (s *SlotService) ListSlots(ctx context.Context, q SlotQuery) ([]*model.DonationSlot, error) {
	filter := repository.SlotFilter{
		BloodBankID:     q.BloodBankID,
		IncludeInactive: q.IncludeInactive,
	}
	if q.Date != nil {
		d := dateOnly(*q.Date)
		filter.Date = &d
	}
	return s.store.Slots.List(ctx, filter)
}

// GetSlot возвращает слот по ID
func (s *SlotService) GetSlot(ctx context.Context, slotID uuid.UUID) (*model.DonationSlot, error) {
	slot, err := s.store.Slots.GetByID(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if slot == nil || slot.DeletedAt != nil {
		return nil, fmt.Errorf("slot %s: %w", slotID, model.ErrNotFound)
	}
	return slot, nil
}

type RecurringScheduleInput struct {
	RRule     string `json:"rrule" validate:"required"`
	StartTime string `json:"start_time" validate:"required,hhmm"`
	EndTime   string `json:"end_time" validate:"required,hhmm"`
	Capacity  int    `json:"capacity" validate:"gt=0"`
}

// CreateRecurringSchedule сохраняет шаблон и сразу генерирует слоты на DefaultWeeksAhead недель
func (s *SlotService) CreateRecurringSchedule(ctx context.Context, bank model.BloodBank, in RecurringScheduleInput) (*model.RecurringSchedule, int, error) {
	if err := validateInput(in); err != nil {
		return nil, 0, err
	}
	if err := checkWindow(in.StartTime, in.EndTime); err != nil {
		return nil, 0, err
	}
	if _, err := parseScheduleRule(in.RRule); err != nil {
		return nil, 0, err
	}

	now := s.opts.now()
	schedule := &model.RecurringSchedule{
		ID:          uuid.New(),
		BloodBankID: bank.ID,
		RRule:       in.RRule,
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
		Capacity:    in.Capacity,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.Schedules.Create(ctx, schedule); err != nil {
		return nil, 0, fmt.Errorf("create recurring schedule: %w", err)
	}

	s.logger.Info("Recurring schedule created",
		zap.String("schedule_id", schedule.ID.String()),
		zap.String("blood_bank_id", bank.ID.String()),
		zap.String("rrule", schedule.RRule),
	)

	count, err := s.generateSlotsForRecurringSchedule(ctx, schedule, DefaultWeeksAhead)
	if err != nil {
		return schedule, count, err
	}

	return schedule, count, nil
}

// ListRecurringSchedules возвращает шаблоны банка
func (s *SlotService) ListRecurringSchedules(ctx context.Context, bank model.BloodBank) ([]*model.RecurringSchedule, error) {
	return s.store.Schedules.GetByBloodBankID(ctx, bank.ID)
}

// DeactivateRecurringSchedule отключает шаблон. Уже созданные слоты остаются.
func (s *SlotService) DeactivateRecurringSchedule(ctx context.Context, bank model.BloodBank, scheduleID uuid.UUID) error {
	schedule, err := s.store.Schedules.GetByID(ctx, scheduleID)
	if err != nil {
		return fmt.Errorf("get recurring schedule: %w", err)
	}
	if schedule == nil {
		return fmt.Errorf("recurring schedule %s: %w", scheduleID, model.ErrNotFound)
	}
	if schedule.BloodBankID != bank.ID {
		return fmt.Errorf("recurring schedule belongs to another blood bank: %w", model.ErrForbidden)
	}

	if err := s.store.Schedules.Deactivate(ctx, scheduleID); err != nil {
		return err
	}

	s.logger.Info("Recurring schedule deactivated", zap.String("schedule_id", scheduleID.String()))
	return nil
}

// GenerateSlotsForAllRecurringSchedules генерирует слоты для всех активных шаблонов
func (s *SlotService) GenerateSlotsForAllRecurringSchedules(ctx context.Context, weeksAhead int) (int, error) {
	schedules, err := s.store.Schedules.GetAllActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("get active schedules: %w", err)
	}

	total := 0
	for _, schedule := range schedules {
		count, err := s.generateSlotsForRecurringSchedule(ctx, schedule, weeksAhead)
		if err != nil {
			s.logger.Error("Failed to generate slots for schedule",
				zap.String("schedule_id", schedule.ID.String()),
				zap.Error(err),
			)
			continue
		}
		total += count
	}

	s.logger.Info("Slots generated for recurring schedules",
		zap.Int("schedules", len(schedules)),
		zap.Int("slots_created", total),
	)

	return total, nil
}

// parseScheduleRule разбирает RRULE. Слоты датируются днями, поэтому частота мельче DAILY не принимается.
func parseScheduleRule(value string) (*rrule.RRule, error) {
	rule, err := rrule.StrToRRule(value)
	if err != nil {
		return nil, fmt.Errorf("%w: rrule: %v", model.ErrInvalidRequest, err)
	}
	if rule.OrigOptions.Freq > rrule.DAILY {
		return nil, fmt.Errorf("%w: rrule: frequency %s is finer than DAILY", model.ErrInvalidRequest, rule.OrigOptions.Freq)
	}
	return rule, nil
}

// generateSlotsForRecurringSchedule создаёт слоты по вхождениям RRULE от сегодняшнего дня на weeksAhead недель
func (s *SlotService) generateSlotsForRecurringSchedule(ctx context.Context, schedule *model.RecurringSchedule, weeksAhead int) (int, error) {
	rule, err := parseScheduleRule(schedule.RRule)
	if err != nil {
		return 0, err
	}

	from := dateOnly(s.opts.now())
	// Последний день окна включается целиком
	until := from.AddDate(0, 0, weeksAhead*7+1).Add(-time.Second)

	rule.DTStart(dateOnly(schedule.CreatedAt))
	occurrences := rule.Between(from, until, true)
	if len(occurrences) > maxRecurringOccurrences {
		occurrences = occurrences[:maxRecurringOccurrences]
	}

	count := 0
	for _, occurrence := range occurrences {
		date := dateOnly(occurrence)

		// Проверяем, не существует ли уже такой слот
		exists, err := s.store.Slots.Exists(ctx, schedule.BloodBankID, date, schedule.StartTime, schedule.EndTime)
		if err != nil {
			return count, fmt.Errorf("check slot exists: %w", err)
		}
		if exists {
			continue
		}

		now := s.opts.now()
		slot := &model.DonationSlot{
			ID:          uuid.New(),
			BloodBankID: schedule.BloodBankID,
			Date:        date,
			StartTime:   schedule.StartTime,
			EndTime:     schedule.EndTime,
			Capacity:    schedule.Capacity,
			Active:      true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.store.Slots.Create(ctx, slot); err != nil {
			return count, fmt.Errorf("create slot: %w", err)
		}
		count++
	}

	return count, nil
}
