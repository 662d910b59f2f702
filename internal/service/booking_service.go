package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Tejasaibodepudi/Donor-saathi/internal/model"
	"github.com/Tejasaibodepudi/Donor-saathi/internal/repository"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// BookingService ведёт записи доноров на слоты: бронирование, отмена, check-in, завершение
type BookingService struct {
	store  repository.Store
	logger *zap.Logger
	opts   options
}

func NewBookingService(store repository.Store, logger *zap.Logger, opts ...Option) *BookingService {
	return &BookingService{
		store:  store,
		logger: logger,
		opts:   buildOptions(opts),
	}
}

// BookSlot бронирует место в слоте для донора
func (s *BookingService) BookSlot(ctx context.Context, donor model.Donor, slotID, bankID uuid.UUID) (appt *model.Appointment, err error) {
	ctx, span := tracer.Start(ctx, "booking.book_slot", trace.WithAttributes(
		attribute.String("donor_id", donor.ID.String()),
		attribute.String("slot_id", slotID.String()),
	))
	defer func() { endSpan(span, err) }()

	now := s.opts.now()

	err = s.store.Tx.WithinTx(ctx, func(ctx context.Context) error {
		profile, err := s.store.Donors.GetByID(ctx, donor.ID)
		if err != nil {
			return fmt.Errorf("get donor: %w", err)
		}
		if profile == nil {
			return fmt.Errorf("donor %s: %w", donor.ID, model.ErrNotFound)
		}

		// Проверяем интервал после последней донации
		if days := profile.CooldownDaysRemaining(now); days > 0 {
			return &model.CooldownError{DaysRemaining: days}
		}

		// Блокируем слот до конца транзакции
		slot, err := s.store.Slots.GetByIDForUpdate(ctx, slotID)
		if err != nil {
			return fmt.Errorf("get slot: %w", err)
		}
		if slot == nil || !slot.IsBookable() || slot.BloodBankID != bankID {
			return fmt.Errorf("slot %s: %w", slotID, model.ErrNotFound)
		}

		if slot.IsFull() {
			return model.ErrSlotFull
		}

		active, err := s.store.Appointments.HasActiveForSlot(ctx, donor.ID, slotID)
		if err != nil {
			return fmt.Errorf("check active appointment: %w", err)
		}
		if active {
			return model.ErrDuplicateBooking
		}

		token, err := s.opts.tokens()
		if err != nil {
			return err
		}

		appt = &model.Appointment{
			ID:           uuid.New(),
			DonorID:      donor.ID,
			BloodBankID:  slot.BloodBankID,
			SlotID:       slot.ID,
			CheckInToken: token,
			Status:       model.AppointmentStatusBooked,
			BookedAt:     now,
			UpdatedAt:    now,
		}
		if err := s.store.Appointments.Create(ctx, appt); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return model.ErrDuplicateBooking
			}
			return fmt.Errorf("create appointment: %w", err)
		}

		slot.Booked++
		slot.UpdatedAt = now
		if err := s.store.Slots.Update(ctx, slot); err != nil {
			return fmt.Errorf("update slot: %w", err)
		}

		return nil
	})

	s.opts.metrics.BookingOutcome(bookingOutcome(err))
	if err != nil {
		return nil, err
	}

	s.logger.Info("Slot booked",
		zap.String("appointment_id", appt.ID.String()),
		zap.String("donor_id", donor.ID.String()),
		zap.String("slot_id", slotID.String()),
	)

	return appt, nil
}

func bookingOutcome(err error) string {
	var cooldown *model.CooldownError
	switch {
	case err == nil:
		return "booked"
	case errors.As(err, &cooldown):
		return "cooldown"
	case errors.Is(err, model.ErrSlotFull):
		return "slot_full"
	case errors.Is(err, model.ErrDuplicateBooking):
		return "duplicate"
	case errors.Is(err, model.ErrNotFound):
		return "not_found"
	}
	return "error"
}

// CancelAppointment отменяет запись. Отменить может донор записи или её банк крови.
func (s *BookingService) CancelAppointment(ctx context.Context, actor model.AppointmentActor, appointmentID uuid.UUID) (appt *model.Appointment, err error) {
	ctx, span := tracer.Start(ctx, "booking.cancel", trace.WithAttributes(
		attribute.String("appointment_id", appointmentID.String()),
	))
	defer func() { endSpan(span, err) }()

	now := s.opts.now()

	err = s.store.Tx.WithinTx(ctx, func(ctx context.Context) error {
		// Слот блокируется раньше записи, как и при удалении слота
		current, err := s.store.Appointments.GetByID(ctx, appointmentID)
		if err != nil {
			return fmt.Errorf("get appointment: %w", err)
		}
		if current == nil || !ownsAppointment(actor, current) {
			return fmt.Errorf("appointment %s: %w", appointmentID, model.ErrNotFound)
		}

		slot, err := s.store.Slots.GetByIDForUpdate(ctx, current.SlotID)
		if err != nil {
			return fmt.Errorf("get slot: %w", err)
		}

		appt, err = s.store.Appointments.GetByIDForUpdate(ctx, appointmentID)
		if err != nil {
			return fmt.Errorf("get appointment: %w", err)
		}
		if appt == nil {
			return fmt.Errorf("appointment %s: %w", appointmentID, model.ErrNotFound)
		}
		if !appt.Status.CanTransitionTo(model.AppointmentStatusCancelled) {
			return fmt.Errorf("cancel %s appointment: %w", appt.Status, model.ErrInvalidTransition)
		}

		appt.Status = model.AppointmentStatusCancelled
		appt.CancelledAt = &now
		appt.UpdatedAt = now
		if err := s.store.Appointments.Update(ctx, appt); err != nil {
			return fmt.Errorf("update appointment: %w", err)
		}

		if slot != nil {
			slot.Booked = max(slot.Booked-1, 0)
			slot.UpdatedAt = now
			if err := s.store.Slots.Update(ctx, slot); err != nil {
				return fmt.Errorf("update slot: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Appointment cancelled",
		zap.String("appointment_id", appointmentID.String()),
		zap.String("by_role", string(actor.Role())),
	)

	return appt, nil
}

func ownsAppointment(actor model.AppointmentActor, appt *model.Appointment) bool {
	switch a := actor.(type) {
	case model.Donor:
		return appt.DonorID == a.ID
	case model.BloodBank:
		return appt.BloodBankID == a.ID
	}
	return false
}

// CheckIn отмечает приход донора в банк крови
func (s *BookingService) CheckIn(ctx context.Context, bank model.BloodBank, appointmentID uuid.UUID) (appt *model.Appointment, err error) {
	ctx, span := tracer.Start(ctx, "booking.check_in", trace.WithAttributes(
		attribute.String("appointment_id", appointmentID.String()),
	))
	defer func() { endSpan(span, err) }()

	now := s.opts.now()

	err = s.store.Tx.WithinTx(ctx, func(ctx context.Context) error {
		appt, err = s.lockOwnedAppointment(ctx, bank, appointmentID, model.AppointmentStatusCheckedIn)
		if err != nil {
			return err
		}

		appt.Status = model.AppointmentStatusCheckedIn
		appt.CheckedInAt = &now
		appt.UpdatedAt = now
		if err := s.store.Appointments.Update(ctx, appt); err != nil {
			return fmt.Errorf("update appointment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Donor checked in",
		zap.String("appointment_id", appointmentID.String()),
		zap.String("blood_bank_id", bank.ID.String()),
	)

	return appt, nil
}

// Complete завершает донацию: обновляет статистику донора и склад банка
func (s *BookingService) Complete(ctx context.Context, bank model.BloodBank, appointmentID uuid.UUID, notes string) (appt *model.Appointment, err error) {
	ctx, span := tracer.Start(ctx, "booking.complete", trace.WithAttributes(
		attribute.String("appointment_id", appointmentID.String()),
	))
	defer func() { endSpan(span, err) }()

	now := s.opts.now()
	var donor *model.DonorProfile

	err = s.store.Tx.WithinTx(ctx, func(ctx context.Context) error {
		appt, err = s.lockOwnedAppointment(ctx, bank, appointmentID, model.AppointmentStatusCompleted)
		if err != nil {
			return err
		}

		donor, err = s.store.Donors.GetByIDForUpdate(ctx, appt.DonorID)
		if err != nil {
			return fmt.Errorf("get donor: %w", err)
		}
		if donor == nil {
			return fmt.Errorf("donor %s: %w", appt.DonorID, model.ErrNotFound)
		}

		appt.Status = model.AppointmentStatusCompleted
		appt.CompletedAt = &now
		appt.UpdatedAt = now
		if notes != "" {
			appt.Notes = notes
		}
		if err := s.store.Appointments.Update(ctx, appt); err != nil {
			return fmt.Errorf("update appointment: %w", err)
		}

		donor.RecordDonation(now)
		if err := s.store.Donors.Update(ctx, donor); err != nil {
			return fmt.Errorf("update donor: %w", err)
		}

		if _, err := s.store.Inventory.Credit(ctx, appt.BloodBankID, donor.BloodType, 1, now); err != nil {
			return fmt.Errorf("credit inventory: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.opts.metrics.DonationCompleted()
	s.logger.Info("Donation completed",
		zap.String("appointment_id", appointmentID.String()),
		zap.String("donor_id", donor.ID.String()),
		zap.String("blood_type", string(donor.BloodType)),
		zap.Int("trust_score", donor.TrustScore),
	)

	return appt, nil
}

// lockOwnedAppointment блокирует запись банка и проверяет допустимость перехода
func (s *BookingService) lockOwnedAppointment(ctx context.Context, bank model.BloodBank, id uuid.UUID, next model.AppointmentStatus) (*model.Appointment, error) {
	appt, err := s.store.Appointments.GetByIDForUpdate(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	if appt == nil {
		return nil, fmt.Errorf("appointment %s: %w", id, model.ErrNotFound)
	}
	if appt.BloodBankID != bank.ID {
		return nil, fmt.Errorf("appointment belongs to another blood bank: %w", model.ErrForbidden)
	}
	if !appt.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%s -> %s: %w", appt.Status, next, model.ErrInvalidTransition)
	}
	return appt, nil
}

// ScanToken находит запись по check-in токену для банка крови
func (s *BookingService) ScanToken(ctx context.Context, bank model.BloodBank, token string) (*model.ScanResult, error) {
	appt, err := s.store.Appointments.GetByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("get appointment by token: %w", err)
	}
	if appt == nil {
		return nil, fmt.Errorf("check-in token: %w", model.ErrNotFound)
	}
	if appt.BloodBankID != bank.ID {
		return nil, fmt.Errorf("token issued for another blood bank: %w", model.ErrForbidden)
	}

	result := &model.ScanResult{
		Appointment: appt,
		Donor:       model.DonorSummary{ID: appt.DonorID},
		Slot:        model.SlotSummary{ID: appt.SlotID},
	}

	donor, err := s.store.Donors.GetByID(ctx, appt.DonorID)
	if err != nil {
		return nil, fmt.Errorf("get donor: %w", err)
	}
	if donor != nil {
		result.Donor = donor.Summary()
	}

	slot, err := s.store.Slots.GetByID(ctx, appt.SlotID)
	if err != nil {
		return nil, fmt.Errorf("get slot: %w", err)
	}
	if slot != nil {
		result.Slot = slot.Summary()
	}

	return result, nil
}

// ListAppointments возвращает записи донора или банка с краткими сводками
func (s *BookingService) ListAppointments(ctx context.Context, actor model.AppointmentActor, status *model.AppointmentStatus) ([]*model.AppointmentView, error) {
	if status != nil && !status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", model.ErrInvalidRequest, *status)
	}

	filter := repository.AppointmentFilter{Status: status}
	switch a := actor.(type) {
	case model.Donor:
		filter.DonorID = &a.ID
	case model.BloodBank:
		filter.BloodBankID = &a.ID
	}

	appts, err := s.store.Appointments.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	donorIDs := make([]uuid.UUID, 0, len(appts))
	for _, a := range appts {
		donorIDs = append(donorIDs, a.DonorID)
	}
	donors, err := s.store.Donors.GetByIDs(ctx, donorIDs)
	if err != nil {
		return nil, err
	}

	slots := make(map[uuid.UUID]*model.DonationSlot)
	views := make([]*model.AppointmentView, 0, len(appts))
	for _, a := range appts {
		view := &model.AppointmentView{Appointment: a}

		if d, ok := donors[a.DonorID]; ok {
			summary := d.Summary()
			view.Donor = &summary
		}

		slot, ok := slots[a.SlotID]
		if !ok {
			slot, err = s.store.Slots.GetByID(ctx, a.SlotID)
			if err != nil {
				return nil, err
			}
			slots[a.SlotID] = slot
		}
		if slot != nil {
			summary := slot.Summary()
			view.Slot = &summary
		}

		views = append(views, view)
	}

	return views, nil
}
