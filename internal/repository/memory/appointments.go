package memory

import (
	"context"
	"fmt"
	"slices"

	"github.com/Tejasaibodepudi/Donor-saathi/internal/model"
	"github.com/Tejasaibodepudi/Donor-saathi/internal/repository"
	"github.com/google/uuid"
)

type appointmentStore struct{ s *Store }

func (r *appointmentStore) Create(ctx context.Context, appt *model.Appointment) error {
	return r.s.run(ctx, func(st *state) error {
		for _, existing := range st.appointments {
			if existing.CheckInToken == appt.CheckInToken {
				return fmt.Errorf("create appointment: %w", repository.ErrDuplicate)
			}
			if appt.Status.IsActive() && existing.Status.IsActive() &&
				existing.DonorID == appt.DonorID && existing.SlotID == appt.SlotID {
				return fmt.Errorf("create appointment: %w", repository.ErrDuplicate)
			}
		}
		st.appointments[appt.ID] = *appt
		return nil
	})
}

func (r *appointmentStore) GetByID(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	var out *model.Appointment
	err := r.s.run(ctx, func(st *state) error {
		if appt, ok := st.appointments[id]; ok {
			out = &appt
		}
		return nil
	})
	return out, err
}

func (r *appointmentStore) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	return r.GetByID(ctx, id)
}

func (r *appointmentStore) GetByToken(ctx context.Context, token string) (*model.Appointment, error) {
	var out *model.Appointment
	err := r.s.run(ctx, func(st *state) error {
		for _, appt := range st.appointments {
			if appt.CheckInToken == token {
				appt := appt
				out = &appt
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *appointmentStore) Update(ctx context.Context, appt *model.Appointment) error {
	return r.s.run(ctx, func(st *state) error {
		if _, ok := st.appointments[appt.ID]; !ok {
			return fmt.Errorf("update appointment %s: %w", appt.ID, model.ErrNotFound)
		}
		st.appointments[appt.ID] = *appt
		return nil
	})
}

func (r *appointmentStore) HasActiveForSlot(ctx context.Context, donorID, slotID uuid.UUID) (bool, error) {
	var found bool
	err := r.s.run(ctx, func(st *state) error {
		for _, appt := range st.appointments {
			if appt.DonorID == donorID && appt.SlotID == slotID && appt.Status.IsActive() {
				found = true
				return nil
			}
		}
		return nil
	})
	return found, err
}

func (r *appointmentStore) ListBySlot(ctx context.Context, slotID uuid.UUID) ([]*model.Appointment, error) {
	out, err := r.filter(ctx, func(a *model.Appointment) bool { return a.SlotID == slotID })
	slices.SortFunc(out, func(a, b *model.Appointment) int { return a.BookedAt.Compare(b.BookedAt) })
	return out, err
}

func (r *appointmentStore) List(ctx context.Context, filter repository.AppointmentFilter) ([]*model.Appointment, error) {
	out, err := r.filter(ctx, func(a *model.Appointment) bool {
		if filter.DonorID != nil && a.DonorID != *filter.DonorID {
			return false
		}
		if filter.BloodBankID != nil && a.BloodBankID != *filter.BloodBankID {
			return false
		}
		if filter.Status != nil && a.Status != *filter.Status {
			return false
		}
		return true
	})
	slices.SortFunc(out, func(a, b *model.Appointment) int { return b.BookedAt.Compare(a.BookedAt) })
	return out, err
}

func (r *appointmentStore) filter(ctx context.Context, keep func(*model.Appointment) bool) ([]*model.Appointment, error) {
	var out []*model.Appointment
	err := r.s.run(ctx, func(st *state) error {
		for _, appt := range st.appointments {
			appt := appt
			if keep(&appt) {
				out = append(out, &appt)
			}
		}
		return nil
	})
	return out, err
}
