package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/Tejasaibodepudi/Donor-saathi/internal/model"
	"github.com/Tejasaibodepudi/Donor-saathi/internal/repository"
	"github.com/google/uuid"
)

type slotStore struct{ s *Store }

func (r *slotStore) Create(ctx context.Context, slot *model.DonationSlot) error {
	return r.s.run(ctx, func(st *state) error {
		if _, ok := st.slots[slot.ID]; ok {
			return fmt.Errorf("create slot: %w", repository.ErrDuplicate)
		}
		st.slots[slot.ID] = *slot
		return nil
	})
}

func (r *slotStore) GetByID(ctx context.Context, id uuid.UUID) (*model.DonationSlot, error) {
	var out *model.DonationSlot
	err := r.s.run(ctx, func(st *state) error {
		if slot, ok := st.slots[id]; ok {
			out = &slot
		}
		return nil
	})
	return out, err
}

func (r *slotStore) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.DonationSlot, error) {
	return r.GetByID(ctx, id)
}

func (r *slotStore) Update(ctx context.Context, slot *model.DonationSlot) error {
	return r.s.run(ctx, func(st *state) error {
		if _, ok := st.slots[slot.ID]; !ok {
			return fmt.Errorf("update slot %s: %w", slot.ID, model.ErrNotFound)
		}
		st.slots[slot.ID] = *slot
		return nil
	})
}

func (r *slotStore) List(ctx context.Context, filter repository.SlotFilter) ([]*model.DonationSlot, error) {
	var out []*model.DonationSlot
	err := r.s.run(ctx, func(st *state) error {
		for _, slot := range st.slots {
			if slot.DeletedAt != nil {
				continue
			}
			if !filter.IncludeInactive && !slot.Active {
				continue
			}
			if filter.BloodBankID != nil && slot.BloodBankID != *filter.BloodBankID {
				continue
			}
			if filter.Date != nil && !slot.Date.Equal(*filter.Date) {
				continue
			}
			slot := slot
			out = append(out, &slot)
		}
		return nil
	})
	slices.SortFunc(out, func(a, b *model.DonationSlot) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return cmp.Compare(a.StartTime, b.StartTime)
	})
	return out, err
}

func (r *slotStore) Exists(ctx context.Context, bankID uuid.UUID, date time.Time, startTime, endTime string) (bool, error) {
	var exists bool
	err := r.s.run(ctx, func(st *state) error {
		for _, slot := range st.slots {
			if slot.DeletedAt == nil && slot.BloodBankID == bankID && slot.Date.Equal(date) &&
				slot.StartTime == startTime && slot.EndTime == endTime {
				exists = true
				return nil
			}
		}
		return nil
	})
	return exists, err
}

type scheduleStore struct{ s *Store }

func (r *scheduleStore) Create(ctx context.Context, schedule *model.RecurringSchedule) error {
	return r.s.run(ctx, func(st *state) error {
		st.schedules[schedule.ID] = *schedule
		return nil
	})
}

func (r *scheduleStore) GetByID(ctx context.Context, id uuid.UUID) (*model.RecurringSchedule, error) {
	var out *model.RecurringSchedule
	err := r.s.run(ctx, func(st *state) error {
		if schedule, ok := st.schedules[id]; ok {
			out = &schedule
		}
		return nil
	})
	return out, err
}

func (r *scheduleStore) GetByBloodBankID(ctx context.Context, bankID uuid.UUID) ([]*model.RecurringSchedule, error) {
	return r.filter(ctx, func(s *model.RecurringSchedule) bool { return s.BloodBankID == bankID })
}

func (r *scheduleStore) GetAllActive(ctx context.Context) ([]*model.RecurringSchedule, error) {
	return r.filter(ctx, func(s *model.RecurringSchedule) bool { return s.IsActive })
}

func (r *scheduleStore) Deactivate(ctx context.Context, id uuid.UUID) error {
	return r.s.run(ctx, func(st *state) error {
		schedule, ok := st.schedules[id]
		if !ok {
			return fmt.Errorf("deactivate recurring schedule %s: %w", id, model.ErrNotFound)
		}
		schedule.IsActive = false
		st.schedules[id] = schedule
		return nil
	})
}

func (r *scheduleStore) filter(ctx context.Context, keep func(*model.RecurringSchedule) bool) ([]*model.RecurringSchedule, error) {
	var out []*model.RecurringSchedule
	err := r.s.run(ctx, func(st *state) error {
		for _, schedule := range st.schedules {
			schedule := schedule
			if keep(&schedule) {
				out = append(out, &schedule)
			}
		}
		return nil
	})
	slices.SortFunc(out, func(a, b *model.RecurringSchedule) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out, err
}
