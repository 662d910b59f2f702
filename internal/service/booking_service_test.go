package service

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Tejasaibodepudi/Donor-saathi/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestBookSlot(t *testing.T) {
	env := newTestEnv(t)
	bank := model.BloodBank{ID: uuid.New()}
	slot := env.slot(t, bank, 2)
	donor := env.donor(t, model.BloodTypeOPos)

	appt, err := env.bookings.BookSlot(env.ctx, donor, slot.ID, bank.ID)
	require.NoError(t, err)

	assert.Equal(t, model.AppointmentStatusBooked, appt.Status)
	assert.Equal(t, donor.ID, appt.DonorID)
	assert.Equal(t, bank.ID, appt.BloodBankID)
	assert.Equal(t, testNow, appt.BookedAt)
	assert.NotEmpty(t, appt.CheckInToken)
	assert.Equal(t, 1, env.reloadSlot(t, slot.ID).Booked)
}

func TestBookSlot_NotBookable(t *testing.T) {
	env := newTestEnv(t)
	bank := model.BloodBank{ID: uuid.New()}
	donor := env.donor(t, model.BloodTypeOPos)

	t.Run("missing slot", func(t *testing.T) {
		_, err := env.bookings.BookSlot(env.ctx, donor, uuid.New(), bank.ID)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("other bank", func(t *testing.T) {
		slot := env.slot(t, bank, 1)
		_, err := env.bookings.BookSlot(env.ctx, donor, slot.ID, uuid.New())
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("inactive slot", func(t *testing.T) {
		slot := env.slot(t, bank, 1)
		inactive := false
		_, err := env.slots.UpdateSlot(env.ctx, bank, slot.ID, UpdateSlotInput{Active: &inactive})
		require.NoError(t, err)

		_, err = env.bookings.BookSlot(env.ctx, donor, slot.ID, bank.ID)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("unknown donor", func(t *testing.T) {
		slot := env.slot(t, bank, 1)
		_, err := env.bookings.BookSlot(env.ctx, model.Donor{ID: uuid.New()}, slot.ID, bank.ID)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}

func TestBookSlot_Full(t *testing.T) {
	env := newTestEnv(t)
	bank := model.BloodBank{ID: uuid.New()}
	slot := env.slot(t, bank, 1)

	_, err := env.bookings.BookSlot(env.ctx, env.donor(t, model.BloodTypeOPos), slot.ID, bank.ID)
	require.NoError(t, err)

	_, err = env.bookings.BookSlot(env.ctx, env.donor(t, model.BloodTypeAPos), slot.ID, bank.ID)
	assert.ErrorIs(t, err, model.ErrSlotFull)
	assert.Equal(t, 1, env.reloadSlot(t, slot.ID).Booked)
}

func TestBookSlot_Duplicate(t *testing.T) {
	env := newTestEnv(t)
	bank := model.BloodBank{ID: uuid.New()}
	slot := env.slot(t, bank, 3)
	donor := env.donor(t, model.BloodTypeOPos)

	appt, err := env.bookings.BookSlot(env.ctx, donor, slot.ID, bank.ID)
	require.NoError(t, err)

	_, err = env.bookings.BookSlot(env.ctx, donor, slot.ID, bank.ID)
	assert.ErrorIs(t, err, model.ErrDuplicateBooking)
	assert.Equal(t, 1, env.reloadSlot(t, slot.ID).Booked)

	// После отмены можно записаться снова
	_, err = env.bookings.CancelAppointment(env.ctx, donor, appt.ID)
	require.NoError(t, err)

	_, err = env.bookings.BookSlot(env.ctx, donor, slot.ID, bank.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, env.reloadSlot(t, slot.ID).Booked)
}

func TestBookSlot_Cooldown(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		daysSince := rapid.IntRange(0, 200).Draw(t, "daysSince")
		extraHours := rapid.IntRange(0, 23).Draw(t, "extraHours")

		env := newTestEnv(t)
		bank := model.BloodBank{ID: uuid.New()}
		slot := env.slot(t, bank, 1)

		last := testNow.Add(-time.Duration(daysSince*24+extraHours) * time.Hour)
		donor := env.donorWithLastDonation(t, last)

		_, err := env.bookings.BookSlot(env.ctx, donor, slot.ID, bank.ID)

		expected := model.DonationCooldownDays - daysSince
		if expected <= 0 {
			require.NoError(t, err)
			return
		}

		var cooldown *model.CooldownError
		require.ErrorAs(t, err, &cooldown)
		require.ErrorIs(t, err, model.ErrCooldownActive)
		require.Equal(t, expected, cooldown.DaysRemaining)
		require.Equal(t, 0, env.reloadSlot(t, slot.ID).Booked)
	})
}

func TestBookSlot_CapacityProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		env := newTestEnv(t)
		bank := model.BloodBank{ID: uuid.New()}
		capacity := rapid.IntRange(1, 4).Draw(t, "capacity")
		slot := env.slot(t, bank, capacity)

		donors := make([]model.Donor, 6)
		for i := range donors {
			donors[i] = env.donor(t, model.BloodTypeBPos)
		}

		var booked []*model.Appointment
		steps := rapid.IntRange(1, 30).Draw(t, "steps")
		for range steps {
			if len(booked) > 0 && rapid.Bool().Draw(t, "cancel") {
				i := rapid.IntRange(0, len(booked)-1).Draw(t, "appointment")
				_, err := env.bookings.CancelAppointment(env.ctx, bank, booked[i].ID)
				require.NoError(t, err)
				booked = append(booked[:i], booked[i+1:]...)
			} else {
				d := donors[rapid.IntRange(0, len(donors)-1).Draw(t, "donor")]
				appt, err := env.bookings.BookSlot(env.ctx, d, slot.ID, bank.ID)
				switch {
				case err == nil:
					booked = append(booked, appt)
				case errors.Is(err, model.ErrSlotFull), errors.Is(err, model.ErrDuplicateBooking):
				default:
					t.Fatalf("unexpected error: %v", err)
				}
			}

			current := env.reloadSlot(t, slot.ID)
			require.LessOrEqual(t, current.Booked, current.Capacity)
			require.Equal(t, len(booked), current.Booked)
			require.Equal(t, current.Booked, env.activeAppointments(t, slot.ID))
		}
	})
}

func TestBookSlot_ConcurrentLastPlace(t *testing.T) {
	env := newTestEnv(t)
	bank := model.BloodBank{ID: uuid.New()}
	slot := env.slot(t, bank, 1)

	const n = 20
	donors := make([]model.Donor, n)
	for i := range donors {
		donors[i] = env.donor(t, model.BloodTypeOPos)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		full      int
	)
	for _, d := range donors {
		wg.Add(1)
		go func(d model.Donor) {
			defer wg.Done()
			_, err := env.bookings.BookSlot(env.ctx, d, slot.ID, bank.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, model.ErrSlotFull):
				full++
			}
		}(d)
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, n-1, full)
	assert.Equal(t, 1, env.reloadSlot(t, slot.ID).Booked)
	assert.Equal(t, 1, env.activeAppointments(t, slot.ID))
}

func TestCancelAppointment(t *testing.T) {
	env := newTestEnv(t)
	bank := model.BloodBank{ID: uuid.New()}
	slot := env.slot(t, bank, 2)
	donor := env.donor(t, model.BloodTypeOPos)

	appt, err := env.bookings.BookSlot(env.ctx, donor, slot.ID, bank.ID)
	require.NoError(t, err)

	t.Run("foreign donor sees not found", func(t *testing.T) {
		_, err := env.bookings.CancelAppointment(env.ctx, model.Donor{ID: uuid.New()}, appt.ID)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("foreign bank sees not found", func(t *testing.T) {
		_, err := env.bookings.CancelAppointment(env.ctx, model.BloodBank{ID: uuid.New()}, appt.ID)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("owner cancels", func(t *testing.T) {
		env.clock.Advance(time.Hour)
		cancelled, err := env.bookings.CancelAppointment(env.ctx, donor, appt.ID)
		require.NoError(t, err)
		assert.Equal(t, model.AppointmentStatusCancelled, cancelled.Status)
		require.NotNil(t, cancelled.CancelledAt)
		assert.Equal(t, testNow.Add(time.Hour), *cancelled.CancelledAt)
		assert.Equal(t, 0, env.reloadSlot(t, slot.ID).Booked)
	})

	t.Run("second cancel is rejected", func(t *testing.T) {
		_, err := env.bookings.CancelAppointment(env.ctx, donor, appt.ID)
		assert.ErrorIs(t, err, model.ErrInvalidTransition)
		assert.Equal(t, 0, env.reloadSlot(t, slot.ID).Booked)
	})
}

func TestCancelAppointment_OnlyFromBooked(t *testing.T) {
	env := newTestEnv(t)
	bank := model.BloodBank{ID: uuid.New()}
	slot := env.slot(t, bank, 2)
	donor := env.donor(t, model.BloodTypeOPos)

	appt, err := env.bookings.BookSlot(env.ctx, donor, slot.ID, bank.ID)
	require.NoError(t, err)
	_, err = env.bookings.CheckIn(env.ctx, bank, appt.ID)
	require.NoError(t, err)

	_, err = env.bookings.CancelAppointment(env.ctx, bank, appt.ID)
	assert.ErrorIs(t, err, model.ErrInvalidTransition)
	assert.Equal(t, 1, env.reloadSlot(t, slot.ID).Booked)
}

func TestCheckInAndComplete(t *testing.T) {
	env := newTestEnv(t)
	bank := model.BloodBank{ID: uuid.New()}
	slot := env.slot(t, bank, 2)
	donor := env.donor(t, model.BloodTypeABNeg)

	appt, err := env.bookings.BookSlot(env.ctx, donor, slot.ID, bank.ID)
	require.NoError(t, err)

	t.Run("complete before check-in", func(t *testing.T) {
		_, err := env.bookings.Complete(env.ctx, bank, appt.ID, "")
		assert.ErrorIs(t, err, model.ErrInvalidTransition)
	})

	t.Run("foreign bank", func(t *testing.T) {
		other := model.BloodBank{ID: uuid.New()}
		_, err := env.bookings.CheckIn(env.ctx, other, appt.ID)
		assert.ErrorIs(t, err, model.ErrForbidden)
		_, err = env.bookings.Complete(env.ctx, other, appt.ID, "")
		assert.ErrorIs(t, err, model.ErrForbidden)
	})

	t.Run("missing appointment", func(t *testing.T) {
		_, err := env.bookings.CheckIn(env.ctx, bank, uuid.New())
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	checkedIn, err := env.bookings.CheckIn(env.ctx, bank, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCheckedIn, checkedIn.Status)
	require.NotNil(t, checkedIn.CheckedInAt)

	_, err = env.bookings.CheckIn(env.ctx, bank, appt.ID)
	assert.ErrorIs(t, err, model.ErrInvalidTransition)

	completed, err := env.bookings.Complete(env.ctx, bank, appt.ID, "500ml, no reaction")
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCompleted, completed.Status)
	assert.Equal(t, "500ml, no reaction", completed.Notes)

	profile := env.reloadDonor(t, donor.ID)
	assert.Equal(t, 1, profile.TotalDonations)
	assert.Equal(t, model.InitialTrustScore+model.TrustScoreIncrement, profile.TrustScore)
	require.NotNil(t, profile.LastDonation)
	assert.Equal(t, testNow, *profile.LastDonation)

	items, err := env.inventory.ListInventory(env.ctx, &bank.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, model.BloodTypeABNeg, items[0].BloodType)
	assert.Equal(t, 1, items[0].Units)

	// Завершённая запись остаётся в слоте
	assert.Equal(t, 1, env.reloadSlot(t, slot.ID).Booked)
}

func TestComplete_ExactlyOnce(t *testing.T) {
	env := newTestEnv(t)
	bank := model.BloodBank{ID: uuid.New()}
	slot := env.slot(t, bank, 1)
	donor := env.donor(t, model.BloodTypeOPos)

	appt, err := env.bookings.BookSlot(env.ctx, donor, slot.ID, bank.ID)
	require.NoError(t, err)
	_, err = env.bookings.CheckIn(env.ctx, bank, appt.ID)
	require.NoError(t, err)

	const n = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.bookings.Complete(env.ctx, bank, appt.ID, "")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, model.ErrInvalidTransition):
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, n-1, rejected)

	profile := env.reloadDonor(t, donor.ID)
	assert.Equal(t, 1, profile.TotalDonations)
	assert.Equal(t, model.InitialTrustScore+model.TrustScoreIncrement, profile.TrustScore)

	items, err := env.inventory.ListInventory(env.ctx, &bank.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Units)
}

func TestComplete_TrustScoreCapped(t *testing.T) {
	env := newTestEnv(t)
	bank := model.BloodBank{ID: uuid.New()}
	slot := env.slot(t, bank, 1)
	donor := env.donor(t, model.BloodTypeOPos)

	profile := env.reloadDonor(t, donor.ID)
	profile.TrustScore = 99
	require.NoError(t, env.store.Donors.Update(env.ctx, profile))

	appt, err := env.bookings.BookSlot(env.ctx, donor, slot.ID, bank.ID)
	require.NoError(t, err)
	_, err = env.bookings.CheckIn(env.ctx, bank, appt.ID)
	require.NoError(t, err)
	_, err = env.bookings.Complete(env.ctx, bank, appt.ID, "")
	require.NoError(t, err)

	assert.Equal(t, model.MaxTrustScore, env.reloadDonor(t, donor.ID).TrustScore)
}

func TestCompletedDonationStartsCooldown(t *testing.T) {
	env := newTestEnv(t)
	bank := model.BloodBank{ID: uuid.New()}
	first := env.slot(t, bank, 1)
	second := env.slot(t, bank, 1)
	donor := env.donor(t, model.BloodTypeOPos)

	appt, err := env.bookings.BookSlot(env.ctx, donor, first.ID, bank.ID)
	require.NoError(t, err)
	_, err = env.bookings.CheckIn(env.ctx, bank, appt.ID)
	require.NoError(t, err)
	_, err = env.bookings.Complete(env.ctx, bank, appt.ID, "")
	require.NoError(t, err)

	env.clock.Advance(30 * 24 * time.Hour)

	_, err = env.bookings.BookSlot(env.ctx, donor, second.ID, bank.ID)
	var cooldown *model.CooldownError
	require.ErrorAs(t, err, &cooldown)
	assert.Equal(t, 60, cooldown.DaysRemaining)

	env.clock.Advance(60 * 24 * time.Hour)

	_, err = env.bookings.BookSlot(env.ctx, donor, second.ID, bank.ID)
	assert.NoError(t, err)
}

func TestScanToken(t *testing.T) {
	env := newTestEnv(t)
	bank := model.BloodBank{ID: uuid.New()}
	slot := env.slot(t, bank, 1)
	donor := env.donor(t, model.BloodTypeBNeg)

	appt, err := env.bookings.BookSlot(env.ctx, donor, slot.ID, bank.ID)
	require.NoError(t, err)

	result, err := env.bookings.ScanToken(env.ctx, bank, appt.CheckInToken)
	require.NoError(t, err)
	assert.Equal(t, appt.ID, result.Appointment.ID)
	assert.Equal(t, donor.ID, result.Donor.ID)
	assert.Equal(t, model.BloodTypeBNeg, result.Donor.BloodType)
	assert.Equal(t, slot.ID, result.Slot.ID)
	assert.Equal(t, "09:00", result.Slot.StartTime)

	_, err = env.bookings.ScanToken(env.ctx, model.BloodBank{ID: uuid.New()}, appt.CheckInToken)
	assert.ErrorIs(t, err, model.ErrForbidden)

	_, err = env.bookings.ScanToken(env.ctx, bank, "BSN-UNKNOWN")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestCheckInTokensAreUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for range 1000 {
		token, err := NewCheckInToken()
		require.NoError(t, err)
		require.Regexp(t, `^BSN-[A-Z2-7]{26}$`, token)
		_, dup := seen[token]
		require.False(t, dup)
		seen[token] = struct{}{}
	}
}

func TestListAppointments(t *testing.T) {
	env := newTestEnv(t)
	bank := model.BloodBank{ID: uuid.New()}
	otherBank := model.BloodBank{ID: uuid.New()}
	slot := env.slot(t, bank, 3)
	otherSlot := env.slot(t, otherBank, 3)

	alice := env.donor(t, model.BloodTypeOPos)
	bob := env.donor(t, model.BloodTypeAPos)

	a1, err := env.bookings.BookSlot(env.ctx, alice, slot.ID, bank.ID)
	require.NoError(t, err)
	_, err = env.bookings.BookSlot(env.ctx, bob, slot.ID, bank.ID)
	require.NoError(t, err)
	_, err = env.bookings.BookSlot(env.ctx, alice, otherSlot.ID, otherBank.ID)
	require.NoError(t, err)
	_, err = env.bookings.CancelAppointment(env.ctx, alice, a1.ID)
	require.NoError(t, err)

	views, err := env.bookings.ListAppointments(env.ctx, alice, nil)
	require.NoError(t, err)
	assert.Len(t, views, 2)
	for _, v := range views {
		assert.Equal(t, alice.ID, v.Appointment.DonorID)
		require.NotNil(t, v.Donor)
		assert.Equal(t, alice.ID, v.Donor.ID)
		require.NotNil(t, v.Slot)
	}

	booked := model.AppointmentStatusBooked
	views, err = env.bookings.ListAppointments(env.ctx, bank, &booked)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, bob.ID, views[0].Appointment.DonorID)
	assert.Equal(t, slot.ID, views[0].Slot.ID)

	unknown := model.AppointmentStatus("lost")
	_, err = env.bookings.ListAppointments(env.ctx, bank, &unknown)
	assert.ErrorIs(t, err, model.ErrInvalidRequest)
}
