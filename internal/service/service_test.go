package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Tejasaibodepudi/Donor-saathi/internal/model"
	"github.com/Tejasaibodepudi/Donor-saathi/internal/repository"
	"github.com/Tejasaibodepudi/Donor-saathi/internal/repository/memory"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// testingT общий интерфейс *testing.T и *rapid.T
type testingT interface {
	require.TestingT
	Helper()
}

var testNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	ctx   context.Context
	store repository.Store
	clock *fakeClock

	slots        *SlotService
	bookings     *BookingService
	donors       *DonorService
	inventory    *InventoryService
	rare         *RareDonorService
	verification *VerificationService
}

func newTestEnv(t testingT) *testEnv {
	t.Helper()
	return newTestEnvWithStore(t, memory.NewStore().Repositories())
}

func newTestEnvWithStore(t testingT, store repository.Store) *testEnv {
	t.Helper()

	clock := &fakeClock{now: testNow}
	var seq atomic.Int64
	opts := []Option{
		WithClock(clock.Now),
		WithTokenGenerator(func() (string, error) {
			return fmt.Sprintf("BSN-TEST%04d", seq.Add(1)), nil
		}),
	}
	logger := zap.NewNop()

	return &testEnv{
		ctx:          context.Background(),
		store:        store,
		clock:        clock,
		slots:        NewSlotService(store, logger, opts...),
		bookings:     NewBookingService(store, logger, opts...),
		donors:       NewDonorService(store, logger, opts...),
		inventory:    NewInventoryService(store, logger, opts...),
		rare:         NewRareDonorService(store, logger, opts...),
		verification: NewVerificationService(store, logger, opts...),
	}
}

func (e *testEnv) donor(t testingT, bloodType model.BloodType) model.Donor {
	t.Helper()
	d := model.Donor{ID: uuid.New()}
	_, err := e.donors.RegisterDonor(e.ctx, d, RegisterDonorInput{Name: "Donor " + d.ID.String()[:8], BloodType: bloodType})
	require.NoError(t, err)
	return d
}

// donorWithLastDonation регистрирует донора с датой последней донации
func (e *testEnv) donorWithLastDonation(t testingT, at time.Time) model.Donor {
	t.Helper()
	d := e.donor(t, model.BloodTypeOPos)
	profile, err := e.store.Donors.GetByID(e.ctx, d.ID)
	require.NoError(t, err)
	profile.LastDonation = &at
	profile.TotalDonations = 1
	require.NoError(t, e.store.Donors.Update(e.ctx, profile))
	return d
}

func (e *testEnv) slot(t testingT, bank model.BloodBank, capacity int) *model.DonationSlot {
	t.Helper()
	slot, err := e.slots.CreateSlot(e.ctx, bank, CreateSlotInput{
		Date:      testNow.AddDate(0, 0, 7),
		StartTime: "09:00",
		EndTime:   "12:00",
		Capacity:  capacity,
	})
	require.NoError(t, err)
	return slot
}

func (e *testEnv) reloadSlot(t testingT, id uuid.UUID) *model.DonationSlot {
	t.Helper()
	slot, err := e.store.Slots.GetByID(e.ctx, id)
	require.NoError(t, err)
	require.NotNil(t, slot)
	return slot
}

func (e *testEnv) reloadDonor(t testingT, id uuid.UUID) *model.DonorProfile {
	t.Helper()
	donor, err := e.store.Donors.GetByID(e.ctx, id)
	require.NoError(t, err)
	require.NotNil(t, donor)
	return donor
}

// activeAppointments считает записи слота, которые занимают место
func (e *testEnv) activeAppointments(t testingT, slotID uuid.UUID) int {
	t.Helper()
	appts, err := e.store.Appointments.ListBySlot(e.ctx, slotID)
	require.NoError(t, err)
	n := 0
	for _, a := range appts {
		if a.Status.IsActive() {
			n++
		}
	}
	return n
}

// rareDonor регистрирует донора, добавляет в реестр и при verify подтверждает профиль
func (e *testEnv) rareDonor(t testingT, bloodType model.BloodType, privacy model.PrivacyLevel, verify bool) (model.Donor, *model.RareDonorProfile) {
	t.Helper()
	d := e.donor(t, bloodType)
	profile, err := e.rare.OptIn(e.ctx, d, OptInInput{PrivacyLevel: privacy})
	require.NoError(t, err)
	if verify {
		profile, err = e.verification.Verify(e.ctx, model.Admin{ID: uuid.New()}, profile.ID, VerifyInput{Status: model.VerificationVerified})
		require.NoError(t, err)
	}
	return d, profile
}
