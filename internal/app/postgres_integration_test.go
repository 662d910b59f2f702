package app

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/Tejasaibodepudi/Donor-saathi/internal/model"
	"github.com/Tejasaibodepudi/Donor-saathi/internal/repository"
	"github.com/Tejasaibodepudi/Donor-saathi/internal/service"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Запуск: TEST_DB_DSN=postgres://... go test ./internal/app -run Postgres
func newPostgresStore(t *testing.T) repository.Store {
	t.Helper()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, pool.Ping(ctx))

	migrator, err := NewMigrator(pool, zap.NewNop())
	require.NoError(t, err)
	defer migrator.Close()
	require.NoError(t, migrator.Run(ctx))

	return repository.NewPostgresStore(pool)
}

func TestPostgres_ConcurrentBookingAndCompletion(t *testing.T) {
	store := newPostgresStore(t)
	ctx := context.Background()
	logger := zap.NewNop()

	slots := service.NewSlotService(store, logger)
	bookings := service.NewBookingService(store, logger)
	donors := service.NewDonorService(store, logger)

	bank := model.BloodBank{ID: uuid.New()}
	slot, err := slots.CreateSlot(ctx, bank, service.CreateSlotInput{
		Date:      time.Now().UTC().AddDate(0, 0, 3),
		StartTime: "09:00",
		EndTime:   "11:00",
		Capacity:  2,
	})
	require.NoError(t, err)

	const n = 12
	ids := make([]model.Donor, n)
	for i := range ids {
		ids[i] = model.Donor{ID: uuid.New()}
		_, err := donors.RegisterDonor(ctx, ids[i], service.RegisterDonorInput{Name: "Donor", BloodType: model.BloodTypeONeg})
		require.NoError(t, err)
	}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		booked []*model.Appointment
		full   int
	)
	for _, d := range ids {
		wg.Add(1)
		go func(d model.Donor) {
			defer wg.Done()
			appt, err := bookings.BookSlot(ctx, d, slot.ID, bank.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				booked = append(booked, appt)
			case errors.Is(err, model.ErrSlotFull):
				full++
			default:
				t.Errorf("book slot: %v", err)
			}
		}(d)
	}
	wg.Wait()

	require.Len(t, booked, 2)
	assert.Equal(t, n-2, full)

	current, err := slots.GetSlot(ctx, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, current.Booked)

	appt := booked[0]
	_, err = bookings.CheckIn(ctx, bank, appt.ID)
	require.NoError(t, err)

	results := make(chan error, 5)
	for range 5 {
		go func() {
			_, err := bookings.Complete(ctx, bank, appt.ID, "")
			results <- err
		}()
	}

	completed := 0
	for range 5 {
		err := <-results
		if err == nil {
			completed++
			continue
		}
		assert.ErrorIs(t, err, model.ErrInvalidTransition)
	}
	assert.Equal(t, 1, completed)

	profile, err := store.Donors.GetByID(ctx, appt.DonorID)
	require.NoError(t, err)
	assert.Equal(t, 1, profile.TotalDonations)

	items, err := store.Inventory.List(ctx, &bank.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Units)

	cancelled, err := slots.DeleteSlot(ctx, bank, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, cancelled)
}
