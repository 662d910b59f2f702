package service

import (
	"testing"

	"github.com/Tejasaibodepudi/Donor-saathi/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterDonor(t *testing.T) {
	env := newTestEnv(t)
	donor := model.Donor{ID: uuid.New()}
	chatID := int64(42)

	profile, err := env.donors.RegisterDonor(env.ctx, donor, RegisterDonorInput{
		Name:           "Asha",
		BloodType:      model.BloodTypeANeg,
		TelegramChatID: &chatID,
	})
	require.NoError(t, err)
	assert.Equal(t, model.InitialTrustScore, profile.TrustScore)
	assert.Zero(t, profile.TotalDonations)

	byChat, err := env.donors.GetByTelegramChatID(env.ctx, chatID)
	require.NoError(t, err)
	assert.Equal(t, donor.ID, byChat.ID)

	_, err = env.donors.GetByTelegramChatID(env.ctx, 7)
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = env.donors.RegisterDonor(env.ctx, model.Donor{ID: uuid.New()}, RegisterDonorInput{
		Name:           "Ravi",
		BloodType:      model.BloodTypeOPos,
		TelegramChatID: &chatID,
	})
	assert.ErrorIs(t, err, model.ErrInvalidRequest)

	_, err = env.donors.RegisterDonor(env.ctx, model.Donor{ID: uuid.New()}, RegisterDonorInput{Name: "Ravi", BloodType: "Z"})
	assert.ErrorIs(t, err, model.ErrInvalidRequest)
}

func TestRegisterDonor_KeepsDonationHistory(t *testing.T) {
	env := newTestEnv(t)
	bank := model.BloodBank{ID: uuid.New()}
	slot := env.slot(t, bank, 1)
	donor := env.donor(t, model.BloodTypeOPos)

	appt, err := env.bookings.BookSlot(env.ctx, donor, slot.ID, bank.ID)
	require.NoError(t, err)
	_, err = env.bookings.CheckIn(env.ctx, bank, appt.ID)
	require.NoError(t, err)
	_, err = env.bookings.Complete(env.ctx, bank, appt.ID, "")
	require.NoError(t, err)

	profile, err := env.donors.RegisterDonor(env.ctx, donor, RegisterDonorInput{Name: "Renamed", BloodType: model.BloodTypeOPos})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", profile.Name)
	assert.Equal(t, 1, profile.TotalDonations)
	assert.Equal(t, model.InitialTrustScore+model.TrustScoreIncrement, profile.TrustScore)
	assert.NotNil(t, profile.LastDonation)

	got, err := env.donors.GetDonor(env.ctx, donor)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)

	_, err = env.donors.GetDonor(env.ctx, model.Donor{ID: uuid.New()})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestAdjustInventory(t *testing.T) {
	env := newTestEnv(t)
	bank := model.BloodBank{ID: uuid.New()}

	item, err := env.inventory.AdjustInventory(env.ctx, bank, AdjustInventoryInput{BloodType: model.BloodTypeONeg, Units: 12})
	require.NoError(t, err)
	assert.Equal(t, 12, item.Units)

	item, err = env.inventory.AdjustInventory(env.ctx, bank, AdjustInventoryInput{BloodType: model.BloodTypeONeg, Units: -3})
	require.NoError(t, err)
	assert.Zero(t, item.Units)

	_, err = env.inventory.AdjustInventory(env.ctx, bank, AdjustInventoryInput{BloodType: "X", Units: 1})
	assert.ErrorIs(t, err, model.ErrInvalidRequest)

	_, err = env.inventory.AdjustInventory(env.ctx, model.BloodBank{ID: uuid.New()}, AdjustInventoryInput{BloodType: model.BloodTypeAPos, Units: 4})
	require.NoError(t, err)

	all, err := env.inventory.ListInventory(env.ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	own, err := env.inventory.ListInventory(env.ctx, &bank.ID)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, testNow, own[0].LastUpdated)
}
