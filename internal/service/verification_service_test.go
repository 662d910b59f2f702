package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Tejasaibodepudi/Donor-saathi/internal/model"
	"github.com/Tejasaibodepudi/Donor-saathi/internal/repository"
	"github.com/Tejasaibodepudi/Donor-saathi/internal/repository/memory"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingAuditLog struct {
	repository.AuditLogStore
}

func (failingAuditLog) Append(context.Context, *model.AuditLogEntry) error {
	return errors.New("audit log unavailable")
}

func TestVerify(t *testing.T) {
	env := newTestEnv(t)
	admin := model.Admin{ID: uuid.New()}

	donor, profile := env.rareDonor(t, model.BloodTypeANeg, model.PrivacyAnonymized, false)

	_, err := env.verification.Verify(env.ctx, admin, profile.ID, VerifyInput{Status: model.VerificationPending})
	assert.ErrorIs(t, err, model.ErrInvalidRequest)

	_, err = env.verification.Verify(env.ctx, admin, uuid.New(), VerifyInput{Status: model.VerificationVerified})
	assert.ErrorIs(t, err, model.ErrNotFound)

	verified, err := env.verification.Verify(env.ctx, admin, profile.ID, VerifyInput{Status: model.VerificationVerified})
	require.NoError(t, err)
	assert.Equal(t, model.VerificationVerified, verified.VerificationStatus)
	assert.True(t, verified.IsActive)
	assert.True(t, verified.IsRareConfirmed)
	require.NotNil(t, verified.VerifiedByAdminID)
	assert.Equal(t, admin.ID, *verified.VerifiedByAdminID)

	entries, err := env.verification.ListAuditLogs(env.ctx, admin, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, model.AuditActionVerifyDonor, entries[0].Action)
	assert.Equal(t, admin.ID, entries[0].AdminID)
	assert.Equal(t, donor.ID, entries[0].TargetID)
	assert.Equal(t, "Changed status to VERIFIED", entries[0].Details)

	_, err = env.verification.Verify(env.ctx, admin, profile.ID, VerifyInput{Status: model.VerificationRejected})
	assert.ErrorIs(t, err, model.ErrInvalidTransition)
}

func TestVerify_RejectIsFinal(t *testing.T) {
	env := newTestEnv(t)
	admin := model.Admin{ID: uuid.New()}
	donor, profile := env.rareDonor(t, model.BloodTypeBNeg, model.PrivacyAnonymized, false)

	rejected, err := env.verification.Verify(env.ctx, admin, profile.ID, VerifyInput{
		Status:  model.VerificationRejected,
		Details: "document unreadable",
	})
	require.NoError(t, err)
	assert.Equal(t, model.VerificationRejected, rejected.VerificationStatus)
	assert.False(t, rejected.IsActive)

	entries, err := env.verification.ListAuditLogs(env.ctx, admin, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, model.AuditActionRejectDonor, entries[0].Action)
	assert.Equal(t, "document unreadable", entries[0].Details)

	// Повторный opt-in не возвращает профиль на проверку
	again, err := env.rare.OptIn(env.ctx, donor, OptInInput{PrivacyLevel: model.PrivacyEmergencyOnly})
	require.NoError(t, err)
	assert.Equal(t, model.VerificationRejected, again.VerificationStatus)

	_, err = env.verification.Verify(env.ctx, admin, profile.ID, VerifyInput{Status: model.VerificationVerified})
	assert.ErrorIs(t, err, model.ErrInvalidTransition)

	env.clock.Advance(48 * time.Hour)
	result, err := env.rare.Submit(env.ctx, model.Hospital{ID: uuid.New()}, SubmitRequestInput{
		BloodType: model.BloodTypeBNeg,
		Urgency:   model.UrgencyCritical,
		Location:  pune,
	})
	require.NoError(t, err)
	assert.Zero(t, result.MatchedDonorCount)
}

func TestVerify_AtomicWithAuditLog(t *testing.T) {
	store := memory.NewStore().Repositories()
	env := newTestEnvWithStore(t, store)
	_, profile := env.rareDonor(t, model.BloodTypeABPos, model.PrivacyAnonymized, false)

	broken := store
	broken.AuditLog = failingAuditLog{store.AuditLog}
	brokenEnv := newTestEnvWithStore(t, broken)

	_, err := brokenEnv.verification.Verify(env.ctx, model.Admin{ID: uuid.New()}, profile.ID, VerifyInput{Status: model.VerificationVerified})
	require.Error(t, err)

	got, err := store.RareProfiles.GetByID(env.ctx, profile.ID)
	require.NoError(t, err)
	assert.Equal(t, model.VerificationPending, got.VerificationStatus)
	assert.False(t, got.IsActive)
	assert.Nil(t, got.VerifiedByAdminID)

	entries, err := env.verification.ListAuditLogs(env.ctx, model.Admin{ID: uuid.New()}, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestListProfiles(t *testing.T) {
	env := newTestEnv(t)
	admin := model.Admin{ID: uuid.New()}

	env.rareDonor(t, model.BloodTypeANeg, model.PrivacyAnonymized, true)
	env.rareDonor(t, model.BloodTypeBNeg, model.PrivacyAnonymized, false)
	env.rareDonor(t, model.BloodTypeABNeg, model.PrivacyAnonymized, false)

	all, err := env.verification.ListProfiles(env.ctx, admin, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	pending := model.VerificationPending
	onlyPending, err := env.verification.ListProfiles(env.ctx, admin, &pending)
	require.NoError(t, err)
	assert.Len(t, onlyPending, 2)

	unknown := model.VerificationStatus("MAYBE")
	_, err = env.verification.ListProfiles(env.ctx, admin, &unknown)
	assert.ErrorIs(t, err, model.ErrInvalidRequest)
}
