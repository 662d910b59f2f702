package repository

import (
	"context"
	"fmt"

	"github.com/Tejasaibodepudi/Donor-saathi/internal/model"
	"github.com/Tejasaibodepudi/Donor-saathi/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const rareProfileColumns = `id, donor_id, blood_type, privacy_level, is_active, is_rare_confirmed, verification_status,
	verified_by_admin_id, last_availability_update, proof_ref, created_at, updated_at`

type RareProfileRepository struct {
	*base.Repository
}

func NewRareProfileRepository(db *base.Repository) *RareProfileRepository {
	return &RareProfileRepository{Repository: db}
}

func scanRareProfile(row pgx.Row) (*model.RareDonorProfile, error) {
	var p model.RareDonorProfile
	err := row.Scan(
		&p.ID,
		&p.DonorID,
		&p.BloodType,
		&p.PrivacyLevel,
		&p.IsActive,
		&p.IsRareConfirmed,
		&p.VerificationStatus,
		&p.VerifiedByAdminID,
		&p.LastAvailabilityUpdate,
		&p.ProofRef,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create создаёт профиль редкого донора
func (r *RareProfileRepository) Create(ctx context.Context, p *model.RareDonorProfile) error {
	query := `
		INSERT INTO rare_donor_profiles (` + rareProfileColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.ExecAffected(
		ctx, query,
		p.ID,
		p.DonorID,
		p.BloodType,
		p.PrivacyLevel,
		p.IsActive,
		p.IsRareConfirmed,
		p.VerificationStatus,
		p.VerifiedByAdminID,
		p.LastAvailabilityUpdate,
		p.ProofRef,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		if base.IsUniqueViolation(err) {
			return fmt.Errorf("create rare profile: %w", ErrDuplicate)
		}
		return fmt.Errorf("create rare profile: %w", err)
	}

	return nil
}

// GetByID получает профиль по ID
func (r *RareProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.RareDonorProfile, error) {
	return r.getOne(ctx, `WHERE id = $1`, id)
}

// GetByIDForUpdate получает профиль по ID с блокировкой
func (r *RareProfileRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.RareDonorProfile, error) {
	return r.getOne(ctx, `WHERE id = $1 FOR UPDATE`, id)
}

// GetByDonorID получает профиль донора
func (r *RareProfileRepository) GetByDonorID(ctx context.Context, donorID uuid.UUID) (*model.RareDonorProfile, error) {
	return r.getOne(ctx, `WHERE donor_id = $1`, donorID)
}

// GetByDonorIDForUpdate получает профиль донора с блокировкой
func (r *RareProfileRepository) GetByDonorIDForUpdate(ctx context.Context, donorID uuid.UUID) (*model.RareDonorProfile, error) {
	return r.getOne(ctx, `WHERE donor_id = $1 FOR UPDATE`, donorID)
}

func (r *RareProfileRepository) getOne(ctx context.Context, where string, arg uuid.UUID) (*model.RareDonorProfile, error) {
	p, err := scanRareProfile(r.QueryRow(ctx, `SELECT `+rareProfileColumns+` FROM rare_donor_profiles `+where, arg))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get rare profile: %w", err)
	}
	return p, nil
}

// Update сохраняет изменяемые поля профиля
func (r *RareProfileRepository) Update(ctx context.Context, p *model.RareDonorProfile) error {
	query := `
		UPDATE rare_donor_profiles
		SET privacy_level = $2, is_active = $3, is_rare_confirmed = $4, verification_status = $5,
		    verified_by_admin_id = $6, last_availability_update = $7, proof_ref = $8, updated_at = $9
		WHERE id = $1
	`

	affected, err := r.ExecAffected(
		ctx, query,
		p.ID,
		p.PrivacyLevel,
		p.IsActive,
		p.IsRareConfirmed,
		p.VerificationStatus,
		p.VerifiedByAdminID,
		p.LastAvailabilityUpdate,
		p.ProofRef,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update rare profile: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update rare profile %s: %w", p.ID, model.ErrNotFound)
	}

	return nil
}

// ListCandidates получает активные верифицированные профили группы крови
func (r *RareProfileRepository) ListCandidates(ctx context.Context, bloodType model.BloodType) ([]*model.RareDonorProfile, error) {
	return r.list(ctx, `WHERE is_active AND verification_status = 'VERIFIED' AND blood_type = $1 ORDER BY created_at`, bloodType)
}

// List получает профили, опционально по статусу верификации, новые первыми
func (r *RareProfileRepository) List(ctx context.Context, status *model.VerificationStatus) ([]*model.RareDonorProfile, error) {
	if status == nil {
		return r.list(ctx, `ORDER BY created_at DESC`)
	}
	return r.list(ctx, `WHERE verification_status = $1 ORDER BY created_at DESC`, *status)
}

func (r *RareProfileRepository) list(ctx context.Context, tail string, args ...any) ([]*model.RareDonorProfile, error) {
	rows, err := r.Query(ctx, `SELECT `+rareProfileColumns+` FROM rare_donor_profiles `+tail, args...)
	if err != nil {
		return nil, fmt.Errorf("list rare profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*model.RareDonorProfile
	for rows.Next() {
		p, err := scanRareProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rare profile: %w", err)
		}
		profiles = append(profiles, p)
	}

	return profiles, rows.Err()
}
