package repository

import (
	"context"
	"fmt"

	"github.com/Tejasaibodepudi/Donor-saathi/internal/model"
	"github.com/Tejasaibodepudi/Donor-saathi/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const donorColumns = `id, name, blood_type, last_donation, total_donations, trust_score, telegram_chat_id, created_at, updated_at`

type DonorRepository struct {
	*base.Repository
}

func NewDonorRepository(db *base.Repository) *DonorRepository {
	return &DonorRepository{Repository: db}
}

func scanDonor(row pgx.Row) (*model.DonorProfile, error) {
	var donor model.DonorProfile
	err := row.Scan(
		&donor.ID,
		&donor.Name,
		&donor.BloodType,
		&donor.LastDonation,
		&donor.TotalDonations,
		&donor.TrustScore,
		&donor.TelegramChatID,
		&donor.CreatedAt,
		&donor.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &donor, nil
}

// Upsert создаёт профиль донора или обновляет анкетные данные.
// Счётчики донаций здесь не меняются.
func (r *DonorRepository) Upsert(ctx context.Context, donor *model.DonorProfile) error {
	query := `
		INSERT INTO donor_profiles (id, name, blood_type, telegram_chat_id, trust_score, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
		    blood_type = EXCLUDED.blood_type,
		    telegram_chat_id = EXCLUDED.telegram_chat_id,
		    updated_at = EXCLUDED.updated_at
		RETURNING ` + donorColumns

	saved, err := scanDonor(r.QueryRow(
		ctx, query,
		donor.ID,
		donor.Name,
		donor.BloodType,
		donor.TelegramChatID,
		donor.TrustScore,
		donor.UpdatedAt,
	))
	if err != nil {
		if base.IsUniqueViolation(err) {
			return fmt.Errorf("upsert donor: %w", ErrDuplicate)
		}
		return fmt.Errorf("upsert donor: %w", err)
	}

	*donor = *saved
	return nil
}

// GetByID получает донора по ID
func (r *DonorRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.DonorProfile, error) {
	return r.get(ctx, `SELECT `+donorColumns+` FROM donor_profiles WHERE id = $1`, id)
}

// GetByIDForUpdate получает донора и блокирует строку
func (r *DonorRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.DonorProfile, error) {
	return r.get(ctx, `SELECT `+donorColumns+` FROM donor_profiles WHERE id = $1 FOR UPDATE`, id)
}

func (r *DonorRepository) get(ctx context.Context, query string, id uuid.UUID) (*model.DonorProfile, error) {
	donor, err := scanDonor(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil // Донор не найден
		}
		return nil, fmt.Errorf("get donor by id: %w", err)
	}
	return donor, nil
}

// GetByTelegramChatID получает донора, привязанного к чату Telegram
func (r *DonorRepository) GetByTelegramChatID(ctx context.Context, chatID int64) (*model.DonorProfile, error) {
	donor, err := scanDonor(r.QueryRow(ctx, `SELECT `+donorColumns+` FROM donor_profiles WHERE telegram_chat_id = $1`, chatID))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get donor by telegram chat id: %w", err)
	}
	return donor, nil
}

// GetByIDs получает доноров пачкой для проекций
func (r *DonorRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.DonorProfile, error) {
	result := make(map[uuid.UUID]*model.DonorProfile, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	rows, err := r.Query(ctx, `SELECT `+donorColumns+` FROM donor_profiles WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("get donors by ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		donor, err := scanDonor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan donor: %w", err)
		}
		result[donor.ID] = donor
	}

	return result, rows.Err()
}

// Update сохраняет статистику донаций
func (r *DonorRepository) Update(ctx context.Context, donor *model.DonorProfile) error {
	query := `
		UPDATE donor_profiles
		SET last_donation = $2, total_donations = $3, trust_score = $4, updated_at = $5
		WHERE id = $1
	`

	affected, err := r.ExecAffected(ctx, query, donor.ID, donor.LastDonation, donor.TotalDonations, donor.TrustScore, donor.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update donor: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update donor %s: %w", donor.ID, model.ErrNotFound)
	}

	return nil
}
