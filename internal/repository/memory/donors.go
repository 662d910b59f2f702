package memory

import (
	"context"
	"fmt"

	"github.com/Tejasaibodepudi/Donor-saathi/internal/model"
	"github.com/Tejasaibodepudi/Donor-saathi/internal/repository"
	"github.com/google/uuid"
)

type donorStore struct{ s *Store }

func (r *donorStore) Upsert(ctx context.Context, donor *model.DonorProfile) error {
	return r.s.run(ctx, func(st *state) error {
		if donor.TelegramChatID != nil {
			for id, other := range st.donors {
				if id != donor.ID && other.TelegramChatID != nil && *other.TelegramChatID == *donor.TelegramChatID {
					return fmt.Errorf("upsert donor: %w", repository.ErrDuplicate)
				}
			}
		}

		existing, ok := st.donors[donor.ID]
		if !ok {
			donor.CreatedAt = donor.UpdatedAt
			st.donors[donor.ID] = *donor
			return nil
		}
		existing.Name = donor.Name
		existing.BloodType = donor.BloodType
		existing.TelegramChatID = donor.TelegramChatID
		existing.UpdatedAt = donor.UpdatedAt
		st.donors[donor.ID] = existing
		*donor = existing
		return nil
	})
}

func (r *donorStore) GetByID(ctx context.Context, id uuid.UUID) (*model.DonorProfile, error) {
	var out *model.DonorProfile
	err := r.s.run(ctx, func(st *state) error {
		if donor, ok := st.donors[id]; ok {
			out = &donor
		}
		return nil
	})
	return out, err
}

func (r *donorStore) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.DonorProfile, error) {
	return r.GetByID(ctx, id)
}

func (r *donorStore) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.DonorProfile, error) {
	out := make(map[uuid.UUID]*model.DonorProfile, len(ids))
	err := r.s.run(ctx, func(st *state) error {
		for _, id := range ids {
			if donor, ok := st.donors[id]; ok {
				out[id] = &donor
			}
		}
		return nil
	})
	return out, err
}

func (r *donorStore) GetByTelegramChatID(ctx context.Context, chatID int64) (*model.DonorProfile, error) {
	var out *model.DonorProfile
	err := r.s.run(ctx, func(st *state) error {
		for _, donor := range st.donors {
			if donor.TelegramChatID != nil && *donor.TelegramChatID == chatID {
				out = &donor
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *donorStore) Update(ctx context.Context, donor *model.DonorProfile) error {
	return r.s.run(ctx, func(st *state) error {
		if donor.TelegramChatID != nil {
			for id, other := range st.donors {
				if id != donor.ID && other.TelegramChatID != nil && *other.TelegramChatID == *donor.TelegramChatID {
					return fmt.Errorf("upsert donor: %w", repository.ErrDuplicate)
				}
			}
		}

		existing, ok := st.donors[donor.ID]
		if !ok {
			return fmt.Errorf("update donor %s: %w", donor.ID, model.ErrNotFound)
		}
		existing.LastDonation = donor.LastDonation
		existing.TotalDonations = donor.TotalDonations
		existing.TrustScore = donor.TrustScore
		existing.UpdatedAt = donor.UpdatedAt
		st.donors[donor.ID] = existing
		return nil
	})
}
