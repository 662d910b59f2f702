package memory

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/Tejasaibodepudi/Donor-saathi/internal/model"
	"github.com/google/uuid"
)

type inventoryStore struct{ s *Store }

func (r *inventoryStore) Credit(ctx context.Context, bankID uuid.UUID, bloodType model.BloodType, units int, at time.Time) (*model.InventoryItem, error) {
	return r.apply(ctx, bankID, bloodType, at, func(current int) int { return current + units })
}

func (r *inventoryStore) Set(ctx context.Context, bankID uuid.UUID, bloodType model.BloodType, units int, at time.Time) (*model.InventoryItem, error) {
	return r.apply(ctx, bankID, bloodType, at, func(int) int { return units })
}

func (r *inventoryStore) apply(ctx context.Context, bankID uuid.UUID, bloodType model.BloodType, at time.Time, next func(int) int) (*model.InventoryItem, error) {
	var out model.InventoryItem
	err := r.s.run(ctx, func(st *state) error {
		key := inventoryKey{bankID: bankID, bloodType: bloodType}
		item, ok := st.inventory[key]
		if !ok {
			item = model.InventoryItem{BloodBankID: bankID, BloodType: bloodType}
		}
		item.Units = max(next(item.Units), 0)
		item.LastUpdated = at
		st.inventory[key] = item
		out = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *inventoryStore) List(ctx context.Context, bankID *uuid.UUID) ([]*model.InventoryItem, error) {
	var out []*model.InventoryItem
	err := r.s.run(ctx, func(st *state) error {
		for _, item := range st.inventory {
			if bankID != nil && item.BloodBankID != *bankID {
				continue
			}
			item := item
			out = append(out, &item)
		}
		return nil
	})
	slices.SortFunc(out, func(a, b *model.InventoryItem) int {
		if c := cmp.Compare(a.BloodBankID.String(), b.BloodBankID.String()); c != 0 {
			return c
		}
		return cmp.Compare(a.BloodType, b.BloodType)
	})
	return out, err
}
