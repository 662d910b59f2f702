package memory

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/Tejasaibodepudi/Donor-saathi/internal/model"
	"github.com/Tejasaibodepudi/Donor-saathi/internal/repository"
	"github.com/google/uuid"
)

type rareProfileStore struct{ s *Store }

func (r *rareProfileStore) Create(ctx context.Context, p *model.RareDonorProfile) error {
	return r.s.run(ctx, func(st *state) error {
		for _, existing := range st.profiles {
			if existing.DonorID == p.DonorID {
				return fmt.Errorf("create rare profile: %w", repository.ErrDuplicate)
			}
		}
		st.profiles[p.ID] = *p
		return nil
	})
}

func (r *rareProfileStore) GetByID(ctx context.Context, id uuid.UUID) (*model.RareDonorProfile, error) {
	var out *model.RareDonorProfile
	err := r.s.run(ctx, func(st *state) error {
		if p, ok := st.profiles[id]; ok {
			out = &p
		}
		return nil
	})
	return out, err
}

func (r *rareProfileStore) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.RareDonorProfile, error) {
	return r.GetByID(ctx, id)
}

func (r *rareProfileStore) GetByDonorID(ctx context.Context, donorID uuid.UUID) (*model.RareDonorProfile, error) {
	var out *model.RareDonorProfile
	err := r.s.run(ctx, func(st *state) error {
		for _, p := range st.profiles {
			if p.DonorID == donorID {
				p := p
				out = &p
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *rareProfileStore) GetByDonorIDForUpdate(ctx context.Context, donorID uuid.UUID) (*model.RareDonorProfile, error) {
	return r.GetByDonorID(ctx, donorID)
}

func (r *rareProfileStore) Update(ctx context.Context, p *model.RareDonorProfile) error {
	return r.s.run(ctx, func(st *state) error {
		if _, ok := st.profiles[p.ID]; !ok {
			return fmt.Errorf("update rare profile %s: %w", p.ID, model.ErrNotFound)
		}
		st.profiles[p.ID] = *p
		return nil
	})
}

func (r *rareProfileStore) ListCandidates(ctx context.Context, bloodType model.BloodType) ([]*model.RareDonorProfile, error) {
	out, err := r.filter(ctx, func(p *model.RareDonorProfile) bool {
		return p.IsActive && p.VerificationStatus == model.VerificationVerified && p.BloodType == bloodType
	})
	slices.SortFunc(out, func(a, b *model.RareDonorProfile) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out, err
}

func (r *rareProfileStore) List(ctx context.Context, status *model.VerificationStatus) ([]*model.RareDonorProfile, error) {
	out, err := r.filter(ctx, func(p *model.RareDonorProfile) bool {
		return status == nil || p.VerificationStatus == *status
	})
	slices.SortFunc(out, func(a, b *model.RareDonorProfile) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, err
}

func (r *rareProfileStore) filter(ctx context.Context, keep func(*model.RareDonorProfile) bool) ([]*model.RareDonorProfile, error) {
	var out []*model.RareDonorProfile
	err := r.s.run(ctx, func(st *state) error {
		for _, p := range st.profiles {
			p := p
			if keep(&p) {
				out = append(out, &p)
			}
		}
		return nil
	})
	return out, err
}

type rareRequestStore struct{ s *Store }

func (r *rareRequestStore) Create(ctx context.Context, req *model.RareDonorRequest) error {
	return r.s.run(ctx, func(st *state) error {
		st.requests[req.ID] = *req
		return nil
	})
}

func (r *rareRequestStore) GetByID(ctx context.Context, id uuid.UUID) (*model.RareDonorRequest, error) {
	var out *model.RareDonorRequest
	err := r.s.run(ctx, func(st *state) error {
		if req, ok := st.requests[id]; ok {
			out = &req
		}
		return nil
	})
	return out, err
}

func (r *rareRequestStore) ListByRequester(ctx context.Context, requesterID uuid.UUID) ([]*model.RareDonorRequest, error) {
	var out []*model.RareDonorRequest
	err := r.s.run(ctx, func(st *state) error {
		for _, req := range st.requests {
			if req.RequesterID == requesterID {
				req := req
				out = append(out, &req)
			}
		}
		return nil
	})
	slices.SortFunc(out, func(a, b *model.RareDonorRequest) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, err
}

type alertStore struct{ s *Store }

func (r *alertStore) Create(ctx context.Context, a *model.RareAlert) error {
	return r.s.run(ctx, func(st *state) error {
		for _, existing := range st.alerts {
			if existing.RequestID == a.RequestID && existing.DonorID == a.DonorID {
				return fmt.Errorf("create alert: %w", repository.ErrDuplicate)
			}
		}
		stored := *a
		stored.Request = nil
		if stored.NextAttemptAt.IsZero() {
			stored.NextAttemptAt = stored.CreatedAt
		}
		st.alerts[a.ID] = stored
		return nil
	})
}

func (r *alertStore) Exists(ctx context.Context, requestID, donorID uuid.UUID) (bool, error) {
	var found bool
	err := r.s.run(ctx, func(st *state) error {
		for _, a := range st.alerts {
			if a.RequestID == requestID && a.DonorID == donorID {
				found = true
				return nil
			}
		}
		return nil
	})
	return found, err
}

func (r *alertStore) GetByID(ctx context.Context, id uuid.UUID) (*model.RareAlert, error) {
	var out *model.RareAlert
	err := r.s.run(ctx, func(st *state) error {
		if a, ok := st.alerts[id]; ok {
			out = &a
		}
		return nil
	})
	return out, err
}

func (r *alertStore) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.RareAlert, error) {
	return r.GetByID(ctx, id)
}

func (r *alertStore) Update(ctx context.Context, a *model.RareAlert) error {
	return r.s.run(ctx, func(st *state) error {
		existing, ok := st.alerts[a.ID]
		if !ok {
			return fmt.Errorf("update alert %s: %w", a.ID, model.ErrNotFound)
		}
		existing.Status = a.Status
		existing.RespondedAt = a.RespondedAt
		st.alerts[a.ID] = existing
		return nil
	})
}

func (r *alertStore) ListByDonor(ctx context.Context, donorID uuid.UUID) ([]*model.RareAlert, error) {
	out, err := r.filter(ctx, func(a *model.RareAlert) bool { return a.DonorID == donorID })
	slices.SortFunc(out, func(a, b *model.RareAlert) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, err
}

func (r *alertStore) ListPending(ctx context.Context, now time.Time, limit int) ([]*model.RareAlert, error) {
	out, err := r.filter(ctx, func(a *model.RareAlert) bool {
		return a.Status == model.AlertStatusPending && !a.NextAttemptAt.After(now)
	})
	slices.SortFunc(out, func(a, b *model.RareAlert) int {
		if c := a.NextAttemptAt.Compare(b.NextAttemptAt); c != 0 {
			return c
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, err
}

func (r *alertStore) MarkSent(ctx context.Context, id uuid.UUID) (bool, error) {
	var marked bool
	err := r.s.run(ctx, func(st *state) error {
		a, ok := st.alerts[id]
		if !ok || a.Status != model.AlertStatusPending {
			return nil
		}
		a.Status = model.AlertStatusSent
		st.alerts[id] = a
		marked = true
		return nil
	})
	return marked, err
}

func (r *alertStore) RecordFailure(ctx context.Context, id uuid.UUID, nextAttemptAt time.Time) error {
	return r.s.run(ctx, func(st *state) error {
		a, ok := st.alerts[id]
		if !ok || a.Status != model.AlertStatusPending {
			return nil
		}
		a.Attempts++
		a.NextAttemptAt = nextAttemptAt
		st.alerts[id] = a
		return nil
	})
}

func (r *alertStore) filter(ctx context.Context, keep func(*model.RareAlert) bool) ([]*model.RareAlert, error) {
	var out []*model.RareAlert
	err := r.s.run(ctx, func(st *state) error {
		for _, a := range st.alerts {
			a := a
			if keep(&a) {
				out = append(out, &a)
			}
		}
		return nil
	})
	return out, err
}

type auditLogStore struct{ s *Store }

func (r *auditLogStore) Append(ctx context.Context, e *model.AuditLogEntry) error {
	return r.s.run(ctx, func(st *state) error {
		st.audit = append(st.audit, *e)
		return nil
	})
}

func (r *auditLogStore) List(ctx context.Context, limit int) ([]*model.AuditLogEntry, error) {
	var out []*model.AuditLogEntry
	err := r.s.run(ctx, func(st *state) error {
		for i := len(st.audit) - 1; i >= 0 && len(out) < limit; i-- {
			e := st.audit[i]
			out = append(out, &e)
		}
		return nil
	})
	return out, err
}
