package memory

import (
	"context"
	"slices"
	"sort"
	"time"

	"petcare-backend/internal/domain/pets"
)

type petRepo struct{ s *Store }

// clonePet evita compartir el slice de historia clínica entre copias.
func clonePet(p pets.Pet) pets.Pet {
	p.MedicalHistory = slices.Clone(p.MedicalHistory)
	return p
}

func (r petRepo) Create(ctx context.Context, p pets.Pet) error {
	defer r.s.lock(ctx)()

	put(ctx, r.s, r.s.pets, p.ID, clonePet(p))
	return nil
}

func (r petRepo) Update(ctx context.Context, p pets.Pet) error {
	defer r.s.lock(ctx)()

	if _, ok := r.s.pets[p.ID]; !ok {
		return pets.ErrNotFound
	}
	put(ctx, r.s, r.s.pets, p.ID, clonePet(p))
	return nil
}

func (r petRepo) Delete(ctx context.Context, id string) error {
	defer r.s.lock(ctx)()

	if _, ok := r.s.pets[id]; !ok {
		return pets.ErrNotFound
	}
	remove(ctx, r.s, r.s.pets, id)
	return nil
}

func (r petRepo) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	defer r.s.rlock(ctx)()

	p, ok := r.s.pets[id]
	if !ok {
		return pets.Pet{}, pets.ErrNotFound
	}
	return clonePet(p), nil
}

func (r petRepo) ListByOwner(ctx context.Context, ownerUserID string) ([]pets.Pet, error) {
	items, _, err := r.List(ctx, pets.ListFilter{OwnerUserID: ownerUserID})
	return items, err
}

func (r petRepo) List(ctx context.Context, f pets.ListFilter) ([]pets.Pet, int, error) {
	defer r.s.rlock(ctx)()

	out := make([]pets.Pet, 0)
	for _, p := range r.s.pets {
		if f.OwnerUserID != "" && p.OwnerUserID != f.OwnerUserID {
			continue
		}
		if f.Species != "" && p.Species != f.Species {
			continue
		}
		out = append(out, clonePet(p))
	}

	// orden estable por created_at asc
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return window(out, f.Offset, f.Limit), len(out), nil
}

func (r petRepo) AddMedicalRecord(ctx context.Context, petID string, rec pets.MedicalRecord, updatedAt time.Time) error {
	defer r.s.lock(ctx)()

	p, ok := r.s.pets[petID]
	if !ok {
		return pets.ErrNotFound
	}
	p = clonePet(p)
	p.MedicalHistory = append(p.MedicalHistory, rec)
	p.UpdatedAt = updatedAt
	put(ctx, r.s, r.s.pets, petID, p)
	return nil
}
