package memory

import (
	"context"
	"sync"

	"mung-manager/internal/domain/kindergartens"
)

type kindergartensRepo struct {
	mu   sync.RWMutex
	byID map[string]kindergartens.PetKindergarden
	raw  []kindergartens.RawPetKindergarden
}

func NewKindergartensRepo() kindergartens.Repository {
	return &kindergartensRepo{byID: make(map[string]kindergartens.PetKindergarden)}
}

func (r *kindergartensRepo) Create(ctx context.Context, pk kindergartens.PetKindergarden) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[pk.ID] = pk
	return nil
}

func (r *kindergartensRepo) Update(ctx context.Context, pk kindergartens.PetKindergarden) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[pk.ID]; !ok {
		return kindergartens.ErrNotFound
	}
	r.byID[pk.ID] = pk
	return nil
}

func (r *kindergartensRepo) GetByID(ctx context.Context, id string) (kindergartens.PetKindergarden, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pk, ok := r.byID[id]
	if !ok {
		return kindergartens.PetKindergarden{}, kindergartens.ErrNotFound
	}
	return pk, nil
}

func (r *kindergartensRepo) GetByOwner(ctx context.Context, ownerUserID string) (kindergartens.PetKindergarden, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, pk := range r.byID {
		if pk.OwnerUserID == ownerUserID {
			return pk, nil
		}
	}
	return kindergartens.PetKindergarden{}, kindergartens.ErrNotFound
}

func (r *kindergartensRepo) ExistsByIDAndOwner(ctx context.Context, id, ownerUserID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pk, ok := r.byID[id]
	return ok && pk.OwnerUserID == ownerUserID, nil
}

func (r *kindergartensRepo) ExistsByOwner(ctx context.Context, ownerUserID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, pk := range r.byID {
		if pk.OwnerUserID == ownerUserID {
			return true, nil
		}
	}
	return false, nil
}

func (r *kindergartensRepo) SaveRaw(ctx context.Context, rows []kindergartens.RawPetKindergarden) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.raw = append(r.raw, rows...)
	return nil
}
