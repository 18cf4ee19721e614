package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"mung-manager/internal/domain/customers"
	"mung-manager/internal/pagination"
)

type customersRepo struct {
	mu   sync.RWMutex
	byID map[string]customers.Customer
}

func NewCustomersRepo() customers.Repository {
	return &customersRepo{byID: make(map[string]customers.Customer)}
}

func (r *customersRepo) Create(ctx context.Context, c customers.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[c.ID] = clone(c)
	return nil
}

func (r *customersRepo) Update(ctx context.Context, c customers.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[c.ID]; !ok {
		return customers.ErrNotFound
	}
	r.byID[c.ID] = clone(c)
	return nil
}

func (r *customersRepo) Get(ctx context.Context, tenantID, customerID string) (customers.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byID[customerID]
	if !ok || c.TenantID != tenantID {
		return customers.Customer{}, customers.ErrNotFound
	}
	return clone(c), nil
}

func (r *customersRepo) Exists(ctx context.Context, tenantID, customerID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byID[customerID]
	return ok && c.TenantID == tenantID, nil
}

func (r *customersRepo) List(ctx context.Context, tenantID string, f customers.Filters, p pagination.Params) ([]customers.Customer, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var all []customers.Customer
	for _, c := range r.byID {
		if c.TenantID != tenantID || !matches(c, f) {
			continue
		}
		all = append(all, clone(c))
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})

	total := len(all)
	return pagination.Slice(all, p), total, nil
}

func matches(c customers.Customer, f customers.Filters) bool {
	if f.Name != "" && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(f.Name)) {
		return false
	}
	if f.PhoneNumber != "" && !strings.Contains(c.PhoneNumber, f.PhoneNumber) {
		return false
	}
	if f.IsActive != nil && c.Lifecycle.IsActive() != *f.IsActive {
		return false
	}
	if f.PetName != "" {
		found := false
		for _, p := range c.LivePets() {
			if strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.PetName)) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func clone(c customers.Customer) customers.Customer {
	out := c
	out.Pets = append([]customers.Pet(nil), c.Pets...)
	return out
}
