// Package memory holds mutex-guarded map repositories used by the dev mode
// and the router tests.
package memory

import (
	"context"
	"sync"

	"mung-manager/internal/domain/users"
)

type usersRepo struct {
	mu   sync.RWMutex
	byID map[string]users.User
}

func NewUsersRepo() users.Repository {
	return &usersRepo{byID: make(map[string]users.User)}
}

func (r *usersRepo) Create(ctx context.Context, u users.User) (users.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[u.ID] = u
	return u, nil
}

func (r *usersRepo) Update(ctx context.Context, u users.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[u.ID]; !ok {
		return users.ErrNotFound
	}
	r.byID[u.ID] = u
	return nil
}

func (r *usersRepo) GetByID(ctx context.Context, id string) (users.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	return u, nil
}

func (r *usersRepo) GetBySocialID(ctx context.Context, provider, socialID string) (users.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.byID {
		if u.SocialProvider == provider && u.SocialID == socialID {
			return u, nil
		}
	}
	return users.User{}, users.ErrNotFound
}
