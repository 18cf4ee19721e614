package users

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("user not found")

type Repository interface {
	Create(ctx context.Context, u User) (User, error)
	GetByID(ctx context.Context, id string) (User, error)
	GetBySocialID(ctx context.Context, provider, socialID string) (User, error)
	Update(ctx context.Context, u User) error
}
