package users

import (
	"context"
	"errors"
	"time"

	"mung-manager/internal/apperr"
	"mung-manager/internal/domain/lifecycle"
	"mung-manager/internal/ports/auth"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// CreateOrUpdateSocialUser resolves the local account for a social profile,
// creating it on first login and refreshing mutable profile fields on every
// later one.
func (s *Service) CreateOrUpdateSocialUser(ctx context.Context, provider string, p auth.SocialProfile) (User, error) {
	existing, err := s.repo.GetBySocialID(ctx, provider, p.SocialID)
	switch {
	case err == nil:
		if !existing.Lifecycle.IsActive() {
			return User{}, apperr.PermissionDenied("user account is deactivated")
		}
		existing.Email = p.Email
		existing.Name = p.Name
		if p.PhoneNumber != "" {
			existing.PhoneNumber = p.PhoneNumber
		}
		existing.UpdatedAt = s.now()
		if err := s.repo.Update(ctx, existing); err != nil {
			return User{}, apperr.Unknown(err)
		}
		return existing, nil
	case errors.Is(err, ErrNotFound):
		now := s.now()
		u := User{
			ID:             uuid.NewString(),
			SocialID:       p.SocialID,
			SocialProvider: provider,
			Email:          p.Email,
			Name:           p.Name,
			PhoneNumber:    p.PhoneNumber,
			Lifecycle:      lifecycle.Active(),
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		created, cerr := s.repo.Create(ctx, u)
		if cerr != nil {
			return User{}, apperr.Unknown(cerr)
		}
		return created, nil
	default:
		return User{}, apperr.Unknown(err)
	}
}

func (s *Service) Get(ctx context.Context, id string) (User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, apperr.NotFound("not_found_user", "user does not exist")
		}
		return User{}, apperr.Unknown(err)
	}
	return u, nil
}
