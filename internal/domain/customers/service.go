package customers

import (
	"context"
	"errors"
	"strings"
	"time"

	"mung-manager/internal/apperr"
	"mung-manager/internal/domain/lifecycle"
	"mung-manager/internal/pagination"

	"github.com/google/uuid"
)

var (
	ErrNotFound    = errors.New("customers: not found")
	ErrPetNotFound = errors.New("customers: pet not found")
)

// TenantGuard verifies the tenant belongs to the caller before any
// tenant-scoped operation runs.
type TenantGuard interface {
	ExistsByIDAndOwner(ctx context.Context, tenantID, ownerUserID string) (bool, error)
}

type Service struct {
	repo    Repository
	tenants TenantGuard
	now     func() time.Time
}

func NewService(repo Repository, tenants TenantGuard) *Service {
	return &Service{
		repo:    repo,
		tenants: tenants,
		now:     time.Now,
	}
}

func (s *Service) guard(ctx context.Context, tenantID, userID string) error {
	ok, err := s.tenants.ExistsByIDAndOwner(ctx, tenantID, userID)
	if err != nil {
		return apperr.Unknown(err)
	}
	if !ok {
		return apperr.NotFound("not_found_pet_kindergarden", "pet kindergarden does not exist")
	}
	return nil
}

func (s *Service) List(ctx context.Context, userID, tenantID string, f Filters, p pagination.Params) (pagination.Page[Customer], error) {
	if err := s.guard(ctx, tenantID, userID); err != nil {
		return pagination.Page[Customer]{}, err
	}

	items, total, err := s.repo.List(ctx, tenantID, f, p)
	if err != nil {
		return pagination.Page[Customer]{}, apperr.Unknown(err)
	}
	return pagination.NewPage(total, p, items), nil
}

type CreateInput struct {
	Name        string
	PhoneNumber string
	PetNames    []string
}

func (s *Service) Create(ctx context.Context, userID, tenantID string, in CreateInput) (Customer, error) {
	if err := s.guard(ctx, tenantID, userID); err != nil {
		return Customer{}, err
	}
	return s.create(ctx, tenantID, in)
}

// create holds the validation shared with batch import, which guards the
// tenant once for the whole file.
func (s *Service) create(ctx context.Context, tenantID string, in CreateInput) (Customer, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Customer{}, apperr.Validation("invalid_parameter_format", "name is required")
	}

	phone, err := NormalizePhone(in.PhoneNumber)
	if err != nil {
		return Customer{}, err
	}

	if err := checkUniquePetNames(in.PetNames, nil); err != nil {
		return Customer{}, err
	}

	now := s.now()
	c := Customer{
		ID:          uuid.NewString(),
		TenantID:    tenantID,
		Name:        name,
		PhoneNumber: phone,
		Lifecycle:   lifecycle.Active(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, pn := range in.PetNames {
		c.Pets = append(c.Pets, Pet{
			ID:         uuid.NewString(),
			CustomerID: c.ID,
			Name:       strings.TrimSpace(pn),
			Lifecycle:  lifecycle.Active(),
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return Customer{}, apperr.Unknown(err)
	}
	return c, nil
}

func (s *Service) Get(ctx context.Context, userID, tenantID, customerID string) (Customer, error) {
	if err := s.guard(ctx, tenantID, userID); err != nil {
		return Customer{}, err
	}

	c, err := s.repo.Get(ctx, tenantID, customerID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Customer{}, apperr.NotFound("not_found_customer", "customer does not exist")
		}
		return Customer{}, apperr.Unknown(err)
	}
	return c, nil
}

// ToggleActive flips the customer's active state. Applying it twice
// restores the original value.
func (s *Service) ToggleActive(ctx context.Context, userID, tenantID, customerID string) (Customer, error) {
	c, err := s.Get(ctx, userID, tenantID, customerID)
	if err != nil {
		return Customer{}, err
	}

	c.Lifecycle = c.Lifecycle.Toggle()
	c.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, c); err != nil {
		return Customer{}, apperr.Unknown(err)
	}
	return c, nil
}

type UpdateInput struct {
	Name         string
	PhoneNumber  string
	PetsToAdd    []string
	PetsToDelete []string
	Memo         string
}

// Update applies a diff: scalar fields replaced, PetsToAdd created
// (uniqueness-checked against live pets), PetsToDelete soft-deleted by
// name. A name deleted earlier can be added again.
func (s *Service) Update(ctx context.Context, userID, tenantID, customerID string, in UpdateInput) (Customer, error) {
	c, err := s.Get(ctx, userID, tenantID, customerID)
	if err != nil {
		return Customer{}, err
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Customer{}, apperr.Validation("invalid_parameter_format", "name is required")
	}
	phone, err := NormalizePhone(in.PhoneNumber)
	if err != nil {
		return Customer{}, err
	}

	now := s.now()

	// Deletions first so an add can reuse a just-freed name.
	for _, dn := range in.PetsToDelete {
		dn = strings.TrimSpace(dn)
		found := false
		for i := range c.Pets {
			if c.Pets[i].Name == dn && !c.Pets[i].Lifecycle.Deleted() {
				c.Pets[i].Lifecycle = c.Pets[i].Lifecycle.Delete(now)
				c.Pets[i].UpdatedAt = now
				found = true
				break
			}
		}
		if !found {
			return Customer{}, apperr.NotFound("not_found_customer_pet", "pet to delete does not exist")
		}
	}

	live := make([]string, 0, len(c.Pets))
	for _, p := range c.LivePets() {
		live = append(live, p.Name)
	}
	if err := checkUniquePetNames(in.PetsToAdd, live); err != nil {
		return Customer{}, err
	}

	for _, an := range in.PetsToAdd {
		c.Pets = append(c.Pets, Pet{
			ID:         uuid.NewString(),
			CustomerID: c.ID,
			Name:       strings.TrimSpace(an),
			Lifecycle:  lifecycle.Active(),
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}

	c.Name = name
	c.PhoneNumber = phone
	c.Memo = in.Memo
	c.UpdatedAt = now

	if err := s.repo.Update(ctx, c); err != nil {
		return Customer{}, apperr.Unknown(err)
	}
	return c, nil
}

// Exists is the guard other domains (tickets, reservations) run before
// touching a customer.
func (s *Service) Exists(ctx context.Context, tenantID, customerID string) (bool, error) {
	return s.repo.Exists(ctx, tenantID, customerID)
}

// checkUniquePetNames rejects blanks, duplicates within names, and
// collisions with existing live names.
func checkUniquePetNames(names, existing []string) error {
	seen := make(map[string]struct{}, len(names)+len(existing))
	for _, e := range existing {
		seen[e] = struct{}{}
	}
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			return apperr.Validation("invalid_parameter_format", "pet name must not be blank")
		}
		if _, dup := seen[n]; dup {
			return apperr.Validation("duplicate_pet_name", "pet name is duplicated: "+n)
		}
		seen[n] = struct{}{}
	}
	return nil
}
