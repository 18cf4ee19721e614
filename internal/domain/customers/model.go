package customers

import (
	"time"

	"mung-manager/internal/domain/lifecycle"
)

// Customer is a registered client of one pet kindergarten. UserID is set
// once the customer links a social-login account; nil means the record was
// created by the business and is not yet claimed.
type Customer struct {
	ID       string
	TenantID string
	UserID   *string

	Name        string
	PhoneNumber string
	Memo        string

	Lifecycle lifecycle.Lifecycle
	Pets      []Pet

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Pet belongs to one customer. Deletion is soft so old reservations keep
// their pet reference.
type Pet struct {
	ID         string
	CustomerID string
	Name       string
	Lifecycle  lifecycle.Lifecycle
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// LivePets returns the non-deleted pets, the only ones name uniqueness is
// enforced over.
func (c Customer) LivePets() []Pet {
	out := make([]Pet, 0, len(c.Pets))
	for _, p := range c.Pets {
		if !p.Lifecycle.Deleted() {
			out = append(out, p)
		}
	}
	return out
}

// IsKakaoUser reports whether the record is linked to an app account.
func (c Customer) IsKakaoUser() bool {
	return c.UserID != nil
}

// Filters narrows a customer listing. Zero values mean "no filter".
type Filters struct {
	Name        string
	PhoneNumber string
	PetName     string
	IsActive    *bool
}
