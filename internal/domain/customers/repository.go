package customers

import (
	"context"

	"mung-manager/internal/pagination"
)

type Repository interface {
	// Create persists the customer and its pets atomically.
	Create(ctx context.Context, c Customer) error
	Get(ctx context.Context, tenantID, customerID string) (Customer, error)
	// Update persists scalar fields and the full pet collection, including
	// soft-deleted entries.
	Update(ctx context.Context, c Customer) error
	List(ctx context.Context, tenantID string, f Filters, p pagination.Params) (items []Customer, total int, err error)
	Exists(ctx context.Context, tenantID, customerID string) (bool, error)
}
