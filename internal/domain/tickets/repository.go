package tickets

import (
	"context"
	"errors"
	"time"

	"mung-manager/internal/pagination"
)

var (
	ErrNotFound = errors.New("tickets: not found")

	// ErrInsufficientCount means the consumption would push used_count past
	// total_count. Exactly one of several concurrent consumers can win; the
	// rest get this.
	ErrInsufficientCount = errors.New("tickets: insufficient unused count")

	// ErrAlreadyConsumed means a usage log already exists for the
	// reservation (idempotency key).
	ErrAlreadyConsumed = errors.New("tickets: reservation already consumed")
)

type Repository interface {
	CreateTemplate(ctx context.Context, t Ticket) error
	GetTemplate(ctx context.Context, id string) (Ticket, error)
	// ListTemplates returns non-deleted templates for the tenant, oldest
	// first.
	ListTemplates(ctx context.Context, tenantID string) ([]Ticket, error)
	UpdateTemplate(ctx context.Context, t Ticket) error

	// Register inserts the issued ticket and its registration log in one
	// transaction.
	Register(ctx context.Context, ct CustomerTicket, log RegistrationLog) error
	GetCustomerTicket(ctx context.Context, id string) (CustomerTicket, error)

	// Consume appends the usage log and applies the balance update in one
	// transaction. The update is conditional (used_count + delta <=
	// total_count) so concurrent over-draws are impossible; a duplicate
	// reservation id yields ErrAlreadyConsumed without touching the
	// balance.
	Consume(ctx context.Context, customerTicketID, reservationID string, delta int, now time.Time) (UsageLog, error)

	// ListActiveByCustomer: expired_at >= now and unused_count > 0, in
	// creation order.
	ListActiveByCustomer(ctx context.Context, customerID string, now time.Time) ([]CustomerTicket, error)

	ListRegistrations(ctx context.Context, customerID string, p pagination.Params) ([]RegistrationEntry, int, error)
	ListUsages(ctx context.Context, customerID string, p pagination.Params) ([]UsageEntry, int, error)
}
