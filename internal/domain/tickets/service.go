package tickets

import (
	"context"
	"errors"
	"time"

	"mung-manager/internal/apperr"
	"mung-manager/internal/domain/lifecycle"
	"mung-manager/internal/pagination"

	"github.com/google/uuid"
)

type TenantGuard interface {
	ExistsByIDAndOwner(ctx context.Context, tenantID, ownerUserID string) (bool, error)
}

type CustomerGuard interface {
	Exists(ctx context.Context, tenantID, customerID string) (bool, error)
}

type Service struct {
	repo      Repository
	tenants   TenantGuard
	customers CustomerGuard
	now       func() time.Time
}

func NewService(repo Repository, tenants TenantGuard, customers CustomerGuard) *Service {
	return &Service{
		repo:      repo,
		tenants:   tenants,
		customers: customers,
		now:       time.Now,
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

func (s *Service) guardCustomer(ctx context.Context, tenantID, customerID string) error {
	ok, err := s.customers.Exists(ctx, tenantID, customerID)
	if err != nil {
		return apperr.Unknown(err)
	}
	if !ok {
		return apperr.NotFound("not_found_customer", "customer does not exist")
	}
	return nil
}

type TemplateInput struct {
	TicketType             string
	UsageTime              int
	UsageCount             int
	UsagePeriodInDaysCount int
	Price                  int
}

func (s *Service) CreateTemplate(ctx context.Context, userID, tenantID string, in TemplateInput) (Ticket, error) {
	if err := s.guard(ctx, tenantID, userID); err != nil {
		return Ticket{}, err
	}

	switch TicketType(in.TicketType) {
	case TypeTime, TypeAllDay, TypeHotel:
	default:
		return Ticket{}, apperr.Validation("invalid_parameter_format", "unknown ticket type")
	}
	if in.UsageCount <= 0 || in.UsagePeriodInDaysCount <= 0 {
		return Ticket{}, apperr.Validation("invalid_parameter_format", "usage count and usage period must be positive")
	}
	if in.UsageTime < 0 || in.Price < 0 {
		return Ticket{}, apperr.Validation("invalid_parameter_format", "usage time and price must not be negative")
	}

	now := s.now()
	t := Ticket{
		ID:                     uuid.NewString(),
		TenantID:               tenantID,
		TicketType:             TicketType(in.TicketType),
		UsageTime:              in.UsageTime,
		UsageCount:             in.UsageCount,
		UsagePeriodInDaysCount: in.UsagePeriodInDaysCount,
		Price:                  in.Price,
		Lifecycle:              lifecycle.Active(),
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	if err := s.repo.CreateTemplate(ctx, t); err != nil {
		return Ticket{}, apperr.Unknown(err)
	}
	return t, nil
}

func (s *Service) ListTemplates(ctx context.Context, userID, tenantID string) ([]Ticket, error) {
	if err := s.guard(ctx, tenantID, userID); err != nil {
		return nil, err
	}
	ts, err := s.repo.ListTemplates(ctx, tenantID)
	if err != nil {
		return nil, apperr.Unknown(err)
	}
	return ts, nil
}

// DeleteTemplate retires a template. Soft: issued CustomerTickets keep
// working until they expire.
func (s *Service) DeleteTemplate(ctx context.Context, userID, tenantID, ticketID string) error {
	if err := s.guard(ctx, tenantID, userID); err != nil {
		return err
	}

	t, err := s.repo.GetTemplate(ctx, ticketID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperr.NotFound("not_found_ticket", "ticket does not exist")
		}
		return apperr.Unknown(err)
	}
	if t.TenantID != tenantID {
		return apperr.NotFound("not_found_ticket", "ticket does not exist")
	}

	t.Lifecycle = t.Lifecycle.Delete(s.now())
	t.UpdatedAt = s.now()
	if err := s.repo.UpdateTemplate(ctx, t); err != nil {
		return apperr.Unknown(err)
	}
	return nil
}

// Register issues a CustomerTicket snapshot from a template and appends the
// registration log, atomically.
func (s *Service) Register(ctx context.Context, userID, tenantID, customerID, ticketID string) (CustomerTicket, error) {
	if err := s.guard(ctx, tenantID, userID); err != nil {
		return CustomerTicket{}, err
	}
	if err := s.guardCustomer(ctx, tenantID, customerID); err != nil {
		return CustomerTicket{}, err
	}

	t, err := s.repo.GetTemplate(ctx, ticketID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return CustomerTicket{}, apperr.NotFound("not_found_ticket", "ticket does not exist")
		}
		return CustomerTicket{}, apperr.Unknown(err)
	}
	if t.TenantID != tenantID {
		return CustomerTicket{}, apperr.Validation("invalid_parameter_format", "ticket belongs to a different pet kindergarden")
	}
	if t.Lifecycle.Deleted() {
		return CustomerTicket{}, apperr.NotFound("not_found_ticket", "ticket does not exist")
	}

	issuedAt := s.now()
	ct := CustomerTicket{
		ID:         uuid.NewString(),
		CustomerID: customerID,
		TicketID:   t.ID,
		TotalCount: t.UsageCount,
		UsedCount:  0,
		ExpiredAt:  issuedAt.AddDate(0, 0, t.UsagePeriodInDaysCount),
		CreatedAt:  issuedAt,
		UpdatedAt:  issuedAt,
	}
	log := RegistrationLog{
		ID:               uuid.NewString(),
		CustomerTicketID: ct.ID,
		CreatedAt:        issuedAt,
	}

	if err := s.repo.Register(ctx, ct, log); err != nil {
		return CustomerTicket{}, apperr.Unknown(err)
	}
	return ct, nil
}

// Consume draws delta sessions from an issued ticket for a reservation.
// Safe under concurrency and idempotent per reservation id.
func (s *Service) Consume(ctx context.Context, customerTicketID, reservationID string, delta int) (UsageLog, error) {
	if delta <= 0 {
		return UsageLog{}, apperr.Validation("invalid_parameter_format", "delta must be positive")
	}

	log, err := s.repo.Consume(ctx, customerTicketID, reservationID, delta, s.now())
	switch {
	case err == nil:
		return log, nil
	case errors.Is(err, ErrNotFound):
		return UsageLog{}, apperr.NotFound("not_found_customer_ticket", "customer ticket does not exist")
	case errors.Is(err, ErrInsufficientCount):
		return UsageLog{}, apperr.Conflict("insufficient_ticket_count", "customer ticket has no unused count left")
	case errors.Is(err, ErrAlreadyConsumed):
		return UsageLog{}, apperr.Conflict("already_consumed", "ticket was already consumed for this reservation")
	default:
		return UsageLog{}, apperr.Unknown(err)
	}
}

// ListActive returns the customer's currently usable tickets, oldest first.
func (s *Service) ListActive(ctx context.Context, userID, tenantID, customerID string) ([]CustomerTicket, error) {
	if err := s.guard(ctx, tenantID, userID); err != nil {
		return nil, err
	}
	if err := s.guardCustomer(ctx, tenantID, customerID); err != nil {
		return nil, err
	}

	cts, err := s.repo.ListActiveByCustomer(ctx, customerID, s.now())
	if err != nil {
		return nil, apperr.Unknown(err)
	}
	return cts, nil
}

func (s *Service) ListRegistrations(ctx context.Context, userID, tenantID, customerID string, p pagination.Params) (pagination.Page[RegistrationEntry], error) {
	if err := s.guard(ctx, tenantID, userID); err != nil {
		return pagination.Page[RegistrationEntry]{}, err
	}
	if err := s.guardCustomer(ctx, tenantID, customerID); err != nil {
		return pagination.Page[RegistrationEntry]{}, err
	}

	items, total, err := s.repo.ListRegistrations(ctx, customerID, p)
	if err != nil {
		return pagination.Page[RegistrationEntry]{}, apperr.Unknown(err)
	}
	return pagination.NewPage(total, p, items), nil
}

func (s *Service) ListUsages(ctx context.Context, userID, tenantID, customerID string, p pagination.Params) (pagination.Page[UsageEntry], error) {
	if err := s.guard(ctx, tenantID, userID); err != nil {
		return pagination.Page[UsageEntry]{}, err
	}
	if err := s.guardCustomer(ctx, tenantID, customerID); err != nil {
		return pagination.Page[UsageEntry]{}, err
	}

	items, total, err := s.repo.ListUsages(ctx, customerID, p)
	if err != nil {
		return pagination.Page[UsageEntry]{}, apperr.Unknown(err)
	}
	return pagination.NewPage(total, p, items), nil
}

// SummariesForCustomer is a composition helper for the customer listing,
// which embeds active ticket balances. Ownership is already checked by the
// caller.
func (s *Service) SummariesForCustomer(ctx context.Context, customerID string) ([]CustomerTicket, error) {
	return s.repo.ListActiveByCustomer(ctx, customerID, s.now())
}

// GetCustomerTicket is used by the reservation service to validate the
// ticket being booked against.
func (s *Service) GetCustomerTicket(ctx context.Context, id string) (CustomerTicket, error) {
	return s.repo.GetCustomerTicket(ctx, id)
}

// Template resolves the source template of an issued ticket for display.
func (s *Service) Template(ctx context.Context, ticketID string) (Ticket, error) {
	return s.repo.GetTemplate(ctx, ticketID)
}
