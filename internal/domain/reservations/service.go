package reservations

import (
	"context"
	"errors"
	"time"

	"mung-manager/internal/apperr"
	"mung-manager/internal/domain/tickets"

	"github.com/google/uuid"
)

type TenantGuard interface {
	ExistsByIDAndOwner(ctx context.Context, tenantID, ownerUserID string) (bool, error)
	DailyPetLimit(ctx context.Context, tenantID string) (int, error)
}

type CustomerGuard interface {
	Exists(ctx context.Context, tenantID, customerID string) (bool, error)
}

// TicketLedger gives read access to issued tickets so a reservation can be
// validated against the ticket it will consume. The consumption itself
// happens inside the repository transaction.
type TicketLedger interface {
	GetCustomerTicket(ctx context.Context, id string) (tickets.CustomerTicket, error)
}

type Service struct {
	repo    Repository
	tenants TenantGuard
	custs   CustomerGuard
	ledger  TicketLedger
	now     func() time.Time
}

func NewService(repo Repository, tenants TenantGuard, custs CustomerGuard, ledger TicketLedger) *Service {
	return &Service{repo: repo, tenants: tenants, custs: custs, ledger: ledger, now: time.Now}
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

type CreateInput struct {
	CustomerID       string
	CustomerPetID    string
	CustomerTicketID string
	ReservedAt       time.Time
}

// Create books a reservation and consumes one session from the customer
// ticket atomically. A date registered as a day-off is rejected before
// anything is written.
func (s *Service) Create(ctx context.Context, userID, tenantID string, in CreateInput) (Reservation, error) {
	if err := s.guard(ctx, tenantID, userID); err != nil {
		return Reservation{}, err
	}
	ok, err := s.custs.Exists(ctx, tenantID, in.CustomerID)
	if err != nil {
		return Reservation{}, apperr.Unknown(err)
	}
	if !ok {
		return Reservation{}, apperr.NotFound("not_found_customer", "customer does not exist")
	}
	if in.CustomerPetID == "" {
		return Reservation{}, apperr.Validation("invalid_parameter_format", "customer pet id is required")
	}
	if in.ReservedAt.IsZero() {
		return Reservation{}, apperr.Validation("invalid_parameter_format", "reserved_at is required")
	}

	ct, err := s.ledger.GetCustomerTicket(ctx, in.CustomerTicketID)
	if err != nil {
		if errors.Is(err, tickets.ErrNotFound) {
			return Reservation{}, apperr.NotFound("not_found_customer_ticket", "customer ticket does not exist")
		}
		return Reservation{}, apperr.Unknown(err)
	}
	if ct.CustomerID != in.CustomerID {
		return Reservation{}, apperr.Validation("invalid_customer_ticket", "ticket does not belong to the customer")
	}
	now := s.now()
	if ct.ExpiredAt.Before(now) {
		return Reservation{}, apperr.Validation("expired_ticket", "customer ticket is expired")
	}

	dayOff, err := s.repo.DayOffExists(ctx, tenantID, in.ReservedAt)
	if err != nil {
		return Reservation{}, apperr.Unknown(err)
	}
	if dayOff {
		return Reservation{}, apperr.Validation("day_off_reservation", "the requested date is a day off")
	}

	res := Reservation{
		ID:               uuid.NewString(),
		TenantID:         tenantID,
		CustomerID:       in.CustomerID,
		CustomerPetID:    in.CustomerPetID,
		CustomerTicketID: in.CustomerTicketID,
		ReservedAt:       in.ReservedAt,
		Status:           StatusRequested,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	created, err := s.repo.CreateWithConsume(ctx, res)
	if err != nil {
		switch {
		case errors.Is(err, ErrInsufficientCount):
			return Reservation{}, apperr.Conflict("insufficient_ticket_count", "customer ticket has no unused count left")
		case errors.Is(err, ErrAlreadyConsumed):
			return Reservation{}, apperr.Conflict("already_consumed", "ticket already consumed for this reservation")
		default:
			return Reservation{}, apperr.Unknown(err)
		}
	}
	return created, nil
}

func (s *Service) Get(ctx context.Context, userID, tenantID, id string) (Reservation, error) {
	if err := s.guard(ctx, tenantID, userID); err != nil {
		return Reservation{}, err
	}
	res, err := s.repo.Get(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Reservation{}, apperr.NotFound("not_found_reservation", "reservation does not exist")
		}
		return Reservation{}, apperr.Unknown(err)
	}
	return res, nil
}

func (s *Service) ListByDate(ctx context.Context, userID, tenantID string, date time.Time) ([]Reservation, error) {
	if err := s.guard(ctx, tenantID, userID); err != nil {
		return nil, err
	}
	out, err := s.repo.ListByDate(ctx, tenantID, date)
	if err != nil {
		return nil, apperr.Unknown(err)
	}
	return out, nil
}

// ToggleAttendance flips is_attended. Toggling twice restores the original
// value.
func (s *Service) ToggleAttendance(ctx context.Context, userID, tenantID, id string) (Reservation, error) {
	if err := s.guard(ctx, tenantID, userID); err != nil {
		return Reservation{}, err
	}
	res, err := s.repo.Get(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Reservation{}, apperr.NotFound("not_found_reservation", "reservation does not exist")
		}
		return Reservation{}, apperr.Unknown(err)
	}
	res.IsAttended = !res.IsAttended
	res.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, res); err != nil {
		return Reservation{}, apperr.Unknown(err)
	}
	return res, nil
}

// UpdateStatus assigns the status tag directly. Any valid tag may follow
// any other.
func (s *Service) UpdateStatus(ctx context.Context, userID, tenantID, id string, status Status) (Reservation, error) {
	if err := s.guard(ctx, tenantID, userID); err != nil {
		return Reservation{}, err
	}
	if !ValidStatus(status) {
		return Reservation{}, apperr.Validation("invalid_reservation_status", "unknown reservation status")
	}
	res, err := s.repo.Get(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Reservation{}, apperr.NotFound("not_found_reservation", "reservation does not exist")
		}
		return Reservation{}, apperr.Unknown(err)
	}
	res.Status = status
	res.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, res); err != nil {
		return Reservation{}, apperr.Unknown(err)
	}
	return res, nil
}

func (s *Service) ListDayOffs(ctx context.Context, userID, tenantID string, year int, month time.Month) ([]DayOff, error) {
	if err := s.guard(ctx, tenantID, userID); err != nil {
		return nil, err
	}
	out, err := s.repo.ListDayOffs(ctx, tenantID, year, month)
	if err != nil {
		return nil, apperr.Unknown(err)
	}
	return out, nil
}

func (s *Service) CreateDayOff(ctx context.Context, userID, tenantID string, date time.Time) (DayOff, error) {
	if err := s.guard(ctx, tenantID, userID); err != nil {
		return DayOff{}, err
	}
	if date.IsZero() {
		return DayOff{}, apperr.Validation("invalid_parameter_format", "day_off_at is required")
	}
	d := DayOff{
		ID:        uuid.NewString(),
		TenantID:  tenantID,
		DayOffAt:  date,
		CreatedAt: s.now(),
	}
	created, err := s.repo.CreateDayOff(ctx, d)
	if err != nil {
		if errors.Is(err, ErrDayOffExists) {
			return DayOff{}, apperr.Conflict("day_off_already_exists", "a day off already exists for that date")
		}
		return DayOff{}, apperr.Unknown(err)
	}
	return created, nil
}

func (s *Service) DeleteDayOff(ctx context.Context, userID, tenantID, dayOffID string) error {
	if err := s.guard(ctx, tenantID, userID); err != nil {
		return err
	}
	if err := s.repo.DeleteDayOff(ctx, tenantID, dayOffID); err != nil {
		if errors.Is(err, ErrDayOffNotFound) {
			return apperr.NotFound("not_found_day_off", "day off does not exist")
		}
		return apperr.Unknown(err)
	}
	return nil
}

// Calendar merges reservation counts with day-off and special-day markers
// into one row per day of the month.
func (s *Service) Calendar(ctx context.Context, userID, tenantID string, year int, month time.Month) ([]CalendarDay, error) {
	if err := s.guard(ctx, tenantID, userID); err != nil {
		return nil, err
	}

	counts, err := s.repo.CountByDay(ctx, tenantID, year, month)
	if err != nil {
		return nil, apperr.Unknown(err)
	}
	dayOffs, err := s.repo.ListDayOffs(ctx, tenantID, year, month)
	if err != nil {
		return nil, apperr.Unknown(err)
	}
	specials, err := s.repo.ListSpecialDays(ctx, year, month)
	if err != nil {
		return nil, apperr.Unknown(err)
	}
	limit, err := s.tenants.DailyPetLimit(ctx, tenantID)
	if err != nil {
		return nil, apperr.Unknown(err)
	}

	offByDate := make(map[string]bool, len(dayOffs))
	for _, d := range dayOffs {
		offByDate[DateKey(d.DayOffAt)] = true
	}
	specialsByDate := make(map[string][]string)
	for _, sd := range specials {
		k := DateKey(sd.SpecialDayAt)
		specialsByDate[k] = append(specialsByDate[k], sd.Name)
	}

	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	days := first.AddDate(0, 1, -1).Day()
	out := make([]CalendarDay, 0, days)
	for i := 0; i < days; i++ {
		date := first.AddDate(0, 0, i)
		k := DateKey(date)
		n := counts[k]
		out = append(out, CalendarDay{
			Date:             date,
			ReservationCount: n,
			IsDayOff:         offByDate[k],
			SpecialDayNames:  specialsByDate[k],
			IsOverDailyLimit: limit > 0 && n > limit,
		})
	}
	return out, nil
}
