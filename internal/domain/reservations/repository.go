package reservations

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound       = errors.New("reservation not found")
	ErrDayOffNotFound = errors.New("day off not found")
	ErrDayOffExists   = errors.New("day off already exists")

	// ErrInsufficientCount means the conditional balance update matched no
	// row: the ticket has no unused sessions left.
	ErrInsufficientCount = errors.New("insufficient ticket count")
	// ErrAlreadyConsumed means a usage log already exists for the
	// reservation, so the consumption was not applied twice.
	ErrAlreadyConsumed = errors.New("ticket already consumed for reservation")
)

type Repository interface {
	// CreateWithConsume inserts the reservation, appends a usage log and
	// applies the conditional balance update on the customer ticket in one
	// transaction. It returns ErrInsufficientCount when the balance guard
	// rejects the update and ErrAlreadyConsumed on a duplicate
	// reservation id in the usage log.
	CreateWithConsume(ctx context.Context, res Reservation) (Reservation, error)
	Get(ctx context.Context, tenantID, id string) (Reservation, error)
	ListByDate(ctx context.Context, tenantID string, date time.Time) ([]Reservation, error)
	Update(ctx context.Context, res Reservation) error
	// CountByDay returns reservation counts for the month keyed by DateKey.
	// Canceled reservations are not counted.
	CountByDay(ctx context.Context, tenantID string, year int, month time.Month) (map[string]int, error)

	ListDayOffs(ctx context.Context, tenantID string, year int, month time.Month) ([]DayOff, error)
	DayOffExists(ctx context.Context, tenantID string, date time.Time) (bool, error)
	CreateDayOff(ctx context.Context, d DayOff) (DayOff, error)
	DeleteDayOff(ctx context.Context, tenantID, id string) error

	ListSpecialDays(ctx context.Context, year int, month time.Month) ([]SpecialDay, error)
}
