package reservations

import "time"

// Status is an externally driven tag. Transitions are direct assignments,
// there is no in-process state machine guarding them.
type Status string

const (
	StatusRequested Status = "requested"
	StatusConfirmed Status = "confirmed"
	StatusCanceled  Status = "canceled"
	StatusCompleted Status = "completed"
)

func ValidStatus(s Status) bool {
	switch s {
	case StatusRequested, StatusConfirmed, StatusCanceled, StatusCompleted:
		return true
	}
	return false
}

type Reservation struct {
	ID               string
	TenantID         string
	CustomerID       string
	CustomerPetID    string
	CustomerTicketID string

	ReservedAt time.Time
	Status     Status
	IsAttended bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DayOff is a tenant-specific date excluded from reservations. The pair
// (TenantID, DayOffAt) is unique.
type DayOff struct {
	ID        string
	TenantID  string
	DayOffAt  time.Time
	CreatedAt time.Time
}

// SpecialDay is a shared national holiday row, not tenant scoped.
type SpecialDay struct {
	ID           string
	Name         string
	SpecialDayAt time.Time
}

// CalendarDay is one cell of the month view. IsOverDailyLimit only reports
// that the count exceeds the tenant's daily pet limit; nothing blocks on it.
type CalendarDay struct {
	Date             time.Time
	ReservationCount int
	IsDayOff         bool
	SpecialDayNames  []string
	IsOverDailyLimit bool
}

// DateKey normalizes a timestamp to its calendar date in UTC. Day-offs,
// special days and calendar counts all compare on this key.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
