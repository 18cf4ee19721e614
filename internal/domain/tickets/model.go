package tickets

import (
	"time"

	"mung-manager/internal/domain/lifecycle"
)

type TicketType string

const (
	TypeTime   TicketType = "time"
	TypeAllDay TicketType = "all_day"
	TypeHotel  TicketType = "hotel"
)

// Ticket is a purchasable service template. Templates are treated as
// immutable once issued against a CustomerTicket; retiring one is a soft
// delete so issued instances keep their snapshot source.
type Ticket struct {
	ID       string
	TenantID string

	TicketType             TicketType
	UsageTime              int
	UsageCount             int
	UsagePeriodInDaysCount int
	Price                  int

	Lifecycle lifecycle.Lifecycle
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CustomerTicket is an issued, trackable instance of a Ticket. TotalCount
// and ExpiredAt are snapshotted at registration and never change.
type CustomerTicket struct {
	ID         string
	CustomerID string
	TicketID   string

	TotalCount int
	UsedCount  int
	ExpiredAt  time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// UnusedCount is always derived, never stored, so it cannot drift.
func (ct CustomerTicket) UnusedCount() int {
	return ct.TotalCount - ct.UsedCount
}

func (ct CustomerTicket) IsActive(now time.Time) bool {
	return !ct.ExpiredAt.Before(now) && ct.UnusedCount() > 0
}

const (
	StatusExpired = "expired"
	StatusInUse   = "in_use"
)

// Status reports the display status of an issued ticket.
func (ct CustomerTicket) Status(now time.Time) string {
	if ct.ExpiredAt.Before(now) {
		return StatusExpired
	}
	return StatusInUse
}

// RegistrationLog is the append-only audit record of a ticket issuance.
type RegistrationLog struct {
	ID               string
	CustomerTicketID string
	CreatedAt        time.Time
}

// UsageLog is the append-only audit record of a consumption. ReservationID
// is unique: it is the idempotency key against double consumption.
type UsageLog struct {
	ID               string
	CustomerTicketID string
	ReservationID    string
	UsedCount        int
	CreatedAt        time.Time
}

// RegistrationEntry joins a registration log with its issued ticket and the
// source template for the paginated history listing.
type RegistrationEntry struct {
	Log            RegistrationLog
	CustomerTicket CustomerTicket
	Ticket         Ticket
}

// UsageEntry joins a usage log with ticket and reservation details for the
// attendance/expiry report.
type UsageEntry struct {
	Log               UsageLog
	CustomerTicket    CustomerTicket
	Ticket            Ticket
	ReservedAt        time.Time
	IsAttended        bool
	ReservationStatus string
}
