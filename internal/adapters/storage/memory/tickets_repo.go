package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"mung-manager/internal/domain/tickets"
	"mung-manager/internal/pagination"

	"github.com/google/uuid"
)

// TicketsRepo is exported, unlike the other memory repos, because the
// reservations repo drives its consume step directly.
type TicketsRepo struct {
	mu            sync.RWMutex
	templates     map[string]tickets.Ticket
	custTickets   map[string]tickets.CustomerTicket
	registrations []tickets.RegistrationLog
	usages        []tickets.UsageLog

	// usageDetails lets ListUsages resolve reservation fields without a
	// reference back to the reservations repo.
	usageDetails map[string]usageDetail
}

type usageDetail struct {
	reservedAt time.Time
	isAttended bool
	status     string
}

func NewTicketsRepo() *TicketsRepo {
	return &TicketsRepo{
		templates:    make(map[string]tickets.Ticket),
		custTickets:  make(map[string]tickets.CustomerTicket),
		usageDetails: make(map[string]usageDetail),
	}
}

func (r *TicketsRepo) CreateTemplate(ctx context.Context, t tickets.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[t.ID] = t
	return nil
}

func (r *TicketsRepo) UpdateTemplate(ctx context.Context, t tickets.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.templates[t.ID]; !ok {
		return tickets.ErrNotFound
	}
	r.templates[t.ID] = t
	return nil
}

func (r *TicketsRepo) GetTemplate(ctx context.Context, id string) (tickets.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.templates[id]
	if !ok {
		return tickets.Ticket{}, tickets.ErrNotFound
	}
	return t, nil
}

func (r *TicketsRepo) ListTemplates(ctx context.Context, tenantID string) ([]tickets.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []tickets.Ticket
	for _, t := range r.templates {
		if t.TenantID == tenantID && !t.Lifecycle.Deleted() {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *TicketsRepo) Register(ctx context.Context, ct tickets.CustomerTicket, log tickets.RegistrationLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.custTickets[ct.ID] = ct
	r.registrations = append(r.registrations, log)
	return nil
}

func (r *TicketsRepo) GetCustomerTicket(ctx context.Context, id string) (tickets.CustomerTicket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ct, ok := r.custTickets[id]
	if !ok {
		return tickets.CustomerTicket{}, tickets.ErrNotFound
	}
	return ct, nil
}

func (r *TicketsRepo) Consume(ctx context.Context, customerTicketID, reservationID string, delta int, now time.Time) (tickets.UsageLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.consumeLocked(customerTicketID, reservationID, delta, now)
}

// consumeLocked assumes r.mu is held for writing.
func (r *TicketsRepo) consumeLocked(customerTicketID, reservationID string, delta int, now time.Time) (tickets.UsageLog, error) {
	for _, u := range r.usages {
		if u.ReservationID == reservationID {
			return tickets.UsageLog{}, tickets.ErrAlreadyConsumed
		}
	}
	ct, ok := r.custTickets[customerTicketID]
	if !ok {
		return tickets.UsageLog{}, tickets.ErrNotFound
	}
	if ct.UsedCount+delta > ct.TotalCount {
		return tickets.UsageLog{}, tickets.ErrInsufficientCount
	}
	ct.UsedCount += delta
	ct.UpdatedAt = now
	r.custTickets[ct.ID] = ct

	log := tickets.UsageLog{
		ID:               uuid.NewString(),
		CustomerTicketID: customerTicketID,
		ReservationID:    reservationID,
		UsedCount:        delta,
		CreatedAt:        now,
	}
	r.usages = append(r.usages, log)
	return log, nil
}

// SetUsageDetail records reservation fields for the usage report. The
// reservations repo calls it on create and on update.
func (r *TicketsRepo) SetUsageDetail(reservationID string, reservedAt time.Time, isAttended bool, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.usageDetails[reservationID] = usageDetail{reservedAt: reservedAt, isAttended: isAttended, status: status}
}

func (r *TicketsRepo) ListActiveByCustomer(ctx context.Context, customerID string, now time.Time) ([]tickets.CustomerTicket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []tickets.CustomerTicket
	for _, ct := range r.custTickets {
		if ct.CustomerID == customerID && ct.IsActive(now) {
			out = append(out, ct)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *TicketsRepo) ListRegistrations(ctx context.Context, customerID string, p pagination.Params) ([]tickets.RegistrationEntry, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var all []tickets.RegistrationEntry
	for _, log := range r.registrations {
		ct, ok := r.custTickets[log.CustomerTicketID]
		if !ok || ct.CustomerID != customerID {
			continue
		}
		all = append(all, tickets.RegistrationEntry{
			Log:            log,
			CustomerTicket: ct,
			Ticket:         r.templates[ct.TicketID],
		})
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].Log.CreatedAt.After(all[j].Log.CreatedAt)
	})
	total := len(all)
	return pagination.Slice(all, p), total, nil
}

func (r *TicketsRepo) ListUsages(ctx context.Context, customerID string, p pagination.Params) ([]tickets.UsageEntry, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var all []tickets.UsageEntry
	for _, log := range r.usages {
		ct, ok := r.custTickets[log.CustomerTicketID]
		if !ok || ct.CustomerID != customerID {
			continue
		}
		d := r.usageDetails[log.ReservationID]
		all = append(all, tickets.UsageEntry{
			Log:               log,
			CustomerTicket:    ct,
			Ticket:            r.templates[ct.TicketID],
			ReservedAt:        d.reservedAt,
			IsAttended:        d.isAttended,
			ReservationStatus: d.status,
		})
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].Log.CreatedAt.After(all[j].Log.CreatedAt)
	})
	total := len(all)
	return pagination.Slice(all, p), total, nil
}
