package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"mung-manager/internal/domain/reservations"
	"mung-manager/internal/domain/tickets"
)

type reservationsRepo struct {
	mu          sync.RWMutex
	byID        map[string]reservations.Reservation
	dayOffs     map[string]reservations.DayOff
	specialDays []reservations.SpecialDay

	tickets *TicketsRepo
}

// NewReservationsRepo couples the reservation store to the ticket store so
// a booking and its ledger consumption happen together, mirroring the
// transactional repo.
func NewReservationsRepo(tr *TicketsRepo) reservations.Repository {
	return &reservationsRepo{
		byID:    make(map[string]reservations.Reservation),
		dayOffs: make(map[string]reservations.DayOff),
		tickets: tr,
	}
}

func (r *reservationsRepo) CreateWithConsume(ctx context.Context, res reservations.Reservation) (reservations.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.tickets.Consume(ctx, res.CustomerTicketID, res.ID, 1, res.CreatedAt); err != nil {
		switch {
		case errors.Is(err, tickets.ErrInsufficientCount):
			return reservations.Reservation{}, reservations.ErrInsufficientCount
		case errors.Is(err, tickets.ErrAlreadyConsumed):
			return reservations.Reservation{}, reservations.ErrAlreadyConsumed
		default:
			return reservations.Reservation{}, err
		}
	}
	r.byID[res.ID] = res
	r.tickets.SetUsageDetail(res.ID, res.ReservedAt, res.IsAttended, string(res.Status))
	return res, nil
}

func (r *reservationsRepo) Get(ctx context.Context, tenantID, id string) (reservations.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.byID[id]
	if !ok || res.TenantID != tenantID {
		return reservations.Reservation{}, reservations.ErrNotFound
	}
	return res, nil
}

func (r *reservationsRepo) ListByDate(ctx context.Context, tenantID string, date time.Time) ([]reservations.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key := reservations.DateKey(date)
	var out []reservations.Reservation
	for _, res := range r.byID {
		if res.TenantID == tenantID && reservations.DateKey(res.ReservedAt) == key {
			out = append(out, res)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ReservedAt.Equal(out[j].ReservedAt) {
			return out[i].ReservedAt.Before(out[j].ReservedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *reservationsRepo) Update(ctx context.Context, res reservations.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, ok := r.byID[res.ID]
	if !ok || prev.TenantID != res.TenantID {
		return reservations.ErrNotFound
	}
	r.byID[res.ID] = res
	r.tickets.SetUsageDetail(res.ID, res.ReservedAt, res.IsAttended, string(res.Status))
	return nil
}

func (r *reservationsRepo) CountByDay(ctx context.Context, tenantID string, year int, month time.Month) (map[string]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]int)
	for _, res := range r.byID {
		if res.TenantID != tenantID || res.Status == reservations.StatusCanceled {
			continue
		}
		t := res.ReservedAt.UTC()
		if t.Year() == year && t.Month() == month {
			out[reservations.DateKey(t)]++
		}
	}
	return out, nil
}

func (r *reservationsRepo) ListDayOffs(ctx context.Context, tenantID string, year int, month time.Month) ([]reservations.DayOff, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []reservations.DayOff
	for _, d := range r.dayOffs {
		t := d.DayOffAt.UTC()
		if d.TenantID == tenantID && t.Year() == year && t.Month() == month {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DayOffAt.Before(out[j].DayOffAt) })
	return out, nil
}

func (r *reservationsRepo) DayOffExists(ctx context.Context, tenantID string, date time.Time) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.dayOffExistsLocked(tenantID, date), nil
}

func (r *reservationsRepo) dayOffExistsLocked(tenantID string, date time.Time) bool {
	key := reservations.DateKey(date)
	for _, d := range r.dayOffs {
		if d.TenantID == tenantID && reservations.DateKey(d.DayOffAt) == key {
			return true
		}
	}
	return false
}

func (r *reservationsRepo) CreateDayOff(ctx context.Context, d reservations.DayOff) (reservations.DayOff, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.dayOffExistsLocked(d.TenantID, d.DayOffAt) {
		return reservations.DayOff{}, reservations.ErrDayOffExists
	}
	r.dayOffs[d.ID] = d
	return d, nil
}

func (r *reservationsRepo) DeleteDayOff(ctx context.Context, tenantID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.dayOffs[id]
	if !ok || d.TenantID != tenantID {
		return reservations.ErrDayOffNotFound
	}
	delete(r.dayOffs, id)
	return nil
}

func (r *reservationsRepo) ListSpecialDays(ctx context.Context, year int, month time.Month) ([]reservations.SpecialDay, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []reservations.SpecialDay
	for _, sd := range r.specialDays {
		t := sd.SpecialDayAt.UTC()
		if t.Year() == year && t.Month() == month {
			out = append(out, sd)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SpecialDayAt.Before(out[j].SpecialDayAt) })
	return out, nil
}

// SeedSpecialDays loads holiday rows into the store. Dev mode seeds a
// handful so the calendar has markers to render.
func SeedSpecialDays(repo reservations.Repository, days []reservations.SpecialDay) {
	r, ok := repo.(*reservationsRepo)
	if !ok {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.specialDays = append(r.specialDays, days...)
}
