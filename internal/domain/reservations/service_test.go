package reservations

import (
	"context"
	"testing"
	"time"

	"mung-manager/internal/apperr"
	"mung-manager/internal/domain/tickets"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

type testRepo struct {
	byID        map[string]Reservation
	dayOffs     map[string]DayOff
	specialDays []SpecialDay

	consumed map[string]bool // reservation id -> consumed
	balance  map[string]int  // customer ticket id -> remaining sessions
}

func newTestRepo() *testRepo {
	return &testRepo{
		byID:     map[string]Reservation{},
		dayOffs:  map[string]DayOff{},
		consumed: map[string]bool{},
		balance:  map[string]int{},
	}
}

func (r *testRepo) CreateWithConsume(ctx context.Context, res Reservation) (Reservation, error) {
	if r.consumed[res.ID] {
		return Reservation{}, ErrAlreadyConsumed
	}
	if r.balance[res.CustomerTicketID] <= 0 {
		return Reservation{}, ErrInsufficientCount
	}
	r.balance[res.CustomerTicketID]--
	r.consumed[res.ID] = true
	r.byID[res.ID] = res
	return res, nil
}

func (r *testRepo) Get(ctx context.Context, tenantID, id string) (Reservation, error) {
	res, ok := r.byID[id]
	if !ok || res.TenantID != tenantID {
		return Reservation{}, ErrNotFound
	}
	return res, nil
}

func (r *testRepo) ListByDate(ctx context.Context, tenantID string, date time.Time) ([]Reservation, error) {
	key := DateKey(date)
	var out []Reservation
	for _, res := range r.byID {
		if res.TenantID == tenantID && DateKey(res.ReservedAt) == key {
			out = append(out, res)
		}
	}
	return out, nil
}

func (r *testRepo) Update(ctx context.Context, res Reservation) error {
	prev, ok := r.byID[res.ID]
	if !ok || prev.TenantID != res.TenantID {
		return ErrNotFound
	}
	r.byID[res.ID] = res
	return nil
}

func (r *testRepo) CountByDay(ctx context.Context, tenantID string, year int, month time.Month) (map[string]int, error) {
	out := map[string]int{}
	for _, res := range r.byID {
		t := res.ReservedAt.UTC()
		if res.TenantID == tenantID && res.Status != StatusCanceled && t.Year() == year && t.Month() == month {
			out[DateKey(t)]++
		}
	}
	return out, nil
}

func (r *testRepo) ListDayOffs(ctx context.Context, tenantID string, year int, month time.Month) ([]DayOff, error) {
	var out []DayOff
	for _, d := range r.dayOffs {
		t := d.DayOffAt.UTC()
		if d.TenantID == tenantID && t.Year() == year && t.Month() == month {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *testRepo) DayOffExists(ctx context.Context, tenantID string, date time.Time) (bool, error) {
	key := DateKey(date)
	for _, d := range r.dayOffs {
		if d.TenantID == tenantID && DateKey(d.DayOffAt) == key {
			return true, nil
		}
	}
	return false, nil
}

func (r *testRepo) CreateDayOff(ctx context.Context, d DayOff) (DayOff, error) {
	if ok, _ := r.DayOffExists(ctx, d.TenantID, d.DayOffAt); ok {
		return DayOff{}, ErrDayOffExists
	}
	r.dayOffs[d.ID] = d
	return d, nil
}

func (r *testRepo) DeleteDayOff(ctx context.Context, tenantID, id string) error {
	d, ok := r.dayOffs[id]
	if !ok || d.TenantID != tenantID {
		return ErrDayOffNotFound
	}
	delete(r.dayOffs, id)
	return nil
}

func (r *testRepo) ListSpecialDays(ctx context.Context, year int, month time.Month) ([]SpecialDay, error) {
	var out []SpecialDay
	for _, sd := range r.specialDays {
		t := sd.SpecialDayAt.UTC()
		if t.Year() == year && t.Month() == month {
			out = append(out, sd)
		}
	}
	return out, nil
}

// -------------------------
// Collaborator stubs
// -------------------------

type stubTenants struct {
	limit int
}

func (s stubTenants) ExistsByIDAndOwner(ctx context.Context, tenantID, ownerUserID string) (bool, error) {
	return true, nil
}

func (s stubTenants) DailyPetLimit(ctx context.Context, tenantID string) (int, error) {
	return s.limit, nil
}

type stubCustomers struct{}

func (stubCustomers) Exists(ctx context.Context, tenantID, customerID string) (bool, error) {
	return true, nil
}

type stubLedger struct {
	byID map[string]tickets.CustomerTicket
}

func (s stubLedger) GetCustomerTicket(ctx context.Context, id string) (tickets.CustomerTicket, error) {
	ct, ok := s.byID[id]
	if !ok {
		return tickets.CustomerTicket{}, tickets.ErrNotFound
	}
	return ct, nil
}

func newTestService(repo *testRepo, limit int, ledger stubLedger) *Service {
	return NewService(repo, stubTenants{limit: limit}, stubCustomers{}, ledger)
}

// -------------------------
// Tests
// -------------------------

var testNow = time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)

func activeTicket(id string) tickets.CustomerTicket {
	return tickets.CustomerTicket{
		ID:         id,
		CustomerID: "cust-1",
		TotalCount: 4,
		UsedCount:  0,
		ExpiredAt:  testNow.AddDate(0, 1, 0),
	}
}

func TestService_Create_ConsumesOneSession(t *testing.T) {
	repo := newTestRepo()
	repo.balance["ct-1"] = 2
	svc := newTestService(repo, -1, stubLedger{byID: map[string]tickets.CustomerTicket{"ct-1": activeTicket("ct-1")}})
	svc.now = func() time.Time { return testNow }

	res, err := svc.Create(context.Background(), "user-1", "pk-1", CreateInput{
		CustomerID:       "cust-1",
		CustomerPetID:    "pet-1",
		CustomerTicketID: "ct-1",
		ReservedAt:       testNow.AddDate(0, 0, 3),
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if res.Status != StatusRequested {
		t.Fatalf("expected requested status, got %s", res.Status)
	}
	if repo.balance["ct-1"] != 1 {
		t.Fatalf("expected one session consumed, balance %d", repo.balance["ct-1"])
	}
}

func TestService_Create_RejectsDayOffDate(t *testing.T) {
	repo := newTestRepo()
	repo.balance["ct-1"] = 2
	date := time.Date(2026, 5, 13, 0, 0, 0, 0, time.UTC)
	repo.dayOffs["d-1"] = DayOff{ID: "d-1", TenantID: "pk-1", DayOffAt: date}

	svc := newTestService(repo, -1, stubLedger{byID: map[string]tickets.CustomerTicket{"ct-1": activeTicket("ct-1")}})
	svc.now = func() time.Time { return testNow }

	_, err := svc.Create(context.Background(), "user-1", "pk-1", CreateInput{
		CustomerID:       "cust-1",
		CustomerPetID:    "pet-1",
		CustomerTicketID: "ct-1",
		ReservedAt:       date.Add(10 * time.Hour),
	})
	e := apperr.From(err)
	if e.Kind != apperr.KindValidation || e.Code != "day_off_reservation" {
		t.Fatalf("expected day_off_reservation validation, got %v", err)
	}
	if repo.balance["ct-1"] != 2 {
		t.Fatalf("expected no consumption on rejection, balance %d", repo.balance["ct-1"])
	}
}

func TestService_Create_RejectsExpiredTicket(t *testing.T) {
	repo := newTestRepo()
	repo.balance["ct-1"] = 2
	expired := activeTicket("ct-1")
	expired.ExpiredAt = testNow.AddDate(0, 0, -1)

	svc := newTestService(repo, -1, stubLedger{byID: map[string]tickets.CustomerTicket{"ct-1": expired}})
	svc.now = func() time.Time { return testNow }

	_, err := svc.Create(context.Background(), "user-1", "pk-1", CreateInput{
		CustomerID:       "cust-1",
		CustomerPetID:    "pet-1",
		CustomerTicketID: "ct-1",
		ReservedAt:       testNow.AddDate(0, 0, 3),
	})
	if apperr.From(err).Code != "expired_ticket" {
		t.Fatalf("expected expired_ticket, got %v", err)
	}
}

func TestService_Create_InsufficientBalanceConflict(t *testing.T) {
	repo := newTestRepo()
	repo.balance["ct-1"] = 0
	svc := newTestService(repo, -1, stubLedger{byID: map[string]tickets.CustomerTicket{"ct-1": activeTicket("ct-1")}})
	svc.now = func() time.Time { return testNow }

	_, err := svc.Create(context.Background(), "user-1", "pk-1", CreateInput{
		CustomerID:       "cust-1",
		CustomerPetID:    "pet-1",
		CustomerTicketID: "ct-1",
		ReservedAt:       testNow.AddDate(0, 0, 3),
	})
	if apperr.From(err).Kind != apperr.KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestService_CreateDayOff_DuplicateConflict(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo, -1, stubLedger{})
	svc.now = func() time.Time { return testNow }

	date := time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC)
	if _, err := svc.CreateDayOff(context.Background(), "user-1", "pk-1", date); err != nil {
		t.Fatalf("first CreateDayOff error: %v", err)
	}

	_, err := svc.CreateDayOff(context.Background(), "user-1", "pk-1", date)
	e := apperr.From(err)
	if e.Kind != apperr.KindConflict || e.Code != "day_off_already_exists" {
		t.Fatalf("expected day_off_already_exists conflict, got %v", err)
	}
}

func TestService_ListDayOffs_MonthBoundaries(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo, -1, stubLedger{})
	svc.now = func() time.Time { return testNow }

	for _, d := range []string{"2026-04-30", "2026-05-01", "2026-05-31", "2026-06-01"} {
		date, _ := time.Parse("2006-01-02", d)
		if _, err := svc.CreateDayOff(context.Background(), "user-1", "pk-1", date); err != nil {
			t.Fatalf("CreateDayOff(%s) error: %v", d, err)
		}
	}

	out, err := svc.ListDayOffs(context.Background(), "user-1", "pk-1", 2026, time.May)
	if err != nil {
		t.Fatalf("ListDayOffs error: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected exactly the two May rows, got %d", len(out))
	}
	for _, d := range out {
		if d.DayOffAt.UTC().Month() != time.May {
			t.Fatalf("unexpected month in result: %v", d.DayOffAt)
		}
	}
}

func TestService_ToggleAttendance_Involution(t *testing.T) {
	repo := newTestRepo()
	repo.byID["res-1"] = Reservation{ID: "res-1", TenantID: "pk-1", Status: StatusConfirmed}
	svc := newTestService(repo, -1, stubLedger{})
	svc.now = func() time.Time { return testNow }

	r1, err := svc.ToggleAttendance(context.Background(), "user-1", "pk-1", "res-1")
	if err != nil {
		t.Fatalf("first toggle error: %v", err)
	}
	if !r1.IsAttended {
		t.Fatalf("expected attended after first toggle")
	}

	r2, err := svc.ToggleAttendance(context.Background(), "user-1", "pk-1", "res-1")
	if err != nil {
		t.Fatalf("second toggle error: %v", err)
	}
	if r2.IsAttended {
		t.Fatalf("expected not attended after second toggle")
	}
}

func TestService_UpdateStatus_UnknownTag(t *testing.T) {
	repo := newTestRepo()
	repo.byID["res-1"] = Reservation{ID: "res-1", TenantID: "pk-1", Status: StatusRequested}
	svc := newTestService(repo, -1, stubLedger{})
	svc.now = func() time.Time { return testNow }

	_, err := svc.UpdateStatus(context.Background(), "user-1", "pk-1", "res-1", Status("paused"))
	if apperr.From(err).Kind != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	res, err := svc.UpdateStatus(context.Background(), "user-1", "pk-1", "res-1", StatusCompleted)
	if err != nil {
		t.Fatalf("UpdateStatus error: %v", err)
	}
	if res.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s", res.Status)
	}
}

func TestService_Calendar_MergesMarkersAndLimit(t *testing.T) {
	repo := newTestRepo()
	day := time.Date(2026, 5, 12, 0, 0, 0, 0, time.UTC)
	repo.byID["r1"] = Reservation{ID: "r1", TenantID: "pk-1", ReservedAt: day.Add(9 * time.Hour), Status: StatusConfirmed}
	repo.byID["r2"] = Reservation{ID: "r2", TenantID: "pk-1", ReservedAt: day.Add(10 * time.Hour), Status: StatusRequested}
	repo.byID["r3"] = Reservation{ID: "r3", TenantID: "pk-1", ReservedAt: day.Add(11 * time.Hour), Status: StatusCanceled}
	repo.dayOffs["d-1"] = DayOff{ID: "d-1", TenantID: "pk-1", DayOffAt: time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC)}
	repo.specialDays = []SpecialDay{{ID: "sd-1", Name: "Buddha's Birthday", SpecialDayAt: time.Date(2026, 5, 24, 0, 0, 0, 0, time.UTC)}}

	svc := newTestService(repo, 1, stubLedger{})
	svc.now = func() time.Time { return testNow }

	days, err := svc.Calendar(context.Background(), "user-1", "pk-1", 2026, time.May)
	if err != nil {
		t.Fatalf("Calendar error: %v", err)
	}
	if len(days) != 31 {
		t.Fatalf("expected 31 days for May, got %d", len(days))
	}

	byDate := map[string]CalendarDay{}
	for _, d := range days {
		byDate[DateKey(d.Date)] = d
	}

	d12 := byDate["2026-05-12"]
	if d12.ReservationCount != 2 {
		t.Fatalf("expected canceled excluded from count, got %d", d12.ReservationCount)
	}
	if !d12.IsOverDailyLimit {
		t.Fatalf("expected over-limit flag with limit 1 and 2 reservations")
	}
	if !byDate["2026-05-20"].IsDayOff {
		t.Fatalf("expected day-off marker on the 20th")
	}
	if got := byDate["2026-05-24"].SpecialDayNames; len(got) != 1 || got[0] != "Buddha's Birthday" {
		t.Fatalf("expected special day name, got %#v", got)
	}
	if byDate["2026-05-13"].IsOverDailyLimit {
		t.Fatalf("did not expect over-limit flag on an empty day")
	}
}
