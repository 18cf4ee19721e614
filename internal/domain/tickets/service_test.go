package tickets

import (
	"context"
	"testing"
	"time"

	"mung-manager/internal/apperr"
	"mung-manager/internal/domain/lifecycle"
	"mung-manager/internal/pagination"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

type testRepo struct {
	templates   map[string]Ticket
	custTickets map[string]CustomerTicket
	regLogs     []RegistrationLog
	usages      []UsageLog
}

func newTestRepo() *testRepo {
	return &testRepo{
		templates:   map[string]Ticket{},
		custTickets: map[string]CustomerTicket{},
	}
}

func (r *testRepo) CreateTemplate(ctx context.Context, t Ticket) error {
	r.templates[t.ID] = t
	return nil
}

func (r *testRepo) UpdateTemplate(ctx context.Context, t Ticket) error {
	if _, ok := r.templates[t.ID]; !ok {
		return ErrNotFound
	}
	r.templates[t.ID] = t
	return nil
}

func (r *testRepo) GetTemplate(ctx context.Context, id string) (Ticket, error) {
	t, ok := r.templates[id]
	if !ok {
		return Ticket{}, ErrNotFound
	}
	return t, nil
}

func (r *testRepo) ListTemplates(ctx context.Context, tenantID string) ([]Ticket, error) {
	var out []Ticket
	for _, t := range r.templates {
		if t.TenantID == tenantID && !t.Lifecycle.Deleted() {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *testRepo) Register(ctx context.Context, ct CustomerTicket, log RegistrationLog) error {
	r.custTickets[ct.ID] = ct
	r.regLogs = append(r.regLogs, log)
	return nil
}

func (r *testRepo) GetCustomerTicket(ctx context.Context, id string) (CustomerTicket, error) {
	ct, ok := r.custTickets[id]
	if !ok {
		return CustomerTicket{}, ErrNotFound
	}
	return ct, nil
}

func (r *testRepo) Consume(ctx context.Context, customerTicketID, reservationID string, delta int, now time.Time) (UsageLog, error) {
	for _, u := range r.usages {
		if u.ReservationID == reservationID {
			return UsageLog{}, ErrAlreadyConsumed
		}
	}
	ct, ok := r.custTickets[customerTicketID]
	if !ok {
		return UsageLog{}, ErrNotFound
	}
	if ct.UsedCount+delta > ct.TotalCount {
		return UsageLog{}, ErrInsufficientCount
	}
	ct.UsedCount += delta
	r.custTickets[ct.ID] = ct
	log := UsageLog{
		ID:               "log-" + reservationID,
		CustomerTicketID: customerTicketID,
		ReservationID:    reservationID,
		UsedCount:        delta,
		CreatedAt:        now,
	}
	r.usages = append(r.usages, log)
	return log, nil
}

func (r *testRepo) ListActiveByCustomer(ctx context.Context, customerID string, now time.Time) ([]CustomerTicket, error) {
	var out []CustomerTicket
	for _, ct := range r.custTickets {
		if ct.CustomerID == customerID && ct.IsActive(now) {
			out = append(out, ct)
		}
	}
	return out, nil
}

func (r *testRepo) ListRegistrations(ctx context.Context, customerID string, p pagination.Params) ([]RegistrationEntry, int, error) {
	var out []RegistrationEntry
	for _, log := range r.regLogs {
		ct := r.custTickets[log.CustomerTicketID]
		if ct.CustomerID == customerID {
			out = append(out, RegistrationEntry{Log: log, CustomerTicket: ct, Ticket: r.templates[ct.TicketID]})
		}
	}
	total := len(out)
	return pagination.Slice(out, p), total, nil
}

func (r *testRepo) ListUsages(ctx context.Context, customerID string, p pagination.Params) ([]UsageEntry, int, error) {
	var out []UsageEntry
	for _, log := range r.usages {
		ct := r.custTickets[log.CustomerTicketID]
		if ct.CustomerID == customerID {
			out = append(out, UsageEntry{Log: log, CustomerTicket: ct, Ticket: r.templates[ct.TicketID]})
		}
	}
	total := len(out)
	return pagination.Slice(out, p), total, nil
}

// -------------------------
// Guard stubs
// -------------------------

type allowTenants struct{}

func (allowTenants) ExistsByIDAndOwner(ctx context.Context, tenantID, ownerUserID string) (bool, error) {
	return true, nil
}

type allowCustomers struct{}

func (allowCustomers) Exists(ctx context.Context, tenantID, customerID string) (bool, error) {
	return true, nil
}

func newTestService(repo *testRepo) *Service {
	return NewService(repo, allowTenants{}, allowCustomers{})
}

func kindOf(t *testing.T, err error) apperr.Kind {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error")
	}
	return apperr.From(err).Kind
}

// -------------------------
// Tests
// -------------------------

func TestService_Register_SnapshotsExpiryExactly(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo)

	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	repo.templates["t-1"] = Ticket{
		ID:                     "t-1",
		TenantID:               "pk-1",
		TicketType:             TypeAllDay,
		UsageCount:             4,
		UsagePeriodInDaysCount: 30,
		Lifecycle:              lifecycle.Active(),
	}

	ct, err := svc.Register(context.Background(), "user-1", "pk-1", "cust-1", "t-1")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if ct.TotalCount != 4 || ct.UsedCount != 0 {
		t.Fatalf("expected snapshot 4/0, got %d/%d", ct.TotalCount, ct.UsedCount)
	}
	want := time.Date(2026, 4, 9, 9, 0, 0, 0, time.UTC)
	if !ct.ExpiredAt.Equal(want) {
		t.Fatalf("expected expiry %v, got %v", want, ct.ExpiredAt)
	}
	if len(repo.regLogs) != 1 {
		t.Fatalf("expected one registration log, got %d", len(repo.regLogs))
	}
}

func TestService_Register_DeletedTemplateNotFound(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo)

	deleted := lifecycle.Active().Delete(time.Now())
	repo.templates["t-1"] = Ticket{ID: "t-1", TenantID: "pk-1", Lifecycle: deleted}

	_, err := svc.Register(context.Background(), "user-1", "pk-1", "cust-1", "t-1")
	if kindOf(t, err) != apperr.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestService_Consume_BalanceGuard(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo)

	repo.custTickets["ct-1"] = CustomerTicket{
		ID:         "ct-1",
		CustomerID: "cust-1",
		TotalCount: 2,
		UsedCount:  1,
		ExpiredAt:  time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	if _, err := svc.Consume(context.Background(), "ct-1", "res-1", 1); err != nil {
		t.Fatalf("first consume error: %v", err)
	}

	_, err := svc.Consume(context.Background(), "ct-1", "res-2", 1)
	if kindOf(t, err) != apperr.KindConflict {
		t.Fatalf("expected conflict on exhausted balance, got %v", err)
	}
	if apperr.From(err).Code != "insufficient_ticket_count" {
		t.Fatalf("expected insufficient_ticket_count, got %s", apperr.From(err).Code)
	}

	ct := repo.custTickets["ct-1"]
	if ct.UsedCount != ct.TotalCount {
		t.Fatalf("expected used == total after rejection, got %d/%d", ct.UsedCount, ct.TotalCount)
	}
}

func TestService_Consume_IdempotentPerReservation(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo)

	repo.custTickets["ct-1"] = CustomerTicket{
		ID:         "ct-1",
		CustomerID: "cust-1",
		TotalCount: 5,
		ExpiredAt:  time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	if _, err := svc.Consume(context.Background(), "ct-1", "res-1", 1); err != nil {
		t.Fatalf("first consume error: %v", err)
	}
	_, err := svc.Consume(context.Background(), "ct-1", "res-1", 1)
	if apperr.From(err).Code != "already_consumed" {
		t.Fatalf("expected already_consumed, got %v", err)
	}
	if repo.custTickets["ct-1"].UsedCount != 1 {
		t.Fatalf("expected balance untouched by duplicate, got %d", repo.custTickets["ct-1"].UsedCount)
	}
}

func TestService_ListActive_ExcludesExpiredAndDrained(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo)

	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	repo.custTickets["ok"] = CustomerTicket{
		ID: "ok", CustomerID: "cust-1", TotalCount: 3, UsedCount: 1,
		ExpiredAt: now.AddDate(0, 0, 5),
	}
	repo.custTickets["expired"] = CustomerTicket{
		ID: "expired", CustomerID: "cust-1", TotalCount: 3,
		ExpiredAt: now.AddDate(0, 0, -1),
	}
	repo.custTickets["drained"] = CustomerTicket{
		ID: "drained", CustomerID: "cust-1", TotalCount: 3, UsedCount: 3,
		ExpiredAt: now.AddDate(0, 0, 5),
	}

	out, err := svc.ListActive(context.Background(), "user-1", "pk-1", "cust-1")
	if err != nil {
		t.Fatalf("ListActive error: %v", err)
	}
	if len(out) != 1 || out[0].ID != "ok" {
		t.Fatalf("expected only the active ticket, got %#v", out)
	}
}

func TestService_CreateTemplate_RejectsUnknownType(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo)

	_, err := svc.CreateTemplate(context.Background(), "user-1", "pk-1", TemplateInput{
		TicketType: "weekly",
		UsageCount: 3,
	})
	if kindOf(t, err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestService_DeleteTemplate_SoftDeleteHidesFromListing(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo)

	repo.templates["t-1"] = Ticket{ID: "t-1", TenantID: "pk-1", Lifecycle: lifecycle.Active()}

	if err := svc.DeleteTemplate(context.Background(), "user-1", "pk-1", "t-1"); err != nil {
		t.Fatalf("DeleteTemplate error: %v", err)
	}
	if !repo.templates["t-1"].Lifecycle.Deleted() {
		t.Fatalf("expected soft delete, template still live")
	}

	out, err := svc.ListTemplates(context.Background(), "user-1", "pk-1")
	if err != nil {
		t.Fatalf("ListTemplates error: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected deleted template hidden, got %d entries", len(out))
	}
}
