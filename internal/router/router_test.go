package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// client drives the router the way the mobile app would, with the dev-mode
// debug header standing in for a real token.
type client struct {
	t      *testing.T
	h      http.Handler
	userID string
}

func (c *client) do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			c.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("X-Debug-User-ID", c.userID)
	rec := httptest.NewRecorder()
	c.h.ServeHTTP(rec, req)
	return rec
}

func (c *client) decode(rec *httptest.ResponseRecorder, out any) {
	c.t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(out); err != nil {
		c.t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
}

func TestRouter_Health(t *testing.T) {
	h := New(Options{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("health returned %d", rec.Code)
	}
}

func TestRouter_RequiresIdentity(t *testing.T) {
	h := New(Options{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/pet-kindergardens/profile", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity, got %d", rec.Code)
	}
}

// TestRouter_FullFlow walks the happy path: create a kindergarten, register
// a customer, sell a ticket, book a reservation that consumes a session.
func TestRouter_FullFlow(t *testing.T) {
	c := &client{t: t, h: New(Options{}), userID: "owner-1"}

	rec := c.do(http.MethodPost, "/api/v1/pet-kindergardens", map[string]any{
		"name":                            "Happy Paws",
		"phone_number":                    "02-123-4567",
		"road_address":                    "12 Teheran-ro",
		"reservation_availability_option": "same_day_availability",
		"reservation_change_option":       "same_day_change",
		"daily_pet_limit":                 10,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create kindergarten returned %d: %s", rec.Code, rec.Body.String())
	}
	var pk struct {
		ID string `json:"id"`
	}
	c.decode(rec, &pk)
	base := "/api/v1/pet-kindergardens/" + pk.ID

	rec = c.do(http.MethodPost, base+"/customers", map[string]any{
		"name":         "Kim Jiwoo",
		"phone_number": "010-1234-5678",
		"pets":         []string{"Mongi"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create customer returned %d: %s", rec.Code, rec.Body.String())
	}
	var cust struct {
		ID          string `json:"id"`
		PhoneNumber string `json:"phone_number"`
		Pets        []struct {
			ID string `json:"id"`
		} `json:"customer_pets"`
	}
	c.decode(rec, &cust)
	if cust.PhoneNumber != "01012345678" {
		t.Fatalf("expected normalized phone, got %q", cust.PhoneNumber)
	}
	if len(cust.Pets) != 1 {
		t.Fatalf("expected 1 pet, got %d", len(cust.Pets))
	}

	rec = c.do(http.MethodPost, base+"/tickets", map[string]any{
		"ticket_type":                "all_day",
		"usage_time":                 4,
		"usage_count":                4,
		"usage_period_in_days_count": 30,
		"price":                      120000,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create ticket returned %d: %s", rec.Code, rec.Body.String())
	}
	var tpl struct {
		ID string `json:"id"`
	}
	c.decode(rec, &tpl)

	rec = c.do(http.MethodPost, fmt.Sprintf("%s/customers/%s/tickets/%s", base, cust.ID, tpl.ID), nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register ticket returned %d: %s", rec.Code, rec.Body.String())
	}
	var reg struct {
		ID string `json:"id"`
	}
	c.decode(rec, &reg)
	if reg.ID == "" {
		t.Fatalf("expected customer ticket id in registration response: %s", rec.Body.String())
	}

	reservedAt := time.Now().UTC().AddDate(0, 0, 2).Truncate(time.Hour)
	rec = c.do(http.MethodPost, base+"/reservations", map[string]any{
		"customer_id":        cust.ID,
		"customer_pet_id":    cust.Pets[0].ID,
		"customer_ticket_id": reg.ID,
		"reserved_at":        reservedAt,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create reservation returned %d: %s", rec.Code, rec.Body.String())
	}

	rec = c.do(http.MethodGet, fmt.Sprintf("%s/customers/%s/tickets/active", base, cust.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("active tickets returned %d: %s", rec.Code, rec.Body.String())
	}
	var active []struct {
		UsedCount int `json:"used_count"`
	}
	c.decode(rec, &active)
	if len(active) != 1 || active[0].UsedCount != 1 {
		t.Fatalf("expected one active ticket with used_count 1, got %s", rec.Body.String())
	}
}

func TestRouter_DayOffRoutes(t *testing.T) {
	c := &client{t: t, h: New(Options{}), userID: "owner-1"}

	rec := c.do(http.MethodPost, "/api/v1/pet-kindergardens", map[string]any{
		"name":                            "Happy Paws",
		"reservation_availability_option": "same_day_availability",
		"reservation_change_option":       "same_day_change",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create kindergarten returned %d: %s", rec.Code, rec.Body.String())
	}
	var pk struct {
		ID string `json:"id"`
	}
	c.decode(rec, &pk)
	base := "/api/v1/pet-kindergardens/" + pk.ID

	rec = c.do(http.MethodPost, base+"/reservations/day-off", map[string]any{
		"day_off_at": "2026-09-15",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create day-off returned %d: %s", rec.Code, rec.Body.String())
	}
	var dayOff struct {
		ID string `json:"id"`
	}
	c.decode(rec, &dayOff)

	rec = c.do(http.MethodGet, base+"/reservations/day-off?year=2026&month=9", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list day-offs returned %d: %s", rec.Code, rec.Body.String())
	}
	var offs []struct {
		DayOffAt string `json:"day_off_at"`
	}
	c.decode(rec, &offs)
	if len(offs) != 1 || offs[0].DayOffAt != "2026-09-15" {
		t.Fatalf("expected the September day-off, got %s", rec.Body.String())
	}

	rec = c.do(http.MethodGet, base+"/reservations?date=2026-09-15", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list reservations by date returned %d: %s", rec.Code, rec.Body.String())
	}
	rec = c.do(http.MethodGet, base+"/reservations", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without date parameter, got %d", rec.Code)
	}

	rec = c.do(http.MethodDelete, base+"/reservations/day-off/"+dayOff.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete day-off returned %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRouter_TenantIsolation(t *testing.T) {
	h := New(Options{})
	owner := &client{t: t, h: h, userID: "owner-1"}
	intruder := &client{t: t, h: h, userID: "owner-2"}

	rec := owner.do(http.MethodPost, "/api/v1/pet-kindergardens", map[string]any{
		"name":                            "Happy Paws",
		"reservation_availability_option": "same_day_availability",
		"reservation_change_option":       "same_day_change",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create kindergarten returned %d: %s", rec.Code, rec.Body.String())
	}
	var pk struct {
		ID string `json:"id"`
	}
	owner.decode(rec, &pk)

	rec = intruder.do(http.MethodGet, "/api/v1/pet-kindergardens/"+pk.ID+"/customers", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign owner, got %d: %s", rec.Code, rec.Body.String())
	}
}
