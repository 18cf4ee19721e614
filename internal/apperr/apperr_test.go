package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFrom_PassesThroughAppErrors(t *testing.T) {
	orig := NotFound("not_found_customer", "customer does not exist")

	got := From(fmt.Errorf("listing: %w", orig))
	if got.Kind != KindNotFound || got.Code != "not_found_customer" {
		t.Fatalf("From() = %+v, want wrapped not-found error", got)
	}
}

func TestFrom_ConvertsUnexpectedToUnknown(t *testing.T) {
	got := From(errors.New("pq: connection refused"))
	if got.Kind != KindUnknown {
		t.Fatalf("kind = %v, want KindUnknown", got.Kind)
	}
	if got.Code != "unknown_server" {
		t.Fatalf("code = %q, want unknown_server", got.Code)
	}
	if got.Unwrap() == nil {
		t.Fatal("unknown error must keep its cause for logging")
	}
}

func TestKindHTTPStatus(t *testing.T) {
	cases := []struct {
		kind Kind
		want int
	}{
		{KindNotFound, http.StatusNotFound},
		{KindValidation, http.StatusBadRequest},
		{KindConflict, http.StatusConflict},
		{KindAuthenticationFailed, http.StatusUnauthorized},
		{KindPermissionDenied, http.StatusForbidden},
		{KindUnknown, http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := c.kind.HTTPStatus(); got != c.want {
			t.Errorf("kind %v status = %d, want %d", c.kind, got, c.want)
		}
	}
}

func TestWrite_HidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/customers", nil)
	log := slog.New(slog.DiscardHandler)

	Write(rec, req, log, errors.New("secret internal detail"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}

	var b struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &b); err != nil {
		t.Fatalf("invalid json body: %v", err)
	}
	if b.Code != "unknown_server" {
		t.Fatalf("code = %q, want unknown_server", b.Code)
	}
	if b.Message == "secret internal detail" {
		t.Fatal("internal error text must not leak to callers")
	}
}

func TestWrite_BusinessError(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/day-off", nil)
	log := slog.New(slog.DiscardHandler)

	Write(rec, req, log, Conflict("day_off_already_exists", "day off already exists"))

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}
