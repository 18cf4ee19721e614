package customers

import (
	"context"
	"strings"
	"testing"
	"time"

	"mung-manager/internal/apperr"
	"mung-manager/internal/pagination"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

type testRepo struct {
	byID map[string]Customer
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Customer{}}
}

func (r *testRepo) Create(ctx context.Context, c Customer) error {
	r.byID[c.ID] = c
	return nil
}

func (r *testRepo) Update(ctx context.Context, c Customer) error {
	if _, ok := r.byID[c.ID]; !ok {
		return ErrNotFound
	}
	r.byID[c.ID] = c
	return nil
}

func (r *testRepo) Get(ctx context.Context, tenantID, customerID string) (Customer, error) {
	c, ok := r.byID[customerID]
	if !ok || c.TenantID != tenantID {
		return Customer{}, ErrNotFound
	}
	return c, nil
}

func (r *testRepo) Exists(ctx context.Context, tenantID, customerID string) (bool, error) {
	c, ok := r.byID[customerID]
	return ok && c.TenantID == tenantID, nil
}

func (r *testRepo) List(ctx context.Context, tenantID string, f Filters, p pagination.Params) ([]Customer, int, error) {
	var out []Customer
	for _, c := range r.byID {
		if c.TenantID != tenantID {
			continue
		}
		if f.Name != "" && !strings.Contains(c.Name, f.Name) {
			continue
		}
		if f.IsActive != nil && c.Lifecycle.IsActive() != *f.IsActive {
			continue
		}
		out = append(out, c)
	}
	total := len(out)
	return pagination.Slice(out, p), total, nil
}

type allowTenants struct{}

func (allowTenants) ExistsByIDAndOwner(ctx context.Context, tenantID, ownerUserID string) (bool, error) {
	return true, nil
}

type denyTenants struct{}

func (denyTenants) ExistsByIDAndOwner(ctx context.Context, tenantID, ownerUserID string) (bool, error) {
	return false, nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// -------------------------
// Tests
// -------------------------

func TestService_Create_NormalizesPhone(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, allowTenants{})
	svc.now = fixedClock(time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC))

	c, err := svc.Create(context.Background(), "user-1", "pk-1", CreateInput{
		Name:        "Kim",
		PhoneNumber: "010-1234-5678",
		PetNames:    []string{"Coco"},
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if c.PhoneNumber != "01012345678" {
		t.Fatalf("expected hyphens stripped, got %q", c.PhoneNumber)
	}
	if len(c.LivePets()) != 1 || c.LivePets()[0].Name != "Coco" {
		t.Fatalf("expected live pet Coco, got %#v", c.Pets)
	}
}

func TestService_Create_RejectsBadPhone(t *testing.T) {
	svc := NewService(newTestRepo(), allowTenants{})

	_, err := svc.Create(context.Background(), "user-1", "pk-1", CreateInput{
		Name:        "Kim",
		PhoneNumber: "02-123-4567",
	})
	e := apperr.From(err)
	if e.Kind != apperr.KindValidation || e.Code != "invalid_phone_number" {
		t.Fatalf("expected invalid_phone_number validation, got %v", err)
	}
}

func TestService_Create_RejectsDuplicatePetNames(t *testing.T) {
	svc := NewService(newTestRepo(), allowTenants{})

	_, err := svc.Create(context.Background(), "user-1", "pk-1", CreateInput{
		Name:        "Kim",
		PhoneNumber: "01012345678",
		PetNames:    []string{"Coco", "Coco"},
	})
	if apperr.From(err).Code != "duplicate_pet_name" {
		t.Fatalf("expected duplicate_pet_name, got %v", err)
	}
}

func TestService_Create_TenantGuard(t *testing.T) {
	svc := NewService(newTestRepo(), denyTenants{})

	_, err := svc.Create(context.Background(), "user-1", "pk-1", CreateInput{
		Name:        "Kim",
		PhoneNumber: "01012345678",
	})
	if apperr.From(err).Kind != apperr.KindNotFound {
		t.Fatalf("expected not found from guard, got %v", err)
	}
}

func TestService_ToggleActive_Involution(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, allowTenants{})
	svc.now = fixedClock(time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC))

	c, err := svc.Create(context.Background(), "user-1", "pk-1", CreateInput{
		Name:        "Kim",
		PhoneNumber: "01012345678",
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if !c.Lifecycle.IsActive() {
		t.Fatalf("expected new customer active")
	}

	c1, err := svc.ToggleActive(context.Background(), "user-1", "pk-1", c.ID)
	if err != nil {
		t.Fatalf("first toggle error: %v", err)
	}
	if c1.Lifecycle.IsActive() {
		t.Fatalf("expected inactive after first toggle")
	}

	c2, err := svc.ToggleActive(context.Background(), "user-1", "pk-1", c.ID)
	if err != nil {
		t.Fatalf("second toggle error: %v", err)
	}
	if !c2.Lifecycle.IsActive() {
		t.Fatalf("expected active again after second toggle")
	}
}

func TestService_Update_PetNameReusableAfterSoftDelete(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, allowTenants{})
	svc.now = fixedClock(time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC))

	c, err := svc.Create(context.Background(), "user-1", "pk-1", CreateInput{
		Name:        "Kim",
		PhoneNumber: "01012345678",
		PetNames:    []string{"Coco"},
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	// Adding a second Coco while the first is live must fail.
	_, err = svc.Update(context.Background(), "user-1", "pk-1", c.ID, UpdateInput{
		Name:        "Kim",
		PhoneNumber: "01012345678",
		PetsToAdd:   []string{"Coco"},
	})
	if apperr.From(err).Code != "duplicate_pet_name" {
		t.Fatalf("expected duplicate_pet_name, got %v", err)
	}

	// Deleting and re-adding in one update succeeds: deletions run first.
	updated, err := svc.Update(context.Background(), "user-1", "pk-1", c.ID, UpdateInput{
		Name:         "Kim",
		PhoneNumber:  "01012345678",
		PetsToDelete: []string{"Coco"},
		PetsToAdd:    []string{"Coco"},
	})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if len(updated.LivePets()) != 1 {
		t.Fatalf("expected one live pet, got %d", len(updated.LivePets()))
	}
	if len(updated.Pets) != 2 {
		t.Fatalf("expected soft-deleted pet kept, got %d rows", len(updated.Pets))
	}
}

func TestService_Update_DeleteUnknownPet(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, allowTenants{})
	svc.now = fixedClock(time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC))

	c, err := svc.Create(context.Background(), "user-1", "pk-1", CreateInput{
		Name:        "Kim",
		PhoneNumber: "01012345678",
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	_, err = svc.Update(context.Background(), "user-1", "pk-1", c.ID, UpdateInput{
		Name:         "Kim",
		PhoneNumber:  "01012345678",
		PetsToDelete: []string{"Ghost"},
	})
	if apperr.From(err).Code != "not_found_customer_pet" {
		t.Fatalf("expected not_found_customer_pet, got %v", err)
	}
}

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"010-1234-5678", "01012345678", false},
		{"01012345678", "01012345678", false},
		{"011-123-4567", "0111234567", false},
		{"02-1234-5678", "", true},
		{"010-12-34", "", true},
		{"", "", true},
	}
	for _, tc := range cases {
		got, err := NormalizePhone(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("NormalizePhone(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("NormalizePhone(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("NormalizePhone(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
