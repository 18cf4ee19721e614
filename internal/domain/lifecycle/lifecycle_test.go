package lifecycle

import (
	"testing"
	"time"
)

func TestToggle_Involution(t *testing.T) {
	l := Active()

	once := l.Toggle()
	if once.IsActive() {
		t.Fatal("first toggle should deactivate")
	}

	twice := once.Toggle()
	if !twice.IsActive() {
		t.Fatal("second toggle should restore the original state")
	}
}

func TestDelete_IsIdempotentAndFinal(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	l := Active().Delete(now)
	if !l.Deleted() {
		t.Fatal("expected deleted")
	}
	if l.IsActive() {
		t.Fatal("deleted entity must not be active")
	}

	later := l.Delete(now.Add(time.Hour))
	if !later.DeletedAt.Equal(now) {
		t.Fatal("second delete must keep the original deletion time")
	}

	if toggled := l.Toggle(); !toggled.Deleted() || toggled.State != l.State {
		t.Fatal("toggle must be a no-op on deleted entities")
	}
}
