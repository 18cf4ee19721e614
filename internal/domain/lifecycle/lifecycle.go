package lifecycle

import "time"

type State string

const (
	StateActive   State = "active"
	StateInactive State = "inactive"
)

// Lifecycle replaces the ad hoc is_active / is_deleted booleans scattered
// across entities. Deletion is always soft: DeletedAt is set, rows stay.
type Lifecycle struct {
	State     State
	DeletedAt *time.Time
}

func Active() Lifecycle {
	return Lifecycle{State: StateActive}
}

func (l Lifecycle) IsActive() bool {
	return l.State == StateActive && l.DeletedAt == nil
}

func (l Lifecycle) Deleted() bool {
	return l.DeletedAt != nil
}

// Toggle flips active/inactive. Toggling twice returns to the original
// state. Deleted entities are never reactivated this way.
func (l Lifecycle) Toggle() Lifecycle {
	if l.Deleted() {
		return l
	}
	if l.State == StateActive {
		l.State = StateInactive
	} else {
		l.State = StateActive
	}
	return l
}

func (l Lifecycle) Delete(now time.Time) Lifecycle {
	if l.DeletedAt == nil {
		t := now
		l.DeletedAt = &t
	}
	return l
}
