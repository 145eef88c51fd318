/*
store.go - Persistence interface for violations

PURPOSE:
  Defines the boundary between the evaluator and whatever persists
  violations. Violations are append-then-transition records: nothing is
  ever deleted, and the only mutations are the status transitions
  active -> overridden and active -> resolved.

CONCURRENCY:
  Override is a compare-and-set keyed on the current status. Two
  concurrent override attempts on the same violation must not both win:
  the loser observes the changed status and gets
  payroll.ErrConcurrentModification.

IMPLEMENTATIONS:
  - store/memory: In-memory, for tests and dev
  - store/sqlite: SQLite, CAS via conditional UPDATE
*/
package compliance

import (
	"context"
	"time"

	"github.com/warp/labor-engine/payroll"
)

// ViolationStore persists violations and their status transitions.
type ViolationStore interface {
	// Record appends newly created violations.
	Record(ctx context.Context, violations []Violation) error

	// ListByRestaurant returns all violations for a restaurant, any
	// status, ordered by creation time.
	ListByRestaurant(ctx context.Context, id payroll.RestaurantID) ([]Violation, error)

	// GetViolation returns one violation or nil.
	GetViolation(ctx context.Context, id string) (*Violation, error)

	// Override transitions active -> overridden with a CAS on the
	// current status. Returns payroll.ErrConcurrentModification if the
	// violation is no longer active.
	Override(ctx context.Context, id, reason, actor string, at time.Time) error

	// MarkResolved transitions active -> resolved. A violation that is
	// no longer active is left untouched (an override in flight wins).
	MarkResolved(ctx context.Context, ids []string) error
}
