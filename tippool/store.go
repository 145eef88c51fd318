/*
store.go - Persistence interfaces for splits, locks, and disputes

PURPOSE:
  Boundary between the distributor and persistence. Splits for a period
  are replaced wholesale on recompute - unless the period is locked, in
  which case the store refuses. Locking is a compare-and-set: exactly
  one of two concurrent lock attempts wins.

IMPLEMENTATIONS:
  - store/memory: In-memory, for tests and dev
  - store/sqlite: SQLite-backed
*/
package tippool

import (
	"context"

	"github.com/warp/labor-engine/payroll"
)

// SplitStore persists computed splits per period.
type SplitStore interface {
	// ReplacePeriod atomically replaces the period's splits. Returns
	// ErrPeriodLocked when the period is locked.
	ReplacePeriod(ctx context.Context, periodID string, splits []Split) error

	// ListPeriod returns the period's splits in roster order.
	ListPeriod(ctx context.Context, periodID string) ([]Split, error)

	// GetSplit returns one split or nil.
	GetSplit(ctx context.Context, splitID string) (*Split, error)

	// ListByEmployee returns an employee's splits across periods.
	ListByEmployee(ctx context.Context, id payroll.EmployeeID) ([]Split, error)
}

// LockStore manages period locks.
type LockStore interface {
	// Lock locks a period with a CAS on the unlocked state. A second
	// concurrent attempt observes the existing lock and gets
	// payroll.ErrConcurrentModification.
	Lock(ctx context.Context, lock PeriodLock) error

	// GetLock returns the lock record, or nil if never locked.
	GetLock(ctx context.Context, periodID string) (*PeriodLock, error)
}

// DisputeStore persists disputes.
type DisputeStore interface {
	Create(ctx context.Context, d Dispute) error
	GetDispute(ctx context.Context, id string) (*Dispute, error)
	ListBySplit(ctx context.Context, splitID string) ([]Dispute, error)
	ListOpen(ctx context.Context) ([]Dispute, error)

	// Resolve transitions open -> resolved with a CAS on the status.
	Resolve(ctx context.Context, id string) error
}
