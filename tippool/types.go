/*
Package tippool distributes collected tip pools across eligible staff.

PURPOSE:
  Given a tip total for a period, a configured share method, and the
  eligible roster, computes each employee's share in integer cents with
  exact reconciliation: the shares always sum to the input total, never
  a cent over or under. Periods can be locked, freezing their splits
  into the payroll record, and employees can attach disputes to any
  split.

KEY CONCEPTS IN THIS FILE (types.go):
  - Settings: Per-restaurant pool configuration
  - Stake: One employee's hours/role input for a period
  - Split: One employee's computed share plus the inputs behind it
  - PeriodLock: The irreversible freeze on a period's splits
  - Dispute: An employee objection to a specific split

SEE ALSO:
  - distributor.go: The split math and remainder distribution
  - store.go: Persistence and lock CAS contract
*/
package tippool

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/labor-engine/payroll"
)

// =============================================================================
// SETTINGS - Per-restaurant pool configuration
// =============================================================================

type TipSource string

const (
	SourceManual TipSource = "manual"
	SourcePOS    TipSource = "pos_imported"
)

type ShareMethod string

const (
	MethodHours ShareMethod = "hours"
	MethodRole  ShareMethod = "role"
	MethodEven  ShareMethod = "manual"
)

type SplitCadence string

const (
	CadenceDaily    SplitCadence = "daily"
	CadenceWeekly   SplitCadence = "weekly"
	CadencePerShift SplitCadence = "per_shift"
)

// Settings configures a restaurant's tip pool. RoleWeights is
// consulted only under MethodRole; roles without an entry weigh 1.
type Settings struct {
	Restaurant  payroll.RestaurantID
	Source      TipSource
	Method      ShareMethod
	Cadence     SplitCadence
	RoleWeights map[string]decimal.Decimal
	Eligible    []payroll.EmployeeID // roster order is the remainder tie-break order
}

// =============================================================================
// STAKE - One employee's input to a period's split
// =============================================================================

// Stake carries the per-employee inputs a split is computed from.
type Stake struct {
	EmployeeID payroll.EmployeeID
	Hours      decimal.Decimal
	Role       string
}

// =============================================================================
// SPLIT - One employee's computed share
// =============================================================================

// Split is one employee's share of a period's pool. Basis retains the
// inputs used so override and dispute investigation can reproduce the
// figure.
type Split struct {
	ID         string
	PeriodID   string
	EmployeeID payroll.EmployeeID
	Amount     payroll.Cents
	Basis      SplitBasis
	CreatedAt  time.Time
}

// SplitBasis records how a share was derived under the chosen method.
type SplitBasis struct {
	Method       ShareMethod
	Hours        decimal.Decimal // hours method
	Weight       decimal.Decimal // role method (effective weight)
	Role         string
	EqualShareOf int // even method: headcount the pool divided across
}

// =============================================================================
// PERIOD LOCK - Irreversible payroll snapshot
// =============================================================================

// PeriodLock freezes a period's splits. Once locked, no split in the
// period may be recomputed or mutated; the locked amounts are the
// payroll record.
type PeriodLock struct {
	PeriodID string
	Locked   bool
	LockedAt time.Time
	LockedBy string
}

// =============================================================================
// DISPUTE - Employee objection to a split
// =============================================================================

type DisputeType string

const (
	DisputeMissingHours    DisputeType = "missing_hours"
	DisputeIncorrectAmount DisputeType = "incorrect_amount"
	DisputeWrongDate       DisputeType = "wrong_date"
	DisputeMissingTips     DisputeType = "missing_tips"
	DisputeWrongRole       DisputeType = "wrong_role"
	DisputeOther           DisputeType = "other"
)

type DisputeStatus string

const (
	DisputeOpen     DisputeStatus = "open"
	DisputeResolved DisputeStatus = "resolved"
)

// Dispute is an employee-raised objection to a specific split. Filing
// one never triggers recomputation; resolution is a manual follow-up.
type Dispute struct {
	ID         string
	EmployeeID payroll.EmployeeID
	SplitID    string
	Type       DisputeType
	Message    string
	Status     DisputeStatus
	CreatedAt  time.Time
}
