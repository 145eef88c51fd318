/*
Package compliance implements the labor-law rule engine.

PURPOSE:
  Evaluates a restaurant's enabled rule configurations against its
  schedule and roster, producing violations that feed a report view and
  block or warn on scheduling actions. Violations are evidence used to
  prove regulatory compliance: they are never deleted, only
  transitioned (active -> overridden | resolved), and every override
  carries a mandatory reason, actor, and timestamp.

KEY CONCEPTS IN THIS FILE (types.go):
  - RuleKind: The fixed catalogue of five rule kinds
  - Rule: An enabled rule instance with its typed config
  - Shift: The scheduled-shift shape the evaluator consumes
  - Violation: An immutable finding with a status lifecycle

SEE ALSO:
  - config.go: Per-kind typed configurations
  - evaluator.go: Rule evaluation and idempotency
*/
package compliance

import (
	"fmt"
	"time"

	"github.com/warp/labor-engine/payroll"
)

// =============================================================================
// RULE KINDS - Fixed catalogue, exhaustively switched everywhere
// =============================================================================

type RuleKind string

const (
	KindMinorRestrictions RuleKind = "minor_restrictions"
	KindClopening         RuleKind = "clopening"
	KindRestPeriod        RuleKind = "rest_period"
	KindShiftLength       RuleKind = "shift_length"
	KindOvertime          RuleKind = "overtime"
)

// AllRuleKinds lists every supported kind, for validation and UIs.
func AllRuleKinds() []RuleKind {
	return []RuleKind{KindMinorRestrictions, KindClopening, KindRestPeriod, KindShiftLength, KindOvertime}
}

// Rule is one configured rule instance for a restaurant. Config is
// always the variant matching Kind; construction goes through the
// factory package which enforces that.
type Rule struct {
	ID         string
	Restaurant payroll.RestaurantID
	Kind       RuleKind
	Enabled    bool
	Config     RuleConfig
}

// =============================================================================
// SHIFT - Schedule data as seen by the evaluator
// =============================================================================

// Shift is an already-loaded scheduled shift. Opening/Closing mark the
// shift's position against the restaurant's operating hours; the
// schedule provider sets them.
type Shift struct {
	ID         payroll.ShiftID
	EmployeeID payroll.EmployeeID
	Start      time.Time
	End        time.Time
	Opening    bool
	Closing    bool
}

// HoursLength returns the shift's length in hours.
func (s Shift) HoursLength() float64 { return s.End.Sub(s.Start).Hours() }

// =============================================================================
// VIOLATION - A finding with an audit lifecycle
// =============================================================================

type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

type ViolationStatus string

const (
	StatusActive     ViolationStatus = "active"
	StatusOverridden ViolationStatus = "overridden"
	StatusResolved   ViolationStatus = "resolved"
)

// Violation records one rule finding. Fingerprint is the stable,
// machine-checkable identity of the underlying condition: re-running
// the evaluator against unchanged data produces the same fingerprints,
// which is what makes evaluation idempotent.
type Violation struct {
	ID          string
	Restaurant  payroll.RestaurantID
	Kind        RuleKind
	Severity    Severity
	EmployeeID  payroll.EmployeeID
	ShiftID     *payroll.ShiftID
	Fingerprint string
	Message     string
	Status      ViolationStatus
	CreatedAt   time.Time

	// Set only when Status is overridden.
	OverrideReason string
	OverriddenBy   string
	OverriddenAt   *time.Time
}

// Override transitions the violation active -> overridden. The reason
// and actor are mandatory; the transition is permanent (there is no
// un-override). Persistence layers apply the same transition with a
// compare-and-set on the current status so two concurrent overrides
// cannot both win.
func (v *Violation) Override(reason, actor string, at time.Time) error {
	if reason == "" {
		return payroll.ErrMissingReason
	}
	if actor == "" {
		return payroll.ErrMissingActor
	}
	if v.Status != StatusActive {
		return fmt.Errorf("override %s: %w", v.ID, payroll.ErrConcurrentModification)
	}
	v.Status = StatusOverridden
	v.OverrideReason = reason
	v.OverriddenBy = actor
	v.OverriddenAt = &at
	return nil
}
