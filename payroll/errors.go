/*
errors.go - Centralized error types for the payroll engine

PURPOSE:
  All sentinel errors for the core packages in one place. Domain
  packages (compliance, tippool) wrap these with additional context.

ERROR CATEGORIES:
  1. Data-quality errors - Bad punch data the engine refuses to guess at
  2. Validation errors - Invalid rule or adjustment input
  3. Concurrency errors - Lost compare-and-set races

USAGE:
  if errors.Is(err, payroll.ErrConcurrentModification) {
      // retry or surface conflict
  }
*/
package payroll

import (
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNegativeSpan is returned when a closing punch precedes its
	// opening punch. The pair is reported, never clamped.
	ErrNegativeSpan = errors.New("punch pair spans negative time")

	// ErrInvalidRules is returned when overtime rules break an
	// invariant (e.g. double-time threshold below daily threshold).
	// Rules are validated at save time; the engine fails fast if it
	// still sees a bad config.
	ErrInvalidRules = errors.New("invalid overtime rules")

	// ErrMissingReason is returned when an override or adjustment
	// arrives without its mandatory reason.
	ErrMissingReason = errors.New("reason is required")

	// ErrMissingActor is returned when an override arrives without an
	// acting user id.
	ErrMissingActor = errors.New("acting user is required")

	// ErrConcurrentModification is returned when a compare-and-set
	// operation observes that another writer already won.
	ErrConcurrentModification = errors.New("concurrent modification detected")

	// ErrEmployeeNotFound is returned when a referenced employee
	// doesn't exist.
	ErrEmployeeNotFound = errors.New("employee not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// PunchOrderError reports a clock-out or break-end that precedes its
// opening punch.
type PunchOrderError struct {
	EmployeeID EmployeeID
	OpenedAt   time.Time
	ClosedAt   time.Time
	Kind       PunchKind
}

func (e *PunchOrderError) Error() string {
	return fmt.Sprintf("punch order violation for %s: %s at %s closes before open at %s",
		e.EmployeeID, e.Kind, e.ClosedAt.Format(time.RFC3339), e.OpenedAt.Format(time.RFC3339))
}

func (e *PunchOrderError) Unwrap() error { return ErrNegativeSpan }

// RuleError reports which overtime rule field is invalid.
type RuleError struct {
	Field  string
	Detail string
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("invalid overtime rules: %s: %s", e.Field, e.Detail)
}

func (e *RuleError) Unwrap() error { return ErrInvalidRules }

// IsRetryable returns true if the error might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}
