/*
config.go - Typed per-kind rule configurations

PURPOSE:
  Each rule kind carries exactly one configuration shape. The shapes
  here are the engine's boundary contract: a single immutable value,
  validated before use - the engine never sees partially-filled form
  state. Construction from JSON lives in the factory package.

DESIGN:
  RuleConfig is a small sum type: one concrete struct per kind, an
  exhaustive switch wherever kinds matter. Adding a kind is a
  compile-time-enforced change at every use site.
*/
package compliance

import (
	"fmt"
	"time"
)

// RuleConfig is the typed configuration attached to a Rule. Exactly
// one concrete type is valid per rule kind.
type RuleConfig interface {
	Kind() RuleKind
	Validate() error
}

// Compile-time checks that every config implements RuleConfig.
var (
	_ RuleConfig = MinorRestrictionsConfig{}
	_ RuleConfig = ClopeningConfig{}
	_ RuleConfig = RestPeriodConfig{}
	_ RuleConfig = ShiftLengthConfig{}
	_ RuleConfig = OvertimeConfig{}
)

// =============================================================================
// MINOR RESTRICTIONS
// =============================================================================

// MinorRestrictionsConfig limits when and how much employees flagged
// as minors may work. Times are "HH:MM" in the restaurant's local
// clock.
type MinorRestrictionsConfig struct {
	MaxHoursPerDay    float64
	MaxHoursPerWeek   float64
	EarliestStartTime string
	LatestEndTime     string
}

func (MinorRestrictionsConfig) Kind() RuleKind { return KindMinorRestrictions }

func (c MinorRestrictionsConfig) Validate() error {
	if c.MaxHoursPerDay <= 0 || c.MaxHoursPerWeek <= 0 {
		return fmt.Errorf("minor_restrictions: hour limits must be positive")
	}
	if c.MaxHoursPerDay > c.MaxHoursPerWeek {
		return fmt.Errorf("minor_restrictions: max_hours_per_day exceeds max_hours_per_week")
	}
	if _, err := ParseClock(c.EarliestStartTime); err != nil {
		return fmt.Errorf("minor_restrictions: earliest_start_time: %w", err)
	}
	if _, err := ParseClock(c.LatestEndTime); err != nil {
		return fmt.Errorf("minor_restrictions: latest_end_time: %w", err)
	}
	return nil
}

// =============================================================================
// SHIFT SPACING - clopening and rest_period share the same shape
// =============================================================================

// ClopeningConfig flags a closing shift followed by an opening shift
// the same or next calendar day with insufficient rest between.
type ClopeningConfig struct {
	MinHoursBetweenShifts float64
	AllowOverride         bool
}

func (ClopeningConfig) Kind() RuleKind { return KindClopening }

func (c ClopeningConfig) Validate() error {
	if c.MinHoursBetweenShifts <= 0 {
		return fmt.Errorf("clopening: min_hours_between_shifts must be positive")
	}
	return nil
}

// RestPeriodConfig flags any two consecutive shifts with a gap below
// the minimum, regardless of opening/closing position.
type RestPeriodConfig struct {
	MinHoursBetweenShifts float64
	AllowOverride         bool
}

func (RestPeriodConfig) Kind() RuleKind { return KindRestPeriod }

func (c RestPeriodConfig) Validate() error {
	if c.MinHoursBetweenShifts <= 0 {
		return fmt.Errorf("rest_period: min_hours_between_shifts must be positive")
	}
	return nil
}

// =============================================================================
// SHIFT LENGTH
// =============================================================================

// ShiftLengthConfig bounds individual shift length and, optionally,
// the longest consecutive-working-day streak.
type ShiftLengthConfig struct {
	MinHours           float64
	MaxHours           float64
	MaxConsecutiveDays *int
}

func (ShiftLengthConfig) Kind() RuleKind { return KindShiftLength }

func (c ShiftLengthConfig) Validate() error {
	if c.MinHours < 0 || c.MaxHours <= 0 {
		return fmt.Errorf("shift_length: hour bounds must be positive")
	}
	if c.MinHours > c.MaxHours {
		return fmt.Errorf("shift_length: min_hours exceeds max_hours")
	}
	if c.MaxConsecutiveDays != nil && *c.MaxConsecutiveDays < 1 {
		return fmt.Errorf("shift_length: max_consecutive_days must be at least 1")
	}
	return nil
}

// =============================================================================
// OVERTIME
// =============================================================================

// OvertimeConfig flags projected or actual hours above the thresholds.
// WarnOnly forces every finding to warning severity so upstream
// scheduling actions are not blocked.
type OvertimeConfig struct {
	WeeklyThreshold float64
	DailyThreshold  *float64
	WarnOnly        bool
}

func (OvertimeConfig) Kind() RuleKind { return KindOvertime }

func (c OvertimeConfig) Validate() error {
	if c.WeeklyThreshold <= 0 {
		return fmt.Errorf("overtime: weekly_threshold must be positive")
	}
	if c.DailyThreshold != nil && *c.DailyThreshold <= 0 {
		return fmt.Errorf("overtime: daily_threshold must be positive")
	}
	return nil
}

// =============================================================================
// CLOCK TIME - "HH:MM" wall-clock values
// =============================================================================

// ClockTime is a minutes-since-midnight wall-clock value.
type ClockTime int

// ParseClock parses an "HH:MM" string.
func ParseClock(s string) (ClockTime, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	return ClockTime(t.Hour()*60 + t.Minute()), nil
}

// ClockOf extracts the wall-clock minutes of a timestamp.
func ClockOf(t time.Time) ClockTime { return ClockTime(t.Hour()*60 + t.Minute()) }
