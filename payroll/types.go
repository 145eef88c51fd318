/*
Package payroll provides the core labor payroll engine.

PURPOSE:
  This package contains the pure, deterministic math that turns raw time
  punches into per-day worked hours, tiers those hours into
  regular/overtime/double-time buckets, and converts the buckets into
  gross pay. Its output is money employees are paid, so every rounding
  and tie-break decision is fixed and reproducible.

KEY CONCEPTS IN THIS FILE (types.go):
  - Cents: Money is always integer cents, never floats
  - Hours: Worked time as decimal.Decimal to avoid float drift
  - Employee: Roster record with rate, exemption, tip eligibility
  - TimePunch: A single clock/break event
  - HourBuckets: The four pay tiers hours land in

DESIGN PRINCIPLES:
  1. Purity: No I/O, no clocks, no hidden state - callers pass everything in
  2. Precision: decimal.Decimal for hours, int64 cents for money
  3. Determinism: Identical inputs always produce identical pay
  4. Type Safety: Strong typing for IDs prevents mixing employee/shift IDs

SEE ALSO:
  - accumulator.go: Punches to per-day hours
  - overtime.go: Hour tiering and pay computation
  - batch.go: Concurrent per-period payroll runs
*/
package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID string
type RestaurantID string
type ShiftID string

// =============================================================================
// MONEY - Always integer cents
// =============================================================================

// Cents is a money amount in integer cents. All pay arithmetic rounds
// once per operation (half away from zero) and never re-rounds totals.
type Cents int64

// CentsFromDecimal converts a decimal dollar-cent value, rounding half
// away from zero. This is the single conversion boundary from decimal
// math back into money.
func CentsFromDecimal(d decimal.Decimal) Cents {
	return Cents(d.Round(0).IntPart())
}

// =============================================================================
// HOURS - Decimal hours, rounded to 2dp at reporting boundaries
// =============================================================================

// Hours constructs a decimal hour value from a float input.
func Hours(h float64) decimal.Decimal { return decimal.NewFromFloat(h) }

// RoundHours rounds an hour value to 2 decimal places, half away from zero.
func RoundHours(h decimal.Decimal) decimal.Decimal { return h.Round(2) }

// =============================================================================
// EMPLOYEE - Roster record as seen by the engine
// =============================================================================

type CompensationType string

const (
	CompHourly     CompensationType = "hourly"
	CompSalary     CompensationType = "salary"
	CompDailyRate  CompensationType = "daily_rate"
	CompContractor CompensationType = "contractor"
)

// Employee is the engine's view of a roster record. The engine never
// loads employees itself; callers pass already-fetched records.
type Employee struct {
	ID           EmployeeID
	Name         string
	Role         string
	Compensation CompensationType
	HourlyRate   Cents
	Exempt       bool // exempt employees skip overtime tiering entirely
	Minor        bool
	TipEligible  bool // salaried employees are excluded by policy
}

// =============================================================================
// TIME PUNCH - A single clock or break event
// =============================================================================

type PunchKind string

const (
	PunchClockIn    PunchKind = "clock_in"
	PunchClockOut   PunchKind = "clock_out"
	PunchBreakStart PunchKind = "break_start"
	PunchBreakEnd   PunchKind = "break_end"
)

type TimePunch struct {
	EmployeeID EmployeeID
	At         time.Time
	Kind       PunchKind
}

// =============================================================================
// DAY HOURS - Accumulator output for one calendar day
// =============================================================================

// DayHours is the per-day result of walking one employee's punches.
// Open reports a trailing unmatched clock-in or break-start; the open
// span contributes zero minutes and must be surfaced upstream rather
// than silently producing partial hours.
type DayHours struct {
	Date       time.Time // midnight, restaurant-local
	TotalHours decimal.Decimal
	BreakHours decimal.Decimal
	NetHours   decimal.Decimal
	Open       bool
}

// PunchAnomaly reports a data-quality problem found while accumulating:
// a closing punch with no matching opening punch. The engine never
// guesses hours for these.
type PunchAnomaly struct {
	EmployeeID EmployeeID
	At         time.Time
	Kind       PunchKind
	Reason     string
	Err        error // structured cause when one applies, e.g. *PunchOrderError
}

// =============================================================================
// HOUR BUCKETS - The four pay tiers
// =============================================================================

// HourBuckets holds tiered hours for one employee and week. Daily
// splitting happens before weekly reclassification, so DailyOvertime
// and WeeklyOvertime are additive, never overlapping.
type HourBuckets struct {
	Regular        decimal.Decimal
	DailyOvertime  decimal.Decimal
	DoubleTime     decimal.Decimal
	WeeklyOvertime decimal.Decimal
}

// Total returns the sum of all four buckets.
func (b HourBuckets) Total() decimal.Decimal {
	return b.Regular.Add(b.DailyOvertime).Add(b.DoubleTime).Add(b.WeeklyOvertime)
}

func (b HourBuckets) rounded() HourBuckets {
	return HourBuckets{
		Regular:        RoundHours(b.Regular),
		DailyOvertime:  RoundHours(b.DailyOvertime),
		DoubleTime:     RoundHours(b.DoubleTime),
		WeeklyOvertime: RoundHours(b.WeeklyOvertime),
	}
}

// =============================================================================
// OVERTIME RULES - Per-restaurant tiering configuration
// =============================================================================

// OvertimeRules configures hour tiering for a restaurant.
// DailyThreshold and DoubleTimeThreshold are optional; nil disables the
// corresponding tier. DoubleTimeThreshold, when set, must be >= the
// daily threshold (equal means double time begins immediately past it).
type OvertimeRules struct {
	WeeklyThreshold      decimal.Decimal
	WeeklyMultiplier     decimal.Decimal
	DailyThreshold       *decimal.Decimal
	DailyMultiplier      decimal.Decimal
	DoubleTimeThreshold  *decimal.Decimal
	DoubleTimeMultiplier decimal.Decimal

	// ExcludeTipsFromOTRate keeps the overtime base rate at the plain
	// hourly rate. When false, the OT base rate blends in tips:
	// hourlyRate + round(totalTips / totalHours).
	ExcludeTipsFromOTRate bool
}

// DefaultOvertimeRules returns the statutory defaults: 40h weekly
// threshold at 1.5x, no daily or double-time tier.
func DefaultOvertimeRules() OvertimeRules {
	return OvertimeRules{
		WeeklyThreshold:      decimal.NewFromInt(40),
		WeeklyMultiplier:     decimal.NewFromFloat(1.5),
		DailyMultiplier:      decimal.NewFromFloat(1.5),
		DoubleTimeMultiplier: decimal.NewFromInt(2),
	}
}

// =============================================================================
// ADJUSTMENTS - Manual reclassification after automatic tiering
// =============================================================================

type AdjustmentDirection string

const (
	RegularToOvertime AdjustmentDirection = "regular_to_overtime"
	OvertimeToRegular AdjustmentDirection = "overtime_to_regular"
)

// OvertimeAdjustment moves hours between the regular and
// weekly-overtime buckets. Daily-overtime and double-time are never
// touched by adjustments.
type OvertimeAdjustment struct {
	EmployeeID EmployeeID
	Date       time.Time
	Direction  AdjustmentDirection
	Hours      decimal.Decimal
	Reason     string
}

// =============================================================================
// PAY BREAKDOWN - Per-tier gross pay in cents
// =============================================================================

// PayBreakdown is gross pay per tier. Each tier is rounded
// independently before Total is summed, so per-tier figures always
// reconcile to the total exactly.
type PayBreakdown struct {
	RegularPay        Cents
	WeeklyOvertimePay Cents
	DailyOvertimePay  Cents
	DoubleTimePay     Cents
	TotalPay          Cents
}

// EmployeePayResult is the full engine output for one employee/week.
type EmployeePayResult struct {
	EmployeeID EmployeeID
	Hours      HourBuckets
	Pay        PayBreakdown
	Exempt     bool
}
