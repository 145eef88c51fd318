/*
evaluator.go - Rule evaluation engine

PURPOSE:
  Runs every enabled rule for a restaurant against its roster and
  schedule, producing violations. Evaluation is deterministic and
  re-runnable: each finding carries a stable fingerprint, and the
  evaluator reconciles findings against previously recorded violations
  so unchanged conditions are never duplicated and cleared conditions
  transition to resolved.

IDEMPOTENCY CONTRACT:
  - finding fingerprint matches an ACTIVE prior  -> no new violation
  - finding fingerprint matches an OVERRIDDEN prior, and the rule
    allows overrides                             -> suppressed
  - active prior whose fingerprint is absent from
    the current findings                         -> resolved
  - anything else                                -> new active violation

SEVERITY:
  minor_restrictions findings are critical, spacing findings are
  errors, shift_length findings are warnings. Overtime severity scales
  with the excess (see overtimeSeverity) unless warn_only forces
  warning.

SEE ALSO:
  - config.go: Per-kind configs the switch below dispatches on
  - types.go: Violation lifecycle
*/
package compliance

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/warp/labor-engine/payroll"
)

// =============================================================================
// EVALUATOR
// =============================================================================

type Evaluator struct{}

// EvaluationInput is everything one evaluation run consumes. Employees
// and shifts arrive already loaded; Prior holds the restaurant's
// previously recorded violations (any status).
type EvaluationInput struct {
	Restaurant payroll.RestaurantID
	Rules      []Rule
	Employees  map[payroll.EmployeeID]payroll.Employee
	Shifts     []Shift
	Prior      []Violation
	Now        time.Time
}

// EvaluationResult separates newly created violations from priors that
// resolved because their condition no longer holds.
type EvaluationResult struct {
	Created  []Violation
	Resolved []Violation
}

// finding is a raw rule hit before reconciliation against priors.
type finding struct {
	kind        RuleKind
	severity    Severity
	employeeID  payroll.EmployeeID
	shiftID     *payroll.ShiftID
	fingerprint string
	message     string
}

// Evaluate runs all enabled rules and reconciles against priors.
// Configs are validated at save time; a mismatched config here is an
// invariant violation and fails fast.
func (e *Evaluator) Evaluate(input EvaluationInput) (*EvaluationResult, error) {
	var findings []finding
	evaluated := map[RuleKind]bool{}

	for _, rule := range input.Rules {
		if !rule.Enabled {
			continue
		}
		if rule.Config == nil || rule.Config.Kind() != rule.Kind {
			return nil, fmt.Errorf("rule %s: config kind does not match rule kind %s", rule.ID, rule.Kind)
		}
		if err := rule.Config.Validate(); err != nil {
			return nil, fmt.Errorf("rule %s: %w", rule.ID, err)
		}
		evaluated[rule.Kind] = true

		switch cfg := rule.Config.(type) {
		case MinorRestrictionsConfig:
			findings = append(findings, e.checkMinors(cfg, input)...)
		case ClopeningConfig:
			findings = append(findings, e.checkSpacing(KindClopening, cfg.MinHoursBetweenShifts, input)...)
		case RestPeriodConfig:
			findings = append(findings, e.checkSpacing(KindRestPeriod, cfg.MinHoursBetweenShifts, input)...)
		case ShiftLengthConfig:
			findings = append(findings, e.checkShiftLength(cfg, input)...)
		case OvertimeConfig:
			findings = append(findings, e.checkOvertime(cfg, input)...)
		default:
			return nil, fmt.Errorf("rule %s: unknown config type %T", rule.ID, rule.Config)
		}
	}

	return e.reconcile(findings, evaluated, input), nil
}

// reconcile applies the idempotency contract against prior violations.
func (e *Evaluator) reconcile(findings []finding, evaluated map[RuleKind]bool, input EvaluationInput) *EvaluationResult {
	current := make(map[string]bool, len(findings))
	for _, f := range findings {
		current[f.fingerprint] = true
	}

	skip := make(map[string]bool)
	for _, prior := range input.Prior {
		switch prior.Status {
		case StatusActive, StatusOverridden:
			skip[prior.Fingerprint] = true
		}
	}

	result := &EvaluationResult{}
	seen := make(map[string]bool)
	for _, f := range findings {
		if skip[f.fingerprint] || seen[f.fingerprint] {
			continue
		}
		seen[f.fingerprint] = true
		result.Created = append(result.Created, Violation{
			ID:          uuid.NewString(),
			Restaurant:  input.Restaurant,
			Kind:        f.kind,
			Severity:    f.severity,
			EmployeeID:  f.employeeID,
			ShiftID:     f.shiftID,
			Fingerprint: f.fingerprint,
			Message:     f.message,
			Status:      StatusActive,
			CreatedAt:   input.Now,
		})
	}

	// Priors whose condition cleared transition to resolved. Only rules
	// that actually ran this pass can clear their own findings.
	for _, prior := range input.Prior {
		if prior.Status != StatusActive {
			continue
		}
		if !evaluated[prior.Kind] {
			continue
		}
		if !current[prior.Fingerprint] {
			resolved := prior
			resolved.Status = StatusResolved
			result.Resolved = append(result.Resolved, resolved)
		}
	}
	return result
}

// =============================================================================
// RULE CHECKS
// =============================================================================

func (e *Evaluator) checkMinors(cfg MinorRestrictionsConfig, input EvaluationInput) []finding {
	earliest, _ := ParseClock(cfg.EarliestStartTime)
	latest, _ := ParseClock(cfg.LatestEndTime)

	var out []finding
	byEmployee := shiftsByEmployee(input.Shifts)
	for _, empID := range sortedEmployeeIDs(byEmployee) {
		emp, ok := input.Employees[empID]
		if !ok || !emp.Minor {
			continue
		}
		shifts := byEmployee[empID]

		weekTotals := map[time.Time]float64{}
		for _, s := range shifts {
			sid := s.ID
			if ClockOf(s.Start) < earliest {
				out = append(out, finding{
					kind: KindMinorRestrictions, severity: SeverityCritical,
					employeeID: empID, shiftID: &sid,
					fingerprint: fingerprint(KindMinorRestrictions, string(empID), string(s.ID), "early_start"),
					message: fmt.Sprintf("minor %s starts at %s, before allowed %s",
						emp.Name, s.Start.Format("15:04"), cfg.EarliestStartTime),
				})
			}
			if ClockOf(s.End) > latest {
				out = append(out, finding{
					kind: KindMinorRestrictions, severity: SeverityCritical,
					employeeID: empID, shiftID: &sid,
					fingerprint: fingerprint(KindMinorRestrictions, string(empID), string(s.ID), "late_end"),
					message: fmt.Sprintf("minor %s ends at %s, after allowed %s",
						emp.Name, s.End.Format("15:04"), cfg.LatestEndTime),
				})
			}
			if s.HoursLength() > cfg.MaxHoursPerDay {
				out = append(out, finding{
					kind: KindMinorRestrictions, severity: SeverityCritical,
					employeeID: empID, shiftID: &sid,
					fingerprint: fingerprint(KindMinorRestrictions, string(empID), string(s.ID), "day_hours"),
					message: fmt.Sprintf("minor %s scheduled %.2fh in one day, limit %.2fh",
						emp.Name, s.HoursLength(), cfg.MaxHoursPerDay),
				})
			}
			weekTotals[weekStart(s.Start)] += s.HoursLength()
		}

		for _, wk := range sortedWeeks(weekTotals) {
			if weekTotals[wk] > cfg.MaxHoursPerWeek {
				out = append(out, finding{
					kind: KindMinorRestrictions, severity: SeverityCritical,
					employeeID: empID,
					fingerprint: fingerprint(KindMinorRestrictions, string(empID),
						wk.Format("2006-01-02"), "week_hours"),
					message: fmt.Sprintf("minor %s scheduled %.2fh in week of %s, limit %.2fh",
						emp.Name, weekTotals[wk], wk.Format("Jan 2"), cfg.MaxHoursPerWeek),
				})
			}
		}
	}
	return out
}

// checkSpacing covers both clopening and rest_period. The two differ
// only in which consecutive pairs qualify: clopening requires a
// closing shift followed by an opening shift the same or next calendar
// day; rest_period applies to any consecutive pair.
func (e *Evaluator) checkSpacing(kind RuleKind, minHours float64, input EvaluationInput) []finding {
	var out []finding
	byEmployee := shiftsByEmployee(input.Shifts)
	for _, empID := range sortedEmployeeIDs(byEmployee) {
		shifts := byEmployee[empID]
		for i := 0; i+1 < len(shifts); i++ {
			prev, next := shifts[i], shifts[i+1]
			if kind == KindClopening {
				if !prev.Closing || !next.Opening {
					continue
				}
				if dayDelta(prev.End, next.Start) > 1 {
					continue
				}
			}
			gap := next.Start.Sub(prev.End).Hours()
			if gap >= minHours {
				continue
			}
			sid := next.ID
			out = append(out, finding{
				kind: kind, severity: SeverityError,
				employeeID: empID, shiftID: &sid,
				fingerprint: fingerprint(kind, string(empID), string(prev.ID), string(next.ID)),
				message: fmt.Sprintf("only %.1fh between shifts ending %s and starting %s, minimum %.1fh",
					gap, prev.End.Format("Jan 2 15:04"), next.Start.Format("Jan 2 15:04"), minHours),
			})
		}
	}
	return out
}

func (e *Evaluator) checkShiftLength(cfg ShiftLengthConfig, input EvaluationInput) []finding {
	var out []finding
	byEmployee := shiftsByEmployee(input.Shifts)
	for _, empID := range sortedEmployeeIDs(byEmployee) {
		shifts := byEmployee[empID]
		for _, s := range shifts {
			length := s.HoursLength()
			sid := s.ID
			if length < cfg.MinHours {
				out = append(out, finding{
					kind: KindShiftLength, severity: SeverityWarning,
					employeeID: empID, shiftID: &sid,
					fingerprint: fingerprint(KindShiftLength, string(empID), string(s.ID), "short"),
					message:     fmt.Sprintf("shift is %.2fh, below minimum %.2fh", length, cfg.MinHours),
				})
			}
			if length > cfg.MaxHours {
				out = append(out, finding{
					kind: KindShiftLength, severity: SeverityWarning,
					employeeID: empID, shiftID: &sid,
					fingerprint: fingerprint(KindShiftLength, string(empID), string(s.ID), "long"),
					message:     fmt.Sprintf("shift is %.2fh, above maximum %.2fh", length, cfg.MaxHours),
				})
			}
		}

		if cfg.MaxConsecutiveDays != nil {
			out = append(out, e.checkStreaks(empID, shifts, *cfg.MaxConsecutiveDays)...)
		}
	}
	return out
}

// checkStreaks flags consecutive-working-day streaks above the limit.
// One finding per streak, keyed on its first day and length so an
// unchanged schedule reproduces the same fingerprint.
func (e *Evaluator) checkStreaks(empID payroll.EmployeeID, shifts []Shift, maxDays int) []finding {
	daySet := map[time.Time]bool{}
	for _, s := range shifts {
		daySet[truncateDay(s.Start)] = true
	}
	days := make([]time.Time, 0, len(daySet))
	for d := range daySet {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	var out []finding
	streakStart := 0
	flush := func(from, to int) {
		length := to - from
		if length <= maxDays {
			return
		}
		out = append(out, finding{
			kind: KindShiftLength, severity: SeverityWarning,
			employeeID: empID,
			fingerprint: fingerprint(KindShiftLength, string(empID),
				days[from].Format("2006-01-02"), fmt.Sprintf("streak_%d", length)),
			message: fmt.Sprintf("%d consecutive working days starting %s, limit %d",
				length, days[from].Format("Jan 2"), maxDays),
		})
	}
	for i := 1; i <= len(days); i++ {
		if i == len(days) || dayDelta(days[i-1], days[i]) != 1 {
			flush(streakStart, i)
			streakStart = i
		}
	}
	return out
}

func (e *Evaluator) checkOvertime(cfg OvertimeConfig, input EvaluationInput) []finding {
	var out []finding
	byEmployee := shiftsByEmployee(input.Shifts)
	for _, empID := range sortedEmployeeIDs(byEmployee) {
		shifts := byEmployee[empID]

		weekTotals := map[time.Time]float64{}
		for _, s := range shifts {
			weekTotals[weekStart(s.Start)] += s.HoursLength()

			if cfg.DailyThreshold != nil && s.HoursLength() > *cfg.DailyThreshold {
				sid := s.ID
				excess := s.HoursLength() - *cfg.DailyThreshold
				out = append(out, finding{
					kind: KindOvertime, severity: overtimeSeverity(excess, cfg.WarnOnly),
					employeeID: empID, shiftID: &sid,
					fingerprint: fingerprint(KindOvertime, string(empID), string(s.ID), "daily"),
					message: fmt.Sprintf("%.2fh scheduled, %.2fh over the daily threshold",
						s.HoursLength(), excess),
				})
			}
		}

		for _, wk := range sortedWeeks(weekTotals) {
			if weekTotals[wk] <= cfg.WeeklyThreshold {
				continue
			}
			excess := weekTotals[wk] - cfg.WeeklyThreshold
			out = append(out, finding{
				kind: KindOvertime, severity: overtimeSeverity(excess, cfg.WarnOnly),
				employeeID: empID,
				fingerprint: fingerprint(KindOvertime, string(empID),
					wk.Format("2006-01-02"), "weekly"),
				message: fmt.Sprintf("%.2fh scheduled in week of %s, %.2fh over the weekly threshold",
					weekTotals[wk], wk.Format("Jan 2"), excess),
			})
		}
	}
	return out
}

// overtimeSeverity scales with the excess unless warn_only forces
// warning: under 2h warning, under 8h error, otherwise critical.
func overtimeSeverity(excessHours float64, warnOnly bool) Severity {
	if warnOnly {
		return SeverityWarning
	}
	switch {
	case excessHours < 2:
		return SeverityWarning
	case excessHours < 8:
		return SeverityError
	default:
		return SeverityCritical
	}
}

// =============================================================================
// HELPERS
// =============================================================================

func fingerprint(kind RuleKind, parts ...string) string {
	return string(kind) + "|" + strings.Join(parts, "|")
}

func shiftsByEmployee(shifts []Shift) map[payroll.EmployeeID][]Shift {
	out := map[payroll.EmployeeID][]Shift{}
	for _, s := range shifts {
		out[s.EmployeeID] = append(out[s.EmployeeID], s)
	}
	for id := range out {
		ss := out[id]
		sort.Slice(ss, func(i, j int) bool { return ss[i].Start.Before(ss[j].Start) })
		out[id] = ss
	}
	return out
}

func sortedEmployeeIDs(m map[payroll.EmployeeID][]Shift) []payroll.EmployeeID {
	ids := make([]payroll.EmployeeID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func sortedWeeks(m map[time.Time]float64) []time.Time {
	weeks := make([]time.Time, 0, len(m))
	for wk := range m {
		weeks = append(weeks, wk)
	}
	sort.Slice(weeks, func(i, j int) bool { return weeks[i].Before(weeks[j]) })
	return weeks
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// weekStart returns the Monday midnight of t's week.
func weekStart(t time.Time) time.Time {
	d := truncateDay(t)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// dayDelta returns whole calendar days from a's day to b's day.
func dayDelta(a, b time.Time) int {
	return int(truncateDay(b).Sub(truncateDay(a)).Hours() / 24)
}
