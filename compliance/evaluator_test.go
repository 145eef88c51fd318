package compliance_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/labor-engine/compliance"
	"github.com/warp/labor-engine/payroll"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

var evalNow = time.Date(2025, time.March, 17, 12, 0, 0, 0, time.UTC)

func shift(id, empID string, start, end time.Time) compliance.Shift {
	return compliance.Shift{
		ID:         payroll.ShiftID(id),
		EmployeeID: payroll.EmployeeID(empID),
		Start:      start,
		End:        end,
	}
}

func ts(day, hour, minute int) time.Time {
	return time.Date(2025, time.March, day, hour, minute, 0, 0, time.UTC)
}

func enabledRule(id string, cfg compliance.RuleConfig) compliance.Rule {
	return compliance.Rule{
		ID: id, Restaurant: "r-1", Kind: cfg.Kind(), Enabled: true, Config: cfg,
	}
}

func roster(emps ...payroll.Employee) map[payroll.EmployeeID]payroll.Employee {
	out := make(map[payroll.EmployeeID]payroll.Employee, len(emps))
	for _, e := range emps {
		out[e.ID] = e
	}
	return out
}

func evaluate(t *testing.T, input compliance.EvaluationInput) *compliance.EvaluationResult {
	t.Helper()
	e := &compliance.Evaluator{}
	result, err := e.Evaluate(input)
	require.NoError(t, err)
	return result
}

// =============================================================================
// REST PERIOD / CLOPENING
// =============================================================================

func TestEvaluate_RestPeriod_GapBelowMinimum(t *testing.T) {
	// GIVEN: A shift ending 23:00 and the next starting 08:00 (9h gap),
	//        minimum rest 11h
	// WHEN: Evaluating
	// THEN: Exactly one active rest-period violation

	result := evaluate(t, compliance.EvaluationInput{
		Restaurant: "r-1",
		Rules:      []compliance.Rule{enabledRule("rest", compliance.RestPeriodConfig{MinHoursBetweenShifts: 11})},
		Shifts: []compliance.Shift{
			shift("s1", "emp-1", ts(10, 15, 0), ts(10, 23, 0)),
			shift("s2", "emp-1", ts(11, 8, 0), ts(11, 16, 0)),
		},
		Now: evalNow,
	})

	require.Len(t, result.Created, 1)
	v := result.Created[0]
	assert.Equal(t, compliance.KindRestPeriod, v.Kind)
	assert.Equal(t, compliance.SeverityError, v.Severity)
	assert.Equal(t, compliance.StatusActive, v.Status)
	assert.Equal(t, payroll.EmployeeID("emp-1"), v.EmployeeID)
}

func TestEvaluate_RestPeriod_SufficientGap_NoViolation(t *testing.T) {
	// GIVEN: A 12h gap against an 11h minimum
	// WHEN: Evaluating
	// THEN: Nothing created

	result := evaluate(t, compliance.EvaluationInput{
		Restaurant: "r-1",
		Rules:      []compliance.Rule{enabledRule("rest", compliance.RestPeriodConfig{MinHoursBetweenShifts: 11})},
		Shifts: []compliance.Shift{
			shift("s1", "emp-1", ts(10, 12, 0), ts(10, 20, 0)),
			shift("s2", "emp-1", ts(11, 8, 0), ts(11, 16, 0)),
		},
		Now: evalNow,
	})

	assert.Empty(t, result.Created)
}

func TestEvaluate_Clopening_CloseThenOpen(t *testing.T) {
	// GIVEN: A closing shift ending 23:00 followed by an opening shift
	//        at 07:00 next morning, 10h minimum
	// WHEN: Evaluating
	// THEN: One clopening violation

	s1 := shift("s1", "emp-1", ts(10, 15, 0), ts(10, 23, 0))
	s1.Closing = true
	s2 := shift("s2", "emp-1", ts(11, 7, 0), ts(11, 15, 0))
	s2.Opening = true

	result := evaluate(t, compliance.EvaluationInput{
		Restaurant: "r-1",
		Rules:      []compliance.Rule{enabledRule("clope", compliance.ClopeningConfig{MinHoursBetweenShifts: 10})},
		Shifts:     []compliance.Shift{s1, s2},
		Now:        evalNow,
	})

	require.Len(t, result.Created, 1)
	assert.Equal(t, compliance.KindClopening, result.Created[0].Kind)
}

func TestEvaluate_Clopening_IgnoresNonCloseOpenPairs(t *testing.T) {
	// GIVEN: The same tight gap, but the first shift is not a closing shift
	// WHEN: Evaluating the clopening rule
	// THEN: Nothing created; the pair doesn't qualify

	s2 := shift("s2", "emp-1", ts(11, 7, 0), ts(11, 15, 0))
	s2.Opening = true

	result := evaluate(t, compliance.EvaluationInput{
		Restaurant: "r-1",
		Rules:      []compliance.Rule{enabledRule("clope", compliance.ClopeningConfig{MinHoursBetweenShifts: 10})},
		Shifts: []compliance.Shift{
			shift("s1", "emp-1", ts(10, 15, 0), ts(10, 23, 0)),
			s2,
		},
		Now: evalNow,
	})

	assert.Empty(t, result.Created)
}

// =============================================================================
// IDEMPOTENCY
// =============================================================================

func TestEvaluate_Idempotent_SecondRunCreatesNothing(t *testing.T) {
	// GIVEN: A first evaluation produced one violation
	// WHEN: Re-running against unchanged data with the first run's output as prior
	// THEN: No new violations and nothing resolved

	rules := []compliance.Rule{enabledRule("rest", compliance.RestPeriodConfig{MinHoursBetweenShifts: 11})}
	shifts := []compliance.Shift{
		shift("s1", "emp-1", ts(10, 15, 0), ts(10, 23, 0)),
		shift("s2", "emp-1", ts(11, 8, 0), ts(11, 16, 0)),
	}

	first := evaluate(t, compliance.EvaluationInput{
		Restaurant: "r-1", Rules: rules, Shifts: shifts, Now: evalNow,
	})
	require.Len(t, first.Created, 1)

	second := evaluate(t, compliance.EvaluationInput{
		Restaurant: "r-1", Rules: rules, Shifts: shifts,
		Prior: first.Created, Now: evalNow.Add(time.Hour),
	})

	assert.Empty(t, second.Created, "unchanged condition must not duplicate")
	assert.Empty(t, second.Resolved)
}

func TestEvaluate_OverriddenPriorSuppressesRecurrence(t *testing.T) {
	// GIVEN: The prior violation was overridden by a manager
	// WHEN: Re-running against unchanged data
	// THEN: The same finding is suppressed, not re-created

	rules := []compliance.Rule{enabledRule("rest", compliance.RestPeriodConfig{MinHoursBetweenShifts: 11, AllowOverride: true})}
	shifts := []compliance.Shift{
		shift("s1", "emp-1", ts(10, 15, 0), ts(10, 23, 0)),
		shift("s2", "emp-1", ts(11, 8, 0), ts(11, 16, 0)),
	}

	first := evaluate(t, compliance.EvaluationInput{
		Restaurant: "r-1", Rules: rules, Shifts: shifts, Now: evalNow,
	})
	require.Len(t, first.Created, 1)

	overridden := first.Created[0]
	require.NoError(t, overridden.Override("manager approved schedule", "mgr-1", evalNow))

	second := evaluate(t, compliance.EvaluationInput{
		Restaurant: "r-1", Rules: rules, Shifts: shifts,
		Prior: []compliance.Violation{overridden}, Now: evalNow.Add(time.Hour),
	})

	assert.Empty(t, second.Created)
	assert.Empty(t, second.Resolved, "overridden priors stay overridden")
}

func TestEvaluate_ClearedConditionResolvesPrior(t *testing.T) {
	// GIVEN: A prior active violation whose schedule has since been fixed
	// WHEN: Re-running with the corrected shifts
	// THEN: The prior transitions to resolved

	rules := []compliance.Rule{enabledRule("rest", compliance.RestPeriodConfig{MinHoursBetweenShifts: 11})}
	badShifts := []compliance.Shift{
		shift("s1", "emp-1", ts(10, 15, 0), ts(10, 23, 0)),
		shift("s2", "emp-1", ts(11, 8, 0), ts(11, 16, 0)),
	}
	fixedShifts := []compliance.Shift{
		shift("s1", "emp-1", ts(10, 15, 0), ts(10, 23, 0)),
		shift("s2", "emp-1", ts(11, 12, 0), ts(11, 20, 0)),
	}

	first := evaluate(t, compliance.EvaluationInput{
		Restaurant: "r-1", Rules: rules, Shifts: badShifts, Now: evalNow,
	})
	require.Len(t, first.Created, 1)

	second := evaluate(t, compliance.EvaluationInput{
		Restaurant: "r-1", Rules: rules, Shifts: fixedShifts,
		Prior: first.Created, Now: evalNow.Add(time.Hour),
	})

	assert.Empty(t, second.Created)
	require.Len(t, second.Resolved, 1)
	assert.Equal(t, compliance.StatusResolved, second.Resolved[0].Status)
	assert.Equal(t, first.Created[0].ID, second.Resolved[0].ID)
}

func TestEvaluate_DisabledRuleDoesNotResolveItsPriors(t *testing.T) {
	// GIVEN: A prior active violation, but its rule is now disabled
	// WHEN: Re-running
	// THEN: The prior stays active; only rules that ran can clear findings

	rule := enabledRule("rest", compliance.RestPeriodConfig{MinHoursBetweenShifts: 11})
	shifts := []compliance.Shift{
		shift("s1", "emp-1", ts(10, 15, 0), ts(10, 23, 0)),
		shift("s2", "emp-1", ts(11, 8, 0), ts(11, 16, 0)),
	}

	first := evaluate(t, compliance.EvaluationInput{
		Restaurant: "r-1", Rules: []compliance.Rule{rule}, Shifts: shifts, Now: evalNow,
	})
	require.Len(t, first.Created, 1)

	rule.Enabled = false
	second := evaluate(t, compliance.EvaluationInput{
		Restaurant: "r-1", Rules: []compliance.Rule{rule}, Shifts: shifts,
		Prior: first.Created, Now: evalNow.Add(time.Hour),
	})

	assert.Empty(t, second.Created)
	assert.Empty(t, second.Resolved)
}

// =============================================================================
// MINOR RESTRICTIONS
// =============================================================================

func TestEvaluate_Minors_LateEndAndDayHours(t *testing.T) {
	// GIVEN: A minor scheduled 12:00-22:30 (10.5h, ends past 22:00 curfew)
	// WHEN: Evaluating with 8h/day limit and a 22:00 latest end
	// THEN: Two critical violations: late_end and day_hours

	cfg := compliance.MinorRestrictionsConfig{
		MaxHoursPerDay: 8, MaxHoursPerWeek: 32,
		EarliestStartTime: "07:00", LatestEndTime: "22:00",
	}
	result := evaluate(t, compliance.EvaluationInput{
		Restaurant: "r-1",
		Rules:      []compliance.Rule{enabledRule("minors", cfg)},
		Employees:  roster(payroll.Employee{ID: "emp-1", Name: "Sam", Minor: true}),
		Shifts:     []compliance.Shift{shift("s1", "emp-1", ts(10, 12, 0), ts(10, 22, 30))},
		Now:        evalNow,
	})

	require.Len(t, result.Created, 2)
	for _, v := range result.Created {
		assert.Equal(t, compliance.KindMinorRestrictions, v.Kind)
		assert.Equal(t, compliance.SeverityCritical, v.Severity)
	}
}

func TestEvaluate_Minors_AdultsIgnored(t *testing.T) {
	// GIVEN: The same out-of-bounds shift worked by a non-minor
	// WHEN: Evaluating
	// THEN: Nothing created

	cfg := compliance.MinorRestrictionsConfig{
		MaxHoursPerDay: 8, MaxHoursPerWeek: 32,
		EarliestStartTime: "07:00", LatestEndTime: "22:00",
	}
	result := evaluate(t, compliance.EvaluationInput{
		Restaurant: "r-1",
		Rules:      []compliance.Rule{enabledRule("minors", cfg)},
		Employees:  roster(payroll.Employee{ID: "emp-1", Name: "Alex", Minor: false}),
		Shifts:     []compliance.Shift{shift("s1", "emp-1", ts(10, 12, 0), ts(10, 22, 30))},
		Now:        evalNow,
	})

	assert.Empty(t, result.Created)
}

func TestEvaluate_Minors_WeeklyHoursAggregated(t *testing.T) {
	// GIVEN: A minor with five 7h shifts in one week (35h) against a 32h cap
	// WHEN: Evaluating (per-day limit not exceeded)
	// THEN: Exactly one week_hours violation

	cfg := compliance.MinorRestrictionsConfig{
		MaxHoursPerDay: 8, MaxHoursPerWeek: 32,
		EarliestStartTime: "07:00", LatestEndTime: "22:00",
	}
	var shifts []compliance.Shift
	for i := 0; i < 5; i++ {
		// Monday March 10 through Friday March 14
		shifts = append(shifts, shift(
			payrollShiftID(i), "emp-1", ts(10+i, 9, 0), ts(10+i, 16, 0)))
	}

	result := evaluate(t, compliance.EvaluationInput{
		Restaurant: "r-1",
		Rules:      []compliance.Rule{enabledRule("minors", cfg)},
		Employees:  roster(payroll.Employee{ID: "emp-1", Name: "Sam", Minor: true}),
		Shifts:     shifts,
		Now:        evalNow,
	})

	require.Len(t, result.Created, 1)
	assert.Contains(t, result.Created[0].Message, "week")
}

func payrollShiftID(i int) string {
	return string(rune('a'+i)) + "-shift"
}

// =============================================================================
// SHIFT LENGTH
// =============================================================================

func TestEvaluate_ShiftLength_BoundsAndStreaks(t *testing.T) {
	// GIVEN: A 2h shift (min 4), a 13h shift (max 12), and a 7-day streak
	//        against a 6-day limit
	// WHEN: Evaluating
	// THEN: One short, one long, and one streak finding, all warnings

	maxDays := 6
	cfg := compliance.ShiftLengthConfig{MinHours: 4, MaxHours: 12, MaxConsecutiveDays: &maxDays}

	shifts := []compliance.Shift{
		shift("short", "emp-1", ts(10, 9, 0), ts(10, 11, 0)),
		shift("long", "emp-1", ts(11, 9, 0), ts(11, 22, 0)),
	}
	for i := 2; i < 7; i++ {
		shifts = append(shifts, shift(payrollShiftID(i), "emp-1", ts(10+i, 9, 0), ts(10+i, 17, 0)))
	}

	result := evaluate(t, compliance.EvaluationInput{
		Restaurant: "r-1",
		Rules:      []compliance.Rule{enabledRule("len", cfg)},
		Shifts:     shifts,
		Now:        evalNow,
	})

	require.Len(t, result.Created, 3)
	for _, v := range result.Created {
		assert.Equal(t, compliance.SeverityWarning, v.Severity)
	}
}

// =============================================================================
// OVERTIME
// =============================================================================

func TestEvaluate_Overtime_SeverityScalesWithExcess(t *testing.T) {
	// GIVEN: Weekly threshold 40h; one employee at 41h, another at 45h,
	//        a third at 50h
	// WHEN: Evaluating
	// THEN: warning (<2h over), error (<8h over), critical (>=8h over)

	cfg := compliance.OvertimeConfig{WeeklyThreshold: 40}
	var shifts []compliance.Shift
	add := func(emp string, dailyHours int, days int) {
		for i := 0; i < days; i++ {
			shifts = append(shifts, shift(emp+payrollShiftID(i), emp, ts(10+i, 8, 0), ts(10+i, 8+dailyHours, 0)))
		}
	}
	add("warn", 10, 4)  // 40h, then one extra hour below
	shifts = append(shifts, shift("warn-x", "warn", ts(14, 8, 0), ts(14, 9, 0)))  // 41h total
	add("err", 9, 5)    // 45h
	add("crit", 10, 5)  // 50h

	result := evaluate(t, compliance.EvaluationInput{
		Restaurant: "r-1",
		Rules:      []compliance.Rule{enabledRule("ot", cfg)},
		Shifts:     shifts,
		Now:        evalNow,
	})

	require.Len(t, result.Created, 3)
	bySeverity := map[compliance.Severity]payroll.EmployeeID{}
	for _, v := range result.Created {
		bySeverity[v.Severity] = v.EmployeeID
	}
	assert.Equal(t, payroll.EmployeeID("warn"), bySeverity[compliance.SeverityWarning])
	assert.Equal(t, payroll.EmployeeID("err"), bySeverity[compliance.SeverityError])
	assert.Equal(t, payroll.EmployeeID("crit"), bySeverity[compliance.SeverityCritical])
}

func TestEvaluate_Overtime_WarnOnlyForcesWarning(t *testing.T) {
	// GIVEN: 50h scheduled against a 40h threshold, warn_only set
	// WHEN: Evaluating
	// THEN: The finding is a warning despite the 10h excess

	cfg := compliance.OvertimeConfig{WeeklyThreshold: 40, WarnOnly: true}
	var shifts []compliance.Shift
	for i := 0; i < 5; i++ {
		shifts = append(shifts, shift(payrollShiftID(i), "emp-1", ts(10+i, 8, 0), ts(10+i, 18, 0)))
	}

	result := evaluate(t, compliance.EvaluationInput{
		Restaurant: "r-1",
		Rules:      []compliance.Rule{enabledRule("ot", cfg)},
		Shifts:     shifts,
		Now:        evalNow,
	})

	require.Len(t, result.Created, 1)
	assert.Equal(t, compliance.SeverityWarning, result.Created[0].Severity)
}

// =============================================================================
// OVERRIDE LIFECYCLE
// =============================================================================

func TestViolationOverride_RequiresReasonAndActor(t *testing.T) {
	v := compliance.Violation{ID: "v1", Status: compliance.StatusActive}

	assert.ErrorIs(t, v.Override("", "mgr-1", evalNow), payroll.ErrMissingReason)
	assert.ErrorIs(t, v.Override("ok", "", evalNow), payroll.ErrMissingActor)
	assert.Equal(t, compliance.StatusActive, v.Status, "failed override must not transition")
}

func TestViolationOverride_SecondOverrideLosesRace(t *testing.T) {
	// GIVEN: An active violation
	// WHEN: Two overrides apply in sequence
	// THEN: The first wins; the second reports a lost compare-and-set

	v := compliance.Violation{ID: "v1", Status: compliance.StatusActive}

	require.NoError(t, v.Override("schedule approved", "mgr-1", evalNow))
	assert.Equal(t, compliance.StatusOverridden, v.Status)
	assert.Equal(t, "mgr-1", v.OverriddenBy)

	err := v.Override("also approving", "mgr-2", evalNow.Add(time.Minute))
	assert.ErrorIs(t, err, payroll.ErrConcurrentModification)
	assert.Equal(t, "mgr-1", v.OverriddenBy, "first override's audit trail is preserved")
}
