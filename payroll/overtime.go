/*
overtime.go - Hour tiering and gross pay computation

PURPOSE:
  Tiers per-day worked hours into regular / daily-overtime /
  double-time / weekly-overtime buckets, applies manual
  reclassification adjustments, and converts the buckets into gross pay
  in integer cents.

TIERING ORDER:
  Daily splitting runs first, per day. Weekly reclassification then
  moves only the summed REGULAR hours above the weekly threshold into
  the weekly-overtime bucket. The two overtime tiers are therefore
  additive, never overlapping.

ROUNDING:
  - Hour buckets round to 2dp, half away from zero
  - Each pay tier rounds to whole cents independently before the total
    is summed, so per-tier figures always reconcile to the total

BLENDED OVERTIME RATE:
  Unless the rules exclude tips from the OT base rate, the rate used
  for the overtime tiers is hourlyRate + round(totalTips / totalHours).
  The blended rate never applies to the regular tier.

SEE ALSO:
  - types.go: OvertimeRules, HourBuckets, PayBreakdown
  - batch.go: Runs this per employee across a period
*/
package payroll

import "github.com/shopspring/decimal"

// ValidateRules checks the structural invariants of an overtime rule
// set. Rules are validated when saved; evaluation assumes a valid set
// and fails fast otherwise.
func ValidateRules(r OvertimeRules) error {
	if !r.WeeklyThreshold.IsPositive() {
		return &RuleError{Field: "weekly_threshold", Detail: "must be positive"}
	}
	if r.WeeklyMultiplier.LessThan(decimal.NewFromInt(1)) {
		return &RuleError{Field: "weekly_multiplier", Detail: "must be at least 1"}
	}
	if r.DailyThreshold != nil && !r.DailyThreshold.IsPositive() {
		return &RuleError{Field: "daily_threshold", Detail: "must be positive"}
	}
	if r.DoubleTimeThreshold != nil {
		if r.DailyThreshold == nil {
			return &RuleError{Field: "double_time_threshold", Detail: "requires a daily threshold"}
		}
		if r.DoubleTimeThreshold.LessThan(*r.DailyThreshold) {
			return &RuleError{Field: "double_time_threshold", Detail: "must be >= daily threshold"}
		}
	}
	return nil
}

// CalculateDailyOvertime splits one day's hours across the regular,
// daily-overtime, and double-time tiers. Without a daily threshold all
// hours are regular. When the double-time threshold equals the daily
// threshold, double time begins immediately past it.
func CalculateDailyOvertime(hoursWorked decimal.Decimal, rules OvertimeRules) HourBuckets {
	b := HourBuckets{
		Regular: decimal.Zero, DailyOvertime: decimal.Zero,
		DoubleTime: decimal.Zero, WeeklyOvertime: decimal.Zero,
	}
	if rules.DailyThreshold == nil {
		b.Regular = hoursWorked
		return b
	}

	daily := *rules.DailyThreshold
	if hoursWorked.LessThanOrEqual(daily) {
		b.Regular = hoursWorked
		return b
	}

	b.Regular = daily
	excess := hoursWorked.Sub(daily)

	if rules.DoubleTimeThreshold == nil {
		b.DailyOvertime = excess
		return b
	}

	otSpan := rules.DoubleTimeThreshold.Sub(daily)
	if excess.LessThanOrEqual(otSpan) {
		b.DailyOvertime = excess
		return b
	}
	b.DailyOvertime = otSpan
	b.DoubleTime = excess.Sub(otSpan)
	return b
}

// CalculateWeeklyOvertime applies the daily split to each day, sums
// the buckets across the week, then reclassifies regular hours above
// the weekly threshold into the weekly-overtime bucket. All outputs
// are rounded to 2dp.
func CalculateWeeklyOvertime(days []DayHours, rules OvertimeRules) HourBuckets {
	week := HourBuckets{
		Regular: decimal.Zero, DailyOvertime: decimal.Zero,
		DoubleTime: decimal.Zero, WeeklyOvertime: decimal.Zero,
	}
	for _, d := range days {
		db := CalculateDailyOvertime(d.NetHours, rules)
		week.Regular = week.Regular.Add(db.Regular)
		week.DailyOvertime = week.DailyOvertime.Add(db.DailyOvertime)
		week.DoubleTime = week.DoubleTime.Add(db.DoubleTime)
	}

	if week.Regular.GreaterThan(rules.WeeklyThreshold) {
		week.WeeklyOvertime = week.Regular.Sub(rules.WeeklyThreshold)
		week.Regular = rules.WeeklyThreshold
	}
	return week.rounded()
}

// ApplyOvertimeAdjustments moves hours between the regular and
// weekly-overtime buckets, one adjustment at a time, clamped so
// neither bucket goes negative. A request to move more than the source
// bucket holds moves only what is available; nothing rolls over to the
// daily-overtime or double-time buckets.
func ApplyOvertimeAdjustments(base HourBuckets, adjustments []OvertimeAdjustment) HourBuckets {
	out := base
	for _, adj := range adjustments {
		if !adj.Hours.IsPositive() {
			continue
		}
		switch adj.Direction {
		case RegularToOvertime:
			moved := decimal.Min(adj.Hours, out.Regular)
			out.Regular = out.Regular.Sub(moved)
			out.WeeklyOvertime = out.WeeklyOvertime.Add(moved)
		case OvertimeToRegular:
			moved := decimal.Min(adj.Hours, out.WeeklyOvertime)
			out.WeeklyOvertime = out.WeeklyOvertime.Sub(moved)
			out.Regular = out.Regular.Add(moved)
		}
	}
	return out
}

// CalculateOvertimePay converts tiered hours into gross pay. Each
// tier's pay is rounded to whole cents independently; the total is the
// sum of the rounded tiers.
func CalculateOvertimePay(hours HourBuckets, hourlyRate Cents, totalTips Cents, rules OvertimeRules) PayBreakdown {
	rate := decimal.NewFromInt(int64(hourlyRate))

	otRate := rate
	if !rules.ExcludeTipsFromOTRate {
		total := hours.Total()
		if total.IsPositive() && totalTips != 0 {
			tipRate := decimal.NewFromInt(int64(totalTips)).Div(total).Round(0)
			otRate = rate.Add(tipRate)
		}
	}

	tier := func(h, r, mult decimal.Decimal) Cents {
		return CentsFromDecimal(h.Mul(r).Mul(mult))
	}

	one := decimal.NewFromInt(1)
	p := PayBreakdown{
		RegularPay:        tier(hours.Regular, rate, one),
		WeeklyOvertimePay: tier(hours.WeeklyOvertime, otRate, rules.WeeklyMultiplier),
		DailyOvertimePay:  tier(hours.DailyOvertime, otRate, rules.DailyMultiplier),
		DoubleTimePay:     tier(hours.DoubleTime, otRate, rules.DoubleTimeMultiplier),
	}
	p.TotalPay = p.RegularPay + p.WeeklyOvertimePay + p.DailyOvertimePay + p.DoubleTimePay
	return p
}

// CalculateEmployeeOvertime runs the full pipeline for one employee
// and week: tiering, adjustments, then pay. Exempt employees skip
// tiering entirely - all hours regular, no overtime pay regardless of
// totals.
func CalculateEmployeeOvertime(emp Employee, days []DayHours, adjustments []OvertimeAdjustment, totalTips Cents, rules OvertimeRules) (EmployeePayResult, error) {
	if err := ValidateRules(rules); err != nil {
		return EmployeePayResult{}, err
	}

	if emp.Exempt {
		total := decimal.Zero
		for _, d := range days {
			total = total.Add(d.NetHours)
		}
		hours := HourBuckets{
			Regular: RoundHours(total), DailyOvertime: decimal.Zero,
			DoubleTime: decimal.Zero, WeeklyOvertime: decimal.Zero,
		}
		pay := PayBreakdown{
			RegularPay: CentsFromDecimal(hours.Regular.Mul(decimal.NewFromInt(int64(emp.HourlyRate)))),
		}
		pay.TotalPay = pay.RegularPay
		return EmployeePayResult{EmployeeID: emp.ID, Hours: hours, Pay: pay, Exempt: true}, nil
	}

	hours := CalculateWeeklyOvertime(days, rules)
	hours = ApplyOvertimeAdjustments(hours, adjustments)
	pay := CalculateOvertimePay(hours, emp.HourlyRate, totalTips, rules)
	return EmployeePayResult{EmployeeID: emp.ID, Hours: hours, Pay: pay}, nil
}
