/*
accumulator.go - Time punches to per-day worked hours

PURPOSE:
  Converts one employee's raw punch stream for a period into per-day
  totals: total hours, break hours, and net hours. This is the first
  stage of the payroll pipeline; its output feeds the overtime engine.

ALGORITHM:
  1. Sort punches by timestamp (never trust caller ordering)
  2. Single walk tracking the most recent unmatched clock-in and the
     most recent unmatched break-start
  3. clock-out closes the open clock-in; break-end closes the open
     break-start; the span attributes to the calendar day of the
     OPENING punch
  4. Net = max(total - break, 0) per day

DATA QUALITY:
  - A closing punch with no open counterpart, or one that precedes its
    opening punch, is reported as an anomaly and contributes zero.
  - A trailing unmatched clock-in/break-start marks the day Open and
    contributes zero. Upstream surfaces open days instead of paying
    partial hours.
  Nothing is ever clamped or guessed.

SEE ALSO:
  - overtime.go: Consumes the per-day net hours
*/
package payroll

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

type dayTotals struct {
	workMinutes  decimal.Decimal
	breakMinutes decimal.Decimal
	open         bool
}

// AccumulateDays walks one employee's punches and returns per-day
// hours (sorted by date) plus any data-quality anomalies found.
// Punches for other employees must not be mixed into the input.
func AccumulateDays(punches []TimePunch) ([]DayHours, []PunchAnomaly) {
	sorted := make([]TimePunch, len(punches))
	copy(sorted, punches)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].At.Before(sorted[j].At) })

	days := make(map[time.Time]*dayTotals)
	var anomalies []PunchAnomaly

	day := func(at time.Time) *dayTotals {
		d := dayOf(at)
		t, ok := days[d]
		if !ok {
			t = &dayTotals{workMinutes: decimal.Zero, breakMinutes: decimal.Zero}
			days[d] = t
		}
		return t
	}

	var openClock, openBreak *TimePunch

	for i := range sorted {
		p := sorted[i]
		switch p.Kind {
		case PunchClockIn:
			if openClock != nil {
				// Superseded clock-in: the earlier one never closed.
				anomalies = append(anomalies, PunchAnomaly{
					EmployeeID: openClock.EmployeeID, At: openClock.At,
					Kind: PunchClockIn, Reason: "clock_in superseded before clock_out",
				})
				day(openClock.At).open = true
			}
			openClock = &sorted[i]

		case PunchClockOut:
			if openClock == nil {
				anomalies = append(anomalies, PunchAnomaly{
					EmployeeID: p.EmployeeID, At: p.At,
					Kind: PunchClockOut, Reason: "clock_out without open clock_in",
				})
				continue
			}
			if p.At.Before(openClock.At) {
				anomalies = append(anomalies, PunchAnomaly{
					EmployeeID: p.EmployeeID, At: p.At,
					Kind: PunchClockOut, Reason: "clock_out precedes clock_in",
					Err: &PunchOrderError{
						EmployeeID: p.EmployeeID, OpenedAt: openClock.At,
						ClosedAt: p.At, Kind: PunchClockOut,
					},
				})
				openClock = nil
				continue
			}
			t := day(openClock.At)
			t.workMinutes = t.workMinutes.Add(minutesBetween(openClock.At, p.At))
			openClock = nil

		case PunchBreakStart:
			if openBreak != nil {
				anomalies = append(anomalies, PunchAnomaly{
					EmployeeID: openBreak.EmployeeID, At: openBreak.At,
					Kind: PunchBreakStart, Reason: "break_start superseded before break_end",
				})
				day(openBreak.At).open = true
			}
			openBreak = &sorted[i]

		case PunchBreakEnd:
			if openBreak == nil {
				anomalies = append(anomalies, PunchAnomaly{
					EmployeeID: p.EmployeeID, At: p.At,
					Kind: PunchBreakEnd, Reason: "break_end without open break_start",
				})
				continue
			}
			if p.At.Before(openBreak.At) {
				anomalies = append(anomalies, PunchAnomaly{
					EmployeeID: p.EmployeeID, At: p.At,
					Kind: PunchBreakEnd, Reason: "break_end precedes break_start",
					Err: &PunchOrderError{
						EmployeeID: p.EmployeeID, OpenedAt: openBreak.At,
						ClosedAt: p.At, Kind: PunchBreakEnd,
					},
				})
				openBreak = nil
				continue
			}
			t := day(openBreak.At)
			t.breakMinutes = t.breakMinutes.Add(minutesBetween(openBreak.At, p.At))
			openBreak = nil
		}
	}

	// Trailing unmatched punches contribute zero and flag the day open.
	if openClock != nil {
		day(openClock.At).open = true
		anomalies = append(anomalies, PunchAnomaly{
			EmployeeID: openClock.EmployeeID, At: openClock.At,
			Kind: PunchClockIn, Reason: "open clock_in at period end",
		})
	}
	if openBreak != nil {
		day(openBreak.At).open = true
		anomalies = append(anomalies, PunchAnomaly{
			EmployeeID: openBreak.EmployeeID, At: openBreak.At,
			Kind: PunchBreakStart, Reason: "open break_start at period end",
		})
	}

	sixty := decimal.NewFromInt(60)
	result := make([]DayHours, 0, len(days))
	for d, t := range days {
		total := t.workMinutes.Div(sixty)
		brk := t.breakMinutes.Div(sixty)
		net := t.workMinutes.Sub(t.breakMinutes)
		if net.IsNegative() {
			net = decimal.Zero
		} else {
			net = net.Div(sixty)
		}
		result = append(result, DayHours{
			Date:       d,
			TotalHours: RoundHours(total),
			BreakHours: RoundHours(brk),
			NetHours:   RoundHours(net),
			Open:       t.open,
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result, anomalies
}

func dayOf(at time.Time) time.Time {
	return time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, at.Location())
}

func minutesBetween(from, to time.Time) decimal.Decimal {
	return decimal.NewFromFloat(to.Sub(from).Minutes())
}
