package payroll_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/labor-engine/payroll"
)

// =============================================================================
// BATCH RUNS
// =============================================================================

func shiftPunches(day, hours int) []payroll.TimePunch {
	start := time.Date(2025, time.March, day, 9, 0, 0, 0, time.UTC)
	return []payroll.TimePunch{
		{EmployeeID: "x", At: start, Kind: payroll.PunchClockIn},
		{EmployeeID: "x", At: start.Add(time.Duration(hours) * time.Hour), Kind: payroll.PunchClockOut},
	}
}

func TestRunner_ResultsSortedAndTotalled(t *testing.T) {
	// GIVEN: Three hourly employees, submitted out of id order
	// WHEN: Running the batch with 2 workers
	// THEN: Results come back sorted by employee id with a summed total

	input := payroll.RunInput{
		Restaurant: "r-1",
		Rules:      payroll.DefaultOvertimeRules(),
	}
	for _, id := range []string{"emp-3", "emp-1", "emp-2"} {
		input.Employees = append(input.Employees, payroll.EmployeeInput{
			Employee: payroll.Employee{ID: payroll.EmployeeID(id), HourlyRate: 2000},
			Punches:  shiftPunches(10, 8),
		})
	}

	summary, err := payroll.NewRunner(2).Run(context.Background(), input)
	require.NoError(t, err)

	require.Len(t, summary.Results, 3)
	assert.Equal(t, payroll.EmployeeID("emp-1"), summary.Results[0].Result.EmployeeID)
	assert.Equal(t, payroll.EmployeeID("emp-2"), summary.Results[1].Result.EmployeeID)
	assert.Equal(t, payroll.EmployeeID("emp-3"), summary.Results[2].Result.EmployeeID)
	assert.Equal(t, payroll.Cents(48000), summary.TotalPay, "3 x 8h x $20.00")
}

func TestRunner_InvalidRulesFailFast(t *testing.T) {
	// GIVEN: Rules with a non-positive weekly threshold
	// WHEN: Running the batch
	// THEN: The run fails before any employee is processed

	rules := payroll.DefaultOvertimeRules()
	rules.WeeklyThreshold = payroll.Hours(0)

	_, err := payroll.NewRunner(2).Run(context.Background(), payroll.RunInput{
		Restaurant: "r-1",
		Rules:      rules,
		Employees:  []payroll.EmployeeInput{{Employee: payroll.Employee{ID: "emp-1"}}},
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, payroll.ErrInvalidRules)
}

func TestRunner_CancelledContext(t *testing.T) {
	// GIVEN: An already-cancelled context and many employees
	// WHEN: Running the batch
	// THEN: The run returns the context error

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	input := payroll.RunInput{Restaurant: "r-1", Rules: payroll.DefaultOvertimeRules()}
	for i := 0; i < 50; i++ {
		input.Employees = append(input.Employees, payroll.EmployeeInput{
			Employee: payroll.Employee{ID: payroll.EmployeeID(fmt.Sprintf("emp-%02d", i)), HourlyRate: 1500},
			Punches:  shiftPunches(10, 8),
		})
	}

	_, err := payroll.NewRunner(4).Run(ctx, input)
	assert.Error(t, err)
}

func TestRunner_CarriesAnomaliesThrough(t *testing.T) {
	// GIVEN: An employee whose period ends with an open clock-in
	// WHEN: Running the batch
	// THEN: The anomaly and open day surface in the result

	input := payroll.RunInput{
		Restaurant: "r-1",
		Rules:      payroll.DefaultOvertimeRules(),
		Employees: []payroll.EmployeeInput{{
			Employee: payroll.Employee{ID: "emp-1", HourlyRate: 2000},
			Punches: []payroll.TimePunch{
				{EmployeeID: "emp-1", At: time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC), Kind: payroll.PunchClockIn},
			},
		}},
	}

	summary, err := payroll.NewRunner(1).Run(context.Background(), input)
	require.NoError(t, err)

	require.Len(t, summary.Results, 1)
	res := summary.Results[0]
	require.Len(t, res.Days, 1)
	assert.True(t, res.Days[0].Open)
	assert.Len(t, res.Anomalies, 1)
	assert.Equal(t, payroll.Cents(0), res.Result.Pay.TotalPay)
}
