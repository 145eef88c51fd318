/*
batch.go - Concurrent payroll runs for a full period

PURPOSE:
  Runs the punch→hours→pay pipeline for every employee in a payroll
  period. Per-employee computation is pure with no shared state, so the
  run fans out across a bounded worker pool and joins before producing
  the period summary. No ordering between employees.

USAGE:
  runner := payroll.NewRunner(4)
  summary, err := runner.Run(ctx, payroll.RunInput{...})
*/
package payroll

import (
	"context"
	"sort"
	"sync"
)

// EmployeeInput bundles everything the pipeline needs for one employee.
type EmployeeInput struct {
	Employee    Employee
	Punches     []TimePunch
	Adjustments []OvertimeAdjustment
	TipsCents   Cents
}

// RunInput is a full payroll-period run request.
type RunInput struct {
	Restaurant RestaurantID
	Rules      OvertimeRules
	Employees  []EmployeeInput
}

// EmployeeRunResult pairs a pay result with the data-quality findings
// from its punch walk.
type EmployeeRunResult struct {
	Result    EmployeePayResult
	Days      []DayHours
	Anomalies []PunchAnomaly
}

// RunSummary joins all per-employee results for the period.
type RunSummary struct {
	Restaurant RestaurantID
	Results    []EmployeeRunResult
	TotalPay   Cents
}

// Runner executes payroll runs with a bounded number of workers.
type Runner struct {
	workers int
}

// NewRunner creates a runner with the given worker count (minimum 1).
func NewRunner(workers int) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{workers: workers}
}

// Run computes pay for every employee in the input. Employees are
// processed concurrently; results are returned sorted by employee id
// so the summary is deterministic. The first error cancels the run.
func (r *Runner) Run(ctx context.Context, input RunInput) (*RunSummary, error) {
	if err := ValidateRules(input.Rules); err != nil {
		return nil, err
	}

	type job struct {
		idx int
		in  EmployeeInput
	}

	jobs := make(chan job)
	results := make([]EmployeeRunResult, len(input.Employees))
	errOnce := sync.Once{}
	var runErr error

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	for w := 0; w < r.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				days, anomalies := AccumulateDays(j.in.Punches)
				res, err := CalculateEmployeeOvertime(j.in.Employee, days, j.in.Adjustments, j.in.TipsCents, input.Rules)
				if err != nil {
					errOnce.Do(func() {
						runErr = err
						cancel()
					})
					return
				}
				results[j.idx] = EmployeeRunResult{Result: res, Days: days, Anomalies: anomalies}
			}
		}()
	}

feed:
	for i, in := range input.Employees {
		select {
		case jobs <- job{idx: i, in: in}:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if runErr != nil {
		return nil, runErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	summary := &RunSummary{Restaurant: input.Restaurant, Results: results}
	for _, res := range results {
		summary.TotalPay += res.Result.Pay.TotalPay
	}
	sort.Slice(summary.Results, func(i, j int) bool {
		return summary.Results[i].Result.EmployeeID < summary.Results[j].Result.EmployeeID
	})
	return summary, nil
}
