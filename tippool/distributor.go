/*
distributor.go - Tip pool split computation

PURPOSE:
  Divides a tip total across the eligible roster under the configured
  share method. Shares are integer cents and must sum to the input
  total EXACTLY - a run where they don't is a correctness bug, not a
  tolerated rounding error.

REMAINDER DISTRIBUTION:
  Every method computes floor shares proportional to each employee's
  weight, then hands the leftover cents out one at a time in roster
  order to employees with a positive weight. This is the deterministic
  tie-break that forces exact reconciliation.

METHODS:
  even  - equal weight for every present eligible employee
  hours - weight = hours worked; zero-hour employees get zero and
          leave the denominator
  role  - weight = configured role weight, default 1

LOCKING:
  Distribute refuses to run for a locked period (ErrPeriodLocked); the
  caller checks the lock through the store before persisting.
*/
package tippool

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/labor-engine/payroll"
)

var (
	// ErrPeriodLocked is returned when a distribution or mutation
	// targets a locked period.
	ErrPeriodLocked = errors.New("tip period is locked")

	// ErrNoEligibleEmployees is returned when nothing can receive a
	// share (empty roster, or all weights zero).
	ErrNoEligibleEmployees = errors.New("no eligible employees for distribution")

	// ErrNegativeTotal is returned for a negative pool total.
	ErrNegativeTotal = errors.New("tip total cannot be negative")
)

// Distributor computes tip splits. It is stateless; locking and
// persistence live behind the stores.
type Distributor struct{}

// DistributeInput is one split computation request. Stakes must cover
// the employees present for the period; employees outside
// Settings.Eligible are ignored.
type DistributeInput struct {
	PeriodID   string
	TotalCents payroll.Cents
	Settings   Settings
	Stakes     []Stake
	Now        time.Time
}

// Distribute computes the period's splits. The returned shares always
// sum to TotalCents exactly.
func (d *Distributor) Distribute(input DistributeInput) ([]Split, error) {
	if input.TotalCents < 0 {
		return nil, ErrNegativeTotal
	}

	stakes := eligibleStakes(input.Settings, input.Stakes)
	if len(stakes) == 0 {
		return nil, ErrNoEligibleEmployees
	}

	weights, err := stakeWeights(input.Settings, stakes)
	if err != nil {
		return nil, err
	}

	weightSum := decimal.Zero
	for _, w := range weights {
		weightSum = weightSum.Add(w)
	}
	if !weightSum.IsPositive() {
		return nil, ErrNoEligibleEmployees
	}

	shares := apportion(input.TotalCents, weights)

	splits := make([]Split, len(stakes))
	for i, st := range stakes {
		basis := SplitBasis{Method: input.Settings.Method, Role: st.Role}
		switch input.Settings.Method {
		case MethodHours:
			basis.Hours = st.Hours
		case MethodRole:
			basis.Weight = weights[i]
		case MethodEven:
			basis.EqualShareOf = len(stakes)
		}
		splits[i] = Split{
			ID:         uuid.NewString(),
			PeriodID:   input.PeriodID,
			EmployeeID: st.EmployeeID,
			Amount:     shares[i],
			Basis:      basis,
			CreatedAt:  input.Now,
		}
	}
	return splits, nil
}

// eligibleStakes filters stakes to the eligible roster, preserving
// roster order (the remainder tie-break order).
func eligibleStakes(settings Settings, stakes []Stake) []Stake {
	byID := make(map[payroll.EmployeeID]Stake, len(stakes))
	for _, st := range stakes {
		byID[st.EmployeeID] = st
	}
	var out []Stake
	for _, id := range settings.Eligible {
		if st, ok := byID[id]; ok {
			out = append(out, st)
		}
	}
	return out
}

// stakeWeights resolves each stake's weight under the share method.
func stakeWeights(settings Settings, stakes []Stake) ([]decimal.Decimal, error) {
	one := decimal.NewFromInt(1)
	weights := make([]decimal.Decimal, len(stakes))
	switch settings.Method {
	case MethodEven:
		for i := range stakes {
			weights[i] = one
		}
	case MethodHours:
		// Scheduled-but-unworked employees get no share.
		for i, st := range stakes {
			if st.Hours.IsPositive() {
				weights[i] = st.Hours
			} else {
				weights[i] = decimal.Zero
			}
		}
	case MethodRole:
		for i, st := range stakes {
			w, ok := settings.RoleWeights[st.Role]
			if !ok {
				w = one
			}
			if w.IsNegative() {
				return nil, fmt.Errorf("role %q has negative weight", st.Role)
			}
			weights[i] = w
		}
	default:
		return nil, fmt.Errorf("unknown share method %q", settings.Method)
	}
	return weights, nil
}

// apportion splits total cents proportionally to weights: floor shares
// first, then one leftover cent at a time to the earliest positive
// weights. Guarantees sum(shares) == total.
func apportion(total payroll.Cents, weights []decimal.Decimal) []payroll.Cents {
	shares := make([]payroll.Cents, len(weights))

	sum := decimal.Zero
	for _, w := range weights {
		sum = sum.Add(w)
	}
	if !sum.IsPositive() {
		return shares
	}

	totalDec := decimal.NewFromInt(int64(total))
	var allocated payroll.Cents
	for i, w := range weights {
		if !w.IsPositive() {
			continue
		}
		share := payroll.Cents(totalDec.Mul(w).Div(sum).Floor().IntPart())
		shares[i] = share
		allocated += share
	}

	remainder := total - allocated
	for i := 0; remainder > 0 && i < len(weights); i++ {
		if weights[i].IsPositive() {
			shares[i]++
			remainder--
		}
	}
	return shares
}
