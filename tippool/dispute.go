/*
dispute.go - Dispute tracking

PURPOSE:
  Pure record-keeping for employee objections to tip splits. A dispute
  references an existing split with a typed reason and free text.
  Filing a dispute never touches the split or the period; whether the
  underlying computation changes later is a separate, manual decision.
*/
package tippool

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/warp/labor-engine/payroll"
)

// ErrSplitNotFound is returned when a dispute references a split that
// doesn't exist.
var ErrSplitNotFound = errors.New("tip split not found")

// Tracker files and resolves disputes against recorded splits.
type Tracker struct {
	Splits   SplitStore
	Disputes DisputeStore
}

func NewTracker(splits SplitStore, disputes DisputeStore) *Tracker {
	return &Tracker{Splits: splits, Disputes: disputes}
}

// File creates a dispute against an existing split. The dispute type
// and a non-empty message are required.
func (t *Tracker) File(ctx context.Context, employeeID payroll.EmployeeID, splitID string, kind DisputeType, message string, now time.Time) (*Dispute, error) {
	if message == "" {
		return nil, payroll.ErrMissingReason
	}
	if !validDisputeType(kind) {
		return nil, fmt.Errorf("unknown dispute type %q", kind)
	}

	split, err := t.Splits.GetSplit(ctx, splitID)
	if err != nil {
		return nil, err
	}
	if split == nil {
		return nil, ErrSplitNotFound
	}

	d := Dispute{
		ID:         uuid.NewString(),
		EmployeeID: employeeID,
		SplitID:    splitID,
		Type:       kind,
		Message:    message,
		Status:     DisputeOpen,
		CreatedAt:  now,
	}
	if err := t.Disputes.Create(ctx, d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Resolve closes a dispute. Resolution is a manual follow-up action;
// it does not recompute anything.
func (t *Tracker) Resolve(ctx context.Context, disputeID string) error {
	return t.Disputes.Resolve(ctx, disputeID)
}

func validDisputeType(kind DisputeType) bool {
	switch kind {
	case DisputeMissingHours, DisputeIncorrectAmount, DisputeWrongDate,
		DisputeMissingTips, DisputeWrongRole, DisputeOther:
		return true
	}
	return false
}
