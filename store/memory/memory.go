// Package memory provides in-memory store implementations (for testing/dev).
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/warp/labor-engine/compliance"
	"github.com/warp/labor-engine/payroll"
	"github.com/warp/labor-engine/tippool"
)

// =============================================================================
// MEMORY STORE - Implements all persistence interfaces
// =============================================================================

// Memory implements compliance.ViolationStore, tippool.SplitStore,
// tippool.LockStore, and tippool.DisputeStore. Compare-and-set
// semantics match the SQLite store: status transitions check the
// current status under the write lock.
type Memory struct {
	mu         sync.RWMutex
	violations map[string]compliance.Violation
	splits     map[string][]tippool.Split // periodID -> splits in roster order
	locks      map[string]tippool.PeriodLock
	disputes   map[string]tippool.Dispute
}

func New() *Memory {
	return &Memory{
		violations: make(map[string]compliance.Violation),
		splits:     make(map[string][]tippool.Split),
		locks:      make(map[string]tippool.PeriodLock),
		disputes:   make(map[string]tippool.Dispute),
	}
}

// Interface conformance.
var (
	_ compliance.ViolationStore = (*Memory)(nil)
	_ tippool.SplitStore        = (*Memory)(nil)
	_ tippool.LockStore         = (*Memory)(nil)
	_ tippool.DisputeStore      = (*Memory)(nil)
)

// =============================================================================
// VIOLATIONS
// =============================================================================

func (m *Memory) Record(_ context.Context, violations []compliance.Violation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range violations {
		if _, exists := m.violations[v.ID]; exists {
			return fmt.Errorf("violation %s already recorded", v.ID)
		}
		m.violations[v.ID] = v
	}
	return nil
}

func (m *Memory) ListByRestaurant(_ context.Context, id payroll.RestaurantID) ([]compliance.Violation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []compliance.Violation
	for _, v := range m.violations {
		if v.Restaurant == id {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *Memory) GetViolation(_ context.Context, id string) (*compliance.Violation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.violations[id]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (m *Memory) Override(_ context.Context, id, reason, actor string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.violations[id]
	if !ok {
		return fmt.Errorf("violation %s not found", id)
	}
	// CAS on status happens inside Override.
	if err := v.Override(reason, actor, at); err != nil {
		return err
	}
	m.violations[id] = v
	return nil
}

func (m *Memory) MarkResolved(_ context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		v, ok := m.violations[id]
		if !ok || v.Status != compliance.StatusActive {
			continue // an override in flight wins
		}
		v.Status = compliance.StatusResolved
		m.violations[id] = v
	}
	return nil
}

// =============================================================================
// TIP SPLITS
// =============================================================================

func (m *Memory) ReplacePeriod(_ context.Context, periodID string, splits []tippool.Split) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if lock, ok := m.locks[periodID]; ok && lock.Locked {
		return tippool.ErrPeriodLocked
	}
	copied := make([]tippool.Split, len(splits))
	copy(copied, splits)
	m.splits[periodID] = copied
	return nil
}

func (m *Memory) ListPeriod(_ context.Context, periodID string) ([]tippool.Split, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]tippool.Split, len(m.splits[periodID]))
	copy(out, m.splits[periodID])
	return out, nil
}

func (m *Memory) GetSplit(_ context.Context, splitID string) (*tippool.Split, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, splits := range m.splits {
		for _, s := range splits {
			if s.ID == splitID {
				s := s
				return &s, nil
			}
		}
	}
	return nil, nil
}

func (m *Memory) ListByEmployee(_ context.Context, id payroll.EmployeeID) ([]tippool.Split, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []tippool.Split
	for _, splits := range m.splits {
		for _, s := range splits {
			if s.EmployeeID == id {
				out = append(out, s)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// =============================================================================
// PERIOD LOCKS
// =============================================================================

func (m *Memory) Lock(_ context.Context, lock tippool.PeriodLock) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.locks[lock.PeriodID]; ok && existing.Locked {
		return fmt.Errorf("lock period %s: %w", lock.PeriodID, payroll.ErrConcurrentModification)
	}
	lock.Locked = true
	m.locks[lock.PeriodID] = lock
	return nil
}

func (m *Memory) GetLock(_ context.Context, periodID string) (*tippool.PeriodLock, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	lock, ok := m.locks[periodID]
	if !ok {
		return nil, nil
	}
	return &lock, nil
}

// =============================================================================
// DISPUTES
// =============================================================================

func (m *Memory) Create(_ context.Context, d tippool.Dispute) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.disputes[d.ID]; exists {
		return fmt.Errorf("dispute %s already exists", d.ID)
	}
	m.disputes[d.ID] = d
	return nil
}

func (m *Memory) GetDispute(_ context.Context, id string) (*tippool.Dispute, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.disputes[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (m *Memory) ListBySplit(_ context.Context, splitID string) ([]tippool.Dispute, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []tippool.Dispute
	for _, d := range m.disputes {
		if d.SplitID == splitID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) ListOpen(_ context.Context) ([]tippool.Dispute, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []tippool.Dispute
	for _, d := range m.disputes {
		if d.Status == tippool.DisputeOpen {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) Resolve(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.disputes[id]
	if !ok {
		return fmt.Errorf("dispute %s not found", id)
	}
	if d.Status != tippool.DisputeOpen {
		return fmt.Errorf("resolve dispute %s: %w", id, payroll.ErrConcurrentModification)
	}
	d.Status = tippool.DisputeResolved
	m.disputes[id] = d
	return nil
}
