/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements the persistence side of the labor engine: violations with
  their audit lifecycle, tip splits with period locks, disputes, and
  the roster/schedule/rule records the API serves. The same patterns
  apply to PostgreSQL - only minor SQL dialect differences.

INTERFACES IMPLEMENTED:
  compliance.ViolationStore: Violation records + status transitions
  tippool.SplitStore:        Per-period splits
  tippool.LockStore:         Period locks (CAS)
  tippool.DisputeStore:      Dispute records

AUDIT CONTRACT:
  Violations and disputes are never deleted. The only UPDATE statements
  against them are status transitions, and each transition is a
  compare-and-set on the current status:

    UPDATE violations SET status='overridden', ...
    WHERE id=? AND status='active'

  A second concurrent override sees zero rows affected and gets
  payroll.ErrConcurrentModification. Period locks work the same way:
  INSERT with a primary-key conflict means someone else locked first.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better
  concurrency: multiple readers don't block, single writer at a time.

USAGE:
  store, err := sqlite.New("./data/labor.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/labor-engine/compliance"
	"github.com/warp/labor-engine/payroll"
	"github.com/warp/labor-engine/tippool"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
}

// Interface conformance.
var (
	_ compliance.ViolationStore = (*Store)(nil)
	_ tippool.SplitStore        = (*Store)(nil)
	_ tippool.LockStore         = (*Store)(nil)
	_ tippool.DisputeStore      = (*Store)(nil)
)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows one writer; a single pooled connection also keeps
	// ":memory:" databases from splitting across connections.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	-- Roster records as provided by the upstream system
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		restaurant_id TEXT NOT NULL,
		name TEXT NOT NULL,
		role TEXT NOT NULL,
		compensation TEXT NOT NULL,
		hourly_rate_cents INTEGER NOT NULL DEFAULT 0,
		exempt BOOLEAN NOT NULL DEFAULT FALSE,
		minor BOOLEAN NOT NULL DEFAULT FALSE,
		tip_eligible BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_employees_restaurant ON employees(restaurant_id);

	-- Scheduled shifts
	CREATE TABLE IF NOT EXISTS shifts (
		id TEXT PRIMARY KEY,
		restaurant_id TEXT NOT NULL,
		employee_id TEXT NOT NULL,
		start_at TEXT NOT NULL,
		end_at TEXT NOT NULL,
		opening BOOLEAN NOT NULL DEFAULT FALSE,
		closing BOOLEAN NOT NULL DEFAULT FALSE
	);
	CREATE INDEX IF NOT EXISTS idx_shifts_restaurant ON shifts(restaurant_id);
	CREATE INDEX IF NOT EXISTS idx_shifts_employee ON shifts(employee_id, start_at);

	-- Compliance rule configurations, one typed config per kind
	CREATE TABLE IF NOT EXISTS rules (
		id TEXT PRIMARY KEY,
		restaurant_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		enabled BOOLEAN NOT NULL DEFAULT TRUE,
		config_json TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_rules_restaurant ON rules(restaurant_id);

	-- Violations: never deleted, only transitioned
	CREATE TABLE IF NOT EXISTS violations (
		id TEXT PRIMARY KEY,
		restaurant_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		severity TEXT NOT NULL,
		employee_id TEXT NOT NULL,
		shift_id TEXT,
		fingerprint TEXT NOT NULL,
		message TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		override_reason TEXT,
		overridden_by TEXT,
		overridden_at TEXT,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_violations_restaurant ON violations(restaurant_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_violations_fingerprint ON violations(fingerprint, status);

	-- Tip splits, replaced wholesale per period until the period locks
	CREATE TABLE IF NOT EXISTS tip_splits (
		id TEXT PRIMARY KEY,
		period_id TEXT NOT NULL,
		employee_id TEXT NOT NULL,
		amount_cents INTEGER NOT NULL,
		basis_json TEXT NOT NULL,
		roster_order INTEGER NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_splits_period ON tip_splits(period_id, roster_order);
	CREATE INDEX IF NOT EXISTS idx_splits_employee ON tip_splits(employee_id, created_at);

	-- Period locks: a row here IS the lock; inserting twice loses
	CREATE TABLE IF NOT EXISTS period_locks (
		period_id TEXT PRIMARY KEY,
		locked_at TEXT NOT NULL,
		locked_by TEXT NOT NULL
	);

	-- Disputes: never deleted, only open -> resolved
	CREATE TABLE IF NOT EXISTS tip_disputes (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		split_id TEXT NOT NULL,
		dispute_type TEXT NOT NULL,
		message TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'open',
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_disputes_split ON tip_disputes(split_id);
	CREATE INDEX IF NOT EXISTS idx_disputes_status ON tip_disputes(status, created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// VIOLATIONS (compliance.ViolationStore)
// =============================================================================

func (s *Store) Record(ctx context.Context, violations []compliance.Violation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO violations (id, restaurant_id, kind, severity, employee_id, shift_id,
			fingerprint, message, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, v := range violations {
		var shiftID *string
		if v.ShiftID != nil {
			id := string(*v.ShiftID)
			shiftID = &id
		}
		if _, err := stmt.ExecContext(ctx,
			v.ID, string(v.Restaurant), string(v.Kind), string(v.Severity),
			string(v.EmployeeID), shiftID, v.Fingerprint, v.Message,
			string(v.Status), v.CreatedAt.UTC().Format(time.RFC3339)); err != nil {
			return fmt.Errorf("record violation %s: %w", v.ID, err)
		}
	}
	return tx.Commit()
}

func (s *Store) ListByRestaurant(ctx context.Context, id payroll.RestaurantID) ([]compliance.Violation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, restaurant_id, kind, severity, employee_id, shift_id, fingerprint,
			message, status, override_reason, overridden_by, overridden_at, created_at
		FROM violations WHERE restaurant_id = ? ORDER BY created_at, id`, string(id))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []compliance.Violation
	for rows.Next() {
		v, err := scanViolation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}

func (s *Store) GetViolation(ctx context.Context, id string) (*compliance.Violation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, restaurant_id, kind, severity, employee_id, shift_id, fingerprint,
			message, status, override_reason, overridden_by, overridden_at, created_at
		FROM violations WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanViolation(rows)
}

// Override is a compare-and-set on status: only an active violation
// transitions. Zero rows affected means another writer won.
func (s *Store) Override(ctx context.Context, id, reason, actor string, at time.Time) error {
	if reason == "" {
		return payroll.ErrMissingReason
	}
	if actor == "" {
		return payroll.ErrMissingActor
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE violations
		SET status = 'overridden', override_reason = ?, overridden_by = ?, overridden_at = ?
		WHERE id = ? AND status = 'active'`,
		reason, actor, at.UTC().Format(time.RFC3339), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		existing, err := s.GetViolation(ctx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return fmt.Errorf("violation %s not found", id)
		}
		return fmt.Errorf("override %s: %w", id, payroll.ErrConcurrentModification)
	}
	return nil
}

// MarkResolved transitions active violations to resolved. Violations
// that are no longer active are left untouched.
func (s *Store) MarkResolved(ctx context.Context, ids []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, id := range ids {
		if _, err := tx.ExecContext(ctx,
			`UPDATE violations SET status = 'resolved' WHERE id = ? AND status = 'active'`, id); err != nil {
			return err
		}
	}
	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanViolation(r rowScanner) (*compliance.Violation, error) {
	var v compliance.Violation
	var restaurant, kind, severity, employee, status, createdAt string
	var shiftID, overrideReason, overriddenBy, overriddenAt sql.NullString

	if err := r.Scan(&v.ID, &restaurant, &kind, &severity, &employee, &shiftID,
		&v.Fingerprint, &v.Message, &status, &overrideReason, &overriddenBy,
		&overriddenAt, &createdAt); err != nil {
		return nil, err
	}

	v.Restaurant = payroll.RestaurantID(restaurant)
	v.Kind = compliance.RuleKind(kind)
	v.Severity = compliance.Severity(severity)
	v.EmployeeID = payroll.EmployeeID(employee)
	v.Status = compliance.ViolationStatus(status)
	if shiftID.Valid {
		sid := payroll.ShiftID(shiftID.String)
		v.ShiftID = &sid
	}
	v.OverrideReason = overrideReason.String
	v.OverriddenBy = overriddenBy.String
	if overriddenAt.Valid {
		t, err := time.Parse(time.RFC3339, overriddenAt.String)
		if err != nil {
			return nil, err
		}
		v.OverriddenAt = &t
	}
	created, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, err
	}
	v.CreatedAt = created
	return &v, nil
}

// =============================================================================
// TIP SPLITS (tippool.SplitStore)
// =============================================================================

func (s *Store) ReplacePeriod(ctx context.Context, periodID string, splits []tippool.Split) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var locked int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM period_locks WHERE period_id = ?`, periodID).Scan(&locked)
	if err != nil {
		return err
	}
	if locked > 0 {
		return tippool.ErrPeriodLocked
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM tip_splits WHERE period_id = ?`, periodID); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO tip_splits (id, period_id, employee_id, amount_cents, basis_json, roster_order, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, sp := range splits {
		basisJSON, err := json.Marshal(sp.Basis)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, sp.ID, sp.PeriodID, string(sp.EmployeeID),
			int64(sp.Amount), string(basisJSON), i,
			sp.CreatedAt.UTC().Format(time.RFC3339)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) ListPeriod(ctx context.Context, periodID string) ([]tippool.Split, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, period_id, employee_id, amount_cents, basis_json, created_at
		FROM tip_splits WHERE period_id = ? ORDER BY roster_order`, periodID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSplits(rows)
}

func (s *Store) GetSplit(ctx context.Context, splitID string) (*tippool.Split, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, period_id, employee_id, amount_cents, basis_json, created_at
		FROM tip_splits WHERE id = ?`, splitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	splits, err := scanSplits(rows)
	if err != nil || len(splits) == 0 {
		return nil, err
	}
	return &splits[0], nil
}

func (s *Store) ListByEmployee(ctx context.Context, id payroll.EmployeeID) ([]tippool.Split, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, period_id, employee_id, amount_cents, basis_json, created_at
		FROM tip_splits WHERE employee_id = ? ORDER BY created_at`, string(id))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSplits(rows)
}

func scanSplits(rows *sql.Rows) ([]tippool.Split, error) {
	var out []tippool.Split
	for rows.Next() {
		var sp tippool.Split
		var employee, basisJSON, createdAt string
		var amount int64
		if err := rows.Scan(&sp.ID, &sp.PeriodID, &employee, &amount, &basisJSON, &createdAt); err != nil {
			return nil, err
		}
		sp.EmployeeID = payroll.EmployeeID(employee)
		sp.Amount = payroll.Cents(amount)
		if err := json.Unmarshal([]byte(basisJSON), &sp.Basis); err != nil {
			return nil, err
		}
		created, err := time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, err
		}
		sp.CreatedAt = created
		out = append(out, sp)
	}
	return out, rows.Err()
}

// =============================================================================
// PERIOD LOCKS (tippool.LockStore)
// =============================================================================

// Lock inserts the lock row. The primary key on period_id is the CAS:
// a second locker hits the constraint and loses.
func (s *Store) Lock(ctx context.Context, lock tippool.PeriodLock) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO period_locks (period_id, locked_at, locked_by) VALUES (?, ?, ?)`,
		lock.PeriodID, lock.LockedAt.UTC().Format(time.RFC3339), lock.LockedBy)
	if err != nil {
		if isConstraintError(err) {
			return fmt.Errorf("lock period %s: %w", lock.PeriodID, payroll.ErrConcurrentModification)
		}
		return err
	}
	return nil
}

func (s *Store) GetLock(ctx context.Context, periodID string) (*tippool.PeriodLock, error) {
	var lockedAt, lockedBy string
	err := s.db.QueryRowContext(ctx, `
		SELECT locked_at, locked_by FROM period_locks WHERE period_id = ?`,
		periodID).Scan(&lockedAt, &lockedBy)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339, lockedAt)
	if err != nil {
		return nil, err
	}
	return &tippool.PeriodLock{PeriodID: periodID, Locked: true, LockedAt: t, LockedBy: lockedBy}, nil
}

// isConstraintError detects primary-key/unique conflicts without
// importing the driver's error types into callers.
func isConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "PRIMARY KEY constraint failed")
}

// =============================================================================
// DISPUTES (tippool.DisputeStore)
// =============================================================================

func (s *Store) Create(ctx context.Context, d tippool.Dispute) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tip_disputes (id, employee_id, split_id, dispute_type, message, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.ID, string(d.EmployeeID), d.SplitID, string(d.Type), d.Message,
		string(d.Status), d.CreatedAt.UTC().Format(time.RFC3339))
	return err
}

func (s *Store) GetDispute(ctx context.Context, id string) (*tippool.Dispute, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, employee_id, split_id, dispute_type, message, status, created_at
		FROM tip_disputes WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	disputes, err := scanDisputes(rows)
	if err != nil || len(disputes) == 0 {
		return nil, err
	}
	return &disputes[0], nil
}

func (s *Store) ListBySplit(ctx context.Context, splitID string) ([]tippool.Dispute, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, employee_id, split_id, dispute_type, message, status, created_at
		FROM tip_disputes WHERE split_id = ? ORDER BY created_at`, splitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDisputes(rows)
}

func (s *Store) ListOpen(ctx context.Context) ([]tippool.Dispute, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, employee_id, split_id, dispute_type, message, status, created_at
		FROM tip_disputes WHERE status = 'open' ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDisputes(rows)
}

// Resolve is a CAS on the open status.
func (s *Store) Resolve(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tip_disputes SET status = 'resolved' WHERE id = ? AND status = 'open'`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("resolve dispute %s: %w", id, payroll.ErrConcurrentModification)
	}
	return nil
}

func scanDisputes(rows *sql.Rows) ([]tippool.Dispute, error) {
	var out []tippool.Dispute
	for rows.Next() {
		var d tippool.Dispute
		var employee, disputeType, status, createdAt string
		if err := rows.Scan(&d.ID, &employee, &d.SplitID, &disputeType, &d.Message, &status, &createdAt); err != nil {
			return nil, err
		}
		d.EmployeeID = payroll.EmployeeID(employee)
		d.Type = tippool.DisputeType(disputeType)
		d.Status = tippool.DisputeStatus(status)
		created, err := time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, err
		}
		d.CreatedAt = created
		out = append(out, d)
	}
	return out, rows.Err()
}
