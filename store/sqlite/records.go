/*
records.go - Roster, schedule, and rule-config persistence

PURPOSE:
  CRUD for the records the engine consumes: employees, shifts, and
  rule configurations. Rule configs are stored as JSON and rebuilt into
  their typed variants through the factory package at load time, so the
  engine itself only ever sees validated, fully-typed configs.
*/
package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/warp/labor-engine/compliance"
	"github.com/warp/labor-engine/payroll"
)

// EmployeeRecord is the stored roster row.
type EmployeeRecord struct {
	Employee   payroll.Employee
	Restaurant payroll.RestaurantID
	CreatedAt  time.Time
}

// RuleRecord is the stored rule row; ConfigJSON is the raw typed
// config as saved through the factory.
type RuleRecord struct {
	ID         string
	Restaurant payroll.RestaurantID
	Kind       compliance.RuleKind
	Enabled    bool
	ConfigJSON string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (s *Store) SaveEmployee(ctx context.Context, rec EmployeeRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO employees (id, restaurant_id, name, role, compensation,
			hourly_rate_cents, exempt, minor, tip_eligible, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, role = excluded.role,
			compensation = excluded.compensation,
			hourly_rate_cents = excluded.hourly_rate_cents,
			exempt = excluded.exempt, minor = excluded.minor,
			tip_eligible = excluded.tip_eligible`,
		string(rec.Employee.ID), string(rec.Restaurant), rec.Employee.Name,
		rec.Employee.Role, string(rec.Employee.Compensation),
		int64(rec.Employee.HourlyRate), rec.Employee.Exempt, rec.Employee.Minor,
		rec.Employee.TipEligible, rec.CreatedAt.UTC().Format(time.RFC3339))
	return err
}

func (s *Store) GetEmployee(ctx context.Context, id payroll.EmployeeID) (*payroll.Employee, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, role, compensation, hourly_rate_cents, exempt, minor, tip_eligible
		FROM employees WHERE id = ?`, string(id))
	emp, err := scanEmployee(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return emp, nil
}

func (s *Store) ListEmployees(ctx context.Context, restaurant payroll.RestaurantID) ([]payroll.Employee, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, role, compensation, hourly_rate_cents, exempt, minor, tip_eligible
		FROM employees WHERE restaurant_id = ? ORDER BY id`, string(restaurant))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []payroll.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *emp)
	}
	return out, rows.Err()
}

func scanEmployee(r rowScanner) (*payroll.Employee, error) {
	var emp payroll.Employee
	var id, comp string
	var rate int64
	if err := r.Scan(&id, &emp.Name, &emp.Role, &comp, &rate,
		&emp.Exempt, &emp.Minor, &emp.TipEligible); err != nil {
		return nil, err
	}
	emp.ID = payroll.EmployeeID(id)
	emp.Compensation = payroll.CompensationType(comp)
	emp.HourlyRate = payroll.Cents(rate)
	return &emp, nil
}

// =============================================================================
// SHIFTS
// =============================================================================

func (s *Store) SaveShift(ctx context.Context, restaurant payroll.RestaurantID, shift compliance.Shift) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO shifts (id, restaurant_id, employee_id, start_at, end_at, opening, closing)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			employee_id = excluded.employee_id,
			start_at = excluded.start_at, end_at = excluded.end_at,
			opening = excluded.opening, closing = excluded.closing`,
		string(shift.ID), string(restaurant), string(shift.EmployeeID),
		shift.Start.UTC().Format(time.RFC3339), shift.End.UTC().Format(time.RFC3339),
		shift.Opening, shift.Closing)
	return err
}

func (s *Store) ListShifts(ctx context.Context, restaurant payroll.RestaurantID) ([]compliance.Shift, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, employee_id, start_at, end_at, opening, closing
		FROM shifts WHERE restaurant_id = ? ORDER BY start_at, id`, string(restaurant))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []compliance.Shift
	for rows.Next() {
		var sh compliance.Shift
		var id, employee, start, end string
		if err := rows.Scan(&id, &employee, &start, &end, &sh.Opening, &sh.Closing); err != nil {
			return nil, err
		}
		sh.ID = payroll.ShiftID(id)
		sh.EmployeeID = payroll.EmployeeID(employee)
		if sh.Start, err = time.Parse(time.RFC3339, start); err != nil {
			return nil, err
		}
		if sh.End, err = time.Parse(time.RFC3339, end); err != nil {
			return nil, err
		}
		out = append(out, sh)
	}
	return out, rows.Err()
}

// =============================================================================
// RULES
// =============================================================================

func (s *Store) SaveRule(ctx context.Context, rec RuleRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rules (id, restaurant_id, kind, enabled, config_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			enabled = excluded.enabled, config_json = excluded.config_json,
			updated_at = excluded.updated_at`,
		rec.ID, string(rec.Restaurant), string(rec.Kind), rec.Enabled,
		rec.ConfigJSON, rec.CreatedAt.UTC().Format(time.RFC3339),
		rec.UpdatedAt.UTC().Format(time.RFC3339))
	return err
}

func (s *Store) ListRules(ctx context.Context, restaurant payroll.RestaurantID) ([]RuleRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, restaurant_id, kind, enabled, config_json, created_at, updated_at
		FROM rules WHERE restaurant_id = ? ORDER BY id`, string(restaurant))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RuleRecord
	for rows.Next() {
		var rec RuleRecord
		var restaurantID, kind, createdAt, updatedAt string
		if err := rows.Scan(&rec.ID, &restaurantID, &kind, &rec.Enabled,
			&rec.ConfigJSON, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		rec.Restaurant = payroll.RestaurantID(restaurantID)
		rec.Kind = compliance.RuleKind(kind)
		if rec.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, err
		}
		if rec.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
