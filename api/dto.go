/*
dto.go - Request/response data structures for the HTTP API

PURPOSE:
  JSON shapes at the HTTP boundary. These mirror the engine types but
  keep wire concerns (string enums, RFC3339 timestamps, float hours)
  out of the core packages. Money crosses the wire as integer cents,
  same as inside the engine.
*/
package api

import (
	"time"

	"github.com/warp/labor-engine/compliance"
	"github.com/warp/labor-engine/payroll"
	"github.com/warp/labor-engine/tippool"
)

// =============================================================================
// EMPLOYEES AND SHIFTS
// =============================================================================

type EmployeeDTO struct {
	ID           string `json:"id"`
	RestaurantID string `json:"restaurant_id"`
	Name         string `json:"name"`
	Role         string `json:"role"`
	Compensation string `json:"compensation"`
	HourlyRateCents int64 `json:"hourly_rate_cents"`
	Exempt       bool   `json:"exempt"`
	Minor        bool   `json:"minor"`
	TipEligible  bool   `json:"tip_eligible"`
}

func (d EmployeeDTO) toDomain() payroll.Employee {
	return payroll.Employee{
		ID:           payroll.EmployeeID(d.ID),
		Name:         d.Name,
		Role:         d.Role,
		Compensation: payroll.CompensationType(d.Compensation),
		HourlyRate:   payroll.Cents(d.HourlyRateCents),
		Exempt:       d.Exempt,
		Minor:        d.Minor,
		TipEligible:  d.TipEligible,
	}
}

func employeeDTO(restaurant payroll.RestaurantID, e payroll.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID: string(e.ID), RestaurantID: string(restaurant), Name: e.Name,
		Role: e.Role, Compensation: string(e.Compensation),
		HourlyRateCents: int64(e.HourlyRate), Exempt: e.Exempt,
		Minor: e.Minor, TipEligible: e.TipEligible,
	}
}

type ShiftDTO struct {
	ID           string    `json:"id"`
	RestaurantID string    `json:"restaurant_id"`
	EmployeeID   string    `json:"employee_id"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	Opening      bool      `json:"opening"`
	Closing      bool      `json:"closing"`
}

func (d ShiftDTO) toDomain() compliance.Shift {
	return compliance.Shift{
		ID:         payroll.ShiftID(d.ID),
		EmployeeID: payroll.EmployeeID(d.EmployeeID),
		Start:      d.Start,
		End:        d.End,
		Opening:    d.Opening,
		Closing:    d.Closing,
	}
}

// =============================================================================
// COMPLIANCE
// =============================================================================

type ViolationDTO struct {
	ID             string  `json:"id"`
	Kind           string  `json:"kind"`
	Severity       string  `json:"severity"`
	EmployeeID     string  `json:"employee_id"`
	ShiftID        *string `json:"shift_id,omitempty"`
	Message        string  `json:"message"`
	Status         string  `json:"status"`
	OverrideReason string  `json:"override_reason,omitempty"`
	OverriddenBy   string  `json:"overridden_by,omitempty"`
	OverriddenAt   *string `json:"overridden_at,omitempty"`
	CreatedAt      string  `json:"created_at"`
}

func violationDTO(v compliance.Violation) ViolationDTO {
	dto := ViolationDTO{
		ID: v.ID, Kind: string(v.Kind), Severity: string(v.Severity),
		EmployeeID: string(v.EmployeeID), Message: v.Message,
		Status: string(v.Status), OverrideReason: v.OverrideReason,
		OverriddenBy: v.OverriddenBy,
		CreatedAt:    v.CreatedAt.Format(time.RFC3339),
	}
	if v.ShiftID != nil {
		sid := string(*v.ShiftID)
		dto.ShiftID = &sid
	}
	if v.OverriddenAt != nil {
		at := v.OverriddenAt.Format(time.RFC3339)
		dto.OverriddenAt = &at
	}
	return dto
}

type EvaluateResponse struct {
	Created  []ViolationDTO `json:"created"`
	Resolved []ViolationDTO `json:"resolved"`
}

type OverrideRequest struct {
	Reason string `json:"reason"`
	Actor  string `json:"actor"`
}

// =============================================================================
// TIP POOL
// =============================================================================

type DistributeRequest struct {
	RestaurantID string     `json:"restaurant_id"`
	TotalCents   int64      `json:"total_cents"`
	Stakes       []StakeDTO `json:"stakes"`
}

type StakeDTO struct {
	EmployeeID string  `json:"employee_id"`
	Hours      float64 `json:"hours"`
	Role       string  `json:"role"`
}

type SplitDTO struct {
	ID          string `json:"id"`
	PeriodID    string `json:"period_id"`
	EmployeeID  string `json:"employee_id"`
	AmountCents int64  `json:"amount_cents"`
	Method      string `json:"method"`
	CreatedAt   string `json:"created_at"`
}

func splitDTO(s tippool.Split) SplitDTO {
	return SplitDTO{
		ID: s.ID, PeriodID: s.PeriodID, EmployeeID: string(s.EmployeeID),
		AmountCents: int64(s.Amount), Method: string(s.Basis.Method),
		CreatedAt: s.CreatedAt.Format(time.RFC3339),
	}
}

type LockRequest struct {
	Actor string `json:"actor"`
}

type DisputeRequest struct {
	EmployeeID string `json:"employee_id"`
	SplitID    string `json:"split_id"`
	Type       string `json:"type"`
	Message    string `json:"message"`
}

type DisputeDTO struct {
	ID         string `json:"id"`
	EmployeeID string `json:"employee_id"`
	SplitID    string `json:"split_id"`
	Type       string `json:"type"`
	Message    string `json:"message"`
	Status     string `json:"status"`
	CreatedAt  string `json:"created_at"`
}

func disputeDTO(d tippool.Dispute) DisputeDTO {
	return DisputeDTO{
		ID: d.ID, EmployeeID: string(d.EmployeeID), SplitID: d.SplitID,
		Type: string(d.Type), Message: d.Message, Status: string(d.Status),
		CreatedAt: d.CreatedAt.Format(time.RFC3339),
	}
}

// =============================================================================
// PAYROLL
// =============================================================================

type PayrollRunRequest struct {
	RestaurantID string             `json:"restaurant_id"`
	Rules        OvertimeRulesDTO   `json:"rules"`
	Employees    []PayrollInputDTO  `json:"employees"`
}

type OvertimeRulesDTO struct {
	WeeklyThreshold       float64  `json:"weekly_threshold"`
	WeeklyMultiplier      float64  `json:"weekly_multiplier"`
	DailyThreshold        *float64 `json:"daily_threshold,omitempty"`
	DailyMultiplier       float64  `json:"daily_multiplier"`
	DoubleTimeThreshold   *float64 `json:"double_time_threshold,omitempty"`
	DoubleTimeMultiplier  float64  `json:"double_time_multiplier"`
	ExcludeTipsFromOTRate bool     `json:"exclude_tips_from_ot_rate"`
}

type PayrollInputDTO struct {
	EmployeeID  string          `json:"employee_id"`
	Punches     []PunchDTO      `json:"punches"`
	Adjustments []AdjustmentDTO `json:"adjustments,omitempty"`
	TipsCents   int64           `json:"tips_cents"`
}

type PunchDTO struct {
	At   time.Time `json:"at"`
	Kind string    `json:"kind"`
}

type AdjustmentDTO struct {
	Date      time.Time `json:"date"`
	Direction string    `json:"direction"`
	Hours     float64   `json:"hours"`
	Reason    string    `json:"reason"`
}

type PayrollResultDTO struct {
	EmployeeID           string  `json:"employee_id"`
	RegularHours         string  `json:"regular_hours"`
	DailyOvertimeHours   string  `json:"daily_overtime_hours"`
	DoubleTimeHours      string  `json:"double_time_hours"`
	WeeklyOvertimeHours  string  `json:"weekly_overtime_hours"`
	RegularPayCents      int64   `json:"regular_pay_cents"`
	DailyOvertimeCents   int64   `json:"daily_overtime_pay_cents"`
	DoubleTimeCents      int64   `json:"double_time_pay_cents"`
	WeeklyOvertimeCents  int64   `json:"weekly_overtime_pay_cents"`
	TotalPayCents        int64   `json:"total_pay_cents"`
	Exempt               bool    `json:"exempt"`
	OpenDays             int     `json:"open_days"`
	Anomalies            []string `json:"anomalies,omitempty"`
}

type PayrollRunResponse struct {
	RestaurantID  string             `json:"restaurant_id"`
	Results       []PayrollResultDTO `json:"results"`
	TotalPayCents int64              `json:"total_pay_cents"`
}

func payrollResultDTO(r payroll.EmployeeRunResult) PayrollResultDTO {
	dto := PayrollResultDTO{
		EmployeeID:          string(r.Result.EmployeeID),
		RegularHours:        r.Result.Hours.Regular.StringFixed(2),
		DailyOvertimeHours:  r.Result.Hours.DailyOvertime.StringFixed(2),
		DoubleTimeHours:     r.Result.Hours.DoubleTime.StringFixed(2),
		WeeklyOvertimeHours: r.Result.Hours.WeeklyOvertime.StringFixed(2),
		RegularPayCents:     int64(r.Result.Pay.RegularPay),
		DailyOvertimeCents:  int64(r.Result.Pay.DailyOvertimePay),
		DoubleTimeCents:     int64(r.Result.Pay.DoubleTimePay),
		WeeklyOvertimeCents: int64(r.Result.Pay.WeeklyOvertimePay),
		TotalPayCents:       int64(r.Result.Pay.TotalPay),
		Exempt:              r.Result.Exempt,
	}
	for _, d := range r.Days {
		if d.Open {
			dto.OpenDays++
		}
	}
	for _, a := range r.Anomalies {
		dto.Anomalies = append(dto.Anomalies, a.Reason)
	}
	return dto
}

// =============================================================================
// RULES
// =============================================================================

type RuleDTO struct {
	ID           string `json:"id"`
	RestaurantID string `json:"restaurant_id"`
	Kind         string `json:"kind"`
	Enabled      bool   `json:"enabled"`
	ConfigJSON   string `json:"config"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}
