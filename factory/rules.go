/*
Package factory provides JSON to Go rule-config conversion.

PURPOSE:
  Converts JSON rule definitions into typed compliance.Rule values and
  tip-pool settings. This is the validation boundary: a config is
  checked here, at save time, and the engine downstream can assume
  every config it sees is structurally valid. Invalid configs (e.g. a
  shift_length rule with min_hours > max_hours) are rejected before
  they are ever stored.

JSON SCHEMA (one config shape per rule kind):
  {
    "id": "rest-11h",
    "restaurant_id": "r-1",
    "kind": "rest_period",
    "enabled": true,
    "config": {
      "min_hours_between_shifts": 11,
      "allow_override": true
    }
  }

VALIDATION:
  Field-level checks use go-playground/validator struct tags; the
  compliance package's own Validate methods enforce the cross-field
  invariants on top.

USAGE:
  factory := factory.NewRuleFactory()
  rule, err := factory.ParseRule(jsonStr)
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/warp/labor-engine/compliance"
	"github.com/warp/labor-engine/payroll"
	"github.com/warp/labor-engine/tippool"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// RuleJSON is the JSON representation of a compliance rule.
type RuleJSON struct {
	ID           string          `json:"id" validate:"required"`
	RestaurantID string          `json:"restaurant_id" validate:"required"`
	Kind         string          `json:"kind" validate:"required"`
	Enabled      bool            `json:"enabled"`
	Config       json.RawMessage `json:"config" validate:"required"`
}

type minorRestrictionsJSON struct {
	MaxHoursPerDay    float64 `json:"max_hours_per_day" validate:"gt=0"`
	MaxHoursPerWeek   float64 `json:"max_hours_per_week" validate:"gt=0"`
	EarliestStartTime string  `json:"earliest_start_time" validate:"required"`
	LatestEndTime     string  `json:"latest_end_time" validate:"required"`
}

type shiftSpacingJSON struct {
	MinHoursBetweenShifts float64 `json:"min_hours_between_shifts" validate:"gt=0"`
	AllowOverride         bool    `json:"allow_override"`
}

type shiftLengthJSON struct {
	MinHours           float64 `json:"min_hours" validate:"gte=0"`
	MaxHours           float64 `json:"max_hours" validate:"gt=0"`
	MaxConsecutiveDays *int    `json:"max_consecutive_days,omitempty" validate:"omitempty,gte=1"`
}

type overtimeJSON struct {
	WeeklyThreshold float64  `json:"weekly_threshold" validate:"gt=0"`
	DailyThreshold  *float64 `json:"daily_threshold,omitempty" validate:"omitempty,gt=0"`
	WarnOnly        bool     `json:"warn_only"`
}

// SettingsJSON is the JSON representation of tip-pool settings.
type SettingsJSON struct {
	RestaurantID string             `json:"restaurant_id" validate:"required"`
	Source       string             `json:"source" validate:"required,oneof=manual pos_imported"`
	Method       string             `json:"method" validate:"required,oneof=hours role manual"`
	Cadence      string             `json:"cadence" validate:"required,oneof=daily weekly per_shift"`
	RoleWeights  map[string]float64 `json:"role_weights,omitempty" validate:"omitempty,dive,gte=0"`
	Eligible     []string           `json:"eligible" validate:"required,min=1"`
}

// =============================================================================
// RULE FACTORY
// =============================================================================

// RuleFactory converts JSON rule definitions to typed rules.
type RuleFactory struct {
	validate *validator.Validate
}

// NewRuleFactory creates a new rule factory.
func NewRuleFactory() *RuleFactory {
	return &RuleFactory{validate: validator.New()}
}

// ParseRule parses and validates a JSON rule definition. The returned
// rule carries the typed config variant matching its kind.
func (f *RuleFactory) ParseRule(jsonStr string) (*compliance.Rule, error) {
	var rj RuleJSON
	if err := json.Unmarshal([]byte(jsonStr), &rj); err != nil {
		return nil, fmt.Errorf("failed to parse rule JSON: %w", err)
	}
	if err := f.validate.Struct(rj); err != nil {
		return nil, fmt.Errorf("invalid rule: %w", err)
	}

	kind := compliance.RuleKind(rj.Kind)
	config, err := f.parseConfig(kind, rj.Config)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &compliance.Rule{
		ID:         rj.ID,
		Restaurant: payroll.RestaurantID(rj.RestaurantID),
		Kind:       kind,
		Enabled:    rj.Enabled,
		Config:     config,
	}, nil
}

// parseConfig decodes the kind-specific config shape. The switch is
// exhaustive over the rule catalogue; an unknown kind is an error, not
// a silent skip.
func (f *RuleFactory) parseConfig(kind compliance.RuleKind, raw json.RawMessage) (compliance.RuleConfig, error) {
	switch kind {
	case compliance.KindMinorRestrictions:
		var cj minorRestrictionsJSON
		if err := f.decode(raw, &cj); err != nil {
			return nil, err
		}
		return compliance.MinorRestrictionsConfig{
			MaxHoursPerDay:    cj.MaxHoursPerDay,
			MaxHoursPerWeek:   cj.MaxHoursPerWeek,
			EarliestStartTime: cj.EarliestStartTime,
			LatestEndTime:     cj.LatestEndTime,
		}, nil

	case compliance.KindClopening:
		var cj shiftSpacingJSON
		if err := f.decode(raw, &cj); err != nil {
			return nil, err
		}
		return compliance.ClopeningConfig{
			MinHoursBetweenShifts: cj.MinHoursBetweenShifts,
			AllowOverride:         cj.AllowOverride,
		}, nil

	case compliance.KindRestPeriod:
		var cj shiftSpacingJSON
		if err := f.decode(raw, &cj); err != nil {
			return nil, err
		}
		return compliance.RestPeriodConfig{
			MinHoursBetweenShifts: cj.MinHoursBetweenShifts,
			AllowOverride:         cj.AllowOverride,
		}, nil

	case compliance.KindShiftLength:
		var cj shiftLengthJSON
		if err := f.decode(raw, &cj); err != nil {
			return nil, err
		}
		return compliance.ShiftLengthConfig{
			MinHours:           cj.MinHours,
			MaxHours:           cj.MaxHours,
			MaxConsecutiveDays: cj.MaxConsecutiveDays,
		}, nil

	case compliance.KindOvertime:
		var cj overtimeJSON
		if err := f.decode(raw, &cj); err != nil {
			return nil, err
		}
		return compliance.OvertimeConfig{
			WeeklyThreshold: cj.WeeklyThreshold,
			DailyThreshold:  cj.DailyThreshold,
			WarnOnly:        cj.WarnOnly,
		}, nil

	default:
		return nil, fmt.Errorf("unknown rule kind %q", kind)
	}
}

func (f *RuleFactory) decode(raw json.RawMessage, target any) error {
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("failed to parse rule config: %w", err)
	}
	if err := f.validate.Struct(target); err != nil {
		return fmt.Errorf("invalid rule config: %w", err)
	}
	return nil
}

// MarshalConfig serializes a typed config back to storage JSON.
func MarshalConfig(config compliance.RuleConfig) (string, error) {
	var payload any
	switch c := config.(type) {
	case compliance.MinorRestrictionsConfig:
		payload = minorRestrictionsJSON{
			MaxHoursPerDay: c.MaxHoursPerDay, MaxHoursPerWeek: c.MaxHoursPerWeek,
			EarliestStartTime: c.EarliestStartTime, LatestEndTime: c.LatestEndTime,
		}
	case compliance.ClopeningConfig:
		payload = shiftSpacingJSON{MinHoursBetweenShifts: c.MinHoursBetweenShifts, AllowOverride: c.AllowOverride}
	case compliance.RestPeriodConfig:
		payload = shiftSpacingJSON{MinHoursBetweenShifts: c.MinHoursBetweenShifts, AllowOverride: c.AllowOverride}
	case compliance.ShiftLengthConfig:
		payload = shiftLengthJSON{MinHours: c.MinHours, MaxHours: c.MaxHours, MaxConsecutiveDays: c.MaxConsecutiveDays}
	case compliance.OvertimeConfig:
		payload = overtimeJSON{WeeklyThreshold: c.WeeklyThreshold, DailyThreshold: c.DailyThreshold, WarnOnly: c.WarnOnly}
	default:
		return "", fmt.Errorf("unknown config type %T", config)
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// =============================================================================
// TIP POOL SETTINGS
// =============================================================================

// ParseSettings parses and validates JSON tip-pool settings.
func (f *RuleFactory) ParseSettings(jsonStr string) (*tippool.Settings, error) {
	var sj SettingsJSON
	if err := json.Unmarshal([]byte(jsonStr), &sj); err != nil {
		return nil, fmt.Errorf("failed to parse settings JSON: %w", err)
	}
	if err := f.validate.Struct(sj); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	settings := &tippool.Settings{
		Restaurant: payroll.RestaurantID(sj.RestaurantID),
		Source:     tippool.TipSource(sj.Source),
		Method:     tippool.ShareMethod(sj.Method),
		Cadence:    tippool.SplitCadence(sj.Cadence),
	}
	if len(sj.RoleWeights) > 0 {
		settings.RoleWeights = make(map[string]decimal.Decimal, len(sj.RoleWeights))
		for role, w := range sj.RoleWeights {
			settings.RoleWeights[role] = decimal.NewFromFloat(w)
		}
	}
	for _, id := range sj.Eligible {
		settings.Eligible = append(settings.Eligible, payroll.EmployeeID(id))
	}
	return settings, nil
}
