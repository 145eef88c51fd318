package factory_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/labor-engine/compliance"
	"github.com/warp/labor-engine/factory"
	"github.com/warp/labor-engine/payroll"
	"github.com/warp/labor-engine/tippool"
)

// =============================================================================
// RULE PARSING
// =============================================================================

func TestParseRule_RestPeriod(t *testing.T) {
	// GIVEN: A valid rest_period rule definition
	// WHEN: Parsing
	// THEN: A typed rule with a RestPeriodConfig

	f := factory.NewRuleFactory()
	rule, err := f.ParseRule(`{
		"id": "rest-11h",
		"restaurant_id": "r-1",
		"kind": "rest_period",
		"enabled": true,
		"config": {"min_hours_between_shifts": 11, "allow_override": true}
	}`)
	require.NoError(t, err)

	assert.Equal(t, compliance.KindRestPeriod, rule.Kind)
	assert.Equal(t, payroll.RestaurantID("r-1"), rule.Restaurant)
	assert.True(t, rule.Enabled)

	cfg, ok := rule.Config.(compliance.RestPeriodConfig)
	require.True(t, ok)
	assert.Equal(t, 11.0, cfg.MinHoursBetweenShifts)
	assert.True(t, cfg.AllowOverride)
}

func TestParseRule_MinorRestrictions(t *testing.T) {
	f := factory.NewRuleFactory()
	rule, err := f.ParseRule(`{
		"id": "minors",
		"restaurant_id": "r-1",
		"kind": "minor_restrictions",
		"enabled": true,
		"config": {
			"max_hours_per_day": 8,
			"max_hours_per_week": 32,
			"earliest_start_time": "07:00",
			"latest_end_time": "22:00"
		}
	}`)
	require.NoError(t, err)

	cfg, ok := rule.Config.(compliance.MinorRestrictionsConfig)
	require.True(t, ok)
	assert.Equal(t, "22:00", cfg.LatestEndTime)
}

func TestParseRule_ShiftLength_MinAboveMaxRejected(t *testing.T) {
	// GIVEN: A shift_length config with min_hours above max_hours
	// WHEN: Parsing
	// THEN: Rejected by the cross-field validation

	f := factory.NewRuleFactory()
	_, err := f.ParseRule(`{
		"id": "len",
		"restaurant_id": "r-1",
		"kind": "shift_length",
		"enabled": true,
		"config": {"min_hours": 12, "max_hours": 4}
	}`)
	assert.Error(t, err)
}

func TestParseRule_UnknownKindRejected(t *testing.T) {
	f := factory.NewRuleFactory()
	_, err := f.ParseRule(`{
		"id": "x",
		"restaurant_id": "r-1",
		"kind": "siesta",
		"enabled": true,
		"config": {}
	}`)
	assert.Error(t, err)
}

func TestParseRule_MissingRequiredFieldsRejected(t *testing.T) {
	f := factory.NewRuleFactory()
	_, err := f.ParseRule(`{"kind": "overtime", "config": {"weekly_threshold": 40}}`)
	assert.Error(t, err, "id and restaurant_id are required")
}

func TestParseRule_InvalidClockTimeRejected(t *testing.T) {
	f := factory.NewRuleFactory()
	_, err := f.ParseRule(`{
		"id": "minors",
		"restaurant_id": "r-1",
		"kind": "minor_restrictions",
		"enabled": true,
		"config": {
			"max_hours_per_day": 8,
			"max_hours_per_week": 32,
			"earliest_start_time": "7am",
			"latest_end_time": "22:00"
		}
	}`)
	assert.Error(t, err)
}

// =============================================================================
// CONFIG ROUND-TRIP
// =============================================================================

func TestMarshalConfig_RoundTrip(t *testing.T) {
	// GIVEN: A parsed overtime rule
	// WHEN: Marshalling its config back to storage JSON and re-parsing
	// THEN: The typed config survives unchanged

	f := factory.NewRuleFactory()
	rule, err := f.ParseRule(`{
		"id": "ot",
		"restaurant_id": "r-1",
		"kind": "overtime",
		"enabled": true,
		"config": {"weekly_threshold": 40, "daily_threshold": 10, "warn_only": true}
	}`)
	require.NoError(t, err)

	stored, err := factory.MarshalConfig(rule.Config)
	require.NoError(t, err)

	reparsed, err := f.ParseRule(`{
		"id": "ot",
		"restaurant_id": "r-1",
		"kind": "overtime",
		"enabled": true,
		"config": ` + stored + `
	}`)
	require.NoError(t, err)
	assert.Equal(t, rule.Config, reparsed.Config)
}

// =============================================================================
// TIP POOL SETTINGS
// =============================================================================

func TestParseSettings_RoleWeights(t *testing.T) {
	f := factory.NewRuleFactory()
	settings, err := f.ParseSettings(`{
		"restaurant_id": "r-1",
		"source": "pos_imported",
		"method": "role",
		"cadence": "daily",
		"role_weights": {"server": 2, "busser": 0.5},
		"eligible": ["emp-1", "emp-2"]
	}`)
	require.NoError(t, err)

	assert.Equal(t, tippool.MethodRole, settings.Method)
	assert.Equal(t, tippool.SourcePOS, settings.Source)
	require.Len(t, settings.Eligible, 2)
	assert.True(t, settings.RoleWeights["busser"].Equal(decimal.NewFromFloat(0.5)))
}

func TestParseSettings_UnknownMethodRejected(t *testing.T) {
	f := factory.NewRuleFactory()
	_, err := f.ParseSettings(`{
		"restaurant_id": "r-1",
		"source": "manual",
		"method": "seniority",
		"cadence": "daily",
		"eligible": ["emp-1"]
	}`)
	assert.Error(t, err)
}

func TestParseSettings_EmptyRosterRejected(t *testing.T) {
	f := factory.NewRuleFactory()
	_, err := f.ParseSettings(`{
		"restaurant_id": "r-1",
		"source": "manual",
		"method": "hours",
		"cadence": "weekly",
		"eligible": []
	}`)
	assert.Error(t, err)
}
