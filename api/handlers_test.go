/*
handlers_test.go - Unit tests for API handlers

Tests for:
- Rule save + compliance evaluation round trip
- Violation override gating and conflicts
- Tip distribution, locking, and dispute filing
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/labor-engine/compliance"
	"github.com/warp/labor-engine/payroll"
	"github.com/warp/labor-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestServer(t *testing.T) (*Handler, *httptest.Server) {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	h := NewHandler(store, zerolog.Nop())
	srv := httptest.NewServer(NewRouter(h))
	t.Cleanup(srv.Close)
	return h, srv
}

func postJSON(t *testing.T, url string, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewReader([]byte(body)))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func seedRestViolation(t *testing.T, srv *httptest.Server, allowOverride bool) []ViolationDTO {
	t.Helper()

	resp := postJSON(t, srv.URL+"/api/shifts", `{
		"id": "s1", "restaurant_id": "r-1", "employee_id": "emp-1",
		"start": "2025-03-10T15:00:00Z", "end": "2025-03-10T23:00:00Z"
	}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/api/shifts", `{
		"id": "s2", "restaurant_id": "r-1", "employee_id": "emp-1",
		"start": "2025-03-11T08:00:00Z", "end": "2025-03-11T16:00:00Z"
	}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	allow := "false"
	if allowOverride {
		allow = "true"
	}
	resp = postJSON(t, srv.URL+"/api/rules", `{
		"id": "rest-11h", "restaurant_id": "r-1", "kind": "rest_period",
		"enabled": true,
		"config": {"min_hours_between_shifts": 11, "allow_override": `+allow+`}
	}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/api/restaurants/r-1/evaluate", `{}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result := decode[EvaluateResponse](t, resp)
	require.Len(t, result.Created, 1)
	return result.Created
}

// =============================================================================
// COMPLIANCE FLOW
// =============================================================================

func TestEvaluateEndpoint_CreatesAndSuppresses(t *testing.T) {
	// GIVEN: A 9h gap against an 11h rest rule
	// WHEN: Evaluating twice
	// THEN: One violation the first time, nothing new the second

	_, srv := newTestServer(t)
	created := seedRestViolation(t, srv, true)
	assert.Equal(t, "rest_period", created[0].Kind)
	assert.Equal(t, "active", created[0].Status)

	resp := postJSON(t, srv.URL+"/api/restaurants/r-1/evaluate", `{}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	second := decode[EvaluateResponse](t, resp)
	assert.Empty(t, second.Created)
	assert.Empty(t, second.Resolved)
}

func TestOverrideEndpoint_AllowedRule(t *testing.T) {
	// GIVEN: An active rest-period violation under allow_override=true
	// WHEN: Overriding with reason and actor
	// THEN: 200 with the overridden record; a second attempt conflicts

	_, srv := newTestServer(t)
	created := seedRestViolation(t, srv, true)

	url := srv.URL + "/api/violations/" + created[0].ID + "/override"
	resp := postJSON(t, url, `{"reason": "manager approved schedule", "actor": "mgr-1"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	v := decode[ViolationDTO](t, resp)
	assert.Equal(t, "overridden", v.Status)
	assert.Equal(t, "mgr-1", v.OverriddenBy)

	resp = postJSON(t, url, `{"reason": "again", "actor": "mgr-2"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestOverrideEndpoint_ForbiddenWhenRuleDisallows(t *testing.T) {
	// GIVEN: The rest rule is configured with allow_override=false
	// WHEN: Attempting an override
	// THEN: 403 and the violation stays active

	h, srv := newTestServer(t)
	created := seedRestViolation(t, srv, false)

	url := srv.URL + "/api/violations/" + created[0].ID + "/override"
	resp := postJSON(t, url, `{"reason": "please", "actor": "mgr-1"}`)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	v, err := h.Store.GetViolation(context.Background(), created[0].ID)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, compliance.StatusActive, v.Status)
}

func TestOverrideEndpoint_MissingReason(t *testing.T) {
	_, srv := newTestServer(t)
	created := seedRestViolation(t, srv, true)

	resp := postJSON(t, srv.URL+"/api/violations/"+created[0].ID+"/override",
		`{"reason": "", "actor": "mgr-1"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// TIP POOL FLOW
// =============================================================================

func TestTipFlow_DistributeLockDispute(t *testing.T) {
	// GIVEN: Even-split settings for three employees
	// WHEN: Distributing 1001 cents, locking, then recomputing
	// THEN: 334/334/333 stored; the recompute after lock gets 409;
	//       a dispute against a stored split files as open

	_, srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/tips/settings", `{
		"restaurant_id": "r-1", "source": "manual", "method": "manual",
		"cadence": "daily", "eligible": ["a", "b", "c"]
	}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	distributeBody := `{
		"restaurant_id": "r-1", "total_cents": 1001,
		"stakes": [{"employee_id": "a"}, {"employee_id": "b"}, {"employee_id": "c"}]
	}`
	resp = postJSON(t, srv.URL+"/api/tips/p-0317/distribute", distributeBody)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	splits := decode[[]SplitDTO](t, resp)
	require.Len(t, splits, 3)
	assert.Equal(t, int64(334), splits[0].AmountCents)
	assert.Equal(t, int64(333), splits[2].AmountCents)

	resp = postJSON(t, srv.URL+"/api/tips/p-0317/lock", `{"actor": "mgr-1"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/api/tips/p-0317/distribute", distributeBody)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/api/disputes", `{
		"employee_id": "c", "split_id": "`+splits[2].ID+`",
		"type": "incorrect_amount", "message": "I closed that night"
	}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	d := decode[DisputeDTO](t, resp)
	assert.Equal(t, "open", d.Status)
}

func TestTipSettings_ConcurrentSaveAndDistribute(t *testing.T) {
	// GIVEN: A restaurant with tip pool settings already saved
	// WHEN: Settings rewrites and distributions run on overlapping
	//       request goroutines
	// THEN: Every request completes and a final distribution still
	//       reconciles (the settings cache is safe under contention)

	_, srv := newTestServer(t)

	settingsBody := `{
		"restaurant_id": "r-1", "source": "manual", "method": "manual",
		"cadence": "daily", "eligible": ["a", "b"]
	}`
	resp := postJSON(t, srv.URL+"/api/tips/settings", settingsBody)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			resp, err := http.Post(srv.URL+"/api/tips/settings", "application/json",
				bytes.NewReader([]byte(settingsBody)))
			if err == nil {
				resp.Body.Close()
			}
		}()
		go func(n int) {
			defer wg.Done()
			body := `{
				"restaurant_id": "r-1", "total_cents": 1000,
				"stakes": [{"employee_id": "a"}, {"employee_id": "b"}]
			}`
			resp, err := http.Post(srv.URL+fmt.Sprintf("/api/tips/p-%d/distribute", n),
				"application/json", bytes.NewReader([]byte(body)))
			if err == nil {
				resp.Body.Close()
			}
		}(i)
	}
	wg.Wait()

	resp = postJSON(t, srv.URL+"/api/tips/p-final/distribute", `{
		"restaurant_id": "r-1", "total_cents": 1000,
		"stakes": [{"employee_id": "a"}, {"employee_id": "b"}]
	}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	splits := decode[[]SplitDTO](t, resp)
	require.Len(t, splits, 2)
	assert.Equal(t, int64(500), splits[0].AmountCents)
	assert.Equal(t, int64(500), splits[1].AmountCents)
}

// =============================================================================
// PAYROLL FLOW
// =============================================================================

func TestPayrollEndpoint_RunsForKnownEmployee(t *testing.T) {
	// GIVEN: A stored hourly employee and one 8h shift of punches
	// WHEN: Running payroll
	// THEN: 8 regular hours at $20.00

	h, srv := newTestServer(t)
	require.NoError(t, h.Store.SaveEmployee(context.Background(), sqlite.EmployeeRecord{
		Employee: payroll.Employee{
			ID: "emp-1", Name: "Sam", Role: "server",
			Compensation: payroll.CompHourly, HourlyRate: 2000, TipEligible: true,
		},
		Restaurant: "r-1",
		CreatedAt:  time.Now(),
	}))

	resp := postJSON(t, srv.URL+"/api/payroll/run", `{
		"restaurant_id": "r-1",
		"rules": {"weekly_threshold": 40, "weekly_multiplier": 1.5},
		"employees": [{
			"employee_id": "emp-1",
			"punches": [
				{"at": "2025-03-10T09:00:00Z", "kind": "clock_in"},
				{"at": "2025-03-10T17:00:00Z", "kind": "clock_out"}
			]
		}]
	}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result := decode[PayrollRunResponse](t, resp)
	require.Len(t, result.Results, 1)
	assert.Equal(t, "8.00", result.Results[0].RegularHours)
	assert.Equal(t, int64(16000), result.Results[0].TotalPayCents)
	assert.Equal(t, int64(16000), result.TotalPayCents)
}

func TestPayrollEndpoint_UnknownEmployee(t *testing.T) {
	_, srv := newTestServer(t)
	resp := postJSON(t, srv.URL+"/api/payroll/run", `{
		"restaurant_id": "r-1",
		"rules": {"weekly_threshold": 40},
		"employees": [{"employee_id": "ghost", "punches": []}]
	}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
