/*
handlers.go - HTTP API handlers for the labor engine

PURPOSE:
  Exposes the payroll, compliance, and tip-pool engines via REST.
  Handles HTTP request/response and JSON serialization, delegates all
  actual decisions to the engine packages.

ENDPOINTS:
  Roster & schedule:
    POST   /api/employees                          Upsert employee
    GET    /api/restaurants/{id}/employees         List roster
    POST   /api/shifts                             Upsert shift

  Compliance:
    POST   /api/rules                              Save a rule (validated)
    GET    /api/restaurants/{id}/rules             List rules
    POST   /api/restaurants/{id}/evaluate          Run the evaluator
    GET    /api/restaurants/{id}/violations        List violations
    POST   /api/violations/{id}/override           Override (reason+actor)

  Tip pool:
    POST   /api/tips/{periodID}/distribute         Compute + store splits
    GET    /api/tips/{periodID}/splits             List splits
    POST   /api/tips/{periodID}/lock               Lock the period
    POST   /api/disputes                           File a dispute
    POST   /api/disputes/{id}/resolve              Resolve a dispute
    GET    /api/disputes/open                      List open disputes

  Payroll:
    POST   /api/payroll/run                        Batch payroll run

ERROR HANDLING:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Conflict (lost CAS race, locked period)
  - 500: Internal errors
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/warp/labor-engine/compliance"
	"github.com/warp/labor-engine/factory"
	"github.com/warp/labor-engine/payroll"
	"github.com/warp/labor-engine/store/sqlite"
	"github.com/warp/labor-engine/tippool"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store       *sqlite.Store
	RuleFactory *factory.RuleFactory
	Evaluator   *compliance.Evaluator
	Distributor *tippool.Distributor
	Tracker     *tippool.Tracker
	Runner      *payroll.Runner
	Log         zerolog.Logger

	settingsMu sync.RWMutex
	settings   map[payroll.RestaurantID]*tippool.Settings
}

// settingsFor returns the cached tip pool settings for a restaurant.
// Settings are written by SaveSettings on its own request goroutine, so
// reads go through the handler lock.
func (h *Handler) settingsFor(id payroll.RestaurantID) (*tippool.Settings, bool) {
	h.settingsMu.RLock()
	defer h.settingsMu.RUnlock()
	s, ok := h.settings[id]
	return s, ok
}

func (h *Handler) putSettings(s *tippool.Settings) {
	h.settingsMu.Lock()
	defer h.settingsMu.Unlock()
	h.settings[s.Restaurant] = s
}

// NewHandler creates a handler with the given store and logger.
func NewHandler(store *sqlite.Store, log zerolog.Logger) *Handler {
	return &Handler{
		Store:       store,
		RuleFactory: factory.NewRuleFactory(),
		Evaluator:   &compliance.Evaluator{},
		Distributor: &tippool.Distributor{},
		Tracker:     tippool.NewTracker(store, store),
		Runner:      payroll.NewRunner(4),
		Log:         log,
		settings:    make(map[payroll.RestaurantID]*tippool.Settings),
	}
}

// =============================================================================
// ROSTER & SCHEDULE
// =============================================================================

func (h *Handler) UpsertEmployee(w http.ResponseWriter, r *http.Request) {
	var dto EmployeeDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if dto.ID == "" || dto.RestaurantID == "" {
		writeError(w, http.StatusBadRequest, "id and restaurant_id are required", nil)
		return
	}

	rec := sqlite.EmployeeRecord{
		Employee:   dto.toDomain(),
		Restaurant: payroll.RestaurantID(dto.RestaurantID),
		CreatedAt:  time.Now(),
	}
	if err := h.Store.SaveEmployee(r.Context(), rec); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save employee", err)
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	restaurant := payroll.RestaurantID(chi.URLParam(r, "id"))
	employees, err := h.Store.ListEmployees(r.Context(), restaurant)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}
	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = employeeDTO(restaurant, e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) UpsertShift(w http.ResponseWriter, r *http.Request) {
	var dto ShiftDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if dto.ID == "" || dto.RestaurantID == "" || dto.EmployeeID == "" {
		writeError(w, http.StatusBadRequest, "id, restaurant_id and employee_id are required", nil)
		return
	}
	if !dto.End.After(dto.Start) {
		writeError(w, http.StatusBadRequest, "shift end must be after start", nil)
		return
	}

	if err := h.Store.SaveShift(r.Context(), payroll.RestaurantID(dto.RestaurantID), dto.toDomain()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save shift", err)
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

// =============================================================================
// COMPLIANCE
// =============================================================================

// SaveRule validates and stores a rule. Validation here is the
// save-time boundary: evaluation assumes stored configs are valid.
func (h *Handler) SaveRule(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	rule, err := h.RuleFactory.ParseRule(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid rule", err)
		return
	}

	configJSON, err := factory.MarshalConfig(rule.Config)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to serialize config", err)
		return
	}

	now := time.Now()
	rec := sqlite.RuleRecord{
		ID: rule.ID, Restaurant: rule.Restaurant, Kind: rule.Kind,
		Enabled: rule.Enabled, ConfigJSON: configJSON,
		CreatedAt: now, UpdatedAt: now,
	}
	if err := h.Store.SaveRule(r.Context(), rec); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save rule", err)
		return
	}

	h.Log.Info().Str("rule", rule.ID).Str("kind", string(rule.Kind)).Msg("rule saved")
	writeJSON(w, http.StatusOK, RuleDTO{
		ID: rule.ID, RestaurantID: string(rule.Restaurant),
		Kind: string(rule.Kind), Enabled: rule.Enabled, ConfigJSON: configJSON,
	})
}

func (h *Handler) ListRules(w http.ResponseWriter, r *http.Request) {
	restaurant := payroll.RestaurantID(chi.URLParam(r, "id"))
	records, err := h.Store.ListRules(r.Context(), restaurant)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list rules", err)
		return
	}
	dtos := make([]RuleDTO, len(records))
	for i, rec := range records {
		dtos[i] = RuleDTO{
			ID: rec.ID, RestaurantID: string(rec.Restaurant),
			Kind: string(rec.Kind), Enabled: rec.Enabled, ConfigJSON: rec.ConfigJSON,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// Evaluate runs the compliance evaluator for a restaurant and persists
// the outcome: new violations recorded, cleared ones resolved.
func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	restaurant := payroll.RestaurantID(chi.URLParam(r, "id"))

	records, err := h.Store.ListRules(ctx, restaurant)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load rules", err)
		return
	}
	var rules []compliance.Rule
	for _, rec := range records {
		rule, err := h.ruleFromRecord(rec)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Stored rule is invalid", err)
			return
		}
		rules = append(rules, *rule)
	}

	employees, err := h.Store.ListEmployees(ctx, restaurant)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load employees", err)
		return
	}
	roster := make(map[payroll.EmployeeID]payroll.Employee, len(employees))
	for _, e := range employees {
		roster[e.ID] = e
	}

	shifts, err := h.Store.ListShifts(ctx, restaurant)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load shifts", err)
		return
	}
	prior, err := h.Store.ListByRestaurant(ctx, restaurant)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load violations", err)
		return
	}

	result, err := h.Evaluator.Evaluate(compliance.EvaluationInput{
		Restaurant: restaurant,
		Rules:      rules,
		Employees:  roster,
		Shifts:     shifts,
		Prior:      prior,
		Now:        time.Now(),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Evaluation failed", err)
		return
	}

	if len(result.Created) > 0 {
		if err := h.Store.Record(ctx, result.Created); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to record violations", err)
			return
		}
	}
	if len(result.Resolved) > 0 {
		ids := make([]string, len(result.Resolved))
		for i, v := range result.Resolved {
			ids[i] = v.ID
		}
		if err := h.Store.MarkResolved(ctx, ids); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to resolve violations", err)
			return
		}
	}

	h.Log.Info().Str("restaurant", string(restaurant)).
		Int("created", len(result.Created)).Int("resolved", len(result.Resolved)).
		Msg("compliance evaluation complete")

	resp := EvaluateResponse{}
	for _, v := range result.Created {
		resp.Created = append(resp.Created, violationDTO(v))
	}
	for _, v := range result.Resolved {
		resp.Resolved = append(resp.Resolved, violationDTO(v))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) ListViolations(w http.ResponseWriter, r *http.Request) {
	restaurant := payroll.RestaurantID(chi.URLParam(r, "id"))
	violations, err := h.Store.ListByRestaurant(r.Context(), restaurant)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list violations", err)
		return
	}
	dtos := make([]ViolationDTO, len(violations))
	for i, v := range violations {
		dtos[i] = violationDTO(v)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// OverrideViolation applies the permanent override transition. A lost
// CAS race surfaces as 409. Spacing rules configured with
// allow_override=false refuse the override outright.
func (h *Handler) OverrideViolation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req OverrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	existing, err := h.Store.GetViolation(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load violation", err)
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "Violation not found", nil)
		return
	}
	allowed, err := h.overrideAllowed(r.Context(), existing)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to check rule config", err)
		return
	}
	if !allowed {
		writeError(w, http.StatusForbidden, "Rule does not permit overrides", nil)
		return
	}

	err = h.Store.Override(r.Context(), id, req.Reason, req.Actor, time.Now())
	switch {
	case errors.Is(err, payroll.ErrMissingReason), errors.Is(err, payroll.ErrMissingActor):
		writeError(w, http.StatusBadRequest, "Override requires reason and actor", err)
		return
	case payroll.IsRetryable(err):
		writeError(w, http.StatusConflict, "Violation is no longer active", err)
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "Failed to override violation", err)
		return
	}

	h.Log.Info().Str("violation", id).Str("actor", req.Actor).Msg("violation overridden")
	v, err := h.Store.GetViolation(r.Context(), id)
	if err != nil || v == nil {
		writeError(w, http.StatusInternalServerError, "Failed to reload violation", err)
		return
	}
	writeJSON(w, http.StatusOK, violationDTO(*v))
}

// overrideAllowed checks the spacing rules' allow_override flag for
// the violation's kind. Kinds without the flag always allow overrides.
func (h *Handler) overrideAllowed(ctx context.Context, v *compliance.Violation) (bool, error) {
	if v.Kind != compliance.KindClopening && v.Kind != compliance.KindRestPeriod {
		return true, nil
	}
	records, err := h.Store.ListRules(ctx, v.Restaurant)
	if err != nil {
		return false, err
	}
	for _, rec := range records {
		if rec.Kind != v.Kind || !rec.Enabled {
			continue
		}
		rule, err := h.ruleFromRecord(rec)
		if err != nil {
			return false, err
		}
		switch cfg := rule.Config.(type) {
		case compliance.ClopeningConfig:
			return cfg.AllowOverride, nil
		case compliance.RestPeriodConfig:
			return cfg.AllowOverride, nil
		}
	}
	// The rule was deleted or disabled since the violation was recorded;
	// nothing forbids the override anymore.
	return true, nil
}

func (h *Handler) ruleFromRecord(rec sqlite.RuleRecord) (*compliance.Rule, error) {
	ruleJSON, err := json.Marshal(map[string]any{
		"id": rec.ID, "restaurant_id": string(rec.Restaurant),
		"kind": string(rec.Kind), "enabled": rec.Enabled,
		"config": json.RawMessage(rec.ConfigJSON),
	})
	if err != nil {
		return nil, err
	}
	return h.RuleFactory.ParseRule(string(ruleJSON))
}

// =============================================================================
// TIP POOL
// =============================================================================

// Distribute computes and stores tip splits for a period. A locked
// period refuses with 409; stored splits stay untouched.
func (h *Handler) Distribute(w http.ResponseWriter, r *http.Request) {
	periodID := chi.URLParam(r, "periodID")
	var req DistributeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	settings, ok := h.settingsFor(payroll.RestaurantID(req.RestaurantID))
	if !ok {
		writeError(w, http.StatusBadRequest, "No tip pool settings for restaurant", nil)
		return
	}

	stakes := make([]tippool.Stake, len(req.Stakes))
	for i, s := range req.Stakes {
		stakes[i] = tippool.Stake{
			EmployeeID: payroll.EmployeeID(s.EmployeeID),
			Hours:      decimal.NewFromFloat(s.Hours),
			Role:       s.Role,
		}
	}

	splits, err := h.Distributor.Distribute(tippool.DistributeInput{
		PeriodID:   periodID,
		TotalCents: payroll.Cents(req.TotalCents),
		Settings:   *settings,
		Stakes:     stakes,
		Now:        time.Now(),
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, "Distribution failed", err)
		return
	}

	if err := h.Store.ReplacePeriod(r.Context(), periodID, splits); err != nil {
		if errors.Is(err, tippool.ErrPeriodLocked) {
			writeError(w, http.StatusConflict, "Period is locked", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to store splits", err)
		return
	}

	dtos := make([]SplitDTO, len(splits))
	for i, s := range splits {
		dtos[i] = splitDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SaveSettings stores tip pool settings for a restaurant.
func (h *Handler) SaveSettings(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	settings, err := h.RuleFactory.ParseSettings(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid settings", err)
		return
	}
	h.putSettings(settings)
	writeJSON(w, http.StatusOK, map[string]string{"restaurant_id": string(settings.Restaurant)})
}

func (h *Handler) ListSplits(w http.ResponseWriter, r *http.Request) {
	periodID := chi.URLParam(r, "periodID")
	splits, err := h.Store.ListPeriod(r.Context(), periodID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list splits", err)
		return
	}
	dtos := make([]SplitDTO, len(splits))
	for i, s := range splits {
		dtos[i] = splitDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// LockPeriod freezes a period's splits. The lock is a CAS; a second
// lock attempt gets 409.
func (h *Handler) LockPeriod(w http.ResponseWriter, r *http.Request) {
	periodID := chi.URLParam(r, "periodID")
	var req LockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Actor == "" {
		writeError(w, http.StatusBadRequest, "actor is required", nil)
		return
	}

	err := h.Store.Lock(r.Context(), tippool.PeriodLock{
		PeriodID: periodID, LockedAt: time.Now(), LockedBy: req.Actor,
	})
	if payroll.IsRetryable(err) {
		writeError(w, http.StatusConflict, "Period already locked", err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to lock period", err)
		return
	}

	h.Log.Info().Str("period", periodID).Str("actor", req.Actor).Msg("tip period locked")
	writeJSON(w, http.StatusOK, map[string]any{"period_id": periodID, "locked": true})
}

// =============================================================================
// DISPUTES
// =============================================================================

func (h *Handler) FileDispute(w http.ResponseWriter, r *http.Request) {
	var req DisputeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	d, err := h.Tracker.File(r.Context(), payroll.EmployeeID(req.EmployeeID),
		req.SplitID, tippool.DisputeType(req.Type), req.Message, time.Now())
	switch {
	case errors.Is(err, tippool.ErrSplitNotFound):
		writeError(w, http.StatusNotFound, "Split not found", err)
		return
	case errors.Is(err, payroll.ErrMissingReason):
		writeError(w, http.StatusBadRequest, "Dispute message is required", err)
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, "Failed to file dispute", err)
		return
	}
	writeJSON(w, http.StatusCreated, disputeDTO(*d))
}

func (h *Handler) ResolveDispute(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := h.Tracker.Resolve(r.Context(), id)
	if payroll.IsRetryable(err) {
		writeError(w, http.StatusConflict, "Dispute is not open", err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to resolve dispute", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": "resolved"})
}

func (h *Handler) ListOpenDisputes(w http.ResponseWriter, r *http.Request) {
	disputes, err := h.Store.ListOpen(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list disputes", err)
		return
	}
	dtos := make([]DisputeDTO, len(disputes))
	for i, d := range disputes {
		dtos[i] = disputeDTO(d)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// PAYROLL
// =============================================================================

// RunPayroll executes a batch payroll run across the submitted
// employees using the bounded worker pool.
func (h *Handler) RunPayroll(w http.ResponseWriter, r *http.Request) {
	var req PayrollRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	rules := rulesFromDTO(req.Rules)
	input := payroll.RunInput{
		Restaurant: payroll.RestaurantID(req.RestaurantID),
		Rules:      rules,
	}
	for _, e := range req.Employees {
		emp, err := h.Store.GetEmployee(r.Context(), payroll.EmployeeID(e.EmployeeID))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to load employee", err)
			return
		}
		if emp == nil {
			writeError(w, http.StatusNotFound, "Employee not found: "+e.EmployeeID, payroll.ErrEmployeeNotFound)
			return
		}

		in := payroll.EmployeeInput{Employee: *emp, TipsCents: payroll.Cents(e.TipsCents)}
		for _, p := range e.Punches {
			in.Punches = append(in.Punches, payroll.TimePunch{
				EmployeeID: emp.ID, At: p.At, Kind: payroll.PunchKind(p.Kind),
			})
		}
		for _, a := range e.Adjustments {
			in.Adjustments = append(in.Adjustments, payroll.OvertimeAdjustment{
				EmployeeID: emp.ID, Date: a.Date,
				Direction: payroll.AdjustmentDirection(a.Direction),
				Hours:     decimal.NewFromFloat(a.Hours), Reason: a.Reason,
			})
		}
		input.Employees = append(input.Employees, in)
	}

	summary, err := h.Runner.Run(r.Context(), input)
	if err != nil {
		if errors.Is(err, payroll.ErrInvalidRules) {
			writeError(w, http.StatusBadRequest, "Invalid overtime rules", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Payroll run failed", err)
		return
	}

	resp := PayrollRunResponse{
		RestaurantID:  string(summary.Restaurant),
		TotalPayCents: int64(summary.TotalPay),
	}
	for _, res := range summary.Results {
		resp.Results = append(resp.Results, payrollResultDTO(res))
	}
	h.Log.Info().Str("restaurant", req.RestaurantID).
		Int("employees", len(resp.Results)).Int64("total_cents", resp.TotalPayCents).
		Msg("payroll run complete")
	writeJSON(w, http.StatusOK, resp)
}

func rulesFromDTO(d OvertimeRulesDTO) payroll.OvertimeRules {
	rules := payroll.DefaultOvertimeRules()
	if d.WeeklyThreshold > 0 {
		rules.WeeklyThreshold = decimal.NewFromFloat(d.WeeklyThreshold)
	}
	if d.WeeklyMultiplier > 0 {
		rules.WeeklyMultiplier = decimal.NewFromFloat(d.WeeklyMultiplier)
	}
	if d.DailyThreshold != nil {
		t := decimal.NewFromFloat(*d.DailyThreshold)
		rules.DailyThreshold = &t
	}
	if d.DailyMultiplier > 0 {
		rules.DailyMultiplier = decimal.NewFromFloat(d.DailyMultiplier)
	}
	if d.DoubleTimeThreshold != nil {
		t := decimal.NewFromFloat(*d.DoubleTimeThreshold)
		rules.DoubleTimeThreshold = &t
	}
	if d.DoubleTimeMultiplier > 0 {
		rules.DoubleTimeMultiplier = decimal.NewFromFloat(d.DoubleTimeMultiplier)
	}
	rules.ExcludeTipsFromOTRate = d.ExcludeTipsFromOTRate
	return rules
}

// =============================================================================
// HELPERS
// =============================================================================

func readBody(r *http.Request) (string, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return "", err
	}
	return string(raw), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string, err error) {
	resp := ErrorResponse{Error: msg}
	if err != nil {
		resp.Detail = err.Error()
	}
	writeJSON(w, status, resp)
}
