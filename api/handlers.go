/*
handlers.go - HTTP handlers for the workforce planning engine

PURPOSE:
  Exposes the derivation engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Health:
    GET    /api/health                      Liveness probe

  Directory:
    GET    /api/employees                   Utilization table (?q= fuzzy search)
    GET    /api/employees/{id}              Metric detail + matched task ids
    GET    /api/employees/{id}/suggestions  Ranked open tasks for the employee
    GET    /api/employees/{id}/demand       Teams that need the employee

  Views:
    GET    /api/orgchart                    Reporting forest with group load
    GET    /api/heatmap                     Week-bucketed demand heatmap
    GET    /api/summary                     Portfolio rollup

  Writes:
    POST   /api/assignments                 Commit an assignment via the facade
    POST   /api/feed                        Ingest an upstream plan document
    POST   /api/reset                       Clear store and derivation

  Boundaries:
    GET    /api/leveling/inputs             Derived leveling payload
    POST   /api/leveling/run                Run external leveling engine
    GET    /api/forecast/{projectId}        External completion forecast

  Scenarios: see scenarios.go

DERIVATION CACHE:
  Handlers read a single atomic pointer to the latest derivation. Rebuilds
  claim a generation number before touching the store and publish behind a
  compare-and-swap that refuses to go backwards, so a slow rebuild can
  never overwrite a newer one. Reads are lock-free.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Invalid input, unreadable documents
  - 404: Unknown employee/task, nothing ingested yet
  - 502: External port failures (store rejected a write, engine failed)
  - 503: Optional boundary not configured (leveling, forecasting)
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - refresher.go: Periodic background rebuilds
  - scenarios.go: Demo scenario loaders
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/warp/workforce-engine/assign"
	"github.com/warp/workforce-engine/feed"
	"github.com/warp/workforce-engine/leveling"
	"github.com/warp/workforce-engine/logger"
	"github.com/warp/workforce-engine/metrics"
	"github.com/warp/workforce-engine/planner"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers. Leveler and Forecaster
// are optional; their endpoints answer 503 until an engine is configured.
type Handler struct {
	Store      planner.Store
	Facade     *assign.Facade
	Leveler    leveling.Engine
	Forecaster leveling.Forecaster

	Log  logger.Logger
	Sink metrics.Sink

	// Now is the clock; swapped in tests.
	Now func() time.Time

	gen     atomic.Uint64
	current atomic.Pointer[derivation]

	scenarioMu sync.Mutex
	scenario   string
}

// derivation pairs a derived view with the generation that produced it.
// A nil Derived is the tombstone published by reset.
type derivation struct {
	gen uint64
	d   *planner.Derived
}

// NewHandler wires a handler with safe defaults. When the facade has no
// rebuild hook yet, committed assignments trigger this handler's Rebuild.
func NewHandler(store planner.Store, facade *assign.Facade) *Handler {
	h := &Handler{
		Store:  store,
		Facade: facade,
		Log:    logger.Nop{},
		Sink:   metrics.NopSink{},
		Now:    time.Now,
	}
	if facade != nil && facade.Rebuild == nil {
		facade.Rebuild = func() {
			if err := h.Rebuild(context.Background()); err != nil {
				h.Log.Warnf("rebuild after assignment: %v", err)
			}
		}
	}
	return h
}

// =============================================================================
// DERIVATION CACHE
// =============================================================================

// Rebuild reloads the snapshot and recomputes every derived aggregate.
// Generations are claimed before the store read so that concurrent
// rebuilds settle last-write-wins.
func (h *Handler) Rebuild(ctx context.Context) error {
	gen := h.gen.Add(1)

	snap, err := h.Store.LoadSnapshot(ctx)
	if err != nil {
		return err
	}

	start := time.Now()
	d := planner.Derive(snap, h.now())
	h.Sink.DerivationCompleted(time.Since(start))

	if h.publish(gen, d) {
		h.Log.Debugf("derivation %d published: %d employees, %d tasks",
			gen, len(snap.Employees), len(snap.Tasks))
	}
	return nil
}

// publish installs a derivation unless a newer generation already landed.
func (h *Handler) publish(gen uint64, d *planner.Derived) bool {
	next := &derivation{gen: gen, d: d}
	for {
		cur := h.current.Load()
		if cur != nil && cur.gen >= gen {
			return false
		}
		if h.current.CompareAndSwap(cur, next) {
			return true
		}
	}
}

// derived returns the latest derivation, rebuilding lazily when nothing
// has been derived since startup.
func (h *Handler) derived(ctx context.Context) (*planner.Derived, error) {
	cur := h.current.Load()
	if cur == nil {
		if err := h.Rebuild(ctx); err != nil {
			return nil, err
		}
		cur = h.current.Load()
		if cur == nil {
			return nil, planner.ErrNoSnapshot
		}
	}
	if cur.d == nil {
		return nil, planner.ErrNoSnapshot
	}
	return cur.d, nil
}

// requireDerived is the shared read-path guard: 404 before any feed or
// scenario is loaded, 500 when the store itself fails.
func (h *Handler) requireDerived(w http.ResponseWriter, r *http.Request) (*planner.Derived, bool) {
	d, err := h.derived(r.Context())
	if err != nil {
		if errors.Is(err, planner.ErrNoSnapshot) {
			writeError(w, http.StatusNotFound, "No snapshot ingested", nil)
		} else {
			writeError(w, http.StatusInternalServerError, "Failed to load snapshot", err)
		}
		return nil, false
	}
	return d, true
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// =============================================================================
// HEALTH
// =============================================================================

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   h.now().Format(time.RFC3339),
	})
}

// =============================================================================
// DIRECTORY HANDLERS
// =============================================================================

// ListEmployees returns the utilization table, optionally filtered and
// ranked by a free-text query over name and role.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	d, ok := h.requireDerived(w, r)
	if !ok {
		return
	}

	employees := d.Snapshot.Employees
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		employees = searchEmployees(q, employees)
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e, d.Metrics[e.ID])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// searchEmployees ranks the roster against a fuzzy query. Best matches
// first; employees that match nowhere fall out.
func searchEmployees(q string, employees []planner.Employee) []planner.Employee {
	words := make([]string, len(employees))
	for i, e := range employees {
		words[i] = e.Name + " " + e.Role
	}

	ranks := fuzzy.RankFindNormalizedFold(q, words)
	sort.Sort(ranks)

	out := make([]planner.Employee, 0, len(ranks))
	for _, rank := range ranks {
		out = append(out, employees[rank.OriginalIndex])
	}
	return out
}

// GetEmployee returns one employee's metric with the matched task ids.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	d, ok := h.requireDerived(w, r)
	if !ok {
		return
	}

	id := planner.EmployeeID(chi.URLParam(r, "id"))
	e, ok := d.Snapshot.Employee(id)
	if !ok {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}

	m := d.Metrics[id]
	taskIDs := make([]string, len(m.MatchedTasks))
	for i, tid := range m.MatchedTasks {
		taskIDs[i] = string(tid)
	}

	writeJSON(w, http.StatusOK, EmployeeDetailDTO{
		EmployeeDTO:    toEmployeeDTO(e, m),
		WorkHours:      m.WorkHours,
		MatchedTaskIDs: taskIDs,
	})
}

// GetSuggestions returns the ranked open tasks for an employee.
func (h *Handler) GetSuggestions(w http.ResponseWriter, r *http.Request) {
	d, ok := h.requireDerived(w, r)
	if !ok {
		return
	}

	id := planner.EmployeeID(chi.URLParam(r, "id"))
	if _, ok := d.Snapshot.Employee(id); !ok {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}

	suggestions := d.SuggestFor(id)
	dtos := make([]SuggestionDTO, len(suggestions))
	for i, s := range suggestions {
		dtos[i] = SuggestionDTO{
			Task:        toTaskDTO(s.Task),
			Criticality: s.Criticality.String(),
			Score:       s.Score,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetDemand returns the projects that most need an employee.
func (h *Handler) GetDemand(w http.ResponseWriter, r *http.Request) {
	d, ok := h.requireDerived(w, r)
	if !ok {
		return
	}

	id := planner.EmployeeID(chi.URLParam(r, "id"))
	if _, ok := d.Snapshot.Employee(id); !ok {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}

	demands := d.DemandFor(id)
	dtos := make([]DemandDTO, len(demands))
	for i, t := range demands {
		dtos[i] = DemandDTO{
			ProjectID:       string(t.Project.ID),
			ProjectName:     t.Project.Name,
			Demand:          t.Demand,
			RoleMatches:     t.RoleMatches,
			CriticalTasks:   t.CriticalTasks,
			UnassignedTasks: t.UnassignedTasks,
			UnassignedHours: t.UnassignedHours,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// VIEW HANDLERS
// =============================================================================

// GetOrgChart returns the reporting forest.
func (h *Handler) GetOrgChart(w http.ResponseWriter, r *http.Request) {
	d, ok := h.requireDerived(w, r)
	if !ok {
		return
	}

	dtos := make([]OrgNodeDTO, len(d.Forest))
	for i, n := range d.Forest {
		dtos[i] = toOrgNodeDTO(n)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetHeatmap returns the week-bucketed demand heatmap.
func (h *Handler) GetHeatmap(w http.ResponseWriter, r *http.Request) {
	d, ok := h.requireDerived(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toHeatmapDTO(d.Heatmap))
}

// GetSummary returns the portfolio rollup.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	d, ok := h.requireDerived(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toSummaryDTO(d.Summary))
}

// =============================================================================
// ASSIGNMENT HANDLER
// =============================================================================

// CreateAssignment commits one assignment through the facade. The response
// body is the transient status message for both outcomes.
func (h *Handler) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	var req AssignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.TaskID == "" || req.EmployeeID == "" {
		writeError(w, http.StatusBadRequest, "taskId and employeeId are required", nil)
		return
	}

	d, ok := h.requireDerived(w, r)
	if !ok {
		return
	}

	task, ok := d.Snapshot.Task(planner.TaskID(req.TaskID))
	if !ok {
		writeError(w, http.StatusNotFound, "Task not found", assign.ErrTaskNotFound)
		return
	}
	employee, ok := d.Snapshot.Employee(planner.EmployeeID(req.EmployeeID))
	if !ok {
		writeError(w, http.StatusNotFound, "Employee not found", assign.ErrEmployeeNotFound)
		return
	}

	msg, err := h.Facade.AssignTask(r.Context(), task, employee)
	if err != nil {
		// Snapshot and store can disagree when a reset raced the request.
		if assign.IsTaskMissing(err) {
			writeJSON(w, http.StatusNotFound, msg)
			return
		}
		writeJSON(w, http.StatusBadGateway, msg)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

// =============================================================================
// LEVELING AND FORECASTING BOUNDARIES
// =============================================================================

// GetLevelingInputs returns the payload an external leveling engine
// would receive.
func (h *Handler) GetLevelingInputs(w http.ResponseWriter, r *http.Request) {
	d, ok := h.requireDerived(w, r)
	if !ok {
		return
	}
	in := leveling.DeriveInputs(d.Snapshot.WorkTasks(), d.Snapshot.Employees, d.Metrics)
	writeJSON(w, http.StatusOK, in)
}

// RunLeveling hands the derived inputs to the configured engine.
func (h *Handler) RunLeveling(w http.ResponseWriter, r *http.Request) {
	if h.Leveler == nil {
		writeError(w, http.StatusServiceUnavailable, "No leveling engine configured", leveling.ErrNotConfigured)
		return
	}

	var req LevelingRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	d, ok := h.requireDerived(w, r)
	if !ok {
		return
	}

	in := leveling.DeriveInputs(d.Snapshot.WorkTasks(), d.Snapshot.Employees, d.Metrics)
	res, err := h.Leveler.RunResourceLeveling(r.Context(), in, leveling.Params{
		MaxShiftDays:     req.MaxShiftDays,
		PreserveCritical: req.PreserveCritical,
	})
	if err != nil {
		writeError(w, http.StatusBadGateway, "Leveling run failed", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GetForecast returns the external completion forecast for a project.
func (h *Handler) GetForecast(w http.ResponseWriter, r *http.Request) {
	if h.Forecaster == nil {
		writeError(w, http.StatusServiceUnavailable, "No forecaster configured", leveling.ErrNotConfigured)
		return
	}

	projectID := planner.ProjectID(chi.URLParam(r, "projectId"))
	fc, err := h.Forecaster.Forecast(r.Context(), projectID)
	if err != nil {
		writeError(w, http.StatusBadGateway, "Forecast failed", err)
		return
	}
	writeJSON(w, http.StatusOK, fc)
}

// =============================================================================
// FEED AND RESET
// =============================================================================

// IngestFeed decodes an upstream plan document, persists the snapshot,
// and rebuilds the derivation. The response carries the ingest summary.
func (h *Handler) IngestFeed(w http.ResponseWriter, r *http.Request) {
	snap, summary, err := feed.Decode(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unreadable feed document", err)
		return
	}

	ctx := r.Context()
	if err := h.Store.SaveSnapshot(ctx, snap); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save snapshot", err)
		return
	}

	h.Sink.SnapshotIngested(len(snap.Tasks), len(snap.Employees))
	h.Log.Infof("feed ingested: %d employees, %d tasks (%d coerced, %d skipped)",
		summary.Employees, summary.Tasks, summary.CoercedValues, summary.SkippedRows)

	if err := h.Rebuild(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to rebuild derivation", err)
		return
	}

	h.setScenario("")
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ingested",
		"summary": summary,
	})
}

// ResetData clears the store and tombstones the derivation.
func (h *Handler) ResetData(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset store", err)
		return
	}

	// Tombstone instead of nil so an in-flight rebuild of the old
	// snapshot cannot land after the reset.
	h.publish(h.gen.Add(1), nil)
	h.setScenario("")

	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (h *Handler) setScenario(id string) {
	h.scenarioMu.Lock()
	h.scenario = id
	h.scenarioMu.Unlock()
}

func (h *Handler) currentScenarioID() string {
	h.scenarioMu.Lock()
	defer h.scenarioMu.Unlock()
	return h.scenario
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
