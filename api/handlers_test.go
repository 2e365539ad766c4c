/*
handlers_test.go - Unit tests for API handlers

Tests for:
- Derivation cache (lazy build, generation ordering, reset tombstone)
- Directory endpoints including fuzzy search
- Assignment flow through the facade (success, 404, 502)
- Leveling/forecast boundaries and their 503 behavior
- Feed ingestion and reset
- Background refresher
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/warp/workforce-engine/assign"
	"github.com/warp/workforce-engine/leveling"
	"github.com/warp/workforce-engine/planner"
	"github.com/warp/workforce-engine/planner/store"
)

var testOrigins = []string{"http://localhost:5173"}

func newTestHandler(t *testing.T) (*Handler, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	facade := assign.NewFacade(mem, mem)
	h := NewHandler(mem, facade)
	h.Now = func() time.Time { return time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC) }
	return h, mem
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeInto(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode response body: %v", err)
	}
}

func loadTestScenario(t *testing.T, router http.Handler, id string) {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: id})
	if rec.Code != http.StatusOK {
		t.Fatalf("Failed to load scenario %s: %d %s", id, rec.Code, rec.Body.String())
	}
}

func findEmployee(t *testing.T, rows []EmployeeDTO, id string) EmployeeDTO {
	t.Helper()
	for _, row := range rows {
		if row.ID == id {
			return row
		}
	}
	t.Fatalf("Employee %s not in response", id)
	return EmployeeDTO{}
}

// =============================================================================
// HEALTH AND EMPTY-STORE BEHAVIOR
// =============================================================================

func TestHealth(t *testing.T) {
	h, _ := newTestHandler(t)
	router := NewRouter(h, testOrigins)

	rec := doJSON(t, router, http.MethodGet, "/api/health", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var body map[string]string
	decodeInto(t, rec, &body)
	if body["status"] != "ok" {
		t.Errorf("Expected status ok, got %q", body["status"])
	}
}

func TestEmployees_NothingIngested(t *testing.T) {
	// GIVEN: A handler over an empty store
	h, _ := newTestHandler(t)
	router := NewRouter(h, testOrigins)

	// WHEN: The directory is requested
	rec := doJSON(t, router, http.MethodGet, "/api/employees", nil)

	// THEN: 404, nothing has been ingested
	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", rec.Code)
	}
}

// =============================================================================
// DIRECTORY
// =============================================================================

func TestEmployees_StudioTable(t *testing.T) {
	// GIVEN: The studio scenario
	h, _ := newTestHandler(t)
	router := NewRouter(h, testOrigins)
	loadTestScenario(t, router, "studio")

	// WHEN: The utilization table is requested
	rec := doJSON(t, router, http.MethodGet, "/api/employees", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var rows []EmployeeDTO
	decodeInto(t, rec, &rows)

	// THEN: All five seats land in their status bands
	if len(rows) != 5 {
		t.Fatalf("Expected 5 employees, got %d", len(rows))
	}

	theo := findEmployee(t, rows, "theo")
	if theo.Utilization != 111 || theo.Status != "overloaded" {
		t.Errorf("theo: expected 111/overloaded, got %d/%s", theo.Utilization, theo.Status)
	}
	if theo.MatchedTasks != 3 {
		t.Errorf("theo: expected 3 matched tasks, got %d", theo.MatchedTasks)
	}
	if theo.QCPassRate == nil || *theo.QCPassRate != 100 {
		t.Errorf("theo: expected QC pass rate 100, got %v", theo.QCPassRate)
	}

	jonas := findEmployee(t, rows, "jonas")
	if jonas.Utilization != 91 || jonas.Status != "busy" {
		t.Errorf("jonas: expected 91/busy, got %d/%s", jonas.Utilization, jonas.Status)
	}
	if jonas.QCPassRate == nil || *jonas.QCPassRate != 0 {
		t.Errorf("jonas: expected QC pass rate 0, got %v", jonas.QCPassRate)
	}

	ines := findEmployee(t, rows, "ines")
	if ines.Utilization != 72 || ines.Status != "optimal" {
		t.Errorf("ines: expected 72/optimal, got %d/%s", ines.Utilization, ines.Status)
	}

	// Sam has no planned hours; actuals carry the utilization
	sam := findEmployee(t, rows, "sam")
	if sam.Utilization != 38 || sam.Status != "available" {
		t.Errorf("sam: expected 38/available, got %d/%s", sam.Utilization, sam.Status)
	}
	if sam.AllocatedHours != 0 || sam.ActualHours != 800 {
		t.Errorf("sam: expected 0 allocated / 800 actual, got %v/%v", sam.AllocatedHours, sam.ActualHours)
	}

	mara := findEmployee(t, rows, "mara")
	if mara.QCPassRate != nil {
		t.Errorf("mara: expected no QC pass rate, got %v", *mara.QCPassRate)
	}
}

func TestEmployees_FuzzySearch(t *testing.T) {
	// GIVEN: The studio scenario
	h, _ := newTestHandler(t)
	router := NewRouter(h, testOrigins)
	loadTestScenario(t, router, "studio")

	// WHEN: Searching by role
	rec := doJSON(t, router, http.MethodGet, "/api/employees?q=designer", nil)
	var rows []EmployeeDTO
	decodeInto(t, rec, &rows)

	// THEN: Only the two designers match
	if len(rows) != 2 {
		t.Fatalf("Expected 2 matches for 'designer', got %d", len(rows))
	}
	for _, row := range rows {
		if row.Role != "Designer" {
			t.Errorf("Unexpected match: %s (%s)", row.Name, row.Role)
		}
	}

	// WHEN: Searching by name fragment
	rec = doJSON(t, router, http.MethodGet, "/api/employees?q=voss", nil)
	decodeInto(t, rec, &rows)
	if len(rows) != 1 || rows[0].ID != "mara" {
		t.Errorf("Expected only mara for 'voss', got %d rows", len(rows))
	}

	// WHEN: Nothing matches
	rec = doJSON(t, router, http.MethodGet, "/api/employees?q=zzzqqq", nil)
	decodeInto(t, rec, &rows)
	if len(rows) != 0 {
		t.Errorf("Expected no matches, got %d", len(rows))
	}
}

func TestGetEmployee(t *testing.T) {
	// GIVEN: The studio scenario
	h, _ := newTestHandler(t)
	router := NewRouter(h, testOrigins)
	loadTestScenario(t, router, "studio")

	// WHEN: One employee is fetched
	rec := doJSON(t, router, http.MethodGet, "/api/employees/theo", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var detail EmployeeDetailDTO
	decodeInto(t, rec, &detail)

	// THEN: The detail carries the matched task ids
	if detail.Name != "Theo Brandt" {
		t.Errorf("Expected Theo Brandt, got %s", detail.Name)
	}
	if detail.WorkHours != 2300 {
		t.Errorf("Expected 2300 work hours, got %v", detail.WorkHours)
	}
	if len(detail.MatchedTaskIDs) != 3 {
		t.Errorf("Expected 3 matched task ids, got %v", detail.MatchedTaskIDs)
	}

	// WHEN: An unknown id is fetched
	rec = doJSON(t, router, http.MethodGet, "/api/employees/ghost", nil)

	// THEN: 404
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown employee, got %d", rec.Code)
	}
}

func TestSuggestions(t *testing.T) {
	// GIVEN: The studio scenario with two open tasks
	h, _ := newTestHandler(t)
	router := NewRouter(h, testOrigins)
	loadTestScenario(t, router, "studio")

	// WHEN: Suggestions are requested for a designer
	rec := doJSON(t, router, http.MethodGet, "/api/employees/ines/suggestions", nil)
	var suggestions []SuggestionDTO
	decodeInto(t, rec, &suggestions)

	// THEN: Both open tasks rank, the role-matched high-priority one first
	if len(suggestions) != 2 {
		t.Fatalf("Expected 2 suggestions for ines, got %d", len(suggestions))
	}
	if suggestions[0].Task.ID != "t-motion" || suggestions[0].Score != 65 {
		t.Errorf("Expected t-motion scored 65 first, got %s/%d", suggestions[0].Task.ID, suggestions[0].Score)
	}
	if suggestions[0].Criticality != "high" {
		t.Errorf("Expected high criticality, got %s", suggestions[0].Criticality)
	}
	if suggestions[1].Task.ID != "t-accessibility" || suggestions[1].Score != 40 {
		t.Errorf("Expected t-accessibility scored 40 second, got %s/%d", suggestions[1].Task.ID, suggestions[1].Score)
	}

	// WHEN: Suggestions are requested for the QA analyst
	rec = doJSON(t, router, http.MethodGet, "/api/employees/sam/suggestions", nil)
	decodeInto(t, rec, &suggestions)

	// THEN: The designer-only task is filtered out
	if len(suggestions) != 1 || suggestions[0].Task.ID != "t-accessibility" {
		t.Fatalf("Expected only t-accessibility for sam, got %v", suggestions)
	}
	if suggestions[0].Score != 40 {
		t.Errorf("Expected score 40, got %d", suggestions[0].Score)
	}

	// Unknown employee
	rec = doJSON(t, router, http.MethodGet, "/api/employees/ghost/suggestions", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rec.Code)
	}
}

func TestDemand(t *testing.T) {
	// GIVEN: The studio scenario; sam works on web but not brand
	h, _ := newTestHandler(t)
	router := NewRouter(h, testOrigins)
	loadTestScenario(t, router, "studio")

	// WHEN: Demand is requested for sam
	rec := doJSON(t, router, http.MethodGet, "/api/employees/sam/demand", nil)
	var demands []DemandDTO
	decodeInto(t, rec, &demands)

	// THEN: Only brand appears; projects sam already works on are excluded
	if len(demands) != 1 {
		t.Fatalf("Expected 1 demand entry for sam, got %d", len(demands))
	}
	if demands[0].ProjectID != "brand" || demands[0].Demand != 1 {
		t.Errorf("Expected brand with demand 1, got %s/%d", demands[0].ProjectID, demands[0].Demand)
	}
}

// =============================================================================
// VIEWS
// =============================================================================

func TestHeatmap(t *testing.T) {
	// GIVEN: The studio scenario
	h, _ := newTestHandler(t)
	router := NewRouter(h, testOrigins)
	loadTestScenario(t, router, "studio")

	// WHEN: The heatmap is requested
	rec := doJSON(t, router, http.MethodGet, "/api/heatmap", nil)
	var hm HeatmapDTO
	decodeInto(t, rec, &hm)

	// THEN: Both aggregations align with the week axis
	if len(hm.WeekStarts) == 0 || hm.TotalWeeks < 1 || hm.Stride < 1 {
		t.Fatalf("Degenerate axis: %d starts, %d weeks, stride %d",
			len(hm.WeekStarts), hm.TotalWeeks, hm.Stride)
	}

	roles := map[string]bool{}
	for _, row := range hm.ByRole {
		roles[row.Key] = true
		if len(row.Weekly) != len(hm.WeekStarts) {
			t.Errorf("Role row %s has %d buckets, axis has %d", row.Key, len(row.Weekly), len(hm.WeekStarts))
		}
	}
	for _, want := range []string{"Designer", "Engineer", "Unassigned"} {
		if !roles[want] {
			t.Errorf("Missing role row %q (have %v)", want, roles)
		}
	}

	if len(hm.ByIndividual) == 0 {
		t.Error("Expected individual rows")
	}
}

func TestSummary(t *testing.T) {
	// GIVEN: The studio scenario
	h, _ := newTestHandler(t)
	router := NewRouter(h, testOrigins)
	loadTestScenario(t, router, "studio")

	// WHEN: The portfolio summary is requested
	rec := doJSON(t, router, http.MethodGet, "/api/summary", nil)
	var sum SummaryDTO
	decodeInto(t, rec, &sum)

	// THEN: Counts, bands, and hour totals line up
	if sum.Employees != 5 || sum.Tasks != 12 || sum.Projects != 2 || sum.Portfolios != 1 {
		t.Errorf("Counts off: %d employees, %d tasks, %d projects, %d portfolios",
			sum.Employees, sum.Tasks, sum.Projects, sum.Portfolios)
	}
	wantStatus := map[string]int{"overloaded": 1, "busy": 1, "optimal": 1, "available": 2}
	for status, want := range wantStatus {
		if sum.StatusCounts[status] != want {
			t.Errorf("Status %s: expected %d, got %d", status, want, sum.StatusCounts[status])
		}
	}
	if sum.MeanUtilization != 68 {
		t.Errorf("Expected mean utilization 68, got %v", sum.MeanUtilization)
	}
	if sum.StdDevUtilization <= 0 {
		t.Errorf("Expected positive stddev, got %v", sum.StdDevUtilization)
	}
	if sum.MinUtilization != 28 || sum.MaxUtilization != 111 {
		t.Errorf("Expected min 28 / max 111, got %v/%v", sum.MinUtilization, sum.MaxUtilization)
	}
	if sum.TotalAllocatedHours != 6280 {
		t.Errorf("Expected 6280 allocated hours, got %v", sum.TotalAllocatedHours)
	}
	if sum.UnassignedTasks != 2 || sum.UnassignedHours != 400 {
		t.Errorf("Expected 2 unassigned / 400h, got %d/%v", sum.UnassignedTasks, sum.UnassignedHours)
	}
	if sum.UnassignedCriticality["high"] != 1 || sum.UnassignedCriticality["normal"] != 1 {
		t.Errorf("Unexpected criticality histogram: %v", sum.UnassignedCriticality)
	}
}

// =============================================================================
// ASSIGNMENTS
// =============================================================================

func TestCreateAssignment_Success(t *testing.T) {
	// GIVEN: The studio scenario
	h, mem := newTestHandler(t)
	router := NewRouter(h, testOrigins)
	loadTestScenario(t, router, "studio")

	// WHEN: The open audit task is assigned to sam
	rec := doJSON(t, router, http.MethodPost, "/api/assignments",
		AssignmentRequest{TaskID: "t-accessibility", EmployeeID: "sam"})

	// THEN: Success with a live transient message
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var msg assign.StatusMessage
	decodeInto(t, rec, &msg)
	if msg.Kind != assign.StatusSuccess {
		t.Errorf("Expected success message, got %s", msg.Kind)
	}
	if msg.ID == "" || !strings.Contains(msg.Text, "Sam Arendt") {
		t.Errorf("Malformed message: %+v", msg)
	}

	// THEN: The store recorded audit and notification
	records := mem.Assignments()
	if len(records) != 1 || records[0].TaskID != "t-accessibility" || records[0].EmployeeID != "sam" {
		t.Errorf("Unexpected audit trail: %+v", records)
	}
	notes := mem.Notifications()
	if len(notes) != 1 || notes[0].Type != "task_assigned" || notes[0].EmployeeID != "sam" {
		t.Errorf("Unexpected notifications: %+v", notes)
	}

	// THEN: The rebuilt derivation reflects the new assignment. Sam now has
	// planned hours, so allocation replaces the actuals fallback.
	rec = doJSON(t, router, http.MethodGet, "/api/employees/sam", nil)
	var detail EmployeeDetailDTO
	decodeInto(t, rec, &detail)
	if len(detail.MatchedTaskIDs) != 2 {
		t.Errorf("Expected 2 matched tasks after assignment, got %v", detail.MatchedTaskIDs)
	}
	if detail.AllocatedHours != 160 || detail.Utilization != 8 {
		t.Errorf("Expected 160 allocated / 8%% utilization, got %v/%d",
			detail.AllocatedHours, detail.Utilization)
	}
}

func TestCreateAssignment_Validation(t *testing.T) {
	h, _ := newTestHandler(t)
	router := NewRouter(h, testOrigins)
	loadTestScenario(t, router, "studio")

	// Unknown task
	rec := doJSON(t, router, http.MethodPost, "/api/assignments",
		AssignmentRequest{TaskID: "ghost", EmployeeID: "sam"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown task, got %d", rec.Code)
	}

	// Unknown employee
	rec = doJSON(t, router, http.MethodPost, "/api/assignments",
		AssignmentRequest{TaskID: "t-accessibility", EmployeeID: "ghost"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown employee, got %d", rec.Code)
	}

	// Missing fields
	rec = doJSON(t, router, http.MethodPost, "/api/assignments", AssignmentRequest{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for empty ids, got %d", rec.Code)
	}

	// Unreadable body
	req := httptest.NewRequest(http.MethodPost, "/api/assignments", strings.NewReader("{nope"))
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req)
	if rec2.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for invalid body, got %d", rec2.Code)
	}
}

// failingTaskStore rejects every assignment, standing in for an
// unreachable system of record.
type failingTaskStore struct{}

func (failingTaskStore) Assign(context.Context, planner.TaskID, planner.EmployeeID, string) error {
	return errors.New("connection refused")
}

func TestCreateAssignment_StoreFailure(t *testing.T) {
	// GIVEN: A facade whose task store is down
	mem := store.NewMemory()
	facade := assign.NewFacade(failingTaskStore{}, mem)
	h := NewHandler(mem, facade)
	h.Now = func() time.Time { return time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC) }
	router := NewRouter(h, testOrigins)
	loadTestScenario(t, router, "studio")

	// WHEN: An assignment is attempted
	rec := doJSON(t, router, http.MethodPost, "/api/assignments",
		AssignmentRequest{TaskID: "t-accessibility", EmployeeID: "sam"})

	// THEN: 502 with an error status message
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("Expected 502, got %d", rec.Code)
	}
	var msg assign.StatusMessage
	decodeInto(t, rec, &msg)
	if msg.Kind != assign.StatusError {
		t.Errorf("Expected error message, got %s", msg.Kind)
	}
	if !strings.Contains(msg.Text, "Could not assign") {
		t.Errorf("Unexpected message text: %s", msg.Text)
	}

	// THEN: No notification went out for the failed write
	if len(mem.Notifications()) != 0 {
		t.Errorf("Expected no notifications, got %d", len(mem.Notifications()))
	}
}

// =============================================================================
// LEVELING AND FORECAST BOUNDARIES
// =============================================================================

type stubLeveler struct {
	gotParams leveling.Params
	gotTasks  int
}

func (s *stubLeveler) RunResourceLeveling(_ context.Context, in leveling.Inputs, p leveling.Params) (leveling.Result, error) {
	s.gotParams = p
	s.gotTasks = len(in.Tasks)
	return leveling.Result{
		OverallUtilization: 76.5,
		TotalMoves:         3,
		TasksMoved:         []planner.TaskID{"t-cms"},
		Summary:            "3 tasks shifted within 14 days",
	}, nil
}

type stubForecaster struct{}

func (stubForecaster) Forecast(_ context.Context, projectID planner.ProjectID) (leveling.Forecast, error) {
	return leveling.Forecast{ProjectID: projectID, IEAC: 1.12, TCPI: 0.94, Confidence: "medium"}, nil
}

func TestLevelingInputs(t *testing.T) {
	// GIVEN: The studio scenario
	h, _ := newTestHandler(t)
	router := NewRouter(h, testOrigins)
	loadTestScenario(t, router, "studio")

	// WHEN: The leveling payload is requested
	rec := doJSON(t, router, http.MethodGet, "/api/leveling/inputs", nil)
	var in leveling.Inputs
	decodeInto(t, rec, &in)

	// THEN: Every seat and every dated work task is schedulable
	if len(in.Resources) != 5 {
		t.Errorf("Expected 5 resources, got %d", len(in.Resources))
	}
	if len(in.Tasks) != 12 {
		t.Errorf("Expected 12 schedulable tasks, got %d", len(in.Tasks))
	}
}

func TestRunLeveling(t *testing.T) {
	// GIVEN: No engine configured
	h, _ := newTestHandler(t)
	router := NewRouter(h, testOrigins)
	loadTestScenario(t, router, "studio")

	rec := doJSON(t, router, http.MethodPost, "/api/leveling/run",
		LevelingRunRequest{MaxShiftDays: 14})

	// THEN: 503
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("Expected 503 without engine, got %d", rec.Code)
	}

	// GIVEN: A configured engine
	eng := &stubLeveler{}
	h.Leveler = eng

	// WHEN: A run is requested
	rec = doJSON(t, router, http.MethodPost, "/api/leveling/run",
		LevelingRunRequest{MaxShiftDays: 14, PreserveCritical: true})

	// THEN: The engine receives the derived inputs and its result comes back
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var res leveling.Result
	decodeInto(t, rec, &res)
	if res.TotalMoves != 3 || res.OverallUtilization != 76.5 {
		t.Errorf("Unexpected result: %+v", res)
	}
	if eng.gotParams.MaxShiftDays != 14 || !eng.gotParams.PreserveCritical {
		t.Errorf("Params not forwarded: %+v", eng.gotParams)
	}
	if eng.gotTasks != 12 {
		t.Errorf("Expected 12 tasks handed to engine, got %d", eng.gotTasks)
	}
}

func TestForecast(t *testing.T) {
	h, _ := newTestHandler(t)
	router := NewRouter(h, testOrigins)
	loadTestScenario(t, router, "studio")

	// No forecaster configured
	rec := doJSON(t, router, http.MethodGet, "/api/forecast/web", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("Expected 503 without forecaster, got %d", rec.Code)
	}

	// Configured
	h.Forecaster = stubForecaster{}
	rec = doJSON(t, router, http.MethodGet, "/api/forecast/web", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var fc leveling.Forecast
	decodeInto(t, rec, &fc)
	if fc.ProjectID != "web" || fc.Confidence != "medium" {
		t.Errorf("Unexpected forecast: %+v", fc)
	}
}

// =============================================================================
// FEED INGESTION AND RESET
// =============================================================================

func TestIngestFeed(t *testing.T) {
	// GIVEN: An upstream document with a variant key and a numeric string
	h, _ := newTestHandler(t)
	router := NewRouter(h, testOrigins)

	doc := `{
		"employees": [{"id": "e1", "name": "Ada Byron", "role": "Engineer"}],
		"tasks": [{"id": "t1", "name": "Pilot", "baselineWork": "520",
			"employeeId": "e1", "startDate": "2026-05-04", "finishDate": "2026-06-01"}]
	}`

	// WHEN: The document is posted
	req := httptest.NewRequest(http.MethodPost, "/api/feed", strings.NewReader(doc))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	// THEN: Ingest succeeds and the summary reflects the coercion
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Status  string `json:"status"`
		Summary struct {
			Employees     int `json:"employees"`
			Tasks         int `json:"tasks"`
			CoercedValues int `json:"coercedValues"`
		} `json:"summary"`
	}
	decodeInto(t, rec, &body)
	if body.Status != "ingested" || body.Summary.Employees != 1 || body.Summary.Tasks != 1 {
		t.Errorf("Unexpected ingest response: %+v", body)
	}
	if body.Summary.CoercedValues != 1 {
		t.Errorf("Expected 1 coerced value, got %d", body.Summary.CoercedValues)
	}

	// THEN: The derivation is live
	rec2 := doJSON(t, router, http.MethodGet, "/api/employees", nil)
	var rows []EmployeeDTO
	decodeInto(t, rec2, &rows)
	if len(rows) != 1 || rows[0].Utilization != 25 {
		t.Errorf("Expected one employee at 25%%, got %+v", rows)
	}

	// Unreadable document
	req = httptest.NewRequest(http.MethodPost, "/api/feed", strings.NewReader("not json"))
	rec3 := httptest.NewRecorder()
	router.ServeHTTP(rec3, req)
	if rec3.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unreadable document, got %d", rec3.Code)
	}
}

func TestReset(t *testing.T) {
	// GIVEN: A loaded scenario
	h, _ := newTestHandler(t)
	router := NewRouter(h, testOrigins)
	loadTestScenario(t, router, "crunch")

	// WHEN: The store is reset
	rec := doJSON(t, router, http.MethodPost, "/api/reset", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	// THEN: Reads report nothing ingested and the scenario is cleared
	rec = doJSON(t, router, http.MethodGet, "/api/employees", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 after reset, got %d", rec.Code)
	}
	rec = doJSON(t, router, http.MethodGet, "/api/scenarios/current", nil)
	if got := strings.TrimSpace(rec.Body.String()); got != "null" {
		t.Errorf("Expected null current scenario, got %s", got)
	}
}

// =============================================================================
// DERIVATION CACHE ORDERING
// =============================================================================

func TestPublish_StaleGenerationDiscarded(t *testing.T) {
	// GIVEN: A newer derivation already published
	h, _ := newTestHandler(t)
	newer := &planner.Derived{}
	older := &planner.Derived{}
	if !h.publish(5, newer) {
		t.Fatal("Publishing the newer generation should succeed")
	}

	// WHEN: An older generation arrives late
	if h.publish(3, older) {
		t.Error("Stale generation must not publish")
	}

	// THEN: The newer derivation stays current
	if got := h.current.Load(); got.d != newer || got.gen != 5 {
		t.Errorf("Expected generation 5 current, got %d", got.gen)
	}
}

func TestReset_TombstoneBlocksStaleRebuild(t *testing.T) {
	// GIVEN: A loaded scenario and its published derivation
	h, _ := newTestHandler(t)
	router := NewRouter(h, testOrigins)
	loadTestScenario(t, router, "studio")
	stale := h.current.Load()

	// WHEN: A reset lands, then the pre-reset derivation tries to republish
	rec := doJSON(t, router, http.MethodPost, "/api/reset", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Reset failed: %d", rec.Code)
	}
	if h.publish(stale.gen, stale.d) {
		t.Error("Pre-reset derivation must not resurrect after reset")
	}

	// THEN: Reads still report nothing ingested
	rec = doJSON(t, router, http.MethodGet, "/api/summary", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 after reset, got %d", rec.Code)
	}
}

// =============================================================================
// REFRESHER
// =============================================================================

func TestRefresher_PicksUpExternalWrite(t *testing.T) {
	// GIVEN: A snapshot written directly to the store, bypassing the API
	h, mem := newTestHandler(t)
	router := NewRouter(h, testOrigins)
	snap := studioScenario(time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC))
	if err := mem.SaveSnapshot(context.Background(), snap); err != nil {
		t.Fatalf("Failed to save snapshot: %v", err)
	}

	// WHEN: A refresh runs
	rf := NewRefresher(h, time.Minute)
	rf.RunNow()

	// THEN: The derivation is visible without a feed POST
	rec := doJSON(t, router, http.MethodGet, "/api/employees", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 after refresh, got %d", rec.Code)
	}
	var rows []EmployeeDTO
	decodeInto(t, rec, &rows)
	if len(rows) != 5 {
		t.Errorf("Expected 5 employees, got %d", len(rows))
	}
}

func TestRefresher_DisabledAndStopIdempotent(t *testing.T) {
	h, _ := newTestHandler(t)

	// Zero interval never starts the loop; Stop on a never-started
	// refresher is a no-op.
	rf := NewRefresher(h, 0)
	rf.Start()
	rf.Stop()
	rf.Stop()
}

func TestRefresher_Loop(t *testing.T) {
	// GIVEN: A running refresher over an initially empty store
	h, mem := newTestHandler(t)
	rf := NewRefresher(h, 5*time.Millisecond)
	rf.Start()
	defer rf.Stop()

	// WHEN: A snapshot appears behind its back
	snap := studioScenario(time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC))
	if err := mem.SaveSnapshot(context.Background(), snap); err != nil {
		t.Fatalf("Failed to save snapshot: %v", err)
	}

	// THEN: A tick publishes it. Polling the cache pointer directly avoids
	// the lazy rebuild a read endpoint would perform.
	deadline := time.Now().Add(2 * time.Second)
	for {
		if cur := h.current.Load(); cur != nil && cur.d != nil {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("Refresher never picked up the snapshot")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
