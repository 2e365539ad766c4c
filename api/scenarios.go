/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built snapshots that populate the store with realistic
	data for testing and demos. Each scenario seeds a roster and a work
	plan that demonstrates specific engine behavior.

AVAILABLE SCENARIOS:

	studio:  Small design studio with mixed load across every status band
	crunch:  Overloaded portfolio with a backlog of critical unassigned work
	tangle:  Manager cycle and duplicate names exercising org-forest repair

HOW SCENARIOS WORK:
 1. Reset store (clear all data)
 2. Build the seed snapshot relative to the current date
 3. Save snapshot and rebuild the derivation

USAGE VIA API:

	POST /api/scenarios/load
	{"scenarioId": "crunch"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Create builder function: xxxScenario(now) *planner.Snapshot
 3. Add case to LoadScenario handler

NOTE:

	Scenarios reset the store. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: derivation cache the loaders rebuild
  - planner/orgchart.go: promotion rules the tangle scenario exercises
*/
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/workforce-engine/planner"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "studio",
		Name:        "Design Studio",
		Description: "Five-person studio with load spread across every status band",
		Category:    "balanced",
	},
	{
		ID:          "crunch",
		Name:        "Launch Crunch",
		Description: "Overloaded team facing a backlog of critical unassigned work",
		Category:    "overload",
	},
	{
		ID:          "tangle",
		Name:        "Org Tangle",
		Description: "Manager cycle and duplicate names in the reporting data",
		Category:    "orgchart",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	id := h.currentScenarioID()
	if id == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == id {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario resets the store and seeds the requested scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	now := h.now()
	var snap *planner.Snapshot
	switch req.ScenarioID {
	case "studio":
		snap = studioScenario(now)
	case "crunch":
		snap = crunchScenario(now)
	case "tangle":
		snap = tangleScenario(now)
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	ctx := r.Context()
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset store", err)
		return
	}
	if err := h.Store.SaveSnapshot(ctx, snap); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save scenario", err)
		return
	}
	if err := h.Rebuild(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to rebuild derivation", err)
		return
	}

	h.setScenario(req.ScenarioID)
	h.Log.Infof("scenario %q loaded: %d employees, %d tasks",
		req.ScenarioID, len(snap.Employees), len(snap.Tasks))

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// =============================================================================
// SCENARIO BUILDERS
// =============================================================================

// day returns midnight UTC of today shifted by offset days. Scenario
// windows float with the clock so heatmaps always show live weeks.
func day(now time.Time, offset int) time.Time {
	base := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return base.AddDate(0, 0, offset)
}

func seedTask(id, name string, project planner.ProjectID, hours float64, employee planner.EmployeeID, resource string, start, end time.Time) planner.Task {
	return planner.Task{
		ID:             planner.TaskID(id),
		Name:           name,
		ProjectID:      project,
		HierarchyType:  "task",
		OutlineLevel:   2,
		BaselineHours:  hours,
		RemainingHours: hours,
		Start:          start,
		End:            end,
		EmployeeID:     employee,
		Resource:       resource,
		BaselineCost:   decimal.NewFromFloat(hours * 95),
	}
}

// studioScenario seeds a five-person studio whose utilizations land in all
// four status bands, with a little open work to suggest.
func studioScenario(now time.Time) *planner.Snapshot {
	snap := &planner.Snapshot{
		TakenAt: now,
		Employees: []planner.Employee{
			{ID: "mara", Name: "Mara Voss", Role: "Creative Director", ManagementLevel: "M2", Portfolio: "Studio"},
			{ID: "theo", Name: "Theo Brandt", Role: "Designer", Manager: "Mara Voss", Portfolio: "Studio"},
			{ID: "ines", Name: "Ines Kroll", Role: "Designer", Manager: "Mara Voss", Portfolio: "Studio"},
			{ID: "jonas", Name: "Jonas Pohl", Role: "Engineer", Manager: "Mara Voss", Portfolio: "Studio"},
			{ID: "sam", Name: "Sam Arendt", Role: "QA Analyst", Manager: "Mara Voss", Portfolio: "Studio"},
		},
		Projects: []planner.Project{
			{ID: "brand", Name: "Brand Refresh", PortfolioID: "studio", Manager: "Mara Voss",
				Start: day(now, -30), End: day(now, 60)},
			{ID: "web", Name: "Web Platform", PortfolioID: "studio", Manager: "Mara Voss",
				Start: day(now, -14), End: day(now, 90)},
		},
		Portfolios: []planner.Portfolio{
			{ID: "studio", Name: "Studio Portfolio"},
		},
	}

	snap.Tasks = []planner.Task{
		// Mara reviews across both projects, lightly loaded.
		seedTask("t-review-1", "Creative direction brand", "brand", 300, "mara", "Mara Voss", day(now, -30), day(now, 30)),
		seedTask("t-review-2", "Creative direction web", "web", 280, "mara", "Mara Voss", day(now, 0), day(now, 60)),

		// Theo is overloaded.
		seedTask("t-identity", "Identity system", "brand", 800, "theo", "Theo Brandt", day(now, -21), day(now, 21)),
		seedTask("t-guidelines", "Brand guidelines", "brand", 900, "theo", "Theo Brandt", day(now, 0), day(now, 60)),
		seedTask("t-web-visual", "Web visual language", "web", 600, "theo", "Theo Brandt", day(now, 14), day(now, 75)),

		// Ines sits in the optimal band.
		seedTask("t-collateral", "Launch collateral", "brand", 700, "ines", "Ines Kroll", day(now, -7), day(now, 40)),
		seedTask("t-components", "Component library", "web", 800, "ines", "Ines Kroll", day(now, 7), day(now, 80)),

		// Jonas is busy.
		seedTask("t-frontend", "Frontend build", "web", 1000, "jonas", "Jonas Pohl", day(now, -14), day(now, 50)),
		seedTask("t-cms", "CMS integration", "web", 900, "jonas", "Jonas Pohl", day(now, 20), day(now, 90)),

		// Sam has no planned allocation; actuals carry the load.
		{
			ID: "t-qa-sweep", Name: "Exploratory QA sweep", ProjectID: "web",
			HierarchyType: "task", OutlineLevel: 2,
			ActualHours: 800, PercentComplete: 60,
			Start: day(now, -14), End: day(now, 30),
			EmployeeID: "sam", Resource: "Sam Arendt",
		},

		// Open work for suggestions.
		seedTask("t-motion", "Motion graphics explainer", "brand", 240, "", "Designer", day(now, 7), day(now, 35)),
		seedTask("t-accessibility", "Accessibility audit", "web", 160, "", "", day(now, 14), day(now, 42)),
	}
	snap.Tasks[len(snap.Tasks)-2].Priority = "high"

	snap.QCTasks = []planner.QCTask{
		{ID: "qc-1", TaskID: "t-identity", EmployeeID: "theo", Status: "pass", Score: 88},
		{ID: "qc-2", TaskID: "t-collateral", EmployeeID: "ines", Status: "pass", Score: 91},
		{ID: "qc-3", TaskID: "t-frontend", EmployeeID: "jonas", Status: "fail", Score: 74},
		{ID: "qc-4", TaskID: "t-qa-sweep", EmployeeID: "sam", Status: "", Score: 85},
	}
	return snap
}

// crunchScenario seeds an overloaded launch team plus a generated backlog
// of critical unassigned engineering work.
func crunchScenario(now time.Time) *planner.Snapshot {
	snap := &planner.Snapshot{
		TakenAt: now,
		Employees: []planner.Employee{
			{ID: "lena", Name: "Lena Hartwig", Role: "Engineering Manager", ManagementLevel: "M1", Portfolio: "Launch"},
			{ID: "noah", Name: "Noah Kessler", Role: "Engineer", Manager: "Lena Hartwig", Portfolio: "Launch"},
			{ID: "faye", Name: "Faye Okafor", Role: "Engineer", Manager: "Lena Hartwig", Portfolio: "Launch"},
			{ID: "remy", Name: "Remy Castel", Role: "Data Engineer", Manager: "Lena Hartwig", Portfolio: "Launch"},
		},
		Projects: []planner.Project{
			{ID: "atlas", Name: "Atlas Launch", PortfolioID: "launch", Manager: "Lena Hartwig",
				Start: day(now, -45), End: day(now, 30)},
		},
		Portfolios: []planner.Portfolio{
			{ID: "launch", Name: "Launch Portfolio"},
		},
	}

	snap.Tasks = []planner.Task{
		seedTask("t-cutover", "Cutover plan", "atlas", 500, "lena", "Lena Hartwig", day(now, -30), day(now, 14)),
		seedTask("t-runbook", "Launch runbook", "atlas", 420, "lena", "Lena Hartwig", day(now, -14), day(now, 21)),
		seedTask("t-api-hard", "API hardening", "atlas", 1400, "noah", "Noah Kessler", day(now, -45), day(now, 7)),
		seedTask("t-perf", "Performance fixes", "atlas", 1200, "noah", "Noah Kessler", day(now, -21), day(now, 21)),
		seedTask("t-billing", "Billing pipeline", "atlas", 1300, "faye", "Faye Okafor", day(now, -30), day(now, 14)),
		seedTask("t-webhooks", "Webhook delivery", "atlas", 1100, "faye", "Faye Okafor", day(now, -14), day(now, 28)),
		seedTask("t-migrate", "Data migration", "atlas", 1500, "remy", "Remy Castel", day(now, -45), day(now, 0)),
		seedTask("t-replicate", "Replication monitor", "atlas", 900, "remy", "Remy Castel", day(now, -7), day(now, 28)),
	}

	// Critical path work nobody owns yet. Generated ids keep demo reloads
	// from colliding with the named plan rows.
	zero := 0.0
	backlog := []struct {
		name     string
		hours    float64
		resource string
		critical bool
		linchpin bool
		slack    *float64
	}{
		{"Failover drill", 200, "Engineer", true, false, nil},
		{"Rate limiter", 260, "Engineer", true, false, nil},
		{"Incident tooling", 180, "Engineer", false, true, nil},
		{"Ledger reconciliation", 320, "Data Engineer", false, false, &zero},
		{"Rollback automation", 240, "Engineer", true, false, nil},
		{"Launch telemetry", 160, "", false, false, &zero},
	}
	for i, b := range backlog {
		t := seedTask(uuid.NewString(), b.name, "atlas", b.hours, "", b.resource,
			day(now, 3*i), day(now, 3*i+21))
		t.IsCritical = b.critical
		t.IsLinchpin = b.linchpin
		t.TotalFloat = b.slack
		snap.Tasks = append(snap.Tasks, t)
	}
	return snap
}

// tangleScenario seeds reporting data with a manager cycle and duplicate
// names, the two repairs the org forest has to make.
func tangleScenario(now time.Time) *planner.Snapshot {
	snap := &planner.Snapshot{
		TakenAt: now,
		Employees: []planner.Employee{
			// Rowan and Avery manage each other.
			{ID: "rowan", Name: "Rowan Pike", Role: "Lead", Manager: "Avery Quinn", Portfolio: "Ops"},
			{ID: "avery", Name: "Avery Quinn", Role: "Lead", Manager: "Rowan Pike", Portfolio: "Ops"},

			// Two distinct people named Dana Mills; reports resolve to the
			// first by roster order.
			{ID: "dana-1", Name: "Dana Mills", Role: "Manager", ManagementLevel: "M1", Portfolio: "Ops"},
			{ID: "dana-2", Name: "Dana Mills", Role: "Analyst", Manager: "Rowan Pike", Portfolio: "Ops"},
			{ID: "kit", Name: "Kit Marlow", Role: "Analyst", Manager: "Dana Mills", Portfolio: "Ops"},
			{ID: "juno", Name: "Juno Vance", Role: "Analyst", Manager: "Dana Mills", Portfolio: "Ops"},

			// Clean chain for contrast.
			{ID: "sol", Name: "Sol Ferreira", Role: "Coordinator", Manager: "Avery Quinn", Portfolio: "Ops"},
		},
		Projects: []planner.Project{
			{ID: "ops-review", Name: "Operations Review", PortfolioID: "ops",
				Start: day(now, -10), End: day(now, 45)},
		},
		Portfolios: []planner.Portfolio{
			{ID: "ops", Name: "Operations"},
		},
	}

	seats := []struct {
		id    planner.EmployeeID
		name  string
		hours float64
	}{
		{"rowan", "Rowan Pike", 1700},
		{"avery", "Avery Quinn", 1500},
		{"dana-1", "Dana Mills", 1100},
		{"dana-2", "Dana Mills", 1900},
		{"kit", "Kit Marlow", 1300},
		{"juno", "Juno Vance", 700},
		{"sol", "Sol Ferreira", 2200},
	}
	for i, s := range seats {
		snap.Tasks = append(snap.Tasks, seedTask(
			fmt.Sprintf("t-ops-%d", i+1), fmt.Sprintf("Workstream %d", i+1), "ops-review",
			s.hours, s.id, s.name, day(now, -10), day(now, 45)))
	}
	return snap
}
