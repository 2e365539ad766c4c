package planner_test

import (
	"testing"
	"time"

	"github.com/warp/workforce-engine/planner"
)

var heatmapBase = time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

func day(offset int) time.Time { return heatmapBase.AddDate(0, 0, offset) }

func datedTask(id string, startDay, endDay int, hours float64, employeeID, resource string) planner.Task {
	return planner.Task{
		ID:            planner.TaskID(id),
		Name:          id,
		Start:         day(startDay),
		End:           day(endDay),
		BaselineHours: hours,
		EmployeeID:    planner.EmployeeID(employeeID),
		Resource:      resource,
	}
}

// =============================================================================
// APPORTIONMENT
// =============================================================================

func TestBuildHeatmap_WeeklyShareOnOverlappedBucketsOnly(t *testing.T) {
	// GIVEN: a 30-hour task covering the first two weeks of a three-week
	//        axis (a second task stretches the axis)
	// THEN: its row reads [15, 15, 0]; the share lands only on overlapped
	//       buckets and is never prorated

	roster := []planner.Employee{emp("e-1", "Alice Chen", "Engineer", "")}
	tasks := []planner.Task{
		datedTask("t-span", 0, 14, 30, "e-1", ""),
		datedTask("t-tail", 14, 21, 7, "", ""),
	}

	h := planner.BuildHeatmap(tasks, roster, heatmapBase)

	if h.TotalWeeks != 3 {
		t.Fatalf("total weeks = %d, want 3", h.TotalWeeks)
	}
	row := h.ByIndividual["e-1"]
	if len(row) != 3 {
		t.Fatalf("row length = %d, want 3", len(row))
	}
	want := []float64{15, 15, 0}
	for i := range want {
		if row[i] != want[i] {
			t.Errorf("week %d = %v, want %v", i, row[i], want[i])
		}
	}
	if got := h.ByRole["Engineer"][1]; got != 15 {
		t.Errorf("role row week 1 = %v, want 15", got)
	}
	if got := h.ByRole[planner.UnassignedKey][2]; got != 7 {
		t.Errorf("unassigned week 2 = %v, want 7", got)
	}
}

func TestBuildHeatmap_AxisSpansEarliestToLatest(t *testing.T) {
	// GIVEN: tasks whose dates cover days 7..35
	// THEN: the axis starts at the earliest start and covers 4 weeks

	tasks := []planner.Task{
		datedTask("late", 28, 35, 10, "", ""),
		datedTask("early", 7, 14, 10, "", ""),
	}

	h := planner.BuildHeatmap(tasks, nil, heatmapBase)

	if !h.WeekStarts[0].Equal(day(7)) {
		t.Errorf("axis start = %v, want %v", h.WeekStarts[0], day(7))
	}
	if h.TotalWeeks != 4 {
		t.Errorf("total weeks = %d, want 4", h.TotalWeeks)
	}
}

// =============================================================================
// DOWNSAMPLING AND FALLBACK
// =============================================================================

func TestBuildHeatmap_LongRangeDownsampledToCap(t *testing.T) {
	// GIVEN: a single task spanning 100 weeks
	// THEN: stride 4 keeps every 4th bucket, 25 displayed, tail visible

	roster := []planner.Employee{emp("e-1", "Alice Chen", "Engineer", "")}
	tasks := []planner.Task{datedTask("long", 0, 700, 1000, "e-1", "")}

	h := planner.BuildHeatmap(tasks, roster, heatmapBase)

	if h.TotalWeeks != 100 {
		t.Fatalf("total weeks = %d, want 100", h.TotalWeeks)
	}
	if h.Stride != 4 {
		t.Errorf("stride = %d, want 4", h.Stride)
	}
	if len(h.WeekStarts) != 25 {
		t.Fatalf("displayed weeks = %d, want 25", len(h.WeekStarts))
	}
	if len(h.WeekStarts) > planner.HeatmapMaxBuckets {
		t.Errorf("displayed weeks %d exceed cap %d", len(h.WeekStarts), planner.HeatmapMaxBuckets)
	}
	if !h.WeekStarts[24].Equal(day(96 * 7)) {
		t.Errorf("last bucket = %v, want %v", h.WeekStarts[24], day(96*7))
	}

	// 1000 hours over 100 weeks: every sampled bucket still reads the full
	// weekly share of 10.
	row := h.ByIndividual["e-1"]
	if len(row) != 25 {
		t.Fatalf("row length = %d, want 25", len(row))
	}
	for i, v := range row {
		if v != 10 {
			t.Errorf("sampled week %d = %v, want 10", i, v)
		}
	}
}

func TestBuildHeatmap_FallbackAxisWhenNothingDated(t *testing.T) {
	// GIVEN: only undated tasks and a dated one without baselined hours
	// THEN: a 12-week axis anchored at the current date, empty rows

	tasks := []planner.Task{
		{ID: "undated", BaselineHours: 40},
		datedTask("zero-hours", 0, 7, 0, "", ""),
	}

	h := planner.BuildHeatmap(tasks, nil, heatmapBase)

	if h.TotalWeeks != planner.HeatmapFallbackWeeks {
		t.Fatalf("total weeks = %d, want %d", h.TotalWeeks, planner.HeatmapFallbackWeeks)
	}
	if len(h.WeekStarts) != planner.HeatmapFallbackWeeks {
		t.Errorf("displayed weeks = %d, want %d", len(h.WeekStarts), planner.HeatmapFallbackWeeks)
	}
	if !h.WeekStarts[0].Equal(heatmapBase) {
		t.Errorf("axis start = %v, want the injected now", h.WeekStarts[0])
	}
	if len(h.ByRole) != 0 || len(h.ByIndividual) != 0 {
		t.Errorf("rows = (%d, %d), want empty", len(h.ByRole), len(h.ByIndividual))
	}
}

// =============================================================================
// ASSIGNEE RESOLUTION
// =============================================================================

func TestBuildHeatmap_MultiAssigneeSplitsEvenly(t *testing.T) {
	// GIVEN: a one-week 40-hour task listing the primary assignee again in
	//        the free-text field plus a second person with another role
	// THEN: each individual receives 20; roles aggregate separately

	roster := []planner.Employee{
		emp("e-1", "Alice Chen", "Engineer", ""),
		emp("e-2", "Bob Wu", "Designer", ""),
	}
	tasks := []planner.Task{
		datedTask("shared", 0, 7, 40, "e-1", "Alice Chen and Bob Wu"),
	}

	h := planner.BuildHeatmap(tasks, roster, heatmapBase)

	if got := h.ByIndividual["e-1"][0]; got != 20 {
		t.Errorf("alice week 0 = %v, want 20", got)
	}
	if got := h.ByIndividual["e-2"][0]; got != 20 {
		t.Errorf("bob week 0 = %v, want 20", got)
	}
	if got := h.ByRole["Engineer"][0]; got != 20 {
		t.Errorf("engineer row = %v, want 20", got)
	}
	if got := h.ByRole["Designer"][0]; got != 20 {
		t.Errorf("designer row = %v, want 20", got)
	}
	if h.Labels["e-2"] != "Bob Wu" {
		t.Errorf("label for e-2 = %q, want Bob Wu", h.Labels["e-2"])
	}
}

func TestBuildHeatmap_UnresolvableNamesKeepTheirHours(t *testing.T) {
	// GIVEN: an assignment naming a rostered person and an unknown one
	// THEN: the unknown keeps a row under their raw name with the
	//       Unassigned role rather than vanishing

	roster := []planner.Employee{emp("e-1", "Alice Chen", "Engineer", "")}
	tasks := []planner.Task{
		datedTask("mixed", 0, 7, 30, "", "Alice Chen; Zorro Unknown"),
	}

	h := planner.BuildHeatmap(tasks, roster, heatmapBase)

	if got := h.ByIndividual["e-1"][0]; got != 15 {
		t.Errorf("alice = %v, want 15", got)
	}
	if got := h.ByIndividual["Zorro Unknown"][0]; got != 15 {
		t.Errorf("zorro = %v, want 15", got)
	}
	if got := h.ByRole[planner.UnassignedKey][0]; got != 15 {
		t.Errorf("unassigned role row = %v, want 15", got)
	}
}

func TestBuildHeatmap_NoAssigneeFallsToSentinel(t *testing.T) {
	// GIVEN: a dated task with neither an employee id nor assignment text
	// THEN: all hours land under the Unassigned sentinel

	h := planner.BuildHeatmap([]planner.Task{datedTask("orphan", 0, 7, 24, "", "")}, nil, heatmapBase)

	if got := h.ByIndividual[planner.UnassignedKey][0]; got != 24 {
		t.Errorf("sentinel = %v, want 24", got)
	}
	if h.Labels[planner.UnassignedKey] != planner.UnassignedKey {
		t.Errorf("sentinel label = %q", h.Labels[planner.UnassignedKey])
	}
}
