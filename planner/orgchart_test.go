package planner_test

import (
	"testing"

	"github.com/warp/workforce-engine/planner"
)

func metricsFor(employees []planner.Employee, utilizations map[string]int) map[planner.EmployeeID]planner.EmployeeMetric {
	out := make(map[planner.EmployeeID]planner.EmployeeMetric, len(employees))
	for _, e := range employees {
		u := utilizations[string(e.ID)]
		out[e.ID] = planner.EmployeeMetric{
			EmployeeID:  e.ID,
			Utilization: u,
			Status:      planner.StatusFor(u),
		}
	}
	return out
}

func countNodes(forest []*planner.OrgNode) int {
	n := 0
	for _, root := range forest {
		n += 1 + countNodes(root.Children)
	}
	return n
}

// =============================================================================
// FOREST CONSTRUCTION
// =============================================================================

func TestBuildOrgForest_SimpleHierarchy(t *testing.T) {
	// GIVEN: a manager with two reports, referenced with mixed case and
	//        stray whitespace in the manager field
	// WHEN: building the forest
	// THEN: one root with both reports attached

	employees := []planner.Employee{
		emp("m-1", "Dana Ortiz", "Manager", ""),
		emp("e-1", "Alice Chen", "Engineer", "dana ortiz"),
		emp("e-2", "Bob Wu", "Engineer", "  DANA ORTIZ  "),
	}

	forest := planner.BuildOrgForest(employees, metricsFor(employees, nil))

	if len(forest) != 1 {
		t.Fatalf("roots = %d, want 1", len(forest))
	}
	if forest[0].Employee.ID != "m-1" {
		t.Fatalf("root = %s, want m-1", forest[0].Employee.ID)
	}
	if len(forest[0].Children) != 2 {
		t.Errorf("reports = %d, want 2", len(forest[0].Children))
	}
}

func TestBuildOrgForest_CycleYieldsTwoRoots(t *testing.T) {
	// GIVEN: A manages B and B manages A
	// WHEN: building the forest
	// THEN: both are promoted to roots and neither subtree recurses

	employees := []planner.Employee{
		emp("a", "Alice Chen", "Engineer", "Bob Wu"),
		emp("b", "Bob Wu", "Engineer", "Alice Chen"),
	}

	forest := planner.BuildOrgForest(employees, metricsFor(employees, nil))

	if len(forest) != 2 {
		t.Fatalf("roots = %d, want 2", len(forest))
	}
	for _, root := range forest {
		if len(root.Children) != 0 {
			t.Errorf("root %s has %d children, want 0", root.Employee.ID, len(root.Children))
		}
	}
	if countNodes(forest) != 2 {
		t.Errorf("forest holds %d nodes, want 2", countNodes(forest))
	}
}

func TestBuildOrgForest_EveryEmployeeAppearsExactlyOnce(t *testing.T) {
	// GIVEN: a roster mixing a clean chain, a self-manager, a dangling
	//        manager reference, and a three-way cycle
	// THEN: the forest covers the roster with no duplicates and no drops

	employees := []planner.Employee{
		emp("vp", "Dana Ortiz", "VP", ""),
		emp("mgr", "Erik Sand", "Manager", "Dana Ortiz"),
		emp("eng", "Alice Chen", "Engineer", "Erik Sand"),
		emp("self", "Bob Wu", "Engineer", "Bob Wu"),
		emp("lost", "Carol Faye", "Designer", "Quincy Nobody"),
		emp("c1", "Pat One", "Analyst", "Pat Two"),
		emp("c2", "Pat Two", "Analyst", "Pat Three"),
		emp("c3", "Pat Three", "Analyst", "Pat One"),
	}

	forest := planner.BuildOrgForest(employees, metricsFor(employees, nil))

	if got := countNodes(forest); got != len(employees) {
		t.Fatalf("forest holds %d nodes, want %d", got, len(employees))
	}

	seen := map[planner.EmployeeID]int{}
	for _, n := range planner.FlattenForest(forest) {
		seen[n.Employee.ID]++
	}
	for _, e := range employees {
		if seen[e.ID] != 1 {
			t.Errorf("employee %s appears %d times, want 1", e.ID, seen[e.ID])
		}
	}
}

func TestBuildOrgForest_RootsOrderedManagersFirst(t *testing.T) {
	// GIVEN: two managers with three and one reports plus a lone root
	// THEN: roots come out by descending direct-report count

	employees := []planner.Employee{
		emp("lone", "Zoe Park", "Engineer", ""),
		emp("m-small", "Erik Sand", "Manager", ""),
		emp("m-big", "Dana Ortiz", "Manager", ""),
		emp("r-1", "Alice Chen", "Engineer", "Dana Ortiz"),
		emp("r-2", "Bob Wu", "Engineer", "Dana Ortiz"),
		emp("r-3", "Carol Faye", "Engineer", "Dana Ortiz"),
		emp("r-4", "Hal Iris", "Engineer", "Erik Sand"),
	}

	forest := planner.BuildOrgForest(employees, metricsFor(employees, nil))

	if len(forest) != 3 {
		t.Fatalf("roots = %d, want 3", len(forest))
	}
	wantOrder := []planner.EmployeeID{"m-big", "m-small", "lone"}
	for i, want := range wantOrder {
		if forest[i].Employee.ID != want {
			t.Errorf("root[%d] = %s, want %s", i, forest[i].Employee.ID, want)
		}
	}
}

func TestBuildOrgForest_DuplicateNamesResolveToFirst(t *testing.T) {
	// GIVEN: two distinct employees who share a name, and a report whose
	//        manager field carries that name
	// THEN: the report lands under the first occurrence in roster order

	employees := []planner.Employee{
		emp("dana-1", "Dana Ortiz", "Manager", ""),
		emp("dana-2", "Dana Ortiz", "Director", ""),
		emp("e-1", "Alice Chen", "Engineer", "Dana Ortiz"),
	}

	forest := planner.BuildOrgForest(employees, metricsFor(employees, nil))

	var first, second *planner.OrgNode
	for _, root := range forest {
		switch root.Employee.ID {
		case "dana-1":
			first = root
		case "dana-2":
			second = root
		}
	}
	if first == nil || second == nil {
		t.Fatal("both Danas should surface as roots")
	}
	if len(first.Children) != 1 {
		t.Errorf("first Dana has %d reports, want 1", len(first.Children))
	}
	if len(second.Children) != 0 {
		t.Errorf("second Dana has %d reports, want 0", len(second.Children))
	}
}

// =============================================================================
// GROUP UTILIZATION
// =============================================================================

func TestBuildOrgForest_GroupUtilizationAveragesDirectReportsOnly(t *testing.T) {
	// GIVEN: manager at 90, two directs at 60 and 30, one grandchild at 0
	// THEN: the manager's group reads round((90+60+30)/3) = 60, skipping
	//       the grandchild

	employees := []planner.Employee{
		emp("m", "Dana Ortiz", "Manager", ""),
		emp("d-1", "Alice Chen", "Engineer", "Dana Ortiz"),
		emp("d-2", "Bob Wu", "Engineer", "Dana Ortiz"),
		emp("g", "Carol Faye", "Intern", "Alice Chen"),
	}
	utilizations := map[string]int{"m": 90, "d-1": 60, "d-2": 30, "g": 0}

	forest := planner.BuildOrgForest(employees, metricsFor(employees, utilizations))

	if len(forest) != 1 {
		t.Fatalf("roots = %d, want 1", len(forest))
	}
	if got := forest[0].GroupUtilization; got != 60 {
		t.Errorf("group utilization = %d, want 60", got)
	}
}
