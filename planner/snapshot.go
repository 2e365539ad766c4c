/*
snapshot.go - Immutable source snapshot and the full derivation pass

PURPOSE:
  A Snapshot is the read-only world the engine derives from. Derive runs
  every computation in one synchronous pass and returns a fresh Derived
  value; nothing is mutated afterwards, so any number of readers can share
  a Derived while the next one is being built. Supersession is the
  caller's concern (last write wins), cancellation is unnecessary because
  a pass is cheap and always runs to completion.

TASK SETS:
  Summary rows (rolled-up phase/project lines from the upstream plan)
  duplicate their children's hours, so matching and aggregation run over
  WorkTasks, the leaf rows. A task counts as unassigned when it matches no
  employee under either matching strategy.

SEE ALSO:
  - store.go: persistence interface for snapshots
  - utilization.go, orgchart.go, match.go, heatmap.go, summary.go
*/
package planner

import (
	"sort"
	"time"
)

// Snapshot is one consistent view of the source entities.
type Snapshot struct {
	Employees  []Employee
	Tasks      []Task
	Projects   []Project
	Portfolios []Portfolio
	QCTasks    []QCTask
	TakenAt    time.Time
}

// WorkTasks returns the tasks that carry real effort: summary rows are
// excluded so phase roll-ups do not double count their children.
func (s *Snapshot) WorkTasks() []Task {
	out := make([]Task, 0, len(s.Tasks))
	for _, t := range s.Tasks {
		if t.IsSummary {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Employee returns the roster entry for an id, if present.
func (s *Snapshot) Employee(id EmployeeID) (Employee, bool) {
	for _, e := range s.Employees {
		if e.ID == id {
			return e, true
		}
	}
	return Employee{}, false
}

// Task returns the task with the given id, if present.
func (s *Snapshot) Task(id TaskID) (Task, bool) {
	for _, t := range s.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return Task{}, false
}

// Derived bundles every aggregate computed from one snapshot. Values are
// immutable once returned.
type Derived struct {
	Snapshot *Snapshot
	At       time.Time

	Metrics    map[EmployeeID]EmployeeMetric
	Forest     []*OrgNode
	Heatmap    *Heatmap
	Summary    PortfolioSummary
	Unassigned []Task
	Staffing   []ProjectStaffing
	OnProjects map[EmployeeID]map[ProjectID]bool
}

// Derive recomputes every aggregate from scratch. It never fails: malformed
// or empty inputs degrade to empty aggregates.
func Derive(snap *Snapshot, now time.Time) *Derived {
	work := snap.WorkTasks()

	d := &Derived{
		Snapshot:   snap,
		At:         now,
		Metrics:    ComputeMetrics(snap.Employees, work, snap.QCTasks),
		OnProjects: make(map[EmployeeID]map[ProjectID]bool, len(snap.Employees)),
	}

	taskByID := make(map[TaskID]Task, len(work))
	for _, t := range work {
		taskByID[t.ID] = t
	}

	// Project membership and the assigned-task set fall out of the
	// per-employee matches.
	assigned := make(map[TaskID]bool)
	members := make(map[ProjectID]map[EmployeeID]bool)
	for id, m := range d.Metrics {
		projects := make(map[ProjectID]bool)
		for _, tid := range m.MatchedTasks {
			assigned[tid] = true
			t := taskByID[tid]
			if t.ProjectID == "" {
				continue
			}
			projects[t.ProjectID] = true
			if members[t.ProjectID] == nil {
				members[t.ProjectID] = make(map[EmployeeID]bool)
			}
			members[t.ProjectID][id] = true
		}
		d.OnProjects[id] = projects
	}

	for _, t := range work {
		if !assigned[t.ID] {
			d.Unassigned = append(d.Unassigned, t)
		}
	}

	d.Staffing = buildStaffing(snap.Projects, d.Unassigned, members)
	d.Forest = BuildOrgForest(snap.Employees, d.Metrics)
	d.Heatmap = BuildHeatmap(work, snap.Employees, now)
	d.Summary = BuildSummary(snap, work, d.Metrics, d.Unassigned)
	return d
}

// buildStaffing pairs every project with its open tasks and members.
// Projects referenced by tasks but missing from the snapshot get a
// placeholder entry rather than losing their tasks.
func buildStaffing(projects []Project, unassigned []Task, members map[ProjectID]map[EmployeeID]bool) []ProjectStaffing {
	openByProject := make(map[ProjectID][]Task)
	for _, t := range unassigned {
		if t.ProjectID == "" {
			continue
		}
		openByProject[t.ProjectID] = append(openByProject[t.ProjectID], t)
	}

	known := make(map[ProjectID]bool, len(projects))
	var out []ProjectStaffing
	for _, p := range projects {
		known[p.ID] = true
		out = append(out, ProjectStaffing{
			Project:         p,
			UnassignedTasks: openByProject[p.ID],
			Members:         memberSet(members[p.ID]),
		})
	}

	var extra []ProjectID
	for id := range openByProject {
		if !known[id] {
			extra = append(extra, id)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	for _, id := range extra {
		out = append(out, ProjectStaffing{
			Project:         Project{ID: id, Name: string(id)},
			UnassignedTasks: openByProject[id],
			Members:         memberSet(members[id]),
		})
	}
	return out
}

func memberSet(m map[EmployeeID]bool) map[EmployeeID]bool {
	if m == nil {
		return map[EmployeeID]bool{}
	}
	return m
}

// SuggestFor runs SuggestTasks with this derivation's context for the
// given employee.
func (d *Derived) SuggestFor(id EmployeeID) []TaskSuggestion {
	e, ok := d.Snapshot.Employee(id)
	if !ok {
		return nil
	}
	return SuggestTasks(e, d.Metrics[id], d.OnProjects[id], d.Unassigned)
}

// DemandFor runs TeamsNeeding with this derivation's context for the
// given employee.
func (d *Derived) DemandFor(id EmployeeID) []TeamDemand {
	e, ok := d.Snapshot.Employee(id)
	if !ok {
		return nil
	}
	return TeamsNeeding(e, d.Staffing)
}
