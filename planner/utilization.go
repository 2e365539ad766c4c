/*
utilization.go - Per-employee workload and capacity computation

PURPOSE:
  Matches tasks to employees and derives allocation numbers against the
  annual capacity constant. This is the foundation the org chart roll-up,
  the task matcher, and the summary all build on.

MATCHING:
  Upstream assignment data is heterogeneous. Two strategies run in order:
    1. Exact match on the task's normalized employee id
    2. Case-insensitive substring of the employee name inside the
       free-text assignment field
  A task matches when either strategy does. QC records match the same way
  against their reviewer/resource fields.

SEE ALSO:
  - types.go: EmployeeMetric, Status thresholds
  - snapshot.go: Derive, which runs this over the whole roster
*/
package planner

import (
	"math"
	"strings"
)

// normalizeName lowercases and trims a name for index keys and comparisons.
func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// normalizeID trims an identifier. Comparison is case-insensitive because
// mixed-case ids show up when feeds pass through spreadsheets.
func normalizeID(s string) string {
	return strings.TrimSpace(s)
}

// TaskMatchesEmployee reports whether a task is assigned to the employee,
// by id first, then by name inside the free-text assignment field.
func TaskMatchesEmployee(t Task, e Employee) bool {
	if id := normalizeID(string(t.EmployeeID)); id != "" {
		if strings.EqualFold(id, normalizeID(string(e.ID))) {
			return true
		}
	}
	name := normalizeName(e.Name)
	if name == "" {
		return false
	}
	return strings.Contains(normalizeName(t.Resource), name)
}

// qcMatchesEmployee applies the same two-strategy matching to a QC record.
func qcMatchesEmployee(q QCTask, e Employee) bool {
	if id := normalizeID(string(q.EmployeeID)); id != "" {
		if strings.EqualFold(id, normalizeID(string(e.ID))) {
			return true
		}
	}
	name := normalizeName(e.Name)
	if name == "" {
		return false
	}
	return strings.Contains(normalizeName(q.Resource), name)
}

// qcPassed reports whether one QC record counts as a pass: explicit "pass"
// status or a score of at least 80.
func qcPassed(q QCTask) bool {
	return strings.EqualFold(strings.TrimSpace(q.Status), "pass") || q.Score >= 80
}

// ComputeMetric derives the workload metric for one employee from the full
// task list. Tasks with a baseline drive allocation; when an employee only
// has actuals (no baselined work), actual hours stand in so utilization
// still reflects reality. Never returns an error; empty inputs yield a
// zero-valued metric with status "available".
func ComputeMetric(e Employee, tasks []Task, qcTasks []QCTask) EmployeeMetric {
	m := EmployeeMetric{EmployeeID: e.ID}

	for _, t := range tasks {
		if !TaskMatchesEmployee(t, e) {
			continue
		}
		m.MatchedTasks = append(m.MatchedTasks, t.ID)
		m.AllocatedHours += t.BaselineHours
		m.ActualHours += t.ActualHours
	}

	m.WorkHours = m.AllocatedHours
	if m.WorkHours == 0 {
		m.WorkHours = m.ActualHours
	}

	m.Utilization = roundPct(m.WorkHours / AnnualCapacityHours * 100)
	m.AvailableHours = math.Max(0, AnnualCapacityHours-m.WorkHours)

	var qcMatched, qcPass int
	for _, q := range qcTasks {
		if !qcMatchesEmployee(q, e) {
			continue
		}
		qcMatched++
		if qcPassed(q) {
			qcPass++
		}
	}
	if qcMatched > 0 {
		rate := math.Round(float64(qcPass) / float64(qcMatched) * 100)
		m.QCPassRate = &rate
	}

	// Status last so it can never disagree with the utilization number.
	m.Status = StatusFor(m.Utilization)
	return m
}

// ComputeMetrics derives metrics for the whole roster.
func ComputeMetrics(employees []Employee, tasks []Task, qcTasks []QCTask) map[EmployeeID]EmployeeMetric {
	out := make(map[EmployeeID]EmployeeMetric, len(employees))
	for _, e := range employees {
		out[e.ID] = ComputeMetric(e, tasks, qcTasks)
	}
	return out
}
