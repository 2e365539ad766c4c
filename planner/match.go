/*
match.go - Ranking unassigned work against people, and people against teams

PURPOSE:
  Two per-employee greedy heuristics, both built on the criticality
  classifier and the utilization metric:

    SuggestTasks    which open tasks fit this person best
    TeamsNeeding    which projects most need this person

  Neither performs cross-employee fairness or conflict resolution; they
  rank options for one person at a time.

SCORING (SuggestTasks):
  criticality x 10
  +20 when the task belongs to a project the employee already works on
  +15 when the task names a required resource (non-trivial role match)
  +10 when the task fits in the employee's remaining available hours

DEMAND (TeamsNeeding):
  3 x role-matching unassigned tasks
  +5 x critical unassigned tasks
  +1 x every unassigned task
*/
package planner

import (
	"sort"
	"strings"
)

// MaxSuggestions caps the list returned by SuggestTasks.
const MaxSuggestions = 8

// MaxTeamDemands caps the list returned by TeamsNeeding.
const MaxTeamDemands = 5

// TaskSuggestion is one ranked open task for an employee.
type TaskSuggestion struct {
	Task        Task
	Criticality Criticality
	Score       int
}

// TeamDemand is one project ranked by how much it needs an employee.
type TeamDemand struct {
	Project         Project
	Demand          int
	RoleMatches     int
	CriticalTasks   int
	UnassignedTasks int
	UnassignedHours float64
}

// ProjectStaffing pairs a project with its open tasks and current members.
// Assembled during derivation; see snapshot.go.
type ProjectStaffing struct {
	Project         Project
	UnassignedTasks []Task
	Members         map[EmployeeID]bool
}

// roleCompatible reports whether an employee role satisfies a task's
// required-resource string. An empty requirement accepts anyone; otherwise
// the two strings must contain each other case-insensitively in at least
// one direction ("Engineer" matches "Senior Engineer" and vice versa).
func roleCompatible(role, resource string) bool {
	res := normalizeName(resource)
	if res == "" {
		return true
	}
	r := normalizeName(role)
	return strings.Contains(res, r) || strings.Contains(r, res)
}

// SuggestTasks ranks unassigned tasks for one employee. onProjects is the
// set of projects the employee already works on (from derivation); metric
// supplies the remaining available hours. At most MaxSuggestions results,
// highest score first, stable for equal scores.
func SuggestTasks(e Employee, metric EmployeeMetric, onProjects map[ProjectID]bool, unassigned []Task) []TaskSuggestion {
	var out []TaskSuggestion
	for _, t := range unassigned {
		if !roleCompatible(e.Role, t.Resource) {
			continue
		}
		c := Classify(t)
		score := c.Score() * 10
		if onProjects[t.ProjectID] {
			score += 20
		}
		if strings.TrimSpace(t.Resource) != "" {
			score += 15
		}
		if t.BaselineHours <= metric.AvailableHours {
			score += 10
		}
		out = append(out, TaskSuggestion{Task: t, Criticality: c, Score: score})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	if len(out) > MaxSuggestions {
		out = out[:MaxSuggestions]
	}
	return out
}

// TeamsNeeding ranks projects that could use the employee, excluding the
// ones they already staff. Only projects with positive demand are returned,
// highest demand first, stable, at most MaxTeamDemands.
func TeamsNeeding(e Employee, staffing []ProjectStaffing) []TeamDemand {
	var out []TeamDemand
	for _, ps := range staffing {
		if ps.Members[e.ID] {
			continue
		}

		d := TeamDemand{Project: ps.Project}
		for _, t := range ps.UnassignedTasks {
			d.UnassignedTasks++
			d.UnassignedHours += t.BaselineHours
			if strings.TrimSpace(t.Resource) != "" && roleCompatible(e.Role, t.Resource) {
				d.RoleMatches++
			}
			if Classify(t) == CriticalityCritical {
				d.CriticalTasks++
			}
		}

		d.Demand = d.RoleMatches*3 + d.CriticalTasks*5 + d.UnassignedTasks
		if d.Demand > 0 {
			out = append(out, d)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Demand > out[j].Demand
	})
	if len(out) > MaxTeamDemands {
		out = out[:MaxTeamDemands]
	}
	return out
}
