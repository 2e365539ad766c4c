/*
summary.go - Portfolio-wide rollup statistics

PURPOSE:
  One aggregate view across the whole snapshot for dashboards and the
  report command: headcounts, the utilization distribution, load-status
  and criticality histograms, and how much of the schedule network is
  actually linked (plans imported from spreadsheets often lose their
  dependencies, which matters when judging criticality classifications).
*/
package planner

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DependencyCoverage describes how much of the plan's schedule network
// survived the import.
type DependencyCoverage struct {
	TasksWithPredecessors int
	TasksWithSuccessors   int
	ExternalLinks         int
}

// PortfolioSummary is the rollup over one derivation.
type PortfolioSummary struct {
	Employees  int
	Tasks      int
	Projects   int
	Portfolios int

	StatusCounts      map[Status]int
	MeanUtilization   float64
	StdDevUtilization float64
	MinUtilization    float64
	MaxUtilization    float64

	TotalAllocatedHours float64
	TotalAvailableHours float64

	UnassignedTasks       int
	UnassignedHours       float64
	UnassignedCriticality map[string]int

	Dependencies DependencyCoverage
}

// BuildSummary computes the rollup. An empty roster yields a zero-valued
// summary; no statistic ever comes back NaN.
func BuildSummary(snap *Snapshot, work []Task, metrics map[EmployeeID]EmployeeMetric, unassigned []Task) PortfolioSummary {
	s := PortfolioSummary{
		Employees:             len(snap.Employees),
		Tasks:                 len(work),
		Projects:              len(snap.Projects),
		Portfolios:            len(snap.Portfolios),
		StatusCounts:          make(map[Status]int),
		UnassignedCriticality: make(map[string]int),
	}

	utils := make([]float64, 0, len(snap.Employees))
	for _, e := range snap.Employees {
		m := metrics[e.ID]
		utils = append(utils, float64(m.Utilization))
		s.StatusCounts[m.Status]++
		s.TotalAllocatedHours += m.AllocatedHours
		s.TotalAvailableHours += m.AvailableHours
	}
	if len(utils) > 0 {
		s.MeanUtilization = stat.Mean(utils, nil)
		s.MinUtilization = floats.Min(utils)
		s.MaxUtilization = floats.Max(utils)
	}
	if len(utils) > 1 {
		s.StdDevUtilization = stat.StdDev(utils, nil)
	}

	s.UnassignedTasks = len(unassigned)
	for _, t := range unassigned {
		s.UnassignedHours += t.BaselineHours
		s.UnassignedCriticality[Classify(t).String()]++
	}

	for _, t := range work {
		if len(t.Predecessors) > 0 {
			s.Dependencies.TasksWithPredecessors++
		}
		if len(t.Successors) > 0 {
			s.Dependencies.TasksWithSuccessors++
		}
		for _, l := range t.Predecessors {
			if l.External {
				s.Dependencies.ExternalLinks++
			}
		}
		for _, l := range t.Successors {
			if l.External {
				s.Dependencies.ExternalLinks++
			}
		}
	}
	return s
}
