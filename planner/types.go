/*
Package planner provides the core allocation derivation engine.

PURPOSE:
  This package contains the pure domain types and algorithms that turn a
  snapshot of employees, tasks, and projects into allocation insight:
  per-employee utilization, the reporting-hierarchy forest, ranked task
  suggestions, cross-team demand, and the weekly capacity heatmap.

KEY CONCEPTS IN THIS FILE (types.go):
  - Employee/Task/Project/Portfolio/QCTask: canonical source entities,
    already normalized by the feed layer (field-name variants resolved,
    numbers coerced, dates parsed)
  - EmployeeMetric: derived workload numbers plus a load status
  - Status: fixed utilization thresholds shared by every view
  - Typed IDs: prevent mixing task/employee/project identifiers

DESIGN PRINCIPLES:
  1. Purity: everything here is computed from an immutable Snapshot; no
     function in this package performs I/O or logging
  2. Tolerance: source data comes from hand-edited imports, so matching is
     lenient (name substrings, nullable float, missing fields) and no
     derivation ever returns an error
  3. Determinism: every ambiguity (duplicate names, cycles, ties) resolves
     via a documented deterministic rule, never via failure

USAGE:
  snap := &planner.Snapshot{Employees: emps, Tasks: tasks}
  d := planner.Derive(snap, time.Now())
  m := d.Metrics["emp-001"]

SEE ALSO:
  - utilization.go: task matching and EmployeeMetric computation
  - orgchart.go: reporting forest construction
  - match.go: task suggestions and team demand
  - heatmap.go: weekly effort apportionment
*/
package planner

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// AnnualCapacityHours is the planning capacity of one employee for one year:
// 8 hours x 5 days x 52 weeks. Utilization and availability are expressed
// against this constant.
const AnnualCapacityHours = 2080.0

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID string
type TaskID string
type ProjectID string
type PortfolioID string

// =============================================================================
// SOURCE ENTITIES (canonical, post-normalization)
// =============================================================================

// Employee is one person from the roster. Manager is a free-text name
// reference, not an id; the upstream systems only carry names there.
type Employee struct {
	ID              EmployeeID
	Name            string
	Role            string
	Manager         string
	ManagementLevel string
	Portfolio       string
}

// TaskLink is one edge of the schedule network (predecessor or successor).
type TaskLink struct {
	TaskID       TaskID
	Relationship string // FS, SS, FF, SF
	LagDays      float64
	External     bool
}

// Task is one schedule row. Assignment may arrive two ways: EmployeeID when
// the source system is normalized, or Resource free text ("Alice, Bob",
// "Senior Engineer") from spreadsheet-grade imports. Both are honored.
type Task struct {
	ID        TaskID
	Name      string
	ProjectID ProjectID

	// Plan hierarchy as emitted by the upstream parser.
	ParentID      TaskID
	OutlineLevel  int
	HierarchyType string // project, unit, phase, task
	IsSummary     bool

	BaselineHours   float64
	ActualHours     float64
	ProjectedHours  float64
	RemainingHours  float64
	PercentComplete float64

	Start time.Time
	End   time.Time

	Resource   string // free-text assignment field
	EmployeeID EmployeeID

	// Criticality signals. TotalFloat is nil when the source had no slack
	// value; a missing float must not classify the task as critical.
	IsCritical bool
	IsLinchpin bool
	Priority   string
	TotalFloat *float64

	Predecessors []TaskLink
	Successors   []TaskLink

	BaselineCost  decimal.Decimal
	ActualCost    decimal.Decimal
	RemainingCost decimal.Decimal

	Comments string
}

// Dated reports whether the task has a usable schedule window.
func (t Task) Dated() bool {
	return !t.Start.IsZero() && !t.End.IsZero() && t.End.After(t.Start)
}

// DurationDays returns the task window length in days (0 when undated).
func (t Task) DurationDays() float64 {
	if !t.Dated() {
		return 0
	}
	return t.End.Sub(t.Start).Hours() / 24
}

// Project is one delivery container for tasks.
type Project struct {
	ID          ProjectID
	Name        string
	PortfolioID PortfolioID
	Manager     string
	Start       time.Time
	End         time.Time
}

// Portfolio groups projects; parent references allow a portfolio tree.
type Portfolio struct {
	ID       PortfolioID
	Name     string
	ParentID PortfolioID
}

// QCTask is one quality-control record referencing an employee either by id
// or by free-text resource name.
type QCTask struct {
	ID         string
	TaskID     TaskID
	EmployeeID EmployeeID
	Resource   string
	Status     string
	Score      float64
}

// =============================================================================
// DERIVED - EMPLOYEE METRIC
// =============================================================================

// Status is the load classification of one employee.
type Status string

const (
	StatusAvailable  Status = "available"
	StatusOptimal    Status = "optimal"
	StatusBusy       Status = "busy"
	StatusOverloaded Status = "overloaded"
)

// StatusFor maps a utilization percentage onto its Status. Thresholds are
// fixed: >100 overloaded, >85 busy, >50 optimal, else available.
func StatusFor(utilization int) Status {
	switch {
	case utilization > 100:
		return StatusOverloaded
	case utilization > 85:
		return StatusBusy
	case utilization > 50:
		return StatusOptimal
	default:
		return StatusAvailable
	}
}

// EmployeeMetric is the derived workload picture for one employee.
// QCPassRate is nil when no QC records matched; callers must distinguish
// "no data" from "0% pass rate".
type EmployeeMetric struct {
	EmployeeID     EmployeeID
	AllocatedHours float64
	ActualHours    float64
	WorkHours      float64
	Utilization    int
	AvailableHours float64
	Status         Status
	MatchedTasks   []TaskID
	QCPassRate     *float64
}

// roundPct mirrors the rounding used everywhere a percentage is derived:
// round-half-away-from-zero on a non-negative value.
func roundPct(v float64) int {
	return int(math.Round(v))
}
