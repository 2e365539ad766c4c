/*
Package leveling is the boundary to the external resource-leveling and
forecasting algorithms.

PURPOSE:
  The engine does not level resources or forecast completion itself; a
  separate optimization service owns those algorithms. This package derives
  the inputs that service consumes from the canonical model and defines the
  narrow interfaces the API layer calls. When no implementation is wired,
  the endpoints report the capability as unavailable.

SEE ALSO:
  - api/handlers.go: endpoint wiring, 503 when not configured
  - planner/utilization.go: source of the committed/available numbers
*/
package leveling

import (
	"context"
	"errors"
	"time"

	"github.com/warp/workforce-engine/planner"
)

// ErrNotConfigured is returned by the API layer when no engine or
// forecaster implementation is wired.
var ErrNotConfigured = errors.New("leveling engine not configured")

// ResourceInput is one employee's capacity picture.
type ResourceInput struct {
	EmployeeID     planner.EmployeeID `json:"employeeId"`
	Name           string             `json:"name"`
	Role           string             `json:"role"`
	CapacityHours  float64            `json:"capacityHours"`
	CommittedHours float64            `json:"committedHours"`
	AvailableHours float64            `json:"availableHours"`
}

// TaskInput is one schedulable task: its window, effort, owner, and how
// expensive it is to move.
type TaskInput struct {
	TaskID           planner.TaskID     `json:"taskId"`
	ProjectID        planner.ProjectID  `json:"projectId"`
	Start            time.Time          `json:"start"`
	End              time.Time          `json:"end"`
	Hours            float64            `json:"hours"`
	AssigneeID       planner.EmployeeID `json:"assigneeId"`
	CriticalityScore int                `json:"criticalityScore"`
}

// Inputs is the complete payload handed to the external algorithm.
type Inputs struct {
	Resources []ResourceInput `json:"resources"`
	Tasks     []TaskInput     `json:"tasks"`
}

// Params tunes one leveling run.
type Params struct {
	// MaxShiftDays bounds how far a task window may move.
	MaxShiftDays int `json:"maxShiftDays"`
	// PreserveCritical keeps critical-path tasks pinned.
	PreserveCritical bool `json:"preserveCritical"`
}

// Result is what the external algorithm reports back.
type Result struct {
	OverallUtilization float64          `json:"overallUtilization"`
	TotalMoves         int              `json:"totalMoves"`
	TasksMoved         []planner.TaskID `json:"tasksMoved"`
	Summary            string           `json:"summary"`
}

// Forecast is a completion forecast for one project.
type Forecast struct {
	ProjectID  planner.ProjectID `json:"projectId"`
	IEAC       float64           `json:"ieac"`
	TCPI       float64           `json:"tcpi"`
	Confidence string            `json:"confidence"`
}

// Engine runs resource leveling somewhere else.
type Engine interface {
	RunResourceLeveling(ctx context.Context, in Inputs, p Params) (Result, error)
}

// Forecaster produces completion forecasts somewhere else.
type Forecaster interface {
	Forecast(ctx context.Context, projectID planner.ProjectID) (Forecast, error)
}

// DeriveInputs assembles the leveling payload. Only dated work tasks are
// schedulable; everything else has no window to move.
func DeriveInputs(tasks []planner.Task, employees []planner.Employee, metrics map[planner.EmployeeID]planner.EmployeeMetric) Inputs {
	var in Inputs

	for _, e := range employees {
		m := metrics[e.ID]
		in.Resources = append(in.Resources, ResourceInput{
			EmployeeID:     e.ID,
			Name:           e.Name,
			Role:           e.Role,
			CapacityHours:  planner.AnnualCapacityHours,
			CommittedHours: m.WorkHours,
			AvailableHours: m.AvailableHours,
		})
	}

	for _, t := range tasks {
		if t.IsSummary || !t.Dated() {
			continue
		}
		in.Tasks = append(in.Tasks, TaskInput{
			TaskID:           t.ID,
			ProjectID:        t.ProjectID,
			Start:            t.Start,
			End:              t.End,
			Hours:            t.BaselineHours,
			AssigneeID:       t.EmployeeID,
			CriticalityScore: planner.Classify(t).Score(),
		})
	}

	return in
}
