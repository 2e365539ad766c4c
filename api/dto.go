/*
dto.go - Wire types for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

CASING:
  camelCase keys throughout, matching the upstream feed dialect and the
  tagged wire types in assign, feed, and leveling. Those types are already
  API-shaped and pass through as-is; only the untagged planner types get
  DTOs here.

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - assign/status.go: StatusMessage returned verbatim by POST /api/assignments
  - feed/feed.go: Summary returned verbatim by POST /api/feed
*/
package api

import (
	"time"

	"github.com/warp/workforce-engine/planner"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// EmployeeDTO is one row of the utilization table.
type EmployeeDTO struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Role            string   `json:"role,omitempty"`
	Manager         string   `json:"manager,omitempty"`
	ManagementLevel string   `json:"managementLevel,omitempty"`
	Portfolio       string   `json:"portfolio,omitempty"`
	Utilization     int      `json:"utilization"`
	Status          string   `json:"status"`
	AllocatedHours  float64  `json:"allocatedHours"`
	ActualHours     float64  `json:"actualHours"`
	AvailableHours  float64  `json:"availableHours"`
	MatchedTasks    int      `json:"matchedTasks"`
	QCPassRate      *float64 `json:"qcPassRate,omitempty"`
}

// EmployeeDetailDTO adds the matched task ids to the table row.
type EmployeeDetailDTO struct {
	EmployeeDTO
	WorkHours      float64  `json:"workHours"`
	MatchedTaskIDs []string `json:"matchedTaskIds"`
}

// TaskDTO is a schedule row in API responses.
type TaskDTO struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	ProjectID       string   `json:"projectId,omitempty"`
	BaselineHours   float64  `json:"baselineHours"`
	RemainingHours  float64  `json:"remainingHours"`
	PercentComplete float64  `json:"percentComplete"`
	Start           string   `json:"start,omitempty"`
	End             string   `json:"end,omitempty"`
	Resource        string   `json:"resource,omitempty"`
	EmployeeID      string   `json:"employeeId,omitempty"`
	IsCritical      bool     `json:"isCritical"`
	IsLinchpin      bool     `json:"isLinchpin"`
	Priority        string   `json:"priority,omitempty"`
	TotalFloat      *float64 `json:"totalFloat,omitempty"`
}

// SuggestionDTO is one ranked open task for an employee.
type SuggestionDTO struct {
	Task        TaskDTO `json:"task"`
	Criticality string  `json:"criticality"`
	Score       int     `json:"score"`
}

// DemandDTO is one project ranked by how much it needs an employee.
type DemandDTO struct {
	ProjectID       string  `json:"projectId"`
	ProjectName     string  `json:"projectName"`
	Demand          int     `json:"demand"`
	RoleMatches     int     `json:"roleMatches"`
	CriticalTasks   int     `json:"criticalTasks"`
	UnassignedTasks int     `json:"unassignedTasks"`
	UnassignedHours float64 `json:"unassignedHours"`
}

// OrgNodeDTO is one node of the reporting forest.
type OrgNodeDTO struct {
	Employee         EmployeeDTO  `json:"employee"`
	GroupUtilization int          `json:"groupUtilization"`
	Reports          []OrgNodeDTO `json:"reports"`
}

// HeatmapRowDTO is one demand row aligned with the week axis.
type HeatmapRowDTO struct {
	Key    string    `json:"key"`
	Label  string    `json:"label,omitempty"`
	Weekly []float64 `json:"weekly"`
}

// HeatmapDTO carries both aggregations plus the downsampled week axis.
type HeatmapDTO struct {
	WeekStarts   []string        `json:"weekStarts"`
	TotalWeeks   int             `json:"totalWeeks"`
	Stride       int             `json:"stride"`
	ByRole       []HeatmapRowDTO `json:"byRole"`
	ByIndividual []HeatmapRowDTO `json:"byIndividual"`
}

// DependencyCoverageDTO reports how much of the plan carries links.
type DependencyCoverageDTO struct {
	TasksWithPredecessors int `json:"tasksWithPredecessors"`
	TasksWithSuccessors   int `json:"tasksWithSuccessors"`
	ExternalLinks         int `json:"externalLinks"`
}

// SummaryDTO is the portfolio rollup.
type SummaryDTO struct {
	Employees  int `json:"employees"`
	Tasks      int `json:"tasks"`
	Projects   int `json:"projects"`
	Portfolios int `json:"portfolios"`

	StatusCounts      map[string]int `json:"statusCounts"`
	MeanUtilization   float64        `json:"meanUtilization"`
	StdDevUtilization float64        `json:"stdDevUtilization"`
	MinUtilization    float64        `json:"minUtilization"`
	MaxUtilization    float64        `json:"maxUtilization"`

	TotalAllocatedHours float64 `json:"totalAllocatedHours"`
	TotalAvailableHours float64 `json:"totalAvailableHours"`

	UnassignedTasks       int            `json:"unassignedTasks"`
	UnassignedHours       float64        `json:"unassignedHours"`
	UnassignedCriticality map[string]int `json:"unassignedCriticality"`

	Dependencies DependencyCoverageDTO `json:"dependencies"`
}

// AssignmentRequest is the body of POST /api/assignments.
type AssignmentRequest struct {
	TaskID     string `json:"taskId"`
	EmployeeID string `json:"employeeId"`
}

// LevelingRunRequest is the body of POST /api/leveling/run.
type LevelingRunRequest struct {
	MaxShiftDays     int  `json:"maxShiftDays"`
	PreserveCritical bool `json:"preserveCritical"`
}

// ScenarioDTO describes one loadable demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category,omitempty"`
}

// LoadScenarioRequest is the body of POST /api/scenarios/load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenarioId"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toEmployeeDTO(e planner.Employee, m planner.EmployeeMetric) EmployeeDTO {
	return EmployeeDTO{
		ID:              string(e.ID),
		Name:            e.Name,
		Role:            e.Role,
		Manager:         e.Manager,
		ManagementLevel: e.ManagementLevel,
		Portfolio:       e.Portfolio,
		Utilization:     m.Utilization,
		Status:          string(m.Status),
		AllocatedHours:  m.AllocatedHours,
		ActualHours:     m.ActualHours,
		AvailableHours:  m.AvailableHours,
		MatchedTasks:    len(m.MatchedTasks),
		QCPassRate:      m.QCPassRate,
	}
}

func toTaskDTO(t planner.Task) TaskDTO {
	return TaskDTO{
		ID:              string(t.ID),
		Name:            t.Name,
		ProjectID:       string(t.ProjectID),
		BaselineHours:   t.BaselineHours,
		RemainingHours:  t.RemainingHours,
		PercentComplete: t.PercentComplete,
		Start:           fmtDate(t.Start),
		End:             fmtDate(t.End),
		Resource:        t.Resource,
		EmployeeID:      string(t.EmployeeID),
		IsCritical:      t.IsCritical,
		IsLinchpin:      t.IsLinchpin,
		Priority:        t.Priority,
		TotalFloat:      t.TotalFloat,
	}
}

func toOrgNodeDTO(n *planner.OrgNode) OrgNodeDTO {
	dto := OrgNodeDTO{
		Employee:         toEmployeeDTO(n.Employee, n.Metric),
		GroupUtilization: n.GroupUtilization,
		Reports:          []OrgNodeDTO{},
	}
	for _, c := range n.Children {
		dto.Reports = append(dto.Reports, toOrgNodeDTO(c))
	}
	return dto
}

func toHeatmapDTO(h *planner.Heatmap) HeatmapDTO {
	dto := HeatmapDTO{
		WeekStarts:   make([]string, len(h.WeekStarts)),
		TotalWeeks:   h.TotalWeeks,
		Stride:       h.Stride,
		ByRole:       []HeatmapRowDTO{},
		ByIndividual: []HeatmapRowDTO{},
	}
	for i, w := range h.WeekStarts {
		dto.WeekStarts[i] = w.Format("2006-01-02")
	}
	for _, key := range h.RoleKeys() {
		dto.ByRole = append(dto.ByRole, HeatmapRowDTO{Key: key, Weekly: h.ByRole[key]})
	}
	for _, key := range h.IndividualKeys() {
		dto.ByIndividual = append(dto.ByIndividual, HeatmapRowDTO{
			Key:    key,
			Label:  h.Labels[key],
			Weekly: h.ByIndividual[key],
		})
	}
	return dto
}

func toSummaryDTO(s planner.PortfolioSummary) SummaryDTO {
	statusCounts := make(map[string]int, len(s.StatusCounts))
	for k, v := range s.StatusCounts {
		statusCounts[string(k)] = v
	}
	return SummaryDTO{
		Employees:             s.Employees,
		Tasks:                 s.Tasks,
		Projects:              s.Projects,
		Portfolios:            s.Portfolios,
		StatusCounts:          statusCounts,
		MeanUtilization:       s.MeanUtilization,
		StdDevUtilization:     s.StdDevUtilization,
		MinUtilization:        s.MinUtilization,
		MaxUtilization:        s.MaxUtilization,
		TotalAllocatedHours:   s.TotalAllocatedHours,
		TotalAvailableHours:   s.TotalAvailableHours,
		UnassignedTasks:       s.UnassignedTasks,
		UnassignedHours:       s.UnassignedHours,
		UnassignedCriticality: s.UnassignedCriticality,
		Dependencies: DependencyCoverageDTO{
			TasksWithPredecessors: s.Dependencies.TasksWithPredecessors,
			TasksWithSuccessors:   s.Dependencies.TasksWithSuccessors,
			ExternalLinks:         s.Dependencies.ExternalLinks,
		},
	}
}

func fmtDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
