/*
Package feed decodes upstream project-plan exports into a planner.Snapshot.

PURPOSE:
  The parser service that digests .mpp files emits one JSON document per
  plan. The document's entity arrays are stable; the keys inside each task
  object are not. Exporter versions rename fields (baselineHours vs
  baseline_hours vs baselineWork), quote numbers, and omit whole sections.
  This package owns the variant tables and coercion rules that turn any of
  those shapes into the one canonical model the planner computes on.

DOCUMENT SHAPE:
  {
    "project":    {...},          optional plan header
    "employees":  [{...}, ...],
    "tasks":      [{...}, ...],   open maps, variant keys
    "projects":   [{...}, ...],
    "portfolios": [{...}, ...],
    "qcTasks":    [{...}, ...]
  }

KEY FEATURES:
  - Field-variant tables mapping every known exporter key to its canonical
    field
  - Numeric coercion through shopspring/decimal; costs stay decimal
  - Summary rows (is_summary) are decoded but flagged so aggregation can
    exclude their rolled-up hours
  - Dependency links preserved with relationship type, lag, and the
    external-plan marker
  - Malformed rows are skipped, not fatal; only an unreadable top-level
    document errors
  - Every decode returns an ingest Summary for operators

USAGE:
  snap, sum, err := feed.Decode(r)
  if err != nil { ... }
  log.Infof("ingested %d tasks (%d skipped)", sum.Tasks, sum.SkippedRows)

SEE ALSO:
  - coerce.go: value extraction helpers
  - planner/snapshot.go: what the decoded snapshot feeds into
*/
package feed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/warp/workforce-engine/planner"
)

// =============================================================================
// FIELD-VARIANT TABLES
// =============================================================================
// One slice per canonical field, most common exporter key first.

var (
	taskIDKeys        = []string{"id", "taskId", "task_id", "uid"}
	taskNameKeys      = []string{"name", "taskName", "task_name", "title"}
	taskProjectKeys   = []string{"projectId", "project_id", "project"}
	taskParentKeys    = []string{"parentId", "parent_id", "parentTaskId"}
	outlineKeys       = []string{"outlineLevel", "outline_level"}
	hierarchyKeys     = []string{"hierarchyType", "hierarchy_type"}
	summaryFlagKeys   = []string{"isSummary", "is_summary", "summary"}
	baselineHourKeys  = []string{"baselineHours", "baseline_hours", "baselineWork", "baseline_work"}
	actualHourKeys    = []string{"actualHours", "actual_hours", "actualWork"}
	projectedHourKeys = []string{"projectedHours", "projected_hours", "projectedWork"}
	remainingHourKeys = []string{"remainingHours", "remaining_hours", "remainingWork"}
	percentKeys       = []string{"percentComplete", "percent_complete", "pctComplete"}
	startKeys         = []string{"startDate", "start_date", "start"}
	endKeys           = []string{"finishDate", "finish_date", "endDate", "end_date", "finish", "end"}
	resourceKeys      = []string{"assignedTo", "assignedResource", "assigned_resource", "resource", "resources"}
	employeeIDKeys    = []string{"employeeId", "employee_id", "resourceId", "resource_id"}
	criticalKeys      = []string{"isCritical", "is_critical", "critical"}
	linchpinKeys      = []string{"isLinchpin", "is_linchpin", "linchpin"}
	priorityKeys      = []string{"priority"}
	totalFloatKeys    = []string{"totalFloat", "total_float", "totalSlack", "total_slack", "slack"}
	predecessorKeys   = []string{"predecessors", "preds"}
	successorKeys     = []string{"successors", "succs"}
	baselineCostKeys  = []string{"baselineCost", "baseline_cost"}
	actualCostKeys    = []string{"actualCost", "actual_cost"}
	remainingCostKeys = []string{"remainingCost", "remaining_cost"}
	commentKeys       = []string{"comments", "notes"}

	linkTaskKeys     = []string{"taskId", "task_id", "id"}
	linkRelationKeys = []string{"relationship", "type", "rel"}
	linkLagKeys      = []string{"lagDays", "lag_days", "lag"}
	linkExternalKeys = []string{"isExternal", "is_external", "external"}

	// personIDKeys identifies an employee row; employeeIDKeys above is the
	// reference FROM a task and must not match the task's own "id".
	personIDKeys      = []string{"id", "employeeId", "employee_id"}
	personNameKeys    = []string{"name", "fullName", "full_name"}
	personRoleKeys    = []string{"role", "title", "jobTitle"}
	personManagerKeys = []string{"manager", "managerName", "manager_name", "reportsTo"}
	personLevelKeys   = []string{"managementLevel", "management_level", "level"}
	portfolioRefKeys  = []string{"portfolio", "portfolioId", "portfolio_id"}

	genericIDKeys   = []string{"id"}
	genericNameKeys = []string{"name", "title"}
	managerRefKeys  = []string{"manager", "managerName", "projectManager"}
	parentRefKeys   = []string{"parentId", "parent_id"}

	qcTaskRefKeys = []string{"taskId", "task_id"}
	qcStatusKeys  = []string{"status", "result"}
	qcScoreKeys   = []string{"score", "qualityScore"}
)

// =============================================================================
// INGEST SUMMARY
// =============================================================================

// Summary reports what one decode pass produced. Returned to API callers
// after POST /api/feed so operators can see how a plan landed.
type Summary struct {
	Employees   int `json:"employees"`
	Tasks       int `json:"tasks"`
	SummaryRows int `json:"summaryRows"`
	Projects    int `json:"projects"`
	Portfolios  int `json:"portfolios"`
	QCTasks     int `json:"qcTasks"`

	HierarchyTypes map[string]int `json:"hierarchyTypes"`

	TasksWithPredecessors int `json:"tasksWithPredecessors"`
	TasksWithSuccessors   int `json:"tasksWithSuccessors"`
	ExternalLinks         int `json:"externalLinks"`

	CoercedValues int `json:"coercedValues"`
	SkippedRows   int `json:"skippedRows"`
}

// =============================================================================
// DECODING
// =============================================================================

// document is the top-level wire shape. Entity rows stay open maps; the
// variant tables above do the interpretation.
type document struct {
	Project    map[string]any   `json:"project"`
	Employees  []map[string]any `json:"employees"`
	Tasks      []map[string]any `json:"tasks"`
	Projects   []map[string]any `json:"projects"`
	Portfolios []map[string]any `json:"portfolios"`
	QCTasks    []map[string]any `json:"qcTasks"`
}

type decoder struct {
	sum Summary
}

// Decode reads one feed document. Malformed rows degrade (counted in the
// summary); only an unreadable top-level document returns an error.
func Decode(r io.Reader) (*planner.Snapshot, Summary, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, Summary{}, fmt.Errorf("decode feed document: %w", err)
	}
	snap, sum := decodeDocument(doc)
	return snap, sum, nil
}

// DecodeBytes is Decode over an in-memory document.
func DecodeBytes(b []byte) (*planner.Snapshot, Summary, error) {
	return Decode(bytes.NewReader(b))
}

func decodeDocument(doc document) (*planner.Snapshot, Summary) {
	d := &decoder{}
	d.sum.HierarchyTypes = make(map[string]int)

	snap := &planner.Snapshot{TakenAt: time.Now().UTC()}

	for _, row := range doc.Employees {
		if e, ok := d.employee(row); ok {
			snap.Employees = append(snap.Employees, e)
			d.sum.Employees++
		} else {
			d.sum.SkippedRows++
		}
	}
	for _, row := range doc.Tasks {
		if t, ok := d.task(row); ok {
			snap.Tasks = append(snap.Tasks, t)
			d.sum.Tasks++
			if t.IsSummary {
				d.sum.SummaryRows++
			}
			if ht := strings.ToLower(t.HierarchyType); ht != "" {
				d.sum.HierarchyTypes[ht]++
			}
			if len(t.Predecessors) > 0 {
				d.sum.TasksWithPredecessors++
			}
			if len(t.Successors) > 0 {
				d.sum.TasksWithSuccessors++
			}
			for _, l := range t.Predecessors {
				if l.External {
					d.sum.ExternalLinks++
				}
			}
			for _, l := range t.Successors {
				if l.External {
					d.sum.ExternalLinks++
				}
			}
		} else {
			d.sum.SkippedRows++
		}
	}
	for _, row := range doc.Projects {
		if p, ok := d.project(row); ok {
			snap.Projects = append(snap.Projects, p)
			d.sum.Projects++
		} else {
			d.sum.SkippedRows++
		}
	}
	for _, row := range doc.Portfolios {
		if p, ok := d.portfolio(row); ok {
			snap.Portfolios = append(snap.Portfolios, p)
			d.sum.Portfolios++
		} else {
			d.sum.SkippedRows++
		}
	}
	for _, row := range doc.QCTasks {
		if q, ok := d.qcTask(row); ok {
			snap.QCTasks = append(snap.QCTasks, q)
			d.sum.QCTasks++
		} else {
			d.sum.SkippedRows++
		}
	}

	d.adoptPlanHeader(doc.Project, snap)

	return snap, d.sum
}

// adoptPlanHeader folds the optional singular project block in: it becomes
// a Project row when absent from the projects array, and tasks without a
// project reference inherit it.
func (d *decoder) adoptPlanHeader(row map[string]any, snap *planner.Snapshot) {
	if row == nil {
		return
	}
	header, ok := d.project(row)
	if !ok {
		return
	}

	known := false
	for _, p := range snap.Projects {
		if p.ID == header.ID {
			known = true
			break
		}
	}
	if !known {
		snap.Projects = append(snap.Projects, header)
		d.sum.Projects++
	}

	for i := range snap.Tasks {
		if snap.Tasks[i].ProjectID == "" {
			snap.Tasks[i].ProjectID = header.ID
		}
	}
}

// =============================================================================
// ENTITY BUILDERS
// =============================================================================

// rowIdentity resolves the id with a name fallback so rows missing one of
// the two still land somewhere addressable. A row with neither is
// unusable and gets skipped.
func (d *decoder) rowIdentity(row map[string]any, idKeys, nameKeys []string) (id, name string, ok bool) {
	id = d.text(row, idKeys)
	name = d.text(row, nameKeys)
	if id == "" {
		id = name
	}
	return id, name, id != ""
}

func (d *decoder) employee(row map[string]any) (planner.Employee, bool) {
	id, name, ok := d.rowIdentity(row, personIDKeys, personNameKeys)
	if !ok {
		return planner.Employee{}, false
	}
	return planner.Employee{
		ID:              planner.EmployeeID(id),
		Name:            name,
		Role:            d.text(row, personRoleKeys),
		Manager:         d.text(row, personManagerKeys),
		ManagementLevel: d.text(row, personLevelKeys),
		Portfolio:       d.text(row, portfolioRefKeys),
	}, true
}

func (d *decoder) task(row map[string]any) (planner.Task, bool) {
	id, name, ok := d.rowIdentity(row, taskIDKeys, taskNameKeys)
	if !ok {
		return planner.Task{}, false
	}

	t := planner.Task{
		ID:            planner.TaskID(id),
		Name:          name,
		ProjectID:     planner.ProjectID(d.text(row, taskProjectKeys)),
		ParentID:      planner.TaskID(d.text(row, taskParentKeys)),
		OutlineLevel:  d.whole(row, outlineKeys),
		HierarchyType: strings.ToLower(d.text(row, hierarchyKeys)),
		IsSummary:     d.flag(row, summaryFlagKeys),

		BaselineHours:   d.number(row, baselineHourKeys),
		ActualHours:     d.number(row, actualHourKeys),
		ProjectedHours:  d.number(row, projectedHourKeys),
		RemainingHours:  d.number(row, remainingHourKeys),
		PercentComplete: d.number(row, percentKeys),

		Start: d.when(row, startKeys),
		End:   d.when(row, endKeys),

		Resource:   d.text(row, resourceKeys),
		EmployeeID: planner.EmployeeID(d.text(row, employeeIDKeys)),

		IsCritical: d.flag(row, criticalKeys),
		IsLinchpin: d.flag(row, linchpinKeys),
		Priority:   d.text(row, priorityKeys),

		Predecessors: d.links(row, predecessorKeys),
		Successors:   d.links(row, successorKeys),

		BaselineCost:  d.money(row, baselineCostKeys),
		ActualCost:    d.money(row, actualCostKeys),
		RemainingCost: d.money(row, remainingCostKeys),

		Comments: d.text(row, commentKeys),
	}

	if f, ok := d.numberOK(row, totalFloatKeys); ok {
		t.TotalFloat = &f
	}

	return t, true
}

// links decodes a dependency array. Entries that are not objects or have
// no task reference are dropped; an unknown relationship defaults to FS,
// the overwhelmingly common case in real plans.
func (d *decoder) links(row map[string]any, keys []string) []planner.TaskLink {
	v, ok := pick(row, keys)
	if !ok {
		return nil
	}
	entries, ok := v.([]any)
	if !ok {
		return nil
	}

	var out []planner.TaskLink
	for _, entry := range entries {
		lr, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		target := d.text(lr, linkTaskKeys)
		if target == "" {
			continue
		}
		rel := strings.ToUpper(d.text(lr, linkRelationKeys))
		switch rel {
		case "FS", "SS", "FF", "SF":
		default:
			rel = "FS"
		}
		out = append(out, planner.TaskLink{
			TaskID:       planner.TaskID(target),
			Relationship: rel,
			LagDays:      d.number(lr, linkLagKeys),
			External:     d.flag(lr, linkExternalKeys),
		})
	}
	return out
}

func (d *decoder) project(row map[string]any) (planner.Project, bool) {
	id, name, ok := d.rowIdentity(row, genericIDKeys, genericNameKeys)
	if !ok {
		return planner.Project{}, false
	}
	return planner.Project{
		ID:          planner.ProjectID(id),
		Name:        name,
		PortfolioID: planner.PortfolioID(d.text(row, portfolioRefKeys)),
		Manager:     d.text(row, managerRefKeys),
		Start:       d.when(row, startKeys),
		End:         d.when(row, endKeys),
	}, true
}

func (d *decoder) portfolio(row map[string]any) (planner.Portfolio, bool) {
	id, name, ok := d.rowIdentity(row, genericIDKeys, genericNameKeys)
	if !ok {
		return planner.Portfolio{}, false
	}
	return planner.Portfolio{
		ID:       planner.PortfolioID(id),
		Name:     name,
		ParentID: planner.PortfolioID(d.text(row, parentRefKeys)),
	}, true
}

func (d *decoder) qcTask(row map[string]any) (planner.QCTask, bool) {
	id, _, ok := d.rowIdentity(row, genericIDKeys, genericNameKeys)
	if !ok {
		return planner.QCTask{}, false
	}
	return planner.QCTask{
		ID:         id,
		TaskID:     planner.TaskID(d.text(row, qcTaskRefKeys)),
		EmployeeID: planner.EmployeeID(d.text(row, employeeIDKeys)),
		Resource:   d.text(row, resourceKeys),
		Status:     d.text(row, qcStatusKeys),
		Score:      d.number(row, qcScoreKeys),
	}, true
}
