/*
heatmap.go - Week-bucketed apportionment of planned effort

PURPOSE:
  Produces the role-by-week and person-by-week hour matrices used to spot
  over- and under-allocation windows.

AXIS:
  7-day buckets spanning [earliest start, latest end] over dated tasks with
  positive baseline hours. With no such tasks the axis falls back to 12
  weeks anchored at the current date; the chart never renders empty. Long
  ranges are downsampled to at most 30 displayed buckets by keeping every
  Nth bucket (N = ceil(totalWeeks/30)); the tail is never truncated.

APPORTIONMENT:
  hoursPerWeek = baselineHours / max(1, round(durationDays/7)). Every
  bucket whose window overlaps [start, end) receives the full weekly share;
  overlap is binary, not prorated by partial-week fraction.

ASSIGNEES:
  The assignment field may list several people separated by comma,
  semicolon, or the word "and". An employee id, when present, is the
  primary assignee. The weekly share divides evenly across all identified
  individuals. Names that resolve in the roster adopt that person's role;
  everything unresolvable lands under the "Unassigned" key instead of
  being dropped.
*/
package planner

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"time"
)

const (
	// HeatmapMaxBuckets caps how many week columns a view receives.
	HeatmapMaxBuckets = 30
	// HeatmapFallbackWeeks sizes the axis when no task is dated.
	HeatmapFallbackWeeks = 12
	// UnassignedKey buckets effort with no resolvable owner.
	UnassignedKey = "Unassigned"
)

var assigneeSeparator = regexp.MustCompile(`(?i)[,;]|\band\b`)

// Heatmap is the derived weekly effort matrix. Rows in ByRole and
// ByIndividual are aligned with WeekStarts (already downsampled). Labels
// maps individual keys to display names.
type Heatmap struct {
	WeekStarts []time.Time
	TotalWeeks int
	Stride     int

	ByRole       map[string][]float64
	ByIndividual map[string][]float64
	Labels       map[string]string
}

// RoleKeys returns the by-role row keys sorted for stable presentation.
func (h *Heatmap) RoleKeys() []string { return sortedKeys(h.ByRole) }

// IndividualKeys returns the by-individual row keys sorted for stable
// presentation.
func (h *Heatmap) IndividualKeys() []string { return sortedKeys(h.ByIndividual) }

func sortedKeys(rows map[string][]float64) []string {
	keys := make([]string, 0, len(rows))
	for k := range rows {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type heatmapAssignee struct {
	key  string
	name string
	role string
}

// BuildHeatmap derives the weekly matrices from the task list. now anchors
// the fallback axis and is injected for testability.
func BuildHeatmap(tasks []Task, roster []Employee, now time.Time) *Heatmap {
	byID := make(map[EmployeeID]Employee, len(roster))
	byName := make(map[string]Employee, len(roster))
	for _, e := range roster {
		byID[e.ID] = e
		key := normalizeName(e.Name)
		if key == "" {
			continue
		}
		if _, ok := byName[key]; !ok {
			byName[key] = e
		}
	}

	var dated []Task
	for _, t := range tasks {
		if t.Dated() && t.BaselineHours > 0 {
			dated = append(dated, t)
		}
	}

	var axisStart time.Time
	totalWeeks := 0
	if len(dated) == 0 {
		axisStart = now
		totalWeeks = HeatmapFallbackWeeks
	} else {
		axisStart = dated[0].Start
		axisEnd := dated[0].End
		for _, t := range dated[1:] {
			if t.Start.Before(axisStart) {
				axisStart = t.Start
			}
			if t.End.After(axisEnd) {
				axisEnd = t.End
			}
		}
		spanDays := axisEnd.Sub(axisStart).Hours() / 24
		totalWeeks = int(math.Ceil(spanDays / 7))
		if totalWeeks < 1 {
			totalWeeks = 1
		}
	}

	byRole := make(map[string][]float64)
	byIndividual := make(map[string][]float64)
	labels := make(map[string]string)

	row := func(rows map[string][]float64, key string) []float64 {
		r, ok := rows[key]
		if !ok {
			r = make([]float64, totalWeeks)
			rows[key] = r
		}
		return r
	}

	week := 7 * 24 * time.Hour
	for _, t := range dated {
		weeks := math.Max(1, math.Round(t.DurationDays()/7))
		perWeek := t.BaselineHours / weeks

		people := resolveAssignees(t, byID, byName)
		split := perWeek / float64(len(people))

		for i := 0; i < totalWeeks; i++ {
			bucketStart := axisStart.Add(time.Duration(i) * week)
			bucketEnd := bucketStart.Add(week)
			if !bucketStart.Before(t.End) || !bucketEnd.After(t.Start) {
				continue
			}
			for _, p := range people {
				row(byRole, p.role)[i] += split
				row(byIndividual, p.key)[i] += split
				labels[p.key] = p.name
			}
		}
	}

	h := &Heatmap{
		TotalWeeks:   totalWeeks,
		Stride:       1,
		ByRole:       byRole,
		ByIndividual: byIndividual,
		Labels:       labels,
	}

	// Downsample long ranges: keep every Nth bucket so the full range stays
	// visible at reduced resolution.
	if totalWeeks > HeatmapMaxBuckets {
		h.Stride = int(math.Ceil(float64(totalWeeks) / HeatmapMaxBuckets))
	}
	var sampled []int
	for i := 0; i < totalWeeks; i += h.Stride {
		sampled = append(sampled, i)
	}

	h.WeekStarts = make([]time.Time, len(sampled))
	for out, i := range sampled {
		h.WeekStarts[out] = axisStart.Add(time.Duration(i) * week)
	}
	if h.Stride > 1 {
		h.ByRole = sampleRows(byRole, sampled)
		h.ByIndividual = sampleRows(byIndividual, sampled)
	}
	return h
}

func sampleRows(rows map[string][]float64, sampled []int) map[string][]float64 {
	out := make(map[string][]float64, len(rows))
	for k, full := range rows {
		r := make([]float64, len(sampled))
		for j, i := range sampled {
			r[j] = full[i]
		}
		out[k] = r
	}
	return out
}

// resolveAssignees identifies every individual on a task. The employee id
// is primary when present; additional names parsed from the free-text field
// are secondary. Always returns at least one entry (the unassigned
// sentinel) so no effort is dropped.
func resolveAssignees(t Task, byID map[EmployeeID]Employee, byName map[string]Employee) []heatmapAssignee {
	var people []heatmapAssignee
	seen := make(map[string]bool)

	add := func(a heatmapAssignee) {
		if a.role == "" {
			a.role = UnassignedKey
		}
		if seen[a.key] {
			return
		}
		seen[a.key] = true
		people = append(people, a)
	}

	var primary *Employee
	if id := normalizeID(string(t.EmployeeID)); id != "" {
		if e, ok := byID[EmployeeID(id)]; ok {
			primary = &e
			add(heatmapAssignee{key: string(e.ID), name: e.Name, role: e.Role})
		} else {
			add(heatmapAssignee{key: id, name: id, role: UnassignedKey})
		}
	}

	for _, raw := range assigneeSeparator.Split(t.Resource, -1) {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		if primary != nil && normalizeName(name) == normalizeName(primary.Name) {
			continue
		}
		if e, ok := byName[normalizeName(name)]; ok {
			if primary != nil && e.ID == primary.ID {
				continue
			}
			add(heatmapAssignee{key: string(e.ID), name: e.Name, role: e.Role})
			continue
		}
		add(heatmapAssignee{key: name, name: name, role: UnassignedKey})
	}

	if len(people) == 0 {
		add(heatmapAssignee{key: UnassignedKey, name: UnassignedKey, role: UnassignedKey})
	}
	return people
}
