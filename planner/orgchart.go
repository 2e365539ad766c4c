/*
orgchart.go - Reporting-hierarchy forest construction

PURPOSE:
  Builds the org chart from flat employee records whose manager field is a
  free-text name. The data is noisy: names repeat, managers are missing,
  and reporting loops exist in real imports. Construction must terminate on
  any input and place every employee exactly once.

ALGORITHM:
  1. Index employees by normalized name; first occurrence wins on duplicates
  2. Roots: manager empty, unresolvable, or pointing at the employee itself
  3. Recurse from roots; a visited set guarantees single placement and
     breaks management cycles
  4. Second pass promotes anyone still unplaced (cycle with no reachable
     root) to an additional root, then builds their subtree the same way
  5. Roots sort managers-first by descending direct-report count, stable

GROUP UTILIZATION:
  Each node carries the average utilization over itself plus its direct
  reports only, not the whole subtree. That is what a staffing lead looks
  at when deciding whether one team has slack.
*/
package planner

import "sort"

// OrgNode is one employee in the reporting forest.
type OrgNode struct {
	Employee         Employee
	Metric           EmployeeMetric
	Children         []*OrgNode
	GroupUtilization int
}

// BuildOrgForest constructs the reporting forest. Metrics may be nil; nodes
// then carry zero metrics and zero group utilization. The returned roots are
// ordered managers first (by direct-report count, descending, stable), with
// individual contributors last.
func BuildOrgForest(employees []Employee, metrics map[EmployeeID]EmployeeMetric) []*OrgNode {
	if len(employees) == 0 {
		return nil
	}

	// Name index, first match wins. Duplicate names are a documented
	// limitation of name-keyed manager references.
	byName := make(map[string]Employee, len(employees))
	for _, e := range employees {
		key := normalizeName(e.Name)
		if key == "" {
			continue
		}
		if _, ok := byName[key]; !ok {
			byName[key] = e
		}
	}

	visited := make(map[EmployeeID]bool, len(employees))

	var build func(e Employee) *OrgNode
	build = func(e Employee) *OrgNode {
		visited[e.ID] = true
		node := &OrgNode{Employee: e}
		if metrics != nil {
			node.Metric = metrics[e.ID]
		}

		parentName := normalizeName(e.Name)
		for _, candidate := range employees {
			if visited[candidate.ID] || candidate.ID == e.ID {
				continue
			}
			if parentName != "" && normalizeName(candidate.Manager) == parentName {
				node.Children = append(node.Children, build(candidate))
			}
		}

		node.GroupUtilization = groupUtilization(node)
		return node
	}

	isRoot := func(e Employee) bool {
		mgr := normalizeName(e.Manager)
		if mgr == "" {
			return true
		}
		resolved, ok := byName[mgr]
		if !ok {
			return true
		}
		return resolved.ID == e.ID
	}

	var roots []*OrgNode
	for _, e := range employees {
		if !visited[e.ID] && isRoot(e) {
			roots = append(roots, build(e))
		}
	}

	// Promotion pass: members of rootless cycles become roots themselves,
	// so nobody is ever dropped from the chart.
	for _, e := range employees {
		if !visited[e.ID] {
			roots = append(roots, build(e))
		}
	}

	sort.SliceStable(roots, func(i, j int) bool {
		return len(roots[i].Children) > len(roots[j].Children)
	})
	return roots
}

// groupUtilization averages utilization over the node and its direct
// reports. Rounded the same way as the underlying percentages.
func groupUtilization(n *OrgNode) int {
	total := n.Metric.Utilization
	count := 1
	for _, c := range n.Children {
		total += c.Metric.Utilization
		count++
	}
	return roundPct(float64(total) / float64(count))
}

// FlattenForest returns every node of the forest in depth-first order.
// Handy for views that want a list with the tree shape preserved.
func FlattenForest(roots []*OrgNode) []*OrgNode {
	var out []*OrgNode
	var walk func(n *OrgNode)
	walk = func(n *OrgNode) {
		out = append(out, n)
		for _, c := range n.Children {
			walk(c)
		}
	}
	for _, r := range roots {
		walk(r)
	}
	return out
}
