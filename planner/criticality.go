/*
criticality.go - Scheduling-importance classification for tasks

PURPOSE:
  A single total order used everywhere unassigned work is ranked. The
  precedence is fixed and never re-evaluated per caller:

    Critical (explicit flag OR zero/negative total float)   score 4
    Linchpin (explicit flag OR more than 3 successors)      score 3
    High     (priority field "high")                        score 2
    Normal   (everything else)                              score 1

  Sorting by score is stable so tasks of equal criticality keep their
  original relative order.
*/
package planner

import (
	"sort"
	"strings"
)

// Criticality is the scheduling-importance class of a task. The numeric
// value doubles as its score.
type Criticality int

const (
	CriticalityNormal   Criticality = 1
	CriticalityHigh     Criticality = 2
	CriticalityLinchpin Criticality = 3
	CriticalityCritical Criticality = 4
)

// Score returns the numeric rank used in sort keys and match scores.
func (c Criticality) Score() int { return int(c) }

func (c Criticality) String() string {
	switch c {
	case CriticalityCritical:
		return "critical"
	case CriticalityLinchpin:
		return "linchpin"
	case CriticalityHigh:
		return "high"
	default:
		return "normal"
	}
}

// Classify evaluates the criticality signals in fixed precedence order.
// A nil TotalFloat never makes a task critical; only a recorded slack of
// zero or less does.
func Classify(t Task) Criticality {
	if t.IsCritical || (t.TotalFloat != nil && *t.TotalFloat <= 0) {
		return CriticalityCritical
	}
	if t.IsLinchpin || len(t.Successors) > 3 {
		return CriticalityLinchpin
	}
	if strings.EqualFold(strings.TrimSpace(t.Priority), "high") {
		return CriticalityHigh
	}
	return CriticalityNormal
}

// SortByCriticality orders tasks most-critical-first, stable, in place.
func SortByCriticality(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return Classify(tasks[i]).Score() > Classify(tasks[j]).Score()
	})
}
