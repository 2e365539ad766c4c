package main

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/warp/workforce-engine/config"
	"github.com/warp/workforce-engine/planner"
)

func newReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Print the allocation rollup for the stored snapshot",
		RunE:  runReport,
	}
}

func runReport(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	st, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	snap, err := st.LoadSnapshot(cmd.Context())
	if err != nil {
		if errors.Is(err, planner.ErrNoSnapshot) {
			return errors.New("nothing ingested yet; run 'workforce ingest' first")
		}
		return err
	}

	d := planner.Derive(snap, time.Now())

	rows := make([]planner.EmployeeMetric, 0, len(snap.Employees))
	names := make(map[planner.EmployeeID]string, len(snap.Employees))
	roles := make(map[planner.EmployeeID]string, len(snap.Employees))
	for _, e := range snap.Employees {
		rows = append(rows, d.Metrics[e.ID])
		names[e.ID] = e.Name
		roles[e.ID] = e.Role
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Utilization != rows[j].Utilization {
			return rows[i].Utilization > rows[j].Utilization
		}
		return names[rows[i].EmployeeID] < names[rows[j].EmployeeID]
	})

	fmt.Printf("Snapshot taken %s: %d employees, %d tasks, %d projects\n\n",
		snap.TakenAt.Format("2006-01-02 15:04"), d.Summary.Employees, d.Summary.Tasks, d.Summary.Projects)

	fmt.Printf("%-24s %-22s %5s  %-10s %9s  %s\n",
		"NAME", "ROLE", "UTIL", "STATUS", "AVAILABLE", "TASKS")
	for _, m := range rows {
		fmt.Printf("%-24s %-22s %4d%%  %-10s %8.0fh  %d\n",
			names[m.EmployeeID], roles[m.EmployeeID], m.Utilization, m.Status,
			m.AvailableHours, len(m.MatchedTasks))
	}

	fmt.Println("\nReporting lines:")
	for _, root := range d.Forest {
		printOrgNode(root, 0)
	}

	s := d.Summary
	fmt.Printf("\nUtilization mean %.1f%% (min %.0f%%, max %.0f%%, stddev %.1f)\n",
		s.MeanUtilization, s.MinUtilization, s.MaxUtilization, s.StdDevUtilization)
	fmt.Printf("Hours: %.0f allocated, %.0f available\n",
		s.TotalAllocatedHours, s.TotalAvailableHours)

	if s.UnassignedTasks > 0 {
		fmt.Printf("Unassigned: %d tasks, %.0fh", s.UnassignedTasks, s.UnassignedHours)
		for _, class := range []string{"critical", "linchpin", "high", "normal"} {
			if n := s.UnassignedCriticality[class]; n > 0 {
				fmt.Printf("  %s=%d", class, n)
			}
		}
		fmt.Println()
	}
	if s.Dependencies.TasksWithPredecessors == 0 && s.Dependencies.TasksWithSuccessors == 0 {
		fmt.Println("Schedule network: no dependency links survived the import")
	} else {
		fmt.Printf("Schedule network: %d tasks with predecessors, %d with successors, %d external links\n",
			s.Dependencies.TasksWithPredecessors, s.Dependencies.TasksWithSuccessors,
			s.Dependencies.ExternalLinks)
	}
	return nil
}

func printOrgNode(n *planner.OrgNode, depth int) {
	fmt.Printf("%*s%s (%s) %d%%, group %d%%\n",
		depth*2, "", n.Employee.Name, n.Metric.Status, n.Metric.Utilization, n.GroupUtilization)
	for _, c := range n.Children {
		printOrgNode(c, depth+1)
	}
}
