package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/warp/workforce-engine/assign"
	"github.com/warp/workforce-engine/config"
	"github.com/warp/workforce-engine/planner"
	"github.com/warp/workforce-engine/planner/store"
	"github.com/warp/workforce-engine/store/sqlite"
)

var cfgPath string

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "workforce",
		Short:         "Workforce allocation planning engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (json or yaml)")
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newIngestCmd())
	cmd.AddCommand(newReportCmd())
	return cmd
}

// Execute runs the CLI.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// engineStore is the full port surface the commands wire up: snapshot
// persistence, assignment writes, and the notification outbox.
type engineStore interface {
	planner.Store
	assign.TaskStore
	assign.Notifier
}

// openStore builds the configured store. The returned func releases it.
func openStore(cfg *config.Config) (engineStore, func(), error) {
	switch cfg.Store.Driver {
	case "memory":
		return store.NewMemory(), func() {}, nil
	default:
		st, err := sqlite.New(cfg.Store.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open store %s: %w", cfg.Store.Path, err)
		}
		return st, func() { st.Close() }, nil
	}
}
