package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/warp/workforce-engine/config"
	"github.com/warp/workforce-engine/feed"
)

func newIngestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <plan.json>",
		Short: "Load an upstream plan document into the store",
		Long: "Decodes a plan export (tolerating the known exporter dialects), replaces\n" +
			"the stored snapshot, and prints the ingest summary. A running server\n" +
			"picks the new snapshot up on its next refresh cycle.",
		Args: cobra.ExactArgs(1),
		RunE: runIngest,
	}
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	snap, summary, err := feed.Decode(f)
	if err != nil {
		return err
	}

	st, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := st.SaveSnapshot(cmd.Context(), snap); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	out, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
