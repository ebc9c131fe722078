package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/jgoulah/griddash/internal/app"
	"github.com/jgoulah/griddash/internal/dataset"
	"github.com/jgoulah/griddash/internal/server"
	"github.com/jgoulah/griddash/internal/snapshot"
	"github.com/jgoulah/griddash/internal/views"
	"github.com/spf13/cobra"
)

var (
	snapshotHour    string
	snapshotOut     string
	snapshotFromDB  bool
	snapshotVisible bool
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot [source]",
	Short: "Save a PNG of the dashboard",
	Long: `Loads the dataset, renders the dashboard for the selected hour and captures it
with a headless Chrome. Requires Chrome or Chromium on the PATH.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSnapshot,
}

func init() {
	snapshotCmd.Flags().StringVar(&snapshotHour, "hour", "all", "Hour to show (0-23 or all)")
	snapshotCmd.Flags().StringVar(&snapshotOut, "out", "dashboard.png", "Output file")
	snapshotCmd.Flags().BoolVar(&snapshotFromDB, "from-db", false, "Use a dataset stored with 'griddash import'")
	snapshotCmd.Flags().BoolVar(&snapshotVisible, "visible", false, "Show browser window (for debugging)")
	rootCmd.AddCommand(snapshotCmd)
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	sel, err := dataset.ParseSelection(snapshotHour)
	if err != nil {
		return err
	}

	src, closeSrc, err := dashboardSource(cfg, logger, args, snapshotFromDB)
	if err != nil {
		return err
	}
	defer closeSrc()

	if err := views.LoadTemplates(); err != nil {
		return fmt.Errorf("loading templates: %w", err)
	}

	dash := app.New(src, app.WithLogger(logger), app.WithLinePoints(cfg.GetLinePoints()))
	dash.Start(cmd.Context())
	if err := dash.Wait(cmd.Context()); err != nil {
		return err
	}

	width, height := cfg.GetSnapshotSize()
	c := snapshot.New(snapshotVisible || cfg.Snapshot.Visible, width, height, cfg.GetSnapshotTimeout(), logger)

	png, err := c.Capture(cmd.Context(), server.NewRouter(dash, nil, logger), sel)
	if err != nil {
		return err
	}

	if err := os.WriteFile(snapshotOut, png, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", snapshotOut, err)
	}

	fmt.Printf("✓ Saved %s (%s)\n", snapshotOut, humanize.Bytes(uint64(len(png))))
	return nil
}
