package main

import (
	"fmt"
	"time"

	"github.com/jgoulah/griddash/internal/dataset"
	"github.com/jgoulah/griddash/internal/publisher"
	"github.com/spf13/cobra"
)

var (
	publishHour   string
	publishFromDB bool
)

var publishCmd = &cobra.Command{
	Use:   "publish [source]",
	Short: "Publish the hourly summary over MQTT",
	Long: `Loads the dataset, aggregates the selected hour (or all records) and publishes
the summary, the 24 hourly averages and the accuracy metrics as retained MQTT messages.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPublish,
}

func init() {
	publishCmd.Flags().StringVar(&publishHour, "hour", "all", "Hour to publish (0-23 or all)")
	publishCmd.Flags().BoolVar(&publishFromDB, "from-db", false, "Publish a dataset stored with 'griddash import'")
	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, args []string) error {
	fmt.Printf("=== Publish started at %s ===\n", time.Now().Format("2006-01-02 15:04:05 MST"))

	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	// Check if MQTT is configured
	if !cfg.MQTT.Enabled {
		return fmt.Errorf("MQTT is not enabled in config")
	}

	sel, err := dataset.ParseSelection(publishHour)
	if err != nil {
		return err
	}

	source := sourceArg(cfg, args)
	summary, err := summarize(cmd.Context(), cfg, logger, args, publishFromDB, sel)
	if err != nil {
		return err
	}

	pub, err := publisher.New(cfg)
	if err != nil {
		return fmt.Errorf("creating publisher: %w", err)
	}
	defer pub.Close()

	fmt.Printf("Publishing summary of %d records for %s (hour: %s)... ", summary.Records, source, sel)
	if err := pub.Publish(source, sel.String(), summary); err != nil {
		fmt.Println("FAILED")
		return err
	}
	fmt.Println("✓")
	return nil
}
