package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/jgoulah/griddash/internal/aggregate"
	"github.com/jgoulah/griddash/internal/config"
	"github.com/jgoulah/griddash/internal/dataset"
	"github.com/spf13/cobra"
)

var (
	listSource string
	listHour   string
	listCSV    bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored imports or summarise one",
	Long: `Without --source, lists the imports stored in the database.
With --source, prints the hourly averages and accuracy of that import,
optionally restricted to one hour with --hour. Use --csv to read the source
directly instead of the database.`,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVar(&listSource, "source", "", "Import to summarise")
	listCmd.Flags().StringVar(&listHour, "hour", "all", "Hour to restrict to (0-23 or all)")
	listCmd.Flags().BoolVar(&listCSV, "csv", false, "Read --source as a CSV path or URL")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	if listSource == "" {
		return listSources(cmd.Context())
	}

	sel, err := dataset.ParseSelection(listHour)
	if err != nil {
		return err
	}

	summary, err := summarize(cmd.Context(), cfg, logger, []string{listSource}, !listCSV, sel)
	if err != nil {
		return err
	}

	fmt.Printf("\n%s (hour: %s)\n", listSource, sel)
	fmt.Println("----------------------------------------")
	fmt.Printf("%-6s  %8s  %14s\n", "Hour", "Records", "Avg Actual")
	fmt.Println("----------------------------------------")
	for h := 0; h < aggregate.Buckets; h++ {
		if summary.HourlyCount[h] == 0 {
			continue
		}
		fmt.Printf("%-6s  %8s  %14.4f\n", fmt.Sprintf("%d:00", h), humanize.Comma(int64(summary.HourlyCount[h])), summary.HourlyAverage[h])
	}
	fmt.Println("----------------------------------------")
	fmt.Printf("Records: %s", humanize.Comma(int64(summary.Records)))
	if summary.UnknownHour > 0 {
		fmt.Printf(" (%d without a parseable hour)", summary.UnknownHour)
	}
	fmt.Println()
	fmt.Printf("MAE: %.4f  RMSE: %.4f\n", summary.Accuracy.MAE, summary.Accuracy.RMSE)

	return nil
}

func listSources(ctx context.Context) error {
	db, err := openDB()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	sources, err := db.ListSources(ctx)
	if err != nil {
		return fmt.Errorf("listing sources: %w", err)
	}
	if len(sources) == 0 {
		fmt.Println("No imports found. Run 'griddash import <csv>' first.")
		return nil
	}

	fmt.Println("----------------------------------------")
	fmt.Printf("%-30s  %10s  %s\n", "Source", "Records", "Imported")
	fmt.Println("----------------------------------------")
	for _, s := range sources {
		fmt.Printf("%-30s  %10s  %s\n", s.Name, humanize.Comma(int64(s.Records)), humanize.Time(s.ImportedAt))
	}
	return nil
}

// summarize loads the dataset named by args, filters it by sel and aggregates the subset
func summarize(ctx context.Context, cfg *config.Config, logger *slog.Logger, args []string, fromDB bool, sel dataset.Selection) (aggregate.Summary, error) {
	src, closeSrc, err := dashboardSource(cfg, logger, args, fromDB)
	if err != nil {
		return aggregate.Summary{}, err
	}
	defer closeSrc()

	ds, err := src.Load(ctx)
	if err != nil {
		return aggregate.Summary{}, err
	}
	return aggregate.Summarize(ds.Select(sel)), nil
}
