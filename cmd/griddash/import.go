package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var importName string

var importCmd = &cobra.Command{
	Use:   "import [source]",
	Short: "Import a CSV into the local database",
	Long: `Fetches and parses the CSV and stores its records in the SQLite database,
replacing any previous import with the same name. Stored imports can be served
with 'griddash serve --from-db'.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&importName, "name", "", "Name to store the import under (default: the source)")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	source := sourceArg(cfg, args)
	name := importName
	if name == "" {
		name = source
	}

	l, err := newLoader(cfg, logger, source)
	if err != nil {
		return err
	}

	start := time.Now()
	ds, err := l.Load(cmd.Context())
	if err != nil {
		return err
	}

	db, err := openDB()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if err := db.ReplaceRecords(cmd.Context(), name, ds.Records()); err != nil {
		return fmt.Errorf("storing records: %w", err)
	}

	fmt.Printf("✓ Imported %s records from %s as %q in %s\n",
		humanize.Comma(int64(ds.Len())), source, name, time.Since(start).Round(time.Millisecond))
	return nil
}
