package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jgoulah/griddash/internal/config"
	"github.com/jgoulah/griddash/internal/database"
	"github.com/jgoulah/griddash/internal/loader"
	"github.com/jgoulah/griddash/internal/logging"
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	dbPath   string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "griddash",
	Short: "Dashboard of actual vs predicted energy consumption",
	Long: `GridDash loads a CSV of actual and predicted energy readings and serves
an interactive dashboard with a per-record line chart and an hourly average bar chart.
Imports can be kept in a local SQLite database and summaries published over MQTT.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database file (default is ./data.db)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")
}

// getConfigPath returns the config file path
func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultConfigPath()
}

// getDBPath returns the database file path (local directory)
func getDBPath() string {
	if dbPath != "" {
		return dbPath
	}
	return "data.db"
}

// loadConfig loads the configuration file
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	return cfg, nil
}

// setup loads the config and installs the configured logger as the default
func setup() (*config.Config, *slog.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	level, err := logging.ParseLevel(cfg.GetLogLevel())
	if err != nil {
		return nil, nil, err
	}
	logger := logging.New(os.Stderr, level, cfg.GetLogFormat())
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// openDB opens the database connection
func openDB() (*database.DB, error) {
	path := getDBPath()

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	return database.New(path)
}

// sourceArg returns the first positional argument or the configured source
func sourceArg(cfg *config.Config, args []string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	return cfg.GetSource()
}

// newLoader builds a CSV loader for source using the configured timezone and timeout
func newLoader(cfg *config.Config, logger *slog.Logger, source string) (*loader.Loader, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	opts := []loader.Option{
		loader.WithLocation(loc),
		loader.WithLogger(logger),
	}
	if cfg.FetchTimeout > 0 {
		opts = append(opts, loader.WithTimeout(cfg.FetchTimeout))
	}
	return loader.New(source, opts...), nil
}
