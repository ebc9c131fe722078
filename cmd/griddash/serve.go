package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jgoulah/griddash/internal/app"
	"github.com/jgoulah/griddash/internal/config"
	"github.com/jgoulah/griddash/internal/database"
	"github.com/jgoulah/griddash/internal/server"
	"github.com/jgoulah/griddash/internal/views"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	serveFromDB bool
	serveAddr   string
)

var serveCmd = &cobra.Command{
	Use:   "serve [source]",
	Short: "Serve the dashboard over HTTP",
	Long: `Loads the CSV in the background and serves the dashboard.

The source is a local path, a file:// URL or an http(s) URL (default from config,
then ./predictions.csv). With --from-db the source names a previous import instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveFromDB, "from-db", false, "Serve a dataset stored with 'griddash import'")
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.HTTP.Addr = serveAddr
	}

	src, closeSrc, err := dashboardSource(cfg, logger, args, serveFromDB)
	if err != nil {
		return err
	}
	defer closeSrc()

	if err := views.LoadTemplates(); err != nil {
		return fmt.Errorf("loading templates: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	dash := app.New(src,
		app.WithLogger(logger),
		app.WithMetrics(app.NewMetrics(reg)),
		app.WithLinePoints(cfg.GetLinePoints()),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dash.Start(ctx)

	srv := server.NewServer(cfg.GetHTTPAddr(), server.NewRouter(dash, reg, logger))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("dashboard listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GetShutdownTimeout())
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// dashboardSource returns where the dashboard reads its dataset from. The
// returned func releases anything the source holds open.
func dashboardSource(cfg *config.Config, logger *slog.Logger, args []string, fromDB bool) (app.Source, func(), error) {
	name := sourceArg(cfg, args)

	if fromDB {
		db, err := openDB()
		if err != nil {
			return nil, nil, fmt.Errorf("opening database: %w", err)
		}
		logger.Info("using stored dataset", "source", name, "db", getDBPath())
		return database.Source{DB: db, Name: name}, func() { db.Close() }, nil
	}

	l, err := newLoader(cfg, logger, name)
	if err != nil {
		return nil, nil, err
	}
	return l, func() {}, nil
}
