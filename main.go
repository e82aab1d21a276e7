package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"airbnb-dashboard/config"
	"airbnb-dashboard/dashboard"
	"airbnb-dashboard/models"
	"airbnb-dashboard/observability"
	"airbnb-dashboard/server"
	"airbnb-dashboard/services"
	"airbnb-dashboard/storage"
	"airbnb-dashboard/utils"
)

var (
	dataSource string

	reportCity     string
	reportPeriod   string
	reportMaxPrice float64
	reportCities   []string
	reportCSV      string

	importTarget string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "airbnb-dashboard",
		Short:         "Short-term rental listings dashboard",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().StringVar(&dataSource, "source", "", "data source: csv, sqlite or postgres (default from DATA_SOURCE)")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newReportCmd())
	return rootCmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard API",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
}

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import the per-city CSV datasets into a database",
		Args:  cobra.NoArgs,
		RunE:  runImportCmd,
	}
	cmd.Flags().StringVar(&importTarget, "target", "sqlite", "database to import into: sqlite or postgres")
	return cmd
}

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the dashboard statistics for one selection",
		Args:  cobra.NoArgs,
		RunE:  runReportCmd,
	}
	cmd.Flags().StringVar(&reportCity, "city", "", "active city; empty for multi-city mode")
	cmd.Flags().StringVar(&reportPeriod, "period", "", "weekday or weekend")
	cmd.Flags().Float64Var(&reportMaxPrice, "max-price", 0, "inclusive upper price bound")
	cmd.Flags().StringSliceVar(&reportCities, "cities", nil, "restrict multi-city mode to these cities (implies --city \"\" unless --city is set)")
	cmd.Flags().StringVar(&reportCSV, "csv", "", "also write the filtered listings to this CSV file")
	return cmd
}

type app struct {
	cfg     *config.Config
	logger  *utils.Logger
	metrics *observability.Metrics
	source  storage.Source
	closeFn func() error
	coord   *dashboard.Coordinator
}

func newApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	logger := utils.NewLogger()
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("source") {
		cfg.DataSource = dataSource
	}

	source, closeFn, err := storage.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	metrics := observability.NewMetrics("")
	store := dashboard.NewRecordStore(source, dashboard.StoreOptions{
		MaxConcurrency: cfg.MaxConcurrency,
		MaxRetries:     cfg.MaxRetries,
		RetryBaseDelay: time.Duration(cfg.RetryBaseMs) * time.Millisecond,
		RateLimitMs:    cfg.FetchRateLimitMs,
	}, logger, metrics)
	coord := dashboard.NewCoordinator(store, services.NewAggregator(cfg.Analytics), logger, metrics)

	return &app{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		source:  source,
		closeFn: closeFn,
		coord:   coord,
	}, nil
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.closeFn()

	a.logger.Info("=== Listings dashboard starting ===")
	a.logger.Info("Config: source %s | concurrency %d | retries %d | dist_max %.0f | default max price %.0f",
		a.cfg.DataSource, a.cfg.MaxConcurrency, a.cfg.MaxRetries,
		a.cfg.Analytics.DistMax, a.cfg.Analytics.DefaultMaxPrice)

	a.coord.Subscribe(dashboard.RendererFunc(func(s models.Snapshot) {
		if s.Empty() {
			a.logger.Warn("[view] #%d: no data for %s/%s", s.Generation, s.Filter.City, s.Filter.Period)
			return
		}
		a.logger.Info("[view] #%d: %d listings, %d cities, %d distance points",
			s.Generation, len(s.Records), len(s.PriceStats), len(s.DistancePairs))
	}))

	if _, err := a.coord.Reload(ctx); err != nil {
		if !dashboard.IsNoData(err) {
			return err
		}
		a.logger.Warn("Initial load found no data; serving the empty state")
	}

	h := server.NewHandlers(a.coord, a.source, a.logger)
	return server.Run(ctx, ":"+a.cfg.HTTPPort, server.NewRouter(h, a.metrics), a.logger)
}

func runImportCmd(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := utils.NewLogger()
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	src := storage.NewCSVSource(cfg.DataDir)
	cfg.DataSource = importTarget
	backend, err := storage.OpenBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer backend.Close()

	res, err := services.NewImporter(src, backend, logger).Import(ctx, services.AllScopes())
	if err != nil {
		return err
	}
	if res.Total() == 0 {
		return fmt.Errorf("import: no rows imported from %s", cfg.DataDir)
	}

	total, err := backend.Count(ctx)
	if err != nil {
		return err
	}
	logger.Info("Database now holds %d listings", total)
	return nil
}

func runReportCmd(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.closeFn()

	city, period := reportScope(cmd, a.coord.Filter())
	if _, err := a.coord.SetCityPeriod(city, period); err != nil {
		return err
	}
	if cmd.Flags().Changed("max-price") {
		if _, err := a.coord.SetMaxPrice(reportMaxPrice); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("cities") {
		if _, err := a.coord.SetCities(reportCities); err != nil {
			return err
		}
	}

	printer := services.NewReportPrinter(os.Stdout)
	a.coord.Subscribe(printer)

	if _, err := a.coord.Reload(ctx); err != nil {
		if dashboard.IsNoData(err) {
			printer.Render(a.coord.Snapshot())
		}
		return err
	}

	if reportCSV != "" {
		w, err := storage.NewCSVWriter(reportCSV)
		if err != nil {
			return err
		}
		defer w.Close()
		if err := w.Write(a.coord.Snapshot().Records); err != nil {
			return err
		}
		a.logger.Info("Filtered listings saved to %s", reportCSV)
	}
	return nil
}

// reportScope resolves the report's city and period: flags that were set
// win over the configured defaults in f.
func reportScope(cmd *cobra.Command, f models.FilterState) (city, period string) {
	city, period = f.City, string(f.Period)
	switch {
	case cmd.Flags().Changed("city"):
		city = reportCity
	case cmd.Flags().Changed("cities"):
		// A city selection only applies in multi-city mode.
		city = ""
	}
	if cmd.Flags().Changed("period") {
		period = reportPeriod
	}
	return city, period
}
