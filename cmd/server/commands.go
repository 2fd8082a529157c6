package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"wave-dashboard/internal/config"
	"wave-dashboard/internal/console"
	"wave-dashboard/internal/dashboard"
	"wave-dashboard/internal/render"
	"wave-dashboard/internal/services"
)

var (
	apiURL   string
	logLevel string
	verbose  bool
	steps    int
	pngDir   string
	showCSV  bool
	showMap  bool

	cfg    *config.Config
	logger *zap.Logger
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "wavedash",
		Short: "Wave forecast dashboard",
		Long: `wavedash serves a dashboard over a wave prediction API and can
query the same API from the terminal.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if apiURL != "" {
				cfg.PredictionAPI.BaseURL = apiURL
			}
			level := cfg.Server.LogLevel
			if logLevel != "" {
				level = logLevel
			}
			logger, err = newLogger(level)
			if err != nil {
				return err
			}
			zap.ReplaceGlobals(logger)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Prediction API base URL (overrides PREDICTION_API_URL)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (overrides LOG_LEVEL)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	addServeCmd(rootCmd)
	addLocationsCmd(rootCmd)
	addPredictCmd(rootCmd)
	addHeatmapCmd(rootCmd)

	return rootCmd
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}

func addServeCmd(rootCmd *cobra.Command) {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cfg, logger)
		},
	}
	rootCmd.AddCommand(serveCmd)
}

// newConsoleController wires a controller to a terminal view on stdout.
func newConsoleController(cmd *cobra.Command) (*dashboard.Controller, *console.TerminalView) {
	upstream := newPredictionClient(cfg, logger)
	view := console.NewTerminalView(cmd.OutOrStdout(), upstream.BaseURL(), verbose)
	return dashboard.NewController(upstream, view, dashboardOptions(cfg), logger), view
}

func addLocationsCmd(rootCmd *cobra.Command) {
	locationsCmd := &cobra.Command{
		Use:   "locations",
		Short: "List monitored locations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, view := newConsoleController(cmd)
			ctrl.Load(cmd.Context())

			if len(view.LoadErrors()) > 0 {
				return errors.New("failed to load dashboard data")
			}
			console.PrintLocations(cmd.OutOrStdout(), ctrl.Locations())
			if showMap {
				view.PrintMap()
			}
			return nil
		},
	}
	locationsCmd.Flags().BoolVar(&showMap, "map", false, "Print the map fragment as text")
	rootCmd.AddCommand(locationsCmd)
}

func addPredictCmd(rootCmd *cobra.Command) {
	predictCmd := &cobra.Command{
		Use:   "predict <location>",
		Short: "Fetch and display predictions for a location",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			location := args[0]
			ctrl, _ := newConsoleController(cmd)
			ctrl.Load(cmd.Context())

			if _, ok := ctrl.Locations().Lookup(location); !ok && ctrl.Locations().Len() > 0 {
				logger.Warn("Location is not in the location table", zap.String("location", location))
			}

			if cmd.Flags().Changed("steps") {
				ctrl.SetSteps(steps)
			}
			ctrl.SelectLocation(location)

			if err := ctrl.Predict(cmd.Context()); err != nil {
				return err
			}

			preds := ctrl.Predictions()
			labels := ctrl.Variables()
			out := cmd.OutOrStdout()
			fmt.Fprintln(out)
			console.PrintPredictions(out, preds, labels, dashboardOptions(cfg).Thresholds, cfg.Dashboard.DisplayZone)

			if pngDir != "" {
				paths, err := render.WriteFiles(pngDir, location, preds, labels, cfg.Dashboard.DisplayZone)
				if err != nil {
					return err
				}
				for _, p := range paths {
					cmd.Println(fmt.Sprintf("Chart saved to %s", p))
				}
			}
			if showCSV {
				return ctrl.DownloadCSV()
			}
			return nil
		},
	}
	predictCmd.Flags().IntVarP(&steps, "steps", "s", 8, "Number of prediction steps")
	predictCmd.Flags().StringVar(&pngDir, "png-dir", "", "Write PNG charts to this directory")
	predictCmd.Flags().BoolVar(&showCSV, "csv", false, "Print the CSV export link")
	rootCmd.AddCommand(predictCmd)
}

func addHeatmapCmd(rootCmd *cobra.Command) {
	heatmapCmd := &cobra.Command{
		Use:   "heatmap",
		Short: "Show the current wave height at every location",
		RunE: func(cmd *cobra.Command, args []string) error {
			agg := services.NewAggregator(newPredictionClient(cfg, logger), aggregatorConfig(cfg), logger)
			hm, err := agg.Refresh(cmd.Context())
			if err != nil {
				return err
			}
			console.PrintHeatmap(cmd.OutOrStdout(), hm)
			return nil
		},
	}
	rootCmd.AddCommand(heatmapCmd)
}
