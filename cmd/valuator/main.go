package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/yourusername/valuation-engine/internal/config"
	"github.com/yourusername/valuation-engine/internal/database"
	"github.com/yourusername/valuation-engine/internal/health"
	"github.com/yourusername/valuation-engine/internal/logger"
	"github.com/yourusername/valuation-engine/internal/marketdata"
	"github.com/yourusername/valuation-engine/internal/metrics"
	"github.com/yourusername/valuation-engine/internal/models"
	"github.com/yourusername/valuation-engine/internal/montecarlo"
	"github.com/yourusername/valuation-engine/internal/repository"
	"github.com/yourusername/valuation-engine/internal/scheduler"
	"github.com/yourusername/valuation-engine/internal/valuation"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	configFile   string
	jsonOutput   bool
	allowAnomaly bool
	appLog     *logrus.Logger
	cfg        *config.Config
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")

	for _, cmd := range []*cobra.Command{runCmd, forecastCmd} {
		cmd.Flags().Int("horizon", 0, "Projection horizon in years")
		cmd.Flags().Float64("price", 0, "Manual market price override")
	}
	runCmd.Flags().Int("trials", 0, "Number of Monte Carlo trials")
	runCmd.Flags().Int64("seed", 0, "Run seed")
	runCmd.Flags().Int("workers", 0, "Number of sampler workers")
	runCmd.Flags().String("resolution", "", "Degenerate discount rate resolution: none, resample or clamp")
	runCmd.Flags().String("output-dir", "", "Directory for trial CSV and summary JSON exports")
	runCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the summary as JSON instead of the console report")
	runCmd.Flags().BoolVar(&allowAnomaly, "allow-anomaly", false, "Exit zero when the failed trial fraction exceeds the alert threshold")

	rootCmd.AddCommand(runCmd, forecastCmd, serveCmd, versionCmd)
}

var rootCmd = &cobra.Command{
	Use:   "valuator",
	Short: "Monte Carlo DCF valuation engine",
	Long:  `Estimates the intrinsic per-share value of a company by sampling DCF assumptions and aggregating the trials into risk statistics.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == versionCmd.Name() {
			return nil
		}
		if err := loadConfig(cmd); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		appLog = logger.NewLogger(cfg.App.LogLevel, cfg.App.LogFormat)
		metrics.InitRegistry()
		return nil
	},
	SilenceUsage: true,
}

var runCmd = &cobra.Command{
	Use:   "run [ticker]",
	Short: "Run a Monte Carlo valuation",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		engine, _, cleanup, err := buildEngine(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		report, err := engine.Run(ctx, tickerArg(args))
		if report == nil {
			return err
		}

		if jsonOutput {
			if werr := montecarlo.WriteSummaryJSON(os.Stdout, report.Summary); werr != nil {
				return werr
			}
		} else {
			fmt.Print(valuation.GenerateConsoleReport(report))
		}

		if errors.Is(err, models.ErrFailureThresholdExceeded) {
			appLog.WithError(err).Warn("Failed trial fraction above alert threshold; results may be biased")
		}
		return runOutcome(err, allowAnomaly)
	},
}

var forecastCmd = &cobra.Command{
	Use:   "forecast [ticker]",
	Short: "Value the deterministic base, bull and bear scenarios",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		provider, err := marketdata.NewProvider(cfg, appLog)
		if err != nil {
			return err
		}
		engineCfg, err := valuation.FromConfig(cfg)
		if err != nil {
			return err
		}
		engine, err := valuation.NewEngine(engineCfg, provider, nil, appLog)
		if err != nil {
			return err
		}

		report, err := engine.Forecast(ctx, tickerArg(args))
		if err != nil {
			return err
		}
		fmt.Print(valuation.GenerateForecastReport(report))
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve health, metrics and latest valuations, revaluing on schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		engine, db, cleanup, err := buildEngine(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		server := health.NewServer(healthConfig(engine, db))
		if err := server.Start(ctx); err != nil {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}

		var sched *scheduler.Scheduler
		if cfg.Schedule.Enabled {
			sched = scheduler.NewScheduler(engine, appLog)
			if err := sched.ScheduleRevaluation(cfg.Schedule.Cron, cfg.Schedule.Tickers); err != nil {
				return err
			}
			if err := sched.Start(); err != nil {
				return err
			}
			// initial valuation so /valuations/latest is populated before the first tick
			go sched.RevalueAll(ctx, cfg.Schedule.Tickers)
		}

		server.SetReady(true)
		appLog.WithFields(logrus.Fields{
			"port":     cfg.Metrics.Port,
			"schedule": cfg.Schedule.Enabled,
		}).Info("Valuator serving")

		<-ctx.Done()
		appLog.Info("Shutdown signal received")
		server.SetReady(false)
		if sched != nil {
			if err := sched.Stop(); err != nil {
				appLog.WithError(err).Warn("Scheduler did not stop cleanly")
			}
		}
		if err := server.Shutdown(); err != nil {
			appLog.WithError(err).Warn("HTTP server did not shut down cleanly")
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("valuator %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) error {
	var err error
	cfg, err = config.LoadWithDefaults(configFile)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := config.LoadSecretsFromAWS(ctx, cfg); err != nil {
		return err
	}

	applyFlagOverrides(cmd, cfg)
	return config.Validate(cfg)
}

// applyFlagOverrides copies explicitly set command flags over the loaded config
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	flags := viper.New()
	if err := flags.BindPFlags(cmd.Flags()); err != nil {
		return
	}

	if flags.IsSet("horizon") {
		cfg.Valuation.Horizon = flags.GetInt("horizon")
	}
	if flags.IsSet("price") {
		cfg.MarketData.PriceOverride = flags.GetFloat64("price")
	}
	if flags.IsSet("trials") {
		cfg.Valuation.Trials = flags.GetInt("trials")
	}
	if flags.IsSet("seed") {
		cfg.Valuation.Seed = flags.GetInt64("seed")
	}
	if flags.IsSet("workers") {
		cfg.Valuation.Workers = flags.GetInt("workers")
	}
	if flags.IsSet("resolution") {
		cfg.Valuation.Resolution = flags.GetString("resolution")
	}
	if flags.IsSet("output-dir") {
		cfg.Valuation.OutputDir = flags.GetString("output-dir")
	}
}

// buildEngine wires the provider, the engine and, when enabled, the run
// store. db is nil when the database is disabled.
func buildEngine(ctx context.Context) (*valuation.Engine, *database.DB, func(), error) {
	cleanup := func() {}

	provider, err := marketdata.NewProvider(cfg, appLog)
	if err != nil {
		return nil, nil, cleanup, err
	}

	engineCfg, err := valuation.FromConfig(cfg)
	if err != nil {
		return nil, nil, cleanup, err
	}

	var db *database.DB
	var runs repository.ValuationRunRepository
	if cfg.Database.Enabled {
		db, err = database.Initialize(ctx, cfg)
		if err != nil {
			return nil, nil, cleanup, fmt.Errorf("failed to initialize database: %w", err)
		}
		cleanup = db.Close
		repos, err := repository.NewRepositories(db)
		if err != nil {
			db.Close()
			return nil, nil, func() {}, err
		}
		runs = repos.ValuationRun
	}

	engine, err := valuation.NewEngine(engineCfg, provider, runs, appLog)
	if err != nil {
		cleanup()
		return nil, nil, func() {}, err
	}
	return engine, db, cleanup, nil
}

// healthConfig points the readiness checks at the engine and, when
// persistence is on, the run store.
func healthConfig(engine *valuation.Engine, db *database.DB) health.Config {
	hc := health.Config{
		ServiceName: "valuator",
		Version:     Version,
		Commit:      GitCommit,
		Port:        strconv.Itoa(cfg.Metrics.Port),
		Logger:      appLog,
		Summaries:   engine,
		MarketData:  engine,
		MetricsPath: cfg.Metrics.Path,
	}
	if cfg.Schedule.Enabled {
		hc.MaxValuationAge = cfg.MaxValuationAge()
	}
	if db != nil {
		hc.DB = db
	}
	return hc
}

// runOutcome is the command error for a finished run. With allowAnomaly the
// failure-threshold anomaly alone does not fail the command; any other
// error joined with it still does.
func runOutcome(err error, allowAnomaly bool) error {
	if err == nil || !allowAnomaly {
		return err
	}
	var remaining []error
	for _, e := range splitJoined(err) {
		if !errors.Is(e, models.ErrFailureThresholdExceeded) {
			remaining = append(remaining, e)
		}
	}
	return errors.Join(remaining...)
}

func splitJoined(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}

func tickerArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return cfg.Valuation.Ticker
}
