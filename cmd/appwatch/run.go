package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/srodi/appwatch/pkg/collector/process"
	"github.com/srodi/appwatch/pkg/collector/window"
	"github.com/srodi/appwatch/pkg/config"
	"github.com/srodi/appwatch/pkg/metrics"
	"github.com/srodi/appwatch/pkg/report"
	"github.com/srodi/appwatch/pkg/runner"
	"github.com/srodi/appwatch/pkg/systemd"
	"github.com/srodi/appwatch/pkg/types"
	"github.com/srodi/appwatch/pkg/ui"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Track foreground application usage until interrupted",
	Long: `Sample the foreground application every interval, save the usage record
every save_every ticks and once more on Ctrl-C or SIGTERM.`,
	RunE: runRun,
}

func init() {
	addRunFlags(runCmd)
	rootCmd.AddCommand(runCmd)
}

// runFlagKeys maps run flags to the configuration keys they override.
var runFlagKeys = map[string]string{
	"data":       "storage.path",
	"interval":   "sample.interval",
	"save-every": "sample.save_every",
	"target":     "sample.target",
	"report":     "report.mode",
}

func addRunFlags(cmd *cobra.Command) {
	defaults := config.Default()
	flags := cmd.Flags()
	flags.String("data", defaults.Storage.Path, "Path of the JSON usage record")
	flags.Duration("interval", defaults.Sample.Interval, "Sampling interval")
	flags.Int("save-every", defaults.Sample.SaveEvery, "Ticks between saves")
	flags.String("target", defaults.Sample.Target, "Process whose resources are sampled: foreground or self")
	flags.String("report", defaults.Report.Mode, "Periodic report: chart, table or none")
}

// bindFlags lets explicitly set flags override the config file and environment.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) error {
	for name, key := range keys {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("binding --%s: %w", name, err)
		}
	}
	return nil
}

func runRun(cmd *cobra.Command, args []string) error {
	v := config.New()
	if err := bindFlags(v, cmd.Flags(), runFlagKeys); err != nil {
		return err
	}
	cfg, err := config.Load(v, configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	log.Logger = logger

	logger.Info().
		Str("version", version).
		Str("config", configPath).
		Dur("interval", cfg.Sample.Interval).
		Str("target", cfg.Sample.Target).
		Msg("Starting appwatch")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStorage(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close storage")
		}
	}()

	logger.Info().
		Str("type", cfg.Storage.Type).
		Str("path", cfg.Storage.Path).
		Msg("Storage initialized")

	procs, err := process.NewCollector(process.DefaultCacheSize, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize process reader: %w", err)
	}
	windows := window.NewResolver(procs, logger)

	out := cmd.OutOrStdout()
	reporter, err := buildReporter(cfg.Report, out, logger)
	if err != nil {
		return err
	}
	if cfg.Report.Mode != config.ReportNone && isTerminal(out) {
		fmt.Fprint(out, ui.Banner())
	}

	metricsServer, err := startMetrics(cfg.Metrics, logger)
	if err != nil {
		return err
	}
	if metricsServer != nil {
		defer func() {
			if err := metricsServer.Stop(); err != nil {
				logger.Error().Err(err).Msg("Error stopping metrics server")
			}
		}()
	}

	r := runner.New(runner.Options{
		Interval:  cfg.Sample.Interval,
		SaveEvery: cfg.Sample.SaveEvery,
		Target:    cfg.Sample.Target,
		Async:     cfg.Report.Async,
		Reporter:  reporter,
		Hooks:     lifecycleHooks(logger),
	}, st, windows, procs, logger)

	logger.Info().Msg("Tracking foreground application (press Ctrl+C to exit)")
	if err := r.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("appwatch stopped with an error")
		return err
	}
	logger.Info().Msg("appwatch stopped")
	return nil
}

// buildReporter returns the periodic reporter for cfg. Every snapshot is also
// summarised in the log, and no rendering failure reaches the loop.
func buildReporter(cfg config.ReportConfig, out io.Writer, logger zerolog.Logger) (report.Reporter, error) {
	rendered, err := report.ForFormat(cfg.Mode, out, cfg.Width)
	if err != nil {
		return nil, err
	}
	summary := report.NewLogReporter(logger)
	if rendered == nil {
		return report.Safe(summary, logger), nil
	}
	return report.Safe(report.Multi(rendered, summary), logger), nil
}

// startMetrics serves /metrics on the socket-activated listener or on
// metrics.addr. It returns nil when neither is configured.
func startMetrics(cfg config.MetricsConfig, logger zerolog.Logger) (*metrics.Server, error) {
	ln, err := systemd.MetricsListener()
	if err != nil {
		return nil, err
	}
	if ln == nil && cfg.Addr == "" {
		return nil, nil
	}

	server := metrics.NewServer(cfg.Addr, logger)
	if ln != nil {
		logger.Info().Msg("Using systemd socket activation for metrics")
		server.SetListener(ln)
	}
	if err := server.Start(); err != nil {
		return nil, fmt.Errorf("failed to start metrics server: %w", err)
	}
	return server, nil
}

// lifecycleHooks connects the runner to systemd notifications and metrics.
func lifecycleHooks(logger zerolog.Logger) runner.Hooks {
	hooks := runner.Hooks{
		Ready:    systemd.NotifyReady,
		Stopping: systemd.NotifyStopping,
		Saved: func(table types.UsageTable, err error) {
			metrics.ObserveSave(err)
			if err == nil {
				metrics.Update(table)
			}
		},
		Ticked: func(window.Info) {
			metrics.TicksTotal.Inc()
		},
	}
	if interval := systemd.WatchdogInterval(); interval > 0 {
		logger.Info().Dur("interval", interval).Msg("systemd watchdog enabled")
		hooks.Watchdog = systemd.NotifyWatchdog
	}
	return hooks
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
