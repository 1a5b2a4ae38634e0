package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/TrevorS/clustersearch/internal/algorithm"
	"github.com/TrevorS/clustersearch/internal/config"
	"github.com/TrevorS/clustersearch/internal/eval"
	"github.com/TrevorS/clustersearch/internal/export"
	"github.com/TrevorS/clustersearch/internal/telemetry"
)

// app carries what the subcommands share once the root command has set it
// up.
type app struct {
	configPath string
	flags      globalFlags

	cfg        config.Experiment
	logger     *slog.Logger
	metrics    *telemetry.Metrics
	shutdown   func(context.Context) error
	algorithms *algorithm.Registry
	criteria   *eval.Registry
}

type globalFlags struct {
	dir         string
	separator   string
	logLevel    string
	logFormat   string
	metricsFile string
	traceFile   string
}

// cli is the root command together with the state its subcommands share.
type cli struct {
	root *cobra.Command
	app  *app
}

// Execute runs the command line. Telemetry is flushed whenever setup ran,
// including after a failed command, where cobra skips post-run hooks.
func (c *cli) Execute(ctx context.Context) error {
	err := c.root.ExecuteContext(ctx)
	if c.app.metrics != nil {
		err = errors.Join(err, c.app.teardown(ctx))
	}
	return err
}

func newCLI() *cli {
	a := &app{
		algorithms: algorithm.DefaultRegistry(),
		criteria:   eval.DefaultRegistry(),
	}
	root := &cobra.Command{
		Use:   "clustersearch",
		Short: "Search clustering configurations and rank them by quality criteria",
		Long: `clustersearch runs clustering algorithms over a dataset, searches their
hyperparameters for the configuration a quality criterion rates best, and
studies how well unsupervised criteria reproduce supervised rankings.

Settings come from --config (YAML) and are overridden by flags.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.configPath, "config", "c", "", "experiment file (YAML)")
	pf.StringVarP(&a.flags.dir, "dir", "d", "", "output directory")
	pf.StringVar(&a.flags.separator, "separator", "", "output field delimiter")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&a.flags.logFormat, "log-format", "", "log format: text or json")
	pf.StringVar(&a.flags.metricsFile, "metrics-file", "", "write Prometheus metrics to this file on exit")
	pf.StringVar(&a.flags.traceFile, "trace-file", "", "write OpenTelemetry spans to this file")

	root.AddCommand(newRunCmd(a), newMetaCmd(a), newListCmd(a))
	return &cli{root: root, app: a}
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	a.cfg = config.DefaultExperiment()
	if a.configPath != "" {
		cfg, err := config.Load(a.configPath)
		if err != nil {
			return err
		}
		a.cfg = cfg
	}

	f := cmd.Flags()
	if f.Changed("dir") {
		a.cfg.Dir = a.flags.dir
	}
	if f.Changed("separator") {
		a.cfg.Separator = a.flags.separator
	}
	if f.Changed("log-level") {
		a.cfg.Telemetry.LogLevel = a.flags.logLevel
	}
	if f.Changed("log-format") {
		a.cfg.Telemetry.LogFormat = a.flags.logFormat
	}
	if f.Changed("metrics-file") {
		a.cfg.Telemetry.MetricsFile = a.flags.metricsFile
	}
	if f.Changed("trace-file") {
		a.cfg.Telemetry.TraceFile = a.flags.traceFile
	}

	logger, err := telemetry.NewLogger(cmd.ErrOrStderr(), a.cfg.Telemetry.LogLevel, a.cfg.Telemetry.LogFormat)
	if err != nil {
		return err
	}
	a.logger = logger
	slog.SetDefault(logger)

	a.metrics = telemetry.NewMetrics()
	a.shutdown, err = telemetry.SetupTracing(a.cfg.Telemetry.TraceFile, version)
	return err
}

func (a *app) teardown(ctx context.Context) error {
	var errs []error
	if a.shutdown != nil {
		errs = append(errs, a.shutdown(ctx))
	}
	errs = append(errs, a.metrics.WriteTextfile(a.cfg.Telemetry.MetricsFile))
	return errors.Join(errs...)
}

// sink returns the output sink for the configured separator.
func (a *app) sink() (*export.Sink, error) {
	sep := a.cfg.OutputSeparator()
	if err := export.ValidateSeparator(sep); err != nil {
		return nil, err
	}
	return export.NewSink(sep), nil
}
