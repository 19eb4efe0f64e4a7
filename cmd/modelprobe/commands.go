package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"modelprobe/internal/config"
	"modelprobe/internal/core"
	"modelprobe/internal/hub"
	logpkg "modelprobe/internal/log"
	"modelprobe/internal/metrics"
	"modelprobe/internal/probe"
	"modelprobe/internal/storage"

	"github.com/spf13/cobra"
)

// errChecksFailed is returned when at least one model check failed. The
// report already explains why, so it is not printed again.
var errChecksFailed = errors.New("one or more models failed")

// usageError marks invalid arguments or configuration.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

// newRepoFiles opens the hub repository reader for cfg.
var newRepoFiles = func(cfg config.Config) (core.RepoFiles, error) {
	return hub.NewHFRepoFiles(hub.HFConfig{Token: cfg.Token, CacheDir: cfg.CacheDir})
}

func newUsageError(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return newUsageError("unexpected arguments for %q: %s", cmd.CommandPath(), strings.Join(args, " "))
	}
	return nil
}

type rootOptions struct {
	modelsFile string
	models     []string
	timeout    time.Duration
	verbose    bool
	record     bool
}

// newRootCommand creates the modelprobe command tree.
//
// Commands provided:
//   - modelprobe [--models-file F | --model key=id ...] [--timeout D] [--record]
//   - modelprobe history [--limit N]
//
// Global flags: --verbose
func newRootCommand(logger *logpkg.AppLogger) *cobra.Command {
	var opts rootOptions

	cmd := &cobra.Command{
		Use:   "modelprobe",
		Short: "Check that hub text-classification models load and run",
		Long: "Load the tokenizer and classifier of each configured Hugging Face model, " +
			"run sample texts through it and print logits, probabilities and the predicted class.",
		Args: noArgs,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.verbose {
				logger.SetDebug(true)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProbe(cmd, logger, opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output")
	cmd.Flags().StringVar(&opts.modelsFile, "models-file", "", "YAML or JSON file listing the models to check")
	cmd.Flags().StringArrayVar(&opts.models, "model", nil, "Model to check as key=org/name (repeatable, replaces the defaults)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "Per-request timeout (default 2m)")
	cmd.Flags().BoolVar(&opts.record, "record", false, "Save the run to history")

	cmd.AddCommand(historyCmd(logger))

	return cmd
}

func runProbe(cmd *cobra.Command, logger *logpkg.AppLogger, opts rootOptions) error {
	ctx := cmd.Context()

	cfg, err := config.LoadFromEnv(logger)
	if err != nil {
		return &usageError{err: err}
	}
	if opts.timeout < 0 {
		return newUsageError("invalid --timeout %s", opts.timeout)
	}
	if len(opts.models) > 0 && opts.modelsFile != "" {
		return newUsageError("--model and --models-file cannot be used together")
	}
	cfg.SetTimeout(opts.timeout)
	if opts.modelsFile != "" {
		cfg.ModelsFile = opts.modelsFile
		cfg.Models = nil
	}

	checks, err := resolveChecks(cfg, opts.models)
	if err != nil {
		return &usageError{err: err}
	}

	metricsService := metrics.NewMetricsService(metrics.MetricsConfig{Logger: logger})
	defer func() { _ = metricsService.Close() }()

	files, err := newRepoFiles(cfg)
	if err != nil {
		return fmt.Errorf("failed to open hub: %w", err)
	}

	client, err := hub.NewClient(hub.ClientConfig{
		InferenceURL:  cfg.InferenceURL,
		Revision:      cfg.Revision,
		Token:         cfg.Token,
		Files:         files,
		HTTPClient:    config.NewHTTPClient(cfg.HTTPClientSettings),
		Logger:        logger,
		Metrics:       metricsService,
		InferenceRate: cfg.InferenceRate,
	})
	if err != nil {
		return fmt.Errorf("failed to create hub client: %w", err)
	}

	prober := probe.New(probe.Config{
		Loader:   hub.NewLoader(client),
		Out:      cmd.OutOrStdout(),
		Logger:   logger,
		Latency:  metricsService,
		Token:    cfg.Token,
		HubURL:   client.HubURL(),
		Revision: cfg.Revision,
	})

	report := prober.Run(ctx, checks)

	if opts.record {
		stats := metricsService.GetRequestStats()
		report.Stats = &stats

		store := storage.InitStorage(ctx, logger, cfg.RedisURL, cfg.HistoryFile)
		defer func() { _ = store.Close() }()

		if err := store.SaveRun(ctx, &report); err != nil {
			logger.Warn("Failed to record run %s: %v", report.RunID, err)
		} else {
			logger.Info("Recorded run %s", report.RunID)
		}
	}

	if !report.AllSucceeded() {
		return errChecksFailed
	}
	return nil
}

// resolveChecks picks the checks to run: --model flags, then the
// MODELPROBE_MODELS list, then the models file, then the built-in defaults.
func resolveChecks(cfg config.Config, models []string) ([]core.ModelCheck, error) {
	if len(models) > 0 {
		return config.ParseModelFlags(models)
	}
	if len(cfg.Models) > 0 {
		return config.ParseModelFlags(cfg.Models)
	}
	if cfg.ModelsFile != "" {
		return config.LoadModelChecks(cfg.ModelsFile)
	}
	return config.DefaultChecks(), nil
}

func historyCmd(logger *logpkg.AppLogger) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded runs",
		Long:  "Show runs saved with --record, newest first.",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return newUsageError("invalid --limit %d", limit)
			}

			cfg, err := config.LoadFromEnv(logger)
			if err != nil {
				return &usageError{err: err}
			}

			store := storage.InitStorage(cmd.Context(), logger, cfg.RedisURL, cfg.HistoryFile)
			defer func() { _ = store.Close() }()

			runs, err := store.LoadRuns(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("failed to load history: %w", err)
			}
			return outputRuns(cmd.OutOrStdout(), runs)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of runs to show (0 for all)")
	return cmd
}

func outputRuns(w io.Writer, runs []core.RunReport) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No recorded runs")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "RUN ID\tSTARTED\tRESULT\tMODELS")
	for _, run := range runs {
		result := "OK"
		if !run.AllSucceeded() {
			result = "FAILED"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s %d/%d\t%s\n",
			run.RunID,
			run.StartedAt.Local().Format(core.TimeFormatDateTime),
			result,
			run.SuccessCount(),
			len(run.Models),
			formatModels(run.Models),
		)
	}
	return tw.Flush()
}

func formatModels(models []core.ModelReport) string {
	parts := make([]string, len(models))
	for i, m := range models {
		status := "ok"
		if !m.Success {
			status = "failed"
			if m.ErrorType != "" {
				status += ":" + m.ErrorType
			}
		}
		parts[i] = m.Key + "=" + status
	}
	return strings.Join(parts, ", ")
}
