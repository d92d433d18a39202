// Package main provides the CLI entry point for timingplot, which runs
// timing experiments and charts their results against problem size.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/weiihann/timingplot/chart"
	"github.com/weiihann/timingplot/experiment"
	"github.com/weiihann/timingplot/pipeline"
	"github.com/weiihann/timingplot/report"
	"github.com/weiihann/timingplot/sizes"
)

func main() {
	level := new(slog.LevelVar)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)

	root := newRootCmd(logger, level)
	err := root.ExecuteContext(ctx)

	stop()

	if err != nil {
		logger.Error("timingplot failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func newRootCmd(logger *slog.Logger, level *slog.LevelVar) *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "timingplot",
		Short: "Run timing experiments and chart the results",
		Long: `Timingplot runs external experiment programs one after another, reads
the timing files they leave behind (one measurement per line) and plots
every series against the problem sizes in a single chart.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if verbose {
				level.Set(slog.LevelDebug)
			}
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable debug logging")

	root.AddCommand(newRunCmd(logger))
	root.AddCommand(newPlotCmd(logger))
	root.AddCommand(newSizesCmd())

	return root
}

type runConfig struct {
	experiments      []string
	scriptsDir       string
	workDir          string
	sizes            string
	sizeStart        int
	sizeFactor       int
	sizeCount        int
	output           string
	renderer         string
	colors           []string
	title            string
	xLabel           string
	yLabel           string
	legend           bool
	logX             bool
	fresh            bool
	ignoreExitStatus bool
	timeout          time.Duration
	summary          bool
	outputJSON       bool
}

func newRunCmd(logger *slog.Logger) *cobra.Command {
	var cfg runConfig

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the experiments, then chart their results",
		Long: `Run each experiment in order, load the timing file it writes and
chart all series against the problem sizes. The first failure stops the
run and leaves any previous chart untouched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPipeline(cmd.Context(), logger, cmd.OutOrStdout(), cfg, false)
		},
	}

	addPipelineFlags(cmd, &cfg)

	flags := cmd.Flags()
	flags.StringVar(&cfg.scriptsDir, "scripts-dir", ".",
		"Directory searched for experiment programs before $PATH")
	flags.BoolVar(&cfg.fresh, "fresh", false,
		"Remove result files before each experiment runs")
	flags.BoolVar(&cfg.ignoreExitStatus, "ignore-exit-status", false,
		"Do not fail when an experiment exits with a non-zero status")
	flags.DurationVar(&cfg.timeout, "timeout", 0,
		"Per-experiment timeout (0 = none)")

	return cmd
}

func newPlotCmd(logger *slog.Logger) *cobra.Command {
	var cfg runConfig

	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Chart existing result files without running experiments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPipeline(cmd.Context(), logger, cmd.OutOrStdout(), cfg, true)
		},
	}

	addPipelineFlags(cmd, &cfg)

	return cmd
}

func newSizesCmd() *cobra.Command {
	var cfg runConfig

	cmd := &cobra.Command{
		Use:   "sizes",
		Short: "Print the problem-size sequence",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			seq, err := resolveSizes(cfg)
			if err != nil {
				return err
			}

			for _, s := range seq {
				fmt.Fprintln(cmd.OutOrStdout(), s)
			}

			return nil
		},
	}

	addSizeFlags(cmd, &cfg)

	return cmd
}

func addSizeFlags(cmd *cobra.Command, cfg *runConfig) {
	flags := cmd.Flags()
	flags.StringVar(&cfg.sizes, "sizes", "",
		"Comma-separated problem sizes (overrides --size-*)")
	flags.IntVar(&cfg.sizeStart, "size-start", 1024,
		"First problem size")
	flags.IntVar(&cfg.sizeFactor, "size-factor", 4,
		"Ratio between consecutive problem sizes")
	flags.IntVar(&cfg.sizeCount, "size-count", 6,
		"Number of problem sizes")
}

func addPipelineFlags(cmd *cobra.Command, cfg *runConfig) {
	addSizeFlags(cmd, cfg)

	flags := cmd.Flags()
	flags.StringArrayVar(&cfg.experiments, "experiment", nil,
		"Experiment as name=command:result-file, repeatable "+
			"(default: the equality and equality-tcp experiments)")
	flags.StringVar(&cfg.workDir, "work-dir", "",
		"Directory experiments run in; relative paths resolve against it")
	flags.StringVarP(&cfg.output, "output", "o", pipeline.DefaultOutput,
		"Chart file; the extension selects the image format")
	flags.StringVar(&cfg.renderer, "renderer", "gonum",
		"Chart renderer: "+strings.Join(chart.Renderers(), ", "))
	flags.StringSliceVar(&cfg.colors, "colors", []string{"blue", "red"},
		"Line colors by experiment position: "+
			strings.Join(chart.ColorNames(), ", "))
	flags.StringVar(&cfg.title, "title", "", "Chart title")
	flags.StringVar(&cfg.xLabel, "x-label", "", "X axis label")
	flags.StringVar(&cfg.yLabel, "y-label", "", "Y axis label")
	flags.BoolVar(&cfg.legend, "legend", false,
		"Draw a legend with experiment names")
	flags.BoolVar(&cfg.logX, "log-x", false,
		"Use a logarithmic x axis")
	flags.BoolVar(&cfg.summary, "summary", false,
		"Print a comparison table to stdout")
	flags.BoolVar(&cfg.outputJSON, "json", false,
		"Print the comparison as JSON to stdout")
}

func resolveSizes(cfg runConfig) (sizes.Sequence, error) {
	if cfg.sizes != "" {
		return sizes.Parse(cfg.sizes)
	}

	seq := sizes.Geometric(cfg.sizeStart, cfg.sizeFactor, cfg.sizeCount)
	if err := sizes.Validate(seq); err != nil {
		return nil, err
	}

	return seq, nil
}

func buildConfig(cfg runConfig, skipRun bool) (pipeline.Config, error) {
	pcfg := pipeline.DefaultConfig()

	if len(cfg.experiments) > 0 {
		pcfg.Experiments = make([]experiment.Spec, 0, len(cfg.experiments))

		for _, raw := range cfg.experiments {
			spec, err := experiment.ParseSpec(raw)
			if err != nil {
				return pipeline.Config{}, err
			}

			pcfg.Experiments = append(pcfg.Experiments, spec)
		}
	}

	seq, err := resolveSizes(cfg)
	if err != nil {
		return pipeline.Config{}, err
	}

	renderer, err := chart.NewRenderer(cfg.renderer)
	if err != nil {
		return pipeline.Config{}, err
	}

	for _, c := range cfg.colors {
		if _, err := chart.ParseColor(c); err != nil {
			return pipeline.Config{}, err
		}
	}

	if cfg.scriptsDir != "" {
		pcfg.ScriptsDir = cfg.scriptsDir
	}

	pcfg.WorkDir = cfg.workDir
	pcfg.Sizes = seq
	pcfg.Output = cfg.output
	pcfg.Renderer = renderer
	pcfg.Colors = cfg.colors
	pcfg.Title = cfg.title
	pcfg.XLabel = cfg.xLabel
	pcfg.YLabel = cfg.yLabel
	pcfg.Legend = cfg.legend
	pcfg.LogX = cfg.logX
	pcfg.SkipRun = skipRun
	pcfg.Fresh = cfg.fresh
	pcfg.IgnoreExitStatus = cfg.ignoreExitStatus
	pcfg.Timeout = cfg.timeout

	return pcfg, nil
}

func runPipeline(
	ctx context.Context,
	logger *slog.Logger,
	out io.Writer,
	cfg runConfig,
	skipRun bool,
) error {
	pcfg, err := buildConfig(cfg, skipRun)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(pcfg.Experiments))
	for _, e := range pcfg.Experiments {
		names = append(names, e.Name)
	}

	logger.InfoContext(ctx, "starting timing run",
		slog.Any("experiments", names),
		slog.String("sizes", pcfg.Sizes.String()),
		slog.String("output", pcfg.Output),
		slog.String("renderer", pcfg.Renderer.Name()),
		slog.Bool("skip_run", skipRun),
	)

	outcome, err := pipeline.Run(ctx, logger, pcfg)
	if err != nil {
		return err
	}

	if cfg.outputJSON {
		if err := report.GenerateJSON(out, pcfg.Sizes, outcome.Series); err != nil {
			return fmt.Errorf("generate JSON report: %w", err)
		}
	} else if cfg.summary {
		if err := report.Generate(out, pcfg.Sizes, outcome.Series); err != nil {
			return fmt.Errorf("generate report: %w", err)
		}
	}

	logger.InfoContext(ctx, "timing run complete",
		slog.String("output", outcome.Output))

	return nil
}
