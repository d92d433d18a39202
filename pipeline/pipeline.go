// Package pipeline runs timing experiments, loads their result files and
// charts them against the problem sizes, strictly in that order.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/weiihann/timingplot/chart"
	"github.com/weiihann/timingplot/experiment"
	"github.com/weiihann/timingplot/series"
	"github.com/weiihann/timingplot/sizes"
)

// DefaultOutput is the chart path used when Config.Output is empty.
const DefaultOutput = "timing_data.png"

// Config holds everything a run needs. Relative result and output paths
// are resolved against WorkDir.
type Config struct {
	Experiments []experiment.Spec
	ScriptsDir  string
	WorkDir     string
	// Env is appended to the environment of every experiment.
	Env []string

	Sizes    sizes.Sequence
	Output   string
	Renderer chart.Renderer
	// Colors are assigned to experiments by position.
	Colors []string
	Title  string
	XLabel string
	YLabel string
	Legend bool
	LogX   bool

	SkipRun          bool
	Fresh            bool
	IgnoreExitStatus bool
	Timeout          time.Duration
}

// DefaultConfig returns the equality comparison: two experiments, six
// sizes, blue and red lines, timing_data.png.
func DefaultConfig() Config {
	return Config{
		Experiments: experiment.Defaults(),
		ScriptsDir:  ".",
		Sizes:       sizes.Default(),
		Output:      DefaultOutput,
		Renderer:    chart.GonumRenderer{},
		Colors:      []string{"blue", "red"},
	}
}

// Outcome records what a successful run produced.
type Outcome struct {
	Runs   []experiment.Result
	Series []series.Series
	Output string
}

// Run executes the pipeline. Each stage finishes before the next one
// starts, and the first error stops the run.
func Run(ctx context.Context, logger *slog.Logger, cfg Config) (*Outcome, error) {
	if err := validate(&cfg); err != nil {
		return nil, err
	}

	outcome := &Outcome{
		Output: experiment.ResultPath(cfg.WorkDir, cfg.Output),
	}

	// Step 1: Run experiments.
	if cfg.SkipRun {
		logger.InfoContext(ctx, "skipping experiments")
	} else {
		runs, err := runExperiments(ctx, logger, cfg)
		if err != nil {
			return nil, fmt.Errorf("run experiments: %w", err)
		}

		outcome.Runs = runs
	}

	// Step 2: Load result files.
	loaded, err := loadSeries(ctx, logger, cfg)
	if err != nil {
		return nil, fmt.Errorf("load results: %w", err)
	}

	outcome.Series = loaded

	// Step 3: Render chart.
	if err := render(outcome.Output, cfg, loaded); err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}

	logger.InfoContext(ctx, "chart written",
		slog.String("output", outcome.Output),
		slog.String("renderer", cfg.Renderer.Name()),
		slog.Int("series", len(loaded)),
	)

	return outcome, nil
}

func validate(cfg *Config) error {
	if len(cfg.Experiments) == 0 {
		return errors.New("at least one experiment must be configured")
	}

	if err := sizes.Validate(cfg.Sizes); err != nil {
		return err
	}

	if cfg.Output == "" {
		cfg.Output = DefaultOutput
	}

	if cfg.Renderer == nil {
		cfg.Renderer = chart.GonumRenderer{}
	}

	return nil
}

func runExperiments(
	ctx context.Context,
	logger *slog.Logger,
	cfg Config,
) ([]experiment.Result, error) {
	results := make([]experiment.Result, 0, len(cfg.Experiments))

	for _, spec := range cfg.Experiments {
		binPath, err := experiment.ResolveBinary(cfg.ScriptsDir, spec.Command)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", spec.Name, err)
		}

		runner := experiment.NewRunner(spec, binPath, cfg.Env, logger)

		result, err := runner.Run(ctx, experiment.RunConfig{
			WorkDir:          cfg.WorkDir,
			Timeout:          cfg.Timeout,
			Fresh:            cfg.Fresh,
			IgnoreExitStatus: cfg.IgnoreExitStatus,
		})
		if err != nil {
			return nil, fmt.Errorf("run %s: %w", spec.Name, err)
		}

		results = append(results, *result)
	}

	return results, nil
}

func loadSeries(
	ctx context.Context,
	logger *slog.Logger,
	cfg Config,
) ([]series.Series, error) {
	loaded := make([]series.Series, 0, len(cfg.Experiments))

	for _, spec := range cfg.Experiments {
		path := experiment.ResultPath(cfg.WorkDir, spec.ResultPath)

		s, err := series.Load(spec.Name, path)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", spec.Name, err)
		}

		if err := s.CheckLength(len(cfg.Sizes)); err != nil {
			return nil, err
		}

		logger.DebugContext(ctx, "series loaded",
			slog.String("experiment", spec.Name),
			slog.String("path", path),
			slog.Int("values", len(s.Values)),
		)

		loaded = append(loaded, s)
	}

	return loaded, nil
}

func render(output string, cfg Config, loaded []series.Series) error {
	spec := chart.Spec{
		Sizes:  cfg.Sizes.Floats(),
		Lines:  make([]chart.Line, 0, len(loaded)),
		Title:  cfg.Title,
		XLabel: cfg.XLabel,
		YLabel: cfg.YLabel,
		Legend: cfg.Legend,
		LogX:   cfg.LogX,
	}

	for i, s := range loaded {
		line := chart.Line{Name: s.Name, Values: s.Values}
		if i < len(cfg.Colors) {
			line.Color = cfg.Colors[i]
		}

		spec.Lines = append(spec.Lines, line)
	}

	return chart.WriteFile(output, cfg.Renderer, spec)
}
