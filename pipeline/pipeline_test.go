package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weiihann/timingplot/chart"
	"github.com/weiihann/timingplot/experiment"
	"github.com/weiihann/timingplot/series"
	"github.com/weiihann/timingplot/sizes"
)

var (
	mpiValues = "0.12,0.34,0.56,0.78,0.91,1.10"
	tcpValues = "0.20,0.38,0.60,0.80,0.95,1.15"
)

// TestHelperProcess is re-executed as an experiment program. Arguments
// after "--" are: mode, result file, comma-separated values.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("TIMINGPLOT_HELPER") != "1" {
		return
	}

	args := os.Args
	for len(args) > 0 && args[0] != "--" {
		args = args[1:]
	}

	if len(args) < 4 {
		os.Exit(2)
	}

	switch args[1] {
	case "write":
		f, err := os.OpenFile(args[2], os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			os.Exit(2)
		}
		for _, v := range strings.Split(args[3], ",") {
			fmt.Fprintln(f, v)
		}
		f.Close()
	case "fail":
		fmt.Fprintln(os.Stderr, "experiment crashed")
		os.Exit(1)
	}

	os.Exit(0)
}

func helperSpec(name, mode, result, values string) experiment.Spec {
	return experiment.Spec{
		Name:       name,
		Command:    os.Args[0],
		Args:       []string{"-test.run=^TestHelperProcess$", "--", mode, result, values},
		ResultPath: result,
	}
}

func testConfig(t *testing.T, specs ...experiment.Spec) Config {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Experiments = specs
	cfg.WorkDir = t.TempDir()
	cfg.ScriptsDir = cfg.WorkDir
	cfg.Env = []string{"TIMINGPLOT_HELPER=1"}

	return cfg
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunScenario(t *testing.T) {
	cfg := testConfig(t,
		helperSpec("equality", "write", "mpi_timing.txt", mpiValues),
		helperSpec("equality-tcp", "write", "tcp_timing.txt", tcpValues),
	)

	outcome, err := Run(context.Background(), discardLogger(), cfg)
	require.NoError(t, err)

	require.Len(t, outcome.Runs, 2)
	assert.Equal(t, "equality", outcome.Runs[0].Name)
	assert.Equal(t, "equality-tcp", outcome.Runs[1].Name)

	require.Len(t, outcome.Series, 2)
	assert.Equal(t, []float64{0.12, 0.34, 0.56, 0.78, 0.91, 1.10}, outcome.Series[0].Values)
	assert.Equal(t, []float64{0.20, 0.38, 0.60, 0.80, 0.95, 1.15}, outcome.Series[1].Values)

	assert.Equal(t, filepath.Join(cfg.WorkDir, DefaultOutput), outcome.Output)

	info, err := os.Stat(outcome.Output)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestRunIdempotent(t *testing.T) {
	cfg := testConfig(t,
		helperSpec("equality", "write", "mpi_timing.txt", mpiValues),
		helperSpec("equality-tcp", "write", "tcp_timing.txt", tcpValues),
	)
	cfg.Fresh = true

	outcome, err := Run(context.Background(), discardLogger(), cfg)
	require.NoError(t, err)

	first, err := os.ReadFile(outcome.Output)
	require.NoError(t, err)

	_, err = Run(context.Background(), discardLogger(), cfg)
	require.NoError(t, err)

	second, err := os.ReadFile(outcome.Output)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRunAppendingExperimentsMismatch(t *testing.T) {
	cfg := testConfig(t,
		helperSpec("equality", "write", "mpi_timing.txt", mpiValues),
		helperSpec("equality-tcp", "write", "tcp_timing.txt", tcpValues),
	)

	_, err := Run(context.Background(), discardLogger(), cfg)
	require.NoError(t, err)

	// Without Fresh the experiments append to their previous output.
	_, err = Run(context.Background(), discardLogger(), cfg)
	assert.ErrorIs(t, err, series.ErrLengthMismatch)
}

func TestRunMissingExecutable(t *testing.T) {
	cfg := testConfig(t,
		experiment.Spec{
			Name:       "equality",
			Command:    "run-exp-equality-missing.sh",
			ResultPath: "mpi_timing.txt",
		},
		helperSpec("equality-tcp", "write", "tcp_timing.txt", tcpValues),
	)

	previous := filepath.Join(cfg.WorkDir, DefaultOutput)
	require.NoError(t, os.WriteFile(previous, []byte("previous chart"), 0o644))

	_, err := Run(context.Background(), discardLogger(), cfg)
	require.ErrorIs(t, err, experiment.ErrNotFound)

	_, statErr := os.Stat(filepath.Join(cfg.WorkDir, "tcp_timing.txt"))
	assert.True(t, os.IsNotExist(statErr), "second experiment must not run")

	data, err := os.ReadFile(previous)
	require.NoError(t, err)
	assert.Equal(t, "previous chart", string(data))
}

func TestRunFailedExperiment(t *testing.T) {
	cfg := testConfig(t,
		helperSpec("equality", "fail", "mpi_timing.txt", ""),
		helperSpec("equality-tcp", "write", "tcp_timing.txt", tcpValues),
	)

	_, err := Run(context.Background(), discardLogger(), cfg)
	require.ErrorIs(t, err, experiment.ErrFailed)
	assert.Contains(t, err.Error(), "experiment crashed")
}

func TestRunIgnoreExitStatusStillNeedsResults(t *testing.T) {
	cfg := testConfig(t,
		helperSpec("equality", "fail", "mpi_timing.txt", ""),
		helperSpec("equality-tcp", "write", "tcp_timing.txt", tcpValues),
	)
	cfg.IgnoreExitStatus = true

	_, err := Run(context.Background(), discardLogger(), cfg)
	assert.ErrorIs(t, err, series.ErrUnreadable)
}

func TestRunLengthMismatch(t *testing.T) {
	cfg := testConfig(t,
		helperSpec("equality", "write", "mpi_timing.txt", "0.1,0.2,0.3,0.4,0.5"),
		helperSpec("equality-tcp", "write", "tcp_timing.txt", tcpValues),
	)

	_, err := Run(context.Background(), discardLogger(), cfg)
	require.ErrorIs(t, err, series.ErrLengthMismatch)

	_, statErr := os.Stat(filepath.Join(cfg.WorkDir, DefaultOutput))
	assert.True(t, os.IsNotExist(statErr), "no chart on length mismatch")
}

func TestRunMalformed(t *testing.T) {
	cfg := testConfig(t,
		helperSpec("equality", "write", "mpi_timing.txt", "0.1,0.2,oops,0.4,0.5,0.6"),
		helperSpec("equality-tcp", "write", "tcp_timing.txt", tcpValues),
	)

	_, err := Run(context.Background(), discardLogger(), cfg)
	assert.ErrorIs(t, err, series.ErrMalformed)
}

func TestRunSkipRun(t *testing.T) {
	cfg := testConfig(t,
		experiment.Spec{Name: "mpi", Command: "absent.sh", ResultPath: "mpi_timing.txt"},
		experiment.Spec{Name: "tcp", Command: "absent.sh", ResultPath: "tcp_timing.txt"},
	)
	cfg.SkipRun = true
	cfg.Renderer = chart.GoChartRenderer{}
	cfg.Output = "out/chart.svg"

	require.NoError(t, os.Mkdir(filepath.Join(cfg.WorkDir, "out"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.WorkDir, "mpi_timing.txt"),
		[]byte(strings.ReplaceAll(mpiValues, ",", "\n")+"\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.WorkDir, "tcp_timing.txt"),
		[]byte(strings.ReplaceAll(tcpValues, ",", "\n")+"\n"), 0o644))

	outcome, err := Run(context.Background(), discardLogger(), cfg)
	require.NoError(t, err)

	assert.Empty(t, outcome.Runs)

	data, err := os.ReadFile(filepath.Join(cfg.WorkDir, "out", "chart.svg"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")
}

func TestRunUnwritableOutput(t *testing.T) {
	cfg := testConfig(t,
		helperSpec("equality", "write", "mpi_timing.txt", mpiValues),
		helperSpec("equality-tcp", "write", "tcp_timing.txt", tcpValues),
	)
	cfg.Output = filepath.Join("no-such-dir", "timing_data.png")

	_, err := Run(context.Background(), discardLogger(), cfg)
	assert.ErrorIs(t, err, chart.ErrUnwritable)
}

func TestRunValidation(t *testing.T) {
	cfg := testConfig(t)

	_, err := Run(context.Background(), discardLogger(), cfg)
	require.Error(t, err)

	cfg = testConfig(t, helperSpec("x", "write", "x.txt", mpiValues))
	cfg.Sizes = sizes.Sequence{4, 2}

	_, err = Run(context.Background(), discardLogger(), cfg)
	assert.ErrorIs(t, err, sizes.ErrInvalid)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, sizes.Sequence{1024, 4096, 16384, 65536, 262144, 1048576}, cfg.Sizes)
	assert.Equal(t, []string{"blue", "red"}, cfg.Colors)
	assert.Equal(t, "timing_data.png", cfg.Output)
	require.Len(t, cfg.Experiments, 2)
	assert.Equal(t, "mpi_timing.txt", cfg.Experiments[0].ResultPath)
	assert.Equal(t, "tcp_timing.txt", cfg.Experiments[1].ResultPath)
}
