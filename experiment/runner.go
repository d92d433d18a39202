package experiment

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// waitDelay bounds how long Run waits for output pipes to close after the
// experiment was killed.
const waitDelay = 2 * time.Second

// RunConfig holds parameters for a single experiment execution.
type RunConfig struct {
	// WorkDir is the directory the experiment runs in. Relative result
	// paths are resolved against it.
	WorkDir string
	// Timeout bounds the run. Zero means no timeout.
	Timeout time.Duration
	// Fresh removes the result file before the experiment starts.
	Fresh bool
	// IgnoreExitStatus records a non-zero exit instead of failing.
	IgnoreExitStatus bool
}

// Runner launches and waits for a single experiment program.
type Runner struct {
	Spec       Spec
	BinaryPath string
	Env        []string
	Logger     *slog.Logger
}

// NewRunner creates a Runner for spec. Env is appended to the inherited
// environment.
func NewRunner(spec Spec, binaryPath string, env []string, logger *slog.Logger) *Runner {
	return &Runner{
		Spec:       spec,
		BinaryPath: binaryPath,
		Env:        env,
		Logger:     logger.With(slog.String("experiment", spec.Name)),
	}
}

// ResultPath resolves path against workDir unless it is absolute.
func ResultPath(workDir, path string) string {
	if workDir == "" || filepath.IsAbs(path) {
		return path
	}

	return filepath.Join(workDir, path)
}

// Run executes the experiment and blocks until it exits.
func (r *Runner) Run(ctx context.Context, cfg RunConfig) (*Result, error) {
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	resultPath := ResultPath(cfg.WorkDir, r.Spec.ResultPath)

	if cfg.Fresh {
		err := os.Remove(resultPath)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("remove stale results %s: %w", resultPath, err)
		}
	}

	cmd := exec.CommandContext(ctx, r.BinaryPath, r.Spec.Args...)
	cmd.Dir = cfg.WorkDir
	cmd.WaitDelay = waitDelay
	killProcessGroup(cmd)

	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.Logger.InfoContext(ctx, "starting experiment",
		slog.String("binary", r.BinaryPath),
		slog.String("work_dir", cfg.WorkDir),
	)

	wallStart := time.Now()
	runErr := cmd.Run()
	wallElapsed := time.Since(wallStart)

	result := &Result{
		Name:       r.Spec.Name,
		Binary:     r.BinaryPath,
		ResultPath: resultPath,
		ExitCode:   cmd.ProcessState.ExitCode(),
		Stdout:     stdout.String(),
		Stderr:     stderr.String(),
		WallTime:   wallElapsed,
	}

	if runErr != nil {
		if err := r.classify(ctx, runErr, result, cfg); err != nil {
			return nil, err
		}
	}

	r.Logger.InfoContext(ctx, "experiment finished",
		slog.Duration("wall_time", wallElapsed),
		slog.Int("exit_code", result.ExitCode),
		slog.Int("stdout_bytes", stdout.Len()),
	)

	return result, nil
}

// classify maps a cmd.Run error onto the package error kinds. A nil return
// means the failure is tolerated.
func (r *Runner) classify(
	ctx context.Context,
	runErr error,
	result *Result,
	cfg RunConfig,
) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s after %s", ErrTimeout, r.Spec.Name, cfg.Timeout)
	}

	if ctx.Err() != nil {
		return fmt.Errorf("experiment %s: %w", r.Spec.Name, ctx.Err())
	}

	if errors.Is(runErr, exec.ErrNotFound) || errors.Is(runErr, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s: %w", ErrNotFound, r.BinaryPath, runErr)
	}

	var exitErr *exec.ExitError
	if !errors.As(runErr, &exitErr) {
		return fmt.Errorf("start experiment %s: %w", r.Spec.Name, runErr)
	}

	if cfg.IgnoreExitStatus {
		r.Logger.WarnContext(ctx, "experiment exited with non-zero status",
			slog.Int("exit_code", result.ExitCode),
			slog.String("stderr", result.Stderr),
		)

		return nil
	}

	return &ExitError{
		Name:   r.Spec.Name,
		Code:   result.ExitCode,
		Stderr: result.Stderr,
	}
}
