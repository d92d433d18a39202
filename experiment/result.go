// Package experiment runs external experiment programs that write timing
// results to disk.
package experiment

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when an experiment executable is missing.
	ErrNotFound = errors.New("experiment executable not found")
	// ErrFailed is returned when an experiment exits with a non-zero status.
	ErrFailed = errors.New("experiment failed")
	// ErrTimeout is returned when an experiment outlives its timeout.
	ErrTimeout = errors.New("experiment timed out")
)

// Result holds what was observed while running one experiment.
type Result struct {
	Name       string        `json:"name"`
	Binary     string        `json:"binary"`
	ResultPath string        `json:"result_path"`
	ExitCode   int           `json:"exit_code"`
	Stdout     string        `json:"stdout,omitempty"`
	Stderr     string        `json:"stderr,omitempty"`
	WallTime   time.Duration `json:"wall_time_ns"`
}

// ExitError reports a non-zero exit status together with the captured
// stderr.
type ExitError struct {
	Name   string
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("experiment %s exited with status %d", e.Name, e.Code)
	}

	return fmt.Sprintf("experiment %s exited with status %d\nstderr: %s",
		e.Name, e.Code, e.Stderr)
}

// Unwrap lets errors.Is match ErrFailed.
func (e *ExitError) Unwrap() error { return ErrFailed }
