package experiment

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Spec describes one external experiment program and the timing file it
// leaves behind.
type Spec struct {
	Name       string
	Command    string
	Args       []string
	ResultPath string
}

// Defaults returns the equality experiments: the MPI variant first, then
// the TCP variant.
func Defaults() []Spec {
	return []Spec{
		{
			Name:       "equality",
			Command:    "run-exp-equality.sh",
			ResultPath: "mpi_timing.txt",
		},
		{
			Name:       "equality-tcp",
			Command:    "run-exp-equality-tcp.sh",
			ResultPath: "tcp_timing.txt",
		},
	}
}

// ParseSpec parses the flag form "name=command:result".
func ParseSpec(s string) (Spec, error) {
	name, rest, ok := strings.Cut(s, "=")
	if !ok || name == "" {
		return Spec{}, fmt.Errorf("experiment %q: want name=command:result", s)
	}

	i := strings.LastIndex(rest, ":")
	if i <= 0 || i == len(rest)-1 {
		return Spec{}, fmt.Errorf("experiment %q: want name=command:result", s)
	}

	return Spec{
		Name:       name,
		Command:    rest[:i],
		ResultPath: rest[i+1:],
	}, nil
}

// ResolveBinary returns the path of command. Absolute paths are used as
// is, then scriptsDir is searched, then $PATH.
func ResolveBinary(scriptsDir, command string) (string, error) {
	if command == "" {
		return "", fmt.Errorf("%w: empty command", ErrNotFound)
	}

	if filepath.IsAbs(command) {
		return statBinary(command)
	}

	if scriptsDir != "" {
		candidate := filepath.Join(scriptsDir, command)
		if _, err := os.Stat(candidate); err == nil {
			return filepath.Abs(candidate)
		}
	}

	if strings.ContainsRune(command, filepath.Separator) {
		abs, err := filepath.Abs(command)
		if err != nil {
			return "", fmt.Errorf("resolve %s: %w", command, err)
		}

		return statBinary(abs)
	}

	path, err := exec.LookPath(command)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrNotFound, command, err)
	}

	return path, nil
}

func statBinary(path string) (string, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}

	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", ErrNotFound, path)
	}

	return path, nil
}
