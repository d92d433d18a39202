// Package chart draws timing series against problem sizes and writes the
// result to an image file.
package chart

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

var (
	// ErrUnwritable is returned when the output file cannot be created or
	// replaced.
	ErrUnwritable = errors.New("chart output unwritable")
	// ErrUnsupportedFormat is returned for output extensions the renderer
	// cannot encode.
	ErrUnsupportedFormat = errors.New("unsupported chart format")
	// ErrUnknownRenderer is returned by NewRenderer for unknown names.
	ErrUnknownRenderer = errors.New("unknown renderer")
	// ErrInvalidSpec is returned when the lines do not match the sizes.
	ErrInvalidSpec = errors.New("invalid chart spec")
)

// Default figure size in inches.
const (
	DefaultWidth  = 6.4
	DefaultHeight = 4.8
)

// Line is one series drawn on the chart.
type Line struct {
	Name   string
	Values []float64
	// Color is a color name; empty picks from DefaultColors by position.
	Color string
}

// Spec describes a chart: a shared x-axis of problem sizes and one line
// per timing series. Title, labels and legend are omitted when empty or
// false.
type Spec struct {
	Sizes  []float64
	Lines  []Line
	Title  string
	XLabel string
	YLabel string
	Legend bool
	LogX   bool
	// Width and Height are in inches. Zero selects the defaults.
	Width  float64
	Height float64
}

// Validate checks that every line has one value per size and that every
// color is known.
func (s Spec) Validate() error {
	if len(s.Sizes) == 0 {
		return fmt.Errorf("%w: no sizes", ErrInvalidSpec)
	}

	if len(s.Lines) == 0 {
		return fmt.Errorf("%w: no lines", ErrInvalidSpec)
	}

	for i, l := range s.Lines {
		if len(l.Values) != len(s.Sizes) {
			return fmt.Errorf("%w: line %d (%s) has %d values for %d sizes",
				ErrInvalidSpec, i, l.Name, len(l.Values), len(s.Sizes))
		}

		if _, err := s.lineColor(i); err != nil {
			return err
		}
	}

	if s.LogX && slices.Min(s.Sizes) <= 0 {
		return fmt.Errorf("%w: log scale needs positive sizes", ErrInvalidSpec)
	}

	return nil
}

func (s Spec) size() (w, h float64) {
	w, h = s.Width, s.Height
	if w <= 0 {
		w = DefaultWidth
	}

	if h <= 0 {
		h = DefaultHeight
	}

	return w, h
}

func (s Spec) lineColor(i int) (RGBA, error) {
	name := s.Lines[i].Color
	if name == "" {
		name = DefaultColors[i%len(DefaultColors)]
	}

	return ParseColor(name)
}

// Renderer encodes a Spec into an image format.
type Renderer interface {
	Name() string
	Formats() []string
	Render(w io.Writer, format string, spec Spec) error
}

// Renderers lists the available renderer names, the default first.
func Renderers() []string {
	return []string{"gonum", "gochart"}
}

// NewRenderer returns the renderer registered under name.
func NewRenderer(name string) (Renderer, error) {
	switch name {
	case "", "gonum":
		return GonumRenderer{}, nil
	case "gochart", "go-chart":
		return GoChartRenderer{}, nil
	default:
		return nil, fmt.Errorf("%w %q (want one of %s)",
			ErrUnknownRenderer, name, strings.Join(Renderers(), ", "))
	}
}

// FormatFromPath returns the image format implied by the file extension.
func FormatFromPath(path string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "jpeg" {
		return "jpg"
	}

	return ext
}

// WriteFile renders spec to path. The image is written to a temporary
// file next to path and renamed over it, so a failed run leaves any
// previous chart in place.
func WriteFile(path string, r Renderer, spec Spec) error {
	format := FormatFromPath(path)
	if !slices.Contains(r.Formats(), format) {
		return fmt.Errorf("%w: %s renderer cannot write %q (supported: %s)",
			ErrUnsupportedFormat, r.Name(), format,
			strings.Join(r.Formats(), ", "))
	}

	if err := spec.Validate(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnwritable, err)
	}

	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	bw := bufio.NewWriter(tmp)

	if err := r.Render(bw, format, spec); err != nil {
		tmp.Close()

		return fmt.Errorf("render %s chart: %w", r.Name(), err)
	}

	if err := bw.Flush(); err != nil {
		tmp.Close()

		return fmt.Errorf("%w: write %s: %w", ErrUnwritable, tmpName, err)
	}

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()

		return fmt.Errorf("%w: chmod %s: %w", ErrUnwritable, tmpName, err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", ErrUnwritable, tmpName, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("%w: %w", ErrUnwritable, err)
	}

	return nil
}
