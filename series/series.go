// Package series loads timing series written by experiment programs: plain
// text files with one measurement per line.
package series

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

var (
	// ErrUnreadable is returned when a result file cannot be opened or read.
	ErrUnreadable = errors.New("result file unreadable")
	// ErrMalformed is returned when a line is not a number.
	ErrMalformed = errors.New("malformed timing value")
	// ErrLengthMismatch is returned when a series does not have one value
	// per problem size.
	ErrLengthMismatch = errors.New("series length mismatch")

	errNotFinite = errors.New("not a finite number")
)

// Series is an ordered list of timing measurements, one per problem size.
type Series struct {
	Name   string    `json:"name"`
	Path   string    `json:"path,omitempty"`
	Values []float64 `json:"values"`
}

// ParseError reports the first line that could not be parsed.
type ParseError struct {
	Path string
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %q: %v", e.Path, e.Line, e.Text, e.Err)
}

// Unwrap lets errors.Is match ErrMalformed.
func (e *ParseError) Unwrap() error { return ErrMalformed }

// LengthError reports a series whose length differs from the size count.
type LengthError struct {
	Name string
	Got  int
	Want int
}

func (e *LengthError) Error() string {
	return fmt.Sprintf("series %s has %d values, want %d", e.Name, e.Got, e.Want)
}

// Unwrap lets errors.Is match ErrLengthMismatch.
func (e *LengthError) Unwrap() error { return ErrLengthMismatch }

// Load reads the series stored at path. The file is closed before Load
// returns.
func Load(name, path string) (Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return Series{}, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}
	defer f.Close()

	s, err := parse(name, path, f)
	if err != nil {
		return Series{}, err
	}

	return s, nil
}

// Parse reads a series from r. Surrounding whitespace is trimmed and blank
// lines are skipped.
func Parse(name string, r io.Reader) (Series, error) {
	return parse(name, "", r)
}

func parse(name, path string, r io.Reader) (Series, error) {
	s := Series{Name: name, Path: path}

	source := path
	if source == "" {
		source = name
	}

	sc := bufio.NewScanner(r)
	lineNo := 0

	for sc.Scan() {
		lineNo++

		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}

		v, err := strconv.ParseFloat(text, 64)
		if err == nil && (math.IsNaN(v) || math.IsInf(v, 0)) {
			err = errNotFinite
		}

		if err != nil {
			return Series{}, &ParseError{
				Path: source,
				Line: lineNo,
				Text: text,
				Err:  err,
			}
		}

		s.Values = append(s.Values, v)
	}

	if err := sc.Err(); err != nil {
		return Series{}, fmt.Errorf("%w: read %s: %w", ErrUnreadable, source, err)
	}

	return s, nil
}

// CheckLength returns a *LengthError unless s has exactly n values.
func (s Series) CheckLength(n int) error {
	if len(s.Values) != n {
		return &LengthError{Name: s.Name, Got: len(s.Values), Want: n}
	}

	return nil
}
