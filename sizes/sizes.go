// Package sizes builds and validates the problem-size sequence used as the
// x-axis of timing charts.
package sizes

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalid is returned for sequences that cannot serve as an x-axis.
var ErrInvalid = errors.New("invalid size sequence")

// Sequence is an ordered list of problem sizes.
type Sequence []int

// Default returns the six sizes the equality experiments are run with.
func Default() Sequence {
	return Geometric(1024, 4, 6)
}

// Geometric returns n sizes starting at start, each factor times the
// previous one. It returns nil if the progression overflows int.
func Geometric(start, factor, n int) Sequence {
	if n <= 0 {
		return nil
	}

	seq := make(Sequence, 0, n)
	v := start

	for i := 0; i < n; i++ {
		seq = append(seq, v)

		if i < n-1 && factor != 0 && v > math.MaxInt/factor {
			return nil
		}

		v *= factor
	}

	return seq
}

// Parse reads a comma-separated list such as "1024,4096,16384".
func Parse(s string) (Sequence, error) {
	fields := strings.Split(s, ",")
	seq := make(Sequence, 0, len(fields))

	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}

		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not an integer", ErrInvalid, f)
		}

		seq = append(seq, v)
	}

	if err := Validate(seq); err != nil {
		return nil, err
	}

	return seq, nil
}

// Validate checks that seq is non-empty, positive and strictly increasing.
func Validate(seq Sequence) error {
	if len(seq) == 0 {
		return fmt.Errorf("%w: empty", ErrInvalid)
	}

	for i, v := range seq {
		if v <= 0 {
			return fmt.Errorf("%w: size %d at index %d is not positive",
				ErrInvalid, v, i)
		}

		if i > 0 && v <= seq[i-1] {
			return fmt.Errorf("%w: size %d at index %d does not increase",
				ErrInvalid, v, i)
		}
	}

	return nil
}

// Floats returns the sequence as float64 values for plotting.
func (s Sequence) Floats() []float64 {
	out := make([]float64, len(s))
	for i, v := range s {
		out[i] = float64(v)
	}

	return out
}

// String formats the sequence the way Parse accepts it.
func (s Sequence) String() string {
	parts := make([]string, len(s))
	for i, v := range s {
		parts[i] = strconv.Itoa(v)
	}

	return strings.Join(parts, ",")
}
