// Package fill builds a vector of n integers by one of three strategies:
// growing by append, reserving first, or pre-sizing and assigning by index.
package fill

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/marcodamonte/concurrency/growable-array/vector"
)

// Strategy names a way of filling a vector with a known number of elements.
type Strategy string

const (
	// Append starts empty and lets the vector double as needed.
	Append Strategy = "append"
	// Reserve reserves n slots, then appends. One allocation, no zeroing.
	Reserve Strategy = "reserve"
	// Presize creates n zero elements, then assigns by index. One allocation
	// plus zeroing every slot up front.
	Presize Strategy = "presize"
)

// Strategies lists every strategy in presentation order.
var Strategies = []Strategy{Append, Reserve, Presize}

var ErrUnknownStrategy = errors.New("unknown strategy")

// ParseStrategy maps a name to a Strategy, case-insensitively.
func ParseStrategy(s string) (Strategy, error) {
	for _, st := range Strategies {
		if strings.EqualFold(s, string(st)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("%q (want one of %v): %w", s, Strategies, ErrUnknownStrategy)
}

// Source produces exactly n integers, calling yield for each. The method
// value (*input.Reader).Ints is a Source.
type Source func(n int, yield func(i, x int) error) error

// Generate is a Source yielding 0, 1, ..., n-1.
func Generate(n int, yield func(i, x int) error) error {
	for i := 0; i < n; i++ {
		if err := yield(i, i); err != nil {
			return err
		}
	}
	return nil
}

// Options configures Fill.
type Options struct {
	// Vector is passed to the vector constructor. Its Capacity is only used by
	// the Append strategy; the others size the vector from n.
	Vector vector.Options

	// Clock measures Elapsed. If nil, the real clock is used.
	Clock clockwork.Clock
}

// Report summarizes the storage work one Fill did.
type Report struct {
	Strategy    Strategy
	N           int
	Len         int
	Cap         int
	Allocations int
	Growths     int
	Copied      int
	Elapsed     time.Duration
}

// Fill builds a vector from n elements of src using strategy s. On error the
// partially filled vector is released and only the report fields known so
// far are set.
func Fill(s Strategy, n int, src Source, opts Options) (*vector.Vector[int], Report, error) {
	rep := Report{Strategy: s, N: n}
	if n < 0 {
		return nil, rep, fmt.Errorf("fill %s: %w", s, vector.ErrInvalidSize)
	}

	clk := opts.Clock
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	start := clk.Now()

	v, err := build(s, n, src, opts.Vector)
	rep.Elapsed = clk.Since(start)
	if err != nil {
		if v != nil {
			v.Release()
		}
		return nil, rep, fmt.Errorf("fill %s: %w", s, err)
	}

	st := v.Stats()
	rep.Len = v.Len()
	rep.Cap = v.Cap()
	rep.Allocations = st.Allocations
	rep.Growths = st.Growths
	rep.Copied = st.Copied
	return v, rep, nil
}

func build(s Strategy, n int, src Source, opts vector.Options) (*vector.Vector[int], error) {
	switch s {
	case Append:
		v, err := vector.New[int](opts)
		if err != nil {
			return nil, err
		}
		return v, src(n, func(_, x int) error { return v.Append(x) })

	case Reserve:
		opts.Capacity = n
		v, err := vector.New[int](opts)
		if err != nil {
			return nil, err
		}
		return v, src(n, func(_, x int) error { return v.Append(x) })

	case Presize:
		opts.Capacity = 0
		v, err := vector.Make[int](n, opts)
		if err != nil {
			return nil, err
		}
		return v, src(n, func(i, x int) error { return v.Set(i, x) })

	default:
		return nil, fmt.Errorf("%q: %w", s, ErrUnknownStrategy)
	}
}
