// Package input reads a count n followed by n whitespace-separated decimal
// integers.
package input

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
)

var (
	ErrNegativeCount = errors.New("negative count")
	ErrMalformed     = errors.New("malformed integer")
)

// Reader tokenizes integers from an io.Reader.
type Reader struct {
	sc  *bufio.Scanner
	pos int // tokens consumed so far
}

func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Split(bufio.ScanWords)
	return &Reader{sc: sc}
}

// Int reads the next integer. It returns io.EOF when the input is exhausted.
func (r *Reader) Int() (int, error) {
	if !r.sc.Scan() {
		if err := r.sc.Err(); err != nil {
			return 0, fmt.Errorf("token %d: %w", r.pos, err)
		}
		return 0, io.EOF
	}
	tok := r.sc.Text()
	r.pos++
	x, err := strconv.Atoi(tok)
	if err != nil {
		return 0, fmt.Errorf("token %d %q: %w", r.pos, tok, ErrMalformed)
	}
	return x, nil
}

// Count reads a non-negative element count. A negative value is rejected
// instead of being reinterpreted as a huge unsigned size.
func (r *Reader) Count() (int, error) {
	n, err := r.Int()
	if errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("count: %w", io.ErrUnexpectedEOF)
	}
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	if n < 0 {
		return 0, fmt.Errorf("count %d: %w", n, ErrNegativeCount)
	}
	return n, nil
}

// Ints reads exactly n integers and hands each to yield with its position.
// It stops at the first error from the input or from yield.
func (r *Reader) Ints(n int, yield func(i, x int) error) error {
	for i := 0; i < n; i++ {
		x, err := r.Int()
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("element %d of %d: %w", i, n, io.ErrUnexpectedEOF)
		}
		if err != nil {
			return fmt.Errorf("element %d of %d: %w", i, n, err)
		}
		if err := yield(i, x); err != nil {
			return err
		}
	}
	return nil
}
