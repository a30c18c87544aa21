package vector

import (
	"errors"
	"fmt"
)

// Sentinel errors. Callers compare against them with errors.Is; the typed
// errors below carry the details and match the sentinels through Is/Unwrap.
var (
	ErrOutOfRange  = errors.New("index out of range")
	ErrAllocation  = errors.New("allocation failed")
	ErrInvalidSize = errors.New("invalid size")
)

// RangeError is returned by checked access when Index is not in [0, Len).
type RangeError struct {
	Index int
	Len   int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("index %d out of range [0:%d]", e.Index, e.Len)
}

// Is makes errors.Is(err, ErrOutOfRange) match any *RangeError.
func (e *RangeError) Is(target error) bool { return target == ErrOutOfRange }

// AllocError reports a growth request that could not be satisfied. The
// vector that returned it is left exactly as it was before the call.
type AllocError struct {
	Requested int // capacity, in elements
	Bytes     int // storage size, in bytes; 0 when the size itself overflowed
	Err       error
}

func (e *AllocError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("allocate %d elements (%d bytes): %v", e.Requested, e.Bytes, ErrAllocation)
	}
	return fmt.Sprintf("allocate %d elements (%d bytes): %v", e.Requested, e.Bytes, e.Err)
}

func (e *AllocError) Unwrap() error { return e.Err }

func (e *AllocError) Is(target error) bool { return target == ErrAllocation }

func invalidSize(op string, n int) error {
	return fmt.Errorf("%s(%d): %w", op, n, ErrInvalidSize)
}
