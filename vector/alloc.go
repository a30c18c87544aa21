package vector

import (
	"fmt"
	"sync"
)

// Allocator accounts for the bytes a vector's storage occupies.
//
// The Go runtime owns the memory itself; an Allocator decides whether a new
// buffer may be taken and is told when an old one is given back. This keeps
// the new/delete pairing of manual memory management visible and testable:
// every successful Allocate is matched by exactly one Free of the same size.
//
// Free may be called from the runtime's cleanup goroutine, so implementations
// shared between vectors must be safe for concurrent use.
type Allocator interface {
	Allocate(bytes int) error
	Free(bytes int)
}

// Heap is the default allocator: it accepts every request and tracks nothing.
type Heap struct{}

func (Heap) Allocate(int) error { return nil }
func (Heap) Free(int)           {}

// Budget is an allocator with a fixed byte limit. It can be shared by any
// number of vectors.
type Budget struct {
	mu        sync.Mutex
	limit     int
	inUse     int
	peak      int
	overfreed int
}

// NewBudget returns a Budget that refuses to hand out more than limit bytes
// at a time. A limit <= 0 means unlimited.
func NewBudget(limit int) *Budget {
	return &Budget{limit: limit}
}

func (b *Budget) Allocate(bytes int) error {
	if bytes < 0 {
		return fmt.Errorf("budget: negative request %d: %w", bytes, ErrInvalidSize)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.limit > 0 && bytes > b.limit-b.inUse {
		return fmt.Errorf("budget: %d bytes requested, %d of %d in use: %w",
			bytes, b.inUse, b.limit, ErrAllocation)
	}
	b.inUse += bytes
	if b.inUse > b.peak {
		b.peak = b.inUse
	}
	return nil
}

func (b *Budget) Free(bytes int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.inUse -= bytes
	if b.inUse < 0 {
		// A double free is a bug in the caller. Record it and clamp so the
		// budget stays usable.
		b.overfreed -= b.inUse
		b.inUse = 0
	}
}

// InUse reports the bytes currently charged.
func (b *Budget) InUse() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.inUse
}

// Peak reports the highest value InUse has reached.
func (b *Budget) Peak() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.peak
}

// Overfreed reports the bytes freed beyond what was in use. Anything but 0
// means some storage was returned twice.
func (b *Budget) Overfreed() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.overfreed
}

// Limit reports the configured limit; 0 means unlimited.
func (b *Budget) Limit() int {
	if b.limit < 0 {
		return 0
	}
	return b.limit
}
