package vector

import (
	"cmp"
	"fmt"
	"iter"
	"math"
	"runtime"
	"slices"
	"unsafe"
)

// Options holds construction parameters. The zero value is valid.
type Options struct {
	// Capacity is the number of slots reserved up front.
	Capacity int

	// Allocator accounts for storage. If nil, Heap{} is used.
	Allocator Allocator

	// Observer is told about every storage reallocation. Optional.
	Observer Observer
}

func (o *Options) withDefaults() Options {
	out := *o
	if out.Allocator == nil {
		out.Allocator = Heap{}
	}
	return out
}

// GrowEvent describes one storage reallocation. OldCap is 0 for the first
// allocation of a vector.
type GrowEvent struct {
	OldCap int
	NewCap int
	Copied int // live elements moved into the new storage
}

// Observer receives reallocation events.
type Observer interface {
	Grow(ev GrowEvent)
}

// ObserverFunc adapts a plain function to Observer.
type ObserverFunc func(ev GrowEvent)

func (f ObserverFunc) Grow(ev GrowEvent) { f(ev) }

// Stats counts the storage work a vector has done.
type Stats struct {
	Allocations int // every storage allocation, the first one included
	Growths     int // reallocations that replaced non-empty storage
	Copied      int // elements copied by reallocations
}

// lease records the bytes currently charged to an allocator. It lives apart
// from the Vector so a runtime cleanup can return the charge once the vector
// is unreachable.
type lease struct {
	alloc Allocator
	bytes int
}

func (l *lease) release() {
	if l.bytes > 0 {
		l.alloc.Free(l.bytes)
		l.bytes = 0
	}
}

// Vector is a growable array of T. The zero value is an empty vector backed
// by the Heap allocator and is ready to use. A non-zero Vector must not be
// copied; modifying a copy panics.
type Vector[T any] struct {
	addr  *Vector[T] // of receiver, to detect copies by value
	buf   []T        // len(buf) is the capacity
	size  int
	alloc Allocator
	obs   Observer
	lease *lease
	stats Stats
}

func (v *Vector[T]) copyCheck() {
	if v.addr == nil {
		v.addr = v
	} else if v.addr != v {
		panic("vector: illegal use of non-zero Vector copied by value")
	}
}

// New returns an empty vector with opts.Capacity slots reserved.
func New[T any](opts Options) (*Vector[T], error) {
	o := opts.withDefaults()
	if o.Capacity < 0 {
		return nil, invalidSize("new", o.Capacity)
	}
	v := &Vector[T]{alloc: o.Allocator, obs: o.Observer}
	if err := v.Reserve(o.Capacity); err != nil {
		return nil, err
	}
	return v, nil
}

// Make returns a vector of n zero-valued elements.
func Make[T any](n int, opts Options) (*Vector[T], error) {
	if n < 0 {
		return nil, invalidSize("make", n)
	}
	v, err := New[T](opts)
	if err != nil {
		return nil, err
	}
	if err := v.Resize(n); err != nil {
		v.Release()
		return nil, err
	}
	return v, nil
}

// From returns a heap-backed vector holding vals, with Cap == len(vals).
func From[T any](vals ...T) *Vector[T] {
	v := &Vector[T]{}
	if err := v.AppendAll(vals...); err != nil {
		// Heap never refuses, and a copy of vals has a length the runtime
		// already accepted once.
		panic(err)
	}
	return v
}

// Len returns the number of live elements.
func (v *Vector[T]) Len() int { return v.size }

// Cap returns the number of allocated slots.
func (v *Vector[T]) Cap() int { return len(v.buf) }

// Stats returns the reallocation counters.
func (v *Vector[T]) Stats() Stats { return v.stats }

// Reserve ensures Cap() >= n without changing Len(). It never shrinks.
func (v *Vector[T]) Reserve(n int) error {
	v.copyCheck()
	if n < 0 {
		return invalidSize("reserve", n)
	}
	if n <= len(v.buf) {
		return nil
	}
	return v.realloc(n)
}

// Resize sets Len() to n. New elements are zero values; elements past n are
// cleared and no longer reachable through the vector.
func (v *Vector[T]) Resize(n int) error {
	v.copyCheck()
	if n < 0 {
		return invalidSize("resize", n)
	}
	if n > len(v.buf) {
		if err := v.realloc(n); err != nil {
			return err
		}
	}
	if n > v.size {
		clear(v.buf[v.size:n])
	} else {
		clear(v.buf[n:v.size])
	}
	v.size = n
	return nil
}

// Append adds x after the last element, doubling the capacity when full.
func (v *Vector[T]) Append(x T) error {
	v.copyCheck()
	if v.size == len(v.buf) {
		c := len(v.buf)
		if c > math.MaxInt/2 {
			return fmt.Errorf("append: capacity %d cannot double: %w", c, ErrAllocation)
		}
		if err := v.realloc(max(1, 2*c)); err != nil {
			return err
		}
	}
	v.buf[v.size] = x
	v.size++
	return nil
}

// AppendAll adds xs in order with at most one reallocation. Either all of xs
// are appended or, on error, none.
func (v *Vector[T]) AppendAll(xs ...T) error {
	v.copyCheck()
	if len(xs) > math.MaxInt-v.size {
		return fmt.Errorf("append %d elements to %d: %w", len(xs), v.size, ErrAllocation)
	}
	need := v.size + len(xs)
	if need > len(v.buf) {
		c := need
		if len(v.buf) <= math.MaxInt/2 {
			c = max(need, 2*len(v.buf))
		}
		if err := v.realloc(c); err != nil {
			return err
		}
	}
	copy(v.buf[v.size:need], xs)
	v.size = need
	return nil
}

// Pop removes and returns the last element. It reports false on an empty
// vector. Capacity is kept.
func (v *Vector[T]) Pop() (T, bool) {
	v.copyCheck()
	var zero T
	if v.size == 0 {
		return zero, false
	}
	v.size--
	x := v.buf[v.size]
	v.buf[v.size] = zero
	return x, true
}

// Clear drops every element and keeps the capacity.
func (v *Vector[T]) Clear() {
	v.copyCheck()
	clear(v.buf[:v.size])
	v.size = 0
}

// At returns the element at i, or a *RangeError matching ErrOutOfRange when i
// is not in [0, Len).
func (v *Vector[T]) At(i int) (T, error) {
	if i < 0 || i >= v.size {
		var zero T
		return zero, &RangeError{Index: i, Len: v.size}
	}
	return v.buf[i], nil
}

// Set replaces the element at i under the same rules as At.
func (v *Vector[T]) Set(i int, x T) error {
	v.copyCheck()
	if i < 0 || i >= v.size {
		return &RangeError{Index: i, Len: v.size}
	}
	v.buf[i] = x
	return nil
}

// Index returns the element at i without checking it against Len.
//
// Precondition: 0 <= i < Len(). Indexes in [Len, Cap) return a dead slot's
// value; indexes outside [0, Cap) panic.
func (v *Vector[T]) Index(i int) T { return v.buf[i] }

// SetIndex writes x at i without checking it against Len. Same precondition
// as Index; a write into [Len, Cap) is lost by the next Resize or Append.
func (v *Vector[T]) SetIndex(i int, x T) {
	v.copyCheck()
	v.buf[i] = x
}

// Values returns a copy of the live elements.
func (v *Vector[T]) Values() []T {
	return slices.Clone(v.buf[:v.size])
}

// All yields index/element pairs front to back.
func (v *Vector[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i := 0; i < v.size; i++ {
			if !yield(i, v.buf[i]) {
				return
			}
		}
	}
}

// Backward yields index/element pairs back to front.
func (v *Vector[T]) Backward() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i := v.size - 1; i >= 0; i-- {
			if !yield(i, v.buf[i]) {
				return
			}
		}
	}
}

// SortFunc sorts the live elements in place using cmp.
func (v *Vector[T]) SortFunc(cmp func(a, b T) int) {
	v.copyCheck()
	slices.SortFunc(v.buf[:v.size], cmp)
}

// Sort sorts the live elements of v in ascending order.
func Sort[T cmp.Ordered](v *Vector[T]) {
	v.copyCheck()
	slices.Sort(v.buf[:v.size])
}

// Release gives the storage back to the allocator. The vector is left empty
// with zero capacity and can be reused.
func (v *Vector[T]) Release() {
	v.copyCheck()
	if v.lease != nil {
		v.lease.release()
	}
	v.buf = nil
	v.size = 0
}

func (v *Vector[T]) String() string {
	return fmt.Sprint(v.buf[:v.size])
}

func (v *Vector[T]) allocator() Allocator {
	if v.alloc == nil {
		v.alloc = Heap{}
	}
	return v.alloc
}

// realloc replaces the storage with one of exactly newCap slots. The new
// storage is charged before the old one is freed; on any failure nothing
// about v changes.
func (v *Vector[T]) realloc(newCap int) error {
	var zero T
	elem := int(unsafe.Sizeof(zero))
	if elem > 0 && newCap > math.MaxInt/elem {
		return &AllocError{Requested: newCap}
	}
	bytes := newCap * elem

	a := v.allocator()
	if err := a.Allocate(bytes); err != nil {
		return &AllocError{Requested: newCap, Bytes: bytes, Err: err}
	}
	buf, err := makeStorage[T](newCap)
	if err != nil {
		a.Free(bytes)
		return &AllocError{Requested: newCap, Bytes: bytes, Err: err}
	}

	oldCap := len(v.buf)
	copied := copy(buf, v.buf[:v.size])
	v.buf = buf
	v.charge(a, bytes)

	v.stats.Allocations++
	if oldCap > 0 {
		v.stats.Growths++
	}
	v.stats.Copied += copied
	if v.obs != nil {
		v.obs.Grow(GrowEvent{OldCap: oldCap, NewCap: newCap, Copied: copied})
	}
	return nil
}

// charge frees the bytes held for the previous storage and records bytes for
// the current one.
func (v *Vector[T]) charge(a Allocator, bytes int) {
	if v.lease == nil {
		v.lease = &lease{alloc: a}
		if _, ok := a.(Heap); !ok {
			runtime.AddCleanup(v, func(l *lease) { l.release() }, v.lease)
		}
	}
	v.lease.release()
	v.lease.bytes = bytes
}

// makeStorage turns the runtime's refusal of an impossible length into an
// error. Genuine out-of-memory is fatal in Go and cannot be reported.
func makeStorage[T any](n int) (buf []T, err error) {
	defer func() {
		if r := recover(); r != nil {
			buf = nil
			err = fmt.Errorf("%v: %w", r, ErrAllocation)
		}
	}()
	return make([]T, n), nil
}
