package main

import (
	"errors"
	"fmt"
	"io"
	"unsafe"

	"github.com/urfave/cli/v2"

	"github.com/marcodamonte/concurrency/growable-array/vector"
)

// Each section covers one aspect of the vector that comes up when replacing
// a built-in slice with explicitly managed storage.
//
// Run:
//
//	go run ./cmd/vecdemo tour
func (r *runner) tour(c *cli.Context) error {
	w := c.App.Writer

	section(w, "Growth — size vs capacity, doubling on a full append")
	if err := tourGrowth(w); err != nil {
		return err
	}

	section(w, "Reserve vs pre-size — one allocation each, different contents")
	if err := tourReserve(w); err != nil {
		return err
	}

	section(w, "Access — checked At vs unchecked Index")
	if err := tourAccess(w); err != nil {
		return err
	}

	section(w, "Failed growth — the vector keeps its old storage")
	return tourBudget(w)
}

func section(w io.Writer, title string) {
	fmt.Fprintf(w, "\n━━━ %s ━━━\n", title)
}

func printV(w io.Writer, label string, v *vector.Vector[int]) {
	fmt.Fprintf(w, "  %-18s %v  len=%d cap=%d\n", label+":", v, v.Len(), v.Cap())
}

func tourGrowth(w io.Writer) error {
	// ── Growth visualization ──────────────────────────────────────────────────
	fmt.Fprintln(w, "  Growth — capacity doubles every time the storage is full:")
	var v vector.Vector[int]
	prevCap := 0
	for i := range 18 {
		if err := v.Append(i); err != nil {
			return err
		}
		if v.Cap() != prevCap {
			fmt.Fprintf(w, "  len=%-3d  cap grew %d → %d\n", v.Len(), prevCap, v.Cap())
			prevCap = v.Cap()
		}
	}
	st := v.Stats()
	fmt.Fprintf(w, "  %d appends: %d growths, %d elements copied (< 2×%d)\n",
		v.Len(), st.Growths, st.Copied, v.Len())

	// ── Shrinking never gives capacity back ──────────────────────────────────
	fmt.Fprintln(w, "\n  Resize down keeps the capacity; the dropped tail is gone:")
	if err := v.Resize(3); err != nil {
		return err
	}
	printV(w, "after Resize(3)", &v)
	if err := v.Reserve(1); err != nil {
		return err
	}
	printV(w, "after Reserve(1)", &v) // no-op
	return nil
}

func tourReserve(w io.Writer) error {
	const n = 5

	// reserve: capacity only, nothing to read yet
	reserved, err := vector.New[int](vector.Options{Capacity: n})
	if err != nil {
		return err
	}
	printV(w, "New(cap 5)", reserved)
	for i := range n {
		if err := reserved.Append(i * i); err != nil {
			return err
		}
	}
	printV(w, "after 5 appends", reserved)

	// presize: n zero values, assigned by index
	sized, err := vector.Make[int](n, vector.Options{})
	if err != nil {
		return err
	}
	printV(w, "Make(5)", sized)
	for i := range n {
		sized.SetIndex(i, i*i)
	}
	printV(w, "after SetIndex", sized)

	fmt.Fprintf(w, "  allocations: reserve=%d presize=%d\n",
		reserved.Stats().Allocations, sized.Stats().Allocations)
	return nil
}

func tourAccess(w io.Writer) error {
	v := vector.From(1, 2, 3)
	if err := v.Reserve(8); err != nil {
		return err
	}
	printV(w, "v", v)

	// ── Checked ──────────────────────────────────────────────────────────────
	if _, err := v.At(100500); err != nil {
		var rangeErr *vector.RangeError
		if errors.As(err, &rangeErr) {
			fmt.Fprintf(w, "  At(%d) → %v (len=%d)\n", rangeErr.Index, err, rangeErr.Len)
		}
	}

	// ── Unchecked ────────────────────────────────────────────────────────────
	// Index(5) is inside the capacity, so nothing stops it: it reads a dead
	// slot. That is a bug in the caller, not an error the vector reports.
	fmt.Fprintf(w, "  Index(5) → %d  (dead slot, no error)\n", v.Index(5))

	// Past the capacity Go's own bounds check panics.
	func() {
		defer func() {
			if p := recover(); p != nil {
				fmt.Fprintf(w, "  Index(%d) → panic: %v\n", v.Cap(), p)
			}
		}()
		_ = v.Index(v.Cap())
	}()
	return nil
}

func tourBudget(w io.Writer) error {
	elem := int(unsafe.Sizeof(int(0)))
	budget := vector.NewBudget(11 * elem)
	v, err := vector.New[int](vector.Options{Allocator: budget})
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "  budget: %d bytes (11 ints)\n", budget.Limit())

	for i := 1; ; i++ {
		if err := v.Append(i); err != nil {
			fmt.Fprintf(w, "  Append(%d) → %v\n", i, err)
			break
		}
		fmt.Fprintf(w, "  Append(%d) ok  len=%d cap=%d in use=%dB\n", i, v.Len(), v.Cap(), budget.InUse())
	}
	printV(w, "after failure", v)
	fmt.Fprintf(w, "  peak=%dB (old and new storage are held together while copying)\n", budget.Peak())

	v.Release()
	fmt.Fprintf(w, "  after Release: in use=%dB\n", budget.InUse())
	return nil
}
