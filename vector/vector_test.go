package vector_test

import (
	"errors"
	"math"
	"math/bits"
	"runtime"
	"testing"
	"time"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcodamonte/concurrency/growable-array/vector"
)

const intSize = int(unsafe.Sizeof(int(0)))

// ceilLog2 returns ceil(log2(n)) for n >= 1.
func ceilLog2(n int) int {
	if n <= 1 {
		return 0
	}
	return bits.Len(uint(n - 1))
}

// ── Append ───────────────────────────────────────────────────────────────────

func TestAppendKeepsOrder(t *testing.T) {
	t.Parallel()

	var v vector.Vector[int]
	for i := 0; i < 100; i++ {
		before := v.Len()
		require.NoError(t, v.Append(i*3))
		require.Equal(t, before+1, v.Len())
		require.GreaterOrEqual(t, v.Cap(), v.Len())

		for j := 0; j <= i; j++ {
			require.Equal(t, j*3, v.Index(j), "element %d after %d appends", j, i+1)
		}
	}
}

func TestAppendGrowthEvents(t *testing.T) {
	t.Parallel()

	for n := 1; n <= 300; n++ {
		var v vector.Vector[int]
		for i := 0; i < n; i++ {
			require.NoError(t, v.Append(i))
		}
		st := v.Stats()
		assert.LessOrEqual(t, st.Growths, ceilLog2(n), "n=%d", n)
		assert.Equal(t, st.Growths+1, st.Allocations, "n=%d", n)
		// Doubling copies fewer than 2n elements in total.
		assert.Less(t, st.Copied, 2*n, "n=%d", n)
	}
}

func TestAppendOneToTen(t *testing.T) {
	t.Parallel()

	var v vector.Vector[int]
	for i := 1; i <= 10; i++ {
		require.NoError(t, v.Append(i))
	}
	require.Equal(t, 10, v.Len())
	require.Equal(t, 16, v.Cap())
	require.Equal(t, 0, v.Cap()&(v.Cap()-1), "capacity should be a power of two")
}

func TestAppendAll(t *testing.T) {
	t.Parallel()

	v := vector.From(1, 2, 3)
	require.Equal(t, 3, v.Cap())

	require.NoError(t, v.AppendAll(4, 5))
	require.Equal(t, []int{1, 2, 3, 4, 5}, v.Values())
	require.Equal(t, 6, v.Cap(), "grows to 2*cap when that covers the request")

	require.NoError(t, v.AppendAll(6, 7, 8, 9, 10, 11, 12, 13))
	require.Equal(t, 13, v.Cap(), "grows to exactly the request when doubling is not enough")
	require.Equal(t, 2, v.Stats().Growths)

	require.NoError(t, v.AppendAll())
	require.Equal(t, 13, v.Len())
}

// ── Reserve / Resize ─────────────────────────────────────────────────────────

func TestReserveThenAppend(t *testing.T) {
	t.Parallel()

	var v vector.Vector[int]
	require.NoError(t, v.Reserve(5))
	require.Equal(t, 0, v.Len())
	require.GreaterOrEqual(t, v.Cap(), 5)

	for _, x := range []int{1, 2, 3} {
		require.NoError(t, v.Append(x))
	}
	require.Equal(t, 3, v.Len())

	_, err := v.At(3)
	require.ErrorIs(t, err, vector.ErrOutOfRange)

	x, err := v.At(2)
	require.NoError(t, err)
	require.Equal(t, 3, x)
	require.Equal(t, 0, v.Stats().Growths)
}

func TestReserveNeverShrinks(t *testing.T) {
	t.Parallel()

	v, err := vector.New[string](vector.Options{Capacity: 8})
	require.NoError(t, err)
	require.NoError(t, v.Append("a"))

	require.NoError(t, v.Reserve(2))
	require.Equal(t, 8, v.Cap())
	require.Equal(t, 1, v.Len())

	require.NoError(t, v.Reserve(0))
	require.Equal(t, 8, v.Cap())
	require.Equal(t, 1, v.Stats().Allocations)
}

func TestResizeGrowZeroes(t *testing.T) {
	t.Parallel()

	var v vector.Vector[int]
	require.NoError(t, v.Resize(4))
	require.Equal(t, 4, v.Len())
	require.GreaterOrEqual(t, v.Cap(), 4)
	for i := 0; i < 4; i++ {
		x, err := v.At(i)
		require.NoError(t, err)
		require.Zero(t, x)
	}
}

func TestResizeShrink(t *testing.T) {
	t.Parallel()

	v := vector.From(1, 2, 3, 4, 5)
	require.NoError(t, v.Resize(2))
	require.Equal(t, 2, v.Len())
	require.Equal(t, 5, v.Cap())
	require.Equal(t, []int{1, 2}, v.Values())

	_, err := v.At(2)
	require.ErrorIs(t, err, vector.ErrOutOfRange)

	// Growing back exposes zero values, not the dropped elements.
	require.NoError(t, v.Resize(4))
	require.Equal(t, []int{1, 2, 0, 0}, v.Values())
}

func TestMakePresized(t *testing.T) {
	t.Parallel()

	v, err := vector.Make[float64](3, vector.Options{})
	require.NoError(t, err)
	require.Equal(t, []float64{0, 0, 0}, v.Values())

	require.NoError(t, v.Set(1, 2.5))
	require.Equal(t, 2.5, v.Index(1))
}

func TestInvalidSizes(t *testing.T) {
	t.Parallel()

	var v vector.Vector[int]
	require.ErrorIs(t, v.Reserve(-1), vector.ErrInvalidSize)
	require.ErrorIs(t, v.Resize(-1), vector.ErrInvalidSize)

	_, err := vector.New[int](vector.Options{Capacity: -3})
	require.ErrorIs(t, err, vector.ErrInvalidSize)

	_, err = vector.Make[int](-1, vector.Options{})
	require.ErrorIs(t, err, vector.ErrInvalidSize)

	// What a wrapped-around unsigned count looks like once it reaches int.
	huge := math.MaxInt
	err = v.Reserve(huge)
	require.ErrorIs(t, err, vector.ErrAllocation)

	var allocErr *vector.AllocError
	require.ErrorAs(t, err, &allocErr)
	require.Equal(t, huge, allocErr.Requested)

	require.Equal(t, 0, v.Len())
	require.Equal(t, 0, v.Cap())
}

// ── Checked vs unchecked access ──────────────────────────────────────────────

func TestAtOutOfRange(t *testing.T) {
	t.Parallel()

	for size := 0; size < 6; size++ {
		v, err := vector.Make[int](size, vector.Options{Capacity: 8})
		require.NoError(t, err)

		for _, i := range []int{size, size + 1, v.Cap(), -1} {
			_, err := v.At(i)
			require.ErrorIs(t, err, vector.ErrOutOfRange, "size=%d i=%d", size, i)

			var rangeErr *vector.RangeError
			require.ErrorAs(t, err, &rangeErr)
			require.Equal(t, i, rangeErr.Index)
			require.Equal(t, size, rangeErr.Len)

			require.ErrorIs(t, v.Set(i, 1), vector.ErrOutOfRange)
		}
	}
}

func TestUncheckedIndex(t *testing.T) {
	t.Parallel()

	v, err := vector.New[int](vector.Options{Capacity: 4})
	require.NoError(t, err)
	require.NoError(t, v.Append(7))

	require.Equal(t, 7, v.Index(0))
	v.SetIndex(0, 8)
	require.Equal(t, 8, v.Index(0))

	// Past Cap the runtime's own bounds check stops the access.
	require.Panics(t, func() { _ = v.Index(v.Cap()) })
	require.Panics(t, func() { v.SetIndex(-1, 0) })
}

// ── Iteration ────────────────────────────────────────────────────────────────

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	in := []string{"v0", "v1", "v2", "v3", "v4", "v5", "v6"}
	var v vector.Vector[string]
	for _, s := range in {
		require.NoError(t, v.Append(s))
	}

	var forward []string
	for i, s := range v.All() {
		require.Equal(t, len(forward), i)
		forward = append(forward, s)
	}
	require.Equal(t, in, forward)

	var backward []string
	for i, s := range v.Backward() {
		require.Equal(t, len(in)-1-len(backward), i)
		backward = append(backward, s)
	}
	require.Equal(t, []string{"v6", "v5", "v4", "v3", "v2", "v1", "v0"}, backward)

	// Early break stops the iteration.
	count := 0
	for range v.All() {
		count++
		if count == 2 {
			break
		}
	}
	require.Equal(t, 2, count)
}

func TestValuesIsACopy(t *testing.T) {
	t.Parallel()

	v := vector.From(1, 2, 3)
	vals := v.Values()
	vals[0] = 100
	require.Equal(t, 1, v.Index(0))

	var empty vector.Vector[int]
	require.Empty(t, empty.Values())
	require.Equal(t, "[1 2 3]", v.String())
}

// ── Pop / Clear / Sort ───────────────────────────────────────────────────────

func TestPop(t *testing.T) {
	t.Parallel()

	v := vector.From("a", "b")
	x, ok := v.Pop()
	require.True(t, ok)
	require.Equal(t, "b", x)
	x, ok = v.Pop()
	require.True(t, ok)
	require.Equal(t, "a", x)
	_, ok = v.Pop()
	require.False(t, ok)
	require.Equal(t, 2, v.Cap())
}

func TestClearKeepsCapacity(t *testing.T) {
	t.Parallel()

	v := vector.From(1, 2, 3, 4)
	v.Clear()
	require.Equal(t, 0, v.Len())
	require.Equal(t, 4, v.Cap())
	_, err := v.At(0)
	require.ErrorIs(t, err, vector.ErrOutOfRange)
}

func TestSort(t *testing.T) {
	t.Parallel()

	v, err := vector.New[int](vector.Options{Capacity: 10})
	require.NoError(t, err)
	require.NoError(t, v.AppendAll(5, 3, 9, 1, 7))

	vector.Sort(v)
	require.Equal(t, []int{1, 3, 5, 7, 9}, v.Values())

	v.SortFunc(func(a, b int) int { return b - a })
	require.Equal(t, []int{9, 7, 5, 3, 1}, v.Values())
}

// ── Ownership ────────────────────────────────────────────────────────────────

func TestCopiedVectorPanicsOnWrite(t *testing.T) {
	t.Parallel()

	budget := vector.NewBudget(0)
	v, err := vector.New[int](vector.Options{Capacity: 4, Allocator: budget})
	require.NoError(t, err)
	require.NoError(t, v.Append(1))

	w := *v
	const msg = "vector: illegal use of non-zero Vector copied by value"
	require.PanicsWithValue(t, msg, func() { _ = w.Append(2) })
	require.PanicsWithValue(t, msg, func() { _ = w.Set(0, 5) })
	require.PanicsWithValue(t, msg, func() { w.SetIndex(1, 5) })
	require.PanicsWithValue(t, msg, func() { w.Clear() })
	require.PanicsWithValue(t, msg, func() { w.Release() })

	// Reads through the copy are harmless; the original is untouched.
	require.Equal(t, 1, w.Len())
	require.NoError(t, v.Append(3))
	require.Equal(t, []int{1, 3}, v.Values())
	require.Equal(t, 4*intSize, budget.InUse())

	v.Release()
	require.Equal(t, 0, budget.InUse())
	require.Zero(t, budget.Overfreed())
}

func TestZeroVectorCopiesAreIndependent(t *testing.T) {
	t.Parallel()

	var a vector.Vector[int]
	b := a
	require.NoError(t, a.Append(1))
	require.NoError(t, b.Append(2))
	require.Equal(t, []int{1}, a.Values())
	require.Equal(t, []int{2}, b.Values())
}

// ── Allocation accounting ────────────────────────────────────────────────────

func TestGrowthIsTransactional(t *testing.T) {
	t.Parallel()

	// Growing 4 → 8 needs 4+8 slots charged at once; allow only 11.
	budget := vector.NewBudget(11 * intSize)
	v, err := vector.New[int](vector.Options{Allocator: budget})
	require.NoError(t, err)

	for i := 1; i <= 4; i++ {
		require.NoError(t, v.Append(i))
		require.Equal(t, v.Cap()*intSize, budget.InUse())
	}

	err = v.Append(5)
	require.ErrorIs(t, err, vector.ErrAllocation)

	var allocErr *vector.AllocError
	require.ErrorAs(t, err, &allocErr)
	require.Equal(t, 8, allocErr.Requested)
	require.Equal(t, 8*intSize, allocErr.Bytes)

	require.Equal(t, 4, v.Len())
	require.Equal(t, 4, v.Cap())
	require.Equal(t, []int{1, 2, 3, 4}, v.Values())
	require.Equal(t, 4*intSize, budget.InUse())
	require.Equal(t, 6*intSize, budget.Peak())

	// A failed AppendAll appends nothing.
	require.ErrorIs(t, v.AppendAll(5, 6, 7), vector.ErrAllocation)
	require.Equal(t, 4, v.Len())

	v.Release()
	require.Equal(t, 0, budget.InUse())
	require.Zero(t, budget.Overfreed())
	require.Equal(t, 0, v.Cap())

	// The vector is reusable after Release.
	require.NoError(t, v.Append(42))
	require.Equal(t, intSize, budget.InUse())
}

func TestFailedReserveChangesNothing(t *testing.T) {
	t.Parallel()

	budget := vector.NewBudget(6 * intSize)
	v, err := vector.New[int](vector.Options{Capacity: 4, Allocator: budget})
	require.NoError(t, err)
	require.NoError(t, v.AppendAll(1, 2, 3))
	before := v.Stats()

	err = v.Reserve(8)
	require.ErrorIs(t, err, vector.ErrAllocation)
	var allocErr *vector.AllocError
	require.ErrorAs(t, err, &allocErr)
	require.Equal(t, 8, allocErr.Requested)

	require.Equal(t, 3, v.Len())
	require.Equal(t, 4, v.Cap())
	require.Equal(t, []int{1, 2, 3}, v.Values())
	require.Equal(t, before, v.Stats())
	require.Equal(t, 4*intSize, budget.InUse())
	require.Equal(t, 4*intSize, budget.Peak())
}

func TestFailedResizeChangesNothing(t *testing.T) {
	t.Parallel()

	budget := vector.NewBudget(6 * intSize)
	v, err := vector.New[int](vector.Options{Capacity: 4, Allocator: budget})
	require.NoError(t, err)
	require.NoError(t, v.AppendAll(1, 2, 3))
	// A dead slot that a growing Resize would zero.
	v.SetIndex(3, 99)
	before := v.Stats()

	require.ErrorIs(t, v.Resize(10), vector.ErrAllocation)

	require.Equal(t, 3, v.Len())
	require.Equal(t, 4, v.Cap())
	require.Equal(t, []int{1, 2, 3}, v.Values())
	require.Equal(t, 99, v.Index(3))
	require.Equal(t, before, v.Stats())
	require.Equal(t, 4*intSize, budget.InUse())

	// Growing within capacity still works and zeroes the new slot.
	require.NoError(t, v.Resize(4))
	require.Equal(t, []int{1, 2, 3, 0}, v.Values())
	require.Equal(t, 4*intSize, budget.InUse())
	require.Zero(t, budget.Overfreed())
}

func TestFailedMakeReleasesNothing(t *testing.T) {
	t.Parallel()

	budget := vector.NewBudget(6 * intSize)
	_, err := vector.Make[int](10, vector.Options{Allocator: budget})
	require.ErrorIs(t, err, vector.ErrAllocation)
	require.Equal(t, 0, budget.InUse())
	require.Zero(t, budget.Overfreed())
}

func TestBudgetSharedBetweenVectors(t *testing.T) {
	t.Parallel()

	budget := vector.NewBudget(10 * intSize)
	a, err := vector.New[int](vector.Options{Capacity: 6, Allocator: budget})
	require.NoError(t, err)

	_, err = vector.New[int](vector.Options{Capacity: 6, Allocator: budget})
	require.ErrorIs(t, err, vector.ErrAllocation)

	a.Release()
	b, err := vector.New[int](vector.Options{Capacity: 6, Allocator: budget})
	require.NoError(t, err)
	require.Equal(t, 6*intSize, budget.InUse())
	b.Release()
	require.Equal(t, 0, budget.InUse())
}

//go:noinline
func abandon(budget *vector.Budget) {
	v, _ := vector.New[int](vector.Options{Capacity: 32, Allocator: budget})
	_ = v.Append(1)
}

func TestUnreachableVectorReturnsCharge(t *testing.T) {
	budget := vector.NewBudget(0)
	abandon(budget)
	require.Equal(t, 32*intSize, budget.InUse())

	require.Eventually(t, func() bool {
		runtime.GC()
		return budget.InUse() == 0
	}, 5*time.Second, 10*time.Millisecond)
	require.Zero(t, budget.Overfreed())
}

func TestObserver(t *testing.T) {
	t.Parallel()

	var events []vector.GrowEvent
	v, err := vector.New[int](vector.Options{
		Observer: vector.ObserverFunc(func(ev vector.GrowEvent) { events = append(events, ev) }),
	})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, v.Append(i))
	}
	require.Equal(t, []vector.GrowEvent{
		{OldCap: 0, NewCap: 1, Copied: 0},
		{OldCap: 1, NewCap: 2, Copied: 1},
		{OldCap: 2, NewCap: 4, Copied: 2},
		{OldCap: 4, NewCap: 8, Copied: 4},
	}, events)
	require.Equal(t, vector.Stats{Allocations: 4, Growths: 3, Copied: 7}, v.Stats())
}

func TestErrorMessages(t *testing.T) {
	t.Parallel()

	var v vector.Vector[int]
	_, err := v.At(3)
	require.EqualError(t, err, "index 3 out of range [0:0]")
	require.True(t, errors.Is(err, vector.ErrOutOfRange))
	require.False(t, errors.Is(err, vector.ErrAllocation))
}
