// Package vector provides Vector[T], a contiguous, growable, index-addressable
// sequence with amortized O(1) append and explicit capacity management.
//
// A Vector keeps two counts:
//
//	+────+────+────+────+────+────+────+────+
//	│ 1  │ 2  │ 3  │    │    │    │    │    │   storage (exclusively owned)
//	+────+────+────+────+────+────+────+────+
//	 ◄──── Len ────►
//	 ◄──────────────── Cap ────────────────►
//
// Len is the number of live elements, Cap the number of allocated slots.
// 0 <= Len <= Cap holds after every operation.
//
// Growth: when Append finds Len == Cap the storage is replaced by one of
// max(1, 2*Cap) slots and the live elements are copied over. Across N appends
// each element is copied O(1) times on average, so append is amortized O(1).
// Reserve and Resize grow to exactly the requested size. Capacity never
// shrinks implicitly.
//
// Growth is all-or-nothing: if the Allocator refuses the new storage the
// vector keeps its old storage, Len and Cap, and the error matches
// ErrAllocation.
//
// Access comes in two flavors that must not be confused:
//
//	At / Set            checked: index outside [0, Len) returns ErrOutOfRange
//	Index / SetIndex    unchecked: the caller guarantees 0 <= i < Len
//
// Unchecked access on an index in [Len, Cap) reads or writes a dead slot
// without any error; that is a contract violation the vector does not detect.
// Go has no undefined behavior here: an index outside [0, Cap) panics through
// the runtime's own bounds check instead of corrupting memory.
//
// A Vector exclusively owns its storage. It must not be copied after first
// use: a copy would alias the original's slots, so modifying one panics.
// Share a *Vector instead. A Vector is not safe for concurrent use.
package vector
