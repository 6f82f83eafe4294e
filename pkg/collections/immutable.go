package collections

import "slices"

// ImmutableArray is a fixed snapshot of elements. Construction copies;
// no mutating operations exist.
type ImmutableArray[T any] struct {
	items []T
}

// ImmutableArrayOf snapshots the given elements.
func ImmutableArrayOf[T any](items ...T) ImmutableArray[T] {
	return ImmutableArray[T]{items: slices.Clone(items)}
}

// ImmutableArrayFromSlice snapshots s. Deserializers that already own
// the freshly read slice use ImmutableArrayUnsafe instead.
func ImmutableArrayFromSlice[T any](s []T) ImmutableArray[T] {
	return ImmutableArray[T]{items: slices.Clone(s)}
}

// ImmutableArrayUnsafe wraps s without copying. The caller must not
// retain s.
func ImmutableArrayUnsafe[T any](s []T) ImmutableArray[T] {
	return ImmutableArray[T]{items: s}
}

// Len returns the number of elements.
func (a ImmutableArray[T]) Len() int {
	return len(a.items)
}

// At returns the element at index i.
func (a ImmutableArray[T]) At(i int) T {
	return a.items[i]
}

// Items exposes the backing slice. Callers must treat it as read-only.
func (a ImmutableArray[T]) Items() []T {
	return a.items
}

// ImmutableList is a fixed snapshot with list semantics: structural
// append returns a new list sharing no mutable state.
type ImmutableList[T any] struct {
	items []T
}

// ImmutableListOf snapshots the given elements.
func ImmutableListOf[T any](items ...T) ImmutableList[T] {
	return ImmutableList[T]{items: slices.Clone(items)}
}

// ImmutableListFromSlice snapshots s.
func ImmutableListFromSlice[T any](s []T) ImmutableList[T] {
	return ImmutableList[T]{items: slices.Clone(s)}
}

// ImmutableListUnsafe wraps s without copying.
func ImmutableListUnsafe[T any](s []T) ImmutableList[T] {
	return ImmutableList[T]{items: s}
}

// Append returns a new list with v added.
func (l ImmutableList[T]) Append(v T) ImmutableList[T] {
	next := make([]T, len(l.items)+1)
	copy(next, l.items)
	next[len(l.items)] = v
	return ImmutableList[T]{items: next}
}

// Len returns the number of elements.
func (l ImmutableList[T]) Len() int {
	return len(l.items)
}

// At returns the element at index i.
func (l ImmutableList[T]) At(i int) T {
	return l.items[i]
}

// Items exposes the backing slice. Callers must treat it as read-only.
func (l ImmutableList[T]) Items() []T {
	return l.items
}
