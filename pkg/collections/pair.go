// Package collections provides the generic containers the nino code
// generator knows how to serialize: stacks, queues, sets, linked lists,
// priority queues, sorted variants, immutable arrays, and the pair and
// triple tuple shapes. The containers are deliberately small; they exist
// so serializable data models have concrete collection types with
// well-defined wire semantics.
package collections

// Pair is a two-element tuple. Pairs of unmanaged elements are encoded
// as a single contiguous copy.
type Pair[A, B any] struct {
	First  A
	Second B
}

// NewPair builds a Pair.
func NewPair[A, B any](first A, second B) Pair[A, B] {
	return Pair[A, B]{First: first, Second: second}
}

// Triple is a three-element tuple.
type Triple[A, B, C any] struct {
	First  A
	Second B
	Third  C
}

// NewTriple builds a Triple.
func NewTriple[A, B, C any](first A, second B, third C) Triple[A, B, C] {
	return Triple[A, B, C]{First: first, Second: second, Third: third}
}
