package collections

import "cmp"

// PriorityQueue is a min-heap of elements with ordered priorities.
// The zero value is an empty queue ready for use.
type PriorityQueue[E any, P cmp.Ordered] struct {
	heap []Pair[E, P]
}

// NewPriorityQueue creates a queue with room for capacity entries.
func NewPriorityQueue[E any, P cmp.Ordered](capacity int) *PriorityQueue[E, P] {
	return &PriorityQueue[E, P]{heap: make([]Pair[E, P], 0, capacity)}
}

// Enqueue inserts element with the given priority.
func (q *PriorityQueue[E, P]) Enqueue(element E, priority P) {
	q.heap = append(q.heap, Pair[E, P]{First: element, Second: priority})
	q.siftUp(len(q.heap) - 1)
}

// Dequeue removes and returns the lowest-priority entry.
func (q *PriorityQueue[E, P]) Dequeue() (element E, priority P, ok bool) {
	if len(q.heap) == 0 {
		return
	}
	top := q.heap[0]
	last := len(q.heap) - 1
	q.heap[0] = q.heap[last]
	q.heap[last] = Pair[E, P]{}
	q.heap = q.heap[:last]
	if len(q.heap) > 0 {
		q.siftDown(0)
	}
	return top.First, top.Second, true
}

// Peek returns the lowest-priority entry without removing it.
func (q *PriorityQueue[E, P]) Peek() (element E, priority P, ok bool) {
	if len(q.heap) == 0 {
		return
	}
	return q.heap[0].First, q.heap[0].Second, true
}

// Len returns the number of entries.
func (q *PriorityQueue[E, P]) Len() int {
	return len(q.heap)
}

// Clear removes all entries, keeping capacity.
func (q *PriorityQueue[E, P]) Clear() {
	for i := range q.heap {
		q.heap[i] = Pair[E, P]{}
	}
	q.heap = q.heap[:0]
}

// UnorderedItems exposes the (element, priority) pairs in heap order,
// which is not sorted. Serializers iterate it directly; the payload
// carries no ordering guarantee beyond heap reconstruction on read.
func (q *PriorityQueue[E, P]) UnorderedItems() []Pair[E, P] {
	return q.heap
}

func (q *PriorityQueue[E, P]) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if q.heap[parent].Second <= q.heap[i].Second {
			break
		}
		q.heap[parent], q.heap[i] = q.heap[i], q.heap[parent]
		i = parent
	}
}

func (q *PriorityQueue[E, P]) siftDown(i int) {
	n := len(q.heap)
	for {
		least := i
		if l := 2*i + 1; l < n && q.heap[l].Second < q.heap[least].Second {
			least = l
		}
		if r := 2*i + 2; r < n && q.heap[r].Second < q.heap[least].Second {
			least = r
		}
		if least == i {
			return
		}
		q.heap[i], q.heap[least] = q.heap[least], q.heap[i]
		i = least
	}
}
