package collections

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStackLIFO(t *testing.T) {
	s := NewStack[int](4)
	s.Push(1)
	s.Push(2)
	s.Push(3)

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []int{1, 2, 3}, s.Items())

	v, ok := s.Pop()
	require.True(t, ok)
	assert.Equal(t, 3, v)
	v, ok = s.Pop()
	require.True(t, ok)
	assert.Equal(t, 2, v)
	v, ok = s.Pop()
	require.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = s.Pop()
	assert.False(t, ok)
}

func TestQueueFIFO(t *testing.T) {
	q := NewQueue[string](0)
	q.Enqueue("a")
	q.Enqueue("b")
	q.Enqueue("c")

	assert.Equal(t, []string{"a", "b", "c"}, q.Items())

	v, ok := q.Dequeue()
	require.True(t, ok)
	assert.Equal(t, "a", v)
	assert.Equal(t, 2, q.Len())

	q.Clear()
	assert.Equal(t, 0, q.Len())
	_, ok = q.Dequeue()
	assert.False(t, ok)
}

func TestQueueReclaimsDrainedPrefix(t *testing.T) {
	q := NewQueue[int](0)
	for i := 0; i < 100; i++ {
		q.Enqueue(i)
	}
	for i := 0; i < 80; i++ {
		v, ok := q.Dequeue()
		require.True(t, ok)
		assert.Equal(t, i, v)
	}
	assert.Equal(t, 20, q.Len())
	assert.Equal(t, 80, q.Items()[0])
}

func TestSet(t *testing.T) {
	s := NewSet[int](0)
	assert.True(t, s.Add(1))
	assert.False(t, s.Add(1))
	assert.True(t, s.Add(2))
	assert.True(t, s.Contains(2))
	assert.True(t, s.Remove(2))
	assert.False(t, s.Remove(2))
	assert.Equal(t, 1, s.Len())
	assert.ElementsMatch(t, []int{1}, s.Items())
}

func TestSortedSetOrdering(t *testing.T) {
	s := NewSortedSet[int](0)
	for _, v := range []int{5, 1, 3, 1, 4, 2} {
		s.Add(v)
	}
	assert.Equal(t, []int{1, 2, 3, 4, 5}, s.Items())
	assert.True(t, s.Remove(3))
	assert.Equal(t, []int{1, 2, 4, 5}, s.Items())
	assert.False(t, s.Contains(3))
}

func TestSortedMapKeysAscending(t *testing.T) {
	m := NewSortedMap[string, int](0)
	m.Set("b", 2)
	m.Set("a", 1)
	m.Set("c", 3)
	m.Set("a", 10)

	assert.Equal(t, []string{"a", "b", "c"}, m.Keys())
	v, ok := m.Get("a")
	require.True(t, ok)
	assert.Equal(t, 10, v)

	assert.True(t, m.Delete("b"))
	assert.Equal(t, []string{"a", "c"}, m.Keys())
}

func TestLinkedList(t *testing.T) {
	l := NewLinkedList[int]()
	l.PushBack(2)
	l.PushFront(1)
	n := l.PushBack(3)

	assert.Equal(t, []int{1, 2, 3}, l.Items())
	assert.Equal(t, 1, l.Front().Value)
	assert.Equal(t, 3, l.Back().Value)

	l.Remove(n)
	assert.Equal(t, []int{1, 2}, l.Items())
	assert.Equal(t, 2, l.Len())

	l.Clear()
	assert.Nil(t, l.Front())
	assert.Equal(t, 0, l.Len())
}

func TestPriorityQueueOrder(t *testing.T) {
	q := NewPriorityQueue[string, int](0)
	q.Enqueue("mid", 5)
	q.Enqueue("low", 1)
	q.Enqueue("high", 9)
	q.Enqueue("lowest", 0)

	assert.Equal(t, 4, q.Len())
	assert.Len(t, q.UnorderedItems(), 4)

	var got []string
	for {
		e, _, ok := q.Dequeue()
		if !ok {
			break
		}
		got = append(got, e)
	}
	assert.Equal(t, []string{"lowest", "low", "mid", "high"}, got)
}

func TestPriorityQueueRebuildFromUnorderedItems(t *testing.T) {
	src := NewPriorityQueue[string, int](0)
	src.Enqueue("b", 2)
	src.Enqueue("a", 1)
	src.Enqueue("c", 3)

	// Mirrors what a deserializer does: re-enqueue each pair.
	dst := NewPriorityQueue[string, int](src.Len())
	for _, p := range src.UnorderedItems() {
		dst.Enqueue(p.First, p.Second)
	}

	e, p, ok := dst.Dequeue()
	require.True(t, ok)
	assert.Equal(t, "a", e)
	assert.Equal(t, 1, p)
}

func TestImmutableArray(t *testing.T) {
	src := []int{1, 2, 3}
	a := ImmutableArrayFromSlice(src)
	src[0] = 99

	assert.Equal(t, 3, a.Len())
	assert.Equal(t, 1, a.At(0))
	assert.Equal(t, []int{1, 2, 3}, a.Items())
}

func TestImmutableListAppend(t *testing.T) {
	l := ImmutableListOf(1, 2)
	l2 := l.Append(3)

	assert.Equal(t, 2, l.Len())
	assert.Equal(t, []int{1, 2, 3}, l2.Items())
}

func TestPairTriple(t *testing.T) {
	p := NewPair(1, "x")
	assert.Equal(t, 1, p.First)
	assert.Equal(t, "x", p.Second)

	tr := NewTriple(1, "x", true)
	assert.True(t, tr.Third)
}
