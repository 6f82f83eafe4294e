package runtime

import (
	"sort"
	"sync"
)

// SerializeFunc encodes a value into a writer.
type SerializeFunc[T any] func(value T, w *Writer) error

// DeserializeFunc decodes a value from a reader.
type DeserializeFunc[T any] func(value *T, r *Reader) error

type entry struct {
	name        string
	id          uint32
	serialize   func(value any, w *Writer) error
	deserialize func(r *Reader) (any, error)
}

// registry is the process-wide dispatch table. It is written only by
// generated registration code, which runs under the mutex at load time;
// after initialization it is effectively read-only.
type dispatchTable struct {
	mu       sync.RWMutex
	byID     map[uint32]*entry
	byName   map[string]*entry
	optimal  map[uint32]*entry
	subTypes map[uint32][]uint32
}

var registry = &dispatchTable{
	byID:     make(map[uint32]*entry),
	byName:   make(map[string]*entry),
	optimal:  make(map[uint32]*entry),
	subTypes: make(map[uint32][]uint32),
}

// Register installs the direct serializer/deserializer pair for a type
// under both its display name and its stable type id. Re-registering
// the same type is a no-op, so generated Init functions are idempotent
// even when several of them cover overlapping hierarchies.
func Register[T any](name string, id uint32, ser SerializeFunc[T], de DeserializeFunc[T]) {
	e := &entry{
		name: name,
		id:   id,
		serialize: func(value any, w *Writer) error {
			return ser(value.(T), w)
		},
		deserialize: func(r *Reader) (any, error) {
			var v T
			if err := de(&v, r); err != nil {
				return nil, err
			}
			return v, nil
		},
	}
	registry.mu.Lock()
	defer registry.mu.Unlock()
	if _, ok := registry.byID[id]; ok {
		return
	}
	registry.byID[id] = e
	registry.byName[name] = e
}

// RegisterOptimal installs the polymorphic dispatcher for a non-final
// type, distinct from its direct implementation. Lookup through
// SerializeAny prefers the optimal entry.
func RegisterOptimal[T any](name string, id uint32, ser SerializeFunc[T], de DeserializeFunc[T]) {
	e := &entry{
		name: name,
		id:   id,
		serialize: func(value any, w *Writer) error {
			return ser(value.(T), w)
		},
		deserialize: func(r *Reader) (any, error) {
			var v T
			if err := de(&v, r); err != nil {
				return nil, err
			}
			return v, nil
		},
	}
	registry.mu.Lock()
	defer registry.mu.Unlock()
	if _, ok := registry.optimal[id]; ok {
		return
	}
	registry.optimal[id] = e
}

// RecordSubType records that sub is a concrete sub-type of base, so a
// serializer invoked at declared type base can reach sub's writer.
// Duplicate records are suppressed.
func RecordSubType(baseID, subID uint32) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	for _, s := range registry.subTypes[baseID] {
		if s == subID {
			return
		}
	}
	registry.subTypes[baseID] = append(registry.subTypes[baseID], subID)
}

// SubTypesOf returns the recorded sub-type ids of base, sorted for
// deterministic iteration.
func SubTypesOf(baseID uint32) []uint32 {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	out := make([]uint32, len(registry.subTypes[baseID]))
	copy(out, registry.subTypes[baseID])
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SerializeAny encodes value through the table entry for id, preferring
// the polymorphic dispatcher when one is registered.
func SerializeAny(id uint32, value any, w *Writer) error {
	registry.mu.RLock()
	e, ok := registry.optimal[id]
	if !ok {
		e, ok = registry.byID[id]
	}
	registry.mu.RUnlock()
	if !ok {
		return NewInvalidPayload("no serializer registered for type id 0x%08x", id)
	}
	return e.serialize(value, w)
}

// DeserializeAnyByID decodes the value registered under id. Generated
// polymorphic readers call this after consuming the type prefix when
// the id does not match any statically known sub-type.
func DeserializeAnyByID(id uint32, r *Reader) (any, error) {
	registry.mu.RLock()
	e, ok := registry.byID[id]
	registry.mu.RUnlock()
	if !ok {
		return nil, NewInvalidPayload("unknown type id 0x%08x", id)
	}
	return e.deserialize(r)
}

// Registered reports whether a direct entry exists for id.
func Registered(id uint32) bool {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	_, ok := registry.byID[id]
	return ok
}

// RegisteredName resolves a display name to its entry id.
func RegisteredName(name string) (uint32, bool) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	e, ok := registry.byName[name]
	if !ok {
		return 0, false
	}
	return e.id, true
}

// TableSize returns the number of direct entries, used by tests to
// assert idempotent initialization.
func TableSize() int {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	return len(registry.byID)
}
