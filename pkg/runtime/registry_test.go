package runtime

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testPoint struct {
	X int32
	Y int32
}

func serializePoint(v testPoint, w *Writer) error {
	w.WriteInt32(v.X)
	w.WriteInt32(v.Y)
	return nil
}

func deserializePoint(v *testPoint, r *Reader) error {
	var err error
	if v.X, err = r.ReadInt32(); err != nil {
		return err
	}
	v.Y, err = r.ReadInt32()
	return err
}

func TestRegisterAndDispatch(t *testing.T) {
	const id = uint32(0x1111)
	Register[testPoint]("runtime.testPoint", id, serializePoint, deserializePoint)

	w := NewWriter()
	require.NoError(t, SerializeAny(id, testPoint{X: 3, Y: 4}, w))

	got, err := DeserializeAnyByID(id, NewReader(w.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, testPoint{X: 3, Y: 4}, got)

	gotID, ok := RegisteredName("runtime.testPoint")
	require.True(t, ok)
	assert.Equal(t, id, gotID)
}

func TestUnknownIDFails(t *testing.T) {
	_, err := DeserializeAnyByID(0xFFFFFFF0, NewReader(nil))
	var ip *InvalidPayloadError
	require.ErrorAs(t, err, &ip)
}

func TestIdempotentRegistration(t *testing.T) {
	const id = uint32(0x2222)

	register := func() {
		Register[testPoint]("runtime.testPoint2", id, serializePoint, deserializePoint)
		RecordSubType(0x3333, id)
	}

	register()
	before := TableSize()

	// Concurrent re-registration must not change the table.
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			register()
		}()
	}
	wg.Wait()

	assert.Equal(t, before, TableSize())
	assert.Equal(t, []uint32{id}, SubTypesOf(0x3333))
}

func TestOptimalEntryPreferred(t *testing.T) {
	const id = uint32(0x4444)
	Register[testPoint]("runtime.testPoint3", id, serializePoint, deserializePoint)
	RegisterOptimal[testPoint]("runtime.testPoint3", id, func(v testPoint, w *Writer) error {
		w.WriteTypeID(id)
		return serializePoint(v, w)
	}, deserializePoint)

	w := NewWriter()
	require.NoError(t, SerializeAny(id, testPoint{X: 1, Y: 2}, w))

	r := NewReader(w.Bytes())
	prefix, err := r.ReadTypeID()
	require.NoError(t, err)
	assert.Equal(t, id, prefix)
}
