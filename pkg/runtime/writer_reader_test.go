package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrimitiveRoundTrip(t *testing.T) {
	w := NewWriter()
	w.WriteBool(true)
	w.WriteBool(false)
	w.WriteInt8(-5)
	w.WriteUint16(0xBEEF)
	w.WriteInt32(-123456)
	w.WriteUint64(0xDEADBEEFCAFEBABE)
	w.WriteFloat32(3.5)
	w.WriteFloat64(-2.25)

	r := NewReader(w.Bytes())

	b, err := r.ReadBool()
	require.NoError(t, err)
	assert.True(t, b)
	b, err = r.ReadBool()
	require.NoError(t, err)
	assert.False(t, b)

	i8, err := r.ReadInt8()
	require.NoError(t, err)
	assert.Equal(t, int8(-5), i8)

	u16, err := r.ReadUint16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0xBEEF), u16)

	i32, err := r.ReadInt32()
	require.NoError(t, err)
	assert.Equal(t, int32(-123456), i32)

	u64, err := r.ReadUint64()
	require.NoError(t, err)
	assert.Equal(t, uint64(0xDEADBEEFCAFEBABE), u64)

	f32, err := r.ReadFloat32()
	require.NoError(t, err)
	assert.Equal(t, float32(3.5), f32)

	f64, err := r.ReadFloat64()
	require.NoError(t, err)
	assert.Equal(t, -2.25, f64)

	assert.True(t, r.Eof())
}

func TestBoolRejectsGarbage(t *testing.T) {
	r := NewReader([]byte{0x02})
	_, err := r.ReadBool()
	var ip *InvalidPayloadError
	require.ErrorAs(t, err, &ip)
}

func TestLittleEndianLayout(t *testing.T) {
	w := NewWriter()
	w.WriteUint32(0x01020304)
	assert.Equal(t, []byte{0x04, 0x03, 0x02, 0x01}, w.Bytes())
}

func TestStringRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"ascii", "hello"},
		{"multibyte", "héllo wörld"},
		{"astral", "a\U0001F600b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWriter()
			w.WriteString(tt.in)
			r := NewReader(w.Bytes())
			out, err := r.ReadString()
			require.NoError(t, err)
			assert.Equal(t, tt.in, out)
			assert.True(t, r.Eof())

			w2 := NewWriter()
			w2.WriteStringUTF8(tt.in)
			r2 := NewReader(w2.Bytes())
			out, err = r2.ReadStringUTF8()
			require.NoError(t, err)
			assert.Equal(t, tt.in, out)
		})
	}
}

func TestUTF8ModeIsByteLengthPrefixed(t *testing.T) {
	w := NewWriter()
	w.WriteStringUTF8("ab")
	assert.Equal(t, []byte{2, 0, 0, 0, 'a', 'b'}, w.Bytes())
}

func TestCollectionHeaderNullVsEmpty(t *testing.T) {
	w := NewWriter()
	w.WriteNullCollection()
	w.WriteCollectionHeader(0)

	// Distinct byte sequences for nil and empty.
	assert.Equal(t, []byte{0, 0, 0, 0x80, 0, 0, 0, 0}, w.Bytes())

	r := NewReader(w.Bytes())
	n, isNull, err := r.ReadCollectionHeader()
	require.NoError(t, err)
	assert.True(t, isNull)
	assert.Equal(t, 0, n)

	n, isNull, err = r.ReadCollectionHeader()
	require.NoError(t, err)
	assert.False(t, isNull)
	assert.Equal(t, 0, n)
}

func TestCollectionHeaderRejectsImpossibleLength(t *testing.T) {
	w := NewWriter()
	w.WriteCollectionHeader(1000)
	r := NewReader(w.Bytes())
	_, _, err := r.ReadCollectionHeader()
	var ip *InvalidPayloadError
	require.ErrorAs(t, err, &ip)
}

func TestReserveAndPatch(t *testing.T) {
	w := NewWriter()
	off := w.Reserve4()
	w.WriteInt32(7)
	w.WriteBool(true)
	w.PatchLength(off)

	r := NewReader(w.Bytes())
	n, err := r.ReadFrameLength()
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestTruncatedPayload(t *testing.T) {
	r := NewReader([]byte{1, 2})
	_, err := r.ReadUint32()
	var ip *InvalidPayloadError
	require.ErrorAs(t, err, &ip)
}

func TestUnmanagedRoundTrip(t *testing.T) {
	type pod struct {
		A int32
		B float64
		C [3]uint16
	}
	in := pod{A: -9, B: 1.5, C: [3]uint16{1, 2, 3}}

	w := NewWriter()
	WriteUnmanaged(w, in)

	var out pod
	r := NewReader(w.Bytes())
	require.NoError(t, ReadUnmanaged(r, &out))
	assert.Equal(t, in, out)
	assert.True(t, r.Eof())
}

func TestUnmanagedSliceRoundTrip(t *testing.T) {
	in := []int32{5, -10, 15}
	w := NewWriter()
	w.WriteCollectionHeader(len(in))
	WriteUnmanagedSlice(w, in)

	r := NewReader(w.Bytes())
	n, isNull, err := r.ReadCollectionHeader()
	require.NoError(t, err)
	require.False(t, isNull)
	out, err := ReadUnmanagedSlice[int32](r, n)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestWriterReset(t *testing.T) {
	w := NewWriter()
	w.WriteInt64(42)
	w.Reset()
	assert.Equal(t, 0, w.Len())
	w.WriteBool(true)
	assert.Equal(t, []byte{1}, w.Bytes())
}
