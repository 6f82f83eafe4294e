// Package runtime provides the byte-level writer/reader pair and the
// serializer dispatch registry that generated code links against.
// Generated artifacts call into this package only; user code normally
// touches it through the generated Serialize/Deserialize entry points.
package runtime

import (
	"math"
	"unicode/utf16"
)

const (
	// NullTypeID is the polymorphic prefix written for a nil reference.
	NullTypeID uint32 = 0

	// NullCollection is the collection header written for a nil collection.
	// The high bit distinguishes it from any legal length.
	NullCollection uint32 = 0x80000000

	initialBufferSize = 256
)

// Writer is a growable little-endian byte sink. It is not safe for
// concurrent use; generated serializers own one writer per call.
type Writer struct {
	buf []byte
}

// NewWriter creates a writer with a small initial buffer.
func NewWriter() *Writer {
	return &Writer{buf: make([]byte, 0, initialBufferSize)}
}

// Bytes returns the encoded payload. The slice aliases the writer's
// internal buffer and is invalidated by further writes or Reset.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int {
	return len(w.buf)
}

// Reset truncates the writer for reuse, keeping the allocated buffer.
func (w *Writer) Reset() {
	w.buf = w.buf[:0]
}

func (w *Writer) grow(n int) []byte {
	m := len(w.buf)
	if m+n > cap(w.buf) {
		c := cap(w.buf) * 2
		if c < m+n {
			c = m + n
		}
		next := make([]byte, m, c)
		copy(next, w.buf)
		w.buf = next
	}
	w.buf = w.buf[:m+n]
	return w.buf[m:]
}

// WriteBool writes a single 0/1 byte.
func (w *Writer) WriteBool(v bool) {
	b := w.grow(1)
	if v {
		b[0] = 1
	} else {
		b[0] = 0
	}
}

// WriteUint8 writes one byte.
func (w *Writer) WriteUint8(v uint8) {
	w.grow(1)[0] = v
}

// WriteInt8 writes one byte.
func (w *Writer) WriteInt8(v int8) {
	w.WriteUint8(uint8(v))
}

// WriteUint16 writes a little-endian 16-bit value.
func (w *Writer) WriteUint16(v uint16) {
	b := w.grow(2)
	b[0] = byte(v)
	b[1] = byte(v >> 8)
}

// WriteInt16 writes a little-endian 16-bit value.
func (w *Writer) WriteInt16(v int16) {
	w.WriteUint16(uint16(v))
}

// WriteUint32 writes a little-endian 32-bit value.
func (w *Writer) WriteUint32(v uint32) {
	b := w.grow(4)
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

// WriteInt32 writes a little-endian 32-bit value.
func (w *Writer) WriteInt32(v int32) {
	w.WriteUint32(uint32(v))
}

// WriteUint64 writes a little-endian 64-bit value.
func (w *Writer) WriteUint64(v uint64) {
	b := w.grow(8)
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
	b[4] = byte(v >> 32)
	b[5] = byte(v >> 40)
	b[6] = byte(v >> 48)
	b[7] = byte(v >> 56)
}

// WriteInt64 writes a little-endian 64-bit value.
func (w *Writer) WriteInt64(v int64) {
	w.WriteUint64(uint64(v))
}

// WriteInt writes an int as a 64-bit value so payloads do not depend on
// the platform word size.
func (w *Writer) WriteInt(v int) {
	w.WriteInt64(int64(v))
}

// WriteUint writes a uint as a 64-bit value.
func (w *Writer) WriteUint(v uint) {
	w.WriteUint64(uint64(v))
}

// WriteFloat32 writes an IEEE-754 32-bit value.
func (w *Writer) WriteFloat32(v float32) {
	w.WriteUint32(math.Float32bits(v))
}

// WriteFloat64 writes an IEEE-754 64-bit value.
func (w *Writer) WriteFloat64(v float64) {
	w.WriteUint64(math.Float64bits(v))
}

// WriteString writes the default string form: a collection header with
// the UTF-16 code-unit count followed by the units.
func (w *Writer) WriteString(s string) {
	units := utf16.Encode([]rune(s))
	w.WriteCollectionHeader(len(units))
	for _, u := range units {
		w.WriteUint16(u)
	}
}

// WriteStringUTF8 writes the opt-in UTF-8 form: a collection header with
// the byte count followed by the raw bytes.
func (w *Writer) WriteStringUTF8(s string) {
	w.WriteCollectionHeader(len(s))
	copy(w.grow(len(s)), s)
}

// WriteTypeID writes a polymorphic type prefix.
func (w *Writer) WriteTypeID(id uint32) {
	w.WriteUint32(id)
}

// WriteNull writes the null sentinel type prefix.
func (w *Writer) WriteNull() {
	w.WriteUint32(NullTypeID)
}

// WriteCollectionHeader writes a 32-bit element count.
func (w *Writer) WriteCollectionHeader(n int) {
	w.WriteUint32(uint32(n))
}

// WriteNullCollection writes the null-collection sentinel.
func (w *Writer) WriteNullCollection() {
	w.WriteUint32(NullCollection)
}

// Reserve4 reserves a 4-byte slot and returns its offset for a later
// PatchLength. Used by weak-version-tolerance framing.
func (w *Writer) Reserve4() int {
	off := len(w.buf)
	w.grow(4)
	return off
}

// PatchLength back-fills a slot reserved with Reserve4 with the number
// of bytes written after the slot.
func (w *Writer) PatchLength(off int) {
	n := uint32(len(w.buf) - off - 4)
	w.buf[off] = byte(n)
	w.buf[off+1] = byte(n >> 8)
	w.buf[off+2] = byte(n >> 16)
	w.buf[off+3] = byte(n >> 24)
}

// WriteBytes appends raw bytes.
func (w *Writer) WriteBytes(p []byte) {
	copy(w.grow(len(p)), p)
}
