package runtime

import "unsafe"

// Unmanaged constrains bulk copies to types the generator has already
// proven to be fixed-size: numeric kinds, bool, and arrays or structs
// composed solely of those. The constraint is `any` because Go cannot
// express "no pointers" structurally; the generator is the gatekeeper.
//
// WriteUnmanaged copies the in-memory representation of v verbatim.
// Generated code uses it for single values, for runs of up to 16
// adjacent unmanaged members packed into an anonymous struct, and for
// whole unmanaged element buffers.
func WriteUnmanaged[T any](w *Writer, v T) {
	size := int(unsafe.Sizeof(v))
	src := unsafe.Slice((*byte)(unsafe.Pointer(&v)), size)
	copy(w.grow(size), src)
}

// ReadUnmanaged is the mirror of WriteUnmanaged.
func ReadUnmanaged[T any](r *Reader, out *T) error {
	size := int(unsafe.Sizeof(*out))
	b, err := r.take(size)
	if err != nil {
		return err
	}
	dst := unsafe.Slice((*byte)(unsafe.Pointer(out)), size)
	copy(dst, b)
	return nil
}

// WriteUnmanagedSlice bulk-copies a slice of unmanaged elements,
// without the collection header (the caller writes it).
func WriteUnmanagedSlice[T any](w *Writer, s []T) {
	if len(s) == 0 {
		return
	}
	size := len(s) * int(unsafe.Sizeof(s[0]))
	src := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), size)
	copy(w.grow(size), src)
}

// ReadUnmanagedSlice allocates and bulk-fills a slice of n unmanaged
// elements.
func ReadUnmanagedSlice[T any](r *Reader, n int) ([]T, error) {
	s := make([]T, n)
	if n == 0 {
		return s, nil
	}
	size := n * int(unsafe.Sizeof(s[0]))
	b, err := r.take(size)
	if err != nil {
		return nil, err
	}
	dst := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), size)
	copy(dst, b)
	return s, nil
}
