package serial

// BoundOf returns the size bound of c including the Begin/Finish frame. ok is
// false if the size of T depends on the value.
func BoundOf[T any](c Codec[T], m SizeModel) (int, bool) {
	n, ok := c.Bound(m)
	if !ok {
		return 0, false
	}
	return m.FrameSize() + n, true
}

// SizeOf returns the exact number of bytes SerializeWith writes for v
func SizeOf[T any](c Codec[T], v T, m SizeModel) int {
	return m.FrameSize() + c.Size(v, m)
}

// BufferFor returns a buffer large enough to serialize v. Constant-size
// types get a block of the type bound without looking at v (fixed is true),
// other types an empty slice whose capacity is exactly what v needs.
func BufferFor[T any](c Codec[T], v T, m SizeModel) (buf []byte, fixed bool) {
	if n, ok := BoundOf(c, m); ok {
		return make([]byte, n), true
	}
	return make([]byte, 0, SizeOf(c, v, m)), false
}
