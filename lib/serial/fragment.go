package serial

// FragmentWriter splits a byte block into fragments that each fit into one
// sink. Every fragment carries the offset and the remaining size followed by
// as many bytes as fit; call Write with fresh sinks until Done.
type FragmentWriter struct {
	src    []byte
	offset int
}

func NewFragmentWriter(src []byte) *FragmentWriter {
	return &FragmentWriter{src: src}
}

// Offset returns how many bytes were written so far
func (f *FragmentWriter) Offset() int { return f.offset }

// Remaining returns the bytes not written yet
func (f *FragmentWriter) Remaining() []byte { return f.src[f.offset:] }

// Done reports whether every byte was written
func (f *FragmentWriter) Done() bool { return f.offset >= len(f.src) }

// Write writes the next fragment. It returns IncompleteWrite when only a part
// of the remaining bytes fit and advances by the part that was written, and
// TooMuchData without advancing when not even the header and one byte fit.
func (f *FragmentWriter) Write(b SerializerBackend) WriteErrors {
	sink := b.Sink()
	tx := sink.BeginWork()
	todo := f.Remaining()

	_, errs := b.WriteInt64s([]int64{int64(f.offset), int64(len(todo))})
	if errs.Empty() {
		done, e := b.WriteUint8s(todo)
		errs |= e
		if errs.HasAtMost(IncompleteWrite) {
			sink.Commit(tx)
			f.offset += done
			return errs
		}
	}
	sink.Rollback(tx)
	if errs.Has(IncompleteWrite) {
		// only a part of the header fit, nothing was written
		return errs.Clear(IncompleteWrite) | TooMuchData
	}
	return errs
}

// FragmentReader reassembles fragments written by a FragmentWriter into a
// target block of the original size. Fragments may arrive in any order.
type FragmentReader struct {
	dst      []byte
	done     []bool
	doneSize int
}

func NewFragmentReader(dst []byte) *FragmentReader {
	return &FragmentReader{dst: dst, done: make([]bool, len(dst))}
}

// Done reports whether every byte of the target arrived
func (f *FragmentReader) Done() bool { return f.doneSize >= len(f.dst) }

// Bytes returns the target block
func (f *FragmentReader) Bytes() []byte { return f.dst }

// Read reads one fragment. A fragment that carries only a part of the
// announced size yields IncompleteRead, the received part is kept.
func (f *FragmentReader) Read(b DeserializerBackend) ReadErrors {
	hdr := []int64{0, 0}
	if _, errs := b.ReadInt64s(hdr); !errs.Empty() {
		return errs
	}
	offs, size := hdr[0], hdr[1]
	if offs < 0 || size < 0 || size > int64(len(f.dst)) || offs > int64(len(f.dst))-size {
		return InvalidFormat
	}
	done, errs := b.ReadUint8s(f.dst[offs : offs+size])
	f.markDone(int(offs), done)
	return errs
}

func (f *FragmentReader) markDone(offs, size int) {
	for i := offs; i < offs+size && i < len(f.done); i++ {
		if !f.done[i] {
			f.done[i] = true
			f.doneSize++
		}
	}
}
