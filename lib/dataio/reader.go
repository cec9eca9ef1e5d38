package dataio

import (
	"fmt"
	"io"
	"slices"
)

const readChunk = 4096

// ReaderSource reads from an io.Reader on demand. Bytes observed through Top
// stay buffered until they are popped.
type ReaderSource struct {
	r   io.Reader
	buf []byte
	pos int
	err error
}

func NewReaderSource(r io.Reader) *ReaderSource {
	return &ReaderSource{r: r}
}

// ---- Interface Methods (docu see serial.DataSource) ----

func (s *ReaderSource) Top(n int) []byte {
	for len(s.buf)-s.pos < n && s.err == nil {
		s.fill(n - (len(s.buf) - s.pos))
	}
	return s.buf[s.pos:min(s.pos+max(n, 0), len(s.buf))]
}

func (s *ReaderSource) Pop(n int) {
	if n < 0 || n > len(s.buf)-s.pos {
		panic(fmt.Sprintf("dataio: pop of %d bytes with %d buffered", n, len(s.buf)-s.pos))
	}
	s.pos += n
}

// ---- Reader Methods ----

// Err returns the read error that ended the stream, nil for a clean EOF
func (s *ReaderSource) Err() error {
	if s.err == io.EOF {
		return nil
	}
	return s.err
}

// fill appends at least one read to the buffer. The buffer grows with the
// data actually received, not with want, which may come from untrusted input.
func (s *ReaderSource) fill(want int) {
	// drop consumed bytes before growing
	if s.pos > 0 && s.pos == len(s.buf) {
		s.buf = s.buf[:0]
		s.pos = 0
	} else if s.pos > readChunk {
		s.buf = append(s.buf[:0], s.buf[s.pos:]...)
		s.pos = 0
	}
	step := max(readChunk, min(want, len(s.buf)))
	start := len(s.buf)
	s.buf = slices.Grow(s.buf, step)
	n, err := s.r.Read(s.buf[start : start+step])
	s.buf = s.buf[:start+n]
	if err != nil {
		s.err = err
	}
}
