package dataio

import (
	"math"

	"github.com/ValentinKolb/dSer/lib/serial"
)

// BufferSink appends to a growable buffer. With a limit it behaves like a
// block sink that allocates lazily.
type BufferSink struct {
	buf   []byte
	limit int
}

// NewBufferSink creates an unlimited buffer sink reserving sizeHint bytes
func NewBufferSink(sizeHint int) *BufferSink {
	return &BufferSink{buf: make([]byte, 0, sizeHint), limit: math.MaxInt}
}

// NewBufferSinkOn appends to buf[:0], reusing its capacity
func NewBufferSinkOn(buf []byte) *BufferSink {
	return &BufferSink{buf: buf[:0], limit: math.MaxInt}
}

// WithLimit caps the number of bytes the sink accepts
func (s *BufferSink) WithLimit(limit int) *BufferSink {
	s.limit = limit
	return s
}

// ---- Interface Methods (docu see serial.DataSink) ----

func (s *BufferSink) Write(p []byte) serial.WriteErrors {
	if len(p) > s.RemainingSize() {
		return serial.TooMuchData
	}
	s.buf = append(s.buf, p...)
	return 0
}

func (s *BufferSink) WriteSome(p []byte) (int, serial.WriteErrors) {
	n := min(len(p), s.RemainingSize())
	s.buf = append(s.buf, p[:n]...)
	return n, partial(n, len(p))
}

func (s *BufferSink) RemainingSize() int { return max(s.limit-len(s.buf), 0) }

func (s *BufferSink) BeginWork() serial.Transaction { return serial.Transaction(len(s.buf)) }

func (s *BufferSink) Commit(serial.Transaction) {}

func (s *BufferSink) Rollback(tx serial.Transaction) {
	if int(tx) < len(s.buf) {
		s.buf = s.buf[:tx]
	}
}

func (s *BufferSink) Finalize() serial.WriteErrors { return 0 }

// ---- Buffer Methods ----

// Bytes returns the written bytes
func (s *BufferSink) Bytes() []byte { return s.buf }

// Replace overwrites the content with p
func (s *BufferSink) Replace(p []byte) serial.WriteErrors {
	if len(p) > s.limit {
		return serial.TooMuchData
	}
	s.buf = append(s.buf[:0], p...)
	return 0
}

// Reset discards everything written but keeps the capacity
func (s *BufferSink) Reset() { s.buf = s.buf[:0] }
