package dataio

import (
	"fmt"

	"github.com/ValentinKolb/dSer/lib/serial"
)

// --------------------------------------------------------------------------
// Block sink
// --------------------------------------------------------------------------

// BlockSink writes into a caller owned block of fixed capacity
type BlockSink struct {
	block []byte
	done  int
}

// NewBlockSink creates a sink that writes from the start of block and never
// writes past its length
func NewBlockSink(block []byte) *BlockSink {
	return &BlockSink{block: block}
}

// ---- Interface Methods (docu see serial.DataSink) ----

func (s *BlockSink) Write(p []byte) serial.WriteErrors {
	if len(p) > s.RemainingSize() {
		return serial.TooMuchData
	}
	s.done += copy(s.block[s.done:], p)
	return 0
}

func (s *BlockSink) WriteSome(p []byte) (int, serial.WriteErrors) {
	n := copy(s.block[s.done:], p)
	s.done += n
	return n, partial(n, len(p))
}

func (s *BlockSink) RemainingSize() int { return len(s.block) - s.done }

func (s *BlockSink) BeginWork() serial.Transaction { return serial.Transaction(s.done) }

func (s *BlockSink) Commit(serial.Transaction) {}

func (s *BlockSink) Rollback(tx serial.Transaction) {
	if int(tx) < s.done {
		s.done = int(tx)
	}
}

func (s *BlockSink) Finalize() serial.WriteErrors { return 0 }

// ---- Block Methods ----

// Bytes returns the written part of the block
func (s *BlockSink) Bytes() []byte { return s.block[:s.done] }

// Replace overwrites the block content with p
func (s *BlockSink) Replace(p []byte) serial.WriteErrors {
	if len(p) > len(s.block) {
		return serial.TooMuchData
	}
	s.done = copy(s.block, p)
	return 0
}

// Reset discards everything written
func (s *BlockSink) Reset() { s.done = 0 }

// --------------------------------------------------------------------------
// Block source
// --------------------------------------------------------------------------

// BlockSource reads from a caller owned block
type BlockSource struct {
	data []byte
	pos  int
}

func NewBlockSource(data []byte) *BlockSource {
	return &BlockSource{data: data}
}

// ---- Interface Methods (docu see serial.DataSource) ----

func (s *BlockSource) Top(n int) []byte {
	return s.data[s.pos:min(s.pos+max(n, 0), len(s.data))]
}

func (s *BlockSource) Pop(n int) {
	if n < 0 || n > len(s.data)-s.pos {
		panic(fmt.Sprintf("dataio: pop of %d bytes with %d remaining", n, len(s.data)-s.pos))
	}
	s.pos += n
}

// ---- Block Methods ----

// Remaining returns the number of unread bytes
func (s *BlockSource) Remaining() int { return len(s.data) - s.pos }

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// partial maps the outcome of a partial write to its flags
func partial(done, want int) serial.WriteErrors {
	switch {
	case done == want:
		return 0
	case done == 0:
		return serial.TooMuchData
	default:
		return serial.IncompleteWrite
	}
}
