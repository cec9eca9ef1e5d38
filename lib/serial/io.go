package serial

// Transaction is a checkpoint of a DataSink, the length of its content at the
// time BeginWork was called.
type Transaction int

// DataSink is the byte store a SerializerBackend writes into. Implementations
// hold a reference to caller owned memory.
type DataSink interface {
	// Write appends p completely or not at all. TooMuchData is returned if p
	// exceeds the remaining capacity.
	Write(p []byte) WriteErrors
	// WriteSome appends the prefix of p that fits and returns its length.
	// IncompleteWrite is returned for a partial write, TooMuchData if nothing fit.
	WriteSome(p []byte) (int, WriteErrors)
	// RemainingSize returns how many bytes can still be appended
	RemainingSize() int
	// BeginWork starts a transaction. Transactions nest and must be closed
	// in reverse order, either by Commit or by Rollback.
	BeginWork() Transaction
	// Commit accepts everything appended since tx was started
	Commit(tx Transaction)
	// Rollback discards everything appended since tx was started
	Rollback(tx Transaction)
	// Finalize is called exactly once at the end of a top level serialization
	Finalize() WriteErrors
}

// DataSource is the byte store a DeserializerBackend reads from.
type DataSource interface {
	// Top returns a view of up to n unread bytes without consuming them. The
	// view may be shorter than n if not enough data is available.
	Top(n int) []byte
	// Pop consumes n bytes. Popping more bytes than were observed through
	// Top is a programming error and panics.
	Pop(n int)
}

// ScanFor looks for b within the first max unread bytes of src, growing the
// look-ahead window by step. It returns the offset of b and true, or the
// number of bytes that could be examined and false.
func ScanFor(src DataSource, b byte, max, step int) (int, bool) {
	return ScanUntil(src, func(c byte) bool { return c == b }, max, step)
}

// ScanUntil is ScanFor with a predicate
func ScanUntil(src DataSource, pred func(byte) bool, max, step int) (int, bool) {
	if step <= 0 || step > max {
		step = max
	}
	checked := 0
	for n := step; ; n = min(n+step, max) {
		view := src.Top(n)
		for ; checked < len(view); checked++ {
			if pred(view[checked]) {
				return checked, true
			}
		}
		if len(view) < n || n >= max {
			return len(view), false
		}
	}
}

// FetchAll consumes all remaining bytes of src and returns a copy of them
func FetchAll(src DataSource) []byte {
	for n := 4096; ; n *= 2 {
		view := src.Top(n)
		if len(view) < n {
			out := append([]byte(nil), view...)
			src.Pop(len(view))
			return out
		}
	}
}
