package backend

import (
	"github.com/ValentinKolb/dSer/lib/serial"
)

// --------------------------------------------------------------------------
// Writer helpers
// --------------------------------------------------------------------------

// tokenWriter builds tokens in scratch memory so that every token reaches the
// sink with a single Write and the sink never holds half a token.
type tokenWriter struct {
	sink    serial.DataSink
	scratch []byte
	frames  []frame
}

// frame is an open struct, list or top level frame
type frame struct {
	end    int // remaining size of the sink right after the opener
	closer int
}

func (w *tokenWriter) Sink() serial.DataSink { return w.sink }

func (w *tokenWriter) CloseSize() int {
	w.dropStale()
	n := 0
	for _, f := range w.frames {
		n += f.closer
	}
	return n
}

// open writes the opener token b of a frame closed by closer bytes
func (w *tokenWriter) open(b []byte, closer int) serial.WriteErrors {
	w.dropStale()
	errs := w.writeToken(b)
	if errs.Empty() {
		w.frames = append(w.frames, frame{end: w.sink.RemainingSize(), closer: closer})
	}
	return errs
}

// close writes the closer of the innermost open frame
func (w *tokenWriter) close(closer string) serial.WriteErrors {
	w.dropStale()
	errs := w.writeString(closer)
	if errs.Empty() && len(w.frames) > 0 {
		w.frames = w.frames[:len(w.frames)-1]
	}
	return errs
}

// dropStale forgets frames whose opener was rolled back
func (w *tokenWriter) dropStale() {
	remaining := w.sink.RemainingSize()
	for len(w.frames) > 0 && w.frames[len(w.frames)-1].end < remaining {
		w.frames = w.frames[:len(w.frames)-1]
	}
}

// writeToken writes b completely or not at all
func (w *tokenWriter) writeToken(b []byte) serial.WriteErrors {
	w.scratch = b[:0]
	return w.sink.Write(b)
}

func (w *tokenWriter) writeString(s string) serial.WriteErrors {
	return w.writeToken(append(w.scratch[:0], s...))
}

// writeEach writes one token per value and stops at the first value that
// does not fit
func writeEach[T any](w *tokenWriter, v []T, enc func([]byte, T) []byte) (int, serial.WriteErrors) {
	for i, x := range v {
		if errs := w.writeToken(enc(w.scratch[:0], x)); !errs.Empty() {
			if i > 0 {
				return i, serial.IncompleteWrite
			}
			return 0, errs
		}
	}
	return len(v), 0
}

// partialWrite maps a count of written values to the flags of a span write
func partialWrite(done, want int) serial.WriteErrors {
	switch {
	case done == want:
		return 0
	case done == 0:
		return serial.TooMuchData
	default:
		return serial.IncompleteWrite
	}
}

// --------------------------------------------------------------------------
// Reader helpers
// --------------------------------------------------------------------------

// requireLit consumes lit or fails without consuming anything
func requireLit(src serial.DataSource, lit string) serial.ReadErrors {
	view := src.Top(len(lit))
	if string(view) == lit {
		src.Pop(len(lit))
		return 0
	}
	if len(view) < len(lit) && lit[:len(view)] == string(view) {
		return serial.NotEnoughData
	}
	return serial.InvalidFormat
}

// consume is requireLit without the format error: a mismatch returns false
func consume(src serial.DataSource, lit string) (bool, serial.ReadErrors) {
	switch errs := requireLit(src, lit); errs {
	case 0:
		return true, 0
	case serial.InvalidFormat:
		return false, 0
	default:
		return false, errs
	}
}

// peekToken returns the bytes before the next delim within max bytes and the
// number of bytes to pop to consume the token including delim. Nothing is
// consumed.
func peekToken(src serial.DataSource, delim byte, max int) ([]byte, int, serial.ReadErrors) {
	off, ok := serial.ScanFor(src, delim, max, 16)
	if !ok {
		if off < max {
			return nil, 0, serial.NotEnoughData
		}
		return nil, 0, serial.InvalidFormat
	}
	return src.Top(off), off + 1, 0
}

// peekByte returns the next byte without consuming it
func peekByte(src serial.DataSource) (byte, serial.ReadErrors) {
	view := src.Top(1)
	if len(view) == 0 {
		return 0, serial.NotEnoughData
	}
	return view[0], 0
}

// skipWhitespace consumes ASCII whitespace
func skipWhitespace(src serial.DataSource) {
	for {
		c, errs := peekByte(src)
		if !errs.Empty() {
			return
		}
		switch c {
		case ' ', '\t', '\n', '\r', '\v', '\f':
			src.Pop(1)
		default:
			return
		}
	}
}

// readEach decodes one value per element of dst
func readEach[T any](dst []T, dec func() (T, serial.ReadErrors)) (int, serial.ReadErrors) {
	for i := range dst {
		x, errs := dec()
		if !errs.Empty() {
			if i > 0 && errs == serial.NotEnoughData {
				return i, serial.IncompleteRead
			}
			return i, errs
		}
		dst[i] = x
	}
	return len(dst), 0
}

// partialRead maps a count of decoded values to the flags of a span read
func partialRead(done, want int) serial.ReadErrors {
	switch {
	case done == want:
		return 0
	case done == 0:
		return serial.NotEnoughData
	default:
		return serial.IncompleteRead
	}
}
