package dataio

import "github.com/ValentinKolb/dSer/lib/serial"

// SinkFor returns a sink sized for v: a block sink over the type bound when
// the size of T is constant, otherwise a buffer sink reserving exactly the
// size of v.
func SinkFor[T any](c serial.Codec[T], v T, m serial.SizeModel) ReplaceableSink {
	buf, fixed := serial.BufferFor(c, v, m)
	if fixed {
		return NewBlockSink(buf)
	}
	return NewBufferSinkOn(buf).WithLimit(cap(buf))
}
