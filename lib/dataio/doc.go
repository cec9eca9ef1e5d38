// Package dataio implements the byte stores that serialization backends
// write into and read from.
//
// Sinks:
//
//   - BlockSink: fixed capacity over a caller owned block. Writes beyond the
//     block fail with TooMuchData, so a sequence written into it is truncated
//     instead of overflowing.
//   - BufferSink: growable slice with an optional limit.
//   - CompressingSink: wraps a BlockSink or BufferSink and replaces the
//     written bytes by their compressed form when the top level serialization
//     finalizes the sink.
//
// All sinks implement transactions as checkpoints of the written length.
// Rollback truncates, Commit keeps the bytes, so nesting works without any
// bookkeeping.
//
// Sources:
//
//   - BlockSource: reads from a byte slice, NewDecompressingSource
//     decompresses first.
//   - ReaderSource: reads from an io.Reader and buffers what was observed.
//
// SinkFor picks the sink for a value from the size estimation of its codec.
package dataio
