package backend

import (
	"encoding/binary"
	"math"

	"github.com/ValentinKolb/dSer/lib/serial"
)

// FastID identifies the fast backend. Its payloads use the host byte order
// and are only meant to be read on the same kind of machine.
const FastID = "FastLocal"

var order = binary.NativeEndian

// --------------------------------------------------------------------------
// Serializer
// --------------------------------------------------------------------------

// FastSerializer writes fixed width primitives in host byte order. Structs
// and lists are framed by a bare 8 byte count, names are not written.
type FastSerializer struct {
	tokenWriter
}

func NewFastSerializer(sink serial.DataSink) *FastSerializer {
	return &FastSerializer{tokenWriter{sink: sink}}
}

// ---- Interface Methods (docu see serial.SerializerBackend) ----

func (s *FastSerializer) TypeID() string { return FastID }

func (s *FastSerializer) EnumAsString() bool { return false }

func (s *FastSerializer) Begin() serial.WriteErrors { return 0 }

func (s *FastSerializer) BeginStruct(count int) serial.WriteErrors { return s.writeCount(count) }

func (s *FastSerializer) BeginMember(string) serial.WriteErrors { return 0 }

func (s *FastSerializer) FinishMember(string) serial.WriteErrors { return 0 }

func (s *FastSerializer) FinishStruct() serial.WriteErrors { return 0 }

func (s *FastSerializer) BeginList(count int) serial.WriteErrors { return s.writeCount(count) }

func (s *FastSerializer) BeginElement(int) serial.WriteErrors { return 0 }

func (s *FastSerializer) FinishElement(int) serial.WriteErrors { return 0 }

func (s *FastSerializer) FinishList() serial.WriteErrors { return 0 }

func (s *FastSerializer) Finish() serial.WriteErrors { return 0 }

func (s *FastSerializer) WriteBools(v []bool) (int, serial.WriteErrors) {
	return writeFixed(&s.tokenWriter, v, 1, func(b []byte, x bool) []byte {
		if x {
			return append(b, 1)
		}
		return append(b, 0)
	})
}

func (s *FastSerializer) WriteInt8s(v []int8) (int, serial.WriteErrors) {
	return writeFixed(&s.tokenWriter, v, 1, func(b []byte, x int8) []byte { return append(b, byte(x)) })
}

func (s *FastSerializer) WriteInt16s(v []int16) (int, serial.WriteErrors) {
	return writeFixed(&s.tokenWriter, v, 2, func(b []byte, x int16) []byte { return order.AppendUint16(b, uint16(x)) })
}

func (s *FastSerializer) WriteInt32s(v []int32) (int, serial.WriteErrors) {
	return writeFixed(&s.tokenWriter, v, 4, func(b []byte, x int32) []byte { return order.AppendUint32(b, uint32(x)) })
}

func (s *FastSerializer) WriteInt64s(v []int64) (int, serial.WriteErrors) {
	return writeFixed(&s.tokenWriter, v, 8, func(b []byte, x int64) []byte { return order.AppendUint64(b, uint64(x)) })
}

func (s *FastSerializer) WriteUint8s(v []uint8) (int, serial.WriteErrors) {
	// bytes need no encoding
	n := min(len(v), s.sink.RemainingSize())
	if errs := s.sink.Write(v[:n]); !errs.Empty() {
		return 0, errs
	}
	return n, partialWrite(n, len(v))
}

func (s *FastSerializer) WriteUint16s(v []uint16) (int, serial.WriteErrors) {
	return writeFixed(&s.tokenWriter, v, 2, order.AppendUint16)
}

func (s *FastSerializer) WriteUint32s(v []uint32) (int, serial.WriteErrors) {
	return writeFixed(&s.tokenWriter, v, 4, order.AppendUint32)
}

func (s *FastSerializer) WriteUint64s(v []uint64) (int, serial.WriteErrors) {
	return writeFixed(&s.tokenWriter, v, 8, order.AppendUint64)
}

func (s *FastSerializer) WriteFloat32s(v []float32) (int, serial.WriteErrors) {
	return writeFixed(&s.tokenWriter, v, 4, func(b []byte, x float32) []byte { return order.AppendUint32(b, math.Float32bits(x)) })
}

func (s *FastSerializer) WriteFloat64s(v []float64) (int, serial.WriteErrors) {
	return writeFixed(&s.tokenWriter, v, 8, func(b []byte, x float64) []byte { return order.AppendUint64(b, math.Float64bits(x)) })
}

func (s *FastSerializer) WriteStrings(v []string) (int, serial.WriteErrors) {
	return writeEach(&s.tokenWriter, v, func(b []byte, x string) []byte {
		b = order.AppendUint64(b, uint64(len(x)))
		return append(b, x...)
	})
}

// ---- Helper ----

func (s *FastSerializer) writeCount(count int) serial.WriteErrors {
	return s.writeToken(order.AppendUint64(s.scratch[:0], uint64(count)))
}

// writeFixed writes as many whole values of the given width as fit with a
// single Write
func writeFixed[T any](w *tokenWriter, v []T, width int, put func([]byte, T) []byte) (int, serial.WriteErrors) {
	n := min(len(v), w.sink.RemainingSize()/width)
	b := w.scratch[:0]
	for _, x := range v[:n] {
		b = put(b, x)
	}
	if errs := w.writeToken(b); !errs.Empty() {
		return 0, errs
	}
	return n, partialWrite(n, len(v))
}

// --------------------------------------------------------------------------
// Deserializer
// --------------------------------------------------------------------------

// FastDeserializer reads what FastSerializer wrote
type FastDeserializer struct {
	src serial.DataSource
}

func NewFastDeserializer(src serial.DataSource) *FastDeserializer {
	return &FastDeserializer{src: src}
}

// ---- Interface Methods (docu see serial.DeserializerBackend) ----

func (d *FastDeserializer) TypeID() string { return FastID }

func (d *FastDeserializer) EnumAsString() bool { return false }

func (d *FastDeserializer) Source() serial.DataSource { return d.src }

func (d *FastDeserializer) Begin() serial.ReadErrors { return 0 }

func (d *FastDeserializer) BeginStruct() (int, serial.ReadErrors) { return d.readCount() }

func (d *FastDeserializer) BeginMember(string) serial.ReadErrors { return 0 }

func (d *FastDeserializer) FinishMember(string) serial.ReadErrors { return 0 }

func (d *FastDeserializer) FinishStruct() serial.ReadErrors { return 0 }

func (d *FastDeserializer) BeginList() (int, serial.ReadErrors) { return d.readCount() }

func (d *FastDeserializer) BeginElement(int) serial.ReadErrors { return 0 }

func (d *FastDeserializer) FinishElement(int) serial.ReadErrors { return 0 }

func (d *FastDeserializer) FinishList() serial.ReadErrors { return 0 }

func (d *FastDeserializer) Finish() serial.ReadErrors { return 0 }

func (d *FastDeserializer) ReadBools(dst []bool) (int, serial.ReadErrors) {
	view := d.src.Top(len(dst))
	for i, c := range view {
		if c > 1 {
			d.src.Pop(i)
			return i, serial.InvalidFormat
		}
		dst[i] = c == 1
	}
	d.src.Pop(len(view))
	return len(view), partialRead(len(view), len(dst))
}

func (d *FastDeserializer) ReadInt8s(dst []int8) (int, serial.ReadErrors) {
	return readFixed(d.src, dst, 1, func(b []byte) int8 { return int8(b[0]) })
}

func (d *FastDeserializer) ReadInt16s(dst []int16) (int, serial.ReadErrors) {
	return readFixed(d.src, dst, 2, func(b []byte) int16 { return int16(order.Uint16(b)) })
}

func (d *FastDeserializer) ReadInt32s(dst []int32) (int, serial.ReadErrors) {
	return readFixed(d.src, dst, 4, func(b []byte) int32 { return int32(order.Uint32(b)) })
}

func (d *FastDeserializer) ReadInt64s(dst []int64) (int, serial.ReadErrors) {
	return readFixed(d.src, dst, 8, func(b []byte) int64 { return int64(order.Uint64(b)) })
}

func (d *FastDeserializer) ReadUint8s(dst []uint8) (int, serial.ReadErrors) {
	n := copy(dst, d.src.Top(len(dst)))
	d.src.Pop(n)
	return n, partialRead(n, len(dst))
}

func (d *FastDeserializer) ReadUint16s(dst []uint16) (int, serial.ReadErrors) {
	return readFixed(d.src, dst, 2, order.Uint16)
}

func (d *FastDeserializer) ReadUint32s(dst []uint32) (int, serial.ReadErrors) {
	return readFixed(d.src, dst, 4, order.Uint32)
}

func (d *FastDeserializer) ReadUint64s(dst []uint64) (int, serial.ReadErrors) {
	return readFixed(d.src, dst, 8, order.Uint64)
}

func (d *FastDeserializer) ReadFloat32s(dst []float32) (int, serial.ReadErrors) {
	return readFixed(d.src, dst, 4, func(b []byte) float32 { return math.Float32frombits(order.Uint32(b)) })
}

func (d *FastDeserializer) ReadFloat64s(dst []float64) (int, serial.ReadErrors) {
	return readFixed(d.src, dst, 8, func(b []byte) float64 { return math.Float64frombits(order.Uint64(b)) })
}

func (d *FastDeserializer) ReadStrings(dst []string) (int, serial.ReadErrors) {
	return readEach(dst, func() (string, serial.ReadErrors) {
		head := d.src.Top(8)
		if len(head) < 8 {
			return "", serial.NotEnoughData
		}
		size := order.Uint64(head)
		if size > math.MaxInt32 {
			return "", serial.InvalidFormat
		}
		n := 8 + int(size)
		view := d.src.Top(n)
		if len(view) < n {
			return "", serial.NotEnoughData
		}
		s := string(view[8:])
		d.src.Pop(n)
		return s, 0
	})
}

// ---- Helper ----

func (d *FastDeserializer) readCount() (int, serial.ReadErrors) {
	head := d.src.Top(8)
	if len(head) < 8 {
		return 0, serial.NotEnoughData
	}
	count := int64(order.Uint64(head))
	if count < 0 || count > math.MaxInt32 {
		return 0, serial.InvalidFormat
	}
	d.src.Pop(8)
	return int(count), 0
}

// readFixed decodes as many whole values as available
func readFixed[T any](src serial.DataSource, dst []T, width int, get func([]byte) T) (int, serial.ReadErrors) {
	view := src.Top(len(dst) * width)
	n := len(view) / width
	for i := 0; i < n; i++ {
		dst[i] = get(view[i*width:])
	}
	src.Pop(n * width)
	return n, partialRead(n, len(dst))
}

// --------------------------------------------------------------------------
// Size model
// --------------------------------------------------------------------------

// FastSizeModel describes the byte cost of the fast format
type FastSizeModel struct{}

func (FastSizeModel) TypeID() string { return FastID }

func (FastSizeModel) EnumAsString() bool { return false }

func (FastSizeModel) FrameSize() int { return 0 }

func (FastSizeModel) BoolSize(bool) int { return 1 }

func (FastSizeModel) BoolBound() int { return 1 }

func (FastSizeModel) IntSize(_ int64, bits int) int { return bits / 8 }

func (FastSizeModel) IntBound(bits int) int { return bits / 8 }

func (FastSizeModel) UintSize(_ uint64, bits int) int { return bits / 8 }

func (FastSizeModel) UintBound(bits int) int { return bits / 8 }

func (FastSizeModel) FloatSize(_ float64, bits int) int { return bits / 8 }

func (FastSizeModel) FloatBound(bits int) int { return bits / 8 }

func (FastSizeModel) StringSize(s string) int { return 8 + len(s) }

func (FastSizeModel) StructSize(int) int { return 8 }

func (FastSizeModel) MemberSize(string) int { return 0 }

func (FastSizeModel) ListSize(int) int { return 8 }
