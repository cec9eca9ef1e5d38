package backend

import (
	"strconv"

	"github.com/ValentinKolb/dSer/lib/serial"
)

// StringID identifies the human readable string backend. The grammar follows
// the portable format with decimal numbers, "true"/"false" for booleans and
// the closers "};" and "];":
//
//	<{2|id:42;name:"3|abc";};>
const StringID = "String"

// textScan is the look-ahead limit for a number token
const textScan = 128

// --------------------------------------------------------------------------
// Serializer
// --------------------------------------------------------------------------

type StringSerializer struct {
	tokenWriter
}

func NewStringSerializer(sink serial.DataSink) *StringSerializer {
	return &StringSerializer{tokenWriter{sink: sink}}
}

// ---- Interface Methods (docu see serial.SerializerBackend) ----

func (s *StringSerializer) TypeID() string { return StringID }

func (s *StringSerializer) EnumAsString() bool { return true }

func (s *StringSerializer) Begin() serial.WriteErrors {
	s.frames = s.frames[:0]
	return s.open(append(s.scratch[:0], '<'), len(">\x00"))
}

func (s *StringSerializer) BeginStruct(count int) serial.WriteErrors {
	b := strconv.AppendInt(append(s.scratch[:0], '{'), int64(count), 10)
	return s.open(append(b, '|'), len("};"))
}

func (s *StringSerializer) BeginMember(name string) serial.WriteErrors {
	return s.writeToken(append(append(s.scratch[:0], name...), ':'))
}

func (s *StringSerializer) FinishMember(string) serial.WriteErrors { return 0 }

func (s *StringSerializer) FinishStruct() serial.WriteErrors { return s.close("};") }

func (s *StringSerializer) BeginList(count int) serial.WriteErrors {
	b := strconv.AppendInt(append(s.scratch[:0], '['), int64(count), 10)
	return s.open(append(b, '|'), len("];"))
}

func (s *StringSerializer) BeginElement(int) serial.WriteErrors { return 0 }

func (s *StringSerializer) FinishElement(int) serial.WriteErrors { return 0 }

func (s *StringSerializer) FinishList() serial.WriteErrors { return s.close("];") }

func (s *StringSerializer) Finish() serial.WriteErrors { return s.close(">\x00") }

func (s *StringSerializer) WriteBools(v []bool) (int, serial.WriteErrors) {
	return writeEach(&s.tokenWriter, v, func(b []byte, x bool) []byte {
		return append(strconv.AppendBool(b, x), ';')
	})
}

func (s *StringSerializer) WriteInt8s(v []int8) (int, serial.WriteErrors) {
	return writeEach(&s.tokenWriter, v, func(b []byte, x int8) []byte { return decimalToken(b, int64(x)) })
}

func (s *StringSerializer) WriteInt16s(v []int16) (int, serial.WriteErrors) {
	return writeEach(&s.tokenWriter, v, func(b []byte, x int16) []byte { return decimalToken(b, int64(x)) })
}

func (s *StringSerializer) WriteInt32s(v []int32) (int, serial.WriteErrors) {
	return writeEach(&s.tokenWriter, v, func(b []byte, x int32) []byte { return decimalToken(b, int64(x)) })
}

func (s *StringSerializer) WriteInt64s(v []int64) (int, serial.WriteErrors) {
	return writeEach(&s.tokenWriter, v, decimalToken)
}

// WriteUint8s writes bytes as two lowercase hex digits
func (s *StringSerializer) WriteUint8s(v []uint8) (int, serial.WriteErrors) {
	return writeEach(&s.tokenWriter, v, func(b []byte, x uint8) []byte {
		const digits = "0123456789abcdef"
		return append(b, digits[x>>4], digits[x&0xF], ';')
	})
}

func (s *StringSerializer) WriteUint16s(v []uint16) (int, serial.WriteErrors) {
	return writeEach(&s.tokenWriter, v, func(b []byte, x uint16) []byte { return udecimalToken(b, uint64(x)) })
}

func (s *StringSerializer) WriteUint32s(v []uint32) (int, serial.WriteErrors) {
	return writeEach(&s.tokenWriter, v, func(b []byte, x uint32) []byte { return udecimalToken(b, uint64(x)) })
}

func (s *StringSerializer) WriteUint64s(v []uint64) (int, serial.WriteErrors) {
	return writeEach(&s.tokenWriter, v, udecimalToken)
}

func (s *StringSerializer) WriteFloat32s(v []float32) (int, serial.WriteErrors) {
	return writeEach(&s.tokenWriter, v, func(b []byte, x float32) []byte {
		return append(strconv.AppendFloat(b, float64(x), 'g', -1, 32), ';')
	})
}

func (s *StringSerializer) WriteFloat64s(v []float64) (int, serial.WriteErrors) {
	return writeEach(&s.tokenWriter, v, func(b []byte, x float64) []byte {
		return append(strconv.AppendFloat(b, x, 'g', -1, 64), ';')
	})
}

func (s *StringSerializer) WriteStrings(v []string) (int, serial.WriteErrors) {
	return writeEach(&s.tokenWriter, v, func(b []byte, x string) []byte {
		b = strconv.AppendInt(append(b, '"'), int64(len(x)), 10)
		b = append(append(b, '|'), x...)
		return append(b, '"', ';')
	})
}

// ---- Helper ----

func decimalToken(b []byte, v int64) []byte { return append(strconv.AppendInt(b, v, 10), ';') }

func udecimalToken(b []byte, u uint64) []byte { return append(strconv.AppendUint(b, u, 10), ';') }

// --------------------------------------------------------------------------
// Deserializer
// --------------------------------------------------------------------------

type StringDeserializer struct {
	src serial.DataSource
}

func NewStringDeserializer(src serial.DataSource) *StringDeserializer {
	return &StringDeserializer{src: src}
}

// ---- Interface Methods (docu see serial.DeserializerBackend) ----

func (d *StringDeserializer) TypeID() string { return StringID }

func (d *StringDeserializer) EnumAsString() bool { return true }

func (d *StringDeserializer) Source() serial.DataSource { return d.src }

func (d *StringDeserializer) Begin() serial.ReadErrors {
	skipWhitespace(d.src)
	return requireLit(d.src, "<")
}

func (d *StringDeserializer) BeginStruct() (int, serial.ReadErrors) { return d.readCount('{') }

func (d *StringDeserializer) BeginMember(name string) serial.ReadErrors {
	return requireLit(d.src, name+":")
}

func (d *StringDeserializer) FinishMember(string) serial.ReadErrors { return 0 }

func (d *StringDeserializer) FinishStruct() serial.ReadErrors { return requireLit(d.src, "};") }

func (d *StringDeserializer) BeginList() (int, serial.ReadErrors) { return d.readCount('[') }

func (d *StringDeserializer) BeginElement(int) serial.ReadErrors { return 0 }

func (d *StringDeserializer) FinishElement(int) serial.ReadErrors { return 0 }

func (d *StringDeserializer) FinishList() serial.ReadErrors { return requireLit(d.src, "];") }

func (d *StringDeserializer) Finish() serial.ReadErrors { return requireLit(d.src, ">\x00") }

func (d *StringDeserializer) ReadBools(dst []bool) (int, serial.ReadErrors) {
	return readEach(dst, func() (bool, serial.ReadErrors) {
		if ok, errs := consume(d.src, "true;"); ok || !errs.Empty() {
			return ok, errs
		}
		if ok, errs := consume(d.src, "false;"); ok || !errs.Empty() {
			return false, errs
		}
		return false, serial.UnexpectedData
	})
}

func (d *StringDeserializer) ReadInt8s(dst []int8) (int, serial.ReadErrors) {
	return readEach(dst, func() (int8, serial.ReadErrors) {
		v, errs := d.readInt(8)
		return int8(v), errs
	})
}

func (d *StringDeserializer) ReadInt16s(dst []int16) (int, serial.ReadErrors) {
	return readEach(dst, func() (int16, serial.ReadErrors) {
		v, errs := d.readInt(16)
		return int16(v), errs
	})
}

func (d *StringDeserializer) ReadInt32s(dst []int32) (int, serial.ReadErrors) {
	return readEach(dst, func() (int32, serial.ReadErrors) {
		v, errs := d.readInt(32)
		return int32(v), errs
	})
}

func (d *StringDeserializer) ReadInt64s(dst []int64) (int, serial.ReadErrors) {
	return readEach(dst, func() (int64, serial.ReadErrors) { return d.readInt(64) })
}

func (d *StringDeserializer) ReadUint8s(dst []uint8) (int, serial.ReadErrors) {
	return readEach(dst, func() (uint8, serial.ReadErrors) {
		return parseToken(d.src, func(tok string) (uint8, error) {
			u, err := strconv.ParseUint(tok, 16, 8)
			return uint8(u), err
		})
	})
}

func (d *StringDeserializer) ReadUint16s(dst []uint16) (int, serial.ReadErrors) {
	return readEach(dst, func() (uint16, serial.ReadErrors) {
		u, errs := d.readUint(16)
		return uint16(u), errs
	})
}

func (d *StringDeserializer) ReadUint32s(dst []uint32) (int, serial.ReadErrors) {
	return readEach(dst, func() (uint32, serial.ReadErrors) {
		u, errs := d.readUint(32)
		return uint32(u), errs
	})
}

func (d *StringDeserializer) ReadUint64s(dst []uint64) (int, serial.ReadErrors) {
	return readEach(dst, func() (uint64, serial.ReadErrors) { return d.readUint(64) })
}

func (d *StringDeserializer) ReadFloat32s(dst []float32) (int, serial.ReadErrors) {
	return readEach(dst, func() (float32, serial.ReadErrors) {
		return parseToken(d.src, func(tok string) (float32, error) {
			f, err := strconv.ParseFloat(tok, 32)
			return float32(f), err
		})
	})
}

func (d *StringDeserializer) ReadFloat64s(dst []float64) (int, serial.ReadErrors) {
	return readEach(dst, func() (float64, serial.ReadErrors) {
		return parseToken(d.src, func(tok string) (float64, error) { return strconv.ParseFloat(tok, 64) })
	})
}

func (d *StringDeserializer) ReadStrings(dst []string) (int, serial.ReadErrors) {
	return readEach(dst, func() (string, serial.ReadErrors) {
		if c, errs := peekByte(d.src); !errs.Empty() {
			return "", errs
		} else if c != '"' {
			return "", serial.InvalidFormat
		}
		tok, n, errs := peekToken(d.src, '|', textScan)
		if !errs.Empty() {
			return "", errs
		}
		size, err := strconv.ParseInt(string(tok[1:]), 10, 32)
		if err != nil || size < 0 {
			return "", serial.InvalidFormat
		}
		return readStringBody(d.src, n, int(size))
	})
}

// ---- Helper ----

func (d *StringDeserializer) readCount(open byte) (int, serial.ReadErrors) {
	if c, errs := peekByte(d.src); !errs.Empty() {
		return 0, errs
	} else if c != open {
		return 0, serial.InvalidFormat
	}
	tok, n, errs := peekToken(d.src, '|', textScan)
	if !errs.Empty() {
		return 0, errs
	}
	count, err := strconv.ParseInt(string(tok[1:]), 10, 32)
	if err != nil {
		return 0, serial.InvalidFormat
	}
	d.src.Pop(n)
	return int(count), 0
}

func (d *StringDeserializer) readInt(bitSize int) (int64, serial.ReadErrors) {
	return parseToken(d.src, func(tok string) (int64, error) { return strconv.ParseInt(tok, 10, bitSize) })
}

func (d *StringDeserializer) readUint(bitSize int) (uint64, serial.ReadErrors) {
	return parseToken(d.src, func(tok string) (uint64, error) { return strconv.ParseUint(tok, 10, bitSize) })
}

// parseToken parses the next ';' terminated token and consumes it on success
func parseToken[T any](src serial.DataSource, parse func(string) (T, error)) (T, serial.ReadErrors) {
	var zero T
	tok, n, errs := peekToken(src, ';', textScan)
	if !errs.Empty() {
		return zero, errs
	}
	v, err := parse(string(tok))
	if err != nil {
		return zero, serial.InvalidFormat
	}
	src.Pop(n)
	return v, 0
}

// --------------------------------------------------------------------------
// Size model
// --------------------------------------------------------------------------

// StringSizeModel describes the byte cost of the string format
type StringSizeModel struct{}

func (StringSizeModel) TypeID() string { return StringID }

func (StringSizeModel) EnumAsString() bool { return true }

func (StringSizeModel) FrameSize() int { return 3 }

func (StringSizeModel) BoolSize(v bool) int {
	if v {
		return len("true;")
	}
	return len("false;")
}

func (StringSizeModel) BoolBound() int { return len("false;") }

func (StringSizeModel) IntSize(v int64, _ int) int { return decimalLen(v) + 1 }

func (StringSizeModel) IntBound(bits int) int { return decimalLen(-1<<(bits-1)) + 1 }

func (StringSizeModel) UintSize(u uint64, bits int) int {
	if bits == 8 {
		return 3
	}
	return udecimalLen(u) + 1
}

func (StringSizeModel) UintBound(bits int) int {
	if bits == 8 {
		return 3
	}
	return udecimalLen(1<<bits-1) + 1
}

func (StringSizeModel) FloatSize(v float64, bits int) int {
	var buf [32]byte
	return len(strconv.AppendFloat(buf[:0], v, 'g', -1, bits)) + 1
}

func (StringSizeModel) FloatBound(bits int) int {
	// sign, 9 (17) significant digits, point and exponent
	if bits == 32 {
		return 16 + 1
	}
	return 25 + 1
}

func (StringSizeModel) StringSize(s string) int { return 1 + decimalLen(int64(len(s))) + 1 + len(s) + 2 }

func (StringSizeModel) StructSize(count int) int { return 1 + decimalLen(int64(count)) + 1 + 2 }

func (StringSizeModel) MemberSize(name string) int { return len(name) + 1 }

func (StringSizeModel) ListSize(count int) int { return 1 + decimalLen(int64(count)) + 1 + 2 }

func decimalLen(v int64) int {
	if v < 0 {
		return 1 + udecimalLen(uint64(-v))
	}
	return udecimalLen(uint64(v))
}

func udecimalLen(u uint64) int {
	n := 1
	for ; u >= 10; u /= 10 {
		n++
	}
	return n
}
