package backend

import (
	"math/bits"

	"github.com/ValentinKolb/dSer/lib/fputil"
	"github.com/ValentinKolb/dSer/lib/serial"
)

// PortableID identifies the portable backend, a byte order independent text
// format:
//
//	frame   '<' value '>' NUL
//	struct  '{' count '|' (name ':' value)* '}'
//	list    '[' count '|' value* ']'
//	int     ('+'|'-') hex ';'
//	uint    hex ';'
//	float   int-fraction '`' int-exponent ';'
//	bool    ('T'|'U') ';'
//	string  '"' count '|' bytes '"' ';'
//
// Hex digits are uppercase, most significant first. Counts are signed.
const PortableID = "Portable"

// portableScan is the look-ahead limit for a number token
const portableScan = 48

const hexDigits = "0123456789ABCDEF"

// --------------------------------------------------------------------------
// Serializer
// --------------------------------------------------------------------------

type PortableSerializer struct {
	tokenWriter
}

func NewPortableSerializer(sink serial.DataSink) *PortableSerializer {
	return &PortableSerializer{tokenWriter{sink: sink}}
}

// ---- Interface Methods (docu see serial.SerializerBackend) ----

func (s *PortableSerializer) TypeID() string { return PortableID }

func (s *PortableSerializer) EnumAsString() bool { return true }

func (s *PortableSerializer) Begin() serial.WriteErrors {
	s.frames = s.frames[:0]
	return s.open(append(s.scratch[:0], '<'), len(">\x00"))
}

func (s *PortableSerializer) BeginStruct(count int) serial.WriteErrors {
	b := appendSigned(append(s.scratch[:0], '{'), int64(count))
	return s.open(append(b, '|'), len("}"))
}

func (s *PortableSerializer) BeginMember(name string) serial.WriteErrors {
	return s.writeToken(append(append(s.scratch[:0], name...), ':'))
}

func (s *PortableSerializer) FinishMember(string) serial.WriteErrors { return 0 }

func (s *PortableSerializer) FinishStruct() serial.WriteErrors { return s.close("}") }

func (s *PortableSerializer) BeginList(count int) serial.WriteErrors {
	b := appendSigned(append(s.scratch[:0], '['), int64(count))
	return s.open(append(b, '|'), len("]"))
}

func (s *PortableSerializer) BeginElement(int) serial.WriteErrors { return 0 }

func (s *PortableSerializer) FinishElement(int) serial.WriteErrors { return 0 }

func (s *PortableSerializer) FinishList() serial.WriteErrors { return s.close("]") }

func (s *PortableSerializer) Finish() serial.WriteErrors { return s.close(">\x00") }

func (s *PortableSerializer) WriteBools(v []bool) (int, serial.WriteErrors) {
	return writeEach(&s.tokenWriter, v, func(b []byte, x bool) []byte {
		if x {
			return append(b, 'T', ';')
		}
		return append(b, 'U', ';')
	})
}

func (s *PortableSerializer) WriteInt8s(v []int8) (int, serial.WriteErrors) {
	return writeEach(&s.tokenWriter, v, func(b []byte, x int8) []byte { return signedToken(b, int64(x)) })
}

func (s *PortableSerializer) WriteInt16s(v []int16) (int, serial.WriteErrors) {
	return writeEach(&s.tokenWriter, v, func(b []byte, x int16) []byte { return signedToken(b, int64(x)) })
}

func (s *PortableSerializer) WriteInt32s(v []int32) (int, serial.WriteErrors) {
	return writeEach(&s.tokenWriter, v, func(b []byte, x int32) []byte { return signedToken(b, int64(x)) })
}

func (s *PortableSerializer) WriteInt64s(v []int64) (int, serial.WriteErrors) {
	return writeEach(&s.tokenWriter, v, signedToken)
}

func (s *PortableSerializer) WriteUint8s(v []uint8) (int, serial.WriteErrors) {
	return writeEach(&s.tokenWriter, v, func(b []byte, x uint8) []byte { return unsignedToken(b, uint64(x)) })
}

func (s *PortableSerializer) WriteUint16s(v []uint16) (int, serial.WriteErrors) {
	return writeEach(&s.tokenWriter, v, func(b []byte, x uint16) []byte { return unsignedToken(b, uint64(x)) })
}

func (s *PortableSerializer) WriteUint32s(v []uint32) (int, serial.WriteErrors) {
	return writeEach(&s.tokenWriter, v, func(b []byte, x uint32) []byte { return unsignedToken(b, uint64(x)) })
}

func (s *PortableSerializer) WriteUint64s(v []uint64) (int, serial.WriteErrors) {
	return writeEach(&s.tokenWriter, v, unsignedToken)
}

func (s *PortableSerializer) WriteFloat32s(v []float32) (int, serial.WriteErrors) {
	return writeEach(&s.tokenWriter, v, func(b []byte, x float32) []byte {
		frac, exp := fputil.Decompose32(x)
		return floatToken(b, int64(frac), int64(exp))
	})
}

func (s *PortableSerializer) WriteFloat64s(v []float64) (int, serial.WriteErrors) {
	return writeEach(&s.tokenWriter, v, func(b []byte, x float64) []byte {
		frac, exp := fputil.Decompose64(x)
		return floatToken(b, frac, int64(exp))
	})
}

func (s *PortableSerializer) WriteStrings(v []string) (int, serial.WriteErrors) {
	return writeEach(&s.tokenWriter, v, func(b []byte, x string) []byte {
		b = appendSigned(append(b, '"'), int64(len(x)))
		b = append(append(b, '|'), x...)
		return append(b, '"', ';')
	})
}

// ---- Helper ----

func appendHex(b []byte, u uint64) []byte {
	for shift := 4 * (hexLen(u) - 1); shift >= 0; shift -= 4 {
		b = append(b, hexDigits[(u>>shift)&0xF])
	}
	return b
}

func appendSigned(b []byte, v int64) []byte {
	if v < 0 {
		// uint64(-v) is also correct for math.MinInt64
		return appendHex(append(b, '-'), uint64(-v))
	}
	return appendHex(append(b, '+'), uint64(v))
}

func signedToken(b []byte, v int64) []byte { return append(appendSigned(b, v), ';') }

func unsignedToken(b []byte, u uint64) []byte { return append(appendHex(b, u), ';') }

func floatToken(b []byte, frac, exp int64) []byte {
	b = append(appendSigned(b, frac), '`')
	return append(appendSigned(b, exp), ';')
}

// hexLen is the number of hex digits of u, 1 for zero
func hexLen(u uint64) int {
	return max(1, (bits.Len64(u)+3)/4)
}

func magnitude(v int64) uint64 {
	if v < 0 {
		return uint64(-v)
	}
	return uint64(v)
}

// --------------------------------------------------------------------------
// Deserializer
// --------------------------------------------------------------------------

type PortableDeserializer struct {
	src serial.DataSource
}

func NewPortableDeserializer(src serial.DataSource) *PortableDeserializer {
	return &PortableDeserializer{src: src}
}

// ---- Interface Methods (docu see serial.DeserializerBackend) ----

func (d *PortableDeserializer) TypeID() string { return PortableID }

func (d *PortableDeserializer) EnumAsString() bool { return true }

func (d *PortableDeserializer) Source() serial.DataSource { return d.src }

func (d *PortableDeserializer) Begin() serial.ReadErrors {
	skipWhitespace(d.src)
	return requireLit(d.src, "<")
}

func (d *PortableDeserializer) BeginStruct() (int, serial.ReadErrors) { return d.readCount('{') }

func (d *PortableDeserializer) BeginMember(name string) serial.ReadErrors {
	return requireLit(d.src, name+":")
}

func (d *PortableDeserializer) FinishMember(string) serial.ReadErrors { return 0 }

func (d *PortableDeserializer) FinishStruct() serial.ReadErrors { return requireLit(d.src, "}") }

func (d *PortableDeserializer) BeginList() (int, serial.ReadErrors) { return d.readCount('[') }

func (d *PortableDeserializer) BeginElement(int) serial.ReadErrors { return 0 }

func (d *PortableDeserializer) FinishElement(int) serial.ReadErrors { return 0 }

func (d *PortableDeserializer) FinishList() serial.ReadErrors { return requireLit(d.src, "]") }

func (d *PortableDeserializer) Finish() serial.ReadErrors { return requireLit(d.src, ">\x00") }

func (d *PortableDeserializer) ReadBools(dst []bool) (int, serial.ReadErrors) {
	return readEach(dst, func() (bool, serial.ReadErrors) {
		if ok, errs := consume(d.src, "T;"); ok || !errs.Empty() {
			return ok, errs
		}
		if ok, errs := consume(d.src, "U;"); ok || !errs.Empty() {
			return false, errs
		}
		return false, serial.InvalidFormat
	})
}

func (d *PortableDeserializer) ReadInt8s(dst []int8) (int, serial.ReadErrors) {
	return readEach(dst, func() (int8, serial.ReadErrors) {
		v, errs := d.readSigned(8)
		return int8(v), errs
	})
}

func (d *PortableDeserializer) ReadInt16s(dst []int16) (int, serial.ReadErrors) {
	return readEach(dst, func() (int16, serial.ReadErrors) {
		v, errs := d.readSigned(16)
		return int16(v), errs
	})
}

func (d *PortableDeserializer) ReadInt32s(dst []int32) (int, serial.ReadErrors) {
	return readEach(dst, func() (int32, serial.ReadErrors) {
		v, errs := d.readSigned(32)
		return int32(v), errs
	})
}

func (d *PortableDeserializer) ReadInt64s(dst []int64) (int, serial.ReadErrors) {
	return readEach(dst, func() (int64, serial.ReadErrors) { return d.readSigned(64) })
}

func (d *PortableDeserializer) ReadUint8s(dst []uint8) (int, serial.ReadErrors) {
	return readEach(dst, func() (uint8, serial.ReadErrors) {
		v, errs := d.readUnsigned(8)
		return uint8(v), errs
	})
}

func (d *PortableDeserializer) ReadUint16s(dst []uint16) (int, serial.ReadErrors) {
	return readEach(dst, func() (uint16, serial.ReadErrors) {
		v, errs := d.readUnsigned(16)
		return uint16(v), errs
	})
}

func (d *PortableDeserializer) ReadUint32s(dst []uint32) (int, serial.ReadErrors) {
	return readEach(dst, func() (uint32, serial.ReadErrors) {
		v, errs := d.readUnsigned(32)
		return uint32(v), errs
	})
}

func (d *PortableDeserializer) ReadUint64s(dst []uint64) (int, serial.ReadErrors) {
	return readEach(dst, func() (uint64, serial.ReadErrors) { return d.readUnsigned(64) })
}

func (d *PortableDeserializer) ReadFloat32s(dst []float32) (int, serial.ReadErrors) {
	return readEach(dst, func() (float32, serial.ReadErrors) {
		frac, exp, errs := d.readFloat(32, 16)
		return fputil.Compose32(int32(frac), int16(exp)), errs
	})
}

func (d *PortableDeserializer) ReadFloat64s(dst []float64) (int, serial.ReadErrors) {
	return readEach(dst, func() (float64, serial.ReadErrors) {
		frac, exp, errs := d.readFloat(64, 32)
		return fputil.Compose64(frac, int32(exp)), errs
	})
}

func (d *PortableDeserializer) ReadStrings(dst []string) (int, serial.ReadErrors) {
	return readEach(dst, func() (string, serial.ReadErrors) {
		if c, errs := peekByte(d.src); !errs.Empty() {
			return "", errs
		} else if c != '"' {
			return "", serial.InvalidFormat
		}
		tok, n, errs := peekToken(d.src, '|', portableScan)
		if !errs.Empty() {
			return "", errs
		}
		size, ok := parseSigned(tok[1:], 32)
		if !ok || size < 0 {
			return "", serial.InvalidFormat
		}
		return readStringBody(d.src, n, int(size))
	})
}

// ---- Helper ----

// readCount reads the opener of a struct or list and its count
func (d *PortableDeserializer) readCount(open byte) (int, serial.ReadErrors) {
	if c, errs := peekByte(d.src); !errs.Empty() {
		return 0, errs
	} else if c != open {
		return 0, serial.InvalidFormat
	}
	tok, n, errs := peekToken(d.src, '|', portableScan)
	if !errs.Empty() {
		return 0, errs
	}
	count, ok := parseSigned(tok[1:], 32)
	if !ok {
		return 0, serial.InvalidFormat
	}
	d.src.Pop(n)
	return int(count), 0
}

func (d *PortableDeserializer) readSigned(bitSize int) (int64, serial.ReadErrors) {
	tok, n, errs := peekToken(d.src, ';', portableScan)
	if !errs.Empty() {
		return 0, errs
	}
	v, ok := parseSigned(tok, bitSize)
	if !ok {
		return 0, serial.InvalidFormat
	}
	d.src.Pop(n)
	return v, 0
}

func (d *PortableDeserializer) readUnsigned(bitSize int) (uint64, serial.ReadErrors) {
	tok, n, errs := peekToken(d.src, ';', portableScan)
	if !errs.Empty() {
		return 0, errs
	}
	u, ok := parseHex(tok)
	if !ok || bits.Len64(u) > bitSize {
		return 0, serial.InvalidFormat
	}
	d.src.Pop(n)
	return u, 0
}

func (d *PortableDeserializer) readFloat(fracBits, expBits int) (int64, int64, serial.ReadErrors) {
	tok, n, errs := peekToken(d.src, ';', portableScan)
	if !errs.Empty() {
		return 0, 0, errs
	}
	for i, c := range tok {
		if c != '`' {
			continue
		}
		frac, ok1 := parseSigned(tok[:i], fracBits)
		exp, ok2 := parseSigned(tok[i+1:], expBits)
		if !ok1 || !ok2 {
			return 0, 0, serial.InvalidFormat
		}
		d.src.Pop(n)
		return frac, exp, 0
	}
	return 0, 0, serial.InvalidFormat
}

// readStringBody reads size bytes and the closing '";' after a header of n
// bytes. Nothing is consumed on failure.
func readStringBody(src serial.DataSource, n, size int) (string, serial.ReadErrors) {
	total := n + size + 2
	view := src.Top(total)
	if len(view) < total {
		return "", serial.NotEnoughData
	}
	if view[total-2] != '"' || view[total-1] != ';' {
		return "", serial.InvalidFormat
	}
	s := string(view[n : n+size])
	src.Pop(total)
	return s, 0
}

// parseHex parses a non-empty sequence of hex digits
func parseHex(tok []byte) (uint64, bool) {
	if len(tok) == 0 || len(tok) > 16 {
		return 0, false
	}
	var u uint64
	for _, c := range tok {
		var nibble byte
		switch {
		case c >= '0' && c <= '9':
			nibble = c - '0'
		case c >= 'A' && c <= 'F':
			nibble = c - 'A' + 10
		case c >= 'a' && c <= 'f':
			nibble = c - 'a' + 10
		default:
			return 0, false
		}
		u = u<<4 | uint64(nibble)
	}
	return u, true
}

// parseSigned parses a sign followed by hex digits into a value that fits
// into bitSize bits
func parseSigned(tok []byte, bitSize int) (int64, bool) {
	if len(tok) < 2 || (tok[0] != '+' && tok[0] != '-') {
		return 0, false
	}
	mag, ok := parseHex(tok[1:])
	if !ok {
		return 0, false
	}
	limit := uint64(1) << (bitSize - 1)
	if tok[0] == '-' {
		if mag > limit {
			return 0, false
		}
		return int64(-mag), true
	}
	if mag >= limit {
		return 0, false
	}
	return int64(mag), true
}

// --------------------------------------------------------------------------
// Size model
// --------------------------------------------------------------------------

// PortableSizeModel describes the byte cost of the portable format
type PortableSizeModel struct{}

func (PortableSizeModel) TypeID() string { return PortableID }

func (PortableSizeModel) EnumAsString() bool { return true }

func (PortableSizeModel) FrameSize() int { return 3 }

func (PortableSizeModel) BoolSize(bool) int { return 2 }

func (PortableSizeModel) BoolBound() int { return 2 }

func (PortableSizeModel) IntSize(v int64, _ int) int { return signedLen(v) + 1 }

func (PortableSizeModel) IntBound(bits int) int {
	return 1 + hexLen(uint64(1)<<(bits-1)) + 1
}

func (PortableSizeModel) UintSize(u uint64, _ int) int { return hexLen(u) + 1 }

func (PortableSizeModel) UintBound(bits int) int { return bits/4 + 1 }

func (PortableSizeModel) FloatSize(v float64, bits int) int {
	var frac, exp int64
	if bits == 32 {
		f, e := fputil.Decompose32(float32(v))
		frac, exp = int64(f), int64(e)
	} else {
		f, e := fputil.Decompose64(v)
		frac, exp = f, int64(e)
	}
	return signedLen(frac) + 1 + signedLen(exp) + 1
}

func (PortableSizeModel) FloatBound(bits int) int {
	// |fraction| < 2^24 (2^53), |exponent| <= 172 (1126)
	if bits == 32 {
		return (1 + 6) + 1 + (1 + 2) + 1
	}
	return (1 + 14) + 1 + (1 + 3) + 1
}

func (PortableSizeModel) StringSize(s string) int { return 1 + signedLen(int64(len(s))) + 1 + len(s) + 2 }

func (PortableSizeModel) StructSize(count int) int { return 1 + signedLen(int64(count)) + 1 + 1 }

func (PortableSizeModel) MemberSize(name string) int { return len(name) + 1 }

func (PortableSizeModel) ListSize(count int) int { return 1 + signedLen(int64(count)) + 1 + 1 }

func signedLen(v int64) int { return 1 + hexLen(magnitude(v)) }
