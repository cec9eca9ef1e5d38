package backend

import (
	"bytes"
	"encoding/binary"
	"math"
	"strings"
	"testing"

	"github.com/ValentinKolb/dSer/lib/dataio"
	"github.com/ValentinKolb/dSer/lib/serial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseID(t *testing.T) {
	tests := map[string]string{
		"fast":      FastID,
		"FastLocal": FastID,
		"portable":  PortableID,
		"Portable":  PortableID,
		"string":    StringID,
		" String ":  StringID,
	}
	for in, want := range tests {
		id, err := ParseID(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, id)
	}

	_, err := ParseID("json")
	assert.Error(t, err)
	_, err = NewSerializer("json", dataio.NewBufferSink(0))
	assert.Error(t, err)
}

func TestIdentity(t *testing.T) {
	for _, id := range IDs() {
		t.Run(id, func(t *testing.T) {
			ser, err := NewSerializer(id, dataio.NewBufferSink(0))
			require.NoError(t, err)
			de, err := NewDeserializer(id, dataio.NewBlockSource(nil))
			require.NoError(t, err)
			m := model(t, id)

			assert.Equal(t, id, ser.TypeID())
			assert.Equal(t, id, de.TypeID())
			assert.Equal(t, id, m.TypeID())

			// only the fast backend writes enumerators by value
			assert.Equal(t, id != FastID, ser.EnumAsString())
			assert.Equal(t, ser.EnumAsString(), de.EnumAsString())
			assert.Equal(t, ser.EnumAsString(), m.EnumAsString())
		})
	}
}

func TestRoundTrip(t *testing.T) {
	in := newSample()
	for _, id := range IDs() {
		t.Run(id, func(t *testing.T) {
			data := encode(t, id, sampleCodec, in)
			out, errs := decode(t, id, sampleCodec, data)
			require.True(t, errs.Empty(), "deserialize failed: %s", errs)
			assert.Equal(t, in, out)
		})
	}
}

func TestRoundTripFloats(t *testing.T) {
	values := []float64{
		0, math.Copysign(0, -1), 1, -1, 0.1, math.Pi, 1e300, -1e-300,
		math.MaxFloat64, math.SmallestNonzeroFloat64, math.Inf(1), math.Inf(-1),
	}
	values32 := []float32{0, 1.5, -0.1, math.MaxFloat32, math.SmallestNonzeroFloat32, float32(math.Inf(-1))}

	for _, id := range IDs() {
		t.Run(id, func(t *testing.T) {
			out, errs := decode(t, id, serial.Slice(serial.Float64()), encode(t, id, serial.Slice(serial.Float64()), values))
			require.True(t, errs.Empty(), errs.String())
			require.Len(t, out, len(values))
			for i := range values {
				assert.Equal(t, math.Float64bits(values[i]), math.Float64bits(out[i]), "value %v", values[i])
			}

			out32, errs := decode(t, id, serial.Slice(serial.Float32()), encode(t, id, serial.Slice(serial.Float32()), values32))
			require.True(t, errs.Empty(), errs.String())
			assert.Equal(t, values32, out32)

			nan, errs := decode(t, id, serial.Float64(), encode(t, id, serial.Float64(), math.NaN()))
			require.True(t, errs.Empty(), errs.String())
			assert.True(t, math.IsNaN(nan))
		})
	}
}

// --------------------------------------------------------------------------
// Layouts
// --------------------------------------------------------------------------

func TestPortableLayout(t *testing.T) {
	const want = "<{+2|id:+2A;name:\"+3|abc\";}>\x00"

	data := encode(t, PortableID, pointCodec, point{ID: 42, Name: "abc"})
	assert.Equal(t, want, string(data))

	out, errs := decode(t, PortableID, pointCodec, []byte(want))
	require.True(t, errs.Empty(), errs.String())
	assert.Equal(t, point{ID: 42, Name: "abc"}, out)

	// leading whitespace is skipped
	out, errs = decode(t, PortableID, pointCodec, []byte(" \n\t"+want))
	require.True(t, errs.Empty(), errs.String())
	assert.Equal(t, point{ID: 42, Name: "abc"}, out)
}

func TestPortableScalars(t *testing.T) {
	assert.Equal(t, "<-80;>\x00", string(encode(t, PortableID, serial.Int8(), -128)))
	assert.Equal(t, "<+0;>\x00", string(encode(t, PortableID, serial.Int32(), 0)))
	assert.Equal(t, "<FFFF;>\x00", string(encode(t, PortableID, serial.Uint16(), 0xffff)))
	assert.Equal(t, "<0;>\x00", string(encode(t, PortableID, serial.Uint64(), 0)))
	assert.Equal(t, "<T;>\x00", string(encode(t, PortableID, serial.Bool(), true)))
	assert.Equal(t, "<U;>\x00", string(encode(t, PortableID, serial.Bool(), false)))
	// 1 = 2^52 * 2^-52
	assert.Equal(t, "<+10000000000000`-34;>\x00", string(encode(t, PortableID, serial.Float64(), 1)))
	assert.Equal(t, "<+0`+2;>\x00", string(encode(t, PortableID, serial.Float64(), math.Inf(1))))
	assert.Equal(t, "<[+0|]>\x00", string(encode(t, PortableID, serial.Slice(serial.Int32()), []int32{})))
	assert.Equal(t, "<\"+0|\";>\x00", string(encode(t, PortableID, serial.String(), "")))
}

func TestStringLayout(t *testing.T) {
	const want = "<{2|id:42;name:\"3|abc\";};>\x00"

	data := encode(t, StringID, pointCodec, point{ID: 42, Name: "abc"})
	assert.Equal(t, want, string(data))

	out, errs := decode(t, StringID, pointCodec, []byte(want))
	require.True(t, errs.Empty(), errs.String())
	assert.Equal(t, point{ID: 42, Name: "abc"}, out)

	assert.Equal(t, "<[3|2a;00;ff;];>\x00", string(encode(t, StringID, serial.Slice(serial.Uint8()), []byte{0x2a, 0, 0xff})))
	assert.Equal(t, "<[2|true;false;];>\x00", string(encode(t, StringID, serial.Slice(serial.Bool()), []bool{true, false})))
	assert.Equal(t, "<0.1;>\x00", string(encode(t, StringID, serial.Float64(), 0.1)))
	assert.Equal(t, "<0.1;>\x00", string(encode(t, StringID, serial.Float32(), 0.1)))
	assert.Equal(t, "<-9223372036854775808;>\x00", string(encode(t, StringID, serial.Int64(), math.MinInt64)))
}

func TestFastLayout(t *testing.T) {
	var want []byte
	want = binary.NativeEndian.AppendUint64(want, 2)
	want = binary.NativeEndian.AppendUint32(want, 42)
	want = binary.NativeEndian.AppendUint64(want, 3)
	want = append(want, "abc"...)

	data := encode(t, FastID, pointCodec, point{ID: 42, Name: "abc"})
	assert.Equal(t, want, data)

	assert.Equal(t, []byte{1, 0}, encode(t, FastID, serial.Slice(serial.Bool()), []bool{true, false})[8:])
}

// --------------------------------------------------------------------------
// Malformed input
// --------------------------------------------------------------------------

func TestMissingDelimiter(t *testing.T) {
	_, errs := decode(t, PortableID, pointCodec, []byte("<{+2|id:+2A;name:\"+3|abc\";>\x00"))
	assert.True(t, errs.Has(serial.InvalidFormat), errs.String())

	_, errs = decode(t, StringID, pointCodec, []byte("<{2|id:42;name:\"3|abc\";>\x00"))
	assert.True(t, errs.Has(serial.InvalidFormat), errs.String())

	_, errs = decode(t, PortableID, pointCodec, []byte("{+2|id:+2A;name:\"+3|abc\";}>\x00"))
	assert.True(t, errs.Has(serial.InvalidFormat), errs.String())
}

func TestMalformedTokens(t *testing.T) {
	tests := []struct {
		name string
		id   string
		data string
		want serial.ReadErrors
	}{
		{"portable unsigned sign", PortableID, "<2A;>\x00", serial.InvalidFormat},
		{"portable bad digit", PortableID, "<+2G;>\x00", serial.InvalidFormat},
		{"portable empty number", PortableID, "<+;>\x00", serial.InvalidFormat},
		{"portable overflow", PortableID, "<+80000000;>\x00", serial.InvalidFormat},
		{"portable truncated", PortableID, "<+2A", serial.NotEnoughData},
		{"portable endless number", PortableID, "<+" + strings.Repeat("0", 100), serial.InvalidFormat},
		{"string not a number", StringID, "<abc;>\x00", serial.InvalidFormat},
		{"string overflow", StringID, "<2147483648;>\x00", serial.InvalidFormat},
		{"string truncated", StringID, "<4", serial.NotEnoughData},
		{"string endless number", StringID, "<" + strings.Repeat("1", 200), serial.InvalidFormat},
		{"fast truncated", FastID, "\x01\x02", serial.NotEnoughData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errs := decode(t, tt.id, serial.Int32(), []byte(tt.data))
			assert.Equal(t, tt.want, errs, errs.String())
		})
	}
}

func TestBoolLiterals(t *testing.T) {
	_, errs := decode(t, StringID, serial.Bool(), []byte("<yes;>\x00"))
	assert.Equal(t, serial.UnexpectedData, errs)

	_, errs = decode(t, PortableID, serial.Bool(), []byte("<X;>\x00"))
	assert.Equal(t, serial.InvalidFormat, errs)

	_, errs = decode(t, FastID, serial.Bool(), []byte{7})
	assert.Equal(t, serial.InvalidFormat, errs)
}

func TestStringBodyMismatch(t *testing.T) {
	// announced size does not match the closing quote
	_, errs := decode(t, PortableID, serial.String(), []byte("<\"+4|abc\";>\x00"))
	assert.Equal(t, serial.InvalidFormat, errs)

	_, errs = decode(t, StringID, serial.String(), []byte("<\"10|abc\";>\x00"))
	assert.Equal(t, serial.NotEnoughData, errs)
}

func TestTruncatedSequence(t *testing.T) {
	for _, id := range IDs() {
		t.Run(id, func(t *testing.T) {
			data := encode(t, id, serial.Slice(serial.Int64()), []int64{1, 2, 3, 4, 5})
			out, errs := decode(t, id, serial.Slice(serial.Int64()), data[:len(data)/2])
			assert.True(t, errs.Has(serial.IncompleteRead), errs.String())
			assert.NotEmpty(t, out)
			assert.Less(t, len(out), 5)
			assert.Equal(t, []int64{1, 2, 3, 4, 5}[:len(out)], out)
		})
	}
}

func TestCountMismatch(t *testing.T) {
	for _, id := range IDs() {
		t.Run(id, func(t *testing.T) {
			short := encode(t, id, serial.Slice(serial.Int32()), []int32{1, 2})
			_, errs := decode(t, id, serial.Array(3, serial.Int32()), short)
			assert.True(t, errs.Has(serial.MissingElement), errs.String())

			long := encode(t, id, serial.Slice(serial.Int32()), []int32{1, 2, 3, 4})
			out, errs := decode(t, id, serial.Array(3, serial.Int32()), long)
			assert.True(t, errs.Has(serial.ExcessElement), errs.String())
			assert.Equal(t, []int32{1, 2, 3}, out)

			type single struct{ ID int32 }
			singleCodec := serial.Record(serial.Member("id", func(s *single) *int32 { return &s.ID }, serial.Int32()))
			_, errs = decode(t, id, pointCodec, encode(t, id, singleCodec, single{ID: 1}))
			assert.True(t, errs.Has(serial.MissingMember), errs.String())

			_, errs = decode(t, id, serial.OptionalOf(serial.Int32()), long)
			assert.True(t, errs.Has(serial.ExcessElement), errs.String())
		})
	}
}

// --------------------------------------------------------------------------
// Enumerations
// --------------------------------------------------------------------------

func TestEnum(t *testing.T) {
	assert.Equal(t, "<\"5|green\";>\x00", string(encode(t, StringID, colorCodec, green)))
	assert.Equal(t, "<\"+5|green\";>\x00", string(encode(t, PortableID, colorCodec, green)))
	assert.Equal(t, binary.NativeEndian.AppendUint64(nil, 1), encode(t, FastID, colorCodec, green))

	for _, id := range IDs() {
		t.Run(id, func(t *testing.T) {
			for _, c := range []color{red, green, blue} {
				out, errs := decode(t, id, colorCodec, encode(t, id, colorCodec, c))
				require.True(t, errs.Empty(), errs.String())
				assert.Equal(t, c, out)
			}
		})
	}

	_, errs := decode(t, StringID, colorCodec, []byte("<\"4|pink\";>\x00"))
	assert.Equal(t, serial.UnexpectedData, errs)

	_, errs = decode(t, FastID, colorCodec, binary.NativeEndian.AppendUint64(nil, 7))
	assert.Equal(t, serial.UnexpectedData, errs)
}

// --------------------------------------------------------------------------
// Truncation
// --------------------------------------------------------------------------

func TestPartialSequence(t *testing.T) {
	values := []int32{10, 11, 12, 13, 14, 15, 16, 17, 18, 19}
	codec := serial.Slice(serial.Int32())

	for _, id := range IDs() {
		t.Run(id, func(t *testing.T) {
			m := model(t, id)
			capacity := serial.SizeOf(codec, values[:6], m)
			sink := dataio.NewBlockSink(make([]byte, capacity))
			ser, err := NewSerializer(id, sink)
			require.NoError(t, err)

			errs := serial.SerializeWith(codec, values, ser)
			assert.Equal(t, serial.IncompleteWrite, errs)
			assert.Len(t, sink.Bytes(), capacity)

			out, rerrs := decode(t, id, codec, sink.Bytes())
			require.True(t, rerrs.Empty(), rerrs.String())
			assert.Equal(t, values[:6], out)
		})
	}
}

func TestPartialCapacities(t *testing.T) {
	values := []int32{10, 11, 12, 13, 14, 15, 16, 17, 18, 19}
	codec := serial.Slice(serial.Int32())

	// every capacity that holds an empty list yields the longest prefix that
	// fits together with the closing frame
	for _, id := range IDs() {
		t.Run(id, func(t *testing.T) {
			m := model(t, id)
			full := serial.SizeOf(codec, values, m)
			for capacity := 0; capacity <= full; capacity++ {
				sink := dataio.NewBlockSink(make([]byte, capacity))
				ser, err := NewSerializer(id, sink)
				require.NoError(t, err)
				errs := serial.SerializeWith(codec, values, ser)

				if capacity < serial.SizeOf(codec, values[:0], m) {
					assert.True(t, errs.Has(serial.TooMuchData), "capacity %d: %s", capacity, errs)
					continue
				}
				want := 0
				for k := len(values); k > 0; k-- {
					if serial.SizeOf(codec, values[:k], m) <= capacity {
						want = k
						break
					}
				}

				require.True(t, errs.HasAtMost(serial.IncompleteWrite), "capacity %d: %s", capacity, errs)
				assert.Equal(t, want == len(values), errs.Empty(), "capacity %d", capacity)
				out, rerrs := decode(t, id, codec, sink.Bytes())
				require.True(t, rerrs.Empty(), "capacity %d: %s", capacity, rerrs)
				assert.Equal(t, values[:want], append([]int32{}, out...), "capacity %d", capacity)
			}
		})
	}
}

func TestPartialNestedSequence(t *testing.T) {
	codec := serial.Slice(serial.Slice(serial.Int32()))
	values := [][]int32{{1, 2, 3}, {4, 5, 6, 7, 8, 9, 10, 11, 12}}

	// the inner list is cut short and leaves room for the outer closers
	for _, id := range []string{PortableID, StringID} {
		t.Run(id, func(t *testing.T) {
			m := model(t, id)
			full := serial.SizeOf(codec, values, m)
			for capacity := serial.SizeOf(codec, values[:1], m); capacity < full; capacity++ {
				sink := dataio.NewBlockSink(make([]byte, capacity))
				ser, err := NewSerializer(id, sink)
				require.NoError(t, err)

				errs := serial.SerializeWith(codec, values, ser)
				require.Equal(t, serial.IncompleteWrite, errs, "capacity %d", capacity)
				assert.True(t, strings.HasSuffix(string(sink.Bytes()), ">\x00"), "capacity %d", capacity)

				out, rerrs := decode(t, id, codec, sink.Bytes())
				require.True(t, rerrs.Empty(), "capacity %d: %s", capacity, rerrs)
				require.NotEmpty(t, out)
				assert.Equal(t, values[0], out[0])
				if len(out) == 2 {
					assert.Equal(t, values[1][:len(out[1])], append([]int32{}, out[1]...))
				}
			}
		})
	}
}

func TestEmptySliceStaysNil(t *testing.T) {
	codec := serial.Slice(serial.String())
	for _, id := range IDs() {
		t.Run(id, func(t *testing.T) {
			out, errs := decode(t, id, codec, encode(t, id, codec, nil))
			require.True(t, errs.Empty(), errs.String())
			assert.Nil(t, out)
		})
	}
}

func TestSpanWrites(t *testing.T) {
	for _, id := range IDs() {
		t.Run(id, func(t *testing.T) {
			one := model(t, id).IntSize(1, 64)
			sink := dataio.NewBlockSink(make([]byte, 2*one))
			ser, err := NewSerializer(id, sink)
			require.NoError(t, err)

			n, errs := ser.WriteInt64s([]int64{1, 2, 3})
			assert.Equal(t, 2, n)
			assert.Equal(t, serial.IncompleteWrite, errs)

			n, errs = ser.WriteInt64s([]int64{4})
			assert.Equal(t, 0, n)
			assert.Equal(t, serial.TooMuchData, errs)

			de, err := NewDeserializer(id, dataio.NewBlockSource(sink.Bytes()))
			require.NoError(t, err)
			dst := make([]int64, 3)
			n, rerrs := de.ReadInt64s(dst)
			assert.Equal(t, 2, n)
			assert.Equal(t, serial.IncompleteRead, rerrs)
			assert.Equal(t, []int64{1, 2}, dst[:n])

			n, rerrs = de.ReadInt64s(dst)
			assert.Equal(t, 0, n)
			assert.Equal(t, serial.NotEnoughData, rerrs)
		})
	}
}

// --------------------------------------------------------------------------
// Size estimation
// --------------------------------------------------------------------------

func TestExactSize(t *testing.T) {
	values := []sample{newSample(), {
		Tags:   []string{strings.Repeat("x", 15), strings.Repeat("y", 16), strings.Repeat("z", 256)},
		Points: []point{},
		Fixed:  []int32{math.MinInt32, 0, math.MaxInt32},
		F64:    math.Inf(-1),
		Blob:   bytes.Repeat([]byte{0xab}, 300),
	}}

	for _, id := range IDs() {
		t.Run(id, func(t *testing.T) {
			m := model(t, id)
			for _, v := range values {
				data := encode(t, id, sampleCodec, v)
				assert.Equal(t, len(data), serial.SizeOf(sampleCodec, v, m))

				_, fixed := serial.BoundOf(sampleCodec, m)
				assert.False(t, fixed)

				// the pre-sized sink fits exactly
				sink := dataio.SinkFor(sampleCodec, v, m)
				ser, err := NewSerializer(id, sink)
				require.NoError(t, err)
				require.True(t, serial.SerializeWith(sampleCodec, v, ser).Empty())
				assert.Equal(t, data, sink.Bytes())
			}
		})
	}
}

type fixedRecord struct {
	Flag  bool
	Small int8
	Mid   int16
	Big   int64
	U     uint64
	F32   float32
	F64   float64
	Color color
	Pair  serial.Pair[int32, uint16]
	Arr   []int16
	Opt   serial.Optional[uint32]
}

var fixedCodec = serial.Record(
	serial.Member("flag", func(r *fixedRecord) *bool { return &r.Flag }, serial.Bool()),
	serial.Member("small", func(r *fixedRecord) *int8 { return &r.Small }, serial.Int8()),
	serial.Member("mid", func(r *fixedRecord) *int16 { return &r.Mid }, serial.Int16()),
	serial.Member("big", func(r *fixedRecord) *int64 { return &r.Big }, serial.Int64()),
	serial.Member("u", func(r *fixedRecord) *uint64 { return &r.U }, serial.Uint64()),
	serial.Member("f32", func(r *fixedRecord) *float32 { return &r.F32 }, serial.Float32()),
	serial.Member("f64", func(r *fixedRecord) *float64 { return &r.F64 }, serial.Float64()),
	serial.Member("color", func(r *fixedRecord) *color { return &r.Color }, colorCodec),
	serial.Member("pair", func(r *fixedRecord) *serial.Pair[int32, uint16] { return &r.Pair },
		serial.Tuple2(serial.Int32(), serial.Uint16())),
	serial.Member("arr", func(r *fixedRecord) *[]int16 { return &r.Arr }, serial.Array(2, serial.Int16())),
	serial.Member("opt", func(r *fixedRecord) *serial.Optional[uint32] { return &r.Opt }, serial.OptionalOf(serial.Uint32())),
)

func TestBound(t *testing.T) {
	values := []fixedRecord{
		{Arr: []int16{0, 0}},
		{
			Flag: false, Small: math.MinInt8, Mid: math.MinInt16, Big: math.MinInt64, U: math.MaxUint64,
			F32: -1.1754942e-38, F64: -1.2345678901234567e-300, Color: green,
			Pair: serial.Pair[int32, uint16]{First: math.MinInt32, Second: math.MaxUint16},
			Arr:  []int16{math.MinInt16, math.MinInt16}, Opt: serial.Some[uint32](math.MaxUint32),
		},
		{
			Flag: true, Small: math.MaxInt8, Mid: math.MaxInt16, Big: math.MaxInt64,
			F32: math.SmallestNonzeroFloat32, F64: math.SmallestNonzeroFloat64, Color: blue,
			Arr: []int16{1, -1}, Opt: serial.Some[uint32](0),
		},
		{F32: float32(math.NaN()), F64: math.Inf(-1), Arr: []int16{2, 3}},
	}

	for _, id := range IDs() {
		t.Run(id, func(t *testing.T) {
			m := model(t, id)
			bound, ok := serial.BoundOf(fixedCodec, m)
			require.True(t, ok)

			for _, v := range values {
				data := encode(t, id, fixedCodec, v)
				assert.LessOrEqual(t, len(data), bound)
				assert.Equal(t, len(data), serial.SizeOf(fixedCodec, v, m))

				buf, fixed := serial.BufferFor(fixedCodec, v, m)
				require.True(t, fixed)
				assert.Len(t, buf, bound)

				sink := dataio.SinkFor(fixedCodec, v, m)
				ser, err := NewSerializer(id, sink)
				require.NoError(t, err)
				require.True(t, serial.SerializeWith(fixedCodec, v, ser).Empty())
				assert.Equal(t, data, sink.Bytes())
			}
		})
	}
}

func TestScalarBounds(t *testing.T) {
	for _, id := range IDs() {
		t.Run(id, func(t *testing.T) {
			m := model(t, id)
			checks := []struct {
				size, bound int
			}{
				{m.IntSize(math.MinInt8, 8), m.IntBound(8)},
				{m.IntSize(math.MinInt16, 16), m.IntBound(16)},
				{m.IntSize(math.MinInt32, 32), m.IntBound(32)},
				{m.IntSize(math.MinInt64, 64), m.IntBound(64)},
				{m.UintSize(math.MaxUint8, 8), m.UintBound(8)},
				{m.UintSize(math.MaxUint16, 16), m.UintBound(16)},
				{m.UintSize(math.MaxUint32, 32), m.UintBound(32)},
				{m.UintSize(math.MaxUint64, 64), m.UintBound(64)},
				{m.BoolSize(false), m.BoolBound()},
				{m.FloatSize(-math.MaxFloat64, 64), m.FloatBound(64)},
				{m.FloatSize(-math.MaxFloat32, 32), m.FloatBound(32)},
			}
			for i, c := range checks {
				assert.LessOrEqual(t, c.size, c.bound, "check %d", i)
			}
		})
	}
}

// --------------------------------------------------------------------------
// Fragments
// --------------------------------------------------------------------------

func TestFragments(t *testing.T) {
	payload := make([]byte, 100)
	for i := range payload {
		payload[i] = byte(i * 7)
	}

	for _, id := range IDs() {
		t.Run(id, func(t *testing.T) {
			w := serial.NewFragmentWriter(payload)
			var fragments [][]byte
			for !w.Done() {
				sink := dataio.NewBlockSink(make([]byte, 40))
				ser, err := NewSerializer(id, sink)
				require.NoError(t, err)
				errs := w.Write(ser)
				require.True(t, errs.HasAtMost(serial.IncompleteWrite), errs.String())
				fragments = append(fragments, sink.Bytes())
				require.Less(t, len(fragments), 100)
			}
			assert.Greater(t, len(fragments), 1)

			// reassemble in reverse order
			r := serial.NewFragmentReader(make([]byte, len(payload)))
			for i := len(fragments) - 1; i >= 0; i-- {
				assert.False(t, r.Done())
				de, err := NewDeserializer(id, dataio.NewBlockSource(fragments[i]))
				require.NoError(t, err)
				errs := r.Read(de)
				if i == len(fragments)-1 {
					assert.True(t, errs.Empty(), errs.String())
				} else {
					assert.Equal(t, serial.IncompleteRead, errs)
				}
			}
			assert.True(t, r.Done())
			assert.Equal(t, payload, r.Bytes())
		})
	}
}

func TestFastFragmentLayout(t *testing.T) {
	payload := bytes.Repeat([]byte{0x5a}, 100)
	w := serial.NewFragmentWriter(payload)

	// 8 byte offset, 8 byte size and 24 data bytes per 40 byte block
	for i := 0; i < 4; i++ {
		sink := dataio.NewBlockSink(make([]byte, 40))
		assert.Equal(t, serial.IncompleteWrite, w.Write(NewFastSerializer(sink)))
		assert.Equal(t, (i+1)*24, w.Offset())
	}
	sink := dataio.NewBlockSink(make([]byte, 40))
	assert.True(t, w.Write(NewFastSerializer(sink)).Empty())
	assert.True(t, w.Done())
	assert.Len(t, sink.Bytes(), 16+4)

	// a block without room for data is rejected
	w = serial.NewFragmentWriter(payload)
	assert.Equal(t, serial.TooMuchData, w.Write(NewFastSerializer(dataio.NewBlockSink(make([]byte, 16)))))
	assert.Equal(t, 0, w.Offset())

	// so is a block that only holds the offset
	sink = dataio.NewBlockSink(make([]byte, 12))
	assert.Equal(t, serial.TooMuchData, w.Write(NewFastSerializer(sink)))
	assert.Equal(t, 0, w.Offset())
	assert.Empty(t, sink.Bytes())
}

func TestFragmentOutOfRange(t *testing.T) {
	var data []byte
	data = binary.NativeEndian.AppendUint64(data, 90)
	data = binary.NativeEndian.AppendUint64(data, 20)
	data = append(data, make([]byte, 20)...)

	r := serial.NewFragmentReader(make([]byte, 100))
	assert.Equal(t, serial.InvalidFormat, r.Read(NewFastDeserializer(dataio.NewBlockSource(data))))

	// offsets and sizes whose sum overflows
	headers := [][2]uint64{{math.MaxInt64, 2}, {2, math.MaxInt64}, {math.MaxInt64, math.MaxInt64}}
	for _, h := range headers {
		data := binary.NativeEndian.AppendUint64(nil, h[0])
		data = binary.NativeEndian.AppendUint64(data, h[1])
		data = append(data, 1, 2)
		assert.NotPanics(t, func() {
			assert.Equal(t, serial.InvalidFormat, r.Read(NewFastDeserializer(dataio.NewBlockSource(data))))
		}, "header %v", h)
	}
	assert.False(t, r.Done())
}
