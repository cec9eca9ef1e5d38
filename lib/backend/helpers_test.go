package backend

import (
	"testing"
	"time"

	"github.com/ValentinKolb/dSer/lib/dataio"
	"github.com/ValentinKolb/dSer/lib/serial"
	"github.com/stretchr/testify/require"
)

// --------------------------------------------------------------------------
// Test types
// --------------------------------------------------------------------------

type color int8

const (
	red color = iota
	green
	blue
)

var colorCodec = serial.Enum(
	serial.Enumerator[color]{Name: "red", Value: red},
	serial.Enumerator[color]{Name: "green", Value: green},
	serial.Enumerator[color]{Name: "blue", Value: blue},
)

type point struct {
	ID   int32
	Name string
}

var pointCodec = serial.Record(
	serial.Member("id", func(p *point) *int32 { return &p.ID }, serial.Int32()),
	serial.Member("name", func(p *point) *string { return &p.Name }, serial.String()),
)

type perm uint8

type meters struct{}

// sample covers every codec kind
type sample struct {
	Flag     bool
	I8       int8
	I16      int16
	I64      int64
	U8       uint8
	U16      uint16
	U32      uint32
	U64      uint64
	F32      float32
	F64      float64
	Color    color
	Tags     []string
	Points   []point
	Origin   serial.Optional[point]
	Missing  serial.Optional[int32]
	Pair     serial.Pair[int16, string]
	Triple   serial.Triple[bool, uint8, float64]
	Fixed    []int32
	Timeout  time.Duration
	Mode     perm
	Distance serial.Tagged[float64, meters]
	Blob     []byte
}

var sampleCodec = serial.Record(
	serial.Member("flag", func(s *sample) *bool { return &s.Flag }, serial.Bool()),
	serial.Member("i8", func(s *sample) *int8 { return &s.I8 }, serial.Int8()),
	serial.Member("i16", func(s *sample) *int16 { return &s.I16 }, serial.Int16()),
	serial.Member("i64", func(s *sample) *int64 { return &s.I64 }, serial.Int64()),
	serial.Member("u8", func(s *sample) *uint8 { return &s.U8 }, serial.Uint8()),
	serial.Member("u16", func(s *sample) *uint16 { return &s.U16 }, serial.Uint16()),
	serial.Member("u32", func(s *sample) *uint32 { return &s.U32 }, serial.Uint32()),
	serial.Member("u64", func(s *sample) *uint64 { return &s.U64 }, serial.Uint64()),
	serial.Member("f32", func(s *sample) *float32 { return &s.F32 }, serial.Float32()),
	serial.Member("f64", func(s *sample) *float64 { return &s.F64 }, serial.Float64()),
	serial.Member("color", func(s *sample) *color { return &s.Color }, colorCodec),
	serial.Member("tags", func(s *sample) *[]string { return &s.Tags }, serial.Slice(serial.String())),
	serial.Member("points", func(s *sample) *[]point { return &s.Points }, serial.Slice(pointCodec)),
	serial.Member("origin", func(s *sample) *serial.Optional[point] { return &s.Origin }, serial.OptionalOf(pointCodec)),
	serial.Member("missing", func(s *sample) *serial.Optional[int32] { return &s.Missing }, serial.OptionalOf(serial.Int32())),
	serial.Member("pair", func(s *sample) *serial.Pair[int16, string] { return &s.Pair },
		serial.Tuple2(serial.Int16(), serial.String())),
	serial.Member("triple", func(s *sample) *serial.Triple[bool, uint8, float64] { return &s.Triple },
		serial.Tuple3(serial.Bool(), serial.Uint8(), serial.Float64())),
	serial.Member("fixed", func(s *sample) *[]int32 { return &s.Fixed }, serial.Array(3, serial.Int32())),
	serial.Member("timeout", func(s *sample) *time.Duration { return &s.Timeout }, serial.Duration()),
	serial.Member("mode", func(s *sample) *perm { return &s.Mode }, serial.Bitfield[perm]()),
	serial.Member("distance", func(s *sample) *serial.Tagged[float64, meters] { return &s.Distance },
		serial.TaggedOf[float64, meters](serial.Float64())),
	serial.Member("blob", func(s *sample) *[]byte { return &s.Blob }, serial.Slice(serial.Uint8())),
)

func newSample() sample {
	return sample{
		Flag:     true,
		I8:       -128,
		I16:      12345,
		I64:      -9223372036854775808,
		U8:       255,
		U16:      65535,
		U32:      42,
		U64:      18446744073709551615,
		F32:      3.14159,
		F64:      -2.718281828459045,
		Color:    blue,
		Tags:     []string{"", "a", "with space", "with \"quotes\" and | pipes;"},
		Points:   []point{{ID: 1, Name: "one"}, {ID: -2, Name: "two"}},
		Origin:   serial.Some(point{ID: 0, Name: "origin"}),
		Missing:  serial.None[int32](),
		Pair:     serial.Pair[int16, string]{First: -7, Second: "seven"},
		Triple:   serial.Triple[bool, uint8, float64]{First: false, Second: 0xfa, Third: 1e-300},
		Fixed:    []int32{1, 2, 3},
		Timeout:  1500 * time.Millisecond,
		Mode:     0b1010_0101,
		Distance: serial.Tagged[float64, meters]{Value: 1234.5},
		Blob:     []byte{0, 1, 0x7f, 0x80, 0xff},
	}
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

// encode serializes v with the backend id into an unlimited buffer
func encode[T any](t *testing.T, id string, c serial.Codec[T], v T) []byte {
	t.Helper()
	sink := dataio.NewBufferSink(0)
	ser, err := NewSerializer(id, sink)
	require.NoError(t, err)
	errs := serial.SerializeWith(c, v, ser)
	require.True(t, errs.Empty(), "serialize failed: %s", errs)
	return sink.Bytes()
}

// decode deserializes data with the backend id
func decode[T any](t *testing.T, id string, c serial.Codec[T], data []byte) (T, serial.ReadErrors) {
	t.Helper()
	var v T
	de, err := NewDeserializer(id, dataio.NewBlockSource(data))
	require.NoError(t, err)
	errs := serial.DeserializeWith(c, &v, de)
	return v, errs
}

func model(t *testing.T, id string) serial.SizeModel {
	t.Helper()
	m, err := NewSizeModel(id)
	require.NoError(t, err)
	return m
}
