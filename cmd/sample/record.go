package sample

import (
	"fmt"
	"time"

	"github.com/ValentinKolb/dSer/lib/serial"
)

// Severity of a reading
type Severity int8

const (
	SeverityOK Severity = iota
	SeverityWarning
	SeverityCritical
)

// Capability bits of a sensor
type Capability uint16

const (
	CapTemperature Capability = 1 << iota
	CapHumidity
	CapPressure
	CapBattery
)

// Position is a geographic coordinate
type Position struct {
	Lat float64
	Lon float64
}

// Reading is the record written by the sample command. It covers every
// codec kind so the payloads show how each one is laid out.
type Reading struct {
	Seq      uint32
	Sensor   string
	Severity Severity
	Caps     Capability
	Values   []float32
	Position serial.Optional[Position]
	Interval time.Duration
	Range    serial.Pair[int16, int16]
	Tags     []string
	Online   bool
}

var severityCodec = serial.Enum(
	serial.Enumerator[Severity]{Name: "ok", Value: SeverityOK},
	serial.Enumerator[Severity]{Name: "warning", Value: SeverityWarning},
	serial.Enumerator[Severity]{Name: "critical", Value: SeverityCritical},
)

var positionCodec = serial.Record(
	serial.Member("lat", func(p *Position) *float64 { return &p.Lat }, serial.Float64()),
	serial.Member("lon", func(p *Position) *float64 { return &p.Lon }, serial.Float64()),
)

// Codec serializes a Reading
var Codec = serial.Record(
	serial.Member("seq", func(r *Reading) *uint32 { return &r.Seq }, serial.Uint32()),
	serial.Member("sensor", func(r *Reading) *string { return &r.Sensor }, serial.String()),
	serial.Member("severity", func(r *Reading) *Severity { return &r.Severity }, severityCodec),
	serial.Member("caps", func(r *Reading) *Capability { return &r.Caps }, serial.Bitfield[Capability]()),
	serial.Member("values", func(r *Reading) *[]float32 { return &r.Values }, serial.Slice(serial.Float32())),
	serial.Member("position", func(r *Reading) *serial.Optional[Position] { return &r.Position }, serial.OptionalOf(positionCodec)),
	serial.Member("interval", func(r *Reading) *time.Duration { return &r.Interval }, serial.Duration()),
	serial.Member("range", func(r *Reading) *serial.Pair[int16, int16] { return &r.Range },
		serial.Tuple2(serial.Int16(), serial.Int16())),
	serial.Member("tags", func(r *Reading) *[]string { return &r.Tags }, serial.Slice(serial.String())),
	serial.Member("online", func(r *Reading) *bool { return &r.Online }, serial.Bool()),
)

// NewReading returns the i-th sample reading. The values are derived from i
// only, so repeated runs produce identical payloads.
func NewReading(i int) Reading {
	r := Reading{
		Seq:      uint32(i),
		Sensor:   fmt.Sprintf("sensor-%03d", i%17),
		Severity: Severity(i % 3),
		Caps:     CapTemperature | Capability(i%8)<<1,
		Interval: time.Duration(i%60+1) * time.Second,
		Range:    serial.Pair[int16, int16]{First: int16(-40 - i%10), Second: int16(85 + i%10)},
		Online:   i%5 != 0,
	}
	for j := 0; j < i%6+1; j++ {
		r.Values = append(r.Values, float32(i)*0.25+float32(j)*1.5)
	}
	if i%4 != 3 {
		r.Position = serial.Some(Position{Lat: 48.1 + float64(i%90)/100, Lon: 11.5 - float64(i%180)/100})
	}
	if i%2 == 0 {
		r.Tags = []string{"indoor", fmt.Sprintf("floor %d", i%5)}
	}
	return r
}
