// Package serial provides the backend independent core of the dSer
// serialization engine. It converts typed values into the token stream of a
// SerializerBackend and back, tracks record and list framing and reports
// failures as bitwise combinable flag-sets instead of errors.
//
// Key Components:
//
//   - WriteErrors / ReadErrors: bit flag-sets combined with |=. HasAtMost is
//     used to detect recoverable conditions, e.g. a sequence writer turns a
//     TooMuchData-only failure into IncompleteWrite. Err converts a set into
//     an aggregated error for fail-fast callers.
//
//   - DataSink / DataSource: the byte stores backends write into and read
//     from. Sinks support nested transactions (BeginWork, Commit, Rollback)
//     so that a failing element never leaves partial bytes behind.
//
//   - SerializerBackend / DeserializerBackend / SizeModel: the contract of a
//     wire format. Implementations live in lib/backend.
//
//   - Codec: the type directed dispatch. Codecs are a closed set of variants
//     (primitive, enum, optional, sequence, tuple, record) built by explicit
//     constructors. Records and enumerations consume hand written member and
//     enumerator mappings; the package never inspects a type's internals.
//
//   - Size estimation: every codec reports a value independent bound for
//     constant-size types and an exact value dependent size otherwise.
//     BufferFor uses both to pre-size buffers so that writing never grows
//     or overflows them.
//
// Error Handling:
//
//	No function panics on bad data. Each nested call returns a flag-set that
//	the caller ORs into its own; a non-empty result means the output is only
//	valid up to the last committed element. Programming errors, like popping
//	more bytes than observed or serializing an unregistered type, panic.
//
// Thread Safety:
//
//	Codecs are immutable and may be shared. Backends, sinks and sources
//	belong to a single serialization call and must not be shared. The
//	registration table is safe for concurrent use.
//
// Usage:
//
//	type Point struct {
//		ID   int32
//		Name string
//	}
//
//	var pointCodec = serial.Record(
//		serial.Member("id", func(p *Point) *int32 { return &p.ID }, serial.Int32()),
//		serial.Member("name", func(p *Point) *string { return &p.Name }, serial.String()),
//	)
//
//	sink := dataio.NewBufferSink(0)
//	errs := serial.SerializeWith(pointCodec, Point{42, "abc"}, backend.NewPortableSerializer(sink))
//	if err := errs.Err(); err != nil {
//		// ...
//	}
package serial
