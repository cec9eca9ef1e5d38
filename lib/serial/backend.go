package serial

// SerializerBackend implements one wire format on top of a DataSink. Bulk
// writes return how many values were written completely; a value is never
// written partially.
type SerializerBackend interface {
	// TypeID returns the stable identifier of the wire format
	TypeID() string
	// EnumAsString reports whether enumerators are written by name
	EnumAsString() bool
	// Sink returns the underlying data sink
	Sink() DataSink
	// CloseSize returns the number of bytes still needed to close every open
	// struct, list and the frame
	CloseSize() int

	Begin() WriteErrors
	BeginStruct(count int) WriteErrors
	BeginMember(name string) WriteErrors
	FinishMember(name string) WriteErrors
	FinishStruct() WriteErrors
	BeginList(count int) WriteErrors
	BeginElement(index int) WriteErrors
	FinishElement(index int) WriteErrors
	FinishList() WriteErrors
	Finish() WriteErrors

	WriteBools(v []bool) (int, WriteErrors)
	WriteInt8s(v []int8) (int, WriteErrors)
	WriteInt16s(v []int16) (int, WriteErrors)
	WriteInt32s(v []int32) (int, WriteErrors)
	WriteInt64s(v []int64) (int, WriteErrors)
	WriteUint8s(v []uint8) (int, WriteErrors)
	WriteUint16s(v []uint16) (int, WriteErrors)
	WriteUint32s(v []uint32) (int, WriteErrors)
	WriteUint64s(v []uint64) (int, WriteErrors)
	WriteFloat32s(v []float32) (int, WriteErrors)
	WriteFloat64s(v []float64) (int, WriteErrors)
	WriteStrings(v []string) (int, WriteErrors)
}

// DeserializerBackend is the reading counterpart of SerializerBackend.
// Framing calls check delimiters; BeginStruct and BeginList return the
// announced member or element count.
type DeserializerBackend interface {
	TypeID() string
	EnumAsString() bool
	Source() DataSource

	Begin() ReadErrors
	BeginStruct() (int, ReadErrors)
	BeginMember(name string) ReadErrors
	FinishMember(name string) ReadErrors
	FinishStruct() ReadErrors
	BeginList() (int, ReadErrors)
	BeginElement(index int) ReadErrors
	FinishElement(index int) ReadErrors
	FinishList() ReadErrors
	Finish() ReadErrors

	ReadBools(dst []bool) (int, ReadErrors)
	ReadInt8s(dst []int8) (int, ReadErrors)
	ReadInt16s(dst []int16) (int, ReadErrors)
	ReadInt32s(dst []int32) (int, ReadErrors)
	ReadInt64s(dst []int64) (int, ReadErrors)
	ReadUint8s(dst []uint8) (int, ReadErrors)
	ReadUint16s(dst []uint16) (int, ReadErrors)
	ReadUint32s(dst []uint32) (int, ReadErrors)
	ReadUint64s(dst []uint64) (int, ReadErrors)
	ReadFloat32s(dst []float32) (int, ReadErrors)
	ReadFloat64s(dst []float64) (int, ReadErrors)
	ReadStrings(dst []string) (int, ReadErrors)
}

// SizeModel describes the exact byte cost of every token of a wire format.
// Value dependent methods are exact, Bound methods return the maximum over
// all values of the given bit width.
type SizeModel interface {
	TypeID() string
	EnumAsString() bool

	// FrameSize is the cost of Begin plus Finish
	FrameSize() int
	BoolSize(v bool) int
	BoolBound() int
	IntSize(v int64, bits int) int
	IntBound(bits int) int
	UintSize(v uint64, bits int) int
	UintBound(bits int) int
	FloatSize(v float64, bits int) int
	FloatBound(bits int) int
	StringSize(s string) int
	// StructSize is the cost of BeginStruct plus FinishStruct
	StructSize(count int) int
	// MemberSize is the cost of BeginMember plus FinishMember
	MemberSize(name string) int
	// ListSize is the cost of BeginList plus FinishList
	ListSize(count int) int
}
