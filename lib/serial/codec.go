package serial

import (
	"fmt"
	"reflect"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// Kind is the closed set of codec variants the dispatch layer knows about
type Kind uint8

const (
	KindPrimitive Kind = iota
	KindEnum
	KindOptional
	KindSequence
	KindTuple
	KindRecord
)

func (k Kind) String() string {
	switch k {
	case KindPrimitive:
		return "primitive"
	case KindEnum:
		return "enum"
	case KindOptional:
		return "optional"
	case KindSequence:
		return "sequence"
	case KindTuple:
		return "tuple"
	case KindRecord:
		return "record"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Codec serializes values of type T through a backend. Codecs are resolved
// once per type, either by constructing them explicitly or through the
// registration table (see Register).
type Codec[T any] interface {
	Kind() Kind
	Serialize(v T, b SerializerBackend) WriteErrors
	Deserialize(v *T, b DeserializerBackend) ReadErrors
	// Bound returns an upper bound of the encoded size that holds for every
	// value of T. ok is false if the size depends on the value.
	Bound(m SizeModel) (size int, ok bool)
	// Size returns the exact encoded size of v
	Size(v T, m SizeModel) int
}

// --------------------------------------------------------------------------
// Registration table
// --------------------------------------------------------------------------

var registry = xsync.NewMapOf[reflect.Type, any]()

// Register makes c the codec used for T by Serialize, Deserialize and Lookup.
// Registering a type twice replaces the previous codec.
func Register[T any](c Codec[T]) {
	registry.Store(reflect.TypeOf((*T)(nil)).Elem(), c)
}

// Lookup returns the codec registered for T
func Lookup[T any]() (Codec[T], bool) {
	v, ok := registry.Load(reflect.TypeOf((*T)(nil)).Elem())
	if !ok {
		return nil, false
	}
	c, ok := v.(Codec[T])
	return c, ok
}

// MustLookup returns the codec registered for T and panics if there is none.
// A missing registration is a programming error.
func MustLookup[T any]() Codec[T] {
	c, ok := Lookup[T]()
	if !ok {
		panic(fmt.Sprintf("serial: no codec registered for %s", reflect.TypeOf((*T)(nil)).Elem()))
	}
	return c
}

func init() {
	Register(Bool())
	Register(Int8())
	Register(Int16())
	Register(Int32())
	Register(Int64())
	Register(Uint8())
	Register(Uint16())
	Register(Uint32())
	Register(Uint64())
	Register(Float32())
	Register(Float64())
	Register(String())
	Register(Duration())
	Register(Slice(Uint8()))
	Register(Slice(String()))
}

// --------------------------------------------------------------------------
// Entry points
// --------------------------------------------------------------------------

// Serialize writes v with the codec registered for T
func Serialize[T any](v T, b SerializerBackend) WriteErrors {
	return SerializeWith(MustLookup[T](), v, b)
}

// SerializeWith frames v with Begin/Finish, writes it with c and finalizes
// the sink. Finish and Finalize are still attempted after a truncated
// sequence so that the committed prefix stays decodable.
func SerializeWith[T any](c Codec[T], v T, b SerializerBackend) WriteErrors {
	errs := b.Begin()
	if errs.Empty() {
		errs |= c.Serialize(v, b)
	}
	if errs.HasAtMost(IncompleteWrite) {
		errs |= b.Finish()
	}
	if errs.HasAtMost(IncompleteWrite) {
		errs |= b.Sink().Finalize()
	}
	return errs
}

// Deserialize reads into v with the codec registered for T
func Deserialize[T any](v *T, b DeserializerBackend) ReadErrors {
	return DeserializeWith(MustLookup[T](), v, b)
}

// DeserializeWith is the reading counterpart of SerializeWith
func DeserializeWith[T any](c Codec[T], v *T, b DeserializerBackend) ReadErrors {
	errs := b.Begin()
	if errs.Empty() {
		errs |= c.Deserialize(v, b)
	}
	if errs.Empty() {
		errs |= b.Finish()
	}
	return errs
}

// DeserializeValue reads a T and converts the flag-set into an error
func DeserializeValue[T any](b DeserializerBackend) (T, error) {
	var v T
	errs := Deserialize(&v, b)
	return v, errs.Err()
}

// --------------------------------------------------------------------------
// Primitives
// --------------------------------------------------------------------------

// primitive forwards a single value to the bulk span methods of a backend
type primitive[T any] struct {
	write func(SerializerBackend, []T) (int, WriteErrors)
	read  func(DeserializerBackend, []T) (int, ReadErrors)
	bound func(SizeModel) int
	size  func(SizeModel, T) int
}

func (p primitive[T]) Kind() Kind { return KindPrimitive }

func (p primitive[T]) Serialize(v T, b SerializerBackend) WriteErrors {
	_, errs := p.write(b, []T{v})
	return errs
}

func (p primitive[T]) Deserialize(v *T, b DeserializerBackend) ReadErrors {
	tmp := []T{*v}
	_, errs := p.read(b, tmp)
	if errs.Empty() {
		*v = tmp[0]
	}
	return errs
}

func (p primitive[T]) Bound(m SizeModel) (int, bool) {
	if p.bound == nil {
		return 0, false
	}
	return p.bound(m), true
}

func (p primitive[T]) Size(v T, m SizeModel) int { return p.size(m, v) }

func Bool() Codec[bool] {
	return primitive[bool]{
		write: SerializerBackend.WriteBools,
		read:  DeserializerBackend.ReadBools,
		bound: SizeModel.BoolBound,
		size:  SizeModel.BoolSize,
	}
}

func Int8() Codec[int8] {
	return primitive[int8]{
		write: SerializerBackend.WriteInt8s,
		read:  DeserializerBackend.ReadInt8s,
		bound: func(m SizeModel) int { return m.IntBound(8) },
		size:  func(m SizeModel, v int8) int { return m.IntSize(int64(v), 8) },
	}
}

func Int16() Codec[int16] {
	return primitive[int16]{
		write: SerializerBackend.WriteInt16s,
		read:  DeserializerBackend.ReadInt16s,
		bound: func(m SizeModel) int { return m.IntBound(16) },
		size:  func(m SizeModel, v int16) int { return m.IntSize(int64(v), 16) },
	}
}

func Int32() Codec[int32] {
	return primitive[int32]{
		write: SerializerBackend.WriteInt32s,
		read:  DeserializerBackend.ReadInt32s,
		bound: func(m SizeModel) int { return m.IntBound(32) },
		size:  func(m SizeModel, v int32) int { return m.IntSize(int64(v), 32) },
	}
}

func Int64() Codec[int64] {
	return primitive[int64]{
		write: SerializerBackend.WriteInt64s,
		read:  DeserializerBackend.ReadInt64s,
		bound: func(m SizeModel) int { return m.IntBound(64) },
		size:  func(m SizeModel, v int64) int { return m.IntSize(v, 64) },
	}
}

func Uint8() Codec[uint8] {
	return primitive[uint8]{
		write: SerializerBackend.WriteUint8s,
		read:  DeserializerBackend.ReadUint8s,
		bound: func(m SizeModel) int { return m.UintBound(8) },
		size:  func(m SizeModel, v uint8) int { return m.UintSize(uint64(v), 8) },
	}
}

func Uint16() Codec[uint16] {
	return primitive[uint16]{
		write: SerializerBackend.WriteUint16s,
		read:  DeserializerBackend.ReadUint16s,
		bound: func(m SizeModel) int { return m.UintBound(16) },
		size:  func(m SizeModel, v uint16) int { return m.UintSize(uint64(v), 16) },
	}
}

func Uint32() Codec[uint32] {
	return primitive[uint32]{
		write: SerializerBackend.WriteUint32s,
		read:  DeserializerBackend.ReadUint32s,
		bound: func(m SizeModel) int { return m.UintBound(32) },
		size:  func(m SizeModel, v uint32) int { return m.UintSize(uint64(v), 32) },
	}
}

func Uint64() Codec[uint64] {
	return primitive[uint64]{
		write: SerializerBackend.WriteUint64s,
		read:  DeserializerBackend.ReadUint64s,
		bound: func(m SizeModel) int { return m.UintBound(64) },
		size:  func(m SizeModel, v uint64) int { return m.UintSize(v, 64) },
	}
}

func Float32() Codec[float32] {
	return primitive[float32]{
		write: SerializerBackend.WriteFloat32s,
		read:  DeserializerBackend.ReadFloat32s,
		bound: func(m SizeModel) int { return m.FloatBound(32) },
		size:  func(m SizeModel, v float32) int { return m.FloatSize(float64(v), 32) },
	}
}

func Float64() Codec[float64] {
	return primitive[float64]{
		write: SerializerBackend.WriteFloat64s,
		read:  DeserializerBackend.ReadFloat64s,
		bound: func(m SizeModel) int { return m.FloatBound(64) },
		size:  func(m SizeModel, v float64) int { return m.FloatSize(v, 64) },
	}
}

// String has no value independent size bound
func String() Codec[string] {
	return primitive[string]{
		write: SerializerBackend.WriteStrings,
		read:  DeserializerBackend.ReadStrings,
		size:  SizeModel.StringSize,
	}
}

// --------------------------------------------------------------------------
// Derived codecs
// --------------------------------------------------------------------------

// transform encodes T as its representation in U
type transform[T, U any] struct {
	base Codec[U]
	to   func(T) U
	from func(U) T
}

// Transform derives a codec for T from a codec for its wire representation U
func Transform[T, U any](base Codec[U], to func(T) U, from func(U) T) Codec[T] {
	return transform[T, U]{base: base, to: to, from: from}
}

func (t transform[T, U]) Kind() Kind { return t.base.Kind() }

func (t transform[T, U]) Serialize(v T, b SerializerBackend) WriteErrors {
	return t.base.Serialize(t.to(v), b)
}

func (t transform[T, U]) Deserialize(v *T, b DeserializerBackend) ReadErrors {
	u := t.to(*v)
	errs := t.base.Deserialize(&u, b)
	if errs.Empty() {
		*v = t.from(u)
	}
	return errs
}

func (t transform[T, U]) Bound(m SizeModel) (int, bool) { return t.base.Bound(m) }

func (t transform[T, U]) Size(v T, m SizeModel) int { return t.base.Size(t.to(v), m) }

// Duration encodes a time.Duration as its count of nanoseconds
func Duration() Codec[time.Duration] {
	return Transform(Int64(),
		func(d time.Duration) int64 { return int64(d) },
		func(n int64) time.Duration { return time.Duration(n) })
}

// Flags is the set of types usable as bit-flag sets
type Flags interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Bitfield encodes a bit-flag set as its underlying bits
func Bitfield[B Flags]() Codec[B] {
	return Transform(Uint64(),
		func(b B) uint64 { return uint64(b) },
		func(u uint64) B { return B(u) })
}

// Tagged is a quantity of V whose unit or meaning is named by the phantom
// type Tag, e.g. Tagged[float64, Meters]. Only the value travels on the wire.
type Tagged[V any, Tag any] struct {
	Value V
}

// TaggedOf encodes a tagged quantity as its bare value
func TaggedOf[V any, Tag any](base Codec[V]) Codec[Tagged[V, Tag]] {
	return Transform(base,
		func(q Tagged[V, Tag]) V { return q.Value },
		func(v V) Tagged[V, Tag] { return Tagged[V, Tag]{Value: v} })
}
