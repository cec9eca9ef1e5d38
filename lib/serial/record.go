package serial

import "fmt"

// --------------------------------------------------------------------------
// Member mapping
// --------------------------------------------------------------------------

// Field is one entry of a member mapping: a name and an accessor to a field
// of T. Fields are created with Member.
type Field[T any] interface {
	Name() string
	serialize(v *T, b SerializerBackend) WriteErrors
	deserialize(v *T, b DeserializerBackend) ReadErrors
	bound(m SizeModel) (int, bool)
	size(v *T, m SizeModel) int
}

type member[T, F any] struct {
	name  string
	get   func(*T) *F
	codec Codec[F]
}

// Member maps the field returned by get to name, encoded with c
func Member[T, F any](name string, get func(*T) *F, c Codec[F]) Field[T] {
	return member[T, F]{name: name, get: get, codec: c}
}

func (m member[T, F]) Name() string { return m.name }

func (m member[T, F]) serialize(v *T, b SerializerBackend) WriteErrors {
	return m.codec.Serialize(*m.get(v), b)
}

func (m member[T, F]) deserialize(v *T, b DeserializerBackend) ReadErrors {
	return m.codec.Deserialize(m.get(v), b)
}

func (m member[T, F]) bound(sm SizeModel) (int, bool) { return m.codec.Bound(sm) }

func (m member[T, F]) size(v *T, sm SizeModel) int { return m.codec.Size(*m.get(v), sm) }

// --------------------------------------------------------------------------
// Records
// --------------------------------------------------------------------------

type record[T any] struct {
	fields []Field[T]
}

// Record encodes T as a struct whose members follow the order of fields.
// Member names must be unique.
//
//	serial.Record(
//		serial.Member("id", func(p *Point) *int32 { return &p.ID }, serial.Int32()),
//		serial.Member("name", func(p *Point) *string { return &p.Name }, serial.String()),
//	)
func Record[T any](fields ...Field[T]) Codec[T] {
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if _, dup := seen[f.Name()]; dup {
			panic(fmt.Sprintf("serial: duplicate member %q", f.Name()))
		}
		seen[f.Name()] = struct{}{}
	}
	return record[T]{fields: fields}
}

func (r record[T]) Kind() Kind { return KindRecord }

func (r record[T]) Serialize(v T, b SerializerBackend) WriteErrors {
	errs := b.BeginStruct(len(r.fields))
	for _, f := range r.fields {
		if !errs.Empty() {
			return errs
		}
		errs |= b.BeginMember(f.Name())
		if errs.Empty() {
			errs |= f.serialize(&v, b)
		}
		if errs.Empty() {
			errs |= b.FinishMember(f.Name())
		}
	}
	if errs.Empty() {
		errs |= b.FinishStruct()
	}
	return errs
}

func (r record[T]) Deserialize(v *T, b DeserializerBackend) ReadErrors {
	count, errs := b.BeginStruct()
	if !errs.Empty() {
		return errs
	}
	if count < len(r.fields) {
		return MissingMember
	} else if count > len(r.fields) {
		errs |= ExcessMember
	}
	for _, f := range r.fields {
		e := b.BeginMember(f.Name())
		if e.Empty() {
			e |= f.deserialize(v, b)
		}
		if e.Empty() {
			e |= b.FinishMember(f.Name())
		}
		if !e.Empty() {
			return errs | e
		}
	}
	return errs | b.FinishStruct()
}

func (r record[T]) Bound(m SizeModel) (int, bool) {
	n := m.StructSize(len(r.fields))
	for _, f := range r.fields {
		fb, ok := f.bound(m)
		if !ok {
			return 0, false
		}
		n += m.MemberSize(f.Name()) + fb
	}
	return n, true
}

func (r record[T]) Size(v T, m SizeModel) int {
	n := m.StructSize(len(r.fields))
	for _, f := range r.fields {
		n += m.MemberSize(f.Name()) + f.size(&v, m)
	}
	return n
}

// --------------------------------------------------------------------------
// Tuples
// --------------------------------------------------------------------------

// Pair is a two element tuple
type Pair[A, B any] struct {
	First  A
	Second B
}

// Triple is a three element tuple
type Triple[A, B, C any] struct {
	First  A
	Second B
	Third  C
}

type tuple[T any] struct {
	elems []Field[T]
}

// Tuple2 encodes a Pair as a list of two elements
func Tuple2[A, B any](a Codec[A], b Codec[B]) Codec[Pair[A, B]] {
	return tuple[Pair[A, B]]{elems: []Field[Pair[A, B]]{
		Member("0", func(p *Pair[A, B]) *A { return &p.First }, a),
		Member("1", func(p *Pair[A, B]) *B { return &p.Second }, b),
	}}
}

// Tuple3 encodes a Triple as a list of three elements
func Tuple3[A, B, C any](a Codec[A], b Codec[B], c Codec[C]) Codec[Triple[A, B, C]] {
	return tuple[Triple[A, B, C]]{elems: []Field[Triple[A, B, C]]{
		Member("0", func(t *Triple[A, B, C]) *A { return &t.First }, a),
		Member("1", func(t *Triple[A, B, C]) *B { return &t.Second }, b),
		Member("2", func(t *Triple[A, B, C]) *C { return &t.Third }, c),
	}}
}

func (t tuple[T]) Kind() Kind { return KindTuple }

func (t tuple[T]) Serialize(v T, b SerializerBackend) WriteErrors {
	errs := b.BeginList(len(t.elems))
	for i, e := range t.elems {
		if !errs.Empty() {
			return errs
		}
		errs |= b.BeginElement(i)
		if errs.Empty() {
			errs |= e.serialize(&v, b)
		}
		if errs.Empty() {
			errs |= b.FinishElement(i)
		}
	}
	if errs.Empty() {
		errs |= b.FinishList()
	}
	return errs
}

func (t tuple[T]) Deserialize(v *T, b DeserializerBackend) ReadErrors {
	count, errs := b.BeginList()
	if !errs.Empty() {
		return errs
	}
	if count < len(t.elems) {
		return MissingElement
	} else if count > len(t.elems) {
		errs |= ExcessElement
	}
	for i, e := range t.elems {
		ee := b.BeginElement(i)
		if ee.Empty() {
			ee |= e.deserialize(v, b)
		}
		if ee.Empty() {
			ee |= b.FinishElement(i)
		}
		if !ee.Empty() {
			return errs | ee
		}
	}
	return errs | b.FinishList()
}

func (t tuple[T]) Bound(m SizeModel) (int, bool) {
	n := m.ListSize(len(t.elems))
	for _, e := range t.elems {
		eb, ok := e.bound(m)
		if !ok {
			return 0, false
		}
		n += eb
	}
	return n, true
}

func (t tuple[T]) Size(v T, m SizeModel) int {
	n := m.ListSize(len(t.elems))
	for _, e := range t.elems {
		n += e.size(&v, m)
	}
	return n
}
