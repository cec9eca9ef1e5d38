package serial

// Integer is the set of types usable as enumerations
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Enumerator is one entry of an enumerator mapping
type Enumerator[E Integer] struct {
	Name  string
	Value E
}

type enum[E Integer] struct {
	mapping []Enumerator[E]
}

// Enum encodes E by the symbolic name of its enumerator when the backend
// prefers strings, otherwise by its value as int64. Values must be listed in
// the mapping; names and values are looked up, their order has no meaning.
// A value without enumerator is written with an empty name.
func Enum[E Integer](mapping ...Enumerator[E]) Codec[E] {
	return enum[E]{mapping: mapping}
}

func (e enum[E]) Kind() Kind { return KindEnum }

func (e enum[E]) name(v E) string {
	for _, en := range e.mapping {
		if en.Value == v {
			return en.Name
		}
	}
	return ""
}

func (e enum[E]) Serialize(v E, b SerializerBackend) WriteErrors {
	if b.EnumAsString() {
		_, errs := b.WriteStrings([]string{e.name(v)})
		return errs
	}
	_, errs := b.WriteInt64s([]int64{int64(v)})
	return errs
}

func (e enum[E]) Deserialize(v *E, b DeserializerBackend) ReadErrors {
	if b.EnumAsString() {
		name := []string{""}
		if _, errs := b.ReadStrings(name); !errs.Empty() {
			return errs
		}
		for _, en := range e.mapping {
			if en.Name == name[0] {
				*v = en.Value
				return 0
			}
		}
		return UnexpectedData
	}
	value := []int64{0}
	if _, errs := b.ReadInt64s(value); !errs.Empty() {
		return errs
	}
	for _, en := range e.mapping {
		if int64(en.Value) == value[0] {
			*v = en.Value
			return 0
		}
	}
	return UnexpectedData
}

func (e enum[E]) Bound(m SizeModel) (int, bool) {
	if !m.EnumAsString() {
		return m.IntBound(64), true
	}
	n := m.StringSize("")
	for _, en := range e.mapping {
		n = max(n, m.StringSize(en.Name))
	}
	return n, true
}

func (e enum[E]) Size(v E, m SizeModel) int {
	if m.EnumAsString() {
		return m.StringSize(e.name(v))
	}
	return m.IntSize(int64(v), 64)
}
