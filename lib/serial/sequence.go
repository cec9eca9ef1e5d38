package serial

import (
	"fmt"

	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("serial")

// preallocLimit caps the capacity reserved from an announced element count,
// the count comes from untrusted input.
const preallocLimit = 1024

// --------------------------------------------------------------------------
// Sequences (slices and fixed arrays)
// --------------------------------------------------------------------------

type sequence[T any] struct {
	elem  Codec[T]
	fixed int // -1 for growable sequences
}

// Slice encodes a growable sequence as a list of framed elements. If the sink
// runs out of space the list is truncated to the longest prefix that still
// fits together with the closers of all enclosing frames, and IncompleteWrite
// is returned.
func Slice[T any](elem Codec[T]) Codec[[]T] {
	return sequence[T]{elem: elem, fixed: -1}
}

// Array encodes a sequence of exactly n elements. Its size is constant when
// the element size is.
func Array[T any](n int, elem Codec[T]) Codec[[]T] {
	if n < 0 {
		panic(fmt.Sprintf("serial: negative array length %d", n))
	}
	return sequence[T]{elem: elem, fixed: n}
}

func (s sequence[T]) Kind() Kind { return KindSequence }

func (s sequence[T]) Serialize(v []T, b SerializerBackend) WriteErrors {
	if s.fixed >= 0 && len(v) != s.fixed {
		panic(fmt.Sprintf("serial: array of length %d expected, got %d", s.fixed, len(v)))
	}
	sink := b.Sink()
	list := sink.BeginWork()
	// the enclosing frames must still be closable after this list
	closable := func() bool { return sink.RemainingSize() >= b.CloseSize() }

	n, errs := s.writeList(v, b)
	if errs.Empty() && closable() {
		sink.Commit(list)
		return errs
	}
	if !errs.HasAtMost(TooMuchData | IncompleteWrite) {
		sink.Rollback(list)
		return errs
	}
	// the last element was truncated itself but the list is complete
	if n == len(v) && errs == IncompleteWrite && closable() {
		sink.Commit(list)
		return errs
	}

	// re-frame the committed prefix, shorter prefixes first need less space
	// for the count and leave room for the closing delimiters
	for k := min(n, len(v)-1); k >= 0; k-- {
		sink.Rollback(list)
		if done, e := s.writeList(v[:k], b); done == k && e.HasAtMost(IncompleteWrite) && closable() {
			sink.Commit(list)
			log.Debugf("sequence truncated to %d of %d elements", k, len(v))
			return IncompleteWrite
		}
	}
	sink.Rollback(list)
	return TooMuchData
}

// writeList writes v as a framed list and returns the number of committed
// elements. It stops after the first element that failed (rolled back) or
// was truncated (kept).
func (s sequence[T]) writeList(v []T, b SerializerBackend) (int, WriteErrors) {
	sink := b.Sink()
	errs := b.BeginList(len(v))
	if !errs.Empty() {
		return 0, errs
	}
	for i := range v {
		tx := sink.BeginWork()
		e := b.BeginElement(i)
		if e.Empty() {
			e |= s.elem.Serialize(v[i], b)
		}
		if e.HasAtMost(IncompleteWrite) {
			e |= b.FinishElement(i)
		}
		if !e.HasAtMost(IncompleteWrite) {
			sink.Rollback(tx)
			return i, e
		}
		sink.Commit(tx)
		if !e.Empty() {
			return i + 1, e | b.FinishList()
		}
	}
	return len(v), b.FinishList()
}

func (s sequence[T]) Deserialize(v *[]T, b DeserializerBackend) ReadErrors {
	count, errs := b.BeginList()
	if !errs.Empty() {
		return errs
	}
	switch {
	case count < 0:
		return InvalidFormat
	case s.fixed >= 0 && count < s.fixed:
		return MissingElement
	case s.fixed >= 0 && count > s.fixed:
		errs |= ExcessElement
		count = s.fixed
	}

	var out []T
	if count > 0 {
		out = make([]T, 0, min(count, preallocLimit))
	}
	for i := 0; i < count; i++ {
		var elem T
		e := b.BeginElement(i)
		if e.Empty() {
			e |= s.elem.Deserialize(&elem, b)
		}
		if e.Empty() {
			e |= b.FinishElement(i)
		}
		if !e.Empty() {
			if e.HasAtMost(NotEnoughData | IncompleteRead) {
				errs |= IncompleteRead
			}
			errs |= e
			break
		}
		out = append(out, elem)
	}
	*v = out

	if errs.HasAtMost(ExcessElement) {
		errs |= b.FinishList()
	}
	return errs
}

func (s sequence[T]) Bound(m SizeModel) (int, bool) {
	if s.fixed < 0 {
		return 0, false
	}
	eb, ok := s.elem.Bound(m)
	if !ok {
		return 0, false
	}
	return m.ListSize(s.fixed) + s.fixed*eb, true
}

func (s sequence[T]) Size(v []T, m SizeModel) int {
	n := m.ListSize(len(v))
	for _, e := range v {
		n += s.elem.Size(e, m)
	}
	return n
}

// --------------------------------------------------------------------------
// Optional values
// --------------------------------------------------------------------------

// Optional holds a value that may be absent
type Optional[T any] struct {
	Value T
	Has   bool
}

// Some returns a present optional value
func Some[T any](v T) Optional[T] { return Optional[T]{Value: v, Has: true} }

// None returns an absent optional value
func None[T any]() Optional[T] { return Optional[T]{} }

// Get returns the value and whether it is present
func (o Optional[T]) Get() (T, bool) { return o.Value, o.Has }

type optional[T any] struct {
	elem Codec[T]
}

// OptionalOf encodes an optional value as a list of zero or one element
func OptionalOf[T any](elem Codec[T]) Codec[Optional[T]] {
	return optional[T]{elem: elem}
}

func (o optional[T]) Kind() Kind { return KindOptional }

func (o optional[T]) Serialize(v Optional[T], b SerializerBackend) WriteErrors {
	count := 0
	if v.Has {
		count = 1
	}
	errs := b.BeginList(count)
	if errs.Empty() && v.Has {
		errs |= b.BeginElement(0)
		if errs.Empty() {
			errs |= o.elem.Serialize(v.Value, b)
		}
		if errs.Empty() {
			errs |= b.FinishElement(0)
		}
	}
	if errs.Empty() {
		errs |= b.FinishList()
	}
	return errs
}

func (o optional[T]) Deserialize(v *Optional[T], b DeserializerBackend) ReadErrors {
	count, errs := b.BeginList()
	if count < 0 {
		errs |= MissingElement
	} else if count > 1 {
		errs |= ExcessElement
	}
	if !errs.Empty() {
		return errs
	}
	var tmp T
	if count == 1 {
		errs |= b.BeginElement(0)
		if errs.Empty() {
			errs |= o.elem.Deserialize(&tmp, b)
		}
		if errs.Empty() {
			errs |= b.FinishElement(0)
		}
	}
	if errs.Empty() {
		errs |= b.FinishList()
	}
	if errs.Empty() {
		*v = Optional[T]{Value: tmp, Has: count == 1}
	}
	return errs
}

func (o optional[T]) Bound(m SizeModel) (int, bool) {
	eb, ok := o.elem.Bound(m)
	if !ok {
		return 0, false
	}
	return max(m.ListSize(0), m.ListSize(1)+eb), true
}

func (o optional[T]) Size(v Optional[T], m SizeModel) int {
	if !v.Has {
		return m.ListSize(0)
	}
	return m.ListSize(1) + o.elem.Size(v.Value, m)
}
