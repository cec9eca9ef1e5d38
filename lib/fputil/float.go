// Package fputil splits floating point values into an integral fraction and
// a binary exponent and composes them again. The decomposition is exact, so
// the portable wire format can carry floats as two integers.
//
// Finite non-zero values satisfy f == frac * 2^exp. Zero, infinities and NaN
// have a zero fraction and a small exponent that identifies them:
//
//	+0: 0  -0: 1  +Inf: 2  -Inf: 3  +NaN: 4  -NaN: 5
package fputil

import "math"

const (
	bits64 = 53
	bits32 = 24
)

const (
	specialPosZero int = iota
	specialNegZero
	specialPosInf
	specialNegInf
	specialPosNaN
	specialNegNaN
)

// Decompose64 splits f into frac * 2^exp
func Decompose64(f float64) (frac int64, exp int32) {
	if s, ok := special(f); ok {
		return 0, int32(s)
	}
	m, e := math.Frexp(f)
	return int64(math.Ldexp(m, bits64)), int32(e - bits64)
}

// Compose64 is the inverse of Decompose64
func Compose64(frac int64, exp int32) float64 {
	if frac == 0 {
		return fromSpecial(int(exp))
	}
	return math.Ldexp(float64(frac), int(exp))
}

// Decompose32 splits f into frac * 2^exp
func Decompose32(f float32) (frac int32, exp int16) {
	if s, ok := special(float64(f)); ok {
		return 0, int16(s)
	}
	m, e := math.Frexp(float64(f))
	return int32(math.Ldexp(m, bits32)), int16(e - bits32)
}

// Compose32 is the inverse of Decompose32
func Compose32(frac int32, exp int16) float32 {
	if frac == 0 {
		return float32(fromSpecial(int(exp)))
	}
	return float32(math.Ldexp(float64(frac), int(exp)))
}

func special(f float64) (int, bool) {
	neg := math.Signbit(f)
	switch {
	case f == 0 && !neg:
		return specialPosZero, true
	case f == 0:
		return specialNegZero, true
	case math.IsInf(f, 1):
		return specialPosInf, true
	case math.IsInf(f, -1):
		return specialNegInf, true
	case math.IsNaN(f) && !neg:
		return specialPosNaN, true
	case math.IsNaN(f):
		return specialNegNaN, true
	}
	return 0, false
}

// fromSpecial maps unknown exponents to +0
func fromSpecial(exp int) float64 {
	switch exp {
	case specialNegZero:
		return math.Copysign(0, -1)
	case specialPosInf:
		return math.Inf(1)
	case specialNegInf:
		return math.Inf(-1)
	case specialPosNaN:
		return math.NaN()
	case specialNegNaN:
		return math.Copysign(math.NaN(), -1)
	}
	return 0
}
