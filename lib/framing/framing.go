// Package framing stores byte blocks prefixed with their size so that several
// serialized payloads can be concatenated in one stream and split again.
//
// The size is encoded like a UTF-8 code point extended to six bytes, which
// covers sizes up to 2^31-1:
//
//	0xxxxxxx                                              < 2^7
//	110xxxxx 10xxxxxx                                     < 2^11
//	1110xxxx 10xxxxxx 10xxxxxx                            < 2^16
//	11110xxx 10xxxxxx 10xxxxxx 10xxxxxx                   < 2^21
//	111110xx 10xxxxxx 10xxxxxx 10xxxxxx 10xxxxxx          < 2^26
//	1111110x 10xxxxxx 10xxxxxx 10xxxxxx 10xxxxxx 10xxxxxx < 2^31
//
// A block of size zero ends a sequence of blocks.
package framing

import (
	"github.com/pkg/errors"
)

// MaxSize is the largest block size that can be encoded
const MaxSize = 1<<31 - 1

// ErrTooLarge is returned for blocks larger than MaxSize
var ErrTooLarge = errors.New("block too large for size prefix")

// SizeLen returns the number of bytes of the size prefix of a block of n
// bytes, 0 if n cannot be encoded
func SizeLen(n int) int {
	switch {
	case n < 0 || n > MaxSize:
		return 0
	case n < 1<<7:
		return 1
	case n < 1<<11:
		return 2
	case n < 1<<16:
		return 3
	case n < 1<<21:
		return 4
	case n < 1<<26:
		return 5
	default:
		return 6
	}
}

// StoreWithSize writes the size of src followed by src into dst and returns
// the written part of dst, nil if dst is too small
func StoreWithSize(src, dst []byte) []byte {
	k := SizeLen(len(src))
	if k == 0 || k+len(src) > len(dst) {
		return nil
	}
	putSize(dst, len(src), k)
	copy(dst[k:], src)
	return dst[:k+len(src)]
}

// AppendWithSize appends the size of src and src to dst
func AppendWithSize(dst, src []byte) ([]byte, error) {
	k := SizeLen(len(src))
	if k == 0 {
		return dst, errors.Wrapf(ErrTooLarge, "size %d", len(src))
	}
	start := len(dst)
	dst = append(dst, make([]byte, k)...)
	putSize(dst[start:], len(src), k)
	return append(dst, src...), nil
}

// GetWithSize returns the block at the start of src, nil if the size prefix
// is invalid or src is shorter than announced
func GetWithSize(src []byte) []byte {
	n, k, ok := decodeSize(src)
	if !ok || k+n > len(src) {
		return nil
	}
	return src[k : k+n]
}

// SkipWithSize returns the number of bytes taken by the block at the start
// of src including its size prefix, 0 if the prefix is invalid
func SkipWithSize(src []byte) int {
	n, k, ok := decodeSize(src)
	if !ok {
		return 0
	}
	return k + n
}

// ForEachWithSize calls fn for every block of src in order. It stops at the
// end of src, at an empty block or at an invalid or truncated block and
// returns the number of blocks visited.
func ForEachWithSize(src []byte, fn func(block []byte)) int {
	count := 0
	for len(src) > 0 {
		n, k, ok := decodeSize(src)
		if !ok || n == 0 || k+n > len(src) {
			break
		}
		fn(src[k : k+n])
		src = src[k+n:]
		count++
	}
	return count
}

// ---- Helper ----

var headMarks = [...]byte{0, 0, 0xC0, 0xE0, 0xF0, 0xF8, 0xFC}

func putSize(dst []byte, n, k int) {
	if k == 1 {
		dst[0] = byte(n)
		return
	}
	for i := k - 1; i > 0; i-- {
		dst[i] = 0x80 | byte(n&0x3F)
		n >>= 6
	}
	dst[0] = headMarks[k] | byte(n)
}

// decodeSize returns the size, the length of the prefix and whether the
// prefix is well formed
func decodeSize(src []byte) (n, k int, ok bool) {
	if len(src) == 0 {
		return 0, 0, false
	}
	head := src[0]
	switch {
	case head < 0x80:
		return int(head), 1, true
	case head < 0xC0:
		return 0, 0, false
	case head < 0xE0:
		k, n = 2, int(head&0x1F)
	case head < 0xF0:
		k, n = 3, int(head&0x0F)
	case head < 0xF8:
		k, n = 4, int(head&0x07)
	case head < 0xFC:
		k, n = 5, int(head&0x03)
	case head < 0xFE:
		k, n = 6, int(head&0x01)
	default:
		return 0, 0, false
	}
	if len(src) < k {
		return 0, 0, false
	}
	for _, c := range src[1:k] {
		if c&0xC0 != 0x80 {
			return 0, 0, false
		}
		n = n<<6 | int(c&0x3F)
	}
	return n, k, true
}
