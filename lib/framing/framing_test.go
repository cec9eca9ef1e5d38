package framing

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSizeLen(t *testing.T) {
	tests := []struct {
		n, want int
	}{
		{0, 1}, {127, 1}, {128, 2}, {2047, 2}, {2048, 3}, {65535, 3}, {65536, 4},
		{1<<21 - 1, 4}, {1 << 21, 5}, {1<<26 - 1, 5}, {1 << 26, 6}, {MaxSize, 6},
		{MaxSize + 1, 0}, {-1, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SizeLen(tt.n), "size %d", tt.n)
	}
}

func TestPrefixEncoding(t *testing.T) {
	tests := []struct {
		n    int
		want []byte
	}{
		{5, []byte{0x05}},
		{128, []byte{0xC2, 0x80}},
		{1000, []byte{0xCF, 0xA8}},
		{65535, []byte{0xEF, 0xBF, 0xBF}},
		{MaxSize, []byte{0xFD, 0xBF, 0xBF, 0xBF, 0xBF, 0xBF}},
	}
	for _, tt := range tests {
		dst := make([]byte, 6)
		putSize(dst, tt.n, SizeLen(tt.n))
		assert.Equal(t, tt.want, dst[:len(tt.want)], "size %d", tt.n)

		n, k, ok := decodeSize(dst)
		require.True(t, ok)
		assert.Equal(t, tt.n, n)
		assert.Equal(t, len(tt.want), k)
	}
}

func TestRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	dst := make([]byte, 4096)
	for i := 0; i < 1000; i++ {
		orig := make([]byte, rng.Intn(3000))
		rng.Read(orig)

		stored := StoreWithSize(orig, dst)
		require.NotNil(t, stored)
		assert.Equal(t, len(stored), SkipWithSize(stored))

		back := GetWithSize(stored)
		assert.Equal(t, len(orig), len(back))
		assert.True(t, bytes.Equal(orig, back))
	}
}

func TestStoreTooSmall(t *testing.T) {
	assert.Nil(t, StoreWithSize(make([]byte, 10), make([]byte, 10)))
	assert.NotNil(t, StoreWithSize(make([]byte, 10), make([]byte, 11)))
}

func TestForEach(t *testing.T) {
	blocks := [][]byte{[]byte("a"), bytes.Repeat([]byte("b"), 200), []byte("<{+2|id:+2A;}>\x00")}

	var stream []byte
	for _, b := range blocks {
		var err error
		stream, err = AppendWithSize(stream, b)
		require.NoError(t, err)
	}

	var got [][]byte
	count := ForEachWithSize(stream, func(b []byte) { got = append(got, b) })
	assert.Equal(t, 3, count)
	assert.Equal(t, blocks, got)

	// an empty block terminates the sequence
	stream, _ = AppendWithSize(stream, nil)
	stream, _ = AppendWithSize(stream, []byte("ignored"))
	assert.Equal(t, 3, ForEachWithSize(stream, func([]byte) {}))
}

func TestInvalidPrefix(t *testing.T) {
	assert.Nil(t, GetWithSize(nil))
	assert.Nil(t, GetWithSize([]byte{0x80, 1, 2}))
	assert.Nil(t, GetWithSize([]byte{0xC2, 0x00}))
	assert.Nil(t, GetWithSize([]byte{0xFF}))
	// announced size exceeds the data
	assert.Nil(t, GetWithSize([]byte{0x05, 'a', 'b'}))
	assert.Equal(t, 0, SkipWithSize([]byte{0xE0, 0x80}))
	assert.Equal(t, 0, ForEachWithSize([]byte{0x80}, func([]byte) { t.Fatal("unexpected block") }))
}
