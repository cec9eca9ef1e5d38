package compress

import (
	"bytes"
	"io"
	"sort"
	"strings"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/pierrec/lz4/v4"
	"github.com/pkg/errors"
	"github.com/puzpuzpuz/xsync/v3"
)

var log = logger.GetLogger("compress")

// Codec is the compression contract consumed by the compressing sink
type Codec interface {
	// Name returns the registry name of the codec
	Name() string
	Compress(src []byte) ([]byte, error)
	Decompress(src []byte) ([]byte, error)
}

// --------------------------------------------------------------------------
// Registry
// --------------------------------------------------------------------------

var registry = xsync.NewMapOf[string, Codec]()

// Register adds c to the registry, replacing a codec of the same name
func Register(c Codec) {
	registry.Store(strings.ToLower(c.Name()), c)
}

// Get returns the codec registered under name (case-insensitive)
func Get(name string) (Codec, error) {
	c, ok := registry.Load(strings.ToLower(name))
	if !ok {
		return nil, errors.Errorf("unknown compression %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	return c, nil
}

// Names returns the sorted names of all registered codecs
func Names() []string {
	names := make([]string, 0, registry.Size())
	registry.Range(func(name string, _ Codec) bool {
		names = append(names, name)
		return true
	})
	sort.Strings(names)
	return names
}

func init() {
	Register(None{})
	Register(Snappy{})
	Register(LZ4{})
	z, err := NewZstd()
	if err != nil {
		log.Errorf("zstd codec unavailable: %v", err)
		return
	}
	Register(z)
}

// --------------------------------------------------------------------------
// None
// --------------------------------------------------------------------------

// None passes data through unchanged
type None struct{}

func (None) Name() string { return "none" }

func (None) Compress(src []byte) ([]byte, error) { return append([]byte(nil), src...), nil }

func (None) Decompress(src []byte) ([]byte, error) { return append([]byte(nil), src...), nil }

// --------------------------------------------------------------------------
// Zstd
// --------------------------------------------------------------------------

// Zstd uses a shared encoder and decoder. EncodeAll and DecodeAll are safe
// for concurrent use.
type Zstd struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

func NewZstd() (*Zstd, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return nil, errors.Wrap(err, "zstd encoder")
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	if err != nil {
		return nil, errors.Wrap(err, "zstd decoder")
	}
	return &Zstd{enc: enc, dec: dec}, nil
}

func (z *Zstd) Name() string { return "zstd" }

func (z *Zstd) Compress(src []byte) ([]byte, error) {
	return z.enc.EncodeAll(src, nil), nil
}

func (z *Zstd) Decompress(src []byte) ([]byte, error) {
	out, err := z.dec.DecodeAll(src, nil)
	return out, errors.Wrap(err, "zstd decompress")
}

// --------------------------------------------------------------------------
// Snappy
// --------------------------------------------------------------------------

// Snappy uses the snappy block format
type Snappy struct{}

func (Snappy) Name() string { return "snappy" }

func (Snappy) Compress(src []byte) ([]byte, error) { return snappy.Encode(nil, src), nil }

func (Snappy) Decompress(src []byte) ([]byte, error) {
	out, err := snappy.Decode(nil, src)
	return out, errors.Wrap(err, "snappy decompress")
}

// --------------------------------------------------------------------------
// LZ4
// --------------------------------------------------------------------------

// LZ4 uses the lz4 frame format
type LZ4 struct{}

func (LZ4) Name() string { return "lz4" }

func (LZ4) Compress(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := w.Write(src); err != nil {
		return nil, errors.Wrap(err, "lz4 compress")
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrap(err, "lz4 compress")
	}
	return buf.Bytes(), nil
}

func (LZ4) Decompress(src []byte) ([]byte, error) {
	out, err := io.ReadAll(lz4.NewReader(bytes.NewReader(src)))
	return out, errors.Wrap(err, "lz4 decompress")
}
