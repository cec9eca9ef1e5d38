package dataio

import (
	"github.com/ValentinKolb/dSer/lib/compress"
	"github.com/ValentinKolb/dSer/lib/serial"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/pkg/errors"
)

var log = logger.GetLogger("dataio")

// ReplaceableSink is a sink whose whole content can be swapped after writing
type ReplaceableSink interface {
	serial.DataSink
	Bytes() []byte
	Replace(p []byte) serial.WriteErrors
}

// CompressingSink collects the serialized bytes in the wrapped sink and
// replaces them by their compressed form on Finalize.
type CompressingSink struct {
	ReplaceableSink
	codec compress.Codec
}

func NewCompressingSink(sink ReplaceableSink, codec compress.Codec) *CompressingSink {
	return &CompressingSink{ReplaceableSink: sink, codec: codec}
}

func (s *CompressingSink) Finalize() serial.WriteErrors {
	if errs := s.ReplaceableSink.Finalize(); !errs.Empty() {
		return errs
	}
	raw := s.Bytes()
	compressed, err := s.codec.Compress(raw)
	if err != nil {
		log.Errorf("compression with %s failed: %v", s.codec.Name(), err)
		return serial.WriteBackendError
	}
	log.Debugf("%s compressed %d bytes to %d", s.codec.Name(), len(raw), len(compressed))
	return s.Replace(compressed)
}

// NewDecompressingSource decompresses p and returns a source over the result
func NewDecompressingSource(p []byte, codec compress.Codec) (*BlockSource, error) {
	raw, err := codec.Decompress(p)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decompress %d bytes", len(p))
	}
	return NewBlockSource(raw), nil
}
