package util

import (
	"io"
	"os"

	"github.com/ValentinKolb/dSer/lib/backend"
	"github.com/ValentinKolb/dSer/lib/config"
	"github.com/ValentinKolb/dSer/lib/dataio"
	"github.com/ValentinKolb/dSer/lib/framing"
	"github.com/ValentinKolb/dSer/lib/serial"
	"github.com/pkg/errors"
)

// Encode serializes v with the configured backend and compresses the result
// if a codec is configured
func Encode[T any](conf *config.Config, c serial.Codec[T], v T) ([]byte, error) {
	m, err := backend.NewSizeModel(conf.Backend)
	if err != nil {
		return nil, err
	}
	codec, err := conf.Codec()
	if err != nil {
		return nil, err
	}

	// compressed output may be larger than the raw payload, so only the
	// uncompressed path gets an exactly sized sink
	var sink dataio.ReplaceableSink
	if codec.Name() == "none" {
		sink = dataio.SinkFor(c, v, m)
	} else {
		sink = dataio.NewCompressingSink(dataio.NewBufferSink(serial.SizeOf(c, v, m)), codec)
	}

	ser, err := backend.NewSerializer(conf.Backend, sink)
	if err != nil {
		return nil, err
	}
	if errs := serial.SerializeWith(c, v, ser); !errs.Empty() {
		return nil, errors.Wrapf(errs.Err(), "failed to serialize %s payload", conf.Backend)
	}
	return sink.Bytes(), nil
}

// Decode decompresses payload if a codec is configured and deserializes it
// with the configured backend
func Decode[T any](conf *config.Config, c serial.Codec[T], payload []byte) (T, error) {
	var v T
	src, err := Source(conf, payload)
	if err != nil {
		return v, err
	}
	de, err := backend.NewDeserializer(conf.Backend, src)
	if err != nil {
		return v, err
	}
	if errs := serial.DeserializeWith(c, &v, de); !errs.Empty() {
		return v, errors.Wrapf(errs.Err(), "failed to deserialize %s payload", conf.Backend)
	}
	return v, nil
}

// Source returns a data source over payload, decompressing it first if a
// codec is configured
func Source(conf *config.Config, payload []byte) (*dataio.BlockSource, error) {
	codec, err := conf.Codec()
	if err != nil {
		return nil, err
	}
	if codec.Name() == "none" {
		return dataio.NewBlockSource(payload), nil
	}
	return dataio.NewDecompressingSource(payload, codec)
}

// Join concatenates payloads into one stream. Without framing only a single
// payload can be stored.
func Join(conf *config.Config, payloads [][]byte) ([]byte, error) {
	if !conf.Framed {
		if len(payloads) != 1 {
			return nil, errors.Errorf("%d payloads need framing", len(payloads))
		}
		return payloads[0], nil
	}

	var out []byte
	for _, p := range payloads {
		var err error
		if out, err = framing.AppendWithSize(out, p); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Split is the inverse of Join
func Split(conf *config.Config, data []byte) ([][]byte, error) {
	if !conf.Framed {
		return [][]byte{data}, nil
	}

	var payloads [][]byte
	framing.ForEachWithSize(data, func(block []byte) {
		payloads = append(payloads, block)
	})
	if len(payloads) == 0 && len(data) > 0 {
		return nil, errors.New("no framed payload found")
	}
	return payloads, nil
}

// OpenInput opens the file named by the first argument or stdin
func OpenInput(args []string) (io.ReadCloser, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", args[0])
	}
	return f, nil
}

// WriteOutput writes data to the configured output file or stdout
func WriteOutput(conf *config.Config, data []byte) error {
	if conf.Output == "" || conf.Output == "-" {
		_, err := os.Stdout.Write(data)
		return errors.Wrap(err, "failed to write to stdout")
	}
	return errors.Wrapf(os.WriteFile(conf.Output, data, 0o644), "failed to write %s", conf.Output)
}
