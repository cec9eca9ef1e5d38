package backend

import (
	"strings"

	"github.com/ValentinKolb/dSer/lib/serial"
	"github.com/pkg/errors"
)

var aliases = map[string]string{
	"fast":      FastID,
	"fastlocal": FastID,
	"portable":  PortableID,
	"string":    StringID,
	"text":      StringID,
}

// IDs returns the identifiers of all backends
func IDs() []string {
	return []string{FastID, PortableID, StringID}
}

// ParseID resolves a backend identifier or one of its lowercase aliases
func ParseID(name string) (string, error) {
	if id, ok := aliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return id, nil
	}
	return "", errors.Errorf("invalid backend %q (available: %s)", name, strings.Join(IDs(), ", "))
}

// NewSerializer creates the serializer of the backend id writing into sink
func NewSerializer(id string, sink serial.DataSink) (serial.SerializerBackend, error) {
	id, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	switch id {
	case FastID:
		return NewFastSerializer(sink), nil
	case PortableID:
		return NewPortableSerializer(sink), nil
	default:
		return NewStringSerializer(sink), nil
	}
}

// NewDeserializer creates the deserializer of the backend id reading from src
func NewDeserializer(id string, src serial.DataSource) (serial.DeserializerBackend, error) {
	id, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	switch id {
	case FastID:
		return NewFastDeserializer(src), nil
	case PortableID:
		return NewPortableDeserializer(src), nil
	default:
		return NewStringDeserializer(src), nil
	}
}

// NewSizeModel returns the size model of the backend id
func NewSizeModel(id string) (serial.SizeModel, error) {
	id, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	switch id {
	case FastID:
		return FastSizeModel{}, nil
	case PortableID:
		return PortableSizeModel{}, nil
	default:
		return StringSizeModel{}, nil
	}
}
