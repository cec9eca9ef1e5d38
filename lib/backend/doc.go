// Package backend contains the wire formats of dSer. Each format consists of
// a serializer, a deserializer and a size model and is identified by a
// stable type id:
//
//   - FastLocal: fixed width primitives in host byte order, strings and
//     counts with an 8 byte length. Compact and fast, but only readable on a
//     machine with the same byte order.
//   - Portable: a byte order independent text format with hex numbers and
//     exact float decomposition (see PortableID for the grammar).
//   - String: a human readable variant of the portable format with decimal
//     numbers.
//
// Writing is atomic per scalar: each token is built in scratch memory and
// handed to the sink with a single Write. Span writes stop at the first value
// that does not fit, so a sink never holds half a number.
//
// Readers locate number tokens by scanning for their delimiter within a
// bounded look-ahead window and consume nothing if a token is malformed or
// incomplete.
//
// Use the factory functions to select a format by id:
//
//	ser, err := backend.NewSerializer("portable", sink)
//	if err != nil {
//		return err
//	}
//	errs := serial.SerializeWith(codec, value, ser)
//
// Portable and String payloads are self-describing and can be printed
// without knowing their type with Inspect.
package backend
