package backend

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ValentinKolb/dSer/lib/fputil"
	"github.com/ValentinKolb/dSer/lib/serial"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/pkg/errors"
)

var log = logger.GetLogger("backend")

// maxInspectDepth limits the nesting of inspected payloads
const maxInspectDepth = 64

// Inspect prints the value tree of a portable or string payload to w, one
// node per line, indented by nesting depth. Both formats carry enough
// structure to be read without knowing the serialized type. Fast payloads
// are not self-describing and are rejected.
//
// A portable record {id: 42, name: "abc"} prints as
//
//	struct(2)
//	  id: int 42
//	  name: string "abc"
func Inspect(id string, src serial.DataSource, w io.Writer) error {
	id, err := ParseID(id)
	if err != nil {
		return err
	}
	if id == FastID {
		return errors.Errorf("%s payloads are not self-describing", id)
	}

	in := &inspector{src: src, w: w, text: id == StringID}
	skipWhitespace(src)
	errs := requireLit(src, "<")
	if errs.Empty() {
		errs = in.value("", 0)
	}
	if errs.Empty() {
		errs = requireLit(src, ">\x00")
	}
	if in.err != nil {
		return errors.Wrap(in.err, "failed to write value tree")
	}
	if err := errs.Err(); err != nil {
		log.Debugf("inspection of %s payload stopped with %s", id, errs)
		return errors.Wrapf(err, "failed to inspect %s payload", id)
	}
	return nil
}

type inspector struct {
	src  serial.DataSource
	w    io.Writer
	text bool // string format instead of portable
	err  error
}

func (in *inspector) printf(depth int, label, format string, args ...any) {
	if in.err != nil {
		return
	}
	prefix := strings.Repeat("  ", depth)
	if label != "" {
		prefix += label + ": "
	}
	_, in.err = fmt.Fprintf(in.w, "%s"+format+"\n", append([]any{prefix}, args...)...)
}

func (in *inspector) value(label string, depth int) serial.ReadErrors {
	if depth > maxInspectDepth {
		return serial.InvalidFormat
	}
	c, errs := peekByte(in.src)
	if !errs.Empty() {
		return errs
	}
	switch {
	case c == '{':
		return in.aggregate(label, depth, '{', "struct", in.member)
	case c == '[':
		return in.aggregate(label, depth, '[', "list", func(i, depth int) serial.ReadErrors {
			return in.value(fmt.Sprintf("[%d]", i), depth)
		})
	case c == '"':
		s, errs := in.str()
		if errs.Empty() {
			in.printf(depth, label, "string %q", s)
		}
		return errs
	case in.text:
		return in.textScalar(label, depth)
	default:
		return in.portableScalar(label, depth, c)
	}
}

// aggregate prints a struct or list header and its children
func (in *inspector) aggregate(label string, depth int, open byte, kind string, child func(i, depth int) serial.ReadErrors) serial.ReadErrors {
	var (
		count int
		errs  serial.ReadErrors
	)
	if in.text {
		count, errs = (&StringDeserializer{src: in.src}).readCount(open)
	} else {
		count, errs = (&PortableDeserializer{src: in.src}).readCount(open)
	}
	if !errs.Empty() {
		return errs
	}
	if count < 0 {
		return serial.InvalidFormat
	}
	in.printf(depth, label, "%s(%d)", kind, count)
	for i := 0; i < count; i++ {
		if errs := child(i, depth+1); !errs.Empty() {
			return errs
		}
	}

	closer := "}"
	if open == '[' {
		closer = "]"
	}
	if in.text {
		closer += ";"
	}
	return requireLit(in.src, closer)
}

func (in *inspector) member(_ int, depth int) serial.ReadErrors {
	tok, n, errs := peekToken(in.src, ':', 256)
	if !errs.Empty() {
		return errs
	}
	name := string(tok)
	in.src.Pop(n)
	return in.value(name, depth)
}

func (in *inspector) str() (string, serial.ReadErrors) {
	dst := []string{""}
	var errs serial.ReadErrors
	if in.text {
		_, errs = NewStringDeserializer(in.src).ReadStrings(dst)
	} else {
		_, errs = NewPortableDeserializer(in.src).ReadStrings(dst)
	}
	return dst[0], errs
}

func (in *inspector) textScalar(label string, depth int) serial.ReadErrors {
	// bytes are written as hex digits and may start with 'f' as well
	for _, v := range []bool{true, false} {
		if ok, errs := consume(in.src, strconv.FormatBool(v)+";"); !errs.Empty() {
			return errs
		} else if ok {
			in.printf(depth, label, "bool %t", v)
			return 0
		}
	}
	tok, n, errs := peekToken(in.src, ';', textScan)
	if !errs.Empty() {
		return errs
	}
	if len(tok) == 0 {
		return serial.InvalidFormat
	}
	in.printf(depth, label, "%s", tok)
	in.src.Pop(n)
	return 0
}

func (in *inspector) portableScalar(label string, depth int, c byte) serial.ReadErrors {
	if c == 'T' || c == 'U' {
		v := []bool{false}
		if _, errs := NewPortableDeserializer(in.src).ReadBools(v); !errs.Empty() {
			return errs
		}
		in.printf(depth, label, "bool %t", v[0])
		return 0
	}
	tok, n, errs := peekToken(in.src, ';', portableScan)
	if !errs.Empty() {
		return errs
	}
	if i := strings.IndexByte(string(tok), '`'); i >= 0 {
		frac, ok1 := parseSigned(tok[:i], 64)
		exp, ok2 := parseSigned(tok[i+1:], 32)
		if !ok1 || !ok2 {
			return serial.InvalidFormat
		}
		in.printf(depth, label, "float %s", strconv.FormatFloat(fputil.Compose64(frac, int32(exp)), 'g', -1, 64))
	} else if c == '+' || c == '-' {
		v, ok := parseSigned(tok, 64)
		if !ok {
			return serial.InvalidFormat
		}
		in.printf(depth, label, "int %d", v)
	} else {
		u, ok := parseHex(tok)
		if !ok {
			return serial.InvalidFormat
		}
		in.printf(depth, label, "uint %d", u)
	}
	in.src.Pop(n)
	return 0
}
