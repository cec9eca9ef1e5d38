package serial

import (
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// --------------------------------------------------------------------------
// Write error flags
// --------------------------------------------------------------------------

// WriteErrors is a set of serialization error flags. The zero value means
// success; flags from nested calls are combined with |=.
type WriteErrors uint16

const (
	// TooMuchData means the value did not fit into the remaining sink capacity
	TooMuchData WriteErrors = 1 << iota
	// IncompleteWrite means a sequence was truncated to the prefix that did fit
	IncompleteWrite
	// WriteBackendError means the backend or the sink finalization failed
	WriteBackendError
)

var (
	ErrTooMuchData       = errors.New("too much data")
	ErrIncompleteWrite   = errors.New("incomplete write")
	ErrWriteBackendError = errors.New("serializer backend error")
)

var (
	writeErrorNames     = []string{"too_much_data", "incomplete_write", "backend_error"}
	writeErrorSentinels = []error{ErrTooMuchData, ErrIncompleteWrite, ErrWriteBackendError}
)

// Empty reports whether no flag is set
func (e WriteErrors) Empty() bool { return e == 0 }

// Has reports whether every flag of code is set
func (e WriteErrors) Has(code WriteErrors) bool { return code != 0 && e&code == code }

// HasAtMost reports whether e contains no flag outside of code. It is used to
// detect "this recoverable condition and nothing worse".
func (e WriteErrors) HasAtMost(code WriteErrors) bool { return e&^code == 0 }

// Clear returns e without the flags of code
func (e WriteErrors) Clear(code WriteErrors) WriteErrors { return e &^ code }

func (e WriteErrors) String() string { return flagString(e, writeErrorNames) }

// Err converts the flag-set into an error, nil if the set is empty.
// Every set flag contributes its sentinel, so errors.Is(err, ErrTooMuchData)
// works on the result.
func (e WriteErrors) Err() error { return flagError(e, writeErrorSentinels) }

// --------------------------------------------------------------------------
// Read error flags
// --------------------------------------------------------------------------

// ReadErrors is a set of deserialization error flags. The zero value means
// success.
type ReadErrors uint16

const (
	// NotEnoughData means fewer bytes were available than required
	NotEnoughData ReadErrors = 1 << iota
	// IncompleteRead means fewer elements were decodable than announced
	IncompleteRead
	// InvalidFormat means a delimiter or token did not match the grammar
	InvalidFormat
	// UnexpectedData means a literal or a symbolic name was not recognized
	UnexpectedData
	// MissingElement means a fixed-size sequence announced too few elements
	MissingElement
	// ExcessElement means a fixed-size sequence announced too many elements
	ExcessElement
	// MissingMember means a record announced fewer members than mapped
	MissingMember
	// ExcessMember means a record announced more members than mapped
	ExcessMember
	// ReadBackendError means the backend or the source failed
	ReadBackendError
)

var (
	ErrNotEnoughData    = errors.New("not enough data")
	ErrIncompleteRead   = errors.New("incomplete read")
	ErrInvalidFormat    = errors.New("invalid format")
	ErrUnexpectedData   = errors.New("unexpected data")
	ErrMissingElement   = errors.New("missing element")
	ErrExcessElement    = errors.New("excess element")
	ErrMissingMember    = errors.New("missing member")
	ErrExcessMember     = errors.New("excess member")
	ErrReadBackendError = errors.New("deserializer backend error")
)

var (
	readErrorNames = []string{
		"not_enough_data", "incomplete_read", "invalid_format", "unexpected_data",
		"missing_element", "excess_element", "missing_member", "excess_member",
		"backend_error",
	}
	readErrorSentinels = []error{
		ErrNotEnoughData, ErrIncompleteRead, ErrInvalidFormat, ErrUnexpectedData,
		ErrMissingElement, ErrExcessElement, ErrMissingMember, ErrExcessMember,
		ErrReadBackendError,
	}
)

// Empty reports whether no flag is set
func (e ReadErrors) Empty() bool { return e == 0 }

// Has reports whether every flag of code is set
func (e ReadErrors) Has(code ReadErrors) bool { return code != 0 && e&code == code }

// HasAtMost reports whether e contains no flag outside of code
func (e ReadErrors) HasAtMost(code ReadErrors) bool { return e&^code == 0 }

// Clear returns e without the flags of code
func (e ReadErrors) Clear(code ReadErrors) ReadErrors { return e &^ code }

func (e ReadErrors) String() string { return flagString(e, readErrorNames) }

// Err converts the flag-set into an error, nil if the set is empty
func (e ReadErrors) Err() error { return flagError(e, readErrorSentinels) }

// --------------------------------------------------------------------------
// Fail-fast helpers
// --------------------------------------------------------------------------

// Must panics if err is not nil. Combined with Err it is the only place where
// data errors turn into panics:
//
//	serial.Must(serial.Serialize(v, backend).Err())
func Must(err error) {
	if err != nil {
		panic(err)
	}
}

// Extract returns v or panics if err is not nil
func Extract[T any](v T, err error) T {
	Must(err)
	return v
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func flagString[F ~uint16](flags F, names []string) string {
	if flags == 0 {
		return "none"
	}
	parts := make([]string, 0, len(names))
	for i, name := range names {
		if flags&(1<<i) != 0 {
			parts = append(parts, name)
		}
	}
	return strings.Join(parts, "|")
}

func flagError[F ~uint16](flags F, sentinels []error) error {
	var result *multierror.Error
	for i, sentinel := range sentinels {
		if flags&(1<<i) != 0 {
			result = multierror.Append(result, sentinel)
		}
	}
	if result == nil {
		return nil
	}
	result.ErrorFormat = func(errs []error) string {
		msgs := make([]string, len(errs))
		for i, err := range errs {
			msgs[i] = err.Error()
		}
		return "serialization failed: " + strings.Join(msgs, ", ")
	}
	return result
}
