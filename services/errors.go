package services

import (
	"errors"
	"fmt"
)

// Kind classifies a core failure.
type Kind int

const (
	// KindUnknown is reported for errors that are not an *Error.
	KindUnknown Kind = iota
	// KindValidation: a parameter is out of range or a required mapping is missing.
	// Raised before any side effect.
	KindValidation
	// KindParse: a single record, row or item failed to convert to its typed form.
	KindParse
	// KindArithmetic: a derivation had no exact result (zero denominator).
	KindArithmetic
	// KindResource: the underlying file, document or store could not be read or written.
	KindResource
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindParse:
		return "parse"
	case KindArithmetic:
		return "arithmetic"
	case KindResource:
		return "resource"
	default:
		return "unknown"
	}
}

// Error is a typed core error. Op names the failing operation, Field the
// offending field or file when known.
type Error struct {
	Kind    Kind
	Op      string
	Field   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s", e.Field, msg)
	}
	if e.Op != "" {
		msg = fmt.Sprintf("%s: %s", e.Op, msg)
	}
	if e.Err != nil && e.Kind == KindResource {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// WithOp sets the operation name.
func (e *Error) WithOp(op string) *Error {
	e.Op = op
	return e
}

// WithField sets the offending field or file.
func (e *Error) WithField(field string) *Error {
	e.Field = field
	return e
}

func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func Validationf(format string, args ...any) *Error {
	return Validation(fmt.Sprintf(format, args...))
}

func Parse(message string, err error) *Error {
	return &Error{Kind: KindParse, Message: message, Err: err}
}

func Arithmetic(message string) *Error {
	return &Error{Kind: KindArithmetic, Message: message}
}

// Resource wraps an I/O failure; the cause is kept for errors.Is/As.
func Resource(message string, err error) *Error {
	return &Error{Kind: KindResource, Message: message, Err: err}
}

// GetKind returns the Kind of the first *Error in err's chain.
func GetKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return GetKind(err) == kind
}
