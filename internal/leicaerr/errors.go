// Package leicaerr defines the error taxonomy for the Leica vendor format:
// a file is either not a Leica slide at all, is a Leica slide whose contents
// violate an invariant, or failed for an I/O reason further down the stack.
package leicaerr

import "fmt"

// Kind classifies why an operation failed.
type Kind int

const (
	// FormatNotSupported means the file is not a Leica slide: the TIFF
	// isn't tiled, or ImageDescription doesn't carry the Leica namespace.
	FormatNotSupported Kind = iota
	// BadData means the file is a Leica slide but violates an invariant
	// the synthesizer or parser requires.
	BadData
	// Io means an underlying TIFF/XML/filesystem collaborator failed.
	Io
)

func (k Kind) String() string {
	switch k {
	case FormatNotSupported:
		return "format not supported"
	case BadData:
		return "bad data"
	case Io:
		return "I/O error"
	default:
		return "unknown error"
	}
}

// Error is the error type every exported operation in internal/leica and
// internal/manifest returns. Op is a short human-readable description of
// what was being attempted, used as the message prefix spec.md §7 requires.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Op
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error with the same Kind, so callers can
// write errors.Is(err, leicaerr.IsBadData) via the Kind sentinel wrappers below.
func (e *Error) Is(target error) bool {
	if k, ok := target.(kindSentinel); ok {
		return e.Kind == Kind(k)
	}
	return false
}

type kindSentinel Kind

// Sentinel values usable with errors.Is, e.g. errors.Is(err, leicaerr.IsBadData).
var (
	IsFormatNotSupported error = kindSentinel(FormatNotSupported)
	IsBadData            error = kindSentinel(BadData)
	IsIo                 error = kindSentinel(Io)
)

func (k kindSentinel) Error() string { return Kind(k).String() }

// New constructs an *Error with no wrapped cause.
func New(kind Kind, op string) error {
	return &Error{Kind: kind, Op: op}
}

// Newf constructs an *Error with a formatted message and no wrapped cause.
func Newf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Op: fmt.Sprintf(format, args...)}
}

// Wrap constructs an *Error wrapping err under op.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}
