// Package failures classifies errors surfaced by the use cases.
// Every failure carries a Kind and a human-readable detail.
package failures

import (
	"errors"
	"fmt"
)

// Kind names a class of failure.
type Kind string

const (
	InvalidInput      Kind = "InvalidInput"
	UnsupportedFormat Kind = "UnsupportedFormat"
	EmbeddingFailure  Kind = "EmbeddingFailure"
	SearchFailure     Kind = "SearchFailure"
	CompletionFailure Kind = "CompletionFailure"
	StorageFailure    Kind = "StorageFailure"
	NotFound          Kind = "NotFound"
)

// Error is a classified failure.
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a failure without an underlying cause.
func New(kind Kind, detail string) error {
	return &Error{Kind: kind, Detail: detail}
}

// Newf creates a failure with a formatted detail.
func Newf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// Wrap classifies err. A nil err yields nil.
func Wrap(kind Kind, err error, detail string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Detail: detail, Err: err}
}

// KindOf returns the kind of the first classified failure in err's chain,
// or the empty Kind if there is none.
func KindOf(err error) Kind {
	var f *Error
	if errors.As(err, &f) {
		return f.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// DetailOf returns the detail of the first classified failure, or err.Error().
func DetailOf(err error) string {
	var f *Error
	if errors.As(err, &f) {
		if f.Err != nil {
			return fmt.Sprintf("%s: %v", f.Detail, f.Err)
		}
		return f.Detail
	}
	return err.Error()
}
