package source

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedRecord is returned when a feed row cannot become a Record.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrEmptyInput is returned when a feed has no header or no content.
	ErrEmptyInput = errors.New("empty input")

	// ErrUnsupportedFormat is returned by ReadFile for unknown extensions.
	ErrUnsupportedFormat = errors.New("unsupported feed format")
)

// MalformedRecordError pinpoints the offending row and field.
// Line is 1-based for CSV (header is line 1) and the array index + 1 for JSON.
type MalformedRecordError struct {
	Line   int
	Field  string
	Value  string
	Reason string
}

func (e *MalformedRecordError) Error() string {
	msg := "malformed record"
	if e.Line > 0 {
		msg = fmt.Sprintf("%s at line %d", msg, e.Line)
	}
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Field)
	}
	if e.Value != "" {
		msg = fmt.Sprintf("%s %q", msg, e.Value)
	}
	if e.Reason != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Reason)
	}
	return msg
}

func (e *MalformedRecordError) Unwrap() error {
	return ErrMalformedRecord
}
