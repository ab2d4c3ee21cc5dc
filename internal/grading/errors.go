package grading

import (
	"errors"
	"fmt"
)

// ErrNoGradableItems is returned when markup parsed cleanly but no input
// carried an expected answer. It points at a content defect, not at the
// student.
var ErrNoGradableItems = errors.New("grading: no gradable items in markup")

// MarkupParseError reports markup that could not be read as a document.
// Scoring never proceeds against such markup.
type MarkupParseError struct {
	Offset int // byte offset where reading stopped, -1 if unknown
	Reason string
	Err    error
}

func (e *MarkupParseError) Error() string {
	msg := "grading: malformed markup"
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Offset >= 0 {
		msg += fmt.Sprintf(" (at byte %d)", e.Offset)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MarkupParseError) Unwrap() error { return e.Err }

// IsMarkupParseError reports whether err is or wraps a *MarkupParseError.
func IsMarkupParseError(err error) bool {
	var mpe *MarkupParseError
	return errors.As(err, &mpe)
}
