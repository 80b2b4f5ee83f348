package hic

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes parse and execution errors.
type ErrorCode string

const (
	// ErrCodeUnsupported marks SQL outside the supported subset.
	ErrCodeUnsupported ErrorCode = "UNSUPPORTED"

	// ErrCodeInvalid marks unknown or ambiguous table and column references,
	// and text that cannot be tokenized.
	ErrCodeInvalid ErrorCode = "INVALID"

	// ErrCodeInternal marks a query shape the executor refuses outright:
	// filtering, grouping, ordering or paging a plain projection.
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// ParseError reports a rejected statement.
type ParseError struct {
	Code    ErrorCode
	Message string
	SQL     string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newError(code ErrorCode, sql, format string, args ...any) *ParseError {
	return &ParseError{Code: code, Message: fmt.Sprintf(format, args...), SQL: sql}
}

// CodeOf returns the code of the first *ParseError in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

// IsUnsupported returns true if err rejects a construct outside the subset.
func IsUnsupported(err error) bool {
	return CodeOf(err) == ErrCodeUnsupported
}

// IsInvalid returns true if err reports a bad table or column reference.
func IsInvalid(err error) bool {
	return CodeOf(err) == ErrCodeInvalid
}

// IsInternal returns true if err reports a refused query shape.
func IsInternal(err error) bool {
	return CodeOf(err) == ErrCodeInternal
}
