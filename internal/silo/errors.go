package silo

import (
	"errors"
	"fmt"

	"github.com/roach88/silo/internal/grid"
)

// ErrorCode categorizes store errors.
type ErrorCode string

const (
	// ErrCodeNoAuditLog indicates a silo has zero or several audit logs.
	ErrCodeNoAuditLog ErrorCode = "NO_AUDIT_LOG"

	// ErrCodeNoData indicates a read found no rows. Callers treat it as an
	// empty result rather than a failure.
	ErrCodeNoData ErrorCode = "NO_DATA"

	// ErrCodeUnsupportedOffset indicates a non-zero offset was requested from a tail read.
	ErrCodeUnsupportedOffset ErrorCode = "UNSUPPORTED_OFFSET"

	// ErrCodeInvalidTableReference indicates a table id maps to zero or several silos,
	// or does not name a table.
	ErrCodeInvalidTableReference ErrorCode = "INVALID_TABLE_REFERENCE"

	// ErrCodeInvalidSiloReference indicates a silo id does not name a silo.
	ErrCodeInvalidSiloReference ErrorCode = "INVALID_SILO_REFERENCE"

	// ErrCodeStorageUnavailable indicates the table backend could not be reached.
	ErrCodeStorageUnavailable ErrorCode = "STORAGE_UNAVAILABLE"

	// ErrCodeInvalidColumns indicates a rejected table definition.
	ErrCodeInvalidColumns ErrorCode = "INVALID_COLUMNS"
)

// Error is the tagged error returned by Store operations.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// SiloID and TableID identify the affected objects when known.
	SiloID  int64
	TableID int64

	// Action is the audited action being attempted, if any.
	Action string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	switch {
	case e.SiloID != 0 && e.TableID != 0:
		msg += fmt.Sprintf(" (silo=%d, table=%d)", e.SiloID, e.TableID)
	case e.SiloID != 0:
		msg += fmt.Sprintf(" (silo=%d)", e.SiloID)
	case e.TableID != 0:
		msg += fmt.Sprintf(" (table=%d)", e.TableID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// IsNoData returns true if err reports an empty read.
func IsNoData(err error) bool {
	return CodeOf(err) == ErrCodeNoData
}

// IsStorageUnavailable returns true if the backend could not be reached.
func IsStorageUnavailable(err error) bool {
	return CodeOf(err) == ErrCodeStorageUnavailable
}

// storageError tags backend failures. Connection failures become
// STORAGE_UNAVAILABLE; anything else is wrapped with op for context.
func storageError(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	if errors.Is(err, grid.ErrUnavailable) {
		return &Error{Code: ErrCodeStorageUnavailable, Message: op, Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}
