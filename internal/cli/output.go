package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/silo/internal/grid"
	"github.com/roach88/silo/internal/hic"
	"github.com/roach88/silo/internal/schemafile"
	"github.com/roach88/silo/internal/silo"
)

// Exit codes for CLI commands.
const (
	ExitSuccess            = 0   // Successful execution
	ExitFailure            = 1   // Unclassified failure
	ExitCommandError       = 2   // Command error (bad arguments, invalid descriptors, no silo selected)
	ExitSchemaFile         = 33  // Schema file could not be read or parsed
	ExitSQLUnsupported     = 40  // SQL outside the supported subset
	ExitSQLInvalid         = 41  // SQL referencing unknown tables or columns
	ExitSQLInternal        = 42  // SQL the executor refuses
	ExitStorageUnavailable = 50  // Table backend unreachable after retries
	ExitNoAuditLog         = 100 // Silo has zero or several audit logs
	ExitInvalidReference   = 103 // Table or silo id does not resolve
	ExitUnsupportedOffset  = 111 // Non-zero offset on a tail read
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code
	Message string // Error message
	Err     error  // Underlying error (optional)

	// Reported marks errors whose output the command already wrote.
	Reported bool
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// ExitError codes win; tagged store, SQL and schema errors map to their
// own codes; anything else is ExitFailure.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	switch silo.CodeOf(err) {
	case silo.ErrCodeNoAuditLog:
		return ExitNoAuditLog
	case silo.ErrCodeInvalidTableReference, silo.ErrCodeInvalidSiloReference:
		return ExitInvalidReference
	case silo.ErrCodeUnsupportedOffset:
		return ExitUnsupportedOffset
	case silo.ErrCodeStorageUnavailable:
		return ExitStorageUnavailable
	case silo.ErrCodeInvalidColumns:
		return ExitCommandError
	case silo.ErrCodeNoData:
		return ExitSuccess
	}
	switch hic.CodeOf(err) {
	case hic.ErrCodeUnsupported:
		return ExitSQLUnsupported
	case hic.ErrCodeInvalid:
		return ExitSQLInvalid
	case hic.ErrCodeInternal:
		return ExitSQLInternal
	}
	var schemaErr *schemafile.Error
	if errors.As(err, &schemaErr) {
		return ExitSchemaFile
	}
	if errors.Is(err, grid.ErrUnavailable) {
		return ExitStorageUnavailable
	}
	return ExitFailure
}

// ErrorCode returns the code reported in JSON error responses.
func ErrorCode(err error) string {
	if code := silo.CodeOf(err); code != "" {
		return string(code)
	}
	if code := hic.CodeOf(err); code != "" {
		return "SQL_" + string(code)
	}
	switch GetExitCode(err) {
	case ExitSchemaFile:
		return "SCHEMA_FILE"
	case ExitStorageUnavailable:
		return string(silo.ErrCodeStorageUnavailable)
	case ExitCommandError:
		return "COMMAND_ERROR"
	}
	return "ERROR"
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
	TraceID   string
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status  string    `json:"status"`             // "ok" or "error"
	Data    any       `json:"data,omitempty"`     // success payload
	Error   *CLIError `json:"error,omitempty"`    // error details
	TraceID string    `json:"trace_id,omitempty"` // correlates output with log lines
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "NO_AUDIT_LOG", "SQL_INVALID", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// textRenderer is implemented by results with a custom text form.
type textRenderer interface {
	Text() string
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status:  "ok",
			Data:    data,
			TraceID: f.TraceID,
		})
	}

	// Human-readable text output
	if r, ok := data.(textRenderer); ok {
		_, err := io.WriteString(f.Writer, r.Text())
		return err
	}
	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
			TraceID: f.TraceID,
		})
	}

	// Human-readable error
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
