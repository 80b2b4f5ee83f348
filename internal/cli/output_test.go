package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/silo/internal/grid"
	"github.com/roach88/silo/internal/hic"
	"github.com/roach88/silo/internal/schemafile"
	"github.com/roach88/silo/internal/silo"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "json",
		Writer:  buf,
		TraceID: "trace-1",
	}

	err := formatter.Success(SiloCreated{SiloID: 4, Name: "Demo"})
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "trace-1", resp.TraceID)
	assert.Equal(t, map[string]any{"silo_id": float64(4), "name": "Demo"}, resp.Data)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Error("NO_AUDIT_LOG", "no single audit log found (size=0)", nil)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NO_AUDIT_LOG", resp.Error.Code)
	assert.Equal(t, "no single audit log found (size=0)", resp.Error.Message)
}

func TestOutputFormatter_TextSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	require.NoError(t, formatter.Success(SiloCreated{SiloID: 4, Name: "Demo"}))
	assert.Equal(t, "Created silo 4 ('Demo')\n", buf.String())

	buf.Reset()
	require.NoError(t, formatter.Success("plain"))
	assert.Equal(t, "plain\n", buf.String())
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "text",
		Writer:  buf,
		Verbose: true,
	}

	err := formatter.Error("SQL_INVALID", "unknown table: Nope", map[string]string{"sql": "select * from Nope"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Error [SQL_INVALID]")
	assert.Contains(t, buf.String(), "Details:")
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		wantLog bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, diag := &bytes.Buffer{}, &bytes.Buffer{}
			formatter := &OutputFormatter{
				Format:    "json",
				Writer:    out,
				ErrWriter: diag,
				Verbose:   tt.verbose,
			}

			formatter.VerboseLog("Validating %s", "hic.xml")

			assert.Empty(t, out.String())
			if tt.wantLog {
				assert.Contains(t, diag.String(), "Validating hic.xml")
			} else {
				assert.Empty(t, diag.String())
			}
		})
	}
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		kind string
	}{
		{"nil", nil, ExitSuccess, "ERROR"},
		{"exit error", NewExitError(ExitCommandError, "bad"), ExitCommandError, "COMMAND_ERROR"},
		{"no audit log", &silo.Error{Code: silo.ErrCodeNoAuditLog}, ExitNoAuditLog, "NO_AUDIT_LOG"},
		{"invalid table", &silo.Error{Code: silo.ErrCodeInvalidTableReference}, ExitInvalidReference, "INVALID_TABLE_REFERENCE"},
		{"invalid silo", &silo.Error{Code: silo.ErrCodeInvalidSiloReference}, ExitInvalidReference, "INVALID_SILO_REFERENCE"},
		{"offset", &silo.Error{Code: silo.ErrCodeUnsupportedOffset}, ExitUnsupportedOffset, "UNSUPPORTED_OFFSET"},
		{"columns", &silo.Error{Code: silo.ErrCodeInvalidColumns}, ExitCommandError, "INVALID_COLUMNS"},
		{"storage", &silo.Error{Code: silo.ErrCodeStorageUnavailable}, ExitStorageUnavailable, "STORAGE_UNAVAILABLE"},
		{"connect", fmt.Errorf("connect: %w", grid.ErrUnavailable), ExitStorageUnavailable, "STORAGE_UNAVAILABLE"},
		{"sql unsupported", &hic.ParseError{Code: hic.ErrCodeUnsupported}, ExitSQLUnsupported, "SQL_UNSUPPORTED"},
		{"sql invalid", &hic.ParseError{Code: hic.ErrCodeInvalid}, ExitSQLInvalid, "SQL_INVALID"},
		{"sql internal", &hic.ParseError{Code: hic.ErrCodeInternal}, ExitSQLInternal, "SQL_INTERNAL"},
		{"schema", &schemafile.Error{Field: "columns"}, ExitSchemaFile, "SCHEMA_FILE"},
		{"wrapped", fmt.Errorf("load a.txt: %w", &silo.Error{Code: silo.ErrCodeNoAuditLog}), ExitNoAuditLog, "NO_AUDIT_LOG"},
		{"other", errors.New("boom"), ExitFailure, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, GetExitCode(tt.err))
			if tt.err != nil {
				assert.Equal(t, tt.kind, ErrorCode(tt.err))
			}
		})
	}
}

func TestExitError(t *testing.T) {
	inner := errors.New("disk full")
	err := WrapExitError(ExitFailure, "failed to save config", inner)

	assert.Equal(t, "failed to save config: disk full", err.Error())
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, "bad", NewExitError(ExitCommandError, "bad").Error())
}
