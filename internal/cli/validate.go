package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/silo/internal/schemafile"
)

// ValidationIssue is one problem found in a schema file.
type ValidationIssue struct {
	File    string `json:"file"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

// ValidatedTable summarizes a table a schema file would define.
type ValidatedTable struct {
	File    string   `json:"file"`
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Tables []ValidatedTable  `json:"tables,omitempty"`
	Errors []ValidationIssue `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "validate <schema-file>...",
		Short: "Validate schema files without touching the database",
		Long: `Validate HIC schema descriptors (.xml) and CUE table catalogs (.cue).

Each file is parsed and every table it defines is checked the way define
would check it. Nothing is written.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts.app.out, name, args)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "table name for XML descriptors")

	return cmd
}

func runValidate(formatter *OutputFormatter, name string, paths []string) error {
	var result ValidationResult

	for _, path := range paths {
		formatter.VerboseLog("Validating %s", path)

		schema, err := LoadSchema(path, validateTableName(path, name))
		if err != nil {
			result.Errors = append(result.Errors, validationIssue(path, err))
			continue
		}
		for _, def := range schema.Tables {
			if issue, ok := checkColumns(path, def); !ok {
				result.Errors = append(result.Errors, issue)
				continue
			}
			t := ValidatedTable{File: path, Name: def.Name}
			for _, c := range def.Columns {
				t.Columns = append(t.Columns, c.Name)
			}
			result.Tables = append(result.Tables, t)
		}
	}

	if len(result.Errors) > 0 {
		return outputValidationErrors(formatter, result)
	}
	result.Valid = true
	return outputValidateSuccess(formatter, result)
}

// checkColumns rejects duplicate column names.
func checkColumns(path string, def schemafile.TableDef) (ValidationIssue, bool) {
	seen := make(map[string]bool, len(def.Columns))
	for _, c := range def.Columns {
		if seen[c.Name] {
			return ValidationIssue{
				File:    path,
				Field:   "columns",
				Message: fmt.Sprintf("table %s: duplicate column %q", def.Name, c.Name),
			}, false
		}
		seen[c.Name] = true
	}
	return ValidationIssue{}, true
}

func validationIssue(path string, err error) ValidationIssue {
	issue := ValidationIssue{File: path, Message: err.Error()}
	var se *schemafile.Error
	if errors.As(err, &se) {
		issue.Field = se.Field
		issue.Message = se.Message
		if se.Pos.IsValid() {
			issue.Line = se.Pos.Line()
		}
	}
	return issue
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	for _, t := range result.Tables {
		fmt.Fprintf(formatter.Writer, "%s: table %s (%d columns)\n", t.File, t.Name, len(t.Columns))
	}
	fmt.Fprintln(formatter.Writer, "✓ All schema files valid")
	return nil
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	failed := &ExitError{
		Code:     ExitSchemaFile,
		Message:  fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)),
		Reported: true,
	}

	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    "SCHEMA_FILE",
				Message: result.Errors[0].Message,
			},
			TraceID: formatter.TraceID,
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
		return failed
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, issue := range result.Errors {
		if issue.Line > 0 {
			fmt.Fprintf(formatter.Writer, "%s:%d\n", issue.File, issue.Line)
		} else {
			fmt.Fprintln(formatter.Writer, issue.File)
		}
		fmt.Fprintf(formatter.Writer, "  %s\n\n", issue.Message)
	}
	return failed
}

// validateTableName names the table of an XML descriptor: name, or the
// file's base name without extension. CUE catalogs name their own tables,
// so every table in them is validated.
func validateTableName(path, name string) string {
	if format, err := SchemaFormatOf(path); err != nil || format != SchemaXML {
		return ""
	}
	if name != "" {
		return name
	}
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}
