package cli

import (
	"fmt"
	"strings"

	"github.com/roach88/silo/internal/grid"
	"github.com/roach88/silo/internal/tablefmt"
)

// SiloCreated is the result of create.
type SiloCreated struct {
	SiloID int64  `json:"silo_id"`
	Name   string `json:"name"`
}

func (r SiloCreated) Text() string {
	return fmt.Sprintf("Created silo %d ('%s')\n", r.SiloID, r.Name)
}

// TableDefined describes one table created by define.
type TableDefined struct {
	TableID int64        `json:"table_id"`
	Name    string       `json:"name"`
	Path    string       `json:"path"`
	Columns []ColumnInfo `json:"columns"`
	Loaded  []FileLoaded `json:"loaded,omitempty"`
}

// DefineResult is the result of define.
type DefineResult struct {
	SiloID int64          `json:"silo_id"`
	Tables []TableDefined `json:"tables"`
}

func (r DefineResult) Text() string {
	var b strings.Builder
	for _, t := range r.Tables {
		fmt.Fprintf(&b, "Created table %d ('%s')\n", t.TableID, t.Name)
		for _, f := range t.Loaded {
			fmt.Fprintf(&b, "Loaded %d rows from %s\n", f.Rows, f.Path)
		}
	}
	return b.String()
}

// FileLoaded reports one data file written to a table.
type FileLoaded struct {
	Path string `json:"path"`
	Rows int    `json:"rows"`
}

// LoadResult is the result of load.
type LoadResult struct {
	TableID int64        `json:"table_id"`
	Files   []FileLoaded `json:"files"`
}

func (r LoadResult) Text() string {
	var b strings.Builder
	for _, f := range r.Files {
		fmt.Fprintf(&b, "Loaded %d rows from %s into table %d\n", f.Rows, f.Path, r.TableID)
	}
	return b.String()
}

// ColumnInfo is a column definition in JSON output.
type ColumnInfo struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Size        int    `json:"size,omitempty"`
	Description string `json:"description,omitempty"`
	Descriptor  string `json:"descriptor"`
}

func columnInfos(cols []grid.Column) []ColumnInfo {
	out := make([]ColumnInfo, len(cols))
	for i, c := range cols {
		out[i] = ColumnInfo{
			Name:        c.Name,
			Type:        string(c.Kind),
			Size:        c.Size,
			Description: c.Description,
			Descriptor:  grid.FormatDescriptor(c),
		}
	}
	return out
}

// HeadersResult is the result of headers.
type HeadersResult struct {
	TableID int64        `json:"table_id"`
	Columns []ColumnInfo `json:"columns"`

	cols []grid.Column
}

func (r HeadersResult) Text() string {
	return tablefmt.Columns(r.cols).String()
}

// Row is one table row in JSON output.
type Row struct {
	Number int64 `json:"row"`
	Values []any `json:"values"`
}

// RowsResult is the result of tail and auditlog.
type RowsResult struct {
	TableID int64    `json:"table_id,omitempty"`
	SiloID  int64    `json:"silo_id,omitempty"`
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`

	data *grid.Data
}

func rowsResult(tableID int64, d *grid.Data) RowsResult {
	r := RowsResult{TableID: tableID, Columns: d.Names(), Rows: []Row{}, data: d}
	for i, values := range d.Rows() {
		r.Rows = append(r.Rows, Row{Number: d.RowNumbers[i], Values: values})
	}
	return r
}

func (r RowsResult) Text() string {
	if r.data == nil || r.data.Len() == 0 {
		return "No data\n"
	}
	return tablefmt.Data(r.data).String()
}

// FilesResult is the result of list and tables.
type FilesResult struct {
	Files []grid.FileSummary `json:"files"`
}

func (r FilesResult) Text() string {
	return tablefmt.Files(r.Files).String()
}

// QueryResult is the result of query.
type QueryResult struct {
	SQL     string   `json:"sql"`
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

func (r QueryResult) Text() string {
	b := tablefmt.New(r.Columns...)
	for _, row := range r.Rows {
		b.Row(row...)
	}
	return b.String()
}

// DefaultResult is the result of default.
type DefaultResult struct {
	SiloID int64 `json:"silo_id,omitempty"`
	Set    bool  `json:"set"`
}

func (r DefaultResult) Text() string {
	if r.SiloID == 0 {
		return ""
	}
	return fmt.Sprintf("%d\n", r.SiloID)
}

// DeleteResult is the result of delete.
type DeleteResult struct {
	SiloID int64 `json:"silo_id"`
}

func (r DeleteResult) Text() string {
	return fmt.Sprintf("Deleted silo %d\n", r.SiloID)
}
