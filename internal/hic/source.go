package hic

import (
	"context"
	"fmt"
	"slices"

	"github.com/roach88/silo/internal/grid"
)

// DataSource exposes tables to the executor.
type DataSource interface {
	TableNames(ctx context.Context) ([]string, error)
	ColumnNames(ctx context.Context, table string) ([]string, error)

	// Table returns every row of a table.
	Table(ctx context.Context, table string) (*grid.Data, error)

	RowCount(ctx context.Context, table string) (int64, error)
}

// MemorySource is an in-memory DataSource.
type MemorySource struct {
	tables map[string]*grid.Data
}

var _ DataSource = (*MemorySource)(nil)

// NewMemorySource creates an empty source.
func NewMemorySource() *MemorySource {
	return &MemorySource{tables: make(map[string]*grid.Data)}
}

// Define adds an empty table with the given columns, replacing any table of
// the same name.
func (m *MemorySource) Define(table string, cols ...grid.Column) {
	m.tables[table] = &grid.Data{Columns: grid.Headers(cols), RowNumbers: []int64{}}
}

// Add appends one row. Values are given in column order.
func (m *MemorySource) Add(table string, values ...any) error {
	d, ok := m.tables[table]
	if !ok {
		return fmt.Errorf("unknown table %q", table)
	}
	if len(values) != len(d.Columns) {
		return fmt.Errorf("table %s: got %d values, want %d", table, len(values), len(d.Columns))
	}
	for i, v := range values {
		if err := d.Columns[i].Append(v); err != nil {
			// Roll back the columns already extended.
			for j := 0; j < i; j++ {
				truncateColumn(&d.Columns[j], len(d.RowNumbers))
			}
			return fmt.Errorf("table %s: %w", table, err)
		}
	}
	d.RowNumbers = append(d.RowNumbers, int64(len(d.RowNumbers)))
	return nil
}

func truncateColumn(c *grid.Column, n int) {
	if c.Kind == grid.KindString {
		c.Strings = c.Strings[:n]
	} else {
		c.Longs = c.Longs[:n]
	}
}

// TableNames returns the table names in sorted order.
func (m *MemorySource) TableNames(ctx context.Context) ([]string, error) {
	names := make([]string, 0, len(m.tables))
	for name := range m.tables {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

func (m *MemorySource) ColumnNames(ctx context.Context, table string) ([]string, error) {
	d, ok := m.tables[table]
	if !ok {
		return nil, fmt.Errorf("unknown table %q", table)
	}
	return d.Names(), nil
}

func (m *MemorySource) Table(ctx context.Context, table string) (*grid.Data, error) {
	d, ok := m.tables[table]
	if !ok {
		return nil, fmt.Errorf("unknown table %q", table)
	}
	return d, nil
}

func (m *MemorySource) RowCount(ctx context.Context, table string) (int64, error) {
	d, ok := m.tables[table]
	if !ok {
		return 0, fmt.Errorf("unknown table %q", table)
	}
	return int64(d.Len()), nil
}
