package silo

import (
	"context"
	"fmt"
	"slices"

	"github.com/roach88/silo/internal/grid"
)

// Source exposes the tables of one silo to the SQL engine. Table names are
// the names the tables were defined with; when two tables share a name the
// newest one wins. Row data is read through the audited read path.
type Source struct {
	store   *Store
	siloID  int64
	ids     map[string]int64
	headers map[string][]string
}

// Source returns a query source over the tables of a silo.
func (s *Store) Source(ctx context.Context, siloID int64) (*Source, error) {
	files, err := s.Tables(ctx, siloID, grid.Page{})
	if err != nil {
		return nil, err
	}
	ids := make(map[string]int64, len(files))
	for _, f := range files {
		if f.Mimetype != grid.MimetypeTable {
			continue
		}
		if prev, ok := ids[f.Name]; !ok || f.ID > prev {
			ids[f.Name] = f.ID
		}
	}
	return &Source{store: s, siloID: siloID, ids: ids, headers: make(map[string][]string)}, nil
}

// TableNames returns the table names in sorted order.
func (src *Source) TableNames(ctx context.Context) ([]string, error) {
	names := make([]string, 0, len(src.ids))
	for name := range src.ids {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

// ColumnNames returns the column names of a table in schema order.
func (src *Source) ColumnNames(ctx context.Context, table string) ([]string, error) {
	if names, ok := src.headers[table]; ok {
		return names, nil
	}
	id, err := src.lookup(table)
	if err != nil {
		return nil, err
	}
	cols, err := src.store.tableHeaders(ctx, id)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	src.headers[table] = names
	return names, nil
}

// Table returns every row of a table.
func (src *Source) Table(ctx context.Context, table string) (*grid.Data, error) {
	id, err := src.lookup(table)
	if err != nil {
		return nil, err
	}
	return src.store.ReadAll(ctx, id)
}

// RowCount returns the number of rows in a table.
func (src *Source) RowCount(ctx context.Context, table string) (int64, error) {
	id, err := src.lookup(table)
	if err != nil {
		return 0, err
	}
	return src.store.RowCount(ctx, id)
}

func (src *Source) lookup(table string) (int64, error) {
	id, ok := src.ids[table]
	if !ok {
		return 0, &Error{
			Code:    ErrCodeInvalidTableReference,
			Message: fmt.Sprintf("no table %q in silo", table),
			SiloID:  src.siloID,
		}
	}
	return id, nil
}
