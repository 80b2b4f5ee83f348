package hic

import (
	"context"
	"fmt"
	"slices"
)

// Result is the outcome of Execute: column names and row-major values
// (string or int64).
type Result struct {
	Columns []string
	Rows    [][]any
}

// Execute runs the query against src.
//
// A select list holding an aggregate must be exactly count(...) over one
// table, with no other clause; the result is a single cell. Otherwise the
// query must be a plain projection of one table: any where, groupby,
// orderby, limit or offset is refused as INTERNAL, columns are resolved
// with ResolveColumns, and the table's rows are returned projected to the
// select list.
func (q *Query) Execute(ctx context.Context, src DataSource) (*Result, error) {
	for _, n := range q.parts[ClauseSelect] {
		if agg, ok := n.(*Aggregate); ok {
			return q.count(ctx, src, agg)
		}
	}

	for _, c := range []Clause{ClauseWhere, ClauseGroupBy, ClauseOrderBy, ClauseLimit, ClauseOffset} {
		if len(q.parts[c]) > 0 {
			return nil, newError(ErrCodeInternal, q.sql, "%s clause is not supported: %s", c, joinNodes(q.parts[c], " "))
		}
	}
	if err := q.ResolveColumns(ctx, src); err != nil {
		return nil, err
	}
	table, err := q.singleTable(ctx, src)
	if err != nil {
		return nil, err
	}
	return q.project(ctx, src, table)
}

func (q *Query) count(ctx context.Context, src DataSource, agg *Aggregate) (*Result, error) {
	if len(q.parts[ClauseSelect]) != 1 {
		return nil, newError(ErrCodeUnsupported, q.sql, "count and columns not yet supported")
	}
	if agg.Func != "COUNT" {
		return nil, newError(ErrCodeUnsupported, q.sql, "unsupported aggregation: %s", agg)
	}
	if len(q.parts[ClauseFrom]) != 1 {
		return nil, newError(ErrCodeUnsupported, q.sql, "count needs exactly one table, got %d", len(q.parts[ClauseFrom]))
	}
	for _, c := range []Clause{ClauseWhere, ClauseGroupBy, ClauseOrderBy, ClauseLimit, ClauseOffset} {
		if len(q.parts[c]) > 0 {
			return nil, newError(ErrCodeUnsupported, q.sql, "%s clause is not supported with count", c)
		}
	}
	table, err := q.singleTable(ctx, src)
	if err != nil {
		return nil, err
	}
	n, err := src.RowCount(ctx, table)
	if err != nil {
		return nil, err
	}
	return &Result{Columns: []string{agg.String()}, Rows: [][]any{{n}}}, nil
}

// singleTable returns the one table named in FROM after checking that src has it.
func (q *Query) singleTable(ctx context.Context, src DataSource) (string, error) {
	if len(q.tables) != len(q.parts[ClauseFrom]) {
		return "", newError(ErrCodeUnsupported, q.sql, "unsupported FROM clause: %s", joinNodes(q.parts[ClauseFrom], ", "))
	}
	switch len(q.tables) {
	case 0:
		return "", newError(ErrCodeInvalid, q.sql, "no table named in FROM")
	case 1:
	default:
		return "", newError(ErrCodeUnsupported, q.sql, "joins are not supported: %d tables", len(q.tables))
	}

	table := q.tables[0]
	names, err := src.TableNames(ctx)
	if err != nil {
		return "", err
	}
	if !slices.Contains(names, table) {
		return "", newError(ErrCodeInvalid, q.sql, "unknown table: %s", table)
	}
	return table, nil
}

// project reads the table and keeps the selected columns in select order.
// Wildcards expand to every column in schema order.
func (q *Query) project(ctx context.Context, src DataSource, table string) (*Result, error) {
	schema, err := src.ColumnNames(ctx, table)
	if err != nil {
		return nil, err
	}

	var names []string
	var picks []string
	for _, n := range q.parts[ClauseSelect] {
		id, ok := n.(*Identifier)
		if !ok {
			return nil, newError(ErrCodeUnsupported, q.sql, "unsupported select item: %s", n)
		}
		if id.Prefix != "" && q.Table(id.Prefix) != table {
			return nil, newError(ErrCodeInvalid, q.sql, "table %s is not in FROM", id.Prefix)
		}
		if id.Wildcard {
			names = append(names, schema...)
			picks = append(picks, schema...)
			continue
		}
		if !slices.Contains(schema, id.Name) {
			return nil, newError(ErrCodeInvalid, q.sql, "column %s is not in table %s", id.Name, table)
		}
		name := id.Name
		if id.Alias != "" {
			name = id.Alias
		}
		names = append(names, name)
		picks = append(picks, id.Name)
	}
	if len(picks) == 0 {
		return nil, newError(ErrCodeInvalid, q.sql, "empty select list")
	}

	data, err := src.Table(ctx, table)
	if err != nil {
		return nil, err
	}
	index := make(map[string]int, len(data.Columns))
	for i, c := range data.Columns {
		index[c.Name] = i
	}
	cols := make([]int, len(picks))
	for i, p := range picks {
		j, ok := index[p]
		if !ok {
			return nil, fmt.Errorf("table %s returned no column %s", table, p)
		}
		cols[i] = j
	}

	rows := make([][]any, data.Len())
	for r := range rows {
		row := make([]any, len(cols))
		for i, j := range cols {
			row[i] = data.Columns[j].Value(r)
		}
		rows[r] = row
	}
	return &Result{Columns: names, Rows: rows}, nil
}
