package hic

import (
	"context"
	"slices"
	"strings"
)

// ResolveColumns checks every identifier in the select, where, groupby and
// orderby clauses against the schema of src:
//
//   - table.* and * are skipped, even when no columns exist
//   - table.column must name a column of that table (aliases allowed)
//   - column must belong to exactly one table of src
//
// ResolveColumns does not check that where, groupby, orderby, limit and
// offset are empty; Execute does that before calling it. A caller invoking
// ResolveColumns directly gets no such guard.
func (q *Query) ResolveColumns(ctx context.Context, src DataSource) error {
	tableNames, err := src.TableNames(ctx)
	if err != nil {
		return err
	}
	columns := make(map[string][]string, len(tableNames))
	reverse := make(map[string][]string)
	for _, table := range tableNames {
		cols, err := src.ColumnNames(ctx, table)
		if err != nil {
			return err
		}
		columns[table] = cols
		for _, c := range cols {
			reverse[c] = append(reverse[c], table)
		}
	}

	check := func(id *Identifier) error {
		if id.Wildcard {
			return nil
		}
		if id.Prefix != "" {
			table := q.Table(id.Prefix)
			cols, ok := columns[table]
			if !ok {
				return newError(ErrCodeInvalid, q.sql, "unknown table: %s", id.Prefix)
			}
			if !slices.Contains(cols, id.Name) {
				return newError(ErrCodeInvalid, q.sql, "no column found: %s.%s", id.Prefix, id.Name)
			}
			return nil
		}
		tables := reverse[id.Name]
		switch len(tables) {
		case 0:
			return newError(ErrCodeInvalid, q.sql, "unknown column: %s", id.Name)
		case 1:
			return nil
		default:
			return newError(ErrCodeInvalid, q.sql, "non-unique column name: %s (%s)", id.Name, strings.Join(tables, ", "))
		}
	}

	for _, c := range []Clause{ClauseSelect, ClauseWhere, ClauseGroupBy, ClauseOrderBy} {
		for _, n := range q.parts[c] {
			if err := walkIdentifiers(n, check); err != nil {
				return err
			}
		}
	}
	return nil
}

// walkIdentifiers calls fn for every identifier in n, descending into
// comparisons and parenthesized groups.
func walkIdentifiers(n Node, fn func(*Identifier) error) error {
	switch n := n.(type) {
	case *Identifier:
		return fn(n)
	case *Comparison:
		if err := walkIdentifiers(n.Left, fn); err != nil {
			return err
		}
		return walkIdentifiers(n.Right, fn)
	case *Parenthesis:
		for _, item := range n.Items {
			if err := walkIdentifiers(item, fn); err != nil {
				return err
			}
		}
	}
	return nil
}
