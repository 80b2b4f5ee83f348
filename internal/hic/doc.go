// Package hic executes a restricted subset of SQL SELECT against a
// column-oriented data source.
//
// A statement is tokenized, grouped into nodes (identifiers, identifier
// lists, parenthesized groups, WHERE clauses) and split into clause buckets
// by a single left-to-right pass:
//
//	SELECT <select> FROM <from> WHERE <where> GROUP BY <groupby>
//	ORDER BY <orderby> LIMIT <limit> OFFSET <offset>
//
// Execution supports two shapes only:
//
//	SELECT count(*) FROM t          a single-cell row count
//	SELECT * | cols FROM t          every row of one table, projected
//
// Anything else is rejected with an UNSUPPORTED, INVALID or INTERNAL
// ParseError. Column references are validated against every table of the
// source: an unqualified name must belong to exactly one table.
package hic
