// Package grid defines the table vocabulary shared by the silo layer and its
// storage backends: typed columns, row sets, file summaries, and the
// TableService / QueryService interfaces a backend must implement.
//
// Columns are column-oriented: a Column carries its definition (name, kind,
// string size) and, when used for data transfer, one value slice matching its
// kind. A slice of Columns with equal value counts describes a block of rows.
package grid
