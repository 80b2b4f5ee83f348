// Package silo implements the audited table store.
//
// A silo is a named collection of tables held by a table backend. Every silo
// owns exactly one table named AuditLog, and every data operation on a table
// of the silo appends one row to that log after the operation was attempted:
//
//	CREATE / FAILED_CREATE     "<n> columns"
//	WRITE / FAILED_WRITE       "<n> rows"
//	READ / FAILED_READ         "<n> rows"
//	HEADERS / FAILED_HEADERS   "<n> columns"
//
// Failure entries are best-effort: if appending one fails, the original
// error is still returned and the append failure is logged.
//
// Every backend handle opened by an operation is closed before the
// operation returns, on every path. Nothing is cached between calls.
package silo
