// Package tablestore provides SQLite-backed storage implementing the
// grid.TableService and grid.QueryService interfaces.
//
// The store keeps four relations:
//   - original_files: backing files (silo descriptors and tables)
//   - annotation_links: namespaced parent/child links between files
//   - table_columns: the immutable column schema of each table
//   - table_rows: append-only rows, one JSON cell array per row
//
// # Invariants
//
// Columns are written once, by Initialize; a second Initialize fails with
// grid.ErrAlreadyInitialized. Rows are only ever appended, and row numbers
// are 0-based and contiguous, so coordinate reads are stable.
//
// Deleting a file cascades to its columns, rows and links (foreign keys are
// enforced), so a silo and all of its tables leave in one transaction.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity and cascades
package tablestore
