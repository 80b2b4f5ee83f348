package tablestore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/roach88/silo/internal/grid"
)

// CreateFile inserts a backing file record and returns its id.
func (s *Store) CreateFile(ctx context.Context, path, name, mimetype string) (int64, error) {
	return insertFile(ctx, s.db, path, name, mimetype)
}

// NewTable creates an uninitialized table file and returns an open handle.
func (s *Store) NewTable(ctx context.Context, path, name string) (grid.Table, error) {
	id, err := insertFile(ctx, s.db, path, name, grid.MimetypeTable)
	if err != nil {
		return nil, fmt.Errorf("new table: %w", err)
	}
	return &table{store: s, id: id}, nil
}

func insertFile(ctx context.Context, db *sql.DB, path, name, mimetype string) (int64, error) {
	result, err := db.ExecContext(ctx, `
		INSERT INTO original_files (path, name, mimetype)
		VALUES (?, ?, ?)
	`, path, name, mimetype)
	if err != nil {
		return 0, classify("create file", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, classify("create file: last insert id", err)
	}
	return id, nil
}

// LinkAnnotation links childID under parentID in namespace ns.
// Uses ON CONFLICT DO NOTHING for idempotency - linking twice is a no-op.
//
// Note: Both files must exist (foreign key constraints).
func (s *Store) LinkAnnotation(ctx context.Context, parentID int64, ns string, childID int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO annotation_links (parent_id, child_id, ns)
		VALUES (?, ?, ?)
		ON CONFLICT(parent_id, child_id, ns) DO NOTHING
	`, parentID, childID, ns)
	if err != nil {
		return classify("link annotation", err)
	}
	return nil
}

// DeleteFiles removes the given files in one transaction. Columns, rows and
// links cascade through foreign keys.
func (s *Store) DeleteFiles(ctx context.Context, ids ...int64) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify("delete files: begin tx", err)
	}
	defer tx.Rollback() // No-op if committed

	query := fmt.Sprintf("DELETE FROM original_files WHERE id IN (%s)", placeholders(len(ids)))
	result, err := tx.ExecContext(ctx, query, int64Args(ids)...)
	if err != nil {
		return classify("delete files", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return classify("delete files: rows affected", err)
	}
	if int(n) != len(ids) {
		return fmt.Errorf("delete files: %w: %d of %d ids exist", grid.ErrNotFound, n, len(ids))
	}

	if err := tx.Commit(); err != nil {
		return classify("delete files: commit", err)
	}
	return nil
}

// initialize writes the column schema of a table exactly once.
func (s *Store) initialize(ctx context.Context, fileID int64, cols []grid.Column) error {
	for _, c := range cols {
		if err := c.ValidateDefinition(); err != nil {
			return fmt.Errorf("initialize table %d: %w", fileID, err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify("initialize: begin tx", err)
	}
	defer tx.Rollback()

	// Claim the initialization slot first; a second caller affects no rows.
	result, err := tx.ExecContext(ctx, `
		UPDATE original_files SET initialized = 1
		WHERE id = ? AND initialized = 0
	`, fileID)
	if err != nil {
		return classify("initialize", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return classify("initialize: rows affected", err)
	}
	if n == 0 {
		return fmt.Errorf("initialize table %d: %w", fileID, grid.ErrAlreadyInitialized)
	}

	for pos, c := range cols {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO table_columns (file_id, position, name, kind, size, description)
			VALUES (?, ?, ?, ?, ?, ?)
		`, fileID, pos, c.Name, string(c.Kind), c.Size, c.Description)
		if err != nil {
			return classify(fmt.Sprintf("initialize: column %s", c.Name), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return classify("initialize: commit", err)
	}
	return nil
}

// addData appends the rows carried by cols after validating them against
// the table headers. All rows land in one transaction or none do.
func (s *Store) addData(ctx context.Context, fileID int64, cols []grid.Column) error {
	headers, err := s.headers(ctx, fileID)
	if err != nil {
		return err
	}
	if err := matchHeaders(headers, cols); err != nil {
		return fmt.Errorf("add data to table %d: %w", fileID, err)
	}
	rows, err := grid.RowCount(cols)
	if err != nil {
		return fmt.Errorf("add data to table %d: %w", fileID, err)
	}
	if rows == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify("add data: begin tx", err)
	}
	defer tx.Rollback()

	var next int64
	if err := tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(row_number) + 1, 0) FROM table_rows WHERE file_id = ?
	`, fileID).Scan(&next); err != nil {
		return classify("add data: next row", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO table_rows (file_id, row_number, cells) VALUES (?, ?, ?)
	`)
	if err != nil {
		return classify("add data: prepare", err)
	}
	defer stmt.Close()

	var written int64
	for i := 0; i < rows; i++ {
		cells, err := marshalRow(cols, i)
		if err != nil {
			return fmt.Errorf("add data to table %d: %w", fileID, err)
		}
		if _, err := stmt.ExecContext(ctx, fileID, next+int64(i), cells); err != nil {
			return classify("add data: insert row", err)
		}
		written += int64(len(cells))
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE original_files SET size = size + ? WHERE id = ?
	`, written, fileID); err != nil {
		return classify("add data: update size", err)
	}

	if err := tx.Commit(); err != nil {
		return classify("add data: commit", err)
	}
	return nil
}

// matchHeaders checks that cols line up with the table schema by position,
// name and kind, and that every value fits its column.
func matchHeaders(headers, cols []grid.Column) error {
	if len(headers) == 0 {
		return fmt.Errorf("table has no columns")
	}
	if len(cols) != len(headers) {
		return fmt.Errorf("got %d columns, table has %d", len(cols), len(headers))
	}
	for i, h := range headers {
		c := cols[i]
		if c.Name != h.Name || c.Kind != h.Kind {
			return fmt.Errorf("column %d is %s:%s, table has %s:%s", i, c.Kind, c.Name, h.Kind, h.Name)
		}
		// Size comes from the stored schema, not the caller.
		c.Size = h.Size
		if err := c.ValidateValues(); err != nil {
			return err
		}
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
