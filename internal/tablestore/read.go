package tablestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/silo/internal/grid"
)

// readChunk bounds the number of row numbers bound into one IN (...) query.
const readChunk = 500

// File returns the summary of one backing file.
// Returns an error wrapping grid.ErrNotFound if the id does not exist.
func (s *Store) File(ctx context.Context, id int64) (grid.FileSummary, error) {
	var f grid.FileSummary
	err := s.db.QueryRowContext(ctx, `
		SELECT id, path, name, size, mimetype
		FROM original_files
		WHERE id = ?
	`, id).Scan(&f.ID, &f.Path, &f.Name, &f.Size, &f.Mimetype)
	if errors.Is(err, sql.ErrNoRows) {
		return grid.FileSummary{}, fmt.Errorf("file %d: %w", id, grid.ErrNotFound)
	}
	if err != nil {
		return grid.FileSummary{}, classify("read file", err)
	}
	return f, nil
}

// FilesByMimetype lists files of one mimetype, newest first.
// A non-positive limit means no limit.
func (s *Store) FilesByMimetype(ctx context.Context, mimetype string, page grid.Page) ([]grid.FileSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, path, name, size, mimetype
		FROM original_files
		WHERE mimetype = ?
		ORDER BY id DESC
		LIMIT ? OFFSET ?
	`, mimetype, sqlLimit(page.Limit), page.Offset)
	if err != nil {
		return nil, classify("query files", err)
	}
	defer rows.Close()

	return scanFiles(rows)
}

// LinkedFiles lists the files linked from parentID under ns, in link order.
// A non-positive limit means no limit.
func (s *Store) LinkedFiles(ctx context.Context, parentID int64, ns string, page grid.Page) ([]grid.FileSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT f.id, f.path, f.name, f.size, f.mimetype
		FROM annotation_links l
		JOIN original_files f ON f.id = l.child_id
		WHERE l.parent_id = ? AND l.ns = ?
		ORDER BY l.id ASC
		LIMIT ? OFFSET ?
	`, parentID, ns, sqlLimit(page.Limit), page.Offset)
	if err != nil {
		return nil, classify("query linked files", err)
	}
	defer rows.Close()

	return scanFiles(rows)
}

// LinkParents returns the ids of every file linking to childID under ns.
func (s *Store) LinkParents(ctx context.Context, childID int64, ns string) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT parent_id
		FROM annotation_links
		WHERE child_id = ? AND ns = ?
		ORDER BY parent_id ASC
	`, childID, ns)
	if err != nil {
		return nil, classify("query link parents", err)
	}
	defer rows.Close()

	parents := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, classify("scan link parent", err)
		}
		parents = append(parents, id)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("iterate link parents", err)
	}
	return parents, nil
}

// headers returns the column schema of a table in position order.
func (s *Store) headers(ctx context.Context, fileID int64) ([]grid.Column, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, kind, size, description
		FROM table_columns
		WHERE file_id = ?
		ORDER BY position ASC
	`, fileID)
	if err != nil {
		return nil, classify("query headers", err)
	}
	defer rows.Close()

	cols := []grid.Column{}
	for rows.Next() {
		var c grid.Column
		var kind string
		if err := rows.Scan(&c.Name, &kind, &c.Size, &c.Description); err != nil {
			return nil, classify("scan header", err)
		}
		c.Kind = grid.Kind(kind)
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("iterate headers", err)
	}
	return cols, nil
}

// numberOfRows counts the rows stored for a table.
func (s *Store) numberOfRows(ctx context.Context, fileID int64) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM table_rows WHERE file_id = ?
	`, fileID).Scan(&n); err != nil {
		return 0, classify("count rows", err)
	}
	return n, nil
}

// readCoordinates returns the requested rows in request order.
// Every row number must exist.
func (s *Store) readCoordinates(ctx context.Context, fileID int64, coords []int64) (*grid.Data, error) {
	headers, err := s.headers(ctx, fileID)
	if err != nil {
		return nil, err
	}

	cells := make(map[int64]string, len(coords))
	for start := 0; start < len(coords); start += readChunk {
		end := min(start+readChunk, len(coords))
		if err := s.fetchCells(ctx, fileID, coords[start:end], cells); err != nil {
			return nil, err
		}
	}

	data := &grid.Data{
		Columns:    grid.Headers(headers),
		RowNumbers: make([]int64, 0, len(coords)),
	}
	for _, rn := range coords {
		text, ok := cells[rn]
		if !ok {
			return nil, fmt.Errorf("read table %d: row %d out of range", fileID, rn)
		}
		if err := unmarshalRow(text, data.Columns); err != nil {
			return nil, fmt.Errorf("read table %d row %d: %w", fileID, rn, err)
		}
		data.RowNumbers = append(data.RowNumbers, rn)
	}
	return data, nil
}

func (s *Store) fetchCells(ctx context.Context, fileID int64, coords []int64, into map[int64]string) error {
	query := fmt.Sprintf(`
		SELECT row_number, cells
		FROM table_rows
		WHERE file_id = ? AND row_number IN (%s)
	`, placeholders(len(coords)))

	args := append([]any{fileID}, int64Args(coords)...)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return classify("read rows", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rn int64
		var text string
		if err := rows.Scan(&rn, &text); err != nil {
			return classify("scan row", err)
		}
		into[rn] = text
	}
	if err := rows.Err(); err != nil {
		return classify("iterate rows", err)
	}
	return nil
}

// scanFiles collects file summaries. Returns an empty slice, not nil.
func scanFiles(rows *sql.Rows) ([]grid.FileSummary, error) {
	files := []grid.FileSummary{}
	for rows.Next() {
		var f grid.FileSummary
		if err := rows.Scan(&f.ID, &f.Path, &f.Name, &f.Size, &f.Mimetype); err != nil {
			return nil, classify("scan file", err)
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("iterate files", err)
	}
	return files, nil
}

// sqlLimit maps "no limit" to SQLite's -1.
func sqlLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}
