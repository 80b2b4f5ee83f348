package silo

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/silo/internal/grid"
)

// WriteRows appends the rows carried by cols to a table and records WRITE
// or FAILED_WRITE with the row count.
func (s *Store) WriteRows(ctx context.Context, tableID int64, cols []grid.Column) error {
	siloID, err := s.SiloFromTable(ctx, tableID)
	if err != nil {
		return err
	}
	log, err := s.openAuditLog(ctx, siloID)
	if err != nil {
		return err
	}
	defer closeHandle(log)

	resource := tableResource(tableID)
	n, err := grid.RowCount(cols)
	if err != nil {
		s.recordFailure(ctx, log, resource, ActionWrite, "0 rows")
		return &Error{Code: ErrCodeInvalidColumns, Message: "ragged columns", SiloID: siloID, TableID: tableID, Action: ActionWrite, Err: err}
	}
	message := fmt.Sprintf("%d rows", n)

	t, err := s.openTable(ctx, tableID)
	if err != nil {
		s.recordFailure(ctx, log, resource, ActionWrite, message)
		return err
	}
	defer closeHandle(t)

	if err := t.AddData(ctx, cols); err != nil {
		s.recordFailure(ctx, log, resource, ActionWrite, message)
		return storageError("write rows", err)
	}
	if err := s.record(ctx, log, resource, ActionWrite, message); err != nil {
		return err
	}
	slog.Debug("rows written", "silo_id", siloID, "table_id", tableID, "rows", n)
	return nil
}

// ReadTail returns the last limit rows of a table in stored order and
// records READ or FAILED_READ. A non-zero offset is rejected before any
// backend access. An empty table yields a NO_DATA error and no audit entry.
func (s *Store) ReadTail(ctx context.Context, tableID int64, offset, limit int) (*grid.Data, error) {
	if err := checkOffset(offset); err != nil {
		err.TableID = tableID
		return nil, err
	}
	siloID, err := s.SiloFromTable(ctx, tableID)
	if err != nil {
		return nil, err
	}
	log, err := s.openAuditLog(ctx, siloID)
	if err != nil {
		return nil, err
	}
	defer closeHandle(log)

	t, err := s.openTable(ctx, tableID)
	if err != nil {
		s.recordFailure(ctx, log, tableResource(tableID), ActionRead, fmt.Sprintf("%d rows", max(limit, 0)))
		return nil, err
	}
	defer closeHandle(t)

	return s.tail(ctx, log, t, limit)
}

// AuditLog returns the last limit entries of a silo's audit log. The read
// is itself recorded in the log it reads, after the rows were fetched, so
// the returned rows never include the entry for this call.
func (s *Store) AuditLog(ctx context.Context, siloID int64, offset, limit int) (*grid.Data, error) {
	if err := checkOffset(offset); err != nil {
		err.SiloID = siloID
		return nil, err
	}
	log, err := s.openAuditLog(ctx, siloID)
	if err != nil {
		return nil, err
	}
	defer closeHandle(log)

	return s.tail(ctx, log, log, limit)
}

// Headers returns the columns of a table and records HEADERS or
// FAILED_HEADERS with the column count.
func (s *Store) Headers(ctx context.Context, tableID int64) ([]grid.Column, error) {
	siloID, err := s.SiloFromTable(ctx, tableID)
	if err != nil {
		return nil, err
	}
	log, err := s.openAuditLog(ctx, siloID)
	if err != nil {
		return nil, err
	}
	defer closeHandle(log)

	resource := tableResource(tableID)
	t, err := s.openTable(ctx, tableID)
	if err != nil {
		s.recordFailure(ctx, log, resource, ActionHeaders, "0 columns")
		return nil, err
	}
	defer closeHandle(t)

	cols, err := t.Headers(ctx)
	if err != nil {
		s.recordFailure(ctx, log, resource, ActionHeaders, "0 columns")
		return nil, storageError("read headers", err)
	}
	if err := s.record(ctx, log, resource, ActionHeaders, fmt.Sprintf("%d columns", len(cols))); err != nil {
		return nil, err
	}
	return cols, nil
}

// ReadAll returns every row of a table through the audited read path.
// An empty table yields empty Data carrying the headers, not NO_DATA.
func (s *Store) ReadAll(ctx context.Context, tableID int64) (*grid.Data, error) {
	n, err := s.RowCount(ctx, tableID)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		cols, err := s.tableHeaders(ctx, tableID)
		if err != nil {
			return nil, err
		}
		return &grid.Data{Columns: cols, RowNumbers: []int64{}}, nil
	}
	return s.ReadTail(ctx, tableID, 0, int(n))
}

// RowCount returns the number of rows in a table. Counting reads no row
// data and is not audited.
func (s *Store) RowCount(ctx context.Context, tableID int64) (int64, error) {
	t, err := s.openTable(ctx, tableID)
	if err != nil {
		return 0, err
	}
	defer closeHandle(t)

	n, err := t.NumberOfRows(ctx)
	if err != nil {
		return 0, storageError("count rows", err)
	}
	return n, nil
}

// tableHeaders reads a table's columns without an audit entry, for
// internal use by loaders that need the schema before writing.
func (s *Store) tableHeaders(ctx context.Context, tableID int64) ([]grid.Column, error) {
	t, err := s.openTable(ctx, tableID)
	if err != nil {
		return nil, err
	}
	defer closeHandle(t)

	cols, err := t.Headers(ctx)
	if err != nil {
		return nil, storageError("read headers", err)
	}
	return cols, nil
}

// tail reads the last limit rows of t and records the read in log. log and
// t may be the same handle.
func (s *Store) tail(ctx context.Context, log, t grid.Table, limit int) (*grid.Data, error) {
	limit = max(limit, 0)
	resource := tableResource(t.FileID())

	rowCount, err := t.NumberOfRows(ctx)
	if err != nil {
		s.recordFailure(ctx, log, resource, ActionRead, fmt.Sprintf("%d rows", limit))
		return nil, storageError("count rows", err)
	}
	if rowCount == 0 {
		return nil, &Error{Code: ErrCodeNoData, Message: "no data", TableID: t.FileID(), Action: ActionRead}
	}
	if int64(limit) > rowCount {
		limit = int(rowCount)
	}

	coords := make([]int64, 0, limit)
	for x := rowCount - int64(limit); x < rowCount; x++ {
		coords = append(coords, x)
	}
	message := fmt.Sprintf("%d rows", limit)

	data, err := t.ReadCoordinates(ctx, coords)
	if err != nil {
		s.recordFailure(ctx, log, resource, ActionRead, message)
		return nil, storageError("read rows", err)
	}
	if err := s.record(ctx, log, resource, ActionRead, message); err != nil {
		return nil, err
	}
	return data, nil
}

func checkOffset(offset int) *Error {
	if offset == 0 {
		return nil
	}
	return &Error{
		Code:    ErrCodeUnsupportedOffset,
		Message: fmt.Sprintf("non-zero offset currently unsupported: %d", offset),
		Action:  ActionRead,
	}
}
