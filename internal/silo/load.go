package silo

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/silo/internal/grid"
)

// DefaultDelimiter separates fields in data files.
const DefaultDelimiter = '|'

// LoadOptions controls how delimited data files are read.
type LoadOptions struct {
	// Delimiter separates fields. Defaults to DefaultDelimiter.
	Delimiter rune

	// SkipHeader drops the first record, which names the fields.
	SkipHeader bool
}

// LoadDelimited reads one delimited data file into a table as a single
// audited write. Fields are matched to the table columns by position and
// converted per column kind. It returns the number of rows written.
func (s *Store) LoadDelimited(ctx context.Context, tableID int64, r io.Reader, opts LoadOptions) (int, error) {
	cols, err := s.tableHeaders(ctx, tableID)
	if err != nil {
		return 0, err
	}
	if opts.Delimiter == 0 {
		opts.Delimiter = DefaultDelimiter
	}

	cr := csv.NewReader(r)
	cr.Comma = opts.Delimiter
	cr.FieldsPerRecord = len(cols)
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	line := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("read data: %w", err)
		}
		line++
		if line == 1 && opts.SkipHeader {
			continue
		}
		for i := range cols {
			if err := cols[i].AppendText(rec[i]); err != nil {
				return 0, fmt.Errorf("line %d: %w", line, err)
			}
		}
	}

	n, err := grid.RowCount(cols)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}
	if err := s.WriteRows(ctx, tableID, cols); err != nil {
		return 0, err
	}
	return n, nil
}
