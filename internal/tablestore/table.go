package tablestore

import (
	"context"
	"fmt"
	"sync"

	"github.com/roach88/silo/internal/grid"
)

// table is an open handle on one table file.
type table struct {
	store *Store
	id    int64

	mu     sync.Mutex
	closed bool
}

var _ grid.Table = (*table)(nil)

// OpenTable returns a handle on an existing table file.
func (s *Store) OpenTable(ctx context.Context, fileID int64) (grid.Table, error) {
	f, err := s.File(ctx, fileID)
	if err != nil {
		return nil, fmt.Errorf("open table: %w", err)
	}
	if f.Mimetype != grid.MimetypeTable {
		return nil, fmt.Errorf("open table: file %d has mimetype %q: %w", fileID, f.Mimetype, grid.ErrNotFound)
	}
	return &table{store: s, id: fileID}, nil
}

func (t *table) FileID() int64 { return t.id }

func (t *table) check() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return fmt.Errorf("table %d: %w", t.id, grid.ErrClosed)
	}
	return nil
}

func (t *table) Headers(ctx context.Context) ([]grid.Column, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	return t.store.headers(ctx, t.id)
}

func (t *table) Initialize(ctx context.Context, cols []grid.Column) error {
	if err := t.check(); err != nil {
		return err
	}
	return t.store.initialize(ctx, t.id, cols)
}

func (t *table) AddData(ctx context.Context, cols []grid.Column) error {
	if err := t.check(); err != nil {
		return err
	}
	return t.store.addData(ctx, t.id, cols)
}

func (t *table) NumberOfRows(ctx context.Context) (int64, error) {
	if err := t.check(); err != nil {
		return 0, err
	}
	return t.store.numberOfRows(ctx, t.id)
}

func (t *table) ReadCoordinates(ctx context.Context, rows []int64) (*grid.Data, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	return t.store.readCoordinates(ctx, t.id, rows)
}

// Close releases the handle. Closing twice is a no-op.
func (t *table) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}
