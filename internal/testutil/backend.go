package testutil

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/roach88/silo/internal/grid"
	"github.com/roach88/silo/internal/tablestore"
)

// OpenStore opens a SQLite table backend in a temp dir and closes it when
// the test ends.
func OpenStore(t *testing.T) *tablestore.Store {
	t.Helper()
	s, err := tablestore.Open(filepath.Join(t.TempDir(), "silo.db"))
	if err != nil {
		t.Fatalf("open table store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// Op names a backend call that Faulty can fail.
type Op string

const (
	OpCreateFile   Op = "CreateFile"
	OpNewTable     Op = "NewTable"
	OpOpenTable    Op = "OpenTable"
	OpLink         Op = "LinkAnnotation"
	OpDelete       Op = "DeleteFiles"
	OpHeaders      Op = "Headers"
	OpInitialize   Op = "Initialize"
	OpAddData      Op = "AddData"
	OpNumberOfRows Op = "NumberOfRows"
	OpRead         Op = "ReadCoordinates"
)

// Faulty wraps a table service and fails selected calls. Table handles it
// returns are wrapped too, and it counts opens and closes so tests can check
// that every handle is released.
type Faulty struct {
	grid.TableService

	mu     sync.Mutex
	faults map[faultKey]error
	opened int
	closed int
	reads  int
}

type faultKey struct {
	op    Op
	table int64
}

// NewFaulty wraps ts.
func NewFaulty(ts grid.TableService) *Faulty {
	return &Faulty{TableService: ts, faults: make(map[faultKey]error)}
}

// Fail makes op return err. table restricts table-handle faults to one
// file id; 0 matches every table.
func (f *Faulty) Fail(op Op, table int64, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.faults[faultKey{op, table}] = err
}

// Clear removes every fault.
func (f *Faulty) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	clear(f.faults)
}

// Open returns the number of handles opened and not yet closed.
func (f *Faulty) Open() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opened - f.closed
}

// Reads returns the number of ReadCoordinates calls seen.
func (f *Faulty) Reads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}

func (f *Faulty) fault(op Op, table int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.faults[faultKey{op, table}]; ok {
		return err
	}
	return f.faults[faultKey{op, 0}]
}

func (f *Faulty) wrap(t grid.Table) grid.Table {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opened++
	return &faultyTable{Table: t, f: f}
}

func (f *Faulty) CreateFile(ctx context.Context, path, name, mimetype string) (int64, error) {
	if err := f.fault(OpCreateFile, 0); err != nil {
		return 0, err
	}
	return f.TableService.CreateFile(ctx, path, name, mimetype)
}

func (f *Faulty) NewTable(ctx context.Context, path, name string) (grid.Table, error) {
	if err := f.fault(OpNewTable, 0); err != nil {
		return nil, err
	}
	t, err := f.TableService.NewTable(ctx, path, name)
	if err != nil {
		return nil, err
	}
	return f.wrap(t), nil
}

func (f *Faulty) OpenTable(ctx context.Context, id int64) (grid.Table, error) {
	if err := f.fault(OpOpenTable, id); err != nil {
		return nil, err
	}
	t, err := f.TableService.OpenTable(ctx, id)
	if err != nil {
		return nil, err
	}
	return f.wrap(t), nil
}

func (f *Faulty) LinkAnnotation(ctx context.Context, parentID int64, ns string, childID int64) error {
	if err := f.fault(OpLink, 0); err != nil {
		return err
	}
	return f.TableService.LinkAnnotation(ctx, parentID, ns, childID)
}

func (f *Faulty) DeleteFiles(ctx context.Context, ids ...int64) error {
	if err := f.fault(OpDelete, 0); err != nil {
		return err
	}
	return f.TableService.DeleteFiles(ctx, ids...)
}

type faultyTable struct {
	grid.Table
	f *Faulty
}

func (t *faultyTable) Headers(ctx context.Context) ([]grid.Column, error) {
	if err := t.f.fault(OpHeaders, t.FileID()); err != nil {
		return nil, err
	}
	return t.Table.Headers(ctx)
}

func (t *faultyTable) Initialize(ctx context.Context, cols []grid.Column) error {
	if err := t.f.fault(OpInitialize, t.FileID()); err != nil {
		return err
	}
	return t.Table.Initialize(ctx, cols)
}

func (t *faultyTable) AddData(ctx context.Context, cols []grid.Column) error {
	if err := t.f.fault(OpAddData, t.FileID()); err != nil {
		return err
	}
	return t.Table.AddData(ctx, cols)
}

func (t *faultyTable) NumberOfRows(ctx context.Context) (int64, error) {
	if err := t.f.fault(OpNumberOfRows, t.FileID()); err != nil {
		return 0, err
	}
	return t.Table.NumberOfRows(ctx)
}

func (t *faultyTable) ReadCoordinates(ctx context.Context, rows []int64) (*grid.Data, error) {
	t.f.mu.Lock()
	t.f.reads++
	t.f.mu.Unlock()
	if err := t.f.fault(OpRead, t.FileID()); err != nil {
		return nil, err
	}
	return t.Table.ReadCoordinates(ctx, rows)
}

func (t *faultyTable) Close() error {
	t.f.mu.Lock()
	t.f.closed++
	t.f.mu.Unlock()
	return t.Table.Close()
}
