package grid

import (
	"context"
	"errors"
)

// Mimetypes stored on backing files.
const (
	MimetypeSilo  = "OMERO.silo"
	MimetypeTable = "OMERO.tables"
)

var (
	// ErrUnavailable marks failures to reach or use the storage service.
	// Callers may retry operations that fail with it.
	ErrUnavailable = errors.New("storage unavailable")

	// ErrNotFound is returned when a file id does not exist.
	ErrNotFound = errors.New("file not found")

	// ErrClosed is returned by Table methods after Close.
	ErrClosed = errors.New("table handle closed")

	// ErrAlreadyInitialized is returned when a table's columns are set twice.
	ErrAlreadyInitialized = errors.New("table already initialized")
)

// FileSummary describes a backing file in the catalog.
type FileSummary struct {
	ID       int64  `json:"id"`
	Path     string `json:"path"`
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	Mimetype string `json:"mimetype"`
}

// Page bounds a catalog listing.
type Page struct {
	Offset int
	Limit  int
}

// Table is an open handle on one table. A handle belongs to the operation
// that opened it and must be closed on every exit path.
type Table interface {
	// FileID returns the id of the table's backing file.
	FileID() int64

	Headers(ctx context.Context) ([]Column, error)

	// Initialize fixes the table's columns. It fails with
	// ErrAlreadyInitialized on a second call.
	Initialize(ctx context.Context, cols []Column) error

	// AddData appends rows. cols must match the headers by name, kind and
	// order, and carry the same number of values each.
	AddData(ctx context.Context, cols []Column) error

	NumberOfRows(ctx context.Context) (int64, error)

	// ReadCoordinates returns the given rows in the order requested.
	ReadCoordinates(ctx context.Context, rows []int64) (*Data, error)

	Close() error
}

// TableService creates, opens and links table files.
type TableService interface {
	CreateFile(ctx context.Context, path, name, mimetype string) (int64, error)

	// NewTable creates a table file and returns an open handle on it.
	NewTable(ctx context.Context, path, name string) (Table, error)

	OpenTable(ctx context.Context, fileID int64) (Table, error)

	LinkAnnotation(ctx context.Context, parentID int64, ns string, childID int64) error

	// DeleteFiles removes files, their table contents and every link that
	// touches them, atomically.
	DeleteFiles(ctx context.Context, ids ...int64) error
}

// QueryService answers read-only catalog queries.
type QueryService interface {
	File(ctx context.Context, id int64) (FileSummary, error)

	// FilesByMimetype lists files of one mimetype, newest first.
	FilesByMimetype(ctx context.Context, mimetype string, page Page) ([]FileSummary, error)

	// LinkedFiles lists the children linked from parentID under ns, in link order.
	LinkedFiles(ctx context.Context, parentID int64, ns string, page Page) ([]FileSummary, error)

	// LinkParents returns the ids of every file linking to childID under ns.
	LinkParents(ctx context.Context, childID int64, ns string) ([]int64, error)
}
