package silo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/silo/internal/grid"
)

const (
	// AuditLogName is the reserved name of every silo's audit table.
	AuditLogName = "AuditLog"

	// SilosPath is the path prefix of silo files. Tables live under
	// SilosPath/<silo-id>/<table-name>.
	SilosPath = "/Silos"

	// DefaultOrg prefixes the link namespace when Options.Org is empty.
	DefaultOrg = "openmicroscopy.org"
)

// LinkNamespace returns the annotation namespace linking tables to silos.
func LinkNamespace(org string) string {
	return org + "/silo/table"
}

// Options configures a Store.
type Options struct {
	// UserID is recorded as the acting user of every audit entry.
	UserID int64

	// Org prefixes the link namespace. Defaults to DefaultOrg.
	Org string

	// Clock stamps audit entries. Defaults to a SystemClock.
	Clock Clock
}

// Store is the audited table store. It holds no handles between calls and
// is safe for concurrent use if the backend services are.
type Store struct {
	tables grid.TableService
	query  grid.QueryService
	userID int64
	linkNS string
	clock  Clock
}

// New creates a Store over the given backend services.
func New(tables grid.TableService, query grid.QueryService, opts Options) *Store {
	if opts.Org == "" {
		opts.Org = DefaultOrg
	}
	if opts.Clock == nil {
		opts.Clock = NewSystemClock()
	}
	return &Store{
		tables: tables,
		query:  query,
		userID: opts.UserID,
		linkNS: LinkNamespace(opts.Org),
		clock:  opts.Clock,
	}
}

// TableInfo describes a table returned by DefineTable.
type TableInfo struct {
	ID      int64         `json:"id"`
	SiloID  int64         `json:"silo_id"`
	Name    string        `json:"name"`
	Path    string        `json:"path"`
	Columns []grid.Column `json:"-"`
}

// CreateSilo allocates the backing file of a new silo and returns its id.
// It does not define the audit log; use Init, or call DefineTable for
// AuditLogName with skipAudit set.
func (s *Store) CreateSilo(ctx context.Context, name string) (int64, error) {
	name, err := normalizeName("silo", name)
	if err != nil {
		return 0, err
	}
	id, err := s.tables.CreateFile(ctx, SilosPath, name, grid.MimetypeSilo)
	if err != nil {
		return 0, storageError("create silo", err)
	}
	slog.Info("silo created", "silo_id", id, "name", name)
	return id, nil
}

// Init creates a silo together with its audit log. If the audit log cannot
// be defined the silo is deleted again.
func (s *Store) Init(ctx context.Context, name string) (int64, error) {
	id, err := s.CreateSilo(ctx, name)
	if err != nil {
		return 0, err
	}
	if _, err := s.DefineTable(ctx, id, AuditLogName, AuditLogColumns(), true); err != nil {
		if derr := s.DeleteSilo(context.WithoutCancel(ctx), id); derr != nil {
			slog.Warn("remove half-created silo", "silo_id", id, "error", derr)
		}
		return 0, err
	}
	return id, nil
}

// DefineTable creates a table in a silo, links it to the silo and fixes its
// columns. Unless skipAudit is set, the outcome is recorded as CREATE or
// FAILED_CREATE. The name AuditLogName is accepted only with skipAudit, and
// only for a silo that has no audit log yet.
//
// Entries use the resource Table:<id>. When the backend fails to create the
// table there is no id yet, and FAILED_CREATE names the table path instead:
// Table:/Silos/<silo-id>/<name>.
func (s *Store) DefineTable(ctx context.Context, siloID int64, name string, cols []grid.Column, skipAudit bool) (*TableInfo, error) {
	name, err := normalizeName("table", name)
	if err != nil {
		return nil, err
	}
	if err := s.requireSilo(ctx, siloID); err != nil {
		return nil, err
	}
	if err := s.checkDefinition(ctx, siloID, name, cols, skipAudit); err != nil {
		return nil, err
	}

	var log grid.Table
	if !skipAudit {
		log, err = s.openAuditLog(ctx, siloID)
		if err != nil {
			return nil, err
		}
		defer closeHandle(log)
	}

	message := fmt.Sprintf("%d columns", len(cols))
	p := path.Join(SilosPath, strconv.FormatInt(siloID, 10), name)
	nt, err := s.tables.NewTable(ctx, p, name)
	if err != nil {
		s.recordFailure(ctx, log, "Table:"+p, ActionCreate, message)
		return nil, storageError("create table", err)
	}
	defer closeHandle(nt)

	id := nt.FileID()
	if err := s.tables.LinkAnnotation(ctx, siloID, s.linkNS, id); err != nil {
		s.recordFailure(ctx, log, tableResource(id), ActionCreate, message)
		return nil, storageError("link table", err)
	}
	if err := nt.Initialize(ctx, cols); err != nil {
		s.recordFailure(ctx, log, tableResource(id), ActionCreate, message)
		return nil, storageError("initialize table", err)
	}
	if log != nil {
		if err := s.record(ctx, log, tableResource(id), ActionCreate, message); err != nil {
			return nil, err
		}
	}

	slog.Info("table defined", "silo_id", siloID, "table_id", id, "name", name, "columns", len(cols))
	return &TableInfo{ID: id, SiloID: siloID, Name: name, Path: p, Columns: grid.Headers(cols)}, nil
}

func (s *Store) checkDefinition(ctx context.Context, siloID int64, name string, cols []grid.Column, skipAudit bool) error {
	invalid := func(format string, args ...any) error {
		return &Error{Code: ErrCodeInvalidColumns, Message: fmt.Sprintf(format, args...), SiloID: siloID}
	}
	if name == AuditLogName {
		if !skipAudit {
			return invalid("table name %q is reserved", AuditLogName)
		}
		logs, err := s.auditLogs(ctx, siloID)
		if err != nil {
			return err
		}
		if len(logs) > 0 {
			return invalid("silo already has an audit log")
		}
	}
	if len(cols) == 0 && !skipAudit {
		return invalid("at least one column is required")
	}
	seen := make(map[string]bool, len(cols))
	for _, c := range cols {
		if err := c.ValidateDefinition(); err != nil {
			return &Error{Code: ErrCodeInvalidColumns, Message: "invalid column", SiloID: siloID, Err: err}
		}
		if seen[c.Name] {
			return invalid("duplicate column %q", c.Name)
		}
		seen[c.Name] = true
	}
	return nil
}

// List returns silos, newest first.
func (s *Store) List(ctx context.Context, page grid.Page) ([]grid.FileSummary, error) {
	files, err := s.query.FilesByMimetype(ctx, grid.MimetypeSilo, page)
	if err != nil {
		return nil, storageError("list silos", err)
	}
	return files, nil
}

// Tables returns the files linked to a silo, in link order. The audit log
// is included.
func (s *Store) Tables(ctx context.Context, siloID int64, page grid.Page) ([]grid.FileSummary, error) {
	if err := s.requireSilo(ctx, siloID); err != nil {
		return nil, err
	}
	files, err := s.query.LinkedFiles(ctx, siloID, s.linkNS, page)
	if err != nil {
		return nil, storageError("list tables", err)
	}
	return files, nil
}

// SiloFromTable returns the id of the single silo a table belongs to.
func (s *Store) SiloFromTable(ctx context.Context, tableID int64) (int64, error) {
	parents, err := s.query.LinkParents(ctx, tableID, s.linkNS)
	if err != nil {
		return 0, storageError("find silo", err)
	}
	if len(parents) != 1 {
		return 0, &Error{
			Code:    ErrCodeInvalidTableReference,
			Message: fmt.Sprintf("invalid number of silos for table: %d", len(parents)),
			TableID: tableID,
		}
	}
	return parents[0], nil
}

// DeleteSilo removes a silo with every table linked to it, the audit log
// included, in one backend call.
func (s *Store) DeleteSilo(ctx context.Context, siloID int64) error {
	if err := s.requireSilo(ctx, siloID); err != nil {
		return err
	}
	files, err := s.query.LinkedFiles(ctx, siloID, s.linkNS, grid.Page{})
	if err != nil {
		return storageError("list tables", err)
	}
	ids := make([]int64, 0, len(files)+1)
	ids = append(ids, siloID)
	for _, f := range files {
		ids = append(ids, f.ID)
	}
	if err := s.tables.DeleteFiles(ctx, ids...); err != nil {
		return storageError("delete silo", err)
	}
	slog.Info("silo deleted", "silo_id", siloID, "tables", len(files))
	return nil
}

func (s *Store) requireSilo(ctx context.Context, siloID int64) error {
	f, err := s.query.File(ctx, siloID)
	if errors.Is(err, grid.ErrNotFound) || (err == nil && f.Mimetype != grid.MimetypeSilo) {
		return &Error{Code: ErrCodeInvalidSiloReference, Message: "no such silo", SiloID: siloID, Err: err}
	}
	if err != nil {
		return storageError("load silo", err)
	}
	return nil
}

// openTable opens a table file, tagging unknown ids as invalid references.
func (s *Store) openTable(ctx context.Context, tableID int64) (grid.Table, error) {
	t, err := s.tables.OpenTable(ctx, tableID)
	if errors.Is(err, grid.ErrNotFound) {
		return nil, &Error{Code: ErrCodeInvalidTableReference, Message: "no such table", TableID: tableID, Err: err}
	}
	if err != nil {
		return nil, storageError("open table", err)
	}
	return t, nil
}

func normalizeName(kind, name string) (string, error) {
	name = norm.NFC.String(strings.TrimSpace(name))
	if name == "" {
		return "", fmt.Errorf("%s name is required", kind)
	}
	if strings.Contains(name, "/") {
		return "", fmt.Errorf("%s name %q must not contain '/'", kind, name)
	}
	return name, nil
}

// closeHandle closes a backend handle on a deferred path. Close failures
// cannot change the outcome of the operation and are only logged.
func closeHandle(t grid.Table) {
	if err := t.Close(); err != nil {
		slog.Warn("close table handle", "table_id", t.FileID(), "error", err)
	}
}
