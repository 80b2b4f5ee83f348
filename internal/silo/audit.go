package silo

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/silo/internal/grid"
)

// Audited actions. A failed attempt is recorded as "FAILED_" + action.
const (
	ActionCreate  = "CREATE"
	ActionRead    = "READ"
	ActionWrite   = "WRITE"
	ActionHeaders = "HEADERS"
)

// Failed returns the tag recorded when action fails.
func Failed(action string) string {
	return "FAILED_" + action
}

// AuditLogColumns returns the fixed audit log schema.
func AuditLogColumns() []grid.Column {
	return []grid.Column{
		grid.LongColumn("user_id"),
		grid.LongColumn("timestamp"),
		grid.StringColumn("resource", grid.DefaultStringSize),
		grid.StringColumn("action", grid.DefaultStringSize),
		grid.StringColumn("message", grid.DefaultStringSize),
	}
}

// Entry is one decoded audit log row.
type Entry struct {
	UserID    int64  `json:"user_id"`
	Timestamp int64  `json:"timestamp"`
	Resource  string `json:"resource"`
	Action    string `json:"action"`
	Message   string `json:"message"`
}

// Entries decodes audit log rows read with AuditLog.
func Entries(d *grid.Data) ([]Entry, error) {
	if d.Len() == 0 {
		return nil, nil
	}
	if len(d.Columns) != 5 {
		return nil, fmt.Errorf("audit data has %d columns, want 5", len(d.Columns))
	}
	entries := make([]Entry, d.Len())
	for i := range entries {
		entries[i] = Entry{
			UserID:    d.Columns[0].Longs[i],
			Timestamp: d.Columns[1].Longs[i],
			Resource:  d.Columns[2].Strings[i],
			Action:    d.Columns[3].Strings[i],
			Message:   d.Columns[4].Strings[i],
		}
	}
	return entries, nil
}

func tableResource(id int64) string {
	return fmt.Sprintf("Table:%d", id)
}

// auditLogs returns the files named AuditLogName linked to a silo.
func (s *Store) auditLogs(ctx context.Context, siloID int64) ([]grid.FileSummary, error) {
	files, err := s.query.LinkedFiles(ctx, siloID, s.linkNS, grid.Page{})
	if err != nil {
		return nil, storageError("find audit log", err)
	}
	var logs []grid.FileSummary
	for _, f := range files {
		if f.Name == AuditLogName && f.Mimetype == grid.MimetypeTable {
			logs = append(logs, f)
		}
	}
	return logs, nil
}

// openAuditLog opens the single audit log of a silo.
func (s *Store) openAuditLog(ctx context.Context, siloID int64) (grid.Table, error) {
	logs, err := s.auditLogs(ctx, siloID)
	if err != nil {
		return nil, err
	}
	if len(logs) != 1 {
		return nil, &Error{
			Code:    ErrCodeNoAuditLog,
			Message: fmt.Sprintf("no single audit log found (size=%d)", len(logs)),
			SiloID:  siloID,
		}
	}
	t, err := s.tables.OpenTable(ctx, logs[0].ID)
	if err != nil {
		return nil, storageError("open audit log", err)
	}
	return t, nil
}

// record appends one entry to an open audit log.
func (s *Store) record(ctx context.Context, log grid.Table, resource, action, message string) error {
	cols := AuditLogColumns()
	cols[0].Longs = []int64{s.userID}
	cols[1].Longs = []int64{s.clock.Now()}
	cols[2].Strings = []string{truncate(resource, grid.DefaultStringSize)}
	cols[3].Strings = []string{action}
	cols[4].Strings = []string{truncate(message, grid.DefaultStringSize)}
	if err := log.AddData(ctx, cols); err != nil {
		return storageError("append audit entry", err)
	}
	slog.Debug("audit", "resource", resource, "action", action, "message", message)
	return nil
}

// recordFailure appends a FAILED_ entry on a best-effort basis. log may be
// nil when the operation is not audited.
func (s *Store) recordFailure(ctx context.Context, log grid.Table, resource, action, message string) {
	if log == nil {
		return
	}
	// The operation may have failed because ctx ended; the entry is still owed.
	ctx = context.WithoutCancel(ctx)
	if err := s.record(ctx, log, resource, Failed(action), message); err != nil {
		slog.Warn("audit append failed", "resource", resource, "action", Failed(action), "error", err)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
