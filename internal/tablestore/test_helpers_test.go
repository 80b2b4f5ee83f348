package tablestore

import (
	"context"
	"database/sql"
	"path/filepath"
	"slices"
	"strconv"
	"testing"

	"github.com/roach88/silo/internal/grid"
)

// createTestStore creates a new store in a temp dir for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestTable creates and initializes a table with a String and a Long column.
func createTestTable(t *testing.T, s *Store) grid.Table {
	t.Helper()
	ctx := context.Background()
	tbl, err := s.NewTable(ctx, "/Silos/1/People", "People")
	if err != nil {
		t.Fatalf("NewTable() failed: %v", err)
	}
	t.Cleanup(func() { tbl.Close() })
	cols := []grid.Column{grid.StringColumn("name", 8), grid.LongColumn("age")}
	if err := tbl.Initialize(ctx, cols); err != nil {
		t.Fatalf("Initialize() failed: %v", err)
	}
	return tbl
}

// peopleRows builds column data for n rows: name "p<i>", age i.
func peopleRows(start, n int) []grid.Column {
	name := grid.StringColumn("name", 8)
	age := grid.LongColumn("age")
	for i := start; i < start+n; i++ {
		name.Strings = append(name.Strings, "p"+strconv.Itoa(i))
		age.Longs = append(age.Longs, int64(i))
	}
	return []grid.Column{name, age}
}

func getTableColumns(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()

	rows, err := db.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		t.Fatalf("failed to get table info for %q: %v", table, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dfltValue interface{}
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			t.Fatalf("failed to scan column info: %v", err)
		}
		columns = append(columns, name)
	}
	return columns
}

func contains(slice []string, item string) bool {
	return slices.Contains(slice, item)
}
