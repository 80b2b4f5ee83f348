package silo

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/silo/internal/grid"
	"github.com/roach88/silo/internal/testutil"
)

func TestWriteRows_RecordsWrite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	siloID, tableID := f.newSiloWithTable(t)

	require.NoError(t, f.store.WriteRows(ctx, tableID, demoRows(t, 0, 50)))

	entries := f.rawAudit(t, siloID)
	assert.Equal(t, []string{ActionCreate, ActionWrite}, actions(entries))
	assert.Equal(t, "50 rows", entries[1].Message)
	assert.Zero(t, f.faulty.Open())
}

func TestWriteRows_FailureIsAuditedAndReturned(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	siloID, tableID := f.newSiloWithTable(t)

	f.faulty.Fail(testutil.OpAddData, tableID, errBoom)
	err := f.store.WriteRows(ctx, tableID, demoRows(t, 0, 5))
	require.ErrorIs(t, err, errBoom)

	entries := f.rawAudit(t, siloID)
	require.Len(t, entries, 2)
	assert.Equal(t, Failed(ActionWrite), entries[1].Action)
	assert.Equal(t, "5 rows", entries[1].Message)
	assert.Zero(t, f.faulty.Open(), "both handles closed on failure")
}

func TestWriteRows_AuditFailureDoesNotMaskError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	siloID, tableID := f.newSiloWithTable(t)

	// Every AddData fails, the audit append included.
	f.faulty.Fail(testutil.OpAddData, 0, errBoom)
	err := f.store.WriteRows(ctx, tableID, demoRows(t, 0, 1))
	require.ErrorIs(t, err, errBoom)

	f.faulty.Clear()
	assert.Len(t, f.rawAudit(t, siloID), 1)
	assert.Zero(t, f.faulty.Open())
}

func TestWriteRows_OpenFailureIsAudited(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	siloID, tableID := f.newSiloWithTable(t)

	f.faulty.Fail(testutil.OpOpenTable, tableID, fmt.Errorf("open: %w", grid.ErrUnavailable))
	err := f.store.WriteRows(ctx, tableID, demoRows(t, 0, 2))
	assert.True(t, IsStorageUnavailable(err))

	entries := f.rawAudit(t, siloID)
	assert.Equal(t, Failed(ActionWrite), entries[len(entries)-1].Action)
}

func TestWriteRows_RaggedColumns(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	siloID, tableID := f.newSiloWithTable(t)

	cols := demoRows(t, 0, 2)
	cols[2].Longs = cols[2].Longs[:1]
	err := f.store.WriteRows(ctx, tableID, cols)
	assert.Equal(t, ErrCodeInvalidColumns, CodeOf(err))

	entries := f.rawAudit(t, siloID)
	assert.Equal(t, Failed(ActionWrite), entries[len(entries)-1].Action)
}

func TestWriteRows_UnknownTable(t *testing.T) {
	f := newFixture(t)
	err := f.store.WriteRows(context.Background(), 4242, demoRows(t, 0, 1))
	assert.Equal(t, ErrCodeInvalidTableReference, CodeOf(err))
}

func TestReadTail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, tableID := f.newSiloWithTable(t)
	require.NoError(t, f.store.WriteRows(ctx, tableID, demoRows(t, 0, 50)))

	tests := []struct {
		name  string
		limit int
		first int64
		rows  int
	}{
		{"last 25", 25, 25, 25},
		{"last 1", 1, 49, 1},
		{"limit above row count", 80, 0, 50},
		{"exact row count", 50, 0, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := f.store.ReadTail(ctx, tableID, 0, tt.limit)
			require.NoError(t, err)
			require.Equal(t, tt.rows, data.Len())
			assert.Equal(t, tt.first, data.RowNumbers[0])
			assert.Equal(t, int64(49), data.RowNumbers[tt.rows-1])
			assert.Equal(t, tt.first, data.Columns[1].Longs[0], "stored order")
		})
	}

	data, err := f.store.ReadTail(ctx, tableID, 0, 0)
	require.NoError(t, err)
	assert.Zero(t, data.Len())
}

func TestReadTail_RecordsRead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	siloID, tableID := f.newSiloWithTable(t)
	require.NoError(t, f.store.WriteRows(ctx, tableID, demoRows(t, 0, 10)))

	_, err := f.store.ReadTail(ctx, tableID, 0, 25)
	require.NoError(t, err)

	entries := f.rawAudit(t, siloID)
	last := entries[len(entries)-1]
	assert.Equal(t, ActionRead, last.Action)
	assert.Equal(t, "10 rows", last.Message, "limit is capped at the row count")
	assert.Equal(t, fmt.Sprintf("Table:%d", tableID), last.Resource)
	assert.Zero(t, f.faulty.Open())
}

func TestReadTail_EmptyTable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	siloID, tableID := f.newSiloWithTable(t)

	_, err := f.store.ReadTail(ctx, tableID, 0, 25)
	assert.True(t, IsNoData(err))
	assert.Len(t, f.rawAudit(t, siloID), 1, "an empty read is not audited")
	assert.Zero(t, f.faulty.Open())
}

func TestReadTail_OffsetRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	siloID, tableID := f.newSiloWithTable(t)
	require.NoError(t, f.store.WriteRows(ctx, tableID, demoRows(t, 0, 5)))
	reads := f.faulty.Reads()

	for _, offset := range []int{1, -1, 10} {
		_, err := f.store.ReadTail(ctx, tableID, offset, 25)
		assert.Equal(t, ErrCodeUnsupportedOffset, CodeOf(err))
	}
	_, err := f.store.AuditLog(ctx, siloID, 3, 25)
	assert.Equal(t, ErrCodeUnsupportedOffset, CodeOf(err))

	assert.Equal(t, reads, f.faulty.Reads(), "no backend read")
	assert.Len(t, f.rawAudit(t, siloID), 2)
}

func TestReadTail_FailureIsAudited(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	siloID, tableID := f.newSiloWithTable(t)
	require.NoError(t, f.store.WriteRows(ctx, tableID, demoRows(t, 0, 5)))

	f.faulty.Fail(testutil.OpRead, tableID, errBoom)
	_, err := f.store.ReadTail(ctx, tableID, 0, 3)
	require.ErrorIs(t, err, errBoom)

	entries := f.rawAudit(t, siloID)
	last := entries[len(entries)-1]
	assert.Equal(t, Failed(ActionRead), last.Action)
	assert.Equal(t, "3 rows", last.Message)
	assert.Zero(t, f.faulty.Open())
}

func TestReadTail_OpenFailureIsAudited(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	siloID, tableID := f.newSiloWithTable(t)

	f.faulty.Fail(testutil.OpOpenTable, tableID, errBoom)
	_, err := f.store.ReadTail(ctx, tableID, 0, 3)
	require.ErrorIs(t, err, errBoom)

	entries := f.rawAudit(t, siloID)
	assert.Equal(t, Failed(ActionRead), entries[len(entries)-1].Action)
}

func TestHeaders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	siloID, tableID := f.newSiloWithTable(t)

	cols, err := f.store.Headers(ctx, tableID)
	require.NoError(t, err)
	assert.Equal(t, demoColumns(), cols)

	f.faulty.Fail(testutil.OpHeaders, tableID, errBoom)
	_, err = f.store.Headers(ctx, tableID)
	require.ErrorIs(t, err, errBoom)

	entries := f.rawAudit(t, siloID)
	assert.Equal(t, []string{ActionCreate, ActionHeaders, Failed(ActionHeaders)}, actions(entries))
	assert.Equal(t, "3 columns", entries[1].Message)
	assert.Zero(t, f.faulty.Open())
}

func TestAuditLog_SelfLogging(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	siloID, tableID := f.newSiloWithTable(t)
	require.NoError(t, f.store.WriteRows(ctx, tableID, demoRows(t, 0, 3)))

	data, err := f.store.AuditLog(ctx, siloID, 0, 10)
	require.NoError(t, err)
	first, err := Entries(data)
	require.NoError(t, err)
	assert.Equal(t, []string{ActionCreate, ActionWrite}, actions(first))

	data, err = f.store.AuditLog(ctx, siloID, 0, 10)
	require.NoError(t, err)
	second, err := Entries(data)
	require.NoError(t, err)
	require.Equal(t, []string{ActionCreate, ActionWrite, ActionRead}, actions(second))

	logs, err := f.store.auditLogs(ctx, siloID)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("Table:%d", logs[0].ID), second[2].Resource, "the log records reading itself")
	assert.Equal(t, "2 rows", second[2].Message)
	assert.Zero(t, f.faulty.Open())
}

func TestAuditLog_Empty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	siloID, err := f.store.Init(ctx, "Demo")
	require.NoError(t, err)

	_, err = f.store.AuditLog(ctx, siloID, 0, 10)
	assert.True(t, IsNoData(err))
}

func TestAuditLog_MissingLog(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	siloID, err := f.store.CreateSilo(ctx, "Bare")
	require.NoError(t, err)

	_, err = f.store.AuditLog(ctx, siloID, 0, 10)
	assert.Equal(t, ErrCodeNoAuditLog, CodeOf(err))
}

func TestAuditTimestampsNonDecreasing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	siloID, tableID := f.newSiloWithTable(t)
	for i := 0; i < 5; i++ {
		require.NoError(t, f.store.WriteRows(ctx, tableID, demoRows(t, i, 1)))
		_, err := f.store.ReadTail(ctx, tableID, 0, 1)
		require.NoError(t, err)
	}

	entries := f.rawAudit(t, siloID)
	require.Len(t, entries, 11)
	for i := 1; i < len(entries); i++ {
		assert.GreaterOrEqual(t, entries[i].Timestamp, entries[i-1].Timestamp)
	}
}

func TestReadAllAndRowCount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, tableID := f.newSiloWithTable(t)

	data, err := f.store.ReadAll(ctx, tableID)
	require.NoError(t, err)
	assert.Zero(t, data.Len())
	assert.Equal(t, []string{"personal_id", "measurement_1", "measurement_2"}, data.Names())

	require.NoError(t, f.store.WriteRows(ctx, tableID, demoRows(t, 0, 7)))
	data, err = f.store.ReadAll(ctx, tableID)
	require.NoError(t, err)
	assert.Equal(t, 7, data.Len())

	n, err := f.store.RowCount(ctx, tableID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
}

func TestLoadDelimited(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	siloID, tableID := f.newSiloWithTable(t)

	input := "personal_id|measurement_1|measurement_2\n" +
		"aaaaaaaaaaaa|1|-1\n" +
		"bbbbbbbbbbbb|2|-2\n"
	n, err := f.store.LoadDelimited(ctx, tableID, strings.NewReader(input), LoadOptions{SkipHeader: true})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	data, err := f.store.ReadTail(ctx, tableID, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"aaaaaaaaaaaa", "bbbbbbbbbbbb"}, data.Columns[0].Strings)
	assert.Equal(t, []int64{-1, -2}, data.Columns[2].Longs)

	entries := f.rawAudit(t, siloID)
	assert.Equal(t, "2 rows", entries[1].Message)
}

func TestLoadDelimited_CustomDelimiterNoHeader(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, tableID := f.newSiloWithTable(t)

	n, err := f.store.LoadDelimited(ctx, tableID, strings.NewReader("x,3,4\n"), LoadOptions{Delimiter: ','})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestLoadDelimited_BadInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	siloID, tableID := f.newSiloWithTable(t)

	tests := map[string]string{
		"not a long":   "x|one|2\n",
		"short record": "x|1\n",
		"too long":     "abcdefghijklmnop|1|2\n",
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := f.store.LoadDelimited(ctx, tableID, strings.NewReader(input), LoadOptions{})
			assert.Error(t, err)
		})
	}

	n, err := f.store.RowCount(ctx, tableID)
	require.NoError(t, err)
	assert.Zero(t, n)
	// Only the oversized value reached the backend.
	assert.Equal(t, []string{ActionCreate, Failed(ActionWrite)}, actions(f.rawAudit(t, siloID)))
}

func TestSource(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	siloID, tableID := f.newSiloWithTable(t)
	require.NoError(t, f.store.WriteRows(ctx, tableID, demoRows(t, 0, 4)))

	src, err := f.store.Source(ctx, siloID)
	require.NoError(t, err)

	names, err := src.TableNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{AuditLogName, "TypeA"}, names)

	cols, err := src.ColumnNames(ctx, "TypeA")
	require.NoError(t, err)
	assert.Equal(t, []string{"personal_id", "measurement_1", "measurement_2"}, cols)

	n, err := src.RowCount(ctx, "TypeA")
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	data, err := src.Table(ctx, "TypeA")
	require.NoError(t, err)
	assert.Equal(t, 4, data.Len())

	_, err = src.Table(ctx, "Nope")
	assert.Equal(t, ErrCodeInvalidTableReference, CodeOf(err))

	// The data read went through the audited path.
	entries := f.rawAudit(t, siloID)
	assert.Equal(t, ActionRead, entries[len(entries)-1].Action)
}

func TestSource_DuplicateNamesPreferNewest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	siloID, _ := f.newSiloWithTable(t)
	_, err := f.store.DefineTable(ctx, siloID, "TypeA", []grid.Column{grid.LongColumn("only")}, false)
	require.NoError(t, err)

	src, err := f.store.Source(ctx, siloID)
	require.NoError(t, err)
	cols, err := src.ColumnNames(ctx, "TypeA")
	require.NoError(t, err)
	assert.Equal(t, []string{"only"}, cols)
}

func TestEndToEnd_DemoScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	siloID, err := f.store.CreateSilo(ctx, "Demo")
	require.NoError(t, err)
	_, err = f.store.DefineTable(ctx, siloID, AuditLogName, AuditLogColumns(), true)
	require.NoError(t, err)
	info, err := f.store.DefineTable(ctx, siloID, "TypeA", demoColumns(), false)
	require.NoError(t, err)

	require.NoError(t, f.store.WriteRows(ctx, info.ID, demoRows(t, 0, 50)))

	data, err := f.store.ReadTail(ctx, info.ID, 0, 25)
	require.NoError(t, err)
	require.Equal(t, 25, data.Len())
	for i := 0; i < 25; i++ {
		x := int64(25 + i)
		assert.Equal(t, x, data.RowNumbers[i])
		assert.Equal(t, strings.Repeat(fmt.Sprint(x%10), 12), data.Columns[0].Strings[i])
		assert.Equal(t, x, data.Columns[1].Longs[i])
		assert.Equal(t, -x, data.Columns[2].Longs[i])
	}

	log, err := f.store.AuditLog(ctx, siloID, 0, 10)
	require.NoError(t, err)
	entries, err := Entries(log)
	require.NoError(t, err)
	assert.Contains(t, actions(entries), ActionCreate)
	assert.Contains(t, actions(entries), ActionWrite)
	assert.Equal(t, []string{ActionCreate, ActionWrite, ActionRead}, actions(entries))
	assert.Zero(t, f.faulty.Open())
}
