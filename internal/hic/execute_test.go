package hic

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/silo/internal/grid"
)

// bpSource returns {bp: [a, b]} holding (1, 3) and (2, 4).
func bpSource(t *testing.T) *MemorySource {
	t.Helper()
	src := NewMemorySource()
	src.Define("bp", grid.LongColumn("a"), grid.LongColumn("b"))
	require.NoError(t, src.Add("bp", 1, 3))
	require.NoError(t, src.Add("bp", 2, 4))
	return src
}

func execute(t *testing.T, sql string, src DataSource) (*Result, error) {
	t.Helper()
	q, err := Parse(sql)
	require.NoError(t, err)
	return q.Execute(context.Background(), src)
}

func TestExecute_SimpleCount(t *testing.T) {
	src := NewMemorySource()
	src.Define("bp", grid.LongColumn("a"))
	for _, v := range []int{1, 2, 3} {
		require.NoError(t, src.Add("bp", v))
	}

	res, err := execute(t, "select count(*) from bp", src)
	require.NoError(t, err)
	assert.Equal(t, [][]any{{int64(3)}}, res.Rows)
	assert.Equal(t, []string{"count(*)"}, res.Columns)
}

func TestExecute_CountRejections(t *testing.T) {
	src := bpSource(t)
	src.Define("chi", grid.LongColumn("c"))

	tests := []string{
		"select a, count(*) from bp group by a",
		"select count(*), count(a) from bp",
		"select sum(a) from bp",
		"select max(a) from bp",
		"select count(*) from bp, chi",
		"select count(*) from bp where a = 1",
		"select count(*) from bp limit 1",
	}
	for _, sql := range tests {
		t.Run(sql, func(t *testing.T) {
			_, err := execute(t, sql, src)
			assert.True(t, IsUnsupported(err), "got %v", err)
		})
	}

	_, err := execute(t, "select count(*) from nope", src)
	assert.True(t, IsInvalid(err), "got %v", err)
}

func TestExecute_ColumnsInTable(t *testing.T) {
	src := NewMemorySource()
	src.Define("bp", grid.LongColumn("a"))
	require.NoError(t, src.Add("bp", 1))
	require.NoError(t, src.Add("bp", 2))

	res, err := execute(t, "select a from bp", src)
	require.NoError(t, err)
	assert.Equal(t, [][]any{{int64(1)}, {int64(2)}}, res.Rows)

	_, err = execute(t, "select MISSING from bp", src)
	assert.True(t, IsInvalid(err), "got %v", err)
}

func TestExecute_Wildcards(t *testing.T) {
	want := [][]any{{int64(1), int64(3)}, {int64(2), int64(4)}}

	for _, sql := range []string{"select * from bp", "select bp.* from bp"} {
		res, err := execute(t, sql, bpSource(t))
		require.NoError(t, err, sql)
		assert.Equal(t, []string{"a", "b"}, res.Columns)
		assert.Equal(t, want, res.Rows, sql)
	}
}

func TestExecute_AliasWildcard(t *testing.T) {
	src := NewMemorySource()
	src.Define("bp_long_name", grid.LongColumn("a"), grid.LongColumn("b"))
	require.NoError(t, src.Add("bp_long_name", 1, 3))
	require.NoError(t, src.Add("bp_long_name", 2, 4))

	res, err := execute(t, "select bp.* from bp_long_name as bp ", src)
	require.NoError(t, err)
	assert.Equal(t, [][]any{{int64(1), int64(3)}, {int64(2), int64(4)}}, res.Rows)

	res, err = execute(t, "select bp.b from bp_long_name bp", src)
	require.NoError(t, err)
	assert.Equal(t, [][]any{{int64(3)}, {int64(4)}}, res.Rows)
}

func TestExecute_Projection(t *testing.T) {
	res, err := execute(t, "select b, a as first from bp", bpSource(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "first"}, res.Columns)
	assert.Equal(t, [][]any{{int64(3), int64(1)}, {int64(4), int64(2)}}, res.Rows)
}

func TestExecute_StringColumns(t *testing.T) {
	src := NewMemorySource()
	src.Define("people", grid.StringColumn("name", 10), grid.LongColumn("age"))
	require.NoError(t, src.Add("people", "ann", 30))
	require.Error(t, src.Add("people", 30, "ann"))
	require.Error(t, src.Add("people", "bob"))

	res, err := execute(t, "select name from people", src)
	require.NoError(t, err)
	assert.Equal(t, [][]any{{"ann"}}, res.Rows, "failed adds leave no partial rows")
}

func TestExecute_AmbiguousColumn(t *testing.T) {
	src := bpSource(t)
	src.Define("chi", grid.LongColumn("a"))

	_, err := execute(t, "select a from bp", src)
	assert.True(t, IsInvalid(err), "got %v", err)

	res, err := execute(t, "select bp.a from bp", src)
	require.NoError(t, err)
	assert.Len(t, res.Rows, 2)

	res, err = execute(t, "select b from bp", src)
	require.NoError(t, err)
	assert.Len(t, res.Rows, 2)
}

func TestExecute_InvalidReferences(t *testing.T) {
	src := bpSource(t)
	src.Define("chi", grid.LongColumn("c"))

	tests := []string{
		"select bp.missing from bp",
		"select nope.a from bp",
		"select chi.* from bp",
		"select c from bp",
		"select * from nope",
	}
	for _, sql := range tests {
		t.Run(sql, func(t *testing.T) {
			_, err := execute(t, sql, src)
			assert.True(t, IsInvalid(err), "got %v", err)
		})
	}
}

func TestExecute_RefusesFilteringClauses(t *testing.T) {
	tests := []string{
		"select a from bp where a = 1",
		"select a from bp group by a",
		"select a from bp order by a",
		"select a from bp limit 1",
		"select a from bp offset 1",
	}
	for _, sql := range tests {
		t.Run(sql, func(t *testing.T) {
			_, err := execute(t, sql, bpSource(t))
			assert.True(t, IsInternal(err), "got %v", err)
		})
	}
}

func TestExecute_UnsupportedShapes(t *testing.T) {
	src := bpSource(t)
	src.Define("chi", grid.LongColumn("c"))

	tests := []string{
		"select * from bp, chi",
		"select distinct a from bp",
		"select 1 from bp",
		"select * from (select * from bp)",
	}
	for _, sql := range tests {
		t.Run(sql, func(t *testing.T) {
			_, err := execute(t, sql, src)
			assert.True(t, IsUnsupported(err), "got %v", err)
		})
	}
}

func TestResolveColumns_NoClauseGuard(t *testing.T) {
	q, err := Parse("select a from bp where a = 1 order by b")
	require.NoError(t, err)
	assert.NoError(t, q.ResolveColumns(context.Background(), bpSource(t)))

	q, err = Parse("select a from bp where zz = 1")
	require.NoError(t, err)
	assert.True(t, IsInvalid(q.ResolveColumns(context.Background(), bpSource(t))))
}

func TestResolveColumns_WildcardOnEmptyTable(t *testing.T) {
	src := NewMemorySource()
	src.Define("empty")

	q, err := Parse("select *, empty.* from empty")
	require.NoError(t, err)
	assert.NoError(t, q.ResolveColumns(context.Background(), src))
}

func TestParseError_Message(t *testing.T) {
	_, err := Parse("delete from bp")
	require.Error(t, err)
	assert.Equal(t, "UNSUPPORTED: statement does not begin with 'select'", err.Error())
	assert.Equal(t, ErrCodeUnsupported, CodeOf(err))

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "delete from bp", pe.SQL)
}
