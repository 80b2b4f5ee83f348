package schemafile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/silo/internal/grid"
)

func TestLoadCUE(t *testing.T) {
	defs, err := LoadCUE("testdata/catalog.cue")
	require.NoError(t, err)
	require.Len(t, defs, 2)

	assert.Equal(t, "TypeA", defs[0].Name)
	assert.Equal(t, []grid.Column{
		{Name: "personal_id", Kind: grid.KindString, Size: 12},
		{Name: "measurement_1", Kind: grid.KindLong, Description: "first reading"},
		{Name: "measurement_2", Kind: grid.KindLong},
	}, defs[0].Columns)

	assert.Equal(t, "TypeB", defs[1].Name)
	assert.Equal(t, "third reading", defs[1].Columns[1].Description)
}

func TestParseCUE_StringDefaultSize(t *testing.T) {
	defs, err := ParseCUE("t.cue", []byte(`tables: T: columns: [{name: "a", type: "String"}]`))
	require.NoError(t, err)
	assert.Equal(t, grid.DefaultStringSize, defs[0].Columns[0].Size)
}

func TestParseCUE_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"syntax", `tables: {`},
		{"no tables", `other: 1`},
		{"empty tables", `tables: {}`},
		{"no columns", `tables: T: {}`},
		{"empty columns", `tables: T: columns: []`},
		{"missing name", `tables: T: columns: [{type: "Long"}]`},
		{"missing type", `tables: T: columns: [{name: "a"}]`},
		{"unknown type", `tables: T: columns: [{name: "a", type: "Double"}]`},
		{"sized long", `tables: T: columns: [{name: "a", type: "Long", size: 4}]`},
		{"zero size", `tables: T: columns: [{name: "a", type: "String", size: 0}]`},
		{"bad descriptor", `tables: T: columns: ["Float:a"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCUE("t.cue", []byte(tt.src))
			assert.Error(t, err)
		})
	}
}

func TestParseCUE_ErrorPosition(t *testing.T) {
	_, err := ParseCUE("catalog.cue", []byte("tables: T: columns: [\n\t{name: \"a\", type: \"Double\"},\n]"))
	require.Error(t, err)

	var se *Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "type", se.Field)
	assert.Contains(t, err.Error(), "catalog.cue:2:")
}
