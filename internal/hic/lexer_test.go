package hic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize_Kinds(t *testing.T) {
	toks, err := tokenize(`SELECT a, "B c" FROM t WHERE n >= 10.5 AND s = 'it''s'`)
	require.NoError(t, err)

	want := []token{
		{tokDML, "SELECT"},
		{tokName, "a"},
		{tokPunct, ","},
		{tokName, "B c"},
		{tokKeyword, "FROM"},
		{tokName, "t"},
		{tokKeyword, "WHERE"},
		{tokName, "n"},
		{tokOperator, ">="},
		{tokNumber, "10.5"},
		{tokKeyword, "AND"},
		{tokName, "s"},
		{tokOperator, "="},
		{tokString, "'it''s'"},
	}
	assert.Equal(t, want, toks)
}

func TestTokenize_AuditColumnsAreNames(t *testing.T) {
	toks, err := tokenize("user_id timestamp resource action message")
	require.NoError(t, err)
	for _, tok := range toks {
		assert.Equal(t, tokName, tok.kind, tok.value)
	}
}

func TestTokenize_Error(t *testing.T) {
	_, err := tokenize("select # from t")
	assert.True(t, IsInvalid(err))
}
