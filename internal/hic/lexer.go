package hic

import (
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// sqlLexer splits SQL text into raw tokens. Order matters: earlier rules win.
var sqlLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `--[^\n]*|/\*(?s:.*?)\*/`},
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "String", Pattern: `'(?:[^']|'')*'`},
	{Name: "QuotedIdent", Pattern: `"(?:[^"]|"")*"`},
	{Name: "Number", Pattern: `\d+(?:\.\d+)?`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_$]*`},
	{Name: "Operator", Pattern: `<>|!=|<=|>=|\|\||[-+/%=<>]`},
	{Name: "Punct", Pattern: `[(),.;*]`},
})

var sqlSymbols = sqlLexer.Symbols()

type tokenKind int

const (
	tokKeyword tokenKind = iota
	tokDML
	tokName
	tokString
	tokNumber
	tokOperator
	tokPunct
)

type token struct {
	kind  tokenKind
	value string // keywords are upper-cased; quoted names are unquoted
}

func (t token) is(kind tokenKind, value string) bool {
	return t.kind == kind && t.value == value
}

var dmlWords = map[string]bool{
	"SELECT": true, "INSERT": true, "UPDATE": true, "DELETE": true,
	"REPLACE": true, "MERGE": true, "UPSERT": true,
}

// keywords never name a table or column unless quoted.
var keywords = map[string]bool{
	"ALL": true, "ALTER": true, "AND": true, "AS": true, "ASC": true,
	"AVG": true, "BETWEEN": true, "BY": true, "CASE": true, "COUNT": true,
	"CREATE": true, "CROSS": true, "DESC": true, "DISTINCT": true, "DROP": true,
	"ELSE": true, "END": true, "EXCEPT": true, "EXISTS": true, "FROM": true,
	"FULL": true, "GROUP": true, "HAVING": true, "IN": true, "INNER": true,
	"INTERSECT": true, "INTO": true, "IS": true, "JOIN": true, "LEFT": true,
	"LIKE": true, "LIMIT": true, "MAX": true, "MIN": true, "NOT": true,
	"NULL": true, "OFFSET": true, "ON": true, "OR": true, "ORDER": true,
	"OUTER": true, "RIGHT": true, "SET": true, "SUM": true, "TABLE": true,
	"THEN": true, "UNION": true, "USING": true, "VALUES": true, "WHEN": true,
	"WHERE": true, "WITH": true,
}

// aggregateFuncs are the keywords grouped with a following parenthesis
// into an Aggregate.
var aggregateFuncs = map[string]bool{
	"COUNT": true, "SUM": true, "AVG": true, "MIN": true, "MAX": true,
}

// tokenize lexes sql, dropping whitespace and comments.
func tokenize(sql string) ([]token, error) {
	lex, err := sqlLexer.LexString("", sql)
	if err != nil {
		return nil, newError(ErrCodeInvalid, sql, "%v", err)
	}
	raw, err := lexer.ConsumeAll(lex)
	if err != nil {
		return nil, newError(ErrCodeInvalid, sql, "%v", err)
	}

	tokens := make([]token, 0, len(raw))
	for _, t := range raw {
		if t.EOF() {
			break
		}
		switch t.Type {
		case sqlSymbols["Whitespace"], sqlSymbols["Comment"]:
			continue
		case sqlSymbols["String"]:
			tokens = append(tokens, token{tokString, t.Value})
		case sqlSymbols["QuotedIdent"]:
			name := strings.ReplaceAll(t.Value[1:len(t.Value)-1], `""`, `"`)
			tokens = append(tokens, token{tokName, name})
		case sqlSymbols["Number"]:
			tokens = append(tokens, token{tokNumber, t.Value})
		case sqlSymbols["Operator"]:
			tokens = append(tokens, token{tokOperator, t.Value})
		case sqlSymbols["Punct"]:
			tokens = append(tokens, token{tokPunct, t.Value})
		case sqlSymbols["Ident"]:
			upper := strings.ToUpper(t.Value)
			switch {
			case dmlWords[upper]:
				tokens = append(tokens, token{tokDML, upper})
			case keywords[upper]:
				tokens = append(tokens, token{tokKeyword, upper})
			default:
				tokens = append(tokens, token{tokName, t.Value})
			}
		}
	}
	return tokens, nil
}

// splitStatements splits tokens on ';', dropping empty statements.
func splitStatements(tokens []token) [][]token {
	var stmts [][]token
	start := 0
	for i, t := range tokens {
		if t.is(tokPunct, ";") {
			if i > start {
				stmts = append(stmts, tokens[start:i])
			}
			start = i + 1
		}
	}
	if start < len(tokens) {
		stmts = append(stmts, tokens[start:])
	}
	return stmts
}
