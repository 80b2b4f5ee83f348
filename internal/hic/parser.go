package hic

import (
	"slices"
	"strings"
)

// Clause names a bucket of a parsed statement.
type Clause string

const (
	ClauseSelect  Clause = "select"
	ClauseFrom    Clause = "from"
	ClauseWhere   Clause = "where"
	ClauseGroupBy Clause = "groupby"
	ClauseOrderBy Clause = "orderby"
	ClauseLimit   Clause = "limit"
	ClauseOffset  Clause = "offset"
)

// Clauses lists every clause in statement order.
var Clauses = []Clause{
	ClauseSelect, ClauseFrom, ClauseWhere, ClauseGroupBy,
	ClauseOrderBy, ClauseLimit, ClauseOffset,
}

// Query is one parsed SELECT statement. It is immutable after Parse.
type Query struct {
	sql     string
	parts   map[Clause][]Node
	tables  []string
	aliases map[string]string
}

// Parse parses a single SELECT statement. More than one statement, or a
// statement not starting with SELECT, is UNSUPPORTED. Text that cannot be
// tokenized or grouped is INVALID.
func Parse(sql string) (*Query, error) {
	toks, err := tokenize(sql)
	if err != nil {
		return nil, err
	}
	stmts := splitStatements(toks)
	if len(stmts) != 1 {
		return nil, newError(ErrCodeUnsupported, sql, "wrong number of statements: %d", len(stmts))
	}
	nodes, err := group(sql, stmts[0])
	if err != nil {
		return nil, err
	}
	if k, ok := nodes[0].(*Keyword); !ok || !k.DML || k.Value != "SELECT" {
		return nil, newError(ErrCodeUnsupported, sql, "statement does not begin with 'select'")
	}

	q := &Query{
		sql:     sql,
		parts:   make(map[Clause][]Node, len(Clauses)),
		aliases: make(map[string]string),
	}
	if err := q.defineParts(nodes); err != nil {
		return nil, err
	}
	q.defineTables()
	return q, nil
}

// defineParts distributes nodes over the clause buckets in one pass. The
// leading SELECT is consumed and the select bucket is active first.
func (q *Query) defineParts(nodes []Node) error {
	current := ClauseSelect
	queue := slices.Clone(nodes[1:])
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]

		switch n := n.(type) {
		case *Keyword:
			switch n.Value {
			case "FROM":
				current = ClauseFrom
				continue
			case "GROUP", "ORDER":
				if len(queue) == 0 || !isKeyword(queue[0], "BY") {
					found := "end of statement"
					if len(queue) > 0 {
						found = queue[0].String()
					}
					return newError(ErrCodeUnsupported, q.sql, "expecting 'by' after %s, found: %s", n.Value, found)
				}
				queue = queue[1:]
				current = ClauseGroupBy
				if n.Value == "ORDER" {
					current = ClauseOrderBy
				}
				continue
			case "LIMIT":
				current = ClauseLimit
				continue
			case "OFFSET":
				current = ClauseOffset
				continue
			}
			if aggregateFuncs[n.Value] && len(queue) > 0 {
				if p, ok := queue[0].(*Parenthesis); ok {
					queue = queue[1:]
					q.parts[current] = append(q.parts[current], &Aggregate{Func: n.Value, Args: p.Items})
					continue
				}
			}
			q.parts[current] = append(q.parts[current], n)
		case *Where:
			q.parts[ClauseWhere] = append(q.parts[ClauseWhere], n.Items...)
		case *IdentifierList:
			queue = append(slices.Clone(n.Items), queue...)
		default:
			q.parts[current] = append(q.parts[current], n)
		}
	}
	return nil
}

// defineTables records the table names referenced in FROM and their aliases.
func (q *Query) defineTables() {
	for _, n := range q.parts[ClauseFrom] {
		id, ok := n.(*Identifier)
		if !ok || id.Wildcard || id.Prefix != "" {
			continue
		}
		q.tables = append(q.tables, id.Name)
		if id.Alias != "" {
			q.aliases[id.Alias] = id.Name
		}
	}
}

// SQL returns the statement as given to Parse.
func (q *Query) SQL() string { return q.sql }

// Part returns the nodes of one clause. The slice must not be modified.
func (q *Query) Part(c Clause) []Node { return q.parts[c] }

// Tables returns the table names referenced in FROM, aliases resolved.
func (q *Query) Tables() []string { return slices.Clone(q.tables) }

// Table resolves a table name or alias used in the statement.
func (q *Query) Table(name string) string {
	if real, ok := q.aliases[name]; ok {
		return real
	}
	return name
}

// String renders the statement in canonical clause order, omitting empty
// clauses.
func (q *Query) String() string {
	keywords := map[Clause]string{
		ClauseSelect: "SELECT", ClauseFrom: "FROM", ClauseWhere: "WHERE",
		ClauseGroupBy: "GROUP BY", ClauseOrderBy: "ORDER BY",
		ClauseLimit: "LIMIT", ClauseOffset: "OFFSET",
	}
	var parts []string
	for _, c := range Clauses {
		nodes := q.parts[c]
		if len(nodes) == 0 {
			continue
		}
		sep := ", "
		if c == ClauseWhere {
			sep = " "
		}
		parts = append(parts, keywords[c]+" "+joinNodes(nodes, sep))
	}
	return strings.Join(parts, " ")
}
