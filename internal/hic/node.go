package hic

import (
	"slices"
	"strings"
)

// Node is one grouped element of a statement.
type Node interface {
	String() string
}

// Keyword is a reserved word, upper-cased. DML marks statement verbs such
// as SELECT and UPDATE.
type Keyword struct {
	Value string
	DML   bool
}

func (k *Keyword) String() string { return k.Value }

// Identifier is a column or table reference: name, prefix.name, * or
// prefix.*, optionally followed by an alias.
type Identifier struct {
	Prefix   string
	Name     string
	Alias    string
	Wildcard bool
}

func (id *Identifier) String() string {
	var b strings.Builder
	if id.Prefix != "" {
		b.WriteString(id.Prefix)
		b.WriteByte('.')
	}
	if id.Wildcard {
		b.WriteByte('*')
	} else {
		b.WriteString(id.Name)
	}
	if id.Alias != "" {
		b.WriteString(" AS ")
		b.WriteString(id.Alias)
	}
	return b.String()
}

// Literal is a number or quoted string.
type Literal struct {
	Value string
}

func (l *Literal) String() string { return l.Value }

// Operator is a comparison or arithmetic operator.
type Operator struct {
	Value string
}

func (o *Operator) String() string { return o.Value }

// IdentifierList is a comma-separated run of elements. Items holds the
// elements' nodes in order, without the commas.
type IdentifierList struct {
	Items []Node
}

func (l *IdentifierList) String() string { return joinNodes(l.Items, ", ") }

// Parenthesis is a parenthesized group. Commas are dropped from Items.
type Parenthesis struct {
	Items []Node
}

func (p *Parenthesis) String() string { return "(" + joinNodes(p.Items, ", ") + ")" }

// Where holds the conditions of a WHERE clause, grouped into comparisons
// joined by AND/OR keywords.
type Where struct {
	Items []Node
}

func (w *Where) String() string { return "WHERE " + joinNodes(w.Items, " ") }

// Comparison is "left op right" inside a WHERE clause.
type Comparison struct {
	Left  Node
	Op    string
	Right Node
}

func (c *Comparison) String() string {
	return c.Left.String() + " " + c.Op + " " + c.Right.String()
}

// Aggregate is an aggregate function applied to its arguments.
type Aggregate struct {
	Func string
	Args []Node
}

func (a *Aggregate) String() string {
	return strings.ToLower(a.Func) + "(" + joinNodes(a.Args, ", ") + ")"
}

// comma separates list elements during grouping. It never survives into
// the clause buckets.
type comma struct{}

func (comma) String() string { return "," }

func joinNodes(nodes []Node, sep string) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = n.String()
	}
	return strings.Join(parts, sep)
}

func isKeyword(n Node, value string) bool {
	k, ok := n.(*Keyword)
	return ok && k.Value == value
}

// whereEnd lists the keywords that close a WHERE clause.
var whereEnd = map[string]bool{
	"GROUP": true, "ORDER": true, "LIMIT": true, "OFFSET": true,
	"HAVING": true, "UNION": true, "EXCEPT": true, "INTERSECT": true,
}

type grouper struct {
	sql  string
	toks []token
	pos  int
}

// group turns the tokens of one statement into nodes.
func group(sql string, toks []token) ([]Node, error) {
	g := &grouper{sql: sql, toks: toks}
	nodes, err := g.sequence(false)
	if err != nil {
		return nil, err
	}
	return groupLists(groupWhere(nodes)), nil
}

func (g *grouper) peek() (token, bool) {
	if g.pos >= len(g.toks) {
		return token{}, false
	}
	return g.toks[g.pos], true
}

// sequence groups tokens until the end of input or, when nested, the
// closing parenthesis.
func (g *grouper) sequence(nested bool) ([]Node, error) {
	var nodes []Node
	for {
		t, ok := g.peek()
		if !ok {
			if nested {
				return nil, newError(ErrCodeInvalid, g.sql, "unclosed parenthesis")
			}
			return nodes, nil
		}
		switch {
		case t.is(tokPunct, "("):
			g.pos++
			inner, err := g.sequence(true)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, &Parenthesis{Items: slices.DeleteFunc(inner, isComma)})
		case t.is(tokPunct, ")"):
			if !nested {
				return nil, newError(ErrCodeInvalid, g.sql, "unbalanced parenthesis")
			}
			g.pos++
			return nodes, nil
		case t.is(tokPunct, ","):
			g.pos++
			nodes = append(nodes, comma{})
		case t.is(tokPunct, "."):
			return nil, newError(ErrCodeInvalid, g.sql, "unexpected '.'")
		case t.kind == tokName || t.is(tokPunct, "*"):
			id, err := g.identifier()
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, id)
		case t.kind == tokKeyword || t.kind == tokDML:
			g.pos++
			nodes = append(nodes, &Keyword{Value: t.value, DML: t.kind == tokDML})
		case t.kind == tokOperator:
			g.pos++
			nodes = append(nodes, &Operator{Value: t.value})
		default:
			g.pos++
			nodes = append(nodes, &Literal{Value: t.value})
		}
	}
}

func (g *grouper) identifier() (*Identifier, error) {
	t := g.toks[g.pos]
	g.pos++
	if t.is(tokPunct, "*") {
		return &Identifier{Wildcard: true}, nil
	}

	id := &Identifier{Name: t.value}
	if next, ok := g.peek(); ok && next.is(tokPunct, ".") {
		g.pos++
		part, ok := g.peek()
		switch {
		case ok && part.is(tokPunct, "*"):
			g.pos++
			return &Identifier{Prefix: id.Name, Wildcard: true}, nil
		case ok && part.kind == tokName:
			g.pos++
			id.Prefix, id.Name = id.Name, part.value
		default:
			return nil, newError(ErrCodeInvalid, g.sql, "expected a name after %q", id.Name+".")
		}
	}

	next, ok := g.peek()
	switch {
	case ok && next.is(tokKeyword, "AS"):
		g.pos++
		alias, ok := g.peek()
		if !ok || alias.kind != tokName {
			return nil, newError(ErrCodeInvalid, g.sql, "expected an alias after AS")
		}
		g.pos++
		id.Alias = alias.value
	case ok && next.kind == tokName:
		g.pos++
		id.Alias = next.value
	}
	return id, nil
}

// groupWhere gathers the nodes following WHERE, up to the next clause
// keyword, into a Where node.
func groupWhere(nodes []Node) []Node {
	out := make([]Node, 0, len(nodes))
	for i := 0; i < len(nodes); i++ {
		if !isKeyword(nodes[i], "WHERE") {
			out = append(out, nodes[i])
			continue
		}
		j := i + 1
		for j < len(nodes) {
			if k, ok := nodes[j].(*Keyword); ok && whereEnd[k.Value] {
				break
			}
			j++
		}
		out = append(out, &Where{Items: groupComparisons(nodes[i+1 : j])})
		i = j - 1
	}
	return out
}

func groupComparisons(nodes []Node) []Node {
	var out []Node
	for i := 0; i < len(nodes); i++ {
		if i+2 < len(nodes) && isOperand(nodes[i]) && isOperand(nodes[i+2]) {
			if op, ok := nodes[i+1].(*Operator); ok {
				out = append(out, &Comparison{Left: nodes[i], Op: op.Value, Right: nodes[i+2]})
				i += 2
				continue
			}
		}
		out = append(out, nodes[i])
	}
	return out
}

func isOperand(n Node) bool {
	switch n.(type) {
	case *Identifier, *Literal, *Parenthesis:
		return true
	}
	return false
}

func isComma(n Node) bool {
	_, ok := n.(comma)
	return ok
}

// isBoundary reports whether n ends a list element. Aggregate function
// names stay inside their element.
func isBoundary(n Node) bool {
	switch n := n.(type) {
	case *Keyword:
		return !aggregateFuncs[n.Value]
	case *Where:
		return true
	}
	return false
}

// groupLists folds comma-separated runs of elements into IdentifierLists.
// An element is the run of nodes between commas and clause keywords.
func groupLists(nodes []Node) []Node {
	out := make([]Node, 0, len(nodes))
	var list *IdentifierList
	elemStart := 0
	for _, n := range nodes {
		switch {
		case isComma(n):
			if list == nil {
				list = &IdentifierList{Items: slices.Clone(out[elemStart:])}
				out = append(out[:elemStart], list)
			}
		case isBoundary(n):
			list = nil
			out = append(out, n)
			elemStart = len(out)
		case list != nil:
			list.Items = append(list.Items, n)
		default:
			out = append(out, n)
		}
	}
	return out
}
