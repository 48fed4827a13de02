// Package query implements the search language used to filter lists in the UI.
//
// Grammar (whitespace-separated terms are implicitly AND-ed; AND binds tighter than OR):
//
//	expr    = and { "OR" and }
//	and     = unary { ["AND"] unary }
//	unary   = "!" unary | primary
//	primary = "(" expr ")" | value | ident (":" | "~") value
//	value   = ident | quoted
//
// A bare value matches the default attribute by substring, attr:value matches
// attribute attr by substring and attr~re by case-insensitive regular expression.
package query

import (
	"fmt"
	"strings"
	"unicode"
)

type Expression interface {
	String() string
}

// Term matches the default attribute of a target.
type Term struct {
	Value string
}

func (t *Term) String() string {
	return quoteIfNeeded(t.Value)
}

// AttributeTerm matches a named attribute, e.g. type:fire or name~^char.
type AttributeTerm struct {
	Attribute string
	Operator  string // ":" or "~"
	Value     string
}

func (a *AttributeTerm) String() string {
	return a.Attribute + a.Operator + quoteIfNeeded(a.Value)
}

type NotExpression struct {
	Expression Expression
}

func (n *NotExpression) String() string {
	return "!" + n.Expression.String()
}

type BinaryExpression struct {
	Left     Expression
	Operator string // "AND" or "OR"
	Right    Expression
}

func (b *BinaryExpression) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left, b.Operator, b.Right)
}

func quoteIfNeeded(s string) string {
	if s == "" || strings.ContainsFunc(s, func(r rune) bool { return unicode.IsSpace(r) || isSpecial(r) }) {
		return "'" + s + "'"
	}
	return s
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokString
	tokAnd
	tokOr
	tokNot
	tokLParen
	tokRParen
	tokColon
	tokTilde
	tokIllegal
)

var tokenNames = map[tokenKind]string{
	tokEOF:     "end of input",
	tokIdent:   "identifier",
	tokString:  "string",
	tokAnd:     "AND",
	tokOr:      "OR",
	tokNot:     "'!'",
	tokLParen:  "'('",
	tokRParen:  "')'",
	tokColon:   "':'",
	tokTilde:   "'~'",
	tokIllegal: "illegal character",
}

func (k tokenKind) String() string {
	return tokenNames[k]
}

type token struct {
	kind tokenKind
	text string
}

func isSpecial(r rune) bool {
	return strings.ContainsRune("()!:~'\"", r)
}

// tokenize splits input into tokens. The returned slice always ends with tokEOF.
func tokenize(input string) []token {
	rs := []rune(input)
	var toks []token
	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '(':
			toks = append(toks, token{tokLParen, "("})
			i++
		case r == ')':
			toks = append(toks, token{tokRParen, ")"})
			i++
		case r == '!':
			toks = append(toks, token{tokNot, "!"})
			i++
		case r == ':':
			toks = append(toks, token{tokColon, ":"})
			i++
		case r == '~':
			toks = append(toks, token{tokTilde, "~"})
			i++
		case r == '\'' || r == '"':
			j := i + 1
			for j < len(rs) && rs[j] != r {
				j++
			}
			if j == len(rs) {
				toks = append(toks, token{tokIllegal, string(rs[i:])})
				i = j
				continue
			}
			toks = append(toks, token{tokString, string(rs[i+1 : j])})
			i = j + 1
		default:
			j := i
			for j < len(rs) && !unicode.IsSpace(rs[j]) && !isSpecial(rs[j]) {
				j++
			}
			word := string(rs[i:j])
			switch word {
			case "AND":
				toks = append(toks, token{tokAnd, word})
			case "OR":
				toks = append(toks, token{tokOr, word})
			default:
				toks = append(toks, token{tokIdent, word})
			}
			i = j
		}
	}
	return append(toks, token{kind: tokEOF})
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

// Parse parses a query string into an expression tree.
func Parse(input string) (Expression, error) {
	p := &parser{toks: tokenize(input)}
	expr, err := p.parseOr()
	if err != nil {
		return nil, fmt.Errorf("invalid query %q: %w", input, err)
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, fmt.Errorf("invalid query %q: unexpected %s", input, t.kind)
	}
	return expr, nil
}

func (p *parser) parseOr() (Expression, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokOr {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpression{Left: left, Operator: "OR", Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Expression, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.peek().kind {
		case tokAnd:
			p.next()
		case tokIdent, tokString, tokNot, tokLParen:
			// implicit AND
		default:
			return left, nil
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpression{Left: left, Operator: "AND", Right: right}
	}
}

func (p *parser) parseUnary() (Expression, error) {
	if p.peek().kind == tokNot {
		p.next()
		e, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &NotExpression{Expression: e}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Expression, error) {
	t := p.next()
	switch t.kind {
	case tokLParen:
		e, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if c := p.next(); c.kind != tokRParen {
			return nil, fmt.Errorf("expected ')' to close group, got %s", c.kind)
		}
		return e, nil
	case tokString:
		return &Term{Value: t.text}, nil
	case tokIdent:
		op := p.peek()
		if op.kind != tokColon && op.kind != tokTilde {
			return &Term{Value: t.text}, nil
		}
		p.next()
		v := p.next()
		if v.kind != tokIdent && v.kind != tokString {
			return nil, fmt.Errorf("expected value after %s%s, got %s", t.text, op.text, v.kind)
		}
		return &AttributeTerm{Attribute: t.text, Operator: op.text, Value: v.text}, nil
	}
	return nil, fmt.Errorf("unexpected %s", t.kind)
}
