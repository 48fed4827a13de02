package query

import (
	"fmt"
	"regexp"
	"strings"
)

// Target is anything that can be matched by a query.
// QueryValues returns the values of the given attribute and whether the
// attribute applies to the target at all. The empty attribute is the default
// one that bare terms are matched against.
type Target interface {
	QueryValues(attr string) ([]string, bool)
}

// Evaluator matches a parsed expression against targets.
// Compiled regular expressions are cached, so an Evaluator is not safe for
// concurrent use.
type Evaluator struct {
	expr       Expression
	regexCache map[string]*regexp.Regexp
}

func NewEvaluator(expr Expression) *Evaluator {
	return &Evaluator{
		expr:       expr,
		regexCache: make(map[string]*regexp.Regexp),
	}
}

// Matches reports whether t matches the evaluator's expression.
func (ev *Evaluator) Matches(t Target) (bool, error) {
	return ev.eval(t, ev.expr)
}

func (ev *Evaluator) eval(t Target, expr Expression) (bool, error) {
	switch e := expr.(type) {
	case *Term:
		values, _ := t.QueryValues("")
		return ev.anyMatches(values, ":", e.Value)
	case *AttributeTerm:
		values, ok := t.QueryValues(strings.ToLower(e.Attribute))
		if !ok {
			return false, nil
		}
		return ev.anyMatches(values, e.Operator, e.Value)
	case *NotExpression:
		m, err := ev.eval(t, e.Expression)
		return !m && err == nil, err
	case *BinaryExpression:
		left, err := ev.eval(t, e.Left)
		if err != nil {
			return false, err
		}
		if e.Operator == "AND" && !left || e.Operator == "OR" && left {
			return left, nil
		}
		return ev.eval(t, e.Right)
	}
	return false, fmt.Errorf("unsupported expression type %T", expr)
}

func (ev *Evaluator) anyMatches(values []string, op, query string) (bool, error) {
	for _, v := range values {
		switch op {
		case ":":
			if strings.Contains(strings.ToLower(v), strings.ToLower(query)) {
				return true, nil
			}
		case "~":
			re, err := ev.regex(query)
			if err != nil {
				return false, err
			}
			if re.MatchString(v) {
				return true, nil
			}
		default:
			return false, fmt.Errorf("unsupported operator %q", op)
		}
	}
	return false, nil
}

func (ev *Evaluator) regex(expr string) (*regexp.Regexp, error) {
	if re, ok := ev.regexCache[expr]; ok {
		return re, nil
	}
	re, err := regexp.Compile("(?i)" + expr)
	if err != nil {
		return nil, fmt.Errorf("invalid regular expression %q: %w", expr, err)
	}
	ev.regexCache[expr] = re
	return re, nil
}

// Filter returns the items matching q, in their original order.
// An empty (or all-whitespace) query matches everything.
func Filter[T Target](q string, items []T) ([]T, error) {
	if strings.TrimSpace(q) == "" {
		return items, nil
	}
	expr, err := Parse(q)
	if err != nil {
		return nil, err
	}
	ev := NewEvaluator(expr)
	var out []T
	for _, it := range items {
		ok, err := ev.Matches(it)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, it)
		}
	}
	return out, nil
}
