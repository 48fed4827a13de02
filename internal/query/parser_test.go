package query

import (
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"single term", "pika", "pika"},
		{"attribute term", "type:fire", "type:fire"},
		{"regex term", "name~^char", "name~^char"},
		{"quoted value", "name:'mr mime'", "name:'mr mime'"},
		{"double quoted term", `"mr mime"`, "'mr mime'"},
		{"explicit AND", "a AND b", "(a AND b)"},
		{"implicit AND", "a b", "(a AND b)"},
		{"OR", "a OR b", "(a OR b)"},
		{"AND binds tighter than OR", "a OR b c", "(a OR (b AND c))"},
		{"left associative", "a b c", "((a AND b) AND c)"},
		{"negation", "!type:water", "!type:water"},
		{"double negation", "!!a", "!!a"},
		{"group", "(a OR b) c", "((a OR b) AND c)"},
		{"negated group", "!(a OR b)", "!(a OR b)"},
		{"extra whitespace", "  a \t  b  ", "(a AND b)"},
		{"hyphenated names", "ho-oh", "ho-oh"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			expr, err := Parse(tc.input)
			if err != nil {
				t.Fatalf("Parse(%q) failed: %v", tc.input, err)
			}
			if got := expr.String(); got != tc.expected {
				t.Errorf("Parse(%q) = %q, want %q", tc.input, got, tc.expected)
			}
			// The string form must parse back to the same tree.
			again, err := Parse(expr.String())
			if err != nil {
				t.Fatalf("Parse(%q) of String() form failed: %v", expr.String(), err)
			}
			if again.String() != expr.String() {
				t.Errorf("round trip: %q != %q", again.String(), expr.String())
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	testCases := []struct {
		input   string
		wantMsg string
	}{
		{"", "unexpected end of input"},
		{"(a OR b", "expected ')'"},
		{"a)", "unexpected ')'"},
		{"type:", "expected value after type:"},
		{"a OR", "unexpected end of input"},
		{"name:'unterminated", "illegal character"},
		{"!", "unexpected end of input"},
	}
	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			_, err := Parse(tc.input)
			if err == nil {
				t.Fatalf("Parse(%q) succeeded, want error", tc.input)
			}
			if !strings.Contains(err.Error(), tc.wantMsg) {
				t.Errorf("Parse(%q) error = %q, want it to contain %q", tc.input, err, tc.wantMsg)
			}
		})
	}
}
