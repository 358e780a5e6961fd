package parser

import (
	"testing"

	"github.com/nihei9/weft/grammar/lexical/automaton"
	"github.com/nihei9/weft/grammar/lexical/symbolset"
)

type testExpressionTable map[string][]ExpressionItem

func (t testExpressionTable) Expressions(name string) []ExpressionItem {
	return t[name]
}

// compileDFA compiles a single pattern into a runnable DFA.
func compileDFA(t *testing.T, pattern string, table ExpressionTable) *automaton.DFA {
	t.Helper()
	n := automaton.NewNFA()
	b := n.Builder()
	b.Push()
	err := NewCompiler(table).Compile(b, pattern)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Pop(); err != nil {
		t.Fatal(err)
	}
	b.Accept(automaton.AcceptAction{Symbol: 1, Kind: automaton.UnitLexer, Language: true})
	d, err := n.WithUniqueSymbols().ToDFA()
	if err != nil {
		t.Fatal(err)
	}
	return d.Minimize().MergeSymbols()
}

func matches(d *automaton.DFA, text string) bool {
	tr := d.Translator()
	s := automaton.StateIDStart
	for _, c := range text {
		set := tr.SetOf(c)
		if set == symbolset.SetIDNil {
			return false
		}
		s = d.Next(s, set)
		if s < 0 {
			return false
		}
	}
	_, ok := d.AcceptOf(s)
	return ok
}

func TestCompile(t *testing.T) {
	tests := []struct {
		pattern  string
		table    testExpressionTable
		accepted []string
		rejected []string
	}{
		{
			pattern:  "a|b",
			accepted: []string{"a", "b"},
			rejected: []string{"", "c", "ab"},
		},
		{
			pattern:  "ab*c",
			accepted: []string{"ac", "abc", "abbbc"},
			rejected: []string{"a", "abb", "bc"},
		},
		{
			pattern:  "(ab)+",
			accepted: []string{"ab", "abab"},
			rejected: []string{"", "a", "aba"},
		},
		{
			pattern:  "colou?r",
			accepted: []string{"color", "colour"},
			rejected: []string{"colouur"},
		},
		{
			pattern:  "a{2,4}",
			accepted: []string{"aa", "aaa", "aaaa"},
			rejected: []string{"a", "aaaaa"},
		},
		{
			pattern:  "a{3}",
			accepted: []string{"aaa"},
			rejected: []string{"aa", "aaaa"},
		},
		{
			pattern:  "a{2,}",
			accepted: []string{"aa", "aaaaaa"},
			rejected: []string{"a"},
		},
		{
			pattern:  "[a-c0-2]+",
			accepted: []string{"a", "c120", "abc"},
			rejected: []string{"d", "3", ""},
		},
		{
			pattern:  "[^a-z]",
			accepted: []string{"0", "A", " "},
			rejected: []string{"a", "q", ""},
		},
		{
			pattern:  `\d+(\.\d+)?`,
			accepted: []string{"0", "42", "3.14"},
			rejected: []string{".5", "1.", "x"},
		},
		{
			pattern:  `.`,
			accepted: []string{"a", "0", "£"},
			rejected: []string{"\n", ""},
		},
		{
			pattern:  `\u{3042}`,
			accepted: []string{"あ"},
			rejected: []string{"a"},
		},
		{
			// Token patterns are implicitly anchored; explicit anchors
			// are accepted and consume nothing.
			pattern:  "^ab$",
			accepted: []string{"ab"},
			rejected: []string{"a", "abx"},
		},
		{
			pattern:  "(?i)select",
			accepted: []string{"select", "SELECT", "Select"},
			rejected: []string{"selec"},
		},
		{
			pattern: "{digit}+",
			table: testExpressionTable{
				"digit": {{Pattern: "[0-9]"}},
			},
			accepted: []string{"7", "42"},
			rejected: []string{"x", ""},
		},
		{
			// An unresolved reference matches its own text.
			pattern:  "{undefined}",
			accepted: []string{"undefined"},
			rejected: []string{"defined"},
		},
		{
			pattern: "{id_head}{id_tail}*",
			table: testExpressionTable{
				"id_head": {{Pattern: "[a-z_]"}},
				"id_tail": {{Pattern: "[a-z0-9_]"}},
			},
			accepted: []string{"x", "foo_bar9"},
			rejected: []string{"9x", ""},
		},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			d := compileDFA(t, tt.pattern, tt.table)
			for _, text := range tt.accepted {
				if !matches(d, text) {
					t.Errorf("%#v must match %#v", tt.pattern, text)
				}
			}
			for _, text := range tt.rejected {
				if matches(d, text) {
					t.Errorf("%#v must not match %#v", tt.pattern, text)
				}
			}
		})
	}
}

func TestParse_SyntaxError(t *testing.T) {
	tests := []struct {
		pattern string
		pos     int
	}{
		{pattern: "", pos: 0},
		{pattern: "*", pos: 0},
		{pattern: "a|", pos: 2},
		{pattern: "|a", pos: 0},
		{pattern: "(a", pos: 2},
		{pattern: "a)", pos: 1},
		{pattern: "()", pos: 1},
		{pattern: "[", pos: 1},
		{pattern: "[]", pos: 2},
		{pattern: "[z-a]", pos: 4},
		{pattern: "a{2,1}", pos: 5},
		{pattern: "a{2,x", pos: 4},
		{pattern: "{}", pos: 1},
		{pattern: "{name", pos: 5},
		{pattern: `a\`, pos: 2},
		{pattern: `\q`, pos: 1},
		{pattern: `\u{}`, pos: 3},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			_, _, err := Parse(tt.pattern)
			if err == nil {
				t.Fatalf("%#v must fail", tt.pattern)
			}
			synErr, ok := err.(*SyntaxError)
			if !ok {
				t.Fatalf("unexpected error type: %T", err)
			}
			if synErr.Pos != tt.pos {
				t.Fatalf("unexpected position; want: %v, got: %v (%v)", tt.pos, synErr.Pos, synErr)
			}
		})
	}
}

func TestCompile_ReferenceCycle(t *testing.T) {
	table := testExpressionTable{
		"a": {{Pattern: "{b}"}},
		"b": {{Pattern: "{a}"}},
	}
	n := automaton.NewNFA()
	b := n.Builder()
	err := NewCompiler(table).Compile(b, "{a}")
	if err == nil {
		t.Fatal("a reference cycle must fail")
	}
}
