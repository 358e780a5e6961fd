package lexer

import (
	"strings"
	"testing"

	spec "github.com/nihei9/weft/spec/grammar"
)

// numberOrWordSpec recognises integers (terminal 2) and words
// (terminal 3) over two symbol sets: set 0 = digits, set 1 = letters.
func numberOrWordSpec(rowKind spec.RowKind) *spec.LexicalSpec {
	s := &spec.LexicalSpec{
		SetCount: 2,
		Translator: []spec.TranslatorEntry{
			{Lower: '0', Upper: '9' + 1, Set: 0},
			{Lower: 'a', Upper: 'z' + 1, Set: 1},
		},
		RowKind:      rowKind,
		InitialState: 0,
		StateCount:   3,
		Accepts:      []int{0, 2, 3},
		WeakOf:       []int{0, 0, 0, 0},
		StrongOf:     []int{0, 0, 0, 0},
	}
	// state 0: digit→1, letter→2; state 1: digit→1; state 2: letter→2
	flat := []int{
		1, 2,
		1, spec.StateIDNil,
		spec.StateIDNil, 2,
	}
	switch rowKind {
	case spec.RowKindFlat:
		s.FlatRows = flat
	case spec.RowKindCompact:
		s.CompactRows = [][]spec.CompactEntry{
			{{Set: 0, Next: 1}, {Set: 1, Next: 2}},
			{{Set: 0, Next: 1}},
			{{Set: 1, Next: 2}},
		}
	}
	return s
}

func TestLexer_RowKinds(t *testing.T) {
	for _, rowKind := range []spec.RowKind{spec.RowKindFlat, spec.RowKindCompact} {
		t.Run(string(rowKind), func(t *testing.T) {
			l, err := NewLexer(numberOrWordSpec(rowKind), strings.NewReader("42abc7"))
			if err != nil {
				t.Fatal(err)
			}

			expected := []struct {
				terminal int
				lexeme   string
			}{
				{terminal: 2, lexeme: "42"},
				{terminal: 3, lexeme: "abc"},
				{terminal: 2, lexeme: "7"},
			}
			for _, e := range expected {
				tok, err := l.Next()
				if err != nil {
					t.Fatal(err)
				}
				if tok.Terminal != e.terminal || tok.Lexeme != e.lexeme {
					t.Fatalf("unexpected token; want: %v %#v, got: %v %#v", e.terminal, e.lexeme, tok.Terminal, tok.Lexeme)
				}
			}
			tok, err := l.Next()
			if err != nil {
				t.Fatal(err)
			}
			if !tok.EOF {
				t.Fatalf("expected EOF; got: %#v", tok.Lexeme)
			}
		})
	}
}

func TestLexer_InvalidInput(t *testing.T) {
	l, err := NewLexer(numberOrWordSpec(spec.RowKindFlat), strings.NewReader("12!?ab"))
	if err != nil {
		t.Fatal(err)
	}

	tok, err := l.Next()
	if err != nil {
		t.Fatal(err)
	}
	if tok.Terminal != 2 || tok.Lexeme != "12" {
		t.Fatalf("unexpected token: %+v", tok)
	}

	// The two unrecognisable code points fuse into one invalid token.
	tok, err = l.Next()
	if err != nil {
		t.Fatal(err)
	}
	if !tok.Invalid || tok.Lexeme != "!?" {
		t.Fatalf("unexpected token: %+v", tok)
	}

	tok, err = l.Next()
	if err != nil {
		t.Fatal(err)
	}
	if tok.Terminal != 3 || tok.Lexeme != "ab" {
		t.Fatalf("unexpected token: %+v", tok)
	}
}

func TestLexer_Positions(t *testing.T) {
	l, err := NewLexer(numberOrWordSpec(spec.RowKindFlat), strings.NewReader("ab\ncd"))
	if err != nil {
		t.Fatal(err)
	}

	tok, err := l.Next()
	if err != nil {
		t.Fatal(err)
	}
	if tok.Row != 0 || tok.Col != 0 {
		t.Fatalf("unexpected position: %v:%v", tok.Row, tok.Col)
	}

	// The newline is unrecognisable in this toy spec.
	tok, err = l.Next()
	if err != nil {
		t.Fatal(err)
	}
	if !tok.Invalid {
		t.Fatalf("unexpected token: %+v", tok)
	}

	tok, err = l.Next()
	if err != nil {
		t.Fatal(err)
	}
	if tok.Row != 1 || tok.Col != 0 {
		t.Fatalf("unexpected position: %v:%v", tok.Row, tok.Col)
	}
}
