package automaton

import (
	"testing"

	"github.com/nihei9/weft/grammar/lexical/symbolset"
)

func TestAcceptAction_Outranks(t *testing.T) {
	tests := []struct {
		caption string
		winner  AcceptAction
		loser   AcceptAction
	}{
		{
			caption: "a language-aware action outranks a bare one",
			winner:  AcceptAction{Symbol: 9, Kind: UnitLexer, Language: true},
			loser:   AcceptAction{Symbol: 1},
		},
		{
			caption: "a weak symbol outranks a strong one",
			winner:  AcceptAction{Symbol: 9, Kind: UnitWeakKeywords, Weak: true, Language: true},
			loser:   AcceptAction{Symbol: 1, Kind: UnitLexer, Language: true},
		},
		{
			caption: "keywords outrank plain lexer symbols",
			winner:  AcceptAction{Symbol: 9, Kind: UnitKeywords, Language: true},
			loser:   AcceptAction{Symbol: 1, Kind: UnitLexer, Language: true},
		},
		{
			caption: "lexer symbols outrank ignored symbols",
			winner:  AcceptAction{Symbol: 9, Kind: UnitLexer, Language: true},
			loser:   AcceptAction{Symbol: 1, Kind: UnitIgnore, Language: true},
		},
		{
			caption: "within one kind the earlier definition wins",
			winner:  AcceptAction{Symbol: 1, Kind: UnitLexer, Language: true},
			loser:   AcceptAction{Symbol: 2, Kind: UnitLexer, Language: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			if !tt.winner.Outranks(tt.loser) {
				t.Fatalf("%v must outrank %v", tt.winner, tt.loser)
			}
			if tt.loser.Outranks(tt.winner) {
				t.Fatalf("%v must not outrank %v", tt.loser, tt.winner)
			}
		})
	}
}

// run drives a DFA over the text and reports the accept action of the
// state it ends in.
func run(t *testing.T, d *DFA, text string) (AcceptAction, bool) {
	t.Helper()
	tr := d.Translator()
	s := StateIDStart
	for _, c := range text {
		set := tr.SetOf(c)
		if set == symbolset.SetIDNil {
			return AcceptAction{}, false
		}
		s = d.Next(s, set)
		if s < 0 {
			return AcceptAction{}, false
		}
	}
	return d.AcceptOf(s)
}

func compile(t *testing.T, build func(b *Builder)) *DFA {
	t.Helper()
	n := NewNFA()
	b := n.Builder()
	build(b)
	d, err := n.WithUniqueSymbols().ToDFA()
	if err != nil {
		t.Fatal(err)
	}
	return d.Minimize().MergeSymbols()
}

func TestNFA_Alternation(t *testing.T) {
	// a|b
	d := compile(t, func(b *Builder) {
		b.Push()
		b.TransitRune('a')
		if err := b.BeginOr(); err != nil {
			t.Fatal(err)
		}
		b.TransitRune('b')
		if err := b.Pop(); err != nil {
			t.Fatal(err)
		}
		b.Accept(AcceptAction{Symbol: 1, Kind: UnitLexer, Language: true})
	})

	for _, text := range []string{"a", "b"} {
		if _, ok := run(t, d, text); !ok {
			t.Errorf("%#v must be accepted", text)
		}
	}
	for _, text := range []string{"c", "ab", ""} {
		if _, ok := run(t, d, text); ok {
			t.Errorf("%#v must be rejected", text)
		}
	}
}

func TestNFA_Repetition(t *testing.T) {
	// a*b
	d := compile(t, func(b *Builder) {
		b.Push()
		b.TransitRune('a')
		if err := b.Pop(); err != nil {
			t.Fatal(err)
		}
		b.RepeatOptional()
		b.TransitRune('b')
		b.Accept(AcceptAction{Symbol: 1, Kind: UnitLexer, Language: true})
	})

	for _, text := range []string{"b", "ab", "aaab"} {
		if _, ok := run(t, d, text); !ok {
			t.Errorf("%#v must be accepted", text)
		}
	}
	for _, text := range []string{"a", "ba", "aab a"} {
		if _, ok := run(t, d, text); ok {
			t.Errorf("%#v must be rejected", text)
		}
	}
}

func TestNFA_CaseInsensitiveLiteral(t *testing.T) {
	d := compile(t, func(b *Builder) {
		b.SetCaseInsensitive(true)
		b.TransitLiteral("if")
		b.Accept(AcceptAction{Symbol: 1, Kind: UnitKeywords, Language: true})
	})

	for _, text := range []string{"if", "IF", "If", "iF"} {
		if _, ok := run(t, d, text); !ok {
			t.Errorf("%#v must be accepted", text)
		}
	}
	if _, ok := run(t, d, "i"); ok {
		t.Errorf("a prefix must be rejected")
	}
}

func TestDFA_AcceptPriority(t *testing.T) {
	// The keyword and the identifier both match "if"; the keyword must
	// win, and the identifier must survive as an overridden action.
	n := NewNFA()
	b := n.Builder()
	b.Push()
	b.TransitLiteral("if")
	if err := b.Pop(); err != nil {
		t.Fatal(err)
	}
	b.Accept(AcceptAction{Symbol: 2, Kind: UnitKeywords, Language: true})

	b.GotoState(StateIDStart, StateIDStart)
	b.Push()
	b.Push()
	b.TransitRange(symbolset.NewRange('a', 'z'+1))
	if err := b.Pop(); err != nil {
		t.Fatal(err)
	}
	b.Repeat()
	if err := b.Pop(); err != nil {
		t.Fatal(err)
	}
	b.Accept(AcceptAction{Symbol: 1, Kind: UnitLexer, Language: true})

	d, err := n.WithUniqueSymbols().ToDFA()
	if err != nil {
		t.Fatal(err)
	}
	d = d.Minimize().MergeSymbols()

	act, ok := run(t, d, "if")
	if !ok {
		t.Fatal("\"if\" must be accepted")
	}
	if act.Symbol != 2 {
		t.Fatalf("the keyword must win; got symbol %v", act.Symbol)
	}

	act, ok = run(t, d, "iffy")
	if !ok {
		t.Fatal("\"iffy\" must be accepted")
	}
	if act.Symbol != 1 {
		t.Fatalf("only the identifier matches \"iffy\"; got symbol %v", act.Symbol)
	}
}

func TestDFA_MergeSymbols(t *testing.T) {
	// Every lower-case letter behaves identically, so after merging the
	// automaton needs just one symbol set.
	d := compile(t, func(b *Builder) {
		b.TransitRange(symbolset.NewRange('a', 'z'+1))
		b.Accept(AcceptAction{Symbol: 1, Kind: UnitLexer, Language: true})
	})
	if d.Symbols().Count() != 1 {
		t.Fatalf("unexpected set count; want: 1, got: %v", d.Symbols().Count())
	}

	// Sets leading to different accept states must stay apart.
	d = compile(t, func(b *Builder) {
		b.Push()
		b.TransitRune('a')
		if err := b.Pop(); err != nil {
			t.Fatal(err)
		}
		b.Accept(AcceptAction{Symbol: 1, Kind: UnitLexer, Language: true})
		b.GotoState(StateIDStart, StateIDStart)
		b.Push()
		b.TransitRune('0')
		if err := b.Pop(); err != nil {
			t.Fatal(err)
		}
		b.Accept(AcceptAction{Symbol: 2, Kind: UnitLexer, Language: true})
	})
	if d.Symbols().Count() != 2 {
		t.Fatalf("unexpected set count; want: 2, got: %v", d.Symbols().Count())
	}
}

func TestDFA_Determinism(t *testing.T) {
	// Building the same automaton twice must yield identical state and
	// symbol numbering.
	build := func() *DFA {
		return compile(t, func(b *Builder) {
			b.Push()
			b.TransitLiteral("for")
			if err := b.BeginOr(); err != nil {
				t.Fatal(err)
			}
			b.TransitLiteral("foreach")
			if err := b.BeginOr(); err != nil {
				t.Fatal(err)
			}
			b.TransitRange(symbolset.NewRange('a', 'z'+1))
			if err := b.Pop(); err != nil {
				t.Fatal(err)
			}
			b.Accept(AcceptAction{Symbol: 1, Kind: UnitLexer, Language: true})
		})
	}
	d1 := build()
	d2 := build()
	if d1.CountStates() != d2.CountStates() {
		t.Fatalf("state counts differ: %v vs %v", d1.CountStates(), d2.CountStates())
	}
	if d1.Symbols().Count() != d2.Symbols().Count() {
		t.Fatalf("symbol counts differ: %v vs %v", d1.Symbols().Count(), d2.Symbols().Count())
	}
	for s := 0; s < d1.CountStates(); s++ {
		sets1 := d1.Transitions(StateID(s))
		sets2 := d2.Transitions(StateID(s))
		if len(sets1) != len(sets2) {
			t.Fatalf("transition counts differ in state %v", s)
		}
		for i, set := range sets1 {
			if set != sets2[i] || d1.Next(StateID(s), set) != d2.Next(StateID(s), set) {
				t.Fatalf("transitions differ in state %v", s)
			}
		}
	}
}
