package lexical

import (
	"testing"

	verr "github.com/nihei9/weft/error"
	"github.com/nihei9/weft/grammar/lexical/automaton"
	spec "github.com/nihei9/weft/spec/grammar"
)

// Terminal numbers used throughout: 2 = identifier, 3 = the weak keyword
// "if", 4 = a lexer symbol that can never win.
func testEntries() []*LexEntry {
	return []*LexEntry{
		{
			Symbol: 3,
			Name:   "if",
			Kind:   automaton.UnitWeakKeywords,
			Weak:   true,

			Pattern: "if",
			Literal: true,
		},
		{
			Symbol:  2,
			Name:    "identifier",
			Kind:    automaton.UnitLexer,
			Pattern: "[a-z]+",
		},
		{
			Symbol: 4,
			Name:   "shadowed",
			Kind:   automaton.UnitLexer,

			// Identical to identifier, so identifier always wins.
			Pattern: "[a-z]+",
		},
	}
}

func TestCompile_WeakClash(t *testing.T) {
	d, err, cerrs := Compile(&LexSpec{Entries: testEntries()})
	if err != nil {
		t.Fatalf("%v (%v)", err, cerrs)
	}

	pairs, err := AugmentWeakSymbols(d, func(weak, strong int) (int, error) {
		return 10, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(pairs) != 1 {
		t.Fatalf("unexpected pair count; want: 1, got: %v", len(pairs))
	}
	p := pairs[0]
	if p.Parallel != 10 || p.Weak != 3 || p.Strong != 2 {
		t.Fatalf("unexpected pair: %+v", p)
	}

	lexSpec, err := Finish(d, pairs, 11, "", 0)
	if err != nil {
		t.Fatal(err)
	}
	if lexSpec.WeakOf[10] != 3 || lexSpec.StrongOf[10] != 2 {
		t.Fatalf("the pair tables must resolve the parallel terminal; got: %v / %v", lexSpec.WeakOf[10], lexSpec.StrongOf[10])
	}

	// The state accepting "if" must emit the parallel terminal, and a
	// longer identifier must stay an identifier.
	if got := runLexTables(t, lexSpec, "if"); got != 10 {
		t.Fatalf("\"if\" must yield the parallel terminal; got: %v", got)
	}
	if got := runLexTables(t, lexSpec, "iffy"); got != 2 {
		t.Fatalf("\"iffy\" must yield the identifier; got: %v", got)
	}
}

func TestCheckGenerated(t *testing.T) {
	entries := testEntries()
	d, err, cerrs := Compile(&LexSpec{Entries: entries})
	if err != nil {
		t.Fatalf("%v (%v)", err, cerrs)
	}

	diags := &verr.DiagnosticList{}
	CheckGenerated(d, entries, diags)

	var sawNeverGenerated, sawClash bool
	for _, diag := range diags.All() {
		switch diag.Code {
		case CodeSymbolCannotBeGenerated:
			sawNeverGenerated = true
		case CodeSymbolClashesWith:
			sawClash = true
		}
	}
	if !sawNeverGenerated {
		t.Error("the shadowed symbol must be reported as never generated")
	}
	if !sawClash {
		t.Error("the winner must be reported as the clashing symbol")
	}
}

func TestFinish_RowKindsAgree(t *testing.T) {
	for _, tt := range []struct {
		rowKind spec.RowKind
		compLv  int
	}{
		{rowKind: spec.RowKindFlat},
		{rowKind: spec.RowKindCompact},
		{rowKind: spec.RowKindFlat, compLv: 1},
		{rowKind: spec.RowKindFlat, compLv: 2},
	} {
		d, err, cerrs := Compile(&LexSpec{Entries: testEntries()})
		if err != nil {
			t.Fatalf("%v (%v)", err, cerrs)
		}
		lexSpec, err := Finish(d, nil, 5, tt.rowKind, tt.compLv)
		if err != nil {
			t.Fatal(err)
		}

		for _, text := range []string{"if", "iffy", "x"} {
			if got, want := runLexTables(t, lexSpec, text), 0; got == want {
				t.Errorf("%v/%v: %#v must be accepted", tt.rowKind, tt.compLv, text)
			}
		}
	}
}

// runLexTables drives the rendered tables directly and returns the
// accepted terminal, or 0 when the text is rejected.
func runLexTables(t *testing.T, lexSpec *spec.LexicalSpec, text string) int {
	t.Helper()
	state := lexSpec.InitialState
	for _, c := range text {
		set := -1
		for _, e := range lexSpec.Translator {
			if int(c) >= e.Lower && int(c) < e.Upper {
				set = e.Set
				break
			}
		}
		if set < 0 {
			return 0
		}

		next := spec.StateIDNil
		switch {
		case lexSpec.Compressed != nil:
			tab := lexSpec.Compressed
			rowNum := tab.RowNums[state]
			if tab.UncompressedUniqueEntries != nil {
				next = tab.UncompressedUniqueEntries[rowNum*tab.OriginalColCount+set]
			} else {
				rd := tab.UniqueEntries
				pos := rd.RowDisplacement[rowNum] + set
				if pos >= 0 && pos < len(rd.Entries) && rd.Bounds[pos] == rowNum {
					next = rd.Entries[pos]
				} else {
					next = rd.EmptyValue
				}
			}
		case lexSpec.RowKind == spec.RowKindFlat:
			next = lexSpec.FlatRows[state*lexSpec.SetCount+set]
		default:
			for _, e := range lexSpec.CompactRows[state] {
				if e.Set == set {
					next = e.Next
					break
				}
			}
		}
		if next == spec.StateIDNil {
			return 0
		}
		state = next
	}
	return lexSpec.Accepts[state]
}
