package symbol

import (
	"testing"
)

func TestSymbolTable(t *testing.T) {
	tab := NewSymbolTable()
	w := tab.Writer()
	r := tab.Reader()

	termA, err := w.RegisterTerminalSymbol("a")
	if err != nil {
		t.Fatal(err)
	}
	termB, err := w.RegisterTerminalSymbol("b")
	if err != nil {
		t.Fatal(err)
	}
	nonTermS, err := w.RegisterNonTerminalSymbol("S")
	if err != nil {
		t.Fatal(err)
	}

	if !termA.IsTerminal() || termA.IsNonTerminal() {
		t.Fatal("a registered terminal must be a terminal")
	}
	if !nonTermS.IsNonTerminal() || nonTermS.IsTerminal() {
		t.Fatal("a registered nonterminal must be a nonterminal")
	}

	// Registration is idempotent.
	again, err := w.RegisterTerminalSymbol("a")
	if err != nil {
		t.Fatal(err)
	}
	if again != termA {
		t.Fatal("re-registering a name must return the same symbol")
	}

	// Numbers are dense and start after the reserved entries.
	if termA.Num() != 2 || termB.Num() != 3 {
		t.Fatalf("unexpected terminal numbers: %v, %v", termA.Num(), termB.Num())
	}
	if nonTermS.Num() != 2 {
		t.Fatalf("unexpected nonterminal number: %v", nonTermS.Num())
	}

	if sym, ok := r.ToSymbol("b"); !ok || sym != termB {
		t.Fatal("lookup by name failed")
	}
	if text, ok := r.ToText(nonTermS); !ok || text != "S" {
		t.Fatal("lookup by symbol failed")
	}

	texts := r.TerminalTexts()
	if texts[termA.Num().Int()] != "a" || texts[termB.Num().Int()] != "b" {
		t.Fatalf("unexpected terminal texts: %v", texts)
	}
}

func TestReservedSymbols(t *testing.T) {
	if !SymbolEOF.IsTerminal() || !SymbolEOF.IsEOF() {
		t.Fatal("EOF must be a terminal")
	}
	if !SymbolEOG.IsNonTerminal() || !SymbolEOG.IsEOG() {
		t.Fatal("the end-of-guard marker must be a nonterminal")
	}
	if SymbolNil.IsTerminal() || SymbolNil.IsNonTerminal() || !SymbolNil.IsNil() {
		t.Fatal("the nil symbol must be neither kind")
	}

	tab := NewSymbolTable()
	r := tab.Reader()
	if sym, ok := r.ToSymbol("<eof>"); !ok || sym != SymbolEOF {
		t.Fatal("the EOF entry must be reserved")
	}
	if sym, ok := r.ToSymbol("<eog>"); !ok || sym != SymbolEOG {
		t.Fatal("the end-of-guard entry must be reserved")
	}
}
