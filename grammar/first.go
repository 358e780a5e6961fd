package grammar

import (
	"fmt"

	"github.com/nihei9/weft/grammar/symbol"
)

type firstEntry struct {
	symbols map[symbol.Symbol]struct{}
	empty   bool
}

func newFirstEntry() *firstEntry {
	return &firstEntry{
		symbols: map[symbol.Symbol]struct{}{},
	}
}

func (e *firstEntry) add(sym symbol.Symbol) bool {
	if _, ok := e.symbols[sym]; ok {
		return false
	}
	e.symbols[sym] = struct{}{}
	return true
}

func (e *firstEntry) addEmpty() bool {
	if !e.empty {
		e.empty = true
		return true
	}
	return false
}

func (e *firstEntry) mergeExceptEmpty(target *firstEntry) bool {
	if target == nil {
		return false
	}
	changed := false
	for sym := range target.symbols {
		if e.add(sym) {
			changed = true
		}
	}
	return changed
}

// firstSet holds the FIRST sets of the nonterminals. A guard symbol has
// the FIRST set of its body plus the empty string, because a guard
// inspects the upcoming input without consuming any of it.
type firstSet struct {
	set    map[symbol.Symbol]*firstEntry
	guards map[symbol.Symbol]symbol.Symbol
}

func newFirstSet(prods *productionSet, guards map[symbol.Symbol]symbol.Symbol) *firstSet {
	fst := &firstSet{
		set:    map[symbol.Symbol]*firstEntry{},
		guards: guards,
	}
	for _, prod := range prods.getAllProductions() {
		if _, ok := fst.set[prod.lhs]; ok {
			continue
		}
		fst.set[prod.lhs] = newFirstEntry()
	}
	return fst
}

// find computes the FIRST set of the tail of a production starting at
// position head.
func (fst *firstSet) find(prod *production, head int) (*firstEntry, error) {
	entry := newFirstEntry()
	if prod.rhsLen <= head {
		entry.addEmpty()
		return entry, nil
	}
	for _, sym := range prod.rhs[head:] {
		e, err := fst.findBySymbol(sym)
		if err != nil {
			return nil, err
		}
		entry.mergeExceptEmpty(e)
		if !e.empty {
			return entry, nil
		}
	}
	entry.addEmpty()
	return entry, nil
}

func (fst *firstSet) findBySymbol(sym symbol.Symbol) (*firstEntry, error) {
	if sym.IsTerminal() {
		e := newFirstEntry()
		e.add(sym)
		return e, nil
	}
	if body, ok := fst.guards[sym]; ok {
		base, err := fst.findBySymbol(body)
		if err != nil {
			return nil, err
		}
		e := newFirstEntry()
		e.mergeExceptEmpty(base)
		e.addEmpty()
		return e, nil
	}
	if sym.IsEOG() {
		// The end-of-guard marker stands for itself: reductions inside a
		// guard sub-automaton are keyed by it, and the guard runtime
		// injects it once the guarded language is complete.
		e := newFirstEntry()
		e.add(symbol.SymbolEOG)
		return e, nil
	}
	e, ok := fst.set[sym]
	if !ok {
		return nil, fmt.Errorf("an entry of FIRST was not found; symbol: %v", sym)
	}
	return e, nil
}

func genFirstSet(prods *productionSet, guards map[symbol.Symbol]symbol.Symbol) (*firstSet, error) {
	fst := newFirstSet(prods, guards)
	for {
		more := false
		for _, prod := range prods.getAllProductions() {
			acc := fst.set[prod.lhs]
			changed, err := genProdFirstEntry(fst, acc, prod)
			if err != nil {
				return nil, err
			}
			if changed {
				more = true
			}
		}
		if !more {
			break
		}
	}
	return fst, nil
}

func genProdFirstEntry(fst *firstSet, acc *firstEntry, prod *production) (bool, error) {
	if prod.isEmpty() {
		return acc.addEmpty(), nil
	}

	changed := false
	for _, sym := range prod.rhs {
		e, err := fst.findBySymbol(sym)
		if err != nil {
			return false, err
		}
		if acc.mergeExceptEmpty(e) {
			changed = true
		}
		if !e.empty {
			return changed, nil
		}
	}
	if acc.addEmpty() {
		changed = true
	}
	return changed, nil
}
