package grammar

import (
	"fmt"
	"sort"

	"github.com/nihei9/weft/grammar/symbol"
	spec "github.com/nihei9/weft/spec/grammar"
)

type conflict interface {
	conflict()
}

type shiftReduceConflict struct {
	state     stateNum
	symNum    int
	nextState stateNum
	prodNum   productionNum
}

func (c *shiftReduceConflict) conflict() {
}

type reduceReduceConflict struct {
	state    stateNum
	symNum   int
	prodNum1 productionNum
	prodNum2 productionNum
}

func (c *reduceReduceConflict) conflict() {
}

var (
	_ conflict = &shiftReduceConflict{}
	_ conflict = &reduceReduceConflict{}
)

// guardInfo ties the three symbols of one guard together: the opaque
// symbol occupying the guard's slot in its host rule, the nonterminal
// recognising the guarded language, and the augmented start symbol of
// the guard sub-automaton.
type guardInfo struct {
	sym   symbol.Symbol
	body  symbol.Symbol
	start symbol.Symbol
}

type lrTableBuilder struct {
	automaton *lr0Automaton
	prods     *productionSet
	symTab    *symbol.SymbolTableReader
	first     *firstSet
	weak      map[symbol.Symbol]struct{}
	guards    []*guardInfo
	skip      map[symbol.Symbol]struct{}
	mainStart symbol.Symbol

	conflicts []conflict
}

// build emits the action rows of every state. For one symbol a state may
// own several rows; the runtime tries them in order, so the emission
// order encodes the resolution policy: guard checks first, then shifts,
// then weak reductions, then plain reductions in definition order.
func (b *lrTableBuilder) build() (*spec.SyntacticSpec, error) {
	states := make([]*lrState, len(b.automaton.states))
	for _, state := range b.automaton.states {
		states[state.num.Int()] = state
	}

	guardIndex := map[symbol.Symbol]int{}
	for i, g := range b.guards {
		guardIndex[g.sym] = i
	}

	tab := &spec.SyntacticSpec{
		StateCount:       len(states),
		States:           make([]*spec.StateActions, len(states)),
		Terminals:        b.symTab.TerminalTexts(),
		TerminalCount:    b.symTab.CountTerminals(),
		NonTerminals:     b.symTab.NonTerminalTexts(),
		NonTerminalCount: b.symTab.CountNonTerminals(),
		EOFSymbol:        symbol.SymbolEOF.Num().Int(),
		EOGSymbol:        symbol.SymbolEOG.Num().Int(),
	}

	for _, state := range states {
		var termRows []spec.ActionRow
		var nonTermRows []spec.ActionRow

		nextSyms := make([]symbol.Symbol, 0, len(state.next))
		for sym := range state.next {
			nextSyms = append(nextSyms, sym)
		}
		sort.Slice(nextSyms, func(i, j int) bool {
			return nextSyms[i] < nextSyms[j]
		})

		for _, sym := range nextSyms {
			nextState := b.automaton.states[state.next[sym]]
			if idx, isGuard := guardIndex[sym]; isGuard {
				// The guard triggers on any terminal its language can
				// start with; success behaves as the goto on the guard
				// symbol.
				fst, err := b.first.findBySymbol(sym)
				if err != nil {
					return nil, err
				}
				for _, a := range sortSymbols(fst.symbols) {
					termRows = append(termRows, spec.ActionRow{
						Symbol: a.Num().Int(),
						Kind:   spec.ActionGuard,
						Target: idx,
					})
				}
				nonTermRows = append(nonTermRows, spec.ActionRow{
					Symbol: sym.Num().Int(),
					Kind:   spec.ActionGoto,
					Target: nextState.num.Int(),
				})
				continue
			}
			if sym.IsTerminal() {
				termRows = append(termRows, spec.ActionRow{
					Symbol: sym.Num().Int(),
					Kind:   spec.ActionShift,
					Target: nextState.num.Int(),
				})
			} else {
				nonTermRows = append(nonTermRows, spec.ActionRow{
					Symbol: sym.Num().Int(),
					Kind:   spec.ActionGoto,
					Target: nextState.num.Int(),
				})
			}
		}

		reducibleProds := make([]*production, 0, len(state.reducible))
		for prodID := range state.reducible {
			prod, ok := b.prods.findByID(prodID)
			if !ok {
				return nil, fmt.Errorf("reducible production not found: %v", prodID)
			}
			reducibleProds = append(reducibleProds, prod)
		}
		sort.Slice(reducibleProds, func(i, j int) bool {
			return reducibleProds[i].num < reducibleProds[j].num
		})

		for _, prod := range reducibleProds {
			item, err := b.reducibleItem(state, prod)
			if err != nil {
				return nil, err
			}

			for _, a := range sortSymbols(item.lookAhead.symbols) {
				kind := spec.ActionReduce
				switch {
				case prod.augmented:
					kind = spec.ActionAccept
				case b.isWeak(a):
					kind = spec.ActionWeakReduce
				}
				if a.IsTerminal() {
					termRows = append(termRows, spec.ActionRow{
						Symbol: a.Num().Int(),
						Kind:   kind,
						Target: prod.num.Int(),
					})
				} else {
					nonTermRows = append(nonTermRows, spec.ActionRow{
						Symbol: a.Num().Int(),
						Kind:   kind,
						Target: prod.num.Int(),
					})
				}
			}
		}

		termRows = b.arrange(state, termRows)
		nonTermRows = b.arrange(state, nonTermRows)

		tab.States[state.num.Int()] = &spec.StateActions{
			Terminal:    termRows,
			NonTerminal: nonTermRows,
		}
	}

	tab.Rules = make([]spec.RuleRow, b.prods.maxNum().Int()+1)
	for _, prod := range b.prods.getAllProductions() {
		tab.Rules[prod.num.Int()] = spec.RuleRow{
			LHS: prod.lhs.Num().Int(),
			Len: prod.rhsLen,
		}
	}

	tab.TerminalSkip = make([]int, tab.TerminalCount)
	for sym := range b.skip {
		tab.TerminalSkip[sym.Num().Int()] = 1
	}

	for _, g := range b.guards {
		kID, ok := b.automaton.initialStates[g.start]
		if !ok {
			return nil, fmt.Errorf("a guard sub-automaton has no initial state: %v", g.start)
		}
		tab.Guards = append(tab.Guards, spec.GuardRow{
			InitialState: b.automaton.states[kID].num.Int(),
			Guard:        g.sym.Num().Int(),
		})
	}

	mainKID, ok := b.automaton.initialStates[b.mainStart]
	if !ok {
		return nil, fmt.Errorf("the automaton has no initial state for %v", b.mainStart)
	}
	tab.InitialState = b.automaton.states[mainKID].num.Int()

	return tab, nil
}

func (b *lrTableBuilder) reducibleItem(state *lrState, prod *production) (*lrItem, error) {
	for _, item := range state.items {
		if item.prod == prod.id && item.reducible {
			return item, nil
		}
	}
	for _, item := range state.emptyProdItems {
		if item.prod == prod.id {
			return item, nil
		}
	}
	return nil, fmt.Errorf("reducible item not found; state: %v, production: %v", state.num, prod.num)
}

func (b *lrTableBuilder) isWeak(sym symbol.Symbol) bool {
	_, ok := b.weak[sym]
	return ok
}

// arrange sorts the rows of one state by symbol, then by the runtime
// trial order within a symbol, and records the conflicts that survive
// weak reductions and guards.
func (b *lrTableBuilder) arrange(state *lrState, rows []spec.ActionRow) []spec.ActionRow {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Symbol != rows[j].Symbol {
			return rows[i].Symbol < rows[j].Symbol
		}
		if rows[i].Kind != rows[j].Kind {
			return kindOrder(rows[i].Kind) < kindOrder(rows[j].Kind)
		}
		return rows[i].Target < rows[j].Target
	})

	for i := 0; i < len(rows); {
		j := i
		for j < len(rows) && rows[j].Symbol == rows[i].Symbol {
			j++
		}
		b.recordConflicts(state, rows[i:j])
		i = j
	}

	return rows
}

// recordConflicts inspects the rows of one symbol. Guard and weak-reduce
// rows resolve their overlaps by construction, so only plain shifts and
// reductions conflict.
func (b *lrTableBuilder) recordConflicts(state *lrState, rows []spec.ActionRow) {
	var shift *spec.ActionRow
	var reduces []spec.ActionRow
	for i, row := range rows {
		switch row.Kind {
		case spec.ActionShift:
			shift = &rows[i]
		case spec.ActionReduce:
			reduces = append(reduces, row)
		}
	}

	if shift != nil && len(reduces) > 0 {
		for _, r := range reduces {
			b.conflicts = append(b.conflicts, &shiftReduceConflict{
				state:     state.num,
				symNum:    shift.Symbol,
				nextState: stateNum(shift.Target),
				prodNum:   productionNum(r.Target),
			})
		}
	}
	for i := 1; i < len(reduces); i++ {
		b.conflicts = append(b.conflicts, &reduceReduceConflict{
			state:    state.num,
			symNum:   reduces[0].Symbol,
			prodNum1: productionNum(reduces[0].Target),
			prodNum2: productionNum(reduces[i].Target),
		})
	}
}

// kindOrder is the trial order of actions sharing one symbol.
func kindOrder(k spec.ActionKind) int {
	switch k {
	case spec.ActionGuard:
		return 0
	case spec.ActionShift:
		return 1
	case spec.ActionWeakReduce:
		return 2
	case spec.ActionReduce, spec.ActionAccept:
		return 3
	case spec.ActionGoto:
		return 4
	}
	return 5
}

func sortSymbols(syms map[symbol.Symbol]struct{}) []symbol.Symbol {
	sorted := make([]symbol.Symbol, 0, len(syms))
	for sym := range syms {
		sorted = append(sorted, sym)
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})
	return sorted
}
