package automaton

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nihei9/weft/grammar/lexical/symbolset"
)

type dfaState struct {
	transitions []transition
	accepts     []AcceptAction
}

// DFA is a deterministic finite automaton: every state has at most one
// transition per symbol set. The accept actions of a state are ordered
// best-first; the first one is the action the lexer performs, and the
// rest are the actions it overrode, kept for diagnostics.
type DFA struct {
	states  []*dfaState
	symbols *symbolset.SymbolMap
}

func (d *DFA) CountStates() int {
	return len(d.states)
}

func (d *DFA) Symbols() *symbolset.SymbolMap {
	return d.symbols
}

// Next returns the successor of state on the symbol set, or -1 when the
// transition rejects.
func (d *DFA) Next(s StateID, set symbolset.SetID) StateID {
	for _, tr := range d.states[s].transitions {
		if tr.set == set {
			return tr.target
		}
	}
	return StateID(-1)
}

// Transitions returns the symbol sets a state has transitions on, in
// ascending order of set identifier. Next gives the target of each.
func (d *DFA) Transitions(s StateID) []symbolset.SetID {
	sets := make([]symbolset.SetID, 0, len(d.states[s].transitions))
	for _, tr := range d.states[s].transitions {
		sets = append(sets, tr.set)
	}
	return sets
}

// AcceptOf returns the winning accept action of a state.
func (d *DFA) AcceptOf(s StateID) (AcceptAction, bool) {
	accepts := d.states[s].accepts
	if len(accepts) == 0 {
		return AcceptAction{}, false
	}
	return accepts[0], true
}

// AcceptsOf returns every accept action of a state, best-first.
func (d *DFA) AcceptsOf(s StateID) []AcceptAction {
	return d.states[s].accepts
}

// ReplaceAccept swaps the winning accept action of a state. The weak
// symbol machinery uses this to make clash states emit the paired symbol.
func (d *DFA) ReplaceAccept(s StateID, a AcceptAction) {
	d.states[s].accepts[0] = a
}

// Translator returns the code point to set identifier map of this
// automaton.
func (d *DFA) Translator() *symbolset.Translator {
	return symbolset.NewTranslator(d.symbols.Sets())
}

// ToDFA converts an NFA whose symbol sets are pairwise disjoint into a
// DFA by subset construction. The accept actions of a combined state are
// the union of its members' actions ordered best-first. States are
// numbered in breadth-first discovery order, which makes the result
// deterministic. The receiver must be discarded after this call.
func (n *NFA) ToDFA() (*DFA, error) {
	if !n.unique {
		return nil, fmt.Errorf("subset construction requires an NFA with unique symbols")
	}

	d := &DFA{
		symbols: n.symbols,
	}

	initial := n.closure([]StateID{StateIDStart})
	num := map[string]StateID{
		memberKey(initial): StateIDStart,
	}
	queue := [][]StateID{initial}
	for len(queue) > 0 {
		members := queue[0]
		queue = queue[1:]

		// Group the members' transitions by symbol set.
		targets := map[symbolset.SetID][]StateID{}
		for _, m := range members {
			for _, tr := range n.states[m].transitions {
				targets[tr.set] = append(targets[tr.set], tr.target)
			}
		}
		sets := make([]symbolset.SetID, 0, len(targets))
		for set := range targets {
			sets = append(sets, set)
		}
		sort.Slice(sets, func(i, j int) bool {
			return sets[i] < sets[j]
		})

		st := &dfaState{}
		for _, set := range sets {
			succ := n.closure(targets[set])
			key := memberKey(succ)
			id, known := num[key]
			if !known {
				id = StateID(len(num))
				num[key] = id
				queue = append(queue, succ)
			}
			st.transitions = append(st.transitions, transition{
				set:    set,
				target: id,
			})
		}

		var accepts []AcceptAction
		for _, m := range members {
			accepts = append(accepts, n.states[m].accepts...)
		}
		st.accepts = sortAccepts(accepts)

		d.states = append(d.states, st)
	}

	return d, nil
}

// closure returns the epsilon closure of the given states as a sorted,
// duplicate-free slice.
func (n *NFA) closure(ids []StateID) []StateID {
	known := map[StateID]struct{}{}
	unchecked := ids
	for len(unchecked) > 0 {
		var next []StateID
		for _, id := range unchecked {
			if _, ok := known[id]; ok {
				continue
			}
			known[id] = struct{}{}
			next = append(next, n.states[id].epsilons...)
		}
		unchecked = next
	}

	c := make([]StateID, 0, len(known))
	for id := range known {
		c = append(c, id)
	}
	sort.Slice(c, func(i, j int) bool {
		return c[i] < c[j]
	})
	return c
}

func memberKey(ids []StateID) string {
	var b strings.Builder
	for _, id := range ids {
		fmt.Fprintf(&b, "%v,", id)
	}
	return b.String()
}

func sortAccepts(accepts []AcceptAction) []AcceptAction {
	sort.SliceStable(accepts, func(i, j int) bool {
		return accepts[i].Outranks(accepts[j])
	})
	deduped := accepts[:0]
	for i, a := range accepts {
		if i > 0 && a == accepts[i-1] {
			continue
		}
		deduped = append(deduped, a)
	}
	return deduped
}

// Minimize merges indistinguishable states by partition refinement.
// States with different winning accept actions are always distinguished.
// The receiver must be discarded after this call.
func (d *DFA) Minimize() *DFA {
	setCount := d.symbols.Count()

	// Initial partition: group by the winning accept action.
	part := d.renumber(func(i int, s *dfaState) string {
		if len(s.accepts) == 0 {
			return ""
		}
		return fmt.Sprintf("%v", s.accepts[0])
	})

	// Refine until no signature splits a class any further.
	for {
		next := d.renumber(func(i int, s *dfaState) string {
			var b strings.Builder
			fmt.Fprintf(&b, "%v;", part[i])
			for set := 0; set < setCount; set++ {
				target := -1
				for _, tr := range s.transitions {
					if tr.set == symbolset.SetID(set) {
						target = part[tr.target]
						break
					}
				}
				fmt.Fprintf(&b, "%v,", target)
			}
			return b.String()
		})

		same := true
		for i := range part {
			if part[i] != next[i] {
				same = false
				break
			}
		}
		part = next
		if same {
			break
		}
	}

	classCount := 0
	for _, c := range part {
		if c+1 > classCount {
			classCount = c + 1
		}
	}

	m := &DFA{
		states:  make([]*dfaState, classCount),
		symbols: d.symbols,
	}
	for i, src := range d.states {
		class := part[i]
		if m.states[class] != nil {
			continue
		}
		dst := &dfaState{
			accepts: src.accepts,
		}
		for _, tr := range src.transitions {
			dst.transitions = append(dst.transitions, transition{
				set:    tr.set,
				target: StateID(part[tr.target]),
			})
		}
		m.states[class] = dst
	}

	return m
}

// renumber assigns class numbers in order of first appearance of each
// signature, so class 0 always contains state 0.
func (d *DFA) renumber(sig func(int, *dfaState) string) []int {
	part := make([]int, len(d.states))
	classes := map[string]int{}
	for i, s := range d.states {
		key := sig(i, s)
		class, ok := classes[key]
		if !ok {
			class = len(classes)
			classes[key] = class
		}
		part[i] = class
	}
	return part
}

// MergeSymbols coalesces symbol sets whose transition behaviour is
// identical in every state, and drops sets no transition uses. Both the
// transitions and the symbol map are remapped; the receiver must be
// discarded after this call.
func (d *DFA) MergeSymbols() *DFA {
	oldCount := d.symbols.Count()

	// The behaviour of a set is its column: the target per state.
	columns := make([][]int, oldCount)
	used := make([]bool, oldCount)
	for set := 0; set < oldCount; set++ {
		col := make([]int, len(d.states))
		for i, s := range d.states {
			col[i] = -1
			for _, tr := range s.transitions {
				if tr.set == symbolset.SetID(set) {
					col[i] = tr.target.Int()
					used[set] = true
					break
				}
			}
		}
		columns[set] = col
	}

	groups := map[string]symbolset.SetID{}
	remap := make([]symbolset.SetID, oldCount)
	merged := symbolset.NewSymbolMap()
	var mergedSets []*symbolset.SymbolSet
	for set := 0; set < oldCount; set++ {
		if !used[set] {
			remap[set] = symbolset.SetIDNil
			continue
		}
		key := columnKey(columns[set])
		id, ok := groups[key]
		if !ok {
			id = symbolset.SetID(len(mergedSets))
			groups[key] = id
			mergedSets = append(mergedSets, symbolset.NewSymbolSet())
		}
		mergedSets[id].AddSet(d.symbols.Set(symbolset.SetID(set)))
		remap[set] = id
	}
	for _, s := range mergedSets {
		merged.IDFor(s)
	}

	m := &DFA{
		states:  make([]*dfaState, len(d.states)),
		symbols: merged,
	}
	for i, src := range d.states {
		dst := &dfaState{
			accepts: src.accepts,
		}
		seen := map[symbolset.SetID]struct{}{}
		for _, tr := range src.transitions {
			id := remap[tr.set]
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			dst.transitions = append(dst.transitions, transition{
				set:    id,
				target: tr.target,
			})
		}
		sort.Slice(dst.transitions, func(i, j int) bool {
			return dst.transitions[i].set < dst.transitions[j].set
		})
		m.states[i] = dst
	}

	return m
}

func columnKey(col []int) string {
	var b strings.Builder
	for _, target := range col {
		fmt.Fprintf(&b, "%v,", target)
	}
	return b.String()
}
