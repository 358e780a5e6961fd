package automaton

import (
	"fmt"
	"unicode"

	"github.com/nihei9/weft/grammar/lexical/symbolset"
)

// StateID identifies a state within one automaton.
type StateID int

// StateIDStart is the universal entry point of every automaton.
const StateIDStart = StateID(0)

func (id StateID) Int() int {
	return int(id)
}

// UnitKind is the category of the language unit an accept action was
// defined in. Kinds with greater values outrank kinds with lower values
// when a state accepts more than one symbol.
type UnitKind int

const (
	UnitNone UnitKind = iota
	UnitIgnore
	UnitLexer
	UnitKeywords
	UnitWeakLexer
	UnitWeakKeywords
)

func (k UnitKind) String() string {
	switch k {
	case UnitIgnore:
		return "ignore"
	case UnitLexer:
		return "lexer"
	case UnitKeywords:
		return "keywords"
	case UnitWeakLexer:
		return "weak lexer"
	case UnitWeakKeywords:
		return "weak keywords"
	}
	return "none"
}

// AcceptAction emits the terminal Symbol when its state accepts.
type AcceptAction struct {
	Symbol int
	Kind   UnitKind
	Weak   bool

	// Language marks an accept action generated from a language unit.
	// Such actions carry a meaningful Kind and outrank bare actions.
	Language bool
}

// Outranks reports whether a wins over b when both accept in the same
// state. The order is total: language-aware actions outrank bare ones,
// weak symbols outrank strong ones, then the unit kind decides, and
// finally the lower symbol identifier (the earlier definition) wins.
func (a AcceptAction) Outranks(b AcceptAction) bool {
	if a.Language != b.Language {
		return a.Language
	}
	if a.Language {
		if a.Weak != b.Weak {
			return a.Weak
		}
		if a.Kind != b.Kind {
			return a.Kind > b.Kind
		}
	}
	return a.Symbol < b.Symbol
}

type transition struct {
	set    symbolset.SetID
	target StateID
}

type state struct {
	transitions []transition
	epsilons    []StateID
	accepts     []AcceptAction
}

// NFA is a non-deterministic finite automaton whose transitions are
// labelled with symbol-set identifiers. State 0 always exists and is the
// entry point.
type NFA struct {
	states  []*state
	symbols *symbolset.SymbolMap

	// unique is true after WithUniqueSymbols: the sets behind the
	// transition labels are pairwise disjoint.
	unique bool
}

func NewNFA() *NFA {
	return &NFA{
		states: []*state{
			{},
		},
		symbols: symbolset.NewSymbolMap(),
	}
}

func (n *NFA) NewState() StateID {
	n.states = append(n.states, &state{})
	return StateID(len(n.states) - 1)
}

func (n *NFA) CountStates() int {
	return len(n.states)
}

func (n *NFA) Symbols() *symbolset.SymbolMap {
	return n.symbols
}

// AddTransition adds a transition from `from` to `to` consuming any code
// point of s.
func (n *NFA) AddTransition(from StateID, s *symbolset.SymbolSet, to StateID) {
	id := n.symbols.IDFor(s)
	n.states[from].transitions = append(n.states[from].transitions, transition{
		set:    id,
		target: to,
	})
}

func (n *NFA) AddEpsilon(from, to StateID) {
	n.states[from].epsilons = append(n.states[from].epsilons, to)
}

func (n *NFA) AddAccept(s StateID, a AcceptAction) {
	n.states[s].accepts = append(n.states[s].accepts, a)
}

func (n *NFA) AcceptsOf(s StateID) []AcceptAction {
	return n.states[s].accepts
}

// WithUniqueSymbols replaces the transition labels with identifiers of
// pairwise disjoint sets. A transition whose set was split into several
// blocks becomes one transition per block. The receiver must be discarded
// after this call.
func (n *NFA) WithUniqueSymbols() *NFA {
	d := symbolset.Deduplicate(n.symbols)

	symbols := symbolset.NewSymbolMap()
	for id := symbolset.SetID(0); id.Int() < d.Count(); id++ {
		symbols.IDFor(d.Set(id))
	}

	u := &NFA{
		states:  make([]*state, len(n.states)),
		symbols: symbols,
		unique:  true,
	}
	for i, src := range n.states {
		dst := &state{
			epsilons: src.epsilons,
			accepts:  src.accepts,
		}
		for _, tr := range src.transitions {
			for _, newID := range d.NewSymbols(tr.set) {
				dst.transitions = append(dst.transitions, transition{
					set:    newID,
					target: tr.target,
				})
			}
		}
		u.states[i] = dst
	}
	return u
}

// Builder builds up an NFA imperatively. It tracks a current state and
// the state the most recent subexpression started in, which is what the
// repetition operators act on. Push and Pop bracket subexpressions, and
// BeginOr starts an alternative branch of the innermost bracket.
type Builder struct {
	nfa         *NFA
	current     StateID
	previous    StateID
	frames      []builderFrame
	insensitive bool
}

type builderFrame struct {
	entry StateID
	ends  []StateID
}

func (n *NFA) Builder() *Builder {
	return &Builder{
		nfa:      n,
		current:  StateIDStart,
		previous: StateIDStart,
	}
}

// GotoState points the builder at an arbitrary state. Additional roots
// for language unions are registered this way.
func (b *Builder) GotoState(current, previous StateID) {
	b.current = current
	b.previous = previous
}

func (b *Builder) Current() StateID {
	return b.current
}

func (b *Builder) Previous() StateID {
	return b.previous
}

func (b *Builder) SetCaseInsensitive(insensitive bool) {
	b.insensitive = insensitive
}

func (b *Builder) IsCaseInsensitive() bool {
	return b.insensitive
}

// Push opens a subexpression. The subexpression gets a fresh entry state
// so that repetition applied to it can never loop back into states that
// belong to an enclosing expression.
func (b *Builder) Push() {
	entry := b.nfa.NewState()
	b.nfa.AddEpsilon(b.current, entry)
	b.frames = append(b.frames, builderFrame{
		entry: entry,
	})
	b.current = entry
	b.previous = entry
}

func (b *Builder) BeginOr() error {
	if len(b.frames) == 0 {
		return fmt.Errorf("an alternative requires an open subexpression")
	}
	f := &b.frames[len(b.frames)-1]
	f.ends = append(f.ends, b.current)
	b.current = f.entry
	b.previous = f.entry
	return nil
}

// Depth returns the number of open subexpressions.
func (b *Builder) Depth() int {
	return len(b.frames)
}

// Unwind closes subexpressions until at most depth remain. Abandoning a
// half-built fragment this way leaves it without an accept action, so it
// can never match.
func (b *Builder) Unwind(depth int) {
	for len(b.frames) > depth {
		_ = b.Pop()
	}
}

// Pop closes the innermost subexpression, joining every alternative
// branch in a fresh exit state. Afterwards the whole bracket counts as
// the most recent subexpression, so Optional and Repeat apply to it.
func (b *Builder) Pop() error {
	if len(b.frames) == 0 {
		return fmt.Errorf("no open subexpression to close")
	}
	f := b.frames[len(b.frames)-1]
	b.frames = b.frames[:len(b.frames)-1]

	join := b.nfa.NewState()
	b.nfa.AddEpsilon(b.current, join)
	for _, end := range f.ends {
		b.nfa.AddEpsilon(end, join)
	}
	b.current = join
	b.previous = f.entry
	return nil
}

// TransitSet consumes any code point of s.
func (b *Builder) TransitSet(s *symbolset.SymbolSet) {
	next := b.nfa.NewState()
	b.nfa.AddTransition(b.current, s, next)
	b.previous = b.current
	b.current = next
}

// TransitRange consumes any code point of r. Case folding never applies
// to explicit ranges.
func (b *Builder) TransitRange(r symbolset.Range) {
	b.TransitSet(symbolset.NewSymbolSet(r))
}

// TransitRune consumes the code point c. In case-insensitive mode both
// the upper-case and lower-case variants are consumed.
func (b *Builder) TransitRune(c rune) {
	s := symbolset.NewSymbolSet(symbolset.RangeOf(c))
	if b.insensitive {
		s.Add(symbolset.RangeOf(unicode.ToLower(c)))
		s.Add(symbolset.RangeOf(unicode.ToUpper(c)))
	}
	b.TransitSet(s)
}

// TransitLiteral consumes the literal text code point by code point.
func (b *Builder) TransitLiteral(text string) {
	for _, c := range text {
		b.TransitRune(c)
	}
}

// Optional makes the most recent subexpression skippable.
func (b *Builder) Optional() {
	b.nfa.AddEpsilon(b.previous, b.current)
}

// Repeat makes the most recent subexpression repeatable one or more
// times.
func (b *Builder) Repeat() {
	b.nfa.AddEpsilon(b.current, b.previous)
}

// RepeatOptional makes the most recent subexpression repeatable zero or
// more times.
func (b *Builder) RepeatOptional() {
	b.Repeat()
	b.Optional()
}

// Accept attaches an accept action to the current state.
func (b *Builder) Accept(a AcceptAction) {
	b.nfa.AddAccept(b.current, a)
}
