package lexical

import (
	"fmt"
	"sort"

	verr "github.com/nihei9/weft/error"
	"github.com/nihei9/weft/grammar/lexical/automaton"
	"github.com/nihei9/weft/grammar/lexical/parser"
)

// CompileError reports a pattern that failed to compile.
type CompileError struct {
	Name   string
	Cause  error
	Detail string
}

func (e *CompileError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%v: %v: %v", e.Name, e.Cause, e.Detail)
	}
	return fmt.Sprintf("%v: %v", e.Name, e.Cause)
}

// Compile builds the lexer NFA from the entries and runs it through
// subset construction. The result still carries every accept action of
// every state best-first, which the diagnostics and the weak-symbol
// machinery need; Finish performs minimisation and table generation.
//
// Entries whose patterns fail to compile are skipped and returned as
// CompileErrors alongside the best-effort automaton built from the rest.
func Compile(lexspec *LexSpec) (*automaton.DFA, error, []*CompileError) {
	err := lexspec.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid lexical specification: %w", err), nil
	}

	nfa := automaton.NewNFA()
	b := nfa.Builder()
	c := parser.NewCompiler(lexspec.Expressions)

	var cerrs []*CompileError
	for _, e := range lexspec.Entries {
		b.GotoState(automaton.StateIDStart, automaton.StateIDStart)
		b.SetCaseInsensitive(e.CaseInsensitive)
		depth := b.Depth()
		b.Push()
		if e.Literal {
			b.TransitLiteral(e.Pattern)
		} else {
			err := c.Compile(b, e.Pattern)
			if err != nil {
				cerr := &CompileError{
					Name:  e.Name,
					Cause: err,
				}
				if synErr, ok := err.(*parser.SyntaxError); ok {
					cerr.Detail = fmt.Sprintf("at %v in /%v/", synErr.Pos, e.Pattern)
				}
				cerrs = append(cerrs, cerr)

				// Abandon the half-built fragment: without an accept
				// action it can never match.
				b.Unwind(depth)
				continue
			}
		}
		if err := b.Pop(); err != nil {
			return nil, err, nil
		}
		b.Accept(automaton.AcceptAction{
			Symbol:   e.Symbol,
			Kind:     e.Kind,
			Weak:     e.Weak,
			Language: true,
		})
	}
	d, err := nfa.WithUniqueSymbols().ToDFA()
	if err != nil {
		return nil, err, nil
	}
	return d, nil, cerrs
}

// CheckGenerated reports the terminals the DFA can never emit because a
// higher-priority entry wins in every state they accept in. Each finding
// carries the clashing winners as detail diagnostics, mirroring how the
// lexer will actually behave.
func CheckGenerated(d *automaton.DFA, entries []*LexEntry, diags *verr.DiagnosticList) {
	names := map[int]string{}
	ignored := map[int]bool{}
	unused := map[int]struct{}{}
	for _, e := range entries {
		names[e.Symbol] = e.Name
		if e.Kind == automaton.UnitIgnore {
			ignored[e.Symbol] = true
		}
		unused[e.Symbol] = struct{}{}
	}

	clashes := map[int]map[int]struct{}{}
	for s := 0; s < d.CountStates(); s++ {
		accepts := d.AcceptsOf(automaton.StateID(s))
		if len(accepts) == 0 {
			continue
		}
		winner := accepts[0]
		delete(unused, winner.Symbol)
		for _, loser := range accepts[1:] {
			if clashes[loser.Symbol] == nil {
				clashes[loser.Symbol] = map[int]struct{}{}
			}
			clashes[loser.Symbol][winner.Symbol] = struct{}{}
		}
	}

	syms := make([]int, 0, len(unused))
	for sym := range unused {
		syms = append(syms, sym)
	}
	sort.Ints(syms)
	for _, sym := range syms {
		// Ignored symbols are not expected to surface as tokens.
		if ignored[sym] {
			continue
		}
		diags.Report(&verr.Diagnostic{
			Severity: verr.SeverityWarning,
			Code:     CodeSymbolCannotBeGenerated,
			Message:  fmt.Sprintf("lexer symbol can never be generated: %v", names[sym]),
		})

		winners := make([]int, 0, len(clashes[sym]))
		for w := range clashes[sym] {
			winners = append(winners, w)
		}
		sort.Ints(winners)
		for _, w := range winners {
			diags.Report(&verr.Diagnostic{
				Severity: verr.SeverityDetail,
				Code:     CodeSymbolClashesWith,
				Message:  fmt.Sprintf("'%v' clashes with: %v", names[sym], names[w]),
			})
		}
	}
}

// Diagnostic codes of the lexer stage.
const (
	CodeSymbolCannotBeGenerated = "SYMBOL_CANNOT_BE_GENERATED"
	CodeSymbolClashesWith       = "SYMBOL_CLASHES_WITH"
)
