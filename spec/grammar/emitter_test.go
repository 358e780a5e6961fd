package grammar

import (
	"testing"
)

type recordingEmitter struct {
	NopEmitter
	events []Event
}

func (e *recordingEmitter) Emit(ev Event) error {
	e.events = append(e.events, ev)
	return nil
}

func TestEmitGrammar_Order(t *testing.T) {
	g := &CompiledGrammar{
		Name: "toy",
		Lexical: &LexicalSpec{
			SetCount: 1,
			Translator: []TranslatorEntry{
				{Lower: 'a', Upper: 'b', Set: 0},
			},
			RowKind:    RowKindFlat,
			StateCount: 2,
			FlatRows:   []int{1, StateIDNil},
			Accepts:    []int{0, 2},
			WeakOf:     []int{0, 0, 0},
			StrongOf:   []int{0, 0, 0},
		},
		Syntactic: &SyntacticSpec{
			StateCount: 1,
			States: []*StateActions{
				{
					Terminal: []ActionRow{
						{Symbol: 2, Kind: ActionShift, Target: 1},
					},
					NonTerminal: []ActionRow{
						{Symbol: 2, Kind: ActionGoto, Target: 1},
					},
				},
			},
			Rules:        []RuleRow{{}, {LHS: 2, Len: 1}},
			Terminals:    []string{"", "<eof>", "a"},
			NonTerminals: []string{"", "<eog>", "S"},
			Guards:       []GuardRow{{InitialState: 0, Guard: 3}},
		},
	}

	e := &recordingEmitter{}
	err := EmitGrammar(g, e)
	if err != nil {
		t.Fatal(err)
	}

	if len(e.events) == 0 {
		t.Fatal("no events were emitted")
	}
	if _, ok := e.events[0].(*BeginOutputEvent); !ok {
		t.Fatalf("the stream must start with BeginOutput; got: %T", e.events[0])
	}
	if _, ok := e.events[len(e.events)-1].(*EndOutputEvent); !ok {
		t.Fatalf("the stream must end with EndOutput; got: %T", e.events[len(e.events)-1])
	}

	// Sections arrive in declaration order: symbols, symbol map, lexer
	// states, accept table, parser states, rules, guards.
	order := map[string]int{}
	for i, ev := range e.events {
		key := ""
		switch ev.(type) {
		case *TerminalSymbolEvent:
			key = "terminal"
		case *NonTerminalSymbolEvent:
			key = "nonterminal"
		case *SymbolMapRangeEvent:
			key = "symbolmap"
		case *BeginLexerStateEvent:
			key = "lexerstate"
		case *LexerAcceptEvent:
			key = "accept"
		case *BeginParserStateEvent:
			key = "parserstate"
		case *RuleRowEvent:
			key = "rule"
		case *GuardRowEvent:
			key = "guard"
		}
		if key == "" {
			continue
		}
		if _, seen := order[key]; !seen {
			order[key] = i
		}
	}
	sections := []string{"terminal", "nonterminal", "symbolmap", "lexerstate", "accept", "parserstate", "rule", "guard"}
	for i := 1; i < len(sections); i++ {
		prev, ok1 := order[sections[i-1]]
		next, ok2 := order[sections[i]]
		if !ok1 || !ok2 {
			t.Fatalf("section %v or %v was not emitted", sections[i-1], sections[i])
		}
		if prev >= next {
			t.Fatalf("section %v must precede %v", sections[i-1], sections[i])
		}
	}
}
