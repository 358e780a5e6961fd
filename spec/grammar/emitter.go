package grammar

// Event is one step of the table emission stream. Back-ends receive the
// events in declaration order and pattern-match on the ones they care
// about.
type Event interface {
	isEvent()
}

type BeginOutputEvent struct {
	Name string
}

type EndOutputEvent struct {
}

type TerminalSymbolEvent struct {
	Name string
	ID   int
}

type NonTerminalSymbolEvent struct {
	Name string
	ID   int
}

type SymbolMapRangeEvent struct {
	Lower int
	Upper int
	Set   int
}

type BeginLexerStateEvent struct {
	State int
}

type LexerTransitionEvent struct {
	Set  int
	Next int
}

type EndLexerStateEvent struct {
}

type LexerAcceptEvent struct {
	State  int
	Symbol int
}

type BeginParserStateEvent struct {
	State int
}

type ParserActionEvent struct {
	Row      ActionRow
	Terminal bool
}

type EndParserStateEvent struct {
}

type RuleRowEvent struct {
	Rule int
	Row  RuleRow
}

type GuardRowEvent struct {
	Row GuardRow
}

func (*BeginOutputEvent) isEvent()       {}
func (*EndOutputEvent) isEvent()         {}
func (*TerminalSymbolEvent) isEvent()    {}
func (*NonTerminalSymbolEvent) isEvent() {}
func (*SymbolMapRangeEvent) isEvent()    {}
func (*BeginLexerStateEvent) isEvent()   {}
func (*LexerTransitionEvent) isEvent()   {}
func (*EndLexerStateEvent) isEvent()     {}
func (*LexerAcceptEvent) isEvent()       {}
func (*BeginParserStateEvent) isEvent()  {}
func (*ParserActionEvent) isEvent()      {}
func (*EndParserStateEvent) isEvent()    {}
func (*RuleRowEvent) isEvent()           {}
func (*GuardRowEvent) isEvent()          {}

// Emitter consumes the emission stream. Implementations are free to
// ignore any event.
type Emitter interface {
	Emit(Event) error
}

// NopEmitter ignores every event. Back-ends embed it so they only handle
// the events they need.
type NopEmitter struct {
}

func (NopEmitter) Emit(Event) error {
	return nil
}

// EmitGrammar walks a compiled grammar in declaration order: symbols,
// then the lexer tables (symbol map, state machine, accept table), then
// the parser tables (action rows, rule table, guard table).
func EmitGrammar(g *CompiledGrammar, e Emitter) error {
	emit := func(ev Event) error {
		return e.Emit(ev)
	}

	if err := emit(&BeginOutputEvent{Name: g.Name}); err != nil {
		return err
	}

	for id, name := range g.Syntactic.Terminals {
		if name == "" {
			continue
		}
		if err := emit(&TerminalSymbolEvent{Name: name, ID: id}); err != nil {
			return err
		}
	}
	for id, name := range g.Syntactic.NonTerminals {
		if name == "" {
			continue
		}
		if err := emit(&NonTerminalSymbolEvent{Name: name, ID: id}); err != nil {
			return err
		}
	}

	for _, t := range g.Lexical.Translator {
		if err := emit(&SymbolMapRangeEvent{Lower: t.Lower, Upper: t.Upper, Set: t.Set}); err != nil {
			return err
		}
	}
	for state := 0; state < g.Lexical.StateCount; state++ {
		if err := emit(&BeginLexerStateEvent{State: state}); err != nil {
			return err
		}
		switch g.Lexical.RowKind {
		case RowKindFlat:
			if g.Lexical.FlatRows != nil {
				for set := 0; set < g.Lexical.SetCount; set++ {
					next := g.Lexical.FlatRows[state*g.Lexical.SetCount+set]
					if next == StateIDNil {
						continue
					}
					if err := emit(&LexerTransitionEvent{Set: set, Next: next}); err != nil {
						return err
					}
				}
			}
		case RowKindCompact:
			for _, entry := range g.Lexical.CompactRows[state] {
				if err := emit(&LexerTransitionEvent{Set: entry.Set, Next: entry.Next}); err != nil {
					return err
				}
			}
		}
		if err := emit(&EndLexerStateEvent{}); err != nil {
			return err
		}
	}
	for state, sym := range g.Lexical.Accepts {
		if sym == 0 {
			continue
		}
		if err := emit(&LexerAcceptEvent{State: state, Symbol: sym}); err != nil {
			return err
		}
	}

	for state, actions := range g.Syntactic.States {
		if err := emit(&BeginParserStateEvent{State: state}); err != nil {
			return err
		}
		for _, row := range actions.Terminal {
			if err := emit(&ParserActionEvent{Row: row, Terminal: true}); err != nil {
				return err
			}
		}
		for _, row := range actions.NonTerminal {
			if err := emit(&ParserActionEvent{Row: row}); err != nil {
				return err
			}
		}
		if err := emit(&EndParserStateEvent{}); err != nil {
			return err
		}
	}
	for rule, row := range g.Syntactic.Rules {
		if row.LHS == 0 {
			continue
		}
		if err := emit(&RuleRowEvent{Rule: rule, Row: row}); err != nil {
			return err
		}
	}
	for _, row := range g.Syntactic.Guards {
		if err := emit(&GuardRowEvent{Row: row}); err != nil {
			return err
		}
	}

	return emit(&EndOutputEvent{})
}
