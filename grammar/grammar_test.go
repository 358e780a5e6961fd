package grammar

import (
	"strings"
	"testing"

	verr "github.com/nihei9/weft/error"
	"github.com/nihei9/weft/spec/language"
)

func term(name string) *language.EBNFItem {
	return &language.EBNFItem{Kind: language.EBNFItemString, Identifier: name}
}

func nonterm(name string) *language.EBNFItem {
	return &language.EBNFItem{Kind: language.EBNFItemNonterminal, Identifier: name}
}

func prod(items ...*language.EBNFItem) *language.Production {
	return &language.Production{Items: items}
}

func def(name string, op language.DefinitionOp, prods ...*language.Production) *language.NonterminalDef {
	return &language.NonterminalDef{Identifier: name, Op: op, Productions: prods}
}

func grammarAST(units ...*language.Unit) *language.Language {
	return &language.Language{
		Identifier: "test",
		Units:      units,
	}
}

func grammarUnit(defs ...*language.NonterminalDef) *language.Unit {
	return &language.Unit{Kind: language.UnitKindGrammarDefs, Nonterminals: defs}
}

func parserUnit(starts ...string) *language.Unit {
	return &language.Unit{Kind: language.UnitKindParserBlock, StartSymbols: starts}
}

func lexerUnit(weak bool, defs ...*language.LexemeDef) *language.Unit {
	return &language.Unit{Kind: language.UnitKindLexerDefs, Weak: weak, Lexemes: defs}
}

func hasDiag(diags *verr.DiagnosticList, code string) bool {
	for _, d := range diags.All() {
		if d.Code == code {
			return true
		}
	}
	return false
}

func TestGrammarBuilder_DuplicateNonterminal(t *testing.T) {
	// Redefining a nonterminal with `=` is an error; `|=` appends.
	tests := []struct {
		caption string
		op      language.DefinitionOp
		dup     bool
	}{
		{caption: "assignment reports a duplicate", op: language.DefinitionOpAssign, dup: true},
		{caption: "append extends the definition", op: language.DefinitionOpAppend, dup: false},
		{caption: "replace swaps the definition", op: language.DefinitionOpReplace, dup: false},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			diags := &verr.DiagnosticList{}
			b := &GrammarBuilder{
				AST: grammarAST(
					grammarUnit(
						def("N", language.DefinitionOpAssign, prod(term("a"))),
						def("N", tt.op, prod(term("b"))),
					),
					parserUnit("N"),
				),
				Diagnostics: diags,
			}
			gram, err := b.Build()
			if err != nil {
				t.Fatal(err)
			}
			if got := hasDiag(diags, CodeDuplicateNonterminalDefinition); got != tt.dup {
				t.Fatalf("unexpected duplicate diagnostic; want: %v, got: %v", tt.dup, got)
			}

			sym, _ := gram.symbolTable.Reader().ToSymbol("N")
			prods, _ := gram.productionSet.findByLHS(sym)
			switch tt.op {
			case language.DefinitionOpAppend, language.DefinitionOpAssign:
				if len(prods) != 2 {
					t.Fatalf("unexpected production count; want: 2, got: %v", len(prods))
				}
			case language.DefinitionOpReplace:
				if len(prods) != 1 {
					t.Fatalf("unexpected production count; want: 1, got: %v", len(prods))
				}
			}
		})
	}
}

func TestGrammarBuilder_SharedAnonymousNonterminals(t *testing.T) {
	// The same optional sub-pattern in two rules must materialise just
	// one anonymous nonterminal.
	optional := func() *language.EBNFItem {
		return &language.EBNFItem{
			Kind:     language.EBNFItemOptional,
			Children: []*language.EBNFItem{term("x")},
		}
	}
	diags := &verr.DiagnosticList{}
	b := &GrammarBuilder{
		AST: grammarAST(
			grammarUnit(
				def("A", language.DefinitionOpAssign, prod(term("a"), optional())),
				def("B", language.DefinitionOpAssign, prod(term("b"), optional())),
				def("S", language.DefinitionOpAssign, prod(nonterm("A")), prod(nonterm("B"))),
			),
			parserUnit("S"),
		),
		Diagnostics: diags,
	}
	gram, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	if len(gram.anonymous) != 2 {
		// One shared anonymous nonterminal plus the augmented start.
		t.Fatalf("unexpected anonymous symbol count; want: 2, got: %v", len(gram.anonymous))
	}
}

func TestGrammarBuilder_UndefinedNonterminal(t *testing.T) {
	diags := &verr.DiagnosticList{}
	b := &GrammarBuilder{
		AST: grammarAST(
			grammarUnit(
				def("S", language.DefinitionOpAssign, prod(nonterm("Missing"))),
			),
			parserUnit("S"),
		),
		Diagnostics: diags,
	}
	_, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	if !hasDiag(diags, CodeUndefinedNonterminal) {
		t.Fatal("an undefined nonterminal must be reported")
	}
}

func TestGrammarBuilder_ImplicitKeywordWarning(t *testing.T) {
	diags := &verr.DiagnosticList{}
	b := &GrammarBuilder{
		AST: grammarAST(
			grammarUnit(
				def("S", language.DefinitionOpAssign,
					prod(&language.EBNFItem{Kind: language.EBNFItemTerminal, Identifier: "then"})),
			),
			parserUnit("S"),
		),
		Diagnostics: diags,
	}
	gram, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	if !hasDiag(diags, CodeImplicitLexerSymbol) {
		t.Fatal("an implicitly defined keyword must be reported")
	}

	sym, ok := gram.symbolTable.Reader().ToSymbol("then")
	if !ok {
		t.Fatal("the implicit keyword must be registered")
	}
	if _, weak := gram.weakTerminals[sym]; !weak {
		t.Fatal("an implicit keyword must be weak")
	}
}

// The grammar of matched pairs: S = 'a' S 'b' | ε.
func matchedPairsAST() *language.Language {
	return grammarAST(
		grammarUnit(
			def("S", language.DefinitionOpAssign,
				prod(term("a"), nonterm("S"), term("b")),
				prod(),
			),
		),
		parserUnit("S"),
	)
}

func TestCompile_MatchedPairs(t *testing.T) {
	diags := &verr.DiagnosticList{}
	b := &GrammarBuilder{
		AST:         matchedPairsAST(),
		Diagnostics: diags,
	}
	gram, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}

	cgram, report, err := Compile(gram, EnableReporting(), WithDiagnostics(diags))
	if err != nil {
		t.Fatal(err)
	}
	if diags.HasErrors() {
		for _, d := range diags.All() {
			t.Logf("%v", d)
		}
		t.Fatal("the build must not report errors")
	}

	if cgram.Syntactic.StateCount == 0 {
		t.Fatal("the parser must have states")
	}
	if cgram.Lexical.StateCount == 0 {
		t.Fatal("the lexer must have states")
	}
	if report == nil {
		t.Fatal("reporting was enabled")
	}

	// The grammar is LALR(1): no conflicts expected.
	if hasDiag(diags, CodeUnresolvedSRConflict) || hasDiag(diags, CodeUnresolvedRRConflict) {
		t.Fatal("the grammar must build without conflicts")
	}
}

// The classic non-SLR grammar: S = L '=' R | R ; L = '*' R | id ; R = L.
// LALR(1) look-ahead propagation must give R → L・ the look-ahead '='.
func TestLALR1_LookAheadPropagation(t *testing.T) {
	diags := &verr.DiagnosticList{}
	b := &GrammarBuilder{
		AST: grammarAST(
			lexerUnit(false, &language.LexemeDef{
				Identifier: "id",
				Definition: "[a-z]+",
				Kind:       language.LexemeKindRegex,
			}),
			grammarUnit(
				def("S", language.DefinitionOpAssign,
					prod(nonterm("L"), term("="), nonterm("R")),
					prod(nonterm("R")),
				),
				def("L", language.DefinitionOpAssign,
					prod(term("*"), nonterm("R")),
					prod(&language.EBNFItem{Kind: language.EBNFItemTerminal, Identifier: "id"}),
				),
				def("R", language.DefinitionOpAssign, prod(nonterm("L"))),
			),
			parserUnit("S"),
		),
		Diagnostics: diags,
	}
	gram, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}

	first, err := genFirstSet(gram.productionSet, gram.guardBodies)
	if err != nil {
		t.Fatal(err)
	}
	lr0, err := genLR0Automaton(gram.productionSet, gram.starts, gram.guardBodies)
	if err != nil {
		t.Fatal(err)
	}
	_, err = genLALR1Automaton(lr0, gram.productionSet, first)
	if err != nil {
		t.Fatal(err)
	}

	reader := gram.symbolTable.Reader()
	symL, _ := reader.ToSymbol("L")
	symR, _ := reader.ToSymbol("R")
	symEq, _ := reader.ToSymbol("=")

	// Find the state whose kernel is {R → L・}.
	var found bool
	for _, state := range lr0.states {
		if len(state.items) != 1 {
			continue
		}
		item := state.items[0]
		prod, _ := gram.productionSet.findByID(item.prod)
		if prod.lhs != symR || !item.reducible || prod.rhsLen != 1 || prod.rhs[0] != symL {
			continue
		}
		found = true
		if _, ok := item.lookAhead.symbols[symEq]; !ok {
			t.Fatalf("R → L・ must carry '=' in its look-ahead; got: %v", item.lookAhead.symbols)
		}
	}
	if !found {
		t.Fatal("the state {R → L・} was not generated")
	}

	// The grammar is LALR(1) but not SLR(1); a correct build has no
	// conflicts.
	builder := &lrTableBuilder{
		automaton: lr0,
		prods:     gram.productionSet,
		symTab:    reader,
		first:     first,
		weak:      gram.weakTerminals,
		skip:      gram.ignoredTerminals,
		mainStart: gram.starts[0],
	}
	_, err = builder.build()
	if err != nil {
		t.Fatal(err)
	}
	if len(builder.conflicts) != 0 {
		t.Fatalf("the grammar must build without conflicts; got %v", len(builder.conflicts))
	}
}

func TestCompile_LexicalSyntaxError(t *testing.T) {
	diags := &verr.DiagnosticList{}
	b := &GrammarBuilder{
		AST: grammarAST(
			lexerUnit(false, &language.LexemeDef{
				Identifier: "broken",
				Definition: "a{2,1}",
				Kind:       language.LexemeKindRegex,
			}),
			grammarUnit(
				def("S", language.DefinitionOpAssign,
					prod(&language.EBNFItem{Kind: language.EBNFItemTerminal, Identifier: "broken"})),
			),
			parserUnit("S"),
		),
		Diagnostics: diags,
	}
	gram, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	cgram, _, err := Compile(gram, WithDiagnostics(diags))
	if err != nil {
		t.Fatal(err)
	}
	if cgram == nil {
		t.Fatal("a best-effort result must be returned")
	}
	if !hasDiag(diags, CodeRegexSyntaxError) {
		t.Fatal("the malformed pattern must be reported")
	}
	var named bool
	for _, d := range diags.All() {
		if d.Code == CodeRegexSyntaxError && strings.Contains(d.Message, "broken") {
			named = true
		}
	}
	if !named {
		t.Fatal("the diagnostic must name the offending symbol")
	}
}
