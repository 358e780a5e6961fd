package grammar

import (
	"fmt"
	"sort"

	"github.com/cnf/structhash"
	verr "github.com/nihei9/weft/error"
	"github.com/nihei9/weft/grammar/lexical"
	"github.com/nihei9/weft/grammar/lexical/automaton"
	"github.com/nihei9/weft/grammar/lexical/parser"
	"github.com/nihei9/weft/grammar/symbol"
	spec "github.com/nihei9/weft/spec/grammar"
	"github.com/nihei9/weft/spec/language"
)

// Grammar is the compiled-in-memory form of a language definition: the
// symbol dictionaries, the lexical entries awaiting DFA construction,
// and the context-free productions awaiting table construction.
type Grammar struct {
	name             string
	symbolTable      *symbol.SymbolTable
	productionSet    *productionSet
	lexSpec          *lexical.LexSpec
	weakTerminals    map[symbol.Symbol]struct{}
	ignoredTerminals map[symbol.Symbol]struct{}
	guards           []*guardInfo
	guardBodies      map[symbol.Symbol]symbol.Symbol
	anonymous        map[symbol.Symbol]struct{}

	// starts holds the augmented start symbols: the main entry point
	// first, then one per guard sub-automaton.
	starts []symbol.Symbol
}

type expressionTable map[string][]parser.ExpressionItem

func (t expressionTable) Expressions(name string) []parser.ExpressionItem {
	return t[name]
}

// GrammarBuilder turns a language AST into a Grammar. Diagnostics go to
// Diagnostics when set; building continues past anything below bug
// severity and returns a best-effort grammar.
type GrammarBuilder struct {
	AST         *language.Language
	Diagnostics *verr.DiagnosticList

	w           *symbol.SymbolTableWriter
	r           *symbol.SymbolTableReader
	gram        *Grammar
	exprs       expressionTable
	referenced  map[symbol.Symbol]struct{}
	firstUsage  map[symbol.Symbol]language.Position
	anonByHash  map[string]symbol.Symbol
	guardByHash map[string]*guardInfo
	entryPos    map[int]language.Position
}

func (b *GrammarBuilder) Build() (*Grammar, error) {
	if b.AST == nil {
		return nil, fmt.Errorf("an AST must be non-nil")
	}
	if b.Diagnostics == nil {
		b.Diagnostics = &verr.DiagnosticList{}
	}

	symTab := symbol.NewSymbolTable()
	b.w = symTab.Writer()
	b.r = symTab.Reader()
	b.gram = &Grammar{
		name:             b.AST.Identifier,
		symbolTable:      symTab,
		productionSet:    newProductionSet(),
		lexSpec:          &lexical.LexSpec{},
		weakTerminals:    map[symbol.Symbol]struct{}{},
		ignoredTerminals: map[symbol.Symbol]struct{}{},
		guardBodies:      map[symbol.Symbol]symbol.Symbol{},
		anonymous:        map[symbol.Symbol]struct{}{},
	}
	b.exprs = expressionTable{}
	b.referenced = map[symbol.Symbol]struct{}{}
	b.firstUsage = map[symbol.Symbol]language.Position{}
	b.anonByHash = map[string]symbol.Symbol{}
	b.guardByHash = map[string]*guardInfo{}
	b.entryPos = map[int]language.Position{}

	b.collectExpressions()
	b.collectTerminals()
	b.collectImplicitTerminals()
	err := b.compileGrammarUnits()
	if err != nil {
		return nil, err
	}
	err = b.registerStartSymbols()
	if err != nil {
		return nil, err
	}
	b.checkUndefinedNonterminals()
	b.checkUnusedTerminals()
	b.coalesceIgnoredSymbols()

	b.gram.lexSpec.Expressions = b.exprs

	return b.gram, nil
}

func (b *GrammarBuilder) report(severity verr.Severity, code string, pos language.Position, format string, args ...interface{}) {
	b.Diagnostics.Report(&verr.Diagnostic{
		Severity: severity,
		Code:     code,
		Row:      pos.Row,
		Col:      pos.Col,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (b *GrammarBuilder) collectExpressions() {
	for _, unit := range b.AST.Units {
		if unit.Kind != language.UnitKindLexerSymbols {
			continue
		}
		for _, def := range unit.Lexemes {
			b.exprs[def.Identifier] = append(b.exprs[def.Identifier], parser.ExpressionItem{
				Pattern:         def.Definition,
				Literal:         def.Kind != language.LexemeKindRegex,
				CaseInsensitive: def.CaseInsensitive,
			})
		}
	}
}

// lexerPass describes one pass over the lexeme-defining units. The pass
// order fixes the priority of the accept actions: symbols defined in
// earlier passes win over symbols defined in later ones when a state
// accepts several.
type lexerPass struct {
	unitKind automaton.UnitKind
	match    func(*language.Unit) bool
}

var lexerPasses = []lexerPass{
	{
		unitKind: automaton.UnitWeakKeywords,
		match: func(u *language.Unit) bool {
			return u.Kind == language.UnitKindKeywordDefs && u.Weak
		},
	},
	{
		unitKind: automaton.UnitWeakLexer,
		match: func(u *language.Unit) bool {
			return u.Kind == language.UnitKindLexerDefs && u.Weak
		},
	},
	{
		unitKind: automaton.UnitKeywords,
		match: func(u *language.Unit) bool {
			return u.Kind == language.UnitKindKeywordDefs && !u.Weak
		},
	},
	{
		unitKind: automaton.UnitLexer,
		match: func(u *language.Unit) bool {
			return u.Kind == language.UnitKindLexerDefs && !u.Weak
		},
	},
	{
		unitKind: automaton.UnitIgnore,
		match: func(u *language.Unit) bool {
			return u.Kind == language.UnitKindIgnoreDefs
		},
	},
}

func (b *GrammarBuilder) collectTerminals() {
	for _, pass := range lexerPasses {
		for _, unit := range b.AST.Units {
			if !pass.match(unit) {
				continue
			}
			for _, def := range unit.Lexemes {
				if _, exists := b.r.ToSymbol(def.Identifier); exists {
					b.report(verr.SeverityError, CodeDuplicateLexerSymbol, def.Pos,
						"duplicate lexer symbol: %v", def.Identifier)
					continue
				}
				sym, err := b.w.RegisterTerminalSymbol(def.Identifier)
				if err != nil {
					b.report(verr.SeverityBug, "", def.Pos, "%v", err)
					continue
				}

				weak := pass.unitKind == automaton.UnitWeakKeywords || pass.unitKind == automaton.UnitWeakLexer
				if weak {
					b.gram.weakTerminals[sym] = struct{}{}
				}

				b.entryPos[sym.Num().Int()] = def.Pos
				b.gram.lexSpec.Entries = append(b.gram.lexSpec.Entries, &lexical.LexEntry{
					Symbol:          sym.Num().Int(),
					Name:            def.Identifier,
					Pattern:         def.Definition,
					Literal:         def.Kind != language.LexemeKindRegex,
					CaseInsensitive: def.CaseInsensitive,
					Kind:            pass.unitKind,
					Weak:            weak,
				})
			}
		}
	}
}

// collectImplicitTerminals defines the terminals the grammar references
// without a lexer-block definition. They become weak keywords, so a
// symbol like 'then' never steals text from the identifiers unless the
// grammar expects it.
func (b *GrammarBuilder) collectImplicitTerminals() {
	var walk func(item *language.EBNFItem)
	walk = func(item *language.EBNFItem) {
		switch item.Kind {
		case language.EBNFItemTerminal, language.EBNFItemString, language.EBNFItemCharacter:
			if _, exists := b.r.ToSymbol(item.Identifier); exists {
				return
			}
			if item.Kind == language.EBNFItemTerminal {
				b.report(verr.SeverityWarning, CodeImplicitLexerSymbol, item.Pos,
					"implicitly defining keyword: %v", item.Identifier)
			}
			sym, err := b.w.RegisterTerminalSymbol(item.Identifier)
			if err != nil {
				b.report(verr.SeverityBug, "", item.Pos, "%v", err)
				return
			}
			b.gram.weakTerminals[sym] = struct{}{}
			b.entryPos[sym.Num().Int()] = item.Pos
			b.gram.lexSpec.Entries = append(b.gram.lexSpec.Entries, &lexical.LexEntry{
				Symbol:  sym.Num().Int(),
				Name:    item.Identifier,
				Pattern: item.Identifier,
				Literal: true,
				Kind:    automaton.UnitWeakKeywords,
				Weak:    true,
			})
		case language.EBNFItemNonterminal:
		default:
			for _, child := range item.Children {
				walk(child)
			}
		}
	}

	for _, unit := range b.AST.Units {
		if unit.Kind != language.UnitKindGrammarDefs {
			continue
		}
		for _, def := range unit.Nonterminals {
			for _, prod := range def.Productions {
				for _, item := range prod.Items {
					walk(item)
				}
			}
		}
	}
}

func (b *GrammarBuilder) compileGrammarUnits() error {
	for _, unit := range b.AST.Units {
		if unit.Kind != language.UnitKindGrammarDefs {
			continue
		}
		for _, def := range unit.Nonterminals {
			sym, err := b.w.RegisterNonTerminalSymbol(def.Identifier)
			if err != nil {
				return err
			}

			prods, _ := b.gram.productionSet.findByLHS(sym)
			alreadyDefined := len(prods) > 0

			switch def.Op {
			case language.DefinitionOpAssign:
				if alreadyDefined {
					b.report(verr.SeverityError, CodeDuplicateNonterminalDefinition, def.Pos,
						"duplicate nonterminal definition: %v", def.Identifier)
				}
			case language.DefinitionOpReplace:
				if alreadyDefined {
					b.gram.productionSet.removeByLHS(sym)
				}
			}

			for _, prod := range def.Productions {
				var rhs []symbol.Symbol
				for _, item := range prod.Items {
					syms, err := b.compileItem(item)
					if err != nil {
						return err
					}
					rhs = append(rhs, syms...)
				}
				err := b.addProduction(sym, rhs)
				if err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (b *GrammarBuilder) addProduction(lhs symbol.Symbol, rhs []symbol.Symbol) error {
	prod, err := newProduction(lhs, rhs)
	if err != nil {
		return err
	}
	b.gram.productionSet.append(prod)
	return nil
}

func (b *GrammarBuilder) compileItem(item *language.EBNFItem) ([]symbol.Symbol, error) {
	switch item.Kind {
	case language.EBNFItemTerminal, language.EBNFItemString, language.EBNFItemCharacter:
		sym, ok := b.r.ToSymbol(item.Identifier)
		if !ok {
			return nil, fmt.Errorf("a terminal is missing from the dictionary: %v", item.Identifier)
		}
		b.referenced[sym] = struct{}{}
		return []symbol.Symbol{sym}, nil
	case language.EBNFItemNonterminal:
		sym, err := b.w.RegisterNonTerminalSymbol(item.Identifier)
		if err != nil {
			return nil, err
		}
		if _, ok := b.firstUsage[sym]; !ok {
			b.firstUsage[sym] = item.Pos
		}
		return []symbol.Symbol{sym}, nil
	case language.EBNFItemParenthesised:
		var seq []symbol.Symbol
		for _, child := range item.Children {
			syms, err := b.compileItem(child)
			if err != nil {
				return nil, err
			}
			seq = append(seq, syms...)
		}
		return seq, nil
	case language.EBNFItemOptional, language.EBNFItemRepeatZero, language.EBNFItemRepeatOne, language.EBNFItemAlternative:
		sym, err := b.materialise(item)
		if err != nil {
			return nil, err
		}
		return []symbol.Symbol{sym}, nil
	case language.EBNFItemGuard:
		sym, err := b.materialiseGuard(item)
		if err != nil {
			return nil, err
		}
		return []symbol.Symbol{sym}, nil
	}
	return nil, fmt.Errorf("unknown EBNF item kind: %v", item.Kind)
}

// itemShape is the canonical form of an EBNF item used for hashing.
// Positions are stripped so that identical sub-patterns written in
// different places share one anonymous nonterminal.
type itemShape struct {
	Kind     string
	Ident    string
	Children []itemShape
}

func shapeOf(item *language.EBNFItem) itemShape {
	s := itemShape{
		Kind:  string(item.Kind),
		Ident: item.Identifier,
	}
	for _, child := range item.Children {
		s.Children = append(s.Children, shapeOf(child))
	}
	return s
}

func itemHash(item *language.EBNFItem) string {
	return fmt.Sprintf("%x", structhash.Sha1(shapeOf(item), 1))[:8]
}

// materialise creates the anonymous nonterminal for one compound item
// and synthesises its rules. The nonterminal's name embeds a hash of the
// item's shape, so equal sub-patterns share storage and the numbering
// stays deterministic.
func (b *GrammarBuilder) materialise(item *language.EBNFItem) (symbol.Symbol, error) {
	hash := itemHash(item)
	if sym, ok := b.anonByHash[hash]; ok {
		return sym, nil
	}

	var tag string
	switch item.Kind {
	case language.EBNFItemOptional:
		tag = "opt"
	case language.EBNFItemRepeatZero:
		tag = "rep0"
	case language.EBNFItemRepeatOne:
		tag = "rep1"
	case language.EBNFItemAlternative:
		tag = "alt"
	}
	sym, err := b.w.RegisterNonTerminalSymbol(fmt.Sprintf("<%v:%v>", tag, hash))
	if err != nil {
		return symbol.SymbolNil, err
	}
	b.anonByHash[hash] = sym
	b.gram.anonymous[sym] = struct{}{}

	compileSeq := func(items []*language.EBNFItem) ([]symbol.Symbol, error) {
		var seq []symbol.Symbol
		for _, child := range items {
			syms, err := b.compileItem(child)
			if err != nil {
				return nil, err
			}
			seq = append(seq, syms...)
		}
		return seq, nil
	}

	switch item.Kind {
	case language.EBNFItemOptional:
		seq, err := compileSeq(item.Children)
		if err != nil {
			return symbol.SymbolNil, err
		}
		if err := b.addProduction(sym, nil); err != nil {
			return symbol.SymbolNil, err
		}
		if err := b.addProduction(sym, seq); err != nil {
			return symbol.SymbolNil, err
		}
	case language.EBNFItemRepeatZero:
		seq, err := compileSeq(item.Children)
		if err != nil {
			return symbol.SymbolNil, err
		}
		if err := b.addProduction(sym, nil); err != nil {
			return symbol.SymbolNil, err
		}
		if err := b.addProduction(sym, append([]symbol.Symbol{sym}, seq...)); err != nil {
			return symbol.SymbolNil, err
		}
	case language.EBNFItemRepeatOne:
		seq, err := compileSeq(item.Children)
		if err != nil {
			return symbol.SymbolNil, err
		}
		if err := b.addProduction(sym, seq); err != nil {
			return symbol.SymbolNil, err
		}
		if err := b.addProduction(sym, append([]symbol.Symbol{sym}, seq...)); err != nil {
			return symbol.SymbolNil, err
		}
	case language.EBNFItemAlternative:
		if len(item.Children) != 2 {
			return symbol.SymbolNil, fmt.Errorf("an alternative item must have exactly two children")
		}
		for _, child := range item.Children {
			seq, err := compileSeq([]*language.EBNFItem{child})
			if err != nil {
				return symbol.SymbolNil, err
			}
			if err := b.addProduction(sym, seq); err != nil {
				return symbol.SymbolNil, err
			}
		}
	}

	return sym, nil
}

// materialiseGuard creates the three symbols of one guard: the body
// nonterminal holding the guarded language, the opaque guard symbol the
// host rule carries, and the augmented start of the guard sub-automaton
// recognising `body <eog>`.
func (b *GrammarBuilder) materialiseGuard(item *language.EBNFItem) (symbol.Symbol, error) {
	hash := itemHash(item)
	if g, ok := b.guardByHash[hash]; ok {
		return g.sym, nil
	}

	body, err := b.w.RegisterNonTerminalSymbol(fmt.Sprintf("<guard-body:%v>", hash))
	if err != nil {
		return symbol.SymbolNil, err
	}
	b.gram.anonymous[body] = struct{}{}

	var seq []symbol.Symbol
	for _, child := range item.Children {
		syms, err := b.compileItem(child)
		if err != nil {
			return symbol.SymbolNil, err
		}
		seq = append(seq, syms...)
	}
	if err := b.addProduction(body, seq); err != nil {
		return symbol.SymbolNil, err
	}

	guardSym, err := b.w.RegisterNonTerminalSymbol(fmt.Sprintf("<guard:%v>", hash))
	if err != nil {
		return symbol.SymbolNil, err
	}
	b.gram.anonymous[guardSym] = struct{}{}

	start, err := b.w.RegisterNonTerminalSymbol(fmt.Sprintf("<guard-start:%v>", hash))
	if err != nil {
		return symbol.SymbolNil, err
	}
	b.gram.anonymous[start] = struct{}{}
	startProd, err := newProduction(start, []symbol.Symbol{body, symbol.SymbolEOG})
	if err != nil {
		return symbol.SymbolNil, err
	}
	startProd.augmented = true
	b.gram.productionSet.append(startProd)

	g := &guardInfo{
		sym:   guardSym,
		body:  body,
		start: start,
	}
	b.guardByHash[hash] = g
	b.gram.guards = append(b.gram.guards, g)
	b.gram.guardBodies[guardSym] = body

	return guardSym, nil
}

func (b *GrammarBuilder) registerStartSymbols() error {
	var startNames []string
	for _, unit := range b.AST.Units {
		if unit.Kind != language.UnitKindParserBlock {
			continue
		}
		startNames = append(startNames, unit.StartSymbols...)
	}
	if len(startNames) == 0 {
		// Default to the first defined nonterminal.
		for _, unit := range b.AST.Units {
			if unit.Kind != language.UnitKindGrammarDefs || len(unit.Nonterminals) == 0 {
				continue
			}
			startNames = append(startNames, unit.Nonterminals[0].Identifier)
			break
		}
	}
	if len(startNames) == 0 {
		b.report(verr.SeverityError, CodeNoStartSymbol, language.Position{}, "a grammar needs a start symbol")
		return fmt.Errorf("a grammar needs a start symbol")
	}

	for _, name := range startNames {
		userStart, ok := b.r.ToSymbol(name)
		if !ok || !userStart.IsNonTerminal() {
			b.report(verr.SeverityError, CodeUndefinedNonterminal, language.Position{},
				"undefined nonterminal: %v", name)
			continue
		}
		augStart, err := b.w.RegisterNonTerminalSymbol(fmt.Sprintf("<start:%v>", name))
		if err != nil {
			return err
		}
		b.gram.anonymous[augStart] = struct{}{}
		prod, err := newProduction(augStart, []symbol.Symbol{userStart})
		if err != nil {
			return err
		}
		prod.augmented = true
		b.gram.productionSet.append(prod)
		b.gram.starts = append(b.gram.starts, augStart)
	}
	if len(b.gram.starts) == 0 {
		return fmt.Errorf("a grammar needs a start symbol")
	}

	// The guard sub-automata are built alongside the main one.
	for _, g := range b.gram.guards {
		b.gram.starts = append(b.gram.starts, g.start)
	}

	return nil
}

func (b *GrammarBuilder) checkUndefinedNonterminals() {
	for _, sym := range b.r.NonTerminalSymbols() {
		if sym.IsEOG() {
			continue
		}
		if _, isGuard := b.gram.guardBodies[sym]; isGuard {
			continue
		}
		prods, _ := b.gram.productionSet.findByLHS(sym)
		if len(prods) > 0 {
			continue
		}
		name, _ := b.r.ToText(sym)
		b.report(verr.SeverityError, CodeUndefinedNonterminal, b.firstUsage[sym],
			"undefined nonterminal: %v", name)
	}
}

func (b *GrammarBuilder) checkUnusedTerminals() {
	for _, e := range b.gram.lexSpec.Entries {
		if e.Kind == automaton.UnitIgnore {
			continue
		}
		sym, ok := b.r.ToSymbol(e.Name)
		if !ok {
			continue
		}
		if _, used := b.referenced[sym]; used {
			continue
		}
		pos := b.entryPos[e.Symbol]
		b.report(verr.SeverityWarning, CodeUnusedTerminalSymbol, pos,
			"unused terminal symbol definition: %v", e.Name)
	}
}

// coalesceIgnoredSymbols gives every ignored symbol the grammar never
// references the same terminal number, so the lexer emits one uniform
// skip token for all of them. Ignored symbols the grammar does use keep
// their own numbers and are not skipped.
func (b *GrammarBuilder) coalesceIgnoredSymbols() {
	bland := -1
	for _, e := range b.gram.lexSpec.Entries {
		if e.Kind != automaton.UnitIgnore {
			continue
		}
		sym, ok := b.r.ToSymbol(e.Name)
		if !ok {
			continue
		}
		if _, used := b.referenced[sym]; used {
			continue
		}
		if bland < 0 {
			bland = e.Symbol
		} else {
			e.Symbol = bland
		}
		skipSym, _ := b.r.ToSymbol(b.r.TerminalTexts()[bland])
		b.gram.ignoredTerminals[skipSym] = struct{}{}
	}
}

type compileConfig struct {
	reporting bool
	rowKind   spec.RowKind
	compLv    int
	diags     *verr.DiagnosticList
}

type CompileOption func(*compileConfig)

// EnableReporting makes Compile build a Report alongside the tables.
func EnableReporting() CompileOption {
	return func(c *compileConfig) {
		c.reporting = true
	}
}

func WithRowKind(k spec.RowKind) CompileOption {
	return func(c *compileConfig) {
		c.rowKind = k
	}
}

func WithCompressionLevel(lv int) CompileOption {
	return func(c *compileConfig) {
		c.compLv = lv
	}
}

// WithDiagnostics directs the diagnostics of the compilation stages to
// the given list.
func WithDiagnostics(d *verr.DiagnosticList) CompileOption {
	return func(c *compileConfig) {
		c.diags = d
	}
}

// Compile runs the whole pipeline over a grammar: lexer NFA, subset
// construction, weak-symbol augmentation, DFA minimisation, table
// rendering, then FIRST, the LR(0) collection, LALR(1) look-aheads, and
// the action tables.
func Compile(gram *Grammar, opts ...CompileOption) (*spec.CompiledGrammar, *spec.Report, error) {
	config := &compileConfig{}
	for _, opt := range opts {
		opt(config)
	}
	diags := config.diags
	if diags == nil {
		diags = &verr.DiagnosticList{}
	}

	reader := gram.symbolTable.Reader()
	writer := gram.symbolTable.Writer()

	dfa, err, cerrs := lexical.Compile(gram.lexSpec)
	if err != nil {
		return nil, nil, err
	}
	// Broken patterns don't stop the build: the offending entries are
	// skipped and the remaining tables stay inspectable.
	for _, cerr := range cerrs {
		diags.Report(&verr.Diagnostic{
			Severity: verr.SeverityError,
			Code:     CodeRegexSyntaxError,
			Message:  cerr.Error(),
		})
	}

	lexical.CheckGenerated(dfa, gram.lexSpec.Entries, diags)

	pairs, err := lexical.AugmentWeakSymbols(dfa, func(weak, strong int) (int, error) {
		texts := reader.TerminalTexts()
		sym, err := writer.RegisterTerminalSymbol(fmt.Sprintf("<weak:%v/%v>", texts[weak], texts[strong]))
		if err != nil {
			return 0, err
		}
		return sym.Num().Int(), nil
	})
	if err != nil {
		return nil, nil, err
	}

	lexSpec, err := lexical.Finish(dfa, pairs, reader.CountTerminals(), config.rowKind, config.compLv)
	if err != nil {
		return nil, nil, err
	}

	first, err := genFirstSet(gram.productionSet, gram.guardBodies)
	if err != nil {
		return nil, nil, err
	}
	lr0, err := genLR0Automaton(gram.productionSet, gram.starts, gram.guardBodies)
	if err != nil {
		return nil, nil, err
	}
	lalr, err := genLALR1Automaton(lr0, gram.productionSet, first)
	if err != nil {
		return nil, nil, err
	}

	builder := &lrTableBuilder{
		automaton: lalr.lr0Automaton,
		prods:     gram.productionSet,
		symTab:    reader,
		first:     first,
		weak:      gram.weakTerminals,
		guards:    gram.guards,
		skip:      gram.ignoredTerminals,
		mainStart: gram.starts[0],
	}
	syntactic, err := builder.build()
	if err != nil {
		return nil, nil, err
	}

	reportConflicts(builder.conflicts, reader, diags)

	var report *spec.Report
	if config.reporting {
		report, err = genReport(builder, gram, syntactic)
		if err != nil {
			return nil, nil, err
		}
	}

	return &spec.CompiledGrammar{
		Name:      gram.name,
		Lexical:   lexSpec,
		Syntactic: syntactic,
	}, report, nil
}

func reportConflicts(conflicts []conflict, reader *symbol.SymbolTableReader, diags *verr.DiagnosticList) {
	terms := reader.TerminalTexts()
	name := func(num int) string {
		if num >= 0 && num < len(terms) && terms[num] != "" {
			return terms[num]
		}
		return fmt.Sprintf("#%v", num)
	}
	for _, c := range conflicts {
		switch con := c.(type) {
		case *shiftReduceConflict:
			diags.Report(&verr.Diagnostic{
				Severity: verr.SeverityWarning,
				Code:     CodeUnresolvedSRConflict,
				Message: fmt.Sprintf("shift/reduce conflict in state %v on %v (shift to %v, reduce by rule %v); the shift wins",
					con.state, name(con.symNum), con.nextState, con.prodNum),
			})
		case *reduceReduceConflict:
			diags.Report(&verr.Diagnostic{
				Severity: verr.SeverityWarning,
				Code:     CodeUnresolvedRRConflict,
				Message: fmt.Sprintf("reduce/reduce conflict in state %v on %v between rules %v and %v; the earlier rule wins",
					con.state, name(con.symNum), con.prodNum1, con.prodNum2),
			})
		}
	}
}

func genReport(b *lrTableBuilder, gram *Grammar, tab *spec.SyntacticSpec) (*spec.Report, error) {
	reader := gram.symbolTable.Reader()

	var terms []*spec.Terminal
	{
		termSyms := reader.TerminalSymbols()
		terms = make([]*spec.Terminal, reader.CountTerminals())
		for _, sym := range termSyms {
			name, ok := reader.ToText(sym)
			if !ok {
				return nil, fmt.Errorf("symbol not found: %v", sym)
			}
			_, weak := gram.weakTerminals[sym]
			terms[sym.Num().Int()] = &spec.Terminal{
				Number: sym.Num().Int(),
				Name:   name,
				Weak:   weak,
			}
		}
	}

	var nonTerms []*spec.NonTerminal
	{
		nonTermSyms := reader.NonTerminalSymbols()
		nonTerms = make([]*spec.NonTerminal, reader.CountNonTerminals())
		for _, sym := range nonTermSyms {
			name, ok := reader.ToText(sym)
			if !ok {
				return nil, fmt.Errorf("symbol not found: %v", sym)
			}
			_, anon := gram.anonymous[sym]
			nonTerms[sym.Num().Int()] = &spec.NonTerminal{
				Number:    sym.Num().Int(),
				Name:      name,
				Anonymous: anon,
			}
		}
	}

	var prods []*spec.Production
	{
		ps := gram.productionSet.getAllProductions()
		prods = make([]*spec.Production, gram.productionSet.maxNum().Int()+1)
		for _, p := range ps {
			rhs := make([]int, len(p.rhs))
			for i, e := range p.rhs {
				if e.IsTerminal() {
					rhs[i] = e.Num().Int()
				} else {
					rhs[i] = e.Num().Int() * -1
				}
			}
			prods[p.num.Int()] = &spec.Production{
				Number: p.num.Int(),
				LHS:    p.lhs.Num().Int(),
				RHS:    rhs,
			}
		}
	}

	var states []*spec.State
	{
		srConflicts := map[stateNum][]*shiftReduceConflict{}
		rrConflicts := map[stateNum][]*reduceReduceConflict{}
		for _, con := range b.conflicts {
			switch c := con.(type) {
			case *shiftReduceConflict:
				srConflicts[c.state] = append(srConflicts[c.state], c)
			case *reduceReduceConflict:
				rrConflicts[c.state] = append(rrConflicts[c.state], c)
			}
		}

		states = make([]*spec.State, len(b.automaton.states))
		for _, s := range b.automaton.states {
			kernel := make([]*spec.Item, len(s.items))
			for i, item := range s.items {
				p, ok := b.prods.findByID(item.prod)
				if !ok {
					return nil, fmt.Errorf("production of a kernel item not found: %v", item.prod)
				}
				kernel[i] = &spec.Item{
					Production: p.num.Int(),
					Dot:        item.dot,
				}
			}
			sort.Slice(kernel, func(i, j int) bool {
				if kernel[i].Production != kernel[j].Production {
					return kernel[i].Production < kernel[j].Production
				}
				return kernel[i].Dot < kernel[j].Dot
			})

			var shift []*spec.Transition
			var reduce []*spec.Reduce
			var goTo []*spec.Transition
			actions := tab.States[s.num.Int()]
		TERMINAL_ROWS:
			for _, row := range actions.Terminal {
				switch row.Kind {
				case spec.ActionShift:
					shift = append(shift, &spec.Transition{
						Symbol: row.Symbol,
						State:  row.Target,
					})
				case spec.ActionReduce, spec.ActionWeakReduce:
					for _, r := range reduce {
						if r.Production == row.Target {
							r.LookAhead = append(r.LookAhead, row.Symbol)
							continue TERMINAL_ROWS
						}
					}
					reduce = append(reduce, &spec.Reduce{
						LookAhead:  []int{row.Symbol},
						Production: row.Target,
						Weak:       row.Kind == spec.ActionWeakReduce,
					})
				}
			}
			for _, row := range actions.NonTerminal {
				if row.Kind != spec.ActionGoto {
					continue
				}
				goTo = append(goTo, &spec.Transition{
					Symbol: row.Symbol,
					State:  row.Target,
				})
			}

			sr := []*spec.SRConflict{}
			rr := []*spec.RRConflict{}
			for _, c := range srConflicts[s.num] {
				n := c.nextState.Int()
				sr = append(sr, &spec.SRConflict{
					Symbol:       c.symNum,
					State:        c.nextState.Int(),
					Production:   c.prodNum.Int(),
					AdoptedState: &n,
				})
			}
			for _, c := range rrConflicts[s.num] {
				rr = append(rr, &spec.RRConflict{
					Symbol:            c.symNum,
					Production1:       c.prodNum1.Int(),
					Production2:       c.prodNum2.Int(),
					AdoptedProduction: c.prodNum1.Int(),
				})
			}

			states[s.num.Int()] = &spec.State{
				Number:     s.num.Int(),
				Kernel:     kernel,
				Shift:      shift,
				Reduce:     reduce,
				GoTo:       goTo,
				SRConflict: sr,
				RRConflict: rr,
			}
		}
	}

	return &spec.Report{
		Terminals:    terms,
		NonTerminals: nonTerms,
		Productions:  prods,
		States:       states,
	}, nil
}
