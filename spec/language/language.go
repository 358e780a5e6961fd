// Package language defines the grammar-file AST the compiler consumes.
// Producing the AST — parsing grammar source, resolving the import graph
// — is the front end's job; the compiler only ever sees these nodes.
package language

// Position locates a node in its source file. Row and Col are 1-based;
// zero values mean the position is unknown.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// TopLevel is one top-level block of a grammar file.
type TopLevel struct {
	Language *Language `json:"language,omitempty"`
	Import   *Import   `json:"import,omitempty"`
}

type Import struct {
	Path string   `json:"path"`
	Pos  Position `json:"pos"`
}

// Language is one language definition: a sequence of units defining
// lexer symbols, keywords, ignored symbols, the grammar, and the parser
// configuration.
type Language struct {
	Identifier string   `json:"identifier"`
	Inherits   []string `json:"inherits,omitempty"`
	Units      []*Unit  `json:"units"`
	Pos        Position `json:"pos"`
}

type UnitKind string

const (
	UnitKindLexerSymbols UnitKind = "lexer-symbols"
	UnitKindLexerDefs    UnitKind = "lexer"
	UnitKindKeywordDefs  UnitKind = "keywords"
	UnitKindIgnoreDefs   UnitKind = "ignore"
	UnitKindGrammarDefs  UnitKind = "grammar"
	UnitKindParserBlock  UnitKind = "parser"
)

type Unit struct {
	Kind UnitKind `json:"kind"`

	// Weak marks lexer and keyword units whose symbols only act as such
	// where the grammar expects them.
	Weak bool `json:"weak,omitempty"`

	Lexemes      []*LexemeDef      `json:"lexemes,omitempty"`
	Nonterminals []*NonterminalDef `json:"nonterminals,omitempty"`

	// StartSymbols names the nonterminals a parser unit exposes as entry
	// points.
	StartSymbols []string `json:"start_symbols,omitempty"`

	Pos Position `json:"pos"`
}

type LexemeKind string

const (
	LexemeKindRegex     LexemeKind = "regex"
	LexemeKindString    LexemeKind = "string"
	LexemeKindCharacter LexemeKind = "character"
	LexemeKindLiteral   LexemeKind = "literal"
)

type LexemeDef struct {
	Identifier      string     `json:"identifier"`
	Definition      string     `json:"definition"`
	Kind            LexemeKind `json:"kind"`
	CaseInsensitive bool       `json:"case_insensitive,omitempty"`
	Pos             Position   `json:"pos"`
}

// DefinitionOp is the operator a nonterminal definition uses: `=` errors
// on redefinition, `|=` appends productions, and `:=` replaces them.
type DefinitionOp string

const (
	DefinitionOpAssign  DefinitionOp = "="
	DefinitionOpAppend  DefinitionOp = "|="
	DefinitionOpReplace DefinitionOp = ":="
)

type NonterminalDef struct {
	Identifier  string        `json:"identifier"`
	Op          DefinitionOp  `json:"op"`
	Productions []*Production `json:"productions"`
	Pos         Position      `json:"pos"`
}

// Production is one alternative of a nonterminal definition.
type Production struct {
	Items []*EBNFItem `json:"items"`
	Pos   Position    `json:"pos"`
}

type EBNFItemKind string

const (
	EBNFItemTerminal      EBNFItemKind = "terminal"
	EBNFItemString        EBNFItemKind = "string"
	EBNFItemCharacter     EBNFItemKind = "character"
	EBNFItemNonterminal   EBNFItemKind = "nonterminal"
	EBNFItemOptional      EBNFItemKind = "optional"
	EBNFItemRepeatZero    EBNFItemKind = "repeat-zero"
	EBNFItemRepeatOne     EBNFItemKind = "repeat-one"
	EBNFItemAlternative   EBNFItemKind = "alternative"
	EBNFItemGuard         EBNFItemKind = "guard"
	EBNFItemParenthesised EBNFItemKind = "parenthesised"
)

// EBNFItem is one item of a production. Terminal-ish kinds carry an
// Identifier; compound kinds carry Children. An alternative has exactly
// two children, the left and right branches; the other compounds treat
// their children as a sequence.
type EBNFItem struct {
	Kind       EBNFItemKind `json:"kind"`
	Identifier string       `json:"identifier,omitempty"`
	Children   []*EBNFItem  `json:"children,omitempty"`
	Pos        Position     `json:"pos"`
}
