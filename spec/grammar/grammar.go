package grammar

// CompiledGrammar bundles every table a runtime needs to drive the lexer
// and the parser. The layout is part of the runtime contract; emitters
// for other targets consume the same structure through EmitGrammar.
type CompiledGrammar struct {
	Name      string         `json:"name"`
	Lexical   *LexicalSpec   `json:"lexical"`
	Syntactic *SyntacticSpec `json:"syntactic"`
}

// StateIDNil marks a rejecting entry of the lexer transition tables.
const StateIDNil = -1

// TranslatorEntry maps the code points of [Lower, Upper) to the symbol
// set Set. Lookup is an upper-bound search on Lower followed by a bounds
// check against Upper.
type TranslatorEntry struct {
	Lower int `json:"lower"`
	Upper int `json:"upper"`
	Set   int `json:"set"`
}

// RowKind selects the representation of the lexer transition rows.
type RowKind string

const (
	// RowKindFlat stores one entry per (state, set) pair; -1 rejects.
	// Lookup is O(1). Suited to densely populated automata.
	RowKindFlat = RowKind("flat")

	// RowKindCompact stores the populated (set, next) pairs of each
	// state sorted by set; lookup is a binary search. Suited to sparsely
	// populated automata.
	RowKindCompact = RowKind("compact")
)

// CompactEntry is one populated transition of a compact row.
type CompactEntry struct {
	Set  int `json:"set"`
	Next int `json:"next"`
}

type LexicalSpec struct {
	SetCount     int               `json:"set_count"`
	Translator   []TranslatorEntry `json:"translator"`
	RowKind      RowKind           `json:"row_kind"`
	InitialState int               `json:"initial_state"`
	StateCount   int               `json:"state_count"`

	// FlatRows is the dense table (state*SetCount+set), and CompactRows
	// the sparse one; exactly one is populated according to RowKind.
	// CompressionLevel 1 and 2 wrap the flat table in a
	// UniqueEntriesTable instead.
	FlatRows         []int               `json:"flat_rows,omitempty"`
	CompactRows      [][]CompactEntry    `json:"compact_rows,omitempty"`
	Compressed       *UniqueEntriesTable `json:"compressed,omitempty"`
	CompressionLevel int                 `json:"compression_level"`

	// Accepts holds the terminal a state emits, or 0 for non-accepting
	// states.
	Accepts []int `json:"accepts"`

	// WeakOf and StrongOf resolve the parallel terminals the weak-symbol
	// machinery introduces: a token whose terminal t has WeakOf[t] != 0
	// carries both the weak identity WeakOf[t] and the strong fallback
	// StrongOf[t].
	WeakOf   []int `json:"weak_of"`
	StrongOf []int `json:"strong_of"`
}

// RowDisplacementTable is the displaced representation of a sparse table:
// rows overlap in one entry array, and each entry remembers the row it
// belongs to through Bounds.
type RowDisplacementTable struct {
	OriginalRowCount int   `json:"original_row_count"`
	OriginalColCount int   `json:"original_col_count"`
	EmptyValue       int   `json:"empty_value"`
	Entries          []int `json:"entries"`
	Bounds           []int `json:"bounds"`
	RowDisplacement  []int `json:"row_displacement"`
}

// UniqueEntriesTable deduplicates identical rows; RowNums maps original
// rows to unique ones.
type UniqueEntriesTable struct {
	UniqueEntries             *RowDisplacementTable `json:"unique_entries,omitempty"`
	UncompressedUniqueEntries []int                 `json:"uncompressed_unique_entries,omitempty"`
	RowNums                   []int                 `json:"row_nums"`
	OriginalRowCount          int                   `json:"original_row_count"`
	OriginalColCount          int                   `json:"original_col_count"`
}

// ActionKind tags one parser action.
type ActionKind int

const (
	ActionShift ActionKind = iota
	ActionReduce
	ActionWeakReduce
	ActionAccept
	ActionGoto
	ActionDivert
	ActionIgnore
	ActionGuard
)

func (k ActionKind) String() string {
	switch k {
	case ActionShift:
		return "shift"
	case ActionReduce:
		return "reduce"
	case ActionWeakReduce:
		return "weak-reduce"
	case ActionAccept:
		return "accept"
	case ActionGoto:
		return "goto"
	case ActionDivert:
		return "divert"
	case ActionIgnore:
		return "ignore"
	case ActionGuard:
		return "guard"
	}
	return "unknown"
}

// ActionRow is one action of a state. Target is the next state for
// shift/goto/divert, the rule number for reduce/weak-reduce/accept, and
// the guard table index for guard actions.
type ActionRow struct {
	Symbol int        `json:"symbol"`
	Kind   ActionKind `json:"kind"`
	Target int        `json:"target"`
}

// StateActions holds the action rows of one state, split into the rows
// keyed by terminals and the rows keyed by nonterminals, each sorted by
// symbol. A symbol may own several rows; the runtime tries them in order
// and takes the first one that applies.
type StateActions struct {
	Terminal    []ActionRow `json:"terminal"`
	NonTerminal []ActionRow `json:"non_terminal"`
}

// RuleRow describes one rule for the reduce actions: the nonterminal the
// rule reduces to and the number of symbols it pops.
type RuleRow struct {
	LHS int `json:"lhs"`
	Len int `json:"len"`
}

// GuardRow describes one guard: the state its sub-automaton starts in
// and the opaque guard nonterminal that the host rule carries, whose goto
// the host state takes when the guard matches.
type GuardRow struct {
	InitialState int `json:"initial_state"`
	Guard        int `json:"guard"`
}

type SyntacticSpec struct {
	InitialState     int             `json:"initial_state"`
	StateCount       int             `json:"state_count"`
	States           []*StateActions `json:"states"`
	Rules            []RuleRow       `json:"rules"`
	Terminals        []string        `json:"terminals"`
	TerminalCount    int             `json:"terminal_count"`
	NonTerminals     []string        `json:"non_terminals"`
	NonTerminalCount int             `json:"non_terminal_count"`
	EOFSymbol        int             `json:"eof_symbol"`
	EOGSymbol        int             `json:"eog_symbol"`

	// TerminalSkip marks the terminals the parser discards between
	// meaningful tokens.
	TerminalSkip []int `json:"terminal_skip"`

	Guards []GuardRow `json:"guards"`
}
