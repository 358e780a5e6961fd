package lexical

import (
	"fmt"

	"github.com/nihei9/weft/grammar/lexical/automaton"
	"github.com/nihei9/weft/grammar/lexical/parser"
)

// LexEntry defines one lexer symbol. Symbol is the terminal number the
// entry emits; Kind encodes the language unit the entry came from, which
// fixes its priority against other entries matching the same text.
type LexEntry struct {
	Symbol          int
	Name            string
	Pattern         string
	Literal         bool
	CaseInsensitive bool
	Kind            automaton.UnitKind
	Weak            bool
}

// LexSpec is the input of the lexer compiler: the entries in definition
// order plus the named expressions patterns may reference.
type LexSpec struct {
	Entries     []*LexEntry
	Expressions parser.ExpressionTable
}

func (s *LexSpec) Validate() error {
	if len(s.Entries) == 0 {
		return fmt.Errorf("a lexical specification must have at least one entry")
	}
	for _, e := range s.Entries {
		if e.Symbol <= 0 {
			return fmt.Errorf("entry %v has no terminal symbol", e.Name)
		}
		if e.Kind == automaton.UnitNone {
			return fmt.Errorf("entry %v has no language unit kind", e.Name)
		}
	}
	return nil
}
