package lexer

import (
	"io"
	"sort"

	spec "github.com/nihei9/weft/spec/grammar"
)

// Token represents a token. Terminal is the terminal number the lexer
// emitted; when the terminal is one of the parallel identifiers the
// weak-symbol machinery introduces, Weak and Strong carry the two
// meanings the token can take.
type Token struct {
	Terminal int
	Weak     int
	Strong   int

	// Row and Col locate the lexeme, counted in code points. Row is
	// 0-based and increments on LF.
	Row int
	Col int

	Lexeme string

	EOF     bool
	Invalid bool
}

type lexerState struct {
	srcPtr int
	row    int
	col    int
}

// Lexer tokenises a source text against a compiled lexical
// specification. It always takes the longest match, reverting to the
// most recent accepting state when the automaton gets stuck.
type Lexer struct {
	spec              *spec.LexicalSpec
	src               []rune
	state             lexerState
	lastAcceptedState lexerState
}

func NewLexer(lexSpec *spec.LexicalSpec, src io.Reader) (*Lexer, error) {
	b, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}
	return &Lexer{
		spec: lexSpec,
		src:  []rune(string(b)),
	}, nil
}

// Next returns the next token. Maximal runs of unrecognisable input are
// bundled into one invalid token.
func (l *Lexer) Next() (*Token, error) {
	tok, err := l.next()
	if err != nil {
		return nil, err
	}
	if !tok.Invalid {
		return tok, nil
	}
	errTok := tok
	for {
		state := l.state
		tok, err = l.next()
		if err != nil {
			return nil, err
		}
		if !tok.Invalid {
			l.state = state
			break
		}
		errTok.Lexeme += tok.Lexeme
	}
	return errTok, nil
}

func (l *Lexer) next() (*Token, error) {
	state := l.spec.InitialState
	row := l.state.row
	col := l.state.col
	start := l.state.srcPtr
	var tok *Token
	for {
		c, eof := l.read()
		if eof {
			if tok != nil {
				l.revert()
				return tok, nil
			}
			if l.state.srcPtr > start {
				return &Token{
					Lexeme:  string(l.src[start:l.state.srcPtr]),
					Row:     row,
					Col:     col,
					Invalid: true,
				}, nil
			}
			return &Token{
				Row: row,
				Col: col,
				EOF: true,
			}, nil
		}

		nextState, ok := l.nextState(state, c)
		if !ok {
			if tok != nil {
				l.revert()
				return tok, nil
			}
			return &Token{
				Lexeme:  string(l.src[start:l.state.srcPtr]),
				Row:     row,
				Col:     col,
				Invalid: true,
			}, nil
		}
		state = nextState

		if term := l.spec.Accepts[state]; term != 0 {
			tok = &Token{
				Terminal: term,
				Weak:     l.spec.WeakOf[term],
				Strong:   l.spec.StrongOf[term],
				Lexeme:   string(l.src[start:l.state.srcPtr]),
				Row:      row,
				Col:      col,
			}
			l.accept()
		}
	}
}

func (l *Lexer) nextState(state int, c rune) (int, bool) {
	set := l.translate(c)
	if set < 0 {
		return 0, false
	}

	next := spec.StateIDNil
	switch {
	case l.spec.Compressed != nil:
		next = l.lookupCompressed(state, set)
	case l.spec.RowKind == spec.RowKindFlat:
		next = l.spec.FlatRows[state*l.spec.SetCount+set]
	default:
		row := l.spec.CompactRows[state]
		i := sort.Search(len(row), func(i int) bool {
			return row[i].Set >= set
		})
		if i < len(row) && row[i].Set == set {
			next = row[i].Next
		}
	}
	if next == spec.StateIDNil {
		return 0, false
	}
	return next, true
}

func (l *Lexer) lookupCompressed(state, set int) int {
	tab := l.spec.Compressed
	rowNum := tab.RowNums[state]
	if tab.UncompressedUniqueEntries != nil {
		return tab.UncompressedUniqueEntries[rowNum*tab.OriginalColCount+set]
	}
	rd := tab.UniqueEntries
	pos := rd.RowDisplacement[rowNum] + set
	if pos < 0 || pos >= len(rd.Entries) || rd.Bounds[pos] != rowNum {
		return rd.EmptyValue
	}
	return rd.Entries[pos]
}

// translate maps a code point to its symbol set by upper-bound search
// over the translation table.
func (l *Lexer) translate(c rune) int {
	entries := l.spec.Translator
	i := sort.Search(len(entries), func(i int) bool {
		return entries[i].Lower > int(c)
	})
	if i == 0 {
		return -1
	}
	e := entries[i-1]
	if int(c) >= e.Upper {
		return -1
	}
	return e.Set
}

func (l *Lexer) read() (rune, bool) {
	if l.state.srcPtr >= len(l.src) {
		return 0, true
	}
	c := l.src[l.state.srcPtr]
	l.state.srcPtr++
	if c == '\n' {
		l.state.row++
		l.state.col = 0
	} else {
		l.state.col++
	}
	return c, false
}

func (l *Lexer) accept() {
	l.lastAcceptedState = l.state
}

func (l *Lexer) revert() {
	l.state = l.lastAcceptedState
}
