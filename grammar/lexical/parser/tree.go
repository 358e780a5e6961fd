package parser

import (
	"github.com/nihei9/weft/grammar/lexical/symbolset"
)

// maxCodePoint bounds the symbol domain of patterns.
const maxCodePoint = rune(0x10FFFF)

type node interface {
	isNode()
}

// charNode consumes one code point. Case folding applies when the
// enclosing pattern is case-insensitive.
type charNode struct {
	c rune
}

// setNode consumes any code point of a set. Classes, the dot, and the
// shorthand escapes compile to it; case folding never applies.
type setNode struct {
	set *symbolset.SymbolSet
}

// concatNode runs its children in sequence.
type concatNode struct {
	seq []node
}

// altNode accepts any one of its branches.
type altNode struct {
	alts []node
}

// repeatNode repeats its body between min and max times; max < 0 means
// unbounded.
type repeatNode struct {
	body node
	min  int
	max  int
}

// refNode references a named expression resolved against the caller's
// expression table.
type refNode struct {
	name string
}

// anchorNode is a zero-width assertion. Token patterns are implicitly
// anchored at both ends by the longest-match rule, so anchors consume
// nothing.
type anchorNode struct {
	end bool
}

func (*charNode) isNode()   {}
func (*setNode) isNode()    {}
func (*concatNode) isNode() {}
func (*altNode) isNode()    {}
func (*repeatNode) isNode() {}
func (*refNode) isNode()    {}
func (*anchorNode) isNode() {}

func anyCharSet() *symbolset.SymbolSet {
	s := symbolset.NewSymbolSet(symbolset.NewRange(0, maxCodePoint+1))
	s.Exclude(symbolset.RangeOf('\n'))
	return s
}

func digitSet() *symbolset.SymbolSet {
	return symbolset.NewSymbolSet(symbolset.NewRange('0', '9'+1))
}

func wordSet() *symbolset.SymbolSet {
	return symbolset.NewSymbolSet(
		symbolset.NewRange('0', '9'+1),
		symbolset.NewRange('A', 'Z'+1),
		symbolset.NewRange('a', 'z'+1),
		symbolset.RangeOf('_'),
	)
}

func spaceSet() *symbolset.SymbolSet {
	return symbolset.NewSymbolSet(
		symbolset.NewRange('\t', '\r'+1),
		symbolset.RangeOf(' '),
	)
}

// negate returns the complement of s over the whole symbol domain,
// including the newline the dot excludes.
func negate(s *symbolset.SymbolSet) *symbolset.SymbolSet {
	c := symbolset.NewSymbolSet(symbolset.NewRange(0, maxCodePoint+1))
	c.ExcludeSet(s)
	return c
}
