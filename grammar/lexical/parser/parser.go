package parser

import (
	"strconv"
	"strings"

	"github.com/nihei9/weft/grammar/lexical/symbolset"
)

// parser turns pattern text into a tree. It follows the usual recursive
// descent over the pattern grammar and reports the first malformed
// construct through a SyntaxError carrying the code point offset.
type parser struct {
	pattern []rune
	pos     int
}

// Parse parses a pattern. The returned flag reports whether the pattern
// opted into case-insensitive matching with a (?i) prefix.
func Parse(pattern string) (root node, insensitive bool, retErr error) {
	defer func() {
		if r := recover(); r != nil {
			synErr, ok := r.(*SyntaxError)
			if !ok {
				panic(r)
			}
			retErr = synErr
		}
	}()

	p := &parser{
		pattern: []rune(pattern),
	}
	if strings.HasPrefix(pattern, "(?i)") {
		insensitive = true
		p.pos = 4
	}

	root = p.parseAlt()
	if root == nil {
		if p.consume(')') {
			p.raise(synErrGroupNoInitiator)
		}
		p.raise(synErrNullPattern)
	}
	if !p.eof() {
		if p.peek() == ')' {
			p.raise(synErrGroupNoInitiator)
		}
		p.raise(synErrAltLackOfOperand)
	}
	return root, insensitive, nil
}

func (p *parser) raise(message string) {
	panic(&SyntaxError{
		Pos:     p.pos,
		Message: message,
	})
}

func (p *parser) eof() bool {
	return p.pos >= len(p.pattern)
}

func (p *parser) peek() rune {
	if p.eof() {
		return 0
	}
	return p.pattern[p.pos]
}

func (p *parser) peekAt(offset int) rune {
	if p.pos+offset >= len(p.pattern) {
		return 0
	}
	return p.pattern[p.pos+offset]
}

func (p *parser) next() rune {
	c := p.peek()
	p.pos++
	return c
}

func (p *parser) consume(c rune) bool {
	if p.eof() || p.pattern[p.pos] != c {
		return false
	}
	p.pos++
	return true
}

func (p *parser) parseAlt() node {
	left := p.parseConcat()
	if left == nil {
		if p.peek() == '|' {
			p.raise(synErrAltLackOfOperand)
		}
		return nil
	}
	alts := []node{left}
	for p.consume('|') {
		right := p.parseConcat()
		if right == nil {
			p.raise(synErrAltLackOfOperand)
		}
		alts = append(alts, right)
	}
	if len(alts) == 1 {
		return left
	}
	return &altNode{
		alts: alts,
	}
}

func (p *parser) parseConcat() node {
	var seq []node
	for {
		n := p.parseRepeat()
		if n == nil {
			break
		}
		seq = append(seq, n)
	}
	switch len(seq) {
	case 0:
		return nil
	case 1:
		return seq[0]
	}
	return &concatNode{
		seq: seq,
	}
}

func (p *parser) parseRepeat() node {
	body := p.parseAtom()
	if body == nil {
		switch p.peek() {
		case '*', '+', '?':
			p.raise(synErrRepNoTarget)
		}
		if p.peek() == '{' && isDigit(p.peekAt(1)) {
			p.raise(synErrRepNoTarget)
		}
		return nil
	}
	for {
		switch {
		case p.consume('*'):
			body = &repeatNode{body: body, min: 0, max: -1}
		case p.consume('+'):
			body = &repeatNode{body: body, min: 1, max: -1}
		case p.consume('?'):
			body = &repeatNode{body: body, min: 0, max: 1}
		case p.peek() == '{' && isDigit(p.peekAt(1)):
			min, max := p.parseRepeatRange()
			body = &repeatNode{body: body, min: min, max: max}
		default:
			return body
		}
	}
}

// parseRepeatRange parses {m}, {m,}, and {m,n}.
func (p *parser) parseRepeatRange() (int, int) {
	p.next() // {
	min := p.parseNumber()
	if p.consume('}') {
		return min, min
	}
	if !p.consume(',') {
		p.raise(synErrRepInvalidForm)
	}
	if p.consume('}') {
		return min, -1
	}
	if !isDigit(p.peek()) {
		p.raise(synErrRepInvalidForm)
	}
	max := p.parseNumber()
	if max < min {
		p.raise(synErrRepRange)
	}
	if !p.consume('}') {
		p.raise(synErrRepInvalidForm)
	}
	return min, max
}

func (p *parser) parseNumber() int {
	start := p.pos
	for isDigit(p.peek()) {
		p.next()
	}
	n, err := strconv.Atoi(string(p.pattern[start:p.pos]))
	if err != nil {
		p.raise(synErrRepInvalidForm)
	}
	return n
}

func (p *parser) parseAtom() node {
	switch p.peek() {
	case 0, '|', ')', '*', '+', '?':
		return nil
	case '(':
		p.next()
		alt := p.parseAlt()
		if alt == nil {
			if p.eof() {
				p.raise(synErrGroupUnclosed)
			}
			p.raise(synErrGroupNoElem)
		}
		if p.eof() {
			p.raise(synErrGroupUnclosed)
		}
		if !p.consume(')') {
			p.raise(synErrGroupUnclosed)
		}
		return alt
	case '[':
		p.next()
		return p.parseClass()
	case '.':
		p.next()
		return &setNode{set: anyCharSet()}
	case '\\':
		p.next()
		return p.parseEscape()
	case '{':
		if isDigit(p.peekAt(1)) {
			// A repetition range; the caller reports the missing target.
			return nil
		}
		p.next()
		return p.parseReference()
	case '^':
		p.next()
		return &anchorNode{}
	case '$':
		p.next()
		return &anchorNode{end: true}
	}
	return &charNode{c: p.next()}
}

// parseReference parses {name}. Resolution happens at compile time so
// that the host can supply the expression table.
func (p *parser) parseReference() node {
	start := p.pos
	for !p.eof() && p.peek() != '}' {
		p.next()
	}
	if p.eof() {
		p.raise(synErrRefUnclosed)
	}
	name := string(p.pattern[start:p.pos])
	if name == "" {
		p.raise(synErrRefEmpty)
	}
	p.next() // }
	return &refNode{name: name}
}

func (p *parser) parseEscape() node {
	if p.eof() {
		p.raise(synErrEscapeIncomplete)
	}
	c := p.next()
	switch c {
	case '\\', '.', '*', '+', '?', '|', '(', ')', '[', ']', '{', '}', '-', '^', '/', '$':
		return &charNode{c: c}
	case 'n':
		return &charNode{c: '\n'}
	case 't':
		return &charNode{c: '\t'}
	case 'r':
		return &charNode{c: '\r'}
	case 's':
		return &setNode{set: spaceSet()}
	case 'S':
		return &setNode{set: negate(spaceSet())}
	case 'd':
		return &setNode{set: digitSet()}
	case 'D':
		return &setNode{set: negate(digitSet())}
	case 'w':
		return &setNode{set: wordSet()}
	case 'W':
		return &setNode{set: negate(wordSet())}
	case 'u':
		return &charNode{c: p.parseCodePoint()}
	}
	p.pos--
	p.raise(synErrEscapeInvalid)
	return nil
}

func (p *parser) parseCodePoint() rune {
	if !p.consume('{') {
		p.raise(synErrCodePointInvalid)
	}
	start := p.pos
	for !p.eof() && p.peek() != '}' {
		p.next()
	}
	if p.eof() {
		p.raise(synErrCodePointInvalid)
	}
	text := string(p.pattern[start:p.pos])
	if text == "" {
		p.raise(synErrCodePointInvalid)
	}
	p.next() // }
	n, err := strconv.ParseInt(text, 16, 32)
	if err != nil || n < 0 || rune(n) > maxCodePoint {
		p.raise(synErrCodePointInvalid)
	}
	return rune(n)
}

// parseClass parses the remainder of [...] or [^...].
func (p *parser) parseClass() node {
	negated := p.consume('^')
	set := symbolset.NewSymbolSet()
	empty := true
	for {
		if p.eof() {
			p.raise(synErrClassUnclosed)
		}
		if p.consume(']') {
			break
		}
		lower, lowerSet := p.parseClassAtom()
		if lowerSet != nil {
			set.AddSet(lowerSet)
			empty = false
			continue
		}
		if p.peek() == '-' && p.peekAt(1) != ']' && p.peekAt(1) != 0 {
			p.next()
			upper, upperSet := p.parseClassAtom()
			if upperSet != nil {
				p.raise(synErrClassInvalidRange)
			}
			if upper < lower {
				p.raise(synErrClassInvalidRange)
			}
			set.Add(symbolset.NewRange(lower, upper+1))
		} else {
			set.Add(symbolset.RangeOf(lower))
		}
		empty = false
	}
	if empty {
		p.raise(synErrClassNoElem)
	}
	if negated {
		set = negate(set)
		if set.Empty() {
			p.raise(synErrUnmatchable)
		}
	}
	return &setNode{set: set}
}

// parseClassAtom returns either a single code point or a shorthand set.
func (p *parser) parseClassAtom() (rune, *symbolset.SymbolSet) {
	if p.consume('\\') {
		n := p.parseEscape()
		switch e := n.(type) {
		case *charNode:
			return e.c, nil
		case *setNode:
			return 0, e.set
		}
	}
	return p.next(), nil
}

func isDigit(c rune) bool {
	return c >= '0' && c <= '9'
}
