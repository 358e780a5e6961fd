package parser

import (
	"fmt"
	"io"
	"sort"

	"github.com/nihei9/weft/driver/lexer"
	spec "github.com/nihei9/weft/spec/grammar"
)

// Node is one node of the parse tree.
type Node struct {
	KindName string
	Text     string
	Row      int
	Col      int
	Children []*Node
}

func PrintTree(w io.Writer, node *Node) {
	printTree(w, node, "", "")
}

func printTree(w io.Writer, node *Node, ruledLine string, childRuledLinePrefix string) {
	if node == nil {
		return
	}

	if node.Text != "" {
		fmt.Fprintf(w, "%v%v %#v\n", ruledLine, node.KindName, node.Text)
	} else {
		fmt.Fprintf(w, "%v%v\n", ruledLine, node.KindName)
	}

	num := len(node.Children)
	for i, child := range node.Children {
		var line string
		if num > 1 && i < num-1 {
			line = "├─ "
		} else {
			line = "└─ "
		}

		var prefix string
		if i >= num-1 {
			prefix = "   "
		} else {
			prefix = "│  "
		}

		printTree(w, child, childRuledLinePrefix+line, childRuledLinePrefix+prefix)
	}
}

type SyntaxError struct {
	Row               int
	Col               int
	Message           string
	Token             *lexer.Token
	ExpectedTerminals []string
}

type ParserOption func(p *Parser) error

// MakeTree makes the parser build a parse tree while parsing.
func MakeTree() ParserOption {
	return func(p *Parser) error {
		p.makeTree = true
		return nil
	}
}

// Parser drives the LR automaton of a compiled grammar. Action rows are
// tried in table order; weak reductions apply only when simulating them
// leads to a shift, and guard actions apply only when the guard's
// sub-automaton accepts the upcoming lookahead.
type Parser struct {
	gram       *spec.CompiledGrammar
	lex        *lexer.Lexer
	stateStack []int
	semStack   []*Node
	tokBuf     []*lexer.Token
	tree       *Node
	makeTree   bool
	synErrs    []*SyntaxError
}

func NewParser(gram *spec.CompiledGrammar, src io.Reader, opts ...ParserOption) (*Parser, error) {
	lex, err := lexer.NewLexer(gram.Lexical, src)
	if err != nil {
		return nil, err
	}

	p := &Parser{
		gram: gram,
		lex:  lex,
	}
	for _, opt := range opts {
		err := opt(p)
		if err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Parser) Parse() error {
	p.push(p.gram.Syntactic.InitialState)

	for {
		tok, err := p.look(0)
		if err != nil {
			return err
		}

		accepted, performed, err := p.step(tok)
		if err != nil {
			return err
		}
		if accepted {
			if p.makeTree && len(p.semStack) > 0 {
				p.tree = p.semStack[len(p.semStack)-1]
			}
			return nil
		}
		if performed {
			continue
		}

		p.synErrs = append(p.synErrs, &SyntaxError{
			Row:               tok.Row,
			Col:               tok.Col,
			Message:           "unexpected token",
			Token:             tok,
			ExpectedTerminals: p.expectedTerminals(p.top()),
		})
		return nil
	}
}

// step performs at most one action for the token. It reports whether the
// parse accepted and whether any action applied.
func (p *Parser) step(tok *lexer.Token) (bool, bool, error) {
	for _, term := range p.terminalsOf(tok) {
		rows := findRows(p.gram.Syntactic.States[p.top()].Terminal, term)
		for _, row := range rows {
			switch row.Kind {
			case spec.ActionGuard:
				ok, err := p.checkGuard(row.Target)
				if err != nil {
					return false, false, err
				}
				if !ok {
					continue
				}
				// The guard matched: take the goto on the guard symbol
				// without consuming any input.
				guardSym := p.gram.Syntactic.Guards[row.Target].Guard
				next, ok := p.gotoFor(p.top(), guardSym)
				if !ok {
					return false, false, fmt.Errorf("no goto action for a matched guard; state: %v, guard: %v", p.top(), guardSym)
				}
				p.push(next)
				if p.makeTree {
					p.semStack = append(p.semStack, &Node{
						KindName: p.gram.Syntactic.NonTerminals[guardSym],
					})
				}
				return false, true, nil
			case spec.ActionShift:
				p.shift(row.Target, term, tok)
				if err := p.consume(); err != nil {
					return false, false, err
				}
				return false, true, nil
			case spec.ActionWeakReduce:
				if !p.canReduce(term, true, len(p.stateStack)-1, nil) {
					continue
				}
				p.reduce(row.Target)
				return false, true, nil
			case spec.ActionReduce:
				p.reduce(row.Target)
				return false, true, nil
			case spec.ActionAccept:
				return true, true, nil
			}
		}
	}
	return false, false, nil
}

// terminalsOf returns the terminal numbers a token can stand for: the
// weak meaning first, then the strong fallback, mirroring the priority
// the lexer gave the weak symbol.
func (p *Parser) terminalsOf(tok *lexer.Token) []int {
	if tok.EOF {
		return []int{p.gram.Syntactic.EOFSymbol}
	}
	if tok.Weak != 0 {
		return []int{tok.Weak, tok.Strong}
	}
	return []int{tok.Terminal}
}

func (p *Parser) look(offset int) (*lexer.Token, error) {
	for len(p.tokBuf) <= offset {
		tok, err := p.lex.Next()
		if err != nil {
			return nil, err
		}
		if !tok.EOF && !tok.Invalid && p.skip(tok) {
			continue
		}
		p.tokBuf = append(p.tokBuf, tok)
	}
	return p.tokBuf[offset], nil
}

func (p *Parser) consume() error {
	if len(p.tokBuf) == 0 {
		return fmt.Errorf("no token to consume")
	}
	p.tokBuf = p.tokBuf[1:]
	return nil
}

func (p *Parser) skip(tok *lexer.Token) bool {
	skip := p.gram.Syntactic.TerminalSkip
	if tok.Terminal < 0 || tok.Terminal >= len(skip) {
		return false
	}
	return skip[tok.Terminal] != 0
}

func (p *Parser) shift(nextState, term int, tok *lexer.Token) {
	p.push(nextState)
	if p.makeTree {
		p.semStack = append(p.semStack, &Node{
			KindName: p.gram.Syntactic.Terminals[term],
			Text:     tok.Lexeme,
			Row:      tok.Row,
			Col:      tok.Col,
		})
	}
}

func (p *Parser) reduce(prodNum int) {
	rule := p.gram.Syntactic.Rules[prodNum]
	p.pop(rule.Len)
	next, _ := p.gotoFor(p.top(), rule.LHS)
	p.push(next)

	if p.makeTree {
		handle := p.semStack[len(p.semStack)-rule.Len:]
		children := make([]*Node, len(handle))
		copy(children, handle)
		p.semStack = p.semStack[:len(p.semStack)-rule.Len]
		p.semStack = append(p.semStack, &Node{
			KindName: p.gram.Syntactic.NonTerminals[rule.LHS],
			Children: children,
		})
	}
}

// gotoFor looks up the goto action of a state on a nonterminal.
func (p *Parser) gotoFor(state, sym int) (int, bool) {
	for _, row := range findRows(p.gram.Syntactic.States[state].NonTerminal, sym) {
		if row.Kind == spec.ActionGoto {
			return row.Target, true
		}
	}
	return 0, false
}

// canReduce reports whether the lookahead symbol would be shifted after
// performing the pending reductions. It simulates reductions on a
// private stack without executing any of them for real, which yields
// LR(1)-grade disambiguation on the LALR tables.
func (p *Parser) canReduce(sym int, terminal bool, stackPos int, pushed []int) bool {
	for {
		state := p.simTop(stackPos, pushed)

		var rows []spec.ActionRow
		if terminal {
			rows = findRows(p.gram.Syntactic.States[state].Terminal, sym)
		} else {
			rows = findRows(p.gram.Syntactic.States[state].NonTerminal, sym)
		}
		if len(rows) == 0 {
			return false
		}

		again := false
		for _, row := range rows {
			switch row.Kind {
			case spec.ActionShift, spec.ActionAccept, spec.ActionGoto:
				return true
			case spec.ActionWeakReduce:
				// Fork the simulation; if the weak path dead-ends, keep
				// looking for a stronger action.
				weakPos := stackPos
				weakPushed := make([]int, len(pushed))
				copy(weakPushed, pushed)
				weakPos, weakPushed = p.fakeReduce(row.Target, weakPos, weakPushed)
				if p.canReduce(sym, terminal, weakPos, weakPushed) {
					return true
				}
			case spec.ActionReduce:
				stackPos, pushed = p.fakeReduce(row.Target, stackPos, pushed)
				again = true
			}
			if again {
				break
			}
		}
		if !again {
			return false
		}
	}
}

// fakeReduce advances the simulated stack past one reduction without
// touching the real stack.
func (p *Parser) fakeReduce(prodNum, stackPos int, pushed []int) (int, []int) {
	rule := p.gram.Syntactic.Rules[prodNum]
	for i := 0; i < rule.Len; i++ {
		if len(pushed) > 0 {
			pushed = pushed[:len(pushed)-1]
		} else {
			stackPos--
		}
	}
	state := p.simTop(stackPos, pushed)
	if next, ok := p.gotoFor(state, rule.LHS); ok {
		pushed = append(pushed, next)
	}
	return stackPos, pushed
}

func (p *Parser) simTop(stackPos int, pushed []int) int {
	if len(pushed) > 0 {
		return pushed[len(pushed)-1]
	}
	return p.stateStack[stackPos]
}

// checkGuard runs a guard's sub-automaton over the upcoming lookahead
// without consuming any real input.
func (p *Parser) checkGuard(guardIdx int) (bool, error) {
	return p.checkGuardAt(guardIdx, 0)
}

// checkGuardAt simulates the guard sub-automaton starting at a lookahead
// offset, so that nested guards can run against the window their outer
// guard has already advanced into. The simulation prefers the
// end-of-guard marker as soon as it becomes available: a pending
// reduction keyed by the marker is performed, and a transition on the
// marker means the guarded language is complete.
func (p *Parser) checkGuardAt(guardIdx, offset int) (bool, error) {
	guard := p.gram.Syntactic.Guards[guardIdx]
	eog := p.gram.Syntactic.EOGSymbol
	stack := []int{guard.InitialState}

	for steps := 0; ; steps++ {
		if steps > guardStepLimit {
			return false, fmt.Errorf("a guard simulation did not terminate; guard: %v", guard.Guard)
		}

		state := stack[len(stack)-1]

		// Take the end-of-guard path whenever it exists.
		eogDone := false
		for _, row := range findRows(p.gram.Syntactic.States[state].NonTerminal, eog) {
			switch row.Kind {
			case spec.ActionGoto:
				return true, nil
			case spec.ActionReduce, spec.ActionWeakReduce:
				rule := p.gram.Syntactic.Rules[row.Target]
				stack = stack[:len(stack)-rule.Len]
				next, ok := p.gotoFor(stack[len(stack)-1], rule.LHS)
				if !ok {
					return false, nil
				}
				stack = append(stack, next)
				eogDone = true
			case spec.ActionAccept:
				return true, nil
			}
			if eogDone {
				break
			}
		}
		if eogDone {
			continue
		}

		tok, err := p.look(offset)
		if err != nil {
			return false, err
		}

		performed := false
		for _, term := range p.terminalsOf(tok) {
			for _, row := range findRows(p.gram.Syntactic.States[state].Terminal, term) {
				switch row.Kind {
				case spec.ActionShift:
					stack = append(stack, row.Target)
					offset++
				case spec.ActionWeakReduce, spec.ActionReduce:
					rule := p.gram.Syntactic.Rules[row.Target]
					stack = stack[:len(stack)-rule.Len]
					next, ok := p.gotoFor(stack[len(stack)-1], rule.LHS)
					if !ok {
						return false, nil
					}
					stack = append(stack, next)
				case spec.ActionAccept:
					return true, nil
				case spec.ActionGuard:
					ok, err := p.checkGuardAt(row.Target, offset)
					if err != nil {
						return false, err
					}
					if !ok {
						continue
					}
					guardSym := p.gram.Syntactic.Guards[row.Target].Guard
					next, ok := p.gotoFor(state, guardSym)
					if !ok {
						return false, nil
					}
					stack = append(stack, next)
				default:
					continue
				}
				performed = true
				break
			}
			if performed {
				break
			}
		}
		if !performed {
			return false, nil
		}
	}
}

const guardStepLimit = 1 << 20

func (p *Parser) expectedTerminals(state int) []string {
	var kinds []string
	for _, row := range p.gram.Syntactic.States[state].Terminal {
		if row.Symbol == p.gram.Syntactic.EOFSymbol {
			kinds = append(kinds, "<eof>")
			continue
		}
		name := p.gram.Syntactic.Terminals[row.Symbol]
		if len(kinds) > 0 && kinds[len(kinds)-1] == name {
			continue
		}
		kinds = append(kinds, name)
	}
	return kinds
}

func findRows(rows []spec.ActionRow, sym int) []spec.ActionRow {
	i := sort.Search(len(rows), func(i int) bool {
		return rows[i].Symbol >= sym
	})
	j := i
	for j < len(rows) && rows[j].Symbol == sym {
		j++
	}
	return rows[i:j]
}

func (p *Parser) top() int {
	return p.stateStack[len(p.stateStack)-1]
}

func (p *Parser) push(state int) {
	p.stateStack = append(p.stateStack, state)
}

func (p *Parser) pop(n int) {
	p.stateStack = p.stateStack[:len(p.stateStack)-n]
}

// Tree returns the parse tree when the parser was created with MakeTree.
func (p *Parser) Tree() *Node {
	return p.tree
}

func (p *Parser) SyntaxErrors() []*SyntaxError {
	return p.synErrs
}
