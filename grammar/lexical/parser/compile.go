package parser

import (
	"fmt"

	"github.com/nihei9/weft/grammar/lexical/automaton"
)

// ExpressionItem is one definition of a named expression.
type ExpressionItem struct {
	Pattern         string
	Literal         bool
	CaseInsensitive bool
}

// ExpressionTable resolves {name} references. Expressions returns nil
// when it doesn't know the name, in which case the reference compiles as
// the literal text of the name.
type ExpressionTable interface {
	Expressions(name string) []ExpressionItem
}

// Compiler compiles patterns into NFA fragments through a builder.
type Compiler struct {
	table ExpressionTable

	// resolving holds the names currently being expanded, to detect
	// reference cycles.
	resolving map[string]struct{}
}

func NewCompiler(table ExpressionTable) *Compiler {
	return &Compiler{
		table:     table,
		resolving: map[string]struct{}{},
	}
}

// Compile parses the pattern and emits it through b. The builder's
// current state afterwards is the accepting end of the fragment.
func (c *Compiler) Compile(b *automaton.Builder, pattern string) error {
	root, insensitive, err := Parse(pattern)
	if err != nil {
		return err
	}

	restore := b.IsCaseInsensitive()
	if insensitive {
		b.SetCaseInsensitive(true)
	}
	err = c.emit(b, root)
	b.SetCaseInsensitive(restore)
	return err
}

func (c *Compiler) emit(b *automaton.Builder, n node) error {
	switch e := n.(type) {
	case *anchorNode:
		// Zero width; the longest-match rule anchors every pattern.
	case *charNode:
		b.TransitRune(e.c)
	case *setNode:
		b.TransitSet(e.set)
	case *concatNode:
		for _, child := range e.seq {
			if err := c.emit(b, child); err != nil {
				return err
			}
		}
	case *altNode:
		b.Push()
		for i, alt := range e.alts {
			if i > 0 {
				if err := b.BeginOr(); err != nil {
					return err
				}
			}
			if err := c.emit(b, alt); err != nil {
				return err
			}
		}
		return b.Pop()
	case *repeatNode:
		return c.emitRepeat(b, e)
	case *refNode:
		return c.emitReference(b, e.name)
	default:
		return fmt.Errorf("unknown node: %T", n)
	}
	return nil
}

func (c *Compiler) emitRepeat(b *automaton.Builder, n *repeatNode) error {
	emitOnce := func() error {
		b.Push()
		if err := c.emit(b, n.body); err != nil {
			return err
		}
		return b.Pop()
	}

	for i := 0; i < n.min; i++ {
		if err := emitOnce(); err != nil {
			return err
		}
	}
	if n.max < 0 {
		if n.min > 0 {
			// The final mandatory copy repeats.
			b.Repeat()
			return nil
		}
		if err := emitOnce(); err != nil {
			return err
		}
		b.RepeatOptional()
		return nil
	}

	// Bounded tail: a{2,4} becomes a a ((a)? a)?. The brackets are opened
	// up front and each copy closes the innermost one, so each optional
	// copy sits inside the bracket of the next one and skipping the
	// outermost bracket skips every optional copy.
	optional := n.max - n.min
	for i := 0; i < optional; i++ {
		b.Push()
	}
	for i := 0; i < optional; i++ {
		if err := emitOnce(); err != nil {
			return err
		}
		if err := b.Pop(); err != nil {
			return err
		}
		b.Optional()
	}
	return nil
}

func (c *Compiler) emitReference(b *automaton.Builder, name string) error {
	var items []ExpressionItem
	if c.table != nil {
		items = c.table.Expressions(name)
	}
	if len(items) == 0 {
		// The host doesn't know the name; the reference matches its own
		// text.
		b.TransitLiteral(name)
		return nil
	}

	if _, ok := c.resolving[name]; ok {
		return &SyntaxError{Message: synErrRefCycle}
	}
	c.resolving[name] = struct{}{}
	defer delete(c.resolving, name)

	restore := b.IsCaseInsensitive()
	b.Push()
	for i, item := range items {
		if i > 0 {
			if err := b.BeginOr(); err != nil {
				return err
			}
		}
		if item.CaseInsensitive {
			b.SetCaseInsensitive(true)
		} else {
			b.SetCaseInsensitive(restore)
		}
		if item.Literal {
			b.TransitLiteral(item.Pattern)
		} else {
			root, insensitive, err := Parse(item.Pattern)
			if err != nil {
				return fmt.Errorf("in expression %v: %w", name, err)
			}
			if insensitive {
				b.SetCaseInsensitive(true)
			}
			if err := c.emit(b, root); err != nil {
				return err
			}
		}
	}
	b.SetCaseInsensitive(restore)
	return b.Pop()
}
