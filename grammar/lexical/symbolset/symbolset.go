package symbolset

import (
	"fmt"
	"strings"

	"github.com/emirpasic/gods/trees/redblacktree"
	"github.com/emirpasic/gods/utils"
)

// Range represents a half-open interval [Lower, Upper) over code points.
type Range struct {
	Lower rune
	Upper rune
}

func NewRange(lower, upper rune) Range {
	return Range{
		Lower: lower,
		Upper: upper,
	}
}

// RangeOf returns a range containing just the code point c.
func RangeOf(c rune) Range {
	return Range{
		Lower: c,
		Upper: c + 1,
	}
}

func (r Range) Empty() bool {
	return r.Upper <= r.Lower
}

func (r Range) Contains(c rune) bool {
	return c >= r.Lower && c < r.Upper
}

// CanMerge reports whether r and o overlap or touch, assuming r.Lower <= o.Lower.
// Touching ranges must be merged because a stored set never contains adjacent ranges.
func (r Range) CanMerge(o Range) bool {
	if r.Lower > o.Lower {
		return o.CanMerge(r)
	}
	return r.Upper >= o.Lower
}

// Merge returns the hull of r and o.
func (r Range) Merge(o Range) Range {
	lower := r.Lower
	if o.Lower < lower {
		lower = o.Lower
	}
	upper := r.Upper
	if o.Upper > upper {
		upper = o.Upper
	}
	return Range{
		Lower: lower,
		Upper: upper,
	}
}

func (r Range) compare(o Range) int {
	switch {
	case r.Lower < o.Lower:
		return -1
	case r.Lower > o.Lower:
		return 1
	case r.Upper < o.Upper:
		return -1
	case r.Upper > o.Upper:
		return 1
	}
	return 0
}

func (r Range) String() string {
	if r.Upper == r.Lower+1 {
		return fmt.Sprintf("[%q]", r.Lower)
	}
	return fmt.Sprintf("[%q..%q)", r.Lower, r.Upper)
}

// SymbolSet is a set of code points stored as an ordered sequence of
// pairwise disjoint, non-adjacent ranges. The ranges live in a red-black
// tree keyed by their lower bound, so locating the neighbourhood of a
// range is O(log n).
type SymbolSet struct {
	ranges *redblacktree.Tree
}

func NewSymbolSet(rs ...Range) *SymbolSet {
	s := &SymbolSet{
		ranges: redblacktree.NewWith(utils.Int32Comparator),
	}
	for _, r := range rs {
		s.Add(r)
	}
	return s
}

func (s *SymbolSet) Empty() bool {
	return s.ranges.Size() == 0
}

// Count returns the number of stored ranges.
func (s *SymbolSet) Count() int {
	return s.ranges.Size()
}

// Add merges the range r into this set. Stored ranges that overlap or
// touch r are replaced by their hull.
func (s *SymbolSet) Add(r Range) {
	if r.Empty() {
		return
	}

	// When the predecessor of r touches or overlaps it, the merge must
	// start there.
	merged := r
	if node, ok := s.ranges.Floor(r.Lower); ok {
		prev := node.Value.(Range)
		if prev.CanMerge(r) {
			merged = prev.Merge(merged)
			s.ranges.Remove(prev.Lower)
		}
	}

	// Swallow every stored range the hull reaches. A range whose lower
	// bound equals the hull's upper bound is adjacent and merges too.
	for {
		node, ok := s.ranges.Ceiling(merged.Lower)
		if !ok {
			break
		}
		q := node.Value.(Range)
		if q.Lower > merged.Upper {
			break
		}
		merged = merged.Merge(q)
		s.ranges.Remove(q.Lower)
	}

	s.ranges.Put(merged.Lower, merged)
}

// AddSet merges every range of o into this set.
func (s *SymbolSet) AddSet(o *SymbolSet) {
	for _, r := range o.Ranges() {
		s.Add(r)
	}
}

// Exclude removes every code point of r from this set, splitting boundary
// ranges as necessary. Adjacent ranges are unaffected: only strict
// overlap removes anything.
func (s *SymbolSet) Exclude(r Range) {
	if r.Empty() {
		return
	}

	if node, ok := s.ranges.Floor(r.Lower); ok {
		q := node.Value.(Range)
		if q.Upper > r.Lower {
			s.ranges.Remove(q.Lower)
			if q.Lower < r.Lower {
				s.ranges.Put(q.Lower, NewRange(q.Lower, r.Lower))
			}
			if q.Upper > r.Upper {
				s.ranges.Put(r.Upper, NewRange(r.Upper, q.Upper))
				return
			}
		}
	}

	for {
		node, ok := s.ranges.Ceiling(r.Lower)
		if !ok {
			return
		}
		q := node.Value.(Range)
		if q.Lower >= r.Upper {
			return
		}
		s.ranges.Remove(q.Lower)
		if q.Upper > r.Upper {
			s.ranges.Put(r.Upper, NewRange(r.Upper, q.Upper))
			return
		}
	}
}

// ExcludeSet removes every code point of o from this set.
func (s *SymbolSet) ExcludeSet(o *SymbolSet) {
	for _, r := range o.Ranges() {
		s.Exclude(r)
	}
}

func (s *SymbolSet) Contains(c rune) bool {
	node, ok := s.ranges.Floor(c)
	if !ok {
		return false
	}
	return node.Value.(Range).Contains(c)
}

// Ranges returns the stored ranges in ascending order.
func (s *SymbolSet) Ranges() []Range {
	rs := make([]Range, 0, s.ranges.Size())
	it := s.ranges.Iterator()
	for it.Next() {
		rs = append(rs, it.Value().(Range))
	}
	return rs
}

func (s *SymbolSet) Clone() *SymbolSet {
	c := NewSymbolSet()
	it := s.ranges.Iterator()
	for it.Next() {
		r := it.Value().(Range)
		c.ranges.Put(r.Lower, r)
	}
	return c
}

// Equal reports whether s and o contain exactly the same code points.
// Because both sets satisfy the non-overlap/non-adjacency invariant,
// comparing the range sequences suffices.
func (s *SymbolSet) Equal(o *SymbolSet) bool {
	return s.Compare(o) == 0
}

// Compare orders two sets lexicographically by their range sequences.
func (s *SymbolSet) Compare(o *SymbolSet) int {
	a := s.ranges.Iterator()
	b := o.ranges.Iterator()
	for {
		aOK := a.Next()
		bOK := b.Next()
		switch {
		case !aOK && !bOK:
			return 0
		case !aOK:
			return -1
		case !bOK:
			return 1
		}
		if c := a.Value().(Range).compare(b.Value().(Range)); c != 0 {
			return c
		}
	}
}

func (s *SymbolSet) String() string {
	var b strings.Builder
	b.WriteString("{")
	for i, r := range s.Ranges() {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString(r.String())
	}
	b.WriteString("}")
	return b.String()
}
