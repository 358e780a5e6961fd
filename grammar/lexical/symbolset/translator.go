package symbolset

import (
	"sort"
)

// TranslatorEntry maps the code points of [Lower, Upper) to one set.
type TranslatorEntry struct {
	Lower rune
	Upper rune
	Set   SetID
}

// Translator maps code points to set identifiers. The backing sets must be
// pairwise disjoint, which holds for any automaton whose symbols went
// through Deduplicate.
type Translator struct {
	entries []TranslatorEntry
}

// NewTranslator builds a translator over the given disjoint sets, where
// the slice index is the set identifier.
func NewTranslator(sets []*SymbolSet) *Translator {
	var entries []TranslatorEntry
	for id, s := range sets {
		for _, r := range s.Ranges() {
			entries = append(entries, TranslatorEntry{
				Lower: r.Lower,
				Upper: r.Upper,
				Set:   SetID(id),
			})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Lower < entries[j].Lower
	})
	return &Translator{
		entries: entries,
	}
}

// SetOf returns the identifier of the set containing c, or SetIDNil when
// no set contains it.
func (t *Translator) SetOf(c rune) SetID {
	// Find the first entry with a lower bound > c, then step back.
	i := sort.Search(len(t.entries), func(i int) bool {
		return t.entries[i].Lower > c
	})
	if i == 0 {
		return SetIDNil
	}
	e := t.entries[i-1]
	if c >= e.Upper {
		return SetIDNil
	}
	return e.Set
}

// Entries returns the translation table in ascending order of lower bound.
func (t *Translator) Entries() []TranslatorEntry {
	return t.entries
}
