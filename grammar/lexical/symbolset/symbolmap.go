package symbolset

import (
	"sort"
)

// SetID is a numeric handle for a symbol set within one automaton.
type SetID int

// SetIDNil marks the absence of a set; code points outside every set
// translate to it.
const SetIDNil = SetID(-1)

func (id SetID) Int() int {
	return int(id)
}

// SymbolMap assigns small integer identifiers to symbol sets. Sets are
// interned structurally, so asking for the identifier of an equal set
// twice yields the same identifier. The sets held by one map may overlap
// each other; Deduplicate produces a map whose sets are pairwise disjoint.
type SymbolMap struct {
	sets []*SymbolSet
}

func NewSymbolMap() *SymbolMap {
	return &SymbolMap{}
}

// IDFor returns the identifier for the set s, allocating a fresh one when
// no structurally equal set has been interned yet.
func (m *SymbolMap) IDFor(s *SymbolSet) SetID {
	for id, q := range m.sets {
		if q.Equal(s) {
			return SetID(id)
		}
	}
	m.sets = append(m.sets, s.Clone())
	return SetID(len(m.sets) - 1)
}

func (m *SymbolMap) Set(id SetID) *SymbolSet {
	if id < 0 || int(id) >= len(m.sets) {
		return nil
	}
	return m.sets[id]
}

// Count returns the number of distinct sets in this map.
func (m *SymbolMap) Count() int {
	return len(m.sets)
}

// Sets returns the interned sets indexed by their identifiers.
func (m *SymbolMap) Sets() []*SymbolSet {
	return m.sets
}

// RemappedSymbolMap is the result of deduplicating a SymbolMap: a map
// whose sets are pairwise disjoint, along with the relationship between
// the fresh identifiers and the identifiers of the source map.
type RemappedSymbolMap struct {
	sets []*SymbolSet
	old  [][]SetID
	new  [][]SetID
}

// Deduplicate splits the possibly overlapping sets of m into the minimal
// partition whose blocks are whole ranges, allocating one fresh identifier
// per distinct combination of source identifiers. Fresh identifiers are
// assigned in sweep order, so the result is deterministic.
func Deduplicate(m *SymbolMap) *RemappedSymbolMap {
	// Collect every distinct range endpoint.
	endpointSet := map[rune]struct{}{}
	for _, s := range m.sets {
		for _, r := range s.Ranges() {
			endpointSet[r.Lower] = struct{}{}
			endpointSet[r.Upper] = struct{}{}
		}
	}
	endpoints := make([]rune, 0, len(endpointSet))
	for e := range endpointSet {
		endpoints = append(endpoints, e)
	}
	sort.Slice(endpoints, func(i, j int) bool {
		return endpoints[i] < endpoints[j]
	})

	d := &RemappedSymbolMap{
		new: make([][]SetID, len(m.sets)),
	}

	// For each elementary interval, the combination of source sets that
	// cover it identifies the fresh set the interval belongs to.
	ids := map[string]SetID{}
	for i := 0; i+1 < len(endpoints); i++ {
		block := NewRange(endpoints[i], endpoints[i+1])

		var covering []SetID
		for id, s := range m.sets {
			if s.Contains(block.Lower) {
				covering = append(covering, SetID(id))
			}
		}
		if len(covering) == 0 {
			continue
		}

		key := combinationKey(covering)
		id, ok := ids[key]
		if !ok {
			id = SetID(len(d.sets))
			ids[key] = id
			d.sets = append(d.sets, NewSymbolSet())
			d.old = append(d.old, covering)
			for _, oldID := range covering {
				d.new[oldID] = append(d.new[oldID], id)
			}
		}
		d.sets[id].Add(block)
	}

	return d
}

func combinationKey(ids []SetID) string {
	b := make([]byte, 0, len(ids)*4)
	for _, id := range ids {
		b = append(b, byte(id>>24), byte(id>>16), byte(id>>8), byte(id))
	}
	return string(b)
}

func (d *RemappedSymbolMap) Set(id SetID) *SymbolSet {
	if id < 0 || int(id) >= len(d.sets) {
		return nil
	}
	return d.sets[id]
}

func (d *RemappedSymbolMap) Count() int {
	return len(d.sets)
}

// OldSymbols returns the identifiers of the source sets the fresh set id
// was carved out of.
func (d *RemappedSymbolMap) OldSymbols(id SetID) []SetID {
	if id < 0 || int(id) >= len(d.old) {
		return nil
	}
	return d.old[id]
}

// NewSymbols returns the fresh identifiers that partition the source set
// id. The union of their ranges equals the source set.
func (d *RemappedSymbolMap) NewSymbols(id SetID) []SetID {
	if id < 0 || int(id) >= len(d.new) {
		return nil
	}
	return d.new[id]
}
