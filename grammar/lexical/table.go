package lexical

import (
	"fmt"

	"github.com/nihei9/weft/compressor"
	"github.com/nihei9/weft/grammar/lexical/automaton"
	spec "github.com/nihei9/weft/spec/grammar"
)

const (
	CompressionLevelMin = 0
	CompressionLevelMax = 2
)

// Finish minimises the DFA, merges behaviourally identical symbol sets,
// and renders the runtime tables. An empty rowKind selects the denser
// representation automatically: flat rows when at least half of the
// (state, set) pairs are populated, compact rows otherwise. Compression
// levels 1 and 2 apply to flat rows.
func Finish(d *automaton.DFA, pairs []WeakPair, termCount int, rowKind spec.RowKind, compLv int) (*spec.LexicalSpec, error) {
	if compLv < CompressionLevelMin || compLv > CompressionLevelMax {
		return nil, fmt.Errorf("an invalid compression level: %v", compLv)
	}

	d = d.Minimize().MergeSymbols()

	stateCount := d.CountStates()
	setCount := d.Symbols().Count()

	var translator []spec.TranslatorEntry
	for _, e := range d.Translator().Entries() {
		translator = append(translator, spec.TranslatorEntry{
			Lower: int(e.Lower),
			Upper: int(e.Upper),
			Set:   e.Set.Int(),
		})
	}

	accepts := make([]int, stateCount)
	for s := 0; s < stateCount; s++ {
		if a, ok := d.AcceptOf(automaton.StateID(s)); ok {
			accepts[s] = a.Symbol
		}
	}

	weakOf := make([]int, termCount)
	strongOf := make([]int, termCount)
	for _, p := range pairs {
		weakOf[p.Parallel] = p.Weak
		strongOf[p.Parallel] = p.Strong
	}

	transitionCount := 0
	for s := 0; s < stateCount; s++ {
		transitionCount += len(d.Transitions(automaton.StateID(s)))
	}

	if rowKind == "" {
		if setCount > 0 && transitionCount*2 >= stateCount*setCount {
			rowKind = spec.RowKindFlat
		} else {
			rowKind = spec.RowKindCompact
		}
	}
	if compLv > 0 {
		rowKind = spec.RowKindFlat
	}

	lexSpec := &spec.LexicalSpec{
		SetCount:         setCount,
		Translator:       translator,
		RowKind:          rowKind,
		InitialState:     automaton.StateIDStart.Int(),
		StateCount:       stateCount,
		CompressionLevel: compLv,
		Accepts:          accepts,
		WeakOf:           weakOf,
		StrongOf:         strongOf,
	}

	switch rowKind {
	case spec.RowKindFlat:
		rows := make([]int, stateCount*setCount)
		for i := range rows {
			rows[i] = spec.StateIDNil
		}
		for s := 0; s < stateCount; s++ {
			for _, set := range d.Transitions(automaton.StateID(s)) {
				rows[s*setCount+set.Int()] = d.Next(automaton.StateID(s), set).Int()
			}
		}
		switch {
		case compLv == 0 || len(rows) == 0:
			lexSpec.FlatRows = rows
		default:
			compressed, err := compressFlatRows(rows, setCount, compLv)
			if err != nil {
				return nil, err
			}
			lexSpec.Compressed = compressed
		}
	case spec.RowKindCompact:
		rows := make([][]spec.CompactEntry, stateCount)
		for s := 0; s < stateCount; s++ {
			entries := []spec.CompactEntry{}
			for _, set := range d.Transitions(automaton.StateID(s)) {
				entries = append(entries, spec.CompactEntry{
					Set:  set.Int(),
					Next: d.Next(automaton.StateID(s), set).Int(),
				})
			}
			rows[s] = entries
		}
		lexSpec.CompactRows = rows
	default:
		return nil, fmt.Errorf("an invalid row kind: %v", rowKind)
	}

	return lexSpec, nil
}

func compressFlatRows(rows []int, colCount int, compLv int) (*spec.UniqueEntriesTable, error) {
	ueTab := compressor.NewUniqueEntriesTable()
	{
		orig, err := compressor.NewOriginalTable(rows, colCount)
		if err != nil {
			return nil, err
		}
		err = ueTab.Compress(orig)
		if err != nil {
			return nil, err
		}
	}

	if compLv == 1 {
		return &spec.UniqueEntriesTable{
			UncompressedUniqueEntries: ueTab.UniqueEntries,
			RowNums:                   ueTab.RowNums,
			OriginalRowCount:          ueTab.OriginalRowCount,
			OriginalColCount:          ueTab.OriginalColCount,
		}, nil
	}

	rdTab := compressor.NewRowDisplacementTable(spec.StateIDNil)
	{
		orig, err := compressor.NewOriginalTable(ueTab.UniqueEntries, ueTab.OriginalColCount)
		if err != nil {
			return nil, err
		}
		err = rdTab.Compress(orig)
		if err != nil {
			return nil, err
		}
	}

	return &spec.UniqueEntriesTable{
		UniqueEntries: &spec.RowDisplacementTable{
			OriginalRowCount: rdTab.OriginalRowCount,
			OriginalColCount: rdTab.OriginalColCount,
			EmptyValue:       spec.StateIDNil,
			Entries:          rdTab.Entries,
			Bounds:           rdTab.Bounds,
			RowDisplacement:  rdTab.RowDisplacement,
		},
		RowNums:          ueTab.RowNums,
		OriginalRowCount: ueTab.OriginalRowCount,
		OriginalColCount: ueTab.OriginalColCount,
	}, nil
}
