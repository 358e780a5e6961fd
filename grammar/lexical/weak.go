package lexical

import (
	"github.com/nihei9/weft/grammar/lexical/automaton"
)

// WeakPair is the parallel terminal introduced for a weak symbol that
// clashes with a strong one: tokens carrying Parallel mean "Weak where
// the grammar expects it, Strong otherwise".
type WeakPair struct {
	Parallel int
	Weak     int
	Strong   int
}

// AugmentWeakSymbols rewrites the accept actions of the states where a
// weak symbol wins over a strong one. Each distinct (weak, strong)
// combination gets one parallel terminal from the register callback, and
// the state's output becomes that parallel terminal, so the runtime can
// carry both identities. Run this on the raw DFA, before minimisation
// collapses the clash states.
func AugmentWeakSymbols(d *automaton.DFA, register func(weak, strong int) (int, error)) ([]WeakPair, error) {
	parallels := map[[2]int]int{}
	var pairs []WeakPair

	for s := 0; s < d.CountStates(); s++ {
		accepts := d.AcceptsOf(automaton.StateID(s))
		if len(accepts) == 0 {
			continue
		}
		winner := accepts[0]
		if !winner.Weak {
			continue
		}

		// The strong meaning of the state is the best non-weak action it
		// overrides, if any.
		strong := -1
		for _, a := range accepts[1:] {
			if !a.Weak {
				strong = a.Symbol
				break
			}
		}
		if strong < 0 {
			continue
		}

		key := [2]int{winner.Symbol, strong}
		parallel, ok := parallels[key]
		if !ok {
			var err error
			parallel, err = register(winner.Symbol, strong)
			if err != nil {
				return nil, err
			}
			parallels[key] = parallel
			pairs = append(pairs, WeakPair{
				Parallel: parallel,
				Weak:     winner.Symbol,
				Strong:   strong,
			})
		}

		d.ReplaceAccept(automaton.StateID(s), automaton.AcceptAction{
			Symbol:   parallel,
			Kind:     winner.Kind,
			Weak:     true,
			Language: true,
		})
	}

	return pairs, nil
}
