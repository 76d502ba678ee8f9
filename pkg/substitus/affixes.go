package substitus

import (
	"fmt"
	"sort"

	"github.com/bastiangx/substitus/pkg/atoms"
	"github.com/bastiangx/substitus/pkg/freqtrie"
)

// AffixInfo ranks one alternative affix found for a tested split.
type AffixInfo struct {
	Form atoms.Sequence
	// Frequency of the alternative joined with the tested complement.
	Frequency int64
	// Similarity of its distribution to the tested affix, in (0,1].
	Similarity float64
}

// side describes one half of a split: how trie keys map to affix forms and
// which atom sits next to the boundary.
type side struct {
	orient   func(atoms.Sequence) atoms.Sequence
	boundary func(atoms.Sequence) (atoms.Atom, bool)
}

var (
	prefixSide = side{
		orient:   atoms.Sequence.Reverse,
		boundary: atoms.Sequence.Last,
	}
	suffixSide = side{
		orient:   func(s atoms.Sequence) atoms.Sequence { return s },
		boundary: atoms.Sequence.First,
	}
)

// alternativePrefixes finds prefixes that occur in front of suffix.
func (e *Engine) alternativePrefixes(prefix, suffix atoms.Sequence) ([]AffixInfo, error) {
	sub := e.pair.Suffixes.Subtrie(suffix.Reverse())
	return e.frequentComplements(sub, prefixSide, prefix)
}

// alternativeSuffixes finds suffixes that occur after prefix.
func (e *Engine) alternativeSuffixes(prefix, suffix atoms.Sequence) ([]AffixInfo, error) {
	sub := e.pair.Prefixes.Subtrie(prefix)
	return e.frequentComplements(sub, suffixSide, suffix)
}

// frequentComplements collects up to KMostFrequent stored keys of sub, most
// frequent first. The frequency threshold starts at the subtrie total and is
// halved until enough candidates are found or it reaches MinCompoundFrequency;
// subtrees below the threshold are never entered.
func (e *Engine) frequentComplements(sub *freqtrie.FrequencyTrie, sd side, original atoms.Sequence) ([]AffixInfo, error) {
	floor := e.opts.MinCompoundFrequency
	k := e.opts.KMostFrequent
	total := sub.Total()
	if total < 0 {
		return nil, fmt.Errorf("%w: subtrie total %d", ErrInconsistentFrequency, total)
	}
	if total < floor {
		return nil, nil
	}

	origAtom, origHasAtom := sd.boundary(original)
	exclude := e.opts.BoundaryPolicy == ExcludeSameBoundaryAtom && origHasAtom

	var cands []AffixInfo
	for threshold := total; ; {
		cands = cands[:0]
		err := sub.VisitAtLeast(threshold, func(key atoms.Sequence, freq int64) error {
			form := sd.orient(key)
			if form == original {
				return nil
			}
			if exclude {
				if a, ok := sd.boundary(form); ok && a == origAtom {
					return nil
				}
			}
			cands = append(cands, AffixInfo{Form: form, Frequency: freq})
			return nil
		})
		if err != nil {
			return nil, err
		}
		if len(cands) >= k || threshold <= floor {
			break
		}
		threshold = max(threshold/2, floor)
	}

	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].Frequency != cands[j].Frequency {
			return cands[i].Frequency > cands[j].Frequency
		}
		return cands[i].Form < cands[j].Form
	})
	if len(cands) > k {
		cands = cands[:k]
	}
	return cands, nil
}

// compound returns the stored frequency of a+b as a float.
func (e *Engine) compound(a, b atoms.Sequence) (float64, error) {
	f := e.pair.Frequency(a.Concat(b))
	if f < 0 {
		return 0, fmt.Errorf("%w: %q has frequency %d", ErrInconsistentFrequency, a.Concat(b), f)
	}
	return float64(f), nil
}

// rankBySimilarity scores every alternative against the tested affix using
// frequency vectors over dims, keeps those with positive similarity, and sorts
// them most similar first.
//
// join(x, d) builds the compound of affix x with dimension d.
func (e *Engine) rankBySimilarity(tested atoms.Sequence, alts []AffixInfo, dims []atoms.Sequence,
	join func(x, d atoms.Sequence) (atoms.Sequence, atoms.Sequence)) ([]AffixInfo, error) {

	vector := func(x atoms.Sequence) ([]float64, error) {
		v := make([]float64, len(dims))
		for i, d := range dims {
			f, err := e.compound(join(x, d))
			if err != nil {
				return nil, err
			}
			v[i] = f
		}
		return v, nil
	}

	base, err := vector(tested)
	if err != nil {
		return nil, err
	}
	out := make([]AffixInfo, 0, len(alts))
	for _, a := range alts {
		v, err := vector(a.Form)
		if err != nil {
			return nil, err
		}
		a.Similarity = Similarity(base, v)
		if a.Similarity > 0 {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		return out[i].Frequency > out[j].Frequency
	})
	return out, nil
}

// dimensions lists the tested affix followed by its alternatives.
func dimensions(tested atoms.Sequence, alts []AffixInfo) []atoms.Sequence {
	out := make([]atoms.Sequence, 0, len(alts)+1)
	out = append(out, tested)
	for _, a := range alts {
		out = append(out, a.Form)
	}
	return out
}
