/*
Package substitus scores how likely a position inside a word is a morpheme boundary.

For a tested split prefix|suffix the engine looks for other prefixes seen in
front of the same suffix and other suffixes seen after the same prefix, keeps
the ones whose distributions resemble the tested affixes, and checks how well
the observed frequencies of their cross combinations match two independent
predictions. Splits whose parts substitute freely score high; splits with no
such evidence score exactly 0.

	pair := freqtrie.NewPair()
	pair.RememberCounted("cats", 10)
	pair.RememberCounted("dogs", 8)
	// ...
	eng, err := substitus.New(pair, substitus.DefaultOptions())
	p, err := eng.Segmentability("cat", "s")

The engine only reads the pair. It holds no per-call state, so independent
words may be scored concurrently once training is finished, as long as the
tunables are not changed meanwhile.
*/
package substitus

import (
	"errors"
	"fmt"

	"github.com/bastiangx/substitus/pkg/atoms"
	"github.com/bastiangx/substitus/pkg/freqtrie"
	"github.com/charmbracelet/log"
)

var (
	// ErrEmptySequence rejects empty prefixes, suffixes and words.
	ErrEmptySequence = freqtrie.ErrEmptySequence
	// ErrInvalidOptions rejects non-positive tunables.
	ErrInvalidOptions = errors.New("invalid options")
	// ErrInconsistentFrequency reports frequency bookkeeping that cannot be right.
	ErrInconsistentFrequency = freqtrie.ErrInconsistentFrequency
)

// Engine computes boundary segmentability over a trained frequency pair.
type Engine struct {
	pair     *freqtrie.Pair
	opts     Options
	features []string
}

// Result is the outcome of scoring one split.
type Result struct {
	Segmentability float64
	// Features is nil unless requested; it follows FeatureNames.
	Features []float64
}

// New creates an engine reading pair.
func New(pair *freqtrie.Pair, opts Options) (*Engine, error) {
	if pair == nil {
		return nil, fmt.Errorf("%w: nil frequency pair", ErrInvalidOptions)
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts.NeighborhoodSizes = append([]int(nil), opts.NeighborhoodSizes...)
	return &Engine{
		pair:     pair,
		opts:     opts,
		features: featureNames(opts),
	}, nil
}

// Options returns a copy of the current tunables.
func (e *Engine) Options() Options {
	o := e.opts
	o.NeighborhoodSizes = append([]int(nil), e.opts.NeighborhoodSizes...)
	return o
}

// Pair returns the frequency pair the engine reads.
func (e *Engine) Pair() *freqtrie.Pair {
	return e.pair
}

// SetMinCompoundFrequency changes the floor of the adaptive threshold.
func (e *Engine) SetMinCompoundFrequency(v int64) error {
	if v < 1 {
		return fmt.Errorf("%w: min compound frequency %d < 1", ErrInvalidOptions, v)
	}
	e.opts.MinCompoundFrequency = v
	return nil
}

// SetKMostFrequent changes the breadth of the alternative search.
func (e *Engine) SetKMostFrequent(k int) error {
	if k < 1 {
		return fmt.Errorf("%w: k most frequent %d < 1", ErrInvalidOptions, k)
	}
	e.opts.KMostFrequent = k
	return nil
}

// FeatureNames lists the attributes of Result.Features in order.
func (e *Engine) FeatureNames() []string {
	return append([]string(nil), e.features...)
}

// Segmentability returns the boundary probability of prefix|suffix in [0,1].
func (e *Engine) Segmentability(prefix, suffix atoms.Sequence) (float64, error) {
	r, err := e.Score(prefix, suffix, false)
	return r.Segmentability, err
}

// Score evaluates the split prefix|suffix and optionally builds its feature vector.
func (e *Engine) Score(prefix, suffix atoms.Sequence, withFeatures bool) (Result, error) {
	if prefix.IsEmpty() || suffix.IsEmpty() {
		return Result{}, fmt.Errorf("%w: split %q|%q", ErrEmptySequence, prefix, suffix)
	}

	m, err := e.matrix(prefix, suffix)
	if err != nil {
		return Result{}, err
	}

	sq := e.opts.SquareSize
	agg := newAggregate(sq)
	m.reorder()
	agg.accumulateTotals(m)
	m.reduce(sq)
	m.reorder()
	agg.accumulateNeighborhoods(m, sq)

	seg := 0.0
	if agg.totalCount > 0 {
		seg = clamp01((LengthFusionWeight*agg.avg[familyLength][sq] + MixedFusionWeight*agg.avg[familyMixed][sq]) /
			(LengthFusionWeight + MixedFusionWeight))
	}
	log.Debugf("split %s|%s: %d/%d alternatives, %d cells, segmentability %.4f",
		prefix, suffix, len(m.rows), len(m.cols), agg.totalCount, seg)

	res := Result{Segmentability: seg}
	if withFeatures {
		l := lengths{prefix: prefix.Len(), suffix: suffix.Len()}
		l.minAltPrefix, l.maxAltPrefix = affixLengthRange(m.rows, m.rowOrder)
		l.minAltSuffix, l.maxAltSuffix = affixLengthRange(m.cols, m.colOrder)
		res.Features = featureVector(e.opts, seg, agg, l)
	}
	return res, nil
}

// matrix finds and ranks the alternatives of prefix|suffix and fills the
// compound matrix over them.
func (e *Engine) matrix(prefix, suffix atoms.Sequence) (*compoundMatrix, error) {
	altPrefixes, err := e.alternativePrefixes(prefix, suffix)
	if err != nil {
		return nil, err
	}
	altSuffixes, err := e.alternativeSuffixes(prefix, suffix)
	if err != nil {
		return nil, err
	}

	rows, err := e.rankBySimilarity(prefix, altPrefixes, dimensions(suffix, altSuffixes),
		func(x, d atoms.Sequence) (atoms.Sequence, atoms.Sequence) { return x, d })
	if err != nil {
		return nil, err
	}
	cols, err := e.rankBySimilarity(suffix, altSuffixes, dimensions(prefix, altPrefixes),
		func(x, d atoms.Sequence) (atoms.Sequence, atoms.Sequence) { return d, x })
	if err != nil {
		return nil, err
	}
	return e.buildMatrix(prefix, suffix, rows, cols)
}
