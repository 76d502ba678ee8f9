package substitus

import (
	"testing"

	"github.com/bastiangx/substitus/pkg/atoms"
	"github.com/bastiangx/substitus/pkg/freqtrie"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counted struct {
	word atoms.Sequence
	freq uint64
}

var animals = []counted{
	{"cats", 10},
	{"cat", 50},
	{"dogs", 8},
	{"dog", 40},
}

func trained(t *testing.T, words []counted, opts Options) *Engine {
	t.Helper()
	p := freqtrie.NewPair()
	for _, w := range words {
		require.NoError(t, p.RememberCounted(w.word, w.freq))
	}
	e, err := New(p, opts)
	require.NoError(t, err)
	return e
}

func TestSegmentabilityPrefersAnalogousBoundary(t *testing.T) {
	e := trained(t, animals, DefaultOptions())

	good, err := e.Segmentability("cat", "s")
	require.NoError(t, err)
	bad, err := e.Segmentability("ca", "ts")
	require.NoError(t, err)

	assert.Greater(t, good, bad)
	assert.InDelta(t, 0.835, good, 0.01)
	assert.Equal(t, 0.0, bad)
}

func TestCompoundHypotheses(t *testing.T) {
	e := trained(t, animals, DefaultOptions())

	rows, err := e.alternativePrefixes("cat", "s")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, atoms.Sequence("dog"), rows[0].Form)
	assert.Equal(t, int64(8), rows[0].Frequency)

	cols, err := e.alternativeSuffixes("cat", "s")
	require.NoError(t, err)
	require.Len(t, cols, 1)
	assert.Equal(t, atoms.Empty, cols[0].Form)
	assert.Equal(t, int64(50), cols[0].Frequency)

	rows[0].Similarity, cols[0].Similarity = 1, 1
	m, err := e.buildMatrix("cat", "s", rows, cols)
	require.NoError(t, err)
	cell := m.cells[0][0]
	require.NotNil(t, cell)
	assert.Equal(t, 40.0, cell.Actual)
	assert.Equal(t, 3, cell.Length)
	assert.InDelta(t, 48.0, cell.PredictedA, 1e-9)
	assert.InDelta(t, 40.0, cell.PredictedB, 1e-9)
	assert.Equal(t, 1, m.populated())
}

func TestSegmentabilityBounds(t *testing.T) {
	words := append([]counted{
		{"catalog", 3},
		{"dot", 7},
		{"dots", 2},
		{"walked", 12},
		{"walks", 9},
		{"walk", 30},
		{"talked", 6},
		{"talk", 25},
	}, animals...)
	e := trained(t, words, DefaultOptions())

	for _, w := range words {
		n := w.word.Len()
		for i := 1; i < n; i++ {
			p, s := w.word.Split(i)
			r, err := e.Score(p, s, true)
			require.NoError(t, err, "%s|%s", p, s)
			assert.GreaterOrEqual(t, r.Segmentability, 0.0)
			assert.LessOrEqual(t, r.Segmentability, 1.0)
			assert.Len(t, r.Features, len(e.FeatureNames()))
		}
	}
}

func TestSegmentabilityWithoutEvidence(t *testing.T) {
	e := trained(t, animals, DefaultOptions())

	p, err := e.Segmentability("cow", "s")
	require.NoError(t, err)
	assert.Equal(t, 0.0, p)

	p, err = e.Segmentability("zeb", "ra")
	require.NoError(t, err)
	assert.Equal(t, 0.0, p)
}

func TestScoreRejectsEmptyParts(t *testing.T) {
	e := trained(t, animals, DefaultOptions())

	_, err := e.Score("", "cats", false)
	assert.ErrorIs(t, err, ErrEmptySequence)
	_, err = e.Score("cats", "", false)
	assert.ErrorIs(t, err, ErrEmptySequence)
}

func TestBoundaryPolicy(t *testing.T) {
	words := []counted{{"cats", 10}, {"cat", 50}, {"bats", 6}, {"bat", 30}}

	excl := trained(t, words, DefaultOptions())
	p, err := excl.Segmentability("cat", "s")
	require.NoError(t, err)
	assert.Equal(t, 0.0, p, "bat shares the boundary atom t")

	opts := DefaultOptions()
	opts.BoundaryPolicy = AllowSameBoundaryAtom
	allow := trained(t, words, opts)
	p, err = allow.Segmentability("cat", "s")
	require.NoError(t, err)
	assert.Greater(t, p, 0.5)
}

func TestKMostFrequentLimitsAlternatives(t *testing.T) {
	words := []counted{
		{"cats", 10}, {"cat", 50},
		{"dogs", 8}, {"dog", 40},
		{"pigs", 5}, {"pig", 20},
		{"hens", 4}, {"hen", 15},
	}
	e := trained(t, words, DefaultOptions())

	all, err := e.alternativePrefixes("cat", "s")
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, atoms.Sequence("dog"), all[0].Form)

	require.NoError(t, e.SetKMostFrequent(1))
	one, err := e.alternativePrefixes("cat", "s")
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, atoms.Sequence("dog"), one[0].Form)

	require.NoError(t, e.SetMinCompoundFrequency(6))
	require.NoError(t, e.SetKMostFrequent(64))
	some, err := e.alternativePrefixes("cat", "s")
	require.NoError(t, err)
	assert.Len(t, some, 1, "only dogs reaches the floor")
}

func TestFeatureNames(t *testing.T) {
	e := trained(t, animals, DefaultOptions())

	names := e.FeatureNames()
	assert.Len(t, names, 74)
	assert.Equal(t, "segmentability", names[0])
	assert.Contains(t, names, "mixedAvg8")
	assert.Contains(t, names, "length_mixed_harm")
	assert.NotContains(t, names, "mixedAvg16")
	assert.Equal(t, "maxAltSuffixLength", names[len(names)-1])

	r, err := e.Score("cat", "s", true)
	require.NoError(t, err)
	require.Len(t, r.Features, 74)
	assert.Equal(t, r.Segmentability, r.Features[0])

	r, err = e.Score("cat", "s", false)
	require.NoError(t, err)
	assert.Nil(t, r.Features)
}

func TestInvalidOptions(t *testing.T) {
	p := freqtrie.NewPair()

	tests := []struct {
		name   string
		modify func(*Options)
	}{
		{"zero min", func(o *Options) { o.MinCompoundFrequency = 0 }},
		{"zero k", func(o *Options) { o.KMostFrequent = 0 }},
		{"zero square", func(o *Options) { o.SquareSize = 0 }},
		{"negative neighborhood", func(o *Options) { o.NeighborhoodSizes = []int{-1} }},
		{"unknown policy", func(o *Options) { o.BoundaryPolicy = 7 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := DefaultOptions()
			tt.modify(&o)
			_, err := New(p, o)
			assert.ErrorIs(t, err, ErrInvalidOptions)
		})
	}

	_, err := New(nil, DefaultOptions())
	assert.ErrorIs(t, err, ErrInvalidOptions)

	e, err := New(p, DefaultOptions())
	require.NoError(t, err)
	assert.ErrorIs(t, e.SetKMostFrequent(0), ErrInvalidOptions)
	assert.ErrorIs(t, e.SetMinCompoundFrequency(-3), ErrInvalidOptions)
	assert.Equal(t, 64, e.Options().KMostFrequent)
}

func TestParseBoundaryPolicy(t *testing.T) {
	p, err := ParseBoundaryPolicy("allow")
	require.NoError(t, err)
	assert.Equal(t, AllowSameBoundaryAtom, p)
	assert.Equal(t, "allow", p.String())

	p, err = ParseBoundaryPolicy("")
	require.NoError(t, err)
	assert.Equal(t, ExcludeSameBoundaryAtom, p)

	_, err = ParseBoundaryPolicy("sometimes")
	assert.ErrorIs(t, err, ErrInvalidOptions)
}
