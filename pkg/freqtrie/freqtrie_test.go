package freqtrie

import (
	"testing"

	"github.com/bastiangx/substitus/pkg/atoms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var corpus = []struct {
	word atoms.Sequence
	freq uint64
}{
	{"cats", 10},
	{"cat", 50},
	{"dogs", 8},
	{"dog", 40},
	{"catalog", 3},
	{"dot", 7},
}

func trainedPair(t *testing.T) *Pair {
	t.Helper()
	p := NewPair()
	for _, e := range corpus {
		require.NoError(t, p.RememberCounted(e.word, e.freq))
	}
	return p
}

func TestModifyFrequencyKeepsAggregates(t *testing.T) {
	f := New()
	require.NoError(t, f.ModifyFrequency("cat", 5))
	require.NoError(t, f.ModifyFrequency("cats", 2))
	require.NoError(t, f.ModifyFrequency("car", 1))

	assert.Equal(t, int64(5), f.Frequency("cat"))
	assert.Equal(t, int64(7), f.PrefixFrequency("cat"))
	assert.Equal(t, int64(8), f.PrefixFrequency("ca"))
	assert.Equal(t, int64(8), f.Total())
	assert.Equal(t, int64(0), f.Frequency("ca"))
	assert.Equal(t, int64(0), f.PrefixFrequency("zebra"))
	assert.Equal(t, 3, f.Unique())
	require.NoError(t, f.Check())
}

func TestModifyFrequencyRejectsNegative(t *testing.T) {
	f := New()
	require.NoError(t, f.ModifyFrequency("cat", 2))

	err := f.ModifyFrequency("cat", -3)
	require.ErrorIs(t, err, ErrInconsistentFrequency)
	assert.Equal(t, int64(2), f.Frequency("cat"))
	require.NoError(t, f.Check())
}

func TestTrainingAccumulates(t *testing.T) {
	p := NewPair()
	require.NoError(t, p.RememberCounted("foo", 3))
	require.NoError(t, p.RememberCounted("foo", 3))

	assert.Equal(t, int64(6), p.Frequency("foo"))
	assert.Equal(t, int64(6), p.SuffixFrequency("foo"))
	assert.Equal(t, 1, p.UniqueSequencesCount())
}

func TestPrefixSuffixDuality(t *testing.T) {
	p := trainedPair(t)

	for _, e := range corpus {
		rev := e.word.Reverse()
		assert.Equal(t, p.Prefixes.Frequency(e.word), p.Suffixes.Frequency(rev), e.word)
		assert.Equal(t, int64(e.freq), p.Suffixes.Frequency(rev), e.word)
	}

	assert.Equal(t, int64(18), p.SuffixFrequency("s"))
	assert.Equal(t, int64(18), p.SuffixFrequency("gs")+p.SuffixFrequency("ts"))
	assert.Equal(t, int64(63), p.PrefixFrequency("cat"))
	assert.Equal(t, int64(118), p.TotalSequencesCount())
	assert.Equal(t, p.Prefixes.Total(), p.Suffixes.Total())
	assert.Equal(t, len(corpus), p.UniqueSequencesCount())
}

func TestAggregateInvariantAfterNetZero(t *testing.T) {
	p := trainedPair(t)
	require.NoError(t, p.RememberCounted("dogma", 4))
	require.NoError(t, p.Forget("dogma", 4))
	require.NoError(t, p.Forget("dot", 7))

	require.NoError(t, p.Prefixes.Check())
	require.NoError(t, p.Suffixes.Check())
	assert.Equal(t, int64(111), p.TotalSequencesCount())
	assert.Equal(t, int64(0), p.Frequency("dogma"))

	p.PruneEmpty()
	require.NoError(t, p.Prefixes.Check())
	require.NoError(t, p.Suffixes.Check())
	assert.Equal(t, 5, p.UniqueSequencesCount())
	assert.Equal(t, int64(111), p.TotalSequencesCount())
	assert.Equal(t, int64(0), p.PrefixFrequency("dogm"))
}

func TestRememberRejectsEmpty(t *testing.T) {
	p := NewPair()
	assert.ErrorIs(t, p.RememberCounted("", 1), ErrEmptySequence)
	assert.ErrorIs(t, p.Forget("", 1), ErrEmptySequence)
}

func TestVisitAtLeast(t *testing.T) {
	p := trainedPair(t)

	var got []Entry
	err := p.Prefixes.Subtrie("ca").VisitAtLeast(10, func(key atoms.Sequence, freq int64) error {
		got = append(got, Entry{Sequence: key, Frequency: freq})
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []Entry{{"t", 50}, {"ts", 10}}, got)
}
