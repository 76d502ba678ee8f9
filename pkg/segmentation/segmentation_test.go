package segmentation

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/bastiangx/substitus/pkg/atoms"
	"github.com/bastiangx/substitus/pkg/freqtrie"
	"github.com/bastiangx/substitus/pkg/substitus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSegmenter(t *testing.T, opts ...Option) *Segmenter {
	t.Helper()
	p := freqtrie.NewPair()
	for w, f := range map[atoms.Sequence]uint64{
		"cats": 10, "cat": 50, "dogs": 8, "dog": 40,
		"walked": 12, "walk": 30, "talked": 6, "talk": 25,
	} {
		require.NoError(t, p.RememberCounted(w, f))
	}
	e, err := substitus.New(p, substitus.DefaultOptions())
	require.NoError(t, err)
	s, err := NewSegmenter(e, opts...)
	require.NoError(t, err)
	return s
}

func TestSegmentizeP(t *testing.T) {
	s := newSegmenter(t)

	seg, err := s.SegmentizeP("cats")
	require.NoError(t, err)
	require.Len(t, seg.Probabilities, 3)
	for _, p := range seg.Probabilities {
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)
	}
	assert.Equal(t, 0.0, seg.Probabilities[1], "ca|ts has no analogue")
	assert.Greater(t, seg.Probabilities[2], seg.Probabilities[1])
	assert.Equal(t, []atoms.Sequence{"cat", "s"}, seg.Morphs(DefaultThreshold))
	assert.Equal(t, "cat+s", seg.Segmented(DefaultThreshold, "+"))
}

func TestSegmentizePEdgeCases(t *testing.T) {
	s := newSegmenter(t)

	_, err := s.SegmentizeP("")
	assert.ErrorIs(t, err, substitus.ErrEmptySequence)

	seg, err := s.SegmentizeP("a")
	require.NoError(t, err)
	assert.Empty(t, seg.Probabilities)
	assert.Equal(t, []atoms.Sequence{"a"}, seg.Morphs(DefaultThreshold))

	seg, err = s.SegmentizeP("zebra")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0, 0}, seg.Probabilities)
}

func TestSegmentizePCache(t *testing.T) {
	s := newSegmenter(t)

	first, err := s.SegmentizeP("cats")
	require.NoError(t, err)
	assert.Equal(t, 1, s.CacheLen())

	first.Probabilities[0] = 42
	again, err := s.SegmentizeP("cats")
	require.NoError(t, err)
	assert.NotEqual(t, 42.0, again.Probabilities[0])

	require.NoError(t, s.Tune(0, 0))
	assert.Equal(t, 1, s.CacheLen(), "no change, no purge")

	require.NoError(t, s.Tune(2, 16))
	assert.Equal(t, 0, s.CacheLen())
	assert.Equal(t, int64(2), s.Options().MinCompoundFrequency)
	assert.Equal(t, 16, s.Options().KMostFrequent)

	assert.ErrorIs(t, s.Tune(0, -1), substitus.ErrInvalidOptions)

	uncached := newSegmenter(t, WithCacheSize(0))
	_, err = uncached.SegmentizeP("cats")
	require.NoError(t, err)
	assert.Equal(t, 0, uncached.CacheLen())
}

func TestFeatureSink(t *testing.T) {
	var mu sync.Mutex
	got := map[int]int{}
	sink := FeatureSinkFunc(func(word atoms.Sequence, boundary int, features []float64) error {
		mu.Lock()
		defer mu.Unlock()
		got[boundary] = len(features)
		return nil
	})
	s := newSegmenter(t, WithFeatureSink(sink))

	_, err := s.SegmentizeP("dogs")
	require.NoError(t, err)
	n := len(s.Engine().FeatureNames())
	assert.Equal(t, map[int]int{0: n, 1: n, 2: n}, got)

	failing := newSegmenter(t, WithFeatureSink(FeatureSinkFunc(
		func(atoms.Sequence, int, []float64) error { return errors.New("disk full") })))
	_, err = failing.SegmentizeP("dogs")
	assert.ErrorContains(t, err, "disk full")
}

func TestSegmentAll(t *testing.T) {
	s := newSegmenter(t)
	words := []atoms.Sequence{"cats", "", "walked", "dogs", "talk"}

	results, err := s.SegmentAll(context.Background(), words, 3)
	require.NoError(t, err)
	require.Len(t, results, len(words))
	for i, r := range results {
		assert.Equal(t, words[i], r.Word)
	}
	assert.ErrorIs(t, results[1].Err, substitus.ErrEmptySequence)
	assert.Nil(t, results[1].Segmentation)
	for _, i := range []int{0, 2, 3, 4} {
		require.NoError(t, results[i].Err)
		assert.Len(t, results[i].Segmentation.Probabilities, words[i].Len()-1)
	}
}

func TestSegmentAllCancelled(t *testing.T) {
	s := newSegmenter(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.SegmentAll(ctx, []atoms.Sequence{"cats", "dogs"}, 2)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTransforms(t *testing.T) {
	seg, err := NewProbabilistic("walked", []float64{0.1, 0.2, 0.3, 0.9, 0.4})
	require.NoError(t, err)

	norm := seg.Normalize(seg.Mean())
	require.Len(t, norm.Probabilities, 5)
	assert.Greater(t, norm.Probabilities[3], 0.99)
	assert.Less(t, norm.Probabilities[0], 0.01)
	assert.Equal(t, 0.1, seg.Probabilities[0], "Normalize does not mutate")

	bin := seg.BinarizeIf(AtLeast(0.35))
	assert.Equal(t, []float64{0, 0, 0, 1, 1}, bin.Probabilities)
	assert.Equal(t, []bool{false, false, false, true, true}, seg.Boundaries(0.35))
	assert.Equal(t, []atoms.Sequence{"walk", "e", "d"}, bin.Morphs(1))

	_, err = NewProbabilistic("cat", []float64{0.5})
	assert.Error(t, err)
}

func TestString(t *testing.T) {
	seg, err := NewProbabilistic("cats", []float64{0, 0.01, 0.83})
	require.NoError(t, err)
	assert.Equal(t, "c .00 a .01 t .83 s", seg.String())
}

func TestFeatures(t *testing.T) {
	s := newSegmenter(t)

	fs, err := s.Features("cats")
	require.NoError(t, err)
	require.Len(t, fs, 3)
	seg, err := s.SegmentizeP("cats")
	require.NoError(t, err)
	for i, f := range fs {
		assert.Len(t, f, len(s.Engine().FeatureNames()))
		assert.Equal(t, seg.Probabilities[i], f[0])
	}

	_, err = s.Features("")
	assert.ErrorIs(t, err, substitus.ErrEmptySequence)
}
