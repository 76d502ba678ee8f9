package inventory

import (
	"testing"

	"github.com/bastiangx/substitus/pkg/atoms"
	"github.com/bastiangx/substitus/pkg/segmentation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func filled() *Inventory {
	inv := New()
	inv.Add([]atoms.Sequence{"cat", "s"}, 10)
	inv.Add([]atoms.Sequence{"cat"}, 50)
	inv.Add([]atoms.Sequence{"dog", "s"}, 8)
	inv.Add([]atoms.Sequence{"catalog"}, 3)
	inv.Add([]atoms.Sequence{"s", "s"}, 1)
	return inv
}

func TestComplete(t *testing.T) {
	inv := filled()

	got := inv.Complete("cat", 0)
	assert.Equal(t, []Morph{
		{Form: "cat", Count: 60, Words: 2},
		{Form: "catalog", Count: 3, Words: 1},
	}, got)

	assert.Len(t, inv.Complete("cat", 1), 1)
	assert.Empty(t, inv.Complete("zebra", 5))
}

func TestTopAndStats(t *testing.T) {
	inv := filled()

	top := inv.Top(2)
	require.Len(t, top, 2)
	assert.Equal(t, "cat", top[0].Form)
	assert.Equal(t, Morph{Form: "s", Count: 20, Words: 3}, top[1])

	assert.Equal(t, map[string]int{"morphs": 4, "words": 5, "tokens": 72}, inv.Stats())
	assert.Equal(t, uint64(8), inv.Count("dog"))
	assert.Equal(t, uint64(0), inv.Count("do"))

	inv.Reset()
	assert.Equal(t, 0, inv.Stats()["morphs"])
	assert.Empty(t, inv.Top(0))
}

func TestAddSkipsEmpty(t *testing.T) {
	inv := New()
	inv.Add(nil, 5)
	inv.Add([]atoms.Sequence{"cat"}, 0)
	inv.Add([]atoms.Sequence{"", "cat"}, 1)
	assert.Equal(t, map[string]int{"morphs": 1, "words": 1, "tokens": 1}, inv.Stats())
}

func TestAddSegmentation(t *testing.T) {
	seg, err := segmentation.NewProbabilistic("walked", []float64{0, 0.1, 0.2, 0.9, 0.3})
	require.NoError(t, err)

	inv := New()
	inv.AddSegmentation(seg, segmentation.DefaultThreshold, 4)
	assert.Equal(t, uint64(4), inv.Count("walk"))
	assert.Equal(t, uint64(4), inv.Count("ed"))
}
