package substitus

import (
	"sort"
	"testing"

	"github.com/bastiangx/substitus/pkg/atoms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	stems    = []atoms.Sequence{"cat", "dog", "hen", "pig", "cow", "fox", "owl", "yak", "emu", "elk", "ram", "cub"}
	suffixes = []atoms.Sequence{"", "s", "ly", "ish", "ful"}
)

// farm crosses every stem with every suffix, so cat|s has 11 alternative
// prefixes and 4 alternative suffixes with all 44 compounds observed.
func farm() []counted {
	var out []counted
	for i, st := range stems {
		for j, sf := range suffixes {
			out = append(out, counted{st.Concat(sf), uint64((i+2)*(j+3) + i)})
		}
	}
	return out
}

func featureIndex(t *testing.T, e *Engine, name string) int {
	t.Helper()
	for i, n := range e.FeatureNames() {
		if n == name {
			return i
		}
	}
	t.Fatalf("no feature %q", name)
	return -1
}

// bestFirst orders positions by mixed score, keeping ties in place.
func bestFirst(order []int, mixed func(int) float64) []int {
	out := append([]int(nil), order...)
	sort.SliceStable(out, func(a, b int) bool { return mixed(out[a]) > mixed(out[b]) })
	return out
}

func TestMatrixReduction(t *testing.T) {
	tests := []struct {
		description   string
		square        int
		wantCellCount int
	}{
		{"single cell", 1, 1},
		{"two by two", 2, 4},
		{"rows cut, columns kept", 8, 32},
		{"nothing cut", 16, 44},
	}
	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			opts := DefaultOptions()
			opts.SquareSize = tt.square
			e := trained(t, farm(), opts)

			m, err := e.matrix("cat", "s")
			require.NoError(t, err)
			require.Len(t, m.rows, 11)
			require.Len(t, m.cols, 4)
			require.Equal(t, 44, m.populated())

			wantRows := bestFirst(m.rowOrder, func(i int) float64 { return m.rowScores(i).Mixed() })
			wantCols := bestFirst(m.colOrder, func(j int) float64 { return m.colScores(j).Mixed() })
			wantRows = wantRows[:min(tt.square, len(wantRows))]
			wantCols = wantCols[:min(tt.square, len(wantCols))]

			m.reorder()
			m.reduce(tt.square)
			assert.ElementsMatch(t, wantRows, m.rowOrder)
			assert.ElementsMatch(t, wantCols, m.colOrder)
			assert.Equal(t, tt.wantCellCount, m.populated())

			m.reorder()
			for k := 1; k < len(m.rowOrder); k++ {
				assert.GreaterOrEqual(t, m.rowScores(m.rowOrder[k-1]).Mixed(), m.rowScores(m.rowOrder[k]).Mixed())
			}
			for k := 1; k < len(m.colOrder); k++ {
				assert.GreaterOrEqual(t, m.colScores(m.colOrder[k-1]).Mixed(), m.colScores(m.colOrder[k]).Mixed())
			}

			r, err := e.Score("cat", "s", true)
			require.NoError(t, err)
			cells := r.Features[featureIndex(t, e, "cellCount")]
			assert.Equal(t, float64(tt.wantCellCount), cells)
			assert.LessOrEqual(t, cells, float64(tt.square*tt.square))
			assert.Equal(t, 44.0, r.Features[featureIndex(t, e, "cellCountTotal")])
			assert.Greater(t, r.Segmentability, 0.5)
			assert.LessOrEqual(t, r.Segmentability, 1.0)
		})
	}
}

func TestMatrixSingleRowIsBest(t *testing.T) {
	opts := DefaultOptions()
	opts.SquareSize = 1
	e := trained(t, farm(), opts)

	m, err := e.matrix("cat", "s")
	require.NoError(t, err)

	best, bestMix := -1, -1.0
	for _, i := range m.rowOrder {
		if mix := m.rowScores(i).Mixed(); mix > bestMix {
			best, bestMix = i, mix
		}
	}

	m.reorder()
	m.reduce(1)
	m.reorder()
	assert.Equal(t, []int{best}, m.rowOrder)
}

func TestBuildMatrixRejectsNegativeHypothesis(t *testing.T) {
	e := trained(t, animals, DefaultOptions())

	rows, err := e.alternativePrefixes("cat", "s")
	require.NoError(t, err)
	cols, err := e.alternativeSuffixes("cat", "s")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Len(t, cols, 1)

	rows[0].Similarity, cols[0].Similarity = 1, 1
	rows[0].Frequency = -8
	_, err = e.buildMatrix("cat", "s", rows, cols)
	assert.ErrorIs(t, err, ErrInconsistentFrequency)
}
