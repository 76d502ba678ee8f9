package substitus

import (
	"fmt"
	"math"
	"sort"

	"github.com/bastiangx/substitus/pkg/atoms"
)

// CompoundInfo is one populated cell of the compound matrix: an observed
// alternative-prefix + alternative-suffix compound.
type CompoundInfo struct {
	// Length is the atom count of the compound.
	Length int
	Actual float64
	// PredictedA scales the tested compound by the prefix and suffix frequency ratios.
	PredictedA float64
	// PredictedB is the product of the two nearly-original compounds over the tested one.
	PredictedB float64
	Similarity float64
}

// Predicted is the geometric mean of both hypotheses.
func (c *CompoundInfo) Predicted() float64 {
	return math.Sqrt(c.PredictedA * c.PredictedB)
}

// cellScores are the four score families of one cell plus their mix.
type cellScores struct {
	frequency      float64
	length         float64
	predictability float64
	similarity     float64
}

func (c cellScores) mixed() float64 {
	return geometricMean(c.frequency, c.length, c.predictability, c.similarity)
}

func (c cellScores) family(f family) float64 {
	switch f {
	case familyFrequency:
		return c.frequency
	case familyLength:
		return c.length
	case familyPredictability:
		return c.predictability
	case familySimilarity:
		return c.similarity
	default:
		return c.mixed()
	}
}

// AffixScores summarize one row or column of the matrix.
type AffixScores struct {
	Frequency      float64
	Length         float64
	Predictability float64
	Similarity     float64
}

// Mixed is the geometric mean of the four scores.
func (a AffixScores) Mixed() float64 {
	return geometricMean(a.Frequency, a.Length, a.Predictability, a.Similarity)
}

// compoundMatrix is a sparse alternativePrefixes x alternativeSuffixes matrix.
// cells are indexed by the original candidate positions; rowOrder and colOrder
// hold the current ordering and, after reduction, the retained subset.
type compoundMatrix struct {
	rows     []AffixInfo
	cols     []AffixInfo
	cells    [][]*CompoundInfo
	scores   [][]cellScores
	rowOrder []int
	colOrder []int
	total    int64
}

func identity(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// buildMatrix fills the cells whose compound was observed.
func (e *Engine) buildMatrix(prefix, suffix atoms.Sequence, rows, cols []AffixInfo) (*compoundMatrix, error) {
	m := &compoundMatrix{
		rows:     rows,
		cols:     cols,
		cells:    make([][]*CompoundInfo, len(rows)),
		scores:   make([][]cellScores, len(rows)),
		rowOrder: identity(len(rows)),
		colOrder: identity(len(cols)),
		total:    e.pair.TotalSequencesCount(),
	}
	if len(rows) == 0 || len(cols) == 0 {
		return m, nil
	}

	orig, err := e.compound(prefix, suffix)
	if err != nil {
		return nil, err
	}
	// an unseen tested word still gets a unit count so the hypotheses stay defined
	orig = math.Max(orig, 1)
	fp := float64(e.pair.PrefixFrequency(prefix))
	gs := float64(e.pair.SuffixFrequency(suffix))
	if fp <= 0 || gs <= 0 {
		return nil, fmt.Errorf("%w: tested split %q|%q has affix frequencies %v/%v",
			ErrInconsistentFrequency, prefix, suffix, fp, gs)
	}

	colFreq := make([]float64, len(cols))
	for j, c := range cols {
		colFreq[j] = float64(e.pair.SuffixFrequency(c.Form))
	}
	prefixLen := make([]int, len(rows))
	for i, r := range rows {
		prefixLen[i] = r.Form.Len()
	}

	for i, r := range rows {
		m.cells[i] = make([]*CompoundInfo, len(cols))
		m.scores[i] = make([]cellScores, len(cols))
		rowFreq := float64(e.pair.PrefixFrequency(r.Form))
		for j, c := range cols {
			actual, err := e.compound(r.Form, c.Form)
			if err != nil {
				return nil, err
			}
			if actual <= 0 {
				continue
			}
			cell := &CompoundInfo{
				Length:     prefixLen[i] + c.Form.Len(),
				Actual:     actual,
				PredictedA: orig * (rowFreq / fp) * (colFreq[j] / gs),
				PredictedB: float64(r.Frequency) * float64(c.Frequency) / orig,
				Similarity: math.Sqrt(r.Similarity * c.Similarity),
			}
			if cell.PredictedA < 0 || cell.PredictedB < 0 {
				return nil, fmt.Errorf("%w: negative hypothetical frequency for %q+%q (%v, %v)",
					ErrInconsistentFrequency, r.Form, c.Form, cell.PredictedA, cell.PredictedB)
			}
			m.cells[i][j] = cell
			m.scores[i][j] = cellScores{
				frequency:      FrequencyScore(cell.Actual, m.total),
				length:         LengthScore(cell.Length),
				predictability: PredictabilityScore(cell.Actual, cell.Predicted()),
				similarity:     cell.Similarity,
			}
		}
	}
	return m, nil
}

// rowScores summarizes row i over the active columns.
func (m *compoundMatrix) rowScores(i int) AffixScores {
	s := AffixScores{Length: LengthScore(m.rows[i].Form.Len()), Similarity: m.rows[i].Similarity}
	n := 0
	for _, j := range m.colOrder {
		if m.cells[i][j] == nil {
			continue
		}
		s.Frequency += m.scores[i][j].frequency
		s.Predictability += m.scores[i][j].predictability
		n++
	}
	if n > 0 {
		s.Frequency /= float64(n)
		s.Predictability /= float64(n)
	}
	return s
}

// colScores summarizes column j over the active rows.
func (m *compoundMatrix) colScores(j int) AffixScores {
	s := AffixScores{Length: LengthScore(m.cols[j].Form.Len()), Similarity: m.cols[j].Similarity}
	n := 0
	for _, i := range m.rowOrder {
		if m.cells[i][j] == nil {
			continue
		}
		s.Frequency += m.scores[i][j].frequency
		s.Predictability += m.scores[i][j].predictability
		n++
	}
	if n > 0 {
		s.Frequency /= float64(n)
		s.Predictability /= float64(n)
	}
	return s
}

// reorder sorts the active rows and columns by mixed score, best first.
// Both orders are computed against the same active set before either changes.
func (m *compoundMatrix) reorder() {
	rowMix := make(map[int]float64, len(m.rowOrder))
	for _, i := range m.rowOrder {
		rowMix[i] = m.rowScores(i).Mixed()
	}
	colMix := make(map[int]float64, len(m.colOrder))
	for _, j := range m.colOrder {
		colMix[j] = m.colScores(j).Mixed()
	}
	sort.SliceStable(m.rowOrder, func(a, b int) bool {
		return rowMix[m.rowOrder[a]] > rowMix[m.rowOrder[b]]
	})
	sort.SliceStable(m.colOrder, func(a, b int) bool {
		return colMix[m.colOrder[a]] > colMix[m.colOrder[b]]
	})
}

// reduce keeps the first size rows and columns of the current order.
func (m *compoundMatrix) reduce(size int) {
	if len(m.rowOrder) > size {
		m.rowOrder = m.rowOrder[:size]
	}
	if len(m.colOrder) > size {
		m.colOrder = m.colOrder[:size]
	}
}

// populated counts the populated cells among the active rows and columns.
func (m *compoundMatrix) populated() int {
	n := 0
	for _, i := range m.rowOrder {
		for _, j := range m.colOrder {
			if m.cells[i][j] != nil {
				n++
			}
		}
	}
	return n
}

// affixLengthRange returns the shortest and longest form among the given positions.
func affixLengthRange(affixes []AffixInfo, order []int) (lo, hi int) {
	for k, i := range order {
		n := affixes[i].Form.Len()
		if k == 0 || n < lo {
			lo = n
		}
		if n > hi {
			hi = n
		}
	}
	return lo, hi
}
