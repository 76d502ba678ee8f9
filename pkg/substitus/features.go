package substitus

import "fmt"

type family int

const (
	familyFrequency family = iota
	familyLength
	familyPredictability
	familySimilarity
	familyMixed
	numFamilies
)

var familyNames = [numFamilies]string{"frequency", "length", "predictability", "similarity", "mixed"}

// combiner is one named way of merging two scores into a pairwise attribute.
type combiner struct {
	name string
	fn   func(a, b float64) float64
}

var combiners = []combiner{
	{"arith", arithmeticMean2},
	{"geo", geometricMean2},
	{"harm", harmonicMean2},
	{"quad", quadraticMean2},
}

// aggregate holds the running means of every family over growing top-left
// neighborhoods of the final square, and the means over the whole matrix.
type aggregate struct {
	avg        [numFamilies][]float64 // avg[f][t], t = 1..square
	count      []int                  // populated cells within t x t
	total      [numFamilies]float64
	totalCount int
}

func newAggregate(square int) *aggregate {
	a := &aggregate{count: make([]int, square+1)}
	for f := range a.avg {
		a.avg[f] = make([]float64, square+1)
	}
	return a
}

// accumulateTotals averages every family over all populated active cells.
func (a *aggregate) accumulateTotals(m *compoundMatrix) {
	var sums [numFamilies]float64
	n := 0
	for _, i := range m.rowOrder {
		for _, j := range m.colOrder {
			if m.cells[i][j] == nil {
				continue
			}
			for f := family(0); f < numFamilies; f++ {
				sums[f] += m.scores[i][j].family(f)
			}
			n++
		}
	}
	a.totalCount = n
	if n == 0 {
		return
	}
	for f := range sums {
		a.total[f] = sums[f] / float64(n)
	}
}

// accumulateNeighborhoods fills avg for t = 1..square over the ordered active cells.
// A cell at ordered position (r, c) belongs to every neighborhood t > max(r, c).
func (a *aggregate) accumulateNeighborhoods(m *compoundMatrix, square int) {
	var sums [numFamilies][]float64
	for f := range sums {
		sums[f] = make([]float64, square+1)
	}
	counts := make([]int, square+1)
	for r, i := range m.rowOrder {
		for c, j := range m.colOrder {
			if m.cells[i][j] == nil {
				continue
			}
			level := max(r, c) + 1
			for f := family(0); f < numFamilies; f++ {
				sums[f][level] += m.scores[i][j].family(f)
			}
			counts[level]++
		}
	}

	var running [numFamilies]float64
	n := 0
	for t := 1; t <= square; t++ {
		n += counts[t]
		a.count[t] = n
		for f := family(0); f < numFamilies; f++ {
			running[f] += sums[f][t]
			if n > 0 {
				a.avg[f][t] = running[f] / float64(n)
			}
		}
	}
}

// featureNames lists the attribute names in vector order for the given options.
// The list only depends on SquareSize and NeighborhoodSizes.
func featureNames(o Options) []string {
	sizes := o.neighborhoods()
	names := []string{"segmentability"}
	for f := family(0); f < numFamilies; f++ {
		for _, t := range sizes {
			names = append(names, fmt.Sprintf("%sAvg%d", familyNames[f], t))
		}
	}
	for f := family(0); f < numFamilies; f++ {
		names = append(names, familyNames[f]+"Total")
	}
	names = append(names, "cellCount", "cellCountTotal")
	for f := family(0); f < numFamilies; f++ {
		for g := f + 1; g < numFamilies; g++ {
			for _, c := range combiners {
				names = append(names, fmt.Sprintf("%s_%s_%s", familyNames[f], familyNames[g], c.name))
			}
		}
	}
	return append(names,
		"prefixLength", "suffixLength",
		"minAltPrefixLength", "maxAltPrefixLength",
		"minAltSuffixLength", "maxAltSuffixLength",
	)
}

type lengths struct {
	prefix, suffix             int
	minAltPrefix, maxAltPrefix int
	minAltSuffix, maxAltSuffix int
}

// featureVector renders the values in featureNames order.
func featureVector(o Options, seg float64, a *aggregate, l lengths) []float64 {
	sizes := o.neighborhoods()
	sq := o.SquareSize
	v := make([]float64, 0, 1+int(numFamilies)*(len(sizes)+1)+2+10*len(combiners)+6)
	v = append(v, seg)
	for f := family(0); f < numFamilies; f++ {
		for _, t := range sizes {
			v = append(v, a.avg[f][t])
		}
	}
	for f := family(0); f < numFamilies; f++ {
		v = append(v, a.total[f])
	}
	v = append(v, float64(a.count[sq]), float64(a.totalCount))
	for f := family(0); f < numFamilies; f++ {
		for g := f + 1; g < numFamilies; g++ {
			for _, c := range combiners {
				v = append(v, c.fn(a.avg[f][sq], a.avg[g][sq]))
			}
		}
	}
	return append(v,
		float64(l.prefix), float64(l.suffix),
		float64(l.minAltPrefix), float64(l.maxAltPrefix),
		float64(l.minAltSuffix), float64(l.maxAltSuffix),
	)
}
