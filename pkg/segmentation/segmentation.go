// Package segmentation turns per-boundary segmentability into word segmentations.
package segmentation

import (
	"fmt"
	"strings"

	"github.com/bastiangx/substitus/pkg/atoms"
	"github.com/bastiangx/substitus/pkg/substitus"
)

// DefaultThreshold splits a boundary once its probability reaches one half.
const DefaultThreshold = 0.5

// ProbabilisticSegmentation holds a word and the probability of a morph
// boundary after each of its atoms but the last.
type ProbabilisticSegmentation struct {
	Atoms         atoms.Sequence
	Probabilities []float64
}

// NewProbabilistic checks that probs has exactly one entry per inner boundary.
func NewProbabilistic(seq atoms.Sequence, probs []float64) (*ProbabilisticSegmentation, error) {
	if want := boundaries(seq); len(probs) != want {
		return nil, fmt.Errorf("segmentation of %q needs %d probabilities, got %d", seq, want, len(probs))
	}
	return &ProbabilisticSegmentation{Atoms: seq, Probabilities: probs}, nil
}

func boundaries(seq atoms.Sequence) int {
	return max(seq.Len()-1, 0)
}

// Len returns the number of boundaries.
func (s *ProbabilisticSegmentation) Len() int {
	return len(s.Probabilities)
}

// Mean is the average boundary probability, 0 for words without boundaries.
func (s *ProbabilisticSegmentation) Mean() float64 {
	if len(s.Probabilities) == 0 {
		return 0
	}
	sum := 0.0
	for _, p := range s.Probabilities {
		sum += p
	}
	return sum / float64(len(s.Probabilities))
}

// Normalize returns a copy with every probability sharpened around mean.
func (s *ProbabilisticSegmentation) Normalize(mean float64) *ProbabilisticSegmentation {
	return s.mapProbabilities(func(p float64) float64 {
		return substitus.Normalize(p, mean)
	})
}

// BinarizeIf returns a copy where boundaries satisfying pred become 1 and the rest 0.
func (s *ProbabilisticSegmentation) BinarizeIf(pred func(float64) bool) *ProbabilisticSegmentation {
	return s.mapProbabilities(func(p float64) float64 {
		if pred(p) {
			return 1
		}
		return 0
	})
}

// AtLeast is the usual BinarizeIf predicate.
func AtLeast(threshold float64) func(float64) bool {
	return func(p float64) bool { return p >= threshold }
}

func (s *ProbabilisticSegmentation) mapProbabilities(fn func(float64) float64) *ProbabilisticSegmentation {
	out := make([]float64, len(s.Probabilities))
	for i, p := range s.Probabilities {
		out[i] = fn(p)
	}
	return &ProbabilisticSegmentation{Atoms: s.Atoms, Probabilities: out}
}

// Boundaries reports which positions reach threshold.
func (s *ProbabilisticSegmentation) Boundaries(threshold float64) []bool {
	out := make([]bool, len(s.Probabilities))
	for i, p := range s.Probabilities {
		out[i] = p >= threshold
	}
	return out
}

// Morphs splits the word at every boundary reaching threshold.
func (s *ProbabilisticSegmentation) Morphs(threshold float64) []atoms.Sequence {
	as := s.Atoms.Atoms()
	if len(as) == 0 {
		return nil
	}
	var morphs []atoms.Sequence
	start := 0
	for i, p := range s.Probabilities {
		if p >= threshold {
			morphs = append(morphs, atoms.FromAtoms(as[start:i+1]))
			start = i + 1
		}
	}
	return append(morphs, atoms.FromAtoms(as[start:]))
}

// Segmented joins the morphs with sep.
func (s *ProbabilisticSegmentation) Segmented(threshold float64, sep string) string {
	return atoms.Join(s.Morphs(threshold), sep)
}

// String interleaves atoms and boundary probabilities, e.g. "c .00 a .01 t .83 s".
func (s *ProbabilisticSegmentation) String() string {
	var b strings.Builder
	for i, a := range s.Atoms.Atoms() {
		if i > 0 {
			fmt.Fprintf(&b, " %s ", strings.TrimPrefix(fmt.Sprintf("%.2f", s.Probabilities[i-1]), "0"))
		}
		b.WriteRune(a)
	}
	return b.String()
}
