package substitus

import (
	"fmt"
	"sort"
)

// Empirically tuned constants. They are kept exactly for compatibility with
// published results; treat them as tunables, not as part of the algorithm.
const (
	// FrequencyScoreHalfPoint is the per-million frequency at which the frequency score reaches 0.5.
	FrequencyScoreHalfPoint = 10.0
	// PredictabilityDamping scales the square root of the actual/predicted share.
	PredictabilityDamping = 0.1
	// LengthFusionWeight and MixedFusionWeight weight the two terms of the final mean.
	LengthFusionWeight = 3
	MixedFusionWeight  = 1
	// NormalizationSteepness is the tanh gain used by Normalize.
	NormalizationSteepness = 25.0
)

// BoundaryPolicy decides whether alternatives sharing the atom next to the boundary are kept.
type BoundaryPolicy int

const (
	// ExcludeSameBoundaryAtom drops alternatives whose boundary atom equals the tested affix's.
	ExcludeSameBoundaryAtom BoundaryPolicy = iota
	// AllowSameBoundaryAtom keeps every alternative.
	AllowSameBoundaryAtom
)

func (p BoundaryPolicy) String() string {
	switch p {
	case ExcludeSameBoundaryAtom:
		return "exclude"
	case AllowSameBoundaryAtom:
		return "allow"
	default:
		return fmt.Sprintf("BoundaryPolicy(%d)", int(p))
	}
}

// ParseBoundaryPolicy maps "exclude"/"allow" to a policy.
func ParseBoundaryPolicy(s string) (BoundaryPolicy, error) {
	switch s {
	case "exclude", "":
		return ExcludeSameBoundaryAtom, nil
	case "allow":
		return AllowSameBoundaryAtom, nil
	default:
		return 0, fmt.Errorf("%w: unknown boundary policy %q", ErrInvalidOptions, s)
	}
}

// Options are the engine tunables.
type Options struct {
	// MinCompoundFrequency is the floor of the adaptive frequency threshold.
	MinCompoundFrequency int64
	// KMostFrequent bounds how many alternatives each search returns.
	KMostFrequent int
	// SquareSize is the side of the reduced compound matrix.
	SquareSize int
	BoundaryPolicy BoundaryPolicy
	// NeighborhoodSizes select the running averages exported as features.
	NeighborhoodSizes []int
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		MinCompoundFrequency: 1,
		KMostFrequent:        64,
		SquareSize:           8,
		BoundaryPolicy:       ExcludeSameBoundaryAtom,
		NeighborhoodSizes:    []int{1, 2, 4, 8, 16},
	}
}

// Validate rejects non-positive tunables.
func (o Options) Validate() error {
	if o.MinCompoundFrequency < 1 {
		return fmt.Errorf("%w: min compound frequency %d < 1", ErrInvalidOptions, o.MinCompoundFrequency)
	}
	if o.KMostFrequent < 1 {
		return fmt.Errorf("%w: k most frequent %d < 1", ErrInvalidOptions, o.KMostFrequent)
	}
	if o.SquareSize < 1 {
		return fmt.Errorf("%w: square size %d < 1", ErrInvalidOptions, o.SquareSize)
	}
	for _, n := range o.NeighborhoodSizes {
		if n < 1 {
			return fmt.Errorf("%w: neighborhood size %d < 1", ErrInvalidOptions, n)
		}
	}
	if o.BoundaryPolicy != ExcludeSameBoundaryAtom && o.BoundaryPolicy != AllowSameBoundaryAtom {
		return fmt.Errorf("%w: %v", ErrInvalidOptions, o.BoundaryPolicy)
	}
	return nil
}

// neighborhoods returns the sorted, de-duplicated sizes not larger than the
// square, always including the square size itself.
func (o Options) neighborhoods() []int {
	seen := map[int]bool{o.SquareSize: true}
	out := []int{o.SquareSize}
	for _, n := range o.NeighborhoodSizes {
		if n <= o.SquareSize && !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	sort.Ints(out)
	return out
}
