package substitus

import "math"

// FrequencyScore maps a compound frequency to [0,1) via its per-million share.
// It is non-decreasing in actual.
func FrequencyScore(actual float64, total int64) float64 {
	if total <= 0 || actual <= 0 {
		return 0
	}
	ppm := actual * 1e6 / float64(total)
	return ppm / (ppm + FrequencyScoreHalfPoint)
}

// LengthScore favors longer, more specific material: 1 - 1/(2+n).
func LengthScore(n int) float64 {
	return 1 - 1/(2+float64(n))
}

// PredictabilityScore is 1 when actual equals predicted and decays with their ratio.
func PredictabilityScore(actual, predicted float64) float64 {
	if actual <= 0 || predicted <= 0 {
		return 0
	}
	share := math.Max(actual/predicted, predicted/actual)
	return 1 / (1 + PredictabilityDamping*math.Sqrt(share-1))
}

// Similarity is 1 - angle(a,b)/90°, and 0 when either vector is all zero.
func Similarity(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	cos := dot / (math.Sqrt(na) * math.Sqrt(nb))
	cos = math.Max(-1, math.Min(1, cos))
	angle := math.Acos(cos) * 180 / math.Pi
	return 1 - angle/90
}

// Normalize sharpens a raw probability around mean: (tanh(25(p-mean))+1)/2.
func Normalize(p, mean float64) float64 {
	return (math.Tanh(NormalizationSteepness*(p-mean)) + 1) / 2
}

func geometricMean(xs ...float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	prod := 1.0
	for _, x := range xs {
		if x <= 0 {
			return 0
		}
		prod *= x
	}
	return math.Pow(prod, 1/float64(len(xs)))
}

func arithmeticMean2(a, b float64) float64 { return (a + b) / 2 }

func geometricMean2(a, b float64) float64 { return geometricMean(a, b) }

func harmonicMean2(a, b float64) float64 {
	if a+b == 0 {
		return 0
	}
	return 2 * a * b / (a + b)
}

func quadraticMean2(a, b float64) float64 { return math.Sqrt((a*a + b*b) / 2) }

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}
