package core

import "math"

// NormalizeVector normalizes a vector to unit length.
// Returns a new vector. If the input is a zero vector, returns a zero vector.
func NormalizeVector(v []float32) []float32 {
	if len(v) == 0 {
		return v
	}

	// Calculate magnitude
	var magnitude float32
	for _, val := range v {
		magnitude += val * val
	}
	magnitude = float32(math.Sqrt(float64(magnitude)))

	// Can't normalize zero vector
	if magnitude == 0 {
		result := make([]float32, len(v))
		return result
	}

	// Normalize
	result := make([]float32, len(v))
	for i, val := range v {
		result[i] = val / magnitude
	}
	return result
}

// Dot returns the inner product of two vectors of equal length.
// For unit vectors this equals their cosine similarity.
func Dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// IsNormalized reports whether v has unit length within tolerance.
func IsNormalized(v []float32) bool {
	if len(v) == 0 {
		return false
	}
	var sum float64
	for _, val := range v {
		sum += float64(val) * float64(val)
	}
	return math.Abs(math.Sqrt(sum)-1.0) < 1e-4
}

// WeightedAverage combines vectors with per-vector weights into one
// unit-normalized vector. Inputs must share a dimensionality; nil is
// returned when there is nothing to combine.
func WeightedAverage(vectors [][]float32, weights []float64) []float32 {
	if len(vectors) == 0 || len(vectors) != len(weights) {
		return nil
	}
	dims := len(vectors[0])
	sum := make([]float64, dims)
	var totalWeight float64
	for i, vec := range vectors {
		if len(vec) != dims {
			return nil
		}
		w := weights[i]
		for j, val := range vec {
			sum[j] += float64(val) * w
		}
		totalWeight += w
	}
	if totalWeight == 0 {
		return nil
	}
	combined := make([]float32, dims)
	for j, val := range sum {
		combined[j] = float32(val / totalWeight)
	}
	return NormalizeVector(combined)
}
