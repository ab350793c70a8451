// Package vectormath implements the small amount of linear algebra the
// retrieval layer needs. Vectors are []float32 as produced by embedding
// providers; scores and intermediate sums are float64.
package vectormath

import (
	"math"
	"sort"

	"github.com/veleda/ansuz/internal/apperr"
)

// Dot returns the dot product of a and b.
func Dot(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, apperr.ErrDimensionMismatch
	}
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum, nil
}

// Magnitude returns the Euclidean norm of v.
func Magnitude(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// CosineSimilarity returns the cosine of the angle between a and b.
// If either vector has zero magnitude the similarity is 0.
func CosineSimilarity(a, b []float32) (float64, error) {
	dot, err := Dot(a, b)
	if err != nil {
		return 0, err
	}
	ma, mb := Magnitude(a), Magnitude(b)
	if ma == 0 || mb == 0 {
		return 0, nil
	}
	return dot / (ma * mb), nil
}

// Normalize returns a unit-length copy of v. A zero vector is returned
// as a zero vector of the same length.
func Normalize(v []float32) []float32 {
	out := make([]float32, len(v))
	m := Magnitude(v)
	if m == 0 {
		return out
	}
	for i, x := range v {
		out[i] = float32(float64(x) / m)
	}
	return out
}

// TopKIndices returns the indices of the k highest scores in descending
// order. Ties keep their original relative order. k larger than
// len(scores) returns every index.
func TopKIndices(scores []float64, k int) []int {
	if k > len(scores) {
		k = len(scores)
	}
	if k < 0 {
		k = 0
	}
	idx := make([]int, len(scores))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return scores[idx[i]] > scores[idx[j]]
	})
	return idx[:k]
}
