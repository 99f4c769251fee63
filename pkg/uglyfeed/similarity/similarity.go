// Package similarity computes pairwise cosine similarity between
// feature vectors.
package similarity

import (
	"gonum.org/v1/gonum/mat"

	"github.com/uglyfeed/uglyfeed/pkg/uglyfeed/vectorize"
)

// Matrix is a symmetric N×N similarity matrix with values in [0, 1] and
// a unit diagonal.
type Matrix struct {
	n   int
	sym *mat.SymDense // nil when n == 0
}

// Cosine computes cosine similarity between every pair of rows.
// Zero rows are similar to nothing but themselves.
func Cosine(m *vectorize.Matrix) *Matrix {
	n := m.N()
	if n == 0 {
		return &Matrix{}
	}

	norms := make([]float64, n)
	for i, r := range m.Rows {
		norms[i] = r.Norm()
	}

	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		sym.SetSym(i, i, 1)
		for j := i + 1; j < n; j++ {
			var s float64
			if norms[i] > 0 && norms[j] > 0 {
				s = m.Rows[i].Dot(m.Rows[j]) / (norms[i] * norms[j])
			}
			sym.SetSym(i, j, clamp(s))
		}
	}
	return &Matrix{n: n, sym: sym}
}

// FromValues builds a matrix from a full N×N slice. Only the upper
// triangle is read; the diagonal is forced to 1.
func FromValues(values [][]float64) *Matrix {
	n := len(values)
	if n == 0 {
		return &Matrix{}
	}
	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		sym.SetSym(i, i, 1)
		for j := i + 1; j < n; j++ {
			sym.SetSym(i, j, clamp(values[i][j]))
		}
	}
	return &Matrix{n: n, sym: sym}
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// N returns the matrix dimension.
func (s *Matrix) N() int { return s.n }

// At returns the similarity of documents i and j.
func (s *Matrix) At(i, j int) float64 {
	return s.sym.At(i, j)
}

// Distance returns the cosine distance max(1 - similarity, 0).
func (s *Matrix) Distance(i, j int) float64 {
	d := 1 - s.At(i, j)
	if d < 0 {
		return 0
	}
	return d
}

// Sym exposes the underlying gonum matrix. It is nil for N == 0.
func (s *Matrix) Sym() *mat.SymDense { return s.sym }

// MeanPairwise returns the mean similarity over ordered pairs of
// distinct members. Groups with fewer than two members score 0.
func (s *Matrix) MeanPairwise(members []int) float64 {
	if len(members) < 2 {
		return 0
	}
	var sum float64
	for a, i := range members {
		for b, j := range members {
			if a != b {
				sum += s.At(i, j)
			}
		}
	}
	k := float64(len(members))
	return sum / (k * (k - 1))
}
