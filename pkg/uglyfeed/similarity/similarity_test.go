package similarity

import (
	"math"
	"testing"

	"github.com/uglyfeed/uglyfeed/pkg/uglyfeed/vectorize"
)

func matrix(t *testing.T, docs ...string) *vectorize.Matrix {
	t.Helper()
	opts := vectorize.DefaultOptions()
	opts.MaxDF = vectorize.Fraction(1.0)
	m, err := vectorize.Vectorize(docs, opts)
	if err != nil {
		t.Fatalf("Vectorize: %v", err)
	}
	return m
}

func TestCosineSymmetricUnitDiagonal(t *testing.T) {
	m := matrix(t,
		"storm hit city flood street",
		"storm flood street city",
		"election result parliament",
		"",
	)
	sim := Cosine(m)

	if sim.N() != 4 {
		t.Fatalf("N = %d, want 4", sim.N())
	}
	for i := 0; i < sim.N(); i++ {
		if sim.At(i, i) != 1 {
			t.Errorf("diagonal (%d,%d) = %f, want 1", i, i, sim.At(i, i))
		}
		for j := 0; j < sim.N(); j++ {
			v := sim.At(i, j)
			if v < 0 || v > 1 {
				t.Errorf("(%d,%d) = %f out of [0,1]", i, j, v)
			}
			if v != sim.At(j, i) {
				t.Errorf("asymmetric at (%d,%d)", i, j)
			}
		}
	}

	if sim.At(0, 1) <= sim.At(0, 2) {
		t.Errorf("related documents should be more similar: %f vs %f", sim.At(0, 1), sim.At(0, 2))
	}
	if sim.At(0, 3) != 0 {
		t.Errorf("empty document similarity = %f, want 0", sim.At(0, 3))
	}
	if d := sim.Distance(0, 0); d != 0 {
		t.Errorf("self distance = %f, want 0", d)
	}
}

func TestCosineSmallInputs(t *testing.T) {
	empty := Cosine(&vectorize.Matrix{})
	if empty.N() != 0 || empty.Sym() != nil {
		t.Error("empty input should give an empty matrix")
	}

	one := Cosine(matrix(t, "lonely article"))
	if one.N() != 1 || one.At(0, 0) != 1 {
		t.Errorf("single document should give [[1]]")
	}
}

func TestCosineClampsNegative(t *testing.T) {
	m := &vectorize.Matrix{
		Cols: 2,
		Rows: []vectorize.Row{
			{Indices: []int{0}, Values: []float64{1}},
			{Indices: []int{0}, Values: []float64{-1}},
		},
	}
	sim := Cosine(m)
	if sim.At(0, 1) != 0 {
		t.Errorf("negative cosine should clamp to 0, got %f", sim.At(0, 1))
	}
	if sim.Distance(0, 1) != 1 {
		t.Errorf("distance = %f, want 1", sim.Distance(0, 1))
	}
}

func TestMeanPairwise(t *testing.T) {
	sim := FromValues([][]float64{
		{1, 0.8, 0.6},
		{0.8, 1, 0.4},
		{0.6, 0.4, 1},
	})
	got := sim.MeanPairwise([]int{0, 1, 2})
	if math.Abs(got-0.6) > 1e-12 {
		t.Errorf("MeanPairwise = %f, want 0.6", got)
	}
	if sim.MeanPairwise([]int{1}) != 0 {
		t.Error("singleton mean should be 0")
	}
}
