package vectorize

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Row is a sparse feature vector. Indices are strictly increasing.
type Row struct {
	Indices []int
	Values  []float64
}

// Len returns the number of stored entries.
func (r Row) Len() int { return len(r.Indices) }

// Norm returns the euclidean norm of the row.
func (r Row) Norm() float64 {
	var sum float64
	for _, v := range r.Values {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// Dot returns the inner product of two rows.
func (r Row) Dot(o Row) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(r.Indices) && j < len(o.Indices) {
		switch {
		case r.Indices[i] == o.Indices[j]:
			sum += r.Values[i] * o.Values[j]
			i++
			j++
		case r.Indices[i] < o.Indices[j]:
			i++
		default:
			j++
		}
	}
	return sum
}

// Matrix holds one sparse row per document.
type Matrix struct {
	Rows []Row
	// Cols is the width of the feature space: vocabulary size for
	// tfidf and count, n_features for hashing.
	Cols int
	// Vocabulary maps column index to term. Nil for hashing.
	Vocabulary []string
}

// N returns the number of documents.
func (m *Matrix) N() int { return len(m.Rows) }

// Empty reports whether the feature space has no columns or no row
// holds a single non-zero value.
func (m *Matrix) Empty() bool {
	if m.Cols == 0 {
		return true
	}
	for _, r := range m.Rows {
		if r.Len() > 0 {
			return false
		}
	}
	return true
}

// ActiveColumns returns the sorted set of columns that hold a value in
// at least one row.
func (m *Matrix) ActiveColumns() []int {
	seen := make(map[int]struct{})
	for _, r := range m.Rows {
		for _, c := range r.Indices {
			seen[c] = struct{}{}
		}
	}
	cols := make([]int, 0, len(seen))
	for c := range seen {
		cols = append(cols, c)
	}
	sort.Ints(cols)
	return cols
}

// Dense returns the rows as a dense N×k matrix over the active columns
// only. Dropping all-zero columns leaves euclidean distances and dot
// products unchanged. It returns nil when there are no rows or no
// active columns.
func (m *Matrix) Dense() *mat.Dense {
	cols := m.ActiveColumns()
	if len(m.Rows) == 0 || len(cols) == 0 {
		return nil
	}
	pos := make(map[int]int, len(cols))
	for i, c := range cols {
		pos[c] = i
	}
	d := mat.NewDense(len(m.Rows), len(cols), nil)
	for i, r := range m.Rows {
		for k, c := range r.Indices {
			d.Set(i, pos[c], r.Values[k])
		}
	}
	return d
}

// normalize scales a row to unit euclidean norm. Zero rows stay zero.
func normalize(r Row) Row {
	n := r.Norm()
	if n == 0 {
		return r
	}
	for i := range r.Values {
		r.Values[i] /= n
	}
	return r
}

// rowFromCounts builds a sparse row from column counts.
func rowFromCounts(counts map[int]float64) Row {
	idx := make([]int, 0, len(counts))
	for c, v := range counts {
		if v != 0 {
			idx = append(idx, c)
		}
	}
	sort.Ints(idx)
	vals := make([]float64, len(idx))
	for i, c := range idx {
		vals[i] = counts[c]
	}
	return Row{Indices: idx, Values: vals}
}
