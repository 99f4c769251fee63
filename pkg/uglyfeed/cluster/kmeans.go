package cluster

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/uglyfeed/uglyfeed/pkg/uglyfeed/internalerr"
)

const (
	kmeansMaxIter = 300
	kmeansTol     = 1e-4
	kmeansNInit   = 10
)

// KMeans partitions documents into exactly K clusters by euclidean
// distance over their feature vectors. Initialisation is k-means++
// seeded with Seed, so equal inputs give equal labels. The best of
// several restarts, by inertia, is kept.
type KMeans struct {
	K    int
	Seed int64
}

// Cluster implements Clusterer.
func (k *KMeans) Cluster(in Input) ([]int, error) {
	if in.Features == nil {
		return nil, fmt.Errorf("%w: kmeans needs feature vectors", internalerr.ErrInvalidInput)
	}
	n := in.Features.N()
	if n == 0 {
		return []int{}, nil
	}
	if k.K > n {
		return nil, fmt.Errorf("%w: n_clusters=%d exceeds %d documents", internalerr.ErrInsufficientData, k.K, n)
	}
	x := in.Features.Dense()
	if x == nil {
		return nil, fmt.Errorf("%w: no features to cluster", internalerr.ErrEmptyVocabulary)
	}

	rng := rand.New(rand.NewSource(k.Seed))
	var (
		best        []int
		bestInertia = math.Inf(1)
	)
	for run := 0; run < kmeansNInit; run++ {
		labels, inertia := k.lloyd(x, k.seed(x, rng))
		if inertia < bestInertia {
			best, bestInertia = labels, inertia
		}
	}
	return Relabel(best), nil
}

// lloyd refines centroids until they settle and returns the labels with
// their inertia.
func (k *KMeans) lloyd(x, centroids *mat.Dense) ([]int, float64) {
	n, _ := x.Dims()
	labels := make([]int, n)
	for iter := 0; iter < kmeansMaxIter; iter++ {
		assign(x, centroids, labels)
		k.fillEmpty(x, centroids, labels)
		shift := update(x, centroids, labels)
		if shift <= kmeansTol {
			break
		}
	}
	assign(x, centroids, labels)
	k.fillEmpty(x, centroids, labels)

	var inertia float64
	for i, l := range labels {
		inertia += sqDist(x.RawRowView(i), centroids.RawRowView(l))
	}
	return labels, inertia
}

// seed picks K initial centroids with k-means++.
func (k *KMeans) seed(x *mat.Dense, rng *rand.Rand) *mat.Dense {
	n, d := x.Dims()
	c := mat.NewDense(k.K, d, nil)
	c.SetRow(0, x.RawRowView(rng.Intn(n)))

	dist := make([]float64, n)
	for i := range dist {
		dist[i] = math.Inf(1)
	}
	for j := 1; j < k.K; j++ {
		last := c.RawRowView(j - 1)
		for i := 0; i < n; i++ {
			if dd := sqDist(x.RawRowView(i), last); dd < dist[i] {
				dist[i] = dd
			}
		}
		total := floats.Sum(dist)
		pick := 0
		if total > 0 {
			r := rng.Float64() * total
			for i, dd := range dist {
				if dd == 0 {
					continue
				}
				pick = i
				r -= dd
				if r <= 0 {
					break
				}
			}
		} else {
			pick = rng.Intn(n)
		}
		c.SetRow(j, x.RawRowView(pick))
	}
	return c
}

// assign sets each label to the nearest centroid. Ties go to the lower
// centroid index.
func assign(x, centroids *mat.Dense, labels []int) {
	n, _ := x.Dims()
	k, _ := centroids.Dims()
	for i := 0; i < n; i++ {
		row := x.RawRowView(i)
		best, bestD := 0, math.Inf(1)
		for j := 0; j < k; j++ {
			if dd := sqDist(row, centroids.RawRowView(j)); dd < bestD {
				best, bestD = j, dd
			}
		}
		labels[i] = best
	}
}

// fillEmpty moves the point farthest from its centroid into every
// cluster left without members, so all K labels stay in use.
func (k *KMeans) fillEmpty(x, centroids *mat.Dense, labels []int) {
	n, _ := x.Dims()
	for {
		sizes := make([]int, k.K)
		for _, l := range labels {
			sizes[l]++
		}
		empty := -1
		for j, s := range sizes {
			if s == 0 {
				empty = j
				break
			}
		}
		if empty < 0 {
			return
		}
		far, farD := -1, -1.0
		for i := 0; i < n; i++ {
			if sizes[labels[i]] < 2 {
				continue
			}
			if dd := sqDist(x.RawRowView(i), centroids.RawRowView(labels[i])); dd > farD {
				far, farD = i, dd
			}
		}
		if far < 0 {
			return
		}
		labels[far] = empty
		centroids.SetRow(empty, x.RawRowView(far))
	}
}

// update moves centroids to the mean of their members and returns the
// total squared shift.
func update(x, centroids *mat.Dense, labels []int) float64 {
	k, d := centroids.Dims()
	sums := mat.NewDense(k, d, nil)
	counts := make([]float64, k)
	for i, l := range labels {
		floats.Add(sums.RawRowView(l), x.RawRowView(i))
		counts[l]++
	}
	var shift float64
	for j := 0; j < k; j++ {
		if counts[j] == 0 {
			continue
		}
		row := sums.RawRowView(j)
		floats.Scale(1/counts[j], row)
		shift += sqDist(row, centroids.RawRowView(j))
		centroids.SetRow(j, row)
	}
	return shift
}

func sqDist(a, b []float64) float64 {
	var s float64
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return s
}
