package cluster

import (
	"fmt"

	"github.com/uglyfeed/uglyfeed/pkg/uglyfeed/internalerr"
)

// DBSCAN groups documents that are density-reachable under cosine
// distance. A document is a core point when at least MinSamples
// documents, itself included, lie within Eps of it.
type DBSCAN struct {
	Eps        float64
	MinSamples int
}

// Cluster implements Clusterer.
func (d *DBSCAN) Cluster(in Input) ([]int, error) {
	if in.Similarity == nil {
		return nil, fmt.Errorf("%w: dbscan needs a similarity matrix", internalerr.ErrInvalidInput)
	}
	sim := in.Similarity
	n := sim.N()

	neighbors := make([][]int, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if sim.Distance(i, j) <= d.Eps {
				neighbors[i] = append(neighbors[i], j)
			}
		}
	}

	labels := make([]int, n)
	for i := range labels {
		labels[i] = Noise
	}

	cluster := 0
	for i := 0; i < n; i++ {
		if labels[i] != Noise || len(neighbors[i]) < d.MinSamples {
			continue
		}
		// expand from core point i
		labels[i] = cluster
		stack := []int{i}
		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if len(neighbors[p]) < d.MinSamples {
				continue
			}
			for _, q := range neighbors[p] {
				if labels[q] == Noise {
					labels[q] = cluster
					stack = append(stack, q)
				}
			}
		}
		cluster++
	}
	return Relabel(labels), nil
}
