// Package cluster assigns a label to every document of a batch.
//
// Labels are renumbered in order of first appearance by document index,
// so the first document always carries label 0 unless it is noise.
package cluster

import (
	"fmt"

	"github.com/uglyfeed/uglyfeed/pkg/uglyfeed/internalerr"
	"github.com/uglyfeed/uglyfeed/pkg/uglyfeed/similarity"
	"github.com/uglyfeed/uglyfeed/pkg/uglyfeed/vectorize"
)

// Noise labels documents that belong to no cluster.
const Noise = -1

// Method selects the clustering algorithm.
type Method string

const (
	MethodDBSCAN        Method = "dbscan"
	MethodKMeans        Method = "kmeans"
	MethodAgglomerative Method = "agglomerative"
)

// Linkage selects how agglomerative clustering measures the distance
// between two clusters.
type Linkage string

const (
	LinkageAverage  Linkage = "average"
	LinkageComplete Linkage = "complete"
	LinkageSingle   Linkage = "single"
	LinkageWard     Linkage = "ward"
)

// Input carries both views of a batch. Density and linkage methods read
// the similarity matrix; k-means and ward read the feature vectors.
type Input struct {
	Similarity *similarity.Matrix
	Features   *vectorize.Matrix
}

func (in Input) n() int {
	if in.Similarity != nil {
		return in.Similarity.N()
	}
	if in.Features != nil {
		return in.Features.N()
	}
	return 0
}

// Clusterer labels the documents of a batch. The result has one label
// per document.
type Clusterer interface {
	Cluster(in Input) ([]int, error)
}

// Options configures a clusterer. Pointer fields are optional; which
// ones are required depends on Method.
type Options struct {
	Method            Method
	Eps               *float64
	MinSamples        *int
	NClusters         *int
	Linkage           Linkage
	DistanceThreshold *float64
	// RandomState seeds k-means initialisation.
	RandomState int64
}

// New validates opts and returns the matching clusterer. All parameter
// errors surface here, before any document is looked at.
func New(opts Options) (Clusterer, error) {
	switch opts.Method {
	case MethodDBSCAN:
		if opts.Eps == nil || opts.MinSamples == nil {
			return nil, fmt.Errorf("%w: dbscan requires eps and min_samples", internalerr.ErrInvalidConfig)
		}
		if *opts.Eps <= 0 {
			return nil, fmt.Errorf("%w: eps must be positive, got %g", internalerr.ErrInvalidConfig, *opts.Eps)
		}
		if *opts.MinSamples < 1 {
			return nil, fmt.Errorf("%w: min_samples must be at least 1, got %d", internalerr.ErrInvalidConfig, *opts.MinSamples)
		}
		return &DBSCAN{Eps: *opts.Eps, MinSamples: *opts.MinSamples}, nil

	case MethodKMeans:
		if opts.NClusters == nil {
			return nil, fmt.Errorf("%w: kmeans requires n_clusters", internalerr.ErrInvalidConfig)
		}
		if *opts.NClusters < 1 {
			return nil, fmt.Errorf("%w: n_clusters must be at least 1, got %d", internalerr.ErrInvalidConfig, *opts.NClusters)
		}
		return &KMeans{K: *opts.NClusters, Seed: opts.RandomState}, nil

	case MethodAgglomerative:
		linkage := opts.Linkage
		if linkage == "" {
			linkage = LinkageAverage
		}
		switch linkage {
		case LinkageAverage, LinkageComplete, LinkageSingle, LinkageWard:
		default:
			return nil, fmt.Errorf("%w: unsupported linkage %q", internalerr.ErrInvalidConfig, linkage)
		}
		a := &Agglomerative{Linkage: linkage}
		switch {
		case opts.NClusters != nil && opts.DistanceThreshold != nil:
			return nil, fmt.Errorf("%w: set exactly one of n_clusters and distance_threshold", internalerr.ErrInvalidConfig)
		case opts.NClusters != nil:
			if *opts.NClusters < 1 {
				return nil, fmt.Errorf("%w: n_clusters must be at least 1, got %d", internalerr.ErrInvalidConfig, *opts.NClusters)
			}
			a.NClusters = *opts.NClusters
		case opts.DistanceThreshold != nil:
			if linkage == LinkageWard {
				return nil, fmt.Errorf("%w: ward linkage cannot cut at a cosine distance threshold", internalerr.ErrInvalidConfig)
			}
			if *opts.DistanceThreshold < 0 {
				return nil, fmt.Errorf("%w: distance_threshold must not be negative", internalerr.ErrInvalidConfig)
			}
			a.Threshold = *opts.DistanceThreshold
			a.UseThreshold = true
		default:
			return nil, fmt.Errorf("%w: agglomerative requires n_clusters or distance_threshold", internalerr.ErrInvalidConfig)
		}
		return a, nil

	default:
		return nil, fmt.Errorf("%w: unsupported clustering method %q", internalerr.ErrInvalidConfig, opts.Method)
	}
}

// Relabel renumbers labels in order of first appearance. Noise stays
// Noise.
func Relabel(labels []int) []int {
	next := 0
	seen := make(map[int]int)
	out := make([]int, len(labels))
	for i, l := range labels {
		if l == Noise {
			out[i] = Noise
			continue
		}
		id, ok := seen[l]
		if !ok {
			id = next
			seen[l] = id
			next++
		}
		out[i] = id
	}
	return out
}
