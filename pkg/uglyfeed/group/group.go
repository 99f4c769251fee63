// Package group turns cluster labels into article groups.
package group

import (
	"crypto/rand"
	"fmt"

	"github.com/oklog/ulid/v2"

	"github.com/uglyfeed/uglyfeed/pkg/uglyfeed/article"
	"github.com/uglyfeed/uglyfeed/pkg/uglyfeed/cluster"
	"github.com/uglyfeed/uglyfeed/pkg/uglyfeed/internalerr"
	"github.com/uglyfeed/uglyfeed/pkg/uglyfeed/similarity"
)

// DefaultMinSize is the smallest group kept by default.
const DefaultMinSize = 2

// Group is a set of articles believed to cover the same event
type Group struct {
	ID                string
	Label             int
	Indices           []int // positions in the input batch, ascending
	Articles          []article.Article
	AverageSimilarity float64
}

// Size returns the number of articles in the group.
func (g Group) Size() int { return len(g.Articles) }

// Aggregator builds groups from labels
type Aggregator struct {
	entropy *ulid.MonotonicEntropy
	minSize int
}

// New creates an aggregator that drops groups with fewer than minSize
// articles. Values below 1 fall back to DefaultMinSize.
func New(minSize int) *Aggregator {
	if minSize < 1 {
		minSize = DefaultMinSize
	}
	return &Aggregator{
		entropy: ulid.Monotonic(rand.Reader, 0),
		minSize: minSize,
	}
}

// Aggregate collects articles sharing a label. Groups come out in order
// of first appearance of their label; noise is skipped.
func (a *Aggregator) Aggregate(articles []article.Article, labels []int, sim *similarity.Matrix) ([]Group, error) {
	if len(labels) != len(articles) {
		return nil, fmt.Errorf("%w: %d labels for %d articles", internalerr.ErrInvalidInput, len(labels), len(articles))
	}
	if sim != nil && sim.N() != len(articles) {
		return nil, fmt.Errorf("%w: %d×%d similarity matrix for %d articles", internalerr.ErrInvalidInput, sim.N(), sim.N(), len(articles))
	}

	var order []int
	members := make(map[int][]int)
	for i, l := range labels {
		if l == cluster.Noise {
			continue
		}
		if _, ok := members[l]; !ok {
			order = append(order, l)
		}
		members[l] = append(members[l], i)
	}

	groups := make([]Group, 0, len(order))
	for _, l := range order {
		idx := members[l]
		if len(idx) < a.minSize {
			continue
		}
		g := Group{
			ID:       ulid.MustNew(ulid.Now(), a.entropy).String(),
			Label:    l,
			Indices:  idx,
			Articles: make([]article.Article, 0, len(idx)),
		}
		for _, i := range idx {
			g.Articles = append(g.Articles, articles[i])
		}
		if sim != nil {
			g.AverageSimilarity = sim.MeanPairwise(idx)
		}
		groups = append(groups, g)
	}
	return groups, nil
}
