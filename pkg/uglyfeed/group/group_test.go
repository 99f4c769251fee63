package group

import (
	"errors"
	"math"
	"testing"

	"github.com/uglyfeed/uglyfeed/pkg/uglyfeed/article"
	"github.com/uglyfeed/uglyfeed/pkg/uglyfeed/cluster"
	"github.com/uglyfeed/uglyfeed/pkg/uglyfeed/internalerr"
	"github.com/uglyfeed/uglyfeed/pkg/uglyfeed/similarity"
)

func batch(n int) []article.Article {
	out := make([]article.Article, n)
	for i := range out {
		out[i] = article.Article{Title: string(rune('A' + i))}
	}
	return out
}

func TestAggregateOrderAndScores(t *testing.T) {
	sim := similarity.FromValues([][]float64{
		{1, 0.2, 0.8, 0.1, 0.3},
		{0.2, 1, 0.1, 0.6, 0.0},
		{0.8, 0.1, 1, 0.2, 0.4},
		{0.1, 0.6, 0.2, 1, 0.0},
		{0.3, 0.0, 0.4, 0.0, 1},
	})
	labels := []int{1, 0, 1, 0, cluster.Noise}

	groups, err := New(2).Aggregate(batch(5), labels, sim)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}

	// label 1 appears first (index 0)
	if groups[0].Label != 1 || groups[0].Articles[0].Title != "A" || groups[0].Articles[1].Title != "C" {
		t.Errorf("first group = %+v", groups[0])
	}
	if math.Abs(groups[0].AverageSimilarity-0.8) > 1e-12 {
		t.Errorf("first group similarity = %f, want 0.8", groups[0].AverageSimilarity)
	}
	if math.Abs(groups[1].AverageSimilarity-0.6) > 1e-12 {
		t.Errorf("second group similarity = %f, want 0.6", groups[1].AverageSimilarity)
	}
	if groups[0].ID == "" || groups[0].ID == groups[1].ID {
		t.Errorf("groups need distinct IDs: %q %q", groups[0].ID, groups[1].ID)
	}
}

func TestAggregateDropsSmallGroups(t *testing.T) {
	labels := []int{0, 1, 1, 2, 2, 2}
	sim := similarity.FromValues(make6(0.5))

	groups, err := New(3).Aggregate(batch(6), labels, sim)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(groups) != 1 || groups[0].Size() != 3 {
		t.Fatalf("expected one group of 3, got %+v", groups)
	}

	groups, _ = New(0).Aggregate(batch(6), labels, sim)
	if len(groups) != 2 {
		t.Errorf("default min size should keep pairs, got %d groups", len(groups))
	}
}

func TestAggregateAllNoiseOrSingletons(t *testing.T) {
	groups, err := New(2).Aggregate(batch(3), []int{cluster.Noise, 0, 1}, nil)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(groups) != 0 {
		t.Errorf("expected no groups, got %d", len(groups))
	}
}

func TestAggregateLengthMismatch(t *testing.T) {
	_, err := New(2).Aggregate(batch(3), []int{0, 0}, nil)
	if !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func make6(v float64) [][]float64 {
	out := make([][]float64, 6)
	for i := range out {
		out[i] = make([]float64, 6)
		for j := range out[i] {
			out[i][j] = v
		}
	}
	return out
}
