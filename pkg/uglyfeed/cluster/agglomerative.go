package cluster

import (
	"fmt"
	"math"
	"sort"

	"github.com/uglyfeed/uglyfeed/pkg/uglyfeed/internalerr"
)

// Agglomerative builds a full merge tree bottom-up and cuts it either
// at NClusters clusters or where merge distances reach Threshold.
//
// Average, complete and single linkage run on cosine distance. Ward
// runs on euclidean distance between feature vectors.
type Agglomerative struct {
	Linkage      Linkage
	NClusters    int
	Threshold    float64
	UseThreshold bool
}

// Merge joins the clusters represented by documents A and B at Distance.
type Merge struct {
	A, B     int
	Distance float64
}

// Cluster implements Clusterer.
func (a *Agglomerative) Cluster(in Input) ([]int, error) {
	dist, err := a.distances(in)
	if err != nil {
		return nil, err
	}
	n := len(dist)
	if n == 0 {
		return []int{}, nil
	}
	if !a.UseThreshold && a.NClusters > n {
		return nil, fmt.Errorf("%w: n_clusters=%d exceeds %d documents", internalerr.ErrInsufficientData, a.NClusters, n)
	}

	merges := Tree(dist, a.Linkage)

	uf := newUnionFind(n)
	for i, m := range merges {
		if a.UseThreshold {
			if m.Distance >= a.Threshold {
				break
			}
		} else if i >= n-a.NClusters {
			break
		}
		uf.union(m.A, m.B)
	}

	labels := make([]int, n)
	for i := range labels {
		labels[i] = uf.find(i)
	}
	return Relabel(labels), nil
}

// distances returns the pairwise point distances the linkage works on.
// Ward distances are squared.
func (a *Agglomerative) distances(in Input) ([][]float64, error) {
	if a.Linkage == LinkageWard {
		if in.Features == nil {
			return nil, fmt.Errorf("%w: ward linkage needs feature vectors", internalerr.ErrInvalidInput)
		}
		n := in.Features.N()
		x := in.Features.Dense()
		dist := newSquare(n)
		if x == nil {
			return dist, nil
		}
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				d := sqDist(x.RawRowView(i), x.RawRowView(j))
				dist[i][j], dist[j][i] = d, d
			}
		}
		return dist, nil
	}

	if in.Similarity == nil {
		return nil, fmt.Errorf("%w: %s linkage needs a similarity matrix", internalerr.ErrInvalidInput, a.Linkage)
	}
	n := in.Similarity.N()
	dist := newSquare(n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := in.Similarity.Distance(i, j)
			dist[i][j], dist[j][i] = d, d
		}
	}
	return dist, nil
}

func newSquare(n int) [][]float64 {
	backing := make([]float64, n*n)
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = backing[i*n : (i+1)*n]
	}
	return rows
}

// Tree computes the n-1 merges of the full dendrogram with the
// nearest-neighbour chain algorithm and returns them sorted by
// distance. dist is consumed. For ward, dist holds squared euclidean
// distances and the returned merge distances are euclidean.
func Tree(dist [][]float64, linkage Linkage) []Merge {
	n := len(dist)
	if n < 2 {
		return nil
	}
	size := make([]float64, n)
	active := make([]bool, n)
	for i := range size {
		size[i] = 1
		active[i] = true
	}

	merges := make([]Merge, 0, n-1)
	chain := make([]int, 0, n)

	for remaining := n; remaining > 1; remaining-- {
		if len(chain) == 0 {
			for i := 0; i < n; i++ {
				if active[i] {
					chain = append(chain, i)
					break
				}
			}
		}

		var x, y int
		for {
			c := chain[len(chain)-1]
			best, bestD := -1, math.Inf(1)
			if len(chain) > 1 {
				best = chain[len(chain)-2]
				bestD = dist[c][best]
			}
			for j := 0; j < n; j++ {
				if active[j] && j != c && dist[c][j] < bestD {
					best, bestD = j, dist[c][j]
				}
			}
			if len(chain) > 1 && best == chain[len(chain)-2] {
				x, y = c, best
				chain = chain[:len(chain)-2]
				break
			}
			chain = append(chain, best)
		}

		if x > y {
			x, y = y, x
		}
		d := dist[x][y]
		if linkage == LinkageWard {
			merges = append(merges, Merge{A: x, B: y, Distance: math.Sqrt(d)})
		} else {
			merges = append(merges, Merge{A: x, B: y, Distance: d})
		}

		// x represents the merged cluster from now on
		nx, ny := size[x], size[y]
		for k := 0; k < n; k++ {
			if !active[k] || k == x || k == y {
				continue
			}
			v := lanceWilliams(linkage, dist[x][k], dist[y][k], d, nx, ny, size[k])
			dist[x][k], dist[k][x] = v, v
		}
		size[x] = nx + ny
		active[y] = false
	}

	sort.SliceStable(merges, func(i, j int) bool {
		return merges[i].Distance < merges[j].Distance
	})
	return merges
}

// lanceWilliams returns the distance from the union of clusters x and y
// to cluster k.
func lanceWilliams(linkage Linkage, dxk, dyk, dxy, nx, ny, nk float64) float64 {
	switch linkage {
	case LinkageSingle:
		return math.Min(dxk, dyk)
	case LinkageComplete:
		return math.Max(dxk, dyk)
	case LinkageWard:
		return ((nx+nk)*dxk + (ny+nk)*dyk - nk*dxy) / (nx + ny + nk)
	default:
		return (nx*dxk + ny*dyk) / (nx + ny)
	}
}

type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	return &unionFind{parent: p}
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if rb < ra {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
}
