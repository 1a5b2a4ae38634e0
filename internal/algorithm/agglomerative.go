package algorithm

import (
	"fmt"
	"math"
	"sort"

	"github.com/TrevorS/clustersearch/internal/clustering"
	"github.com/TrevorS/clustersearch/internal/dataset"
	"github.com/TrevorS/clustersearch/internal/hierarchy"
	"github.com/TrevorS/clustersearch/internal/props"
	"github.com/TrevorS/clustersearch/internal/spatial"
)

// Linkage names accepted by Agglomerative.
const (
	LinkageSingle   = "single"
	LinkageComplete = "complete"
	LinkageAverage  = "average"
	LinkageWeighted = "weighted"
	LinkageWard     = "ward"
	LinkageMedian   = "median"
)

// Linkages lists every supported linkage in catalog order.
var Linkages = []string{LinkageSingle, LinkageComplete, LinkageAverage, LinkageWeighted, LinkageWard, LinkageMedian}

// Agglomerative is bottom-up hierarchical clustering cut at k clusters.
// Single linkage goes through a spanning tree; the other linkages update a
// dense matrix with the Lance-Williams recurrence.
//
// Parameters: k (default: number of classes, else 3), linkage (default
// average), distance, workers.
type Agglomerative struct{}

func (*Agglomerative) Name() string   { return "agglomerative" }
func (*Agglomerative) Family() Family { return FamilyCriterion }

func (a *Agglomerative) Cluster(ds *dataset.Dataset, p *props.Props) (*clustering.Clustering, error) {
	k, err := kFrom(ds, p, 3)
	if err != nil {
		return nil, err
	}
	metric, err := metricFrom(p)
	if err != nil {
		return nil, err
	}
	linkage := p.GetString(ParamLinkage, LinkageAverage)
	m := spatial.Pairwise(ds.Points, metric, p.GetInt(ParamWorkers, 0))

	var merges []hierarchy.Merge
	switch linkage {
	case LinkageSingle:
		merges = hierarchy.SingleLinkage(hierarchy.PrimMST(m), ds.Len())
	case LinkageComplete, LinkageAverage, LinkageWeighted, LinkageWard, LinkageMedian:
		if linkage == LinkageWard || linkage == LinkageMedian {
			squareInPlace(m)
		}
		merges = lanceWilliams(m, linkage)
	default:
		return nil, fmt.Errorf("%w: unknown %s %q", ErrInvalidParam, ParamLinkage, linkage)
	}
	labels := hierarchy.Cut(merges, ds.Len(), k)
	return clustering.New(a.Name(), ds, labels), nil
}

func squareInPlace(m *spatial.Matrix) {
	for i, d := range m.Data {
		m.Data[i] = d * d
	}
}

// lanceWilliams runs the naive O(n^3) agglomeration on m, which it
// overwrites. The returned merges are sorted by height so Cut can undo the
// last ones.
func lanceWilliams(m *spatial.Matrix, linkage string) []hierarchy.Merge {
	n := m.N
	if n < 2 {
		return nil
	}
	active := make([]bool, n)
	size := make([]int, n)
	for i := range active {
		active[i], size[i] = true, 1
	}

	type step struct {
		i, j   int
		height float64
	}
	steps := make([]step, 0, n-1)
	for len(steps) < n-1 {
		bi, bj, best := -1, -1, math.Inf(1)
		for i := 0; i < n; i++ {
			if !active[i] {
				continue
			}
			for j := i + 1; j < n; j++ {
				if active[j] && (bi < 0 || m.At(i, j) < best) {
					bi, bj, best = i, j, m.At(i, j)
				}
			}
		}
		steps = append(steps, step{bi, bj, best})

		ni, nj := float64(size[bi]), float64(size[bj])
		for k := 0; k < n; k++ {
			if !active[k] || k == bi || k == bj {
				continue
			}
			dik, djk, dij := m.At(bi, k), m.At(bj, k), best
			var d float64
			switch linkage {
			case LinkageComplete:
				d = max(dik, djk)
			case LinkageAverage:
				d = (ni*dik + nj*djk) / (ni + nj)
			case LinkageWeighted:
				d = (dik + djk) / 2
			case LinkageWard:
				nk := float64(size[k])
				d = ((ni+nk)*dik + (nj+nk)*djk - nk*dij) / (ni + nj + nk)
			case LinkageMedian:
				d = dik/2 + djk/2 - dij/4
			}
			m.Set(bi, k, d)
		}
		active[bj] = false
		size[bi] += size[bj]
	}

	// Slot i always holds point i, so replaying the steps by height through a
	// union-find yields a valid dendrogram even for non-monotone linkages.
	order := make([]int, len(steps))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return steps[order[a]].height < steps[order[b]].height })

	uf := hierarchy.NewUnionFind(n)
	out := make([]hierarchy.Merge, 0, len(steps))
	for _, idx := range order {
		s := steps[idx]
		a, b := uf.Find(s.i), uf.Find(s.j)
		out = append(out, hierarchy.Merge{Left: a, Right: b, Distance: s.height, Size: uf.Size(a) + uf.Size(b)})
		uf.Merge(a, b)
	}
	return out
}
