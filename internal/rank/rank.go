// Package rank orders clustering results and measures agreement between two
// orderings of the same results.
package rank

import (
	"math/rand/v2"
	"slices"

	"github.com/TrevorS/clustersearch/internal/clustering"
	"github.com/TrevorS/clustersearch/internal/eval"
	"github.com/TrevorS/clustersearch/internal/props"
)

// Entry is one ranked result. Rank values increase from best to worst; equal
// ranks keep insertion order.
type Entry struct {
	Rank       float64
	Clustering *clustering.Clustering
}

// Ranking is a total order over clustering results, best first.
type Ranking []Entry

// Clusterings returns the ranked results in order.
func (r Ranking) Clusterings() []*clustering.Clustering {
	out := make([]*clustering.Clustering, len(r))
	for i, e := range r {
		out[i] = e.Clustering
	}
	return out
}

// Len returns the number of entries.
func (r Ranking) Len() int { return len(r) }

// SortBy ranks results by a single criterion using its own direction.
// Results the criterion cannot score sort last. The input is not modified.
func SortBy(results []*clustering.Clustering, crit eval.Criterion, p *props.Props) Ranking {
	type scored struct {
		c     *clustering.Clustering
		score float64
	}
	items := make([]scored, len(results))
	for i, c := range results {
		v, _ := eval.Evaluate(crit, c, p)
		items[i] = scored{c, v}
	}
	slices.SortStableFunc(items, func(a, b scored) int {
		return eval.Compare(crit, a.score, b.score)
	})
	out := make(Ranking, len(items))
	for i, it := range items {
		out[i] = Entry{Rank: float64(i), Clustering: it.c}
	}
	return out
}

// Shuffle returns a copy of results in a random order drawn from seed.
func Shuffle(results []*clustering.Clustering, seed uint64) []*clustering.Clustering {
	out := slices.Clone(results)
	rng := rand.New(rand.NewPCG(seed, seed^0x5851f42d4c957f2d))
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// IndexMap maps result identity to its position in a reference ranking.
type IndexMap map[string]int

// NewIndexMap indexes the reference ordering by clustering ID.
func NewIndexMap(reference []*clustering.Clustering) IndexMap {
	idx := make(IndexMap, len(reference))
	for i, c := range reference {
		idx[c.ID] = i
	}
	return idx
}
