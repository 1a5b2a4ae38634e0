// Package pareto builds bounded Pareto fronts over clustering results and
// flattens them into a total ranking.
package pareto

import (
	"slices"

	"github.com/TrevorS/clustersearch/internal/clustering"
	"github.com/TrevorS/clustersearch/internal/eval"
	"github.com/TrevorS/clustersearch/internal/props"
	"github.com/TrevorS/clustersearch/internal/rank"
)

// DefaultMaxFronts bounds the number of fronts peeled when none is given.
const DefaultMaxFronts = 20

// Front collects clustering results and sorts them into successive
// non-dominated fronts under a set of objectives.
//
// Results beyond the first MaxFronts fronts are excluded from the ranking;
// Excluded reports how many. Within a front, results are ordered by the
// sorting criterion, ties keeping insertion order.
type Front struct {
	maxFronts  int
	objectives []eval.Criterion
	sortBy     eval.Criterion
	params     *props.Props

	items  []item
	fronts [][]item
	dirty  bool
	excl   int
}

type item struct {
	c      *clustering.Clustering
	scores []float64
	key    float64
}

// New creates an empty front builder. maxFronts <= 0 means DefaultMaxFronts.
// A nil sortBy orders each front by the first objective.
func New(maxFronts int, objectives []eval.Criterion, sortBy eval.Criterion, p *props.Props) *Front {
	if maxFronts <= 0 {
		maxFronts = DefaultMaxFronts
	}
	if sortBy == nil && len(objectives) > 0 {
		sortBy = objectives[0]
	}
	return &Front{
		maxFronts:  maxFronts,
		objectives: slices.Clone(objectives),
		sortBy:     sortBy,
		params:     p,
	}
}

// Add scores c under every objective and the sorting criterion and queues
// it for ranking. Scores that cannot be computed count as NaN, which every
// real score dominates.
func (f *Front) Add(c *clustering.Clustering) {
	it := item{c: c, scores: make([]float64, len(f.objectives))}
	for i, o := range f.objectives {
		it.scores[i], _ = eval.Evaluate(o, c, f.params)
	}
	if f.sortBy != nil {
		it.key, _ = eval.Evaluate(f.sortBy, c, f.params)
	}
	f.items = append(f.items, it)
	f.dirty = true
}

// Len returns the number of added results.
func (f *Front) Len() int { return len(f.items) }

// Dominates reports whether a is at least as good as b under every
// objective and strictly better under at least one.
func Dominates(objectives []eval.Criterion, a, b []float64) bool {
	strict := false
	for i, o := range objectives {
		if o.IsBetter(b[i], a[i]) {
			return false
		}
		if o.IsBetter(a[i], b[i]) {
			strict = true
		}
	}
	return strict
}

func (f *Front) compute() {
	if !f.dirty && f.fronts != nil {
		return
	}
	f.fronts = f.fronts[:0]
	remaining := slices.Clone(f.items)
	for len(remaining) > 0 && len(f.fronts) < f.maxFronts {
		var front, rest []item
		for i, a := range remaining {
			dominated := false
			for j, b := range remaining {
				if i != j && Dominates(f.objectives, b.scores, a.scores) {
					dominated = true
					break
				}
			}
			if dominated {
				rest = append(rest, a)
			} else {
				front = append(front, a)
			}
		}
		if f.sortBy != nil {
			slices.SortStableFunc(front, func(a, b item) int {
				return eval.Compare(f.sortBy, a.key, b.key)
			})
		}
		f.fronts = append(f.fronts, front)
		remaining = rest
	}
	f.excl = len(remaining)
	f.dirty = false
}

// Fronts returns the peeled fronts, best first, each in sorted order.
func (f *Front) Fronts() [][]*clustering.Clustering {
	f.compute()
	out := make([][]*clustering.Clustering, len(f.fronts))
	for i, front := range f.fronts {
		out[i] = make([]*clustering.Clustering, len(front))
		for j, it := range front {
			out[i][j] = it.c
		}
	}
	return out
}

// FrontOf returns the index of the front holding c, or -1 when c was
// excluded or never added.
func (f *Front) FrontOf(c *clustering.Clustering) int {
	f.compute()
	for i, front := range f.fronts {
		for _, it := range front {
			if it.c == c {
				return i
			}
		}
	}
	return -1
}

// ComputeRanking flattens the fronts into a ranking. The rank of a result
// is its front index plus its position within the front divided by the
// front size, so every front occupies [i, i+1).
func (f *Front) ComputeRanking() rank.Ranking {
	f.compute()
	var out rank.Ranking
	for i, front := range f.fronts {
		for j, it := range front {
			out = append(out, rank.Entry{
				Rank:       float64(i) + float64(j)/float64(len(front)),
				Clustering: it.c,
			})
		}
	}
	return out
}

// Excluded returns the number of results left out because they fell beyond
// the last permitted front.
func (f *Front) Excluded() int {
	f.compute()
	return f.excl
}
