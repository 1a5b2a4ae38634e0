package pareto

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TrevorS/clustersearch/internal/clustering"
	"github.com/TrevorS/clustersearch/internal/dataset"
	"github.com/TrevorS/clustersearch/internal/eval"
	"github.com/TrevorS/clustersearch/internal/props"
	"github.com/TrevorS/clustersearch/internal/rank"
)

type fixed struct {
	eval.Direction
	name   string
	scores map[string]float64
}

func (f *fixed) Name() string     { return f.name }
func (f *fixed) IsExternal() bool { return false }
func (f *fixed) Score(c *clustering.Clustering, _ *props.Props) (float64, error) {
	v, ok := f.scores[c.ID]
	if !ok {
		return 0, eval.ErrNotComputable
	}
	return v, nil
}

// setup creates n results and two criteria: a maximised one with scores xs
// and a minimised one with scores ys.
func setup(t *testing.T, xs, ys []float64) ([]*clustering.Clustering, *fixed, *fixed) {
	t.Helper()
	ds, err := dataset.New("p", [][]float64{{0}, {1}})
	require.NoError(t, err)
	a := &fixed{Direction: eval.Maximize, name: "A", scores: map[string]float64{}}
	b := &fixed{Direction: eval.Minimize, name: "B", scores: map[string]float64{}}
	rs := make([]*clustering.Clustering, len(xs))
	for i := range xs {
		rs[i] = clustering.New("x", ds, []int{0, 1})
		a.scores[rs[i].ID] = xs[i]
		b.scores[rs[i].ID] = ys[i]
	}
	return rs, a, b
}

func TestDominates(t *testing.T) {
	_, a, b := setup(t, nil, nil)
	objs := []eval.Criterion{a, b}
	assert.True(t, Dominates(objs, []float64{2, 1}, []float64{1, 2}))
	assert.True(t, Dominates(objs, []float64{2, 1}, []float64{2, 2}))
	assert.False(t, Dominates(objs, []float64{2, 1}, []float64{2, 1}))
	assert.False(t, Dominates(objs, []float64{2, 2}, []float64{1, 1}))
	assert.True(t, Dominates(objs, []float64{0, 0}, []float64{math.NaN(), math.NaN()}))
}

func TestSingleObjectiveMatchesSort(t *testing.T) {
	rs, a, _ := setup(t, []float64{0.4, 0.9, 0.1, 0.9, 0.5}, []float64{0, 0, 0, 0, 0})
	f := New(0, []eval.Criterion{a}, a, nil)
	for _, c := range rs {
		f.Add(c)
	}
	want := rank.SortBy(rs, a, nil).Clusterings()
	assert.Equal(t, want, f.ComputeRanking().Clusterings())
	assert.Equal(t, 0, f.Excluded())
}

func TestFrontsAndRanks(t *testing.T) {
	// A maximised, B minimised.
	// r0 (3,3) r1 (1,0.5) r2 (2,2) r3 (0,4) r4 (3,1)
	rs, a, b := setup(t, []float64{3, 1, 2, 0, 3}, []float64{3, 0.5, 2, 4, 1})
	f := New(10, []eval.Criterion{a, b}, a, nil)
	for _, c := range rs {
		f.Add(c)
	}
	fronts := f.Fronts()
	require.Len(t, fronts, 3)
	// r4 dominates everything except r1, which beats it on B.
	assert.Equal(t, []*clustering.Clustering{rs[4], rs[1]}, fronts[0])
	assert.Equal(t, []*clustering.Clustering{rs[0], rs[2]}, fronts[1])
	assert.Equal(t, []*clustering.Clustering{rs[3]}, fronts[2])

	ranking := f.ComputeRanking()
	require.Len(t, ranking, 5)
	assert.Equal(t, 0.0, ranking[0].Rank)
	assert.Equal(t, 0.5, ranking[1].Rank)
	assert.Equal(t, 1.0, ranking[2].Rank)
	assert.Equal(t, 2.0, ranking[4].Rank)
	assert.Equal(t, 0, f.FrontOf(rs[1]))
	assert.Equal(t, 2, f.FrontOf(rs[3]))
}

func TestMaxFrontsExcludes(t *testing.T) {
	// A strict chain: every result dominates the next.
	rs, a, b := setup(t, []float64{5, 4, 3, 2, 1}, []float64{1, 2, 3, 4, 5})
	f := New(2, []eval.Criterion{a, b}, b, nil)
	for _, c := range rs {
		f.Add(c)
	}
	assert.Len(t, f.ComputeRanking(), 2)
	assert.Equal(t, 3, f.Excluded())
	assert.Equal(t, -1, f.FrontOf(rs[4]))

	// Adding more results recomputes.
	extra, _, _ := setup(t, []float64{9}, []float64{0})
	a.scores[extra[0].ID], b.scores[extra[0].ID] = 9, 0
	f.Add(extra[0])
	assert.Equal(t, extra[0], f.ComputeRanking()[0].Clustering)
	assert.Equal(t, 4, f.Excluded())
}

func TestUnscorableResultsRankLast(t *testing.T) {
	rs, a, b := setup(t, []float64{1, 2}, []float64{1, 2})
	ds, err := dataset.New("p", [][]float64{{0}, {1}})
	require.NoError(t, err)
	orphan := clustering.New("x", ds, []int{0, 1})
	f := New(0, []eval.Criterion{a, b}, a, nil)
	f.Add(orphan)
	for _, c := range rs {
		f.Add(c)
	}
	got := f.ComputeRanking().Clusterings()
	assert.Equal(t, orphan, got[len(got)-1])
}
