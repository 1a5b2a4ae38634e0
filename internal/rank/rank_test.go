package rank

import (
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TrevorS/clustersearch/internal/clustering"
	"github.com/TrevorS/clustersearch/internal/dataset"
	"github.com/TrevorS/clustersearch/internal/eval"
	"github.com/TrevorS/clustersearch/internal/props"
)

// fixed is a criterion returning preset scores keyed by clustering ID.
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

func results(t *testing.T, n int) []*clustering.Clustering {
	t.Helper()
	ds, err := dataset.New("r", [][]float64{{0}, {1}})
	require.NoError(t, err)
	out := make([]*clustering.Clustering, n)
	for i := range out {
		out[i] = clustering.New("a", ds, []int{0, 1})
	}
	return out
}

func TestSortByRespectsDirection(t *testing.T) {
	rs := results(t, 4)
	scores := map[string]float64{rs[0].ID: 0.3, rs[1].ID: 0.9, rs[2].ID: 0.1, rs[3].ID: 0.5}

	asc := SortBy(rs, &fixed{Direction: eval.Minimize, name: "min", scores: scores}, nil)
	assert.Equal(t, []*clustering.Clustering{rs[2], rs[0], rs[3], rs[1]}, asc.Clusterings())

	desc := SortBy(rs, &fixed{Direction: eval.Maximize, name: "max", scores: scores}, nil)
	assert.Equal(t, []*clustering.Clustering{rs[1], rs[3], rs[0], rs[2]}, desc.Clusterings())
	for i, e := range desc {
		assert.Equal(t, float64(i), e.Rank)
	}
}

func TestSortByStableAndNaNLast(t *testing.T) {
	rs := results(t, 4)
	scores := map[string]float64{rs[1].ID: 1, rs[2].ID: 1, rs[3].ID: 2}
	got := SortBy(rs, &fixed{Direction: eval.Maximize, name: "s", scores: scores}, nil)
	assert.Equal(t, []*clustering.Clustering{rs[3], rs[1], rs[2], rs[0]}, got.Clusterings())
}

func TestCorrelationBounds(t *testing.T) {
	rs := results(t, 8)
	idx := NewIndexMap(rs)
	reversed := slices.Clone(rs)
	slices.Reverse(reversed)

	for _, c := range []Correlator{Spearman{}, Kendall{}} {
		t.Run(c.Name(), func(t *testing.T) {
			assert.InDelta(t, 1.0, c.Correlation(rs, rs, idx), 1e-12)
			assert.InDelta(t, -1.0, c.Correlation(reversed, rs, idx), 1e-12)
			assert.True(t, math.IsNaN(c.Correlation(rs[:1], rs, idx)))
		})
	}
}

func TestCorrelationUsesOverlapOnly(t *testing.T) {
	rs := results(t, 6)
	idx := NewIndexMap(rs)
	// Candidate lost two results and gained one unknown to the reference.
	stranger := results(t, 1)[0]
	candidate := []*clustering.Clustering{rs[0], stranger, rs[2], rs[4], rs[5]}
	assert.InDelta(t, 1.0, Spearman{}.Correlation(candidate, rs, idx), 1e-12)
	assert.InDelta(t, 1.0, Kendall{}.Correlation(candidate, rs, idx), 1e-12)
}

func TestShuffleDeterministic(t *testing.T) {
	rs := results(t, 20)
	a, b := Shuffle(rs, 7), Shuffle(rs, 7)
	assert.Equal(t, a, b)
	assert.ElementsMatch(t, rs, a)
	assert.NotEqual(t, rs, a)
}

func TestCorrelatorByName(t *testing.T) {
	c, err := CorrelatorByName("Kendall")
	require.NoError(t, err)
	assert.Equal(t, "Kendall", c.Name())
	c, err = CorrelatorByName("")
	require.NoError(t, err)
	assert.Equal(t, "Spearman", c.Name())
	_, err = CorrelatorByName("pearson")
	assert.ErrorIs(t, err, ErrUnknownCorrelator)
}
