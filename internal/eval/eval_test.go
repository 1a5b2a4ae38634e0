package eval

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TrevorS/clustersearch/internal/clustering"
	"github.com/TrevorS/clustersearch/internal/dataset"
	"github.com/TrevorS/clustersearch/internal/props"
)

func blobs() *dataset.Dataset {
	return dataset.Blobs(dataset.DefaultBlobOptions())
}

// perfect returns the clustering equal to the ground truth.
func perfect(ds *dataset.Dataset) *clustering.Clustering {
	return clustering.New("truth", ds, ds.Labels)
}

// shuffled returns a clustering with the same cluster count as ds but labels
// assigned round robin, so clusters are mixed.
func shuffled(ds *dataset.Dataset) *clustering.Clustering {
	labels := make([]int, ds.Len())
	for i := range labels {
		labels[i] = i % ds.NumClasses()
	}
	return clustering.New("mixed", ds, labels)
}

func single(ds *dataset.Dataset) *clustering.Clustering {
	return clustering.New("one", ds, make([]int, ds.Len()))
}

func TestDirection(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		name      string
		d         Direction
		candidate float64
		best      float64
		want      bool
	}{
		{"max larger", Maximize, 2, 1, true},
		{"max smaller", Maximize, 1, 2, false},
		{"max equal", Maximize, 1, 1, false},
		{"min smaller", Minimize, 1, 2, true},
		{"min larger", Minimize, 2, 1, false},
		{"nan candidate", Maximize, nan, 1, false},
		{"nan best", Minimize, 5, nan, true},
		{"both nan", Maximize, nan, nan, false},
		{"beats worst max", Maximize, -1e9, Maximize.Worst(), true},
		{"beats worst min", Minimize, 1e9, Minimize.Worst(), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.d.IsBetter(tt.candidate, tt.best))
		})
	}
}

func TestInternalCriteriaPreferTruth(t *testing.T) {
	ds := blobs()
	good, bad := perfect(ds), shuffled(ds)
	for _, crit := range DefaultRegistry().Internal() {
		t.Run(crit.Name(), func(t *testing.T) {
			g, err := crit.Score(good, props.New())
			require.NoError(t, err)
			b, err := crit.Score(bad, props.New())
			require.NoError(t, err)
			assert.True(t, crit.IsBetter(g, b), "good=%g bad=%g", g, b)
			assert.False(t, crit.IsExternal())
		})
	}
}

func TestExternalCriteria(t *testing.T) {
	ds := blobs()
	for _, crit := range DefaultRegistry().External() {
		t.Run(crit.Name(), func(t *testing.T) {
			assert.True(t, crit.IsExternal())
			g, err := crit.Score(perfect(ds), props.New())
			require.NoError(t, err)
			assert.InDelta(t, 1.0, g, 1e-9)

			b, err := crit.Score(shuffled(ds), props.New())
			require.NoError(t, err)
			assert.Less(t, b, 0.5)
		})
	}
}

func TestExternalNeedsClasses(t *testing.T) {
	ds, err := dataset.New("raw", [][]float64{{0}, {1}, {2}, {3}})
	require.NoError(t, err)
	c := clustering.New("x", ds, []int{0, 0, 1, 1})
	for _, crit := range DefaultRegistry().External() {
		_, err := crit.Score(c, props.New())
		assert.ErrorIs(t, err, ErrNotComputable, crit.Name())
	}
}

func TestInternalSingleClusterNotComputable(t *testing.T) {
	ds := blobs()
	for _, crit := range DefaultRegistry().Internal() {
		_, err := crit.Score(single(ds), props.New())
		assert.ErrorIs(t, err, ErrNotComputable, crit.Name())
	}
}

func TestNoiseIgnoredByInternalCriteria(t *testing.T) {
	ds := blobs()
	labels := append([]int(nil), ds.Labels...)
	withNoise := append([]int(nil), labels...)
	withNoise[0] = clustering.Noise
	sil := NewSilhouette()
	a, err := sil.Score(clustering.New("a", ds, labels), nil)
	require.NoError(t, err)
	b, err := sil.Score(clustering.New("b", ds, withNoise), nil)
	require.NoError(t, err)
	assert.InDelta(t, a, b, 0.05)
}

func TestEvaluateCachesAndReportsNaN(t *testing.T) {
	ds := blobs()
	c := perfect(ds)
	sil := NewSilhouette()
	v, err := Evaluate(sil, c, nil)
	require.NoError(t, err)
	cached, ok := c.Score(sil.Name())
	require.True(t, ok)
	assert.Equal(t, v, cached)

	v, err = Evaluate(sil, single(ds), nil)
	assert.ErrorIs(t, err, ErrNotComputable)
	assert.True(t, math.IsNaN(v))
}

func TestCompare(t *testing.T) {
	db := NewDaviesBouldin()
	assert.Equal(t, -1, Compare(db, 0.2, 0.5))
	assert.Equal(t, 1, Compare(db, 0.5, 0.2))
	assert.Equal(t, 0, Compare(db, 0.5, 0.5))
	assert.Equal(t, 1, Compare(db, math.NaN(), 0.5))
}

func TestSplit(t *testing.T) {
	reg := DefaultRegistry()
	all, err := reg.Lookup("silhouette", "nmi-sqrt", "dunn")
	require.NoError(t, err)
	in, ex := Split(all)
	require.Len(t, in, 2)
	require.Len(t, ex, 1)
	assert.Equal(t, "Silhouette", in[0].Name())
	assert.Equal(t, "Dunn", in[1].Name())
	assert.Equal(t, "NMI-sqrt", ex[0].Name())
}

func TestRegistry(t *testing.T) {
	reg := DefaultRegistry()
	assert.Len(t, reg.List(), 7)
	assert.Len(t, reg.Internal(), 4)
	assert.Len(t, reg.External(), 3)

	c, err := reg.Get("DAVIES-BOULDIN")
	require.NoError(t, err)
	assert.Equal(t, Minimize.Worst(), c.Worst())

	_, err = reg.Get("gamma")
	assert.ErrorIs(t, err, ErrUnknown)
	_, err = reg.Lookup("Dunn", "gamma")
	assert.ErrorIs(t, err, ErrUnknown)

	assert.ErrorIs(t, reg.Register(NewDunn()), ErrAlreadyRegistered)
	assert.Panics(t, func() { reg.MustRegister(NewJaccard()) })
}
