package search

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TrevorS/clustersearch/internal/algorithm"
	"github.com/TrevorS/clustersearch/internal/clustering"
	"github.com/TrevorS/clustersearch/internal/dataset"
	"github.com/TrevorS/clustersearch/internal/eval"
	"github.com/TrevorS/clustersearch/internal/props"
	"github.com/TrevorS/clustersearch/internal/telemetry"
)

// fake assigns points round robin to k clusters and records every
// configuration it is called with.
type fake struct {
	family algorithm.Family
	k      int
	err    error
	calls  []*props.Props
}

func (f *fake) Name() string             { return "fake" }
func (f *fake) Family() algorithm.Family { return f.family }
func (f *fake) Cluster(ds *dataset.Dataset, p *props.Props) (*clustering.Clustering, error) {
	f.calls = append(f.calls, p.Copy())
	if f.err != nil {
		return nil, f.err
	}
	k := p.GetInt("k", max(f.k, 1))
	labels := make([]int, ds.Len())
	for i := range labels {
		labels[i] = i % k
	}
	return clustering.New(f.Name(), ds, labels), nil
}

// counting wraps a real algorithm and records its configurations.
type counting struct {
	algorithm.Algorithm
	calls []*props.Props
}

func (c *counting) Cluster(ds *dataset.Dataset, p *props.Props) (*clustering.Clustering, error) {
	c.calls = append(c.calls, p.Copy())
	return c.Algorithm.Cluster(ds, p)
}

// paramCrit scores a clustering from its configuration.
type paramCrit struct {
	eval.Direction
	fn func(p *props.Props) (float64, error)
}

func (*paramCrit) Name() string     { return "param" }
func (*paramCrit) IsExternal() bool { return false }
func (c *paramCrit) Score(_ *clustering.Clustering, p *props.Props) (float64, error) {
	return c.fn(p)
}

// byKey scores with the value of key, failing when it is absent.
func byKey(d eval.Direction, key string) *paramCrit {
	return &paramCrit{Direction: d, fn: func(p *props.Props) (float64, error) {
		if !p.Has(key) {
			return 0, eval.ErrNotComputable
		}
		return p.GetFloat(key, 0), nil
	}}
}

type recorder struct {
	got []*clustering.Clustering
	err error
}

func (r *recorder) Record(c *clustering.Clustering) error {
	r.got = append(r.got, c)
	return r.err
}

func blobs() *dataset.Dataset {
	return dataset.Blobs(dataset.DefaultBlobOptions())
}

func newEngine(crit eval.Criterion, sink Recorder) *Engine {
	return &Engine{Criterion: crit, Sink: sink, Logger: telemetry.Discard()}
}

func TestCatalogSearchEvaluatesEveryEntry(t *testing.T) {
	alg := &fake{family: algorithm.FamilyCriterion, k: 2}
	rec := &recorder{}
	base := props.Of("k", 3, "keep", "me")
	before := base.Copy()
	cat := Catalog{Entry("x", 0.3), Entry("x", 0.9), Entry("x", 0.1)}

	out, err := newEngine(byKey(eval.Maximize, "x"), rec).SearchCatalog(context.Background(),
		Request{Dataset: blobs(), Algorithm: alg, Base: base}, cat)
	require.NoError(t, err)

	assert.Len(t, alg.calls, len(cat))
	assert.Len(t, rec.got, len(cat))
	assert.Equal(t, len(cat), out.Evaluated)
	assert.Equal(t, 0.9, out.Score)
	assert.Equal(t, "{x=0.9}", out.Label)
	assert.Equal(t, "me", out.Config.GetString("keep", ""))
	assert.True(t, before.Equal(base), "base configuration was modified")
	for _, c := range out.Candidates {
		s, _ := c.Score("param")
		assert.False(t, eval.Maximize.IsBetter(s, out.Score))
	}
}

func TestCatalogSearchNegativeScores(t *testing.T) {
	cat := Catalog{Entry("x", -3.0), Entry("x", -1.0), Entry("x", -2.0)}
	req := Request{Dataset: blobs(), Algorithm: &fake{family: algorithm.FamilyDamping, k: 2}, Base: props.New()}

	out, err := newEngine(byKey(eval.Maximize, "x"), nil).SearchCatalog(context.Background(), req, cat)
	require.NoError(t, err)
	assert.Equal(t, -1.0, out.Score)

	out, err = newEngine(byKey(eval.Minimize, "x"), nil).SearchCatalog(context.Background(), req, cat)
	require.NoError(t, err)
	assert.Equal(t, -3.0, out.Score)
}

func TestProductCatalog(t *testing.T) {
	a := Catalog{Entry("m", 1), Entry("m", 2), Entry("m", 3)}
	b := Catalog{Entry("s", "eom", "m", 9), Entry("s", "leaf")}
	p := Product(a, b)
	require.Len(t, p, len(a)*len(b))
	assert.Equal(t, "{m=1} + {s=eom, m=9}", p[0].Label)
	assert.Equal(t, 9, p[0].Override.GetInt("m", 0))
	assert.Equal(t, 1, p[1].Override.GetInt("m", 0))
	assert.Equal(t, 3, p[5].Override.GetInt("m", 0))

	alg := &fake{family: algorithm.FamilyPreset, k: 2}
	_, err := newEngine(byKey(eval.Maximize, "m"), nil).SearchCatalog(context.Background(),
		Request{Dataset: blobs(), Algorithm: alg, Base: props.New()}, p)
	require.NoError(t, err)
	assert.Len(t, alg.calls, 6)
}

func TestBuiltinCatalogs(t *testing.T) {
	tests := []struct {
		family algorithm.Family
		method string
		size   int
	}{
		{algorithm.FamilyCriterion, "", len(algorithm.Linkages)},
		{algorithm.FamilyCriterion, "metric", 2 * len(algorithm.Linkages)},
		{algorithm.FamilyDamping, "", 10},
		{algorithm.FamilyDamping, "preference", 6},
		{algorithm.FamilyPreset, "default", 5},
		{algorithm.FamilyPreset, "GRID", 6},
	}
	for _, tt := range tests {
		t.Run(tt.family.String()+"/"+tt.method, func(t *testing.T) {
			cat, err := CatalogFor(tt.family, tt.method)
			require.NoError(t, err)
			assert.Len(t, cat, tt.size)
		})
	}

	_, err := CatalogFor(algorithm.FamilyPreset, "random")
	assert.ErrorIs(t, err, ErrUnknownMethod)
	_, err = CatalogFor(algorithm.FamilyDensity, "")
	assert.ErrorIs(t, err, ErrUnknownMethod)

	assert.Equal(t, []string{"default", "grid"}, Methods(algorithm.FamilyPreset))
	assert.Equal(t, []string{MethodExhaustive, MethodIncremental}, Methods(algorithm.FamilyDensity))
}

func TestSearchUsesFamilyCatalog(t *testing.T) {
	alg := &fake{family: algorithm.FamilyPreset, k: 3}
	out, err := newEngine(byKey(eval.Minimize, algorithm.ParamMinClusterSize), nil).Search(context.Background(),
		Request{Dataset: blobs(), Algorithm: alg, Base: props.New(), Method: "grid"})
	require.NoError(t, err)
	assert.Len(t, alg.calls, 6)
	assert.Equal(t, 5.0, out.Score)
	assert.Equal(t, "{min-cluster-size=5} + {selection=eom}", out.Label)
}

func TestCatalogErrorsAreFatal(t *testing.T) {
	req := Request{Dataset: blobs(), Algorithm: &fake{family: algorithm.FamilyPreset, k: 2}, Base: props.New()}
	e := newEngine(byKey(eval.Maximize, "x"), nil)

	_, err := e.SearchCatalog(context.Background(), req, nil)
	assert.ErrorIs(t, err, ErrEmptyCatalog)

	req.Method = "nope"
	_, err = e.Search(context.Background(), req)
	assert.ErrorIs(t, err, ErrUnknownMethod)
}

func TestSearchCatalogChecksRequest(t *testing.T) {
	e := newEngine(byKey(eval.Maximize, "x"), nil)
	ctx := context.Background()

	_, err := e.SearchCatalog(ctx, Request{Dataset: blobs(), Base: props.New()}, nil)
	assert.ErrorIs(t, err, algorithm.ErrUnknown)

	alg := &fake{family: algorithm.FamilyCriterion, k: 2}
	_, err = e.SearchCatalog(ctx, Request{Algorithm: alg, Base: props.New()}, Catalog{Entry("x", 1)})
	assert.ErrorIs(t, err, dataset.ErrEmpty)
	assert.Empty(t, alg.calls)

	_, err = (&Engine{}).SearchCatalog(ctx, Request{Dataset: blobs(), Algorithm: alg, Base: props.New()}, Catalog{Entry("x", 1)})
	assert.ErrorIs(t, err, ErrNoCriterion)
}

func TestScoringFailuresDoNotStopSearch(t *testing.T) {
	cat := Catalog{Entry("y", 1), Entry("x", 0.2), Entry("y", 2), Entry("x", 0.4)}
	out, err := newEngine(byKey(eval.Maximize, "x"), nil).SearchCatalog(context.Background(),
		Request{Dataset: blobs(), Algorithm: &fake{family: algorithm.FamilyCriterion, k: 2}, Base: props.New()}, cat)
	require.NoError(t, err)
	assert.Equal(t, 4, out.Evaluated)
	assert.Equal(t, 2, out.Failures)
	assert.Equal(t, 0.4, out.Score)
}

func TestNothingScoredFallsBackToFirstCandidate(t *testing.T) {
	cat := Catalog{Entry("y", 1), Entry("y", 2)}
	out, err := newEngine(byKey(eval.Maximize, "x"), nil).SearchCatalog(context.Background(),
		Request{Dataset: blobs(), Algorithm: &fake{family: algorithm.FamilyCriterion, k: 2}, Base: props.New()}, cat)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(out.Score))
	require.NotNil(t, out.Best)
	assert.Equal(t, out.Candidates[0], out.Best)
	assert.Equal(t, "{y=1}", out.Label)
}

func TestUnknownFamilyRunsOnce(t *testing.T) {
	alg := &fake{family: algorithm.Family(99), k: 3}
	base := props.Of("x", 0.5)
	out, err := newEngine(byKey(eval.Maximize, "x"), nil).Search(context.Background(),
		Request{Dataset: blobs(), Algorithm: alg, Base: base})
	require.NoError(t, err)
	require.Len(t, alg.calls, 1)
	assert.True(t, base.Equal(alg.calls[0]))
	assert.Equal(t, 0.5, out.Score)
	assert.Equal(t, 3, out.Best.Size())
}

func TestAlgorithmAndRecorderErrorsAbort(t *testing.T) {
	boom := errors.New("boom")
	req := Request{Dataset: blobs(), Algorithm: &fake{family: algorithm.FamilyCriterion, err: boom}, Base: props.New()}
	_, err := newEngine(byKey(eval.Maximize, "x"), nil).Search(context.Background(), req)
	assert.ErrorIs(t, err, boom)

	rec := &recorder{err: boom}
	req.Algorithm = &fake{family: algorithm.FamilyCriterion, k: 2}
	_, err = newEngine(byKey(eval.Maximize, "x"), rec).Search(context.Background(), req)
	assert.ErrorIs(t, err, boom)
	assert.Len(t, rec.got, 1)
}

func TestSearchSetupErrors(t *testing.T) {
	_, err := (&Engine{}).Search(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrNoCriterion)

	e := newEngine(byKey(eval.Maximize, "x"), nil)
	_, err = e.Search(context.Background(), Request{Dataset: blobs()})
	assert.ErrorIs(t, err, algorithm.ErrUnknown)
	_, err = e.Search(context.Background(), Request{Algorithm: &fake{}})
	assert.ErrorIs(t, err, dataset.ErrEmpty)
}

func TestSearchCountsMetrics(t *testing.T) {
	m := telemetry.NewMetrics()
	e := newEngine(byKey(eval.Maximize, "x"), nil)
	e.Metrics = m
	cat := Catalog{Entry("x", 1), Entry("y", 1)}
	_, err := e.SearchCatalog(context.Background(),
		Request{Dataset: blobs(), Algorithm: &fake{family: algorithm.FamilyCriterion, k: 2}, Base: props.New()}, cat)
	require.NoError(t, err)

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	values := map[string]float64{}
	for _, f := range families {
		for _, metric := range f.GetMetric() {
			if c := metric.GetCounter(); c != nil {
				values[f.GetName()] += c.GetValue()
			}
		}
	}
	assert.Equal(t, 2.0, values["clustersearch_candidates_total"])
	assert.Equal(t, 1.0, values["clustersearch_score_failures_total"])
}
