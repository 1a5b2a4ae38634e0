// Package search finds the configuration of a clustering algorithm that
// scores best under a criterion.
//
// The strategy is chosen from the algorithm's family: density algorithms get
// a two-parameter grid scan bounded by a parameter estimator, shrink
// algorithms a one-parameter scan, and criterion, damping and preset
// families a search over a discrete catalog of overrides. Anything else is
// run once with the base configuration.
//
// Every evaluated candidate is handed to the engine's Recorder, not only the
// winner, so result files hold the whole search.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/TrevorS/clustersearch/internal/algorithm"
	"github.com/TrevorS/clustersearch/internal/clustering"
	"github.com/TrevorS/clustersearch/internal/dataset"
	"github.com/TrevorS/clustersearch/internal/eval"
	"github.com/TrevorS/clustersearch/internal/props"
	"github.com/TrevorS/clustersearch/internal/telemetry"
)

var (
	// ErrUnknownMethod is returned when a family has no search method of the
	// requested name.
	ErrUnknownMethod = errors.New("search: unknown search method")

	// ErrEmptyCatalog is returned when a catalog search has no candidates.
	ErrEmptyCatalog = errors.New("search: empty catalog")

	// ErrNoCriterion is returned when the engine has no criterion to score with.
	ErrNoCriterion = errors.New("search: no criterion")
)

// Recorder receives every evaluated candidate.
type Recorder interface {
	Record(c *clustering.Clustering) error
}

// Request describes one search.
type Request struct {
	Dataset   *dataset.Dataset
	Algorithm algorithm.Algorithm
	// Base is merged under every candidate override. It is never modified.
	Base *props.Props
	// Method selects a strategy variant within the family, "" for the
	// default.
	Method string
}

// Outcome is the result of a search.
type Outcome struct {
	// Best is the winning clustering. When no candidate could be scored it
	// is the first candidate evaluated and Score is NaN.
	Best   *clustering.Clustering
	Config *props.Props
	Score  float64
	// Label names the winning catalog entry or grid point.
	Label string

	Evaluated int
	Failures  int
	// Candidates holds every evaluated clustering in evaluation order.
	Candidates []*clustering.Clustering
	// Estimate is the parameter range a scan used, nil for catalog searches.
	Estimate *algorithm.Estimate
	Elapsed  time.Duration
}

// Engine runs searches. The zero value is not usable: Criterion is
// required. Estimators default to algorithm.KDistEstimator for density
// scans and to [0.1, 0.9] for shrink scans.
type Engine struct {
	Criterion eval.Criterion
	Sink      Recorder
	Logger    *slog.Logger
	Metrics   *telemetry.Metrics

	DensityEstimator algorithm.ParamEstimator
	ShrinkEstimator  algorithm.ParamEstimator
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

// strategy runs one family's search, threading the accumulator through its
// own loops.
type strategy func(ctx context.Context, e *Engine, req Request) (acc, error)

// strategies maps a family to its search. Families not listed are run once.
var strategies = map[algorithm.Family]strategy{
	algorithm.FamilyDensity:   densityScan,
	algorithm.FamilyShrink:    shrinkScan,
	algorithm.FamilyCriterion: catalogSearch,
	algorithm.FamilyDamping:   catalogSearch,
	algorithm.FamilyPreset:    catalogSearch,
}

// Search finds the best configuration for req.
func (e *Engine) Search(ctx context.Context, req Request) (*Outcome, error) {
	if err := e.check(req); err != nil {
		return nil, err
	}
	run, ok := strategies[req.Algorithm.Family()]
	if !ok {
		run = singleRun
	}
	return e.search(ctx, req, run)
}

func (e *Engine) check(req Request) error {
	if e.Criterion == nil {
		return ErrNoCriterion
	}
	if req.Algorithm == nil {
		return fmt.Errorf("%w: nil algorithm", algorithm.ErrUnknown)
	}
	if req.Dataset == nil {
		return dataset.ErrEmpty
	}
	return req.Dataset.Validate()
}

// search runs one strategy inside a span and logs the outcome.
func (e *Engine) search(ctx context.Context, req Request, run strategy) (*Outcome, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "search")
	defer span.End()
	family := req.Algorithm.Family()
	span.SetAttributes(
		attribute.String("algorithm", req.Algorithm.Name()),
		attribute.String("family", family.String()),
		attribute.String("criterion", e.Criterion.Name()),
		attribute.String("method", req.Method),
	)

	start := time.Now()
	a, err := run(ctx, e, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	out := a.outcome()
	out.Elapsed = time.Since(start)
	span.SetAttributes(
		attribute.Int("evaluated", out.Evaluated),
		attribute.Int("failures", out.Failures),
		attribute.Float64("score", out.Score),
	)
	if math.IsNaN(out.Score) {
		e.logger().Warn("no candidate could be scored",
			"algorithm", req.Algorithm.Name(),
			"criterion", e.Criterion.Name(),
			"evaluated", out.Evaluated)
	} else {
		e.logger().Info("search finished",
			"algorithm", req.Algorithm.Name(),
			"best", out.Label,
			"criterion", e.Criterion.Name(),
			"score", out.Score,
			"clusters", out.Best.Size(),
			"evaluated", out.Evaluated,
			"elapsed", out.Elapsed)
	}
	return out, nil
}

// acc is the search accumulator. Steps take it by value and return the
// updated copy; nothing outside the loop holds best-so-far state.
type acc struct {
	crit eval.Criterion

	best   *clustering.Clustering
	config *props.Props
	score  float64
	label  string
	found  bool

	first      *clustering.Clustering
	firstLabel string

	evaluated  int
	failures   int
	candidates []*clustering.Clustering
	estimate   *algorithm.Estimate
}

func newAcc(crit eval.Criterion) acc {
	return acc{crit: crit, score: crit.Worst()}
}

// offer folds one scored candidate into a.
func (a acc) offer(c *clustering.Clustering, score float64, label string, failed bool) acc {
	a.evaluated++
	a.candidates = append(a.candidates, c)
	if failed {
		a.failures++
	}
	if a.first == nil {
		a.first, a.firstLabel = c, label
	}
	if a.crit.IsBetter(score, a.score) {
		a.best, a.config, a.score, a.label, a.found = c, c.Params, score, label, true
	}
	return a
}

func (a acc) outcome() *Outcome {
	out := &Outcome{
		Best:       a.best,
		Config:     a.config,
		Score:      a.score,
		Label:      a.label,
		Evaluated:  a.evaluated,
		Failures:   a.failures,
		Candidates: a.candidates,
		Estimate:   a.estimate,
	}
	if !a.found {
		out.Score = math.NaN()
		out.Best, out.Label = a.first, a.firstLabel
		if a.first != nil {
			out.Config = a.first.Params
		}
	}
	return out
}

// evaluate runs the algorithm on config, scores the result and records it.
// Algorithm and recorder errors abort the search; scoring errors only mark
// the candidate as failed.
func (e *Engine) evaluate(req Request, config *props.Props, label string, a acc) (acc, *clustering.Clustering, error) {
	start := time.Now()
	c, err := req.Algorithm.Cluster(req.Dataset, config)
	if err != nil {
		return a, nil, fmt.Errorf("search: %s %s: %w", req.Algorithm.Name(), config, err)
	}
	c.Elapsed = time.Since(start)
	c.Params = config
	e.Metrics.ObserveCandidate(req.Algorithm.Name(), c.Elapsed)

	score, err := eval.Evaluate(e.Criterion, c, config)
	failed := err != nil
	if failed {
		score = math.NaN()
		e.Metrics.ScoreFailed(e.Criterion.Name())
		e.logger().Warn("candidate not scored",
			"algorithm", req.Algorithm.Name(),
			"config", label,
			"clusters", c.Size(),
			"error", err)
	}

	if e.Sink != nil {
		if err := e.Sink.Record(c); err != nil {
			return a, nil, err
		}
	}

	improved := e.Criterion.IsBetter(score, a.score)
	a = a.offer(c, score, label, failed)
	if improved {
		e.logger().Info("new best",
			"algorithm", req.Algorithm.Name(),
			"config", label,
			"criterion", e.Criterion.Name(),
			"score", score,
			"clusters", c.Size())
	} else {
		e.logger().Debug("candidate",
			"config", label,
			"score", score,
			"clusters", c.Size(),
			"elapsed", c.Elapsed)
	}
	return a, c, nil
}

func singleRun(_ context.Context, e *Engine, req Request) (acc, error) {
	config := req.Base.Copy()
	a, _, err := e.evaluate(req, config, config.String(), newAcc(e.Criterion))
	return a, err
}
