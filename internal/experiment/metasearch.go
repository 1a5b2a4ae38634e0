package experiment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/TrevorS/clustersearch/internal/clustering"
	"github.com/TrevorS/clustersearch/internal/rank"
	"github.com/TrevorS/clustersearch/internal/rankeval"
	"github.com/TrevorS/clustersearch/internal/search"
	"github.com/TrevorS/clustersearch/internal/telemetry"
)

var (
	// ErrNoClasses is returned when reference rankings cannot be built
	// because the dataset carries no ground truth.
	ErrNoClasses = errors.New("experiment: dataset has no classes")

	// ErrNoObjectives is returned when no unsupervised criterion is set.
	ErrNoObjectives = errors.New("experiment: no objectives")
)

// MetaRun is the result of one meta-search repeat.
type MetaRun struct {
	Index int
	// Candidates is the size of the pooled result set.
	Candidates int
	// Best heads the Pareto ranking of the pool.
	Best    *clustering.Clustering
	Report  *rankeval.Report
	Elapsed time.Duration
}

// MetaSummary describes a finished meta-search.
type MetaSummary struct {
	Name    string
	Dir     string
	Dataset string
	Runs    []MetaRun
	// Stats summarise the head of each run's ranking and the best
	// correlation per reference over all runs.
	Stats   []Stat
	Elapsed time.Duration
}

// MetaSearch searches every algorithm of plan.Meta, pools all evaluated
// candidates and measures how well the objectives, alone and through Pareto
// fronts, reproduce the ranking of each reference criterion.
//
// Per repeat it writes the Pareto front of the pool, internal and external
// score tables, and one correlation row per objective combination. The
// statistics over all repeats go to {dataset}-meta.csv.
func (o *Orchestrator) MetaSearch(ctx context.Context, plan *Plan) (*MetaSummary, error) {
	if err := checkPlan(plan); err != nil {
		return nil, err
	}
	if len(plan.Meta.Objectives) == 0 {
		return nil, ErrNoObjectives
	}
	if !plan.Dataset.HasClasses() {
		return nil, fmt.Errorf("%w: %s", ErrNoClasses, plan.Dataset.Name)
	}
	dir, err := WorkDir(plan.Dir, plan.Name)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	sum := &MetaSummary{
		Name:    filepath.Base(dir),
		Dir:     dir,
		Dataset: plan.Dataset.Name,
		Runs:    make([]MetaRun, plan.Repeat),
	}
	o.logger().Info("meta-search started",
		"experiment", sum.Name,
		"dataset", sum.Dataset,
		"algorithms", plan.Meta.Algorithms,
		"objectives", len(plan.Meta.Objectives),
		"references", len(plan.Meta.References))

	acc := NewAccumulator()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(plan.Repeat)
	for i := range plan.Repeat {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			run, err := o.metaOnce(gctx, plan, dir, i)
			if err != nil {
				return fmt.Errorf("experiment: meta run %d: %w", i, err)
			}
			if run.Best != nil {
				acc.AddClustering(plan.Eval, run.Best, run.Elapsed)
			}
			addCorrelations(acc, plan, run.Report)
			sum.Runs[i] = run
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sum.Stats = acc.Stats()
	path := filepath.Join(dir, plan.Dataset.SafeName()+"-meta.csv")
	if err := writeStats(o.sink(), path, plan.Dataset.Name, strings.Join(plan.Meta.Algorithms, "+"), sum.Stats); err != nil {
		return nil, err
	}
	sum.Elapsed = time.Since(start)
	o.logger().Info("meta-search finished",
		"experiment", sum.Name,
		"dir", dir,
		"elapsed", sum.Elapsed)
	return sum, nil
}

// addCorrelations records the best correlation reached against every
// reference, as "<correlator> vs <reference>".
func addCorrelations(acc *Accumulator, plan *Plan, report *rankeval.Report) {
	name := "correlation"
	if plan.Meta.Correlation != nil {
		name = plan.Meta.Correlation.Name()
	}
	for _, ref := range plan.Meta.References {
		v := math.NaN()
		if report != nil {
			if row, ok := report.Best[ref.Name()]; ok {
				v = row.Correlation
			}
		}
		acc.Add(name+" vs "+ref.Name(), v)
	}
}

func (o *Orchestrator) metaOnce(ctx context.Context, plan *Plan, dir string, i int) (MetaRun, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "experiment.meta")
	defer span.End()
	span.SetAttributes(attribute.Int("run", i))

	start := time.Now()
	exp := o.exporter(plan, dir, i)
	engine := o.engine(plan, exp)

	var pool []*clustering.Clustering
	for _, name := range plan.Meta.Algorithms {
		alg, err := o.Algorithms.Get(name)
		if err != nil {
			return MetaRun{}, err
		}
		method := ""
		if name == plan.Algorithm {
			method = plan.Method
		}
		out, err := engine.Search(ctx, search.Request{
			Dataset:   plan.Dataset,
			Algorithm: alg,
			Base:      plan.base(),
			Method:    method,
		})
		if err != nil {
			return MetaRun{}, err
		}
		pool = append(pool, out.Candidates...)
	}
	// One shuffled order feeds both the exported front and the
	// evaluator, so insertion-order ties carry no information.
	if plan.Meta.Shuffle {
		pool = rank.Shuffle(pool, plan.Meta.Seed+uint64(i))
	}
	span.SetAttributes(attribute.Int("candidates", len(pool)))

	objectives := plan.Meta.Objectives
	front := rankeval.FrontFor(pool, objectives, objectives[0], plan.Meta.MaxFronts)
	if err := exp.ExportFront(front, objectives); err != nil {
		return MetaRun{}, err
	}
	ranking := front.ComputeRanking()
	if err := exp.ExportScores(ranking); err != nil {
		return MetaRun{}, err
	}

	run := MetaRun{Index: i, Candidates: len(pool)}
	if ranking.Len() > 0 {
		run.Best = ranking[0].Clustering
		o.logger().Info("best template",
			"run", i,
			"algorithm", run.Best.Algorithm,
			"clusters", run.Best.Size(),
			"template", run.Best.Params.ToJSON())
	}

	if len(plan.Meta.References) > 0 {
		ev := &rankeval.Evaluator{
			Criteria:    objectives,
			Strategies:  plan.Meta.Strategies,
			Correlation: plan.Meta.Correlation,
			MaxFronts:   plan.Meta.MaxFronts,
			Sink:        o.sink(),
			Path:        filepath.Join(dir, "correlation"+exp.Suffix+".csv"),
			Logger:      o.logger(),
			Metrics:     o.Metrics,
		}
		report, err := ev.Evaluate(ctx, pool, plan.Meta.References...)
		if err != nil {
			return run, err
		}
		run.Report = report
	}
	run.Elapsed = time.Since(start)
	o.Metrics.RunCompleted()
	return run, nil
}
