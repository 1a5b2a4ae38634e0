// Package experiment sequences repeated clustering runs over one dataset.
//
// Each repeat is an independent pipeline: it owns a copy of the base
// configuration, a fresh algorithm instance and its own export files
// (suffixed with the run number). Repeats run concurrently, bounded by the
// repeat count. A failing repeat stops new repeats from being scheduled and
// its error is returned once the others finish.
package experiment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/TrevorS/clustersearch/internal/algorithm"
	"github.com/TrevorS/clustersearch/internal/clustering"
	"github.com/TrevorS/clustersearch/internal/dataset"
	"github.com/TrevorS/clustersearch/internal/eval"
	"github.com/TrevorS/clustersearch/internal/export"
	"github.com/TrevorS/clustersearch/internal/props"
	"github.com/TrevorS/clustersearch/internal/search"
	"github.com/TrevorS/clustersearch/internal/telemetry"
)

// ErrNoPlan is returned for a nil plan or a plan without a dataset.
var ErrNoPlan = errors.New("experiment: incomplete plan")

// Run is the result of one repeat.
type Run struct {
	Index int
	// Best is the winning clustering, or the single result when the
	// search is disabled.
	Best      *clustering.Clustering
	Score     float64
	Label     string
	Evaluated int
	Failures  int
	Elapsed   time.Duration
}

// Summary describes a finished experiment.
type Summary struct {
	Name      string
	Dir       string
	Dataset   string
	Algorithm string
	Criterion string
	Runs      []Run
	Stats     []Stat
	Elapsed   time.Duration
}

// Orchestrator runs experiments. Algorithms is required.
type Orchestrator struct {
	Algorithms *algorithm.Registry
	// Sink writes every file; nil means a comma separated sink.
	Sink    *export.Sink
	Logger  *slog.Logger
	Metrics *telemetry.Metrics
}

func (o *Orchestrator) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o *Orchestrator) sink() *export.Sink {
	if o.Sink != nil {
		return o.Sink
	}
	return export.NewSink(export.DefaultSeparator)
}

// WorkDir creates the experiment directory root/name and returns its path.
// An empty name is replaced by a random one.
func WorkDir(root, name string) (string, error) {
	name = dataset.SafeName(name)
	if name == "" {
		name = uuid.NewString()
	}
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("experiment: create %s: %w", dir, err)
	}
	return dir, nil
}

func checkPlan(p *Plan) error {
	if p == nil || p.Dataset == nil {
		return ErrNoPlan
	}
	if p.OptEval == nil {
		return fmt.Errorf("%w: no optimisation criterion", ErrNoPlan)
	}
	return p.Dataset.Validate()
}

// Run executes plan.Repeat repeats of the plan's algorithm. With Optimal
// set each repeat searches for the best configuration; otherwise it runs
// the base configuration once. Per-measure statistics over the repeats are
// appended to {dataset}-meta.csv in the work directory.
func (o *Orchestrator) Run(ctx context.Context, plan *Plan) (*Summary, error) {
	if err := checkPlan(plan); err != nil {
		return nil, err
	}
	dir, err := WorkDir(plan.Dir, plan.Name)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	sum := &Summary{
		Name:      filepath.Base(dir),
		Dir:       dir,
		Dataset:   plan.Dataset.Name,
		Algorithm: plan.Algorithm,
		Criterion: plan.OptEval.Name(),
		Runs:      make([]Run, plan.Repeat),
	}
	o.logger().Info("experiment started",
		"experiment", sum.Name,
		"dataset", sum.Dataset,
		"algorithm", plan.Algorithm,
		"repeat", plan.Repeat,
		"optimal", plan.Optimal)

	acc := NewAccumulator()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(plan.Repeat)
	for i := range plan.Repeat {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			run, err := o.runOnce(gctx, plan, dir, i)
			if err != nil {
				return fmt.Errorf("experiment: run %d: %w", i, err)
			}
			acc.AddClustering(plan.Eval, run.Best, run.Elapsed)
			sum.Runs[i] = run
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sum.Stats = acc.Stats()
	path := filepath.Join(dir, plan.Dataset.SafeName()+"-meta.csv")
	if err := writeStats(o.sink(), path, plan.Dataset.Name, plan.Algorithm, sum.Stats); err != nil {
		return nil, err
	}
	sum.Elapsed = time.Since(start)
	o.logger().Info("experiment finished",
		"experiment", sum.Name,
		"dir", dir,
		"elapsed", sum.Elapsed)
	return sum, nil
}

func (o *Orchestrator) exporter(plan *Plan, dir string, run int) *export.Exporter {
	exp := export.NewExporter(o.sink(), dir, plan.Eval, run)
	exp.Logger = o.logger()
	return exp
}

func (o *Orchestrator) engine(plan *Plan, rec search.Recorder) *search.Engine {
	return &search.Engine{
		Criterion:        plan.OptEval,
		Sink:             rec,
		Logger:           o.logger(),
		Metrics:          o.Metrics,
		DensityEstimator: plan.DensityEstimator,
	}
}

func (o *Orchestrator) runOnce(ctx context.Context, plan *Plan, dir string, i int) (Run, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "experiment.run")
	defer span.End()
	span.SetAttributes(
		attribute.Int("run", i),
		attribute.String("algorithm", plan.Algorithm),
		attribute.Bool("optimal", plan.Optimal),
	)

	alg, err := o.Algorithms.Get(plan.Algorithm)
	if err != nil {
		return Run{}, err
	}
	exp := o.exporter(plan, dir, i)
	base := plan.base()
	start := time.Now()

	run := Run{Index: i}
	if plan.Optimal {
		out, err := o.engine(plan, exp).Search(ctx, search.Request{
			Dataset:   plan.Dataset,
			Algorithm: alg,
			Base:      base,
			Method:    plan.Method,
		})
		if err != nil {
			return run, err
		}
		if err := o.exportEstimate(plan, exp, out); err != nil {
			return run, err
		}
		run.Best, run.Score, run.Label = out.Best, out.Score, out.Label
		run.Evaluated, run.Failures = out.Evaluated, out.Failures
	} else {
		c, err := clusterOnce(alg, plan.Dataset, base)
		if err != nil {
			return run, err
		}
		o.Metrics.ObserveCandidate(alg.Name(), c.Elapsed)
		if err := exp.Record(c); err != nil {
			return run, err
		}
		run.Best, run.Label, run.Evaluated = c, base.String(), 1
		run.Score, err = eval.Evaluate(plan.OptEval, c, c.Params)
		if err != nil {
			run.Failures = 1
			o.Metrics.ScoreFailed(plan.OptEval.Name())
		}
	}
	run.Elapsed = time.Since(start)
	o.Metrics.RunCompleted()
	o.logger().Info("run finished",
		"run", i,
		"algorithm", alg.Name(),
		"clusters", run.Best.Size(),
		"score", run.Score,
		"config", run.Best.Params,
		"elapsed", run.Elapsed)
	return run, nil
}

// clusterOnce runs alg with p and stamps the result with p and its run time.
func clusterOnce(alg algorithm.Algorithm, ds *dataset.Dataset, p *props.Props) (*clustering.Clustering, error) {
	start := time.Now()
	c, err := alg.Cluster(ds, p)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", alg.Name(), err)
	}
	c.Elapsed = time.Since(start)
	c.Params = p
	return c, nil
}

// exportEstimate writes the k-distance curve of a density scan.
func (o *Orchestrator) exportEstimate(plan *Plan, exp *export.Exporter, out *search.Outcome) error {
	if out.Estimate == nil || len(out.Estimate.Curve) == 0 {
		return nil
	}
	k := 4
	if est, ok := plan.DensityEstimator.(algorithm.KDistEstimator); ok && est.K > 0 {
		k = est.K
	}
	return exp.ExportKDist(plan.Dataset.SafeName(), k, out.Estimate.Curve)
}
