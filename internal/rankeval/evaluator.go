// Package rankeval measures how well unsupervised criteria, alone or
// combined through Pareto fronts, reproduce the ranking a supervised
// criterion gives a set of clustering results.
//
// For every reference criterion the results are sorted once. Then every
// strategy ranks them for every objective set of its size and every
// choice of sorting criterion, and the rank correlation of each candidate
// ranking with the reference is reported and exported.
package rankeval

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/TrevorS/clustersearch/internal/clustering"
	"github.com/TrevorS/clustersearch/internal/eval"
	"github.com/TrevorS/clustersearch/internal/export"
	"github.com/TrevorS/clustersearch/internal/pareto"
	"github.com/TrevorS/clustersearch/internal/rank"
	"github.com/TrevorS/clustersearch/internal/telemetry"
)

var (
	// ErrNoCriteria is returned when there is nothing to combine.
	ErrNoCriteria = errors.New("rankeval: no unsupervised criteria")

	// ErrNoReference is returned when no supervised criterion is given.
	ErrNoReference = errors.New("rankeval: no reference criterion")

	// ErrNoResults is returned for an empty result set.
	ErrNoResults = errors.New("rankeval: no results to rank")
)

// LabelSeparator joins criterion names in a row label.
const LabelSeparator = " & "

// Row is one exported correlation.
type Row struct {
	Dataset   string
	Algorithm string
	// Clusters is the cluster count of the reference winner.
	Clusters      int
	Reference     string
	Label         string
	NumObjectives int
	Method        string
	Excluded      int
	Correlation   float64
}

// Report collects every row of an evaluation and the best row per
// reference criterion.
type Report struct {
	Rows []Row
	// Best maps a reference criterion name to its best correlating row.
	Best map[string]Row
}

// Evaluator compares criteria combinations against supervised references.
type Evaluator struct {
	// Criteria are the unsupervised criteria to combine.
	Criteria   []eval.Criterion
	Strategies []Strategy
	// Correlation defaults to Spearman.
	Correlation rank.Correlator
	// MaxFronts bounds the Pareto fronts; <= 0 means pareto.DefaultMaxFronts.
	MaxFronts int

	// Sink and Path receive one row per combination. Rows are not written
	// when either is unset.
	Sink *export.Sink
	Path string

	Logger  *slog.Logger
	Metrics *telemetry.Metrics
}

func (e *Evaluator) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

func (e *Evaluator) correlator() rank.Correlator {
	if e.Correlation != nil {
		return e.Correlation
	}
	return rank.Spearman{}
}

// Columns returns the header of the correlation file.
func (e *Evaluator) Columns() []string {
	return []string{"dataset", "algorithm", "clusters", "reference", "ranking", "num-objectives", "method", "excluded", e.correlator().Name()}
}

func (e *Evaluator) values(r Row) []string {
	return []string{
		r.Dataset,
		r.Algorithm,
		strconv.Itoa(r.Clusters),
		r.Reference,
		r.Label,
		strconv.Itoa(r.NumObjectives),
		r.Method,
		strconv.Itoa(r.Excluded),
		export.FormatFloat(r.Correlation),
	}
}

// combo is one objective set with its sorting criterion.
type combo struct {
	objectives []eval.Criterion
	sortBy     eval.Criterion
	label      string
}

func (e *Evaluator) combos(s Strategy) []combo {
	k := s.MinObjectives()
	if k == 1 {
		out := make([]combo, len(e.Criteria))
		for i, c := range e.Criteria {
			out[i] = combo{objectives: []eval.Criterion{c}, sortBy: c, label: c.Name()}
		}
		return out
	}
	var out []combo
	for _, set := range combinations(len(e.Criteria), k) {
		objectives := make([]eval.Criterion, k)
		names := make([]string, 0, k+1)
		for i, j := range set {
			objectives[i] = e.Criteria[j]
			names = append(names, e.Criteria[j].Name())
		}
		for _, sortBy := range e.Criteria {
			out = append(out, combo{
				objectives: objectives,
				sortBy:     sortBy,
				label:      strings.Join(append(slices.Clone(names), sortBy.Name()), LabelSeparator),
			})
		}
	}
	return out
}

// Evaluate ranks results under every strategy and objective set and
// correlates each ranking with the ranking of every supervised criterion.
func (e *Evaluator) Evaluate(ctx context.Context, results []*clustering.Clustering, supervised ...eval.Criterion) (*Report, error) {
	if len(e.Criteria) == 0 {
		return nil, ErrNoCriteria
	}
	if len(supervised) == 0 {
		return nil, ErrNoReference
	}
	if len(results) == 0 {
		return nil, ErrNoResults
	}
	strategies := e.Strategies
	if len(strategies) == 0 {
		strategies = Strategies()
	}

	_, span := telemetry.Tracer().Start(ctx, "rankeval")
	defer span.End()
	span.SetAttributes(
		attribute.Int("results", len(results)),
		attribute.Int("criteria", len(e.Criteria)),
		attribute.Int("references", len(supervised)),
	)

	corr := e.correlator()
	meta := describe(results)
	report := &Report{Best: make(map[string]Row)}

	for _, ref := range supervised {
		reference := rank.SortBy(results, ref, nil).Clusterings()
		idx := rank.NewIndexMap(reference)
		best := math.Inf(-1)
		e.logger().Info("reference ranking",
			"reference", ref.Name(),
			"results", len(reference),
			"winner", reference[0].Params,
			"clusters", reference[0].Size())

		for _, s := range strategies {
			if s.MinObjectives() > len(e.Criteria) {
				e.logger().Warn("not enough criteria for strategy",
					"method", s.Name(),
					"needs", s.MinObjectives(),
					"have", len(e.Criteria))
				continue
			}
			strategyBest := math.Inf(-1)
			for _, cb := range e.combos(s) {
				ranking, excluded := s.Rank(results, cb.objectives, cb.sortBy, e.MaxFronts, nil)
				if excluded > 0 {
					e.logger().Debug("results excluded from fronts", "ranking", cb.label, "excluded", excluded)
				}
				if ranking.Len() != len(reference) {
					e.logger().Warn("ranking size differs from reference",
						"ranking", cb.label,
						"size", ranking.Len(),
						"reference", len(reference))
				}
				row := Row{
					Dataset:       meta.dataset,
					Algorithm:     meta.algorithms,
					Clusters:      reference[0].Size(),
					Reference:     ref.Name(),
					Label:         cb.label,
					NumObjectives: len(cb.objectives),
					Method:        s.Name(),
					Excluded:      excluded,
					Correlation:   corr.Correlation(ranking.Clusterings(), reference, idx),
				}
				report.Rows = append(report.Rows, row)
				e.logger().Info("correlation",
					"reference", ref.Name(),
					"ranking", row.Label,
					"method", row.Method,
					corr.Name(), row.Correlation)

				if row.Correlation > best {
					best = row.Correlation
					report.Best[ref.Name()] = row
					e.logger().Info("best result so far",
						"reference", ref.Name(),
						"ranking", row.Label,
						corr.Name(), row.Correlation)
				}
				strategyBest = max(strategyBest, nanToInf(row.Correlation))
				if err := e.write(row); err != nil {
					return report, err
				}
			}
			if !math.IsInf(strategyBest, -1) {
				e.Metrics.SetCorrelation(s.Name(), strategyBest)
			}
		}
	}
	span.SetAttributes(attribute.Int("rows", len(report.Rows)))
	return report, nil
}

func nanToInf(v float64) float64 {
	if math.IsNaN(v) {
		return math.Inf(-1)
	}
	return v
}

func (e *Evaluator) write(r Row) error {
	if e.Sink == nil || e.Path == "" {
		return nil
	}
	return e.Sink.Append(e.Path, e.Columns(), e.values(r))
}

type resultMeta struct {
	dataset    string
	algorithms string
}

// describe summarises the dataset and the distinct algorithms of results.
func describe(results []*clustering.Clustering) resultMeta {
	var m resultMeta
	var algs []string
	for _, c := range results {
		if m.dataset == "" && c.Dataset != nil {
			m.dataset = c.Dataset.Name
		}
		if !slices.Contains(algs, c.Algorithm) {
			algs = append(algs, c.Algorithm)
		}
	}
	slices.Sort(algs)
	m.algorithms = strings.Join(algs, "+")
	return m
}

// FrontFor builds the Pareto front of results under objectives for export.
func FrontFor(results []*clustering.Clustering, objectives []eval.Criterion, sortBy eval.Criterion, maxFronts int) *pareto.Front {
	f := pareto.New(maxFronts, objectives, sortBy, nil)
	for _, c := range results {
		f.Add(c)
	}
	return f
}
