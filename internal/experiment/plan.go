package experiment

import (
	"fmt"

	"github.com/TrevorS/clustersearch/internal/algorithm"
	"github.com/TrevorS/clustersearch/internal/config"
	"github.com/TrevorS/clustersearch/internal/dataset"
	"github.com/TrevorS/clustersearch/internal/eval"
	"github.com/TrevorS/clustersearch/internal/props"
	"github.com/TrevorS/clustersearch/internal/rank"
	"github.com/TrevorS/clustersearch/internal/rankeval"
)

// Plan is a resolved experiment: every name has been looked up in the
// registries and the base configuration parsed.
type Plan struct {
	// Name is the experiment sub-directory of Dir; empty means random.
	Name string
	Dir  string

	Dataset   *dataset.Dataset
	Algorithm string
	Base      *props.Props
	Method    string

	// Eval are the criteria exported for every result.
	Eval []eval.Criterion
	// OptEval is the criterion searches optimise.
	OptEval eval.Criterion
	Optimal bool
	HintK   bool
	Repeat  int

	// DensityEstimator overrides the radius bounds of density scans.
	DensityEstimator algorithm.ParamEstimator

	Meta MetaPlan
}

// MetaPlan configures MetaSearch.
type MetaPlan struct {
	Algorithms  []string
	Objectives  []eval.Criterion
	References  []eval.Criterion
	Strategies  []rankeval.Strategy
	Correlation rank.Correlator
	MaxFronts   int
	Shuffle     bool
	Seed        uint64
}

// Resolve turns validated settings into a plan for ds.
//
// Outputs:
//   - error: algorithm.ErrUnknown, eval.ErrUnknown or a parse error for
//     names and parameters that do not resolve.
func Resolve(cfg config.Experiment, ds *dataset.Dataset, algs *algorithm.Registry, crits *eval.Registry) (*Plan, error) {
	base, err := props.Parse(cfg.Params)
	if err != nil {
		return nil, fmt.Errorf("experiment: parameters: %w", err)
	}
	if _, err := algs.Get(cfg.Algorithm); err != nil {
		return nil, err
	}
	criteria, err := crits.Lookup(cfg.Eval...)
	if err != nil {
		return nil, err
	}
	opt, err := crits.Get(cfg.OptEval)
	if err != nil {
		return nil, err
	}

	plan := &Plan{
		Name:      cfg.Name,
		Dir:       cfg.Dir,
		Dataset:   ds,
		Algorithm: cfg.Algorithm,
		Base:      base,
		Method:    cfg.Method,
		Eval:      criteria,
		OptEval:   opt,
		Optimal:   cfg.Optimal,
		HintK:     cfg.HintK,
		Repeat:    max(cfg.Repeat, 1),
	}

	m := cfg.Meta
	plan.Meta.Algorithms = m.Algorithms
	if len(plan.Meta.Algorithms) == 0 {
		plan.Meta.Algorithms = []string{cfg.Algorithm}
	}
	for _, name := range plan.Meta.Algorithms {
		if _, err := algs.Get(name); err != nil {
			return nil, err
		}
	}
	if plan.Meta.Objectives, err = lookupOr(crits, m.Objectives, crits.Internal()); err != nil {
		return nil, err
	}
	if plan.Meta.References, err = lookupOr(crits, m.References, crits.External()); err != nil {
		return nil, err
	}
	for _, name := range m.Strategies {
		s, err := rankeval.StrategyByName(name)
		if err != nil {
			return nil, err
		}
		plan.Meta.Strategies = append(plan.Meta.Strategies, s)
	}
	if plan.Meta.Correlation, err = rank.CorrelatorByName(m.Correlation); err != nil {
		return nil, err
	}
	plan.Meta.MaxFronts = m.Fronts
	plan.Meta.Shuffle = m.Shuffle
	plan.Meta.Seed = m.Seed
	return plan, nil
}

func lookupOr(r *eval.Registry, names []string, def []eval.Criterion) ([]eval.Criterion, error) {
	if len(names) == 0 {
		return def, nil
	}
	return r.Lookup(names...)
}

// base returns the configuration of one run.
func (p *Plan) base() *props.Props {
	b := p.Base.Copy()
	if p.HintK && p.Dataset.HasClasses() {
		b.Put(algorithm.ParamK, p.Dataset.NumClasses())
	}
	return b
}
