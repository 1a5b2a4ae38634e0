package rankeval

import (
	"errors"
	"fmt"
	"strings"

	"github.com/TrevorS/clustersearch/internal/clustering"
	"github.com/TrevorS/clustersearch/internal/eval"
	"github.com/TrevorS/clustersearch/internal/pareto"
	"github.com/TrevorS/clustersearch/internal/props"
	"github.com/TrevorS/clustersearch/internal/rank"
)

// ErrUnknownStrategy is returned by StrategyByName.
var ErrUnknownStrategy = errors.New("rankeval: unknown ranking strategy")

// Strategy turns a set of objectives and a sorting criterion into a
// ranking of the results.
type Strategy interface {
	Name() string
	// MinObjectives is the size of the objective sets the strategy is
	// evaluated with.
	MinObjectives() int
	// Rank orders results and reports how many were left out.
	Rank(results []*clustering.Clustering, objectives []eval.Criterion, sortBy eval.Criterion, maxFronts int, p *props.Props) (rank.Ranking, int)
}

// Sort ranks by a single criterion, with no Pareto front.
type Sort struct{}

func (Sort) Name() string       { return "sort" }
func (Sort) MinObjectives() int { return 1 }

func (Sort) Rank(results []*clustering.Clustering, objectives []eval.Criterion, _ eval.Criterion, _ int, p *props.Props) (rank.Ranking, int) {
	return rank.SortBy(results, objectives[0], p), 0
}

// Pareto ranks by successive non-dominated fronts over K objectives.
type Pareto struct {
	K int
}

func (s Pareto) Name() string {
	if s.K == 2 {
		return "pareto"
	}
	return fmt.Sprintf("pareto%d", s.K)
}

func (s Pareto) MinObjectives() int { return s.K }

func (Pareto) Rank(results []*clustering.Clustering, objectives []eval.Criterion, sortBy eval.Criterion, maxFronts int, p *props.Props) (rank.Ranking, int) {
	f := pareto.New(maxFronts, objectives, sortBy, p)
	for _, c := range results {
		f.Add(c)
	}
	return f.ComputeRanking(), f.Excluded()
}

// Strategies lists every built-in strategy.
func Strategies() []Strategy {
	return []Strategy{Sort{}, Pareto{K: 2}, Pareto{K: 3}}
}

// StrategyByName resolves a strategy name, case-insensitively.
func StrategyByName(name string) (Strategy, error) {
	for _, s := range Strategies() {
		if strings.EqualFold(s.Name(), strings.TrimSpace(name)) {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
}

// combinations returns every ascending k-subset of 0..n-1 in lexicographic
// order.
func combinations(n, k int) [][]int {
	if k <= 0 || k > n {
		return nil
	}
	var out [][]int
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	for {
		out = append(out, append([]int(nil), idx...))
		i := k - 1
		for i >= 0 && idx[i] == n-k+i {
			i--
		}
		if i < 0 {
			return out
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}
