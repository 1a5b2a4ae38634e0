package algorithm

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/TrevorS/clustersearch/internal/clustering"
	"github.com/TrevorS/clustersearch/internal/dataset"
	"github.com/TrevorS/clustersearch/internal/props"
	"github.com/TrevorS/clustersearch/internal/spatial"
)

// AffinityPropagation chooses exemplars by passing responsibility and
// availability messages between points.
//
// Parameters: damping in [0.5, 1) (default 0.5), max-iter (default 200),
// preference (default: the preference-quantile of the similarities),
// preference-quantile in (0, 1) (default 0.5, the median).
type AffinityPropagation struct{}

func (*AffinityPropagation) Name() string   { return "affinity-propagation" }
func (*AffinityPropagation) Family() Family { return FamilyDamping }

// convergenceIter is the number of iterations the exemplar set must stay
// unchanged before the run stops early.
const convergenceIter = 15

func (a *AffinityPropagation) Cluster(ds *dataset.Dataset, p *props.Props) (*clustering.Clustering, error) {
	damping := p.GetFloat(ParamDamping, 0.5)
	if damping < 0.5 || damping >= 1 {
		return nil, fmt.Errorf("%w: %s must be in [0.5, 1), got %g", ErrInvalidParam, ParamDamping, damping)
	}
	maxIter := p.GetInt(ParamMaxIter, 200)
	q := p.GetFloat(ParamPreferenceQuantile, 0.5)
	if q <= 0 || q >= 1 {
		return nil, fmt.Errorf("%w: %s must be in (0, 1), got %g", ErrInvalidParam, ParamPreferenceQuantile, q)
	}
	n := ds.Len()

	s := make([]float64, n*n)
	off := make([]float64, 0, n*(n-1))
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i != j {
				v := -spatial.SquaredEuclidean(ds.Points[i], ds.Points[j])
				s[i*n+j] = v
				off = append(off, v)
			}
		}
	}
	pref := 0.0
	if len(off) > 0 {
		sort.Float64s(off)
		pref = stat.Quantile(q, stat.Empirical, off, nil)
	}
	pref = p.GetFloat(ParamPreference, pref)
	for i := 0; i < n; i++ {
		s[i*n+i] = pref
	}

	r := make([]float64, n*n)
	av := make([]float64, n*n)
	exemplars := make([]bool, n)
	stable := 0
	for iter := 0; iter < maxIter && stable < convergenceIter; iter++ {
		// Responsibilities.
		for i := 0; i < n; i++ {
			first, second := math.Inf(-1), math.Inf(-1)
			arg := -1
			for k := 0; k < n; k++ {
				v := av[i*n+k] + s[i*n+k]
				if v > first {
					second, first, arg = first, v, k
				} else if v > second {
					second = v
				}
			}
			for k := 0; k < n; k++ {
				m := first
				if k == arg {
					m = second
				}
				r[i*n+k] = damping*r[i*n+k] + (1-damping)*(s[i*n+k]-m)
			}
		}
		// Availabilities.
		for k := 0; k < n; k++ {
			var sum float64
			for i := 0; i < n; i++ {
				if i != k {
					sum += max(0, r[i*n+k])
				}
			}
			for i := 0; i < n; i++ {
				var v float64
				if i == k {
					v = sum
				} else {
					v = min(0, r[k*n+k]+sum-max(0, r[i*n+k]))
				}
				av[i*n+k] = damping*av[i*n+k] + (1-damping)*v
			}
		}

		changed := false
		for k := 0; k < n; k++ {
			e := r[k*n+k]+av[k*n+k] > 0
			if e != exemplars[k] {
				exemplars[k] = e
				changed = true
			}
		}
		if changed {
			stable = 0
		} else {
			stable++
		}
	}

	var centres []int
	for k, e := range exemplars {
		if e {
			centres = append(centres, k)
		}
	}
	labels := make([]int, n)
	if len(centres) == 0 {
		// Not converged to any exemplar: a single cluster.
		return clustering.New(a.Name(), ds, labels), nil
	}
	for i := 0; i < n; i++ {
		best, bestSim := 0, math.Inf(-1)
		for c, k := range centres {
			if i == k {
				best = c
				break
			}
			if s[i*n+k] > bestSim {
				best, bestSim = c, s[i*n+k]
			}
		}
		labels[i] = best
	}
	return clustering.New(a.Name(), ds, labels), nil
}
