package algorithm

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"

	"github.com/TrevorS/clustersearch/internal/clustering"
	"github.com/TrevorS/clustersearch/internal/dataset"
	"github.com/TrevorS/clustersearch/internal/props"
	"github.com/TrevorS/clustersearch/internal/spatial"
)

// CURE is hierarchical clustering using a fixed number of well scattered
// representatives per cluster, shrunk towards the cluster mean.
//
// Parameters: k (default: number of classes, else 3), shrink in (0, 1)
// (default 0.3), representatives (default 5), sample (points clustered
// hierarchically before the rest are assigned to the nearest
// representative, default 200), seed.
type CURE struct{}

func (*CURE) Name() string   { return "cure" }
func (*CURE) Family() Family { return FamilyShrink }

type cureCluster struct {
	members []int
	mean    []float64
	reps    [][]float64
}

func (a *CURE) Cluster(ds *dataset.Dataset, p *props.Props) (*clustering.Clustering, error) {
	k, err := kFrom(ds, p, 3)
	if err != nil {
		return nil, err
	}
	shrink := p.GetFloat(ParamShrink, 0.3)
	if shrink <= 0 || shrink >= 1 {
		return nil, fmt.Errorf("%w: %s must be in (0, 1), got %g", ErrInvalidParam, ParamShrink, shrink)
	}
	numReps := max(p.GetInt(ParamRepresentative, 5), 1)
	sampleSize := p.GetInt(ParamSample, 200)
	seed := uint64(p.GetInt(ParamSeed, 1))

	n := ds.Len()
	sample := make([]int, n)
	for i := range sample {
		sample[i] = i
	}
	if sampleSize > 0 && sampleSize < n {
		rng := rand.New(rand.NewPCG(seed, seed+13))
		rng.Shuffle(n, func(i, j int) { sample[i], sample[j] = sample[j], sample[i] })
		sample = sample[:max(sampleSize, k)]
	}

	clusters := make([]*cureCluster, len(sample))
	for i, idx := range sample {
		pt := ds.Points[idx]
		clusters[i] = &cureCluster{
			members: []int{idx},
			mean:    append([]float64(nil), pt...),
			reps:    [][]float64{pt},
		}
	}

	for len(clusters) > k {
		i, j := closestPair(clusters)
		clusters[i] = mergeCure(ds, clusters[i], clusters[j], numReps, shrink)
		clusters = append(clusters[:j], clusters[j+1:]...)
	}

	labels := make([]int, n)
	for i := range labels {
		labels[i] = -1
	}
	for c, cl := range clusters {
		for _, m := range cl.members {
			labels[m] = c
		}
	}
	for i, l := range labels {
		if l >= 0 {
			continue
		}
		best, bestDist := 0, math.Inf(1)
		for c, cl := range clusters {
			for _, r := range cl.reps {
				if d := spatial.SquaredEuclidean(ds.Points[i], r); d < bestDist {
					best, bestDist = c, d
				}
			}
		}
		labels[i] = best
	}
	return clustering.New(a.Name(), ds, labels), nil
}

// closestPair returns indices a < b of the two clusters whose
// representatives are nearest.
func closestPair(clusters []*cureCluster) (int, int) {
	ba, bb, best := 0, 1, math.Inf(1)
	for i := 0; i < len(clusters); i++ {
		for j := i + 1; j < len(clusters); j++ {
			if d := repDistance(clusters[i], clusters[j]); d < best {
				ba, bb, best = i, j, d
			}
		}
	}
	return ba, bb
}

func repDistance(a, b *cureCluster) float64 {
	best := math.Inf(1)
	for _, x := range a.reps {
		for _, y := range b.reps {
			best = min(best, spatial.SquaredEuclidean(x, y))
		}
	}
	return best
}

func mergeCure(ds *dataset.Dataset, a, b *cureCluster, numReps int, shrink float64) *cureCluster {
	members := append(append([]int(nil), a.members...), b.members...)
	mean := make([]float64, len(a.mean))
	floats.AddScaled(mean, float64(len(a.members)), a.mean)
	floats.AddScaled(mean, float64(len(b.members)), b.mean)
	floats.Scale(1/float64(len(members)), mean)

	// Farthest-point selection of well scattered members.
	var scattered [][]float64
	for len(scattered) < numReps && len(scattered) < len(members) {
		var pick []float64
		bestDist := -1.0
		for _, m := range members {
			pt := ds.Points[m]
			var d float64
			if len(scattered) == 0 {
				d = spatial.SquaredEuclidean(pt, mean)
			} else {
				d = math.Inf(1)
				for _, s := range scattered {
					d = min(d, spatial.SquaredEuclidean(pt, s))
				}
			}
			if d > bestDist {
				pick, bestDist = pt, d
			}
		}
		scattered = append(scattered, pick)
	}

	reps := make([][]float64, len(scattered))
	for i, s := range scattered {
		r := make([]float64, len(s))
		for d := range r {
			r[d] = s[d] + shrink*(mean[d]-s[d])
		}
		reps[i] = r
	}
	return &cureCluster{members: members, mean: mean, reps: reps}
}
