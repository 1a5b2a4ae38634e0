package algorithm

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"

	"github.com/TrevorS/clustersearch/internal/clustering"
	"github.com/TrevorS/clustersearch/internal/dataset"
	"github.com/TrevorS/clustersearch/internal/props"
	"github.com/TrevorS/clustersearch/internal/spatial"
)

// KMeans is Lloyd's algorithm with k-means++ seeding.
//
// Parameters: k (default: number of classes, else 3), max-iter (default 100),
// seed (default 1).
type KMeans struct{}

func (*KMeans) Name() string   { return "k-means" }
func (*KMeans) Family() Family { return FamilyNone }

func (a *KMeans) Cluster(ds *dataset.Dataset, p *props.Props) (*clustering.Clustering, error) {
	k, err := kFrom(ds, p, 3)
	if err != nil {
		return nil, err
	}
	maxIter := p.GetInt(ParamMaxIter, 100)
	seed := uint64(p.GetInt(ParamSeed, 1))
	rng := rand.New(rand.NewPCG(seed, seed*31+7))

	centroids := seedPlusPlus(ds.Points, k, rng)
	labels := make([]int, ds.Len())
	for i := range labels {
		labels[i] = -1
	}

	for iter := 0; iter < maxIter; iter++ {
		changed := false
		for i, pt := range ds.Points {
			best, bestDist := 0, math.Inf(1)
			for c, centre := range centroids {
				if d := spatial.SquaredEuclidean(pt, centre); d < bestDist {
					best, bestDist = c, d
				}
			}
			if labels[i] != best {
				labels[i] = best
				changed = true
			}
		}
		if !changed {
			break
		}
		updateCentroids(ds.Points, labels, centroids)
	}
	return clustering.New(a.Name(), ds, labels), nil
}

// seedPlusPlus picks k initial centres, each sampled with probability
// proportional to its squared distance from the nearest centre so far.
func seedPlusPlus(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	centres := make([][]float64, 0, k)
	first := points[rng.IntN(len(points))]
	centres = append(centres, append([]float64(nil), first...))

	dist := make([]float64, len(points))
	for len(centres) < k {
		last := centres[len(centres)-1]
		for i, pt := range points {
			d := spatial.SquaredEuclidean(pt, last)
			if len(centres) == 1 || d < dist[i] {
				dist[i] = d
			}
		}
		total := floats.Sum(dist)
		pick := 0
		if total > 0 {
			target := rng.Float64() * total
			for i, d := range dist {
				target -= d
				if target <= 0 {
					pick = i
					break
				}
			}
		} else {
			pick = rng.IntN(len(points))
		}
		centres = append(centres, append([]float64(nil), points[pick]...))
	}
	return centres
}

func updateCentroids(points [][]float64, labels []int, centroids [][]float64) {
	counts := make([]int, len(centroids))
	sums := make([][]float64, len(centroids))
	for c := range sums {
		sums[c] = make([]float64, len(points[0]))
	}
	for i, pt := range points {
		floats.Add(sums[labels[i]], pt)
		counts[labels[i]]++
	}
	for c := range centroids {
		if counts[c] == 0 {
			continue // keep an empty cluster's centre where it was
		}
		floats.Scale(1/float64(counts[c]), sums[c])
		copy(centroids[c], sums[c])
	}
}
