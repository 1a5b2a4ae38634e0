package algorithm

import (
	"fmt"

	"github.com/TrevorS/clustersearch/internal/clustering"
	"github.com/TrevorS/clustersearch/internal/dataset"
	"github.com/TrevorS/clustersearch/internal/props"
	"github.com/TrevorS/clustersearch/internal/spatial"
)

// DBSCAN is density-based clustering with a fixed radius.
//
// Parameters: eps (radius, default 0.5), min-pts (neighbourhood size,
// counting the point itself, default 4), distance.
type DBSCAN struct{}

func (*DBSCAN) Name() string   { return "dbscan" }
func (*DBSCAN) Family() Family { return FamilyDensity }

func (a *DBSCAN) Cluster(ds *dataset.Dataset, p *props.Props) (*clustering.Clustering, error) {
	eps := p.GetFloat(ParamEps, 0.5)
	minPts := p.GetInt(ParamMinPts, 4)
	if eps <= 0 {
		return nil, fmt.Errorf("%w: %s must be > 0, got %g", ErrInvalidParam, ParamEps, eps)
	}
	if minPts < 1 {
		return nil, fmt.Errorf("%w: %s must be >= 1, got %d", ErrInvalidParam, ParamMinPts, minPts)
	}
	metric, err := metricFrom(p)
	if err != nil {
		return nil, err
	}

	const unvisited = -2
	n := ds.Len()
	tree := spatial.NewKDTree(ds.Points, metric, 16)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = unvisited
	}

	cluster := 0
	for i := 0; i < n; i++ {
		if labels[i] != unvisited {
			continue
		}
		seeds := tree.Radius(ds.Points[i], eps)
		if len(seeds) < minPts {
			labels[i] = clustering.Noise
			continue
		}
		labels[i] = cluster
		queue := seeds
		for len(queue) > 0 {
			j := queue[0]
			queue = queue[1:]
			if labels[j] == clustering.Noise {
				labels[j] = cluster
			}
			if labels[j] != unvisited {
				continue
			}
			labels[j] = cluster
			if nb := tree.Radius(ds.Points[j], eps); len(nb) >= minPts {
				queue = append(queue, nb...)
			}
		}
		cluster++
	}
	return clustering.New(a.Name(), ds, labels), nil
}
