package algorithm

import (
	"fmt"

	"github.com/TrevorS/clustersearch/internal/clustering"
	"github.com/TrevorS/clustersearch/internal/dataset"
	"github.com/TrevorS/clustersearch/internal/hierarchy"
	"github.com/TrevorS/clustersearch/internal/props"
	"github.com/TrevorS/clustersearch/internal/spatial"
)

// HDBSCAN is hierarchical density-based clustering: a single-linkage tree
// over mutual reachability distances, condensed and flattened by cluster
// stability.
//
// Parameters: min-cluster-size (>= 2, default 5), min-samples (default
// min-cluster-size), selection ("eom" or "leaf", default "eom"),
// allow-single-cluster (default false), alpha (> 0, default 1), distance,
// workers.
type HDBSCAN struct{}

func (*HDBSCAN) Name() string   { return "hdbscan" }
func (*HDBSCAN) Family() Family { return FamilyPreset }

func (a *HDBSCAN) Cluster(ds *dataset.Dataset, p *props.Props) (*clustering.Clustering, error) {
	minClusterSize := p.GetInt(ParamMinClusterSize, 5)
	if minClusterSize < 2 {
		return nil, fmt.Errorf("%w: %s must be >= 2, got %d", ErrInvalidParam, ParamMinClusterSize, minClusterSize)
	}
	minSamples := p.GetInt(ParamMinSamples, minClusterSize)
	if minSamples < 1 {
		return nil, fmt.Errorf("%w: %s must be >= 1, got %d", ErrInvalidParam, ParamMinSamples, minSamples)
	}
	alpha := p.GetFloat(ParamAlpha, 1)
	if alpha <= 0 {
		return nil, fmt.Errorf("%w: %s must be > 0, got %g", ErrInvalidParam, ParamAlpha, alpha)
	}
	selection := p.GetString(ParamSelection, "eom")
	if selection != "eom" && selection != "leaf" {
		return nil, fmt.Errorf("%w: %s must be \"eom\" or \"leaf\", got %q", ErrInvalidParam, ParamSelection, selection)
	}
	metric, err := metricFrom(p)
	if err != nil {
		return nil, err
	}
	workers := p.GetInt(ParamWorkers, 0)

	n := ds.Len()
	labels := make([]int, n)
	for i := range labels {
		labels[i] = clustering.Noise
	}
	if n < 2 {
		return clustering.New(a.Name(), ds, labels), nil
	}

	dist := spatial.Pairwise(ds.Points, metric, workers)
	core := spatial.CoreDistances(dist, minSamples, workers)
	mr := spatial.MutualReachability(dist, core, alpha, workers)
	merges := hierarchy.SingleLinkage(hierarchy.PrimMST(mr), n)
	tree := hierarchy.Condense(merges, minClusterSize)
	if len(tree) == 0 {
		return clustering.New(a.Name(), ds, labels), nil
	}

	var selected map[int]bool
	if selection == "leaf" {
		selected = hierarchy.SelectLeaf(tree)
	} else {
		selected = hierarchy.SelectEOM(tree, hierarchy.Stability(tree), p.GetBool(ParamAllowSingle, false))
	}
	return clustering.New(a.Name(), ds, hierarchy.Labels(tree, selected, n)), nil
}
