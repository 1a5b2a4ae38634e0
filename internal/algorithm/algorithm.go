// Package algorithm provides the clustering algorithms driven by the search
// engine, an explicit registry to look them up by name, and the parameter
// estimators used to bound continuous searches.
//
// Every algorithm declares a Family. The search engine picks its strategy
// from the family alone and never inspects concrete algorithm types.
package algorithm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/TrevorS/clustersearch/internal/clustering"
	"github.com/TrevorS/clustersearch/internal/dataset"
	"github.com/TrevorS/clustersearch/internal/props"
	"github.com/TrevorS/clustersearch/internal/spatial"
)

// Parameter keys understood by the built-in algorithms.
const (
	ParamK                  = "k"
	ParamEps                = "eps"
	ParamMinPts             = "min-pts"
	ParamShrink             = "shrink"
	ParamRepresentative     = "representatives"
	ParamSample             = "sample"
	ParamDamping            = "damping"
	ParamPreference         = "preference"
	ParamPreferenceQuantile = "preference-quantile"
	ParamLinkage            = "linkage"
	ParamMetric             = "distance"
	ParamMaxIter            = "max-iter"
	ParamSeed               = "seed"
	ParamMinClusterSize     = "min-cluster-size"
	ParamMinSamples         = "min-samples"
	ParamSelection          = "selection"
	ParamAllowSingle        = "allow-single-cluster"
	ParamAlpha              = "alpha"
	ParamWorkers            = "workers"
)

var (
	// ErrUnknown is returned when no algorithm is registered under a name.
	ErrUnknown = errors.New("algorithm: unknown algorithm")

	// ErrAlreadyRegistered is returned when a name is registered twice.
	ErrAlreadyRegistered = errors.New("algorithm: already registered")

	// ErrInvalidParam is returned for out-of-range parameter values.
	ErrInvalidParam = errors.New("algorithm: invalid parameter")
)

// Family groups algorithms by the shape of their configuration space.
type Family int

const (
	// FamilyNone has no dedicated search; a single run is performed.
	FamilyNone Family = iota
	// FamilyDensity is searched on an (eps, min-pts) grid.
	FamilyDensity
	// FamilyShrink is searched along a single shrink factor in (0, 1).
	FamilyShrink
	// FamilyCriterion is searched over a catalog of merge criteria.
	FamilyCriterion
	// FamilyDamping is searched over a catalog of damping factors.
	FamilyDamping
	// FamilyPreset is searched over named preset catalogs.
	FamilyPreset
)

func (f Family) String() string {
	switch f {
	case FamilyDensity:
		return "density"
	case FamilyShrink:
		return "shrink"
	case FamilyCriterion:
		return "criterion"
	case FamilyDamping:
		return "damping"
	case FamilyPreset:
		return "preset"
	default:
		return "none"
	}
}

// Algorithm is a clustering procedure. Cluster must not modify p; the
// returned Clustering's Params is filled in by the caller.
type Algorithm interface {
	Name() string
	Family() Family
	Cluster(ds *dataset.Dataset, p *props.Props) (*clustering.Clustering, error)
}

// metricFrom resolves the distance parameter.
func metricFrom(p *props.Props) (spatial.Metric, error) {
	m, err := spatial.MetricByName(p.GetString(ParamMetric, "euclidean"))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidParam, err)
	}
	return m, nil
}

// kFrom reads the requested cluster count, defaulting to the number of
// classes when the dataset is labelled and to def otherwise.
func kFrom(ds *dataset.Dataset, p *props.Props, def int) (int, error) {
	if ds.HasClasses() && ds.NumClasses() > 0 {
		def = ds.NumClasses()
	}
	k := p.GetInt(ParamK, def)
	if k < 1 {
		return 0, fmt.Errorf("%w: %s must be >= 1, got %d", ErrInvalidParam, ParamK, k)
	}
	return min(k, ds.Len()), nil
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
