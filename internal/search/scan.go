package search

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/TrevorS/clustersearch/internal/algorithm"
	"github.com/TrevorS/clustersearch/internal/clustering"
	"github.com/TrevorS/clustersearch/internal/props"
)

// Density scan methods.
const (
	MethodIncremental = "incremental"
	MethodExhaustive  = "exhaustive"
)

const (
	// GridSteps is the number of radius values tried per min-pts value.
	GridSteps = 10

	// MinPtsFrom and MinPtsTo bound the exhaustive min-pts range; the
	// incremental scan also starts at MinPtsFrom.
	MinPtsFrom = 4
	MinPtsTo   = 10

	// ShrinkStep is the increment of the shrink scan.
	ShrinkStep = 0.1
)

func densityMethod(method string) (exhaustive bool, err error) {
	switch strings.ToLower(method) {
	case "", DefaultMethod, MethodIncremental:
		return false, nil
	case MethodExhaustive, "sp":
		return true, nil
	default:
		return false, fmt.Errorf("%w: %q for %s family", ErrUnknownMethod, method, algorithm.FamilyDensity)
	}
}

// densityScan searches (eps, min-pts). Radius bounds come from the density
// estimator; each inner scan walks eps from the upper bound down in
// GridSteps equal decrements and stops early once the clustering collapses
// to one cluster or splits into at least sqrt(n) clusters.
//
// The exhaustive method runs the inner scan for every min-pts in
// [MinPtsFrom, MinPtsTo]. The incremental method starts at MinPtsFrom and
// raises min-pts by one after each inner scan until some candidate has
// been scored, giving up once min-pts exceeds the dataset size.
func densityScan(_ context.Context, e *Engine, req Request) (acc, error) {
	exhaustive, err := densityMethod(req.Method)
	if err != nil {
		return acc{}, err
	}
	est := e.DensityEstimator
	if est == nil {
		est = algorithm.KDistEstimator{}
	}
	bounds, err := est.Estimate(req.Dataset, req.Base)
	if err != nil {
		return acc{}, fmt.Errorf("search: estimate eps for %s: %w", req.Dataset.Name, err)
	}
	e.logger().Info("eps range estimated",
		"dataset", req.Dataset.Name,
		"min", bounds.Min,
		"max", bounds.Max)

	a := newAcc(e.Criterion)
	a.estimate = &bounds
	n := req.Dataset.Len()
	limit := int(math.Sqrt(float64(n)))

	if exhaustive {
		for minPts := MinPtsFrom; minPts <= MinPtsTo; minPts++ {
			if a, err = e.epsScan(req, bounds, minPts, limit, a); err != nil {
				return a, err
			}
		}
		return a, nil
	}
	for minPts := MinPtsFrom; minPts <= max(n, MinPtsFrom); minPts++ {
		if a, err = e.epsScan(req, bounds, minPts, limit, a); err != nil {
			return a, err
		}
		if a.found {
			break
		}
	}
	return a, nil
}

// epsScan is the inner scan of densityScan at a fixed min-pts.
func (e *Engine) epsScan(req Request, bounds algorithm.Estimate, minPts, limit int, a acc) (acc, error) {
	step := (bounds.Max - bounds.Min) / GridSteps
	for i := 0; i < GridSteps; i++ {
		eps := bounds.Max - float64(i)*step
		if eps < bounds.Min {
			break
		}
		override := props.Of(algorithm.ParamEps, eps, algorithm.ParamMinPts, minPts)
		var c *clustering.Clustering
		var err error
		if a, c, err = e.evaluate(req, req.Base.Merge(override), override.String(), a); err != nil {
			return a, err
		}
		if size := c.Size(); size == 1 || size >= limit {
			e.logger().Debug("eps scan stopped",
				"min-pts", minPts,
				"eps", eps,
				"clusters", c.Size())
			break
		}
	}
	return a, nil
}

// shrinkScan walks the shrink factor across the shrink estimator's range in
// ShrinkStep increments, bounds included.
func shrinkScan(_ context.Context, e *Engine, req Request) (acc, error) {
	if m := strings.ToLower(req.Method); m != "" && m != DefaultMethod {
		return acc{}, fmt.Errorf("%w: %q for %s family", ErrUnknownMethod, req.Method, algorithm.FamilyShrink)
	}
	est := e.ShrinkEstimator
	if est == nil {
		est = algorithm.RangeEstimator{Min: 0.1, Max: 0.9}
	}
	bounds, err := est.Estimate(req.Dataset, req.Base)
	if err != nil {
		return acc{}, fmt.Errorf("search: estimate shrink for %s: %w", req.Dataset.Name, err)
	}
	a := newAcc(e.Criterion)
	a.estimate = &bounds
	steps := int(math.Round((bounds.Max - bounds.Min) / ShrinkStep))
	for i := 0; i <= steps; i++ {
		v := math.Round((bounds.Min+float64(i)*ShrinkStep)*1e9) / 1e9
		if v > bounds.Max {
			break
		}
		override := props.Of(algorithm.ParamShrink, v)
		if a, _, err = e.evaluate(req, req.Base.Merge(override), override.String(), a); err != nil {
			return a, err
		}
	}
	return a, nil
}
