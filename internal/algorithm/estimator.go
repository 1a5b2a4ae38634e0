package algorithm

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/TrevorS/clustersearch/internal/dataset"
	"github.com/TrevorS/clustersearch/internal/props"
	"github.com/TrevorS/clustersearch/internal/spatial"
)

// ErrEstimate is returned when a parameter range cannot be derived.
var ErrEstimate = errors.New("algorithm: cannot estimate parameter range")

// Estimate is a search range for one continuous parameter. Curve holds any
// auxiliary data the estimator inspected, such as a sorted k-distance curve.
type Estimate struct {
	Min, Max float64
	Curve    []float64
}

// ParamEstimator derives a search range for a continuous parameter from the
// data.
type ParamEstimator interface {
	Estimate(ds *dataset.Dataset, p *props.Props) (Estimate, error)
}

// RangeEstimator returns a fixed range.
type RangeEstimator struct {
	Min, Max float64
}

func (r RangeEstimator) Estimate(*dataset.Dataset, *props.Props) (Estimate, error) {
	if !(r.Min < r.Max) {
		return Estimate{}, fmt.Errorf("%w: empty range [%g, %g]", ErrEstimate, r.Min, r.Max)
	}
	return Estimate{Min: r.Min, Max: r.Max}, nil
}

// KDistEstimator bounds the DBSCAN radius from the sorted k-distance curve.
// The upper bound is the knee of the curve (the point farthest from the
// chord joining its ends); the lower bound is the LowQuantile of the curve.
type KDistEstimator struct {
	// K is the neighbour rank inspected. Default 4.
	K int
	// LowQuantile selects the lower bound. Default 0.1.
	LowQuantile float64
}

func (e KDistEstimator) Estimate(ds *dataset.Dataset, p *props.Props) (Estimate, error) {
	k := e.K
	if k <= 0 {
		k = 4
	}
	q := e.LowQuantile
	if q <= 0 || q >= 1 {
		q = 0.1
	}
	metric, err := metricFrom(p)
	if err != nil {
		return Estimate{}, err
	}
	curve := spatial.KDistances(ds.Points, metric, k)
	if len(curve) < 2 {
		return Estimate{}, fmt.Errorf("%w: need at least 2 points, got %d", ErrEstimate, ds.Len())
	}

	lo := stat.Quantile(q, stat.Empirical, curve, nil)
	hi := curve[knee(curve)]
	if hi <= lo {
		hi = curve[len(curve)-1]
	}
	if hi <= lo {
		return Estimate{Curve: curve}, fmt.Errorf("%w: flat k-distance curve at %g", ErrEstimate, lo)
	}
	return Estimate{Min: lo, Max: hi, Curve: curve}, nil
}

// knee returns the index of the point of an ascending curve farthest from
// the straight line between its first and last points.
func knee(curve []float64) int {
	n := len(curve)
	x0, y0 := 0.0, curve[0]
	x1, y1 := float64(n-1), curve[n-1]
	dx, dy := x1-x0, y1-y0
	norm := math.Hypot(dx, dy)
	if norm == 0 {
		return n - 1
	}
	best, bestDist := n-1, -1.0
	for i, y := range curve {
		d := math.Abs(dy*float64(i)-dx*y+x1*y0-y1*x0) / norm
		if d > bestDist {
			best, bestDist = i, d
		}
	}
	return best
}
