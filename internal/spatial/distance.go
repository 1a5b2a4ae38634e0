// Package spatial provides the distance metrics, nearest-neighbour index and
// dense distance matrices used by the clustering algorithms.
package spatial

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

// ErrUnknownMetric is returned by MetricByName for an unregistered name.
var ErrUnknownMetric = errors.New("spatial: unknown distance metric")

// Metric measures the dissimilarity of two points of equal length.
type Metric interface {
	Name() string
	Distance(a, b []float64) float64
}

// MetricFunc adapts a plain function into a Metric.
type MetricFunc struct {
	Label string
	Fn    func(a, b []float64) float64
}

func (m MetricFunc) Name() string                    { return m.Label }
func (m MetricFunc) Distance(a, b []float64) float64 { return m.Fn(a, b) }

// Euclidean is the L2 distance.
type Euclidean struct{}

func (Euclidean) Name() string { return "euclidean" }

func (Euclidean) Distance(a, b []float64) float64 {
	return math.Sqrt(SquaredEuclidean(a, b))
}

// SquaredEuclidean returns the sum of squared coordinate differences.
func SquaredEuclidean(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// Manhattan is the L1 distance.
type Manhattan struct{}

func (Manhattan) Name() string { return "manhattan" }

func (Manhattan) Distance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += math.Abs(a[i] - b[i])
	}
	return sum
}

// Chebyshev is the L-infinity distance.
type Chebyshev struct{}

func (Chebyshev) Name() string { return "chebyshev" }

func (Chebyshev) Distance(a, b []float64) float64 {
	var m float64
	for i := range a {
		m = max(m, math.Abs(a[i]-b[i]))
	}
	return m
}

// Minkowski is the Lp distance. P below 1 is treated as 1.
type Minkowski struct {
	P float64
}

func (m Minkowski) Name() string { return fmt.Sprintf("minkowski-%g", m.p()) }

func (m Minkowski) Distance(a, b []float64) float64 {
	p := m.p()
	var sum float64
	for i := range a {
		sum += math.Pow(math.Abs(a[i]-b[i]), p)
	}
	return math.Pow(sum, 1/p)
}

func (m Minkowski) p() float64 { return max(m.P, 1) }

// Cosine is 1 - cosine similarity. Two zero vectors are at distance NaN.
type Cosine struct{}

func (Cosine) Name() string { return "cosine" }

func (Cosine) Distance(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	return 1 - dot/math.Sqrt(na*nb)
}

var metrics = map[string]Metric{
	"euclidean": Euclidean{},
	"manhattan": Manhattan{},
	"chebyshev": Chebyshev{},
	"cosine":    Cosine{},
}

// MetricByName resolves a metric name. "minkowski-<p>" selects a Minkowski
// metric with the given exponent. The empty name selects Euclidean.
func MetricByName(name string) (Metric, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return Euclidean{}, nil
	}
	if m, ok := metrics[name]; ok {
		return m, nil
	}
	if rest, ok := strings.CutPrefix(name, "minkowski-"); ok {
		var p float64
		if _, err := fmt.Sscanf(rest, "%g", &p); err == nil && p >= 1 {
			return Minkowski{P: p}, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownMetric, name)
}

// MetricNames lists the fixed metric names in sorted order.
func MetricNames() []string {
	names := make([]string, 0, len(metrics))
	for n := range metrics {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// axisExponent returns the exponent p for metrics that decompose as
// (sum |d_i|^p)^(1/p), with +Inf meaning Chebyshev. ok is false for
// metrics that do not decompose along axes.
func axisExponent(m Metric) (p float64, ok bool) {
	switch v := m.(type) {
	case Euclidean:
		return 2, true
	case Manhattan:
		return 1, true
	case Chebyshev:
		return math.Inf(1), true
	case Minkowski:
		return v.p(), true
	default:
		return 0, false
	}
}
