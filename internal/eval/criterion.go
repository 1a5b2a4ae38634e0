// Package eval scores clusterings. Internal criteria judge a partition from
// the data alone; external criteria compare it with ground-truth classes.
//
// Every criterion declares its own direction through IsBetter and Worst, so
// callers never assume that larger is better.
package eval

import (
	"errors"
	"math"

	"github.com/TrevorS/clustersearch/internal/clustering"
	"github.com/TrevorS/clustersearch/internal/props"
)

// ErrNotComputable is returned by Score when the criterion is undefined for
// the given clustering, for example a single cluster or missing classes.
var ErrNotComputable = errors.New("eval: score not computable")

// Criterion is a quality score for a clustering.
type Criterion interface {
	// Name is the criterion's display name, also used as its registry key
	// and column header.
	Name() string

	// IsExternal reports whether the score needs ground-truth classes.
	IsExternal() bool

	// Score evaluates c. It returns ErrNotComputable (possibly wrapped) when
	// the score is undefined.
	Score(c *clustering.Clustering, p *props.Props) (float64, error)

	// IsBetter reports whether candidate beats best. NaN never beats
	// anything, and any number beats NaN.
	IsBetter(candidate, best float64) bool

	// Worst is the sentinel every real score beats: -Inf for maximised
	// criteria and +Inf for minimised ones.
	Worst() float64
}

// Direction implements IsBetter and Worst for criteria that are either
// maximised or minimised. Embed it in a criterion type.
type Direction bool

const (
	Maximize Direction = true
	Minimize Direction = false
)

// IsBetter implements Criterion.IsBetter.
func (d Direction) IsBetter(candidate, best float64) bool {
	if math.IsNaN(candidate) {
		return false
	}
	if math.IsNaN(best) {
		return true
	}
	if d == Maximize {
		return candidate > best
	}
	return candidate < best
}

// Worst implements Criterion.Worst.
func (d Direction) Worst() float64 {
	if d == Maximize {
		return math.Inf(-1)
	}
	return math.Inf(1)
}

// Evaluate returns the score of c under crit, consulting and filling the
// clustering's score cache. Failures yield NaN together with the error.
func Evaluate(crit Criterion, c *clustering.Clustering, p *props.Props) (float64, error) {
	if v, ok := c.Score(crit.Name()); ok {
		return v, nil
	}
	v, err := crit.Score(c, p)
	if err != nil {
		return math.NaN(), err
	}
	c.SetScore(crit.Name(), v)
	return v, nil
}

// Compare orders two scores for sorting: negative when a should come first
// (a is better), positive when b is better, zero when neither is.
func Compare(crit Criterion, a, b float64) int {
	switch {
	case crit.IsBetter(a, b):
		return -1
	case crit.IsBetter(b, a):
		return 1
	default:
		return 0
	}
}

// Split partitions criteria into internal and external ones, keeping order.
func Split(criteria []Criterion) (internal, external []Criterion) {
	for _, c := range criteria {
		if c.IsExternal() {
			external = append(external, c)
		} else {
			internal = append(internal, c)
		}
	}
	return internal, external
}
