package rank

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/TrevorS/clustersearch/internal/clustering"
)

// ErrUnknownCorrelator is returned by CorrelatorByName.
var ErrUnknownCorrelator = errors.New("rank: unknown correlation")

// Correlator measures rank agreement between a candidate ordering and a
// reference ordering, in [-1, 1]. Only results present in both orderings are
// compared; idx maps result identity to reference position. Fewer than two
// shared results yield NaN.
type Correlator interface {
	Name() string
	Correlation(candidate, reference []*clustering.Clustering, idx IndexMap) float64
}

// overlap returns, for every candidate result present in idx, its position
// among the shared results in candidate order and in reference order.
func overlap(candidate []*clustering.Clustering, idx IndexMap) (x, y []float64) {
	refPos := make([]int, 0, len(candidate))
	for _, c := range candidate {
		if p, ok := idx[c.ID]; ok {
			refPos = append(refPos, p)
		}
	}
	// Reference positions may have gaps after exclusions; compact them.
	sorted := slices.Clone(refPos)
	slices.Sort(sorted)
	x = make([]float64, len(refPos))
	y = make([]float64, len(refPos))
	for i, p := range refPos {
		r, _ := slices.BinarySearch(sorted, p)
		x[i] = float64(i)
		y[i] = float64(r)
	}
	return x, y
}

// Spearman is Spearman's rank correlation coefficient.
type Spearman struct{}

func (Spearman) Name() string { return "Spearman" }

func (Spearman) Correlation(candidate, _ []*clustering.Clustering, idx IndexMap) float64 {
	x, y := overlap(candidate, idx)
	if len(x) < 2 {
		return math.NaN()
	}
	return stat.Correlation(x, y, nil)
}

// Kendall is Kendall's tau.
type Kendall struct{}

func (Kendall) Name() string { return "Kendall" }

func (Kendall) Correlation(candidate, _ []*clustering.Clustering, idx IndexMap) float64 {
	x, y := overlap(candidate, idx)
	if len(x) < 2 {
		return math.NaN()
	}
	return stat.Kendall(x, y, nil)
}

// CorrelatorByName resolves "spearman" or "kendall", case-insensitively.
func CorrelatorByName(name string) (Correlator, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "spearman":
		return Spearman{}, nil
	case "kendall":
		return Kendall{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCorrelator, name)
	}
}

// Correlators lists the names accepted by CorrelatorByName.
func Correlators() []string { return []string{"spearman", "kendall"} }
