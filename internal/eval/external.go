package eval

import (
	"fmt"
	"math"

	"github.com/TrevorS/clustersearch/internal/clustering"
	"github.com/TrevorS/clustersearch/internal/props"
)

// contingency counts co-occurrences of predicted clusters and true classes.
// Noise is treated as one more predicted group.
type contingency struct {
	n     int
	cells map[[2]int]int
	rows  map[int]int // per predicted cluster
	cols  map[int]int // per class
}

func newContingency(c *clustering.Clustering) (*contingency, error) {
	ds := c.Dataset
	if ds == nil || !ds.HasClasses() {
		return nil, fmt.Errorf("%w: dataset has no class labels", ErrNotComputable)
	}
	if len(ds.Labels) != c.Len() {
		return nil, fmt.Errorf("%w: %d labels for %d classes", ErrNotComputable, c.Len(), len(ds.Labels))
	}
	t := &contingency{
		n:     c.Len(),
		cells: make(map[[2]int]int),
		rows:  make(map[int]int),
		cols:  make(map[int]int),
	}
	for i, l := range c.Labels {
		class := ds.Labels[i]
		t.cells[[2]int{l, class}]++
		t.rows[l]++
		t.cols[class]++
	}
	if t.n == 0 {
		return nil, fmt.Errorf("%w: empty clustering", ErrNotComputable)
	}
	return t, nil
}

func pairs(n int) float64 { return float64(n) * float64(n-1) / 2 }

// pairCounts returns the number of point pairs together in both partitions,
// together in the clustering, together in the classes, and in total.
func (t *contingency) pairCounts() (both, pred, truth, total float64) {
	for _, v := range t.cells {
		both += pairs(v)
	}
	for _, v := range t.rows {
		pred += pairs(v)
	}
	for _, v := range t.cols {
		truth += pairs(v)
	}
	return both, pred, truth, pairs(t.n)
}

func entropy(counts map[int]int, n int) float64 {
	var h float64
	for _, v := range counts {
		if v == 0 {
			continue
		}
		p := float64(v) / float64(n)
		h -= p * math.Log(p)
	}
	return h
}

// NMISqrt is normalized mutual information with the geometric mean of the
// two entropies as normaliser.
type NMISqrt struct{ Direction }

func NewNMISqrt() *NMISqrt { return &NMISqrt{Maximize} }

func (*NMISqrt) Name() string     { return "NMI-sqrt" }
func (*NMISqrt) IsExternal() bool { return true }

func (m *NMISqrt) Score(c *clustering.Clustering, _ *props.Props) (float64, error) {
	t, err := newContingency(c)
	if err != nil {
		return 0, err
	}
	hp, ht := entropy(t.rows, t.n), entropy(t.cols, t.n)
	if hp == 0 || ht == 0 {
		if hp == ht {
			return 1, nil
		}
		return 0, nil
	}
	n := float64(t.n)
	var mi float64
	for k, v := range t.cells {
		nij := float64(v)
		mi += nij / n * math.Log(n*nij/(float64(t.rows[k[0]])*float64(t.cols[k[1]])))
	}
	return mi / math.Sqrt(hp*ht), nil
}

// AdjustedRand is the Rand index corrected for chance.
type AdjustedRand struct{ Direction }

func NewAdjustedRand() *AdjustedRand { return &AdjustedRand{Maximize} }

func (*AdjustedRand) Name() string     { return "Adjusted Rand" }
func (*AdjustedRand) IsExternal() bool { return true }

func (a *AdjustedRand) Score(c *clustering.Clustering, _ *props.Props) (float64, error) {
	t, err := newContingency(c)
	if err != nil {
		return 0, err
	}
	both, pred, truth, total := t.pairCounts()
	if total == 0 {
		return 0, fmt.Errorf("%w: fewer than two points", ErrNotComputable)
	}
	expected := pred * truth / total
	maxIndex := (pred + truth) / 2
	if maxIndex == expected {
		return 1, nil
	}
	return (both - expected) / (maxIndex - expected), nil
}

// Jaccard is the share of co-clustered pairs that agree in both partitions.
type Jaccard struct{ Direction }

func NewJaccard() *Jaccard { return &Jaccard{Maximize} }

func (*Jaccard) Name() string     { return "Jaccard" }
func (*Jaccard) IsExternal() bool { return true }

func (j *Jaccard) Score(c *clustering.Clustering, _ *props.Props) (float64, error) {
	t, err := newContingency(c)
	if err != nil {
		return 0, err
	}
	both, pred, truth, _ := t.pairCounts()
	union := pred + truth - both
	if union == 0 {
		return 0, fmt.Errorf("%w: no co-clustered pairs", ErrNotComputable)
	}
	return both / union, nil
}
