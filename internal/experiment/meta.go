package experiment

import (
	"math"
	"strconv"
	"sync"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/TrevorS/clustersearch/internal/clustering"
	"github.com/TrevorS/clustersearch/internal/eval"
	"github.com/TrevorS/clustersearch/internal/export"
)

// Stat summarises one measure over the repeats of an experiment.
type Stat struct {
	Name   string
	N      int
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
}

// Accumulator collects per-run measures from concurrent runs.
//
// Thread Safety: Safe for concurrent use.
type Accumulator struct {
	mu     sync.Mutex
	order  []string
	values map[string][]float64
}

// NewAccumulator creates an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{values: make(map[string][]float64)}
}

// Add records one value of the named measure. NaN is ignored.
func (a *Accumulator) Add(name string, v float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.add(name, v)
}

func (a *Accumulator) add(name string, v float64) {
	if _, ok := a.values[name]; !ok {
		a.order = append(a.order, name)
		a.values[name] = nil
	}
	if !math.IsNaN(v) {
		a.values[name] = append(a.values[name], v)
	}
}

// AddClustering records the cluster count, run time and every criterion
// score of one run's result.
func (a *Accumulator) AddClustering(criteria []eval.Criterion, c *clustering.Clustering, elapsed time.Duration) {
	scores := make([]float64, len(criteria))
	for i, crit := range criteria {
		scores[i], _ = eval.Evaluate(crit, c, c.Params)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.add("clusters", float64(c.Size()))
	a.add("time (ms)", float64(elapsed)/float64(time.Millisecond))
	for i, crit := range criteria {
		a.add(crit.Name(), scores[i])
	}
}

// Stats returns one summary per measure, in order of first appearance.
// Measures without values report NaN.
func (a *Accumulator) Stats() []Stat {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Stat, 0, len(a.order))
	for _, name := range a.order {
		v := a.values[name]
		s := Stat{Name: name, N: len(v), Mean: math.NaN(), StdDev: math.NaN(), Min: math.NaN(), Max: math.NaN()}
		if len(v) > 0 {
			s.Mean, s.StdDev = stat.MeanStdDev(v, nil)
			if len(v) == 1 {
				s.StdDev = 0
			}
			s.Min, s.Max = floats.Min(v), floats.Max(v)
		}
		out = append(out, s)
	}
	return out
}

var metaColumns = []string{"dataset", "algorithm", "measure", "runs", "mean", "std dev", "min", "max"}

// writeStats appends the summaries to path.
func writeStats(sink *export.Sink, path, dataset, algorithm string, stats []Stat) error {
	for _, s := range stats {
		row := []string{
			dataset,
			algorithm,
			s.Name,
			strconv.Itoa(s.N),
			export.FormatFloat(s.Mean),
			export.FormatFloat(s.StdDev),
			export.FormatFloat(s.Min),
			export.FormatFloat(s.Max),
		}
		if err := sink.Append(path, metaColumns, row); err != nil {
			return err
		}
	}
	return nil
}
