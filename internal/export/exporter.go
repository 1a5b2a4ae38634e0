package export

import (
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"strconv"
	"time"

	"github.com/TrevorS/clustersearch/internal/clustering"
	"github.com/TrevorS/clustersearch/internal/eval"
	"github.com/TrevorS/clustersearch/internal/pareto"
	"github.com/TrevorS/clustersearch/internal/rank"
)

// Exporter turns clustering results into self-describing rows. Every row
// carries the dataset, the cluster count, timings, scores and the full
// configuration, so a results file can be read without the run log.
//
// One Exporter writes the files of one run; Suffix keeps concurrent runs on
// separate paths.
type Exporter struct {
	Sink     *Sink
	Dir      string
	Criteria []eval.Criterion
	// Suffix is appended to every file name, e.g. "-3" for run 3.
	Suffix string
	Logger *slog.Logger
}

// NewExporter creates an exporter for run number run. A negative run omits
// the suffix.
func NewExporter(sink *Sink, dir string, criteria []eval.Criterion, run int) *Exporter {
	if sink == nil {
		sink = NewSink(DefaultSeparator)
	}
	e := &Exporter{Sink: sink, Dir: dir, Criteria: criteria}
	if run >= 0 {
		e.Suffix = fmt.Sprintf("-%d", run)
	}
	return e
}

func (e *Exporter) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

func (e *Exporter) path(name string) string {
	return filepath.Join(e.Dir, name+e.Suffix+".csv")
}

// ResultsPath returns the file Record writes for dataset name.
func (e *Exporter) ResultsPath(dataset string) string {
	return e.path(fileBase(dataset))
}

func fileBase(name string) string {
	if name == "" {
		return "results"
	}
	return name
}

// FormatFloat renders scores for export; NaN and infinities are spelled
// out.
func FormatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	}
	return strconv.FormatFloat(v, 'g', 8, 64)
}

func millis(d time.Duration) string {
	return strconv.FormatFloat(float64(d)/float64(time.Millisecond), 'f', 3, 64)
}

func (e *Exporter) criteriaNames() []string {
	names := make([]string, len(e.Criteria))
	for i, c := range e.Criteria {
		names[i] = c.Name()
	}
	return names
}

// Columns returns the header of the results file.
func (e *Exporter) Columns() []string {
	cols := []string{"dataset", "algorithm", "clusters", "noise", "time (ms)"}
	cols = append(cols, e.criteriaNames()...)
	return append(cols, "template", "alg time (ms)", "fingerprint", "id")
}

// Record scores c under every configured criterion and appends its row to
// {Dir}/{dataset}{Suffix}.csv. The time spent in each internal criterion is
// appended to criteria{Suffix}.csv. Criteria that cannot score c are written
// as NaN.
func (e *Exporter) Record(c *clustering.Clustering) error {
	ds := ""
	if c.Dataset != nil {
		ds = c.Dataset.SafeName()
	}

	start := time.Now()
	scores := make([]string, len(e.Criteria))
	for i, crit := range e.Criteria {
		critStart := time.Now()
		v, err := eval.Evaluate(crit, c, c.Params)
		if err != nil {
			e.logger().Debug("criterion not computable", "criterion", crit.Name(), "clusters", c.Size(), "error", err)
		}
		scores[i] = FormatFloat(v)
		if !crit.IsExternal() {
			if err := e.recordCriterion(ds, c, crit, v, time.Since(critStart)); err != nil {
				return err
			}
		}
	}
	total := c.Elapsed + time.Since(start)

	row := []string{ds, c.Algorithm, strconv.Itoa(c.Size()), strconv.Itoa(c.NoiseCount()), millis(total)}
	row = append(row, scores...)
	row = append(row, c.Params.ToJSON(), millis(c.Elapsed), c.Fingerprint(), c.ID)
	return e.Sink.Append(e.ResultsPath(ds), e.Columns(), row)
}

func (e *Exporter) recordCriterion(ds string, c *clustering.Clustering, crit eval.Criterion, v float64, d time.Duration) error {
	cols := []string{"dataset", "algorithm", "criterion", "k", "score", "time (ms)", "fingerprint"}
	row := []string{ds, c.Algorithm, crit.Name(), strconv.Itoa(c.Size()), FormatFloat(v), millis(d), c.Fingerprint()}
	return e.Sink.Append(e.path("criteria"), cols, row)
}

// ExportScores writes one table per criterion kind: every ranked result with
// its internal scores to internal{Suffix}.csv and with its external scores to
// external{Suffix}.csv. A kind with no configured criteria is skipped.
func (e *Exporter) ExportScores(r rank.Ranking) error {
	internal, external := eval.Split(e.Criteria)
	for _, t := range []struct {
		name     string
		criteria []eval.Criterion
	}{{"internal", internal}, {"external", external}} {
		if len(t.criteria) == 0 {
			continue
		}
		cols := []string{"rank", "algorithm", "clusters"}
		for _, crit := range t.criteria {
			cols = append(cols, crit.Name())
		}
		cols = append(cols, "fingerprint", "template")
		path := e.path(t.name)
		for _, entry := range r {
			c := entry.Clustering
			row := []string{FormatFloat(entry.Rank), c.Algorithm, strconv.Itoa(c.Size())}
			for _, crit := range t.criteria {
				v, _ := eval.Evaluate(crit, c, c.Params)
				row = append(row, FormatFloat(v))
			}
			row = append(row, c.Fingerprint(), c.Params.ToJSON())
			if err := e.Sink.Append(path, cols, row); err != nil {
				return err
			}
		}
	}
	return nil
}

// ExportFront writes the ranked Pareto front to pareto-front{Suffix}.csv
// with the objective scores of every result.
func (e *Exporter) ExportFront(f *pareto.Front, objectives []eval.Criterion) error {
	cols := []string{"rank", "front", "algorithm", "clusters"}
	for _, o := range objectives {
		cols = append(cols, o.Name())
	}
	cols = append(cols, "fingerprint", "template")
	path := e.path("pareto-front")
	for _, entry := range f.ComputeRanking() {
		c := entry.Clustering
		row := []string{
			FormatFloat(entry.Rank),
			strconv.Itoa(int(entry.Rank)),
			c.Algorithm,
			strconv.Itoa(c.Size()),
		}
		for _, o := range objectives {
			v, _ := eval.Evaluate(o, c, c.Params)
			row = append(row, FormatFloat(v))
		}
		row = append(row, c.Fingerprint(), c.Params.ToJSON())
		if err := e.Sink.Append(path, cols, row); err != nil {
			return err
		}
	}
	return nil
}

// ExportKDist writes a sorted k-distance curve to {dataset}-kdist{Suffix}.csv.
func (e *Exporter) ExportKDist(dataset string, k int, curve []float64) error {
	path := e.path(fileBase(dataset) + "-kdist")
	cols := []string{"index", fmt.Sprintf("%d-dist", k)}
	if _, err := e.Sink.EnsureHeader(path, cols); err != nil {
		return err
	}
	for i, v := range curve {
		if err := e.Sink.AppendRow(path, []string{strconv.Itoa(i), FormatFloat(v)}); err != nil {
			return err
		}
	}
	return nil
}
