package export

import (
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TrevorS/clustersearch/internal/clustering"
	"github.com/TrevorS/clustersearch/internal/dataset"
	"github.com/TrevorS/clustersearch/internal/eval"
	"github.com/TrevorS/clustersearch/internal/pareto"
	"github.com/TrevorS/clustersearch/internal/props"
	"github.com/TrevorS/clustersearch/internal/rank"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func readCSV(t *testing.T, path string, sep rune) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	r := csv.NewReader(f)
	r.Comma = sep
	records, err := r.ReadAll()
	require.NoError(t, err)
	return records
}

func TestAppendWritesHeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "rows.csv")
	s := NewSink(0)
	cols := []string{"a", "b"}
	const n = 5
	for i := 0; i < n; i++ {
		require.NoError(t, s.Append(path, cols, []string{"x", string(rune('0' + i))}))
	}
	lines := readLines(t, path)
	require.Len(t, lines, n+1)
	assert.Equal(t, "a,b", lines[0])
	for i := 0; i < n; i++ {
		assert.Equal(t, "x,"+string(rune('0'+i)), lines[i+1])
	}
}

func TestEnsureHeaderIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "h.csv")
	s := NewSink(';')
	wrote, err := s.EnsureHeader(path, []string{"a", "b"})
	require.NoError(t, err)
	assert.True(t, wrote)
	wrote, err = s.EnsureHeader(path, []string{"c"})
	require.NoError(t, err)
	assert.False(t, wrote)
	assert.Equal(t, []string{"a;b"}, readLines(t, path))
}

func TestAppendRowNeverRewrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keep.csv")
	require.NoError(t, os.WriteFile(path, []byte("existing\n"), 0o644))
	s := NewSink(0)
	_, err := s.EnsureHeader(path, []string{"a"})
	require.NoError(t, err)
	require.NoError(t, s.AppendRow(path, []string{"with,comma"}))
	assert.Equal(t, []string{"existing", `"with,comma"`}, readLines(t, path))
}

func TestInvalidSeparator(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	s := &Sink{Separator: '"'}
	assert.ErrorIs(t, s.AppendRow(path, []string{"a"}), ErrSeparator)
	assert.NoFileExists(t, path)

	wrote, err := s.EnsureHeader(path, []string{"a", "b"})
	assert.ErrorIs(t, err, ErrSeparator)
	assert.False(t, wrote)
	assert.NoFileExists(t, path)

	// A later valid sink still gets to write the header.
	require.NoError(t, NewSink(';').Append(path, []string{"a", "b"}, []string{"1", "2"}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a;b\n1;2\n", string(data))

	assert.NoError(t, ValidateSeparator('\t'))
	assert.ErrorIs(t, ValidateSeparator('\n'), ErrSeparator)
}

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "NaN", FormatFloat(math.NaN()))
	assert.Equal(t, "-Inf", FormatFloat(math.Inf(-1)))
	assert.Equal(t, "0.5", FormatFloat(0.5))
}

func TestExporterRecord(t *testing.T) {
	ds := dataset.Blobs(dataset.DefaultBlobOptions())
	ds.Name = "Blob Set"
	c := clustering.New("k-means", ds, ds.Labels)
	c.Params = props.Of("k", 3)
	c.Elapsed = 12 * time.Millisecond

	crits, err := eval.DefaultRegistry().Lookup("Silhouette", "NMI-sqrt")
	require.NoError(t, err)
	dir := t.TempDir()
	e := NewExporter(NewSink(0), dir, crits, 2)
	require.NoError(t, e.Record(c))

	records := readCSV(t, filepath.Join(dir, "blob_set-2.csv"), ',')
	require.Len(t, records, 2)
	header, row := records[0], records[1]
	assert.Equal(t, e.Columns(), header)
	get := func(col string) string {
		for i, h := range header {
			if h == col {
				return row[i]
			}
		}
		t.Fatalf("missing column %q", col)
		return ""
	}
	assert.Equal(t, "blob_set", get("dataset"))
	assert.Equal(t, "3", get("clusters"))
	assert.Equal(t, `{"k":3}`, get("template"))
	assert.Equal(t, "12.000", get("alg time (ms)"))
	assert.Equal(t, "[50,50,50]", get("fingerprint"))
	assert.Equal(t, c.ID, get("id"))
	assert.Equal(t, "1", get("NMI-sqrt"))

	criteria := readCSV(t, filepath.Join(dir, "criteria-2.csv"), ',')
	require.Len(t, criteria, 2)
	assert.Equal(t, "Silhouette", criteria[1][2])
}

func TestExporterRecordsUncomputableAsNaN(t *testing.T) {
	ds := dataset.Blobs(dataset.DefaultBlobOptions())
	c := clustering.New("dbscan", ds, make([]int, ds.Len()))
	crits, err := eval.DefaultRegistry().Lookup("Dunn")
	require.NoError(t, err)
	dir := t.TempDir()
	e := NewExporter(nil, dir, crits, -1)
	require.NoError(t, e.Record(c))
	records := readCSV(t, e.ResultsPath(ds.SafeName()), ',')
	assert.Contains(t, records[1], "NaN")
}

func TestExportScoresFrontAndKDist(t *testing.T) {
	ds := dataset.Blobs(dataset.DefaultBlobOptions())
	good := clustering.New("a", ds, ds.Labels)
	half := make([]int, ds.Len())
	for i := range half {
		half[i] = i % 2
	}
	bad := clustering.New("b", ds, half)
	crits, err := eval.DefaultRegistry().Lookup("Silhouette", "Dunn", "Jaccard")
	require.NoError(t, err)
	dir := t.TempDir()
	e := NewExporter(nil, dir, crits, 1)

	r := rank.SortBy([]*clustering.Clustering{bad, good}, crits[0], nil)
	require.NoError(t, e.ExportScores(r))
	internal := readCSV(t, filepath.Join(dir, "internal-1.csv"), ',')
	require.Len(t, internal, 3)
	assert.Equal(t, []string{"rank", "algorithm", "clusters", "Silhouette", "Dunn", "fingerprint", "template"}, internal[0])
	assert.Equal(t, "a", internal[1][1])
	external := readCSV(t, filepath.Join(dir, "external-1.csv"), ',')
	assert.Equal(t, "Jaccard", external[0][3])

	f := pareto.New(0, crits[:2], crits[0], nil)
	f.Add(bad)
	f.Add(good)
	require.NoError(t, e.ExportFront(f, crits[:2]))
	front := readCSV(t, filepath.Join(dir, "pareto-front-1.csv"), ',')
	require.Len(t, front, 3)
	assert.Equal(t, "0", front[1][1])

	require.NoError(t, e.ExportKDist(ds.SafeName(), 4, []float64{0.1, 0.2, 0.5}))
	kdist := readCSV(t, filepath.Join(dir, ds.SafeName()+"-kdist-1.csv"), ',')
	assert.Equal(t, []string{"index", "4-dist"}, kdist[0])
	assert.Len(t, kdist, 4)
}
