package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "experiment.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultNeedsData(t *testing.T) {
	cfg := DefaultExperiment()
	err := cfg.Validate()
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "Path")

	cfg.Data.Generate = "150x2"
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, ',', cfg.OutputSeparator())
}

func TestLoadKeepsDefaults(t *testing.T) {
	path := writeFile(t, `
dir: out
algorithm: hdbscan
method: grid
repeat: 4
separator: ";"
data:
  path: iris.csv
  header: true
meta:
  algorithms: [dbscan, k-means]
  strategies: [sort, pareto]
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "out", cfg.Dir)
	assert.Equal(t, "hdbscan", cfg.Algorithm)
	assert.Equal(t, 4, cfg.Repeat)
	assert.Equal(t, ';', cfg.OutputSeparator())
	assert.Equal(t, []string{"dbscan", "k-means"}, cfg.Meta.Algorithms)
	// untouched keys keep their defaults
	assert.Equal(t, "Silhouette", cfg.OptEval)
	assert.Equal(t, -2, cfg.Data.Class)
	assert.Equal(t, "spearman", cfg.Meta.Correlation)

	opts := cfg.Data.LoadOptions()
	assert.True(t, opts.Header)
	assert.Equal(t, -2, opts.ClassColumn)
	assert.Equal(t, ',', opts.Separator)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "algorithm: [unclosed"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "algoritm: dbscan\n"))
	assert.Error(t, err, "unknown keys are rejected")

	cfg, err := Load(writeFile(t, ""))
	require.NoError(t, err)
	assert.Equal(t, DefaultExperiment(), cfg)
}

func TestValidate(t *testing.T) {
	valid := func() Experiment {
		cfg := DefaultExperiment()
		cfg.Data.Path = "data.csv"
		return cfg
	}
	tests := []struct {
		name   string
		mutate func(*Experiment)
	}{
		{"no algorithm", func(e *Experiment) { e.Algorithm = "" }},
		{"no criteria", func(e *Experiment) { e.Eval = nil }},
		{"empty criterion", func(e *Experiment) { e.Eval = []string{""} }},
		{"zero repeat", func(e *Experiment) { e.Repeat = 0 }},
		{"long separator", func(e *Experiment) { e.Separator = "::" }},
		{"path and generate", func(e *Experiment) { e.Data.Generate = "10x2" }},
		{"bad strategy", func(e *Experiment) { e.Meta.Strategies = []string{"random"} }},
		{"bad correlation", func(e *Experiment) { e.Meta.Correlation = "pearson" }},
		{"bad log format", func(e *Experiment) { e.Telemetry.LogFormat = "xml" }},
		{"bad class column", func(e *Experiment) { e.Data.Class = -3 }},
	}
	require.NoError(t, valid().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}

func TestGenerateSize(t *testing.T) {
	tests := []struct {
		in      string
		n, dims int
		ok      bool
	}{
		{"150x2", 150, 2, true},
		{"30X5", 30, 5, true},
		{"150", 0, 0, false},
		{"0x2", 0, 0, false},
		{"ax2", 0, 0, false},
	}
	for _, tt := range tests {
		n, dims, err := Data{Generate: tt.in}.Size()
		if !tt.ok {
			assert.ErrorIs(t, err, ErrInvalid, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.n, n)
		assert.Equal(t, tt.dims, dims)
	}

	ds, err := Data{Generate: "90x3", Clusters: 3, Seed: 1}.Dataset()
	require.NoError(t, err)
	assert.Equal(t, 90, ds.Len())
	assert.Equal(t, 3, ds.Dims())
	assert.Equal(t, 3, ds.NumClasses())
}
