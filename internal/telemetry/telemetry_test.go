package telemetry

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewLogger(&buf, "warn", "json")
	require.NoError(t, err)
	log.Info("hidden")
	log.Warn("shown", "k", 1)
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)

	_, err = NewLogger(&buf, "loud", "text")
	assert.ErrorIs(t, err, ErrLogLevel)
	_, err = NewLogger(&buf, "info", "xml")
	assert.ErrorIs(t, err, ErrLogFormat)
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":      slog.LevelInfo,
		"DEBUG": slog.LevelDebug,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
}

func TestMetrics(t *testing.T) {
	m := NewMetrics()
	m.ObserveCandidate("dbscan", 10*time.Millisecond)
	m.ObserveCandidate("dbscan", 20*time.Millisecond)
	m.ScoreFailed("Silhouette")
	m.SetCorrelation("pareto", 0.75)
	m.RunCompleted()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.candidates.WithLabelValues("dbscan")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("Silhouette")))
	assert.Equal(t, 0.75, testutil.ToFloat64(m.correlations.WithLabelValues("pareto")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.clusterTime))

	path := filepath.Join(t.TempDir(), "metrics.prom")
	require.NoError(t, m.WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `clustersearch_candidates_total{algorithm="dbscan"} 2`))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveCandidate("x", time.Second)
		m.ScoreFailed("x")
		m.SetCorrelation("x", 1)
		m.RunCompleted()
	})
	assert.NoError(t, m.WriteTextfile("ignored"))
	assert.Nil(t, m.Registry())
}

func TestSetupTracing(t *testing.T) {
	shutdown, err := SetupTracing("", "test")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))

	path := filepath.Join(t.TempDir(), "trace.json")
	shutdown, err = SetupTracing(path, "test")
	require.NoError(t, err)
	_, span := Tracer().Start(context.Background(), "unit")
	span.End()
	require.NoError(t, shutdown(context.Background()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"Name": "unit"`)
}
