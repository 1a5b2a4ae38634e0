package hierarchy

import (
	"log/slog"
	"math"

	"github.com/TrevorS/clustersearch/internal/spatial"
)

// Edge is a weighted spanning tree edge.
type Edge struct {
	From, To int
	Weight   float64
}

// PrimMST computes a minimum spanning tree of the complete graph described by
// a dense distance matrix. Disconnected components (all remaining distances
// +Inf) are joined with +Inf edges and reported once at warn level.
func PrimMST(m *spatial.Matrix) []Edge {
	n := m.N
	if n <= 1 {
		return nil
	}

	inTree := make([]bool, n)
	dist := make([]float64, n)
	from := make([]int, n)
	for j := range dist {
		dist[j] = m.At(0, j)
	}
	inTree[0] = true

	edges := make([]Edge, 0, n-1)
	disconnected := false
	for len(edges) < n-1 {
		next := -1
		best := math.Inf(1)
		for j := 0; j < n; j++ {
			if !inTree[j] && (next == -1 || dist[j] < best) {
				next, best = j, dist[j]
			}
		}
		if math.IsInf(best, 1) {
			disconnected = true
		}
		edges = append(edges, Edge{From: from[next], To: next, Weight: best})
		inTree[next] = true
		for j, d := range m.Row(next) {
			if !inTree[j] && d < dist[j] {
				dist[j] = d
				from[j] = next
			}
		}
	}

	if disconnected {
		slog.Warn("spanning tree contains +Inf edges", "points", n)
	}
	return edges
}
