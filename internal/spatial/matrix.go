package spatial

import (
	"runtime"
	"sort"
	"sync"
)

// Matrix is a dense symmetric n×n distance matrix stored row-major.
type Matrix struct {
	N    int
	Data []float64
}

// At returns the distance between points i and j.
func (m *Matrix) At(i, j int) float64 { return m.Data[i*m.N+j] }

// Set stores d at (i, j) and (j, i).
func (m *Matrix) Set(i, j int, d float64) {
	m.Data[i*m.N+j] = d
	m.Data[j*m.N+i] = d
}

// Row returns row i without copying.
func (m *Matrix) Row(i int) []float64 { return m.Data[i*m.N : (i+1)*m.N] }

// shardRows runs fn over contiguous row ranges on up to workers goroutines.
// Ranges never overlap, so fn may write its own rows without locking.
func shardRows(n, workers int, fn func(start, end int)) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers <= 1 || n <= 1 {
		fn(0, n)
		return
	}
	per := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for start := 0; start < n; start += per {
		end := min(start+per, n)
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			fn(start, end)
		}(start, end)
	}
	wg.Wait()
}

// Pairwise computes the full distance matrix of points. workers <= 0 uses
// one goroutine per CPU.
func Pairwise(points [][]float64, metric Metric, workers int) *Matrix {
	if metric == nil {
		metric = Euclidean{}
	}
	n := len(points)
	m := &Matrix{N: n, Data: make([]float64, n*n)}
	shardRows(n, workers, func(start, end int) {
		for i := start; i < end; i++ {
			for j := i + 1; j < n; j++ {
				m.Set(i, j, metric.Distance(points[i], points[j]))
			}
		}
	})
	return m
}

// CoreDistances returns, for every point, the distance to its k-th nearest
// other point. k is clamped to [0, n-1]; k == 0 yields all zeros.
func CoreDistances(m *Matrix, k, workers int) []float64 {
	n := m.N
	k = max(min(k, n-1), 0)
	core := make([]float64, n)
	if k == 0 {
		return core
	}
	shardRows(n, workers, func(start, end int) {
		others := make([]float64, 0, n-1)
		for i := start; i < end; i++ {
			others = others[:0]
			for j, d := range m.Row(i) {
				if j != i {
					others = append(others, d)
				}
			}
			sort.Float64s(others)
			core[i] = others[k-1]
		}
	})
	return core
}

// MutualReachability returns the matrix max(core[i], core[j], d(i,j)/alpha).
func MutualReachability(m *Matrix, core []float64, alpha float64, workers int) *Matrix {
	n := m.N
	out := &Matrix{N: n, Data: make([]float64, n*n)}
	shardRows(n, workers, func(start, end int) {
		for i := start; i < end; i++ {
			row := m.Row(i)
			dst := out.Row(i)
			for j, d := range row {
				if alpha != 1 {
					d /= alpha
				}
				if i == j {
					d = 0
				}
				dst[j] = max(d, core[i], core[j])
			}
		}
	})
	return out
}

// KDistances returns the distance from every point to its k-th nearest
// neighbour (excluding itself), sorted in ascending order. This is the
// curve inspected to choose a DBSCAN radius.
func KDistances(points [][]float64, metric Metric, k int) []float64 {
	if len(points) < 2 || k < 1 {
		return nil
	}
	k = min(k, len(points)-1)
	tree := NewKDTree(points, metric, 16)
	out := make([]float64, len(points))
	shardRows(len(points), 0, func(start, end int) {
		for i := start; i < end; i++ {
			nn := tree.KNN(points[i], k+1)
			out[i] = nn[len(nn)-1].Dist
		}
	})
	sort.Float64s(out)
	return out
}
