package eval

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/TrevorS/clustersearch/internal/clustering"
	"github.com/TrevorS/clustersearch/internal/props"
)

// partition is the non-noise view of a clustering used by internal criteria.
type partition struct {
	points    [][]float64
	clusters  [][]int
	centroids [][]float64
	mean      []float64
	n         int
}

func newPartition(c *clustering.Clustering, minClusters int) (*partition, error) {
	if c.Dataset == nil {
		return nil, fmt.Errorf("%w: clustering has no dataset", ErrNotComputable)
	}
	if c.Size() < minClusters {
		return nil, fmt.Errorf("%w: %d clusters, need at least %d", ErrNotComputable, c.Size(), minClusters)
	}
	p := &partition{points: c.Dataset.Points, clusters: c.Clusters()}
	dims := c.Dataset.Dims()
	p.mean = make([]float64, dims)
	for _, members := range p.clusters {
		centroid := make([]float64, dims)
		for _, i := range members {
			floats.Add(centroid, p.points[i])
		}
		floats.Add(p.mean, centroid)
		floats.Scale(1/float64(len(members)), centroid)
		p.centroids = append(p.centroids, centroid)
		p.n += len(members)
	}
	floats.Scale(1/float64(p.n), p.mean)
	return p, nil
}

func (p *partition) dist(i, j int) float64 {
	return floats.Distance(p.points[i], p.points[j], 2)
}

// Silhouette is the mean silhouette width over non-noise points, in [-1, 1].
type Silhouette struct{ Direction }

func NewSilhouette() *Silhouette { return &Silhouette{Maximize} }

func (*Silhouette) Name() string     { return "Silhouette" }
func (*Silhouette) IsExternal() bool { return false }

func (s *Silhouette) Score(c *clustering.Clustering, _ *props.Props) (float64, error) {
	p, err := newPartition(c, 2)
	if err != nil {
		return 0, err
	}
	if len(p.clusters) >= p.n {
		return 0, fmt.Errorf("%w: every point is its own cluster", ErrNotComputable)
	}
	widths := make([]float64, 0, p.n)
	for ci, members := range p.clusters {
		for _, i := range members {
			if len(members) == 1 {
				widths = append(widths, 0)
				continue
			}
			var a float64
			for _, j := range members {
				if j != i {
					a += p.dist(i, j)
				}
			}
			a /= float64(len(members) - 1)

			b := math.Inf(1)
			for cj, other := range p.clusters {
				if cj == ci {
					continue
				}
				var sum float64
				for _, j := range other {
					sum += p.dist(i, j)
				}
				b = min(b, sum/float64(len(other)))
			}
			if m := max(a, b); m > 0 {
				widths = append(widths, (b-a)/m)
			} else {
				widths = append(widths, 0)
			}
		}
	}
	return stat.Mean(widths, nil), nil
}

// DaviesBouldin is the mean over clusters of the worst ratio of summed
// scatter to centroid separation. Lower is better.
type DaviesBouldin struct{ Direction }

func NewDaviesBouldin() *DaviesBouldin { return &DaviesBouldin{Minimize} }

func (*DaviesBouldin) Name() string     { return "Davies-Bouldin" }
func (*DaviesBouldin) IsExternal() bool { return false }

func (d *DaviesBouldin) Score(c *clustering.Clustering, _ *props.Props) (float64, error) {
	p, err := newPartition(c, 2)
	if err != nil {
		return 0, err
	}
	scatter := make([]float64, len(p.clusters))
	for ci, members := range p.clusters {
		for _, i := range members {
			scatter[ci] += floats.Distance(p.points[i], p.centroids[ci], 2)
		}
		scatter[ci] /= float64(len(members))
	}
	var sum float64
	for i := range p.clusters {
		worst := 0.0
		for j := range p.clusters {
			if i == j {
				continue
			}
			sep := floats.Distance(p.centroids[i], p.centroids[j], 2)
			if sep == 0 {
				return 0, fmt.Errorf("%w: coincident centroids", ErrNotComputable)
			}
			worst = max(worst, (scatter[i]+scatter[j])/sep)
		}
		sum += worst
	}
	return sum / float64(len(p.clusters)), nil
}

// CalinskiHarabasz is the ratio of between-cluster to within-cluster
// dispersion, scaled by degrees of freedom.
type CalinskiHarabasz struct{ Direction }

func NewCalinskiHarabasz() *CalinskiHarabasz { return &CalinskiHarabasz{Maximize} }

func (*CalinskiHarabasz) Name() string     { return "Calinski-Harabasz" }
func (*CalinskiHarabasz) IsExternal() bool { return false }

func (ch *CalinskiHarabasz) Score(c *clustering.Clustering, _ *props.Props) (float64, error) {
	p, err := newPartition(c, 2)
	if err != nil {
		return 0, err
	}
	k := len(p.clusters)
	if p.n <= k {
		return 0, fmt.Errorf("%w: %d points for %d clusters", ErrNotComputable, p.n, k)
	}
	var between, within float64
	for ci, members := range p.clusters {
		d := floats.Distance(p.centroids[ci], p.mean, 2)
		between += float64(len(members)) * d * d
		for _, i := range members {
			w := floats.Distance(p.points[i], p.centroids[ci], 2)
			within += w * w
		}
	}
	if within == 0 {
		return 0, fmt.Errorf("%w: zero within-cluster dispersion", ErrNotComputable)
	}
	return (between / float64(k-1)) / (within / float64(p.n-k)), nil
}

// Dunn is the smallest inter-cluster distance divided by the largest
// cluster diameter.
type Dunn struct{ Direction }

func NewDunn() *Dunn { return &Dunn{Maximize} }

func (*Dunn) Name() string     { return "Dunn" }
func (*Dunn) IsExternal() bool { return false }

func (d *Dunn) Score(c *clustering.Clustering, _ *props.Props) (float64, error) {
	p, err := newPartition(c, 2)
	if err != nil {
		return 0, err
	}
	minSep := math.Inf(1)
	maxDiam := 0.0
	for ci, a := range p.clusters {
		for x, i := range a {
			for _, j := range a[x+1:] {
				maxDiam = max(maxDiam, p.dist(i, j))
			}
			for cj := ci + 1; cj < len(p.clusters); cj++ {
				for _, j := range p.clusters[cj] {
					minSep = min(minSep, p.dist(i, j))
				}
			}
		}
	}
	if maxDiam == 0 {
		return 0, fmt.Errorf("%w: all clusters are singletons or duplicates", ErrNotComputable)
	}
	return minSep / maxDiam, nil
}
