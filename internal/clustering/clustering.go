// Package clustering defines the result of running a clustering algorithm on
// a dataset: a flat partition of the points plus the configuration and
// timing of the run that produced it.
package clustering

import (
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/TrevorS/clustersearch/internal/dataset"
	"github.com/TrevorS/clustersearch/internal/props"
)

// Noise marks a point that belongs to no cluster.
const Noise = -1

// Clustering is a flat partition of a dataset. Labels are renumbered on
// construction so clusters are 0..Size()-1 in order of first appearance;
// negative labels become Noise.
type Clustering struct {
	// ID identifies the result in rankings and export rows.
	ID        string
	Algorithm string
	Dataset   *dataset.Dataset
	Labels    []int
	Params    *props.Props
	// Elapsed is the wall time of the run that produced this result.
	Elapsed time.Duration

	size int

	mu     sync.Mutex
	scores map[string]float64
}

// New wraps labels produced by algorithm on ds.
func New(algorithm string, ds *dataset.Dataset, labels []int) *Clustering {
	c := &Clustering{
		ID:        uuid.NewString(),
		Algorithm: algorithm,
		Dataset:   ds,
		Labels:    make([]int, len(labels)),
		Params:    props.New(),
		scores:    make(map[string]float64),
	}
	remap := make(map[int]int)
	for i, l := range labels {
		if l < 0 {
			c.Labels[i] = Noise
			continue
		}
		id, ok := remap[l]
		if !ok {
			id = len(remap)
			remap[l] = id
		}
		c.Labels[i] = id
	}
	c.size = len(remap)
	return c
}

// Size returns the number of clusters, not counting noise.
func (c *Clustering) Size() int { return c.size }

// Len returns the number of labelled points.
func (c *Clustering) Len() int { return len(c.Labels) }

// NoiseCount returns the number of points labelled Noise.
func (c *Clustering) NoiseCount() int {
	n := 0
	for _, l := range c.Labels {
		if l == Noise {
			n++
		}
	}
	return n
}

// Clusters returns the member indices of each cluster, indexed by label.
func (c *Clustering) Clusters() [][]int {
	out := make([][]int, c.size)
	for i, l := range c.Labels {
		if l != Noise {
			out[l] = append(out[l], i)
		}
	}
	return out
}

// Sizes returns the number of members per cluster, indexed by label.
func (c *Clustering) Sizes() []int {
	out := make([]int, c.size)
	for _, l := range c.Labels {
		if l != Noise {
			out[l]++
		}
	}
	return out
}

// Fingerprint summarises the partition as its cluster sizes in descending
// order, e.g. "[50,50,50]".
func (c *Clustering) Fingerprint() string {
	sizes := c.Sizes()
	slices.Sort(sizes)
	slices.Reverse(sizes)
	parts := make([]string, len(sizes))
	for i, s := range sizes {
		parts[i] = strconv.Itoa(s)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// Score returns a cached evaluation score.
func (c *Clustering) Score(criterion string) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.scores[criterion]
	return v, ok
}

// SetScore caches an evaluation score.
func (c *Clustering) SetScore(criterion string, v float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.scores == nil {
		c.scores = make(map[string]float64)
	}
	c.scores[criterion] = v
}

// Scores returns a copy of every cached score.
func (c *Clustering) Scores() map[string]float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]float64, len(c.scores))
	for k, v := range c.scores {
		out[k] = v
	}
	return out
}
