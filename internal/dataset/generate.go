package dataset

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// BlobOptions configures the synthetic Gaussian blob generator.
type BlobOptions struct {
	Clusters   int
	PerCluster int
	Dims       int
	// Spread is the standard deviation of each blob.
	Spread float64
	// Separation is the distance between neighbouring blob centres.
	Separation float64
	Seed       uint64
}

// DefaultBlobOptions returns three well separated 2-D blobs of 50 points.
func DefaultBlobOptions() BlobOptions {
	return BlobOptions{
		Clusters:   3,
		PerCluster: 50,
		Dims:       2,
		Spread:     0.5,
		Separation: 10,
		Seed:       42,
	}
}

// Blobs generates a labelled dataset of isotropic Gaussian blobs. Centres are
// placed on a circle so every pair of blobs is at least Separation apart for
// up to six clusters.
func Blobs(opts BlobOptions) *Dataset {
	if opts.Dims < 1 {
		opts.Dims = 2
	}
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))

	radius := opts.Separation
	if opts.Clusters > 1 {
		radius = opts.Separation / (2 * math.Sin(math.Pi/float64(opts.Clusters)))
	}

	ds := &Dataset{Name: fmt.Sprintf("blobs-%dx%d", opts.Clusters, opts.PerCluster)}
	classes := make([]string, 0, opts.Clusters*opts.PerCluster)
	for c := 0; c < opts.Clusters; c++ {
		centre := make([]float64, opts.Dims)
		angle := 2 * math.Pi * float64(c) / float64(opts.Clusters)
		centre[0] = radius * math.Cos(angle)
		if opts.Dims > 1 {
			centre[1] = radius * math.Sin(angle)
		}
		for i := 0; i < opts.PerCluster; i++ {
			p := make([]float64, opts.Dims)
			for d := range p {
				p[d] = centre[d] + rng.NormFloat64()*opts.Spread
			}
			ds.Points = append(ds.Points, p)
			classes = append(classes, fmt.Sprintf("c%d", c))
		}
	}
	ds.SetClasses(classes)
	return ds
}

// Uniform generates n unlabelled points drawn uniformly from [0, 1)^dims.
func Uniform(n, dims int, seed uint64) *Dataset {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	ds := &Dataset{Name: fmt.Sprintf("uniform-%dx%d", n, dims)}
	for i := 0; i < n; i++ {
		p := make([]float64, dims)
		for d := range p {
			p[d] = rng.Float64()
		}
		ds.Points = append(ds.Points, p)
	}
	return ds
}
