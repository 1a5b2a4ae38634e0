// Package dataset holds the numeric input of a clustering experiment: a
// matrix of points, optionally with a class label per point.
package dataset

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmpty is returned when a dataset has no points.
	ErrEmpty = errors.New("dataset: no points")

	// ErrRagged is returned when points do not share the same dimensionality.
	ErrRagged = errors.New("dataset: points have different dimensionality")
)

// Dataset is an in-memory table of points. Labels holds, for each point, an
// index into Classes, and is nil for unsupervised data.
type Dataset struct {
	Name    string
	Points  [][]float64
	Labels  []int
	Classes []string
	IDs     []string
}

// New builds a dataset and checks that every point has the same number of
// attributes.
func New(name string, points [][]float64) (*Dataset, error) {
	ds := &Dataset{Name: name, Points: points}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return ds, nil
}

// Validate checks the dataset invariants.
func (d *Dataset) Validate() error {
	if len(d.Points) == 0 {
		return fmt.Errorf("%w: %s", ErrEmpty, d.Name)
	}
	dims := len(d.Points[0])
	if dims == 0 {
		return fmt.Errorf("%w: %s has no attributes", ErrEmpty, d.Name)
	}
	for i, p := range d.Points {
		if len(p) != dims {
			return fmt.Errorf("%w: row %d has %d attributes, expected %d", ErrRagged, i, len(p), dims)
		}
	}
	if d.Labels != nil && len(d.Labels) != len(d.Points) {
		return fmt.Errorf("dataset: %d labels for %d points", len(d.Labels), len(d.Points))
	}
	return nil
}

// Len returns the number of points.
func (d *Dataset) Len() int { return len(d.Points) }

// Dims returns the number of attributes per point.
func (d *Dataset) Dims() int {
	if len(d.Points) == 0 {
		return 0
	}
	return len(d.Points[0])
}

// HasClasses reports whether the dataset carries ground-truth labels.
func (d *Dataset) HasClasses() bool { return d.Labels != nil }

// NumClasses returns the number of distinct ground-truth classes.
func (d *Dataset) NumClasses() int { return len(d.Classes) }

// SetClasses assigns ground-truth labels from raw class names, numbering
// classes in order of first appearance.
func (d *Dataset) SetClasses(names []string) {
	index := make(map[string]int)
	d.Classes = d.Classes[:0]
	d.Labels = make([]int, len(names))
	for i, name := range names {
		id, ok := index[name]
		if !ok {
			id = len(d.Classes)
			index[name] = id
			d.Classes = append(d.Classes, name)
		}
		d.Labels[i] = id
	}
}

// Flat returns the points as a row-major slice of length Len()*Dims().
func (d *Dataset) Flat() []float64 {
	dims := d.Dims()
	out := make([]float64, len(d.Points)*dims)
	for i, p := range d.Points {
		copy(out[i*dims:], p)
	}
	return out
}

// SafeName returns the dataset name lowercased with spaces replaced, for use
// in file names.
func (d *Dataset) SafeName() string {
	return SafeName(d.Name)
}

// SafeName lowercases s and replaces spaces with underscores.
func SafeName(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_")
}
