package search

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/TrevorS/clustersearch/internal/algorithm"
	"github.com/TrevorS/clustersearch/internal/props"
)

// Candidate is one labelled override in a catalog.
type Candidate struct {
	Label    string
	Override *props.Props
}

// Catalog is an ordered list of candidate overrides.
type Catalog []Candidate

// Entry builds a candidate from key/value pairs, labelled by its rendering.
func Entry(kv ...any) Candidate {
	p := props.Of(kv...)
	return Candidate{Label: p.String(), Override: p}
}

// Parsed builds a catalog from configuration strings in the form accepted
// by props.Parse. It panics on malformed input, so use it only for literals.
func Parsed(specs ...string) Catalog {
	out := make(Catalog, len(specs))
	for i, s := range specs {
		p := props.MustParse(s)
		out[i] = Candidate{Label: p.String(), Override: p}
	}
	return out
}

// Product combines two catalogs into every pairing of their entries, a's
// entries varying slowest. Keys from b win on collision.
func Product(a, b Catalog) Catalog {
	out := make(Catalog, 0, len(a)*len(b))
	for _, x := range a {
		for _, y := range b {
			out = append(out, Candidate{
				Label:    x.Label + " + " + y.Label,
				Override: x.Override.Merge(y.Override),
			})
		}
	}
	return out
}

// DefaultMethod names the catalog used when a request names none.
const DefaultMethod = "default"

// catalogs holds every named catalog per family. Builders return fresh
// values so callers may keep what they receive.
var catalogs = map[algorithm.Family]map[string]func() Catalog{
	algorithm.FamilyCriterion: {
		DefaultMethod: linkageCatalog,
		"metric": func() Catalog {
			return Product(linkageCatalog(), Catalog{
				Entry(algorithm.ParamMetric, "euclidean"),
				Entry(algorithm.ParamMetric, "manhattan"),
			})
		},
	},
	algorithm.FamilyDamping: {
		DefaultMethod: dampingCatalog,
		"preference": func() Catalog {
			return Product(
				Catalog{Entry(algorithm.ParamDamping, 0.5), Entry(algorithm.ParamDamping, 0.7), Entry(algorithm.ParamDamping, 0.9)},
				Catalog{Entry(algorithm.ParamPreferenceQuantile, 0.1), Entry(algorithm.ParamPreferenceQuantile, 0.5)},
			)
		},
	},
	algorithm.FamilyPreset: {
		DefaultMethod: func() Catalog {
			return Parsed(
				"{min-cluster-size=5}",
				"{min-cluster-size=10}",
				"{min-cluster-size=15}",
				"{min-cluster-size=20}",
				"{min-cluster-size=30}",
			)
		},
		"grid": func() Catalog {
			return Product(
				Parsed("{min-cluster-size=5}", "{min-cluster-size=10}", "{min-cluster-size=20}"),
				Parsed("{selection=eom}", "{selection=leaf}"),
			)
		},
	},
}

func linkageCatalog() Catalog {
	out := make(Catalog, 0, len(algorithm.Linkages))
	for _, l := range algorithm.Linkages {
		out = append(out, Entry(algorithm.ParamLinkage, l))
	}
	return out
}

func dampingCatalog() Catalog {
	var out Catalog
	for i := 0; i <= 9; i++ {
		out = append(out, Entry(algorithm.ParamDamping, math.Round((0.5+0.05*float64(i))*100)/100))
	}
	return out
}

// CatalogFor returns the named catalog of a family. An empty method selects
// DefaultMethod.
func CatalogFor(family algorithm.Family, method string) (Catalog, error) {
	methods, ok := catalogs[family]
	if !ok {
		return nil, fmt.Errorf("%w: family %s has no catalogs", ErrUnknownMethod, family)
	}
	if method == "" {
		method = DefaultMethod
	}
	build, ok := methods[strings.ToLower(method)]
	if !ok {
		return nil, fmt.Errorf("%w: %q for %s family", ErrUnknownMethod, method, family)
	}
	return build(), nil
}

// Methods lists the named search methods of a family in sorted order.
func Methods(family algorithm.Family) []string {
	switch family {
	case algorithm.FamilyDensity:
		return []string{MethodExhaustive, MethodIncremental}
	case algorithm.FamilyShrink, algorithm.FamilyNone:
		return []string{DefaultMethod}
	}
	var out []string
	for name := range catalogs[family] {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}
