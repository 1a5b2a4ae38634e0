package search

import (
	"context"
	"fmt"
)

// catalogSearch evaluates every entry of the family catalog named by the
// request method, merged onto the base configuration.
func catalogSearch(ctx context.Context, e *Engine, req Request) (acc, error) {
	cat, err := CatalogFor(req.Algorithm.Family(), req.Method)
	if err != nil {
		return acc{}, err
	}
	return e.searchCatalog(ctx, req, cat)
}

// SearchCatalog runs a discrete search over an explicit catalog instead of
// the family's built-in one.
func (e *Engine) SearchCatalog(ctx context.Context, req Request, cat Catalog) (*Outcome, error) {
	if err := e.check(req); err != nil {
		return nil, err
	}
	return e.search(ctx, req, func(ctx context.Context, e *Engine, req Request) (acc, error) {
		return e.searchCatalog(ctx, req, cat)
	})
}

func (e *Engine) searchCatalog(_ context.Context, req Request, cat Catalog) (acc, error) {
	if len(cat) == 0 {
		return acc{}, fmt.Errorf("%w: %s method %q", ErrEmptyCatalog, req.Algorithm.Name(), req.Method)
	}
	a := newAcc(e.Criterion)
	for _, cand := range cat {
		var err error
		a, _, err = e.evaluate(req, req.Base.Merge(cand.Override), cand.Label, a)
		if err != nil {
			return a, err
		}
	}
	return a, nil
}
