package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TrevorS/clustersearch/internal/eval"
	"github.com/TrevorS/clustersearch/internal/rank"
	"github.com/TrevorS/clustersearch/internal/rankeval"
	"github.com/TrevorS/clustersearch/internal/search"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List algorithms, search methods, criteria and ranking strategies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := newPrinter(cmd.OutOrStdout())

			p.heading("Algorithms")
			for _, name := range a.algorithms.List() {
				alg, err := a.algorithms.Get(name)
				if err != nil {
					return err
				}
				methods := search.Methods(alg.Family())
				detail := alg.Family().String()
				if len(methods) > 0 {
					detail += ": " + strings.Join(methods, ", ")
				}
				p.item(name, detail)
			}

			p.heading("Criteria")
			for _, name := range a.criteria.List() {
				c, err := a.criteria.Get(name)
				if err != nil {
					return err
				}
				p.item(name, kind(c))
			}

			p.heading("Ranking strategies")
			for _, s := range rankeval.Strategies() {
				p.item(s.Name(), fmt.Sprintf("%d objective(s)", s.MinObjectives()))
			}

			p.heading("Correlations")
			for _, name := range rank.Correlators() {
				p.item(name, "")
			}
			return nil
		},
	}
}

func kind(c eval.Criterion) string {
	dir := "minimise"
	if c.IsBetter(1, 0) {
		dir = "maximise"
	}
	if c.IsExternal() {
		return "external, " + dir
	}
	return "internal, " + dir
}
