package main

import (
	"github.com/spf13/cobra"
)

type metaFlags struct {
	algorithms  []string
	objectives  []string
	references  []string
	strategies  []string
	correlation string
	fronts      int
	shuffle     bool
	seed        uint64
}

func newMetaCmd(a *app) *cobra.Command {
	var (
		data   dataFlags
		search searchFlags
		meta   metaFlags
	)
	cmd := &cobra.Command{
		Use:   "meta",
		Short: "Pool the searches of several algorithms and correlate criteria rankings",
		Long: `meta searches every listed algorithm, pools all evaluated configurations
and ranks the pool with each unsupervised criterion alone and with Pareto
fronts over pairs and triples of them. Each ranking is compared with the
ranking of every reference (supervised) criterion by rank correlation.`,
		Example: `  clustersearch meta --generate 300x2 --algorithms dbscan,k-means,agglomerative \
    --objectives Silhouette,Davies-Bouldin,Calinski-Harabasz --references NMI-sqrt`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.applyData(cmd, &data)
			a.applySearch(cmd, &search)
			f := cmd.Flags()
			if f.Changed("algorithms") {
				a.cfg.Meta.Algorithms = meta.algorithms
			}
			if f.Changed("objectives") {
				a.cfg.Meta.Objectives = meta.objectives
			}
			if f.Changed("references") {
				a.cfg.Meta.References = meta.references
			}
			if f.Changed("strategies") {
				a.cfg.Meta.Strategies = meta.strategies
			}
			if f.Changed("correlation") {
				a.cfg.Meta.Correlation = meta.correlation
			}
			if f.Changed("fronts") {
				a.cfg.Meta.Fronts = meta.fronts
			}
			if f.Changed("shuffle") {
				a.cfg.Meta.Shuffle = meta.shuffle
			}
			if f.Changed("seed") {
				a.cfg.Meta.Seed = meta.seed
			}

			plan, o, err := a.plan()
			if err != nil {
				return err
			}
			sum, err := o.MetaSearch(cmd.Context(), plan)
			if err != nil {
				return err
			}
			newPrinter(cmd.OutOrStdout()).metaSummary(sum)
			return nil
		},
	}
	data.register(cmd)
	search.register(cmd)

	f := cmd.Flags()
	f.StringSliceVar(&meta.algorithms, "algorithms", nil, "algorithms to search (default: --algorithm)")
	f.StringSliceVar(&meta.objectives, "objectives", nil, "unsupervised criteria to combine (default: all internal)")
	f.StringSliceVar(&meta.references, "references", nil, "supervised reference criteria (default: all external)")
	f.StringSliceVar(&meta.strategies, "strategies", nil, "ranking strategies: sort, pareto, pareto3 (default: all)")
	f.StringVar(&meta.correlation, "correlation", "", "rank correlation: spearman or kendall")
	f.IntVar(&meta.fronts, "fronts", 0, "maximum Pareto fronts (default 20)")
	f.BoolVar(&meta.shuffle, "shuffle", true, "shuffle the pool before ranking")
	f.Uint64Var(&meta.seed, "seed", 0, "shuffle seed")
	return cmd
}
