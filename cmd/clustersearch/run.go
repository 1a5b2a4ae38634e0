package main

import (
	"github.com/spf13/cobra"

	"github.com/TrevorS/clustersearch/internal/experiment"
)

// dataFlags select and describe the input dataset.
type dataFlags struct {
	path      string
	generate  string
	typ       string
	separator string
	class     int
	id        int
	header    bool
	skip      int
	name      string
}

func (d *dataFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&d.path, "data", "", "data file (csv or whitespace separated)")
	f.StringVar(&d.generate, "generate", "", "generate NxD Gaussian blobs instead of loading a file")
	f.StringVar(&d.typ, "type", "", "data file type: csv, txt (default: file extension)")
	f.StringVar(&d.separator, "data-separator", "", "field delimiter of a csv data file (default ',')")
	f.IntVar(&d.class, "class", -2, "class column, -1 for none, -2 for the last column")
	f.IntVar(&d.id, "id", -1, "row identifier column, -1 for none")
	f.BoolVar(&d.header, "header", false, "data file has a header line")
	f.IntVar(&d.skip, "skip", 0, "leading lines to skip")
	f.StringVarP(&d.name, "name", "n", "", "experiment name (default: random)")
}

func (a *app) applyData(cmd *cobra.Command, d *dataFlags) {
	f := cmd.Flags()
	if f.Changed("data") {
		a.cfg.Data.Path = d.path
		a.cfg.Data.Generate = ""
	}
	if f.Changed("generate") {
		a.cfg.Data.Generate = d.generate
		a.cfg.Data.Path = ""
	}
	if f.Changed("type") {
		a.cfg.Data.Type = d.typ
	}
	if f.Changed("data-separator") {
		a.cfg.Data.Separator = d.separator
	}
	if f.Changed("class") {
		a.cfg.Data.Class = d.class
	}
	if f.Changed("id") {
		a.cfg.Data.ID = d.id
	}
	if f.Changed("header") {
		a.cfg.Data.Header = d.header
	}
	if f.Changed("skip") {
		a.cfg.Data.Skip = d.skip
	}
	if f.Changed("name") {
		a.cfg.Name = d.name
	}
}

// searchFlags configure the algorithm and its search.
type searchFlags struct {
	algorithm string
	params    string
	method    string
	evals     []string
	optEval   string
	optimal   bool
	hintK     bool
	repeat    int
}

func (s *searchFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&s.algorithm, "algorithm", "a", "", "algorithm name (see list)")
	f.StringVarP(&s.params, "params", "p", "", `base parameters, e.g. '{"k": 3}' or '{eps=0.5,min-pts=4}'`)
	f.StringVarP(&s.method, "method", "m", "", "search method or catalog of the algorithm family")
	f.StringSliceVarP(&s.evals, "eval", "e", nil, "criteria written for every result")
	f.StringVar(&s.optEval, "opt-eval", "", "criterion the search optimises")
	f.BoolVar(&s.optimal, "optimal", true, "search for the best configuration")
	f.BoolVar(&s.hintK, "hint-k", false, "set k to the number of classes")
	f.IntVarP(&s.repeat, "repeat", "r", 1, "number of repeats")
}

func (a *app) applySearch(cmd *cobra.Command, s *searchFlags) {
	f := cmd.Flags()
	if f.Changed("algorithm") {
		a.cfg.Algorithm = s.algorithm
	}
	if f.Changed("params") {
		a.cfg.Params = s.params
	}
	if f.Changed("method") {
		a.cfg.Method = s.method
	}
	if f.Changed("eval") {
		a.cfg.Eval = s.evals
	}
	if f.Changed("opt-eval") {
		a.cfg.OptEval = s.optEval
	}
	if f.Changed("optimal") {
		a.cfg.Optimal = s.optimal
	}
	if f.Changed("hint-k") {
		a.cfg.HintK = s.hintK
	}
	if f.Changed("repeat") {
		a.cfg.Repeat = s.repeat
	}
}

// plan validates the merged settings, loads the data and resolves every
// name.
func (a *app) plan() (*experiment.Plan, *experiment.Orchestrator, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, nil, err
	}
	sink, err := a.sink()
	if err != nil {
		return nil, nil, err
	}
	ds, err := a.cfg.Data.Dataset()
	if err != nil {
		return nil, nil, err
	}
	a.logger.Info("dataset loaded",
		"dataset", ds.Name,
		"points", ds.Len(),
		"dims", ds.Dims(),
		"classes", ds.NumClasses())
	if !ds.HasClasses() {
		a.logger.Warn("dataset has no classes, external criteria will not be computed", "dataset", ds.Name)
	}
	plan, err := experiment.Resolve(a.cfg, ds, a.algorithms, a.criteria)
	if err != nil {
		return nil, nil, err
	}
	o := &experiment.Orchestrator{
		Algorithms: a.algorithms,
		Sink:       sink,
		Logger:     a.logger,
		Metrics:    a.metrics,
	}
	return plan, o, nil
}

func newRunCmd(a *app) *cobra.Command {
	var (
		data   dataFlags
		search searchFlags
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run an algorithm, searching its configuration, and export every result",
		Example: `  clustersearch run --generate 150x2 -a dbscan -m exhaustive
  clustersearch run --data iris.csv -a k-means --hint-k -r 5 --optimal=false`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.applyData(cmd, &data)
			a.applySearch(cmd, &search)
			plan, o, err := a.plan()
			if err != nil {
				return err
			}
			sum, err := o.Run(cmd.Context(), plan)
			if err != nil {
				return err
			}
			newPrinter(cmd.OutOrStdout()).summary(sum)
			return nil
		},
	}
	data.register(cmd)
	search.register(cmd)
	return cmd
}
