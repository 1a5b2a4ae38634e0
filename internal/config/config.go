// Package config holds the settings of a clustering experiment.
//
// Settings come from defaults, then an optional YAML file, then command
// line flags. The merged result is checked with struct tag validation
// before anything runs.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/TrevorS/clustersearch/internal/dataset"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid experiment")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Experiment describes one batch experiment.
type Experiment struct {
	// Dir is the root output directory.
	Dir string `yaml:"dir" validate:"required"`
	// Name names the experiment sub-directory of Dir. A random name is
	// used when empty.
	Name string `yaml:"name"`

	Data Data `yaml:"data"`

	// Algorithm is a registered algorithm name.
	Algorithm string `yaml:"algorithm" validate:"required"`
	// Params is the base configuration in JSON or key=value form.
	Params string `yaml:"params"`
	// Method selects the search method or catalog of the algorithm family.
	Method string `yaml:"method"`

	// Eval lists the criteria written for every result.
	Eval []string `yaml:"eval" validate:"required,min=1,dive,required"`
	// OptEval is the criterion the search optimises.
	OptEval string `yaml:"opt-eval" validate:"required"`
	// Optimal runs the configuration search; otherwise each repeat runs
	// the base configuration once.
	Optimal bool `yaml:"optimal"`
	// HintK sets k to the number of classes in the data.
	HintK  bool `yaml:"hint-k"`
	Repeat int  `yaml:"repeat" validate:"min=1,max=1000"`

	// Separator is the output field delimiter.
	Separator string `yaml:"separator" validate:"len=1"`

	Meta      Meta      `yaml:"meta"`
	Telemetry Telemetry `yaml:"telemetry"`
}

// Data locates the input dataset.
type Data struct {
	// Path is the data file. Either Path or Generate is required.
	Path string `yaml:"path" validate:"required_without=Generate"`
	// Generate is an NxD size for synthetic blobs, e.g. "150x2".
	Generate string `yaml:"generate" validate:"omitempty,excluded_with=Path"`
	// Clusters is the number of generated blobs.
	Clusters int    `yaml:"clusters" validate:"min=0"`
	Seed     uint64 `yaml:"seed"`

	Type      string `yaml:"type" validate:"omitempty,oneof=csv txt dat data"`
	Separator string `yaml:"separator" validate:"omitempty,len=1"`
	// Class is the zero-based class column, -1 for none, -2 for the last.
	Class  int  `yaml:"class" validate:"min=-2"`
	ID     int  `yaml:"id" validate:"min=-1"`
	Skip   int  `yaml:"skip" validate:"min=0"`
	Header bool `yaml:"header"`
}

// Meta configures the multi-algorithm ranking experiment.
type Meta struct {
	Algorithms []string `yaml:"algorithms" validate:"dive,required"`
	// Objectives are the unsupervised criteria combined into fronts.
	Objectives []string `yaml:"objectives" validate:"dive,required"`
	// References are the supervised criteria rankings are compared with.
	References  []string `yaml:"references" validate:"dive,required"`
	Strategies  []string `yaml:"strategies" validate:"dive,oneof=sort pareto pareto3"`
	Correlation string   `yaml:"correlation" validate:"omitempty,oneof=spearman kendall"`
	Fronts      int      `yaml:"fronts" validate:"min=0"`
	Shuffle     bool     `yaml:"shuffle"`
	Seed        uint64   `yaml:"seed"`
}

// Telemetry configures logs, metrics and traces.
type Telemetry struct {
	LogLevel    string `yaml:"log-level" validate:"omitempty,oneof=debug info warn error"`
	LogFormat   string `yaml:"log-format" validate:"omitempty,oneof=text json"`
	MetricsFile string `yaml:"metrics-file"`
	TraceFile   string `yaml:"trace-file"`
}

// DefaultExperiment returns the settings used when nothing is configured.
func DefaultExperiment() Experiment {
	return Experiment{
		Dir:       "results",
		Algorithm: "dbscan",
		Eval:      []string{"Silhouette", "Davies-Bouldin", "Calinski-Harabasz", "NMI-sqrt", "Adjusted Rand"},
		OptEval:   "Silhouette",
		Optimal:   true,
		Repeat:    1,
		Separator: ",",
		Data: Data{
			Class: -2,
			ID:    -1,
		},
		Meta: Meta{
			Objectives:  []string{"Silhouette", "Davies-Bouldin", "Calinski-Harabasz", "Dunn"},
			References:  []string{"NMI-sqrt"},
			Correlation: "spearman",
			Shuffle:     true,
		},
		Telemetry: Telemetry{
			LogLevel:  "info",
			LogFormat: "text",
		},
	}
}

// Load reads path over the defaults. Keys missing from the file keep their
// default values.
func Load(path string) (Experiment, error) {
	cfg := DefaultExperiment()
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the struct tags.
func (e Experiment) Validate() error {
	if err := validate.Struct(e); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, len(verrs))
			for i, fe := range verrs {
				msgs[i] = fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag())
			}
			return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if e.Data.Generate != "" {
		if _, _, err := e.Data.Size(); err != nil {
			return err
		}
	}
	return nil
}

// OutputSeparator returns the output delimiter as a rune.
func (e Experiment) OutputSeparator() rune {
	r, _ := utf8.DecodeRuneInString(e.Separator)
	return r
}

// Size parses Generate as "NxD".
func (d Data) Size() (n, dims int, err error) {
	left, right, ok := strings.Cut(strings.ToLower(d.Generate), "x")
	if ok {
		n, err = strconv.Atoi(strings.TrimSpace(left))
		if err == nil {
			dims, err = strconv.Atoi(strings.TrimSpace(right))
		}
	}
	if !ok || err != nil || n < 1 || dims < 1 {
		return 0, 0, fmt.Errorf("%w: generate size %q, want NxD", ErrInvalid, d.Generate)
	}
	return n, dims, nil
}

// LoadOptions converts the data layout into dataset load options.
func (d Data) LoadOptions() dataset.LoadOptions {
	opts := dataset.DefaultLoadOptions()
	opts.Type = d.Type
	if d.Separator != "" {
		opts.Separator, _ = utf8.DecodeRuneInString(d.Separator)
	}
	opts.ClassColumn = d.Class
	opts.IDColumn = d.ID
	opts.Skip = d.Skip
	opts.Header = d.Header
	return opts
}

// Dataset loads or generates the configured dataset. Generated data is
// split evenly into Clusters blobs (default 3).
func (d Data) Dataset() (*dataset.Dataset, error) {
	if d.Generate == "" {
		return dataset.Load(d.Path, d.LoadOptions())
	}
	n, dims, err := d.Size()
	if err != nil {
		return nil, err
	}
	opts := dataset.DefaultBlobOptions()
	if d.Clusters > 0 {
		opts.Clusters = d.Clusters
	}
	opts.Dims = dims
	opts.PerCluster = max(n/opts.Clusters, 1)
	if d.Seed != 0 {
		opts.Seed = d.Seed
	}
	return dataset.Blobs(opts), nil
}
