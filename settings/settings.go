// Package settings loads workflow settings from YAML and the environment.
//
// A settings file describes a study: which acceptor/donor pair to use per
// property, the discover parameters and how many repetitions to run.
//
//	repetitions: 5
//	model: linear
//	iterations: 15
//	discover:
//	  exit_mode: percentage
//	  batch_size: 5
//	  percentage: 0.1
//	  scaler: robust
//	pairs:
//	  bandgap: [zhuo, mpds]
//	ascending:
//	  rho: true
//
// Environment variables override single values after the file is read:
// MATDISCO_THRESHOLD, MATDISCO_BATCH_SIZE, MATDISCO_ITERATIONS and
// MATDISCO_SCALER. LoadEnv reads them from .env files first.
package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/matdisco"
	"github.com/hupe1980/matdisco/predict"
	"github.com/hupe1980/matdisco/scale"
)

// Environment variable names.
const (
	EnvThreshold  = "MATDISCO_THRESHOLD"
	EnvBatchSize  = "MATDISCO_BATCH_SIZE"
	EnvIterations = "MATDISCO_ITERATIONS"
	EnvScaler     = "MATDISCO_SCALER"
)

// ErrUnknownProperty is returned by Config for a property without a pair.
var ErrUnknownProperty = errors.New("settings: unknown property")

// Discover holds the selection parameters shared by every property.
type Discover struct {
	ExitMode   matdisco.ExitMode `yaml:"exit_mode"`
	BatchSize  int               `yaml:"batch_size"`
	Threshold  float64           `yaml:"threshold"`
	Percentage float64           `yaml:"percentage"`
	Scaler     scale.Kind        `yaml:"scaler"`
	// DensityWeight weighs the novelty term, TargetWeight the prediction.
	DensityWeight float64  `yaml:"density_weight"`
	TargetWeight  float64  `yaml:"target_weight"`
	Scores        []string `yaml:"scores"`
	Clusters      bool     `yaml:"clusters"`
}

// Snapshots selects how the CLI persists snapshots.
type Snapshots struct {
	Format      string `yaml:"format"`
	Compression string `yaml:"compression"`
	Codec       string `yaml:"codec"`
	// IOLimit throttles snapshot writes in bytes per second.
	IOLimit int64 `yaml:"io_limit"`
}

// Settings is the parsed settings file.
type Settings struct {
	Repetitions int          `yaml:"repetitions"`
	Model       predict.Kind `yaml:"model"`
	Iterations  int          `yaml:"iterations"`
	SelfAugment float64      `yaml:"self_augment"`
	RandomState int64        `yaml:"random_state"`
	Discover    Discover     `yaml:"discover"`
	// Pairs maps a property to its [acceptor, donor] dataset names.
	Pairs map[string][]string `yaml:"pairs"`
	// Ascending marks properties whose qualifying donors are taken least
	// novel first.
	Ascending map[string]bool `yaml:"ascending"`
	Snapshots Snapshots       `yaml:"snapshots"`
}

// DefaultPairs returns the acceptor/donor pair per property of the
// reference study.
func DefaultPairs() map[string][]string {
	return map[string][]string{
		"thermalcond":  {"citrine", "mpds"},
		"bulkmodulus":  {"aflow", "mp"},
		"bandgap":      {"zhuo", "mpds"},
		"seebeck":      {"te", "mpds"},
		"rho":          {"te", "mpds"},
		"sigma":        {"te", "mpds"},
		"shearmodulus": {"aflow", "mp"},
	}
}

// DefaultAscending returns the reference ordering per property. Only
// electrical resistivity prefers low values.
func DefaultAscending() map[string]bool {
	return map[string]bool{
		"thermalcond":  false,
		"bulkmodulus":  false,
		"bandgap":      false,
		"seebeck":      false,
		"rho":          true,
		"sigma":        false,
		"shearmodulus": false,
	}
}

// Default returns the settings used for keys a file leaves out.
func Default() Settings {
	cfg := matdisco.DefaultConfig()
	return Settings{
		Repetitions: 5,
		Model:       cfg.Model,
		Iterations:  cfg.Iterations,
		RandomState: cfg.RandomState,
		Discover: Discover{
			ExitMode:      matdisco.ExitPercentage,
			BatchSize:     5,
			Threshold:     0.9999,
			Percentage:    0.1,
			Scaler:        scale.Robust,
			DensityWeight: 1,
			TargetWeight:  1,
			Scores:        []string{"density"},
		},
		Pairs:     DefaultPairs(),
		Ascending: DefaultAscending(),
	}
}

// Load reads a settings file over Default and applies the environment.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("settings: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return Settings{}, fmt.Errorf("settings: %s: %w", path, err)
	}
	if err := s.ApplyEnv(os.LookupEnv); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Parse decodes YAML over Default. A pairs or ascending table in the file
// replaces the default table instead of merging with it. The environment
// is not consulted.
func Parse(data []byte) (Settings, error) {
	s := Default()
	s.Pairs, s.Ascending = nil, nil
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, err
	}
	if s.Pairs == nil {
		s.Pairs = DefaultPairs()
	}
	if s.Ascending == nil {
		s.Ascending = DefaultAscending()
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// LoadEnv loads .env style files into the process environment without
// overriding variables that are already set. Missing files are skipped;
// with no arguments ".env" is tried.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("settings: load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides values from the environment.
func (s *Settings) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvThreshold); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("settings: %s: %w", EnvThreshold, err)
		}
		s.Discover.Threshold = f
	}
	if v, ok := lookup(EnvBatchSize); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("settings: %s: %w", EnvBatchSize, err)
		}
		s.Discover.BatchSize = n
	}
	if v, ok := lookup(EnvIterations); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("settings: %s: %w", EnvIterations, err)
		}
		s.Iterations = n
	}
	if v, ok := lookup(EnvScaler); ok {
		k, err := scale.ParseKind(v)
		if err != nil {
			return fmt.Errorf("settings: %s: %w", EnvScaler, err)
		}
		s.Discover.Scaler = k
	}
	return s.Validate()
}

// Validate checks the fields Config cannot check.
func (s Settings) Validate() error {
	if s.Repetitions <= 0 {
		return fmt.Errorf("%w: repetitions must be positive, got %d", matdisco.ErrInvalidConfig, s.Repetitions)
	}
	for prop, pair := range s.Pairs {
		if len(pair) != 2 {
			return fmt.Errorf("%w: pair %q needs [acceptor, donor], got %d names", matdisco.ErrInvalidConfig, prop, len(pair))
		}
	}
	for _, sc := range s.Discover.Scores {
		if _, err := matdisco.ParseScoreMode(sc); err != nil {
			return err
		}
	}
	return nil
}

// Properties returns the configured property names in sorted order.
func (s Settings) Properties() []string {
	props := make([]string, 0, len(s.Pairs))
	for p := range s.Pairs {
		props = append(props, p)
	}
	sort.Strings(props)
	return props
}

// Config builds the run configuration for property.
func (s Settings) Config(property string) (matdisco.Config, error) {
	pair, ok := s.Pairs[property]
	if !ok {
		return matdisco.Config{}, fmt.Errorf("%w: %q (known: %s)", ErrUnknownProperty, property,
			strings.Join(s.Properties(), ", "))
	}

	cfg := matdisco.DefaultConfig()
	cfg.Acceptor, cfg.Donor = pair[0], pair[1]
	cfg.SelfAugment = s.SelfAugment
	cfg.Scaler = s.Discover.Scaler
	cfg.ExitMode = s.Discover.ExitMode
	cfg.Threshold = s.Discover.Threshold
	cfg.Percentage = s.Discover.Percentage
	cfg.Iterations = s.Iterations
	cfg.BatchSize = s.Discover.BatchSize
	cfg.ProxyWeight = s.Discover.DensityWeight
	cfg.PredWeight = s.Discover.TargetWeight
	cfg.LeastNovelFirst = s.Ascending[property]
	cfg.Clusters = s.Discover.Clusters
	cfg.RandomState = s.RandomState
	cfg.Model = s.Model
	if len(s.Discover.Scores) > 0 {
		mode, err := matdisco.ParseScoreMode(s.Discover.Scores[0])
		if err != nil {
			return matdisco.Config{}, err
		}
		cfg.ScoreMode = mode
	}

	if err := cfg.Validate(); err != nil {
		return matdisco.Config{}, err
	}
	return cfg, nil
}
