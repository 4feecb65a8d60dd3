package matdisco

import (
	"fmt"
	"math"
	"strings"

	"github.com/hupe1980/matdisco/predict"
	"github.com/hupe1980/matdisco/scale"
)

// ExitMode selects how donors qualify for transfer.
type ExitMode int

const (
	// ExitThreshold qualifies donors whose score is at least Threshold.
	ExitThreshold ExitMode = iota
	// ExitPercentage qualifies the top Percentage fraction of donors.
	ExitPercentage
)

func (m ExitMode) String() string {
	switch m {
	case ExitThreshold:
		return "threshold"
	case ExitPercentage:
		return "percentage"
	default:
		return fmt.Sprintf("Unknown(%d)", int(m))
	}
}

// ParseExitMode parses an exit mode name. "thr" is accepted as an alias.
func ParseExitMode(s string) (ExitMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "threshold", "thr", "":
		return ExitThreshold, nil
	case "percentage", "percent", "pct":
		return ExitPercentage, nil
	default:
		return 0, fmt.Errorf("%w: unknown exit mode %q", ErrInvalidConfig, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m ExitMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *ExitMode) UnmarshalText(text []byte) error {
	parsed, err := ParseExitMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ScoreMode selects the proxy score. Only density is supported.
type ScoreMode int

const (
	// ScoreDensity scores novelty by the negated acceptor density at each
	// donor.
	ScoreDensity ScoreMode = iota
)

func (m ScoreMode) String() string {
	if m == ScoreDensity {
		return "density"
	}
	return fmt.Sprintf("Unknown(%d)", int(m))
}

// ParseScoreMode parses a score mode name.
func ParseScoreMode(s string) (ScoreMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "density", "dens", "":
		return ScoreDensity, nil
	default:
		return 0, fmt.Errorf("%w: unknown score mode %q", ErrInvalidConfig, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m ScoreMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *ScoreMode) UnmarshalText(text []byte) error {
	parsed, err := ParseScoreMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Config holds the settings of one augmentation run. It is passed by
// value and never modified by the Augmenter.
type Config struct {
	// Acceptor names the labeled reference dataset.
	Acceptor string `json:"acceptor" yaml:"acceptor"`
	// Donor names the candidate dataset. Ignored when SelfAugment is set.
	Donor string `json:"donor,omitempty" yaml:"donor,omitempty"`
	// SelfAugment, when in (0,1), keeps that leading fraction of the
	// acceptor dataset as acceptor and uses the rest as donor.
	SelfAugment float64 `json:"self_augment,omitempty" yaml:"self_augment,omitempty"`

	Scaler    scale.Kind `json:"scaler" yaml:"scaler"`
	ScoreMode ScoreMode  `json:"score_mode" yaml:"score_mode"`
	ExitMode  ExitMode   `json:"exit_mode" yaml:"exit_mode"`

	// Threshold is the minimum combined score in threshold mode.
	Threshold float64 `json:"threshold" yaml:"threshold"`
	// Percentage is the qualifying fraction of donors in percentage mode.
	Percentage float64 `json:"percentage" yaml:"percentage"`
	// Iterations is the loop budget.
	Iterations int `json:"iterations" yaml:"iterations"`
	// BatchSize is the number of rows moved per iteration (per cluster
	// when Clusters is set).
	BatchSize int `json:"batch_size" yaml:"batch_size"`

	ProxyWeight float64 `json:"proxy_weight" yaml:"proxy_weight"`
	PredWeight  float64 `json:"pred_weight" yaml:"pred_weight"`

	// LeastNovelFirst ranks qualifying donors by ascending score.
	LeastNovelFirst bool `json:"least_novel_first,omitempty" yaml:"least_novel_first,omitempty"`
	// Clusters enables cluster-gated selection.
	Clusters bool `json:"clusters,omitempty" yaml:"clusters,omitempty"`

	RandomState int64        `json:"random_state" yaml:"random_state"`
	Model       predict.Kind `json:"model" yaml:"model"`
}

// DefaultConfig returns the default settings with empty dataset names.
func DefaultConfig() Config {
	return Config{
		Scaler:      scale.MinMax,
		ScoreMode:   ScoreDensity,
		ExitMode:    ExitThreshold,
		Threshold:   0.5,
		Percentage:  0.1,
		Iterations:  15,
		BatchSize:   1,
		ProxyWeight: 1,
		PredWeight:  1,
		RandomState: 1234,
		Model:       predict.KindLinear,
	}
}

// Validate reports the first invalid field, wrapped in ErrInvalidConfig.
func (c Config) Validate() error {
	switch {
	case c.Acceptor == "":
		return fmt.Errorf("%w: acceptor dataset name is empty", ErrInvalidConfig)
	case c.SelfAugment < 0 || c.SelfAugment >= 1 || math.IsNaN(c.SelfAugment):
		return fmt.Errorf("%w: self_augment %v not in [0,1)", ErrInvalidConfig, c.SelfAugment)
	case c.SelfAugment == 0 && c.Donor == "":
		return fmt.Errorf("%w: donor dataset name is empty", ErrInvalidConfig)
	case c.Iterations <= 0:
		return fmt.Errorf("%w: iterations must be positive, got %d", ErrInvalidConfig, c.Iterations)
	case c.BatchSize <= 0:
		return fmt.Errorf("%w: batch_size must be positive, got %d", ErrInvalidConfig, c.BatchSize)
	case math.IsNaN(c.Threshold) || math.IsInf(c.Threshold, 0):
		return fmt.Errorf("%w: threshold must be finite", ErrInvalidConfig)
	case c.ExitMode == ExitPercentage && !(c.Percentage > 0 && c.Percentage <= 1):
		return fmt.Errorf("%w: percentage %v not in (0,1]", ErrInvalidConfig, c.Percentage)
	case !finite(c.ProxyWeight) || !finite(c.PredWeight):
		return fmt.Errorf("%w: weights must be finite", ErrInvalidConfig)
	case c.Scaler < scale.MinMax || c.Scaler > scale.Standard:
		return fmt.Errorf("%w: unknown scaler %v", ErrInvalidConfig, c.Scaler)
	case c.ScoreMode != ScoreDensity:
		return fmt.Errorf("%w: unknown score mode %v", ErrInvalidConfig, c.ScoreMode)
	case c.ExitMode != ExitThreshold && c.ExitMode != ExitPercentage:
		return fmt.Errorf("%w: unknown exit mode %v", ErrInvalidConfig, c.ExitMode)
	case c.Model != predict.KindLinear && c.Model != predict.KindKNN:
		return fmt.Errorf("%w: unknown model %v", ErrInvalidConfig, c.Model)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
