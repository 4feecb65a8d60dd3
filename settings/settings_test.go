package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hupe1980/matdisco"
	"github.com/hupe1980/matdisco/predict"
	"github.com/hupe1980/matdisco/scale"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
repetitions: 3
model: knn
iterations: 7
random_state: 42
discover:
  exit_mode: thr
  batch_size: 2
  threshold: 0.75
  scaler: minmax
  density_weight: 2
  target_weight: 0.5
  scores: [density]
  clusters: true
pairs:
  bandgap: [zhuo, mpds]
  rho: [te, mpds]
ascending:
  rho: true
snapshots:
  format: json
  compression: zstd
`

func TestParse(t *testing.T) {
	s, err := Parse([]byte(sample))
	require.NoError(t, err)

	assert.Equal(t, 3, s.Repetitions)
	assert.Equal(t, predict.KindKNN, s.Model)
	assert.Equal(t, []string{"bandgap", "rho"}, s.Properties())
	assert.Equal(t, "zstd", s.Snapshots.Compression)

	cfg, err := s.Config("rho")
	require.NoError(t, err)
	assert.Equal(t, "te", cfg.Acceptor)
	assert.Equal(t, "mpds", cfg.Donor)
	assert.Equal(t, matdisco.ExitThreshold, cfg.ExitMode)
	assert.Equal(t, 0.75, cfg.Threshold)
	assert.Equal(t, 2, cfg.BatchSize)
	assert.Equal(t, 7, cfg.Iterations)
	assert.Equal(t, scale.MinMax, cfg.Scaler)
	assert.Equal(t, 2.0, cfg.ProxyWeight)
	assert.Equal(t, 0.5, cfg.PredWeight)
	assert.True(t, cfg.LeastNovelFirst)
	assert.True(t, cfg.Clusters)
	assert.Equal(t, int64(42), cfg.RandomState)
	assert.Equal(t, predict.KindKNN, cfg.Model)

	cfg, err = s.Config("bandgap")
	require.NoError(t, err)
	assert.False(t, cfg.LeastNovelFirst)
}

func TestParse_Defaults(t *testing.T) {
	s, err := Parse([]byte("pairs:\n  bulkmodulus: [aflow, mp]\n"))
	require.NoError(t, err)

	cfg, err := s.Config("bulkmodulus")
	require.NoError(t, err)
	assert.Equal(t, matdisco.ExitPercentage, cfg.ExitMode)
	assert.Equal(t, 0.1, cfg.Percentage)
	assert.Equal(t, 5, cfg.BatchSize)
	assert.Equal(t, scale.Robust, cfg.Scaler)
	assert.Equal(t, 5, s.Repetitions)

	// The file's pairs replace the reference table.
	assert.Equal(t, []string{"bulkmodulus"}, s.Properties())
}

func TestDefault_ReferenceStudy(t *testing.T) {
	s, err := Parse(nil)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"bandgap", "bulkmodulus", "rho", "seebeck", "shearmodulus", "sigma", "thermalcond",
	}, s.Properties())

	tests := []struct {
		property  string
		acceptor  string
		donor     string
		ascending bool
	}{
		{"thermalcond", "citrine", "mpds", false},
		{"bulkmodulus", "aflow", "mp", false},
		{"bandgap", "zhuo", "mpds", false},
		{"seebeck", "te", "mpds", false},
		{"rho", "te", "mpds", true},
		{"sigma", "te", "mpds", false},
		{"shearmodulus", "aflow", "mp", false},
	}
	for _, tt := range tests {
		t.Run(tt.property, func(t *testing.T) {
			cfg, err := s.Config(tt.property)
			require.NoError(t, err)
			assert.Equal(t, tt.acceptor, cfg.Acceptor)
			assert.Equal(t, tt.donor, cfg.Donor)
			assert.Equal(t, tt.ascending, cfg.LeastNovelFirst)
			assert.Equal(t, matdisco.ExitPercentage, cfg.ExitMode)
		})
	}

	// Default hands out fresh tables.
	Default().Pairs["rho"][0] = "changed"
	assert.Equal(t, "te", Default().Pairs["rho"][0])
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"Syntax", "pairs: [unclosed"},
		{"BadScaler", "discover:\n  scaler: log\n"},
		{"BadExitMode", "discover:\n  exit_mode: never\n"},
		{"BadScore", "discover:\n  scores: [entropy]\n"},
		{"ShortPair", "pairs:\n  rho: [te]\n"},
		{"ZeroRepetitions", "repetitions: 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestConfig_Errors(t *testing.T) {
	s, err := Parse([]byte(sample))
	require.NoError(t, err)

	_, err = s.Config("seebeck")
	assert.ErrorIs(t, err, ErrUnknownProperty)
	assert.ErrorContains(t, err, "bandgap, rho")

	s.Iterations = 0
	_, err = s.Config("rho")
	assert.ErrorIs(t, err, matdisco.ErrInvalidConfig)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvThreshold:  "0.25",
		EnvBatchSize:  "4",
		EnvIterations: "9",
		EnvScaler:     "standard",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	s, err := Parse([]byte(sample))
	require.NoError(t, err)
	require.NoError(t, s.ApplyEnv(lookup))

	assert.Equal(t, 0.25, s.Discover.Threshold)
	assert.Equal(t, 4, s.Discover.BatchSize)
	assert.Equal(t, 9, s.Iterations)
	assert.Equal(t, scale.Standard, s.Discover.Scaler)

	env[EnvBatchSize] = "many"
	assert.Error(t, s.ApplyEnv(lookup))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	t.Setenv(EnvIterations, "11")

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 11, s.Iterations)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("MATDISCO_SCALER=robust\n"), 0o600))

	t.Setenv(EnvScaler, "")
	require.NoError(t, os.Unsetenv(EnvScaler))

	require.NoError(t, LoadEnv(path, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "robust", os.Getenv(EnvScaler))
}
