package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/matdisco/blobstore"
	"github.com/hupe1980/matdisco/snapshot"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "none.env"), "--log-level", "error"}, args...))
	err := cmd.ExecuteContext(t.Context())
	return out.String(), err
}

func TestRunCommand(t *testing.T) {
	dir := t.TempDir()
	acc := writeFile(t, dir, "acc.csv", "formula,target\nNaCl,1\nKCl,2\nLiF,3\nNaF,4\n")
	don := writeFile(t, dir, "don.csv", "formula,target\nCsCl,1\nRbBr,2\nFe2O3,3\nAl2O3,4\nSiO2,5\nMgO,6\n")
	cfg := writeFile(t, dir, "settings.yaml", `
repetitions: 2
iterations: 2
discover:
  exit_mode: threshold
  scaler: minmax
  threshold: 0
  batch_size: 2
pairs:
  bandgap: [acc, don]
snapshots:
  compression: lz4
`)
	outDir := filepath.Join(dir, "out")

	out, err := execute(t, "run",
		"--config", cfg,
		"--property", "bandgap",
		"--data", "acc="+acc,
		"--data", "don="+don,
		"--out", outDir,
	)
	require.NoError(t, err, out)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	for _, l := range lines {
		assert.Contains(t, l, "4 admitted, 8 acceptor rows")
	}

	names, err := blobstore.NewLocalStore(outDir).List(t.Context(), "runs/")
	require.NoError(t, err)
	assert.Len(t, names, 6)
	for _, n := range names {
		_, _, _, c, err := snapshot.ParseName(n)
		require.NoError(t, err)
		assert.Equal(t, snapshot.CompressionLZ4, c)
	}
}

func TestRunCommand_FlagsWithoutSettings(t *testing.T) {
	dir := t.TempDir()
	acc := writeFile(t, dir, "acc.csv", "formula,target\nNaCl,1\nKCl,2\nLiF,3\nNaF,4\n")
	don := writeFile(t, dir, "don.csv", "formula,target\nCsCl,1\nRbBr,2\n")

	out, err := execute(t, "run",
		"--acceptor", "acc",
		"--donor", "don",
		"--data", "acc="+acc,
		"--data", "don="+don,
		"--repetitions", "1",
	)
	require.NoError(t, err, out)
	assert.Contains(t, out, "repetition 0:")
}

func TestRunCommand_ReferencePairs(t *testing.T) {
	dir := t.TempDir()
	te := writeFile(t, dir, "te.csv", "formula,target\nBi2Te3,1\nPbTe,2\nSnSe,3\nSb2Te3,4\n")
	mpds := writeFile(t, dir, "mpds.csv", "formula,target\nCsCl,1\nRbBr,2\nFe2O3,3\nAl2O3,4\nSiO2,5\nMgO,6\n")

	// rho resolves to te/mpds without a settings file. Percentage mode
	// admits ceil(0.1*n) = 1 row per iteration until the pool is empty.
	out, err := execute(t, "run",
		"--property", "rho",
		"--data", "te="+te,
		"--data", "mpds="+mpds,
		"--repetitions", "1",
	)
	require.NoError(t, err, out)
	assert.Contains(t, out, "stopped (donor pool empty) after 6 iterations, 6 admitted, 10 acceptor rows")
}

func TestRunCommand_Errors(t *testing.T) {
	dir := t.TempDir()
	acc := writeFile(t, dir, "acc.csv", "formula,target\nNaCl,1\n")

	tests := []struct {
		name string
		args []string
	}{
		{"MissingData", []string{"run", "--acceptor", "acc", "--donor", "don"}},
		{"BadDataSpec", []string{"run", "--data", "acc"}},
		{"UnknownDonor", []string{"run", "--acceptor", "acc", "--donor", "don", "--data", "acc=" + acc}},
		{"MissingFile", []string{"run", "--acceptor", "acc", "--donor", "don", "--data", "don=" + filepath.Join(dir, "nope.csv")}},
		{"BadLogLevel", []string{"--log-level", "loud", "run", "--data", "acc=" + acc}},
		{"BadOut", []string{"run", "--acceptor", "acc", "--donor", "acc", "--data", "acc=" + acc, "--out", "ftp://x/y"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestOpenStore(t *testing.T) {
	ctx := t.Context()

	s, err := openStore(ctx, t.TempDir())
	require.NoError(t, err)
	assert.IsType(t, &blobstore.LocalStore{}, s)

	s, err = openStore(ctx, "memory://")
	require.NoError(t, err)
	assert.IsType(t, &blobstore.MemoryStore{}, s)

	_, err = openStore(ctx, "s3:///prefix")
	assert.Error(t, err)

	_, err = openStore(ctx, "minio://localhost:9000")
	assert.Error(t, err)

	_, err = openStore(ctx, "gs://bucket")
	assert.Error(t, err)
}
