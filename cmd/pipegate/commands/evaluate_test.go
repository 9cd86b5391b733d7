package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipegate/cmd/pipegate/internal/clierr"
	"pipegate/internal/config"
)

func seedReport(t *testing.T, root, content string) {
	t.Helper()
	dir := filepath.Join(root, "reports", "mutation")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mutation.json"), []byte(content), 0o644))
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errBuf bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errBuf.String(), err
}

func TestEvaluate_PassingScore(t *testing.T) {
	root := t.TempDir()
	chdir(t, root)
	seedReport(t, root, `{"mutationScore": 85.5}`)

	out, _, err := execute(t, "evaluate", "--threshold", "80")
	require.NoError(t, err)
	assert.Contains(t, out, "mutation score: 85.50 (threshold 80.00) PASS")

	// The summary record lands at the fixed output path.
	_, serr := os.Stat(filepath.Join(root, "test", "results", "mutation-summary.json"))
	assert.NoError(t, serr)
}

func TestEvaluate_FailingScoreExitsOne(t *testing.T) {
	root := t.TempDir()
	chdir(t, root)
	seedReport(t, root, `{"mutationScore": 74.99}`)

	out, _, err := execute(t, "evaluate", "--threshold", "75")
	require.Error(t, err)
	assert.Equal(t, 1, clierr.ExitCodeOf(err))
	assert.Contains(t, out, "FAIL")
}

func TestEvaluate_ThresholdFromEnv(t *testing.T) {
	root := t.TempDir()
	chdir(t, root)
	t.Setenv(config.EnvThreshold, "95")
	seedReport(t, root, `{"mutationScore": 90}`)

	_, _, err := execute(t, "evaluate")
	require.Error(t, err, "90 must fail against env threshold 95")
	assert.Equal(t, 1, clierr.ExitCodeOf(err))
}

func TestEvaluate_FlagOverridesEnv(t *testing.T) {
	root := t.TempDir()
	chdir(t, root)
	t.Setenv(config.EnvThreshold, "95")
	seedReport(t, root, `{"mutationScore": 90}`)

	out, _, err := execute(t, "evaluate", "--threshold", "50")
	require.NoError(t, err)
	assert.Contains(t, out, "PASS")
}

func TestEvaluate_InvalidEnvFallsBackWithWarning(t *testing.T) {
	root := t.TempDir()
	chdir(t, root)
	t.Setenv(config.EnvThreshold, "ninety")
	seedReport(t, root, `{"mutationScore": 90}`)

	_, stderr, err := execute(t, "evaluate")
	require.NoError(t, err, "default threshold 80 should apply")
	assert.Contains(t, stderr, "ignoring MUTATION_THRESHOLD")
}

func TestEvaluate_MissingReportFailsGate(t *testing.T) {
	root := t.TempDir()
	chdir(t, root)

	out, _, err := execute(t, "evaluate")
	require.Error(t, err)
	assert.Contains(t, out, "mutation score: 0.00 (threshold 80.00) FAIL")
}
