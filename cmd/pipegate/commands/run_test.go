package commands

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipegate/cmd/pipegate/internal/clierr"
	"pipegate/internal/pipeline"
)

// stubConfig wires every external tool to a shell stub so the whole pipeline
// can run end to end inside the test.
const stubConfig = `
threshold: 80
commands:
  install: ["true"]
  test: ["sh", "-c", "echo '{\"stats\":{\"tests\":1,\"passes\":1,\"failures\":0}}'"]
  coverage: ["true"]
  mutation: ["sh", "-c", "mkdir -p reports/mutation && printf '{\"mutationScore\": %s}' > reports/mutation/mutation.json"]
screenshots:
  names: ["home"]
  width: 4
  height: 4
`

func writeStubConfig(t *testing.T, root, score string) {
	t.Helper()
	yml := strings.ReplaceAll(stubConfig, "%s", score)
	require.NoError(t, os.WriteFile(filepath.Join(root, "pipegate.yml"), []byte(yml), 0o644))
}

func TestRun_FullPipelinePasses(t *testing.T) {
	root := t.TempDir()
	chdir(t, root)
	writeStubConfig(t, root, "90")

	out, _, err := execute(t, "run")
	require.NoError(t, err)
	assert.Contains(t, out, "PASS: gate")
	assert.Contains(t, out, "mutation score: 90.00 (threshold 80.00) PASS")

	// All fixed output artifacts exist.
	for _, rel := range []string{
		filepath.Join("test", "results", "mocha-results.json"),
		filepath.Join("test", "results", "mutation-summary.json"),
		filepath.Join("test", "results", "screenshots", "home.png"),
	} {
		_, serr := os.Stat(filepath.Join(root, rel))
		assert.NoError(t, serr, "expected artifact %s", rel)
	}

	last, lerr := pipeline.NewStateStore(filepath.Join(root, ".pipegate", "run")).ReadLastRun()
	require.NoError(t, lerr)
	require.NotNil(t, last)
	assert.Equal(t, "pass", last.Status)
	assert.Equal(t, []string{"install", "test", "coverage", "mutation", "screenshots", "gate"}, last.Stages)
}

func TestRun_LowScoreFailsGate(t *testing.T) {
	root := t.TempDir()
	chdir(t, root)
	writeStubConfig(t, root, "10")

	out, _, err := execute(t, "run")
	require.Error(t, err)
	assert.Equal(t, 1, clierr.ExitCodeOf(err))
	assert.Contains(t, out, "FAIL: gate")
	assert.Contains(t, out, "mutation score: 10.00 (threshold 80.00) FAIL")
}

func TestRun_TestFailureAbortsAndLeavesDegenerateResults(t *testing.T) {
	root := t.TempDir()
	chdir(t, root)
	yml := `
commands:
  install: ["true"]
  test: ["sh", "-c", "echo tests exploded >&2; exit 1"]
  coverage: ["true"]
  mutation: ["true"]
`
	require.NoError(t, os.WriteFile(filepath.Join(root, "pipegate.yml"), []byte(yml), 0o644))

	out, _, err := execute(t, "run")
	require.Error(t, err)
	assert.Equal(t, 1, clierr.ExitCodeOf(err))
	assert.Contains(t, out, "FAIL: test")
	assert.NotContains(t, out, "STAGE: coverage", "nothing may run after an aborting stage")

	// Degenerate results artifact still exists.
	_, serr := os.Stat(filepath.Join(root, "test", "results", "mocha-results.json"))
	assert.NoError(t, serr)
}

func TestRun_MutationToolFailureIsSoft(t *testing.T) {
	root := t.TempDir()
	chdir(t, root)
	yml := `
commands:
  install: ["true"]
  test: ["sh", "-c", "echo '{\"stats\":{}}'"]
  coverage: ["true"]
  mutation: ["sh", "-c", "mkdir -p reports/mutation && printf '{\"mutationScore\": 92}' > reports/mutation/mutation.json; exit 1"]
screenshots:
  names: []
`
	require.NoError(t, os.WriteFile(filepath.Join(root, "pipegate.yml"), []byte(yml), 0o644))

	out, _, err := execute(t, "run")
	require.NoError(t, err, "gate decision overrides the mutation tool's exit code")
	assert.Contains(t, out, "WARN: mutation")
	assert.Contains(t, out, "PASS: gate")
}

func TestRun_SkipStage(t *testing.T) {
	root := t.TempDir()
	chdir(t, root)
	writeStubConfig(t, root, "90")

	out, _, err := execute(t, "run", "--skip", "screenshots", "--skip", "install")
	require.NoError(t, err)
	assert.NotContains(t, out, "STAGE: screenshots")
	assert.NotContains(t, out, "STAGE: install")

	last, lerr := pipeline.NewStateStore(filepath.Join(root, ".pipegate", "run")).ReadLastRun()
	require.NoError(t, lerr)
	assert.Equal(t, []string{"test", "coverage", "mutation", "gate"}, last.Stages)
}

func TestRun_UnknownSkipRejected(t *testing.T) {
	root := t.TempDir()
	chdir(t, root)
	writeStubConfig(t, root, "90")

	_, _, err := execute(t, "run", "--skip", "deploy")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown stage "deploy"`)
}
