package stages

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"go.uber.org/zap"

	"pipegate/internal/pipeline"
)

// testRunner invokes the test runner and captures its structured JSON
// results to the fixed results path. On failure it still writes a degenerate
// one-failing-test report there, so downstream tooling that expects the
// artifact never finds the path absent.
type testRunner struct{}

// NewTestRunner creates the test stage. Failure aborts the pipeline.
func NewTestRunner() pipeline.Stage { return &testRunner{} }

func (s *testRunner) Name() string { return "test" }

func (s *testRunner) OnFailure() pipeline.FailurePolicy { return pipeline.Abort }

func (s *testRunner) Run(ctx context.Context, deps *pipeline.Deps) pipeline.StageResult {
	argv := deps.Config.Commands.Test
	if len(argv) == 0 {
		return pipeline.StageResult{Stage: s.Name(), Status: pipeline.StatusSkip, Note: "no command configured"}
	}

	resultsPath := deps.Config.MochaResultsPath()
	if err := os.MkdirAll(filepath.Dir(resultsPath), 0o755); err != nil {
		return pipeline.StageResult{
			Stage:    s.Name(),
			Status:   pipeline.StatusFail,
			ExitCode: 4,
			Note:     fmt.Sprintf("creating results dir: %v", err),
		}
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = deps.Config.ProjectRoot

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	// The runner's JSON goes on stdout; keep it whenever it is valid, even
	// for a failing run (failing tests still produce real results).
	wrote := false
	if json.Valid(stdout.Bytes()) && stdout.Len() > 0 {
		if err := os.WriteFile(resultsPath, stdout.Bytes(), 0o644); err == nil {
			wrote = true
		}
	}

	if runErr != nil {
		if !wrote {
			if err := writeDegenerateResults(resultsPath, tailLines(stderr.String(), 5)); err != nil {
				deps.Log.Warn("could not write placeholder test results", zap.Error(err))
			}
		}
		return pipeline.StageResult{
			Stage:    s.Name(),
			Status:   pipeline.StatusFail,
			ExitCode: exitCodeOf(runErr),
			Note:     tailLines(stderr.String(), 20),
		}
	}

	if !wrote {
		if err := writeDegenerateResults(resultsPath, "test runner produced no structured results"); err != nil {
			return pipeline.StageResult{
				Stage:    s.Name(),
				Status:   pipeline.StatusFail,
				ExitCode: 4,
				Note:     fmt.Sprintf("writing results: %v", err),
			}
		}
	}

	return pipeline.StageResult{
		Stage:  s.Name(),
		Status: pipeline.StatusPass,
		Note:   "results: " + resultsPath,
	}
}

type mochaStats struct {
	Suites   int `json:"suites"`
	Tests    int `json:"tests"`
	Passes   int `json:"passes"`
	Pending  int `json:"pending"`
	Failures int `json:"failures"`
}

type mochaFailure struct {
	Title     string            `json:"title"`
	FullTitle string            `json:"fullTitle"`
	Err       map[string]string `json:"err"`
}

type mochaResults struct {
	Stats    mochaStats     `json:"stats"`
	Tests    []mochaFailure `json:"tests"`
	Passes   []mochaFailure `json:"passes"`
	Failures []mochaFailure `json:"failures"`
}

// writeDegenerateResults emits a minimally valid results document naming one
// failing test.
func writeDegenerateResults(path, message string) error {
	if message == "" {
		message = "test run did not complete"
	}
	failure := mochaFailure{
		Title:     "test run did not complete",
		FullTitle: "pipeline: test run did not complete",
		Err:       map[string]string{"message": message},
	}
	doc := mochaResults{
		Stats:    mochaStats{Suites: 1, Tests: 1, Failures: 1},
		Tests:    []mochaFailure{failure},
		Passes:   []mochaFailure{},
		Failures: []mochaFailure{failure},
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
