package stages

import (
	"context"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"

	"go.uber.org/zap"

	"pipegate/internal/pipeline"
)

// coverageStage runs the coverage tool and relocates its native report tree
// into the fixed results location. The copy is best-effort: individual file
// errors are absorbed.
type coverageStage struct{}

// NewCoverage creates the coverage stage. Tool failure aborts the pipeline.
func NewCoverage() pipeline.Stage { return &coverageStage{} }

func (s *coverageStage) Name() string { return "coverage" }

func (s *coverageStage) OnFailure() pipeline.FailurePolicy { return pipeline.Abort }

func (s *coverageStage) Run(ctx context.Context, deps *pipeline.Deps) pipeline.StageResult {
	argv := deps.Config.Commands.Coverage
	if len(argv) == 0 {
		return pipeline.StageResult{Stage: s.Name(), Status: pipeline.StatusSkip, Note: "no command configured"}
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = deps.Config.ProjectRoot

	out, err := cmd.CombinedOutput()
	if err != nil {
		return pipeline.StageResult{
			Stage:    s.Name(),
			Status:   pipeline.StatusFail,
			ExitCode: exitCodeOf(err),
			Note:     tailLines(string(out), 20),
		}
	}

	src := deps.Config.CoverageSrc
	dest := deps.Config.CoverageDestDir()
	if info, serr := os.Stat(src); serr != nil || !info.IsDir() {
		deps.Log.Debug("coverage tree missing, nothing to copy", zap.String("src", src))
		return pipeline.StageResult{Stage: s.Name(), Status: pipeline.StatusPass}
	}

	copyTree(src, dest, deps.Log)
	return pipeline.StageResult{
		Stage:  s.Name(),
		Status: pipeline.StatusPass,
		Note:   "coverage report: " + dest,
	}
}

// copyTree mirrors src into dest, silently tolerating per-file failures.
func copyTree(src, dest string, log *zap.Logger) {
	_ = filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Debug("coverage copy: walk error", zap.String("path", path), zap.Error(err))
			return nil
		}
		rel, rerr := filepath.Rel(src, path)
		if rerr != nil {
			return nil
		}
		target := filepath.Join(dest, rel)

		if d.IsDir() {
			if merr := os.MkdirAll(target, 0o755); merr != nil {
				log.Debug("coverage copy: mkdir failed", zap.String("path", target), zap.Error(merr))
			}
			return nil
		}

		if cerr := copyFile(path, target); cerr != nil {
			log.Debug("coverage copy: file skipped", zap.String("path", path), zap.Error(cerr))
		}
		return nil
	})
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	_, err = io.Copy(out, in)
	return err
}
