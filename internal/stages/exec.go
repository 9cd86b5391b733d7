package stages

import (
	"context"
	"os/exec"
	"strings"

	"pipegate/internal/config"
	"pipegate/internal/pipeline"
)

// execStage runs one external command in the project root. The command argv
// is looked up from the resolved config at run time.
type execStage struct {
	name   string
	policy pipeline.FailurePolicy
	argv   func(config.Config) []string
}

func (s *execStage) Name() string { return s.name }

func (s *execStage) OnFailure() pipeline.FailurePolicy { return s.policy }

func (s *execStage) Run(ctx context.Context, deps *pipeline.Deps) pipeline.StageResult {
	argv := s.argv(deps.Config)
	if len(argv) == 0 {
		return pipeline.StageResult{
			Stage:  s.name,
			Status: pipeline.StatusSkip,
			Note:   "no command configured",
		}
	}

	if _, err := exec.LookPath(argv[0]); err != nil {
		return pipeline.StageResult{
			Stage:    s.name,
			Status:   pipeline.StatusFail,
			ExitCode: 2,
			Note:     argv[0] + " not found in PATH",
		}
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = deps.Config.ProjectRoot

	out, err := cmd.CombinedOutput()
	if err != nil {
		return pipeline.StageResult{
			Stage:    s.name,
			Status:   pipeline.StatusFail,
			ExitCode: exitCodeOf(err),
			Note:     tailLines(string(out), 20),
		}
	}

	return pipeline.StageResult{
		Stage:  s.name,
		Status: pipeline.StatusPass,
	}
}

// NewInstall installs project dependencies. Failure aborts the pipeline.
func NewInstall() pipeline.Stage {
	return &execStage{
		name:   "install",
		policy: pipeline.Abort,
		argv:   func(c config.Config) []string { return c.Commands.Install },
	}
}

// NewMutation runs the mutation-testing tool. Mutation tools may exit
// non-zero on low scores while still writing a valid report, so failure is a
// warning; the gate stage has the final word.
func NewMutation() pipeline.Stage {
	return &execStage{
		name:   "mutation",
		policy: pipeline.Warn,
		argv:   func(c config.Config) []string { return c.Commands.Mutation },
	}
}

func exitCodeOf(err error) int {
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode()
	}
	return 4 // unable to run
}

// tailLines keeps the last n lines of tool output for a failure note.
func tailLines(s string, n int) string {
	s = strings.TrimSpace(s)
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return s
	}
	return "...(truncated)...\n" + strings.Join(lines[len(lines)-n:], "\n")
}
