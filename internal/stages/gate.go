package stages

import (
	"context"
	"fmt"

	"pipegate/internal/mutation"
	"pipegate/internal/pipeline"
)

// gateStage runs the score evaluator. Its decision is the final determinant
// of pipeline success, overriding any earlier soft failures.
type gateStage struct{}

// NewGate creates the mutation-score gate stage.
func NewGate() pipeline.Stage { return &gateStage{} }

func (s *gateStage) Name() string { return "gate" }

func (s *gateStage) OnFailure() pipeline.FailurePolicy { return pipeline.Abort }

func (s *gateStage) Run(ctx context.Context, deps *pipeline.Deps) pipeline.StageResult {
	cfg := deps.Config
	ev := mutation.NewEvaluator(
		mutation.DefaultCandidates(cfg.ReportsDir),
		cfg.Threshold,
		cfg.SummaryPath(),
		deps.Log,
	)

	outcome, err := ev.Evaluate()
	if err != nil {
		return pipeline.StageResult{
			Stage:    s.Name(),
			Status:   pipeline.StatusFail,
			ExitCode: 4,
			Note:     fmt.Sprintf("persisting summary: %v", err),
		}
	}

	note := GateLine(outcome)
	if !outcome.Passed {
		return pipeline.StageResult{
			Stage:    s.Name(),
			Status:   pipeline.StatusFail,
			ExitCode: 1,
			Note:     note,
		}
	}

	return pipeline.StageResult{
		Stage:  s.Name(),
		Status: pipeline.StatusPass,
		Note:   note,
	}
}

// GateLine renders the final summary line shown for a gate decision.
func GateLine(o mutation.Outcome) string {
	verdict := "PASS"
	if !o.Passed {
		verdict = "FAIL"
	}
	return fmt.Sprintf("mutation score: %.2f (threshold %.2f) %s", o.Summary.Score, o.Summary.Threshold, verdict)
}
