package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
)

// Pipeline executes stages in order, persisting every result. Failures follow
// each stage's policy: Abort stops the run immediately, Warn is recorded and
// the run continues.
type Pipeline struct {
	stages []Stage
	store  *StateStore
	deps   *Deps
	out    io.Writer
}

// New creates a pipeline over the given stages and dependencies.
func New(stages []Stage, store *StateStore, deps *Deps) *Pipeline {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	return &Pipeline{
		stages: stages,
		store:  store,
		deps:   deps,
		out:    os.Stdout,
	}
}

// SetOutput redirects progress output (used by tests).
func (p *Pipeline) SetOutput(w io.Writer) { p.out = w }

// Run executes all stages. It returns an error if an Abort-policy stage
// failed; Warn-policy failures never produce an error.
func (p *Pipeline) Run(ctx context.Context) error {
	var names, failed, warned []string

	last := LastRun{Status: "pass"}
	for _, stage := range p.stages {
		name := stage.Name()
		names = append(names, name)

		fmt.Fprintln(p.out, "")
		fmt.Fprintln(p.out, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		fmt.Fprintf(p.out, "STAGE: %s\n", name)
		fmt.Fprintln(p.out, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		fmt.Fprintln(p.out, "")

		res := stage.Run(ctx, p.deps)
		p.deps.Log.Debug("stage finished",
			zap.String("stage", name),
			zap.String("status", string(res.Status)),
			zap.Int("exit_code", res.ExitCode))

		if err := p.store.WriteStageResult(res); err != nil {
			return fmt.Errorf("writing result for %s: %w", name, err)
		}

		switch res.Status {
		case StatusSkip:
			fmt.Fprintf(p.out, "SKIP: %s\n", name)
			if res.Note != "" {
				fmt.Fprintln(p.out, res.Note)
			}
			continue
		case StatusPass:
			fmt.Fprintf(p.out, "PASS: %s\n", name)
			if res.Note != "" {
				fmt.Fprintln(p.out, res.Note)
			}
			continue
		}

		if stage.OnFailure() == Warn {
			warned = append(warned, name)
			fmt.Fprintf(p.out, "WARN: %s (exit %d), continuing\n", name, res.ExitCode)
			if res.Note != "" {
				fmt.Fprintln(p.out, res.Note)
			}
			continue
		}

		failed = append(failed, name)
		fmt.Fprintf(p.out, "FAIL: %s (exit %d)\n", name, res.ExitCode)
		if res.Note != "" {
			fmt.Fprintln(p.out, res.Note)
		}

		last.Status = "fail"
		last.Stages = names
		last.Failed = failed
		last.Warned = warned
		if werr := p.store.WriteLastRun(last); werr != nil {
			return fmt.Errorf("writing last run: %w", werr)
		}
		return fmt.Errorf("stage %s failed", name)
	}

	last.Stages = names
	last.Failed = failed
	last.Warned = warned
	if err := p.store.WriteLastRun(last); err != nil {
		return fmt.Errorf("writing last run: %w", err)
	}
	return nil
}
