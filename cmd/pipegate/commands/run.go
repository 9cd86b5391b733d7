package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"pipegate/cmd/pipegate/internal/clierr"
	"pipegate/internal/pipeline"
	"pipegate/internal/stages"
)

func newRunCmd() *cobra.Command {
	var skip []string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full pipeline: install, test, coverage, mutation, screenshots, gate",
		Long: `Runs every stage in order. Install, test and coverage failures abort the
run; mutation-tool and screenshot failures are warnings. The mutation-score
gate has the final word: exit 0 only when score >= threshold.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			log := newLogger(cmd)
			defer func() { _ = log.Sync() }()

			all := []pipeline.Stage{
				stages.NewInstall(),
				stages.NewTestRunner(),
				stages.NewCoverage(),
				stages.NewMutation(),
				stages.NewScreenshots(),
				stages.NewGate(),
			}
			selected, err := filterStages(all, skip)
			if err != nil {
				return err
			}

			store := pipeline.NewStateStore(cfg.StateDir)
			p := pipeline.New(selected, store, &pipeline.Deps{Config: cfg, Log: log})
			p.SetOutput(cmd.OutOrStdout())

			if err := p.Run(cmd.Context()); err != nil {
				return clierr.Wrap(1, "pipeline failed", err)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&skip, "skip", nil, "stage name(s) to skip (repeatable)")

	return cmd
}

// filterStages removes skipped stages, rejecting unknown names so a typo
// does not silently run everything.
func filterStages(all []pipeline.Stage, skip []string) ([]pipeline.Stage, error) {
	if len(skip) == 0 {
		return all, nil
	}

	known := make(map[string]bool, len(all))
	for _, s := range all {
		known[s.Name()] = true
	}
	skipped := make(map[string]bool, len(skip))
	for _, name := range skip {
		if !known[name] {
			return nil, fmt.Errorf("unknown stage %q", name)
		}
		skipped[name] = true
	}

	out := make([]pipeline.Stage, 0, len(all))
	for _, s := range all {
		if !skipped[s.Name()] {
			out = append(out, s)
		}
	}
	return out, nil
}
