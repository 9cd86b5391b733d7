package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"pipegate/cmd/pipegate/internal/clierr"
	"pipegate/internal/mutation"
	"pipegate/internal/stages"
)

func newEvaluateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate the mutation-score gate against an existing report",
		Long: `Locates the mutation report, extracts the score, writes the summary record
and exits 0 when score >= threshold. Does not run any external tool.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			log := newLogger(cmd)
			defer func() { _ = log.Sync() }()

			ev := mutation.NewEvaluator(
				mutation.DefaultCandidates(cfg.ReportsDir),
				cfg.Threshold,
				cfg.SummaryPath(),
				log,
			)
			outcome, err := ev.Evaluate()
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), stages.GateLine(outcome))
			if !outcome.Passed {
				return clierr.New(1, "mutation score below threshold")
			}
			return nil
		},
	}
}
