package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"pipegate/internal/pipeline"
)

func newReportCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show the last run's status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}

			store := pipeline.NewStateStore(cfg.StateDir)
			last, err := store.ReadLastRun()
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(last)
			}

			return renderLastRun(cmd.OutOrStdout(), store, last)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output report in JSON")

	return cmd
}

func newResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear run state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			return pipeline.NewStateStore(cfg.StateDir).Reset()
		},
	}
}

// renderLastRun prints a human-readable report, pulling per-stage notes for
// anything that did not pass.
func renderLastRun(w io.Writer, store *pipeline.StateStore, last *pipeline.LastRun) error {
	if last == nil {
		fmt.Fprintln(w, "No run state found.")
		return nil
	}

	fmt.Fprintf(w, "Status: %s\n", last.Status)
	fmt.Fprintf(w, "Stages: %s\n", strings.Join(last.Stages, ", "))

	if len(last.Warned) > 0 {
		fmt.Fprintln(w, "Warned:")
		for _, name := range last.Warned {
			fmt.Fprintf(w, "  - %s%s\n", name, stageNote(store, name))
		}
	}

	if len(last.Failed) == 0 {
		fmt.Fprintln(w, "All stages passed.")
		return nil
	}

	fmt.Fprintln(w, "Failed:")
	for _, name := range last.Failed {
		fmt.Fprintf(w, "  - %s%s\n", name, stageNote(store, name))
	}
	return nil
}

func stageNote(store *pipeline.StateStore, name string) string {
	res, err := store.ReadStage(name)
	if err != nil || res == nil || res.Note == "" {
		return ""
	}
	// Single-line notes only; multi-line tool output stays in the stage file.
	if strings.Contains(res.Note, "\n") {
		return ""
	}
	return ": " + res.Note
}
