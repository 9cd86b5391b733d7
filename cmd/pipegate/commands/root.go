package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pipegate/internal/config"
)

// NewRootCmd constructs the pipegate root Cobra command.
func NewRootCmd() *cobra.Command {
	version := os.Getenv("PIPEGATE_VERSION")
	if version == "" {
		version = "0.0.0-dev"
	}

	cmd := &cobra.Command{
		Use:           "pipegate",
		Short:         "pipegate - test, coverage and mutation pipeline with a score gate",
		Long:          "pipegate sequences a test runner, a coverage tool and a mutation-testing tool, then gates the run on the extracted mutation score.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")
	cmd.PersistentFlags().String("config", "", "path to pipegate.yml (default: <root>/pipegate.yml if present)")
	cmd.PersistentFlags().Float64("threshold", config.DefaultThreshold, "mutation score gate threshold")
	cmd.PersistentFlags().String("state-dir", "", "directory to store run state (default: <root>/.pipegate/run)")

	// Version command
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number of pipegate",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "pipegate version %s\n", version)
		},
	})

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newEvaluateCmd())
	cmd.AddCommand(newReportCmd())
	cmd.AddCommand(newResetCmd())

	return cmd
}

// resolveConfig builds the effective configuration for a command invocation.
// Precedence: defaults < pipegate.yml < MUTATION_THRESHOLD < --threshold.
// Environment and flag parsing stays here; nothing downstream consults them.
func resolveConfig(cmd *cobra.Command) (config.Config, error) {
	root, err := os.Getwd()
	if err != nil {
		return config.Config{}, err
	}

	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(root, cfgPath)
	if err != nil {
		return config.Config{}, err
	}

	if v, ok := os.LookupEnv(config.EnvThreshold); ok && v != "" {
		t, perr := config.ParseThreshold(v)
		if perr != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: ignoring %s: %v\n", config.EnvThreshold, perr)
		} else {
			cfg.Threshold = t
		}
	}

	if cmd.Flags().Changed("threshold") {
		t, _ := cmd.Flags().GetFloat64("threshold")
		if t < 0 {
			return config.Config{}, fmt.Errorf("--threshold must be non-negative, got %v", t)
		}
		cfg.Threshold = t
	}

	if sd, _ := cmd.Flags().GetString("state-dir"); sd != "" {
		if !filepath.IsAbs(sd) {
			sd = filepath.Join(cfg.ProjectRoot, sd)
		}
		cfg.StateDir = sd
	}

	return cfg, nil
}

func newLogger(cmd *cobra.Command) *zap.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")
	if !verbose {
		return zap.NewNop()
	}
	log, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return log
}
