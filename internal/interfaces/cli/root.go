// Package cli implements the ftmap command-line interface: root command,
// global flag handling, and the analyze subcommand.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felipsoliveira/FTMap/internal/config"
	"github.com/felipsoliveira/FTMap/internal/infrastructure/monitoring/logging"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// RootOptions holds global CLI flags.
type RootOptions struct {
	ConfigPath string
	LogLevel   string
}

// NewRootCommand creates the root cobra command with global flags and all
// subcommands attached.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "ftmap",
		Short:         "ftmap — consensus hotspot analysis for molecular docking poses",
		Long:          "ftmap clusters probe docking poses with an ensemble of clustering\nstrategies, fuses them into consensus hotspots, and ranks each hotspot\nby druggability.",
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (default: ./ftmap.yaml)")
	pf.StringVar(&opts.LogLevel, "log-level", "", "log level override (debug, info, warn, error)")

	cmd.AddCommand(newAnalyzeCommand(opts))
	cmd.AddCommand(newProbesCommand())
	return cmd
}

// loadConfig resolves the effective configuration for a command run.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if opts.ConfigPath != "" {
		cfg, err = config.Load(opts.ConfigPath)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		return nil, err
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	return cfg, nil
}

// newLogger builds the process logger from config.
func newLogger(cfg *config.Config) (logging.Logger, error) {
	return logging.NewLogger(logging.LogConfig{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
}

// Execute runs the CLI.
func Execute() error {
	return NewRootCommand().Execute()
}
