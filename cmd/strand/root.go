package main

import (
	"github.com/spf13/cobra"
)

var (
	flagConfig        string
	flagWorkspaceRoot string
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "strand",
		Short: "Autonomous task-execution agent with a replayable event log",
		Long: `Strand decomposes a natural-language goal into a plan of tool
invocations, executes them one at a time, and records every decision and
observation into a durable, replayable event log.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagConfig, "config", DefaultConfigPath(), "config file")
	root.PersistentFlags().StringVar(&flagWorkspaceRoot, "workspace-root", "", "root directory for session workspaces")

	root.AddCommand(newRunCmd())
	root.AddCommand(newSessionsCmd())
	root.AddCommand(newReplayCmd())
	root.AddCommand(newSynthesizeCmd())
	return root
}

// loadCLIConfig resolves config file + flag overrides for a command.
func loadCLIConfig() (Config, error) {
	cfg, err := LoadConfig(flagConfig)
	if err != nil {
		return cfg, err
	}
	if flagWorkspaceRoot != "" {
		cfg.WorkspaceRoot = flagWorkspaceRoot
	}
	return cfg, nil
}
