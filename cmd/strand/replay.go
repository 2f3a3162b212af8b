package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/martinemde/strand/agentloop"
	"github.com/martinemde/strand/eventlog"
)

func newReplayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "replay <session-id>",
		Short: "Re-render a past session's transcript from its event log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadCLIConfig()
			if err != nil {
				return err
			}

			sessionID := args[0]
			log, err := eventlog.OpenReadOnly(filepath.Join(cfg.WorkspaceRoot, sessionID))
			if err != nil {
				return err
			}

			fmt.Println(agentloop.RenderReplay(sessionID, log))
			return nil
		},
	}
}
