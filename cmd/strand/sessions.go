package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/martinemde/strand/agentloop"
)

func newSessionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List past sessions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadCLIConfig()
			if err != nil {
				return err
			}

			sessions, err := agentloop.ListSessions(cfg.WorkspaceRoot)
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				fmt.Println("No sessions found.")
				return nil
			}
			for _, id := range sessions {
				fmt.Println(id)
			}
			return nil
		},
	}
}
