package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/martinemde/strand/agentloop"
	"github.com/martinemde/strand/eventlog"
	"github.com/martinemde/strand/llm"
)

func newSynthesizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "synthesize <session-id>",
		Short: "Summarize a past session from its event log",
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

			goal := ""
			if goals := log.ByType(eventlog.TypeGoalReceived); len(goals) > 0 {
				goal, _ = goals[0].Content["goal"].(string)
			}

			client, err := llm.NewGollmClient(llm.Options{
				Provider: cfg.Provider,
				Model:    cfg.Model,
				APIKey:   cfg.APIKey,
			})
			if err != nil {
				return err
			}

			result, err := agentloop.NewSynthesizer(client).Synthesize(cmd.Context(), log, goal)
			if err != nil {
				return err
			}

			fmt.Printf("Summary:\n%s\n", result.Summary)
			printList("Key findings", result.KeyFindings)
			printList("Artifacts created", result.ArtifactsCreated)
			printList("Next steps", result.NextSteps)
			return nil
		},
	}
}

func printList(title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Printf("\n%s:\n", title)
	for _, item := range items {
		fmt.Printf("  - %s\n", item)
	}
}
