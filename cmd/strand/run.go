package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/martinemde/strand/agentloop"
	"github.com/martinemde/strand/eventlog"
	"github.com/martinemde/strand/llm"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run \"<goal>\"",
		Short: "Run a goal to completion in a new session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			goal := strings.TrimSpace(args[0])
			if goal == "" {
				return fmt.Errorf("goal must not be empty")
			}

			cfg, err := loadCLIConfig()
			if err != nil {
				return err
			}

			client, err := llm.NewGollmClient(llm.Options{
				Provider: cfg.Provider,
				Model:    cfg.Model,
				APIKey:   cfg.APIKey,
			})
			if err != nil {
				return err
			}

			orch := agentloop.NewOrchestrator(cfg.WorkspaceRoot, client, &agentloop.OrchestratorConfig{
				Loop:         cfg.LoopConfig(),
				TavilyAPIKey: os.Getenv("TAVILY_API_KEY"),
				Tap: func(ev eventlog.Event) {
					fmt.Println(ev.DisplayString())
				},
			})

			fmt.Printf("🎯 Goal: %s\n\n", goal)

			res, err := orch.RunTask(cmd.Context(), goal)
			if err != nil {
				return err
			}

			rule := strings.Repeat("=", 60)
			fmt.Printf("\n%s\nRESULT:\n%s\n%s\n\n", rule, rule, res.Result)
			fmt.Printf("📁 Session: %s\n📝 Event log: %s\n", res.SessionID, res.LogPath)
			return nil
		},
	}
}
