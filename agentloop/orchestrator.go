package agentloop

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/martinemde/strand/eventlog"
	"github.com/martinemde/strand/llm"
)

// WorkspaceDirName is the per-session sandbox for file-producing tools.
const WorkspaceDirName = "workspace"

// OrchestratorConfig wires a run.
type OrchestratorConfig struct {
	Loop         LoopConfig
	TavilyAPIKey string  // empty = web_search not registered
	Tap          TapFunc // optional live event observer
}

// Orchestrator owns the session directory layout and assembles the
// planner, tools, and event log for each run. Sessions are independent:
// each gets its own directory, log, and workspace, so separate sessions
// may run concurrently while each run stays strictly sequential inside.
type Orchestrator struct {
	workspaceRoot string
	client        llm.Client
	config        OrchestratorConfig
}

// NewOrchestrator creates an orchestrator rooted at workspaceRoot. A nil
// config uses defaults.
func NewOrchestrator(workspaceRoot string, client llm.Client, config *OrchestratorConfig) *Orchestrator {
	cfg := OrchestratorConfig{Loop: DefaultLoopConfig()}
	if config != nil {
		cfg = *config
	}
	return &Orchestrator{
		workspaceRoot: workspaceRoot,
		client:        client,
		config:        cfg,
	}
}

// RunResult reports where a run happened and how it ended.
type RunResult struct {
	SessionID  string
	SessionDir string
	LogPath    string
	Result     string
}

// NewSessionID returns a sortable timestamp-derived session identifier
// with a short random suffix for uniqueness.
func NewSessionID() string {
	return fmt.Sprintf("%s_%s", time.Now().Format("20060102_150405"), uuid.New().String()[:8])
}

// RunTask drives one goal from session creation to a terminal state and
// returns the log-derived result.
func (o *Orchestrator) RunTask(ctx context.Context, goal string) (*RunResult, error) {
	sessionID := NewSessionID()
	sessionDir := filepath.Join(o.workspaceRoot, sessionID)
	workspaceDir := filepath.Join(sessionDir, WorkspaceDirName)

	log, err := eventlog.Open(sessionDir)
	if err != nil {
		return nil, err
	}
	defer log.Close()

	registry, err := o.buildRegistry(workspaceDir)
	if err != nil {
		return nil, err
	}

	planner := NewLLMPlanner(o.client, registry)
	loop := NewLoop(planner, registry, log, &o.config.Loop)
	if o.config.Tap != nil {
		loop.Tap(o.config.Tap)
	}

	result, err := loop.Run(ctx, goal)
	if err != nil {
		return nil, err
	}

	return &RunResult{
		SessionID:  sessionID,
		SessionDir: sessionDir,
		LogPath:    log.Path(),
		Result:     result,
	}, nil
}

func (o *Orchestrator) buildRegistry(workspaceDir string) (*ToolRegistry, error) {
	registry := NewToolRegistry()

	fs, err := NewFileSystemTool(workspaceDir)
	if err != nil {
		return nil, err
	}
	registry.Register(fs)
	registry.Register(NewShellTool(workspaceDir, 0, 0))

	if o.config.TavilyAPIKey != "" {
		search, err := NewWebSearchTool(o.config.TavilyAPIKey)
		if err != nil {
			return nil, err
		}
		registry.Register(search)
	}

	return registry, nil
}

// ListSessions returns the session ids under root that have an event log,
// newest first.
func ListSessions(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	var sessions []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		logPath := filepath.Join(root, entry.Name(), eventlog.FileName)
		if _, err := os.Stat(logPath); err == nil {
			sessions = append(sessions, entry.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(sessions)))
	return sessions, nil
}
