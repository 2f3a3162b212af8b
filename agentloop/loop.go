package agentloop

import (
	"context"
	"fmt"

	"github.com/martinemde/strand/eventlog"
)

// LoopConfig bounds a run.
type LoopConfig struct {
	// MaxIterations is the hard stop on loop iterations. Exhausting it is
	// a normal, logged terminal condition, not an error.
	MaxIterations int `json:"max_iterations"`
	// ContextWindow is the fixed lookback of recent events rendered into
	// the planner's context string, bounding prompt growth as sessions
	// lengthen.
	ContextWindow int `json:"context_window"`
}

// DefaultLoopConfig returns the default run bounds.
func DefaultLoopConfig() LoopConfig {
	return LoopConfig{
		MaxIterations: 20,
		ContextWindow: 10,
	}
}

// TapFunc observes events after they have been durably appended. Used for
// live streaming to a UI or CLI; it never influences loop control flow.
type TapFunc func(eventlog.Event)

// Loop is the sequential analyze/plan/execute/observe state machine that
// drives one session. It is the single writer of the session's event log
// for the duration of a run; no two operations are ever in flight at once.
type Loop struct {
	planner Planner
	tools   *ToolRegistry
	log     *eventlog.Log
	config  LoopConfig
	tap     TapFunc
}

// NewLoop creates a Loop over the given planner, registry, and event log.
// A nil config uses DefaultLoopConfig.
func NewLoop(planner Planner, tools *ToolRegistry, log *eventlog.Log, config *LoopConfig) *Loop {
	cfg := DefaultLoopConfig()
	if config != nil {
		cfg = *config
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultLoopConfig().MaxIterations
	}
	if cfg.ContextWindow <= 0 {
		cfg.ContextWindow = DefaultLoopConfig().ContextWindow
	}
	return &Loop{
		planner: planner,
		tools:   tools,
		log:     log,
		config:  cfg,
	}
}

// Tap registers an observer for appended events. Must be set before Run.
func (l *Loop) Tap(fn TapFunc) { l.tap = fn }

// Log returns the loop's event log.
func (l *Loop) Log() *eventlog.Log { return l.log }

// append persists an event and notifies the tap. A persistence failure is
// fatal for the run: the event is not appended and the error propagates.
func (l *Loop) append(t eventlog.Type, content map[string]interface{}) error {
	ev := eventlog.New(t, content)
	if err := l.log.Append(ev); err != nil {
		return err
	}
	if l.tap != nil {
		l.tap(ev)
	}
	return nil
}

// Run executes the loop for the given goal until completion, a step
// failure, or iteration-budget exhaustion, and returns the final result
// string derived from the event log. The returned error is non-nil only
// for faults of the machinery itself (persistence or planner errors);
// step failures are a normal terminal outcome reported in the result.
func (l *Loop) Run(ctx context.Context, goal string) (string, error) {
	if err := l.append(eventlog.TypeGoalReceived, map[string]interface{}{"goal": goal}); err != nil {
		return "", err
	}

	var plan *Plan
	var completed []int
	iteration := 0

	for iteration < l.config.MaxIterations {
		iteration++

		// Analyze: the recent transcript is the planner's only memory.
		planContext := l.log.ContextString(l.config.ContextWindow)

		// Plan: created once per run, never recreated or mutated after.
		if plan == nil {
			if err := l.append(eventlog.TypeThought, map[string]interface{}{"thought": "Creating initial plan..."}); err != nil {
				return "", err
			}
			p, err := l.planner.CreatePlan(ctx, goal, planContext)
			if err != nil {
				return "", fmt.Errorf("create plan: %w", err)
			}
			plan = p

			summaries := make([]map[string]interface{}, 0, len(plan.Steps))
			for _, s := range plan.Steps {
				summaries = append(summaries, map[string]interface{}{
					"id":          s.ID,
					"description": s.Description,
					"tool":        s.Tool,
				})
			}
			if err := l.append(eventlog.TypePlanCreated, map[string]interface{}{
				"goal":      plan.Goal,
				"steps":     summaries,
				"reasoning": plan.Reasoning,
			}); err != nil {
				return "", err
			}
		}

		// Termination: the sole success-terminal state.
		if len(completed) >= len(plan.Steps) {
			if err := l.append(eventlog.TypeThought, map[string]interface{}{"thought": "All steps completed. Task finished."}); err != nil {
				return "", err
			}
			if err := l.append(eventlog.TypeCompleted, map[string]interface{}{"success": true}); err != nil {
				return "", err
			}
			return FinalResult(l.log), nil
		}

		// Execute: always the next uncompleted step, strictly in plan
		// order. Unknown tool is a planning error, checked before any
		// dispatch is logged.
		step := plan.Steps[len(completed)]

		tool := l.tools.Get(step.Tool)
		if tool == nil {
			if err := l.append(eventlog.TypeFailed, map[string]interface{}{
				"error": fmt.Sprintf("Tool not found: %s", step.Tool),
			}); err != nil {
				return "", err
			}
			return FinalResult(l.log), nil
		}

		// The dispatch is logged before the tool runs so the log reflects
		// intent even if the tool never returns.
		if err := l.append(eventlog.TypeActionDispatched, map[string]interface{}{
			"step_id": step.ID,
			"action":  step.Description,
			"tool":    step.Tool,
			"inputs":  step.Inputs,
		}); err != nil {
			return "", err
		}

		result := tool.Execute(ctx, step.Inputs)

		// Observe: recorded unconditionally, success or not.
		if err := l.append(eventlog.TypeObservationRecorded, map[string]interface{}{
			"step_id":  step.ID,
			"success":  result.Success,
			"result":   result.Output,
			"error":    result.Error,
			"metadata": result.Metadata,
		}); err != nil {
			return "", err
		}

		if result.Success {
			completed = append(completed, step.ID)
			continue
		}

		// One step failure ends the run: no retry, no skipping ahead.
		if err := l.append(eventlog.TypeFailed, map[string]interface{}{
			"error": fmt.Sprintf("Step %d failed: %s", step.ID, result.Error),
		}); err != nil {
			return "", err
		}
		return FinalResult(l.log), nil
	}

	if err := l.append(eventlog.TypeFailed, map[string]interface{}{
		"error": fmt.Sprintf("Max iterations (%d) reached", l.config.MaxIterations),
	}); err != nil {
		return "", err
	}
	return FinalResult(l.log), nil
}

// FinalResult derives the user-facing outcome of a run purely from the
// log's last observation. It is a pure, idempotent read: it may be
// recomputed at any time, including against a reloaded log.
func FinalResult(log *eventlog.Log) string {
	obs, ok := log.LastObservation()
	if !ok {
		return "No results produced."
	}

	if success, _ := obs.Content["success"].(bool); success {
		result, _ := obs.Content["result"].(string)
		if result == "" {
			result = "N/A"
		}
		return fmt.Sprintf("Task completed successfully.\n\nFinal result:\n%s", result)
	}

	errText, _ := obs.Content["error"].(string)
	if errText == "" {
		errText = "Unknown error"
	}
	return fmt.Sprintf("Task failed.\n\nError: %s", errText)
}
