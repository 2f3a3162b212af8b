package agentloop

import (
	"context"
	"fmt"
	"strings"

	"github.com/martinemde/strand/llm"
)

// planSchema is the JSON schema the planner's structured output must match.
var planSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"goal": map[string]interface{}{"type": "string"},
		"steps": map[string]interface{}{
			"type": "array",
			"items": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id":          map[string]interface{}{"type": "integer"},
					"description": map[string]interface{}{"type": "string"},
					"tool":        map[string]interface{}{"type": "string"},
					"inputs":      map[string]interface{}{"type": "object"},
				},
				"required": []string{"id", "description", "tool", "inputs"},
			},
		},
		"reasoning": map[string]interface{}{"type": "string"},
	},
	"required": []string{"goal", "steps"},
}

// LLMPlanner implements Planner by asking a language model to decompose
// the goal into tool invocations against the session's registry.
type LLMPlanner struct {
	client llm.Client
	system string
}

// NewLLMPlanner creates a planner over the given completion client. The
// registry's tool descriptions are baked into the system prompt so the
// model only plans against tools that exist.
func NewLLMPlanner(client llm.Client, tools *ToolRegistry) *LLMPlanner {
	system := fmt.Sprintf(`You are a planning agent that breaks down user goals into concrete, executable steps.

Available tools:
%s
Your task:
1. Analyze the user's goal
2. Break it into 3-7 concrete steps
3. Each step should use ONE tool with clear inputs
4. Steps should be sequential and logical, with ids numbered 0..N-1
5. Keep steps simple and focused

Output a plan with:
- goal: The user's original goal
- steps: List of executable steps with tool and inputs
- reasoning: Brief explanation of your approach

Keep it simple. Focus on ACTIONABLE steps.`, tools.Describe())

	return &LLMPlanner{client: client, system: system}
}

// CreatePlan asks the model for an execution plan and validates that step
// ids are contiguous from zero in execution order.
func (p *LLMPlanner) CreatePlan(ctx context.Context, goal, transcript string) (*Plan, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Goal: %s", goal)
	if transcript != "" {
		fmt.Fprintf(&sb, "\n\nContext from previous actions:\n%s", transcript)
	}

	var plan Plan
	err := llm.CompleteObject(ctx, p.client, llm.Request{
		System: p.system,
		Prompt: sb.String(),
	}, planSchema, &plan)
	if err != nil {
		return nil, fmt.Errorf("planner: %w", err)
	}
	if plan.Goal == "" {
		plan.Goal = goal
	}
	if err := validatePlan(&plan); err != nil {
		return nil, fmt.Errorf("planner: %w", err)
	}
	return &plan, nil
}

// UpdatePlan revises a plan based on an observation. The base loop never
// calls this; it exists for callers that want adaptive replanning.
func (p *LLMPlanner) UpdatePlan(ctx context.Context, plan *Plan, observation string, completedIDs []int) (*Plan, error) {
	prompt := fmt.Sprintf(`Current plan:
Goal: %s
Steps: %d total
Completed: %v

Last observation: %s

Based on this observation, update the plan. Keep completed steps unchanged and renumber all steps 0..N-1.`,
		plan.Goal, len(plan.Steps), completedIDs, observation)

	var updated Plan
	err := llm.CompleteObject(ctx, p.client, llm.Request{
		System: p.system,
		Prompt: prompt,
	}, planSchema, &updated)
	if err != nil {
		return nil, fmt.Errorf("planner: %w", err)
	}
	if updated.Goal == "" {
		updated.Goal = plan.Goal
	}
	if err := validatePlan(&updated); err != nil {
		return nil, fmt.Errorf("planner: %w", err)
	}
	return &updated, nil
}

func validatePlan(plan *Plan) error {
	if len(plan.Steps) == 0 {
		return fmt.Errorf("plan has no steps")
	}
	for i, s := range plan.Steps {
		if s.ID != i {
			return fmt.Errorf("step ids must be contiguous from 0: step %d has id %d", i, s.ID)
		}
		if s.Tool == "" {
			return fmt.Errorf("step %d names no tool", i)
		}
		if s.Inputs == nil {
			plan.Steps[i].Inputs = map[string]interface{}{}
		}
	}
	return nil
}
