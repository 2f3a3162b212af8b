package agentloop

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/martinemde/strand/llm"
)

// mockLLM is a test double for llm.Client.
type mockLLM struct {
	response   string
	err        error
	lastSystem string
	lastPrompt string
}

func (m *mockLLM) Complete(ctx context.Context, req llm.Request) (string, error) {
	m.lastSystem = req.System
	m.lastPrompt = req.Prompt
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

const validPlanJSON = `{
  "goal": "write hello.txt",
  "steps": [
    {"id": 0, "description": "Write greeting", "tool": "filesystem",
     "inputs": {"operation": "write", "path": "hello.txt", "content": "Hello"}}
  ],
  "reasoning": "single write"
}`

func plannerRegistry() *ToolRegistry {
	registry := NewToolRegistry()
	registry.Register(&stubTool{name: "filesystem"})
	return registry
}

func TestLLMPlannerCreatePlan(t *testing.T) {
	client := &mockLLM{response: validPlanJSON}
	planner := NewLLMPlanner(client, plannerRegistry())

	plan, err := planner.CreatePlan(context.Background(), "write hello.txt", "[10:00:00] 🎯 GOAL: write hello.txt")
	if err != nil {
		t.Fatalf("create plan: %v", err)
	}
	if plan.Goal != "write hello.txt" {
		t.Errorf("goal = %q", plan.Goal)
	}
	if len(plan.Steps) != 1 || plan.Steps[0].Tool != "filesystem" {
		t.Fatalf("steps = %+v", plan.Steps)
	}
	if op := plan.Steps[0].Inputs["operation"]; op != "write" {
		t.Errorf("inputs lost: %v", plan.Steps[0].Inputs)
	}

	if !strings.Contains(client.lastSystem, "- filesystem: stub tool") {
		t.Error("system prompt should list the registry's tools")
	}
	if !strings.Contains(client.lastPrompt, "Goal: write hello.txt") {
		t.Errorf("prompt missing goal: %q", client.lastPrompt)
	}
	if !strings.Contains(client.lastPrompt, "Context from previous actions") {
		t.Errorf("prompt missing transcript: %q", client.lastPrompt)
	}
}

func TestLLMPlannerOmitsEmptyTranscript(t *testing.T) {
	client := &mockLLM{response: validPlanJSON}
	planner := NewLLMPlanner(client, plannerRegistry())

	if _, err := planner.CreatePlan(context.Background(), "g", ""); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(client.lastPrompt, "Context from previous actions") {
		t.Errorf("empty transcript should be omitted: %q", client.lastPrompt)
	}
}

func TestLLMPlannerToleratesCodeFence(t *testing.T) {
	client := &mockLLM{response: "```json\n" + validPlanJSON + "\n```"}
	planner := NewLLMPlanner(client, plannerRegistry())

	plan, err := planner.CreatePlan(context.Background(), "g", "")
	if err != nil {
		t.Fatalf("fenced JSON should parse: %v", err)
	}
	if len(plan.Steps) != 1 {
		t.Errorf("steps = %+v", plan.Steps)
	}
}

func TestLLMPlannerRejectsBadPlans(t *testing.T) {
	cases := map[string]string{
		"no steps":           `{"goal": "g", "steps": []}`,
		"non-contiguous ids": `{"goal": "g", "steps": [{"id": 1, "description": "d", "tool": "filesystem", "inputs": {}}]}`,
		"missing tool":       `{"goal": "g", "steps": [{"id": 0, "description": "d", "tool": "", "inputs": {}}]}`,
		"not json":           `the plan is to wing it`,
	}
	for name, response := range cases {
		planner := NewLLMPlanner(&mockLLM{response: response}, plannerRegistry())
		if _, err := planner.CreatePlan(context.Background(), "g", ""); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestLLMPlannerErrorPropagates(t *testing.T) {
	planner := NewLLMPlanner(&mockLLM{err: fmt.Errorf("provider down")}, plannerRegistry())
	if _, err := planner.CreatePlan(context.Background(), "g", ""); err == nil {
		t.Fatal("expected error to propagate")
	}
}

func TestLLMPlannerUpdatePlan(t *testing.T) {
	updated := `{
  "goal": "g",
  "steps": [
    {"id": 0, "description": "done already", "tool": "filesystem", "inputs": {}},
    {"id": 1, "description": "retry differently", "tool": "filesystem", "inputs": {}}
  ]
}`
	client := &mockLLM{response: updated}
	planner := NewLLMPlanner(client, plannerRegistry())

	base := &Plan{Goal: "g", Steps: []Step{{ID: 0, Description: "d", Tool: "filesystem", Inputs: map[string]interface{}{}}}}
	plan, err := planner.UpdatePlan(context.Background(), base, "step 0 wrote the wrong file", []int{0})
	if err != nil {
		t.Fatalf("update plan: %v", err)
	}
	if len(plan.Steps) != 2 {
		t.Errorf("steps = %+v", plan.Steps)
	}
	if !strings.Contains(client.lastPrompt, "Last observation: step 0 wrote the wrong file") {
		t.Errorf("prompt missing observation: %q", client.lastPrompt)
	}
}
