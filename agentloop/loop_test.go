package agentloop

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/martinemde/strand/eventlog"
)

// stubPlanner returns a canned plan and records how it was called.
type stubPlanner struct {
	plan        *Plan
	err         error
	createCalls int
	updateCalls int
	lastGoal    string
	lastCtx     string
}

func (p *stubPlanner) CreatePlan(ctx context.Context, goal, transcript string) (*Plan, error) {
	p.createCalls++
	p.lastGoal = goal
	p.lastCtx = transcript
	if p.err != nil {
		return nil, p.err
	}
	return p.plan, nil
}

func (p *stubPlanner) UpdatePlan(ctx context.Context, plan *Plan, observation string, completedIDs []int) (*Plan, error) {
	p.updateCalls++
	return plan, nil
}

// stubTool returns canned results per call and records the inputs it saw.
type stubTool struct {
	name    string
	results []ToolResult
	calls   []map[string]interface{}
}

func (t *stubTool) Name() string        { return t.name }
func (t *stubTool) Description() string { return "stub tool" }

func (t *stubTool) Execute(ctx context.Context, inputs map[string]interface{}) ToolResult {
	t.calls = append(t.calls, inputs)
	if len(t.results) == 0 {
		return ToolResult{Success: true, Output: "ok"}
	}
	res := t.results[0]
	if len(t.results) > 1 {
		t.results = t.results[1:]
	}
	return res
}

func newTestLog(t *testing.T) *eventlog.Log {
	t.Helper()
	log, err := eventlog.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	t.Cleanup(func() { log.Close() })
	return log
}

func singleStepPlan(goal, tool string, inputs map[string]interface{}) *Plan {
	return &Plan{
		Goal:      goal,
		Steps:     []Step{{ID: 0, Description: "do the thing", Tool: tool, Inputs: inputs}},
		Reasoning: "one step is enough",
	}
}

func eventTypes(log *eventlog.Log) []eventlog.Type {
	events := log.Events()
	types := make([]eventlog.Type, len(events))
	for i, ev := range events {
		types[i] = ev.Type
	}
	return types
}

func TestSingleStepSuccessScenario(t *testing.T) {
	goal := "write hello.txt"
	tool := &stubTool{name: "filesystem", results: []ToolResult{{Success: true, Output: "Wrote 5 characters to hello.txt"}}}
	registry := NewToolRegistry()
	registry.Register(tool)

	planner := &stubPlanner{plan: singleStepPlan(goal, "filesystem", map[string]interface{}{
		"operation": "write", "path": "hello.txt", "content": "Hello",
	})}

	log := newTestLog(t)
	loop := NewLoop(planner, registry, log, nil)

	result, err := loop.Run(context.Background(), goal)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	want := []eventlog.Type{
		eventlog.TypeGoalReceived,
		eventlog.TypeThought,
		eventlog.TypePlanCreated,
		eventlog.TypeActionDispatched,
		eventlog.TypeObservationRecorded,
		eventlog.TypeThought,
		eventlog.TypeCompleted,
	}
	got := eventTypes(log)
	if len(got) != len(want) {
		t.Fatalf("expected %d events, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d: expected %s, got %s", i, want[i], got[i])
		}
	}

	if !strings.Contains(result, "Task completed successfully") {
		t.Errorf("expected success message, got %q", result)
	}
	if !strings.Contains(result, "Wrote 5 characters to hello.txt") {
		t.Errorf("expected tool output embedded in result, got %q", result)
	}
	if planner.createCalls != 1 {
		t.Errorf("plan should be created exactly once, got %d", planner.createCalls)
	}
	if planner.updateCalls != 0 {
		t.Errorf("base loop must never call UpdatePlan, got %d calls", planner.updateCalls)
	}
	if len(tool.calls) != 1 {
		t.Fatalf("tool should run once, got %d", len(tool.calls))
	}
	if op := tool.calls[0]["operation"]; op != "write" {
		t.Errorf("inputs not passed verbatim: %v", tool.calls[0])
	}
}

func TestOneFailureHaltsTheRun(t *testing.T) {
	tool := &stubTool{name: "worker", results: []ToolResult{
		{Success: true, Output: "step 0 done"},
		{Success: false, Error: "disk full"},
		{Success: true, Output: "step 2 done"},
	}}
	registry := NewToolRegistry()
	registry.Register(tool)

	plan := &Plan{
		Goal: "three steps",
		Steps: []Step{
			{ID: 0, Description: "first", Tool: "worker", Inputs: map[string]interface{}{}},
			{ID: 1, Description: "second", Tool: "worker", Inputs: map[string]interface{}{}},
			{ID: 2, Description: "third", Tool: "worker", Inputs: map[string]interface{}{}},
		},
	}

	log := newTestLog(t)
	loop := NewLoop(&stubPlanner{plan: plan}, registry, log, nil)

	result, err := loop.Run(context.Background(), "three steps")
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(tool.calls) != 2 {
		t.Fatalf("expected 2 executions (ids 0 and 1), got %d", len(tool.calls))
	}

	dispatched := log.ByType(eventlog.TypeActionDispatched)
	if len(dispatched) != 2 {
		t.Fatalf("expected dispatches for ids 0 and 1 only, got %d", len(dispatched))
	}
	for i, ev := range dispatched {
		if id, _ := ev.Content["step_id"].(int); id != i {
			t.Errorf("dispatch %d references step %v", i, ev.Content["step_id"])
		}
	}

	failed := log.ByType(eventlog.TypeFailed)
	if len(failed) != 1 {
		t.Fatalf("expected exactly one failed event, got %d", len(failed))
	}
	if msg, _ := failed[0].Content["error"].(string); !strings.Contains(msg, "Step 1 failed: disk full") {
		t.Errorf("failed event should reference step 1, got %q", msg)
	}

	if len(log.ByType(eventlog.TypeCompleted)) != 0 {
		t.Error("failed run must not contain a completed event")
	}
	if !strings.Contains(result, "Task failed") || !strings.Contains(result, "disk full") {
		t.Errorf("expected failure message with error text, got %q", result)
	}
}

func TestBudgetExhaustionFreezesCompletedSteps(t *testing.T) {
	tool := &stubTool{name: "worker"}
	registry := NewToolRegistry()
	registry.Register(tool)

	plan := &Plan{
		Goal: "three steps, budget two",
		Steps: []Step{
			{ID: 0, Description: "first", Tool: "worker", Inputs: map[string]interface{}{}},
			{ID: 1, Description: "second", Tool: "worker", Inputs: map[string]interface{}{}},
			{ID: 2, Description: "third", Tool: "worker", Inputs: map[string]interface{}{}},
		},
	}

	log := newTestLog(t)
	loop := NewLoop(&stubPlanner{plan: plan}, registry, log, &LoopConfig{MaxIterations: 2, ContextWindow: 10})

	if _, err := loop.Run(context.Background(), "three steps, budget two"); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(tool.calls) != 2 {
		t.Fatalf("expected steps 0 and 1 executed, got %d calls", len(tool.calls))
	}

	for _, ev := range log.ByType(eventlog.TypeActionDispatched) {
		if id, _ := ev.Content["step_id"].(int); id == 2 {
			t.Error("no ActionDispatched event for step 2 may exist")
		}
	}

	failed := log.ByType(eventlog.TypeFailed)
	if len(failed) != 1 {
		t.Fatalf("expected one budget failed event, got %d", len(failed))
	}
	if msg, _ := failed[0].Content["error"].(string); !strings.Contains(msg, "Max iterations (2) reached") {
		t.Errorf("expected budget message, got %q", msg)
	}
}

func TestUnknownToolFailsBeforeDispatch(t *testing.T) {
	registry := NewToolRegistry() // empty: nothing registered

	log := newTestLog(t)
	loop := NewLoop(&stubPlanner{plan: singleStepPlan("g", "nonexistent", nil)}, registry, log, nil)

	result, err := loop.Run(context.Background(), "g")
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(log.ByType(eventlog.TypeActionDispatched)) != 0 {
		t.Error("unknown tool must be detected before any dispatch is logged")
	}

	failed := log.ByType(eventlog.TypeFailed)
	if len(failed) != 1 {
		t.Fatalf("expected one failed event, got %d", len(failed))
	}
	if msg, _ := failed[0].Content["error"].(string); msg != "Tool not found: nonexistent" {
		t.Errorf("expected %q, got %q", "Tool not found: nonexistent", msg)
	}

	if result != "No results produced." {
		t.Errorf("no step ran, expected no-results message, got %q", result)
	}
}

func TestPlannerErrorPropagates(t *testing.T) {
	registry := NewToolRegistry()
	log := newTestLog(t)
	loop := NewLoop(&stubPlanner{err: fmt.Errorf("model unavailable")}, registry, log, nil)

	if _, err := loop.Run(context.Background(), "g"); err == nil {
		t.Fatal("expected planner error to propagate")
	}
}

func TestPlannerContextIsBoundedTranscript(t *testing.T) {
	tool := &stubTool{name: "worker"}
	registry := NewToolRegistry()
	registry.Register(tool)

	planner := &stubPlanner{plan: singleStepPlan("g", "worker", nil)}
	log := newTestLog(t)
	loop := NewLoop(planner, registry, log, nil)

	if _, err := loop.Run(context.Background(), "g"); err != nil {
		t.Fatal(err)
	}

	// The context is computed at the top of the iteration, before the
	// planning thought is appended, so it holds only goal_received.
	lines := strings.Split(planner.lastCtx, "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 transcript line at plan time, got %d: %q", len(lines), planner.lastCtx)
	}
	if !strings.Contains(lines[0], "GOAL") {
		t.Errorf("unexpected transcript: %q", planner.lastCtx)
	}
}

func TestFinalResultIsIdempotentAndReloadSafe(t *testing.T) {
	dir := t.TempDir()
	log, err := eventlog.Open(dir)
	if err != nil {
		t.Fatal(err)
	}

	tool := &stubTool{name: "worker", results: []ToolResult{{Success: true, Output: "payload"}}}
	registry := NewToolRegistry()
	registry.Register(tool)

	loop := NewLoop(&stubPlanner{plan: singleStepPlan("g", "worker", nil)}, registry, log, nil)
	result, err := loop.Run(context.Background(), "g")
	if err != nil {
		t.Fatal(err)
	}
	log.Close()

	if got := FinalResult(loop.Log()); got != result {
		t.Errorf("repeated derivation differs: %q vs %q", got, result)
	}

	// The derivation holds against an independently reloaded log too.
	reloaded, err := eventlog.OpenReadOnly(dir)
	if err != nil {
		t.Fatal(err)
	}
	if got := FinalResult(reloaded); got != result {
		t.Errorf("reloaded derivation differs: %q vs %q", got, result)
	}
}

func TestTapObservesEveryAppend(t *testing.T) {
	tool := &stubTool{name: "worker"}
	registry := NewToolRegistry()
	registry.Register(tool)

	log := newTestLog(t)
	loop := NewLoop(&stubPlanner{plan: singleStepPlan("g", "worker", nil)}, registry, log, nil)

	var seen []eventlog.Type
	loop.Tap(func(ev eventlog.Event) { seen = append(seen, ev.Type) })

	if _, err := loop.Run(context.Background(), "g"); err != nil {
		t.Fatal(err)
	}

	if len(seen) != log.Len() {
		t.Fatalf("tap saw %d events, log has %d", len(seen), log.Len())
	}
	for i, ev := range log.Events() {
		if seen[i] != ev.Type {
			t.Errorf("tap order diverges at %d: %s vs %s", i, seen[i], ev.Type)
		}
	}
}

func TestObservationRecordedEvenOnFailure(t *testing.T) {
	tool := &stubTool{name: "worker", results: []ToolResult{{Success: false, Output: "partial", Error: "boom"}}}
	registry := NewToolRegistry()
	registry.Register(tool)

	log := newTestLog(t)
	loop := NewLoop(&stubPlanner{plan: singleStepPlan("g", "worker", nil)}, registry, log, nil)

	if _, err := loop.Run(context.Background(), "g"); err != nil {
		t.Fatal(err)
	}

	obs := log.ByType(eventlog.TypeObservationRecorded)
	if len(obs) != 1 {
		t.Fatalf("expected one observation, got %d", len(obs))
	}
	if success, _ := obs[0].Content["success"].(bool); success {
		t.Error("observation should record the failure")
	}
	if obs[0].Content["result"] != "partial" || obs[0].Content["error"] != "boom" {
		t.Errorf("observation should preserve output and error: %v", obs[0].Content)
	}
}
