// Package agentloop implements the event-sourced agent control loop.
//
// A Loop drives the iterative analyze → plan → execute → observe cycle for
// one session: it asks a Planner to decompose the goal into an ordered
// Plan of tool invocations, executes the steps strictly in order, one per
// iteration, and records every decision and observation into the session's
// append-only event log before continuing. The log is the loop's only
// memory between iterations and the sole source of truth afterwards.
//
// # Architecture
//
//   - Loop: the sequential state machine driving a session to completion,
//     failure, or iteration-budget exhaustion.
//   - Planner: external decomposition of a goal into a Plan (LLM-backed in
//     production, a test double in tests).
//   - Tool / ToolRegistry: named capabilities the plan's steps dispatch to.
//   - Orchestrator: session directory layout and wiring of the above.
//   - Synthesizer / RenderReplay: read-only consumers that fold a finished
//     log into a structured summary or a transcript.
//
// # Quick Start
//
//	client, _ := llm.NewGollmClient(llm.Options{Provider: "anthropic"})
//	orch := agentloop.NewOrchestrator("./workspaces", client, nil)
//	res, err := orch.RunTask(ctx, "Create a file called hello.txt")
package agentloop
