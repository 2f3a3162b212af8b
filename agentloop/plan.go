package agentloop

import "context"

// Step is one planned unit of work: a tool name and the inputs to pass it.
// Steps are immutable once part of a Plan; IDs are the step's position in
// the plan (0..N-1) and double as the execution order.
type Step struct {
	ID          int                    `json:"id"`
	Description string                 `json:"description"`
	Tool        string                 `json:"tool"`
	Inputs      map[string]interface{} `json:"inputs"`
}

// Plan is an immutable ordered decomposition of a goal, produced once per
// run by the planner.
type Plan struct {
	Goal      string `json:"goal"`
	Steps     []Step `json:"steps"`
	Reasoning string `json:"reasoning,omitempty"`
}

// Planner decomposes a goal into an executable Plan. Implementations are
// opaque to the loop; in production the planner is backed by a language
// model, in tests by a canned double.
//
// UpdatePlan is an extension point for revising a plan mid-run based on an
// observation. The base Loop never calls it: plans are fixed once created,
// even if later steps fail.
type Planner interface {
	// CreatePlan decomposes goal into ordered steps. transcript is the
	// rendered recent-event context string, the planner's only
	// situational memory.
	CreatePlan(ctx context.Context, goal, transcript string) (*Plan, error)
	UpdatePlan(ctx context.Context, plan *Plan, observation string, completedIDs []int) (*Plan, error)
}
