// Package eventlog implements the durable, append-only event log that is
// the single source of truth for an agent session.
//
// Every decision and observation the agent loop makes is recorded as a
// typed Event and persisted as one JSON object per line (JSONL) in the
// session directory before execution continues. The log is write-once:
// events are never edited or removed, and append order is the sole
// timeline of the session.
package eventlog

import (
	"fmt"
	"time"
)

// Type identifies the kind of event in the stream.
type Type string

const (
	TypeGoalReceived        Type = "goal_received"
	TypePlanCreated         Type = "plan_created"
	TypeActionDispatched    Type = "action_dispatched"
	TypeObservationRecorded Type = "observation_recorded"
	TypeThought             Type = "thought"
	TypeCompleted           Type = "completed"
	TypeFailed              Type = "failed"
)

// Event is a single immutable record in a session's history.
type Event struct {
	Timestamp time.Time              `json:"timestamp"`
	Type      Type                   `json:"type"`
	Content   map[string]interface{} `json:"content"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// New creates an Event of the given type stamped with the current time.
func New(t Type, content map[string]interface{}) Event {
	return Event{
		Timestamp: time.Now(),
		Type:      t,
		Content:   content,
	}
}

// truncate shortens s to at most n runes for single-line display.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func (e Event) contentString(key string) string {
	v, ok := e.Content[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return fmt.Sprintf("%v", v)
	}
	return s
}

// DisplayString renders the event as one deterministic human-readable
// line. It is the unit of the context string given to the planner and of
// the replay transcript.
func (e Event) DisplayString() string {
	ts := e.Timestamp.Format("15:04:05")

	switch e.Type {
	case TypeGoalReceived:
		return fmt.Sprintf("[%s] 🎯 GOAL: %s", ts, e.contentString("goal"))
	case TypePlanCreated:
		n := 0
		if steps, ok := e.Content["steps"].([]interface{}); ok {
			n = len(steps)
		} else if steps, ok := e.Content["steps"].([]map[string]interface{}); ok {
			n = len(steps)
		}
		return fmt.Sprintf("[%s] 📋 PLAN: %d steps", ts, n)
	case TypeActionDispatched:
		return fmt.Sprintf("[%s] ⚡ ACTION: %s", ts, e.contentString("action"))
	case TypeObservationRecorded:
		return fmt.Sprintf("[%s] 👁️  OBSERVED: %s...", ts, truncate(e.contentString("result"), 100))
	case TypeThought:
		return fmt.Sprintf("[%s] 💭 THINKING: %s...", ts, truncate(e.contentString("thought"), 100))
	case TypeCompleted:
		return fmt.Sprintf("[%s] ✅ COMPLETED", ts)
	case TypeFailed:
		return fmt.Sprintf("[%s] ❌ FAILED: %s", ts, e.contentString("error"))
	}
	return fmt.Sprintf("[%s] %s: %v", ts, e.Type, e.Content)
}
