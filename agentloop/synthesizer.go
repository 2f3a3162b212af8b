package agentloop

import (
	"context"
	"fmt"
	"strings"

	"github.com/martinemde/strand/eventlog"
	"github.com/martinemde/strand/llm"
)

// SynthesisResult is the structured summary of a finished session.
type SynthesisResult struct {
	Summary          string   `json:"summary"`
	KeyFindings      []string `json:"key_findings"`
	ArtifactsCreated []string `json:"artifacts_created"`
	NextSteps        []string `json:"next_steps"`
}

var synthesisSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"summary":           map[string]interface{}{"type": "string"},
		"key_findings":      map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
		"artifacts_created": map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
		"next_steps":        map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
	},
	"required": []string{"summary"},
}

const synthesizerSystemPrompt = `You are a synthesis agent that creates final outputs from execution logs.

Your task:
1. Read the event stream of all actions and observations
2. Understand what was accomplished
3. Identify key findings or results
4. List artifacts that were created
5. Suggest next steps if applicable

Be specific and factual. Cite concrete observations.`

// Synthesizer folds a complete event log into a structured summary. It is
// a read-only consumer: it never writes to the log.
type Synthesizer struct {
	client llm.Client
}

// NewSynthesizer creates a Synthesizer over the given completion client.
func NewSynthesizer(client llm.Client) *Synthesizer {
	return &Synthesizer{client: client}
}

// Synthesize renders the full ordered log plus the goal into a prompt and
// returns the model's structured result. It tolerates logs of any length,
// including empty ones.
func (s *Synthesizer) Synthesize(ctx context.Context, log *eventlog.Log, goal string) (*SynthesisResult, error) {
	var result SynthesisResult
	err := llm.CompleteObject(ctx, s.client, llm.Request{
		System: synthesizerSystemPrompt,
		Prompt: buildSynthesisPrompt(log, goal),
	}, synthesisSchema, &result)
	if err != nil {
		return nil, fmt.Errorf("synthesizer: %w", err)
	}
	return &result, nil
}

func buildSynthesisPrompt(log *eventlog.Log, goal string) string {
	rule := strings.Repeat("=", 60)
	var sb strings.Builder
	fmt.Fprintf(&sb, "Original Goal: %s\n\nExecution Log:\n%s\n\n", goal, rule)

	events := log.Events()
	if len(events) == 0 {
		sb.WriteString("(no events)\n")
	}
	for _, ev := range events {
		sb.WriteString(ev.DisplayString())
		sb.WriteByte('\n')
	}

	fmt.Fprintf(&sb, "\n%s\n\nBased on this execution log, create a synthesis.", rule)
	return sb.String()
}
