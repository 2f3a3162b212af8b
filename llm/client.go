// Package llm provides the minimal language-model client surface the agent
// needs: send a system prompt plus a user prompt, get text or a
// schema-conforming JSON object back. It wraps gollm for provider access.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Request is a single blocking completion request.
type Request struct {
	System    string
	Prompt    string
	MaxTokens int // 0 = client default
}

// Client is the completion interface the planner and synthesizer consume.
// Implementations must be safe for sequential reuse across calls.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// CompleteObject runs a completion constrained to the given JSON schema and
// unmarshals the response into out. The schema is appended to the system
// prompt as an instruction block; providers without native structured
// output follow it the same way.
func CompleteObject(ctx context.Context, c Client, req Request, schema map[string]interface{}, out interface{}) error {
	schemaJSON, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("llm: marshal schema: %w", err)
	}
	instruction := fmt.Sprintf(
		"\nYou must respond with valid JSON matching this schema:\n```json\n%s\n```\nRespond ONLY with the JSON object, no other text.",
		string(schemaJSON),
	)
	req.System += instruction

	text, err := c.Complete(ctx, req)
	if err != nil {
		return err
	}

	cleaned := stripCodeFence(text)
	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		return fmt.Errorf("llm: parse structured output: %w", err)
	}
	return nil
}

// stripCodeFence removes a surrounding markdown code fence, which some
// models emit despite instructions.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
