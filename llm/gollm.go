package llm

import (
	"context"
	"fmt"

	"github.com/teilomillet/gollm"
)

// GollmClient implements Client on top of a gollm.LLM instance.
type GollmClient struct {
	llm gollm.LLM
}

// Options configures a GollmClient.
type Options struct {
	Provider    string  // "anthropic", "openai", ...
	Model       string  // provider model identifier
	APIKey      string  // empty = let gollm read the provider env var
	MaxTokens   int     // default 4096
	Temperature float64 // default 0.2; planning wants low variance
}

// NewGollmClient creates a gollm-backed client for the given provider and
// model. Transport-level retries are disabled so a planner failure
// surfaces to the caller instead of being silently papered over.
func NewGollmClient(opts Options) (*GollmClient, error) {
	if opts.Provider == "" {
		opts.Provider = "anthropic"
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = 4096
	}
	if opts.Temperature == 0 {
		opts.Temperature = 0.2
	}
	if opts.Model == "" {
		switch opts.Provider {
		case "openai":
			opts.Model = "gpt-4o-mini"
		default:
			opts.Model = "claude-sonnet-4-5-20250514"
		}
	}

	gollmOpts := []gollm.ConfigOption{
		gollm.SetProvider(opts.Provider),
		gollm.SetModel(opts.Model),
		gollm.SetMaxTokens(opts.MaxTokens),
		gollm.SetTemperature(opts.Temperature),
		gollm.SetMaxRetries(0),
		gollm.SetLogLevel(gollm.LogLevelWarn),
	}
	if opts.APIKey != "" {
		gollmOpts = append(gollmOpts, gollm.SetAPIKey(opts.APIKey))
	}

	l, err := gollm.NewLLM(gollmOpts...)
	if err != nil {
		return nil, fmt.Errorf("llm: create %s client: %w", opts.Provider, err)
	}
	return &GollmClient{llm: l}, nil
}

// NewGollmClientFromLLM wraps an existing gollm.LLM instance.
func NewGollmClientFromLLM(l gollm.LLM) *GollmClient {
	return &GollmClient{llm: l}
}

// Complete sends a blocking completion request and returns the response text.
func (c *GollmClient) Complete(ctx context.Context, req Request) (string, error) {
	promptOpts := []gollm.PromptOption{}
	if req.System != "" {
		promptOpts = append(promptOpts, gollm.WithSystemPrompt(req.System, gollm.CacheTypeEphemeral))
	}
	if req.MaxTokens > 0 {
		promptOpts = append(promptOpts, gollm.WithMaxLength(req.MaxTokens))
	}

	prompt := gollm.NewPrompt(req.Prompt, promptOpts...)
	text, err := c.llm.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("llm: generate: %w", err)
	}
	return text, nil
}
