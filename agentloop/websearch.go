package agentloop

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const tavilyEndpoint = "https://api.tavily.com/search"

// WebSearchTool searches the web through the Tavily API.
type WebSearchTool struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

// NewWebSearchTool creates a web search tool. The API key is required;
// the orchestrator only registers this tool when one is configured.
func NewWebSearchTool(apiKey string) (*WebSearchTool, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("web search tool: TAVILY_API_KEY not set")
	}
	return &WebSearchTool{
		apiKey:   apiKey,
		endpoint: tavilyEndpoint,
		client:   &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (t *WebSearchTool) Name() string { return "web_search" }

func (t *WebSearchTool) Description() string {
	return "Search the web for information. Inputs: query, max_results (optional, default 5)."
}

type tavilyRequest struct {
	APIKey        string `json:"api_key"`
	Query         string `json:"query"`
	MaxResults    int    `json:"max_results"`
	IncludeAnswer bool   `json:"include_answer"`
}

type tavilyResponse struct {
	Answer  string `json:"answer"`
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

// Execute performs one search and renders the answer plus result list.
func (t *WebSearchTool) Execute(ctx context.Context, inputs map[string]interface{}) ToolResult {
	query, ok := GetStringInput(inputs, "query")
	if !ok || query == "" {
		return Failure("No query provided for web search")
	}
	maxResults, ok := GetIntInput(inputs, "max_results")
	if !ok || maxResults <= 0 {
		maxResults = 5
	}

	body, err := json.Marshal(tavilyRequest{
		APIKey:        t.apiKey,
		Query:         query,
		MaxResults:    maxResults,
		IncludeAnswer: true,
	})
	if err != nil {
		return Failure("Web search failed: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return Failure("Web search failed: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return Failure("Web search failed: %v", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Failure("Web search failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Failure("Web search failed: status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var parsed tavilyResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return Failure("Web search failed: %v", err)
	}

	var sb strings.Builder
	if parsed.Answer != "" {
		fmt.Fprintf(&sb, "Answer: %s\n\n", parsed.Answer)
	}
	fmt.Fprintf(&sb, "Found %d results:\n\n", len(parsed.Results))

	results := make([]map[string]interface{}, 0, len(parsed.Results))
	for i, r := range parsed.Results {
		fmt.Fprintf(&sb, "%d. %s\n   URL: %s\n   %s\n\n", i+1, r.Title, r.URL, truncateText(r.Content, 200))
		results = append(results, map[string]interface{}{
			"title": r.Title, "url": r.URL, "content": r.Content, "score": r.Score,
		})
	}

	return ToolResult{
		Success: true,
		Output:  sb.String(),
		Metadata: map[string]interface{}{
			"query":   query,
			"results": results,
			"answer":  parsed.Answer,
		},
	}
}

func truncateText(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
