package agentloop

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ToolResult is the outcome of one tool invocation. It is produced fresh
// per call and never mutated after return. Error is set iff Success is
// false.
type ToolResult struct {
	Success  bool                   `json:"success"`
	Output   string                 `json:"output"`
	Error    string                 `json:"error,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Failure builds a failed ToolResult from a formatted error message.
func Failure(format string, args ...interface{}) ToolResult {
	return ToolResult{Success: false, Error: fmt.Sprintf(format, args...)}
}

// Tool is an external capability the loop can dispatch a step to. Inputs
// arrive as the step's opaque key/value map; each tool validates its own
// expected keys and fails with a descriptive error rather than trusting
// the planner's output.
type Tool interface {
	Name() string
	Description() string
	Execute(ctx context.Context, inputs map[string]interface{}) ToolResult
}

// ToolRegistry maps tool names to implementations. Lookup is exact string
// match; there is no fuzzy matching and no default tool. The loop treats
// the registry as read-only for the duration of a run.
type ToolRegistry struct {
	tools map[string]Tool
	mu    sync.RWMutex
}

// NewToolRegistry creates an empty ToolRegistry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{tools: make(map[string]Tool)}
}

// Register adds or replaces a tool, keyed by its Name().
func (r *ToolRegistry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name()] = t
}

// Get returns the tool registered under name, or nil if absent.
func (r *ToolRegistry) Get(name string) Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tools[name]
}

// Names returns the registered tool names, sorted.
func (r *ToolRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered tools.
func (r *ToolRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Describe renders one "name: description" line per tool, sorted by name.
// The planner prompt embeds this so the model only plans against tools
// that actually exist.
func (r *ToolRegistry) Describe() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	var sb strings.Builder
	for _, name := range names {
		fmt.Fprintf(&sb, "- %s: %s\n", name, r.tools[name].Description())
	}
	return sb.String()
}

// GetStringInput extracts a string value from tool inputs.
func GetStringInput(inputs map[string]interface{}, key string) (string, bool) {
	v, ok := inputs[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// GetIntInput extracts an integer value from tool inputs. JSON numbers
// arrive as float64 after a log reload, so both forms are accepted.
func GetIntInput(inputs map[string]interface{}, key string) (int, bool) {
	v, ok := inputs[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
