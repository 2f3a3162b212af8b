package agentloop

import (
	"strings"
	"testing"
)

func TestRegistryExactMatchLookup(t *testing.T) {
	registry := NewToolRegistry()
	registry.Register(&stubTool{name: "filesystem"})

	if registry.Get("filesystem") == nil {
		t.Error("registered tool should be found")
	}
	if registry.Get("File System") != nil {
		t.Error("lookup must be exact string match")
	}
	if registry.Get("filesys") != nil {
		t.Error("no fuzzy matching")
	}
	if registry.Count() != 1 {
		t.Errorf("expected count 1, got %d", registry.Count())
	}
}

func TestRegistryRegisterReplaces(t *testing.T) {
	registry := NewToolRegistry()
	first := &stubTool{name: "worker"}
	second := &stubTool{name: "worker"}
	registry.Register(first)
	registry.Register(second)

	if registry.Count() != 1 {
		t.Fatalf("expected 1 tool after replacement, got %d", registry.Count())
	}
	if registry.Get("worker") != second {
		t.Error("latest registration should win")
	}
}

func TestRegistryNamesSorted(t *testing.T) {
	registry := NewToolRegistry()
	for _, name := range []string{"shell", "filesystem", "web_search"} {
		registry.Register(&stubTool{name: name})
	}

	names := registry.Names()
	want := []string{"filesystem", "shell", "web_search"}
	if len(names) != len(want) {
		t.Fatalf("expected %d names, got %d", len(want), len(names))
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %s, want %s", i, names[i], want[i])
		}
	}
}

func TestRegistryDescribe(t *testing.T) {
	registry := NewToolRegistry()
	registry.Register(&stubTool{name: "worker"})

	desc := registry.Describe()
	if !strings.Contains(desc, "- worker: stub tool") {
		t.Errorf("unexpected describe output: %q", desc)
	}
}

func TestInputHelpers(t *testing.T) {
	inputs := map[string]interface{}{
		"s":     "text",
		"i":     3,
		"f":     float64(7), // JSON numbers decode as float64
		"wrong": []string{"x"},
	}

	if v, ok := GetStringInput(inputs, "s"); !ok || v != "text" {
		t.Errorf("GetStringInput = %q, %v", v, ok)
	}
	if _, ok := GetStringInput(inputs, "missing"); ok {
		t.Error("missing key should not be found")
	}
	if _, ok := GetStringInput(inputs, "i"); ok {
		t.Error("non-string should not coerce")
	}

	if v, ok := GetIntInput(inputs, "i"); !ok || v != 3 {
		t.Errorf("GetIntInput(int) = %d, %v", v, ok)
	}
	if v, ok := GetIntInput(inputs, "f"); !ok || v != 7 {
		t.Errorf("GetIntInput(float64) = %d, %v", v, ok)
	}
	if _, ok := GetIntInput(inputs, "wrong"); ok {
		t.Error("non-numeric should not coerce")
	}
}
