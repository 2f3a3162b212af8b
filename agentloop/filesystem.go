package agentloop

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"
)

// FileSystemTool reads, writes, and lists files inside a session's
// workspace directory. Every path is resolved relative to the workspace
// and rejected if it escapes it.
type FileSystemTool struct {
	workspaceDir string
}

// NewFileSystemTool creates a filesystem tool sandboxed to workspaceDir,
// creating the directory if needed.
func NewFileSystemTool(workspaceDir string) (*FileSystemTool, error) {
	abs, err := filepath.Abs(workspaceDir)
	if err != nil {
		return nil, fmt.Errorf("filesystem tool: resolve workspace: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("filesystem tool: create workspace: %w", err)
	}
	return &FileSystemTool{workspaceDir: abs}, nil
}

func (t *FileSystemTool) Name() string { return "filesystem" }

func (t *FileSystemTool) Description() string {
	return "Read, write, and list files in the workspace. Operations: read, write, list, delete, exists. Inputs: operation, path, content (write only)."
}

// resolve maps a planner-supplied path into the workspace, refusing
// absolute paths and traversal that would leave it.
func (t *FileSystemTool) resolve(path string) (string, error) {
	if filepath.IsAbs(path) {
		return "", fmt.Errorf("absolute paths are not allowed: %s", path)
	}
	resolved := filepath.Clean(filepath.Join(t.workspaceDir, path))
	if resolved != t.workspaceDir && !strings.HasPrefix(resolved, t.workspaceDir+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes workspace: %s", path)
	}
	return resolved, nil
}

// Execute performs one file operation described by inputs.
func (t *FileSystemTool) Execute(ctx context.Context, inputs map[string]interface{}) ToolResult {
	operation, ok := GetStringInput(inputs, "operation")
	if !ok || operation == "" {
		return Failure("No operation specified. Use: read, write, list, delete, or exists")
	}

	path, _ := GetStringInput(inputs, "path")

	switch operation {
	case "read":
		return t.read(path)
	case "write":
		content, _ := GetStringInput(inputs, "content")
		return t.write(path, content)
	case "list":
		if path == "" {
			path = "."
		}
		return t.list(path)
	case "delete":
		return t.delete(path)
	case "exists":
		return t.exists(path)
	default:
		return Failure("Unknown operation: %s. Use: read, write, list, delete, or exists", operation)
	}
}

func (t *FileSystemTool) read(path string) ToolResult {
	if path == "" {
		return Failure("No path specified for read operation")
	}
	resolved, err := t.resolve(path)
	if err != nil {
		return Failure("%v", err)
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return Failure("File not found: %s", path)
	}
	if info.IsDir() {
		return Failure("Path is not a file: %s", path)
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return Failure("File operation failed: %v", err)
	}
	if !utf8.Valid(data) {
		return Failure("File is not text (UTF-8): %s", path)
	}

	return ToolResult{
		Success:  true,
		Output:   string(data),
		Metadata: map[string]interface{}{"path": resolved, "size": len(data)},
	}
}

func (t *FileSystemTool) write(path, content string) ToolResult {
	if path == "" {
		return Failure("No path specified for write operation")
	}
	resolved, err := t.resolve(path)
	if err != nil {
		return Failure("%v", err)
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return Failure("File operation failed: %v", err)
	}
	if err := os.WriteFile(resolved, []byte(content), 0o644); err != nil {
		return Failure("File operation failed: %v", err)
	}

	return ToolResult{
		Success:  true,
		Output:   fmt.Sprintf("Wrote %d characters to %s", len(content), path),
		Metadata: map[string]interface{}{"path": resolved, "size": len(content)},
	}
}

func (t *FileSystemTool) list(path string) ToolResult {
	resolved, err := t.resolve(path)
	if err != nil {
		return Failure("%v", err)
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return Failure("Directory not found: %s", path)
	}
	if !info.IsDir() {
		return Failure("Path is not a directory: %s", path)
	}

	entries, err := os.ReadDir(resolved)
	if err != nil {
		return Failure("File operation failed: %v", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	files := make([]map[string]interface{}, 0, len(entries))
	var lines []string
	for _, entry := range entries {
		kind := "file"
		var size int64
		if entry.IsDir() {
			kind = "dir"
		} else if fi, err := entry.Info(); err == nil {
			size = fi.Size()
		}
		rel, _ := filepath.Rel(t.workspaceDir, filepath.Join(resolved, entry.Name()))
		files = append(files, map[string]interface{}{
			"name": entry.Name(), "path": rel, "type": kind, "size": size,
		})
		lines = append(lines, fmt.Sprintf("%-4s  %-30s  %10d bytes", kind, entry.Name(), size))
	}

	output := strings.Join(lines, "\n")
	if output == "" {
		output = "(empty directory)"
	}
	return ToolResult{
		Success:  true,
		Output:   output,
		Metadata: map[string]interface{}{"files": files, "count": len(files)},
	}
}

func (t *FileSystemTool) delete(path string) ToolResult {
	if path == "" {
		return Failure("No path specified for delete operation")
	}
	resolved, err := t.resolve(path)
	if err != nil {
		return Failure("%v", err)
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return Failure("File not found: %s", path)
	}
	if info.IsDir() {
		return Failure("Cannot delete directory: %s", path)
	}
	if err := os.Remove(resolved); err != nil {
		return Failure("File operation failed: %v", err)
	}

	return ToolResult{
		Success:  true,
		Output:   fmt.Sprintf("Deleted %s", path),
		Metadata: map[string]interface{}{"path": resolved},
	}
}

func (t *FileSystemTool) exists(path string) ToolResult {
	if path == "" {
		return Failure("No path specified for exists check")
	}
	resolved, err := t.resolve(path)
	if err != nil {
		return Failure("%v", err)
	}

	_, statErr := os.Stat(resolved)
	exists := statErr == nil
	status := "Does not exist"
	if exists {
		status = "Exists"
	}
	return ToolResult{
		Success:  true,
		Output:   fmt.Sprintf("%s: %s", status, path),
		Metadata: map[string]interface{}{"path": resolved, "exists": exists},
	}
}
