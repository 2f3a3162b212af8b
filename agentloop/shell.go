package agentloop

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"
)

// ShellTool runs a command in the session workspace with a timeout. It
// stands in for arbitrary computation steps the planner cannot express
// with the other tools.
type ShellTool struct {
	workingDir       string
	defaultTimeoutMs int
	maxTimeoutMs     int
}

// NewShellTool creates a shell tool rooted at workingDir. Zero timeouts
// fall back to 10s default / 10min maximum.
func NewShellTool(workingDir string, defaultTimeoutMs, maxTimeoutMs int) *ShellTool {
	if defaultTimeoutMs <= 0 {
		defaultTimeoutMs = 10000
	}
	if maxTimeoutMs <= 0 {
		maxTimeoutMs = 600000
	}
	return &ShellTool{
		workingDir:       workingDir,
		defaultTimeoutMs: defaultTimeoutMs,
		maxTimeoutMs:     maxTimeoutMs,
	}
}

func (t *ShellTool) Name() string { return "shell" }

func (t *ShellTool) Description() string {
	return "Run a shell command in the workspace directory. Inputs: command, timeout_ms (optional)."
}

// Execute runs the command via sh -c, capturing combined output. A
// non-zero exit or a timeout is a failed result, not an error of the
// machinery.
func (t *ShellTool) Execute(ctx context.Context, inputs map[string]interface{}) ToolResult {
	command, ok := GetStringInput(inputs, "command")
	if !ok || command == "" {
		return Failure("No command provided for shell execution")
	}

	timeoutMs, ok := GetIntInput(inputs, "timeout_ms")
	if !ok || timeoutMs <= 0 {
		timeoutMs = t.defaultTimeoutMs
	}
	if timeoutMs > t.maxTimeoutMs {
		timeoutMs = t.maxTimeoutMs
	}

	execCtx, cancel := context.WithTimeout(ctx, time.Duration(timeoutMs)*time.Millisecond)
	defer cancel()

	cmd := exec.CommandContext(execCtx, "sh", "-c", command)
	cmd.Dir = t.workingDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	durationMs := time.Since(start).Milliseconds()

	output := stdout.String()
	if stderr.Len() > 0 {
		if output != "" {
			output += "\n"
		}
		output += stderr.String()
	}

	meta := map[string]interface{}{
		"command":     command,
		"duration_ms": durationMs,
	}

	if execCtx.Err() == context.DeadlineExceeded {
		return ToolResult{
			Success:  false,
			Output:   output,
			Error:    fmt.Sprintf("Command timed out after %dms", timeoutMs),
			Metadata: meta,
		}
	}
	if err != nil {
		exitCode := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
		meta["exit_code"] = exitCode
		return ToolResult{
			Success:  false,
			Output:   output,
			Error:    fmt.Sprintf("Command failed (exit %d): %v", exitCode, err),
			Metadata: meta,
		}
	}

	meta["exit_code"] = 0
	return ToolResult{Success: true, Output: output, Metadata: meta}
}
