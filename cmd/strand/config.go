package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/martinemde/strand/agentloop"
)

// Config holds CLI configuration, loaded from YAML and overridable by
// environment variables.
type Config struct {
	Provider      string `yaml:"provider"`
	Model         string `yaml:"model"`
	APIKey        string `yaml:"api_key"`
	WorkspaceRoot string `yaml:"workspace_root"`
	MaxIterations int    `yaml:"max_iterations"`
	ContextWindow int    `yaml:"context_window"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Provider:      "anthropic",
		WorkspaceRoot: "./workspaces",
		MaxIterations: agentloop.DefaultLoopConfig().MaxIterations,
		ContextWindow: agentloop.DefaultLoopConfig().ContextWindow,
	}
}

// DefaultConfigPath is ~/.strand.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".strand.yaml"
	}
	return filepath.Join(home, ".strand.yaml")
}

// LoadConfig reads the YAML file at path (missing file = defaults) and
// applies environment overrides: STRAND_PROVIDER, STRAND_MODEL,
// STRAND_WORKSPACE_ROOT, and the provider API key from the usual env vars.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	if v := os.Getenv("STRAND_PROVIDER"); v != "" {
		cfg.Provider = v
	}
	if v := os.Getenv("STRAND_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("STRAND_WORKSPACE_ROOT"); v != "" {
		cfg.WorkspaceRoot = v
	}

	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultConfig().MaxIterations
	}
	if cfg.ContextWindow <= 0 {
		cfg.ContextWindow = DefaultConfig().ContextWindow
	}
	return cfg, nil
}

// LoopConfig converts the CLI config into loop bounds.
func (c Config) LoopConfig() agentloop.LoopConfig {
	return agentloop.LoopConfig{
		MaxIterations: c.MaxIterations,
		ContextWindow: c.ContextWindow,
	}
}
