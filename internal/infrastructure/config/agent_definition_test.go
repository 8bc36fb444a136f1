package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeAgentConfig(t *testing.T, baseDir, name, yaml string) {
	t.Helper()
	dir := filepath.Join(baseDir, "agents", name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestLoadAgentDefinitionAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	writeAgentConfig(t, dir, "researcher", "model: gpt-5\ncan_spawn_agents: true\n")

	def, err := LoadAgentDefinition(dir, "researcher")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if def.Model != "gpt-5" {
		t.Fatalf("model = %q", def.Model)
	}
	if !def.CanSpawnAgents {
		t.Fatal("expected can_spawn_agents true")
	}
	if def.MaxConcurrentAgents != 4 {
		t.Fatalf("max_concurrent_agents default = %d", def.MaxConcurrentAgents)
	}
	if def.MaxAgentDepth != 3 {
		t.Fatalf("max_agent_depth default = %d", def.MaxAgentDepth)
	}
	if !def.InjectTodoInstructions {
		t.Fatal("expected inject_todo_instructions default true")
	}
}

func TestLoadAgentDefinitionMissingFile(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadAgentDefinition(dir, "ghost"); err == nil {
		t.Fatal("expected error for missing agent definition")
	}
}

func TestLoadAgentDefinitionOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	writeAgentConfig(t, dir, "planner", "model: o3\nmax_concurrent_agents: 8\nmax_agent_depth: 1\n")

	def, err := LoadAgentDefinition(dir, "planner")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if def.MaxConcurrentAgents != 8 || def.MaxAgentDepth != 1 {
		t.Fatalf("unexpected overrides: %+v", def)
	}
}
