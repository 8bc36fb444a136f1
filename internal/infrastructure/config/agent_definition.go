package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// AgentDefinition is the per-agent YAML definition loaded from
// agents/<name>/config.yaml. Unlike the process-wide Config, each agent
// directory carries its own file and its own layered defaults.
type AgentDefinition struct {
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
	TopP        float64 `mapstructure:"top_p"`

	AgentSession  string `mapstructure:"agent_session"`
	AutoContinue  bool   `mapstructure:"auto_continue"`

	CanSpawnAgents      bool `mapstructure:"can_spawn_agents"`
	MaxConcurrentAgents int  `mapstructure:"max_concurrent_agents"`
	MaxAgentDepth       int  `mapstructure:"max_agent_depth"`
	MaxAutoContinues    int  `mapstructure:"max_auto_continues"`

	InjectTodoInstructions bool `mapstructure:"inject_todo_instructions"`
	CompressionThreshold   int  `mapstructure:"compression_threshold"`

	GlobalTools []string `mapstructure:"global_tools"`
	MCPServers  []string `mapstructure:"mcp_servers"`

	Instructions        string            `mapstructure:"instructions"`
	DynamicInstructions []string          `mapstructure:"dynamic_instructions"`
	Variables           map[string]string `mapstructure:"variables"`

	ConversationStarters []string `mapstructure:"conversation_starters"`
	Documents            []string `mapstructure:"documents"`
	ContinuationPrompt   string   `mapstructure:"continuation_prompt"`

	SummarizationModel     string `mapstructure:"summarization_model"`
	SummarizationThreshold int    `mapstructure:"summarization_threshold"`
}

// LoadAgentDefinition reads agents/<name>/config.yaml beneath baseDir,
// applying the same default-then-merge layering Load() uses for the
// process-wide config.
func LoadAgentDefinition(baseDir, name string) (*AgentDefinition, error) {
	v := viper.New()
	setAgentDefinitionDefaults(v)

	path := filepath.Join(baseDir, "agents", name, "config.yaml")
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("agent definition not found: %s", path)
		}
		return nil, err
	}

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read agent definition %s: %w", path, err)
	}

	var def AgentDefinition
	if err := v.Unmarshal(&def); err != nil {
		return nil, fmt.Errorf("failed to unmarshal agent definition %s: %w", path, err)
	}
	return &def, nil
}

func setAgentDefinitionDefaults(v *viper.Viper) {
	v.SetDefault("temperature", 0.7)
	v.SetDefault("top_p", 1.0)
	v.SetDefault("auto_continue", false)
	v.SetDefault("can_spawn_agents", false)
	v.SetDefault("max_concurrent_agents", 4)
	v.SetDefault("max_agent_depth", 3)
	v.SetDefault("max_auto_continues", 10)
	v.SetDefault("inject_todo_instructions", true)
	v.SetDefault("summarization_threshold", 4000)
}
