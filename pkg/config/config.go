package config

import (
	"fmt"
	"os"
	"regexp"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the root process configuration.
type Config struct {
	Server       ServerConfig                      `yaml:"server"`
	LogLevel     string                            `yaml:"log_level"`
	LLMs         map[string]LLMProviderConfig      `yaml:"llms"`
	Slots        SlotConfig                        `yaml:"slots"`
	Embedders    map[string]EmbedderProviderConfig `yaml:"embedders"`
	Vector       VectorConfig                      `yaml:"vector"`
	RAG          RAGConfig                         `yaml:"rag"`
	MCP          MCPConfig                         `yaml:"mcp"`
	Orchestrator OrchestratorConfig                `yaml:"orchestrator"`
	Checkpoint   CheckpointConfig                  `yaml:"checkpoint"`
	Metrics      MetricsConfig                     `yaml:"metrics"`
	Agents       map[string]AgentConfig            `yaml:"agents"`
}

// SetDefaults fills every nested section.
func (c *Config) SetDefaults() {
	c.Server.SetDefaults()
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	for name := range c.LLMs {
		llm := c.LLMs[name]
		llm.SetDefaults()
		c.LLMs[name] = llm
	}
	for name := range c.Embedders {
		e := c.Embedders[name]
		e.SetDefaults()
		c.Embedders[name] = e
	}
	c.Vector.SetDefaults()
	c.RAG.SetDefaults()
	c.MCP.SetDefaults()
	c.Orchestrator.SetDefaults()
	c.Checkpoint.SetDefaults()
	c.Metrics.SetDefaults()
	for name := range c.Agents {
		a := c.Agents[name]
		a.SetDefaults()
		c.Agents[name] = a
	}
}

// Validate checks every nested section.
func (c *Config) Validate() error {
	for name, llm := range c.LLMs {
		if err := llm.Validate(); err != nil {
			return fmt.Errorf("llm %q: %w", name, err)
		}
	}
	for name, e := range c.Embedders {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("embedder %q: %w", name, err)
		}
	}
	if err := c.Vector.Validate(); err != nil {
		return fmt.Errorf("vector: %w", err)
	}
	if err := c.RAG.Validate(); err != nil {
		return fmt.Errorf("rag: %w", err)
	}
	if err := c.Checkpoint.Validate(); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	if c.Slots.Default != "" {
		if _, ok := c.LLMs[c.Slots.Default]; !ok {
			return fmt.Errorf("slots.default references unknown llm %q", c.Slots.Default)
		}
	}
	return nil
}

// Agent returns the named agent config, defaulted if absent.
func (c *Config) Agent(name string) AgentConfig {
	a, ok := c.Agents[name]
	if !ok {
		a = AgentConfig{}
	}
	a.SetDefaults()
	return a
}

var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnv substitutes ${VAR} references with environment values.
func expandEnv(data []byte) []byte {
	return envPattern.ReplaceAllFunc(data, func(m []byte) []byte {
		name := envPattern.FindSubmatch(m)[1]
		return []byte(os.Getenv(string(name)))
	})
}

// Load reads, expands, defaults, and validates a YAML config file.
// A .env file in the working directory is loaded first when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(expandEnv(data), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Default returns a usable zero-configuration setup backed by the in-memory
// checkpoint store and the local vector backend.
func Default() *Config {
	cfg := &Config{
		Vector:     VectorConfig{Backend: "memory"},
		Checkpoint: CheckpointConfig{Backend: "memory"},
	}
	cfg.SetDefaults()
	return cfg
}
