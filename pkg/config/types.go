// Package config provides configuration types and utilities for the
// orchestration core. All types follow the SetDefaults/Validate convention:
// zero values are filled in by SetDefaults and Validate rejects what cannot
// be defaulted.
package config

import (
	"fmt"
	"strings"
)

// LLMProviderConfig represents a single LLM provider entry.
type LLMProviderConfig struct {
	Type        string  `yaml:"type"`        // "openai", "anthropic", "ollama"
	Model       string  `yaml:"model"`       // Model name
	APIKey      string  `yaml:"api_key"`     // API key (for hosted providers)
	Host        string  `yaml:"host"`        // Host for ollama or custom endpoint
	Temperature float64 `yaml:"temperature"` // Temperature setting
	MaxTokens   int     `yaml:"max_tokens"`  // Max tokens
	Timeout     int     `yaml:"timeout"`     // Request timeout in seconds
}

// Validate implements Config.Validate for LLMProviderConfig.
func (c *LLMProviderConfig) Validate() error {
	if c.Type == "" {
		return fmt.Errorf("type is required")
	}
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.Host == "" {
		return fmt.Errorf("host is required")
	}
	if c.Type == "openai" && c.APIKey == "" {
		return fmt.Errorf("api_key is required for OpenAI")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2")
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must be non-negative")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative")
	}
	return nil
}

// SetDefaults implements Config.SetDefaults for LLMProviderConfig.
func (c *LLMProviderConfig) SetDefaults() {
	if c.Type == "" {
		c.Type = "ollama"
	}
	if c.Model == "" {
		c.Model = "llama3.2"
	}
	if c.Host == "" {
		switch c.Type {
		case "openai":
			c.Host = "https://api.openai.com/v1"
		case "anthropic":
			c.Host = "https://api.anthropic.com"
		default:
			c.Host = "http://localhost:11434"
		}
	}
	if c.Temperature == 0 {
		c.Temperature = 0.7
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 2000
	}
	if c.Timeout == 0 {
		c.Timeout = 60
	}
}

// SlotConfig maps logical model slots to registered LLM names.
// Unset slots fall back at selection time (default -> fast -> fallback).
type SlotConfig struct {
	Default  string `yaml:"default"`
	Fast     string `yaml:"fast"`
	Deep     string `yaml:"deep"`
	Fallback string `yaml:"fallback"`
}

// EmbedderProviderConfig represents an embedder provider entry.
type EmbedderProviderConfig struct {
	Type      string `yaml:"type"`      // "openai", "ollama"
	Model     string `yaml:"model"`     // Embedding model name
	APIKey    string `yaml:"api_key"`   // API key (for OpenAI)
	Host      string `yaml:"host"`      // Host for ollama or custom endpoint
	Dimension int    `yaml:"dimension"` // Embedding vector dimension
	Timeout   int    `yaml:"timeout"`   // Request timeout in seconds
}

// SetDefaults implements Config.SetDefaults for EmbedderProviderConfig.
func (c *EmbedderProviderConfig) SetDefaults() {
	if c.Type == "" {
		c.Type = "ollama"
	}
	if c.Model == "" {
		switch c.Type {
		case "openai":
			c.Model = "text-embedding-3-small"
		default:
			c.Model = "nomic-embed-text"
		}
	}
	if c.Host == "" {
		switch c.Type {
		case "openai":
			c.Host = "https://api.openai.com/v1"
		default:
			c.Host = "http://localhost:11434"
		}
	}
	if c.Dimension == 0 {
		c.Dimension = 1536
	}
	if c.Timeout == 0 {
		c.Timeout = 30
	}
}

// Validate implements Config.Validate for EmbedderProviderConfig.
func (c *EmbedderProviderConfig) Validate() error {
	if c.Type == "openai" && c.APIKey == "" {
		return fmt.Errorf("api_key is required for OpenAI embedder")
	}
	if c.Dimension <= 0 {
		return fmt.Errorf("dimension must be positive")
	}
	return nil
}

// VectorConfig selects and configures the vector store backend.
type VectorConfig struct {
	Backend   string `yaml:"backend"`    // "pinecone", "qdrant", "chromem", "memory"
	IndexName string `yaml:"index_name"` // Pinecone index / qdrant collection
	APIKey    string `yaml:"api_key"`    // Pinecone API key
	Host      string `yaml:"host"`       // Qdrant host
	Port      int    `yaml:"port"`       // Qdrant port
	Namespace string `yaml:"namespace"`  // Pinecone namespace
}

// SetDefaults implements Config.SetDefaults for VectorConfig.
func (c *VectorConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "pinecone"
	}
	if c.IndexName == "" {
		c.IndexName = "creatorcore"
	}
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 6334
	}
}

// Validate implements Config.Validate for VectorConfig.
func (c *VectorConfig) Validate() error {
	switch c.Backend {
	case "pinecone":
		if c.APIKey == "" {
			return fmt.Errorf("api_key is required for pinecone backend")
		}
	case "qdrant", "chromem", "memory":
	default:
		return fmt.Errorf("unsupported vector backend: %s", c.Backend)
	}
	return nil
}

// RAGConfig holds the retrieval and generation pipeline knobs.
type RAGConfig struct {
	VectorWeight       float64 `yaml:"vector_weight"`      // Hybrid merge weight for vector scores
	KeywordWeight      float64 `yaml:"keyword_weight"`     // Hybrid merge weight for keyword scores
	MaxResults         int     `yaml:"max_results"`        // top_k after rerank
	NumExpansions      int     `yaml:"num_expansions"`     // Query paraphrase count
	RerankEnabled      bool    `yaml:"rerank_enabled"`     // Cross-encoder rerank stage
	ScoreThreshold     float64 `yaml:"score_threshold"`    // Post-rerank filter
	MaxContextTokens   int     `yaml:"max_context_tokens"` // Context budget for prompt building
	HistoryLimit       int     `yaml:"history_limit"`      // Conversation messages included
	CacheTTLSecs       int     `yaml:"semantic_cache_ttl_secs"`
	HallucinationCheck bool    `yaml:"hallucination_check"`

	// UncertaintyMarkers are literal substrings (Korean and English) that make
	// the quality gate treat an answer as weak. Kept as configurable string
	// lists, not heuristics, so tests can add or remove markers.
	UncertaintyMarkers []string `yaml:"uncertainty_markers"`
}

// SetDefaults implements Config.SetDefaults for RAGConfig.
func (c *RAGConfig) SetDefaults() {
	if c.VectorWeight == 0 {
		c.VectorWeight = 0.7
	}
	if c.KeywordWeight == 0 {
		c.KeywordWeight = 0.3
	}
	if c.MaxResults == 0 {
		c.MaxResults = 3
	}
	if c.NumExpansions == 0 {
		c.NumExpansions = 3
	}
	if c.MaxContextTokens == 0 {
		c.MaxContextTokens = 4000
	}
	if c.HistoryLimit == 0 {
		c.HistoryLimit = 20
	}
	if c.CacheTTLSecs == 0 {
		c.CacheTTLSecs = 3600
	}
	if len(c.UncertaintyMarkers) == 0 {
		c.UncertaintyMarkers = DefaultUncertaintyMarkers()
	}
}

// Validate implements Config.Validate for RAGConfig.
func (c *RAGConfig) Validate() error {
	if c.VectorWeight < 0 || c.KeywordWeight < 0 {
		return fmt.Errorf("hybrid weights must be non-negative")
	}
	if c.MaxResults < 1 {
		return fmt.Errorf("max_results must be at least 1")
	}
	return nil
}

// DefaultUncertaintyMarkers returns the curated Korean and English markers
// that flag an answer as unsupported.
func DefaultUncertaintyMarkers() []string {
	return []string{
		"알 수 없습니다",
		"잘 모르겠",
		"정보가 없습니다",
		"확인할 수 없습니다",
		"찾을 수 없습니다",
		"제공된 정보에는",
		"i don't know",
		"i do not know",
		"cannot find",
		"no information",
		"not sure",
		"unable to determine",
	}
}

// ToolPolicyConfig holds the breaker, retry, and timeout policy for one MCP
// tool family (web, youtube, supadata).
type ToolPolicyConfig struct {
	FailMax          int     `yaml:"fail_max"`
	ResetTimeoutSecs int     `yaml:"reset_timeout_secs"`
	TimeoutSecs      float64 `yaml:"timeout_secs"`
	MaxRetries       int     `yaml:"max_retries"`
	BackoffBaseSecs  float64 `yaml:"backoff_base_secs"`
	BackoffMaxSecs   float64 `yaml:"backoff_max_secs"`
	JitterSecs       float64 `yaml:"jitter_secs"`
}

// SetDefaults implements Config.SetDefaults for ToolPolicyConfig.
func (c *ToolPolicyConfig) SetDefaults() {
	if c.FailMax == 0 {
		c.FailMax = 3
	}
	if c.ResetTimeoutSecs == 0 {
		c.ResetTimeoutSecs = 30
	}
	if c.TimeoutSecs == 0 {
		c.TimeoutSecs = 8
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 1
	}
	if c.BackoffBaseSecs == 0 {
		c.BackoffBaseSecs = 0.4
	}
	if c.BackoffMaxSecs == 0 {
		c.BackoffMaxSecs = 3
	}
	if c.JitterSecs == 0 {
		c.JitterSecs = 0.2
	}
}

// MCPServerConfig describes how to reach one MCP tool server.
type MCPServerConfig struct {
	Transport string            `yaml:"transport"` // "stdio" or "http"
	Command   string            `yaml:"command"`   // stdio subprocess
	Args      []string          `yaml:"args"`
	Env       map[string]string `yaml:"env"`
	URL       string            `yaml:"url"` // http transport
}

// Validate implements Config.Validate for MCPServerConfig.
func (c *MCPServerConfig) Validate() error {
	if c.Command == "" && c.URL == "" {
		return fmt.Errorf("either command or url is required")
	}
	return nil
}

// MCPConfig wires the three tool families to their servers and policies.
type MCPConfig struct {
	Web      MCPServerConfig `yaml:"web"`
	YouTube  MCPServerConfig `yaml:"youtube"`
	Supadata MCPServerConfig `yaml:"supadata"`

	Policies map[string]ToolPolicyConfig `yaml:"policies"` // keyed by tool family
}

// SetDefaults implements Config.SetDefaults for MCPConfig.
func (c *MCPConfig) SetDefaults() {
	if c.Policies == nil {
		c.Policies = make(map[string]ToolPolicyConfig)
	}
	for _, name := range []string{"web", "youtube", "supadata"} {
		p := c.Policies[name]
		p.SetDefaults()
		c.Policies[name] = p
	}
}

// Policy returns the policy for a tool family, defaulted if absent.
func (c *MCPConfig) Policy(name string) ToolPolicyConfig {
	p, ok := c.Policies[strings.ToLower(name)]
	if !ok {
		p.SetDefaults()
	}
	return p
}

// DeepAgentsConfig holds the iterative self-critique loop toggles.
type DeepAgentsConfig struct {
	MaxSteps         int     `yaml:"max_steps"`
	CriticRounds     int     `yaml:"critic_rounds"`
	QualityThreshold float64 `yaml:"quality_threshold"`
}

// SetDefaults implements Config.SetDefaults for DeepAgentsConfig.
func (c *DeepAgentsConfig) SetDefaults() {
	if c.MaxSteps == 0 {
		c.MaxSteps = 4
	}
	if c.CriticRounds == 0 {
		c.CriticRounds = 2
	}
	if c.QualityThreshold == 0 {
		c.QualityThreshold = 0.7
	}
}

// OrchestratorConfig bounds the graph loops and routing thresholds.
type OrchestratorConfig struct {
	MaxLoops           int              `yaml:"max_loops"`
	PlannerConfidence  float64          `yaml:"planner_confidence"`  // Planner runs below this routing confidence
	PlannerLengthGate  int              `yaml:"planner_length_gate"` // ... or above this message length
	ComplexityKeywords []string         `yaml:"complexity_keywords"` // ... or when any keyword is present
	DeepAgents         DeepAgentsConfig `yaml:"deep_agents"`
}

// SetDefaults implements Config.SetDefaults for OrchestratorConfig.
func (c *OrchestratorConfig) SetDefaults() {
	if c.MaxLoops == 0 {
		c.MaxLoops = 2
	}
	if c.PlannerConfidence == 0 {
		c.PlannerConfidence = 0.65
	}
	if c.PlannerLengthGate == 0 {
		c.PlannerLengthGate = 200
	}
	if len(c.ComplexityKeywords) == 0 {
		c.ComplexityKeywords = []string{
			"분석", "비교", "전략", "단계별", "계획",
			"analyze", "compare", "strategy", "step by step", "plan",
		}
	}
	c.DeepAgents.SetDefaults()
}

// CheckpointConfig selects the checkpoint store backend.
type CheckpointConfig struct {
	Backend string `yaml:"backend"` // "memory", "sqlite", "postgres"
	Path    string `yaml:"path"`    // sqlite file path
	DSN     string `yaml:"dsn"`     // postgres connection string
}

// SetDefaults implements Config.SetDefaults for CheckpointConfig.
func (c *CheckpointConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "memory"
	}
	if c.Backend == "sqlite" && c.Path == "" {
		c.Path = "creatorcore.db"
	}
}

// Validate implements Config.Validate for CheckpointConfig.
func (c *CheckpointConfig) Validate() error {
	switch c.Backend {
	case "memory", "sqlite":
	case "postgres":
		if c.DSN == "" {
			return fmt.Errorf("dsn is required for postgres checkpoint backend")
		}
	default:
		return fmt.Errorf("unsupported checkpoint backend: %s", c.Backend)
	}
	return nil
}

// MetricsConfig enables the Prometheus metrics endpoint.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// SetDefaults implements Config.SetDefaults for MetricsConfig.
func (c *MetricsConfig) SetDefaults() {
	if c.Port == 0 {
		c.Port = 9090
	}
}

// ServerConfig holds the HTTP surface configuration.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// SetDefaults implements Config.SetDefaults for ServerConfig.
func (c *ServerConfig) SetDefaults() {
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 8080
	}
}

// AgentConfig is the per-agent configuration resolved at startup.
//
// LLMModels is an ordered list: the first entry becomes the agent's default
// model, the second (when present) its fast model.
type AgentConfig struct {
	LLMModels      []string `yaml:"llm_models"`
	EmbeddingModel string   `yaml:"embedding_model"`
	VectorDB       string   `yaml:"vector_db"`
	VectorWeight   float64  `yaml:"vector_weight"`
	KeywordWeight  float64  `yaml:"keyword_weight"`
	MaxResults     int      `yaml:"max_results"`
	GraphEnabled   bool     `yaml:"graph_enabled"`
	GraphWeight    float64  `yaml:"graph_weight"`
}

// SetDefaults implements Config.SetDefaults for AgentConfig.
func (c *AgentConfig) SetDefaults() {
	if c.VectorDB == "" {
		c.VectorDB = "pinecone"
	}
	if c.VectorWeight == 0 {
		c.VectorWeight = 0.7
	}
	if c.KeywordWeight == 0 {
		c.KeywordWeight = 0.3
	}
	if c.MaxResults == 0 {
		c.MaxResults = 3
	}
}

// DefaultModel returns the first configured model, or empty.
func (c *AgentConfig) DefaultModel() string {
	if len(c.LLMModels) > 0 {
		return c.LLMModels[0]
	}
	return ""
}

// FastModel returns the second configured model, or the default.
func (c *AgentConfig) FastModel() string {
	if len(c.LLMModels) > 1 {
		return c.LLMModels[1]
	}
	return c.DefaultModel()
}
