package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadExpandsEnvAndDefaults(t *testing.T) {
	t.Setenv("TEST_OPENAI_KEY", "sk-test-123")

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
log_level: debug
llms:
  gpt-main:
    type: openai
    model: gpt-4o
    api_key: ${TEST_OPENAI_KEY}
slots:
  default: gpt-main
vector:
  backend: memory
checkpoint:
  backend: memory
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "sk-test-123", cfg.LLMs["gpt-main"].APIKey)
	assert.Equal(t, "https://api.openai.com/v1", cfg.LLMs["gpt-main"].Host, "host defaulted by type")
	assert.Equal(t, 2000, cfg.LLMs["gpt-main"].MaxTokens)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 2, cfg.Orchestrator.MaxLoops)
	assert.Equal(t, 3, cfg.MCP.Policies["web"].FailMax)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config")
}

func TestValidateRejectsUnknownSlotReference(t *testing.T) {
	cfg := Default()
	cfg.Slots.Default = "ghost-model"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost-model")
}

func TestVectorConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     VectorConfig
		wantErr bool
	}{
		{"pinecone without key", VectorConfig{Backend: "pinecone"}, true},
		{"pinecone with key", VectorConfig{Backend: "pinecone", APIKey: "k"}, false},
		{"memory", VectorConfig{Backend: "memory"}, false},
		{"qdrant", VectorConfig{Backend: "qdrant"}, false},
		{"unknown", VectorConfig{Backend: "faiss"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCheckpointConfigValidate(t *testing.T) {
	pg := CheckpointConfig{Backend: "postgres"}
	require.Error(t, pg.Validate())
	pg.DSN = "postgres://localhost/creatorcore"
	assert.NoError(t, pg.Validate())

	sq := CheckpointConfig{Backend: "sqlite"}
	sq.SetDefaults()
	assert.Equal(t, "creatorcore.db", sq.Path)
	assert.NoError(t, sq.Validate())
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, "memory", cfg.Vector.Backend)
	assert.Equal(t, "memory", cfg.Checkpoint.Backend)
}

func TestMCPPolicyFallback(t *testing.T) {
	var mcp MCPConfig
	mcp.SetDefaults()

	p := mcp.Policy("web")
	assert.Equal(t, 3, p.FailMax)

	// Unknown families still get a fully defaulted policy.
	p = mcp.Policy("unknown-family")
	assert.Equal(t, 3, p.FailMax)
	assert.Equal(t, 8.0, p.TimeoutSecs)
}

func TestAgentConfigModels(t *testing.T) {
	a := AgentConfig{LLMModels: []string{"gpt-main", "gpt-mini"}}
	assert.Equal(t, "gpt-main", a.DefaultModel())
	assert.Equal(t, "gpt-mini", a.FastModel())

	single := AgentConfig{LLMModels: []string{"gpt-main"}}
	assert.Equal(t, "gpt-main", single.FastModel(), "fast falls back to default")

	var empty AgentConfig
	assert.Equal(t, "", empty.DefaultModel())
}
