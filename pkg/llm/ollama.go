package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/creatorcore/creatorcore/pkg/config"
)

// OllamaProvider implements Provider for a local Ollama server.
type OllamaProvider struct {
	config *config.LLMProviderConfig
	client *http.Client
}

type ollamaRequest struct {
	Model    string          `json:"model"`
	Messages []openAIMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  ollamaOptions   `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	EvalCount       int    `json:"eval_count"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	Error           string `json:"error,omitempty"`
}

// NewOllamaProvider creates a provider from config.
func NewOllamaProvider(cfg *config.LLMProviderConfig) (*OllamaProvider, error) {
	cfg.SetDefaults()
	return &OllamaProvider{
		config: cfg,
		client: &http.Client{Timeout: time.Duration(cfg.Timeout) * time.Second},
	}, nil
}

// Kind returns the provider family.
func (p *OllamaProvider) Kind() string { return "ollama" }

// ModelName returns the configured model.
func (p *OllamaProvider) ModelName() string { return p.config.Model }

// Close closes the provider.
func (p *OllamaProvider) Close() error { return nil }

// Invoke performs a chat completion against /api/chat.
func (p *OllamaProvider) Invoke(ctx context.Context, messages []Message) (*Result, error) {
	return p.invoke(ctx, messages, p.config.Temperature)
}

// InvokeWithTemperature performs a chat completion at a per-call temperature.
func (p *OllamaProvider) InvokeWithTemperature(ctx context.Context, messages []Message, temperature float64) (*Result, error) {
	return p.invoke(ctx, messages, temperature)
}

func (p *OllamaProvider) invoke(ctx context.Context, messages []Message, temperature float64) (*Result, error) {
	request := ollamaRequest{
		Model:    p.config.Model,
		Messages: toOpenAIMessages(messages),
		Stream:   false,
		Options: ollamaOptions{
			Temperature: temperature,
			NumPredict:  p.config.MaxTokens,
		},
	}

	jsonData, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.config.Host+"/api/chat", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var response ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if response.Error != "" {
		return nil, fmt.Errorf("Ollama API error: %s", response.Error)
	}

	return &Result{
		Content:    response.Message.Content,
		TokensUsed: response.EvalCount + response.PromptEvalCount,
	}, nil
}

var (
	_ Provider           = (*OllamaProvider)(nil)
	_ TemperatureCapable = (*OllamaProvider)(nil)
)
