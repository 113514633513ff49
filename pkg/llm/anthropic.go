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

// AnthropicProvider implements Provider for the Anthropic messages API.
type AnthropicProvider struct {
	config *config.LLMProviderConfig
	client *http.Client
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	Temperature float64            `json:"temperature,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewAnthropicProvider creates a provider from config.
func NewAnthropicProvider(cfg *config.LLMProviderConfig) (*AnthropicProvider, error) {
	cfg.SetDefaults()
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api_key is required for Anthropic")
	}
	return &AnthropicProvider{
		config: cfg,
		client: &http.Client{Timeout: time.Duration(cfg.Timeout) * time.Second},
	}, nil
}

// Kind returns the provider family.
func (p *AnthropicProvider) Kind() string { return "anthropic" }

// ModelName returns the configured model.
func (p *AnthropicProvider) ModelName() string { return p.config.Model }

// Close closes the provider.
func (p *AnthropicProvider) Close() error { return nil }

// Invoke performs a messages API call. System messages are lifted into the
// top-level system field; tool messages are folded into user turns.
func (p *AnthropicProvider) Invoke(ctx context.Context, messages []Message) (*Result, error) {
	return p.invoke(ctx, messages, p.config.Temperature)
}

// InvokeWithTemperature performs a messages API call at a per-call
// temperature.
func (p *AnthropicProvider) InvokeWithTemperature(ctx context.Context, messages []Message, temperature float64) (*Result, error) {
	return p.invoke(ctx, messages, temperature)
}

func (p *AnthropicProvider) invoke(ctx context.Context, messages []Message, temperature float64) (*Result, error) {
	request := anthropicRequest{
		Model:       p.config.Model,
		MaxTokens:   p.config.MaxTokens,
		Temperature: temperature,
	}

	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			if request.System != "" {
				request.System += "\n\n"
			}
			request.System += m.Content
		case RoleTool:
			request.Messages = append(request.Messages, anthropicMessage{
				Role:    "user",
				Content: fmt.Sprintf("[tool %s result]\n%s", m.Name, m.Content),
			})
		default:
			request.Messages = append(request.Messages, anthropicMessage{
				Role:    string(m.Role),
				Content: m.Content,
			})
		}
	}

	jsonData, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.config.Host+"/v1/messages", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.config.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var response anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if response.Error != nil {
		return nil, fmt.Errorf("Anthropic API error: %s", response.Error.Message)
	}

	var content string
	for _, part := range response.Content {
		if part.Type == "text" {
			content += part.Text
		}
	}

	return &Result{
		Content:    content,
		TokensUsed: response.Usage.InputTokens + response.Usage.OutputTokens,
	}, nil
}

var (
	_ Provider           = (*AnthropicProvider)(nil)
	_ TemperatureCapable = (*AnthropicProvider)(nil)
)
