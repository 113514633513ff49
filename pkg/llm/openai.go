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

// OpenAIProvider implements Provider for the OpenAI chat completions API
// and any OpenAI-compatible endpoint.
type OpenAIProvider struct {
	config *config.LLMProviderConfig
	client *http.Client
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature float64         `json:"temperature"`
	Tools       []openAITool    `json:"tools,omitempty"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Name    string `json:"name,omitempty"`
}

type openAITool struct {
	Type     string      `json:"type"`
	Function FunctionDef `json:"function"`
}

type openAIResponse struct {
	Choices []openAIChoice `json:"choices"`
	Usage   openAIUsage    `json:"usage"`
	Error   *openAIError   `json:"error,omitempty"`
}

type openAIChoice struct {
	Message struct {
		Content   string `json:"content"`
		ToolCalls []struct {
			Function struct {
				Name      string `json:"name"`
				Arguments string `json:"arguments"`
			} `json:"function"`
		} `json:"tool_calls"`
	} `json:"message"`
	FinishReason string `json:"finish_reason"`
}

type openAIUsage struct {
	TotalTokens int `json:"total_tokens"`
}

type openAIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// NewOpenAIProvider creates a provider from config.
func NewOpenAIProvider(cfg *config.LLMProviderConfig) (*OpenAIProvider, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &OpenAIProvider{
		config: cfg,
		client: &http.Client{Timeout: time.Duration(cfg.Timeout) * time.Second},
	}, nil
}

// Kind returns the provider family.
func (p *OpenAIProvider) Kind() string { return "openai" }

// ModelName returns the configured model.
func (p *OpenAIProvider) ModelName() string { return p.config.Model }

// Close closes the provider.
func (p *OpenAIProvider) Close() error { return nil }

// Invoke performs a chat completion.
func (p *OpenAIProvider) Invoke(ctx context.Context, messages []Message) (*Result, error) {
	return p.invoke(ctx, messages, nil, p.config.Temperature)
}

// InvokeWithTemperature performs a chat completion at a per-call temperature.
func (p *OpenAIProvider) InvokeWithTemperature(ctx context.Context, messages []Message, temperature float64) (*Result, error) {
	return p.invoke(ctx, messages, nil, temperature)
}

// InvokeWithFunctions performs a completion that may return a function call.
func (p *OpenAIProvider) InvokeWithFunctions(ctx context.Context, messages []Message, functions []FunctionDef) (*Result, error) {
	return p.invoke(ctx, messages, functions, p.config.Temperature)
}

func (p *OpenAIProvider) invoke(ctx context.Context, messages []Message, functions []FunctionDef, temperature float64) (*Result, error) {
	request := openAIRequest{
		Model:       p.config.Model,
		Messages:    toOpenAIMessages(messages),
		MaxTokens:   p.config.MaxTokens,
		Temperature: temperature,
	}
	for _, fn := range functions {
		request.Tools = append(request.Tools, openAITool{Type: "function", Function: fn})
	}

	jsonData, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.config.Host+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.config.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var response openAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if response.Error != nil {
		return nil, fmt.Errorf("OpenAI API error: %s", response.Error.Message)
	}
	if len(response.Choices) == 0 {
		return nil, fmt.Errorf("no response choices returned")
	}

	choice := response.Choices[0]
	result := &Result{
		Content:    choice.Message.Content,
		TokensUsed: response.Usage.TotalTokens,
	}
	if len(choice.Message.ToolCalls) > 0 {
		tc := choice.Message.ToolCalls[0]
		result.FunctionCall = &FunctionCall{
			Name:      tc.Function.Name,
			Arguments: json.RawMessage(tc.Function.Arguments),
		}
	}

	return result, nil
}

func toOpenAIMessages(messages []Message) []openAIMessage {
	out := make([]openAIMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, openAIMessage{
			Role:    string(m.Role),
			Content: m.Content,
			Name:    m.Name,
		})
	}
	return out
}

var (
	_ FunctionCallProvider = (*OpenAIProvider)(nil)
	_ TemperatureCapable   = (*OpenAIProvider)(nil)
)
