// Package llm implements the generation engine: a multi-provider model
// registry with slot-based selection, retry, sanitization, a fallback
// cascade, and an optional one-shot function-call round.
package llm

import (
	"context"
	"encoding/json"
)

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is a single chat message.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`

	// Name carries the function name for tool messages.
	Name string `json:"name,omitempty"`
}

// FunctionDef describes a callable function exposed to the model.
type FunctionDef struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// FunctionCall is the model's request to invoke a function.
type FunctionCall struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// Result is the outcome of one model invocation.
type Result struct {
	Content      string        `json:"content"`
	TokensUsed   int           `json:"tokens_used"`
	FunctionCall *FunctionCall `json:"function_call,omitempty"`
}

// Provider is the capability set every model adapter implements.
type Provider interface {
	// Invoke performs a chat completion. Implementations may raise any
	// error; the engine's cascade handles failures.
	Invoke(ctx context.Context, messages []Message) (*Result, error)

	// Kind returns the provider family ("openai", "anthropic", "ollama").
	Kind() string

	// ModelName returns the concrete model identifier.
	ModelName() string

	Close() error
}

// FunctionCallProvider is the optional tool-calling capability.
type FunctionCallProvider interface {
	Provider

	// InvokeWithFunctions performs a completion that may return a
	// FunctionCall instead of (or before) content.
	InvokeWithFunctions(ctx context.Context, messages []Message, functions []FunctionDef) (*Result, error)
}

// TemperatureCapable is the optional per-call temperature override
// capability.
type TemperatureCapable interface {
	InvokeWithTemperature(ctx context.Context, messages []Message, temperature float64) (*Result, error)
}

// Temp returns a per-call temperature override for Options.
func Temp(v float64) *float64 { return &v }

// Options bias model selection for one call.
type Options struct {
	// ModelName selects a concrete registered model and wins when present.
	ModelName string

	// Latency hint: "fast" prefers the fast slot.
	Latency string

	// Complexity hint: "deep" prefers the deep slot.
	Complexity string

	// TaskType: "analysis", "code" and "reasoning" prefer the deep slot.
	TaskType string

	// CostPreference is the planner's hint: "speed" prefers the fast slot,
	// "budget" the fallback slot, "performance" the deep slot. "balanced"
	// and empty leave selection unbiased.
	CostPreference string

	// Temperature overrides the provider's configured temperature for one
	// call; deterministic stages pass Temp(0). Nil keeps the provider
	// default.
	Temperature *float64

	// Functions and Handlers enable the one-shot function-call round for
	// OpenAI-family providers.
	Functions []FunctionDef
	Handlers  map[string]func(ctx context.Context, args json.RawMessage) (any, error)
}
