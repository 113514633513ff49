package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/creatorcore/creatorcore/pkg/observability"
	"github.com/creatorcore/creatorcore/pkg/retry"
)

// Engine is the generation engine: selection, sanitization, retries, the
// fallback cascade, and the optional one-shot function-call round.
type Engine struct {
	registry *Registry
	retryer  *retry.Retryer
	metrics  *observability.Metrics
	stats    *observability.StatsRecorder
}

// NewEngine creates an engine over a registry.
func NewEngine(registry *Registry, metrics *observability.Metrics, stats *observability.StatsRecorder) *Engine {
	return &Engine{
		registry: registry,
		retryer:  retry.New(retry.DefaultConfig()),
		metrics:  metrics,
		stats:    stats,
	}
}

// Registry exposes the underlying registry.
func (e *Engine) Registry() *Registry { return e.registry }

// GenerateRequest describes one generation call.
type GenerateRequest struct {
	SystemPrompt   string
	ContextSummary string
	Prompt         string
	Options        Options
}

// GenerateResult is the engine's outcome.
type GenerateResult struct {
	Content    string
	Model      string
	Slot       Slot
	TokensUsed int

	// Degraded is true when the canned fallback text was used because no
	// provider produced output.
	Degraded bool
}

// Generate sanitizes the prompt, assembles messages, and calls the selected
// model. On empty or failed output it walks the fallback cascade in order
// [selected, default, fast, fallback, deep].
func (e *Engine) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	messages := e.assembleMessages(req)

	selected, slot := e.registry.Select(req.Options)
	if selected == nil {
		slog.Warn("No LLM providers registered, returning canned response")
		return &GenerateResult{
			Content:  FallbackResponse(req.Prompt),
			Degraded: true,
		}, nil
	}

	chain := e.registry.CascadeFor(selected)

	var lastErr error
	for i, provider := range chain {
		result, err := e.invokeWithRetry(ctx, provider, messages, req.Options)
		if err == nil && result != nil && strings.TrimSpace(result.Content) != "" {
			usedSlot := slot
			if i > 0 {
				usedSlot = e.registry.slotOf(provider.ModelName())
				slog.Info("Fallback model produced the response",
					"model", provider.ModelName(),
					"position", i)
			}
			return &GenerateResult{
				Content:    result.Content,
				Model:      provider.ModelName(),
				Slot:       usedSlot,
				TokensUsed: result.TokensUsed,
			}, nil
		}
		if err != nil {
			lastErr = err
		} else {
			lastErr = fmt.Errorf("model %s returned empty output", provider.ModelName())
		}
		slog.Warn("Model call failed, trying next in cascade",
			"model", provider.ModelName(),
			"error", lastErr)
	}

	// Last resort: canned structured response.
	return &GenerateResult{
		Content:  FallbackResponse(req.Prompt),
		Degraded: true,
	}, fmt.Errorf("all models in cascade failed: %w", lastErr)
}

// invokeWithRetry runs one provider under the engine retry policy and the
// optional function-call round.
func (e *Engine) invokeWithRetry(ctx context.Context, provider Provider, messages []Message, opts Options) (*Result, error) {
	operation := "llm:" + provider.ModelName()
	start := time.Now()

	result, err := retry.DoWithResult(ctx, e.retryer, operation, func() (*Result, error) {
		if len(opts.Functions) > 0 && len(opts.Handlers) > 0 {
			if fc, ok := provider.(FunctionCallProvider); ok && provider.Kind() == "openai" {
				return e.functionCallRound(ctx, fc, messages, opts)
			}
		}
		if opts.Temperature != nil {
			if tp, ok := provider.(TemperatureCapable); ok {
				return tp.InvokeWithTemperature(ctx, messages, *opts.Temperature)
			}
		}
		return provider.Invoke(ctx, messages)
	})

	elapsed := time.Since(start)
	e.metrics.RecordLLM(ctx, provider.ModelName(), elapsed.Seconds(), err)
	if e.stats != nil {
		e.stats.Record(operation, elapsed, err)
	}
	return result, err
}

// functionCallRound performs at most one tool round: dispatch the model's
// chosen function to the registered handler, serialize the result, include
// it as a tool message, and complete once more.
func (e *Engine) functionCallRound(ctx context.Context, provider FunctionCallProvider, messages []Message, opts Options) (*Result, error) {
	first, err := provider.InvokeWithFunctions(ctx, messages, opts.Functions)
	if err != nil {
		return nil, err
	}
	if first.FunctionCall == nil {
		return first, nil
	}

	call := first.FunctionCall
	handler, ok := opts.Handlers[call.Name]
	if !ok {
		return nil, fmt.Errorf("model requested unknown function %q", call.Name)
	}

	value, err := handler(ctx, call.Arguments)
	if err != nil {
		return nil, fmt.Errorf("function %s failed: %w", call.Name, err)
	}

	serialized, err := json.Marshal(value)
	if err != nil {
		serialized = []byte(fmt.Sprintf("%v", value))
	}

	followUp := append(append([]Message{}, messages...),
		Message{Role: RoleAssistant, Content: fmt.Sprintf("Calling function %s", call.Name)},
		Message{Role: RoleTool, Name: call.Name, Content: string(serialized)},
	)

	return provider.Invoke(ctx, followUp)
}

// assembleMessages builds {system?, context-summary?, user} with the prompt
// sanitized against injection markers.
func (e *Engine) assembleMessages(req GenerateRequest) []Message {
	var messages []Message
	if req.SystemPrompt != "" {
		messages = append(messages, Message{Role: RoleSystem, Content: req.SystemPrompt})
	}
	if req.ContextSummary != "" {
		messages = append(messages, Message{Role: RoleSystem, Content: "참고 컨텍스트:\n" + req.ContextSummary})
	}
	messages = append(messages, Message{Role: RoleUser, Content: sanitizeInput(req.Prompt)})
	return messages
}

// FallbackResponse returns a canned, structured Korean response for common
// intents when no model is usable. Last resort only.
func FallbackResponse(prompt string) string {
	lower := strings.ToLower(prompt)

	switch {
	case strings.Contains(lower, "미션") || strings.Contains(lower, "mission"):
		return "현재 AI 응답 생성에 일시적인 문제가 있습니다.\n\n" +
			"## 미션 추천 안내\n" +
			"- 프로필의 카테고리와 활동 지표를 기준으로 미션이 매칭됩니다.\n" +
			"- 잠시 후 다시 시도해 주세요."
	case strings.Contains(lower, "크리에이터") || strings.Contains(lower, "creator"):
		return "현재 AI 응답 생성에 일시적인 문제가 있습니다.\n\n" +
			"## 크리에이터 평가 안내\n" +
			"- 팔로워, 참여율, 활동 빈도, 브랜드 적합도를 기준으로 평가합니다.\n" +
			"- 잠시 후 다시 시도해 주세요."
	default:
		return "죄송합니다. 현재 AI 응답을 생성할 수 없습니다.\n" +
			"잠시 후 다시 시도해 주시거나, 질문을 조금 더 구체적으로 작성해 주세요."
	}
}
