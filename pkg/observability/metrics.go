package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// MetricsConfig enables the metrics pipeline.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Metrics holds the instrument set used by the orchestrator core.
// A zero-value Metrics is a safe no-op.
type Metrics struct {
	nodeDuration   metric.Float64Histogram
	nodeErrors     metric.Int64Counter
	toolDuration   metric.Float64Histogram
	toolCalls      metric.Int64Counter
	toolErrors     metric.Int64Counter
	llmDuration    metric.Float64Histogram
	llmCalls       metric.Int64Counter
	llmErrors      metric.Int64Counter
	cacheHits      metric.Int64Counter
	cacheMisses    metric.Int64Counter
	breakerChanges metric.Int64Counter
	creatorScore   metric.Float64Histogram
	creatorAccepts metric.Int64Counter
	missionRecs    metric.Int64Counter
}

// InitMetrics builds the OTel meter backed by the Prometheus exporter.
func InitMetrics(ctx context.Context, cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		return &Metrics{}, nil
	}

	promExporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(promExporter),
	)

	meter := meterProvider.Meter("creatorcore")

	m := &Metrics{}

	if m.nodeDuration, err = meter.Float64Histogram(
		"creatorcore_node_duration_seconds",
		metric.WithDescription("Orchestrator node duration in seconds"),
	); err != nil {
		return nil, fmt.Errorf("failed to create node duration histogram: %w", err)
	}

	if m.nodeErrors, err = meter.Int64Counter(
		"creatorcore_node_errors_total",
		metric.WithDescription("Total orchestrator node errors"),
	); err != nil {
		return nil, fmt.Errorf("failed to create node errors counter: %w", err)
	}

	if m.toolDuration, err = meter.Float64Histogram(
		"creatorcore_tool_execution_duration_seconds",
		metric.WithDescription("MCP tool execution duration in seconds"),
	); err != nil {
		return nil, fmt.Errorf("failed to create tool duration histogram: %w", err)
	}

	if m.toolCalls, err = meter.Int64Counter(
		"creatorcore_tool_calls_total",
		metric.WithDescription("Total MCP tool calls"),
	); err != nil {
		return nil, fmt.Errorf("failed to create tool calls counter: %w", err)
	}

	if m.toolErrors, err = meter.Int64Counter(
		"creatorcore_tool_errors_total",
		metric.WithDescription("Total MCP tool errors"),
	); err != nil {
		return nil, fmt.Errorf("failed to create tool errors counter: %w", err)
	}

	if m.llmDuration, err = meter.Float64Histogram(
		"creatorcore_llm_request_duration_seconds",
		metric.WithDescription("LLM request duration in seconds"),
	); err != nil {
		return nil, fmt.Errorf("failed to create llm duration histogram: %w", err)
	}

	if m.llmCalls, err = meter.Int64Counter(
		"creatorcore_llm_calls_total",
		metric.WithDescription("Total LLM calls"),
	); err != nil {
		return nil, fmt.Errorf("failed to create llm calls counter: %w", err)
	}

	if m.llmErrors, err = meter.Int64Counter(
		"creatorcore_llm_errors_total",
		metric.WithDescription("Total LLM errors"),
	); err != nil {
		return nil, fmt.Errorf("failed to create llm errors counter: %w", err)
	}

	if m.cacheHits, err = meter.Int64Counter(
		"creatorcore_semantic_cache_hits_total",
		metric.WithDescription("Semantic cache hits"),
	); err != nil {
		return nil, fmt.Errorf("failed to create cache hits counter: %w", err)
	}

	if m.cacheMisses, err = meter.Int64Counter(
		"creatorcore_semantic_cache_misses_total",
		metric.WithDescription("Semantic cache misses"),
	); err != nil {
		return nil, fmt.Errorf("failed to create cache misses counter: %w", err)
	}

	if m.breakerChanges, err = meter.Int64Counter(
		"creatorcore_breaker_transitions_total",
		metric.WithDescription("Circuit breaker state transitions"),
	); err != nil {
		return nil, fmt.Errorf("failed to create breaker transitions counter: %w", err)
	}

	if m.creatorScore, err = meter.Float64Histogram(
		"creatorcore_creator_score",
		metric.WithDescription("Creator evaluation scores"),
	); err != nil {
		return nil, fmt.Errorf("failed to create creator score histogram: %w", err)
	}

	if m.creatorAccepts, err = meter.Int64Counter(
		"creatorcore_creator_decisions_total",
		metric.WithDescription("Creator evaluation decisions"),
	); err != nil {
		return nil, fmt.Errorf("failed to create creator decisions counter: %w", err)
	}

	if m.missionRecs, err = meter.Int64Counter(
		"creatorcore_mission_recommendations_total",
		metric.WithDescription("Mission recommendations returned"),
	); err != nil {
		return nil, fmt.Errorf("failed to create mission recommendations counter: %w", err)
	}

	return m, nil
}

// RecordNode records an orchestrator node execution.
func (m *Metrics) RecordNode(ctx context.Context, node string, seconds float64, err error) {
	if m == nil || m.nodeDuration == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("node", node))
	m.nodeDuration.Record(ctx, seconds, attrs)
	if err != nil {
		m.nodeErrors.Add(ctx, 1, attrs)
	}
}

// RecordTool records an MCP tool call outcome.
func (m *Metrics) RecordTool(ctx context.Context, tool string, seconds float64, ok bool) {
	if m == nil || m.toolDuration == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("tool", tool))
	m.toolDuration.Record(ctx, seconds, attrs)
	m.toolCalls.Add(ctx, 1, attrs)
	if !ok {
		m.toolErrors.Add(ctx, 1, attrs)
	}
}

// RecordLLM records an LLM call outcome.
func (m *Metrics) RecordLLM(ctx context.Context, model string, seconds float64, err error) {
	if m == nil || m.llmDuration == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("model", model))
	m.llmDuration.Record(ctx, seconds, attrs)
	m.llmCalls.Add(ctx, 1, attrs)
	if err != nil {
		m.llmErrors.Add(ctx, 1, attrs)
	}
}

// RecordCache records a semantic cache lookup.
func (m *Metrics) RecordCache(ctx context.Context, hit bool) {
	if m == nil || m.cacheHits == nil {
		return
	}
	if hit {
		m.cacheHits.Add(ctx, 1)
	} else {
		m.cacheMisses.Add(ctx, 1)
	}
}

// RecordBreakerTransition records a circuit breaker state change.
func (m *Metrics) RecordBreakerTransition(ctx context.Context, name, from, to string) {
	if m == nil || m.breakerChanges == nil {
		return
	}
	m.breakerChanges.Add(ctx, 1, metric.WithAttributes(
		attribute.String("breaker", name),
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

// RecordCreatorEvaluation records a creator scoring outcome.
func (m *Metrics) RecordCreatorEvaluation(ctx context.Context, score float64, decision string) {
	if m == nil || m.creatorScore == nil {
		return
	}
	m.creatorScore.Record(ctx, score)
	m.creatorAccepts.Add(ctx, 1, metric.WithAttributes(attribute.String("decision", decision)))
}

// RecordMissionRecommendations records the number of missions returned.
func (m *Metrics) RecordMissionRecommendations(ctx context.Context, count int) {
	if m == nil || m.missionRecs == nil {
		return
	}
	m.missionRecs.Add(ctx, int64(count))
}
