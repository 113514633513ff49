// Copyright 2025 CreatorCore Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/creatorcore/creatorcore/pkg/llm"
	"github.com/creatorcore/creatorcore/pkg/mcp"
	"github.com/creatorcore/creatorcore/pkg/retrieval"
)

// SearchAgent answers search-workflow requests from the internal corpus,
// annotated with any external snippets the enrichment pass produced.
type SearchAgent struct {
	searcher *retrieval.HybridSearcher
	topK     int
}

// NewSearchAgent creates the agent.
func NewSearchAgent(searcher *retrieval.HybridSearcher, topK int) *SearchAgent {
	if topK <= 0 {
		topK = 5
	}
	return &SearchAgent{searcher: searcher, topK: topK}
}

// Search returns ranked internal documents for the query.
func (a *SearchAgent) Search(ctx context.Context, query string) ([]retrieval.Document, error) {
	if a.searcher == nil {
		return nil, fmt.Errorf("search backend not configured")
	}
	return a.searcher.Search(ctx, query, a.topK)
}

// RecommendationAgent produces content-strategy recommendations with the
// model, falling back to a deterministic list.
type RecommendationAgent struct {
	engine *llm.Engine
}

// NewRecommendationAgent creates the agent.
func NewRecommendationAgent(engine *llm.Engine) *RecommendationAgent {
	return &RecommendationAgent{engine: engine}
}

// Recommend generates recommendations for the request in context.
func (a *RecommendationAgent) Recommend(ctx context.Context, message string, enrichment *mcp.Enrichment) (map[string]any, error) {
	var contextText string
	if enrichment != nil && len(enrichment.ExternalSnippets) > 0 {
		contextText = "\n\n참고 자료:\n" + strings.Join(enrichment.ExternalSnippets, "\n")
	}

	result, err := a.engine.Generate(ctx, llm.GenerateRequest{
		Prompt: fmt.Sprintf("다음 요청에 대한 콘텐츠 전략 추천을 3가지 작성해 주세요.\n\n요청: %s%s",
			message, contextText),
		Options: llm.Options{TaskType: "analysis"},
	})
	if err != nil || result.Degraded {
		return map[string]any{
			"recommendations": []string{
				"업로드 주기를 일정하게 유지하세요",
				"시청자 참여를 유도하는 질문형 콘텐츠를 시도하세요",
				"성과가 좋았던 콘텐츠 형식을 분석해 반복하세요",
			},
			"degraded": true,
		}, nil
	}

	return map[string]any{"recommendations": result.Content}, nil
}

// DataCollectionAgent gathers external data through the MCP layer and
// writes it back as one collected_data blob.
type DataCollectionAgent struct {
	tools *mcp.Service
}

// NewDataCollectionAgent creates the agent.
func NewDataCollectionAgent(tools *mcp.Service) *DataCollectionAgent {
	return &DataCollectionAgent{tools: tools}
}

// Collect runs the spec through the tool layer and returns the merged
// output with its per-tool records.
func (a *DataCollectionAgent) Collect(ctx context.Context, spec *mcp.Spec) (map[string]any, error) {
	if a.tools == nil {
		return nil, fmt.Errorf("tool layer not configured")
	}
	enrichment := a.tools.Enrich(ctx, spec)

	return map[string]any{
		"external_snippets": enrichment.ExternalSnippets,
		"youtube_insights":  enrichment.YouTubeInsights,
		"supadata":          enrichment.Supadata,
		"tool_policy":       enrichment.ToolPolicy,
	}, nil
}

// IntegrationAgent summarizes enrichment output into the
// external_api_results state field.
type IntegrationAgent struct{}

// NewIntegrationAgent creates the agent.
func NewIntegrationAgent() *IntegrationAgent { return &IntegrationAgent{} }

// Integrate folds the enrichment pass into one result map. A nil or empty
// enrichment yields the canonical empty map with ok=false.
func (a *IntegrationAgent) Integrate(enrichment *mcp.Enrichment) map[string]any {
	if enrichment == nil || !enrichment.Succeeded() {
		return map[string]any{"ok": false}
	}

	out := map[string]any{"ok": true}
	if len(enrichment.ExternalSnippets) > 0 {
		out["external_snippets"] = enrichment.ExternalSnippets
	}
	if enrichment.ExternalSources != nil {
		out["external_sources"] = enrichment.ExternalSources
	}
	if enrichment.YouTubeInsights != nil {
		out["youtube_insights"] = enrichment.YouTubeInsights
	}
	if enrichment.Supadata != nil {
		out["supadata"] = enrichment.Supadata
	}
	return out
}
