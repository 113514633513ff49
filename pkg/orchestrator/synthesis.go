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

package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/creatorcore/creatorcore/pkg/llm"
)

// insufficientInfoResponse is returned when the loop budget is exhausted
// and no component produced a usable answer.
const insufficientInfoResponse = "죄송합니다. 요청하신 내용에 대해 충분한 정보를 찾지 못했습니다.\n" +
	"질문을 조금 더 구체적으로 작성해 주시거나, 다른 방식으로 다시 문의해 주세요."

// Synthesizer produces the final user-visible response from whatever the
// run accumulated. It always returns a string.
type Synthesizer struct {
	engine *llm.Engine
}

// NewSynthesizer creates a synthesizer.
func NewSynthesizer(engine *llm.Engine) *Synthesizer {
	return &Synthesizer{engine: engine}
}

// Synthesize picks the response strategy:
//
//   - only a usable RAG answer: return it verbatim;
//   - any domain outputs: Korean LLM synthesis over a JSON payload, with a
//     deterministic concatenation fallback;
//   - nothing usable: the insufficient-information message.
func (s *Synthesizer) Synthesize(ctx context.Context, state *State) string {
	outputs := collectOutputs(state)

	ragUsable := state.RAGResult != nil && !state.RAGResult.Weak && strings.TrimSpace(state.RAGResult.Answer) != ""
	if ragUsable && len(outputs) == 0 {
		return state.RAGResult.Answer
	}

	if !ragUsable && len(outputs) == 0 {
		return insufficientInfoResponse
	}

	if ragUsable {
		outputs["rag_answer"] = state.RAGResult.Answer
	}

	payload := map[string]any{
		"routing": state.Routing,
		"plan":    state.Plan,
		"outputs": outputs,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return concatenateOutputs(state, outputs)
	}

	result, err := s.engine.Generate(ctx, llm.GenerateRequest{
		SystemPrompt: "당신은 크리에이터 플랫폼 어시스턴트입니다. 아래 JSON에 담긴 각 구성 요소의 결과를 " +
			"한국어로 자연스럽고 구조적으로 종합해 사용자에게 전달하세요. 수치는 그대로 인용하세요.",
		Prompt: string(raw),
		Options: llm.Options{
			TaskType: "analysis",
		},
	})
	if err != nil || result.Degraded {
		return concatenateOutputs(state, outputs)
	}
	return result.Content
}

// collectOutputs gathers the non-empty domain output fields.
func collectOutputs(state *State) map[string]any {
	outputs := make(map[string]any)
	if state.CompetencyData != nil {
		outputs["competency_data"] = state.CompetencyData
	}
	if state.RecommendationData != nil {
		outputs["recommendation_data"] = state.RecommendationData
	}
	if len(state.MissionRecommendations) > 0 {
		outputs["mission_recommendations"] = state.MissionRecommendations
	}
	if len(state.SearchResults) > 0 {
		outputs["search_results"] = state.SearchResults
	}
	if state.AnalyticsResults != nil {
		outputs["analytics_results"] = state.AnalyticsResults
	}
	if state.ExternalAPIResults != nil {
		outputs["external_api_results"] = state.ExternalAPIResults
	}
	if state.CollectedData != nil {
		outputs["collected_data"] = state.CollectedData
	}
	if state.DeepResult != nil {
		outputs["deep_result"] = state.DeepResult
	}
	return outputs
}

// concatenateOutputs is the deterministic degraded-mode rendering.
func concatenateOutputs(state *State, outputs map[string]any) string {
	var parts []string

	if state.RAGResult != nil && strings.TrimSpace(state.RAGResult.Answer) != "" {
		parts = append(parts, state.RAGResult.Answer)
	}
	if state.DeepResult != nil && state.DeepResult.Answer != "" {
		parts = append(parts, state.DeepResult.Answer)
	}
	if state.AnalyticsResults != nil && state.AnalyticsResults.Summary != "" {
		parts = append(parts, state.AnalyticsResults.Summary)
	}
	if len(state.MissionRecommendations) > 0 {
		var sb strings.Builder
		sb.WriteString("추천 미션:\n")
		for _, m := range state.MissionRecommendations {
			sb.WriteString(fmt.Sprintf("- %s (점수 %.1f)\n", m.MissionID, m.Score))
		}
		parts = append(parts, strings.TrimRight(sb.String(), "\n"))
	}
	if state.CompetencyData != nil {
		parts = append(parts, fmt.Sprintf("역량 수준: %s (종합 %.0f%%)",
			state.CompetencyData.Level, state.CompetencyData.OverallScore*100))
	}
	if len(state.SearchResults) > 0 {
		var sb strings.Builder
		sb.WriteString("검색 결과:\n")
		for _, doc := range state.SearchResults {
			content := doc.Content
			if len([]rune(content)) > 120 {
				content = string([]rune(content)[:120]) + "..."
			}
			sb.WriteString("- " + content + "\n")
		}
		parts = append(parts, strings.TrimRight(sb.String(), "\n"))
	}
	if rec, ok := outputs["recommendation_data"]; ok {
		if raw, err := json.Marshal(rec); err == nil {
			parts = append(parts, "추천 내용: "+string(raw))
		}
	}

	if len(parts) == 0 {
		return insufficientInfoResponse
	}
	return strings.Join(parts, "\n\n")
}
