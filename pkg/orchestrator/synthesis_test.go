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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/creatorcore/creatorcore/pkg/agents"
)

func TestSynthesizeRAGOnlyReturnsVerbatim(t *testing.T) {
	s := NewSynthesizer(newScriptedEngine(t, func(string) string {
		t.Fatal("no model call expected for a RAG-only run")
		return ""
	}))

	state := NewState("t1", 2)
	state.RAGResult = &RAGOutcome{Answer: "등급은 네 단계입니다."}

	assert.Equal(t, "등급은 네 단계입니다.", s.Synthesize(context.Background(), state))
}

func TestSynthesizeNothingUsable(t *testing.T) {
	s := NewSynthesizer(newScriptedEngine(t, func(string) string { return "" }))

	state := NewState("t1", 2)
	assert.Equal(t, insufficientInfoResponse, s.Synthesize(context.Background(), state))

	// A weak RAG answer alone is not usable either.
	state.RAGResult = &RAGOutcome{Answer: "짧은 답", Weak: true}
	assert.Equal(t, insufficientInfoResponse, s.Synthesize(context.Background(), state))
}

func TestSynthesizeDomainOutputsUseModel(t *testing.T) {
	s := NewSynthesizer(newScriptedEngine(t, func(text string) string {
		if strings.Contains(text, "종합해") {
			return "미션 추천 결과를 정리했습니다."
		}
		return ""
	}))

	state := NewState("t1", 2)
	state.MissionRecommendations = []agents.MissionAssignment{
		{MissionID: "m1", Score: 85, Status: agents.StatusRecommended},
	}

	assert.Equal(t, "미션 추천 결과를 정리했습니다.", s.Synthesize(context.Background(), state))
}

func TestSynthesizeDegradedModelConcatenates(t *testing.T) {
	// Every model call comes back empty, so synthesis falls to the
	// deterministic rendering.
	s := NewSynthesizer(newScriptedEngine(t, func(string) string { return "" }))

	state := NewState("t1", 2)
	state.MissionRecommendations = []agents.MissionAssignment{
		{MissionID: "m1", Score: 85},
		{MissionID: "m2", Score: 60},
	}
	state.CompetencyData = &agents.CompetencyResult{Level: "intermediate", OverallScore: 0.72}

	out := s.Synthesize(context.Background(), state)
	assert.Contains(t, out, "추천 미션:")
	assert.Contains(t, out, "m1 (점수 85.0)")
	assert.Contains(t, out, "m2 (점수 60.0)")
	assert.Contains(t, out, "역량 수준: intermediate (종합 72%)")
}

func TestCollectOutputs(t *testing.T) {
	state := NewState("t1", 2)
	assert.Empty(t, collectOutputs(state))

	state.AnalyticsResults = &agents.AnalyticsReport{Summary: "요약"}
	state.ExternalAPIResults = map[string]any{"ok": false}

	outputs := collectOutputs(state)
	assert.Len(t, outputs, 2)
	assert.Contains(t, outputs, "analytics_results")
	assert.Contains(t, outputs, "external_api_results")
}
