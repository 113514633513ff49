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
	"github.com/stretchr/testify/require"

	"github.com/creatorcore/creatorcore/pkg/config"
)

func newTestPlanner(t *testing.T, respond func(text string) string) *Planner {
	t.Helper()
	cfg := &config.OrchestratorConfig{}
	cfg.SetDefaults()
	return NewPlanner(newScriptedEngine(t, respond), cfg)
}

func TestShouldPlanDisjuncts(t *testing.T) {
	p := newTestPlanner(t, func(string) string { return "" })
	short := "미션 추천해줘"

	// Confident, specific, short, no keywords: planner skipped.
	assert.False(t, p.ShouldPlan(&Routing{Confidence: 0.9}, WorkflowMission, short))

	assert.True(t, p.ShouldPlan(&Routing{Confidence: 0.5}, WorkflowMission, short), "low confidence")
	assert.True(t, p.ShouldPlan(&Routing{Confidence: 0.9}, WorkflowGeneral, short), "general workflow")
	assert.True(t, p.ShouldPlan(&Routing{Confidence: 0.9}, WorkflowRAG, short), "rag workflow")
	assert.True(t, p.ShouldPlan(&Routing{Confidence: 0.9}, WorkflowMission, strings.Repeat("가", 201)), "long message")
	assert.True(t, p.ShouldPlan(&Routing{Confidence: 0.9}, WorkflowMission, "성과를 분석해서 추천해줘"), "complexity keyword")
}

func TestMakePlanParsesModelOutput(t *testing.T) {
	p := newTestPlanner(t, func(text string) string {
		if strings.Contains(text, "플래너") {
			return "설명 텍스트\n{\"workflow_type\":\"mission\",\"needs_rag\":true,\"needs_tools\":true,\"complexity\":\"high\",\"cost_preference\":\"performance\"}\n끝"
		}
		return ""
	})

	plan := p.MakePlan(context.Background(), &Routing{Intent: "mission_recommendation", Confidence: 0.5}, WorkflowMission, "미션 추천")
	require.NotNil(t, plan)
	assert.Equal(t, WorkflowMission, plan.WorkflowType)
	assert.True(t, plan.NeedsRAG)
	assert.True(t, plan.NeedsTools)
	assert.Equal(t, "high", plan.Complexity)
	assert.Equal(t, "performance", plan.CostPreference)
}

func TestMakePlanParseFailure(t *testing.T) {
	p := newTestPlanner(t, func(string) string { return "JSON이 아닌 출력" })

	plan := p.MakePlan(context.Background(), nil, WorkflowRAG, "질문")
	require.NotNil(t, plan)
	assert.Equal(t, WorkflowRAG, plan.WorkflowType)
	assert.True(t, plan.NeedsRAG, "minimal plan keeps retrieval for the rag workflow")
	assert.False(t, plan.NeedsTools)
	assert.Equal(t, "planner_parse_failed", plan.Notes)
}

func TestMakePlanModelUnavailable(t *testing.T) {
	p := newTestPlanner(t, func(string) string { return "" })

	plan := p.MakePlan(context.Background(), nil, WorkflowGeneral, "질문")
	require.NotNil(t, plan)
	assert.Equal(t, "planner_unavailable", plan.Notes)
}

func TestReplanForcesRAGWhenToolsUnavailable(t *testing.T) {
	p := newTestPlanner(t, func(text string) string {
		if strings.Contains(text, "이전 계획이 실패") {
			return `{"workflow_type":"mission","needs_rag":false,"needs_tools":true}`
		}
		return ""
	})

	state := NewState("t1", 2)
	state.AppendMessage("user", "미션 추천해줘")
	state.WorkflowType = WorkflowMission

	plan := p.Replan(context.Background(), state, "all tools failed", true)
	assert.False(t, plan.NeedsTools, "tool unavailability overrides the model's answer")
	assert.True(t, plan.NeedsRAG)
}

func TestReplanSearchWorkflowForcesRAG(t *testing.T) {
	p := newTestPlanner(t, func(text string) string {
		if strings.Contains(text, "이전 계획이 실패") {
			return `{"workflow_type":"search","needs_rag":false,"needs_tools":false}`
		}
		return ""
	})

	state := NewState("t1", 2)
	state.AppendMessage("user", "검색해줘")
	state.WorkflowType = WorkflowSearch

	plan := p.Replan(context.Background(), state, "rag_quality_weak", false)
	assert.True(t, plan.NeedsRAG)
}

func TestParsePlan(t *testing.T) {
	plan, ok := parsePlan(`prefix {"workflow_type":"rag","needs_rag":true} suffix`)
	require.True(t, ok)
	assert.Equal(t, WorkflowRAG, plan.WorkflowType)

	_, ok = parsePlan("중괄호 없는 출력")
	assert.False(t, ok)

	_, ok = parsePlan("{broken json}")
	assert.False(t, ok)
}

func TestNormalizePlan(t *testing.T) {
	plan := &Plan{WorkflowType: "밈_워크플로", Complexity: "extreme", CostPreference: "free"}
	normalizePlan(plan, WorkflowAnalytics)

	assert.Equal(t, WorkflowAnalytics, plan.WorkflowType, "invalid workflow keeps the current one")
	assert.Equal(t, "medium", plan.Complexity)
	assert.Equal(t, "balanced", plan.CostPreference)

	valid := &Plan{WorkflowType: WorkflowMission, Complexity: "high", CostPreference: "speed"}
	normalizePlan(valid, WorkflowGeneral)
	assert.Equal(t, WorkflowMission, valid.WorkflowType)
	assert.Equal(t, "high", valid.Complexity)
	assert.Equal(t, "speed", valid.CostPreference)
}
