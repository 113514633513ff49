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
	"log/slog"
	"strings"

	"github.com/invopop/jsonschema"

	"github.com/creatorcore/creatorcore/pkg/config"
	"github.com/creatorcore/creatorcore/pkg/llm"
)

// planSchemaJSON is the JSON schema sent with every planner prompt so the
// deep model emits a parseable object.
var planSchemaJSON = mustPlanSchema()

func mustPlanSchema() string {
	reflector := jsonschema.Reflector{DoNotReference: true}
	schema := reflector.Reflect(&Plan{})
	raw, err := json.Marshal(schema)
	if err != nil {
		return `{"type":"object"}`
	}
	return string(raw)
}

// Planner runs the deliberative planning call. It decides flow; it never
// answers the user.
type Planner struct {
	engine *llm.Engine
	cfg    *config.OrchestratorConfig
}

// NewPlanner creates a planner.
func NewPlanner(engine *llm.Engine, cfg *config.OrchestratorConfig) *Planner {
	return &Planner{engine: engine, cfg: cfg}
}

// ShouldPlan reports whether the planner runs for this routing outcome.
// Any one disjunct is enough.
func (p *Planner) ShouldPlan(routing *Routing, workflow, message string) bool {
	if routing != nil && routing.Confidence < p.cfg.PlannerConfidence {
		return true
	}
	if workflow == WorkflowGeneral || workflow == WorkflowRAG {
		return true
	}
	if len([]rune(message)) > p.cfg.PlannerLengthGate {
		return true
	}
	lower := strings.ToLower(message)
	for _, kw := range p.cfg.ComplexityKeywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// MakePlan calls the deep model at temperature 0 with a JSON-only schema
// instruction. A parse failure yields the minimal safe plan preserving the
// current workflow with notes="planner_parse_failed".
func (p *Planner) MakePlan(ctx context.Context, routing *Routing, workflow, message string) *Plan {
	prompt := fmt.Sprintf(
		"당신은 요청 처리 계획을 수립하는 플래너입니다. 사용자에게 답하지 말고 계획만 세우세요.\n\n"+
			"사용자 메시지: %s\n분류된 의도: %s (confidence %.2f)\n현재 워크플로: %s\n\n"+
			"다음 JSON 스키마에 맞는 JSON 객체 하나만 출력하세요. 다른 텍스트는 쓰지 마세요.\n%s",
		message, routingIntent(routing), routingConfidence(routing), workflow, planSchemaJSON)

	result, err := p.engine.Generate(ctx, llm.GenerateRequest{
		Prompt:  prompt,
		Options: llm.Options{Complexity: "deep", Temperature: llm.Temp(0)},
	})
	if err != nil || result.Degraded {
		slog.Warn("Planner model unavailable, using minimal plan", "error", err)
		return minimalPlan(workflow, "planner_unavailable")
	}

	plan, ok := parsePlan(result.Content)
	if !ok {
		return minimalPlan(workflow, "planner_parse_failed")
	}
	normalizePlan(plan, workflow)
	return plan
}

// Replan revises the plan after a tool failure or a weak RAG answer.
// Policy overrides are applied after parsing:
//
//   - tools unavailable forces needs_tools=false and needs_rag=true;
//   - a "search" workflow forces needs_rag=true.
func (p *Planner) Replan(ctx context.Context, state *State, reason string, toolsUnavailable bool) *Plan {
	prior := "없음"
	if state.Plan != nil {
		if raw, err := json.Marshal(state.Plan); err == nil {
			prior = string(raw)
		}
	}

	ragStatus := "실행 전"
	if state.RAGResult != nil {
		ragStatus = fmt.Sprintf("weak=%v, docs=%d", state.RAGResult.Weak, len(state.RetrievedDocuments))
	}

	prompt := fmt.Sprintf(
		"이전 계획이 실패했습니다. 수정된 계획을 세우세요. 사용자에게 답하지 마세요.\n\n"+
			"사용자 메시지: %s\n실패 사유: %s\n이전 계획: %s\n라우팅: %s\nRAG 상태: %s\n\n"+
			"다음 JSON 스키마에 맞는 JSON 객체 하나만 출력하세요.\n%s",
		state.Message(), reason, prior, routingIntent(state.Routing), ragStatus, planSchemaJSON)

	result, err := p.engine.Generate(ctx, llm.GenerateRequest{
		Prompt:  prompt,
		Options: llm.Options{Complexity: "deep", Temperature: llm.Temp(0)},
	})

	var plan *Plan
	if err != nil || result.Degraded {
		plan = minimalPlan(state.WorkflowType, "replanner_unavailable")
	} else if parsed, ok := parsePlan(result.Content); ok {
		plan = parsed
		normalizePlan(plan, state.WorkflowType)
	} else {
		plan = minimalPlan(state.WorkflowType, "planner_parse_failed")
	}

	if toolsUnavailable {
		plan.NeedsTools = false
		plan.NeedsRAG = true
	}
	if plan.WorkflowType == WorkflowSearch {
		plan.NeedsRAG = true
	}
	return plan
}

// parsePlan extracts the first JSON object from the model output.
func parsePlan(content string) (*Plan, bool) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return nil, false
	}

	var plan Plan
	if err := json.Unmarshal([]byte(content[start:end+1]), &plan); err != nil {
		return nil, false
	}
	return &plan, true
}

// normalizePlan fills invalid or missing enum fields. The plan may
// override the workflow, but never unset it.
func normalizePlan(plan *Plan, currentWorkflow string) {
	if !validWorkflow(plan.WorkflowType) {
		plan.WorkflowType = currentWorkflow
	}
	switch plan.Complexity {
	case "simple", "medium", "high":
	default:
		plan.Complexity = "medium"
	}
	switch plan.CostPreference {
	case "budget", "balanced", "performance", "speed":
	default:
		plan.CostPreference = "balanced"
	}
}

func minimalPlan(workflow, notes string) *Plan {
	return &Plan{
		WorkflowType:   workflow,
		NeedsRAG:       workflow == WorkflowRAG,
		NeedsTools:     false,
		Complexity:     "medium",
		CostPreference: "balanced",
		Notes:          notes,
	}
}

func validWorkflow(w string) bool {
	switch w {
	case WorkflowGeneral, WorkflowRAG, WorkflowCompetency, WorkflowRecommendation,
		WorkflowMission, WorkflowSearch, WorkflowAnalytics, WorkflowDataCollection,
		WorkflowDeepAgents:
		return true
	}
	return false
}

func routingIntent(r *Routing) string {
	if r == nil {
		return "unknown"
	}
	return r.Intent
}

func routingConfidence(r *Routing) float64 {
	if r == nil {
		return 0
	}
	return r.Confidence
}
