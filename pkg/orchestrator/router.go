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
	"log/slog"
	"strconv"
	"strings"

	"github.com/creatorcore/creatorcore/pkg/llm"
)

// Intent labels the router classifier can emit.
var routerIntents = []string{
	"creator_evaluation",
	"mission_recommendation",
	"competency_assessment",
	"content_recommendation",
	"search",
	"analytics",
	"data_collection",
	"general",
}

// deepAgentKeywords force the iterative self-critique path regardless of
// the classified intent.
var deepAgentKeywords = []string{
	"심층", "깊이 있게", "종합적으로 분석", "단계별로 자세히",
	"deep dive", "in-depth", "comprehensive analysis", "thorough",
}

// ragKeywords re-route ambiguous or general messages to retrieval when the
// user is asking about facts, policies, or how-tos.
var ragKeywords = []string{
	"무엇", "설명", "어떻게", "방법", "정책", "가이드", "규정", "기준",
	"what is", "how do", "how to", "explain", "guide", "policy",
}

// Router classifies intent with the fast model at temperature 0 and maps
// it to a workflow type. The deep-agents gate runs first and wins.
type Router struct {
	engine *llm.Engine
}

// NewRouter creates a router over the engine.
func NewRouter(engine *llm.Engine) *Router {
	return &Router{engine: engine}
}

// Route classifies a message. It never fails: when the model is down the
// keyword heuristic supplies the intent with low confidence.
func (r *Router) Route(ctx context.Context, message string) (*Routing, string) {
	if DeepAgentsGate(message) {
		return &Routing{
			Strategy:   "deep_agents_gate",
			Intent:     "deep_reasoning",
			Confidence: 1,
		}, WorkflowDeepAgents
	}

	routing := r.classify(ctx, message)
	workflow := intentToWorkflow(routing.Intent)

	// Ambiguous and general messages get a second look: knowledge-style
	// questions go through retrieval instead of a bare completion.
	if workflow == WorkflowGeneral && ShouldUseRAG(message) {
		workflow = WorkflowRAG
	}
	return routing, workflow
}

// DeepAgentsGate trips on explicit depth keywords, or on long multi-part
// messages that read like a research brief.
func DeepAgentsGate(message string) bool {
	lower := strings.ToLower(message)
	for _, kw := range deepAgentKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return len([]rune(message)) > 300 && sentenceCount(message) >= 4
}

// ShouldUseRAG is the keyword heuristic for ambiguous messages.
func ShouldUseRAG(message string) bool {
	lower := strings.ToLower(message)
	for _, kw := range ragKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func sentenceCount(message string) int {
	count := 0
	for _, r := range message {
		switch r {
		case '.', '!', '?', '\n':
			count++
		}
	}
	return count
}

func (r *Router) classify(ctx context.Context, message string) *Routing {
	prompt := "다음 사용자 메시지의 의도를 아래 레이블 중 하나로 분류하세요.\n" +
		"레이블: " + strings.Join(routerIntents, ", ") + "\n\n" +
		"메시지: " + message + "\n\n" +
		"다음 형식으로만 답하세요:\nintent: <레이블>\nconfidence: <0.0~1.0>"

	result, err := r.engine.Generate(ctx, llm.GenerateRequest{
		Prompt:  prompt,
		Options: llm.Options{Latency: "fast", Temperature: llm.Temp(0)},
	})
	if err != nil || result.Degraded {
		slog.Warn("Router model unavailable, falling back to keyword intent", "error", err)
		intent := keywordIntent(message)
		return &Routing{Strategy: "keyword_fallback", Intent: intent, Confidence: 0.4}
	}

	intent, confidence := parseRouterOutput(result.Content)
	return &Routing{
		Strategy:   "llm",
		Intent:     intent,
		Confidence: confidence,
		Raw:        result.Content,
	}
}

// parseRouterOutput extracts "intent:" and "confidence:" lines. Unknown
// labels degrade to general with low confidence.
func parseRouterOutput(content string) (string, float64) {
	intent := "general"
	confidence := 0.5

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(strings.ToLower(line))
		if after, ok := strings.CutPrefix(line, "intent:"); ok {
			candidate := strings.TrimSpace(after)
			for _, known := range routerIntents {
				if candidate == known {
					intent = known
					break
				}
			}
		}
		if after, ok := strings.CutPrefix(line, "confidence:"); ok {
			if v, err := strconv.ParseFloat(strings.TrimSpace(after), 64); err == nil && v >= 0 && v <= 1 {
				confidence = v
			}
		}
	}
	return intent, confidence
}

// keywordIntent is the LLM-less classification path.
func keywordIntent(message string) string {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "크리에이터") && (strings.Contains(lower, "평가") || strings.Contains(lower, "온보딩")),
		strings.Contains(lower, "creator evaluation"):
		return "creator_evaluation"
	case strings.Contains(lower, "미션") || strings.Contains(lower, "mission"):
		return "mission_recommendation"
	case strings.Contains(lower, "역량") || strings.Contains(lower, "competency"):
		return "competency_assessment"
	case strings.Contains(lower, "추천") || strings.Contains(lower, "recommend"):
		return "content_recommendation"
	case strings.Contains(lower, "검색") || strings.Contains(lower, "search"):
		return "search"
	case strings.Contains(lower, "분석") || strings.Contains(lower, "통계") ||
		strings.Contains(lower, "analytics") || strings.Contains(lower, "report"):
		return "analytics"
	case strings.Contains(lower, "수집") || strings.Contains(lower, "collect"):
		return "data_collection"
	default:
		return "general"
	}
}

func intentToWorkflow(intent string) string {
	switch intent {
	case "creator_evaluation":
		// Creator evaluation reaches the graph as a data-collection pass;
		// the dedicated evaluation API serves structured inputs directly.
		return WorkflowDataCollection
	case "mission_recommendation":
		return WorkflowMission
	case "competency_assessment":
		return WorkflowCompetency
	case "content_recommendation":
		return WorkflowRecommendation
	case "search":
		return WorkflowSearch
	case "analytics":
		return WorkflowAnalytics
	case "data_collection":
		return WorkflowDataCollection
	default:
		return WorkflowGeneral
	}
}
