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

	"github.com/creatorcore/creatorcore/pkg/checkpoint"
	"github.com/creatorcore/creatorcore/pkg/config"
	"github.com/creatorcore/creatorcore/pkg/llm"
	"github.com/creatorcore/creatorcore/pkg/rag"
	"github.com/creatorcore/creatorcore/pkg/retrieval"
	"github.com/creatorcore/creatorcore/pkg/vector"
)

// scriptedProvider answers from a function over the concatenated message
// text, so each graph stage can be scripted by its prompt marker.
type scriptedProvider struct {
	respond func(text string) string
}

var _ llm.Provider = (*scriptedProvider)(nil)

func (p *scriptedProvider) Invoke(ctx context.Context, messages []llm.Message) (*llm.Result, error) {
	var sb strings.Builder
	for _, m := range messages {
		sb.WriteString(m.Content)
		sb.WriteString("\n")
	}
	return &llm.Result{Content: p.respond(sb.String())}, nil
}
func (p *scriptedProvider) Kind() string      { return "scripted" }
func (p *scriptedProvider) ModelName() string { return "scripted" }
func (p *scriptedProvider) Close() error      { return nil }

func newScriptedEngine(t *testing.T, respond func(text string) string) *llm.Engine {
	t.Helper()
	registry := llm.NewRegistry()
	require.NoError(t, registry.Register("scripted", &scriptedProvider{respond: respond}))
	for _, slot := range []llm.Slot{llm.SlotDefault, llm.SlotFast, llm.SlotDeep, llm.SlotFallback} {
		require.NoError(t, registry.Bind(slot, "scripted"))
	}
	return llm.NewEngine(registry, nil, nil)
}

// newSeededPipeline builds a keyword-only retrieval pipeline over a small
// grading-policy corpus.
func newSeededPipeline(t *testing.T, engine *llm.Engine) *rag.Pipeline {
	t.Helper()

	provider, err := vector.New(&config.VectorConfig{Backend: "memory"})
	require.NoError(t, err)

	searcher := retrieval.NewHybridSearcher(provider, nil, retrieval.NewKeywordIndex(), "docs")
	ctx := context.Background()
	require.NoError(t, searcher.Index(ctx, "grade-doc-1",
		"크리에이터 등급은 S, A, B, C 네 단계로 나뉘며 팔로워 수와 참여율, 활동 빈도를 기준으로 산정됩니다.", nil))
	require.NoError(t, searcher.Index(ctx, "grade-doc-2",
		"크리에이터 등급 기준은 분기마다 재평가되며 미션 수행 품질이 반영됩니다.", nil))

	return rag.NewPipeline(&config.RAGConfig{}, engine, searcher, nil)
}

func newTestOrchestrator(t *testing.T, respond func(text string) string) (*Orchestrator, *llm.Engine) {
	t.Helper()
	engine := newScriptedEngine(t, respond)
	o := New(&config.OrchestratorConfig{}, &config.RAGConfig{}, Deps{
		Engine:   engine,
		Pipeline: newSeededPipeline(t, engine),
		Store:    checkpoint.NewMemoryStore(),
	})
	return o, engine
}

func TestRunToolFailureReplansIntoRAG(t *testing.T) {
	longAnswer := strings.Repeat("크리에이터 등급 기준과 최신 트렌드를 정리한 상세한 답변입니다. ", 8)

	respond := func(text string) string {
		switch {
		case strings.Contains(text, "의도를 아래 레이블"):
			return "intent: search\nconfidence: 0.9"
		case strings.Contains(text, "이전 계획이 실패"):
			return `{"workflow_type":"search","needs_rag":false,"needs_tools":true}`
		case strings.Contains(text, "플래너"):
			return `{"workflow_type":"search","needs_rag":false,"needs_tools":true,"complexity":"medium","cost_preference":"balanced"}`
		case strings.Contains(text, "검색된 지식을 근거로"):
			return longAnswer
		case strings.Contains(text, "종합해"):
			return "종합 응답: 등급 기준과 트렌드 요약입니다."
		default:
			return ""
		}
	}

	// No tool layer is wired, so the planned enrichment cannot run.
	o, _ := newTestOrchestrator(t, respond)
	ctx := context.Background()

	resp, err := o.Run(ctx, Request{Message: "크리에이터 트렌드 분석 자료를 찾아서 검색해줘"})
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, WorkflowSearch, resp.WorkflowType)

	state, err := o.LoadState(ctx, resp.ThreadID)
	require.NoError(t, err)

	require.NotNil(t, state.Replan)
	assert.True(t, state.Replan.Ran)
	require.NotNil(t, state.Plan)
	assert.False(t, state.Plan.NeedsTools, "replan after tool unavailability must disable tools")
	assert.True(t, state.Plan.NeedsRAG, "replan must redirect to retrieval")
	assert.Equal(t, 1, state.LoopCount)

	require.NotNil(t, state.RAGResult, "the RAG stage must have executed")
	assert.False(t, state.RAGResult.Weak)
	assert.NotEmpty(t, state.RetrievedDocuments)
}

func TestRunWeakRAGExhaustsLoopBudget(t *testing.T) {
	respond := func(text string) string {
		switch {
		case strings.Contains(text, "의도를 아래 레이블"):
			return "intent: general\nconfidence: 0.9"
		case strings.Contains(text, "검색된 지식을 근거로"):
			return "알 수 없습니다"
		default:
			// Planner and replanner emit nothing parseable; both fall back
			// to the minimal plan.
			return "계획을 세울 수 없습니다"
		}
	}

	o, _ := newTestOrchestrator(t, respond)
	ctx := context.Background()

	resp, err := o.Run(ctx, Request{Message: "크리에이터 등급 기준이 무엇인가요?"})
	require.NoError(t, err)

	assert.Equal(t, WorkflowRAG, resp.WorkflowType, "knowledge question re-routes from general to retrieval")
	assert.Equal(t, insufficientInfoResponse, resp.Response)

	state, err := o.LoadState(ctx, resp.ThreadID)
	require.NoError(t, err)

	assert.Equal(t, state.MaxLoops, state.LoopCount, "weak answers must consume the whole loop budget")
	require.NotNil(t, state.RAGResult)
	assert.True(t, state.RAGResult.Weak)
	require.NotNil(t, state.Plan)
	assert.Equal(t, "planner_parse_failed", state.Plan.Notes)
}

func TestRunAndResumeSessionKeepsTranscript(t *testing.T) {
	respond := func(text string) string {
		switch {
		case strings.Contains(text, "의도를 아래 레이블"):
			return "intent: general\nconfidence: 0.9"
		case strings.Contains(text, "친절한 어시스턴트"):
			return "안녕하세요! 무엇을 도와드릴까요?"
		case strings.Contains(text, "플래너"):
			return `{"workflow_type":"general","needs_rag":false,"needs_tools":false}`
		default:
			return ""
		}
	}

	o, _ := newTestOrchestrator(t, respond)
	ctx := context.Background()

	first, err := o.Run(ctx, Request{Message: "반가워"})
	require.NoError(t, err)
	assert.True(t, first.Success)
	assert.True(t, first.StateSaved)
	assert.False(t, first.Resumed)

	second, err := o.ResumeSession(ctx, first.ThreadID, "이어서 이야기하자")
	require.NoError(t, err)
	assert.True(t, second.Resumed)
	assert.Equal(t, first.ThreadID, second.ThreadID)

	state, err := o.LoadState(ctx, first.ThreadID)
	require.NoError(t, err)
	require.Len(t, state.Messages, 4, "two user turns and two assistant turns")
	assert.Equal(t, "반가워", state.Messages[0].Content)
	assert.Equal(t, "user", state.Messages[0].Role)
	assert.Equal(t, "assistant", state.Messages[1].Role)
	assert.Equal(t, "이어서 이야기하자", state.Messages[2].Content)
}

func TestResumeSessionMissingCheckpoint(t *testing.T) {
	respond := func(text string) string {
		switch {
		case strings.Contains(text, "의도를 아래 레이블"):
			return "intent: general\nconfidence: 0.9"
		case strings.Contains(text, "친절한 어시스턴트"):
			return "새 세션에서 답변드립니다."
		default:
			return `{"workflow_type":"general","needs_rag":false,"needs_tools":false}`
		}
	}

	o, _ := newTestOrchestrator(t, respond)

	resp, err := o.ResumeSession(context.Background(), "ghost-thread", "안녕")
	require.NoError(t, err)

	assert.Equal(t, "ghost-thread", resp.ThreadID)
	assert.True(t, resp.Resumed)
	require.NotEmpty(t, resp.Errors)
	assert.Contains(t, resp.Errors[0], "no prior checkpoint")
}

func TestRunRequiresMessage(t *testing.T) {
	o, _ := newTestOrchestrator(t, func(string) string { return "" })

	_, err := o.Run(context.Background(), Request{})
	assert.Error(t, err)
}

func TestClearSession(t *testing.T) {
	respond := func(text string) string {
		switch {
		case strings.Contains(text, "의도를 아래 레이블"):
			return "intent: general\nconfidence: 0.9"
		case strings.Contains(text, "친절한 어시스턴트"):
			return "답변"
		default:
			return `{"workflow_type":"general","needs_rag":false,"needs_tools":false}`
		}
	}

	o, _ := newTestOrchestrator(t, respond)
	ctx := context.Background()

	resp, err := o.Run(ctx, Request{Message: "안녕"})
	require.NoError(t, err)

	require.NoError(t, o.ClearSession(ctx, resp.ThreadID))
	_, err = o.LoadState(ctx, resp.ThreadID)
	assert.ErrorIs(t, err, checkpoint.ErrNotFound)
}
