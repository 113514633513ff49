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

package rag

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creatorcore/creatorcore/pkg/config"
	"github.com/creatorcore/creatorcore/pkg/llm"
	"github.com/creatorcore/creatorcore/pkg/retrieval"
	"github.com/creatorcore/creatorcore/pkg/vector"
)

// namedProvider answers every call with a fixed payload so tests can tell
// which slot handled a request.
type namedProvider struct{ name string }

func (p *namedProvider) Invoke(ctx context.Context, messages []llm.Message) (*llm.Result, error) {
	return &llm.Result{Content: "응답: " + p.name}, nil
}
func (p *namedProvider) Kind() string      { return "fake" }
func (p *namedProvider) ModelName() string { return p.name }
func (p *namedProvider) Close() error      { return nil }

func newTestPipeline(t *testing.T) *Pipeline {
	t.Helper()

	r := llm.NewRegistry()
	for _, name := range []string{"gpt-main", "gpt-mini", "local-fallback"} {
		require.NoError(t, r.Register(name, &namedProvider{name: name}))
	}
	require.NoError(t, r.Bind(llm.SlotDefault, "gpt-main"))
	require.NoError(t, r.Bind(llm.SlotFast, "gpt-mini"))
	require.NoError(t, r.Bind(llm.SlotFallback, "local-fallback"))
	engine := llm.NewEngine(r, nil, nil)

	provider, err := vector.New(&config.VectorConfig{Backend: "memory"})
	require.NoError(t, err)
	searcher := retrieval.NewHybridSearcher(provider, nil, retrieval.NewKeywordIndex(), "docs")
	require.NoError(t, searcher.Index(context.Background(), "d1", "크리에이터 등급은 S/A/B/C 네 단계입니다.", nil))

	return NewPipeline(&config.RAGConfig{}, engine, searcher, nil)
}

func TestProcessRejectsEmptyQuery(t *testing.T) {
	p := newTestPipeline(t)
	_, err := p.Process(context.Background(), Request{Query: "   "})
	assert.Error(t, err)
}

func TestProcessRoutesByCostPreference(t *testing.T) {
	p := newTestPipeline(t)
	ctx := context.Background()

	result, err := p.Process(ctx, Request{Query: "크리에이터 등급 기준", CostPreference: "budget"})
	require.NoError(t, err)
	assert.Equal(t, "local-fallback", result.Model, "budget hint routes generation to the fallback slot")

	result, err = p.Process(ctx, Request{Query: "미션 보상 정책"})
	require.NoError(t, err)
	assert.Equal(t, "gpt-main", result.Model, "no hint keeps the default slot")
}

func TestProcessCachesAnswer(t *testing.T) {
	p := newTestPipeline(t)
	ctx := context.Background()

	first, err := p.Process(ctx, Request{Query: "크리에이터 등급 기준"})
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := p.Process(ctx, Request{Query: "크리에이터 등급 기준"})
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Answer, second.Answer)
}
