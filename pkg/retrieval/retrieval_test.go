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

package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creatorcore/creatorcore/pkg/config"
	"github.com/creatorcore/creatorcore/pkg/llm"
	"github.com/creatorcore/creatorcore/pkg/vector"
)

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"creator", "grade", "기준"}, Tokenize("Creator grade, 기준!"))
	assert.Empty(t, Tokenize("  ...  "))
}

func TestKeywordSearchScoresByMatchedTerms(t *testing.T) {
	idx := NewKeywordIndex()
	idx.Add("d1", "크리에이터 등급 기준 설명", nil)
	idx.Add("d2", "미션 보상 정책", nil)
	idx.Add("d3", "크리에이터 미션 등급", nil)

	results := idx.Search("크리에이터 등급", 10)
	require.Len(t, results, 2)

	// Both query terms match d1 and d3 equally.
	assert.Equal(t, 1.0, results[0].Score)
	assert.Equal(t, 1.0, results[1].Score)

	partial := idx.Search("미션 보상 정책", 10)
	require.NotEmpty(t, partial)
	assert.Equal(t, "d2", partial[0].ID)
	for _, r := range partial {
		assert.GreaterOrEqual(t, r.Score, 0.0)
		assert.LessOrEqual(t, r.Score, 1.0)
	}
}

func TestKeywordSearchTopK(t *testing.T) {
	idx := NewKeywordIndex()
	idx.Add("d1", "mission one", nil)
	idx.Add("d2", "mission two", nil)
	idx.Add("d3", "mission three", nil)

	results := idx.Search("mission", 2)
	assert.Len(t, results, 2)
}

// stubEmbedder returns a fixed vector per known text.
type stubEmbedder struct {
	vectors map[string][]float32
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := s.vectors[text]; ok {
		return v, nil
	}
	return []float32{1, 0, 0}, nil
}
func (s *stubEmbedder) Dimension() int    { return 3 }
func (s *stubEmbedder) ModelName() string { return "stub" }

func TestHybridSearchMergesChannels(t *testing.T) {
	cfg := &config.VectorConfig{Backend: "memory"}
	provider, err := vector.New(cfg)
	require.NoError(t, err)

	embed := &stubEmbedder{vectors: map[string][]float32{
		"등급 기준": {1, 0, 0},
		"크리에이터 등급 기준은 무엇인가요": {1, 0, 0},
		"미션 보상 정책 안내":        {0, 1, 0},
	}}

	h := NewHybridSearcher(provider, embed, NewKeywordIndex(), "docs")
	ctx := context.Background()

	require.NoError(t, h.Index(ctx, "d1", "크리에이터 등급 기준은 무엇인가요", nil))
	require.NoError(t, h.Index(ctx, "d2", "미션 보상 정책 안내", nil))

	results, err := h.Search(ctx, "등급 기준", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	assert.Equal(t, "d1", results[0].ID, "vector match plus keyword overlap must rank first")
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score, "order must be non-increasing")
	}
	for _, r := range results {
		assert.GreaterOrEqual(t, r.Score, 0.0)
		assert.LessOrEqual(t, r.Score, 1.0)
	}
}

func TestHybridSearchTopKLimit(t *testing.T) {
	cfg := &config.VectorConfig{Backend: "memory"}
	provider, err := vector.New(cfg)
	require.NoError(t, err)

	h := NewHybridSearcher(provider, &stubEmbedder{}, NewKeywordIndex(), "docs")
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, h.Index(ctx, id, "mission content "+id, nil))
	}

	results, err := h.Search(ctx, "mission", 2)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(results), 2)
}

func TestHybridSearchKeywordOnlyWithoutEmbedder(t *testing.T) {
	cfg := &config.VectorConfig{Backend: "memory"}
	provider, err := vector.New(cfg)
	require.NoError(t, err)

	h := NewHybridSearcher(provider, nil, NewKeywordIndex(), "docs")
	ctx := context.Background()
	require.NoError(t, h.Index(ctx, "d1", "미션 보상 정책", nil))

	results, err := h.Search(ctx, "미션", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "d1", results[0].ID)
}

// scoreProvider answers every call with a fixed payload.
type scoreProvider struct{ output string }

func (p *scoreProvider) Invoke(ctx context.Context, messages []llm.Message) (*llm.Result, error) {
	return &llm.Result{Content: p.output}, nil
}
func (p *scoreProvider) Kind() string      { return "fake" }
func (p *scoreProvider) ModelName() string { return "scorer" }
func (p *scoreProvider) Close() error      { return nil }

func newRerankEngine(t *testing.T, output string) *llm.Engine {
	t.Helper()
	r := llm.NewRegistry()
	require.NoError(t, r.Register("scorer", &scoreProvider{output: output}))
	require.NoError(t, r.Bind(llm.SlotDefault, "scorer"))
	return llm.NewEngine(r, nil, nil)
}

func TestRerankCapsBlendedScore(t *testing.T) {
	e := newRerankEngine(t, `[{"index":0,"score":1.0},{"index":1,"score":0.2}]`)
	rr := NewLLMReranker(e, 0)

	docs := []Document{
		{ID: "a", Content: "미션 보상 정책 전체 안내", Score: 1.0},
		{ID: "b", Content: "다른 주제 문서", Score: 0.4},
	}
	out, err := rr.Rerank(context.Background(), "미션 보상", docs, 5)
	require.NoError(t, err)
	require.Len(t, out, 2)

	// Base 1.0 blended with model 1.0 plus the token boost stays capped.
	assert.Equal(t, "a", out[0].ID)
	assert.Equal(t, 1.0, out[0].Score)

	assert.Equal(t, "b", out[1].ID)
	assert.InDelta(t, 0.3, out[1].Score, 1e-9, "no token overlap, plain blend")

	for _, d := range out {
		assert.GreaterOrEqual(t, d.Score, 0.0)
		assert.LessOrEqual(t, d.Score, 1.0)
	}
}

func TestParseRerankScores(t *testing.T) {
	scores, err := parseRerankScores(`[{"index":0,"score":0.9},{"index":2,"score":0.1}]`, 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.9, 0.5, 0.1}, scores, "missing index defaults to neutral 0.5")
}

func TestParseRerankScoresToleratesProse(t *testing.T) {
	scores, err := parseRerankScores("Here are the scores:\n[{\"index\":0,\"score\":1.5}]\nDone.", 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{1.0}, scores, "scores clamped to [0,1]")
}

func TestParseRerankScoresRejectsGarbage(t *testing.T) {
	_, err := parseRerankScores("no json here", 2)
	assert.Error(t, err)

	_, err = parseRerankScores("[not valid json]", 2)
	assert.Error(t, err)
}
