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
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/creatorcore/creatorcore/pkg/llm"
)

// TokenBoost is added once to a document's final score when it shares at
// least one token with the query.
const TokenBoost = 0.05

// Reranker reorders hybrid results by LLM-judged relevance.
type Reranker interface {
	Rerank(ctx context.Context, query string, docs []Document, topK int) ([]Document, error)
}

// LLMReranker asks a model for a relevance score per document and blends it
// with the base retrieval score:
//
//	final = (base + llm_score) / 2 [+ TokenBoost on token overlap]
//
// clamped to [0,1]. Documents below Threshold after blending are dropped.
type LLMReranker struct {
	engine    *llm.Engine
	Threshold float64
}

// NewLLMReranker creates a reranker over an engine.
func NewLLMReranker(engine *llm.Engine, threshold float64) *LLMReranker {
	return &LLMReranker{engine: engine, Threshold: threshold}
}

type rerankScore struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// Rerank implements Reranker. When the model call or its output parsing
// fails, the input ordering is returned unchanged.
func (r *LLMReranker) Rerank(ctx context.Context, query string, docs []Document, topK int) ([]Document, error) {
	if len(docs) == 0 {
		return docs, nil
	}

	prompt := buildRerankPrompt(query, docs)
	result, err := r.engine.Generate(ctx, llm.GenerateRequest{
		SystemPrompt: "You score document relevance. Respond with a JSON array only, no prose.",
		Prompt:       prompt,
		Options:      llm.Options{Latency: "fast", Temperature: llm.Temp(0)},
	})
	if err != nil || result.Degraded {
		slog.Warn("Reranking failed, keeping retrieval order", "error", err)
		return clampTopK(docs, topK), nil
	}

	scores, err := parseRerankScores(result.Content, len(docs))
	if err != nil {
		slog.Warn("Failed to parse rerank scores, keeping retrieval order", "error", err)
		return clampTopK(docs, topK), nil
	}

	queryTokens := make(map[string]bool)
	for _, t := range Tokenize(query) {
		queryTokens[t] = true
	}

	reranked := make([]Document, 0, len(docs))
	for i, doc := range docs {
		final := (doc.Score + scores[i]) / 2

		for _, t := range Tokenize(doc.Content) {
			if queryTokens[t] {
				final += TokenBoost
				break
			}
		}
		if final > 1 {
			final = 1
		}
		if final < 0 {
			final = 0
		}

		if r.Threshold > 0 && final < r.Threshold {
			continue
		}
		doc.Score = final
		reranked = append(reranked, doc)
	}

	sort.SliceStable(reranked, func(i, j int) bool { return reranked[i].Score > reranked[j].Score })
	return clampTopK(reranked, topK), nil
}

func buildRerankPrompt(query string, docs []Document) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Query: %s\n\nScore each document's relevance to the query from 0.0 to 1.0.\n\n", query)
	for i, doc := range docs {
		content := doc.Content
		if len(content) > 500 {
			content = content[:500]
		}
		fmt.Fprintf(&b, "[%d] %s\n\n", i, content)
	}
	b.WriteString(`Respond with JSON: [{"index": 0, "score": 0.8}, ...]`)
	return b.String()
}

// parseRerankScores extracts the JSON array, tolerating surrounding prose.
// Missing indexes default to 0.5 (neutral).
func parseRerankScores(content string, n int) ([]float64, error) {
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON array in rerank response")
	}

	var parsed []rerankScore
	if err := json.Unmarshal([]byte(content[start:end+1]), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse rerank scores: %w", err)
	}

	scores := make([]float64, n)
	for i := range scores {
		scores[i] = 0.5
	}
	for _, s := range parsed {
		if s.Index >= 0 && s.Index < n {
			score := s.Score
			if score < 0 {
				score = 0
			}
			if score > 1 {
				score = 1
			}
			scores[s.Index] = score
		}
	}
	return scores, nil
}

func clampTopK(docs []Document, topK int) []Document {
	if topK > 0 && len(docs) > topK {
		return docs[:topK]
	}
	return docs
}

var _ Reranker = (*LLMReranker)(nil)
