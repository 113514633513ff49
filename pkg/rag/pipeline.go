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
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/creatorcore/creatorcore/pkg/config"
	"github.com/creatorcore/creatorcore/pkg/llm"
	"github.com/creatorcore/creatorcore/pkg/retrieval"
)

// Result is the pipeline output.
type Result struct {
	Answer    string
	Documents []retrieval.Document
	Context   string
	Cached    bool
	Model     string
}

// Request carries a query plus optional surrounding context into the
// pipeline.
type Request struct {
	Query       string
	UserProfile string
	TaskContext string
	History     []HistoryTurn

	// Generation routing hints, passed through to the engine.
	Complexity     string
	TaskType       string
	CostPreference string
}

// Pipeline wires the fixed stage order: cache lookup, expansion, parallel
// hybrid retrieval, rerank, context build, prompt optimization, generation,
// hallucination check, refinement, cache insert.
type Pipeline struct {
	config    *config.RAGConfig
	engine    *llm.Engine
	searcher  *retrieval.HybridSearcher
	reranker  retrieval.Reranker
	expander  *QueryExpander
	builder   *ContextBuilder
	optimizer *PromptOptimizer
	refiner   *Refiner
	cache     *SemanticCache
}

// NewPipeline assembles a pipeline from its stages.
func NewPipeline(cfg *config.RAGConfig, engine *llm.Engine, searcher *retrieval.HybridSearcher, reranker retrieval.Reranker) *Pipeline {
	cfg.SetDefaults()
	return &Pipeline{
		config:    cfg,
		engine:    engine,
		searcher:  searcher,
		reranker:  reranker,
		expander:  NewQueryExpander(engine, cfg.NumExpansions),
		builder:   NewContextBuilder(cfg.MaxContextTokens, cfg.HistoryLimit),
		optimizer: NewPromptOptimizer(cfg.MaxContextTokens),
		refiner:   NewRefiner(engine),
		cache:     NewSemanticCache(time.Duration(cfg.CacheTTLSecs) * time.Second),
	}
}

// Cache exposes the semantic cache for admin reset endpoints.
func (p *Pipeline) Cache() *SemanticCache { return p.cache }

// Process runs a query through the full stage order.
func (p *Pipeline) Process(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}

	if cached := p.cache.Get(req.Query); cached != nil {
		slog.Debug("Semantic cache hit", "query", req.Query)
		return cached, nil
	}

	queries := p.expander.Expand(ctx, req.Query)
	docs, err := p.retrieveAll(ctx, queries)
	if err != nil {
		return nil, err
	}

	docs = p.rerank(ctx, req.Query, queries, docs)

	prompt := p.builder.Build(BuildInput{
		Query:       req.Query,
		UserProfile: req.UserProfile,
		TaskContext: req.TaskContext,
		Documents:   docs,
		History:     req.History,
	})
	prompt = p.optimizer.Optimize(prompt)

	generated, err := p.engine.Generate(ctx, llm.GenerateRequest{
		SystemPrompt: "당신은 크리에이터 플랫폼의 전문 어시스턴트입니다. 검색된 지식을 근거로 정확하게 답변하세요.",
		Prompt:       prompt,
		Options: llm.Options{
			Complexity:     req.Complexity,
			TaskType:       req.TaskType,
			CostPreference: req.CostPreference,
		},
	})
	if err != nil && generated == nil {
		return nil, fmt.Errorf("generation failed: %w", err)
	}

	answer := generated.Content
	if p.config.HallucinationCheck && !generated.Degraded {
		answer = p.refiner.CheckSupport(ctx, answer, docs)
	}
	if !generated.Degraded {
		answer = p.refiner.Refine(ctx, answer)
	}

	result := &Result{
		Answer:    answer,
		Documents: docs,
		Context:   prompt,
		Model:     generated.Model,
	}
	if !generated.Degraded {
		p.cache.Put(req.Query, result)
	}
	return result, nil
}

// retrieveAll runs hybrid search for every expanded query concurrently and
// merges by document id, first occurrence wins. A failing branch is logged
// and skipped; it never cancels the siblings.
func (p *Pipeline) retrieveAll(ctx context.Context, queries []string) ([]retrieval.Document, error) {
	perQuery := make([][]retrieval.Document, len(queries))
	errs := make([]error, len(queries))

	var g errgroup.Group
	for i, q := range queries {
		i, q := i, q
		g.Go(func() error {
			docs, err := p.searcher.Search(ctx, q, p.config.MaxResults*2)
			if err != nil {
				errs[i] = err
				return nil
			}
			perQuery[i] = docs
			return nil
		})
	}
	_ = g.Wait()

	var merged []retrieval.Document
	seen := make(map[string]bool)
	for i, docs := range perQuery {
		if errs[i] != nil {
			slog.Warn("Retrieval failed for expanded query", "query", queries[i], "error", errs[i])
			continue
		}
		for _, doc := range docs {
			if seen[doc.ID] {
				continue
			}
			seen[doc.ID] = true
			merged = append(merged, doc)
		}
	}
	return merged, nil
}

// rerank applies the reranker when available and when there are more
// candidates than the final top_k; otherwise it clamps to top_k directly.
func (p *Pipeline) rerank(ctx context.Context, query string, queries []string, docs []retrieval.Document) []retrieval.Document {
	topK := p.config.MaxResults

	if p.reranker != nil && p.config.RerankEnabled && len(docs) > topK {
		reranked, err := p.reranker.Rerank(ctx, query, docs, topK)
		if err != nil {
			slog.Warn("Rerank failed, keeping retrieval order", "error", err)
		} else {
			return reranked
		}
	}

	if len(docs) > topK {
		docs = docs[:topK]
	}
	return docs
}

// IsWeak is the quality gate the orchestrator consults after the pipeline:
// an answer is weak when nothing was retrieved, the answer is empty, it
// contains an uncertainty marker, or it is implausibly short given that
// multiple documents were found.
func IsWeak(result *Result, markers []string) bool {
	if result == nil {
		return true
	}
	if len(result.Documents) == 0 {
		return true
	}
	answer := strings.TrimSpace(result.Answer)
	if answer == "" {
		return true
	}
	lower := strings.ToLower(answer)
	for _, marker := range markers {
		if marker != "" && strings.Contains(lower, strings.ToLower(marker)) {
			return true
		}
	}
	if len([]rune(answer)) < 120 && len(result.Documents) >= 2 {
		return true
	}
	return false
}
