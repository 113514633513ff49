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
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/creatorcore/creatorcore/pkg/embedder"
	"github.com/creatorcore/creatorcore/pkg/vector"
)

// HybridSearcher merges vector similarity and keyword scores with fixed
// weights. A document surfaced by both channels gets both contributions;
// content and metadata come from whichever channel saw it first.
type HybridSearcher struct {
	vectors    vector.Provider
	embed      embedder.Embedder
	keywords   *KeywordIndex
	collection string

	// VectorWeight and KeywordWeight sum to 1.
	VectorWeight  float64
	KeywordWeight float64
}

// NewHybridSearcher creates a searcher with the standard 0.7/0.3 weighting.
func NewHybridSearcher(vectors vector.Provider, embed embedder.Embedder, keywords *KeywordIndex, collection string) *HybridSearcher {
	return &HybridSearcher{
		vectors:       vectors,
		embed:         embed,
		keywords:      keywords,
		collection:    collection,
		VectorWeight:  0.7,
		KeywordWeight: 0.3,
	}
}

// Index adds a document to both channels.
func (h *HybridSearcher) Index(ctx context.Context, id, content string, metadata map[string]any) error {
	if h.embed == nil {
		h.keywords.Add(id, content, metadata)
		return nil
	}

	vec, err := h.embed.Embed(ctx, content)
	if err != nil {
		return fmt.Errorf("failed to embed document %s: %w", id, err)
	}

	meta := make(map[string]any, len(metadata)+1)
	for k, v := range metadata {
		meta[k] = v
	}
	meta["content"] = content

	if err := h.vectors.Upsert(ctx, h.collection, id, vec, meta); err != nil {
		return fmt.Errorf("failed to upsert document %s: %w", id, err)
	}
	h.keywords.Add(id, content, metadata)
	return nil
}

// Search runs both channels and merges per document id:
//
//	score = vector_score * 0.7 + keyword_score * 0.3
//
// A document present in only one channel contributes only that channel's
// weighted score.
func (h *HybridSearcher) Search(ctx context.Context, query string, topK int) ([]Document, error) {
	// Without an embedder the keyword channel carries the full weight.
	if h.embed == nil {
		return h.keywords.Search(query, topK), nil
	}

	queryVec, err := h.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	// Fetch extra candidates from each channel before merging.
	candidateK := topK * 3
	if candidateK < 10 {
		candidateK = 10
	}

	// Both channels run concurrently; a vector failure fails the search.
	var (
		vectorResults  []vector.Result
		keywordResults []Document
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		results, err := h.vectors.Search(gctx, h.collection, queryVec, candidateK)
		if err != nil {
			return fmt.Errorf("vector search failed: %w", err)
		}
		vectorResults = results
		return nil
	})
	g.Go(func() error {
		keywordResults = h.keywords.Search(query, candidateK)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	type merged struct {
		doc   Document
		score float64
	}
	byID := make(map[string]*merged)
	var order []string

	for _, r := range vectorResults {
		byID[r.ID] = &merged{
			doc: Document{
				ID:       r.ID,
				Content:  r.Content,
				Metadata: r.Metadata,
			},
			score: float64(r.Score) * h.VectorWeight,
		}
		order = append(order, r.ID)
	}
	for _, r := range keywordResults {
		if m, ok := byID[r.ID]; ok {
			m.score += r.Score * h.KeywordWeight
			continue
		}
		byID[r.ID] = &merged{
			doc: Document{
				ID:       r.ID,
				Content:  r.Content,
				Metadata: r.Metadata,
			},
			score: r.Score * h.KeywordWeight,
		}
		order = append(order, r.ID)
	}

	results := make([]Document, 0, len(order))
	for _, id := range order {
		m := byID[id]
		m.doc.Score = m.score
		results = append(results, m.doc)
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}
