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

package vector

import (
	"context"
	"math"
	"sort"
	"sync"
)

// MemoryProvider is a map-backed provider with cosine similarity. Used in
// tests and as a no-dependency default.
type MemoryProvider struct {
	mu          sync.RWMutex
	collections map[string]map[string]memoryDoc
}

type memoryDoc struct {
	vector   []float32
	metadata map[string]any
}

// NewMemoryProvider creates an empty in-memory provider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{
		collections: make(map[string]map[string]memoryDoc),
	}
}

// Name returns the backend name.
func (p *MemoryProvider) Name() string { return "memory" }

// Upsert adds or updates a document.
func (p *MemoryProvider) Upsert(ctx context.Context, collection string, id string, vector []float32, metadata map[string]any) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	col, ok := p.collections[collection]
	if !ok {
		col = make(map[string]memoryDoc)
		p.collections[collection] = col
	}

	copied := make(map[string]any, len(metadata))
	for k, v := range metadata {
		copied[k] = v
	}
	col[id] = memoryDoc{vector: append([]float32(nil), vector...), metadata: copied}
	return nil
}

// Search finds the topK most similar documents by cosine similarity.
func (p *MemoryProvider) Search(ctx context.Context, collection string, vector []float32, topK int) ([]Result, error) {
	return p.SearchWithFilter(ctx, collection, vector, topK, nil)
}

// SearchWithFilter combines similarity with metadata equality filtering.
func (p *MemoryProvider) SearchWithFilter(ctx context.Context, collection string, vector []float32, topK int, filter map[string]any) ([]Result, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	col := p.collections[collection]
	results := make([]Result, 0, len(col))

	for id, doc := range col {
		if !matchesFilter(doc.metadata, filter) {
			continue
		}
		content := ""
		if c, ok := doc.metadata["content"].(string); ok {
			content = c
		}
		results = append(results, Result{
			ID:       id,
			Score:    cosineSimilarity(vector, doc.vector),
			Content:  content,
			Metadata: doc.metadata,
			Vector:   doc.vector,
		})
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// Delete removes a document by ID.
func (p *MemoryProvider) Delete(ctx context.Context, collection string, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if col, ok := p.collections[collection]; ok {
		delete(col, id)
	}
	return nil
}

// CreateCollection ensures the collection map exists.
func (p *MemoryProvider) CreateCollection(ctx context.Context, collection string, vectorDimension int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.collections[collection]; !ok {
		p.collections[collection] = make(map[string]memoryDoc)
	}
	return nil
}

// Close closes the provider.
func (p *MemoryProvider) Close() error { return nil }

func matchesFilter(metadata map[string]any, filter map[string]any) bool {
	for k, want := range filter {
		got, ok := metadata[k]
		if !ok || got != want {
			return false
		}
	}
	return true
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

var _ Provider = (*MemoryProvider)(nil)
