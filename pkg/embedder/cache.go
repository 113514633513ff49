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

package embedder

import (
	"context"
	"sync"
)

// CachedEmbedder wraps an Embedder with a process-wide cache keyed on the
// exact input text. Embeddings are deterministic per model so entries never
// expire; Reset clears everything.
type CachedEmbedder struct {
	inner Embedder

	mu      sync.RWMutex
	entries map[string][]float32
	maxSize int

	hits   int64
	misses int64
}

// NewCachedEmbedder wraps an embedder with caching. maxSize <= 0 means
// a default of 10000 entries.
func NewCachedEmbedder(inner Embedder, maxSize int) *CachedEmbedder {
	if maxSize <= 0 {
		maxSize = 10000
	}
	return &CachedEmbedder{
		inner:   inner,
		entries: make(map[string][]float32),
		maxSize: maxSize,
	}
}

// Dimension returns the wrapped embedder's dimension.
func (c *CachedEmbedder) Dimension() int { return c.inner.Dimension() }

// ModelName returns the wrapped embedder's model name.
func (c *CachedEmbedder) ModelName() string { return c.inner.ModelName() }

// Embed returns a cached embedding when present, otherwise delegates and
// stores the result.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	c.mu.RLock()
	if v, ok := c.entries[text]; ok {
		c.mu.RUnlock()
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
		return v, nil
	}
	c.mu.RUnlock()

	v, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.misses++
	if len(c.entries) >= c.maxSize {
		// Simple wholesale eviction keeps the map bounded without
		// tracking recency.
		c.entries = make(map[string][]float32)
	}
	c.entries[text] = v
	c.mu.Unlock()

	return v, nil
}

// Reset clears the cache and counters.
func (c *CachedEmbedder) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string][]float32)
	c.hits = 0
	c.misses = 0
}

// Stats returns hit and miss counts.
func (c *CachedEmbedder) Stats() (hits, misses int64, size int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses, len(c.entries)
}

var _ Embedder = (*CachedEmbedder)(nil)
