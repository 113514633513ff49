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

// Package rag implements the retrieval-augmented generation pipeline:
// semantic cache, query expansion, hybrid retrieval, rerank, context build,
// generation, hallucination check, and refinement.
package rag

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"
)

// SemanticCache stores full pipeline responses keyed by the normalized
// query. The key is the SHA-256 of the lowercased, trimmed query text, so
// trivially rephrased whitespace and casing variants hit the same entry.
type SemanticCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time

	hits   int64
	misses int64
}

type cacheEntry struct {
	result    *Result
	expiresAt time.Time
}

// NewSemanticCache creates a cache with the given TTL.
func NewSemanticCache(ttl time.Duration) *SemanticCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SemanticCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// CacheKey normalizes a query and returns its cache key.
func CacheKey(query string) string {
	normalized := strings.ToLower(strings.TrimSpace(query))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// Get returns a TTL-valid cached result, or nil.
func (c *SemanticCache) Get(query string) *Result {
	key := CacheKey(query)

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || c.now().After(entry.expiresAt) {
		c.mu.Lock()
		if !ok {
			c.misses++
		} else {
			delete(c.entries, key)
			c.misses++
		}
		c.mu.Unlock()
		return nil
	}

	c.mu.Lock()
	c.hits++
	c.mu.Unlock()

	cached := *entry.result
	cached.Cached = true
	return &cached
}

// Put stores a result under the query's key.
func (c *SemanticCache) Put(query string, result *Result) {
	key := CacheKey(query)
	stored := *result
	stored.Cached = false

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{
		result:    &stored,
		expiresAt: c.now().Add(c.ttl),
	}
}

// Reset clears the cache.
func (c *SemanticCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
	c.hits = 0
	c.misses = 0
}

// Stats returns hit/miss counts and the entry count.
func (c *SemanticCache) Stats() (hits, misses int64, size int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses, len(c.entries)
}
