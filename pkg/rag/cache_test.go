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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheKeyNormalizes(t *testing.T) {
	base := CacheKey("크리에이터 등급 기준이 뭐야?")

	assert.Equal(t, base, CacheKey("  크리에이터 등급 기준이 뭐야?  "))
	assert.Equal(t, CacheKey("What Is The Policy"), CacheKey("what is the policy"))
	assert.NotEqual(t, base, CacheKey("다른 질문"))
}

func TestCacheHitReturnsCopyWithCachedFlag(t *testing.T) {
	cache := NewSemanticCache(time.Hour)
	cache.Put("질문", &Result{Answer: "답변"})

	got := cache.Get("  질문 ")
	require.NotNil(t, got, "case/whitespace variants must hit the same entry")
	assert.Equal(t, "답변", got.Answer)
	assert.True(t, got.Cached)

	// The returned value is a copy; mutating it must not poison the cache.
	got.Answer = "변조"
	again := cache.Get("질문")
	require.NotNil(t, again)
	assert.Equal(t, "답변", again.Answer)
}

func TestCacheMiss(t *testing.T) {
	cache := NewSemanticCache(time.Hour)
	assert.Nil(t, cache.Get("없는 질문"))

	hits, misses, size := cache.Stats()
	assert.Zero(t, hits)
	assert.EqualValues(t, 1, misses)
	assert.Zero(t, size)
}

func TestCacheTTLExpiry(t *testing.T) {
	cache := NewSemanticCache(time.Hour)
	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return clock }

	cache.Put("질문", &Result{Answer: "답변"})

	clock = clock.Add(59 * time.Minute)
	assert.NotNil(t, cache.Get("질문"))

	clock = clock.Add(2 * time.Minute)
	assert.Nil(t, cache.Get("질문"), "entry past its TTL must not be served")

	_, _, size := cache.Stats()
	assert.Zero(t, size, "expired entry is evicted on read")
}

func TestCacheReset(t *testing.T) {
	cache := NewSemanticCache(time.Hour)
	cache.Put("질문", &Result{Answer: "답변"})

	cache.Reset()
	assert.Nil(t, cache.Get("질문"))
}
