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

package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func manyURLs(n int) []string {
	urls := make([]string, n)
	for i := range urls {
		urls[i] = "https://example.com/page"
	}
	return urls
}

func TestSanitizeClampsListsAndLimits(t *testing.T) {
	spec := &Spec{
		SearchQuery: "creator trends",
		URLs:        manyURLs(10),
		WebLimit:    42,
		YouTube:     &YouTubeSpec{VideoIDs: make([]string, 15)},
		Supadata: &SupadataSpec{
			ScrapeURLs:     manyURLs(12),
			TranscriptURLs: manyURLs(9),
			CrawlLimit:     5000,
		},
	}
	spec.Sanitize()

	assert.Len(t, spec.URLs, MaxURLs)
	assert.Equal(t, MaxWebLimit, spec.WebLimit)
	assert.Len(t, spec.YouTube.VideoIDs, MaxVideoIDs)
	assert.Len(t, spec.Supadata.ScrapeURLs, MaxScrapeURLs)
	assert.Len(t, spec.Supadata.TranscriptURLs, MaxTranscriptURLs)
	assert.Equal(t, MaxCrawlLimit, spec.Supadata.CrawlLimit)
}

func TestSanitizeDropsNonHTTPURLs(t *testing.T) {
	spec := &Spec{
		URLs: []string{
			"https://example.com/a",
			"ftp://example.com/b",
			"javascript:alert(1)",
			"http://example.com/c",
			"not a url",
		},
		WebLimit: 3,
	}
	spec.Sanitize()

	assert.Equal(t, []string{"https://example.com/a", "http://example.com/c"}, spec.URLs)
}

func TestSanitizeCoercesBounds(t *testing.T) {
	spec := &Spec{WebLimit: 0, Supadata: &SupadataSpec{ScrapeURLs: manyURLs(1), CrawlLimit: -5}}
	spec.Sanitize()

	assert.Equal(t, 1, spec.WebLimit, "web_limit coerced into [1,6]")
	assert.Equal(t, 1, spec.Supadata.CrawlLimit, "crawl_limit coerced into [1,200]")
}

func TestSanitizeInvalidPriorityCleared(t *testing.T) {
	spec := &Spec{SearchQuery: "q", ToolPriority: "whatever"}
	spec.Sanitize()
	assert.Empty(t, spec.ToolPriority)

	spec.ToolPriority = PrioritySupadataFirst
	spec.Sanitize()
	assert.Equal(t, PrioritySupadataFirst, spec.ToolPriority)
}

func TestSanitizeIsIdempotent(t *testing.T) {
	spec := &Spec{
		SearchQuery:  "creator trends",
		URLs:         append(manyURLs(8), "ftp://example.com/x"),
		WebLimit:     99,
		ToolPriority: PriorityParallel,
		YouTube:      &YouTubeSpec{ChannelHandle: "@handle", VideoIDs: make([]string, 20)},
		Supadata:     &SupadataSpec{ScrapeURLs: manyURLs(10), CrawlLimit: 0},
	}

	spec.Sanitize()
	first := *spec
	firstURLs := append([]string(nil), spec.URLs...)

	spec.Sanitize()
	assert.Equal(t, first.WebLimit, spec.WebLimit)
	assert.Equal(t, firstURLs, spec.URLs)
	assert.Equal(t, first.ToolPriority, spec.ToolPriority)
	assert.Len(t, spec.Supadata.ScrapeURLs, MaxScrapeURLs)
}

func TestSpecIsEmpty(t *testing.T) {
	require.True(t, (&Spec{}).IsEmpty())
	require.True(t, (*Spec)(nil).IsEmpty())

	assert.False(t, (&Spec{SearchQuery: "q"}).IsEmpty())
	assert.False(t, (&Spec{YouTube: &YouTubeSpec{ChannelHandle: "@x"}}).IsEmpty())
	assert.False(t, (&Spec{Supadata: &SupadataSpec{MapURL: "https://example.com"}}).IsEmpty())

	// Empty nested specs are still empty overall.
	assert.True(t, (&Spec{YouTube: &YouTubeSpec{}, Supadata: &SupadataSpec{}}).IsEmpty())
}
