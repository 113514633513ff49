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

// Package mcp wraps the three external tool families (web search, YouTube,
// Supadata) behind typed clients with per-family circuit breakers, retry
// policies, and input sanitization.
package mcp

import (
	"net/url"
	"strings"
)

// List caps applied by Sanitize.
const (
	MaxURLs           = 6
	MaxWebLimit       = 6
	MaxVideoIDs       = 10
	MaxScrapeURLs     = 8
	MaxTranscriptURLs = 5
	MaxCrawlLimit     = 200
)

// Tool priority policies for one enrichment pass.
const (
	PriorityParallel      = "parallel"
	PrioritySupadataFirst = "supadata_first"
)

// YouTubeSpec selects YouTube lookups.
type YouTubeSpec struct {
	ChannelID     string   `json:"channel_id,omitempty"`
	ChannelHandle string   `json:"channel_handle,omitempty"`
	VideoIDs      []string `json:"video_ids,omitempty"`
	MaxVideos     int      `json:"max_videos,omitempty"`
}

// SupadataSpec selects Supadata scrape/transcript/crawl operations.
type SupadataSpec struct {
	ScrapeURLs     []string `json:"scrape_urls,omitempty"`
	TranscriptURLs []string `json:"transcript_urls,omitempty"`
	MapURL         string   `json:"map_url,omitempty"`
	CrawlURL       string   `json:"crawl_url,omitempty"`
	CrawlLimit     int      `json:"crawl_limit,omitempty"`
	Lang           string   `json:"lang,omitempty"`
	NoLinks        bool     `json:"no_links,omitempty"`
	TranscriptText bool     `json:"transcript_text,omitempty"`
	TranscriptMode string   `json:"transcript_mode,omitempty"`
}

// Spec is the per-agent tool request built from orchestrator state.
type Spec struct {
	SearchQuery  string        `json:"search_query,omitempty"`
	URLs         []string      `json:"urls,omitempty"`
	WebLimit     int           `json:"web_limit,omitempty"`
	ToolPriority string        `json:"tool_priority,omitempty"`
	YouTube      *YouTubeSpec  `json:"youtube,omitempty"`
	Supadata     *SupadataSpec `json:"supadata,omitempty"`
}

// IsEmpty reports whether the spec requests no work.
func (s *Spec) IsEmpty() bool {
	if s == nil {
		return true
	}
	return s.SearchQuery == "" && len(s.URLs) == 0 &&
		(s.YouTube == nil || (s.YouTube.ChannelID == "" && s.YouTube.ChannelHandle == "" && len(s.YouTube.VideoIDs) == 0)) &&
		(s.Supadata == nil || (len(s.Supadata.ScrapeURLs) == 0 && len(s.Supadata.TranscriptURLs) == 0 &&
			s.Supadata.MapURL == "" && s.Supadata.CrawlURL == ""))
}

// Sanitize clamps list lengths and drops non-http(s) URLs. It is
// idempotent: sanitizing an already-sanitized spec changes nothing.
func (s *Spec) Sanitize() {
	if s == nil {
		return
	}

	s.URLs = filterHTTPURLs(s.URLs, MaxURLs)
	s.WebLimit = clampInt(s.WebLimit, 1, MaxWebLimit)

	if s.ToolPriority != PriorityParallel && s.ToolPriority != PrioritySupadataFirst {
		s.ToolPriority = ""
	}

	if s.YouTube != nil {
		if len(s.YouTube.VideoIDs) > MaxVideoIDs {
			s.YouTube.VideoIDs = s.YouTube.VideoIDs[:MaxVideoIDs]
		}
	}

	if s.Supadata != nil {
		s.Supadata.ScrapeURLs = filterHTTPURLs(s.Supadata.ScrapeURLs, MaxScrapeURLs)
		s.Supadata.TranscriptURLs = filterHTTPURLs(s.Supadata.TranscriptURLs, MaxTranscriptURLs)
		if !isHTTPURL(s.Supadata.MapURL) {
			s.Supadata.MapURL = ""
		}
		if !isHTTPURL(s.Supadata.CrawlURL) {
			s.Supadata.CrawlURL = ""
		}
		s.Supadata.CrawlLimit = clampInt(s.Supadata.CrawlLimit, 1, MaxCrawlLimit)
	}
}

func filterHTTPURLs(urls []string, max int) []string {
	if urls == nil {
		return nil
	}
	filtered := make([]string, 0, len(urls))
	for _, u := range urls {
		if isHTTPURL(u) {
			filtered = append(filtered, u)
		}
		if len(filtered) == max {
			break
		}
	}
	return filtered
}

func isHTTPURL(raw string) bool {
	if raw == "" {
		return false
	}
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
