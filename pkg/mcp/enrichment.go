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
	"context"
	"sync"
)

// Enrichment is the merged output of one tool pass.
type Enrichment struct {
	ExternalSnippets []string                   `json:"external_snippets,omitempty"`
	ExternalSources  map[string]any             `json:"external_sources,omitempty"`
	YouTubeInsights  map[string]any             `json:"youtube_insights,omitempty"`
	Supadata         map[string]any             `json:"supadata,omitempty"`
	ToolPolicy       map[string]ExecutionRecord `json:"tool_policy"`
}

// Service runs one enrichment pass per the spec's tool-priority policy.
type Service struct {
	executor *Executor
	web      *WebTool
	youtube  *YouTubeTool
	supadata *SupadataTool
}

// NewService wires the three tool families to the executor.
func NewService(executor *Executor, web *WebTool, youtube *YouTubeTool, supadata *SupadataTool) *Service {
	return &Service{
		executor: executor,
		web:      web,
		youtube:  youtube,
		supadata: supadata,
	}
}

// Enrich sanitizes the spec and executes it:
//
//   - "parallel": web and supadata run concurrently, results merged;
//   - "supadata_first" (default when URLs exist): supadata, then web only
//     if supadata produced nothing;
//   - otherwise web first, then a supadata scrape pass over the spec's URL
//     list when web only yielded snippets.
//
// YouTube lookups always run when the spec selects them.
func (s *Service) Enrich(ctx context.Context, spec *Spec) *Enrichment {
	out := &Enrichment{ToolPolicy: make(map[string]ExecutionRecord)}
	if spec.IsEmpty() {
		return out
	}
	spec.Sanitize()

	priority := spec.ToolPriority
	if priority == "" && s.hasSupadataWork(spec) {
		priority = PrioritySupadataFirst
	}

	switch priority {
	case PriorityParallel:
		s.runParallel(ctx, spec, out)
	case PrioritySupadataFirst:
		s.runSupadata(ctx, spec, out)
		if out.Supadata == nil {
			s.runWeb(ctx, spec, out)
		}
	default:
		s.runWeb(ctx, spec, out)
		// Second pass: scrape the URL list when web search alone came back.
		if len(out.ExternalSnippets) > 0 && len(spec.URLs) > 0 && out.Supadata == nil {
			scrapeSpec := &Spec{Supadata: &SupadataSpec{ScrapeURLs: spec.URLs, CrawlLimit: 1}}
			scrapeSpec.Sanitize()
			s.runSupadata(ctx, scrapeSpec, out)
		}
	}

	s.runYouTube(ctx, spec, out)
	return out
}

func (s *Service) hasSupadataWork(spec *Spec) bool {
	if spec.Supadata != nil && (len(spec.Supadata.ScrapeURLs) > 0 || len(spec.Supadata.TranscriptURLs) > 0 ||
		spec.Supadata.MapURL != "" || spec.Supadata.CrawlURL != "") {
		return true
	}
	return len(spec.URLs) > 0
}

func (s *Service) runParallel(ctx context.Context, spec *Spec, out *Enrichment) {
	var wg sync.WaitGroup
	var mu sync.Mutex

	wg.Add(2)
	go func() {
		defer wg.Done()
		local := &Enrichment{ToolPolicy: make(map[string]ExecutionRecord)}
		s.runWeb(ctx, spec, local)
		mu.Lock()
		mergeEnrichment(out, local)
		mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		local := &Enrichment{ToolPolicy: make(map[string]ExecutionRecord)}
		s.runSupadata(ctx, spec, local)
		mu.Lock()
		mergeEnrichment(out, local)
		mu.Unlock()
	}()
	wg.Wait()
}

func (s *Service) runWeb(ctx context.Context, spec *Spec, out *Enrichment) {
	if s.web == nil || spec.SearchQuery == "" {
		return
	}

	result, record := s.executor.Execute(ctx, "web", func(ctx context.Context) (map[string]any, error) {
		return s.web.Search(ctx, spec.SearchQuery, spec.WebLimit)
	})
	out.ToolPolicy["web"] = record
	if result == nil {
		return
	}

	if snippet, ok := result["result"].(string); ok && snippet != "" {
		out.ExternalSnippets = append(out.ExternalSnippets, snippet)
	}
	if snippets, ok := result["results"].([]string); ok {
		out.ExternalSnippets = append(out.ExternalSnippets, snippets...)
	}

	if out.ExternalSources == nil {
		out.ExternalSources = make(map[string]any)
	}
	out.ExternalSources["web"] = map[string]any{
		"query": spec.SearchQuery,
		"urls":  spec.URLs,
	}
}

func (s *Service) runSupadata(ctx context.Context, spec *Spec, out *Enrichment) {
	if s.supadata == nil {
		return
	}

	supaSpec := spec.Supadata
	if supaSpec == nil {
		if len(spec.URLs) == 0 {
			return
		}
		supaSpec = &SupadataSpec{ScrapeURLs: spec.URLs, CrawlLimit: 1}
	}
	if len(supaSpec.ScrapeURLs) == 0 && len(supaSpec.TranscriptURLs) == 0 &&
		supaSpec.MapURL == "" && supaSpec.CrawlURL == "" {
		return
	}

	result, record := s.executor.Execute(ctx, "supadata", func(ctx context.Context) (map[string]any, error) {
		return s.supadata.Run(ctx, supaSpec)
	})
	out.ToolPolicy["supadata"] = record
	if result == nil {
		return
	}

	out.Supadata = result
	if out.ExternalSources == nil {
		out.ExternalSources = make(map[string]any)
	}
	out.ExternalSources["supadata"] = supaSpec
}

func (s *Service) runYouTube(ctx context.Context, spec *Spec, out *Enrichment) {
	yt := spec.YouTube
	if s.youtube == nil || yt == nil {
		return
	}
	if yt.ChannelID == "" && yt.ChannelHandle == "" && len(yt.VideoIDs) == 0 {
		return
	}

	result, record := s.executor.Execute(ctx, "youtube", func(ctx context.Context) (map[string]any, error) {
		insights := make(map[string]any)
		if yt.ChannelID != "" || yt.ChannelHandle != "" {
			channel, err := s.youtube.Channel(ctx, yt.ChannelID, yt.ChannelHandle)
			if err != nil {
				return nil, err
			}
			insights["channel"] = channel
		}
		if len(yt.VideoIDs) > 0 {
			videos, err := s.youtube.Videos(ctx, yt.VideoIDs)
			if err != nil {
				return nil, err
			}
			insights["videos"] = videos
		}
		return insights, nil
	})
	out.ToolPolicy["youtube"] = record
	if result != nil {
		out.YouTubeInsights = result
	}
}

// mergeEnrichment folds src into dst. Used by the parallel policy.
func mergeEnrichment(dst, src *Enrichment) {
	dst.ExternalSnippets = append(dst.ExternalSnippets, src.ExternalSnippets...)
	if src.YouTubeInsights != nil {
		dst.YouTubeInsights = src.YouTubeInsights
	}
	if src.Supadata != nil {
		dst.Supadata = src.Supadata
	}
	if src.ExternalSources != nil {
		if dst.ExternalSources == nil {
			dst.ExternalSources = make(map[string]any)
		}
		for k, v := range src.ExternalSources {
			dst.ExternalSources[k] = v
		}
	}
	for k, v := range src.ToolPolicy {
		dst.ToolPolicy[k] = v
	}
}

// Succeeded reports whether any tool family produced output.
func (e *Enrichment) Succeeded() bool {
	return len(e.ExternalSnippets) > 0 || e.YouTubeInsights != nil || e.Supadata != nil
}

// AllFailed reports whether every attempted tool either failed or was
// skipped by an open breaker. An empty pass is not a failure.
func (e *Enrichment) AllFailed() bool {
	if len(e.ToolPolicy) == 0 {
		return false
	}
	for _, record := range e.ToolPolicy {
		if record.OK {
			return false
		}
	}
	return true
}
