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
	"fmt"

	"golang.org/x/sync/errgroup"
)

// WebTool wraps the web search and fetch tool server.
type WebTool struct {
	client *Client
}

// NewWebTool creates the web tool wrapper.
func NewWebTool(client *Client) *WebTool { return &WebTool{client: client} }

// Search runs a web search, returning up to limit snippet results.
func (t *WebTool) Search(ctx context.Context, query string, limit int) (map[string]any, error) {
	return t.client.Call(ctx, "web_search", map[string]any{
		"query": query,
		"limit": limit,
	})
}

// Fetch retrieves page content for a URL.
func (t *WebTool) Fetch(ctx context.Context, url string) (map[string]any, error) {
	return t.client.Call(ctx, "web_fetch", map[string]any{
		"url": url,
	})
}

// YouTubeTool wraps the YouTube metadata tool server.
type YouTubeTool struct {
	client *Client
}

// NewYouTubeTool creates the YouTube tool wrapper.
func NewYouTubeTool(client *Client) *YouTubeTool { return &YouTubeTool{client: client} }

// Channel fetches channel metadata by id or handle.
func (t *YouTubeTool) Channel(ctx context.Context, channelID, channelHandle string) (map[string]any, error) {
	args := map[string]any{}
	if channelID != "" {
		args["channel_id"] = channelID
	}
	if channelHandle != "" {
		args["channel_handle"] = channelHandle
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("channel_id or channel_handle is required")
	}
	return t.client.Call(ctx, "youtube_channel", args)
}

// Videos fetches metadata for a set of video ids. The sub-fetches run
// concurrently; one failing video never cancels the others.
func (t *YouTubeTool) Videos(ctx context.Context, videoIDs []string) (map[string]any, error) {
	if len(videoIDs) == 0 {
		return nil, fmt.Errorf("video_ids is required")
	}

	results := make([]map[string]any, len(videoIDs))
	errs := make([]error, len(videoIDs))

	var g errgroup.Group
	for i, id := range videoIDs {
		i, id := i, id
		g.Go(func() error {
			r, err := t.client.Call(ctx, "youtube_video", map[string]any{"video_id": id})
			results[i] = r
			errs[i] = err
			return nil
		})
	}
	_ = g.Wait()

	videos := make([]map[string]any, 0, len(videoIDs))
	var firstErr error
	for i := range videoIDs {
		if errs[i] != nil {
			if firstErr == nil {
				firstErr = errs[i]
			}
			continue
		}
		videos = append(videos, results[i])
	}

	if len(videos) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return map[string]any{"videos": videos}, nil
}

// SupadataTool wraps the Supadata scrape/transcript/crawl tool server.
type SupadataTool struct {
	client *Client
}

// NewSupadataTool creates the Supadata tool wrapper.
func NewSupadataTool(client *Client) *SupadataTool { return &SupadataTool{client: client} }

// Run executes every operation the spec selects and merges the outputs.
func (t *SupadataTool) Run(ctx context.Context, spec *SupadataSpec) (map[string]any, error) {
	if spec == nil {
		return nil, fmt.Errorf("supadata spec is nil")
	}

	out := make(map[string]any)
	var lastErr error

	if len(spec.ScrapeURLs) > 0 {
		scraped := make([]map[string]any, 0, len(spec.ScrapeURLs))
		for _, u := range spec.ScrapeURLs {
			r, err := t.client.Call(ctx, "supadata_scrape", map[string]any{
				"url":      u,
				"lang":     spec.Lang,
				"no_links": spec.NoLinks,
			})
			if err != nil {
				lastErr = err
				continue
			}
			r["url"] = u
			scraped = append(scraped, r)
		}
		if len(scraped) > 0 {
			out["scraped"] = scraped
		}
	}

	if len(spec.TranscriptURLs) > 0 {
		transcripts := make([]map[string]any, 0, len(spec.TranscriptURLs))
		for _, u := range spec.TranscriptURLs {
			r, err := t.client.Call(ctx, "supadata_transcript", map[string]any{
				"url":  u,
				"text": spec.TranscriptText,
				"mode": spec.TranscriptMode,
				"lang": spec.Lang,
			})
			if err != nil {
				lastErr = err
				continue
			}
			r["url"] = u
			transcripts = append(transcripts, r)
		}
		if len(transcripts) > 0 {
			out["transcripts"] = transcripts
		}
	}

	if spec.MapURL != "" {
		r, err := t.client.Call(ctx, "supadata_map", map[string]any{"url": spec.MapURL})
		if err != nil {
			lastErr = err
		} else {
			out["map"] = r
		}
	}

	if spec.CrawlURL != "" {
		r, err := t.client.Call(ctx, "supadata_crawl", map[string]any{
			"url":   spec.CrawlURL,
			"limit": spec.CrawlLimit,
		})
		if err != nil {
			lastErr = err
		} else {
			out["crawl"] = r
		}
	}

	if len(out) == 0 {
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, fmt.Errorf("supadata spec selected no operations")
	}
	return out, nil
}
