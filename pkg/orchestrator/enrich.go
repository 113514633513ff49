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

package orchestrator

import (
	"github.com/mitchellh/mapstructure"

	"github.com/creatorcore/creatorcore/pkg/mcp"
)

// Enrichment reason codes recorded in tool_enrichment_result.
const (
	ReasonNotNeeded       = "not_needed"
	ReasonNoSpecOrService = "no_spec_or_service"
	ReasonError           = "error"
	ReasonOK              = "ok"
)

// decodeContext decodes an untyped context payload into a typed value,
// matching keys by json tag so HTTP request bodies round-trip unchanged.
func decodeContext(raw, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  out,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(raw)
}

// toolsRequired reports whether this run must attempt tool enrichment.
// A replan that disabled tools is binding, even for workflows that
// default to enrichment; without it the replan loop would re-enter the
// same failing tool pass.
func toolsRequired(state *State) bool {
	if state.Plan != nil && state.Plan.NeedsTools {
		return true
	}
	if state.Replan != nil && state.Replan.Ran && state.Plan != nil && !state.Plan.NeedsTools {
		return false
	}
	switch state.WorkflowType {
	case WorkflowMission, WorkflowAnalytics, WorkflowDataCollection:
		return true
	}
	return false
}

// buildToolSpec constructs the per-run MCPSpec from the message and the
// request context. Callers may pass a full spec under context["tool_spec"];
// otherwise the spec is assembled from the well-known context keys
// "urls", "youtube_channel", "video_ids", and "profile_url".
func buildToolSpec(state *State) *mcp.Spec {
	if state.Context != nil {
		if raw, ok := state.Context["tool_spec"]; ok {
			var spec mcp.Spec
			if err := decodeContext(raw, &spec); err == nil && !spec.IsEmpty() {
				return &spec
			}
		}
	}

	spec := &mcp.Spec{
		SearchQuery: state.Message(),
		WebLimit:    3,
		URLs:        contextStrings(state.Context, "urls"),
	}

	if channel := contextString(state.Context, "youtube_channel"); channel != "" {
		spec.YouTube = &mcp.YouTubeSpec{ChannelHandle: channel}
	}
	if ids := contextStrings(state.Context, "video_ids"); len(ids) > 0 {
		if spec.YouTube == nil {
			spec.YouTube = &mcp.YouTubeSpec{}
		}
		spec.YouTube.VideoIDs = ids
	}
	if profile := contextString(state.Context, "profile_url"); profile != "" {
		spec.Supadata = &mcp.SupadataSpec{ScrapeURLs: []string{profile}, CrawlLimit: 1}
	}

	if spec.IsEmpty() {
		return nil
	}
	return spec
}

func contextString(ctx map[string]any, key string) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx[key].(string); ok {
		return v
	}
	return ""
}

func contextStrings(ctx map[string]any, key string) []string {
	if ctx == nil {
		return nil
	}
	switch v := ctx[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// enrichedKeys lists the non-empty output families of one pass.
func enrichedKeys(e *mcp.Enrichment) []string {
	if e == nil {
		return nil
	}
	var keys []string
	if len(e.ExternalSnippets) > 0 {
		keys = append(keys, "external_snippets")
	}
	if e.YouTubeInsights != nil {
		keys = append(keys, "youtube_insights")
	}
	if e.Supadata != nil {
		keys = append(keys, "supadata")
	}
	return keys
}
