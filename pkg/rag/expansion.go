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
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/creatorcore/creatorcore/pkg/llm"
)

// QueryExpander generates paraphrases of a query with the fast model to
// widen retrieval recall.
type QueryExpander struct {
	engine        *llm.Engine
	numExpansions int
}

// NewQueryExpander creates an expander generating n paraphrases.
func NewQueryExpander(engine *llm.Engine, n int) *QueryExpander {
	if n <= 0 {
		n = 3
	}
	return &QueryExpander{engine: engine, numExpansions: n}
}

// Expand returns the original query first, followed by up to n unique
// paraphrases. Expansion failure degrades to the original query alone.
func (e *QueryExpander) Expand(ctx context.Context, query string) []string {
	queries := []string{query}
	seen := map[string]bool{strings.ToLower(strings.TrimSpace(query)): true}

	prompt := fmt.Sprintf(
		"Rewrite the following search query %d different ways, keeping the same meaning and language. "+
			"Output one rewrite per line with no numbering.\n\nQuery: %s",
		e.numExpansions, query)

	result, err := e.engine.Generate(ctx, llm.GenerateRequest{
		Prompt:  prompt,
		Options: llm.Options{Latency: "fast", Temperature: llm.Temp(0.7)},
	})
	if err != nil || result.Degraded {
		slog.Warn("Query expansion failed, using original query only", "error", err)
		return queries
	}

	for _, line := range strings.Split(result.Content, "\n") {
		candidate := strings.TrimSpace(strings.TrimLeft(line, "-*0123456789. "))
		if candidate == "" {
			continue
		}
		normalized := strings.ToLower(candidate)
		if seen[normalized] {
			continue
		}
		seen[normalized] = true
		queries = append(queries, candidate)
		if len(queries) > e.numExpansions {
			break
		}
	}

	return queries
}
