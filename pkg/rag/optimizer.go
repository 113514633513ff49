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
	"regexp"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

var (
	multiSpace   = regexp.MustCompile(`[ \t]{2,}`)
	multiNewline = regexp.MustCompile(`\n{3,}`)
)

// PromptOptimizer collapses whitespace and trims a prompt to a token
// budget. Token counts come from tiktoken when the encoding loads; the
// fallback estimate is 1.5 characters per token, which is conservative for
// mixed Korean/English text.
type PromptOptimizer struct {
	encoding  *tiktoken.Tiktoken
	maxTokens int
}

// NewPromptOptimizer creates an optimizer with a token budget.
func NewPromptOptimizer(maxTokens int) *PromptOptimizer {
	if maxTokens <= 0 {
		maxTokens = 4000
	}
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		enc = nil
	}
	return &PromptOptimizer{encoding: enc, maxTokens: maxTokens}
}

// CountTokens returns the token count for a text.
func (o *PromptOptimizer) CountTokens(text string) int {
	if o.encoding != nil {
		return len(o.encoding.Encode(text, nil, nil))
	}
	estimated := float64(len(text)) / 1.5
	return int(estimated)
}

// Optimize collapses whitespace and truncates to the token budget from the
// tail, preserving the final query section.
func (o *PromptOptimizer) Optimize(prompt string) string {
	optimized := multiSpace.ReplaceAllString(prompt, " ")
	optimized = multiNewline.ReplaceAllString(optimized, "\n\n")
	optimized = strings.TrimSpace(optimized)

	if o.CountTokens(optimized) <= o.maxTokens {
		return optimized
	}

	// Over budget: drop lines from the middle of the prompt, keeping the
	// leading sections and the trailing query intact.
	lines := strings.Split(optimized, "\n")
	for len(lines) > 10 && o.CountTokens(strings.Join(lines, "\n")) > o.maxTokens {
		mid := len(lines) / 2
		lines = append(lines[:mid], lines[mid+1:]...)
	}
	return strings.Join(lines, "\n")
}
