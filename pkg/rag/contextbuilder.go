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
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/creatorcore/creatorcore/pkg/retrieval"
)

const (
	minDocChars = 800
	maxDocChars = 8000

	truncationMarker = "\n[... 이후 내용 생략 ...]\n"
)

// ContextBuilder assembles the structured prompt the generation stage
// receives: system meta, user profile, task context, retrieved knowledge,
// conversation history, and the current query.
type ContextBuilder struct {
	// MaxContextTokens bounds the retrieved-knowledge section at roughly
	// MaxContextTokens*4 characters.
	MaxContextTokens int

	// HistoryLimit caps conversation turns included.
	HistoryLimit int

	now func() time.Time
}

// HistoryTurn is one prior conversation exchange.
type HistoryTurn struct {
	Role    string
	Content string
}

// BuildInput carries everything the builder folds into a prompt.
type BuildInput struct {
	Query       string
	UserProfile string
	TaskContext string
	Documents   []retrieval.Document
	History     []HistoryTurn
}

// NewContextBuilder creates a builder with the given budgets.
func NewContextBuilder(maxContextTokens, historyLimit int) *ContextBuilder {
	if maxContextTokens <= 0 {
		maxContextTokens = 4000
	}
	if historyLimit <= 0 {
		historyLimit = 20
	}
	return &ContextBuilder{
		MaxContextTokens: maxContextTokens,
		HistoryLimit:     historyLimit,
		now:              time.Now,
	}
}

// Build assembles the full prompt.
func (b *ContextBuilder) Build(in BuildInput) string {
	var sb strings.Builder

	sb.WriteString("## 시스템 정보\n")
	fmt.Fprintf(&sb, "현재 시각: %s\n\n", b.now().Format("2006-01-02 15:04 MST"))

	if in.UserProfile != "" {
		sb.WriteString("## 사용자 프로필\n")
		sb.WriteString(in.UserProfile)
		sb.WriteString("\n\n")
	}

	if in.TaskContext != "" {
		sb.WriteString("## 작업 컨텍스트\n")
		sb.WriteString(in.TaskContext)
		sb.WriteString("\n\n")
	}

	if len(in.Documents) > 0 {
		sb.WriteString("## 검색된 지식\n")
		budget := b.MaxContextTokens * 4
		used := 0
		for i, doc := range in.Documents {
			if used >= budget {
				sb.WriteString(truncationMarker)
				break
			}
			content := truncateDoc(doc.Content, budget-used)
			fmt.Fprintf(&sb, "[문서 %d] (관련도 %.2f)\n%s\n\n", i+1, doc.Score, content)
			used += len(content)
		}
	}

	if len(in.History) > 0 {
		history := in.History
		if len(history) > b.HistoryLimit {
			history = history[len(history)-b.HistoryLimit:]
		}
		sb.WriteString("## 대화 기록\n")
		for _, turn := range history {
			fmt.Fprintf(&sb, "%s: %s\n", turn.Role, turn.Content)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## 현재 질문\n")
	sb.WriteString(in.Query)

	return sb.String()
}

// truncateDoc bounds one document between minDocChars and maxDocChars,
// clipped to the remaining section budget. Long documents keep their head
// and tail with a marker in the middle, since conclusions often carry as
// much signal as openings. Cut points snap to rune boundaries so multi-byte
// text never yields invalid UTF-8.
func truncateDoc(content string, remaining int) string {
	limit := maxDocChars
	if remaining < limit {
		limit = remaining
	}
	if limit < minDocChars {
		limit = minDocChars
	}
	if len(content) <= limit {
		return content
	}

	headLen := limit * 2 / 3
	tailLen := limit - headLen - len(truncationMarker)
	if tailLen <= 0 {
		return cutHead(content, limit)
	}
	return cutHead(content, headLen) + truncationMarker + cutTail(content, tailLen)
}

// cutHead returns at most n leading bytes of s, backed off to a rune start.
func cutHead(s string, n int) string {
	if n >= len(s) {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// cutTail returns at most n trailing bytes of s, advanced to a rune start.
func cutTail(s string, n int) string {
	if n >= len(s) {
		return s
	}
	start := len(s) - n
	for start < len(s) && !utf8.RuneStart(s[start]) {
		start++
	}
	return s[start:]
}
