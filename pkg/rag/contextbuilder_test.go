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
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creatorcore/creatorcore/pkg/retrieval"
)

func TestBuildSectionsInOrder(t *testing.T) {
	b := NewContextBuilder(4000, 20)

	prompt := b.Build(BuildInput{
		Query:       "등급 기준이 뭐야?",
		UserProfile: "tiktok creator, grade A",
		TaskContext: "onboarding",
		Documents:   []retrieval.Document{{ID: "d1", Content: "등급은 S/A/B/C 네 단계입니다.", Score: 0.9}},
		History:     []HistoryTurn{{Role: "user", Content: "안녕"}},
	})

	sections := []string{
		"## 시스템 정보",
		"## 사용자 프로필",
		"## 작업 컨텍스트",
		"## 검색된 지식",
		"## 대화 기록",
		"## 현재 질문",
	}
	last := -1
	for _, section := range sections {
		idx := strings.Index(prompt, section)
		assert.Greater(t, idx, last, "section %q out of order", section)
		last = idx
	}
	assert.Contains(t, prompt, "등급 기준이 뭐야?")
}

func TestBuildOmitsEmptySections(t *testing.T) {
	b := NewContextBuilder(4000, 20)
	prompt := b.Build(BuildInput{Query: "q"})

	assert.NotContains(t, prompt, "## 사용자 프로필")
	assert.NotContains(t, prompt, "## 검색된 지식")
	assert.NotContains(t, prompt, "## 대화 기록")
}

func TestBuildHistoryKeepsLastN(t *testing.T) {
	b := NewContextBuilder(4000, 3)

	history := []HistoryTurn{
		{Role: "user", Content: "first"},
		{Role: "assistant", Content: "second"},
		{Role: "user", Content: "third"},
		{Role: "assistant", Content: "fourth"},
	}
	prompt := b.Build(BuildInput{Query: "q", History: history})

	assert.NotContains(t, prompt, "first")
	assert.Contains(t, prompt, "second")
	assert.Contains(t, prompt, "fourth")
}

func TestTruncateDocPreservesHeadAndTail(t *testing.T) {
	head := strings.Repeat("a", 6000)
	tail := strings.Repeat("z", 6000)
	content := head + tail

	out := truncateDoc(content, 100000)

	assert.LessOrEqual(t, len(out), maxDocChars+len(truncationMarker))
	assert.Contains(t, out, truncationMarker)
	assert.True(t, strings.HasPrefix(out, "aaa"), "head preserved")
	assert.True(t, strings.HasSuffix(out, "zzz"), "tail preserved")
}

func TestTruncateDocShortContentUntouched(t *testing.T) {
	content := "짧은 문서"
	assert.Equal(t, content, truncateDoc(content, 100000))
}

func TestTruncateDocKeepsRunesIntact(t *testing.T) {
	// Hangul syllables are 3 bytes each, so byte-offset cuts land mid-rune
	// unless the cut points snap to rune boundaries.
	content := strings.Repeat("크리에이터 등급과 미션 보상 정책을 안내합니다. ", 300)
	require.Greater(t, len(content), maxDocChars)

	out := truncateDoc(content, 100000)

	assert.True(t, utf8.ValidString(out), "truncation must not split a rune")
	assert.Contains(t, out, truncationMarker)
	assert.True(t, strings.HasPrefix(out, "크리에이터"), "head preserved")
	assert.True(t, strings.HasSuffix(out, "안내합니다. "), "tail preserved")
}

func TestTruncateDocHonorsMinimum(t *testing.T) {
	content := strings.Repeat("x", 2000)
	out := truncateDoc(content, 10)

	// The per-doc floor wins over a tiny remaining budget.
	assert.GreaterOrEqual(t, len(out), minDocChars-len(truncationMarker))
}

func TestIsWeak(t *testing.T) {
	markers := []string{"알 수 없습니다", "i don't know"}
	long := strings.Repeat("이 답변은 충분히 길고 구체적인 내용을 담고 있습니다. ", 10)
	docs := func(n int) []retrieval.Document {
		out := make([]retrieval.Document, n)
		for i := range out {
			out[i] = retrieval.Document{ID: string(rune('a' + i)), Content: "doc"}
		}
		return out
	}

	tests := []struct {
		name   string
		result *Result
		weak   bool
	}{
		{"nil result", nil, true},
		{"no documents", &Result{Answer: long}, true},
		{"empty answer", &Result{Answer: "   ", Documents: docs(1)}, true},
		{"uncertainty marker", &Result{Answer: long + " 알 수 없습니다.", Documents: docs(1)}, true},
		{"english marker", &Result{Answer: "Sorry, I don't know about that topic at all.", Documents: docs(1)}, true},
		{"short with multiple docs", &Result{Answer: "짧은 답", Documents: docs(2)}, true},
		{"short with single doc", &Result{Answer: strings.Repeat("답", 30), Documents: docs(1)}, false},
		{"healthy", &Result{Answer: long, Documents: docs(3)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.weak, IsWeak(tt.result, markers))
		})
	}
}
