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
	"github.com/creatorcore/creatorcore/pkg/retrieval"
)

// minRefineLength is the answer length below which refinement is skipped.
const minRefineLength = 50

// hallucinationWarning is appended when the support check answers NO.
const hallucinationWarning = "\n\n⚠️ 참고: 위 답변의 일부 내용은 검색된 문서에서 직접 확인되지 않았습니다. 정확한 정보는 원본 자료를 확인해 주세요."

// Refiner runs the post-generation stages: hallucination check and Korean
// persona/markdown refinement.
type Refiner struct {
	engine *llm.Engine
}

// NewRefiner creates a refiner over an engine.
func NewRefiner(engine *llm.Engine) *Refiner {
	return &Refiner{engine: engine}
}

// CheckSupport asks the fast model whether the answer is supported by the
// top-3 context documents. On NO, a warning paragraph is appended. Errors
// degrade to returning the answer untouched.
func (r *Refiner) CheckSupport(ctx context.Context, answer string, docs []retrieval.Document) string {
	if len(docs) == 0 || answer == "" {
		return answer
	}

	top := docs
	if len(top) > 3 {
		top = top[:3]
	}

	var contextText strings.Builder
	for i, doc := range top {
		content := doc.Content
		if len(content) > 1000 {
			content = content[:1000]
		}
		fmt.Fprintf(&contextText, "[%d] %s\n", i+1, content)
	}

	prompt := fmt.Sprintf(
		"Context documents:\n%s\nClaim:\n%s\n\nIs the claim supported by the context documents? Answer only YES or NO.",
		contextText.String(), answer)

	result, err := r.engine.Generate(ctx, llm.GenerateRequest{
		Prompt:  prompt,
		Options: llm.Options{Latency: "fast", Temperature: llm.Temp(0)},
	})
	if err != nil || result.Degraded {
		slog.Warn("Hallucination check failed, keeping answer as-is", "error", err)
		return answer
	}

	if strings.Contains(strings.ToUpper(result.Content), "NO") &&
		!strings.Contains(strings.ToUpper(result.Content), "YES") {
		return answer + hallucinationWarning
	}
	return answer
}

// Refine applies the persona and markdown formatting pass in Korean.
// Answers shorter than minRefineLength characters are returned unchanged.
func (r *Refiner) Refine(ctx context.Context, answer string) string {
	if len(answer) < minRefineLength {
		return answer
	}

	prompt := fmt.Sprintf(
		"다음 답변을 친근하면서도 전문적인 어조의 한국어로 다듬고, 읽기 쉬운 마크다운 형식으로 정리해 주세요. "+
			"내용은 바꾸지 말고 형식과 어조만 개선하세요.\n\n%s", answer)

	result, err := r.engine.Generate(ctx, llm.GenerateRequest{
		Prompt:  prompt,
		Options: llm.Options{Latency: "fast", Temperature: llm.Temp(0.3)},
	})
	if err != nil || result.Degraded || strings.TrimSpace(result.Content) == "" {
		slog.Warn("Refinement failed, keeping raw answer", "error", err)
		return answer
	}
	return result.Content
}
