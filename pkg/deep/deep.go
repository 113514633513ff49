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

// Package deep implements the iterative self-critique loop for complex
// queries: draft, critique, revise, until the critic's quality score clears
// the threshold or the step budget runs out.
package deep

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/creatorcore/creatorcore/pkg/config"
	"github.com/creatorcore/creatorcore/pkg/llm"
)

// Result is the loop output plus its trace.
type Result struct {
	Answer       string   `json:"answer"`
	Steps        int      `json:"steps"`
	FinalQuality float64  `json:"final_quality"`
	Trace        []string `json:"trace"`
}

// Agent runs the draft/critique/revise loop on the deep model slot.
type Agent struct {
	engine *llm.Engine
	cfg    config.DeepAgentsConfig
}

// New creates a deep agent.
func New(engine *llm.Engine, cfg config.DeepAgentsConfig) *Agent {
	cfg.SetDefaults()
	return &Agent{engine: engine, cfg: cfg}
}

// Run executes the loop. Model failures end the loop with the best answer
// so far; the caller always receives a usable string.
func (a *Agent) Run(ctx context.Context, query string) (*Result, error) {
	result := &Result{}

	draft, err := a.engine.Generate(ctx, llm.GenerateRequest{
		SystemPrompt: "복잡한 질문에 단계적으로 깊이 있게 답하는 전문가입니다.",
		Prompt:       query,
		Options:      llm.Options{Complexity: "deep"},
	})
	if err != nil && draft == nil {
		return nil, fmt.Errorf("deep agent draft failed: %w", err)
	}

	answer := draft.Content
	result.Steps = 1
	result.Trace = append(result.Trace, "draft")

	for step := 2; step <= a.cfg.MaxSteps; step++ {
		quality, critique := a.critique(ctx, query, answer)
		result.FinalQuality = quality
		result.Trace = append(result.Trace, fmt.Sprintf("critique %.2f", quality))

		if quality >= a.cfg.QualityThreshold {
			break
		}

		revised, err := a.engine.Generate(ctx, llm.GenerateRequest{
			SystemPrompt: "비평을 반영해 답변을 개선하는 전문가입니다.",
			Prompt: fmt.Sprintf("질문: %s\n\n현재 답변:\n%s\n\n비평:\n%s\n\n비평을 반영해 답변을 개선하세요.",
				query, answer, critique),
			Options: llm.Options{Complexity: "deep"},
		})
		if err != nil || revised.Degraded {
			slog.Warn("Deep agent revision failed, keeping current answer", "step", step, "error", err)
			break
		}

		answer = revised.Content
		result.Steps = step
		result.Trace = append(result.Trace, "revise")
	}

	result.Answer = answer
	return result, nil
}

// critique runs up to critic_rounds critic passes and averages their
// scores. The returned critique text is the last round's feedback.
func (a *Agent) critique(ctx context.Context, query, answer string) (float64, string) {
	var total float64
	var rounds int
	var feedback string

	for round := 0; round < a.cfg.CriticRounds; round++ {
		result, err := a.engine.Generate(ctx, llm.GenerateRequest{
			Prompt: fmt.Sprintf(
				"질문: %s\n\n답변:\n%s\n\n이 답변의 품질을 0.0~1.0 점수로 평가하고 개선점을 제시하세요. "+
					"첫 줄에 'SCORE: <점수>'만 쓰고, 다음 줄부터 비평을 쓰세요.",
				query, answer),
			Options: llm.Options{Latency: "fast", Temperature: llm.Temp(0)},
		})
		if err != nil || result.Degraded {
			continue
		}

		score, rest := parseCriticOutput(result.Content)
		total += score
		rounds++
		if rest != "" {
			feedback = rest
		}
	}

	if rounds == 0 {
		// No critic signal; treat the answer as good enough to stop.
		return 1, ""
	}
	return total / float64(rounds), feedback
}

func parseCriticOutput(content string) (float64, string) {
	lines := strings.SplitN(strings.TrimSpace(content), "\n", 2)
	first := strings.ToUpper(strings.TrimSpace(lines[0]))

	score := 0.5
	if strings.HasPrefix(first, "SCORE:") {
		if v, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimPrefix(first, "SCORE:")), 64); err == nil {
			if v < 0 {
				v = 0
			}
			if v > 1 {
				v = 1
			}
			score = v
		}
	}

	rest := ""
	if len(lines) > 1 {
		rest = strings.TrimSpace(lines[1])
	}
	return score, rest
}
