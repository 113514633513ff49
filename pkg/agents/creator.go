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

package agents

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/creatorcore/creatorcore/pkg/llm"
	"github.com/creatorcore/creatorcore/pkg/mcp"
	"github.com/creatorcore/creatorcore/pkg/rag"
)

// Score component caps. Components sum to at most 1.0 before penalties.
const (
	capFollowers  = 0.40
	capEngagement = 0.30
	capFrequency  = 0.15
	capBrandFit   = 0.15
)

var (
	followersPattern  = regexp.MustCompile(`(?i)([\d,.]+)\s*([km만천])?\s*(?:followers|팔로워)`)
	engagementPattern = regexp.MustCompile(`(?i)(?:engagement|참여율)\D*([\d.]+)\s*%?`)
)

// CreatorAgent evaluates creator onboarding requests: optional profile
// scrape, deterministic scoring, and an LLM report with a template
// fallback.
type CreatorAgent struct {
	engine   *llm.Engine
	tools    *mcp.Service
	pipeline *rag.Pipeline
}

// NewCreatorAgent creates the agent. tools and pipeline may be nil; both
// enhancement paths degrade gracefully.
func NewCreatorAgent(engine *llm.Engine, tools *mcp.Service, pipeline *rag.Pipeline) *CreatorAgent {
	return &CreatorAgent{engine: engine, tools: tools, pipeline: pipeline}
}

// Evaluate runs the full onboarding flow for one creator.
func (a *CreatorAgent) Evaluate(ctx context.Context, input CreatorInput) (*CreatorEvaluation, error) {
	if input.Platform == "" || input.Handle == "" {
		return nil, fmt.Errorf("platform and handle are required")
	}

	metrics := input.Metrics
	var rawProfile map[string]any

	if metrics == nil && input.ProfileURL != "" && a.tools != nil {
		scraped, profile := a.scrapeProfile(ctx, input.ProfileURL)
		rawProfile = profile
		metrics = scraped
	}
	if metrics == nil {
		metrics = &CreatorMetrics{}
	}

	result := ScoreCreator(input.Platform, input.Handle, metrics)
	result.RawProfile = rawProfile

	if a.pipeline != nil {
		if enhanced := a.enhanceWithRAG(ctx, input, result); enhanced != "" {
			result.Report = enhanced
			result.RAGEnhanced = true
			return result, nil
		}
	}

	result.Report = a.generateReport(ctx, input, result)
	return result, nil
}

// ScoreCreator is the deterministic scoring core: capped component shares,
// risk penalties, grade, and decision.
func ScoreCreator(platform, handle string, m *CreatorMetrics) *CreatorEvaluation {
	// Engagement rates above 1 are percentages; normalize to a fraction.
	engagementRate := m.EngagementRate
	if engagementRate > 1 {
		engagementRate = engagementRate / 100
	}

	breakdown := ScoreBreakdown{
		Followers:  clamp(float64(m.Followers)/1_000_000, 0, capFollowers),
		Engagement: clamp(engagementRate*10, 0, capEngagement),
		Frequency:  clamp(float64(m.Posts30d)/30, 0, capFrequency),
		BrandFit:   clamp(m.BrandFit*0.15, 0, capBrandFit),
	}

	score := breakdown.Followers + breakdown.Engagement + breakdown.Frequency + breakdown.BrandFit

	var risks []string
	if m.Reports90d >= 3 {
		score -= 0.15
		risks = append(risks, RiskHighReports)
	}
	if engagementRate < 0.002 {
		score -= 0.10
		risks = append(risks, RiskLowEngagement)
	}
	if m.Posts30d < 4 {
		score -= 0.05
		risks = append(risks, RiskLowActivity)
	}

	final := math.Round(clamp(score, 0, 1)*1000) / 10

	grade := "C"
	switch {
	case final >= 85:
		grade = "S"
	case final >= 70:
		grade = "A"
	case final >= 55:
		grade = "B"
	}

	decision := "accept"
	switch {
	case containsString(risks, RiskHighReports) || final < 50:
		decision = "reject"
	case containsString(risks, RiskLowActivity) && final < 70:
		decision = "hold"
	}

	var tags []string
	if breakdown.Engagement >= capEngagement {
		tags = append(tags, "high_engagement")
	}
	if m.Followers >= 1_000_000 {
		tags = append(tags, "mega")
	} else if m.Followers >= 100_000 {
		tags = append(tags, "macro")
	}
	tags = append(tags, m.Categories...)

	return &CreatorEvaluation{
		Success:        true,
		Platform:       platform,
		Handle:         handle,
		Decision:       decision,
		Grade:          grade,
		Score:          final,
		ScoreBreakdown: breakdown,
		Tags:           tags,
		Risks:          risks,
	}
}

// scrapeProfile fetches the profile page via Supadata and regex-extracts
// follower and engagement numbers from the text.
func (a *CreatorAgent) scrapeProfile(ctx context.Context, profileURL string) (*CreatorMetrics, map[string]any) {
	spec := &mcp.Spec{
		Supadata: &mcp.SupadataSpec{
			ScrapeURLs: []string{profileURL},
			CrawlLimit: 1,
			NoLinks:    true,
		},
	}
	enrichment := a.tools.Enrich(ctx, spec)
	if enrichment.Supadata == nil {
		slog.Warn("Profile scrape returned nothing", "url", profileURL)
		return nil, nil
	}

	text := flattenSupadataText(enrichment.Supadata)
	metrics := &CreatorMetrics{}

	if m := followersPattern.FindStringSubmatch(text); m != nil {
		metrics.Followers = parseCompactNumber(m[1], m[2])
	}
	if m := engagementPattern.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			metrics.EngagementRate = v
		}
	}

	return metrics, map[string]any{"scrape": enrichment.Supadata}
}

// enhanceWithRAG runs the four context lookups concurrently and feeds them
// into one LLM report. Failures in any branch are captured as values and
// simply leave that section empty.
func (a *CreatorAgent) enhanceWithRAG(ctx context.Context, input CreatorInput, eval *CreatorEvaluation) string {
	queries := map[string]string{
		"similar_creators":  fmt.Sprintf("%s 플랫폼의 %s 등급 크리에이터 사례", input.Platform, eval.Grade),
		"category_insights": fmt.Sprintf("%s 크리에이터 카테고리 트렌드", input.Platform),
		"risk_analysis":     fmt.Sprintf("크리에이터 리스크 요인 %s", strings.Join(eval.Risks, " ")),
		"market_context":    fmt.Sprintf("%s 크리에이터 마케팅 시장 동향", input.Platform),
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	sections := make(map[string]string)

	for name, query := range queries {
		wg.Add(1)
		go func(name, query string) {
			defer wg.Done()
			result, err := a.pipeline.Process(ctx, rag.Request{Query: query})
			if err != nil || result == nil || result.Answer == "" {
				return
			}
			mu.Lock()
			sections[name] = result.Answer
			mu.Unlock()
		}(name, query)
	}
	wg.Wait()

	if len(sections) == 0 {
		return ""
	}

	var contextText strings.Builder
	for name, text := range sections {
		fmt.Fprintf(&contextText, "### %s\n%s\n\n", name, text)
	}

	prompt := fmt.Sprintf(
		"다음 크리에이터 평가 결과와 참고 자료를 바탕으로 한국어 온보딩 평가 리포트를 작성해 주세요.\n\n"+
			"평가: 플랫폼=%s, 핸들=%s, 점수=%.1f, 등급=%s, 결정=%s, 리스크=%v\n\n참고 자료:\n%s",
		input.Platform, input.Handle, eval.Score, eval.Grade, eval.Decision, eval.Risks, contextText.String())

	result, err := a.engine.Generate(ctx, llm.GenerateRequest{
		Prompt:  prompt,
		Options: llm.Options{TaskType: "analysis"},
	})
	if err != nil || result.Degraded {
		return ""
	}
	return result.Content
}

// generateReport produces the evaluation report, falling back to a
// deterministic template when the model is unavailable.
func (a *CreatorAgent) generateReport(ctx context.Context, input CreatorInput, eval *CreatorEvaluation) string {
	prompt := fmt.Sprintf(
		"다음 크리에이터 평가 결과를 바탕으로 간결한 한국어 리포트를 작성해 주세요.\n"+
			"플랫폼=%s, 핸들=%s, 점수=%.1f, 등급=%s, 결정=%s, 리스크=%v",
		input.Platform, input.Handle, eval.Score, eval.Grade, eval.Decision, eval.Risks)

	if a.engine != nil {
		result, err := a.engine.Generate(ctx, llm.GenerateRequest{
			Prompt:  prompt,
			Options: llm.Options{Latency: "fast"},
		})
		if err == nil && !result.Degraded && strings.TrimSpace(result.Content) != "" {
			return result.Content
		}
	}

	// Deterministic template fallback.
	var b strings.Builder
	fmt.Fprintf(&b, "## 크리에이터 평가 리포트: @%s (%s)\n\n", input.Handle, input.Platform)
	fmt.Fprintf(&b, "- 종합 점수: %.1f / 100 (등급 %s)\n", eval.Score, eval.Grade)
	fmt.Fprintf(&b, "- 결정: %s\n", eval.Decision)
	fmt.Fprintf(&b, "- 점수 구성: 팔로워 %.2f, 참여율 %.2f, 활동 빈도 %.2f, 브랜드 적합도 %.2f\n",
		eval.ScoreBreakdown.Followers, eval.ScoreBreakdown.Engagement,
		eval.ScoreBreakdown.Frequency, eval.ScoreBreakdown.BrandFit)
	if len(eval.Risks) > 0 {
		fmt.Fprintf(&b, "- 리스크: %s\n", strings.Join(eval.Risks, ", "))
	}
	return b.String()
}

func flattenSupadataText(data map[string]any) string {
	var b strings.Builder
	var walk func(v any)
	walk = func(v any) {
		switch t := v.(type) {
		case string:
			b.WriteString(t)
			b.WriteString("\n")
		case map[string]any:
			for _, child := range t {
				walk(child)
			}
		case []map[string]any:
			for _, child := range t {
				walk(child)
			}
		case []any:
			for _, child := range t {
				walk(child)
			}
		}
	}
	walk(data)
	return b.String()
}

// parseCompactNumber expands "250k", "1.2m", "35만" style follower counts.
func parseCompactNumber(digits, suffix string) int64 {
	cleaned := strings.ReplaceAll(digits, ",", "")
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	switch strings.ToLower(suffix) {
	case "k", "천":
		v *= 1_000
	case "m":
		v *= 1_000_000
	case "만":
		v *= 10_000
	}
	return int64(v)
}
