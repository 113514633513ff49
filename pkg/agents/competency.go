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
	"fmt"
	"regexp"
	"sort"
)

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phonePattern = regexp.MustCompile(`(\+?\d{1,3}[-. ]?)?\(?\d{2,4}\)?[-. ]?\d{3,4}[-. ]?\d{4}`)
)

// CompetencyScore is one assessed area.
type CompetencyScore struct {
	Area       string  `json:"area"`
	Score      float64 `json:"score"`      // [0,1]
	Weight     float64 `json:"weight"`     // relative importance
	Confidence float64 `json:"confidence"` // [0,1]
}

// CompetencyResult is the assessment output.
type CompetencyResult struct {
	OverallScore    float64           `json:"overall_score"` // weighted avg, [0,1]
	Level           string            `json:"level"`         // advanced | intermediate | basic | beginner
	Areas           []CompetencyScore `json:"areas"`
	Strengths       []string          `json:"strengths"`  // top 25% areas
	Weaknesses      []string          `json:"weaknesses"` // bottom 25% areas
	Recommendations []string          `json:"recommendations"`
}

// AnonymizePII masks emails and phone numbers before any text leaves the
// process.
func AnonymizePII(text string) string {
	masked := emailPattern.ReplaceAllString(text, "[EMAIL]")
	masked = phonePattern.ReplaceAllString(masked, "[PHONE]")
	return masked
}

// AssessCompetency anonymizes PII in the area labels, computes the weighted
// overall score, classifies the level, and derives strengths (top quartile)
// and weaknesses (bottom quartile) with prioritized recommendations.
func AssessCompetency(input []CompetencyScore) *CompetencyResult {
	if len(input) == 0 {
		return &CompetencyResult{Level: "beginner"}
	}

	// Area labels come from free-form upstream payloads; scrub them before
	// they end up in recommendations or model prompts.
	areas := make([]CompetencyScore, len(input))
	copy(areas, input)
	for i := range areas {
		areas[i].Area = AnonymizePII(areas[i].Area)
	}

	var weightedSum, totalWeight float64
	for _, a := range areas {
		w := a.Weight
		if w <= 0 {
			w = 1
		}
		weightedSum += clamp(a.Score, 0, 1) * w * clamp(a.Confidence, 0, 1)
		totalWeight += w * clamp(a.Confidence, 0, 1)
	}

	overall := 0.0
	if totalWeight > 0 {
		overall = weightedSum / totalWeight
	}

	level := "beginner"
	switch {
	case overall >= 0.8:
		level = "advanced"
	case overall >= 0.6:
		level = "intermediate"
	case overall >= 0.4:
		level = "basic"
	}

	sorted := make([]CompetencyScore, len(areas))
	copy(sorted, areas)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Score > sorted[j].Score })

	quartile := len(sorted) / 4
	if quartile == 0 {
		quartile = 1
	}

	var strengths, weaknesses []string
	for i, a := range sorted {
		if i < quartile {
			strengths = append(strengths, a.Area)
		}
		if i >= len(sorted)-quartile {
			weaknesses = append(weaknesses, a.Area)
		}
	}

	// Weakest areas first; those are the highest-leverage improvements.
	recommendations := make([]string, 0, len(weaknesses))
	for i := len(sorted) - 1; i >= len(sorted)-quartile && i >= 0; i-- {
		recommendations = append(recommendations,
			fmt.Sprintf("%s 역량 강화를 우선 추천합니다 (현재 %.0f%%)", sorted[i].Area, sorted[i].Score*100))
	}

	return &CompetencyResult{
		OverallScore:    overall,
		Level:           level,
		Areas:           areas,
		Strengths:       strengths,
		Weaknesses:      weaknesses,
		Recommendations: recommendations,
	}
}
