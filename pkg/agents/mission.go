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
	"sort"
	"strings"
)

// Composite score weights. They sum to 100.
const (
	weightGradeFit     = 25.0
	weightEngagement   = 20.0
	weightCategoryFit  = 20.0
	weightHistoryFit   = 15.0
	weightAvailability = 10.0
	weightDiversity    = 10.0
)

// MissionEngine is a pure rule engine: hard filters, weighted composite
// score, risk penalties, ranked top-k. No I/O, fully deterministic.
type MissionEngine struct {
	TopK int
}

// NewMissionEngine creates an engine returning at most topK assignments.
func NewMissionEngine(topK int) *MissionEngine {
	if topK <= 0 {
		topK = 5
	}
	return &MissionEngine{TopK: topK}
}

// Recommend filters and ranks missions for one creator.
func (e *MissionEngine) Recommend(creator *CreatorState, missions []Mission) []MissionAssignment {
	assignments := make([]MissionAssignment, 0, len(missions))

	for _, mission := range missions {
		if !PassesRequirements(creator, mission.Requirement) {
			continue
		}
		score, reasons := e.scoreMission(creator, mission)
		assignments = append(assignments, MissionAssignment{
			MissionID: mission.ID,
			CreatorID: creator.ID,
			Status:    StatusRecommended,
			Score:     score,
			Reasons:   reasons,
			Metadata: map[string]any{
				"mission_type": mission.Type,
				"reward_type":  mission.RewardType,
			},
		})
	}

	sort.SliceStable(assignments, func(i, j int) bool {
		return assignments[i].Score > assignments[j].Score
	})
	if len(assignments) > e.TopK {
		assignments = assignments[:e.TopK]
	}
	return assignments
}

// PassesRequirements applies every hard filter; any failure excludes the
// mission entirely.
func PassesRequirements(creator *CreatorState, req MissionRequirement) bool {
	if len(req.Platforms) > 0 && !containsString(req.Platforms, creator.Platform) {
		return false
	}
	if req.MinFollowers > 0 && creator.Followers < req.MinFollowers {
		return false
	}
	if req.MaxFollowers > 0 && creator.Followers > req.MaxFollowers {
		return false
	}
	if req.MinEngagementRate > 0 && creator.EngagementRate < req.MinEngagementRate {
		return false
	}
	if req.MinPosts30d > 0 && creator.Posts30d < req.MinPosts30d {
		return false
	}
	if req.MinGrade != "" && gradeRank(creator.Grade) < gradeRank(req.MinGrade) {
		return false
	}
	if len(req.AllowCategories) > 0 && !intersects(creator.Categories, req.AllowCategories) {
		return false
	}
	for _, excluded := range req.ExcludeCategories {
		if containsString(creator.Categories, excluded) {
			return false
		}
	}
	for _, risk := range req.ExcludeRiskTags {
		if containsString(creator.RiskTags, risk) {
			return false
		}
	}
	if req.MaxReports90d > 0 && creator.Reports90d > req.MaxReports90d {
		return false
	}
	return true
}

// scoreMission computes the weighted composite and per-component reasons.
func (e *MissionEngine) scoreMission(creator *CreatorState, mission Mission) (float64, []string) {
	req := mission.Requirement
	var reasons []string

	// Grade fit: full marks one rank above the requirement or better.
	gradeFit := 70.0
	if req.MinGrade != "" {
		diff := gradeRank(creator.Grade) - gradeRank(req.MinGrade)
		gradeFit = clamp(70+float64(diff)*15, 0, 100)
	} else if gradeRank(creator.Grade) >= gradeRank("A") {
		gradeFit = 100
	}
	if gradeFit >= 85 {
		reasons = append(reasons, fmt.Sprintf("등급 %s로 요구 조건을 상회합니다", creator.Grade))
	}

	// Engagement fit: ratio to the minimum, capped at 2x.
	engagementFit := 50.0
	if req.MinEngagementRate > 0 {
		ratio := creator.EngagementRate / req.MinEngagementRate
		if ratio > 2 {
			ratio = 2
		}
		engagementFit = ratio / 2 * 100
		if ratio >= 1.5 {
			reasons = append(reasons, fmt.Sprintf("참여율 %.1f%%로 최소 요건의 %.1f배입니다",
				creator.EngagementRate*100, ratio))
		}
	} else if creator.EngagementRate >= 0.02 {
		engagementFit = 100
		reasons = append(reasons, fmt.Sprintf("참여율 %.1f%%로 우수합니다", creator.EngagementRate*100))
	}

	// Category fit: allow-list or required-tag match.
	categoryFit := 0.0
	switch {
	case len(req.AllowCategories) > 0 && intersects(creator.Categories, req.AllowCategories):
		categoryFit = 100
		reasons = append(reasons, "카테고리가 미션 대상과 일치합니다")
	case len(req.RequiredTags) > 0 && intersects(creator.Tags, req.RequiredTags):
		categoryFit = 100
		reasons = append(reasons, fmt.Sprintf("요구 태그(%s)를 보유하고 있습니다", strings.Join(req.RequiredTags, ", ")))
	case len(req.AllowCategories) == 0 && len(req.RequiredTags) == 0:
		categoryFit = 50
	}

	// History fit: completed missions plus average quality.
	completedShare := clamp(float64(creator.CompletedMissions)/10, 0, 1)
	historyFit := completedShare*50 + clamp(creator.AvgMissionQuality, 0, 1)*50
	if creator.CompletedMissions >= 5 && creator.AvgMissionQuality >= 0.8 {
		reasons = append(reasons, fmt.Sprintf("완료 미션 %d건, 평균 품질 %.0f%%", creator.CompletedMissions, creator.AvgMissionQuality*100))
	}

	// Availability: under 3 active missions means full capacity.
	availabilityFit := 50.0
	if creator.ActiveMissions < 3 {
		availabilityFit = 100
	}

	// Diversity bonus when this mission type is new for the creator.
	diversityBonus := 0.0
	if !containsString(creator.RecentMissionTypes, mission.Type) {
		diversityBonus = 100
	}

	score := gradeFit*weightGradeFit/100 +
		engagementFit*weightEngagement/100 +
		categoryFit*weightCategoryFit/100 +
		historyFit*weightHistoryFit/100 +
		availabilityFit*weightAvailability/100 +
		diversityBonus*weightDiversity/100

	// Risk penalties after weighting.
	if containsString(creator.RiskTags, RiskHighReports) {
		score -= 20
	}
	if containsString(creator.RiskTags, RiskLowEngagement) &&
		(mission.RewardType == "performance" || mission.RewardType == "hybrid") {
		score -= 10
	}
	if containsString(creator.RiskTags, RiskLowActivity) {
		score -= 5
	}

	return clamp(score, 0, 100), reasons
}

func gradeRank(grade string) int {
	switch strings.ToUpper(grade) {
	case "S":
		return 4
	case "A":
		return 3
	case "B":
		return 2
	case "C":
		return 1
	default:
		return 0
	}
}

func intersects(a, b []string) bool {
	for _, v := range a {
		if containsString(b, v) {
			return true
		}
	}
	return false
}
