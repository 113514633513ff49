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

// Package agents holds the stateless domain units: creator onboarding,
// mission recommendation, analytics, competency, recommendation, search,
// data collection, and external integration. Each consumes shared state and
// writes back exactly one output field.
package agents

// Risk tags attached by creator evaluation and consumed by mission
// filtering.
const (
	RiskHighReports   = "high_reports"
	RiskLowEngagement = "low_engagement"
	RiskLowActivity   = "low_activity"
)

// CreatorMetrics are the raw platform numbers evaluation scores from.
type CreatorMetrics struct {
	Followers      int64    `json:"followers"`
	AvgLikes       int64    `json:"avg_likes"`
	AvgComments    int64    `json:"avg_comments"`
	PostsPerWeek   float64  `json:"posts_per_week"`
	EngagementRate float64  `json:"engagement_rate"`
	Posts30d       int      `json:"posts_30d"`
	Reports90d     int      `json:"reports_90d"`
	BrandFit       float64  `json:"brand_fit"`
	Categories     []string `json:"categories,omitempty"`
}

// CreatorInput is the creator-onboarding request.
type CreatorInput struct {
	Platform   string          `json:"platform"`
	Handle     string          `json:"handle"`
	ProfileURL string          `json:"profile_url,omitempty"`
	Metrics    *CreatorMetrics `json:"metrics,omitempty"`
}

// ScoreBreakdown is the capped per-component decomposition.
type ScoreBreakdown struct {
	Followers  float64 `json:"followers"`
	Engagement float64 `json:"engagement"`
	Frequency  float64 `json:"frequency"`
	BrandFit   float64 `json:"brand_fit"`
}

// CreatorEvaluation is the creator-onboarding result.
type CreatorEvaluation struct {
	Success        bool           `json:"success"`
	Platform       string         `json:"platform"`
	Handle         string         `json:"handle"`
	Decision       string         `json:"decision"` // accept | hold | reject
	Grade          string         `json:"grade"`    // S | A | B | C
	Score          float64        `json:"score"`    // [0,100]
	ScoreBreakdown ScoreBreakdown `json:"score_breakdown"`
	Tags           []string       `json:"tags"`
	Risks          []string       `json:"risks"`
	Report         string         `json:"report"`
	RawProfile     map[string]any `json:"raw_profile,omitempty"`
	RAGEnhanced    bool           `json:"rag_enhanced,omitempty"`
}

// CreatorState is the persisted creator view missions are matched against.
type CreatorState struct {
	ID             string   `json:"id"`
	Platform       string   `json:"platform"`
	Followers      int64    `json:"followers"`
	EngagementRate float64  `json:"engagement_rate"`
	Posts30d       int      `json:"posts_30d"`
	Reports90d     int      `json:"reports_90d"`
	Grade          string   `json:"grade"`
	Categories     []string `json:"categories"`
	Tags           []string `json:"tags"`
	RiskTags       []string `json:"risk_tags"`

	CompletedMissions  int      `json:"completed_missions"`
	AvgMissionQuality  float64  `json:"avg_mission_quality"` // [0,1]
	ActiveMissions     int      `json:"active_missions"`
	RecentMissionTypes []string `json:"recent_mission_types"`
}

// MissionRequirement is one mission's hard-filter gate.
type MissionRequirement struct {
	Platforms         []string `json:"platforms,omitempty"`
	MinFollowers      int64    `json:"min_followers,omitempty"`
	MaxFollowers      int64    `json:"max_followers,omitempty"`
	MinEngagementRate float64  `json:"min_engagement_rate,omitempty"`
	MinPosts30d       int      `json:"min_posts_30d,omitempty"`
	MinGrade          string   `json:"min_grade,omitempty"`
	AllowCategories   []string `json:"allow_categories,omitempty"`
	ExcludeCategories []string `json:"exclude_categories,omitempty"`
	RequiredTags      []string `json:"required_tags,omitempty"`
	ExcludeRiskTags   []string `json:"exclude_risk_tags,omitempty"`
	MaxReports90d     int      `json:"max_reports_90d,omitempty"`
}

// Mission is one recommendable mission.
type Mission struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Type        string             `json:"type"`        // e.g. "video", "review"
	RewardType  string             `json:"reward_type"` // fixed | performance | hybrid
	Requirement MissionRequirement `json:"requirement"`
}

// MissionAssignment is one recommendation in ranked order.
type MissionAssignment struct {
	MissionID string         `json:"mission_id"`
	CreatorID string         `json:"creator_id"`
	Status    string         `json:"status"` // always RECOMMENDED
	Score     float64        `json:"score"`  // [0,100]
	Reasons   []string       `json:"reasons"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// StatusRecommended is the only assignment status this engine emits.
const StatusRecommended = "RECOMMENDED"

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
