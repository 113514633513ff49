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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreCreatorHealthyTikTokProfile(t *testing.T) {
	eval := ScoreCreator("tiktok", "test_creator", &CreatorMetrics{
		Followers:      250_000,
		EngagementRate: 3.4, // percentage form, normalized to 0.034
		Posts30d:       20,
		Reports90d:     0,
		BrandFit:       0.7,
	})

	assert.InDelta(t, 0.25, eval.ScoreBreakdown.Followers, 1e-9)
	assert.InDelta(t, 0.30, eval.ScoreBreakdown.Engagement, 1e-9, "0.34 raw, clamped to the component cap")
	assert.InDelta(t, 0.15, eval.ScoreBreakdown.Frequency, 1e-9, "20/30 raw, clamped to the component cap")
	assert.InDelta(t, 0.105, eval.ScoreBreakdown.BrandFit, 1e-9)

	assert.InDelta(t, 80.5, eval.Score, 1e-9)
	assert.Equal(t, "A", eval.Grade)
	assert.Equal(t, "accept", eval.Decision)
	assert.Empty(t, eval.Risks)
	assert.Contains(t, eval.Tags, "high_engagement")
	assert.Contains(t, eval.Tags, "macro")
}

func TestScoreCreatorFractionalEngagementNotNormalized(t *testing.T) {
	eval := ScoreCreator("instagram", "c", &CreatorMetrics{
		Followers:      100_000,
		EngagementRate: 0.034, // already a fraction, must not be divided again
		Posts30d:       20,
		BrandFit:       0.7,
	})
	assert.InDelta(t, 0.30, eval.ScoreBreakdown.Engagement, 1e-9)
}

func TestScoreCreatorHighReportsRejects(t *testing.T) {
	eval := ScoreCreator("tiktok", "bad_actor", &CreatorMetrics{
		Followers:      500_000,
		EngagementRate: 0.04,
		Posts30d:       25,
		Reports90d:     3,
		BrandFit:       0.9,
	})

	assert.Contains(t, eval.Risks, RiskHighReports)
	assert.Equal(t, "reject", eval.Decision, "high report volume rejects regardless of score")
}

func TestScoreCreatorLowActivityHolds(t *testing.T) {
	eval := ScoreCreator("youtube", "sleepy", &CreatorMetrics{
		Followers:      300_000,
		EngagementRate: 0.015,
		Posts30d:       3,
		BrandFit:       0.5,
	})

	assert.Contains(t, eval.Risks, RiskLowActivity)
	assert.InDelta(t, 57.5, eval.Score, 1e-9)
	assert.Equal(t, "hold", eval.Decision)
}

func TestScoreCreatorLowScoreRejects(t *testing.T) {
	eval := ScoreCreator("tiktok", "tiny", &CreatorMetrics{
		Followers:      1_000,
		EngagementRate: 0.001,
		Posts30d:       1,
	})

	assert.Contains(t, eval.Risks, RiskLowEngagement)
	assert.Less(t, eval.Score, 50.0)
	assert.Equal(t, "reject", eval.Decision)
	assert.Equal(t, "C", eval.Grade)
}

func TestScoreCreatorGradeBoundaries(t *testing.T) {
	// Mega creator at every cap with no risks hits the S band.
	eval := ScoreCreator("tiktok", "mega", &CreatorMetrics{
		Followers:      2_000_000,
		EngagementRate: 0.05,
		Posts30d:       30,
		BrandFit:       1.0,
	})
	assert.Equal(t, 100.0, eval.Score)
	assert.Equal(t, "S", eval.Grade)
	assert.Contains(t, eval.Tags, "mega")
}

func TestEvaluateRequiresIdentity(t *testing.T) {
	agent := NewCreatorAgent(nil, nil, nil)

	_, err := agent.Evaluate(context.Background(), CreatorInput{Platform: "tiktok"})
	assert.Error(t, err)

	_, err = agent.Evaluate(context.Background(), CreatorInput{Handle: "someone"})
	assert.Error(t, err)
}

func TestEvaluateTemplateFallbackWithoutEngine(t *testing.T) {
	agent := NewCreatorAgent(nil, nil, nil)

	eval, err := agent.Evaluate(context.Background(), CreatorInput{
		Platform: "tiktok",
		Handle:   "test_creator",
		Metrics: &CreatorMetrics{
			Followers:      250_000,
			EngagementRate: 3.4,
			Posts30d:       20,
			BrandFit:       0.7,
		},
	})
	require.NoError(t, err)

	assert.True(t, eval.Success)
	assert.Contains(t, eval.Report, "@test_creator")
	assert.Contains(t, eval.Report, "80.5")
	assert.False(t, eval.RAGEnhanced)
}

func TestParseCompactNumber(t *testing.T) {
	tests := []struct {
		digits, suffix string
		want           int64
	}{
		{"250", "k", 250_000},
		{"1.2", "m", 1_200_000},
		{"35", "만", 350_000},
		{"5", "천", 5_000},
		{"1,234", "", 1_234},
		{"garbage", "k", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseCompactNumber(tt.digits, tt.suffix), "%s%s", tt.digits, tt.suffix)
	}
}
