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

func TestAnalyticsUnknownReportType(t *testing.T) {
	agent := NewAnalyticsAgent(nil)

	_, err := agent.Generate(context.Background(), "weekly_digest", "u1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weekly_digest")
}

func TestAnalyticsLearningProgressSampled(t *testing.T) {
	agent := NewAnalyticsAgent(nil)

	report, err := agent.Generate(context.Background(), ReportLearningProgress, "u1")
	require.NoError(t, err)

	assert.True(t, report.Sampled, "no database wired means sample figures")
	assert.Equal(t, ReportLearningProgress, report.ReportType)
	assert.Equal(t, "u1", report.UserID)
	assert.Equal(t, "good", report.Grade, "sample completion rate of 72.5 lands in the good band")
	assert.Equal(t, 72.5, report.Metrics["completion_rate"])
	assert.Contains(t, report.Summary, "72.5")
}

func TestAnalyticsEngagementComposite(t *testing.T) {
	agent := NewAnalyticsAgent(nil)

	report, err := agent.Generate(context.Background(), ReportEngagement, "u1")
	require.NoError(t, err)

	// 0.3*0.65 + 0.5*0.72 + 0.2*0.58 = 0.671
	assert.InDelta(t, 0.671, report.Metrics["composite"].(float64), 1e-9)
	assert.Equal(t, "stable", report.Trend)
	assert.True(t, report.Sampled)
}

func TestAnalyticsPerformanceGrade(t *testing.T) {
	agent := NewAnalyticsAgent(nil)

	report, err := agent.Generate(context.Background(), ReportPerformance, "u1")
	require.NoError(t, err)

	assert.Equal(t, "C", report.Grade, "sample average of 76 grades as C")
	assert.Contains(t, report.Summary, "76.0")
}

func TestAnalyticsReportTypeCaseInsensitive(t *testing.T) {
	agent := NewAnalyticsAgent(nil)

	report, err := agent.Generate(context.Background(), "ENGAGEMENT", "u1")
	require.NoError(t, err)
	assert.Equal(t, ReportEngagement, report.ReportType)
}
