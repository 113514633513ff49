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

	"github.com/creatorcore/creatorcore/pkg/mcp"
)

func TestIntegrateEmptyEnrichment(t *testing.T) {
	agent := NewIntegrationAgent()

	assert.Equal(t, map[string]any{"ok": false}, agent.Integrate(nil))
	assert.Equal(t, map[string]any{"ok": false}, agent.Integrate(&mcp.Enrichment{}))
}

func TestIntegrateFoldsOutputs(t *testing.T) {
	agent := NewIntegrationAgent()

	out := agent.Integrate(&mcp.Enrichment{
		ExternalSnippets: []string{"snippet"},
		Supadata:         map[string]any{"page": "content"},
	})

	assert.Equal(t, true, out["ok"])
	assert.Equal(t, []string{"snippet"}, out["external_snippets"])
	assert.NotNil(t, out["supadata"])
	assert.NotContains(t, out, "youtube_insights")
}

func TestSearchAgentWithoutBackend(t *testing.T) {
	agent := NewSearchAgent(nil, 5)

	_, err := agent.Search(context.Background(), "질문")
	assert.Error(t, err)
}

func TestDataCollectionWithoutTools(t *testing.T) {
	agent := NewDataCollectionAgent(nil)

	_, err := agent.Collect(context.Background(), &mcp.Spec{SearchQuery: "q"})
	assert.Error(t, err)
}
