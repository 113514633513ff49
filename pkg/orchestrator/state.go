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

// Package orchestrator runs the request graph: route, plan, tool
// enrichment, retrieval, domain agents, and final synthesis, with bounded
// replan loops and per-node checkpointing.
package orchestrator

import (
	"encoding/json"
	"time"

	"github.com/creatorcore/creatorcore/pkg/agents"
	"github.com/creatorcore/creatorcore/pkg/deep"
	"github.com/creatorcore/creatorcore/pkg/mcp"
	"github.com/creatorcore/creatorcore/pkg/retrieval"
)

// Workflow types the router can dispatch to.
const (
	WorkflowGeneral        = "general"
	WorkflowRAG            = "rag"
	WorkflowCompetency     = "competency"
	WorkflowRecommendation = "recommendation"
	WorkflowMission        = "mission"
	WorkflowSearch         = "search"
	WorkflowAnalytics      = "analytics"
	WorkflowDataCollection = "data_collection"
	WorkflowDeepAgents     = "deep_agents"
)

// ChatMessage is one turn in the session transcript. The messages list is
// append-only for the lifetime of a session.
type ChatMessage struct {
	Role    string `json:"role"` // user | assistant | system
	Content string `json:"content"`
}

// Routing is the router node output.
type Routing struct {
	Strategy   string  `json:"strategy"`
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
	Raw        string  `json:"raw,omitempty"`
}

// Plan is the planner output that steers the rest of the run.
type Plan struct {
	WorkflowType   string `json:"workflow_type"`
	NeedsRAG       bool   `json:"needs_rag"`
	NeedsTools     bool   `json:"needs_tools"`
	Complexity     string `json:"complexity"`      // simple | medium | high
	CostPreference string `json:"cost_preference"` // budget | balanced | performance | speed
	Notes          string `json:"notes,omitempty"`
}

// ToolEnrichmentResult is the audit record of the last enrichment attempt.
type ToolEnrichmentResult struct {
	Ran          bool     `json:"ran"`
	Reason       string   `json:"reason"` // not_needed | no_spec_or_service | error | ok
	EnrichedKeys []string `json:"enriched_keys,omitempty"`
	OK           bool     `json:"ok"`
}

// ReplanResult is the audit record of the last replan attempt.
type ReplanResult struct {
	Ran    bool   `json:"ran"`
	Reason string `json:"reason,omitempty"`
	Notes  string `json:"notes,omitempty"`
}

// RAGOutcome stores the retrieval stage outputs on the state.
type RAGOutcome struct {
	Answer string `json:"answer"`
	Cached bool   `json:"cached"`
	Model  string `json:"model,omitempty"`
	Weak   bool   `json:"weak"`
}

// AuditEntry is one append-only audit record.
type AuditEntry struct {
	Step      string         `json:"step"`
	Timestamp time.Time      `json:"timestamp"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// State is the durable value checkpointed per session. The orchestrator is
// its only writer; nodes read the whole state and write their own fields.
type State struct {
	ThreadID      string         `json:"thread_id"`
	UserID        string         `json:"user_id,omitempty"`
	SecurityLevel string         `json:"security_level,omitempty"`
	Context       map[string]any `json:"context,omitempty"`

	Messages     []ChatMessage `json:"messages"`
	CurrentStep  string        `json:"current_step,omitempty"`
	WorkflowType string        `json:"workflow_type,omitempty"`
	Routing      *Routing      `json:"routing,omitempty"`
	Plan         *Plan         `json:"plan,omitempty"`
	LoopCount    int           `json:"loop_count"`
	MaxLoops     int           `json:"max_loops"`

	ToolEnrichment *ToolEnrichmentResult `json:"tool_enrichment_result,omitempty"`
	Replan         *ReplanResult         `json:"replan_result,omitempty"`
	Enrichment     *mcp.Enrichment       `json:"enrichment,omitempty"`

	RAGResult          *RAGOutcome          `json:"rag_result,omitempty"`
	RetrievedDocuments []retrieval.Document `json:"retrieved_documents,omitempty"`
	RAGContext         string               `json:"rag_context,omitempty"`

	CompetencyData         *agents.CompetencyResult   `json:"competency_data,omitempty"`
	RecommendationData     map[string]any             `json:"recommendation_data,omitempty"`
	MissionRecommendations []agents.MissionAssignment `json:"mission_recommendations,omitempty"`
	SearchResults          []retrieval.Document       `json:"search_results,omitempty"`
	AnalyticsResults       *agents.AnalyticsReport    `json:"analytics_results,omitempty"`
	ExternalAPIResults     map[string]any             `json:"external_api_results,omitempty"`
	CollectedData          map[string]any             `json:"collected_data,omitempty"`
	DeepResult             *deep.Result               `json:"deep_result,omitempty"`

	SelectedLLMModel   string             `json:"selected_llm_model,omitempty"`
	PerformanceMetrics map[string]float64 `json:"performance_metrics,omitempty"`
	AuditTrail         []AuditEntry       `json:"audit_trail"`
	Errors             []string           `json:"errors"`

	FinalResponse string `json:"final_response,omitempty"`
}

// NewState creates a fresh session state.
func NewState(threadID string, maxLoops int) *State {
	return &State{
		ThreadID:           threadID,
		MaxLoops:           maxLoops,
		PerformanceMetrics: make(map[string]float64),
	}
}

// Message returns the latest user message, or empty.
func (s *State) Message() string {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == "user" {
			return s.Messages[i].Content
		}
	}
	return ""
}

// AppendMessage appends one chat turn.
func (s *State) AppendMessage(role, content string) {
	s.Messages = append(s.Messages, ChatMessage{Role: role, Content: content})
}

// Audit appends one audit record with the current time.
func (s *State) Audit(step string, fields map[string]any) {
	s.AuditTrail = append(s.AuditTrail, AuditEntry{
		Step:      step,
		Timestamp: time.Now().UTC(),
		Fields:    fields,
	})
}

// RecordError appends an error string. Nodes call this instead of
// returning errors; the graph never aborts on a node failure.
func (s *State) RecordError(msg string) {
	s.Errors = append(s.Errors, msg)
}

// RecordDuration stores one node timing in milliseconds.
func (s *State) RecordDuration(step string, elapsed time.Duration) {
	if s.PerformanceMetrics == nil {
		s.PerformanceMetrics = make(map[string]float64)
	}
	s.PerformanceMetrics[step+"_ms"] = float64(elapsed.Milliseconds())
}

// Marshal serializes the state for checkpointing.
func (s *State) Marshal() ([]byte, error) {
	return json.Marshal(s)
}

// UnmarshalState restores a checkpointed state blob.
func UnmarshalState(blob []byte) (*State, error) {
	var s State
	if err := json.Unmarshal(blob, &s); err != nil {
		return nil, err
	}
	if s.PerformanceMetrics == nil {
		s.PerformanceMetrics = make(map[string]float64)
	}
	return &s, nil
}
