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

package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/creatorcore/creatorcore/pkg/agents"
	"github.com/creatorcore/creatorcore/pkg/checkpoint"
	"github.com/creatorcore/creatorcore/pkg/config"
	"github.com/creatorcore/creatorcore/pkg/deep"
	"github.com/creatorcore/creatorcore/pkg/llm"
	"github.com/creatorcore/creatorcore/pkg/mcp"
	"github.com/creatorcore/creatorcore/pkg/observability"
	"github.com/creatorcore/creatorcore/pkg/rag"
)

// Graph node names. current_step holds the last completed one.
const (
	stepRoute     = "route_request"
	stepPlan      = "plan_request"
	stepEnrich    = "tool_enrichment"
	stepReplan    = "replan_request"
	stepRAG       = "rag_processing"
	stepSynthesis = "final_synthesis"
	stepEnd       = "end"
)

// MissionSource supplies the mission catalog and creator states for the
// mission workflow when the request context does not carry them inline.
type MissionSource interface {
	Missions(ctx context.Context) ([]agents.Mission, error)
	Creator(ctx context.Context, userID string) (*agents.CreatorState, error)
}

// Request is one orchestrator run input.
type Request struct {
	Message       string         `json:"message"`
	UserID        string         `json:"user_id,omitempty"`
	SessionID     string         `json:"session_id,omitempty"`
	Context       map[string]any `json:"context,omitempty"`
	SecurityLevel string         `json:"security_level,omitempty"`
}

// Response is the run envelope returned to the caller.
type Response struct {
	Success                bool                       `json:"success"`
	Response               string                     `json:"response,omitempty"`
	WorkflowType           string                     `json:"workflow_type"`
	PerformanceMetrics     map[string]float64         `json:"performance_metrics"`
	AuditTrail             []AuditEntry               `json:"audit_trail"`
	Errors                 []string                   `json:"errors"`
	ThreadID               string                     `json:"thread_id"`
	StateSaved             bool                       `json:"state_saved"`
	Resumed                bool                       `json:"resumed,omitempty"`
	MissionRecommendations []agents.MissionAssignment `json:"mission_recommendations,omitempty"`
}

// Orchestrator owns the request graph and its session checkpoints.
type Orchestrator struct {
	cfg         *config.OrchestratorConfig
	ragCfg      *config.RAGConfig
	engine      *llm.Engine
	router      *Router
	planner     *Planner
	synthesizer *Synthesizer
	pipeline    *rag.Pipeline
	tools       *mcp.Service
	deepAgent   *deep.Agent
	store       checkpoint.Store
	metrics     *observability.Metrics

	search     *agents.SearchAgent
	recommend  *agents.RecommendationAgent
	collect    *agents.DataCollectionAgent
	integrate  *agents.IntegrationAgent
	analytics  *agents.AnalyticsAgent
	missionEng *agents.MissionEngine
	missionSrc MissionSource
}

// Deps bundles the orchestrator's collaborators.
type Deps struct {
	Engine    *llm.Engine
	Pipeline  *rag.Pipeline
	Tools     *mcp.Service
	DeepAgent *deep.Agent
	Store     checkpoint.Store
	Metrics   *observability.Metrics

	Search        *agents.SearchAgent
	Recommend     *agents.RecommendationAgent
	Collect       *agents.DataCollectionAgent
	Integrate     *agents.IntegrationAgent
	Analytics     *agents.AnalyticsAgent
	MissionEngine *agents.MissionEngine
	MissionSource MissionSource
}

// New creates an orchestrator.
func New(cfg *config.OrchestratorConfig, ragCfg *config.RAGConfig, deps Deps) *Orchestrator {
	cfg.SetDefaults()
	ragCfg.SetDefaults()

	integrate := deps.Integrate
	if integrate == nil {
		integrate = agents.NewIntegrationAgent()
	}
	missionEng := deps.MissionEngine
	if missionEng == nil {
		missionEng = agents.NewMissionEngine(5)
	}

	return &Orchestrator{
		cfg:         cfg,
		ragCfg:      ragCfg,
		engine:      deps.Engine,
		router:      NewRouter(deps.Engine),
		planner:     NewPlanner(deps.Engine, cfg),
		synthesizer: NewSynthesizer(deps.Engine),
		pipeline:    deps.Pipeline,
		tools:       deps.Tools,
		deepAgent:   deps.DeepAgent,
		store:       deps.Store,
		metrics:     deps.Metrics,
		search:      deps.Search,
		recommend:   deps.Recommend,
		collect:     deps.Collect,
		integrate:   integrate,
		analytics:   deps.Analytics,
		missionEng:  missionEng,
		missionSrc:  deps.MissionSource,
	}
}

// Run executes one graph pass for the request. A session_id reuses the
// checkpointed state for that thread; otherwise a new thread is created.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Response, error) {
	if req.Message == "" {
		return nil, fmt.Errorf("message is required")
	}

	state, err := o.loadOrCreate(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	state.UserID = req.UserID
	state.SecurityLevel = req.SecurityLevel
	if req.Context != nil {
		state.Context = req.Context
	}
	state.AppendMessage("user", req.Message)

	return o.invoke(ctx, state, false), nil
}

// ResumeSession appends a user message to an existing thread and re-runs
// the graph. A missing checkpoint synthesizes a new session and reports it.
func (o *Orchestrator) ResumeSession(ctx context.Context, threadID, newMessage string) (*Response, error) {
	if threadID == "" || newMessage == "" {
		return nil, fmt.Errorf("thread_id and new_message are required")
	}

	state, err := o.loadOrCreate(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if len(state.Messages) == 0 {
		state.RecordError("no prior checkpoint for thread, started fresh session")
	}
	state.AppendMessage("user", newMessage)

	resp := o.invoke(ctx, state, true)
	return resp, nil
}

// ClearSession deletes the checkpoint for a thread.
func (o *Orchestrator) ClearSession(ctx context.Context, threadID string) error {
	if o.store == nil {
		return nil
	}
	return o.store.Delete(ctx, threadID)
}

// LoadState returns the checkpointed state for a thread.
func (o *Orchestrator) LoadState(ctx context.Context, threadID string) (*State, error) {
	if o.store == nil {
		return nil, checkpoint.ErrNotFound
	}
	blob, err := o.store.Get(ctx, threadID)
	if err != nil {
		return nil, err
	}
	return UnmarshalState(blob)
}

func (o *Orchestrator) loadOrCreate(ctx context.Context, threadID string) (*State, error) {
	if threadID == "" {
		return NewState(uuid.NewString(), o.cfg.MaxLoops), nil
	}

	state, err := o.LoadState(ctx, threadID)
	if errors.Is(err, checkpoint.ErrNotFound) {
		return NewState(threadID, o.cfg.MaxLoops), nil
	}
	if err != nil {
		// Corrupt or unreadable checkpoint: synthesize a new session and
		// surface the prior failure in the response.
		slog.Warn("Checkpoint unreadable, starting fresh session", "thread_id", threadID, "error", err)
		state = NewState(threadID, o.cfg.MaxLoops)
		state.RecordError(fmt.Sprintf("checkpoint read failed: %v", err))
		return state, nil
	}

	// Reset per-run fields; the transcript and audit trail persist.
	state.MaxLoops = o.cfg.MaxLoops
	state.LoopCount = 0
	state.CurrentStep = ""
	state.Plan = nil
	state.Routing = nil
	state.ToolEnrichment = nil
	state.Replan = nil
	state.RAGResult = nil
	state.RetrievedDocuments = nil
	state.RAGContext = ""
	state.FinalResponse = ""
	return state, nil
}

// invoke drives the node loop to completion and checkpoints after every
// node. It never returns an error; failures accumulate on the state.
func (o *Orchestrator) invoke(ctx context.Context, state *State, resumed bool) *Response {
	start := time.Now()
	next := stepRoute

	for next != stepEnd {
		nodeStart := time.Now()
		step := next
		next = o.runNode(ctx, step, state)
		state.CurrentStep = step
		state.RecordDuration(step, time.Since(nodeStart))
		o.checkpointState(ctx, state)
	}

	state.RecordDuration("total", time.Since(start))
	saved := o.checkpointState(ctx, state)

	var runErr error
	if len(state.Errors) > 0 {
		runErr = errors.New(state.Errors[len(state.Errors)-1])
	}
	o.metrics.RecordNode(ctx, "run:"+state.WorkflowType, time.Since(start).Seconds(), runErr)

	return &Response{
		Success:                state.FinalResponse != "",
		Response:               state.FinalResponse,
		WorkflowType:           state.WorkflowType,
		PerformanceMetrics:     state.PerformanceMetrics,
		AuditTrail:             state.AuditTrail,
		Errors:                 state.Errors,
		ThreadID:               state.ThreadID,
		StateSaved:             saved,
		Resumed:                resumed,
		MissionRecommendations: state.MissionRecommendations,
	}
}

// runNode executes one node with panic containment and returns the next
// step. A panicking node only appends to errors; the graph continues.
func (o *Orchestrator) runNode(ctx context.Context, step string, state *State) (next string) {
	defer func() {
		if r := recover(); r != nil {
			state.RecordError(fmt.Sprintf("%s: panic: %v", step, r))
			slog.Error("Node panicked", "step", step, "panic", r)
			next = o.afterFailure(step)
		}
	}()

	switch step {
	case stepRoute:
		return o.routeNode(ctx, state)
	case stepPlan:
		return o.planNode(ctx, state)
	case stepEnrich:
		return o.enrichNode(ctx, state)
	case stepReplan:
		return o.replanNode(ctx, state)
	case stepRAG:
		return o.ragNode(ctx, state)
	case WorkflowCompetency, WorkflowRecommendation, WorkflowMission,
		WorkflowSearch, WorkflowAnalytics, WorkflowDataCollection,
		WorkflowGeneral, WorkflowDeepAgents:
		return o.domainNode(ctx, step, state)
	case stepSynthesis:
		return o.synthesisNode(ctx, state)
	default:
		state.RecordError(fmt.Sprintf("unknown graph step: %s", step))
		return stepSynthesis
	}
}

// afterFailure picks the safe continuation after a node panic.
func (o *Orchestrator) afterFailure(step string) string {
	switch step {
	case stepRoute:
		return stepPlan
	case stepPlan:
		return stepEnrich
	case stepSynthesis:
		return stepEnd
	default:
		return stepSynthesis
	}
}

func (o *Orchestrator) routeNode(ctx context.Context, state *State) string {
	routing, workflow := o.router.Route(ctx, state.Message())
	state.Routing = routing
	state.WorkflowType = workflow
	state.Audit(stepRoute, map[string]any{
		"intent":     routing.Intent,
		"confidence": routing.Confidence,
		"workflow":   workflow,
	})
	return stepPlan
}

func (o *Orchestrator) planNode(ctx context.Context, state *State) string {
	if !o.planner.ShouldPlan(state.Routing, state.WorkflowType, state.Message()) {
		state.Audit(stepPlan, map[string]any{"ran": false})
		return stepEnrich
	}

	plan := o.planner.MakePlan(ctx, state.Routing, state.WorkflowType, state.Message())
	state.Plan = plan
	if plan.WorkflowType != "" {
		state.WorkflowType = plan.WorkflowType
	}
	state.Audit(stepPlan, map[string]any{
		"ran":         true,
		"workflow":    plan.WorkflowType,
		"needs_rag":   plan.NeedsRAG,
		"needs_tools": plan.NeedsTools,
		"notes":       plan.Notes,
	})
	return stepEnrich
}

func (o *Orchestrator) enrichNode(ctx context.Context, state *State) string {
	required := toolsRequired(state)
	if !required {
		state.ToolEnrichment = &ToolEnrichmentResult{Ran: false, Reason: ReasonNotNeeded}
		state.Audit(stepEnrich, map[string]any{"ran": false, "reason": ReasonNotNeeded})
		return o.dispatch(state)
	}

	spec := buildToolSpec(state)
	if spec == nil || o.tools == nil {
		state.ToolEnrichment = &ToolEnrichmentResult{Ran: false, Reason: ReasonNoSpecOrService}
		state.Audit(stepEnrich, map[string]any{"ran": false, "reason": ReasonNoSpecOrService})
		return o.maybeReplan(state, "tool layer unavailable", true)
	}

	enrichment := o.tools.Enrich(ctx, spec)
	state.Enrichment = enrichment

	if enrichment.AllFailed() {
		state.ToolEnrichment = &ToolEnrichmentResult{Ran: true, Reason: ReasonError, OK: false}
		state.Audit(stepEnrich, map[string]any{"ran": true, "reason": ReasonError})
		state.RecordError("tool enrichment failed for every attempted tool")
		return o.maybeReplan(state, "all tools failed", true)
	}

	keys := enrichedKeys(enrichment)
	state.ToolEnrichment = &ToolEnrichmentResult{Ran: true, Reason: ReasonOK, OK: true, EnrichedKeys: keys}
	state.Audit(stepEnrich, map[string]any{"ran": true, "reason": ReasonOK, "enriched_keys": keys})
	return o.dispatch(state)
}

// maybeReplan enters the replan loop when budget remains; otherwise the
// run advances to its workflow with whatever it has.
func (o *Orchestrator) maybeReplan(state *State, reason string, toolsUnavailable bool) string {
	if state.LoopCount >= state.MaxLoops {
		state.Audit(stepReplan, map[string]any{"ran": false, "reason": "loop_budget_exhausted"})
		return o.dispatch(state)
	}
	state.Replan = &ReplanResult{Ran: false, Reason: reason}
	if toolsUnavailable {
		state.Replan.Notes = "tools_unavailable"
	}
	return stepReplan
}

func (o *Orchestrator) replanNode(ctx context.Context, state *State) string {
	if state.LoopCount >= state.MaxLoops {
		state.Audit(stepReplan, map[string]any{"ran": false, "reason": "loop_budget_exhausted"})
		return o.dispatch(state)
	}
	state.LoopCount++

	reason := "unspecified"
	toolsUnavailable := false
	if state.Replan != nil {
		reason = state.Replan.Reason
		toolsUnavailable = state.Replan.Notes == "tools_unavailable"
	}

	plan := o.planner.Replan(ctx, state, reason, toolsUnavailable)
	state.Plan = plan
	if plan.WorkflowType != "" {
		state.WorkflowType = plan.WorkflowType
	}

	// A replan that re-enables retrieval invalidates the prior RAG pass.
	if plan.NeedsRAG {
		state.RAGResult = nil
		state.RetrievedDocuments = nil
		state.RAGContext = ""
	}

	state.Replan = &ReplanResult{Ran: true, Reason: reason, Notes: plan.Notes}
	state.Audit(stepReplan, map[string]any{
		"ran":         true,
		"reason":      reason,
		"loop_count":  state.LoopCount,
		"needs_rag":   plan.NeedsRAG,
		"needs_tools": plan.NeedsTools,
	})
	return stepEnrich
}

// dispatch routes from enrichment to the workflow node.
func (o *Orchestrator) dispatch(state *State) string {
	if state.WorkflowType == WorkflowRAG ||
		(state.Plan != nil && state.Plan.NeedsRAG && state.RAGResult == nil) {
		return stepRAG
	}
	switch state.WorkflowType {
	case WorkflowCompetency, WorkflowRecommendation, WorkflowMission,
		WorkflowSearch, WorkflowAnalytics, WorkflowDataCollection,
		WorkflowGeneral, WorkflowDeepAgents:
		return state.WorkflowType
	default:
		return WorkflowGeneral
	}
}

// dispatchAfterRAG continues to the domain node for non-RAG workflows, or
// straight to synthesis.
func (o *Orchestrator) dispatchAfterRAG(state *State) string {
	switch state.WorkflowType {
	case WorkflowRAG, "":
		return stepSynthesis
	case WorkflowCompetency, WorkflowRecommendation, WorkflowMission,
		WorkflowSearch, WorkflowAnalytics, WorkflowDataCollection,
		WorkflowGeneral, WorkflowDeepAgents:
		return state.WorkflowType
	default:
		return stepSynthesis
	}
}

func (o *Orchestrator) ragNode(ctx context.Context, state *State) string {
	if o.pipeline == nil {
		state.RecordError("rag pipeline not configured")
		return o.dispatchAfterRAG(state)
	}

	var history []rag.HistoryTurn
	for _, m := range state.Messages {
		history = append(history, rag.HistoryTurn{Role: m.Role, Content: m.Content})
	}

	req := rag.Request{
		Query:   state.Message(),
		History: history,
	}
	if state.Plan != nil {
		req.Complexity = planComplexityHint(state.Plan.Complexity)
		req.CostPreference = state.Plan.CostPreference
	}
	if state.Enrichment != nil && len(state.Enrichment.ExternalSnippets) > 0 {
		req.TaskContext = "외부 검색 결과:\n" + joinLimited(state.Enrichment.ExternalSnippets, 5)
	}

	result, err := o.pipeline.Process(ctx, req)
	if err != nil && result == nil {
		state.RecordError(fmt.Sprintf("rag_processing: %v", err))
		state.RAGResult = &RAGOutcome{Weak: true}
		return o.qualityGate(state)
	}

	weak := rag.IsWeak(result, o.ragCfg.UncertaintyMarkers)
	state.RAGResult = &RAGOutcome{
		Answer: result.Answer,
		Cached: result.Cached,
		Model:  result.Model,
		Weak:   weak,
	}
	state.RetrievedDocuments = result.Documents
	state.RAGContext = result.Context
	state.SelectedLLMModel = result.Model

	state.Audit(stepRAG, map[string]any{
		"docs":   len(result.Documents),
		"cached": result.Cached,
		"weak":   weak,
	})
	return o.qualityGate(state)
}

// qualityGate forces a replan for weak answers while budget remains.
func (o *Orchestrator) qualityGate(state *State) string {
	if state.RAGResult != nil && state.RAGResult.Weak {
		if state.LoopCount < state.MaxLoops {
			state.Replan = &ReplanResult{Ran: false, Reason: "rag_quality_weak"}
			return stepReplan
		}
		state.Audit("quality_gate", map[string]any{"weak": true, "budget": "exhausted"})
	}
	return o.dispatchAfterRAG(state)
}

func (o *Orchestrator) domainNode(ctx context.Context, workflow string, state *State) string {
	switch workflow {
	case WorkflowCompetency:
		o.runCompetency(state)
	case WorkflowRecommendation:
		o.runRecommendation(ctx, state)
	case WorkflowMission:
		o.runMission(ctx, state)
	case WorkflowSearch:
		o.runSearch(ctx, state)
		// Search folds external results in, then may still need retrieval.
		if state.Plan != nil && state.Plan.NeedsRAG && state.RAGResult == nil && state.LoopCount < state.MaxLoops {
			state.LoopCount++
			return stepRAG
		}
	case WorkflowAnalytics:
		o.runAnalytics(ctx, state)
	case WorkflowDataCollection:
		o.runDataCollection(ctx, state)
	case WorkflowDeepAgents:
		o.runDeep(ctx, state)
	default:
		o.runGeneral(ctx, state)
	}

	state.Audit(workflow, nil)
	return stepSynthesis
}

func (o *Orchestrator) runCompetency(state *State) {
	var areas []agents.CompetencyScore
	if state.Context != nil {
		if raw, ok := state.Context["competency_areas"]; ok {
			if err := decodeContext(raw, &areas); err != nil {
				state.RecordError(fmt.Sprintf("competency: invalid areas payload: %v", err))
			}
		}
	}
	if len(areas) == 0 {
		state.RecordError("competency: no assessment areas provided")
		return
	}
	state.CompetencyData = agents.AssessCompetency(areas)
}

func (o *Orchestrator) runRecommendation(ctx context.Context, state *State) {
	if o.recommend == nil {
		state.RecordError("recommendation agent not configured")
		return
	}
	data, err := o.recommend.Recommend(ctx, state.Message(), state.Enrichment)
	if err != nil {
		state.RecordError(fmt.Sprintf("recommendation: %v", err))
		return
	}
	state.RecommendationData = data
}

func (o *Orchestrator) runMission(ctx context.Context, state *State) {
	creator, missions, err := o.missionInputs(ctx, state)
	if err != nil {
		state.RecordError(fmt.Sprintf("mission: %v", err))
		return
	}
	state.MissionRecommendations = o.missionEng.Recommend(creator, missions)
	o.metrics.RecordMissionRecommendations(ctx, len(state.MissionRecommendations))
}

// missionInputs prefers inline context payloads over the mission source.
func (o *Orchestrator) missionInputs(ctx context.Context, state *State) (*agents.CreatorState, []agents.Mission, error) {
	var creator *agents.CreatorState
	var missions []agents.Mission

	if state.Context != nil {
		if raw, ok := state.Context["creator"]; ok {
			var decoded agents.CreatorState
			if err := decodeContext(raw, &decoded); err == nil && decoded.ID != "" {
				creator = &decoded
			}
		}
		if raw, ok := state.Context["missions"]; ok {
			if err := decodeContext(raw, &missions); err != nil {
				missions = nil
			}
		}
	}

	if creator == nil && o.missionSrc != nil && state.UserID != "" {
		loaded, err := o.missionSrc.Creator(ctx, state.UserID)
		if err != nil {
			return nil, nil, fmt.Errorf("loading creator %s: %w", state.UserID, err)
		}
		creator = loaded
	}
	if len(missions) == 0 && o.missionSrc != nil {
		loaded, err := o.missionSrc.Missions(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("loading mission catalog: %w", err)
		}
		missions = loaded
	}

	if creator == nil {
		return nil, nil, fmt.Errorf("no creator state available")
	}
	if len(missions) == 0 {
		return nil, nil, fmt.Errorf("no missions available")
	}
	return creator, missions, nil
}

func (o *Orchestrator) runSearch(ctx context.Context, state *State) {
	if o.search != nil {
		docs, err := o.search.Search(ctx, state.Message())
		if err != nil {
			state.RecordError(fmt.Sprintf("search: %v", err))
		} else {
			state.SearchResults = docs
		}
	}

	// external_integration: fold the enrichment pass into one field.
	state.ExternalAPIResults = o.integrate.Integrate(state.Enrichment)
}

func (o *Orchestrator) runAnalytics(ctx context.Context, state *State) {
	if o.analytics == nil {
		state.RecordError("analytics agent not configured")
		return
	}

	reportType := contextString(state.Context, "report_type")
	if reportType == "" {
		reportType = agents.ReportLearningProgress
	}
	report, err := o.analytics.Generate(ctx, reportType, state.UserID)
	if err != nil {
		state.RecordError(fmt.Sprintf("analytics: %v", err))
		return
	}
	state.AnalyticsResults = report
}

func (o *Orchestrator) runDataCollection(ctx context.Context, state *State) {
	if o.collect == nil {
		state.RecordError("data collection agent not configured")
		return
	}
	spec := buildToolSpec(state)
	if spec == nil {
		state.RecordError("data collection: nothing to collect")
		return
	}
	data, err := o.collect.Collect(ctx, spec)
	if err != nil {
		state.RecordError(fmt.Sprintf("data collection: %v", err))
		return
	}
	state.CollectedData = data
}

func (o *Orchestrator) runDeep(ctx context.Context, state *State) {
	if o.deepAgent == nil {
		state.RecordError("deep agent not configured")
		o.runGeneral(ctx, state)
		return
	}
	result, err := o.deepAgent.Run(ctx, state.Message())
	if err != nil {
		state.RecordError(fmt.Sprintf("deep_agents: %v", err))
		return
	}
	state.DeepResult = result
}

func (o *Orchestrator) runGeneral(ctx context.Context, state *State) {
	opts := llm.Options{}
	if state.Plan != nil {
		opts.Complexity = planComplexityHint(state.Plan.Complexity)
	}

	result, err := o.engine.Generate(ctx, llm.GenerateRequest{
		SystemPrompt: "당신은 크리에이터 플랫폼의 친절한 어시스턴트입니다. 한국어로 답변하세요.",
		Prompt:       state.Message(),
		Options:      opts,
	})
	if err != nil && result == nil {
		state.RecordError(fmt.Sprintf("general: %v", err))
		return
	}

	state.SelectedLLMModel = result.Model
	state.RAGResult = &RAGOutcome{Answer: result.Content, Model: result.Model}
}

func (o *Orchestrator) synthesisNode(ctx context.Context, state *State) string {
	state.FinalResponse = o.synthesizer.Synthesize(ctx, state)
	state.AppendMessage("assistant", state.FinalResponse)
	state.Audit(stepSynthesis, map[string]any{
		"length": len(state.FinalResponse),
		"errors": len(state.Errors),
	})
	return stepEnd
}

// checkpointState persists the whole state. A write failure is recorded
// but never stops the run.
func (o *Orchestrator) checkpointState(ctx context.Context, state *State) bool {
	if o.store == nil {
		return false
	}
	blob, err := state.Marshal()
	if err != nil {
		state.RecordError(fmt.Sprintf("checkpoint marshal failed: %v", err))
		return false
	}
	if err := o.store.Put(ctx, state.ThreadID, blob); err != nil {
		state.RecordError(fmt.Sprintf("checkpoint write failed: %v", err))
		return false
	}
	return true
}

// planComplexityHint maps the plan's complexity enum to the engine hint.
func planComplexityHint(complexity string) string {
	if complexity == "high" {
		return "deep"
	}
	return ""
}

func joinLimited(items []string, max int) string {
	if len(items) > max {
		items = items[:max]
	}
	out := ""
	for i, item := range items {
		if i > 0 {
			out += "\n"
		}
		out += "- " + item
	}
	return out
}
