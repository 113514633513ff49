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

// Package server exposes the orchestrator over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/creatorcore/creatorcore/pkg/agents"
	"github.com/creatorcore/creatorcore/pkg/breaker"
	"github.com/creatorcore/creatorcore/pkg/checkpoint"
	"github.com/creatorcore/creatorcore/pkg/config"
	"github.com/creatorcore/creatorcore/pkg/observability"
	"github.com/creatorcore/creatorcore/pkg/orchestrator"
	"github.com/creatorcore/creatorcore/pkg/rag"
)

// Server is the HTTP surface over the orchestrator core.
type Server struct {
	cfg      config.ServerConfig
	orch     *orchestrator.Orchestrator
	pipeline *rag.Pipeline
	creator  *agents.CreatorAgent
	breakers *breaker.Manager
	stats    *observability.StatsRecorder
	http     *http.Server
}

// New builds the server and its routes.
func New(cfg config.ServerConfig, orch *orchestrator.Orchestrator, pipeline *rag.Pipeline,
	creator *agents.CreatorAgent, breakers *breaker.Manager, stats *observability.StatsRecorder) *Server {
	cfg.SetDefaults()

	s := &Server{
		cfg:      cfg,
		orch:     orch,
		pipeline: pipeline,
		creator:  creator,
		breakers: breakers,
		stats:    stats,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/orchestrate", s.handleOrchestrate)
		r.Post("/sessions/{id}/resume", s.handleResume)
		r.Delete("/sessions/{id}", s.handleClearSession)
		r.Get("/sessions/{id}", s.handleGetSession)
		r.Post("/rag", s.handleRAG)
		r.Post("/creators/evaluate", s.handleCreatorEvaluate)
		r.Get("/breakers", s.handleBreakers)
		r.Get("/stats", s.handleStats)
	})

	s.http = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	slog.Info("HTTP server listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleOrchestrate(w http.ResponseWriter, r *http.Request) {
	var req orchestrator.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	switch req.SecurityLevel {
	case "", "standard", "high":
	default:
		writeError(w, http.StatusBadRequest, "security_level must be standard or high")
		return
	}

	resp, err := s.orch.Run(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "id")

	var body struct {
		NewMessage string `json:"new_message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(body.NewMessage) == "" {
		writeError(w, http.StatusBadRequest, "new_message is required")
		return
	}

	resp, err := s.orch.ResumeSession(r.Context(), threadID, body.NewMessage)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleClearSession(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "id")
	if err := s.orch.ClearSession(r.Context(), threadID); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true, "thread_id": threadID})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "id")
	state, err := s.orch.LoadState(r.Context(), threadID)
	if errors.Is(err, checkpoint.ErrNotFound) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleRAG(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Query       string `json:"query"`
		UserProfile string `json:"user_profile,omitempty"`
		TaskContext string `json:"task_context,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(body.Query) == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	if s.pipeline == nil {
		writeError(w, http.StatusServiceUnavailable, "rag pipeline not configured")
		return
	}

	result, err := s.pipeline.Process(r.Context(), rag.Request{
		Query:       body.Query,
		UserProfile: body.UserProfile,
		TaskContext: body.TaskContext,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"response":  result.Answer,
		"cached":    result.Cached,
		"model":     result.Model,
		"documents": result.Documents,
	})
}

func (s *Server) handleCreatorEvaluate(w http.ResponseWriter, r *http.Request) {
	var input agents.CreatorInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if input.Platform == "" || input.Handle == "" {
		writeError(w, http.StatusBadRequest, "platform and handle are required")
		return
	}
	if s.creator == nil {
		writeError(w, http.StatusServiceUnavailable, "creator agent not configured")
		return
	}

	eval, err := s.creator.Evaluate(r.Context(), input)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, eval)
}

func (s *Server) handleBreakers(w http.ResponseWriter, r *http.Request) {
	if s.breakers == nil {
		writeJSON(w, http.StatusOK, []breaker.Snapshot{})
		return
	}
	writeJSON(w, http.StatusOK, s.breakers.Status())
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		writeJSON(w, http.StatusOK, []observability.OperationStats{})
		return
	}
	writeJSON(w, http.StatusOK, s.stats.All())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}

// requestLogger logs one line per request with duration and status.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Info("Request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
