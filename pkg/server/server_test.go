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

package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creatorcore/creatorcore/pkg/breaker"
	"github.com/creatorcore/creatorcore/pkg/config"
)

// newTestServer builds a server with no orchestrator wired; only handlers
// that never reach it are exercised here.
func newTestServer() *Server {
	return New(config.ServerConfig{}, nil, nil, nil, nil, nil)
}

func doRequest(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	s.http.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	rec := doRequest(t, newTestServer(), http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestOrchestrateValidation(t *testing.T) {
	s := newTestServer()

	tests := []struct {
		name string
		body string
		want string
	}{
		{"invalid json", "{broken", "invalid JSON body"},
		{"missing message", `{"message":"  "}`, "message is required"},
		{"bad security level", `{"message":"미션 추천","security_level":"extreme"}`, "security_level must be standard or high"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, s, http.MethodPost, "/v1/orchestrate", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}
}

func TestResumeRequiresNewMessage(t *testing.T) {
	rec := doRequest(t, newTestServer(), http.MethodPost, "/v1/sessions/t1/resume", `{"new_message":""}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "new_message is required")
}

func TestRAGValidationAndUnavailable(t *testing.T) {
	s := newTestServer()

	rec := doRequest(t, s, http.MethodPost, "/v1/rag", `{"query":""}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "query is required")

	// No pipeline configured.
	rec = doRequest(t, s, http.MethodPost, "/v1/rag", `{"query":"등급 기준"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCreatorEvaluateValidationAndUnavailable(t *testing.T) {
	s := newTestServer()

	rec := doRequest(t, s, http.MethodPost, "/v1/creators/evaluate", `{"platform":"tiktok"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "platform and handle are required")

	rec = doRequest(t, s, http.MethodPost, "/v1/creators/evaluate",
		`{"platform":"tiktok","handle":"@tester"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestBreakersEndpoint(t *testing.T) {
	// Nil manager still answers with an empty list.
	rec := doRequest(t, newTestServer(), http.MethodGet, "/v1/breakers", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())

	s := New(config.ServerConfig{}, nil, nil, nil, breaker.NewManager(), nil)
	rec = doRequest(t, s, http.MethodGet, "/v1/breakers", "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestStatsEndpointWithoutRecorder(t *testing.T) {
	rec := doRequest(t, newTestServer(), http.MethodGet, "/v1/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())
}
