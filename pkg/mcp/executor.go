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

package mcp

import (
	"context"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/creatorcore/creatorcore/pkg/breaker"
	"github.com/creatorcore/creatorcore/pkg/config"
)

// ExecutionRecord captures one tool call outcome for observability and the
// orchestrator's tool_policy state.
type ExecutionRecord struct {
	Breaker      string  `json:"breaker"`
	BreakerState string  `json:"breaker_state"`
	FailMax      int     `json:"fail_max"`
	ResetTimeout float64 `json:"reset_timeout"`
	TimeoutSecs  float64 `json:"timeout_s"`
	MaxRetries   int     `json:"max_retries"`
	Attempts     int     `json:"attempts"`
	OK           bool    `json:"ok"`
	Skipped      bool    `json:"skipped"`
	LastError    string  `json:"last_error,omitempty"`
	StartedAtMs  int64   `json:"started_at_ms"`
	DurationMs   int64   `json:"duration_ms"`
}

// Executor runs tool calls under a breaker, per-attempt timeout, and
// bounded retry with jittered exponential backoff.
type Executor struct {
	breakers *breaker.Manager
	policies map[string]config.ToolPolicyConfig
	now      func() time.Time
	sleep    func(time.Duration)
}

// NewExecutor creates an executor over a breaker manager.
func NewExecutor(breakers *breaker.Manager, policies map[string]config.ToolPolicyConfig) *Executor {
	return &Executor{
		breakers: breakers,
		policies: policies,
		now:      time.Now,
		sleep: func(d time.Duration) {
			time.Sleep(d)
		},
	}
}

func (e *Executor) policy(tool string) config.ToolPolicyConfig {
	p, ok := e.policies[tool]
	if !ok {
		p.SetDefaults()
	}
	return p
}

// Execute runs fn for the named tool family:
//
//  1. open breaker: skip immediately with last_error "circuit_open",
//     not counted as a failure;
//  2. otherwise up to retries+1 attempts, each under the policy timeout,
//     with backoff min(backoff_max, base*2^(attempt-1)) + uniform jitter;
//  3. every outcome recorded in the breaker and the returned record.
func (e *Executor) Execute(ctx context.Context, tool string, fn func(ctx context.Context) (map[string]any, error)) (map[string]any, ExecutionRecord) {
	policy := e.policy(tool)
	br := e.breakers.Get(tool, policy.FailMax, time.Duration(policy.ResetTimeoutSecs)*time.Second)

	record := ExecutionRecord{
		Breaker:      tool,
		FailMax:      policy.FailMax,
		ResetTimeout: float64(policy.ResetTimeoutSecs),
		TimeoutSecs:  policy.TimeoutSecs,
		MaxRetries:   policy.MaxRetries,
		StartedAtMs:  e.now().UnixMilli(),
	}

	if err := br.Allow(); err != nil {
		record.Skipped = true
		record.LastError = breaker.ErrOpen.Error()
		record.BreakerState = string(br.CurrentState())
		slog.Warn("Tool call skipped, circuit open", "tool", tool)
		return nil, record
	}

	start := e.now()
	timeout := time.Duration(policy.TimeoutSecs * float64(time.Second))

	var lastErr error
	for attempt := 1; attempt <= policy.MaxRetries+1; attempt++ {
		// A breaker that opened on a previous attempt interrupts the
		// retry loop immediately.
		if attempt > 1 && br.Allow() != nil {
			record.Skipped = true
			record.LastError = breaker.ErrOpen.Error()
			record.BreakerState = string(br.CurrentState())
			record.DurationMs = e.now().Sub(start).Milliseconds()
			slog.Warn("Retry loop interrupted, circuit opened", "tool", tool, "attempt", attempt)
			return nil, record
		}
		record.Attempts = attempt

		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		result, err := fn(attemptCtx)
		cancel()

		if err == nil {
			br.Success()
			record.OK = true
			record.BreakerState = string(br.CurrentState())
			record.DurationMs = e.now().Sub(start).Milliseconds()
			return result, record
		}

		lastErr = err
		br.Failure(err)
		slog.Warn("Tool call failed",
			"tool", tool,
			"attempt", attempt,
			"error", err)

		if attempt <= policy.MaxRetries {
			backoff := math.Min(policy.BackoffMaxSecs, policy.BackoffBaseSecs*math.Pow(2, float64(attempt-1)))
			jitter := rand.Float64() * policy.JitterSecs
			e.sleep(time.Duration((backoff + jitter) * float64(time.Second)))
		}
	}

	record.LastError = lastErr.Error()
	record.BreakerState = string(br.CurrentState())
	record.DurationMs = e.now().Sub(start).Milliseconds()
	return nil, record
}
