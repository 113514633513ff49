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

package breaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakerOpensExactlyAtFailMax(t *testing.T) {
	b := New("web", 3, 30*time.Second)

	b.Failure(errors.New("boom"))
	b.Failure(errors.New("boom"))
	assert.Equal(t, Closed, b.CurrentState(), "one failure before fail_max must stay closed")
	assert.Equal(t, 2, b.FailCounter())

	b.Failure(errors.New("boom"))
	assert.Equal(t, Open, b.CurrentState(), "the fail_max-th consecutive failure opens the breaker")
}

func TestBreakerSuccessResetsCounter(t *testing.T) {
	b := New("web", 3, 30*time.Second)

	b.Failure(errors.New("boom"))
	b.Failure(errors.New("boom"))
	b.Success()
	assert.Equal(t, 0, b.FailCounter())

	b.Failure(errors.New("boom"))
	b.Failure(errors.New("boom"))
	assert.Equal(t, Closed, b.CurrentState(), "counter restarted after success")
}

func TestBreakerHalfOpenAfterResetTimeout(t *testing.T) {
	b := New("web", 1, 30*time.Second)

	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return clock }

	b.Failure(errors.New("boom"))
	require.Equal(t, Open, b.CurrentState())
	assert.Error(t, b.Allow())

	// Just before the reset timeout the breaker stays open.
	clock = clock.Add(30*time.Second - time.Millisecond)
	assert.Error(t, b.Allow())
	assert.Equal(t, Open, b.CurrentState())

	clock = clock.Add(time.Millisecond)
	assert.NoError(t, b.Allow())
	assert.Equal(t, HalfOpen, b.CurrentState())
}

func TestBreakerHalfOpenTransitions(t *testing.T) {
	t.Run("success closes", func(t *testing.T) {
		b := newHalfOpen(t)
		b.Success()
		assert.Equal(t, Closed, b.CurrentState())
	})

	t.Run("failure reopens", func(t *testing.T) {
		b := newHalfOpen(t)
		b.Failure(errors.New("still broken"))
		assert.Equal(t, Open, b.CurrentState())
	})
}

func newHalfOpen(t *testing.T) *Breaker {
	t.Helper()
	b := New("web", 1, time.Second)
	clock := time.Now()
	b.now = func() time.Time { return clock }
	b.Failure(errors.New("boom"))
	clock = clock.Add(2 * time.Second)
	require.NoError(t, b.Allow())
	require.Equal(t, HalfOpen, b.CurrentState())
	return b
}

func TestBreakerReset(t *testing.T) {
	b := New("web", 1, time.Minute)
	b.Failure(errors.New("boom"))
	require.Equal(t, Open, b.CurrentState())

	b.Reset()
	assert.Equal(t, Closed, b.CurrentState())
	assert.Equal(t, 0, b.FailCounter())
	assert.NoError(t, b.Allow())
}

func TestManagerReturnsSameBreakerByName(t *testing.T) {
	m := NewManager()

	first := m.Get("web", 3, 30*time.Second)
	second := m.Get("web", 99, time.Hour)
	assert.Same(t, first, second, "manager must key breakers by name only")

	_, ok := m.Lookup("youtube")
	assert.False(t, ok)

	m.Get("youtube", 3, 30*time.Second)
	status := m.Status()
	assert.Len(t, status, 2)
}
