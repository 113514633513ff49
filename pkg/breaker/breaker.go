// Copyright 2025 CreatorCore Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package breaker implements named circuit breakers consulted by every
// external call. The state machine is intentionally small: the observability
// contract (state changes logged, success/failure counts exposed) is the
// product of value.
package breaker

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// State is the breaker state.
type State string

const (
	Closed   State = "closed"
	Open     State = "open"
	HalfOpen State = "half_open"
)

// ErrOpen is returned by Allow when the breaker is open.
var ErrOpen = errors.New("circuit_open")

// Listener receives breaker lifecycle events.
type Listener interface {
	StateChanged(name string, from, to State)
	CallSucceeded(name string)
	CallFailed(name string, err error)
}

// logListener logs state changes and keeps success/failure counts.
type logListener struct {
	mu        sync.Mutex
	successes int64
	failures  int64
}

func (l *logListener) StateChanged(name string, from, to State) {
	slog.Info("Circuit breaker state changed", "breaker", name, "from", from, "to", to)
}

func (l *logListener) CallSucceeded(name string) {
	l.mu.Lock()
	l.successes++
	l.mu.Unlock()
}

func (l *logListener) CallFailed(name string, err error) {
	l.mu.Lock()
	l.failures++
	l.mu.Unlock()
	slog.Debug("Circuit breaker recorded failure", "breaker", name, "error", err)
}

func (l *logListener) counts() (successes, failures int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.successes, l.failures
}

// Breaker is a single named circuit breaker.
type Breaker struct {
	name         string
	failMax      int
	resetTimeout time.Duration

	mu             sync.Mutex
	state          State
	failCounter    int
	lastTransition time.Time

	listener *logListener
	now      func() time.Time
}

// New creates a breaker in the closed state.
func New(name string, failMax int, resetTimeout time.Duration) *Breaker {
	if failMax <= 0 {
		failMax = 3
	}
	if resetTimeout <= 0 {
		resetTimeout = 30 * time.Second
	}
	return &Breaker{
		name:         name,
		failMax:      failMax,
		resetTimeout: resetTimeout,
		state:        Closed,
		listener:     &logListener{},
		now:          time.Now,
	}
}

// Name returns the breaker name.
func (b *Breaker) Name() string { return b.name }

// FailMax returns the failure threshold.
func (b *Breaker) FailMax() int { return b.failMax }

// ResetTimeout returns the open-to-half-open delay.
func (b *Breaker) ResetTimeout() time.Duration { return b.resetTimeout }

// CurrentState returns the breaker state, applying the open -> half_open
// transition when the reset timeout has elapsed.
func (b *Breaker) CurrentState() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maybeHalfOpen()
	return b.state
}

// FailCounter returns the consecutive failure count.
func (b *Breaker) FailCounter() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failCounter
}

// Allow reports whether a call may proceed. Open breakers reject with
// ErrOpen; rejected calls do not count as failures.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maybeHalfOpen()
	if b.state == Open {
		return ErrOpen
	}
	return nil
}

// Success records a successful call. In half-open state the breaker closes.
func (b *Breaker) Success() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maybeHalfOpen()

	b.failCounter = 0
	if b.state == HalfOpen {
		b.transition(Closed)
	}
	b.listener.CallSucceeded(b.name)
}

// Failure records a failed call. The breaker opens at exactly the
// failMax-th consecutive failure, and a half-open breaker re-opens on any
// failure.
func (b *Breaker) Failure(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maybeHalfOpen()

	b.failCounter++
	b.listener.CallFailed(b.name, err)

	switch b.state {
	case HalfOpen:
		b.transition(Open)
	case Closed:
		if b.failCounter >= b.failMax {
			b.transition(Open)
		}
	}
}

// Reset forces the breaker back to closed with a zero counter.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failCounter = 0
	if b.state != Closed {
		b.transition(Closed)
	}
}

// maybeHalfOpen applies the timed open -> half_open transition.
// Caller must hold b.mu.
func (b *Breaker) maybeHalfOpen() {
	if b.state == Open && b.now().Sub(b.lastTransition) >= b.resetTimeout {
		b.transition(HalfOpen)
	}
}

// transition moves to a new state. Caller must hold b.mu.
func (b *Breaker) transition(to State) {
	from := b.state
	b.state = to
	b.lastTransition = b.now()
	b.listener.StateChanged(b.name, from, to)
}

// Snapshot is a point-in-time view of a breaker.
type Snapshot struct {
	Name         string  `json:"name"`
	State        State   `json:"state"`
	FailCounter  int     `json:"fail_counter"`
	FailMax      int     `json:"fail_max"`
	ResetTimeout float64 `json:"reset_timeout_secs"`
	Successes    int64   `json:"successes"`
	Failures     int64   `json:"failures"`
}

// Snapshot returns the current breaker status.
func (b *Breaker) Snapshot() Snapshot {
	b.mu.Lock()
	b.maybeHalfOpen()
	state := b.state
	failCounter := b.failCounter
	b.mu.Unlock()

	successes, failures := b.listener.counts()
	return Snapshot{
		Name:         b.name,
		State:        state,
		FailCounter:  failCounter,
		FailMax:      b.failMax,
		ResetTimeout: b.resetTimeout.Seconds(),
		Successes:    successes,
		Failures:     failures,
	}
}
