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

// Package checkpoint persists orchestrator state per session thread so
// interrupted runs can resume and conversations survive restarts.
package checkpoint

import (
	"context"
	"errors"
	"fmt"

	"github.com/creatorcore/creatorcore/pkg/config"
)

// ErrNotFound is returned when no checkpoint exists for a thread.
var ErrNotFound = errors.New("checkpoint not found")

// Store is the persistence contract. State blobs are opaque JSON.
type Store interface {
	// Put saves the state for a thread, replacing any prior checkpoint.
	Put(ctx context.Context, threadID string, state []byte) error

	// Get returns the latest state for a thread, or ErrNotFound.
	Get(ctx context.Context, threadID string) ([]byte, error)

	// Delete removes a thread's checkpoint. Deleting a missing thread is
	// not an error.
	Delete(ctx context.Context, threadID string) error

	// Close releases backend resources.
	Close() error
}

// New creates a store for the configured backend.
func New(cfg *config.CheckpointConfig) (Store, error) {
	cfg.SetDefaults()
	switch cfg.Backend {
	case "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return NewSQLStore("sqlite3", cfg.Path)
	case "postgres":
		return NewSQLStore("postgres", cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported checkpoint backend: %s (supported: memory, sqlite, postgres)", cfg.Backend)
	}
}
