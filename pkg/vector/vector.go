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

// Package vector abstracts vector database backends behind one Provider
// interface. Embeddings are always computed externally and passed in.
package vector

import (
	"context"
	"fmt"

	"github.com/creatorcore/creatorcore/pkg/config"
)

// Result is one search hit.
type Result struct {
	ID       string
	Score    float32
	Content  string
	Metadata map[string]any
	Vector   []float32
}

// Provider is the vector store contract.
type Provider interface {
	// Upsert adds or updates a document with its vector.
	Upsert(ctx context.Context, collection string, id string, vector []float32, metadata map[string]any) error

	// Search finds the topK most similar vectors.
	Search(ctx context.Context, collection string, vector []float32, topK int) ([]Result, error)

	// SearchWithFilter combines similarity with metadata equality filtering.
	SearchWithFilter(ctx context.Context, collection string, vector []float32, topK int, filter map[string]any) ([]Result, error)

	// Delete removes a document by ID.
	Delete(ctx context.Context, collection string, id string) error

	// CreateCollection ensures a collection exists with the given dimension.
	CreateCollection(ctx context.Context, collection string, vectorDimension int) error

	// Name returns the backend name.
	Name() string

	// Close releases backend resources.
	Close() error
}

// New creates a provider for the configured backend.
func New(cfg *config.VectorConfig) (Provider, error) {
	cfg.SetDefaults()
	switch cfg.Backend {
	case "pinecone":
		return NewPineconeProvider(cfg)
	case "qdrant":
		return NewQdrantProvider(cfg)
	case "chromem":
		return NewChromemProvider(cfg)
	case "memory":
		return NewMemoryProvider(), nil
	default:
		return nil, fmt.Errorf("unsupported vector backend: %s (supported: pinecone, qdrant, chromem, memory)", cfg.Backend)
	}
}
