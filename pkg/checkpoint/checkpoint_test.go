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

package checkpoint

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creatorcore/creatorcore/pkg/config"
)

func testStores(t *testing.T) map[string]Store {
	t.Helper()

	sqlStore, err := NewSQLStore("sqlite3", filepath.Join(t.TempDir(), "checkpoints.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlStore.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sqlStore,
	}
}

func TestStoreRoundTrip(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			blob := []byte(`{"thread_id":"s1","messages":[{"role":"user","content":"hello"}]}`)

			require.NoError(t, store.Put(ctx, "s1", blob))

			got, err := store.Get(ctx, "s1")
			require.NoError(t, err)
			assert.JSONEq(t, string(blob), string(got))
		})
	}
}

func TestStorePutReplaces(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, store.Put(ctx, "s1", []byte(`{"v":1}`)))
			require.NoError(t, store.Put(ctx, "s1", []byte(`{"v":2}`)))

			got, err := store.Get(ctx, "s1")
			require.NoError(t, err)
			assert.JSONEq(t, `{"v":2}`, string(got))
		})
	}
}

func TestStoreGetMissing(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Get(context.Background(), "nope")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStoreDelete(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, store.Put(ctx, "s1", []byte(`{}`)))
			require.NoError(t, store.Delete(ctx, "s1"))

			_, err := store.Get(ctx, "s1")
			assert.ErrorIs(t, err, ErrNotFound)

			// Deleting a missing thread is not an error.
			assert.NoError(t, store.Delete(ctx, "s1"))
		})
	}
}

func TestMemoryStoreCopiesBlobs(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	blob := []byte(`{"v":1}`)
	require.NoError(t, store.Put(ctx, "s1", blob))
	blob[2] = 'x'

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":1}`, string(got), "mutating the caller's slice must not affect the store")
}

func TestNewSelectsBackend(t *testing.T) {
	cfg := &config.CheckpointConfig{Backend: "memory"}
	store, err := New(cfg)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	bad := &config.CheckpointConfig{Backend: "dynamo"}
	_, err = New(bad)
	assert.Error(t, err)
}
